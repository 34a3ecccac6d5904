package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

//Validate 规则说明
//字段	已通过 tag 校验	额外业务校验
//Level	oneof 预校验	小写比较，避免大小写问题
//Format	oneof=json console	无
//Path	required	可解析为绝对路径（目录由 logger 创建）
//MaxSize	gt=0	无
//MaxBackup	gte=0	无
//MaxAge	gte=0	无

// Validate 日志配置校验
func (l *ZapLogConfig) Validate() error {
	l.Level = strings.ToLower(l.Level)
	if err := valid.Struct(l); err != nil {
		return fmt.Errorf("日志配置字段非法: %w", err)
	}
	if _, err := filepath.Abs(l.Path); err != nil {
		return fmt.Errorf("log.path cannot be resolved, got %s: %w", l.Path, err)
	}
	return nil
}
