package agent

import (
	"github.com/spf13/cobra"
)

func initLogFlags(root *cobra.Command) {
	f := root.Flags()
	logPrefix := "log."

	f.String(
		logPrefix+"level",
		defaultCfg.Log.Level,
		"-> Log level [debug,info,warn,error] | 日志级别")
	f.String(
		logPrefix+"format",
		defaultCfg.Log.Format,
		"-> Log file format [console,json] | 日志格式")
	f.String(
		logPrefix+"path",
		defaultCfg.Log.Path,
		"-> Log file directory | 日志路径")
	f.Int(
		logPrefix+"max-size",
		defaultCfg.Log.MaxSize,
		"-> Max size of single log file (MB) | 单文件最大MB")
	f.Int(
		logPrefix+"max-backup",
		defaultCfg.Log.MaxBackup,
		"-> Number of log files kept | 备份数量")
	f.Int(
		logPrefix+"max-age",
		defaultCfg.Log.MaxAge,
		"-> Maximum retention days when max-backup is 0 | 保存天数")
}
