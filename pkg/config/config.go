package config

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var valid = validator.New()

// Config 全局配置结构体（聚合所有核心模块）
type Config struct {
	Auth    AuthConfig     `yaml:"auth" mapstructure:"auth" comment:"perfmon 服务认证"`
	Servers []string       `yaml:"servers" mapstructure:"servers" env:"TG_SERVERS" validate:"required,min=1,dive,required" comment:"集群节点，第一个为 publisher"`
	Devices []DeviceConfig `yaml:"devices" mapstructure:"devices" validate:"required,min=1,dive" comment:"需要采集的设备"`
	Paths   PathsConfig    `yaml:"paths" mapstructure:"paths" comment:"外部程序与输出目录"`
	HTML    HTMLConfig     `yaml:"html" mapstructure:"html" comment:"页面抬头"`
	Perfmon PerfmonConfig  `yaml:"perfmon" mapstructure:"perfmon" comment:"perfmon 请求配置"`
	Poll    PollConfig     `yaml:"poll" mapstructure:"poll" comment:"轮询配置"`
	Server  ServerConfig   `yaml:"server" mapstructure:"server" comment:"HTTP服务配置"`
	Log     ZapLogConfig   `yaml:"log" mapstructure:"log" comment:"日志配置"`
}

// AuthConfig 基本认证
type AuthConfig struct {
	Username string `yaml:"username" mapstructure:"username" env:"TG_AUTH_USERNAME" validate:"required" comment:"用户名"`
	Password string `yaml:"password" mapstructure:"password" env:"TG_AUTH_PASSWORD" validate:"required" comment:"密码"`
}

// DeviceConfig one monitored device. Class is the perfmon object label,
// e.g. "Cisco SIP".
type DeviceConfig struct {
	Name  string `yaml:"name" mapstructure:"name" validate:"required" comment:"设备名（唯一）"`
	Class string `yaml:"class" mapstructure:"class" validate:"required" comment:"计数器类别"`
}

// PathsConfig 外部程序路径和输出目录
type PathsConfig struct {
	RRDTool   string `yaml:"rrdtool" mapstructure:"rrdtool" env:"TG_PATHS_RRDTOOL" validate:"required" comment:"rrdtool 可执行文件"`
	Databases string `yaml:"databases" mapstructure:"databases" env:"TG_PATHS_DATABASES" validate:"required" comment:"RRD 数据库目录" default:"databases"`
	Images    string `yaml:"images" mapstructure:"images" env:"TG_PATHS_IMAGES" validate:"required" comment:"图片与页面目录" default:"images"`
}

// HTMLConfig 页面抬头
type HTMLConfig struct {
	CompanyName string `yaml:"company_name" mapstructure:"company_name" env:"TG_HTML_COMPANY_NAME" comment:"公司名"`
	CompanyLogo string `yaml:"company_logo" mapstructure:"company_logo" env:"TG_HTML_COMPANY_LOGO" comment:"logo 图片（相对 images 目录）"`
}

// PerfmonConfig perfmon 请求配置
type PerfmonConfig struct {
	Timeout            time.Duration `yaml:"timeout" mapstructure:"timeout" env:"TG_PERFMON_TIMEOUT" validate:"required,gt=0" comment:"单个请求超时" default:"30s"`
	Concurrency        int           `yaml:"concurrency" mapstructure:"concurrency" env:"TG_PERFMON_CONCURRENCY" validate:"gte=1,lte=64" comment:"并发请求数" default:"4"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify" env:"TG_PERFMON_INSECURE_SKIP_VERIFY" comment:"跳过证书校验（不安全）" default:"false"`
	CAFile             string        `yaml:"ca_file" mapstructure:"ca_file" env:"TG_PERFMON_CA_FILE" comment:"自定义 CA 证书"`
}

// PollConfig 轮询配置
type PollConfig struct {
	Interval     time.Duration `yaml:"interval" mapstructure:"interval" env:"TG_POLL_INTERVAL" validate:"required" comment:"轮询间隔" default:"60s"`
	Concurrency  int           `yaml:"concurrency" mapstructure:"concurrency" env:"TG_POLL_CONCURRENCY" validate:"gte=1,lte=64" comment:"并发处理的设备数" default:"4"`
	ExecTimeout  time.Duration `yaml:"exec_timeout" mapstructure:"exec_timeout" env:"TG_POLL_EXEC_TIMEOUT" validate:"required,gt=0" comment:"rrdtool 单次执行超时" default:"30s"`
	LockTimeout  time.Duration `yaml:"lock_timeout" mapstructure:"lock_timeout" env:"TG_POLL_LOCK_TIMEOUT" validate:"gte=0" comment:"设备文件锁等待时间" default:"10s"`
	MinFreeBytes uint64        `yaml:"min_free_bytes" mapstructure:"min_free_bytes" env:"TG_POLL_MIN_FREE_BYTES" comment:"数据库目录最小剩余空间，0 不检查" default:"0"`
}

// ServerConfig HTTP服务配置（超时统一为time.Duration，支持"30s"解析）
type ServerConfig struct {
	Enable       bool          `yaml:"enable" mapstructure:"enable" env:"TG_SERVER_ENABLE" comment:"loop 模式下启用HTTP服务" default:"false"`
	Addr         string        `yaml:"addr" mapstructure:"addr" env:"TG_SERVER_ADDR" validate:"required,hostname_port" comment:"HTTP监听地址（格式：ip:port）"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" env:"TG_SERVER_READ_TIMEOUT" validate:"required,gt=0" comment:"读取超时时间（如30s）"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" env:"TG_SERVER_WRITE_TIMEOUT" validate:"required,gt=0" comment:"写入超时时间（如30s）"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" env:"TG_SERVER_IDLE_TIMEOUT" validate:"required,gt=0" comment:"空闲连接超时时间（如60s）"`
}

// ZapLogConfig 日志配置
type ZapLogConfig struct {
	Level     string `yaml:"level" mapstructure:"level" env:"TG_LOG_LEVEL" validate:"required,oneof=debug info warn error" comment:"日志级别" default:"info"`
	Format    string `yaml:"format" mapstructure:"format" env:"TG_LOG_FORMAT" validate:"required,oneof=json console" comment:"文件日志格式（json/console）" default:"json"`
	Path      string `yaml:"path" mapstructure:"path" env:"TG_LOG_PATH" validate:"required" comment:"日志存储路径" default:"./logs"`
	MaxSize   int    `yaml:"max_size" mapstructure:"max_size" env:"TG_LOG_MAX_SIZE" validate:"gt=0" comment:"单个日志文件最大大小（MB）" default:"100"`
	MaxBackup int    `yaml:"max_backup" mapstructure:"max_backup" env:"TG_LOG_MAX_BACKUP" validate:"gte=0" comment:"日志文件最大备份数" default:"30"`
	MaxAge    int    `yaml:"max_age" mapstructure:"max_age" env:"TG_LOG_MAX_AGE" validate:"gte=0" comment:"日志文件最大保存天数（max_backup 为 0 时生效）" default:"7"`
}

// NewDefaultConfig 创建默认配置。auth、servers、devices 和 paths.rrdtool 没有默认值，必须显式配置。
func NewDefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			Databases: "databases",
			Images:    "images",
		},
		Perfmon: PerfmonConfig{
			Timeout:     30 * time.Second,
			Concurrency: 4,
		},
		Poll: PollConfig{
			Interval:    60 * time.Second,
			Concurrency: 4,
			ExecTimeout: 30 * time.Second,
			LockTimeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Enable:       false,
			Addr:         "0.0.0.0:8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Log: ZapLogConfig{
			Level:     "info",
			Format:    "json",
			Path:      "./logs",
			MaxSize:   100,
			MaxBackup: 30,
			MaxAge:    7,
		},
	}
}
