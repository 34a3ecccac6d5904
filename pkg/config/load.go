package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀：TG_POLL_INTERVAL -> poll.interval
const EnvPrefix = "TG"

// DefaultFiles are tried in order when no file is given.
var DefaultFiles = []string{"config.yaml", "config.yml", "settings.ini"}

// LoadOptions 加载选项
type LoadOptions struct {
	// File is a YAML file or a legacy settings.ini. Empty searches DefaultFiles.
	File string
	// Flags overrides file and environment. Only flags named "<section>.<key>"
	// are bound.
	Flags *pflag.FlagSet
}

// LoadConfigWithCli 支持 time.Duration，(Flags + YAML/INI + ENV)
func LoadConfigWithCli(cmd *cobra.Command) (*Config, error) {
	file, _ := cmd.Flags().GetString("config")
	return Load(LoadOptions{File: file, Flags: cmd.Flags()})
}

// Load builds the configuration from defaults, the file, the environment and
// flags, lowest precedence first, and validates it.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	// 1. 默认值（让 AutomaticEnv 能识别全部键）
	if err := setDefaults(v); err != nil {
		return nil, &Error{Section: "config", Err: err}
	}

	// 2. 配置文件
	path, err := resolveFile(opts.File)
	if err != nil {
		return nil, err
	}
	if err := readFile(v, path); err != nil {
		return nil, err
	}

	// 3. 环境变量 TG_AUTH_PASSWORD -> auth.password
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("servers")

	// 4. 绑定 Cobra Flags → Viper
	if opts.Flags != nil {
		if err := bindFlags(v, opts.Flags); err != nil {
			return nil, &Error{Section: "flags", Err: err}
		}
	}

	// 5. 解码反序列化到结构体（支持 time.Duration）
	cfg := NewDefaultConfig()
	if err := decode(v.AllSettings(), cfg); err != nil {
		return nil, &Error{Section: "config", Err: fmt.Errorf("%w: %v", ErrInvalid, err)}
	}
	cfg.normalize()

	// 6. 校验配置
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveFile(file string) (string, error) {
	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return "", &Error{Section: "file", Hint: "check the -c path", Err: fmt.Errorf("%w: %v", ErrNoConfigFile, err)}
		}
		return file, nil
	}
	for _, f := range DefaultFiles {
		if _, err := os.Stat(f); err == nil {
			return f, nil
		}
	}
	return "", &Error{
		Section: "file",
		Hint:    "pass -c <file> or create one with the sample-config command",
		Err:     fmt.Errorf("%w: tried %s", ErrNoConfigFile, strings.Join(DefaultFiles, ", ")),
	}
}

func readFile(v *viper.Viper, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".ini") {
		m, err := loadINI(path)
		if err != nil {
			return &Error{Section: "file", Err: err}
		}
		if err := v.MergeConfigMap(m); err != nil {
			return &Error{Section: "file", Err: err}
		}
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Error{Section: "file", Err: fmt.Errorf("%w: %v", ErrNoConfigFile, err)}
		}
		return &Error{Section: "file", Err: fmt.Errorf("read config file %s: %w", path, err)}
	}
	return nil
}

func setDefaults(v *viper.Viper) error {
	var m map[string]any
	if err := mapstructure.Decode(NewDefaultConfig(), &m); err != nil {
		return err
	}
	setNested(v, "", m)
	return nil
}

func setNested(v *viper.Viper, prefix string, m map[string]any) {
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			setNested(v, key, sub)
			continue
		}
		// empty lists are required sections, they must not look configured
		if rv := reflect.ValueOf(val); rv.Kind() == reflect.Slice && rv.Len() == 0 {
			continue
		}
		v.SetDefault(key, val)
	}
}

// bindFlags binds "log.max-size" to "log.max_size" and so on.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || !strings.Contains(f.Name, ".") {
			return
		}
		err = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	return err
}

func decode(input map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("new decoder: %w", err)
	}
	return decoder.Decode(input)
}

func (c *Config) normalize() {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	for i, s := range c.Servers {
		c.Servers[i] = strings.TrimSpace(s)
	}
	for i := range c.Devices {
		c.Devices[i].Class = strings.TrimSpace(c.Devices[i].Class)
	}
}
