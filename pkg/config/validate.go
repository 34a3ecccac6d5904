package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate 配置校验：先检查必填配置段，再做 tag 校验和各段业务校验
func (c *Config) Validate() error {
	if err := c.checkSections(); err != nil {
		return err
	}
	if err := valid.Struct(c); err != nil {
		return invalid(sectionOf(err), err)
	}
	if err := c.validateServers(); err != nil {
		return invalid("servers", err)
	}
	if err := c.validateDevices(); err != nil {
		return invalid("devices", err)
	}
	if err := c.Perfmon.Validate(); err != nil {
		return invalid("perfmon", err)
	}
	if err := c.Poll.Validate(); err != nil {
		return invalid("poll", err)
	}
	if err := c.Server.Validate(); err != nil {
		return invalid("server", err)
	}
	if err := c.Log.Validate(); err != nil {
		return invalid("log", err)
	}
	return nil
}

// checkSections reports sections that must come from the operator. They
// have no defaults on purpose.
func (c *Config) checkSections() error {
	switch {
	case c.Auth.Username == "" && c.Auth.Password == "":
		return missing("auth", "set auth.username and auth.password")
	case len(c.Servers) == 0:
		return missing("servers", "list the cluster nodes, publisher first")
	case len(c.Devices) == 0:
		return missing("devices", "add at least one {name, class} entry")
	case c.Paths.RRDTool == "":
		return missing("paths", "set paths.rrdtool to the rrdtool executable")
	}
	return nil
}

// sectionOf returns the top level key of the first failed field,
// "Config.Devices[0].Name" -> "devices".
func sectionOf(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "config"
	}
	parts := strings.Split(ve[0].Namespace(), ".")
	if len(parts) < 2 {
		return "config"
	}
	section, _, _ := strings.Cut(parts[1], "[")
	return strings.ToLower(section)
}

func (c *Config) validateServers() error {
	seen := make(map[string]bool, len(c.Servers))
	for _, s := range c.Servers {
		s = strings.TrimSpace(s)
		if s == "" {
			return errors.New("server address cannot be empty")
		}
		if seen[s] {
			return fmt.Errorf("duplicated server %q", s)
		}
		seen[s] = true
	}
	return nil
}

// validateDevices 设备名唯一，且可以直接用作文件名
func (c *Config) validateDevices() error {
	seen := make(map[string]bool, len(c.Devices))
	for _, d := range c.Devices {
		if strings.ContainsAny(d.Name, `/\`) {
			return fmt.Errorf("device %q must not contain '/' or '\\'", d.Name)
		}
		if d.Name == "." || d.Name == ".." || strings.TrimSpace(d.Name) != d.Name {
			return fmt.Errorf("device %q is not a usable file name", d.Name)
		}
		if seen[d.Name] {
			return fmt.Errorf("duplicated device %q", d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}
