package config

import (
	"fmt"
	"os"
	"time"
)

// Validate 轮询间隔必须在 1s ~ 1h 之间
func (p *PollConfig) Validate() error {
	if err := valid.Struct(p); err != nil {
		return err
	}
	if p.Interval < time.Second || p.Interval > time.Hour {
		return fmt.Errorf("poll.interval must be between 1s and 1h, got %s", p.Interval)
	}
	return nil
}

// Validate checks the CA bundle is readable when one is configured.
func (p *PerfmonConfig) Validate() error {
	if err := valid.Struct(p); err != nil {
		return err
	}
	if p.CAFile == "" {
		return nil
	}
	fi, err := os.Stat(p.CAFile)
	if err != nil {
		return fmt.Errorf("perfmon.ca_file: %w", err)
	}
	if fi.IsDir() {
		return fmt.Errorf("perfmon.ca_file %s is a directory", p.CAFile)
	}
	return nil
}
