package config

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingSection is wrapped when a required section is absent or empty.
	ErrMissingSection = errors.New("missing required section")
	// ErrInvalid is wrapped when a section is present but malformed.
	ErrInvalid = errors.New("invalid value")
	// ErrNoConfigFile is wrapped when no configuration file could be found.
	ErrNoConfigFile = errors.New("no configuration file")
)

// Error 配置错误，携带出错的配置段和修复提示
type Error struct {
	Section string
	Hint    string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("config [%s]: %v", e.Section, e.Err)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func missing(section, hint string) *Error {
	return &Error{Section: section, Hint: hint, Err: ErrMissingSection}
}

func invalid(section string, err error) *Error {
	return &Error{Section: section, Err: fmt.Errorf("%w: %v", ErrInvalid, err)}
}
