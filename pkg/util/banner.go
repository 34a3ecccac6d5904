package util

import (
	"fmt"
	"io"
	"strings"

	"github.com/common-nighthawk/go-figure"
)

// 终端颜色
const (
	ColorReset  = "\x1b[0m"
	ColorRed    = "\x1b[1;31m"
	ColorGreen  = "\x1b[1;32m"
	ColorYellow = "\x1b[1;33m"
	ColorBlue   = "\x1b[1;34m"
	ColorCyan   = "\x1b[1;36m"
)

var colors = map[string]string{
	"red":    ColorRed,
	"green":  ColorGreen,
	"yellow": ColorYellow,
	"blue":   ColorBlue,
	"cyan":   ColorCyan,
}

// colorCode maps a color name ("cyan", "ColorCyan") to its ANSI code.
func colorCode(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, "Color"))
	if c, ok := colors[key]; ok {
		return c
	}
	return ColorReset
}

// PrintBanner 打印 ASCII banner，subtitle 为空时不输出副标题
func PrintBanner(w io.Writer, text, subtitle, color string) {
	fig := figure.NewFigure(text, "", true)
	ansiColor := colorCode(color)
	for _, line := range fig.Slicify() {
		if strings.TrimSpace(line) == "" {
			continue
		}
		_, _ = fmt.Fprintln(w, ansiColor+line+ColorReset)
	}
	if subtitle != "" {
		_, _ = fmt.Fprintln(w, ansiColor+subtitle+ColorReset)
	}
}
