package logger

import (
	"fmt"
	"log"
)

type ColorLogger struct {
	*log.Logger
}

type Color string

const (
	ColorRed    Color = "\u001b[31m"
	ColorGreen  Color = "\u001b[32m"
	ColorYellow Color = "\u001b[33m"
	ColorBlue   Color = "\u001b[34m"
	ColorReset  Color = "\u001b[0m"
)

func NewColorLogger(lg *log.Logger) *ColorLogger {
	c := ColorLogger{
		lg,
	}
	return &c
}

func (c *ColorLogger) Printcf(color Color, format string, args ...interface{}) {
	c.Print(string(color) + fmt.Sprintf(format, args...) + string(ColorReset))
}

func (c *ColorLogger) Printc(color Color, s string) {
	c.Print(string(color) + s + string(ColorReset))
}

// ActionColor color used when printing an event of the given action.
func ActionColor(action string) Color {
	switch action {
	case "create":
		return ColorGreen
	case "delete":
		return ColorRed
	case "modify":
		return ColorYellow
	case "move":
		return ColorBlue
	default:
		return ColorReset
	}
}
