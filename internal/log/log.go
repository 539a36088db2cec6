// Package log prints colored, leveled status lines for the fsviews CLI.
package log

import (
	"fmt"
	"io"
	"os"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorCyan   = "\033[0;36m"
	colorWhite  = "\033[1;37m"
)

const sectionLine = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// Out receives every line. Commands point it at cobra's output writer.
var Out io.Writer = os.Stderr

// OsExit is called by Fatal. Tests replace it.
var OsExit = os.Exit

// Plain disables ANSI colors.
var Plain bool

func line(color, tag, msg string) {
	if Plain {
		fmt.Fprintf(Out, "[%s] %s\n", tag, msg)
		return
	}
	fmt.Fprintf(Out, "%s[%s]%s %s\n", color, tag, colorReset, msg)
}

// Info prints an [INFO] line.
func Info(msg string) { line(colorWhite, "INFO", msg) }

// Infof formats an [INFO] line.
func Infof(format string, args ...any) { Info(fmt.Sprintf(format, args...)) }

// Success prints a [SUCCESS] line.
func Success(msg string) { line(colorGreen, "SUCCESS", msg) }

// Warning prints a [WARNING] line.
func Warning(msg string) { line(colorYellow, "WARNING", msg) }

// Warningf formats a [WARNING] line.
func Warningf(format string, args ...any) { Warning(fmt.Sprintf(format, args...)) }

// Error prints an [ERROR] line.
func Error(msg string) { line(colorRed, "ERROR", msg) }

// Fatal prints an [ERROR] line and exits with status 1.
func Fatal(msg string) {
	Error(msg)
	OsExit(1)
}

// Section prints a titled separator block.
func Section(title string) {
	if Plain {
		fmt.Fprintf(Out, "\n%s\n%s\n%s\n\n", sectionLine, title, sectionLine)
		return
	}
	fmt.Fprintf(Out, "\n%s%s%s\n", colorCyan, sectionLine, colorReset)
	fmt.Fprintf(Out, "%s%s%s\n", colorCyan, title, colorReset)
	fmt.Fprintf(Out, "%s%s%s\n\n", colorCyan, sectionLine, colorReset)
}
