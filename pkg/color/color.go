package color

import (
	"fmt"
	"os"
	"strings"

	"github.com/muesli/termenv"
)

const (
	Reset = "\033[0m"
	Bold  = "\033[1m"

	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
	Gray   = "\033[90m"

	BrightRed = "\033[91m"
)

var colorEnabled = true

func init() {
	if termenv.EnvNoColor() || termenv.NewOutput(os.Stderr).ColorProfile() == termenv.Ascii {
		colorEnabled = false
	}
}

func EnableColor(enable bool) {
	colorEnabled = enable
}

func IsColorEnabled() bool {
	return colorEnabled
}

func Colorize(color, text string) string {
	if !colorEnabled {
		return text
	}
	return color + text + Reset
}

func RedText(text string) string {
	return Colorize(Red, text)
}

func BrightRedText(text string) string {
	return Colorize(BrightRed, text)
}

func GreenText(text string) string {
	return Colorize(Green, text)
}

func YellowText(text string) string {
	return Colorize(Yellow, text)
}

func CyanText(text string) string {
	return Colorize(Cyan, text)
}

func GrayText(text string) string {
	return Colorize(Gray, text)
}

func BoldText(text string) string {
	return Colorize(Bold, text)
}

func Position(file string, line, col int) string {
	pos := fmt.Sprintf("%d:%d", line, col)
	if file != "" {
		pos = file + ":" + pos
	}
	return CyanText(pos)
}

// Caret renders a source line followed by a marker under column col. Tabs
// before the column are kept so the marker lines up in a terminal.
func Caret(line int, source string, col int) string {
	gutter := fmt.Sprintf("%4d | ", line)
	pad := strings.Repeat(" ", len(gutter)-2) + "| "

	var marker strings.Builder
	for i := 0; i < col-1 && i < len(source); i++ {
		if source[i] == '\t' {
			marker.WriteByte('\t')
		} else {
			marker.WriteByte(' ')
		}
	}
	for i := len(source); i < col-1; i++ {
		marker.WriteByte(' ')
	}

	return GrayText(gutter) + source + "\n" + GrayText(pad) + marker.String() + BrightRedText("^")
}

// Diagnostic formats an error with its location and, when the source line
// is known, a caret pointing at the column.
func Diagnostic(kind, file string, line, col int, message, source string) string {
	head := fmt.Sprintf("%s at %s: %s", BrightRedText(BoldText(kind)), Position(file, line, col), message)
	if source == "" || line <= 0 {
		return head
	}
	return head + "\n" + Caret(line, source, col)
}
