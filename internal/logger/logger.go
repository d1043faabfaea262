package logger

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// Init initializes the default logger. level is a charmbracelet/log level
// name; an empty or unknown level keeps warnings and errors only.
func Init(level string, noColor bool) {
	Setup(os.Stderr, level, noColor)
}

// Setup installs a default logger writing to w
func Setup(w io.Writer, level string, noColor bool) *log.Logger {
	l := log.NewWithOptions(w,
		log.Options{
			ReportCaller:    level == "debug",
			ReportTimestamp: false,
			TimeFormat:      time.RFC3339,
			Prefix:          "VESPER",
		})

	lvl, err := log.ParseLevel(level)
	if err != nil || level == "" {
		lvl = log.WarnLevel
	}
	l.SetLevel(lvl)

	l.SetColorProfile(termenv.ANSI256)
	if noColor {
		l.SetColorProfile(termenv.Ascii)
	}

	log.SetDefault(l)
	return l
}
