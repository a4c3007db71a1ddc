// Package logger configures the process-wide logrus instance.
package logger

import (
	"os"

	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Setup installs the prefixed text formatter and sets the level from
// its string name ("debug", "info", ...). Unknown names mean info.
func Setup(level string) {
	formatter := &prefixed.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	}
	log.SetFormatter(formatter)
	log.SetOutput(os.Stdout)
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

// For returns an entry tagged with the given component prefix.
func For(component string) *log.Entry {
	return log.WithField("prefix", component)
}
