package log

import (
	"io"
	"os"

	"github.com/op/go-logging"
)

type Level logging.Level

// The levels the traversal core and CLI actually switch between: Notice is
// the default (lane-by-lane result lines), Debug/Info are unlocked by the
// CLI's -v/-vv flags.
const (
	Debug Level = iota
	Info
	Notice
)

// The logger format
var format = logging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
)

// The internal leveled logger backend
var leveledBackend logging.LeveledBackend

// Logger is the subset of op/go-logging's *logging.Logger this module calls:
// Debugf for builder internals, Noticef for per-lane CLI output, Error for
// top-level command failures.
type Logger interface {
	Debugf(format string, v ...interface{})
	Noticef(format string, v ...interface{})
	Error(v ...interface{})
}

// Create a new named logger, scoped to a package ("bvh") or binary
// ("bvhtrace") the way cmd/bvhtrace and bvh.Build4 do.
func New(name string) Logger {
	return logging.MustGetLogger(name)
}

// Override the backend output sink.
func SetSink(sink io.Writer) {
	backend := logging.NewLogBackend(sink, "", 0)
	backendWithFormatter := logging.NewBackendFormatter(backend, format)
	leveledBackend = logging.AddModuleLevel(backendWithFormatter)
	leveledBackend.SetLevel(logging.NOTICE, "")
	logging.SetBackend(leveledBackend)
}

// Set logger verbosity.
func SetLevel(level Level) {
	var loggerLevel logging.Level

	switch level {
	case Debug:
		loggerLevel = logging.DEBUG
	case Info:
		loggerLevel = logging.INFO
	case Notice:
		loggerLevel = logging.NOTICE
	}

	leveledBackend.SetLevel(loggerLevel, "")
}

func init() {
	SetSink(os.Stdout)
	SetLevel(Notice)
}
