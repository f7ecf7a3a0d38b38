package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

type BaseLogger struct {
	mu     sync.Mutex
	prefix string
	entry  *logrus.Logger
}

// Options управляет уровнем и форматом вывода.
type Options struct {
	Level  string
	Format string // text | json
}

func NewLogger(writer io.Writer, prefix string) *BaseLogger {
	return NewLoggerWithOptions(writer, prefix, Options{})
}

func NewLoggerWithOptions(writer io.Writer, prefix string, opts Options) *BaseLogger {
	if writer == nil {
		writer = os.Stdout
	}
	l := logrus.New()
	l.SetOutput(writer)

	level, err := logrus.ParseLevel(strings.TrimSpace(opts.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(opts.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	}

	return &BaseLogger{
		prefix: prefix,
		entry:  l,
	}
}

func (l *BaseLogger) Log(format string, v ...interface{}) {
	l.entry.WithField("component", l.currentPrefix()).Info(fmt.Sprintf(format, v...))
}

func (l *BaseLogger) Warn(format string, v ...interface{}) {
	l.entry.WithField("component", l.currentPrefix()).Warn(fmt.Sprintf(format, v...))
}

func (l *BaseLogger) Error(format string, v ...interface{}) {
	l.entry.WithField("component", l.currentPrefix()).Error(fmt.Sprintf(format, v...))
}

func (l *BaseLogger) WithPrefix(extraPrefix string) *BaseLogger {
	return &BaseLogger{
		entry:  l.entry,
		prefix: strings.TrimSpace(l.currentPrefix() + " " + extraPrefix),
	}
}

func (l *BaseLogger) SetPrefix(prefix string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prefix = prefix
}

func (l *BaseLogger) SetWriter(writer io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entry.SetOutput(writer)
}

func (l *BaseLogger) currentPrefix() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.prefix
}

// Discard возвращает логгер без вывода, удобен в тестах.
func Discard() *BaseLogger {
	return NewLogger(io.Discard, "")
}
