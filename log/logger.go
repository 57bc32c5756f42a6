package log

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes leveled, timestamped lines to the terminal and/or a
// rotated log file. It never terminates the process: fatal conditions
// are the caller's business, this layer only reports.
type Logger struct {
	writer io.Writer

	Name  string
	Level LogLevel

	TimeFormat string
	File       string
	NoColor    bool
	NoTerminal bool
	Rotation   *Rotation
}

// Rotation configures the lumberjack-backed file output.
type Rotation struct {
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

func NewLogger(name string, level LogLevel, file string, noTerminal bool) *Logger {
	l := &Logger{
		Name:       name,
		Level:      level,
		File:       file,
		NoTerminal: noTerminal,

		TimeFormat: "2006-01-02 15:04:05",
		Rotation: &Rotation{
			MaxSize:    128,
			MaxBackups: 5,
			MaxAge:     16,
			Compress:   false,
		},
	}

	l.setupWriter()

	return l
}

func (l *Logger) setupWriter() {
	var writers []io.Writer

	if !l.NoTerminal {
		writers = append(writers, os.Stdout)
	}

	if l.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   l.File,
			MaxSize:    l.Rotation.MaxSize,
			MaxBackups: l.Rotation.MaxBackups,
			MaxAge:     l.Rotation.MaxAge,
			Compress:   l.Rotation.Compress,
		})
	}

	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	l.writer = io.MultiWriter(writers...)
}

func (l *Logger) log(level LogLevel, msg string, args ...any) {
	if level < l.Level {
		return
	}

	timestamp := time.Now().Format(l.TimeFormat)
	formatted := fmt.Sprintf(msg, args...)

	prefix := fmt.Sprintf("[%s] %-5s", timestamp, level)
	if l.Name != "" {
		prefix = fmt.Sprintf("%s [%s]", prefix, l.Name)
	}

	if !l.NoTerminal && !l.NoColor {
		fmt.Fprintf(l.writer, "%s%s %s\033[0m\n", color(level), prefix, formatted)
	} else {
		fmt.Fprintf(l.writer, "%s %s\n", prefix, formatted)
	}
}

func (l *Logger) Debug(msg string, args ...any) {
	l.log(Debug, msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.log(Info, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.log(Warn, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.log(Error, msg, args...)
}

// Named derives a child logger sharing the writer.
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		writer: l.writer,

		Name:  fmt.Sprintf("%s/%s", l.Name, name),
		Level: l.Level,

		TimeFormat: l.TimeFormat,
		File:       l.File,
		NoColor:    l.NoColor,
		NoTerminal: l.NoTerminal,
		Rotation:   l.Rotation,
	}
}
