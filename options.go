package vfs

import "github.com/mwantia/initfs/log"

type Options struct {
	LogLevel      log.LogLevel
	LogFile       string
	NoTerminalLog bool
}

type Option func(*Options) error

func newDefaultOptions() *Options {
	return &Options{
		LogLevel: log.Info,
	}
}

func WithLogLevel(level log.LogLevel) Option {
	return func(opts *Options) error {
		opts.LogLevel = level
		return nil
	}
}

func WithLogFile(file string) Option {
	return func(opts *Options) error {
		opts.LogFile = file
		return nil
	}
}

func WithoutTerminalLog() Option {
	return func(opts *Options) error {
		opts.NoTerminalLog = true
		return nil
	}
}
