package log

import (
	"time"

	"github.com/pkg/errors"
)

type fileOptions struct {
	maxSize       int64
	alsoStderr    bool
	prefix        string
	flushInterval time.Duration
	maxFiles      int
}

func defaultFileOptions() fileOptions {
	return fileOptions{
		maxSize:       64 * 1024 * 1024,
		flushInterval: 5 * time.Second,
	}
}

func (opts *fileOptions) check() error {
	if opts.maxSize <= 0 {
		return errors.Errorf("log: options maxSize [%d] <= 0", opts.maxSize)
	}
	if opts.flushInterval <= 0 {
		return errors.Errorf("log: options flushInterval [%s] <= 0", opts.flushInterval)
	}
	if opts.maxFiles < 0 {
		return errors.Errorf("log: options maxFiles [%d] < 0", opts.maxFiles)
	}
	return nil
}

type FileOption func(o *fileOptions)

// FileMaxSize is the size after which a new file is started.
func FileMaxSize(maxSize int64) FileOption {
	return func(o *fileOptions) {
		o.maxSize = maxSize
	}
}

func FileAlsoStderr(alsoStderr bool) FileOption {
	return func(o *fileOptions) {
		o.alsoStderr = alsoStderr
	}
}

func FilePrefix(prefix string) FileOption {
	return func(o *fileOptions) {
		o.prefix = prefix
	}
}

func FileFlushInterval(flushInterval time.Duration) FileOption {
	return func(o *fileOptions) {
		o.flushInterval = flushInterval
	}
}

// FileMaxFiles keeps at most n files written by this writer, removing the
// oldest on rotation. Zero keeps all.
func FileMaxFiles(n int) FileOption {
	return func(o *fileOptions) {
		o.maxFiles = n
	}
}
