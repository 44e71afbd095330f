package log

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const fileWriterSize = 256 * 1024

var (
	program = filepath.Base(os.Args[0])
	pid     = os.Getpid()
)

// FileWriter writes to size-rotated files in a directory and flushes them
// periodically. Pass it to WithWriter.
type FileWriter struct {
	opts     fileOptions
	dir      string
	mu       sync.Mutex
	file     *os.File
	name     string
	bytes    int64
	seq      int
	files    []string
	bw       *bufio.Writer
	exitChan chan struct{}
	wg       sync.WaitGroup
	closed   bool
}

func NewFileWriter(dir string, opt ...FileOption) (*FileWriter, error) {
	opts := defaultFileOptions()
	for _, o := range opt {
		o(&opts)
	}

	if err := opts.check(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o775); err != nil {
		return nil, errors.Wrapf(err, "log: %s create dirs", dir)
	}

	w := &FileWriter{
		opts:     opts,
		dir:      dir,
		exitChan: make(chan struct{}),
	}

	if err := w.createFile(); err != nil {
		return nil, err
	}

	w.wg.Add(1)
	go w.daemon()

	return w, nil
}

// Name returns the file currently written to.
func (w *FileWriter) Name() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return filepath.Join(w.dir, w.name)
}

func (w *FileWriter) fileName(t time.Time) string {
	name := fmt.Sprintf("%s.%s.%d.%d.log", program, t.Format("20060102-150405"), pid, w.seq)
	if len(w.opts.prefix) > 0 {
		name = w.opts.prefix + "." + name
	}
	return name
}

func (w *FileWriter) createFile() error {
	if err := w.closeFile(); err != nil {
		return err
	}

	w.seq++
	name := w.fileName(time.Now())
	file, err := os.OpenFile(filepath.Join(w.dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "log: %s open file", name)
	}

	w.name = name
	w.file = file
	w.bytes = 0
	w.bw = bufio.NewWriterSize(file, fileWriterSize)

	w.files = append(w.files, name)
	if w.opts.maxFiles > 0 {
		for len(w.files) > w.opts.maxFiles {
			old := w.files[0]
			w.files = w.files[1:]
			if err := os.Remove(filepath.Join(w.dir, old)); err != nil && !os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "log: %s remove err [%v]\n", old, err)
			}
		}
	}

	return nil
}

func (w *FileWriter) flushFile() error {
	if w.file == nil {
		return nil
	}
	if err := w.bw.Flush(); err != nil {
		return errors.Wrapf(err, "log: %s flush", w.name)
	}
	if err := w.file.Sync(); err != nil {
		return errors.Wrapf(err, "log: %s sync", w.name)
	}
	return nil
}

func (w *FileWriter) closeFile() error {
	if w.file == nil {
		return nil
	}
	if err := w.flushFile(); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return errors.Wrapf(err, "log: %s close", w.name)
	}
	w.file = nil
	w.bw = nil
	return nil
}

func (w *FileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, errors.New("log: file writer closed")
	}

	if w.bytes > 0 && w.bytes+int64(len(p)) > w.opts.maxSize {
		if err := w.createFile(); err != nil {
			return 0, err
		}
	}

	n, err := w.bw.Write(p)
	w.bytes += int64(n)
	if err != nil {
		return n, errors.Wrapf(err, "log: %s write", w.name)
	}

	if w.opts.alsoStderr {
		os.Stderr.Write(p)
	}

	return n, nil
}

func (w *FileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushFile()
}

func (w *FileWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.exitChan)
	err := w.closeFile()
	w.mu.Unlock()

	w.wg.Wait()
	return err
}

func (w *FileWriter) daemon() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.opts.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.exitChan:
			return
		case <-ticker.C:
			if err := w.Flush(); err != nil {
				fmt.Fprintf(os.Stderr, "%+v\n", err)
			}
		}
	}
}
