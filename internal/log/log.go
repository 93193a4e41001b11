package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
)

// ParseLevel maps a -log-level value to a slog level. Unknown values and
// "none" log errors only.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "trace", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Setup installs a JSON handler as the default slog logger. With an empty
// path it writes to stderr; otherwise it appends to path, creating parent
// directories, and falls back to stderr when the file cannot be opened.
func Setup(level, path string) io.Closer {
	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}

	if path != "" {
		w, err := openFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v; falling back to stderr\n", err)
		} else {
			w.watchHangup()
			out, closer = w, w
		}
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: ParseLevel(level)})
	slog.SetDefault(slog.New(handler))
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// fileWriter is a log file that can be reopened after rotation:
//
//	mv hemlock.log hemlock.log.1 && kill -HUP <pid>
type fileWriter struct {
	mu   sync.Mutex
	path string
	f    *os.File
	sigs chan os.Signal
}

func openFile(path string) (*fileWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory for '%s': %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file '%s': %w", path, err)
	}
	return &fileWriter{path: path, f: f}, nil
}

func (w *fileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return 0, os.ErrClosed
	}
	return w.f.Write(p)
}

// reopen swaps in a fresh handle on path. The old handle is kept if the
// open fails.
func (w *fileWriter) reopen() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w.mu.Lock()
	old := w.f
	w.f = f
	w.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

func (w *fileWriter) watchHangup() {
	w.sigs = make(chan os.Signal, 1)
	signal.Notify(w.sigs, syscall.SIGHUP)
	go func() {
		for range w.sigs {
			if err := w.reopen(); err != nil {
				fmt.Fprintf(os.Stderr, "could not reopen log file: %v\n", err)
			}
		}
	}()
}

func (w *fileWriter) Close() error {
	if w.sigs != nil {
		signal.Stop(w.sigs)
		close(w.sigs)
		w.sigs = nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}
