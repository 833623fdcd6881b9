package alertlog

import (
	"context"
	"os"
	"sync"

	"btc-price-alert/internal/types"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// DefaultPath is where the price log is written when no path is configured
const DefaultPath = "price_log.txt"

// Log is an append-only record of fired alerts
type Log interface {
	Name() string
	Append(ctx context.Context, e types.Entry) error
}

// File appends one line per entry to a text file
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile creates a file log. The file is created on first append.
func NewFile(path string) *File {
	if path == "" {
		path = DefaultPath
	}
	return &File{path: path}
}

func (f *File) Name() string { return "file" }

// Append opens the file in append mode, writes the entry line and closes it again
func (f *File) Append(_ context.Context, e types.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "could not open price log %s", f.path)
	}

	if _, err := file.WriteString(e.String()); err != nil {
		file.Close()
		return errors.Wrapf(err, "could not write price log %s", f.path)
	}
	return errors.Wrapf(file.Close(), "could not close price log %s", f.path)
}

// Multi appends every entry to all of its logs
type Multi []Log

func (m Multi) Name() string { return "multi" }

func (m Multi) Append(ctx context.Context, e types.Entry) error {
	var err error
	for _, l := range m {
		if appendErr := l.Append(ctx, e); appendErr != nil {
			err = multierr.Append(err, errors.Wrap(appendErr, l.Name()))
		}
	}
	return err
}
