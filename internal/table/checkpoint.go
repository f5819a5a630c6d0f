package table

import (
	"encoding/csv"
	"os"

	"github.com/pkg/errors"
)

// CheckpointWriter appends one complete row at a time to a durable CSV file.
// The header is written exactly once, on the first append to an empty or new
// file. Every append is flushed and fsynced before returning, so a process
// that dies between appends leaves either the full row or nothing.
type CheckpointWriter struct {
	path    string
	columns []string
}

// NewCheckpointWriter prepares an appender for path with a fixed column set.
// When resuming over an existing non-empty file the caller is expected to
// pass the same column set the file was created with.
func NewCheckpointWriter(path string, columns []string) *CheckpointWriter {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &CheckpointWriter{path: path, columns: cols}
}

// Columns returns the writer's column order.
func (w *CheckpointWriter) Columns() []string {
	out := make([]string, len(w.columns))
	copy(out, w.columns)
	return out
}

// Append durably writes one row keyed by column name.
func (w *CheckpointWriter) Append(row map[string]string) error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open %s", w.path)
	}
	defer func() {
		_ = f.Close()
	}()

	info, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "stat checkpoint")
	}

	cw := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := cw.Write(w.columns); err != nil {
			return errors.Wrap(err, "write header")
		}
	}

	values := make([]string, len(w.columns))
	for i, c := range w.columns {
		values[i] = row[c]
	}
	if err := cw.Write(values); err != nil {
		return errors.Wrap(err, "write row")
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, "flush row")
	}
	if err := f.Sync(); err != nil {
		return errors.Wrap(err, "sync checkpoint")
	}
	return f.Close()
}
