package table

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/pkg/errors"
)

// ReadCSV parses a headered CSV stream into a Table. Short rows are padded
// with empty cells so every row exposes the full column set.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return New(0), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}

	t := New(0)
	t.EnsureColumns(header...)

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read row")
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		t.AppendRow(row)
	}
	return t, nil
}

// ReadCSVFile reads a CSV file into a Table.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() {
		_ = f.Close()
	}()
	return ReadCSV(f)
}

// WriteCSV writes header plus all rows using the table's column order.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	cols := t.Columns()
	if err := cw.Write(cols); err != nil {
		return errors.Wrap(err, "write header")
	}
	for i := 0; i < t.Len(); i++ {
		if err := cw.Write(t.RowValues(i, cols)); err != nil {
			return errors.Wrapf(err, "write row %d", i)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFileAtomic writes the table to path via a temp file and rename, so a
// reader never observes a half-written file.
func WriteCSVFileAtomic(path string, t *Table) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "create %s", tmp)
	}
	if err := WriteCSV(f, t); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errors.Wrap(err, "sync")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "close")
	}
	return errors.Wrapf(os.Rename(tmp, path), "rename %s", path)
}

// CountRows returns the number of data rows (excluding the header) in a CSV
// file. A missing file counts as zero rows.
func CountRows(path string) (int, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrapf(err, "open %s", path)
	}
	defer func() {
		_ = f.Close()
	}()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	n := -1 // do not count the header
	for {
		_, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, errors.Wrapf(err, "read %s", path)
		}
		n++
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}
