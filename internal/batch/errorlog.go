package batch

import (
	"github.com/edudata/teacher-enrich-pipeline/internal/table"
	"github.com/edudata/teacher-enrich-pipeline/internal/util"
)

// errorLogColumns is the fixed schema of the error log file.
var errorLogColumns = []string{"teacher_id", "name", "error_description"}

// ErrorLog is the independent append-only record of per-record enrichment
// failures. A failed record still occupies its row in the output table; the
// log exists so failures can be triaged without scanning the output.
type ErrorLog struct {
	w *table.CheckpointWriter
}

// NewErrorLog prepares an appender; the file is created on first append.
func NewErrorLog(path string) *ErrorLog {
	return &ErrorLog{w: table.NewCheckpointWriter(path, errorLogColumns)}
}

// Append durably records one failure. The description is redacted before it
// touches disk.
func (l *ErrorLog) Append(teacherID, name, description string) error {
	return l.w.Append(map[string]string{
		"teacher_id":        teacherID,
		"name":              name,
		"error_description": util.RedactSecrets(description),
	})
}
