// Package pipeline holds the ordered deterministic transformations applied to
// the source table before enrichment. Stages are pure over (accumulated,
// source): each adds or overwrites a fixed set of output columns and never
// changes row count or order. A later stage may read columns produced by any
// earlier stage, never a later one.
package pipeline

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/edudata/teacher-enrich-pipeline/internal/table"
)

// Stage is one deterministic transformation.
type Stage struct {
	Name string
	// Apply mutates acc in place using acc and src. Deterministic stages
	// must not fail under a structurally valid source table; an error here
	// aborts the whole run.
	Apply func(acc, src *table.Table) error
}

// Run applies the stages strictly in declared order.
func Run(stages []Stage, acc, src *table.Table, logger *zap.Logger) error {
	for _, stage := range stages {
		if err := stage.Apply(acc, src); err != nil {
			return errors.Wrapf(err, "stage %s", stage.Name)
		}
		if acc.Len() != src.Len() {
			return errors.Errorf("stage %s changed row count: %d != %d", stage.Name, acc.Len(), src.Len())
		}
		logger.Debug("stage applied", zap.String("stage", stage.Name), zap.Int("rows", acc.Len()))
	}
	return nil
}
