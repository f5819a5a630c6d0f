// Package batch drives resumable per-record enrichment: deterministic base
// stages, a sequential enrichment loop with per-record checkpointing and
// failure isolation, and the final completeness pass.
package batch

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/edudata/teacher-enrich-pipeline/internal/curriculum"
	"github.com/edudata/teacher-enrich-pipeline/internal/employment"
	"github.com/edudata/teacher-enrich-pipeline/internal/enrich"
	"github.com/edudata/teacher-enrich-pipeline/internal/pipeline"
	"github.com/edudata/teacher-enrich-pipeline/internal/score"
	"github.com/edudata/teacher-enrich-pipeline/internal/table"
	"github.com/edudata/teacher-enrich-pipeline/internal/util"
)

// State tracks run progress through the processor's state machine.
type State string

const (
	StateNotStarted  State = "not_started"
	StateBaseApplied State = "base_applied"
	StateEnriching   State = "enriching"
	StateCompleting  State = "completing"
	StateDone        State = "done"
)

// Options configures one run.
type Options struct {
	InputPath string
	// CheckpointPath is the durable output table appended to per record.
	CheckpointPath string
	// OutputPath receives the final table with completion columns filled.
	OutputPath   string
	ErrorLogPath string

	Retry enrich.RetryOptions
}

// Summary reports a completed run.
type Summary struct {
	Total    int
	Resumed  int
	Enriched int
	Failed   int
	Elapsed  time.Duration
}

// Processor owns one run over one source table. Collaborators are constructed
// once at process start and passed in; the processor never re-initializes
// them mid-run.
type Processor struct {
	inferencer enrich.Inferencer
	catalog    *curriculum.Catalog
	pacer      *Pacer
	logger     *zap.Logger
	opts       Options

	state State
	now   time.Time
}

// New builds a processor. now anchors created_at stamps and employment date
// math for the whole run.
func New(inferencer enrich.Inferencer, catalog *curriculum.Catalog, pacer *Pacer, logger *zap.Logger, opts Options) *Processor {
	return &Processor{
		inferencer: inferencer,
		catalog:    catalog,
		pacer:      pacer,
		logger:     logger,
		opts:       opts,
		state:      StateNotStarted,
		now:        time.Now().UTC(),
	}
}

// State returns the processor's current state.
func (p *Processor) State() State {
	return p.state
}

// Run executes the full state machine: base stages, resumable enrichment,
// then the completion pass.
func (p *Processor) Run(ctx context.Context) (Summary, error) {
	started := time.Now()

	src, err := table.ReadCSVFile(p.opts.InputPath)
	if err != nil {
		return Summary{}, errors.Wrap(err, "read source table")
	}
	total := src.Len()

	resumed, err := table.CountRows(p.opts.CheckpointPath)
	if err != nil {
		return Summary{}, errors.Wrap(err, "inspect checkpoint")
	}
	if resumed > total {
		// More output rows than source rows: treat the surplus as complete
		// rather than failing the run.
		p.logger.Warn("checkpoint has more rows than source",
			zap.Int("checkpoint_rows", resumed), zap.Int("source_rows", total))
		resumed = total
	}

	summary := Summary{Total: total, Resumed: resumed}

	if total > 0 && resumed >= total {
		p.logger.Info("checkpoint already complete, skipping enrichment",
			zap.Int("rows", resumed))
		p.state = StateCompleting
		if err := p.complete(); err != nil {
			return summary, err
		}
		p.state = StateDone
		summary.Elapsed = time.Since(started)
		return summary, nil
	}

	acc := table.New(total)
	if err := pipeline.Run(pipeline.BaseStages(p.now), acc, src, p.logger); err != nil {
		return summary, errors.Wrap(err, "base stages")
	}
	p.state = StateBaseApplied

	p.state = StateEnriching
	writer := table.NewCheckpointWriter(p.opts.CheckpointPath, acc.Columns())
	errLog := NewErrorLog(p.opts.ErrorLogPath)

	if resumed > 0 {
		p.logger.Info("resuming enrichment", zap.Int("at", resumed), zap.Int("total", total))
	}

	for i := resumed; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		merged := p.mergedView(acc, src, i)
		outcome := p.enrichRecord(ctx, merged)
		if err := ctx.Err(); err != nil {
			// Interrupted mid-record: persist nothing for this record so the
			// next run re-enriches it instead of inheriting defaults.
			return summary, err
		}
		p.mergeOutcome(acc, i, outcome)

		if outcome.err != nil {
			summary.Failed++
			if logErr := errLog.Append(acc.Cell(i, "teacher_id"), acc.Cell(i, "name"), outcome.err.Error()); logErr != nil {
				return summary, errors.Wrap(logErr, "append error log")
			}
			p.logger.Warn("record enrichment failed",
				zap.Int("record", i),
				zap.String("teacher_id", acc.Cell(i, "teacher_id")),
				zap.String("error", util.RedactSecrets(outcome.err.Error())))
		} else {
			p.logger.Info("record enriched",
				zap.Int("record", i),
				zap.String("teacher_id", acc.Cell(i, "teacher_id")))
		}

		// The row is persisted whether enrichment succeeded or not, so row
		// count and order always track the source table.
		if err := writer.Append(acc.Row(i)); err != nil {
			return summary, errors.Wrapf(err, "persist record %d", i)
		}
		summary.Enriched++

		if err := p.pacer.AfterRecord(ctx, i, total); err != nil {
			return summary, err
		}
	}

	p.state = StateCompleting
	if err := p.complete(); err != nil {
		return summary, err
	}
	p.state = StateDone

	summary.Elapsed = time.Since(started)
	p.logger.Info("run complete",
		zap.Int("total", summary.Total),
		zap.Int("resumed_at", summary.Resumed),
		zap.Int("enriched", summary.Enriched),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", summary.Elapsed))
	return summary, nil
}

// mergedView builds the per-record input for inference: source row values
// overlaid by base-transformed values, plus deterministic employment hints.
func (p *Processor) mergedView(acc, src *table.Table, i int) map[string]string {
	merged := src.Row(i)
	for k, v := range acc.Row(i) {
		if strings.TrimSpace(v) != "" {
			merged[k] = v
		}
	}

	entries := employment.ParseEntries(src.Row(i), p.now)
	if desc := describeEntries(entries); desc != "" {
		merged["ranked_employment"] = desc
	}
	if employer := employment.CurrentEmployer(entries, src.Row(i)); employer != "" {
		merged["current_employer"] = employer
	}
	if years := employment.TotalYears(entries, p.now); years > 0 {
		merged["employment_years_estimate"] = fmt.Sprintf("%.1f", years)
	}
	return merged
}

// outcome carries one record's enrichment results; err is non-nil when any
// task failed and defaults were substituted.
type outcome struct {
	profile    enrich.ProfileResult
	curriculum enrich.CurriculumResult
	err        error
}

// enrichRecord runs both inference tasks for one record. The curriculum task
// first tries the deterministic resolver and only pays for inference on a
// miss. Failures substitute documented defaults; the error is reported, not
// propagated.
func (p *Processor) enrichRecord(ctx context.Context, merged map[string]string) outcome {
	var out outcome

	profile, profileErr := p.inferProfile(ctx, merged)
	if profileErr != nil {
		profile = enrich.DefaultProfile()
	}
	out.profile = profile

	curr, currErr := p.resolveCurriculum(ctx, merged)
	if currErr != nil {
		curr = enrich.DefaultCurriculum()
	}
	out.curriculum = curr

	switch {
	case profileErr != nil && currErr != nil:
		out.err = errors.Errorf("profile: %s; curriculum: %s", profileErr, currErr)
	case profileErr != nil:
		out.err = errors.Wrap(profileErr, "profile")
	case currErr != nil:
		out.err = errors.Wrap(currErr, "curriculum")
	}
	return out
}

func (p *Processor) inferProfile(ctx context.Context, merged map[string]string) (enrich.ProfileResult, error) {
	if err := p.pacer.BeforeCall(ctx); err != nil {
		return enrich.ProfileResult{}, err
	}
	return enrich.RetryTransient(ctx, p.opts.Retry, func(reqCtx context.Context) (enrich.ProfileResult, error) {
		return p.inferencer.InferProfile(reqCtx, merged)
	})
}

// resolveCurriculum is the cheap-path-first curriculum lookup. A resolver hit
// carries implicit high confidence and no rationale and costs no inference
// call; years fall back to the deterministic employment estimate.
func (p *Processor) resolveCurriculum(ctx context.Context, merged map[string]string) (enrich.CurriculumResult, error) {
	school := merged["current_school"]
	if table.IsPlaceholder(school) {
		school = merged["current_employer"]
	}
	if match, ok := p.catalog.Resolve(school); ok {
		years := 0
		if est := merged["employment_years_estimate"]; est != "" {
			// The estimate is "x.y"; whole years are enough here.
			if f, err := strconv.ParseFloat(est, 64); err == nil && f > 0 {
				years = int(f)
			}
		}
		return enrich.CurriculumResult{
			CurriculumExperience:    match.Curriculum,
			TeachingExperienceYears: years,
			CurrentSchool:           strings.TrimSpace(school),
			SchoolWebsite:           merged["school_website"],
			Confidence:              enrich.ConfidenceHigh,
		}, nil
	}

	if err := p.pacer.BeforeCall(ctx); err != nil {
		return enrich.CurriculumResult{}, err
	}
	return enrich.RetryTransient(ctx, p.opts.Retry, func(reqCtx context.Context) (enrich.CurriculumResult, error) {
		return p.inferencer.InferCurriculumSchool(reqCtx, merged)
	})
}

// mergeOutcome writes the enrichment results into the accumulated table.
func (p *Processor) mergeOutcome(acc *table.Table, i int, out outcome) {
	acc.SetCell(i, "subject", out.profile.Subject)
	acc.SetCell(i, "bio", out.profile.Bio)
	acc.SetCell(i, "nationality", out.profile.Nationality)
	acc.SetCell(i, "preferred_grade_level", out.profile.PreferredGradeLevel)
	acc.SetCell(i, "is_currently_teacher", fmt.Sprintf("%t", out.profile.IsCurrentlyTeacher))
	acc.SetCell(i, "profile_confidence", string(out.profile.Confidence))
	acc.SetCell(i, "profile_rationale", out.profile.Rationale)

	acc.SetCell(i, "curriculum_experience", out.curriculum.CurriculumExperience)
	acc.SetCell(i, "teaching_experience_years", fmt.Sprintf("%d", out.curriculum.TeachingExperienceYears))
	acc.SetCell(i, "curriculum_confidence", string(out.curriculum.Confidence))
	acc.SetCell(i, "curriculum_rationale", out.curriculum.Rationale)
	if s := strings.TrimSpace(out.curriculum.CurrentSchool); s != "" {
		acc.SetCell(i, "current_school", s)
	}
	if w := strings.TrimSpace(out.curriculum.SchoolWebsite); w != "" {
		acc.SetCell(i, "school_website", w)
	}

	if out.err != nil {
		acc.SetCell(i, "enrich_status", "error")
		acc.SetCell(i, "enrich_error", util.RedactSecrets(out.err.Error()))
	} else {
		acc.SetCell(i, "enrich_status", "ok")
		acc.SetCell(i, "enrich_error", "")
	}
}

// complete recomputes completeness for every checkpointed row and atomically
// writes the final output table. It is idempotent: the completion columns are
// pure functions of the row's other fields.
func (p *Processor) complete() error {
	if _, err := os.Stat(p.opts.CheckpointPath); os.IsNotExist(err) {
		// Empty source: nothing was checkpointed. The output still carries
		// the full column set, just zero data rows.
		empty := table.New(0)
		if err := pipeline.Run(pipeline.BaseStages(p.now), empty, table.New(0), p.logger); err != nil {
			return errors.Wrap(err, "prepare empty output")
		}
		return table.WriteCSVFileAtomic(p.opts.OutputPath, empty)
	}
	out, err := table.ReadCSVFile(p.opts.CheckpointPath)
	if err != nil {
		return errors.Wrap(err, "read checkpoint for completion")
	}
	for i := 0; i < out.Len(); i++ {
		c := score.Compute(out.Row(i))
		out.SetCell(i, "profile_completion_percentage", fmt.Sprintf("%d", c.Score))
		out.SetCell(i, "missing_fields", c.MissingFieldsJSON())
	}
	if err := table.WriteCSVFileAtomic(p.opts.OutputPath, out); err != nil {
		return errors.Wrap(err, "write final output")
	}
	p.logger.Info("completion pass written",
		zap.Int("rows", out.Len()), zap.String("path", p.opts.OutputPath))
	return nil
}

// describeEntries renders ranked employment entries as one line per entry for
// the inference prompt.
func describeEntries(entries []employment.Entry) string {
	var parts []string
	for _, e := range entries {
		seg := e.Organization
		if e.Title != "" {
			seg += " (" + e.Title
			if e.Current {
				seg += ", current"
			}
			seg += ")"
		} else if e.Current {
			seg += " (current)"
		}
		if e.StartRaw != "" {
			seg += " " + e.StartRaw
			if e.EndRaw != "" {
				seg += " - " + e.EndRaw
			}
		}
		parts = append(parts, seg)
	}
	return strings.Join(parts, "; ")
}
