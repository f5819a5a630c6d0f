package enrich

import "context"

// NopInferencer returns the documented defaults without contacting any
// backend. Dry runs use it to exercise the full pipeline, checkpointing and
// scoring included, at zero cost.
type NopInferencer struct{}

func (NopInferencer) InferProfile(context.Context, map[string]string) (ProfileResult, error) {
	return DefaultProfile(), nil
}

func (NopInferencer) InferCurriculumSchool(context.Context, map[string]string) (CurriculumResult, error) {
	return DefaultCurriculum(), nil
}
