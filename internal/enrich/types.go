// Package enrich defines the boundary to the external inference collaborator:
// task kinds, typed results with confidence labels, documented fail-closed
// defaults, and transient-error retry.
package enrich

import (
	"context"
)

// TaskKind names one inference task.
type TaskKind string

const (
	// TaskTeacherProfile infers subject, bio, nationality, preferred grade
	// level, and whether the person currently teaches.
	TaskTeacherProfile TaskKind = "teacher_profile"
	// TaskCurriculumSchool infers curriculum experience, years of teaching
	// experience, current school, and school website.
	TaskCurriculumSchool TaskKind = "curriculum_school"
)

// Confidence is the label attached to inferred values.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// GradeLevels is the closed set of valid preferred grade level literals.
var GradeLevels = []string{
	"Early Childhood (Ages 0-5)",
	"Elementary (Ages 6-10, Grades 1-5)",
	"Middle School (Ages 11-13, Grades 6-8)",
	"High School (Ages 14-18, Grades 9-12)",
	"University/College",
	"Adult Education",
}

// Curricula is the closed set of curriculum experience values.
var Curricula = []string{
	"British",
	"American",
	"IB",
	"Indian",
	"UAE",
	"French",
	"Australian",
	"Not specified",
}

// ProfileResult is the structured output of TaskTeacherProfile.
//
// Everything is a string to keep CSV output simple and stable, except the
// currently-teaching flag.
type ProfileResult struct {
	Subject             string
	Bio                 string
	Nationality         string
	PreferredGradeLevel string
	IsCurrentlyTeacher  bool

	Confidence Confidence
	Rationale  string
}

// CurriculumResult is the structured output of TaskCurriculumSchool.
type CurriculumResult struct {
	CurriculumExperience    string
	TeachingExperienceYears int
	CurrentSchool           string
	SchoolWebsite           string

	Confidence Confidence
	Rationale  string
}

// Inferencer is the external natural-language inference capability. It is
// opaque: callers consume, validate, and merge its output but never depend on
// how values were inferred.
type Inferencer interface {
	InferProfile(ctx context.Context, record map[string]string) (ProfileResult, error)
	InferCurriculumSchool(ctx context.Context, record map[string]string) (CurriculumResult, error)
}

// DefaultProfile is the documented fail-closed substitute when profile
// inference is unavailable or errors.
func DefaultProfile() ProfileResult {
	return ProfileResult{
		Subject:             "Unknown",
		Bio:                 "Professional educator with teaching experience.",
		Nationality:         "Not specified",
		PreferredGradeLevel: "Not specified",
		IsCurrentlyTeacher:  true,
		Confidence:          ConfidenceLow,
	}
}

// DefaultCurriculum is the documented fail-closed substitute when curriculum
// inference is unavailable or errors.
func DefaultCurriculum() CurriculumResult {
	return CurriculumResult{
		CurriculumExperience:    "Not specified",
		TeachingExperienceYears: 0,
		CurrentSchool:           "",
		SchoolWebsite:           "",
		Confidence:              ConfidenceLow,
	}
}

// TransientError marks an error as retryable.
//
// Callers should retry transient failures with backoff rather than immediately
// substituting defaults.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
