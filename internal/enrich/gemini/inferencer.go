// Package gemini implements the inference collaborator boundary on top of the
// Gemini API with structured JSON responses.
package gemini

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/edudata/teacher-enrich-pipeline/internal/enrich"
)

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string
}

// Inferencer infers teacher profile and curriculum fields from a record view.
type Inferencer struct {
	client *genai.Client
	model  string
}

var _ enrich.Inferencer = (*Inferencer)(nil)

func New(ctx context.Context, cfg Config) (*Inferencer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("model name is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Inferencer{
		client: client,
		model:  strings.TrimSpace(cfg.Model),
	}, nil
}

type profileSchema struct {
	Subject             string `json:"subject"`
	Bio                 string `json:"bio"`
	Nationality         string `json:"nationality"`
	PreferredGradeLevel string `json:"preferred_grade_level"`
	IsCurrentlyTeacher  bool   `json:"is_currently_teacher"`
	Confidence          string `json:"confidence"`
	Rationale           string `json:"rationale"`
}

var profileOutputSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"subject":               {Type: genai.TypeString},
		"bio":                   {Type: genai.TypeString},
		"nationality":           {Type: genai.TypeString},
		"preferred_grade_level": {Type: genai.TypeString},
		"is_currently_teacher":  {Type: genai.TypeBoolean},
		"confidence":            {Type: genai.TypeString},
		"rationale":             {Type: genai.TypeString},
	},
	Required: []string{
		"subject",
		"bio",
		"nationality",
		"preferred_grade_level",
		"is_currently_teacher",
		"confidence",
	},
}

type curriculumSchema struct {
	CurriculumExperience    string `json:"curriculum_experience"`
	TeachingExperienceYears int    `json:"teaching_experience_years"`
	CurrentSchool           string `json:"current_school"`
	SchoolWebsite           string `json:"school_website"`
	Confidence              string `json:"confidence"`
	Rationale               string `json:"rationale"`
}

var curriculumOutputSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"curriculum_experience":     {Type: genai.TypeString},
		"teaching_experience_years": {Type: genai.TypeInteger},
		"current_school":            {Type: genai.TypeString},
		"school_website":            {Type: genai.TypeString},
		"confidence":                {Type: genai.TypeString},
		"rationale":                 {Type: genai.TypeString},
	},
	Required: []string{
		"curriculum_experience",
		"teaching_experience_years",
		"current_school",
		"school_website",
		"confidence",
	},
}

func (inf *Inferencer) InferProfile(ctx context.Context, record map[string]string) (enrich.ProfileResult, error) {
	resp, err := inf.generate(ctx, BuildProfilePrompt(record), profileOutputSchema)
	if err != nil {
		return enrich.ProfileResult{}, err
	}

	var parsed profileSchema
	if err := json.Unmarshal([]byte(resp.Text()), &parsed); err != nil {
		return enrich.ProfileResult{}, errors.Wrap(err, "gemini: parse profile json")
	}
	return enrich.ProfileResult{
		Subject:             strings.TrimSpace(parsed.Subject),
		Bio:                 strings.TrimSpace(parsed.Bio),
		Nationality:         strings.TrimSpace(parsed.Nationality),
		PreferredGradeLevel: strings.TrimSpace(parsed.PreferredGradeLevel),
		IsCurrentlyTeacher:  parsed.IsCurrentlyTeacher,
		Confidence:          normalizeConfidence(parsed.Confidence),
		Rationale:           strings.TrimSpace(parsed.Rationale),
	}, nil
}

func (inf *Inferencer) InferCurriculumSchool(ctx context.Context, record map[string]string) (enrich.CurriculumResult, error) {
	resp, err := inf.generate(ctx, BuildCurriculumPrompt(record), curriculumOutputSchema)
	if err != nil {
		return enrich.CurriculumResult{}, err
	}

	var parsed curriculumSchema
	if err := json.Unmarshal([]byte(resp.Text()), &parsed); err != nil {
		return enrich.CurriculumResult{}, errors.Wrap(err, "gemini: parse curriculum json")
	}

	years := parsed.TeachingExperienceYears
	if years < 0 {
		years = 0
	}
	return enrich.CurriculumResult{
		CurriculumExperience:    strings.TrimSpace(parsed.CurriculumExperience),
		TeachingExperienceYears: years,
		CurrentSchool:           strings.TrimSpace(parsed.CurrentSchool),
		SchoolWebsite:           strings.TrimSpace(parsed.SchoolWebsite),
		Confidence:              normalizeConfidence(parsed.Confidence),
		Rationale:               strings.TrimSpace(parsed.Rationale),
	}, nil
}

func (inf *Inferencer) generate(ctx context.Context, prompt string, schema *genai.Schema) (*genai.GenerateContentResponse, error) {
	resp, err := inf.client.Models.GenerateContent(
		ctx,
		inf.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			CandidateCount:   1,
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		},
	)
	if err != nil {
		return nil, classifyErr(err)
	}
	return resp, nil
}

// BuildProfilePrompt renders the teacher-profile task prompt. Only fields the
// task needs are embedded; the prompts avoid carrying the full raw record to
// keep PII out of request logs.
func BuildProfilePrompt(record map[string]string) string {
	return strings.TrimSpace(`
You are an expert in education who creates structured data about teachers.
Based on the following teacher information, provide:

1. subject: the subject they most likely teach (e.g. "Mathematics"). Use "Not specified" only if really uncertain.
2. bio: a professional, anonymized 2-3 sentence bio. Never mention names, school names, or specific locations; use generic terms like "international schools".
3. nationality: most likely nationality based on their name, in demonym form (e.g. "Egyptian" not "Egypt").
4. preferred_grade_level: exactly one of ` + quoteList(enrich.GradeLevels) + `.
5. is_currently_teacher: true if currently a teacher (employed or not), false if they hold another position (coordinator, HR, etc.).
6. confidence: one of low, medium, high.
7. rationale: one short sentence explaining the inference.

Teacher Information:
` + recordView(record, profilePromptFields) + `
`)
}

// BuildCurriculumPrompt renders the curriculum/school task prompt.
func BuildCurriculumPrompt(record map[string]string) string {
	return strings.TrimSpace(`
You are an expert in international education who extracts structured data about teachers' experience.
Based on the following teacher information, provide:

1. curriculum_experience: the curriculum they are most experienced with. Must be one of ` + quoteList(enrich.Curricula) + `.
2. teaching_experience_years: total years of teaching experience (integer).
3. current_school: their current school, or empty if not mentioned.
4. school_website: URL of their current school, or empty if not available.
5. confidence: one of low, medium, high.
6. rationale: one short sentence explaining the inference.

Important notes:
- GEMS schools typically follow the British curriculum.
- SABIS schools typically follow the IB curriculum.
- American schools typically follow the American curriculum.

Teacher Information:
` + recordView(record, curriculumPromptFields) + `
`)
}

var profilePromptFields = []string{
	"name", "headline", "subject", "bio",
	"current_employer", "ranked_employment", "employment_years_estimate",
	"current_location_country", "current_location_city",
}

var curriculumPromptFields = []string{
	"name", "headline", "current_school", "current_employer",
	"ranked_employment", "employment_years_estimate",
	"current_location_country", "current_location_city",
}

// recordView renders the selected fields as stable "key: value" lines,
// skipping empties.
func recordView(record map[string]string, fields []string) string {
	var b strings.Builder
	for _, f := range fields {
		v := strings.TrimSpace(record[f])
		if v == "" {
			continue
		}
		b.WriteString(f)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return "(no details available)\n"
	}
	return b.String()
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return strings.Join(quoted, ", ")
}

func classifyErr(err error) error {
	// Wrap transient failures so callers retry with backoff.
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Code/100 == 5 {
			return &enrich.TransientError{Err: err}
		}
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &enrich.TransientError{Err: err}
	}
	return err
}

// Model returns the configured model name, for logging.
func (inf *Inferencer) Model() string {
	return inf.model
}

func normalizeConfidence(raw string) enrich.Confidence {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high":
		return enrich.ConfidenceHigh
	case "medium":
		return enrich.ConfidenceMedium
	default:
		return enrich.ConfidenceLow
	}
}
