// Package curriculum resolves free-text school names to curricula against a
// reference catalog, with brand rules for well-known operator chains. This is
// the cheap, explainable path tried before paying for inference; it never
// calls the inference collaborator.
package curriculum

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// BrandRule maps an operator-name substring to a curriculum. Brand rules
// override catalog results: some catalog rows carry a per-campus curriculum
// that disagrees with the operator's actual family-wide curriculum.
type BrandRule struct {
	Substring  string `yaml:"substring"`
	Curriculum string `yaml:"curriculum"`
}

// defaultBrandRules encodes the known operator chains, checked in order.
var defaultBrandRules = []BrandRule{
	{Substring: "gems", Curriculum: "British"},
	{Substring: "sabis", Curriculum: "IB"},
	{Substring: "raffles", Curriculum: "IB"},
	{Substring: "american school", Curriculum: "American"},
	{Substring: "british school", Curriculum: "British"},
}

// rulesFile is the optional YAML override for brand rules and extra
// stop-words.
type rulesFile struct {
	BrandRules []BrandRule `yaml:"brand_rules"`
	StopWords  []string    `yaml:"stop_words"`
}

// Catalog is the read-only school → curriculum reference mapping, loaded once
// at process start.
type Catalog struct {
	// entries maps lowercased school names to curricula.
	entries map[string]string
	// names preserves catalog iteration order for deterministic matching;
	// cleaned holds each name's normalized form, computed once so Resolve
	// never re-normalizes the catalog per call.
	names   []string
	cleaned []string

	brandRules []BrandRule
	stopWords  map[string]struct{}
}

// NewCatalog returns a catalog with no entries. Brand rules still fire, so
// resolution degrades to operator-chain matching only.
func NewCatalog() *Catalog {
	return &Catalog{
		entries:    make(map[string]string),
		brandRules: defaultBrandRules,
		stopWords:  defaultStopWords(),
	}
}

// LoadCatalog reads the reference dataset CSV. The file must have columns
// whose headers contain "school" and "curriculum" (the Dubai private schools
// open dataset shape, which carries a BOM-prefixed first header).
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open catalog %s", path)
	}
	defer func() {
		_ = f.Close()
	}()
	return ReadCatalog(f)
}

// ReadCatalog parses catalog CSV content.
func ReadCatalog(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read catalog header")
	}
	schoolIdx, currIdx := -1, -1
	for i, col := range header {
		c := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(col), "\uFEFF"))
		switch {
		case strings.Contains(c, "school"):
			schoolIdx = i
		case strings.Contains(c, "curriculum"):
			currIdx = i
		}
	}
	if schoolIdx < 0 || currIdx < 0 {
		return nil, errors.New("catalog missing school name or curriculum column")
	}

	c := &Catalog{
		entries:    make(map[string]string),
		brandRules: defaultBrandRules,
		stopWords:  defaultStopWords(),
	}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read catalog row")
		}
		if schoolIdx >= len(rec) || currIdx >= len(rec) {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(rec[schoolIdx]))
		curriculum := strings.TrimSpace(rec[currIdx])
		if name == "" || curriculum == "" {
			continue
		}
		// Brand rules correct catalog rows for known operator families.
		for _, rule := range c.brandRules {
			if strings.Contains(name, rule.Substring) {
				curriculum = rule.Curriculum
				break
			}
		}
		if _, seen := c.entries[name]; !seen {
			c.names = append(c.names, name)
		}
		c.entries[name] = curriculum
	}
	c.reindex()
	return c, nil
}

// reindex recomputes the normalized form of every catalog name. Must run
// after anything that changes the stop-word set.
func (c *Catalog) reindex() {
	c.cleaned = make([]string, len(c.names))
	for i, name := range c.names {
		c.cleaned[i] = c.Normalize(name)
	}
}

// ApplyRulesFile overlays brand rules and stop-words from a YAML file.
func (c *Catalog) ApplyRulesFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read rules %s", path)
	}
	var rf rulesFile
	if err := yaml.Unmarshal(b, &rf); err != nil {
		return errors.Wrapf(err, "parse rules %s", path)
	}
	if len(rf.BrandRules) > 0 {
		c.brandRules = append(rf.BrandRules, c.brandRules...)
	}
	changed := false
	for _, w := range rf.StopWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			c.stopWords[w] = struct{}{}
			changed = true
		}
	}
	if changed {
		c.reindex()
	}
	return nil
}

// Size returns the number of catalog entries.
func (c *Catalog) Size() int {
	return len(c.entries)
}
