// Package prompts renders the fixed prompts sent to the model: the two
// classifier stages, the grounded QA prompt and the history summarizer.
// Templates come from an embedded YAML catalog that a file can override key
// by key.
package prompts

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Source is the raw, unparsed catalog as it appears in YAML.
type Source struct {
	SummaryCheck string `yaml:"summary_check"`
	SummaryType  string `yaml:"summary_type"`
	QA           string `yaml:"qa"`
	Summarize    string `yaml:"summarize"`
	ErrorPrefix  string `yaml:"error_prefix"`
}

// Merge applies non-empty values from source into s.
func (s *Source) Merge(source *Source) {
	if source.SummaryCheck != "" {
		s.SummaryCheck = source.SummaryCheck
	}
	if source.SummaryType != "" {
		s.SummaryType = source.SummaryType
	}
	if source.QA != "" {
		s.QA = source.QA
	}
	if source.Summarize != "" {
		s.Summarize = source.Summarize
	}
	if source.ErrorPrefix != "" {
		s.ErrorPrefix = source.ErrorPrefix
	}
}

// QAInput fills the QA template.
type QAInput struct {
	History  string
	Question string
	Context  string
}

// Catalog holds parsed templates. It is immutable and safe for concurrent
// use.
type Catalog struct {
	summaryCheck *template.Template
	summaryType  *template.Template
	qa           *template.Template
	summarize    *template.Template
	errorPrefix  string
}

// Default returns the embedded catalog. It panics if the embedded file is
// malformed, which is a build defect.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("prompts: embedded catalog: %v", err))
	}
	return c
}

// Load reads an override file and layers it over the embedded catalog. An
// empty path returns Default().
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt catalog: %w", err)
	}
	return Parse(data)
}

// Parse layers YAML data over the embedded catalog and compiles every
// template.
func Parse(data []byte) (*Catalog, error) {
	var base Source
	if err := yaml.Unmarshal(defaultCatalog, &base); err != nil {
		return nil, fmt.Errorf("failed to parse embedded catalog: %w", err)
	}

	var override Source
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse prompt catalog: %w", err)
	}
	base.Merge(&override)

	return Compile(base)
}

// Compile parses every template in src. All keys except ErrorPrefix are
// required.
func Compile(src Source) (*Catalog, error) {
	c := &Catalog{errorPrefix: src.ErrorPrefix}

	entries := []struct {
		name string
		text string
		dst  **template.Template
	}{
		{"summary_check", src.SummaryCheck, &c.summaryCheck},
		{"summary_type", src.SummaryType, &c.summaryType},
		{"qa", src.QA, &c.qa},
		{"summarize", src.Summarize, &c.summarize},
	}

	for _, e := range entries {
		if strings.TrimSpace(e.text) == "" {
			return nil, fmt.Errorf("prompt %q is empty", e.name)
		}
		tmpl, err := template.New(e.name).Option("missingkey=error").Parse(e.text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse prompt %q: %w", e.name, err)
		}
		*e.dst = tmpl
	}

	return c, nil
}

// SummaryCheck renders the stage-one classifier prompt.
func (c *Catalog) SummaryCheck(question string) (string, error) {
	return render(c.summaryCheck, struct{ Question string }{question})
}

// SummaryType renders the stage-two classifier prompt.
func (c *Catalog) SummaryType(question string) (string, error) {
	return render(c.summaryType, struct{ Question string }{question})
}

// QA renders the grounded answer prompt.
func (c *Catalog) QA(in QAInput) (string, error) {
	return render(c.qa, in)
}

// Summarize renders the history summarization prompt.
func (c *Catalog) Summarize(transcript string) (string, error) {
	return render(c.summarize, struct{ Transcript string }{transcript})
}

// ErrorMessage is the user-facing answer when generation fails.
func (c *Catalog) ErrorMessage(err error) string {
	return c.errorPrefix + err.Error()
}

func render(tmpl *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %q: %w", tmpl.Name(), err)
	}
	return b.String(), nil
}
