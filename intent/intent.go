// Package intent decides whether a question asks for a summary and, if so,
// which part of the corpus it is about. Both stages ask the model a fixed
// question and read its answer leniently; any failure degrades to "not a
// summary request".
package intent

import (
	"context"
	"strings"

	"github.com/tailored-agentic-units/docchat/agent"
	"github.com/tailored-agentic-units/docchat/observability"
	"github.com/tailored-agentic-units/docchat/prompts"
)

// SummaryType is the closed set of summary categories.
type SummaryType string

const (
	Resume    SummaryType = "resume"
	Projects  SummaryType = "projects"
	Workstyle SummaryType = "workstyle"
	All       SummaryType = "all"
	None      SummaryType = "none"
)

// Types lists the categories that select filtered retrieval, in catalog
// order.
func Types() []SummaryType {
	return []SummaryType{Resume, Projects, Workstyle, All}
}

// Valid reports whether t names one of the four searchable categories.
func (t SummaryType) Valid() bool {
	switch t {
	case Resume, Projects, Workstyle, All:
		return true
	default:
		return false
	}
}

// ParseSummaryType maps model output onto the closed set. Anything outside
// it, including empty output, is None.
func ParseSummaryType(s string) SummaryType {
	t := SummaryType(strings.ToLower(strings.TrimSpace(s)))
	if t.Valid() {
		return t
	}
	return None
}

// Result is the outcome of both stages.
type Result struct {
	IsSummaryRequest bool
	SummaryType      SummaryType
}

// Config tunes how the stage-one answer is read.
type Config struct {
	// AffirmativePrefixes match the start of the normalized answer.
	AffirmativePrefixes []string `json:"affirmative_prefixes,omitempty" mapstructure:"affirmative_prefixes"`
	// AffirmativeWords match anywhere in the normalized answer.
	AffirmativeWords []string `json:"affirmative_words,omitempty" mapstructure:"affirmative_words"`
}

// DefaultConfig accepts English "y..." answers and the Korean "예".
func DefaultConfig() Config {
	return Config{
		AffirmativePrefixes: []string{"y"},
		AffirmativeWords:    []string{"예"},
	}
}

// Merge applies non-empty values from source into c.
func (c *Config) Merge(source *Config) {
	if len(source.AffirmativePrefixes) > 0 {
		c.AffirmativePrefixes = source.AffirmativePrefixes
	}
	if len(source.AffirmativeWords) > 0 {
		c.AffirmativeWords = source.AffirmativeWords
	}
}

// Affirmative reports whether a stage-one answer means yes.
func (c *Config) Affirmative(answer string) bool {
	text := strings.ToLower(strings.TrimSpace(answer))
	for _, p := range c.AffirmativePrefixes {
		if p != "" && strings.HasPrefix(text, p) {
			return true
		}
	}
	for _, w := range c.AffirmativeWords {
		if w != "" && strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// Classifier runs the two classification stages against an agent.
type Classifier struct {
	agent    agent.Agent
	catalog  *prompts.Catalog
	cfg      Config
	observer observability.Observer
}

// New creates a Classifier.
func New(a agent.Agent, catalog *prompts.Catalog, cfg Config, observer observability.Observer) *Classifier {
	return &Classifier{
		agent:    a,
		catalog:  catalog,
		cfg:      cfg,
		observer: observability.OrNoOp(observer),
	}
}

// Classify runs stage one and, only if it is affirmative, stage two.
func (c *Classifier) Classify(ctx context.Context, question string) Result {
	if !c.IsSummaryRequest(ctx, question) {
		return Result{SummaryType: None}
	}
	return Result{IsSummaryRequest: true, SummaryType: c.SummaryType(ctx, question)}
}

// IsSummaryRequest is stage one.
func (c *Classifier) IsSummaryRequest(ctx context.Context, question string) bool {
	answer, ok := c.ask(ctx, "summary_check", c.catalog.SummaryCheck, question)
	if !ok {
		return false
	}

	yes := c.cfg.Affirmative(answer)
	observability.Emit(ctx, c.observer, EventSummaryCheck, observability.LevelVerbose, "intent", map[string]any{
		"answer":     strings.TrimSpace(answer),
		"is_summary": yes,
	})
	return yes
}

// SummaryType is stage two.
func (c *Classifier) SummaryType(ctx context.Context, question string) SummaryType {
	answer, ok := c.ask(ctx, "summary_type", c.catalog.SummaryType, question)
	if !ok {
		return None
	}

	t := ParseSummaryType(answer)
	observability.Emit(ctx, c.observer, EventSummaryType, observability.LevelVerbose, "intent", map[string]any{
		"answer":       strings.TrimSpace(answer),
		"summary_type": string(t),
	})
	return t
}

func (c *Classifier) ask(ctx context.Context, stage string, render func(string) (string, error), question string) (string, bool) {
	prompt, err := render(question)
	if err == nil {
		var answer string
		answer, err = agent.Prompt(ctx, c.agent, prompt)
		if err == nil {
			return answer, true
		}
	}

	observability.Emit(ctx, c.observer, EventClassifyFailed, observability.LevelWarning, "intent", map[string]any{
		"stage": stage,
		"error": err.Error(),
	})
	return "", false
}
