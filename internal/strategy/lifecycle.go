package strategy

import (
	"regexp"
	"strings"

	"PortfolioSentinel/internal/model"
)

// PhaseSource tells where a lifecycle phase came from.
type PhaseSource string

const (
	PhaseFromTag     PhaseSource = "tag"
	PhaseFromKeyword PhaseSource = "keyword"
	PhaseFromDefault PhaseSource = "default"
)

// PhaseResult is a lifecycle classification with its provenance.
type PhaseResult struct {
	Phase   model.LifecyclePhase
	Source  PhaseSource
	Matched string // keyword that fired, if any
}

// PhaseClassifier maps a security to a lifecycle phase.
// The bool is false when the classifier has no opinion.
type PhaseClassifier interface {
	Classify(sec *model.Security) (PhaseResult, bool)
}

// ExplicitTagClassifier uses the tag supplied by the extraction subsystem.
type ExplicitTagClassifier struct{}

func (ExplicitTagClassifier) Classify(sec *model.Security) (PhaseResult, bool) {
	if sec.LifecycleTag == nil {
		return PhaseResult{}, false
	}
	return PhaseResult{Phase: *sec.LifecycleTag, Source: PhaseFromTag}, true
}

// KeywordRule assigns Phase when any of its patterns occurs in the thesis text.
type KeywordRule struct {
	Phase    model.LifecyclePhase
	Patterns []*regexp.Regexp
}

func (r KeywordRule) match(text string) (string, bool) {
	for _, p := range r.Patterns {
		if m := p.FindString(text); m != "" {
			return m, true
		}
	}
	return "", false
}

// KeywordFallbackClassifier scans thesis and catalyst text for keyword evidence.
// Rules are tried in order and the first match wins; no match means upcoming.
type KeywordFallbackClassifier struct {
	Rules []KeywordRule
}

// NewKeywordFallbackClassifier returns the two stock rules: waiting signals first,
// inflection signals second.
func NewKeywordFallbackClassifier() *KeywordFallbackClassifier {
	return &KeywordFallbackClassifier{Rules: []KeywordRule{
		{
			Phase: model.PhaseWaitTime,
			Patterns: compileAll(
				`\bdelay(s|ed)?\b`,
				`\bpostponed\b`,
				`\bno (new )?orders\b`,
				`\bawaiting (regulatory )?approval\b`,
				`\bpending approval\b`,
			),
		},
		{
			Phase: model.PhaseActiveInflection,
			Patterns: compileAll(
				`\brecord (revenue|quarter|sales)\b`,
				`\bprofitable\b`,
				`\bfiring on all cylinders\b`,
			),
		},
	}}
}

func (c *KeywordFallbackClassifier) Classify(sec *model.Security) (PhaseResult, bool) {
	text := normalizeText(sec.ThesisNarrative + " " + sec.NextCatalyst)
	for _, rule := range c.Rules {
		if kw, ok := rule.match(text); ok {
			return PhaseResult{Phase: rule.Phase, Source: PhaseFromKeyword, Matched: kw}, true
		}
	}
	return PhaseResult{Phase: model.PhaseUpcoming, Source: PhaseFromDefault}, true
}

// ChainClassifier asks each classifier in turn.
type ChainClassifier []PhaseClassifier

func (c ChainClassifier) Classify(sec *model.Security) (PhaseResult, bool) {
	for _, cl := range c {
		if r, ok := cl.Classify(sec); ok {
			return r, true
		}
	}
	return PhaseResult{Phase: model.PhaseUpcoming, Source: PhaseFromDefault}, true
}

// DefaultPhaseClassifier prefers the explicit tag and falls back to keywords.
func DefaultPhaseClassifier() PhaseClassifier {
	return ChainClassifier{ExplicitTagClassifier{}, NewKeywordFallbackClassifier()}
}

var spaceRun = regexp.MustCompile(`\s+`)

func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return spaceRun.ReplaceAllString(s, " ")
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}
