package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"PortfolioSentinel/internal/model"
)

// ErrInvalidExtraction is returned when the model output fails validation.
var ErrInvalidExtraction = errors.New("invalid thesis extraction")

// Extractor turns free-form research notes into a structured thesis.
type Extractor interface {
	Extract(ctx context.Context, ticker, notes string) (*model.ThesisExtraction, error)
}

// Parse decodes and validates a JSON extraction, tolerating a markdown code fence.
func Parse(raw string) (*model.ThesisExtraction, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	var ext model.ThesisExtraction
	if err := json.Unmarshal([]byte(s), &ext); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExtraction, err)
	}
	if c := ext.ConvictionScore; c != nil && (*c < 0 || *c > 10) {
		return nil, fmt.Errorf("%w: conviction score %d out of range", ErrInvalidExtraction, *c)
	}
	if p := ext.LifecyclePhaseTag; p != nil {
		if _, err := model.ParseLifecyclePhase(string(*p)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidExtraction, err)
		}
	}
	if ext.MilestoneCount < 0 || ext.RedFlagCount < 0 {
		return nil, fmt.Errorf("%w: negative counts", ErrInvalidExtraction)
	}
	return &ext, nil
}

// Apply writes an extraction onto a security. Nil or empty fields leave the
// security's current value alone; counts and flags always overwrite.
func Apply(sec *model.Security, ext *model.ThesisExtraction) {
	if ext.ConvictionScore != nil {
		sec.ConvictionScore = model.Int(*ext.ConvictionScore)
	}
	if ext.LifecyclePhaseTag != nil {
		tag := *ext.LifecyclePhaseTag
		sec.LifecycleTag = &tag
	}
	if ext.ThesisNarrative != "" {
		sec.ThesisNarrative = ext.ThesisNarrative
	}
	if ext.NextCatalyst != nil {
		sec.NextCatalyst = *ext.NextCatalyst
	}
	if ext.InsiderActivity != "" {
		sec.InsiderActivity = ext.InsiderActivity
	}
	sec.MilestoneCount = ext.MilestoneCount
	sec.RedFlagCount = ext.RedFlagCount
	sec.DilutionRisk = ext.DilutionRisk
}
