package extraction

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"PortfolioSentinel/internal/model"
)

const extractionPrompt = `You are an equity research analyst. Read the notes on %s below and
score the investment thesis. Conviction is 0-10 (10 = thesis fully intact).
lifecycle_phase_tag is "wait-time" when the company is waiting on approvals,
orders or delayed launches, "active-inflection" when revenue is ramping and
execution is visible, "upcoming" otherwise; null if the notes do not say.
Count concrete milestones achieved and red flags (missed guidance, executive
departures, going-concern language). Answer with JSON only.

NOTES:
%s`

// GeminiExtractor implements Extractor with the Gemini API.
type GeminiExtractor struct {
	client *genai.Client
	model  string
	log    zerolog.Logger
}

// NewGeminiExtractor creates a Gemini-backed extractor.
func NewGeminiExtractor(ctx context.Context, apiKey, model string, log zerolog.Logger) (*GeminiExtractor, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiExtractor{client: client, model: model, log: log.With().Str("component", "extraction").Logger()}, nil
}

func (g *GeminiExtractor) Extract(ctx context.Context, ticker, notes string) (*model.ThesisExtraction, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(fmt.Sprintf(extractionPrompt, ticker, notes)), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	g.log.Debug().Str("ticker", ticker).Int("bytes", len(text)).Msg("extraction received")

	ext, err := Parse(text)
	if err != nil {
		g.log.Warn().Err(err).Str("ticker", ticker).Str("raw", text).Msg("extraction rejected")
		return nil, err
	}
	return ext, nil
}

func responseSchema() *genai.Schema {
	nullable := genai.Ptr(true)
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"conviction_score": {Type: genai.TypeInteger, Nullable: nullable, Minimum: genai.Ptr(0.0), Maximum: genai.Ptr(10.0)},
			"lifecycle_phase_tag": {
				Type:     genai.TypeString,
				Nullable: nullable,
				Enum:     []string{string(model.PhaseWaitTime), string(model.PhaseUpcoming), string(model.PhaseActiveInflection)},
			},
			"thesis_narrative": {Type: genai.TypeString, Description: "two or three sentences"},
			"milestone_count":  {Type: genai.TypeInteger},
			"red_flag_count":   {Type: genai.TypeInteger},
			"next_catalyst":    {Type: genai.TypeString, Nullable: nullable},
			"dilution_risk":    {Type: genai.TypeBoolean},
			"insider_activity": {Type: genai.TypeString},
		},
		Required: []string{"conviction_score", "thesis_narrative", "milestone_count", "red_flag_count", "dilution_risk"},
	}
}
