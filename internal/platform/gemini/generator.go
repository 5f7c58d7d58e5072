// Package gemini implements the examiner policy and drill generators on top
// of the Google Gemini API. Responses are requested as structured output and
// validated strictly against JSON schemas before being trusted; callers fall
// back to deterministic interventions on any failure.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/genai"

	"github.com/phrazzld/viva-api/internal/config"
	"github.com/phrazzld/viva-api/internal/generation"
	"github.com/phrazzld/viva-api/internal/platform/logger"
)

// examinerSystemPrompt sets the policy model's persona and decision rules.
const examinerSystemPrompt = `You are an experienced IELTS speaking examiner running an adaptive mock exam.

After each answer you receive the candidate's state snapshot and the metrics extracted from their answer. Decide the next move:
- ESCALATE_PRESSURE when the candidate is comfortable and performing above their target band.
- DEESCALATE_PRESSURE when stress_level is high (above 0.6) or the fluency trend is degrading.
- FORCE_RETRY when the answer missed the question but the candidate deserves another chance.
- FAIL when the answer is off-topic or empty, or after repeated consecutive failures.
- DRILL_SPECIFIC when a chronic issue from their error history dominates the answer.
- MAINTAIN otherwise.

Ask the next question appropriate for the current exam part. Give concise, actionable feedback in markdown, sketch an ideal band-nine response, suggest target vocabulary worth drilling, and score each skill from 0 to 9.`

// drillSystemPrompt sets the drill model's persona.
const drillSystemPrompt = `You are an expert IELTS English tutor. Generate targeted correction exercises for a speaking student who frequently makes the given error. Each drill presents a sentence containing the error (marked with [ERROR]), the corrected version, and a brief explanation of why the correction matters for IELTS speaking. Keep sentences relevant to IELTS speaking topics.`

// Generator calls the Gemini API to produce examiner interventions and
// remediation drills. It is safe for concurrent use.
type Generator struct {
	client    *genai.Client
	modelName string
	logger    *slog.Logger
}

// Ensure Generator implements the generation interfaces
var (
	_ generation.PolicyGenerator = (*Generator)(nil)
	_ generation.DrillGenerator  = (*Generator)(nil)
)

// NewGenerator creates a Gemini-backed generator from the LLM configuration.
// If logger is nil, a default logger will be used.
func NewGenerator(ctx context.Context, cfg config.LLMConfig, log *slog.Logger) (*Generator, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: missing Gemini API key", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: missing model name", generation.ErrInvalidConfig)
	}

	if log == nil {
		log = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &Generator{
		client:    client,
		modelName: cfg.ModelName,
		logger:    log.With(slog.String("component", "gemini_generator")),
	}, nil
}

// GenerateIntervention implements generation.PolicyGenerator.
func (g *Generator) GenerateIntervention(
	ctx context.Context,
	input generation.PolicyInput,
) (*generation.Intervention, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	snapshot, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal policy input: %v", generation.ErrGenerationFailed, err)
	}

	raw, err := g.generateStructured(ctx, examinerSystemPrompt, string(snapshot), interventionSchemaDef)
	if err != nil {
		return nil, err
	}

	if err := validateAgainstSchema("intervention", interventionSchemaDef, raw); err != nil {
		log.Warn("policy response rejected by schema",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	}

	var intervention generation.Intervention
	if err := json.Unmarshal(raw, &intervention); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	}

	// Schema enforces the enum, but a second check keeps the invariant
	// local rather than trusting the schema definition stays in sync.
	if !intervention.Action.IsValid() {
		return nil, fmt.Errorf("%w: unknown action %q", generation.ErrInvalidResponse, intervention.Action)
	}

	log.Debug("generated examiner intervention",
		slog.String("action", string(intervention.Action)))
	return &intervention, nil
}

// GenerateDrills implements generation.DrillGenerator.
func (g *Generator) GenerateDrills(
	ctx context.Context,
	errorType string,
	count int,
) (*generation.DrillSet, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	if count < 1 {
		count = 1
	}
	if count > generation.MaxDrillsPerSet {
		count = generation.MaxDrillsPerSet
	}

	request := fmt.Sprintf("Generate %d correction drills for the error type %q.", count, errorType)

	raw, err := g.generateStructured(ctx, drillSystemPrompt, request, drillSetSchemaDef)
	if err != nil {
		return nil, err
	}

	if err := validateAgainstSchema("drill_set", drillSetSchemaDef, raw); err != nil {
		log.Warn("drill response rejected by schema",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	}

	var drills generation.DrillSet
	if err := json.Unmarshal(raw, &drills); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	}

	if len(drills.Drills) > generation.MaxDrillsPerSet {
		drills.Drills = drills.Drills[:generation.MaxDrillsPerSet]
	}

	log.Debug("generated drills",
		slog.String("error_type", errorType),
		slog.Int("count", len(drills.Drills)))
	return &drills, nil
}

// generateStructured performs one structured-output generation call and
// returns the raw JSON payload.
func (g *Generator) generateStructured(
	ctx context.Context,
	system, user string,
	schemaDef map[string]any,
) ([]byte, error) {
	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema:   buildGenaiSchema(schemaDef),
	}

	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: user}}},
	}

	result, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, genConfig)
	if err != nil {
		return nil, mapGenerateError(err)
	}

	if blocked(result) {
		return nil, generation.ErrContentBlocked
	}

	text := result.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", generation.ErrInvalidResponse)
	}

	return []byte(text), nil
}

// blocked reports whether the response was suppressed by safety filters.
func blocked(result *genai.GenerateContentResponse) bool {
	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return true
	}
	if len(result.Candidates) > 0 && result.Candidates[0].FinishReason == "SAFETY" {
		return true
	}
	return false
}

// mapGenerateError translates provider errors into the generation package's
// sentinel errors.
func mapGenerateError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return fmt.Errorf("%w: rate limited: %v", generation.ErrTransientFailure, err)
		case apiErr.Code >= 500:
			return fmt.Errorf("%w: provider error: %v", generation.ErrTransientFailure, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}
	return fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
}
