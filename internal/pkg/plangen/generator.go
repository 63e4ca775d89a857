package plangen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDocument marks a generation result that failed schema
// validation. The call is not retried: a structurally broken document is
// a contract violation, not a transient fault, and needs manual review.
var ErrInvalidDocument = errors.New("generated plan document is invalid")

const systemPrompt = "You are a certified nutrition and fitness coach. " +
	"Create a personalized day-by-day meal and training plan from the " +
	"customer's intake answers. Respond only with the requested JSON."

// GeneratePlan invokes the external generation capability once and
// returns the validated plan document as JSON. All idempotency guarding
// happens in the caller; this call always costs money when it succeeds.
func (c *Client) GeneratePlan(ctx context.Context, intakeJSON string, dayCount int) (string, Usage, error) {
	usage := Usage{Model: c.model}
	if dayCount <= 0 {
		return "", usage, fmt.Errorf("%w: day count %d", ErrInvalidDocument, dayCount)
	}
	if strings.TrimSpace(intakeJSON) == "" {
		return "", usage, errors.New("intake payload required")
	}

	req := responsesRequest{
		Model:       c.model,
		Temperature: 0.3,
	}
	req.Input = []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt(intakeJSON, dayCount)},
	}
	req.Text.Format = map[string]any{
		"type":   "json_schema",
		"name":   "plan_document",
		"schema": planDocumentSchema(),
		"strict": true,
	}

	started := time.Now()
	var resp responsesResponse
	if err := c.do(ctx, "/v1/responses", req, &resp); err != nil {
		return "", usage, err
	}
	usage.Duration = time.Since(started)
	usage.TokensIn = resp.Usage.InputTokens
	usage.TokensOut = resp.Usage.OutputTokens
	usage.CostEstimate = float64(usage.TokensIn)/1000*c.costPer1kIn +
		float64(usage.TokensOut)/1000*c.costPer1kOut

	if resp.Refusal != "" {
		return "", usage, fmt.Errorf("%w: model refused: %s", ErrInvalidDocument, resp.Refusal)
	}
	documentJSON := strings.TrimSpace(extractOutputText(resp))
	if documentJSON == "" {
		return "", usage, fmt.Errorf("%w: empty response", ErrInvalidDocument)
	}
	if err := ValidateDocument(documentJSON, dayCount); err != nil {
		return "", usage, err
	}
	return documentJSON, usage, nil
}

func userPrompt(intakeJSON string, dayCount int) string {
	return fmt.Sprintf("Plan length: %d days.\n\nIntake answers:\n%s", dayCount, intakeJSON)
}

// ValidateDocument checks the structural contract of a generated plan.
// A failing document is never persisted.
func ValidateDocument(documentJSON string, dayCount int) error {
	var doc struct {
		Days []struct {
			Meals   []json.RawMessage `json:"meals"`
			Workout json.RawMessage   `json:"workout"`
		} `json:"days"`
		ShoppingList  []string        `json:"shopping_list"`
		MacrosSummary json.RawMessage `json:"macros_summary"`
	}
	if err := json.Unmarshal([]byte(documentJSON), &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	if len(doc.Days) != dayCount {
		return fmt.Errorf("%w: expected %d days, got %d", ErrInvalidDocument, dayCount, len(doc.Days))
	}
	for i, day := range doc.Days {
		if len(day.Meals) == 0 {
			return fmt.Errorf("%w: day %d has no meals", ErrInvalidDocument, i+1)
		}
		if len(day.Workout) == 0 || string(day.Workout) == "null" {
			return fmt.Errorf("%w: day %d has no workout", ErrInvalidDocument, i+1)
		}
	}
	if len(doc.ShoppingList) == 0 {
		return fmt.Errorf("%w: missing shopping_list", ErrInvalidDocument)
	}
	if len(doc.MacrosSummary) == 0 || string(doc.MacrosSummary) == "null" {
		return fmt.Errorf("%w: missing macros_summary", ErrInvalidDocument)
	}
	return nil
}

func planDocumentSchema() map[string]any {
	mealSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":        map[string]any{"type": "string"},
			"ingredients": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"kcal":        map[string]any{"type": "integer"},
		},
		"required":             []string{"name", "ingredients", "kcal"},
		"additionalProperties": false,
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"days": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"meals": map[string]any{"type": "array", "items": mealSchema},
						"workout": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"focus":     map[string]any{"type": "string"},
								"exercises": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
							},
							"required":             []string{"focus", "exercises"},
							"additionalProperties": false,
						},
					},
					"required":             []string{"meals", "workout"},
					"additionalProperties": false,
				},
			},
			"shopping_list": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"macros_summary": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"kcal_per_day":  map[string]any{"type": "integer"},
					"protein_grams": map[string]any{"type": "integer"},
					"carbs_grams":   map[string]any{"type": "integer"},
					"fat_grams":     map[string]any{"type": "integer"},
				},
				"required":             []string{"kcal_per_day", "protein_grams", "carbs_grams", "fat_grams"},
				"additionalProperties": false,
			},
		},
		"required":             []string{"days", "shopping_list", "macros_summary"},
		"additionalProperties": false,
	}
}
