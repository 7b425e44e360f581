// Package gemini is the optional enrichment collaborator: a hosted inference
// model consulted to augment the heuristic result. The pipeline never blocks
// on it; callers bound every request with a timeout and proceed with
// heuristic-only results when it is unavailable.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/syedismail7230/Authai/internal/models"
)

const maxPromptContent = 1000

// Client wraps the Gemini API client.
type Client struct {
	client     *genai.Client
	model      *genai.GenerativeModel
	logger     *zap.Logger
	modelName  string
	maxRetries int
	retryDelay time.Duration
}

// Config for the Gemini client.
type Config struct {
	APIKey     string
	ModelName  string
	MaxRetries int
	RetryDelay time.Duration
}

// NewClient creates a new Gemini client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	if cfg.ModelName == "" {
		cfg.ModelName = "gemini-2.0-flash-exp"
	}

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}

	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.ModelName)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:      genai.Ptr[float32](0.3),
		TopP:             genai.Ptr[float32](0.9),
		MaxOutputTokens:  genai.Ptr[int32](500),
		ResponseMIMEType: "application/json",
	}

	logger.Info("Gemini enrichment client initialized",
		zap.String("model", cfg.ModelName),
		zap.Int("max_retries", cfg.MaxRetries))

	return &Client{
		client:     client,
		model:      model,
		logger:     logger,
		modelName:  cfg.ModelName,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}, nil
}

// Close closes the Gemini client.
func (c *Client) Close() error {
	return c.client.Close()
}

type enrichmentResponse struct {
	Indicators []string `json:"indicators"`
	Reasoning  string   `json:"reasoning"`
}

// Enrich asks the model for additional synthetic-generation indicators. The
// caller's context bounds the total time spent, retries included.
func (c *Client) Enrich(ctx context.Context, content string, ct models.ContentType) (*models.Enrichment, error) {
	prompt := buildPrompt(content, ct)

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			lastErr = fmt.Errorf("gemini API error: %w", err)
			c.logger.Warn("Gemini enrichment attempt failed",
				zap.Error(err), zap.Int("attempt", attempt+1))
			continue
		}

		if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
			lastErr = fmt.Errorf("empty response from gemini")
			continue
		}

		textPart, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
		if !ok {
			lastErr = fmt.Errorf("unexpected response type from gemini")
			continue
		}

		cleanJSON := strings.TrimSpace(string(textPart))
		cleanJSON = strings.TrimPrefix(cleanJSON, "```json")
		cleanJSON = strings.TrimPrefix(cleanJSON, "```")
		cleanJSON = strings.TrimSuffix(cleanJSON, "```")
		cleanJSON = strings.TrimSpace(cleanJSON)

		var parsed enrichmentResponse
		if err := json.Unmarshal([]byte(cleanJSON), &parsed); err != nil {
			lastErr = fmt.Errorf("failed to parse gemini response: %w", err)
			c.logger.Warn("Failed to parse enrichment response",
				zap.Error(err), zap.String("response", cleanJSON))
			continue
		}

		return &models.Enrichment{
			Patterns:  parsed.Indicators,
			Reasoning: parsed.Reasoning,
			Model:     c.modelName,
		}, nil
	}

	return nil, fmt.Errorf("enrichment failed after %d attempts: %w", c.maxRetries, lastErr)
}

func buildPrompt(content string, ct models.ContentType) string {
	if len(content) > maxPromptContent {
		content = content[:maxPromptContent] + "..."
	}

	return fmt.Sprintf(`Act as an industrial forensic detector node.
Analyze the provided %s artifact for synthetic generation patterns.

EXECUTE PROTOCOLS:
1. PERPLEXITY_SCAN: Assess predictability of token sequence.
2. BURSTINESS_CHECK: Measure variance in structure.
3. ENTROPY_PROFILING: Calculate randomness.
4. PATTERN_MATCH: Check against known LLM/Diffusion artifacts.

Artifact Content/Description: "%s"

Return a strict JSON object:
{"indicators": ["short uppercase pattern tags"], "reasoning": "one paragraph"}`, ct, content)
}
