package freshness

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"foodbridge/internal/domain/entity"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/pkg/errors"
)

const (
	defaultClaudeModel     = "claude-sonnet-4-5"
	defaultClaudeMaxTokens = 256
)

const assessmentPrompt = `You are inspecting a photo of donated food. Food type: %s.
Decide whether it is still safe to eat. Reply with one JSON object and nothing else:
{"condition": "edible" | "expired" | "inedible", "confidence": <number between 0 and 1>, "foodType": "<what the food is>"}`

type claudeVerdict struct {
	Condition  string  `json:"condition"`
	Confidence float64 `json:"confidence"`
	FoodType   string  `json:"foodType"`
}

// ClaudeAssessor asks Claude vision for a verdict on the photo.
type ClaudeAssessor struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

func NewClaudeAssessor(apiKey, model string, maxTokens int, opts ...anthropic.ClientOption) *ClaudeAssessor {
	if model == "" {
		model = defaultClaudeModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultClaudeMaxTokens
	}

	return &ClaudeAssessor{
		client:    anthropic.NewClient(apiKey, opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (c *ClaudeAssessor) Assess(ctx context.Context, image []byte, mimeType, foodType string) (*entity.Assessment, error) {
	if foodType == "" {
		foodType = "unknown"
	}

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.Message{{
			Role: anthropic.RoleUser,
			Content: []anthropic.MessageContent{
				anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
					anthropic.MessagesContentSourceTypeBase64,
					normaliseMIME(mimeType),
					base64.StdEncoding.EncodeToString(image),
				)),
				anthropic.NewTextMessageContent(strings.Replace(assessmentPrompt, "%s", foodType, 1)),
			},
		}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "call claude")
	}

	verdict, err := parseVerdict(resp.GetFirstContentText())
	if err != nil {
		return nil, err
	}

	condition, err := ConditionFromLabel(verdict.Condition)
	if err != nil {
		return nil, err
	}

	detected := foodType
	if verdict.FoodType != "" {
		detected = verdict.FoodType
	}

	return &entity.Assessment{
		Condition:  condition,
		Confidence: clampConfidence(verdict.Confidence),
		Label:      strings.ToLower(verdict.Condition),
		FoodType:   detected,
		Source:     "claude",
	}, nil
}

// parseVerdict extracts the first JSON object from the model's reply.
func parseVerdict(text string) (*claudeVerdict, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, errors.Errorf("no JSON object in claude reply: %q", text)
	}

	var v claudeVerdict
	if err := json.Unmarshal([]byte(text[start:end+1]), &v); err != nil {
		return nil, errors.Wrap(err, "decode claude verdict")
	}

	return &v, nil
}

// normaliseMIME maps MIME types to the ones the Messages API accepts.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
