// Package freshness implements the food freshness assessors: a local ML
// inference server, Claude vision and a weighted random heuristic, tried in
// that order.
package freshness

import (
	"context"
	"log/slog"
	"strings"

	"foodbridge/config"
	"foodbridge/internal/domain/entity"
	"foodbridge/internal/domain/service"

	"github.com/pkg/errors"
)

// Labels reported by assessors before they are mapped to a condition.
const (
	LabelEdible   = "edible"
	LabelExpired  = "expired"
	LabelInedible = "inedible"
)

// ConditionFromLabel maps an assessor label onto Fresh or Spoiled.
func ConditionFromLabel(label string) (entity.FreshnessCondition, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case LabelEdible, "fresh":
		return entity.FreshnessFresh, nil
	case LabelExpired, LabelInedible, "spoiled":
		return entity.FreshnessSpoiled, nil
	default:
		return "", errors.Errorf("unknown freshness label %q", label)
	}
}

type namedAssessor struct {
	name     string
	assessor service.FreshnessAssessor
}

// Chain asks each assessor in turn and returns the first answer.
type Chain struct {
	assessors []namedAssessor
	logger    *slog.Logger
}

// NewChain builds the assessor chain from configuration. The heuristic is
// always last so Assess only fails when the context is done.
func NewChain(cfg *config.Config, logger *slog.Logger) service.FreshnessAssessor {
	fc := cfg.Freshness
	if fc == nil {
		fc = &config.FreshnessConfig{}
	}

	chain := &Chain{logger: logger}
	if fc.MLServerURL != "" {
		chain.add("ml-server", NewMLClient(fc.MLServerURL, fc.Timeout))
	}
	if fc.Claude.APIKey != "" {
		chain.add("claude", NewClaudeAssessor(fc.Claude.APIKey, fc.Claude.Model, fc.Claude.MaxTokens))
	}
	chain.add("heuristic", NewHeuristic(nil))

	return chain
}

func (c *Chain) add(name string, a service.FreshnessAssessor) {
	c.assessors = append(c.assessors, namedAssessor{name: name, assessor: a})
}

func (c *Chain) Assess(ctx context.Context, image []byte, mimeType, foodType string) (*entity.Assessment, error) {
	var lastErr error
	for _, na := range c.assessors {
		result, err := na.assessor.Assess(ctx, image, mimeType, foodType)
		if err == nil {
			if result.Source == "" {
				result.Source = na.name
			}

			return result, nil
		}
		if ctx.Err() != nil {
			return nil, errors.WithStack(ctx.Err())
		}

		lastErr = err
		c.logger.WarnContext(ctx, "freshness assessor failed, trying next",
			slog.String("assessor", na.name),
			slog.Any("error", err),
		)
	}

	return nil, errors.Wrap(lastErr, "all freshness assessors failed")
}
