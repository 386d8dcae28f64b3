package freshness

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"

	"foodbridge/internal/domain/entity"
)

type labelWeights struct {
	edible, expired float64
}

// Probability of edible and expired per food type; the rest is inedible.
var foodTypeWeights = map[string]labelWeights{ //nolint:gochecknoglobals
	"cooked":   {edible: 0.5, expired: 0.4},
	"raw":      {edible: 0.7, expired: 0.2},
	"packaged": {edible: 0.8, expired: 0.15},
	"bakery":   {edible: 0.4, expired: 0.5},
	"dairy":    {edible: 0.3, expired: 0.5},
}

var defaultWeights = labelWeights{edible: 0.6, expired: 0.3} //nolint:gochecknoglobals

// Heuristic guesses a verdict from the food type alone. It never fails.
type Heuristic struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewHeuristic uses rng, or a randomly seeded source when rng is nil.
func NewHeuristic(rng *rand.Rand) *Heuristic {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &Heuristic{rng: rng}
}

func (h *Heuristic) Assess(ctx context.Context, _ []byte, _, foodType string) (*entity.Assessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	weights, ok := foodTypeWeights[strings.ToLower(foodType)]
	if !ok {
		weights = defaultWeights
	}

	h.mu.Lock()
	roll, spread := h.rng.Float64(), h.rng.Float64()
	h.mu.Unlock()

	var (
		label      string
		confidence float64
	)
	switch {
	case roll < weights.edible:
		label, confidence = LabelEdible, 0.7+spread*0.3
	case roll < weights.edible+weights.expired:
		label, confidence = LabelExpired, 0.6+spread*0.3
	default:
		label, confidence = LabelInedible, 0.8+spread*0.2
	}

	condition, _ := ConditionFromLabel(label)

	return &entity.Assessment{
		Condition:  condition,
		Confidence: confidence,
		Label:      label,
		FoodType:   foodType,
		Source:     "heuristic",
	}, nil
}
