package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annel0/netcode-core/internal/netcode/game"
)

// intScope models a trivial 1-D world (just a position int) purely for
// exercising Predictor/Reconciler/Strategy logic without a real game.
func intScope() *game.PredictionScope[int, int] {
	return &game.PredictionScope[int, int]{
		ExtractPredictable: func(world int, localID string) int { return world },
		MergePrediction:    func(serverWorld, predicted int) int { return predicted },
		SimulatePredicted:  func(partial int, input int, dtMs float64) int { return partial + input },
		CreateIdleInput:    func() int { return 0 },
		GetLocalPlayerPosition: func(partial int, localID string) (float64, float64, bool) {
			return float64(partial), 0, true
		},
	}
}

func TestPredictor_PredictAdvancesPartial(t *testing.T) {
	p := NewPredictor[int, int](intScope())
	p.SetInitial(10)

	got := p.Predict(5, 16.6)
	assert.Equal(t, 15, got)

	got = p.Predict(2, 16.6)
	assert.Equal(t, 17, got)
}

func TestPredictor_CurrentBeforeInit(t *testing.T) {
	p := NewPredictor[int, int](intScope())
	_, ok := p.Current()
	assert.False(t, ok)
}

func TestPredictor_Reset(t *testing.T) {
	p := NewPredictor[int, int](intScope())
	p.SetInitial(10)
	p.Predict(5, 16.6)
	p.Reset()

	v, ok := p.Current()
	assert.False(t, ok)
	assert.Equal(t, 0, v)
}
