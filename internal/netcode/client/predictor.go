package client

import "github.com/annel0/netcode-core/internal/netcode/game"

// Predictor holds a rolling predicted-partial world state and advances it
// one input at a time via the game's SimulatePredicted (spec §4.6).
type Predictor[W any, I any] struct {
	scope   *game.PredictionScope[W, I]
	partial W
	hasInit bool
}

// NewPredictor creates a predictor bound to scope. The partial state starts
// zero-valued until SetInitial or the first Predict call.
func NewPredictor[W any, I any](scope *game.PredictionScope[W, I]) *Predictor[W, I] {
	return &Predictor[W, I]{scope: scope}
}

// SetInitial seeds the predicted partial, typically from the first snapshot
// received after connecting.
func (p *Predictor[W, I]) SetInitial(partial W) {
	p.partial = partial
	p.hasInit = true
}

// Predict advances the predicted partial by one input and returns it.
func (p *Predictor[W, I]) Predict(input I, dtMs float64) W {
	p.partial = p.scope.SimulatePredicted(p.partial, input, dtMs)
	p.hasInit = true
	return p.partial
}

// Current returns the last predicted partial without advancing it.
func (p *Predictor[W, I]) Current() (W, bool) {
	return p.partial, p.hasInit
}

// Reset clears the predictor back to its zero state, used on disconnect.
func (p *Predictor[W, I]) Reset() {
	var zero W
	p.partial = zero
	p.hasInit = false
}
