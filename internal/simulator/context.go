package simulator

import (
	"context"
	"errors"
)

type ctxKey struct{}

// ErrNoProvider is returned when a simulator is looked up in a context that
// was never given one.
var ErrNoProvider = errors.New("simulator: no simulator in context; install one with simulator.NewContext")

// NewContext returns a copy of ctx carrying sim.
func NewContext(ctx context.Context, sim *Simulator) context.Context {
	return context.WithValue(ctx, ctxKey{}, sim)
}

// FromContext returns the simulator installed by NewContext.
func FromContext(ctx context.Context) (*Simulator, error) {
	if ctx == nil {
		return nil, ErrNoProvider
	}
	sim, ok := ctx.Value(ctxKey{}).(*Simulator)
	if !ok || sim == nil {
		return nil, ErrNoProvider
	}
	return sim, nil
}

// MustFromContext is FromContext for call sites where a missing simulator
// is a wiring bug. It panics with ErrNoProvider.
func MustFromContext(ctx context.Context) *Simulator {
	sim, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return sim
}
