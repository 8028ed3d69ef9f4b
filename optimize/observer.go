// Package optimize implements the momentum/gain gradient-descent loop
// that drives a t-SNE embedding from its initial value to convergence
// (spec.md §4.6), plus the Observer capability spec.md Design Notes §9
// substitutes for the source's dynamic per-iteration callback.
package optimize

import "github.com/datviz/fastTSNE/manifold"

// Signal is an Observer's verdict on whether optimization should continue.
type Signal int

const (
	Continue Signal = iota
	Stop
)

// Observer is notified after every dispatched iteration with the live
// embedding (spec.md §6 "Callback contract"): the embedding is guaranteed
// consistent (post-update, and recentered unless Config.FrozenRows is set)
// at the call point, and an Observer that
// wants to retain the value past the call must copy it (manifold.Embedding.Clone).
type Observer interface {
	OnIteration(iter int, kl float64, y *manifold.Embedding) Signal
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(iter int, kl float64, y *manifold.Embedding) Signal

func (f ObserverFunc) OnIteration(iter int, kl float64, y *manifold.Embedding) Signal {
	return f(iter, kl, y)
}

// chain composes observers, short-circuiting on the first Stop verdict
// (spec.md Design Notes §9: "Multiple observers are composed by a chain
// that short-circuits on first Stop").
type chain struct {
	observers []Observer
}

// Chain composes multiple observers into one. A nil or empty slice
// produces an Observer that always signals Continue.
func Chain(observers ...Observer) Observer {
	return &chain{observers: observers}
}

func (c *chain) OnIteration(iter int, kl float64, y *manifold.Embedding) Signal {
	for _, o := range c.observers {
		if o == nil {
			continue
		}
		if o.OnIteration(iter, kl, y) == Stop {
			return Stop
		}
	}
	return Continue
}
