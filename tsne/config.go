package tsne

import (
	"github.com/datviz/fastTSNE/gradient"
	"github.com/datviz/fastTSNE/optimize"
)

// NegativeGradientMethod selects the repulsive-force engine, spec.md §6's
// "bh" or "fft" option, generalized to also cover the 1-D FFT path
// (used when OutputDim == 1).
type NegativeGradientMethod string

const (
	MethodBarnesHut NegativeGradientMethod = "bh"
	MethodFFT       NegativeGradientMethod = "fft"
)

// NeighborMethod selects the neighbors.Provider, spec.md §6's "exact"
// or "approx" option.
type NeighborMethod string

const (
	NeighborsExact  NeighborMethod = "exact"
	NeighborsApprox NeighborMethod = "approx"
)

// InitMethod selects how Fit seeds the embedding when the caller
// supplies none (spec.md §10 supplement: PCA default, random fallback).
type InitMethod string

const (
	InitPCA    InitMethod = "pca"
	InitRandom InitMethod = "random"
)

// Config enumerates every option spec.md §6's table names, plus the
// FFT knobs spec.md §4.5 and §6 both reference.
type Config struct {
	Perplexity float64

	LearningRate          float64
	NIter                 int
	EarlyExaggerationIter int
	EarlyExaggeration     float64
	InitialMomentum       float64
	FinalMomentum         float64

	OutputDim int

	Neighbors               NeighborMethod
	NegativeGradientMethod  NegativeGradientMethod
	Theta                   float64
	NInterpolationPoints    int
	MinNumIntervals         int
	IntsPerInterval         float64

	DOF float64

	NJobs int

	Init InitMethod

	CallbacksEveryIters int
	Observer            optimize.Observer

	EvalError bool

	RandomSeed int64
}

// DefaultConfig returns spec.md §6's stated defaults for an N-point fit,
// mirroring optimize.DefaultConfig's N-scaled learning rate.
func DefaultConfig(n int) Config {
	lr := float64(n) / 12.0
	if lr < 200 {
		lr = 200
	}
	return Config{
		Perplexity:             30,
		LearningRate:           lr,
		NIter:                  750,
		EarlyExaggerationIter:  250,
		EarlyExaggeration:      12,
		InitialMomentum:        0.5,
		FinalMomentum:          0.8,
		OutputDim:              2,
		Neighbors:              NeighborsExact,
		NegativeGradientMethod: MethodBarnesHut,
		Theta:                  gradient.DefaultTheta,
		NInterpolationPoints:   3,
		MinNumIntervals:        10,
		IntsPerInterval:        1,
		DOF:                    1,
		NJobs:                  0,
		Init:                   InitPCA,
		CallbacksEveryIters:    50,
	}
}
