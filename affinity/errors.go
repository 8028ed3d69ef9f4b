package affinity

import "errors"

// ErrEmptyInput, ErrInvalidPerplexity, and ErrNonFiniteDistance map to the
// tsne package's InvalidInput error kind; affinity itself stays
// dependency-free of the facade's typed-error wrapper (spec.md Design
// Notes: core subsystems return plain errors, the facade classifies them).
var (
	ErrEmptyInput        = errors.New("affinity: empty distance input")
	ErrInvalidPerplexity = errors.New("affinity: perplexity must be positive")
	ErrNonFiniteDistance = errors.New("affinity: non-finite or negative distance")
)
