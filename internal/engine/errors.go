package engine

import "errors"

// Fatal precondition errors. A run either completes or fails with one of
// these before any bar is processed; per-bar problems degrade to "no
// decision" instead of surfacing.
var (
	ErrEmptySeries        = errors.New("bar series is empty")
	ErrNonMonotonicSeries = errors.New("bar timestamps must be strictly increasing")
)
