package evaluator

// DefaultMaxCallDepth bounds user function recursion when Limits leaves it unset.
const DefaultMaxCallDepth = 10000

// Limits holds the resource limits for a session.
type Limits struct {
	// MaxCallDepth is the deepest allowed nesting of learned function calls.
	// Exceeding it is an ordinary runtime error that try can intercept.
	MaxCallDepth int `yaml:"max_call_depth"`
	// MaxIterations caps the total number of loop iterations in one chunk.
	// Zero means unlimited. Exceeding it aborts the chunk.
	MaxIterations int64 `yaml:"max_iterations"`
}

func (l Limits) callDepth() int {
	if l.MaxCallDepth <= 0 {
		return DefaultMaxCallDepth
	}
	return l.MaxCallDepth
}

// iterationTracker counts loop iterations during one chunk.
type iterationTracker struct {
	Iterations int64
}
