package event

import "github.com/lanerunner/lanerunner/internal/core/pool"

// PoolExhausted is emitted the first time an acquire for Kind comes back
// empty. It is not repeated until the pool has recovered.
type PoolExhausted struct {
	Kind     pool.Kind
	Capacity int
}

// PoolRecovered follows a PoolExhausted once an acquire for Kind succeeds again.
type PoolRecovered struct {
	Kind pool.Kind
}
