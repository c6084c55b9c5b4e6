package stage

// Memo caches a stage's per-tick output. A stage with shared fan-out (the
// same stage pointer held by multiple consumers) embeds a Memo so that,
// within one tick, Apply computes its value exactly once no matter how
// many consumers call it (invariant: §8.2 memoization).
type Memo[T any] struct {
	tick uint64
	has  bool
	val  T
}

// Get returns the cached value for ctx.Tick, computing it via compute on
// first access this tick.
func (m *Memo[T]) Get(ctx *Context, compute func() T) T {
	if m.has && m.tick == ctx.Tick {
		return m.val
	}
	m.val = compute()
	m.tick = ctx.Tick
	m.has = true
	return m.val
}

// Reset clears the memo slot; stages call this from their own Reset
// alongside clearing any other cross-tick state they hold.
func (m *Memo[T]) Reset() {
	var zero T
	m.val = zero
	m.has = false
}
