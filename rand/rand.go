package rand

import (
	"github.com/pkg/errors"
	"github.com/seehuhn/mt19937"
	xrand "golang.org/x/exp/rand"
)

// A Generator is a seeded Mersenne twister owned by exactly one sampler.
// There is no locking: chains that run concurrently each get their own
// Generator (see Spawn).
//
// Generator implements the golang.org/x/exp/rand Source interface, so it can
// be handed directly to the gonum distributions as their Src.
type Generator struct {
	mt  *mt19937.MT19937
	rnd *xrand.Rand
}

// NewGenerator returns a new PRNG based on the given seed
func NewGenerator(seed int64) (*Generator, error) {
	mt := mt19937.New()
	mt.Seed(seed)
	return wrap(mt), nil
}

// newGeneratorSlice seeds the twister from a key array (init_by_array64 in
// the reference implementation)
func newGeneratorSlice(key []uint64) (*Generator, error) {
	if len(key) < 1 {
		return nil, errors.New("At least one key value is required for seeding")
	}

	mt := mt19937.New()
	mt.SeedFromSlice(key)
	return wrap(mt), nil
}

func wrap(mt *mt19937.MT19937) *Generator {
	g := &Generator{mt: mt}
	g.rnd = xrand.New(g)
	return g
}

// Spawn returns an independent generator keyed from four draws of this
// stream. Useful for handing one generator to each of several samplers from
// a single CLI seed.
func (g *Generator) Spawn() (*Generator, error) {
	key := make([]uint64, spawnKeyLen)
	for i := range key {
		key[i] = g.Uint64()
	}
	return newGeneratorSlice(key)
}

const spawnKeyLen = 4

// Uint64 implements xrand.Source
func (g *Generator) Uint64() uint64 {
	return g.mt.Uint64()
}

// Seed implements xrand.Source
func (g *Generator) Seed(seed uint64) {
	g.mt.Seed(int64(seed))
}

// Int63 provides the same interface as Go's math/rand
func (g *Generator) Int63() int64 {
	return g.mt.Int63()
}

// Int63n is a copy of the current Go code
func (g *Generator) Int63n(n int64) int64 {
	if n <= 0 {
		panic("invalid argument to Int63n")
	}

	if n&(n-1) == 0 { // n is power of two, can mask
		return g.Int63() & (n - 1)
	}

	max := int64((1 << 63) - 1 - (1<<63)%uint64(n))
	v := g.Int63()
	for v > max {
		v = g.Int63()
	}

	return v % n
}

// Float64 uses the commented, simpler implmentation since we don't have the
// same support requirements for users
func (g *Generator) Float64() float64 {
	// See the Go lang comments for Rand Float64 implementation for details
	return float64(g.Int63n(1<<53)) / (1 << 53)
}

// NormFloat64 returns a standard normal draw
func (g *Generator) NormFloat64() float64 {
	return g.rnd.NormFloat64()
}

// Perm returns a random permutation of [0, n)
func (g *Generator) Perm(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	// Fisher-Yates, driven by our own Int63n so the stream stays ours
	for i := n - 1; i > 0; i-- {
		j := int(g.Int63n(int64(i + 1)))
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}
