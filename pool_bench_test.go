package flowpool_test

import (
	"fmt"
	"math/bits"
	"math/rand"
	"strconv"
	"testing"

	"github.com/hashicorp/golang-lru/arc/v2"

	"github.com/djdv/go-flowpool"
)

type (
	benchStore interface {
		Insert(id string, value int)
		Remove(id string)
		// Walk visits every live value and returns their sum.
		Walk() int
	}
	storeCtor        = func(size int, b *testing.B) benchStore
	storeConstructor struct {
		name string
		new  storeCtor
	}
	poolWrapper struct {
		*flowpool.Pool[int]
	}
	arcWrapper struct {
		*arc.ARCCache[string, int]
	}
	mapStore map[string]int
)

func (pw poolWrapper) Insert(id string, value int) { _ = pw.Pool.Insert(id, value) }
func (pw poolWrapper) Remove(id string)            { pw.Pool.Remove(id) }
func (pw poolWrapper) Walk() (sum int) {
	for _, value := range pw.Values() {
		sum += value
	}
	return sum
}

func (aw arcWrapper) Insert(id string, value int) { aw.Add(id, value) }
func (aw arcWrapper) Remove(id string)            { aw.ARCCache.Remove(id) }
func (aw arcWrapper) Walk() (sum int) {
	for _, id := range aw.Keys() {
		if value, ok := aw.Peek(id); ok {
			sum += value
		}
	}
	return sum
}

func (ms mapStore) Insert(id string, value int) {
	if _, ok := ms[id]; !ok {
		ms[id] = value
	}
}
func (ms mapStore) Remove(id string) { delete(ms, id) }
func (ms mapStore) Walk() (sum int) {
	for _, value := range ms {
		sum += value
	}
	return sum
}

// Fixed RNG seed for reproducibility.
// Change to test variance between runs.
const rngSeed = 1

func BenchmarkPool(b *testing.B) {
	b.Run("API overhead", apiOverhead)
	var (
		constructors = storeConstructors()
		sizes        = []int{128, 1024, 8192}
	)
	for _, size := range sizes {
		b.Run(fmt.Sprintf("Flows%d", size), func(b *testing.B) {
			for _, constructor := range constructors {
				b.Run(constructor.name+"/churn", newBenchChurn(constructor.new, size))
				b.Run(constructor.name+"/walk", newBenchWalk(constructor.new, size))
			}
		})
	}
}

func storeConstructors() []storeConstructor {
	return []storeConstructor{
		{
			"FlowPool",
			func(size int, b *testing.B) benchStore {
				pool, err := flowpool.New[int](flowpool.PolicyFunc[int](func(int) {}), size)
				if err != nil {
					b.Fatal(err)
				}
				return poolWrapper{Pool: pool}
			},
		},
		{
			"ARC",
			func(size int, b *testing.B) benchStore {
				// Twice the live set so nothing is evicted.
				cache, err := arc.NewARC[string, int](size * 2)
				if err != nil {
					b.Fatal(err)
				}
				return arcWrapper{ARCCache: cache}
			},
		},
		{
			"Map",
			func(size int, _ *testing.B) benchStore {
				return make(mapStore, size)
			},
		},
	}
}

// newBenchChurn withdraws and re-admits random flows
// while the live set stays near size.
func newBenchChurn(ctor storeCtor, size int) func(b *testing.B) {
	return func(b *testing.B) {
		var (
			store   = ctor(size, b)
			ids     = makeIDs(size)
			rng     = newReproducibleRNG()
			picks   = makeRandomSequence(rng, size, nextPow2(size*4))
			pickEnd = len(picks) - 1
		)
		for i, id := range ids {
			store.Insert(id, i)
		}
		b.ReportAllocs()
		for i := 0; b.Loop(); i++ {
			pick := picks[i&pickEnd]
			store.Remove(ids[pick])
			store.Insert(ids[pick], pick)
		}
	}
}

// newBenchWalk measures visiting every live value,
// the access pattern of a transmit loop.
func newBenchWalk(ctor storeCtor, size int) func(b *testing.B) {
	return func(b *testing.B) {
		store := ctor(size, b)
		for i, id := range makeIDs(size) {
			store.Insert(id, i)
		}
		b.ReportAllocs()
		var sum int
		for b.Loop() {
			sum += store.Walk()
		}
		_ = sum
	}
}

func apiOverhead(b *testing.B) {
	const (
		size     = 1024
		keyCount = 1 << 16 // Power-of-two for mask.
		keyEnd   = keyCount - 1
	)
	var (
		pool, _ = newPool[int](b)
		ids     = makeIDs(size)
		rng     = newReproducibleRNG()
		keys    = makeRandomSequence(rng, size, keyCount)
	)
	for i, id := range ids {
		mustInsert(b, pool, id, i)
	}
	b.ReportAllocs()
	for i := 0; b.Loop(); i++ {
		if value, ok := pool.Get(ids[keys[i&keyEnd]]); ok {
			_ = value
		}
	}
}

func makeIDs(count int) []string {
	ids := make([]string, count)
	for i := range ids {
		ids[i] = "flow-" + strconv.Itoa(i)
	}
	return ids
}

func makeRandomSequence(rng *rand.Rand, upperBound, length int) []int {
	keys := make([]int, length)
	for i := range keys {
		keys[i] = rng.Intn(upperBound)
	}
	return keys
}

func nextPow2(x int) int {
	if x <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(x)-1)
}

func newReproducibleRNG() *rand.Rand {
	return rand.New(rand.NewSource(rngSeed))
}
