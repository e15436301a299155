package nest

import (
	"encoding/binary"
	"hash/fnv"
	"sort"
)

// seededHash is a stable 64-bit FNV-1a hash of id salted with seed.
func seededHash(id string, seed uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], seed)
	h := fnv.New64a()
	h.Write(buf[:])
	h.Write([]byte(id))
	return h.Sum64()
}

// instance is one copy of a part, seq counting copies of the same part.
type instance struct {
	id     string
	seq    int
	length float64
	width  float64
	height float64
	grain  GrainDirection
}

// sortInstances orders instances by key descending. Equal keys are ordered
// by the seeded hash so the seed is the only tie-break input.
func sortInstances(items []instance, seed uint64, key func(instance) float64) {
	type keyed struct {
		inst instance
		key  float64
		hash uint64
	}
	ks := make([]keyed, len(items))
	for i, it := range items {
		ks[i] = keyed{inst: it, key: key(it), hash: seededHash(it.id, seed^uint64(it.seq))}
	}
	sort.SliceStable(ks, func(a, b int) bool {
		if ks[a].key != ks[b].key {
			return ks[a].key > ks[b].key
		}
		return ks[a].hash < ks[b].hash
	})
	for i := range ks {
		items[i] = ks[i].inst
	}
}

// supply hands out stock pieces in list order, honouring each quantity.
type supply struct {
	quantities []int
	used       []int
}

func newSupply(quantities []int) *supply {
	return &supply{quantities: quantities, used: make([]int, len(quantities))}
}

// next returns the stock position and the per-stock index of the next
// unused piece.
func (s *supply) next() (stock, index int, err error) {
	for i, q := range s.quantities {
		if s.used[i] < q {
			index = s.used[i]
			s.used[i]++
			return i, index, nil
		}
	}
	return 0, 0, ErrInsufficientStock
}
