package game

import (
	"encoding/binary"

	"lukechampine.com/blake3"
)

// DeriveSeed computes the per-round deterministic seed from
// (arena id, creation instant, round number), as required by the
// specification's auto-play/replay determinism rule. The same inputs always
// produce the same seed, and therefore the same auto-played moves and
// shuffle order.
func DeriveSeed(arenaID string, creationInstantUnixNano int64, roundNumber int) uint64 {
	buf := make([]byte, 0, len(arenaID)+8+4)
	buf = append(buf, []byte(arenaID)...)
	var instant [8]byte
	binary.BigEndian.PutUint64(instant[:], uint64(creationInstantUnixNano))
	buf = append(buf, instant[:]...)
	var round [4]byte
	binary.BigEndian.PutUint32(round[:], uint32(roundNumber))
	buf = append(buf, round[:]...)

	sum := blake3.Sum256(buf)
	return binary.BigEndian.Uint64(sum[:8])
}

// rng is a splitmix64 generator: small, dependency-free, and fully
// deterministic given its seed, used to expand a single blake3-derived seed
// into a stream of pseudo-random draws (card shuffles, target values).
type rng struct {
	state uint64
}

func newRNG(seed uint64) *rng { return &rng{state: seed} }

func (r *rng) next() uint64 {
	r.state += 0x9E3779B97F4A7C15
	z := r.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// intn returns a uniform value in [0, n).
func (r *rng) intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.next() % uint64(n))
}

// float64 returns a uniform value in [0, 1).
func (r *rng) float64() float64 {
	return float64(r.next()>>11) / (1 << 53)
}
