package montecarlo

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// seedMix decorrelates the two PCG seed words; the value is the
// 64-bit golden-ratio constant.
const seedMix = 0x9e3779b97f4a7c15

// stream is a reseedable random source. Each packet gets its own seed
// (base seed plus packet index), so the draw sequence for a packet is
// independent of how packets are partitioned across workers and the
// run is reproducible for any worker count.
type stream struct {
	src *rand.PCG
	*rand.Rand
	exp distuv.Exponential
}

// newStream allocates a stream. Call reseed before first use; workers
// allocate one stream each and reseed it per packet so the transport
// loop itself allocates nothing.
func newStream() *stream {
	src := rand.NewPCG(0, 0)
	return &stream{
		src:  src,
		Rand: rand.New(src),
		exp:  distuv.Exponential{Rate: 1, Src: src},
	}
}

func (s *stream) reseed(seed uint64) {
	s.src.Seed(seed, seed^seedMix)
}

// nextTau draws a fresh optical-depth budget, distributed as -ln(U)
// with U uniform on (0, 1).
func (s *stream) nextTau() float64 {
	return s.exp.Rand()
}
