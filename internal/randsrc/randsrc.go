// Package randsrc abstracts the randomness used by the metrics simulation
// so collectors can be driven deterministically in tests.
package randsrc

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"
)

// Source yields uniform random draws. Uniform returns a float in [lo, hi)
// and Pick returns an int in [0, n).
type Source interface {
	Uniform(lo, hi float64) float64
	Pick(n int) int
}

// CryptoSource draws from crypto/rand. A failing system randomness source
// is unrecoverable, so read errors panic.
type CryptoSource struct{}

// NewCrypto creates the default cryptographically-backed source.
func NewCrypto() *CryptoSource { return &CryptoSource{} }

func (c *CryptoSource) Uniform(lo, hi float64) float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("randsrc: crypto read failed: %v", err))
	}
	// 53 bits of mantissa gives a uniform float in [0, 1).
	unit := float64(binary.BigEndian.Uint64(buf[:])>>11) / (1 << 53)
	return lo + unit*(hi-lo)
}

func (c *CryptoSource) Pick(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("randsrc: crypto read failed: %v", err))
	}
	return int(v.Int64())
}

// SequenceSource replays fixed draws, cycling when exhausted. Uniform
// consumes from Units (unit-interval values scaled into [lo, hi)), Pick
// from Picks.
type SequenceSource struct {
	mu    sync.Mutex
	units []float64
	picks []int
	u, p  int
}

// NewSequence creates a deterministic source from unit draws and picks.
// Either slice may be empty when the corresponding method is unused;
// calling into an empty slice yields zero.
func NewSequence(units []float64, picks []int) *SequenceSource {
	return &SequenceSource{units: units, picks: picks}
}

func (s *SequenceSource) Uniform(lo, hi float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.units) == 0 {
		return lo
	}
	unit := s.units[s.u%len(s.units)]
	s.u++
	return lo + unit*(hi-lo)
}

func (s *SequenceSource) Pick(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.picks) == 0 || n <= 0 {
		return 0
	}
	v := s.picks[s.p%len(s.picks)]
	s.p++
	if v >= n {
		v = n - 1
	}
	return v
}
