package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() (string, error)
}

type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) NewID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// pushAlphabet is ordered by ASCII value so that keys sort
// lexicographically in generation order.
const pushAlphabet = "-0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

// PushKeyGenerator allocates realtime-store push keys: 8 characters of
// millisecond timestamp followed by 12 random characters. Keys generated
// within the same millisecond stay strictly increasing.
type PushKeyGenerator struct {
	mu       sync.Mutex
	lastMs   int64
	lastRand [12]byte
	now      func() time.Time
}

func NewPushKeyGenerator() *PushKeyGenerator {
	return &PushKeyGenerator{now: time.Now}
}

func (g *PushKeyGenerator) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms == g.lastMs {
		// Same millisecond: increment the random suffix instead of
		// redrawing, so ordering holds.
		for i := len(g.lastRand) - 1; i >= 0; i-- {
			if g.lastRand[i] < 63 {
				g.lastRand[i]++
				break
			}
			g.lastRand[i] = 0
		}
	} else {
		buf := make([]byte, 12)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for i, b := range buf {
			g.lastRand[i] = b & 0x3f
		}
		g.lastMs = ms
	}

	out := make([]byte, 0, 20)
	ts := ms
	var tsChars [8]byte
	for i := 7; i >= 0; i-- {
		tsChars[i] = pushAlphabet[ts%64]
		ts /= 64
	}
	out = append(out, tsChars[:]...)
	for _, b := range g.lastRand {
		out = append(out, pushAlphabet[b])
	}

	return string(out), nil
}
