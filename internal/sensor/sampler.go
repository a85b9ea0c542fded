package sensor

import (
	"sync"
	"time"
)

// Sample is a reading stamped with the wall-clock time of the attempt.
type Sample struct {
	Reading
	TakenAt time.Time
}

// Sampler serializes decode attempts against the shared line. Both the
// periodic sampling loop and the HTTP handler read through the same
// Sampler, so no two reads are ever in flight at once.
type Sampler struct {
	mu  sync.Mutex
	dec *Decoder
	now func() time.Time
}

// NewSampler wraps a Decoder. The now func is injectable for tests; pass
// nil for time.Now.
func NewSampler(dec *Decoder, now func() time.Time) *Sampler {
	if now == nil {
		now = time.Now
	}
	return &Sampler{dec: dec, now: now}
}

// Sample performs one serialized decode attempt.
func (s *Sampler) Sample() Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	at := s.now()
	return Sample{Reading: s.dec.Read(), TakenAt: at}
}
