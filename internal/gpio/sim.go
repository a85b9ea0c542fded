package gpio

// Segment is one stretch of a scripted pulse train: the line holds High
// for Micros virtual microseconds.
type Segment struct {
	High   bool
	Micros int
}

// SimPin is a test double driven by a virtual microsecond clock. The
// script describes the pulse train the sensor emits once the host releases
// the line to input; before the release, and after the script runs out,
// the line sits at the pulled-up idle level.
//
// Hand Delay to the code under test as its microsecond delay primitive:
// every simulated delay advances the virtual clock, so pulse widths are
// deterministic regardless of wall-clock scheduling.
type SimPin struct {
	Script []Segment

	// Idle is the level reported outside the script. NewSimPin sets it
	// high, matching a pulled-up bus.
	Idle bool

	// FaultErr, if set, is returned by every Level call. Simulates a
	// line that cannot be read at all.
	FaultErr error

	// Writes records every SetLevel call, DirChanges every direction
	// switch. Tests use these to assert side effects (or their absence).
	Writes        []bool
	DirChanges    []Direction
	PullupEnabled bool
	Closed        bool

	nowMicros   int64
	releasedAt  int64
	released    bool
	dir         Direction
	drivenLevel bool
}

// NewSimPin creates a SimPin that will replay the given script after the
// first output-to-input release.
func NewSimPin(script []Segment) *SimPin {
	return &SimPin{Script: script, Idle: true}
}

// Delay advances the virtual clock by the given number of microseconds.
func (p *SimPin) Delay(micros int) {
	p.nowMicros += int64(micros)
}

// Now returns the current virtual time in microseconds.
func (p *SimPin) Now() int64 {
	return p.nowMicros
}

// SetDirection switches the simulated line. An output-to-input switch
// releases the line: the script's timeline starts at that instant.
func (p *SimPin) SetDirection(d Direction) error {
	if d == Input && p.dir == Output {
		p.released = true
		p.releasedAt = p.nowMicros
	}
	p.dir = d
	p.DirChanges = append(p.DirChanges, d)
	return nil
}

// SetLevel records the driven level.
func (p *SimPin) SetLevel(high bool) error {
	p.drivenLevel = high
	p.Writes = append(p.Writes, high)
	return nil
}

// Level reports the line level at the current virtual time.
func (p *SimPin) Level() (bool, error) {
	if p.FaultErr != nil {
		return false, p.FaultErr
	}
	if p.dir == Output {
		return p.drivenLevel, nil
	}
	if !p.released {
		return p.Idle, nil
	}
	return p.levelAt(p.nowMicros - p.releasedAt), nil
}

// EnablePullup records that the pull-up was requested.
func (p *SimPin) EnablePullup() error {
	p.PullupEnabled = true
	return nil
}

// Close marks the pin closed.
func (p *SimPin) Close() error {
	p.Closed = true
	return nil
}

func (p *SimPin) levelAt(t int64) bool {
	for _, seg := range p.Script {
		if t < int64(seg.Micros) {
			return seg.High
		}
		t -= int64(seg.Micros)
	}
	// Script exhausted: the sensor released the line back to the pull-up.
	return p.Idle
}

// SimOutput is an output-line test double recording every driven level.
type SimOutput struct {
	Levels []bool
	Closed bool

	// Err, if set, is returned by SetLevel.
	Err error
}

// SetLevel records the level.
func (o *SimOutput) SetLevel(high bool) error {
	if o.Err != nil {
		return o.Err
	}
	o.Levels = append(o.Levels, high)
	return nil
}

// Close marks the line closed.
func (o *SimOutput) Close() error {
	o.Closed = true
	return nil
}

// Last returns the most recently driven level, and whether anything was
// driven at all.
func (o *SimOutput) Last() (bool, bool) {
	if len(o.Levels) == 0 {
		return false, false
	}
	return o.Levels[len(o.Levels)-1], true
}
