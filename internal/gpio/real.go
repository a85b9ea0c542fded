//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealPin is a bidirectional pin on actual hardware, backed by the Linux
// GPIO character device. Direction changes go through Line.Reconfigure so
// the line stays requested across the input/output flips of a sensor read.
type RealPin struct {
	chip   *gpiocdev.Chip
	line   *gpiocdev.Line
	dir    Direction
	pullup bool
}

// NewRealPin requests the given line as an input.
func NewRealPin(chipName string, offset int) (*RealPin, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %q: %w", chipName, err)
	}

	line, err := chip.RequestLine(offset, gpiocdev.AsInput)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request sensor pin %d: %w", offset, err)
	}

	return &RealPin{chip: chip, line: line, dir: Input}, nil
}

// SetDirection reconfigures the line. Switching to output drives it high,
// matching the pulled-up idle level of the bus.
func (p *RealPin) SetDirection(d Direction) error {
	if d == p.dir {
		return nil
	}
	var err error
	switch {
	case d == Output:
		err = p.line.Reconfigure(gpiocdev.AsOutput(1))
	case p.pullup:
		err = p.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp)
	default:
		err = p.line.Reconfigure(gpiocdev.AsInput)
	}
	if err != nil {
		return fmt.Errorf("reconfigure pin as %s: %w", d, err)
	}
	p.dir = d
	return nil
}

// SetLevel drives the line.
func (p *RealPin) SetLevel(high bool) error {
	v := 0
	if high {
		v = 1
	}
	if err := p.line.SetValue(v); err != nil {
		return fmt.Errorf("set pin level: %w", err)
	}
	return nil
}

// Level reads the instantaneous logic level.
func (p *RealPin) Level() (bool, error) {
	v, err := p.line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin level: %w", err)
	}
	return v != 0, nil
}

// EnablePullup enables the internal pull-up on the line. It takes effect
// immediately if the line is an input, and is reapplied on every later
// switch back to input.
func (p *RealPin) EnablePullup() error {
	p.pullup = true
	if p.dir != Input {
		return nil
	}
	if err := p.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
		return fmt.Errorf("enable pull-up: %w", err)
	}
	return nil
}

// Close releases the line, leaving it as an input so the sensor's idle
// state survives a daemon restart.
func (p *RealPin) Close() error {
	var errs []error
	if p.line != nil {
		if err := p.line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin: %w", err))
		}
		if err := p.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin: %w", err))
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealOutputLine is an output-only line on actual hardware.
type RealOutputLine struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealOutputLine requests the given line as an output, driven low.
func NewRealOutputLine(chipName string, offset int) (*RealOutputLine, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %q: %w", chipName, err)
	}

	line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request output pin %d: %w", offset, err)
	}

	return &RealOutputLine{chip: chip, line: line}, nil
}

// SetLevel drives the line.
func (l *RealOutputLine) SetLevel(high bool) error {
	v := 0
	if high {
		v = 1
	}
	if err := l.line.SetValue(v); err != nil {
		return fmt.Errorf("set output level: %w", err)
	}
	return nil
}

// Close drives the line low and releases it, so a relay never stays
// energized past the daemon's lifetime.
func (l *RealOutputLine) Close() error {
	var errs []error
	if l.line != nil {
		if err := l.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("drive output low: %w", err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close output: %w", err))
		}
	}
	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
