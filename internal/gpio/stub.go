//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealPin is not available on non-Linux platforms.
type RealPin struct{}

// NewRealPin returns an error on non-Linux platforms.
func NewRealPin(chipName string, offset int) (*RealPin, error) {
	return nil, errUnsupported
}

func (p *RealPin) SetDirection(Direction) error { return errUnsupported }
func (p *RealPin) SetLevel(bool) error          { return errUnsupported }
func (p *RealPin) Level() (bool, error)         { return false, errUnsupported }
func (p *RealPin) EnablePullup() error          { return errUnsupported }
func (p *RealPin) Close() error                 { return nil }

// RealOutputLine is not available on non-Linux platforms.
type RealOutputLine struct{}

// NewRealOutputLine returns an error on non-Linux platforms.
func NewRealOutputLine(chipName string, offset int) (*RealOutputLine, error) {
	return nil, errUnsupported
}

func (l *RealOutputLine) SetLevel(bool) error { return errUnsupported }
func (l *RealOutputLine) Close() error        { return nil }
