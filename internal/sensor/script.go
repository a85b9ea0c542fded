package sensor

import "github.com/temcontrol/temcontrol/internal/gpio"

// Pulse widths of a simulated sensor response. The probe samples 40us into
// each high pulse, so anything longer reads as a 1 and anything shorter as
// a 0.
const (
	simAckMicros  = 80
	simBitGap     = 50
	simOneMicros  = 70
	simZeroMicros = 26
)

// FrameScript returns the pulse train a sensor would emit for the given
// 5-byte frame, suitable for a gpio.SimPin. The script starts at the
// instant the host releases the line: ack low, ready high, then one
// low-gap/high-pulse pair per bit, MSB first, with a trailing low before
// the sensor lets go of the bus.
func FrameScript(frame [5]byte) []gpio.Segment {
	script := []gpio.Segment{
		{High: false, Micros: simAckMicros},
		{High: true, Micros: simAckMicros},
	}
	for _, b := range frame {
		for bit := 7; bit >= 0; bit-- {
			script = append(script, gpio.Segment{High: false, Micros: simBitGap})
			width := simZeroMicros
			if b&(1<<uint(bit)) != 0 {
				width = simOneMicros
			}
			script = append(script, gpio.Segment{High: true, Micros: width})
		}
	}
	return append(script, gpio.Segment{High: false, Micros: simBitGap})
}

// Checksum returns the frame checksum byte: the low 8 bits of the sum of
// the four payload bytes.
func Checksum(b0, b1, b2, b3 byte) byte {
	return b0 + b1 + b2 + b3
}
