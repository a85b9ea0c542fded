// Package export forwards readings to a time-series backend. It is
// optional: the daemon runs fine with a nil exporter.
package export

import "time"

// Point is one sample to export.
type Point struct {
	Device      string
	Timestamp   time.Time
	Temperature float64
	Humidity    float64
}

// Exporter writes points to a long-term backend.
type Exporter interface {
	// Write queues a point for export. Implementations buffer and
	// flush asynchronously; a failed write must not block sampling.
	Write(p Point)

	// Close flushes buffered points and releases the client.
	Close()
}

// FakeExporter records points for test assertions.
type FakeExporter struct {
	Points []Point
	Closed bool
}

// NewFakeExporter creates a FakeExporter for testing.
func NewFakeExporter() *FakeExporter {
	return &FakeExporter{}
}

// Write records the point.
func (f *FakeExporter) Write(p Point) {
	f.Points = append(f.Points, p)
}

// Close marks the exporter as closed.
func (f *FakeExporter) Close() {
	f.Closed = true
}
