package export

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// InfluxExporter writes points to an InfluxDB 2.x bucket through the
// non-blocking write API.
type InfluxExporter struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
}

// NewInfluxExporter connects to InfluxDB and verifies the server is healthy.
func NewInfluxExporter(ctx context.Context, url, token, org, bucket string) (*InfluxExporter, error) {
	client := influxdb2.NewClient(url, token)

	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb health check: %w", err)
	}
	if health.Status != "pass" {
		client.Close()
		msg := ""
		if health.Message != nil {
			msg = *health.Message
		}
		return nil, fmt.Errorf("influxdb unhealthy: %s", msg)
	}

	return &InfluxExporter{
		client:   client,
		writeAPI: client.WriteAPI(org, bucket),
	}, nil
}

// Write queues the point. The write API batches and retries internally;
// errors surface on its error channel and are dropped here so a backend
// outage never stalls the sampling loop.
func (e *InfluxExporter) Write(p Point) {
	point := influxdb2.NewPoint(
		"sensor_reading",
		map[string]string{"device": p.Device},
		map[string]interface{}{
			"temperature": p.Temperature,
			"humidity":    p.Humidity,
		},
		p.Timestamp,
	)
	e.writeAPI.WritePoint(point)
}

// Close flushes pending writes and shuts down the client.
func (e *InfluxExporter) Close() {
	e.writeAPI.Flush()
	e.client.Close()
}
