// Command temcontrold reads a single-wire temperature/humidity sensor,
// drives a relay on a duty-cycle timer, and serves an HTTP API. Readings
// go to MQTT, SQLite, and optionally InfluxDB.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/temcontrol/temcontrol/internal/config"
	"github.com/temcontrol/temcontrol/internal/export"
	"github.com/temcontrol/temcontrol/internal/gpio"
	"github.com/temcontrol/temcontrol/internal/logger"
	"github.com/temcontrol/temcontrol/internal/mqtt"
	"github.com/temcontrol/temcontrol/internal/relay"
	"github.com/temcontrol/temcontrol/internal/sensor"
	"github.com/temcontrol/temcontrol/internal/status"
	"github.com/temcontrol/temcontrol/internal/store"
	"github.com/temcontrol/temcontrol/internal/web"
)

func main() {
	configPath := flag.String("config", "/etc/temcontrol/config.yaml", "config file path")
	printReading := flag.Bool("print-reading", false, "take one reading, print it, and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.Get(cfg.LogLevel())

	if err := run(cfg, log, *printReading); err != nil {
		log.Fatalw("fatal", "err", err)
	}
}

func run(cfg *config.Store, log *logger.Logger, printReading bool) error {
	pin, err := gpio.NewRealPin(cfg.GPIOChip(), cfg.SensorPin())
	if err != nil {
		return fmt.Errorf("init sensor pin: %w", err)
	}
	defer pin.Close()
	// The data line idles high; without the internal pull-up an external
	// resistor must provide it.
	if err := pin.EnablePullup(); err != nil {
		log.Warnw("enable pull-up failed", "err", err)
	}

	sampler := sensor.NewSampler(sensor.New(pin), nil)

	// Print mode: one synchronous read, no daemon machinery.
	if printReading {
		s := sampler.Sample()
		if !s.OK() {
			return fmt.Errorf("read failed: %s", s.Outcome)
		}
		fmt.Printf("temperature=%.1f humidity=%.1f\n", s.Temperature, s.Humidity)
		return nil
	}

	relayOut, err := gpio.NewRealOutputLine(cfg.GPIOChip(), cfg.RelayPin())
	if err != nil {
		return fmt.Errorf("init relay pin: %w", err)
	}
	defer relayOut.Close()
	ctrl := relay.New(relayOut)

	// The LED is best-effort; a missing line only loses the indicator.
	var led gpio.OutputLine
	if l, err := gpio.NewRealOutputLine(cfg.GPIOChip(), cfg.LEDPin()); err != nil {
		log.Warnw("init led pin failed", "err", err)
	} else {
		led = l
		defer l.Close()
	}

	var readings *store.Store
	if cfg.DBPath() != "" {
		readings, err = store.Open(cfg.DBPath())
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer readings.Close()
		log.Infow("sqlite open", "path", cfg.DBPath())
	}

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTTBroker() != "" {
		pub, err := mqtt.NewRealPublisher(cfg.MQTTBroker(), cfg.Hostname())
		if err != nil {
			// The daemon is useful without a broker; paho keeps retrying
			// in the background once connected, but a first connect
			// failure just disables MQTT for this run.
			log.Warnw("mqtt connect failed, continuing without", "broker", cfg.MQTTBroker(), "err", err)
		} else {
			publisher = pub
			mqttStatus = pub
			defer pub.Close()
		}
	}

	var exporter export.Exporter
	if cfg.InfluxEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		exp, err := export.NewInfluxExporter(ctx, cfg.InfluxURL(), cfg.InfluxToken(), cfg.InfluxOrg(), cfg.InfluxBucket())
		cancel()
		if err != nil {
			log.Warnw("influx connect failed, continuing without", "url", cfg.InfluxURL(), "err", err)
		} else {
			exporter = exp
			defer exp.Close()
		}
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		Hostname:    cfg.Hostname(),
		Broker:      cfg.MQTTBroker(),
		HTTPAddr:    cfg.HTTPAddr(),
		SampleMs:    cfg.SampleInterval().Milliseconds(),
		PollMs:      cfg.PollInterval().Milliseconds(),
		HeartbeatMs: cfg.HeartbeatInterval().Milliseconds(),
		DBPath:      cfg.DBPath(),
	})
	tracker.SetRelay(ctrl.Snapshot())

	if publisher != nil {
		snap := tracker.Snapshot()
		err := publisher.PublishSystem(mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		})
		if err != nil {
			log.Warnw("startup publish failed", "err", err)
		} else {
			log.Infow("published startup event")
		}
	}

	if cfg.HTTPAddr() != "" {
		webDeps := web.Deps{
			Tracker: tracker,
			Relay:   ctrl,
			Sampler: sampler,
			Names:   cfg,
			Log:     log,
		}
		// A typed nil in the interface would defeat the handler's nil check.
		if readings != nil {
			webDeps.Readings = readings
		}
		srv := web.New(cfg.HTTPAddr(), webDeps)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorw("http server error", "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infow("http server listening", "addr", cfg.HTTPAddr())
	}

	log.Infow("started",
		"hostname", cfg.Hostname(),
		"sample", cfg.SampleInterval(),
		"poll", cfg.PollInterval(),
		"heartbeat", cfg.HeartbeatInterval(),
		"broker", cfg.MQTTBroker())

	pollTicker := time.NewTicker(cfg.PollInterval())
	defer pollTicker.Stop()
	sampleTicker := time.NewTicker(cfg.SampleInterval())
	defer sampleTicker.Stop()

	var heartbeatTick <-chan time.Time
	if hb := cfg.HeartbeatInterval(); hb > 0 {
		t := time.NewTicker(hb)
		defer t.Stop()
		heartbeatTick = t.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	deps := loopDeps{
		sampler:    sampler,
		ctrl:       ctrl,
		led:        led,
		tracker:    tracker,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		exporter:   exporter,
		device:     cfg.Hostname(),
		log:        log,
		now:        time.Now,
	}
	if readings != nil {
		deps.readings = readings
	}
	return runLoop(deps, pollTicker.C, sampleTicker.C, heartbeatTick, sigCh)
}

// readingSampler takes one sensor reading on demand.
type readingSampler interface {
	Sample() sensor.Sample
}

// readingAppender persists one reading.
type readingAppender interface {
	Append(ctx context.Context, r store.Reading) error
}

// loopDeps are the collaborators runLoop drives. publisher, mqttStatus,
// led, readings and exporter may be nil.
type loopDeps struct {
	sampler    readingSampler
	ctrl       *relay.Controller
	led        gpio.OutputLine
	tracker    *status.Tracker
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	readings   readingAppender
	exporter   export.Exporter
	device     string
	log        *logger.Logger
	now        func() time.Time
}

func runLoop(d loopDeps, pollTick, sampleTick, heartbeatTick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			d.log.Infow("shutting down", "signal", s)
			d.refreshMQTT()
			if d.publisher != nil {
				name := signalName(s)
				snap := d.tracker.Snapshot()
				err := d.publisher.PublishSystem(mqtt.SystemEvent{
					Timestamp:  snap.Now,
					Event:      "SHUTDOWN",
					Reason:     name,
					Retained:   true,
					RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", name),
				})
				if err != nil {
					d.log.Warnw("shutdown publish failed", "err", err)
				}
			}
			return nil

		case <-pollTick:
			if err := d.ctrl.Poll(d.now()); err != nil {
				d.log.Errorw("relay poll failed", "err", err)
			}
			d.tracker.SetRelay(d.ctrl.Snapshot())
			d.refreshMQTT()

		case <-sampleTick:
			d.takeSample()

		case <-heartbeatTick:
			d.refreshMQTT()
			if d.publisher != nil {
				snap := d.tracker.Snapshot()
				d.log.Debugw("heartbeat", "uptime", snap.Uptime())
				err := d.publisher.PublishSystem(mqtt.SystemEvent{
					Timestamp:  snap.Now,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
				})
				if err != nil {
					d.log.Warnw("heartbeat publish failed", "err", err)
				}
			}
		}
	}
}

// takeSample reads the sensor once and fans the result out to the
// tracker, the store, MQTT, and the exporter. Sink failures are logged
// and swallowed so one bad backend never stops sampling.
func (d loopDeps) takeSample() {
	s := d.sampler.Sample()
	d.tracker.RecordReading(s.Reading, s.TakenAt)

	if !s.OK() {
		d.log.Warnw("read failed", "outcome", s.Outcome)
		return
	}
	d.log.Infow("reading", "temperature", s.Temperature, "humidity", s.Humidity)

	if d.readings != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := d.readings.Append(ctx, store.Reading{
			TakenAt:     s.TakenAt,
			Temperature: s.Temperature,
			Humidity:    s.Humidity,
		})
		cancel()
		if err != nil {
			d.log.Errorw("store append failed", "err", err)
		}
	}

	if d.publisher != nil {
		err := d.publisher.PublishReading(mqtt.ReadingEvent{
			Timestamp:   s.TakenAt,
			Temperature: s.Temperature,
			Humidity:    s.Humidity,
		})
		if err != nil {
			d.log.Warnw("reading publish failed", "err", err)
		}
	}

	if d.exporter != nil {
		d.exporter.Write(export.Point{
			Device:      d.device,
			Timestamp:   s.TakenAt,
			Temperature: s.Temperature,
			Humidity:    s.Humidity,
		})
	}
}

// refreshMQTT mirrors the broker connection into the tracker and the
// status LED. The LED is lit while the broker is unreachable.
func (d loopDeps) refreshMQTT() {
	if d.mqttStatus == nil {
		return
	}
	connected := d.mqttStatus.IsConnected()
	d.tracker.SetMQTTConnected(connected)
	if d.led != nil {
		if err := d.led.SetLevel(!connected); err != nil {
			d.log.Debugw("led write failed", "err", err)
		}
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}
