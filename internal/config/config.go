// Package config loads runtime settings from a YAML file and the
// environment. Every key has a default so the daemon starts with no
// config file at all.
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Settings keys. Environment variables use the TEMCONTROL_ prefix with
// dots replaced by underscores, e.g. TEMCONTROL_MQTT_BROKER.
const (
	KeyHostname          = "hostname"
	KeyGPIOChip          = "gpio.chip"
	KeyPinSensor         = "gpio.sensor_pin"
	KeyPinRelay          = "gpio.relay_pin"
	KeyPinLED            = "gpio.led_pin"
	KeyHTTPAddr          = "http.addr"
	KeyMQTTBroker        = "mqtt.broker"
	KeyPollInterval      = "poll_interval"
	KeySampleInterval    = "sample_interval"
	KeyHeartbeatInterval = "heartbeat_interval"
	KeyDBPath            = "db.path"
	KeyLogLevel          = "log.level"
	KeyInfluxURL         = "influx.url"
	KeyInfluxToken       = "influx.token"
	KeyInfluxOrg         = "influx.org"
	KeyInfluxBucket      = "influx.bucket"
)

// Store wraps a viper instance holding the daemon's configuration.
// SetHostname rewrites the backing file, so a Store remembers where it
// was loaded from.
type Store struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
}

// Load reads configuration from the given path. A missing file is not
// an error; defaults and environment variables still apply, and the
// path is remembered for later writes.
func Load(path string) (*Store, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TEMCONTROL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if _, err := os.Stat(path); err == nil {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	return &Store{v: v, path: path}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyHostname, "temcontrol")
	v.SetDefault(KeyGPIOChip, "gpiochip0")
	v.SetDefault(KeyPinSensor, 4)
	v.SetDefault(KeyPinRelay, 17)
	v.SetDefault(KeyPinLED, 27)
	v.SetDefault(KeyHTTPAddr, ":8080")
	v.SetDefault(KeyMQTTBroker, "tcp://localhost:1883")
	v.SetDefault(KeyPollInterval, 100*time.Millisecond)
	v.SetDefault(KeySampleInterval, 60*time.Second)
	v.SetDefault(KeyHeartbeatInterval, 15*time.Minute)
	v.SetDefault(KeyDBPath, "temcontrol.db")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyInfluxURL, "")
	v.SetDefault(KeyInfluxToken, "")
	v.SetDefault(KeyInfluxOrg, "temcontrol")
	v.SetDefault(KeyInfluxBucket, "readings")
}

// Hostname returns the device name used in MQTT topics and status output.
func (s *Store) Hostname() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.GetString(KeyHostname)
}

// SetHostname updates the hostname and persists the full configuration
// back to the config file so the name survives a restart.
func (s *Store) SetHostname(name string) error {
	if name == "" {
		return fmt.Errorf("hostname must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set(KeyHostname, name)
	if s.path == "" {
		return nil
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write config %s: %w", s.path, err)
	}
	return nil
}

// GPIOChip returns the gpiochip device name.
func (s *Store) GPIOChip() string { return s.v.GetString(KeyGPIOChip) }

// SensorPin returns the BCM offset of the sensor data line.
func (s *Store) SensorPin() int { return s.v.GetInt(KeyPinSensor) }

// RelayPin returns the BCM offset of the relay output.
func (s *Store) RelayPin() int { return s.v.GetInt(KeyPinRelay) }

// LEDPin returns the BCM offset of the status LED.
func (s *Store) LEDPin() int { return s.v.GetInt(KeyPinLED) }

// HTTPAddr returns the listen address for the HTTP API.
func (s *Store) HTTPAddr() string { return s.v.GetString(KeyHTTPAddr) }

// MQTTBroker returns the broker URL, or "" to disable MQTT.
func (s *Store) MQTTBroker() string { return s.v.GetString(KeyMQTTBroker) }

// PollInterval returns how often the relay timer is evaluated.
func (s *Store) PollInterval() time.Duration { return s.v.GetDuration(KeyPollInterval) }

// SampleInterval returns how often the sensor is sampled.
func (s *Store) SampleInterval() time.Duration { return s.v.GetDuration(KeySampleInterval) }

// HeartbeatInterval returns how often a status heartbeat is published.
func (s *Store) HeartbeatInterval() time.Duration { return s.v.GetDuration(KeyHeartbeatInterval) }

// DBPath returns the SQLite database path.
func (s *Store) DBPath() string { return s.v.GetString(KeyDBPath) }

// LogLevel returns the logging level name.
func (s *Store) LogLevel() string { return s.v.GetString(KeyLogLevel) }

// InfluxURL returns the InfluxDB URL, or "" to disable export.
func (s *Store) InfluxURL() string { return s.v.GetString(KeyInfluxURL) }

// InfluxToken returns the InfluxDB API token.
func (s *Store) InfluxToken() string { return s.v.GetString(KeyInfluxToken) }

// InfluxOrg returns the InfluxDB organization.
func (s *Store) InfluxOrg() string { return s.v.GetString(KeyInfluxOrg) }

// InfluxBucket returns the InfluxDB bucket.
func (s *Store) InfluxBucket() string { return s.v.GetString(KeyInfluxBucket) }

// InfluxEnabled reports whether export is configured.
func (s *Store) InfluxEnabled() bool {
	return s.InfluxURL() != "" && s.InfluxToken() != ""
}
