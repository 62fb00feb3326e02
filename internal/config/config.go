// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Plot viewer kinds accepted by PLOT_VIEWER.
const (
	ViewerWindow   = "window"
	ViewerExternal = "external"
	ViewerFile     = "file"
	ViewerNone     = "none"
)

// Defaults for optional keys.
const (
	DefaultConfigPath        = "odom_config.txt"
	DefaultTopicOdom         = "robot/odom"
	DefaultQueueDepth        = 10
	DefaultSampleInterval    = 100 // milliseconds
	DefaultProducerInterval  = 20  // milliseconds
	DefaultPlotViewer        = ViewerWindow
	DefaultPlotViewerCommand = "gpicview"
	DefaultPlotOutput        = "odometry_path.png"
	DefaultPlotWidthInches   = 8.0
	DefaultPlotHeightInches  = 6.0
	DefaultGPSBaudRate       = 9600
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string `yaml:"mqtt_broker"`
	MQTTClientIDPlotter  string `yaml:"mqtt_client_id_plotter"`
	MQTTClientIDProducer string `yaml:"mqtt_client_id_producer"`
	MQTTClientIDGPS      string `yaml:"mqtt_client_id_gps"`

	// Topics
	TopicOdom      string `yaml:"topic_odom"`
	OdomQueueDepth int    `yaml:"odom_queue_depth"`

	// Timing
	SampleInterval   int `yaml:"sample_interval"`   // milliseconds between accepted samples
	ProducerInterval int `yaml:"producer_interval"` // milliseconds between published messages

	// Plot
	PlotViewer        string  `yaml:"plot_viewer"` // "window", "external", "file" or "none"
	PlotViewerCommand string  `yaml:"plot_viewer_command"`
	PlotOutput        string  `yaml:"plot_output"`
	PlotWidthInches   float64 `yaml:"plot_width_inches"`
	PlotHeightInches  float64 `yaml:"plot_height_inches"`

	// Web Server (0 disables the live view)
	WebServerPort int `yaml:"web_server_port"`

	// GPS
	GPSSerialPort string `yaml:"gps_serial_port"`
	GPSBaudRate   int    `yaml:"gps_baud_rate"`
}

// Package-level singleton state. InitGlobal sets it once, Get reads it.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// NewReadError wraps a failure to read the configuration file.
func NewReadError(configPath string, err error) error {
	return fmt.Errorf("failed to read config file %q: %w", configPath, err)
}

// NewParseError wraps a failure to parse the configuration file.
func NewParseError(configPath string, err error) error {
	return fmt.Errorf("failed to parse config file %q: %w", configPath, err)
}

// Default returns a Config with every optional key at its default value.
func Default() *Config {
	return &Config{
		TopicOdom:         DefaultTopicOdom,
		OdomQueueDepth:    DefaultQueueDepth,
		SampleInterval:    DefaultSampleInterval,
		ProducerInterval:  DefaultProducerInterval,
		PlotViewer:        DefaultPlotViewer,
		PlotViewerCommand: DefaultPlotViewerCommand,
		PlotOutput:        DefaultPlotOutput,
		PlotWidthInches:   DefaultPlotWidthInches,
		PlotHeightInches:  DefaultPlotHeightInches,
		GPSBaudRate:       DefaultGPSBaudRate,
	}
}

// Load reads the configuration file and returns a Config struct.
// Files ending in .yaml or .yml are decoded as YAML, anything else as KEY=VALUE lines.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, NewReadError(configPath, err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, NewParseError(configPath, err)
		}
	default:
		if err := cfg.parseKeyValue(data); err != nil {
			return nil, NewParseError(configPath, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) parseKeyValue(data []byte) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := c.setValue(key, value); err != nil {
			return fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	return scanner.Err()
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PLOTTER":
		c.MQTTClientIDPlotter = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value

	// Topics
	case "TOPIC_ODOM":
		c.TopicOdom = value
	case "ODOM_QUEUE_DEPTH":
		depth, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ODOM_QUEUE_DEPTH %q: %w", value, err)
		}
		c.OdomQueueDepth = depth

	// Timing
	case "SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.SampleInterval = interval
	case "PRODUCER_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PRODUCER_INTERVAL %q: %w", value, err)
		}
		c.ProducerInterval = interval

	// Plot
	case "PLOT_VIEWER":
		c.PlotViewer = strings.ToLower(value)
	case "PLOT_VIEWER_COMMAND":
		c.PlotViewerCommand = value
	case "PLOT_OUTPUT":
		c.PlotOutput = value
	case "PLOT_WIDTH_INCHES":
		w, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid PLOT_WIDTH_INCHES %q: %w", value, err)
		}
		c.PlotWidthInches = w
	case "PLOT_HEIGHT_INCHES":
		h, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid PLOT_HEIGHT_INCHES %q: %w", value, err)
		}
		c.PlotHeightInches = h

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = rate

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set and ranges make sense.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicOdom == "" {
		return fmt.Errorf("TOPIC_ODOM is required")
	}
	if c.OdomQueueDepth < 1 {
		return fmt.Errorf("ODOM_QUEUE_DEPTH must be >= 1, got %d", c.OdomQueueDepth)
	}
	if c.SampleInterval < 0 {
		return fmt.Errorf("SAMPLE_INTERVAL must be >= 0, got %d", c.SampleInterval)
	}
	if c.ProducerInterval <= 0 {
		return fmt.Errorf("PRODUCER_INTERVAL must be > 0, got %d", c.ProducerInterval)
	}
	switch c.PlotViewer {
	case ViewerWindow, ViewerFile, ViewerNone:
	case ViewerExternal:
		if c.PlotViewerCommand == "" {
			return fmt.Errorf("PLOT_VIEWER_COMMAND is required for PLOT_VIEWER=%s", ViewerExternal)
		}
	default:
		return fmt.Errorf("PLOT_VIEWER must be one of window, external, file, none; got %q", c.PlotViewer)
	}
	if c.PlotViewer == ViewerFile && c.PlotOutput == "" {
		return fmt.Errorf("PLOT_OUTPUT is required for PLOT_VIEWER=%s", ViewerFile)
	}
	if c.PlotWidthInches <= 0 || c.PlotHeightInches <= 0 {
		return fmt.Errorf("plot size must be positive, got %.2fx%.2f in", c.PlotWidthInches, c.PlotHeightInches)
	}
	if c.WebServerPort < 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 0-65535, got %d", c.WebServerPort)
	}
	return nil
}

// SampleEvery is SampleInterval as a duration.
func (c *Config) SampleEvery() time.Duration {
	return time.Duration(c.SampleInterval) * time.Millisecond
}

// ProduceEvery is ProducerInterval as a duration.
func (c *Config) ProduceEvery() time.Duration {
	return time.Duration(c.ProducerInterval) * time.Millisecond
}

// InitGlobal initializes the global configuration from file.
// Only the first call loads; later calls are no-ops.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance, or nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
