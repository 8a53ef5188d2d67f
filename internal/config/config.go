// Package config parses the process's CLI flags (and an optional YAML
// override file) into the Options the rest of the module is wired
// from, grounded on the teacher's pflag usage in src/appserver.go and
// src/kissutil.go and the yaml.v3 file-load pattern in src/deviceid.go.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/eegstream/eegstream/internal/errs"
	"github.com/eegstream/eegstream/internal/features"
)

// Options is the fully resolved, validated configuration for one
// process run; see spec §6 for the CLI flag table this mirrors field
// for field.
type Options struct {
	BoardID         int      `yaml:"board_id"`
	Channels        []string `yaml:"channels"`
	SerialPort      string   `yaml:"serial_port"`
	WebsocketPort   int      `yaml:"websocket_port"`
	SamplesPerEpoch int      `yaml:"samples_per_epoch"`
	OutputDir       string   `yaml:"output_dir"`
	WaitForCommands bool     `yaml:"wait_for_commands"`
	JustWait        bool     `yaml:"just_wait"`

	InfluxURL        string `yaml:"influx_url"`
	InfluxDatabase   string `yaml:"influx_database"`
	InfluxUsername   string `yaml:"influx_username"`
	InfluxPassword   string `yaml:"influx_password"`
	InfluxRawSamples bool   `yaml:"influx_raw_samples"`

	SSLCert string `yaml:"ssl_cert"`
	SSLKey  string `yaml:"ssl_key"`

	Streamer string `yaml:"streamer"`
	LSL      bool   `yaml:"lsl"`

	MQTTBroker string `yaml:"mqtt_broker"`
	DNSSDName  string `yaml:"dns_sd_name"`

	AutoDiscoverSerialPort bool   `yaml:"auto_discover_serial_port"`
	TriggerGPIOChip        string `yaml:"trigger_gpio_chip"`
	TriggerGPIOLine        int    `yaml:"trigger_gpio_line"`

	Verbose bool `yaml:"verbose"`
}

// Parse parses args (normally os.Args[1:]) into Options, merging an
// optional --config YAML file underneath explicit flags (flags win),
// and validates the result. err wraps errs.ErrConfig on any failure.
func Parse(args []string) (Options, error) {
	fs := pflag.NewFlagSet("eegstream", pflag.ContinueOnError)

	boardID := fs.IntP("board_id", "b", 0, "driver board identifier (required)")
	channels := fs.StringSliceP("channels", "c", nil, "channel labels (required)")
	// serial_port, websocket_port and samples_per_epoch use multi-letter
	// short forms in the CLI contract (-sp, -wp, -spe); pflag shorthands
	// are restricted to a single ASCII character, so those are exposed
	// as long flags only.
	serialPort := fs.String("serial_port", "", "serial device path")
	websocketPort := fs.Int("websocket_port", 8765, "control-channel port")
	samplesPerEpoch := fs.Int("samples_per_epoch", features.SamplesPerEpoch, "epoch length N")
	outputDir := fs.StringP("output_dir", "o", ".", "CSV destination directory")
	waitForCommands := fs.BoolP("wait_for_commands", "w", false, "stay IDLE until a start command arrives")
	justWait := fs.BoolP("just_wait", "j", false, "diagnostic idle, skip processing entirely")

	influxURL := fs.String("influx_url", "", "TSDB URL")
	influxDatabase := fs.String("influx_database", "", "TSDB database")
	influxUsername := fs.String("influx_username", "", "TSDB username")
	influxPassword := fs.String("influx_password", "", "TSDB password")
	influxRaw := fs.Bool("influx_raw_samples", false, "enable the disabled-by-default raw-sample TSDB path")

	sslCert := fs.String("ssl_cert", "", "TLS certificate path; enables TLS with ssl_key")
	sslKey := fs.String("ssl_key", "", "TLS key path; enables TLS with ssl_cert")

	streamer := fs.String("streamer", "", "optional sideband streamer URI")
	lsl := fs.Bool("lsl", false, "enable the inter-application LSL stream")

	mqttBroker := fs.String("mqtt_broker", "", "optional MQTT broker URL for the mqttsink fan-out sink")
	dnsSDName := fs.String("dns_sd_name", "", "mDNS/DNS-SD service name for the control channel")

	autoDiscoverSerialPort := fs.Bool("auto_discover_serial_port", false, "discover serial_port via udev when unset")
	triggerGPIOChip := fs.String("trigger_gpio_chip", "", "optional GPIO chip (e.g. gpiochip0) for the stimulus-sync trigger line")
	triggerGPIOLine := fs.Int("trigger_gpio_line", 0, "GPIO line offset on trigger_gpio_chip")

	verbose := fs.BoolP("verbose", "v", false, "verbose logging")
	configPath := fs.String("config", "", "optional YAML config file; flags override its fields")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: eegstream -b BOARD_ID -c CHANNEL[,CHANNEL...] [OPTIONS]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return Options{}, errs.Config("parse flags", err)
	}

	opts := Options{
		BoardID:                *boardID,
		Channels:               *channels,
		SerialPort:             *serialPort,
		WebsocketPort:          *websocketPort,
		SamplesPerEpoch:        *samplesPerEpoch,
		OutputDir:              *outputDir,
		WaitForCommands:        *waitForCommands,
		JustWait:               *justWait,
		InfluxURL:              *influxURL,
		InfluxDatabase:         *influxDatabase,
		InfluxUsername:         *influxUsername,
		InfluxPassword:         *influxPassword,
		InfluxRawSamples:       *influxRaw,
		SSLCert:                *sslCert,
		SSLKey:                 *sslKey,
		Streamer:               *streamer,
		LSL:                    *lsl,
		MQTTBroker:             *mqttBroker,
		DNSSDName:              *dnsSDName,
		AutoDiscoverSerialPort: *autoDiscoverSerialPort,
		TriggerGPIOChip:        *triggerGPIOChip,
		TriggerGPIOLine:        *triggerGPIOLine,
		Verbose:                *verbose,
	}

	if *configPath != "" {
		merged, err := mergeFile(*configPath, opts, explicitFlags(fs))
		if err != nil {
			return Options{}, err
		}

		opts = merged
	}

	if err := validate(opts); err != nil {
		return Options{}, err
	}

	return opts, nil
}

// explicitFlags returns the set of flag names the user passed on the
// command line, so the YAML file only fills in what wasn't set.
func explicitFlags(fs *pflag.FlagSet) map[string]bool {
	set := map[string]bool{}

	fs.Visit(func(f *pflag.Flag) {
		set[f.Name] = true
	})

	return set
}

// mergeFile loads path as YAML into a copy of base's shape, then
// copies across any field whose flag was not explicitly set.
func mergeFile(path string, base Options, explicit map[string]bool) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, errs.Config("read config file", err)
	}

	var fromFile Options
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return Options{}, errs.Config("parse config file", err)
	}

	merged := base

	if !explicit["board_id"] && fromFile.BoardID != 0 {
		merged.BoardID = fromFile.BoardID
	}

	if !explicit["channels"] && len(fromFile.Channels) > 0 {
		merged.Channels = fromFile.Channels
	}

	if !explicit["serial_port"] && fromFile.SerialPort != "" {
		merged.SerialPort = fromFile.SerialPort
	}

	if !explicit["websocket_port"] && fromFile.WebsocketPort != 0 {
		merged.WebsocketPort = fromFile.WebsocketPort
	}

	if !explicit["samples_per_epoch"] && fromFile.SamplesPerEpoch != 0 {
		merged.SamplesPerEpoch = fromFile.SamplesPerEpoch
	}

	if !explicit["output_dir"] && fromFile.OutputDir != "" {
		merged.OutputDir = fromFile.OutputDir
	}

	if !explicit["wait_for_commands"] && fromFile.WaitForCommands {
		merged.WaitForCommands = true
	}

	if !explicit["just_wait"] && fromFile.JustWait {
		merged.JustWait = true
	}

	if !explicit["influx_url"] && fromFile.InfluxURL != "" {
		merged.InfluxURL = fromFile.InfluxURL
	}

	if !explicit["influx_database"] && fromFile.InfluxDatabase != "" {
		merged.InfluxDatabase = fromFile.InfluxDatabase
	}

	if !explicit["influx_username"] && fromFile.InfluxUsername != "" {
		merged.InfluxUsername = fromFile.InfluxUsername
	}

	if !explicit["influx_password"] && fromFile.InfluxPassword != "" {
		merged.InfluxPassword = fromFile.InfluxPassword
	}

	if !explicit["influx_raw_samples"] && fromFile.InfluxRawSamples {
		merged.InfluxRawSamples = true
	}

	if !explicit["ssl_cert"] && fromFile.SSLCert != "" {
		merged.SSLCert = fromFile.SSLCert
	}

	if !explicit["ssl_key"] && fromFile.SSLKey != "" {
		merged.SSLKey = fromFile.SSLKey
	}

	if !explicit["streamer"] && fromFile.Streamer != "" {
		merged.Streamer = fromFile.Streamer
	}

	if !explicit["lsl"] && fromFile.LSL {
		merged.LSL = true
	}

	if !explicit["mqtt_broker"] && fromFile.MQTTBroker != "" {
		merged.MQTTBroker = fromFile.MQTTBroker
	}

	if !explicit["dns_sd_name"] && fromFile.DNSSDName != "" {
		merged.DNSSDName = fromFile.DNSSDName
	}

	if !explicit["auto_discover_serial_port"] && fromFile.AutoDiscoverSerialPort {
		merged.AutoDiscoverSerialPort = true
	}

	if !explicit["trigger_gpio_chip"] && fromFile.TriggerGPIOChip != "" {
		merged.TriggerGPIOChip = fromFile.TriggerGPIOChip
	}

	if !explicit["trigger_gpio_line"] && fromFile.TriggerGPIOLine != 0 {
		merged.TriggerGPIOLine = fromFile.TriggerGPIOLine
	}

	return merged, nil
}

// validate enforces the required-field and credential-consistency
// rules of spec §7's ConfigError.
func validate(o Options) error {
	if o.BoardID == 0 {
		return errs.Config("board_id is required", nil)
	}

	if len(o.Channels) == 0 {
		return errs.Config("channels is required", nil)
	}

	if o.SamplesPerEpoch <= 0 {
		return errs.Config("samples_per_epoch must be positive", nil)
	}

	influxFields := []string{o.InfluxURL, o.InfluxDatabase, o.InfluxUsername, o.InfluxPassword}

	set, unset := 0, 0

	for _, f := range influxFields {
		if strings.TrimSpace(f) == "" {
			unset++
		} else {
			set++
		}
	}

	if set > 0 && unset > 0 {
		return errs.Config("influx_url/influx_database/influx_username/influx_password must be all set or all empty", nil)
	}

	if (o.SSLCert == "") != (o.SSLKey == "") {
		return errs.Config("ssl_cert and ssl_key must be set together", nil)
	}

	return nil
}
