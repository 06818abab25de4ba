// conf/config.go
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// Settings is the root configuration struct for the platform. It mirrors the
// components named in the system design: invocation, normalization, the
// analyzer suite, the job queue, the event bus, delivery, and the catalog
// validator, plus the ambient logging/telemetry concerns every component
// shares.
type Settings struct {
	Debug bool // true to enable debug mode

	Main struct {
		Name string // name of this node, used to identify the source of events
		Log  LogConfig
	}

	Invoker struct {
		CommandPath string // path to the external measurement binary
		Timeout     string // per-invocation timeout, parsed with time.ParseDuration
		MaxArgs     int    // sanity bound on constructed argument lists
	}

	Normalizer struct {
		SampleRate int    // target sample rate all clips are resampled to
		BitDepth   int    // target bit depth all clips are converted to
		TempDir    string // scratch directory for normalized intermediates
	}

	Analyzer struct {
		Enabled               []string // analyzer names to run, empty means all
		SubgenreHeuristicsPath string  // path to the subgenre heuristics YAML table
		ClubStressBands       []float64
	}

	Conflict struct {
		RulesPath string // optional override for the parameter conflict rule catalog
	}

	Queue struct {
		Workers          int    // size of the bounded worker pool
		RetryBaseDelay   string // exponential backoff base, parsed with time.ParseDuration
		RetryMaxDelay    string // exponential backoff ceiling, parsed with time.ParseDuration
		RetryMaxAttempts int    // attempts before a job is marked failed
		QueueCapacity    int    // per-priority queue capacity, 0 = unbounded
	}

	Events struct {
		BufferSize int  // event bus channel capacity
		Workers    int  // event bus worker goroutines
		MQTT       MQTTSinkSettings
	}

	Delivery struct {
		PlatformContractsPath string // path to the platform contract table YAML
		UploadTimeout         string // per-upload timeout, parsed with time.ParseDuration
		MaxConcurrentUploads  int
	}

	Catalog struct {
		SampleFraction float64 // default fraction of the catalog sampled per run
		Parallel       int     // default worker count for catalog validation batches
	}

	Notification struct {
		Enabled bool     // true to enable critical-failure push notifications
		URLs    []string // shoutrrr service URLs
	}

	Telemetry struct {
		Enabled bool   // true to enable Sentry error telemetry
		DSN     string // Sentry DSN
	}

	WebServer struct {
		Enabled bool   // true to enable the web server
		Port    string // port for web server
		AutoTLS bool   // true to enable auto TLS
		Log     LogConfig
	}
}

// MQTTSinkSettings configures the optional MQTT fan-out sink for job events.
type MQTTSinkSettings struct {
	Enabled  bool
	Broker   string
	Username string
	Password string
	Prefix   string
}

// LogConfig defines the configuration for a log file.
type LogConfig struct {
	Enabled     bool         // true to enable this log
	Path        string       // Path to the log file
	Rotation    RotationType // Type of log rotation
	MaxSize     int64        // Max size in bytes for RotationSize
	RotationDay time.Weekday // Day of the week for RotationWeekly
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// buildDate is the time when the binary was built.
var buildDate string

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a fresh
// Settings instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := validateSettings(settings); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	settingsInstance = settings
	return settings, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	fmt.Printf("audioqa build date: %s, using config file: %s\n", buildDate, viper.ConfigFileUsed())

	return nil
}

// createDefaultConfig creates a default config file and writes it to the default config path.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// UpdateSettings validates and replaces the in-memory settings instance,
// persisting the change to the YAML config file.
func UpdateSettings(newSettings *Settings) error {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := validateSettings(newSettings); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	settingsInstance = newSettings

	settingsMap, err := structToMap(newSettings)
	if err != nil {
		return fmt.Errorf("error converting settings to map: %w", err)
	}

	if err := viper.MergeConfigMap(settingsMap); err != nil {
		return fmt.Errorf("error merging settings with viper: %w", err)
	}

	return viper.WriteConfig()
}

// Setting returns the current settings instance, loading it on first use.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}
