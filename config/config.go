package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server    Server    `json:"server" yaml:"server" mapstructure:"server"`
	Data      Data      `json:"data" yaml:"data" mapstructure:"data"`
	Scheduler Scheduler `json:"scheduler" yaml:"scheduler" mapstructure:"scheduler"`
	Reconcile Reconcile `json:"reconcile" yaml:"reconcile" mapstructure:"reconcile"`
	Ledger    Ledger    `json:"ledger" yaml:"ledger" mapstructure:"ledger"`
	Crawler   Crawler   `json:"crawler" yaml:"crawler" mapstructure:"crawler"`
	Status    Status    `json:"status" yaml:"status" mapstructure:"status"`
}

// Server configures the command listener and the read-only http api
type Server struct {
	Address        string        `json:"address" yaml:"address" mapstructure:"address" validate:"required"`
	BufferSize     int           `json:"bufferSize" yaml:"bufferSize" mapstructure:"bufferSize" validate:"gt=0"`
	ReadTimeout    time.Duration `json:"readTimeout" yaml:"readTimeout" mapstructure:"readTimeout" validate:"gt=0"`
	MaxConnections int           `json:"maxConnections" yaml:"maxConnections" mapstructure:"maxConnections" validate:"gt=0"`
	HTTPAddress    string        `json:"httpAddress" yaml:"httpAddress" mapstructure:"httpAddress"`
}

// Data holds the locations of every file the daemon reads or writes
type Data struct {
	Dir           string `json:"dir" yaml:"dir" mapstructure:"dir" validate:"required"`
	Watchlist     string `json:"watchlist" yaml:"watchlist" mapstructure:"watchlist" validate:"required"`
	Snapshot      string `json:"snapshot" yaml:"snapshot" mapstructure:"snapshot" validate:"required"`
	ConnectionLog string `json:"connectionLog" yaml:"connectionLog" mapstructure:"connectionLog"`
	Credentials   string `json:"credentials" yaml:"credentials" mapstructure:"credentials" validate:"required"`
}

type Scheduler struct {
	Interval  time.Duration `json:"interval" yaml:"interval" mapstructure:"interval" validate:"gt=0"`
	Heartbeat time.Duration `json:"heartbeat" yaml:"heartbeat" mapstructure:"heartbeat" validate:"gt=0"`
}

type Reconcile struct {
	MinScore float64 `json:"minScore" yaml:"minScore" mapstructure:"minScore" validate:"gte=0,lte=1"`
}

type Ledger struct {
	Backend  string `json:"backend" yaml:"backend" mapstructure:"backend" validate:"oneof=file sqlite"`
	FilePath string `json:"filePath" yaml:"filePath" mapstructure:"filePath" validate:"required"`
}

// Crawler selects how catalog snapshots are produced. Command and Args are used
// by the exec crawler, URL and the selectors by the schedule crawler.
type Crawler struct {
	Kind              string   `json:"kind" yaml:"kind" mapstructure:"kind" validate:"oneof=exec schedule file"`
	Command           string   `json:"command" yaml:"command" mapstructure:"command" validate:"required_if=Kind exec"`
	Args              []string `json:"args" yaml:"args" mapstructure:"args"`
	WorkDir           string   `json:"workDir" yaml:"workDir" mapstructure:"workDir"`
	URL               string   `json:"url" yaml:"url" mapstructure:"url" validate:"required_if=Kind schedule"`
	ItemSelector      string   `json:"itemSelector" yaml:"itemSelector" mapstructure:"itemSelector" validate:"required_if=Kind schedule"`
	TitleSelector     string   `json:"titleSelector" yaml:"titleSelector" mapstructure:"titleSelector"`
	EpisodeSelector   string   `json:"episodeSelector" yaml:"episodeSelector" mapstructure:"episodeSelector"`
	RequestsPerSecond float64  `json:"requestsPerSecond" yaml:"requestsPerSecond" mapstructure:"requestsPerSecond" validate:"gte=0"`
	MaxRetries        int      `json:"maxRetries" yaml:"maxRetries" mapstructure:"maxRetries" validate:"gte=0"`
}

type Status struct {
	SourceTimezone string `json:"sourceTimezone" yaml:"sourceTimezone" mapstructure:"sourceTimezone" validate:"required"`
}

// SourceLocation loads the catalog source's time zone
func (s Status) SourceLocation() (*time.Location, error) {
	return time.LoadLocation(s.SourceTimezone)
}

type ConfigUnmarshaler interface {
	ReadInConfig() error
	Unmarshal(any, ...viper.DecoderConfigOption) error
	ConfigFileUsed() string
}

// New reads a new configuration
func New(cu ConfigUnmarshaler) (Config, error) {
	var c Config

	if cu.ConfigFileUsed() != "" {
		err := cu.ReadInConfig()
		if err != nil {
			return c, err
		}
	}

	err := cu.Unmarshal(&c)
	return c, err
}

// Validate checks the configuration a daemon needs to start
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Status.SourceLocation(); err != nil {
		return fmt.Errorf("invalid configuration: status.sourceTimezone: %w", err)
	}
	return nil
}
