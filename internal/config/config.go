// Package config loads layered configuration for the research service.
//
// Sources are applied lowest to highest priority:
//  1. compiled-in defaults
//  2. config/base.yaml
//  3. config/<environment>.yaml
//  4. config/local.yaml (development only)
//  5. environment variables
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment identifies the deployment target.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Duration is a time.Duration that YAML decodes from strings like "30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the underlying time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ============================================================================
// CONFIGURATION STRUCTURE
// ============================================================================

// Config is the root configuration for the service.
type Config struct {
	Environment Environment `yaml:"environment" validate:"required,oneof=development staging production"`
	Server      Server      `yaml:"server"`
	Logging     Logging     `yaml:"logging"`
	LLM         LLM         `yaml:"llm"`
	Search      Search      `yaml:"search"`
	Research    Research    `yaml:"research"`
	CORS        CORS        `yaml:"cors"`
	Tracing     Tracing     `yaml:"tracing"`

	// LoadedFrom records which sources contributed values, for startup logs.
	LoadedFrom []string `yaml:"-"`
}

// Server holds the HTTP listener settings.
type Server struct {
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout     Duration `yaml:"readTimeout"`
	WriteTimeout    Duration `yaml:"writeTimeout"`
	IdleTimeout     Duration `yaml:"idleTimeout"`
	RequestTimeout  Duration `yaml:"requestTimeout"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout"`
}

// Logging controls the zap logger construction.
type Logging struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// LLM configures the chat-completion backend. The API key is never read
// from files, only from the environment.
type LLM struct {
	APIKey  string   `yaml:"-"`
	BaseURL string   `yaml:"baseURL"`
	Model   string   `yaml:"model" validate:"required"`
	Timeout Duration `yaml:"timeout"`
	Retry   Retry    `yaml:"retry"`
}

// Search configures the retrieval provider and the resilience around it.
type Search struct {
	APIKey     string   `yaml:"-"`
	BaseURL    string   `yaml:"baseURL"`
	MaxResults int      `yaml:"maxResults" validate:"min=1,max=20"`
	Timeout    Duration `yaml:"timeout"`
	Retry      Retry    `yaml:"retry"`
	Breaker    Breaker  `yaml:"breaker"`
}

// Retry bounds the backoff loop shared by the model and search clients.
type Retry struct {
	MaxRetries    int      `yaml:"maxRetries" validate:"min=0,max=5"`
	InitialDelay  Duration `yaml:"initialDelay"`
	MaxDelay      Duration `yaml:"maxDelay"`
	BackoffFactor float64  `yaml:"backoffFactor" validate:"min=1"`
	JitterFactor  float64  `yaml:"jitterFactor" validate:"min=0,max=1"`
}

// Breaker configures the search circuit breaker.
type Breaker struct {
	FailureThreshold float64  `yaml:"failureThreshold" validate:"min=0,max=1"`
	MinRequests      uint32   `yaml:"minRequests"`
	OpenDuration     Duration `yaml:"openDuration"`
	HalfOpenRequests uint32   `yaml:"halfOpenRequests"`
	Interval         Duration `yaml:"interval"`
}

// Research bounds a run: how many personas interview, for how long, and how
// many refinement rounds the outline gets.
type Research struct {
	PersonaCount          int      `yaml:"personaCount" validate:"min=1,max=10"`
	PersonaRetries        int      `yaml:"personaRetries" validate:"min=0,max=5"`
	MaxTurns              int      `yaml:"maxTurns" validate:"min=1,max=20"`
	MaxRounds             int      `yaml:"maxRounds" validate:"min=1,max=10"`
	MaxParallelInterviews int      `yaml:"maxParallelInterviews" validate:"min=1,max=16"`
	MaxSnippets           int      `yaml:"maxSnippets" validate:"min=1,max=10"`
	SessionBudget         Duration `yaml:"sessionBudget"`
	RoundBudget           Duration `yaml:"roundBudget"`
}

// CORS configures cross-origin access for the HTTP API.
type CORS struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
	AllowedMethods []string `yaml:"allowedMethods"`
	AllowedHeaders []string `yaml:"allowedHeaders"`
	MaxAge         int      `yaml:"maxAge"`
}

// Tracing configures the OTLP trace exporter.
type Tracing struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"serviceName"`
	SampleRate  float64 `yaml:"sampleRate" validate:"min=0,max=1"`
	Insecure    bool    `yaml:"insecure"`
}

// ============================================================================
// DEFAULTS AND VALIDATION
// ============================================================================

// Default returns the configuration used when no file or variable overrides
// a value. The service must be able to start from these alone.
func Default(env Environment) *Config {
	return &Config{
		Environment: env,
		Server: Server{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			IdleTimeout:     Duration(60 * time.Second),
			RequestTimeout:  Duration(30 * time.Second),
			ShutdownTimeout: Duration(30 * time.Second),
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
		LLM: LLM{
			Model:   "gpt-4o-mini",
			Timeout: Duration(60 * time.Second),
			Retry:   defaultRetry(),
		},
		Search: Search{
			MaxResults: 3,
			Timeout:    Duration(10 * time.Second),
			Retry:      defaultRetry(),
			Breaker: Breaker{
				FailureThreshold: 0.6,
				MinRequests:      5,
				OpenDuration:     Duration(30 * time.Second),
				HalfOpenRequests: 3,
				Interval:         Duration(60 * time.Second),
			},
		},
		Research: Research{
			PersonaCount:          3,
			PersonaRetries:        2,
			MaxTurns:              3,
			MaxRounds:             3,
			MaxParallelInterviews: 3,
			MaxSnippets:           3,
			SessionBudget:         Duration(2 * time.Minute),
			RoundBudget:           Duration(6 * time.Minute),
		},
		CORS: CORS{
			Enabled:        true,
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		},
		Tracing: Tracing{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			ServiceName: "research-backend",
			SampleRate:  1.0,
			Insecure:    true,
		},
	}
}

func defaultRetry() Retry {
	return Retry{
		MaxRetries:    2,
		InitialDelay:  Duration(500 * time.Millisecond),
		MaxDelay:      Duration(5 * time.Second),
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
	}
}

var validate = validator.New()

// Validate checks struct tags plus the rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Environment == Production {
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm api key is required in production")
		}
		if c.Search.APIKey == "" {
			return fmt.Errorf("search api key is required in production")
		}
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool { return c.Environment == Development }

// environmentFromEnv resolves the deployment environment, defaulting to
// development so a bare checkout runs.
func environmentFromEnv() Environment {
	switch strings.ToLower(os.Getenv("ENVIRONMENT")) {
	case "production", "prod":
		return Production
	case "staging", "stage":
		return Staging
	default:
		return Development
	}
}
