package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"zap-scraper/models"
)

const (
	DefaultBaseURL  = "https://www.zapimoveis.com.br:443"
	DefaultLinkBase = "https://www.zapimoveis.com.br"
	DefaultUA       = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config holds all application configuration. It is built once by Load and
// then treated as read-only; constructors receive it by pointer but never
// modify it.
type Config struct {
	// Search
	Towns       []string
	State       string
	Transaction models.TransactionType
	UnitTypes   []models.UnitType
	Pages       int

	// Transport
	BaseURL            string
	LinkBase           string
	UserAgent          string
	InsecureSkipVerify bool
	RequestTimeout     time.Duration
	MaxRetries         int
	RetryBaseDelay     time.Duration

	// Pacing
	MinDelay    time.Duration
	MaxDelay    time.Duration
	MinInterval time.Duration
	Concurrency int

	// Driver extensions
	StopOnEmptyPage bool
	DedupeListings  bool

	// Output
	CSVOutputPath string
	PostgresDSN   string

	// Logging
	Verbose   bool
	LogFormat string
}

// fileConfig is the optional YAML overlay pointed to by CONFIG_PATH.
type fileConfig struct {
	Towns           []string `yaml:"towns"`
	State           string   `yaml:"state"`
	Transaction     string   `yaml:"transaction"`
	UnitTypes       []string `yaml:"unit_types"`
	Pages           int      `yaml:"pages"`
	MinDelaySeconds *float64 `yaml:"min_delay_seconds"`
	MaxDelaySeconds *float64 `yaml:"max_delay_seconds"`
	CSVOutputPath   string   `yaml:"csv_output_path"`
}

// Load reads the .env file, an optional YAML file named by CONFIG_PATH, and
// finally environment variables. Later sources win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := defaults()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

func defaults() *Config {
	return &Config{
		Towns:          []string{"Belo Horizonte"},
		State:          "mg",
		Transaction:    models.Rent,
		UnitTypes:      []models.UnitType{models.AllUnits},
		Pages:          1,
		BaseURL:        DefaultBaseURL,
		LinkBase:       DefaultLinkBase,
		UserAgent:      DefaultUA,
		RequestTimeout: 30 * time.Second,
		MaxRetries:     3,
		RetryBaseDelay: 2 * time.Second,
		MinDelay:       60 * time.Second,
		MaxDelay:       120 * time.Second,
		MinInterval:    time.Second,
		Concurrency:    1,
		CSVOutputPath:  "data.csv",
		LogFormat:      "text",
	}
}

func (c *Config) applyFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	var fc fileConfig
	if err := yaml.NewDecoder(f).Decode(&fc); err != nil {
		return fmt.Errorf("config: decode %q: %w", path, err)
	}

	if len(fc.Towns) > 0 {
		c.Towns = fc.Towns
	}
	if fc.State != "" {
		c.State = fc.State
	}
	if fc.Transaction != "" {
		t, err := models.ParseTransactionType(fc.Transaction)
		if err != nil {
			return fmt.Errorf("config: %s: %w", path, err)
		}
		c.Transaction = t
	}
	if len(fc.UnitTypes) > 0 {
		units, err := models.ParseUnitTypes(strings.Join(fc.UnitTypes, ","))
		if err != nil {
			return fmt.Errorf("config: %s: %w", path, err)
		}
		c.UnitTypes = units
	}
	if fc.Pages > 0 {
		c.Pages = fc.Pages
	}
	if fc.MinDelaySeconds != nil {
		c.MinDelay = seconds(*fc.MinDelaySeconds)
	}
	if fc.MaxDelaySeconds != nil {
		c.MaxDelay = seconds(*fc.MaxDelaySeconds)
	}
	if fc.CSVOutputPath != "" {
		c.CSVOutputPath = fc.CSVOutputPath
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TOWNS"); v != "" {
		c.Towns = splitList(v)
	}
	c.State = getEnv("STATE", c.State)
	if v := os.Getenv("TRANSACTION"); v != "" {
		t, err := models.ParseTransactionType(v)
		if err != nil {
			return fmt.Errorf("config: TRANSACTION: %w", err)
		}
		c.Transaction = t
	}
	if v := os.Getenv("UNIT_TYPES"); v != "" {
		units, err := models.ParseUnitTypes(v)
		if err != nil {
			return fmt.Errorf("config: UNIT_TYPES: %w", err)
		}
		c.UnitTypes = units
	}
	c.Pages = getEnvInt("PAGES", c.Pages)

	c.BaseURL = getEnv("BASE_URL", c.BaseURL)
	c.LinkBase = getEnv("LINK_BASE", c.LinkBase)
	c.UserAgent = getEnv("USER_AGENT", c.UserAgent)
	c.InsecureSkipVerify = getEnvBool("INSECURE_SKIP_VERIFY", c.InsecureSkipVerify)
	c.RequestTimeout = getEnvSeconds("REQUEST_TIMEOUT_SECONDS", c.RequestTimeout)
	c.MaxRetries = getEnvInt("MAX_RETRIES", c.MaxRetries)
	c.RetryBaseDelay = getEnvSeconds("RETRY_BASE_DELAY_SECONDS", c.RetryBaseDelay)

	c.MinDelay = getEnvSeconds("MIN_DELAY_SECONDS", c.MinDelay)
	c.MaxDelay = getEnvSeconds("MAX_DELAY_SECONDS", c.MaxDelay)
	c.MinInterval = getEnvSeconds("MIN_INTERVAL_SECONDS", c.MinInterval)
	c.Concurrency = getEnvInt("MAX_CONCURRENCY", c.Concurrency)

	c.StopOnEmptyPage = getEnvBool("STOP_ON_EMPTY_PAGE", c.StopOnEmptyPage)
	c.DedupeListings = getEnvBool("DEDUPE_LISTINGS", c.DedupeListings)

	c.CSVOutputPath = getEnv("CSV_OUTPUT_PATH", c.CSVOutputPath)
	c.PostgresDSN = getEnv("POSTGRES_DSN", c.PostgresDSN)

	c.Verbose = getEnvBool("VERBOSE", c.Verbose)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	return nil
}

// Validate rejects configurations the driver cannot run with.
func (c *Config) Validate() error {
	if len(c.Towns) == 0 {
		return fmt.Errorf("config: at least one town is required")
	}
	if len(c.UnitTypes) == 0 {
		return fmt.Errorf("config: at least one unit type is required")
	}
	if c.Pages < 1 {
		return fmt.Errorf("config: pages must be positive, got %d", c.Pages)
	}
	if c.MinDelay < 0 || c.MaxDelay < 0 {
		return fmt.Errorf("config: delays must not be negative")
	}
	if c.MaxDelay < c.MinDelay {
		return fmt.Errorf("config: max delay %v is below min delay %v", c.MaxDelay, c.MinDelay)
	}
	if c.MaxRetries > 1 && c.MinInterval > 0 && c.RetryBaseDelay < c.MinInterval {
		return fmt.Errorf("config: retry base delay %v is below min interval %v", c.RetryBaseDelay, c.MinInterval)
	}
	if c.CSVOutputPath == "" {
		return fmt.Errorf("config: csv output path is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSeconds(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return seconds(f)
		}
	}
	return fallback
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
