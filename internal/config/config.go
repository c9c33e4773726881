package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Databases
	EventStorePath string
	ReadModelPath  string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Processors
	NodeID       string
	PollInterval time.Duration
	BatchSize    int

	// When false the command node runs only the saga group and leaves
	// the projection groups to a separate worker process. Positions are
	// claimable by one owner, so exactly one process may host a group.
	LocalProjections bool

	// Saga
	SagaDispatchTimeout time.Duration

	// Google Sheets export
	SheetExportEnabled    bool
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	LogLevel string
}

func Load() *Config {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "contabile"
	}

	return &Config{
		EventStorePath: getEnv("EVENT_STORE_PATH", "./data/events.db"),
		ReadModelPath:  getEnv("READ_MODEL_PATH", "./data/readmodel.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "contabile"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "event_notifications"),

		NodeID:       getEnv("NODE_ID", hostname),
		PollInterval: getEnvDuration("POLL_INTERVAL", time.Second),
		BatchSize:    getEnvInt("BATCH_SIZE", 100),

		LocalProjections: getEnvBool("LOCAL_PROJECTIONS", true),

		SagaDispatchTimeout: getEnvDuration("SAGA_DISPATCH_TIMEOUT", 5*time.Second),

		SheetExportEnabled:    getEnvBool("SHEET_EXPORT_ENABLED", false),
		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:       getEnv("GOOGLE_SHEET_NAME", "Closings"),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.EventStorePath == "" {
		errs = append(errs, "event store path cannot be empty")
	}
	if c.ReadModelPath == "" {
		errs = append(errs, "read model path cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.BatchSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid batch size %d: must be at least 1", c.BatchSize))
	} else if c.BatchSize > 1000 {
		errs = append(errs, fmt.Sprintf("invalid batch size %d: must be at most 1000", c.BatchSize))
	}

	if c.PollInterval < 100*time.Millisecond {
		errs = append(errs, fmt.Sprintf("invalid poll interval %v: must be at least 100ms", c.PollInterval))
	} else if c.PollInterval > time.Hour {
		errs = append(errs, fmt.Sprintf("invalid poll interval %v: must be at most 1 hour", c.PollInterval))
	}

	if c.SagaDispatchTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid saga dispatch timeout %v: must be at least 1 second", c.SagaDispatchTimeout))
	}

	if c.SheetExportEnabled {
		if c.GoogleSpreadsheetID == "" {
			errs = append(errs, "Google Spreadsheet ID is required when sheet export is enabled")
		}
		if c.GoogleCredentialsFile == "" && c.GoogleCredentialsJSON == "" {
			errs = append(errs, "either GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON must be provided when sheet export is enabled")
		}
		if c.GoogleCredentialsFile != "" {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errs = append(errs, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// Credentials returns the service account JSON, reading the file when
// only a path is configured.
func (c *Config) Credentials() ([]byte, error) {
	if c.GoogleCredentialsJSON != "" {
		return []byte(c.GoogleCredentialsJSON), nil
	}
	if c.GoogleCredentialsFile != "" {
		data, err := os.ReadFile(c.GoogleCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("no Google credentials configured")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
