package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Backend names accepted by DATA_BACKEND.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
	BackendSheets = "sheets"
)

var (
	validBackends    = []string{BackendMemory, BackendFile, BackendSQLite, BackendMongo, BackendSheets}
	validNotifiers   = []string{"whatsapp", "log"}
	validClassifiers = []string{"gemini", "openai"}
	validLogLevels   = []string{"debug", "info", "warn", "error"}
	validLogFormats  = []string{"text", "json"}
)

type Config struct {
	// HTTP Server
	Port           string
	ProcessTimeout time.Duration

	// WhatsApp Cloud API
	VerifyToken        string
	WhatsAppToken      string
	PhoneNumberID      string
	WhatsAppAppSecret  string
	WhatsAppAPIVersion string
	WhatsAppBaseURL    string
	Notifier           string

	// Classifier
	ClassifierProvider string
	ClassifierTimeout  time.Duration
	GeminiAPIKey       string
	GeminiModel        string
	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAIBaseURL      string

	// Backend selection
	DataBackend string
	DataFile    string

	// Database
	SQLiteDBPath string
	MongoURI     string
	MongoDBName  string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Records
	Timezone  string
	DedupeTTL time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		ProcessTimeout: getEnvDuration("PROCESS_TIMEOUT", 30*time.Second),

		VerifyToken:        getEnv("VERIFY_TOKEN", ""),
		WhatsAppToken:      getEnv("WHATSAPP_TOKEN", ""),
		PhoneNumberID:      getEnv("PHONE_NUMBER_ID", ""),
		WhatsAppAppSecret:  getEnv("WHATSAPP_APP_SECRET", ""),
		WhatsAppAPIVersion: getEnv("WHATSAPP_API_VERSION", "v22.0"),
		WhatsAppBaseURL:    getEnv("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
		Notifier:           getEnv("NOTIFIER", "whatsapp"),

		ClassifierProvider: getEnv("CLASSIFIER_PROVIDER", "gemini"),
		ClassifierTimeout:  getEnvDuration("CLASSIFIER_TIMEOUT", 15*time.Second),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),

		DataBackend: getEnv("DATA_BACKEND", BackendFile),
		DataFile:    getEnv("DATA_FILE", "./data/records.json"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fiado.db"),
		MongoURI:     getEnv("MONGO_URI", ""),
		MongoDBName:  getEnv("MONGO_DB_NAME", "fiado"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Records"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fiado"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "record_events"),

		Timezone:  getEnv("TIMEZONE", "Local"),
		DedupeTTL: getEnvDuration("DEDUPE_TTL", 24*time.Hour),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}
}

// Location resolves Timezone. Callers should have run Validate first.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// AMQPEnabled reports whether record events should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// Validate checks everything the webhook server needs.
func (c *Config) Validate() error {
	errs := c.validateCommon()

	if c.VerifyToken == "" {
		errs = append(errs, "VERIFY_TOKEN is required")
	}
	if !slices.Contains(validNotifiers, c.Notifier) {
		errs = append(errs, fmt.Sprintf("invalid notifier '%s': must be one of %v", c.Notifier, validNotifiers))
	} else if c.Notifier == "whatsapp" {
		if c.WhatsAppToken == "" {
			errs = append(errs, "WHATSAPP_TOKEN is required when NOTIFIER=whatsapp")
		}
		if c.PhoneNumberID == "" {
			errs = append(errs, "PHONE_NUMBER_ID is required when NOTIFIER=whatsapp")
		}
		if _, err := url.ParseRequestURI(c.WhatsAppBaseURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid WhatsApp base URL '%s': %v", c.WhatsAppBaseURL, err))
		}
	}
	errs = append(errs, c.validateClassifier()...)

	if c.ProcessTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("invalid process timeout %v: must be positive", c.ProcessTimeout))
	}
	if c.DedupeTTL < 0 {
		errs = append(errs, fmt.Sprintf("invalid dedupe TTL %v: must not be negative", c.DedupeTTL))
	}

	return joinErrors(errs)
}

// ValidateStore checks only the settings needed to open the record store,
// for tools that never touch the webhook.
func (c *Config) ValidateStore() error {
	return joinErrors(c.validateCommon())
}

// ValidateClassifier checks the settings needed to build a classifier.
func (c *Config) ValidateClassifier() error {
	return joinErrors(c.validateClassifier())
}

func (c *Config) validateCommon() []string {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	switch c.DataBackend {
	case BackendFile:
		if c.DataFile == "" {
			errs = append(errs, "DATA_FILE cannot be empty when using file backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		}
	case BackendMongo:
		if c.MongoURI == "" {
			errs = append(errs, "MONGO_URI is required when using mongo backend")
		}
		if c.MongoDBName == "" {
			errs = append(errs, "MONGO_DB_NAME cannot be empty when using mongo backend")
		}
	case BackendSheets:
		errs = append(errs, c.validateSheets()...)
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validLogFormats))
	}

	return errs
}

// ValidateSheets checks the Google Sheets settings on their own; the
// mirror worker needs them whatever DATA_BACKEND says.
func (c *Config) ValidateSheets() error {
	return joinErrors(c.validateSheets())
}

func (c *Config) validateSheets() []string {
	var errs []string
	if c.GoogleSpreadsheetID == "" {
		errs = append(errs, "Google Spreadsheet ID is required when using sheets")
	}
	if c.GoogleSheetName == "" {
		errs = append(errs, "Google Sheet name cannot be empty when using sheets")
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}
	return errs
}

func (c *Config) validateClassifier() []string {
	var errs []string
	switch c.ClassifierProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			errs = append(errs, "GEMINI_API_KEY is required when CLASSIFIER_PROVIDER=gemini")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			errs = append(errs, "OPENAI_API_KEY is required when CLASSIFIER_PROVIDER=openai")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid classifier provider '%s': must be one of %v", c.ClassifierProvider, validClassifiers))
	}
	if c.ClassifierTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("invalid classifier timeout %v: must be positive", c.ClassifierTimeout))
	}
	return errs
}

func joinErrors(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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
