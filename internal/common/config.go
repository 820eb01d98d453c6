package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/docs-extractor/constants"
)

// Config holds all application configuration
type Config struct {
	Batch    BatchConfig  `yaml:"batch"`
	Tables   TablesConfig `yaml:"tables"`
	OCR      OCRConfig    `yaml:"ocr"`
	LLM      LLMConfig    `yaml:"llm"`
	LogLevel string       `yaml:"log_level"`
}

// BatchConfig holds batch orchestration configuration
type BatchConfig struct {
	InputDir        string        `yaml:"input_dir"`
	OutputDir       string        `yaml:"output_dir"`
	Workers         int           `yaml:"workers"`
	DocumentTimeout time.Duration `yaml:"document_timeout"`
	SkipHidden      bool          `yaml:"skip_hidden"`
}

// TablesConfig holds table classification configuration.
// Profiles adds or overrides keyword sets by statement type name; StatementTypes is the
// ordered list of types requested for every document.
type TablesConfig struct {
	EmptyThreshold float64             `yaml:"empty_threshold"`
	StatementTypes []string            `yaml:"statement_types"`
	Profiles       map[string][]string `yaml:"profiles"`
	MinColumns     int                 `yaml:"min_columns"`
	MinRows        int                 `yaml:"min_rows"`
}

// OCRConfig holds the external text/OCR tool configuration
type OCRConfig struct {
	Pdftotext     string        `yaml:"pdftotext"`
	Pdftoppm      string        `yaml:"pdftoppm"`
	Tesseract     string        `yaml:"tesseract"`
	TesseractLang string        `yaml:"tesseract_lang"`
	TessdataDir   string        `yaml:"tessdata_dir"`
	DPI           int           `yaml:"dpi"`
	EnableOCR     bool          `yaml:"enable_ocr"`
	ToolTimeout   time.Duration `yaml:"tool_timeout"`
}

// LLMConfig holds summarization/NER collaborator configuration
type LLMConfig struct {
	Model         string        `yaml:"model"`
	APIKey        string        `yaml:"-"`
	BaseURL       string        `yaml:"base_url"`
	Temperature   float32       `yaml:"temperature"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxInputChars int           `yaml:"max_input_chars"`
}

// LoadConfig loads configuration from environment variables (and a .env file when present)
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}

	return &Config{
		Batch: BatchConfig{
			InputDir:        getEnv("DOCX_INPUT_DIR", "./input"),
			OutputDir:       getEnv("DOCX_OUTPUT_DIR", "./output"),
			Workers:         getEnvAsInt("WORKERS", runtime.NumCPU()),
			DocumentTimeout: getEnvAsDuration("DOCUMENT_TIMEOUT", 10*time.Minute),
			SkipHidden:      getEnvAsBool("SKIP_HIDDEN", false),
		},
		Tables: TablesConfig{
			EmptyThreshold: getEnvAsFloat64("EMPTY_THRESHOLD", 0.5),
			StatementTypes: constants.AsStringSlice(),
			MinColumns:     getEnvAsInt("TABLE_MIN_COLUMNS", 2),
			MinRows:        getEnvAsInt("TABLE_MIN_ROWS", 2),
		},
		OCR: OCRConfig{
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			EnableOCR:     getEnvAsBool("ENABLE_OCR", true),
			ToolTimeout:   getEnvAsDuration("OCR_TOOL_TIMEOUT", 2*time.Minute),
		},
		LLM: LLMConfig{
			Model:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:        getEnv("OPENAI_API_KEY", ""),
			BaseURL:       getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature:   getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:       getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
			MaxInputChars: getEnvAsInt("LLM_MAX_INPUT_CHARS", 2048),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// LoadConfigFile layers a YAML file over the environment configuration.
func LoadConfigFile(path string) (*Config, error) {
	cfg := LoadConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Keywords merges the built-in keyword profiles with the configured ones.
// A configured profile replaces the built-in set for the same type.
func (c TablesConfig) Keywords() map[constants.StatementType][]string {
	out := make(map[constants.StatementType][]string, len(constants.DefaultKeywords)+len(c.Profiles))
	for st, kws := range constants.DefaultKeywords {
		out[st] = append([]string(nil), kws...)
	}
	for name, kws := range c.Profiles {
		st, _ := constants.Canonicalize(name)
		out[st] = append([]string(nil), kws...)
	}
	return out
}

// Types returns the requested statement types, canonicalized, in configured order.
func (c TablesConfig) Types() []constants.StatementType {
	out := make([]constants.StatementType, 0, len(c.StatementTypes))
	seen := make(map[constants.StatementType]struct{}, len(c.StatementTypes))
	for _, name := range c.StatementTypes {
		st, _ := constants.Canonicalize(name)
		if _, dup := seen[st]; dup || st == "" {
			continue
		}
		seen[st] = struct{}{}
		out = append(out, st)
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("batch.input_dir", c.Batch.InputDir, Required)
	v.Field("batch.output_dir", c.Batch.OutputDir, Required)
	v.Field("batch.workers", c.Batch.Workers, Positive)
	v.Field("tables.empty_threshold", c.Tables.EmptyThreshold, Ratio)
	v.Field("tables.statement_types", c.Tables.StatementTypes, NonEmptyList)

	keywords := c.Tables.Keywords()
	for _, st := range c.Tables.Types() {
		v.Field("tables.profiles."+string(st), keywords[st], NonEmptyList)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		v.Field("log_level", c.LogLevel, func(field string, value interface{}) *ValidationError {
			return &ValidationError{Field: field, Value: value, Message: "must be one of debug, info, warn, error"}
		})
	}

	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
