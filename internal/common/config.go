package common

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Invoices InvoicesConfig `mapstructure:"invoices"`
	LLM      LLMConfig      `mapstructure:"llm"`
	OCR      OCRConfig      `mapstructure:"ocr"`
	Sink     SinkConfig     `mapstructure:"sink"`
	Server   ServerConfig   `mapstructure:"server"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Log      LogConfig      `mapstructure:"log"`
}

// InvoicesConfig holds discovery configuration
type InvoicesConfig struct {
	Dir string `mapstructure:"dir"`
}

// LLMConfig holds language-model service configuration
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // ollama | openai
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	NumCtx      int           `mapstructure:"num_ctx"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"` // 0 = transport default
	RatePerSec  float64       `mapstructure:"rate_per_sec"`
}

// OCRConfig holds text extraction backend configuration
type OCRConfig struct {
	PDFBackend  string `mapstructure:"pdf_backend"` // native | pdftotext
	Pdftotext   string `mapstructure:"pdftotext"`
	Tesseract   string `mapstructure:"tesseract"`
	Lang        string `mapstructure:"lang"`
	TessdataDir string `mapstructure:"tessdata_dir"`
	PSM         int    `mapstructure:"psm"`
	OEM         int    `mapstructure:"oem"`
}

// SinkConfig holds output router configuration
type SinkConfig struct {
	ApprovedKind string `mapstructure:"approved_kind"` // csv | xlsx | sqlite | postgres
	ApprovedPath string `mapstructure:"approved_path"`
	ReviewPath   string `mapstructure:"review_path"`
	DSN          string `mapstructure:"dsn"`
}

// ServerConfig holds the watch-mode listeners
type ServerConfig struct {
	HealthAddr  string `mapstructure:"health_addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// WatchConfig holds watch-mode behavior
type WatchConfig struct {
	Debounce    time.Duration `mapstructure:"debounce"`
	InitialScan bool          `mapstructure:"initial_scan"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text | json
}

// EnvPrefix is prepended to every environment override, e.g. INVOICE_LLM_MODEL.
const EnvPrefix = "INVOICE"

// LoadConfig reads defaults, then the optional config file, then environment overrides.
// An empty path searches for invoice-gate.yaml in . and ./config; a missing file is fine.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("invoice-gate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("invoices.dir", "invoices")

	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.base_url", "http://localhost:11434")
	v.SetDefault("llm.model", "llama3")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.num_ctx", 4096)
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.timeout", time.Duration(0))
	v.SetDefault("llm.rate_per_sec", 0.0)

	v.SetDefault("ocr.pdf_backend", "native")
	v.SetDefault("ocr.pdftotext", "pdftotext")
	v.SetDefault("ocr.tesseract", "tesseract")
	v.SetDefault("ocr.lang", "eng")
	v.SetDefault("ocr.tessdata_dir", "")
	v.SetDefault("ocr.psm", 0)
	v.SetDefault("ocr.oem", 0)

	v.SetDefault("sink.approved_kind", "csv")
	v.SetDefault("sink.approved_path", "approved_invoices.csv")
	v.SetDefault("sink.review_path", "review_log.txt")
	v.SetDefault("sink.dsn", "")

	v.SetDefault("server.health_addr", ":8081")
	v.SetDefault("server.metrics_addr", ":9090")

	v.SetDefault("watch.debounce", 2*time.Second)
	v.SetDefault("watch.initial_scan", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("invoices.dir", c.Invoices.Dir, Required)
	v.Field("llm.provider", c.LLM.Provider, Required, OneOf("ollama", "openai"))
	v.Field("llm.model", c.LLM.Model, Required)
	v.Field("llm.num_ctx", c.LLM.NumCtx, NonNegative)
	v.Field("llm.rate_per_sec", c.LLM.RatePerSec, NonNegative)
	v.Field("ocr.pdf_backend", c.OCR.PDFBackend, OneOf("native", "pdftotext"))
	v.Field("sink.approved_kind", c.Sink.ApprovedKind, OneOf("csv", "xlsx", "sqlite", "postgres"))
	v.Field("sink.review_path", c.Sink.ReviewPath, Required)
	if strings.EqualFold(c.Sink.ApprovedKind, "postgres") {
		v.Field("sink.dsn", c.Sink.DSN, Required)
	} else {
		v.Field("sink.approved_path", c.Sink.ApprovedPath, Required)
	}
	v.Field("log.format", c.Log.Format, OneOf("text", "json"))
	return v.Error()
}
