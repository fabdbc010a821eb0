// Package config loads the docingest configuration from a YAML file,
// overlays environment variables and fills in defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/docingest/ai"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverBadger = "badger"
	DriverMongo  = "mongo"
)

// Config is the root configuration.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Objects    ObjectsConfig    `yaml:"objects"`
	AI         AIConfig         `yaml:"ai"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Ingestion  IngestionConfig  `yaml:"ingestion"`
	Search     SearchConfig     `yaml:"search"`
}

// StorageConfig selects the document database.
type StorageConfig struct {
	Driver              string        `yaml:"driver"`
	Path                string        `yaml:"path"`
	InMemory            bool          `yaml:"in_memory"`
	URI                 string        `yaml:"uri"`
	Database            string        `yaml:"database"`
	DocumentsCollection string        `yaml:"documents_collection"`
	ChunksCollection    string        `yaml:"chunks_collection"`
	ConnectTimeout      time.Duration `yaml:"connect_timeout"`
}

// ObjectsConfig locates the bucket uploads are read from.
type ObjectsConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Bucket       string        `yaml:"bucket"`
	AccessKey    string        `yaml:"access_key"`
	SecretKey    string        `yaml:"secret_key"`
	SessionToken string        `yaml:"session_token"`
	Region       string        `yaml:"region"`
	Secure       bool          `yaml:"secure"`
	PresignTTL   time.Duration `yaml:"presign_ttl"`
	ImagePrefix  string        `yaml:"image_prefix"`
	UploadPrefix string        `yaml:"upload_prefix"`
}

// AIConfig configures the model provider.
type AIConfig struct {
	Provider           string        `yaml:"provider"`
	APIKey             string        `yaml:"api_key"`
	Host               string        `yaml:"host"`
	EmbeddingHost      string        `yaml:"embedding_host"`
	VisionHost         string        `yaml:"vision_host"`
	TranscriptionHost  string        `yaml:"transcription_host"`
	EmbeddingModel     string        `yaml:"embedding_model"`
	VisionModel        string        `yaml:"vision_model"`
	TranscriptionModel string        `yaml:"transcription_model"`
	VisionMaxTokens    int           `yaml:"vision_max_tokens"`
	EmbeddingBatchSize int           `yaml:"embedding_batch_size"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
}

// ExtractionConfig tunes the OCR and transcription fan-out.
type ExtractionConfig struct {
	OCRConcurrency   int           `yaml:"ocr_concurrency"`
	AudioConcurrency int           `yaml:"audio_concurrency"`
	SegmentLength    time.Duration `yaml:"segment_length"`
	ItemTimeout      time.Duration `yaml:"item_timeout"`
	Retries          int           `yaml:"retries"`
	RetryDelay       time.Duration `yaml:"retry_delay"`
	// RateLimit caps vision and transcription calls per second, each
	// separately. Zero means unlimited.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
	DPI       int     `yaml:"dpi"`
	Pdftoppm  string  `yaml:"pdftoppm"`
	FFmpeg    string  `yaml:"ffmpeg"`
	Soffice   string  `yaml:"soffice"`
}

// IngestionConfig tunes the document pipeline.
type IngestionConfig struct {
	Concurrency     int           `yaml:"concurrency"`
	DocumentTimeout time.Duration `yaml:"document_timeout"`
	EmbedRetries    int           `yaml:"embed_retries"`
	EmbedRetryDelay time.Duration `yaml:"embed_retry_delay"`
}

// SearchConfig tunes the searcher.
type SearchConfig struct {
	CacheSize   int `yaml:"cache_size"`
	DefaultTopK int `yaml:"default_top_k"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the YAML file at path, overlays the process environment and
// applies defaults. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("unable to open config file: %w", err)
		}
		defer f.Close()
		if err := decode(f, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg, os.LookupEnv)
	applyDefaults(cfg)
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files (".env" when none
// are named) into the process environment. Missing files are ignored;
// variables already set are kept.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("unable to load %s: %w", f, err)
		}
	}
	return nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("unable to parse config file: %w", err)
	}
	return nil
}

// applyEnv overrides file values with the environment variables the
// deployment sets.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	str(&cfg.Storage.Driver, "DOCINGEST_STORAGE_DRIVER")
	str(&cfg.Storage.Path, "DOCINGEST_STORAGE_PATH")
	str(&cfg.Storage.URI, "MONGO_URI", "MONGODB_URI")
	str(&cfg.Storage.Database, "MONGO_DATABASE")

	str(&cfg.Objects.Endpoint, "S3_ENDPOINT")
	str(&cfg.Objects.Bucket, "S3_BUCKET")
	str(&cfg.Objects.AccessKey, "AWS_ACCESS_KEY_ID")
	str(&cfg.Objects.SecretKey, "AWS_SECRET_ACCESS_KEY")
	str(&cfg.Objects.SessionToken, "AWS_SESSION_TOKEN")
	str(&cfg.Objects.Region, "AWS_REGION", "AWS_DEFAULT_REGION")
	if v, ok := lookup("S3_SECURE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Objects.Secure = b
		}
	}

	str(&cfg.AI.Provider, "DOCINGEST_AI_PROVIDER")
	str(&cfg.AI.Host, "DOCINGEST_AI_HOST")
	switch strings.ToLower(cfg.AI.Provider) {
	case ai.ProviderGemini:
		str(&cfg.AI.APIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	default:
		str(&cfg.AI.APIKey, "OPENAI_API_KEY")
	}
}

func applyDefaults(cfg *Config) {
	s := &cfg.Storage
	if s.Driver == "" {
		s.Driver = DriverBadger
	}
	s.Driver = strings.ToLower(s.Driver)
	if s.Driver == DriverBadger && s.Path == "" && !s.InMemory {
		s.Path = "docingest.db"
	}
	if s.Driver == DriverMongo {
		if s.Database == "" {
			s.Database = "docingest"
		}
		if s.ConnectTimeout == 0 {
			s.ConnectTimeout = 10 * time.Second
		}
	}

	o := &cfg.Objects
	if o.PresignTTL == 0 {
		o.PresignTTL = time.Hour
	}
	if o.ImagePrefix == "" {
		o.ImagePrefix = "images"
	}
	if o.UploadPrefix == "" {
		o.UploadPrefix = "uploads"
	}

	e := &cfg.Extraction
	if e.OCRConcurrency == 0 {
		e.OCRConcurrency = 5
	}
	if e.AudioConcurrency == 0 {
		e.AudioConcurrency = 4
	}
	if e.SegmentLength == 0 {
		e.SegmentLength = 30 * time.Second
	}
	if e.Retries == 0 {
		e.Retries = 1
	}
	if e.RetryDelay == 0 {
		e.RetryDelay = time.Second
	}
	if e.RateLimit > 0 && e.RateBurst == 0 {
		e.RateBurst = 1
	}

	i := &cfg.Ingestion
	if i.Concurrency == 0 {
		i.Concurrency = 2
	}
	if i.EmbedRetries == 0 {
		i.EmbedRetries = 3
	}
	if i.EmbedRetryDelay == 0 {
		i.EmbedRetryDelay = time.Second
	}

	if cfg.Search.CacheSize == 0 {
		cfg.Search.CacheSize = 256
	}
	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = 5
	}
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverBadger:
		if c.Storage.Path == "" && !c.Storage.InMemory {
			return errors.New("config: storage.path is required for badger")
		}
	case DriverMongo:
		if c.Storage.URI == "" {
			return errors.New("config: storage.uri is required for mongo")
		}
	default:
		return fmt.Errorf("config: storage.driver must be one of %s, %s", DriverBadger, DriverMongo)
	}

	if c.Objects.Endpoint == "" {
		return errors.New("config: objects.endpoint is required")
	}
	if c.Objects.Bucket == "" {
		return errors.New("config: objects.bucket is required")
	}

	e := c.Extraction
	if e.OCRConcurrency < 1 || e.AudioConcurrency < 1 {
		return errors.New("config: extraction concurrency must be positive")
	}
	if e.Retries < 1 {
		return errors.New("config: extraction.retries must be positive")
	}
	if e.RateLimit < 0 {
		return errors.New("config: extraction.rate_limit cannot be negative")
	}
	if c.Ingestion.Concurrency < 1 {
		return errors.New("config: ingestion.concurrency must be positive")
	}
	if c.Search.CacheSize < 0 {
		return errors.New("config: search.cache_size cannot be negative")
	}

	return c.AI.Build().Validate()
}

// Build turns the section into an ai.Config on top of the provider's
// defaults. Host sets all three service hosts; the specific hosts win.
func (a AIConfig) Build() *ai.Config {
	var cfg *ai.Config
	if strings.EqualFold(a.Provider, ai.ProviderGemini) {
		cfg = ai.DefaultGeminiConfig()
	} else {
		cfg = ai.DefaultConfig()
	}

	var opts []ai.ConfigOption
	if a.Provider != "" {
		opts = append(opts, ai.WithProvider(a.Provider))
	}
	if a.APIKey != "" {
		opts = append(opts, ai.WithAPIKey(a.APIKey))
	}
	if a.Host != "" {
		opts = append(opts, ai.WithHost(a.Host))
	}
	if a.EmbeddingHost != "" {
		opts = append(opts, ai.WithEmbeddingHost(a.EmbeddingHost))
	}
	if a.VisionHost != "" {
		opts = append(opts, ai.WithVisionHost(a.VisionHost))
	}
	if a.TranscriptionHost != "" {
		opts = append(opts, ai.WithTranscriptionHost(a.TranscriptionHost))
	}
	if a.EmbeddingModel != "" {
		opts = append(opts, ai.WithEmbeddingModel(a.EmbeddingModel))
	}
	if a.VisionModel != "" {
		opts = append(opts, ai.WithVisionModel(a.VisionModel))
	}
	if a.TranscriptionModel != "" {
		opts = append(opts, ai.WithTranscriptionModel(a.TranscriptionModel))
	}
	if a.VisionMaxTokens != 0 {
		opts = append(opts, ai.WithVisionMaxTokens(a.VisionMaxTokens))
	}
	if a.EmbeddingBatchSize != 0 {
		opts = append(opts, ai.WithEmbeddingBatchSize(a.EmbeddingBatchSize))
	}
	if a.RequestTimeout != 0 {
		opts = append(opts, ai.WithRequestTimeout(a.RequestTimeout))
	}

	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
