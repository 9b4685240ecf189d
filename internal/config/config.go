package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath   = "casepublisher.yaml"
	configPathEnv       = "CASE_PUBLISHER_CONFIG"
	logLevelEnv         = "LOG_LEVEL"
	libraryBackendEnv   = "LIBRARY_BACKEND"
	extractionKeyEnv    = "EXTRACTION_API_KEY"
	extractionModelEnv  = "EXTRACTION_MODEL"
	mediaTokenEnv       = "MEDIA_API_TOKEN"
	mediaAccountEnv     = "MEDIA_ACCOUNT_ID"
	documentsBucketEnv  = "DOCUMENTS_BUCKET"
	googleCredsEnv      = "GOOGLE_APPLICATION_CREDENTIALS"
	pipelineParallelEnv = "PIPELINE_CONCURRENCY"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Paths      PathsConfig      `yaml:"paths"`
	Library    LibraryConfig    `yaml:"library"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Media      MediaConfig      `yaml:"media"`
	Documents  DocumentsConfig  `yaml:"documents"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// PathsConfig locates the draft tree, the content tree and the two registries.
type PathsConfig struct {
	Drafts     string `yaml:"drafts"`
	Content    string `yaml:"content"`
	ArchiveDir string `yaml:"archiveDir"`
	Library    string `yaml:"library"`
	Vocabulary string `yaml:"vocabulary"`
}

// LibraryConfig chooses the resource library backend.
type LibraryConfig struct {
	Backend    string `yaml:"backend"`
	SQLitePath string `yaml:"sqlitePath"`
}

// ExtractionConfig defines how to contact the metadata extraction model.
type ExtractionConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	SystemPrompt string        `yaml:"systemPrompt"`
	Timeout      time.Duration `yaml:"timeout"`
}

// MediaConfig wires the image/video provider API.
type MediaConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccountID string `yaml:"accountId"`
	APIToken  string `yaml:"apiToken"`
}

// DocumentsConfig describes the object bucket documents are written to.
type DocumentsConfig struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	PublicBaseURL   string `yaml:"publicBaseUrl"`
	CredentialsFile string `yaml:"credentialsFile"`
}

// FetchConfig tunes the document downloader.
type FetchConfig struct {
	UserAgent string        `yaml:"userAgent"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxBytes  int64         `yaml:"maxBytes"`
}

// PipelineConfig tunes a publish run.
type PipelineConfig struct {
	Concurrency   int `yaml:"concurrency"`
	ContextRadius int `yaml:"contextRadius"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	loadEnvFiles()

	path := os.Getenv(configPathEnv)
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// loadEnvFiles loads .env.local then .env; godotenv never overrides variables already set.
func loadEnvFiles() {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			log.Printf("config: cannot load %s: %v", name, err)
		}
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(libraryBackendEnv); v != "" {
		c.Library.Backend = v
	}

	if v := os.Getenv(extractionKeyEnv); v != "" {
		c.Extraction.APIKey = v
	}

	if v := os.Getenv(extractionModelEnv); v != "" {
		c.Extraction.Model = v
	}

	if v := os.Getenv(mediaTokenEnv); v != "" {
		c.Media.APIToken = v
	}

	if v := os.Getenv(mediaAccountEnv); v != "" {
		c.Media.AccountID = v
	}

	if v := os.Getenv(documentsBucketEnv); v != "" {
		c.Documents.Bucket = v
	}

	if v := os.Getenv(googleCredsEnv); v != "" && c.Documents.CredentialsFile == "" {
		c.Documents.CredentialsFile = v
	}

	if v := os.Getenv(pipelineParallelEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Pipeline.Concurrency = n
		} else {
			log.Printf("config: ignoring %s=%q", pipelineParallelEnv, v)
		}
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Paths.Drafts != "" {
		base.Paths.Drafts = override.Paths.Drafts
	}
	if override.Paths.Content != "" {
		base.Paths.Content = override.Paths.Content
	}
	if override.Paths.ArchiveDir != "" {
		base.Paths.ArchiveDir = override.Paths.ArchiveDir
	}
	if override.Paths.Library != "" {
		base.Paths.Library = override.Paths.Library
	}
	if override.Paths.Vocabulary != "" {
		base.Paths.Vocabulary = override.Paths.Vocabulary
	}

	if override.Library.Backend != "" {
		base.Library.Backend = override.Library.Backend
	}
	if override.Library.SQLitePath != "" {
		base.Library.SQLitePath = override.Library.SQLitePath
	}

	if override.Extraction.Endpoint != "" {
		base.Extraction.Endpoint = override.Extraction.Endpoint
	}
	if override.Extraction.Model != "" {
		base.Extraction.Model = override.Extraction.Model
	}
	if override.Extraction.APIKey != "" {
		base.Extraction.APIKey = override.Extraction.APIKey
	}
	if override.Extraction.SystemPrompt != "" {
		base.Extraction.SystemPrompt = override.Extraction.SystemPrompt
	}
	if override.Extraction.Timeout > 0 {
		base.Extraction.Timeout = override.Extraction.Timeout
	}

	if override.Media.Endpoint != "" {
		base.Media.Endpoint = override.Media.Endpoint
	}
	if override.Media.AccountID != "" {
		base.Media.AccountID = override.Media.AccountID
	}
	if override.Media.APIToken != "" {
		base.Media.APIToken = override.Media.APIToken
	}

	if override.Documents.Bucket != "" {
		base.Documents.Bucket = override.Documents.Bucket
	}
	if override.Documents.Prefix != "" {
		base.Documents.Prefix = override.Documents.Prefix
	}
	if override.Documents.PublicBaseURL != "" {
		base.Documents.PublicBaseURL = override.Documents.PublicBaseURL
	}
	if override.Documents.CredentialsFile != "" {
		base.Documents.CredentialsFile = override.Documents.CredentialsFile
	}

	if override.Fetch.UserAgent != "" {
		base.Fetch.UserAgent = override.Fetch.UserAgent
	}
	if override.Fetch.Timeout > 0 {
		base.Fetch.Timeout = override.Fetch.Timeout
	}
	if override.Fetch.MaxBytes > 0 {
		base.Fetch.MaxBytes = override.Fetch.MaxBytes
	}

	if override.Pipeline.Concurrency > 0 {
		base.Pipeline.Concurrency = override.Pipeline.Concurrency
	}
	if override.Pipeline.ContextRadius > 0 {
		base.Pipeline.ContextRadius = override.Pipeline.ContextRadius
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Paths: PathsConfig{
			Drafts:     "drafts",
			Content:    "src/content",
			ArchiveDir: "published",
			Library:    "data/resource-library.json",
			Vocabulary: "data/vocabulary.json",
		},
		Library: LibraryConfig{Backend: BackendJSON, SQLitePath: "data/resource-library.db"},
		Extraction: ExtractionConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
			Timeout:  60 * time.Second,
		},
		Media: MediaConfig{Endpoint: "https://api.cloudflare.com/client/v4"},
		Documents: DocumentsConfig{
			Prefix: "documents",
		},
		Fetch: FetchConfig{
			UserAgent: "CasePublisher/1.0",
			Timeout:   2 * time.Minute,
			MaxBytes:  100 << 20,
		},
		Pipeline: PipelineConfig{Concurrency: 4, ContextRadius: 240},
	}
}
