package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo holds basic application metadata.
type AppInfo struct {
	Name        string `yaml:"name"`        // application name
	Version     string `yaml:"version"`     // application version
	Environment string `yaml:"environment"` // "development" or "production"
}

// LoggerConfig controls the structured logger.
type LoggerConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// ProviderConfig holds the credentials and model name for one remote
// provider (embedding or chat). APIKey may be empty, in which case the
// embedding factory falls back to the local provider.
type ProviderConfig struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseURL,omitempty"`
}

// EmbeddingConfig selects and configures the embedding provider family.
type EmbeddingConfig struct {
	Provider string         `yaml:"provider"` // "openai", "gemini", "ollama", "local"
	OpenAI   ProviderConfig `yaml:"openai"`
	Gemini   ProviderConfig `yaml:"gemini"`
	Ollama   ProviderConfig `yaml:"ollama"`
}

// LLMConfig selects and configures the chat-completion provider used for
// tree reasoning and answer synthesis.
type LLMConfig struct {
	Provider string         `yaml:"provider"` // "openai", "ollama"
	OpenAI   ProviderConfig `yaml:"openai"`
	Ollama   ProviderConfig `yaml:"ollama"`
}

// StructIndexConfig points at the structural-indexing collaborator that
// builds outline trees for hierarchical retrieval. Optional: when BaseURL
// is empty, hierarchical queries report the tree as not found.
type StructIndexConfig struct {
	BaseURL string `yaml:"baseURL"`
}

// MySQLConfig holds the relational store connection settings.
type MySQLConfig struct {
	Address         string `yaml:"address"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // seconds
}

// RedisConfig holds the tree/readiness cache connection settings.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      int    `yaml:"ttl"` // cache entry lifetime in seconds, 0 = 1h default
}

// MinIOConfig holds the page-image object store settings. Optional: when
// Endpoint is empty, hierarchical answers fall back to node summaries.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Secure    bool   `yaml:"secure"`
}

// MilvusConfig holds the optional ANN index settings. When Address is empty
// the flat retriever scores fragments in-process.
type MilvusConfig struct {
	Address    string `yaml:"address"`
	Collection string `yaml:"collection"`
}

// DatabaseConfigs groups every backing store.
type DatabaseConfigs struct {
	MySQL  MySQLConfig  `yaml:"mysql"`
	Redis  RedisConfig  `yaml:"redis"`
	MinIO  MinIOConfig  `yaml:"minio"`
	Milvus MilvusConfig `yaml:"milvus"`
}

// RetrievalConfig holds the chunking and ranking defaults.
type RetrievalConfig struct {
	ChunkSize    int `yaml:"chunkSize"`    // default 1000
	ChunkOverlap int `yaml:"chunkOverlap"` // default 200
	TopK         int `yaml:"topK"`         // default 5
	EmbedWorkers int `yaml:"embedWorkers"` // bounded concurrency for batch embedding, default 4
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App         AppInfo           `yaml:"app"`
	Logger      LoggerConfig      `yaml:"logger"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	LLM         LLMConfig         `yaml:"llm"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	StructIndex StructIndexConfig `yaml:"structIndex"`
	Databases   DatabaseConfigs   `yaml:"databases"`
}

// LoadConfig reads and parses the YAML configuration file at path.
func LoadConfig(path string) (*AppConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Retrieval.ChunkSize == 0 {
		c.Retrieval.ChunkSize = 1000
	}
	if c.Retrieval.ChunkOverlap == 0 {
		c.Retrieval.ChunkOverlap = 200
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 5
	}
	if c.Retrieval.EmbedWorkers == 0 {
		c.Retrieval.EmbedWorkers = 4
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
}

// IsProduction reports whether upstream error detail should be withheld
// from API responses.
func (c *AppConfig) IsProduction() bool {
	return c.App.Environment == "production"
}
