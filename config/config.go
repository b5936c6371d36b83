package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tieubaoca/query-retrieval/types"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	APIToken      string              `mapstructure:"api_token"`
	AI            AIConfig            `mapstructure:"ai"`
	KnowledgeBase KnowledgeBaseConfig `mapstructure:"knowledge_base"`
	Bootstrap     BootstrapConfig     `mapstructure:"bootstrap"`
	Weaviate      WeaviateStoreConfig `mapstructure:"weaviate"`
	History       HistoryConfig       `mapstructure:"history"`
	Log           LogConfig           `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	CorsEnabled     bool          `mapstructure:"cors_enabled"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type AIConfig struct {
	Provider     string `mapstructure:"provider"`
	Model        string `mapstructure:"model"`
	Endpoint     string `mapstructure:"endpoint"`
	GoogleAPIKey string `mapstructure:"google_api_key"`
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
}

type KnowledgeBaseConfig struct {
	DocumentsDir string `mapstructure:"documents_dir"`
	CacheDir     string `mapstructure:"cache_dir"`
	NResults     int    `mapstructure:"n_results"`
	MaxChunkSize int    `mapstructure:"max_chunk_size"`
	OverlapSize  int    `mapstructure:"overlap_size"`
}

type BootstrapConfig struct {
	FailOnBuildError bool `mapstructure:"fail_on_build_error"`
}

type WeaviateStoreConfig struct {
	Host         string       `mapstructure:"host"`
	APIKey       string       `mapstructure:"api_key"`
	Text2Vec     string       `mapstructure:"text2vec"`
	ModuleConfig ModuleConfig `mapstructure:"module_config"`
}

type ModuleConfig map[string]interface{}

type HistoryConfig struct {
	MongoDBURI string `mapstructure:"mongodb_uri"`
	Database   string `mapstructure:"database"`
}

// Enabled reports whether answered batches should be persisted.
func (h HistoryConfig) Enabled() bool {
	return h.MongoDBURI != ""
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// GoogleAPIKeys splits GOOGLE_API_KEY on commas so several keys can be rotated.
func (a AIConfig) GoogleAPIKeys() []string {
	var keys []string
	for _, k := range strings.Split(a.GoogleAPIKey, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

var envBindings = map[string]string{
	"server.host":                   "SERVER_HOST",
	"server.port":                   "SERVER_PORT",
	"server.cors_enabled":           "SERVER_CORS_ENABLED",
	"server.shutdown_timeout":       "SERVER_SHUTDOWN_TIMEOUT",
	"api_token":                     "API_TOKEN",
	"ai.provider":                   "AI_PROVIDER",
	"ai.model":                      "AI_MODEL",
	"ai.endpoint":                   "AI_ENDPOINT",
	"ai.google_api_key":             "GOOGLE_API_KEY",
	"ai.openai_api_key":             "OPENAI_API_KEY",
	"knowledge_base.documents_dir":  "DOCUMENTS_DIR",
	"knowledge_base.cache_dir":      "CACHE_DIR",
	"knowledge_base.n_results":      "N_RESULTS",
	"bootstrap.fail_on_build_error": "BOOTSTRAP_FAIL_ON_BUILD_ERROR",
	"weaviate.host":                 "WEAVIATE_HOST",
	"weaviate.api_key":              "WEAVIATE_APIKEY",
	"weaviate.text2vec":             "WEAVIATE_TEXT2VEC",
	"history.mongodb_uri":           "MONGODB_URI",
	"history.database":              "HISTORY_DATABASE",
	"log.level":                     "LOG_LEVEL",
	"log.format":                    "LOG_FORMAT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8001")
	v.SetDefault("server.cors_enabled", false)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("ai.provider", ProviderGemini)
	v.SetDefault("ai.model", "gemini-1.0-pro")
	v.SetDefault("ai.endpoint", "https://api.openai.com/v1")
	v.SetDefault("knowledge_base.documents_dir", "Documents")
	v.SetDefault("knowledge_base.cache_dir", "./query_system_cache")
	v.SetDefault("knowledge_base.n_results", types.DefaultNResults)
	v.SetDefault("knowledge_base.max_chunk_size", 1000)
	v.SetDefault("knowledge_base.overlap_size", 100)
	v.SetDefault("bootstrap.fail_on_build_error", true)
	v.SetDefault("weaviate.host", "http://localhost:8080")
	v.SetDefault("weaviate.text2vec", "text2vec-transformers")
	v.SetDefault("history.database", "query_system")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// LoadConfig reads configPath (if not empty) and the environment.
// Environment variables always win over the file.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("error binding env %s: %w", env, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// Validate reports missing settings the process cannot start without.
func (c *Config) Validate() error {
	if c.APIToken == "" {
		return types.NewConfigurationError("API_TOKEN not found in environment variables")
	}
	switch c.AI.Provider {
	case ProviderGemini:
		if len(c.AI.GoogleAPIKeys()) == 0 {
			return types.NewConfigurationError("GOOGLE_API_KEY not found in environment variables")
		}
	case ProviderOpenAI:
		if c.AI.OpenAIAPIKey == "" {
			return types.NewConfigurationError("OPENAI_API_KEY not found in environment variables")
		}
	default:
		return types.NewConfigurationError("unsupported ai provider %q", c.AI.Provider)
	}
	if c.KnowledgeBase.NResults <= 0 {
		return types.NewConfigurationError("knowledge_base.n_results must be positive")
	}
	if c.KnowledgeBase.MaxChunkSize <= 0 || c.KnowledgeBase.OverlapSize < 0 ||
		c.KnowledgeBase.OverlapSize >= c.KnowledgeBase.MaxChunkSize {
		return types.NewConfigurationError("invalid chunk sizes: max_chunk_size=%d overlap_size=%d",
			c.KnowledgeBase.MaxChunkSize, c.KnowledgeBase.OverlapSize)
	}
	return nil
}
