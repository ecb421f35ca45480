package config

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	// API Settings
	APITitle   string `env:"API_TITLE" envDefault:"Book Recommendation API"`
	APIVersion string `env:"API_VERSION" envDefault:"1.0.0"`
	APIPrefix  string `env:"API_PREFIX" envDefault:"/api"`
	Port       string `env:"PORT" envDefault:"5000"`

	// CORS, as a JSON array or a comma separated list
	CORSOriginsRaw string   `env:"CORS_ORIGINS" envDefault:"*"`
	CORSOrigins    []string

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Corpus backend: "artifacts" or "postgres"
	CorpusBackend string `env:"CORPUS_BACKEND" envDefault:"artifacts"`
	Artifacts     Artifacts
	PostgresURI   string `env:"POSTGRES_URI"`

	Translation Translation
	Ranking     Ranking
	Scorer      Scorer
}

// Artifacts locates the precomputed corpus blobs on the content host.
// Setting Similarity to "none" disables the optional similarity matrix.
type Artifacts struct {
	BaseURL    string        `env:"ARTIFACT_BASE_URL" envDefault:"https://huggingface.co/NalendraMarchelo/Capstone_DBS/resolve/main"`
	Vectorizer string        `env:"ARTIFACT_VECTORIZER" envDefault:"tfidf.json"`
	Features   string        `env:"ARTIFACT_FEATURES" envDefault:"tfidf_matrix.json"`
	Similarity string        `env:"ARTIFACT_SIMILARITY" envDefault:"cosine_sim.json"`
	Metadata   string        `env:"ARTIFACT_METADATA" envDefault:"processed_books.csv"`
	Timeout    time.Duration `env:"ARTIFACT_TIMEOUT" envDefault:"2m"`
}

// Translation configures the query normalizer.
type Translation struct {
	// Provider: "google", "vertex" or "none"
	Provider   string        `env:"TRANSLATION_PROVIDER" envDefault:"google"`
	SourceLang string        `env:"TRANSLATION_SOURCE_LANG" envDefault:"id"`
	TargetLang string        `env:"TRANSLATION_TARGET_LANG" envDefault:"en"`
	Timeout    time.Duration `env:"TRANSLATION_TIMEOUT" envDefault:"5s"`
	RateLimit  float64       `env:"TRANSLATION_RATE_LIMIT" envDefault:"20"`
	Burst      int           `env:"TRANSLATION_BURST" envDefault:"40"`

	GoogleURL string `env:"GOOGLE_TRANSLATE_URL" envDefault:"https://translate.googleapis.com/translate_a/single"`

	// Vertex AI settings (used when Provider = "vertex")
	VertexProjectID string `env:"VERTEX_PROJECT_ID"`
	VertexLocation  string `env:"VERTEX_LOCATION" envDefault:"us-central1"`
	VertexModel     string `env:"VERTEX_TRANSLATION_MODEL" envDefault:"general/translation-llm"`

	// Cache: "memory", "redis" or "none"
	Cache         string        `env:"TRANSLATION_CACHE" envDefault:"memory"`
	CacheTTL      time.Duration `env:"TRANSLATION_CACHE_TTL" envDefault:"24h"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
}

// Ranking holds the result selection constants.
type Ranking struct {
	RelevanceFloor float64 `env:"RELEVANCE_FLOOR" envDefault:"0.1"`
	FallbackSize   int     `env:"FALLBACK_SIZE" envDefault:"5"`
	MaxResults     int     `env:"MAX_RESULTS" envDefault:"12"`
}

// Scorer sizes the worker pool used for the similarity pass.
type Scorer struct {
	PoolSize  int `env:"SCORER_POOL_SIZE" envDefault:"0"`
	ChunkRows int `env:"SCORER_CHUNK_ROWS" envDefault:"4096"`
}

var (
	config *Config
	once   sync.Once
)

// GetConfig returns the singleton configuration instance
func GetConfig() *Config {
	once.Do(func() {
		cfg, err := Load()
		if err != nil {
			log.Fatalf("parse config error: %s", err)
		}
		config = cfg
	})
	return config
}

// Load parses the environment into a fresh Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	cfg.CORSOrigins = parseCORSOrigins(cfg.CORSOriginsRaw)
	return cfg, nil
}

func parseCORSOrigins(value string) []string {
	var origins []string
	if err := json.Unmarshal([]byte(value), &origins); err == nil {
		return origins
	}
	parts := strings.Split(value, ",")
	origins = make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
