// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Matching      MatchingConfig          `mapstructure:"matching"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	ItemIndex  string   `mapstructure:"item_index"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Matching Configuration ---

// MatchingConfig holds every tunable of the scoring and retrieval pipeline.
type MatchingConfig struct {
	Weights    ScoreWeights    `mapstructure:"weights"`
	Lexical    LexicalWeights  `mapstructure:"lexical"`
	Thresholds ScoreThresholds `mapstructure:"thresholds"`
	Retrieval  RetrievalConfig `mapstructure:"retrieval"`
	TFIDF      TFIDFConfig     `mapstructure:"tfidf"`
	Cache      CacheConfig     `mapstructure:"cache"`
}

// ScoreWeights are the per-signal weights of the final composite score.
// They must sum to 1.0.
type ScoreWeights struct {
	Text     float64 `mapstructure:"text"`
	Category float64 `mapstructure:"category"`
	Location float64 `mapstructure:"location"`
	Time     float64 `mapstructure:"time"`
}

// LexicalWeights blend cosine and Jaccard similarity for the per-pair
// lexical text score.
type LexicalWeights struct {
	Cosine  float64 `mapstructure:"cosine"`
	Jaccard float64 `mapstructure:"jaccard"`
}

type ScoreThresholds struct {
	MinScore        float64 `mapstructure:"min_score"`
	NotifyThreshold float64 `mapstructure:"notify_threshold"`
}

type RetrievalConfig struct {
	OverFetchMultiplier int `mapstructure:"over_fetch_multiplier"`
	MaxOverFetch        int `mapstructure:"max_over_fetch"`
	DefaultLimit        int `mapstructure:"default_limit"`
	MaxLimit            int `mapstructure:"max_limit"`
	DefaultWindowDays   int `mapstructure:"default_window_days"`
	MaxWindowDays       int `mapstructure:"max_window_days"`
}

type TFIDFConfig struct {
	VocabularyCap int `mapstructure:"vocabulary_cap"`
}

type CacheConfig struct {
	ItemTTL   int `mapstructure:"item_ttl"`   // seconds
	ResultTTL int `mapstructure:"result_ttl"` // seconds
}

// NotificationConfig holds settings for match notifications.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled           bool   `mapstructure:"enabled"`
		DefaultSenderID   string `mapstructure:"default_sender_id"`
		PriorityThreshold string `mapstructure:"priority_threshold"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
