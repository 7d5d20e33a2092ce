// Package config defines the configuration tree of the review pipeline. No I/O
// lives in this file, only data types and validation.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Model services
// ─────────────────────────────────────────────────────────────────────────────

// LLMConfig configures the text-generation client.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // "ark" | "openai" | "gemini"
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	// ProbeOnStart sends a connectivity prompt when the pipeline is built.
	ProbeOnStart bool `mapstructure:"probe_on_start"`
}

// EmbeddingConfig configures the OpenAI-compatible embedding endpoint.
// Empty APIKey and BaseURL inherit from the llm section.
type EmbeddingConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	BatchSize int           `mapstructure:"batch_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// ClassifierConfig configures the sentence classifier service.
type ClassifierConfig struct {
	Transport string        `mapstructure:"transport"` // "grpc" | "http"
	Endpoint  string        `mapstructure:"endpoint"`
	Timeout   time.Duration `mapstructure:"timeout"`
	// HealthCheck makes Load fail when the service does not report SERVING.
	HealthCheck bool `mapstructure:"health_check"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Pipeline stages
// ─────────────────────────────────────────────────────────────────────────────

type StructurizerConfig struct {
	LongChapterWarnThreshold int    `mapstructure:"long_chapter_warn_threshold"`
	InputDir                 string `mapstructure:"input_dir"`
}

type ChunkStoreConfig struct {
	Path string `mapstructure:"path"`
}

type BM25Config struct {
	Backend          string  `mapstructure:"backend"` // "memory" | "opensearch"
	K1               float64 `mapstructure:"k1"`
	B                float64 `mapstructure:"b"`
	Epsilon          float64 `mapstructure:"epsilon"`
	ChapterK1        float64 `mapstructure:"chapter_k1"`
	ChapterB         float64 `mapstructure:"chapter_b"`
	ChapterThreshold float64 `mapstructure:"chapter_threshold"`
	TopK             int     `mapstructure:"top_k"`
}

type MilvusConfig struct {
	Address    string `mapstructure:"address"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	DBName     string `mapstructure:"db_name"`
	Collection string `mapstructure:"collection"`
	ShardNum   int32  `mapstructure:"shard_num"`
}

type VectorConfig struct {
	Backend       string `mapstructure:"backend"` // "flat" | "milvus"
	PersistDir    string `mapstructure:"persist_dir"`
	ForceRecreate bool   `mapstructure:"force_recreate"`
	// BuildLock serializes index rebuilds across processes through Redis.
	BuildLock bool         `mapstructure:"build_lock"`
	Milvus    MilvusConfig `mapstructure:"milvus"`
}

type RetrievalConfig struct {
	CandidateSize int     `mapstructure:"candidate_size"`
	FinalK        int     `mapstructure:"final_k"`
	VectorWeight  float64 `mapstructure:"vector_weight"`
	BM25Weight    float64 `mapstructure:"bm25_weight"`
	// ChapterFilterFromHints turns intent chapter hints into a chapter filter.
	ChapterFilterFromHints bool `mapstructure:"chapter_filter_from_hints"`
}

type IntentConfig struct {
	CacheEnabled bool          `mapstructure:"cache_enabled"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

type AnalyzerConfig struct {
	ClassifierThreshold     float64 `mapstructure:"classifier_threshold"`
	IncludeNoViolationLabel bool    `mapstructure:"include_no_violation_label"`
	MinSentenceRunes        int     `mapstructure:"min_sentence_runes"`
	JudgeCandidateSize      int     `mapstructure:"judge_candidate_size"`
	JudgeFinalK             int     `mapstructure:"judge_final_k"`
}

type SinkConfig struct {
	OutputDir       string `mapstructure:"output_dir"`
	UploadArtifacts bool   `mapstructure:"upload_artifacts"`
	PublishEvents   bool   `mapstructure:"publish_events"`
	PersistFindings bool   `mapstructure:"persist_findings"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Infrastructure
// ─────────────────────────────────────────────────────────────────────────────

type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

type PostgresConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	DBName        string `mapstructure:"db_name"`
	SSLMode       string `mapstructure:"ssl_mode"`
	MaxConns      int32  `mapstructure:"max_conns"`
	// MigrationPath is a directory overriding the embedded migrations.
	MigrationPath string `mapstructure:"migration_path"`
}

// DSN renders the connection string understood by pgx and golang-migrate.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:     "/" + p.DBName,
		RawQuery: "sslmode=" + p.SSLMode,
	}
	return u.String()
}

type KafkaConfig struct {
	Brokers        []string `mapstructure:"brokers"`
	GroupID        string   `mapstructure:"group_id"`
	RequestTopic   string   `mapstructure:"request_topic"`
	CompletedTopic string   `mapstructure:"completed_topic"`
}

type MinIOConfig struct {
	Endpoint     string `mapstructure:"endpoint"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	UseSSL       bool   `mapstructure:"use_ssl"`
	Region       string `mapstructure:"region"`
	ChunkBucket  string `mapstructure:"chunk_bucket"`
	ReportBucket string `mapstructure:"report_bucket"`
}

type OpenSearchConfig struct {
	Addresses          []string `mapstructure:"addresses"`
	Username           string   `mapstructure:"username"`
	Password           string   `mapstructure:"password"`
	Index              string   `mapstructure:"index"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	// MirrorChunks indexes the chunk store into OpenSearch on every build.
	MirrorChunks bool `mapstructure:"mirror_chunks"`
}

type MetricsConfig struct {
	Namespace       string `mapstructure:"namespace"`
	EnableGoMetrics bool   `mapstructure:"enable_go_metrics"`
}

// ServerConfig is the worker's operational HTTP listener.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // gin mode: "debug" | "release" | "test"
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// WorkerConfig controls how review requests are consumed. A request that
// still fails after MaxRetries redeliveries goes to DeadLetterTopic.
type WorkerConfig struct {
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	HandlerTimeout  time.Duration `mapstructure:"handler_timeout"`
	DeadLetterTopic string        `mapstructure:"dead_letter_topic"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root
// ─────────────────────────────────────────────────────────────────────────────

type Config struct {
	Log          logging.LogConfig  `mapstructure:"log"`
	LLM          LLMConfig          `mapstructure:"llm"`
	Embedding    EmbeddingConfig    `mapstructure:"embedding"`
	Classifier   ClassifierConfig   `mapstructure:"classifier"`
	Structurizer StructurizerConfig `mapstructure:"structurizer"`
	ChunkStore   ChunkStoreConfig   `mapstructure:"chunk_store"`
	BM25         BM25Config         `mapstructure:"bm25"`
	Vector       VectorConfig       `mapstructure:"vector"`
	Retrieval    RetrievalConfig    `mapstructure:"retrieval"`
	Intent       IntentConfig       `mapstructure:"intent"`
	Analyzer     AnalyzerConfig     `mapstructure:"analyzer"`
	Sink         SinkConfig         `mapstructure:"sink"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Postgres     PostgresConfig     `mapstructure:"postgres"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	MinIO        MinIOConfig        `mapstructure:"minio"`
	OpenSearch   OpenSearchConfig   `mapstructure:"opensearch"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Server       ServerConfig       `mapstructure:"server"`
	Worker       WorkerConfig       `mapstructure:"worker"`
}

// Validate checks semantic constraints on a defaulted Config and returns the
// first violation.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderArk, ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("config: llm.provider %q is invalid; expected ark|openai|gemini", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("config: llm.model is required")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("config: llm.timeout must be positive")
	}

	switch c.Classifier.Transport {
	case "grpc", "http":
	default:
		return fmt.Errorf("config: classifier.transport %q is invalid; expected grpc|http", c.Classifier.Transport)
	}
	if c.Classifier.Endpoint == "" {
		return fmt.Errorf("config: classifier.endpoint is required")
	}

	if c.Structurizer.LongChapterWarnThreshold < 1 {
		return fmt.Errorf("config: structurizer.long_chapter_warn_threshold must be ≥ 1")
	}

	switch c.BM25.Backend {
	case "memory", "opensearch":
	default:
		return fmt.Errorf("config: bm25.backend %q is invalid; expected memory|opensearch", c.BM25.Backend)
	}
	if c.BM25.K1 <= 0 || c.BM25.ChapterK1 <= 0 {
		return fmt.Errorf("config: bm25 k1 values must be positive")
	}
	if c.BM25.B < 0 || c.BM25.B > 1 || c.BM25.ChapterB < 0 || c.BM25.ChapterB > 1 {
		return fmt.Errorf("config: bm25 b values must lie in [0, 1]")
	}
	if c.BM25.Backend == "opensearch" && len(c.OpenSearch.Addresses) == 0 {
		return fmt.Errorf("config: opensearch.addresses is required when bm25.backend is opensearch")
	}

	switch c.Vector.Backend {
	case "flat":
	case "milvus":
		if c.Vector.Milvus.Address == "" {
			return fmt.Errorf("config: vector.milvus.address is required when vector.backend is milvus")
		}
	default:
		return fmt.Errorf("config: vector.backend %q is invalid; expected flat|milvus", c.Vector.Backend)
	}

	r := c.Retrieval
	if r.CandidateSize < 1 || r.FinalK < 1 {
		return fmt.Errorf("config: retrieval.candidate_size and retrieval.final_k must be ≥ 1")
	}
	if r.VectorWeight < 0 || r.BM25Weight < 0 || r.VectorWeight+r.BM25Weight == 0 {
		return fmt.Errorf("config: retrieval weights must be non-negative with a positive sum")
	}

	if c.Analyzer.ClassifierThreshold < 0 || c.Analyzer.ClassifierThreshold > 1 {
		return fmt.Errorf("config: analyzer.classifier_threshold must lie in [0, 1]")
	}

	if c.Sink.PublishEvents && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers is required when sink.publish_events is set")
	}
	if c.Sink.UploadArtifacts && c.MinIO.Endpoint == "" {
		return fmt.Errorf("config: minio.endpoint is required when sink.upload_artifacts is set")
	}
	if c.Sink.PersistFindings && c.Postgres.Host == "" {
		return fmt.Errorf("config: postgres.host is required when sink.persist_findings is set")
	}
	if c.Intent.CacheEnabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when intent.cache_enabled is set")
	}
	if c.Vector.BuildLock && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when vector.build_lock is set")
	}

	if c.Worker.MaxRetries < 0 {
		return fmt.Errorf("config: worker.max_retries must be >= 0, got %d", c.Worker.MaxRetries)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}

	switch c.Log.Level {
	case logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError:
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

//Personal.AI order the ending
