package config

import (
	"os"
	"time"
)

const (
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

const (
	DefaultLLMProvider = ProviderArk
	DefaultArkBaseURL  = "https://ark.cn-beijing.volces.com/api/v3"
	DefaultLLMModel    = "doubao-seed-1.6-250615"
	DefaultLLMTimeout  = 1800 * time.Second
	DefaultTemperature = 0.1
	ArkAPIKeyEnv       = "ARK_API_KEY"

	DefaultEmbeddingModel     = "doubao-embedding-text-240715"
	DefaultEmbeddingBatchSize = 16
	DefaultEmbeddingTimeout   = 60 * time.Second

	DefaultClassifierTransport = "grpc"
	DefaultClassifierEndpoint  = "localhost:50051"
	DefaultClassifierTimeout   = 10 * time.Second

	DefaultLongChapterWarnThreshold = 3000
	DefaultChunkStorePath           = "structured_min_chunks_output.json"

	DefaultBM25Backend          = "memory"
	DefaultBM25K1               = 1.5
	DefaultBM25B                = 0.75
	DefaultBM25Epsilon          = 0.25
	DefaultChapterK1            = 1.2
	DefaultChapterB             = 0.4
	DefaultChapterBM25Threshold = 0.7
	DefaultBM25TopK             = 50

	DefaultVectorBackend    = "flat"
	DefaultVectorPersistDir = "vectorstore"
	DefaultMilvusAddress    = "localhost:19530"
	DefaultMilvusCollection = "fairreview_chunks"
	DefaultMilvusShardNum   = 1

	DefaultCandidateSize = 20
	DefaultFinalK        = 10
	DefaultVectorWeight  = 0.5
	DefaultBM25Weight    = 0.5

	DefaultIntentCacheTTL = 24 * time.Hour

	DefaultClassifierThreshold = 0.05
	DefaultMinSentenceRunes    = 5
	DefaultJudgeCandidateSize  = 20
	DefaultJudgeFinalK         = 5

	DefaultSinkOutputDir = "violation_results"

	DefaultRedisAddr        = "localhost:6379"
	DefaultRedisPoolSize    = 10
	DefaultRedisDialTimeout = 5 * time.Second
	DefaultRedisRWTimeout   = 3 * time.Second
	DefaultRedisKeyPrefix   = "fairreview:"

	DefaultPostgresHost     = "localhost"
	DefaultPostgresPort     = 5432
	DefaultPostgresDB       = "fairreview"
	DefaultPostgresSSLMode  = "disable"
	DefaultPostgresMaxConns = 10

	DefaultKafkaBroker    = "localhost:9092"
	DefaultKafkaGroupID   = "fairreview-worker"
	DefaultRequestTopic   = "review.requested"
	DefaultCompletedTopic = "review.completed"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIORegion   = "us-east-1"
	DefaultChunkBucket   = "fairreview-chunks"
	DefaultReportBucket  = "fairreview-reports"

	DefaultOpenSearchAddress = "http://localhost:9200"
	DefaultOpenSearchIndex   = "fairreview-chunks"

	DefaultMetricsNamespace = "fairreview"
	DefaultServerPort       = 8081
	DefaultServerMode       = "release"
	DefaultShutdownTimeout  = 15 * time.Second
	DefaultWorkerMaxRetries = 3
	DefaultRetryBackoff     = time.Second
	DefaultHandlerTimeout   = 5 * time.Minute
	DefaultDeadLetterTopic  = "review.dead_letter"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
)

// ApplyDefaults fills every zero-value field in cfg. Explicit values win.
// When llm.api_key is empty it is read from ARK_API_KEY.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── LLM ───────────────────────────────────────────────────────────────────
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = DefaultLLMProvider
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv(ArkAPIKeyEnv)
	}
	if cfg.LLM.BaseURL == "" && cfg.LLM.Provider == ProviderArk {
		cfg.LLM.BaseURL = DefaultArkBaseURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultLLMModel
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = DefaultLLMTimeout
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = DefaultTemperature
	}

	// ── Embedding ─────────────────────────────────────────────────────────────
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = cfg.LLM.APIKey
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = cfg.LLM.BaseURL
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = DefaultEmbeddingModel
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = DefaultEmbeddingBatchSize
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = DefaultEmbeddingTimeout
	}

	// ── Classifier ────────────────────────────────────────────────────────────
	if cfg.Classifier.Transport == "" {
		cfg.Classifier.Transport = DefaultClassifierTransport
	}
	if cfg.Classifier.Endpoint == "" {
		cfg.Classifier.Endpoint = DefaultClassifierEndpoint
	}
	if cfg.Classifier.Timeout == 0 {
		cfg.Classifier.Timeout = DefaultClassifierTimeout
	}

	// ── Structurizer / chunk store ────────────────────────────────────────────
	if cfg.Structurizer.LongChapterWarnThreshold == 0 {
		cfg.Structurizer.LongChapterWarnThreshold = DefaultLongChapterWarnThreshold
	}
	if cfg.ChunkStore.Path == "" {
		cfg.ChunkStore.Path = DefaultChunkStorePath
	}

	// ── BM25 ──────────────────────────────────────────────────────────────────
	if cfg.BM25.Backend == "" {
		cfg.BM25.Backend = DefaultBM25Backend
	}
	if cfg.BM25.K1 == 0 {
		cfg.BM25.K1 = DefaultBM25K1
	}
	if cfg.BM25.B == 0 {
		cfg.BM25.B = DefaultBM25B
	}
	if cfg.BM25.Epsilon == 0 {
		cfg.BM25.Epsilon = DefaultBM25Epsilon
	}
	if cfg.BM25.ChapterK1 == 0 {
		cfg.BM25.ChapterK1 = DefaultChapterK1
	}
	if cfg.BM25.ChapterB == 0 {
		cfg.BM25.ChapterB = DefaultChapterB
	}
	if cfg.BM25.ChapterThreshold == 0 {
		cfg.BM25.ChapterThreshold = DefaultChapterBM25Threshold
	}
	if cfg.BM25.TopK == 0 {
		cfg.BM25.TopK = DefaultBM25TopK
	}

	// ── Vector ────────────────────────────────────────────────────────────────
	if cfg.Vector.Backend == "" {
		cfg.Vector.Backend = DefaultVectorBackend
	}
	if cfg.Vector.PersistDir == "" {
		cfg.Vector.PersistDir = DefaultVectorPersistDir
	}
	if cfg.Vector.Milvus.Address == "" {
		cfg.Vector.Milvus.Address = DefaultMilvusAddress
	}
	if cfg.Vector.Milvus.Collection == "" {
		cfg.Vector.Milvus.Collection = DefaultMilvusCollection
	}
	if cfg.Vector.Milvus.ShardNum == 0 {
		cfg.Vector.Milvus.ShardNum = DefaultMilvusShardNum
	}

	// ── Retrieval / intent / analyzer ─────────────────────────────────────────
	if cfg.Retrieval.CandidateSize == 0 {
		cfg.Retrieval.CandidateSize = DefaultCandidateSize
	}
	if cfg.Retrieval.FinalK == 0 {
		cfg.Retrieval.FinalK = DefaultFinalK
	}
	if cfg.Retrieval.VectorWeight == 0 && cfg.Retrieval.BM25Weight == 0 {
		cfg.Retrieval.VectorWeight = DefaultVectorWeight
		cfg.Retrieval.BM25Weight = DefaultBM25Weight
	}
	if cfg.Intent.CacheTTL == 0 {
		cfg.Intent.CacheTTL = DefaultIntentCacheTTL
	}
	if cfg.Analyzer.ClassifierThreshold == 0 {
		cfg.Analyzer.ClassifierThreshold = DefaultClassifierThreshold
	}
	if cfg.Analyzer.MinSentenceRunes == 0 {
		cfg.Analyzer.MinSentenceRunes = DefaultMinSentenceRunes
	}
	if cfg.Analyzer.JudgeCandidateSize == 0 {
		cfg.Analyzer.JudgeCandidateSize = DefaultJudgeCandidateSize
	}
	if cfg.Analyzer.JudgeFinalK == 0 {
		cfg.Analyzer.JudgeFinalK = DefaultJudgeFinalK
	}
	if cfg.Sink.OutputDir == "" {
		cfg.Sink.OutputDir = DefaultSinkOutputDir
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = DefaultRedisDialTimeout
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = DefaultRedisRWTimeout
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = DefaultRedisRWTimeout
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── Postgres ──────────────────────────────────────────────────────────────
	if cfg.Postgres.Host == "" {
		cfg.Postgres.Host = DefaultPostgresHost
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = DefaultPostgresPort
	}
	if cfg.Postgres.DBName == "" {
		cfg.Postgres.DBName = DefaultPostgresDB
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = DefaultPostgresSSLMode
	}
	if cfg.Postgres.MaxConns == 0 {
		cfg.Postgres.MaxConns = DefaultPostgresMaxConns
	}

	// ── Kafka / MinIO / OpenSearch ────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.RequestTopic == "" {
		cfg.Kafka.RequestTopic = DefaultRequestTopic
	}
	if cfg.Kafka.CompletedTopic == "" {
		cfg.Kafka.CompletedTopic = DefaultCompletedTopic
	}
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Region == "" {
		cfg.MinIO.Region = DefaultMinIORegion
	}
	if cfg.MinIO.ChunkBucket == "" {
		cfg.MinIO.ChunkBucket = DefaultChunkBucket
	}
	if cfg.MinIO.ReportBucket == "" {
		cfg.MinIO.ReportBucket = DefaultReportBucket
	}
	if len(cfg.OpenSearch.Addresses) == 0 {
		cfg.OpenSearch.Addresses = []string{DefaultOpenSearchAddress}
	}
	if cfg.OpenSearch.Index == "" {
		cfg.OpenSearch.Index = DefaultOpenSearchIndex
	}

	// ── Metrics / server / worker / log ───────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = DefaultWorkerMaxRetries
	}
	if cfg.Worker.RetryBackoff == 0 {
		cfg.Worker.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.Worker.HandlerTimeout == 0 {
		cfg.Worker.HandlerTimeout = DefaultHandlerTimeout
	}
	if cfg.Worker.DeadLetterTopic == "" {
		cfg.Worker.DeadLetterTopic = DefaultDeadLetterTopic
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// NewDefault returns a Config with every default applied.
func NewDefault() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

//Personal.AI order the ending
