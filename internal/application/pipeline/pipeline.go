// Package pipeline assembles the review components from configuration. Each
// component is built on first use and reused afterwards, so a command only
// connects to the backends it actually touches.
//
// Accessors are not safe for concurrent use. Long-lived processes call Build
// once and then share the analyzer and sink, which are.
package pipeline

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/FairReview-Intelligence/internal/application/reporting"
	"github.com/turtacn/FairReview-Intelligence/internal/application/review"
	"github.com/turtacn/FairReview-Intelligence/internal/application/structurizer"
	"github.com/turtacn/FairReview-Intelligence/internal/config"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/search/milvus"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/search/opensearch"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/storage/chunkstore"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/storage/minio"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/bm25"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/classifier"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/embedding"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/hybrid"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/intent"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/llm"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/tokenizer"
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/vectorindex"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
	types "github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// IndexLockName is the Redis mutex guarding vector index rebuilds.
const IndexLockName = "vector-index"

// Readiness components reported through ReviewMetrics.SetReady.
const (
	ComponentAnalyzer = "analyzer"
	ComponentSink     = "sink"
)

// Option overrides a component, mainly for tests.
type Option func(*Pipeline)

func WithGenerator(g llm.Generator) Option { return func(p *Pipeline) { p.gen = g } }

func WithEmbedder(e embedding.Embedder) Option { return func(p *Pipeline) { p.embedder = e } }

func WithTokenizer(t tokenizer.Tokenizer) Option { return func(p *Pipeline) { p.tok = t } }

func WithPredictor(c classifier.Predictor) Option { return func(p *Pipeline) { p.predictor = c } }

// WithChunks skips the chunk store file.
func WithChunks(chunks []types.Chunk) Option { return func(p *Pipeline) { p.chunks = chunks } }

type closer struct {
	name string
	fn   func() error
}

// Pipeline owns every component it builds and releases them in Close.
type Pipeline struct {
	cfg     *config.Config
	logger  logging.Logger
	metrics *prometheus.ReviewMetrics

	gen        llm.Generator
	probed     bool
	embedder   embedding.Embedder
	tok        tokenizer.Tokenizer
	predictor  classifier.Predictor
	chunks     []types.Chunk
	vector     vectorindex.Store
	indexReady bool
	lexical    bm25.LexicalRetriever
	normalizer intent.Normalizer
	retriever  *hybrid.Retriever
	analyzer   *review.Analyzer
	sink       *reporting.Sink

	redis     *redis.Client
	minio     *minio.MinIOClient
	artifacts minio.ArtifactRepository
	search    *opensearch.Client
	milvus    *milvus.Client
	pool      *pgxpool.Pool
	producer  *kafka.Producer

	closers []closer
	checks  []Check
}

func New(cfg *config.Config, logger logging.Logger, metrics *prometheus.ReviewMetrics, opts ...Option) *Pipeline {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	p := &Pipeline{cfg: cfg, logger: logger.Named("pipeline"), metrics: metrics}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Config() *config.Config { return p.cfg }

func (p *Pipeline) onClose(name string, fn func() error) {
	p.closers = append(p.closers, closer{name: name, fn: fn})
}

// Close releases components in reverse build order. Every closer runs; the
// first error is returned.
func (p *Pipeline) Close() error {
	var first error
	for i := len(p.closers) - 1; i >= 0; i-- {
		c := p.closers[i]
		if err := c.fn(); err != nil {
			p.logger.Warn("close failed", logging.String("component", c.name), logging.Err(err))
			if first == nil {
				first = err
			}
		}
	}
	p.closers = nil
	return first
}

// Generator returns the configured text generator. With llm.probe_on_start
// set, the first call also sends the connection probe; a reply without the
// probe token is logged as a warning and the generator is still returned.
func (p *Pipeline) Generator(ctx context.Context) (llm.Generator, error) {
	if p.gen == nil {
		gen, err := llm.New(ctx, p.cfg.LLM, p.logger, p.metrics)
		if err != nil {
			return nil, err
		}
		if c, ok := gen.(io.Closer); ok {
			p.onClose("llm", c.Close)
		}
		p.gen = gen
	}
	if p.cfg.LLM.ProbeOnStart && !p.probed {
		p.probed = true
		p.probe(ctx)
	}
	return p.gen, nil
}

func (p *Pipeline) probe(ctx context.Context) {
	model := logging.String("model", p.gen.Model())
	ok, err := llm.Probe(ctx, p.gen)
	switch {
	case err != nil:
		p.logger.Warn("llm connection probe failed", model, logging.Err(err))
	case !ok:
		p.logger.Warn("llm connection probe returned unexpected reply", model)
	default:
		p.logger.Info("llm connection probe ok", model)
	}
}

func (p *Pipeline) Embedder() (embedding.Embedder, error) {
	if p.embedder != nil {
		return p.embedder, nil
	}
	e, err := embedding.NewOpenAIEmbedder(p.cfg.Embedding, p.cfg.LLM, p.logger, p.metrics)
	if err != nil {
		return nil, err
	}
	p.embedder = e
	return e, nil
}

func (p *Pipeline) Tokenizer() (tokenizer.Tokenizer, error) {
	if p.tok != nil {
		return p.tok, nil
	}
	t, err := tokenizer.Shared()
	if err != nil {
		return nil, err
	}
	p.tok = t
	return t, nil
}

// Classifier returns a loaded sentence classifier.
func (p *Pipeline) Classifier(ctx context.Context) (classifier.Predictor, error) {
	if p.predictor != nil {
		return p.predictor, nil
	}
	res, err := classifier.New(p.cfg.Classifier, p.logger)
	if err != nil {
		return nil, err
	}
	if err := res.Load(ctx); err != nil {
		_ = res.Close()
		return nil, err
	}
	p.onClose("classifier", res.Close)
	p.addCheck("classifier", func(context.Context) error {
		if !res.Ready() {
			return errors.New(errors.ErrCodeClassifierNotLoaded, "classifier is not ready")
		}
		return nil
	})
	p.predictor = res
	return res, nil
}

// ─── Infrastructure ────────────────────────────────────────────────────────

func (p *Pipeline) redisClient() (*redis.Client, error) {
	if p.redis != nil {
		return p.redis, nil
	}
	c, err := redis.NewClient(p.cfg.Redis, p.logger)
	if err != nil {
		return nil, err
	}
	p.onClose("redis", c.Close)
	p.addCheck("redis", c.Ping)
	p.redis = c
	return c, nil
}

func (p *Pipeline) artifactRepo(ctx context.Context) (minio.ArtifactRepository, *minio.MinIOClient, error) {
	if p.artifacts != nil {
		return p.artifacts, p.minio, nil
	}
	c, err := minio.NewMinIOClient(ctx, p.cfg.MinIO, p.logger)
	if err != nil {
		return nil, nil, err
	}
	p.onClose("minio", c.Close)
	p.addCheck("minio", c.HealthCheck)
	p.minio = c
	p.artifacts = minio.NewArtifactRepository(c, p.logger)
	return p.artifacts, c, nil
}

func (p *Pipeline) searchClient() (*opensearch.Client, error) {
	if p.search != nil {
		return p.search, nil
	}
	c, err := opensearch.NewClient(opensearch.ClientConfigFrom(p.cfg.OpenSearch), p.logger)
	if err != nil {
		return nil, err
	}
	p.onClose("opensearch", c.Close)
	p.addCheck("opensearch", c.Ping)
	p.search = c
	return c, nil
}

func (p *Pipeline) milvusClient() (*milvus.Client, error) {
	if p.milvus != nil {
		return p.milvus, nil
	}
	c, err := milvus.NewClient(milvus.ClientConfigFrom(p.cfg.Vector.Milvus), p.logger)
	if err != nil {
		return nil, err
	}
	p.onClose("milvus", c.Close)
	p.addCheck("milvus", c.CheckHealth)
	p.milvus = c
	return c, nil
}

// postgresPool connects and applies the embedded migrations.
func (p *Pipeline) postgresPool(ctx context.Context) (*pgxpool.Pool, error) {
	if p.pool != nil {
		return p.pool, nil
	}
	if err := postgres.RunMigrations(p.cfg.Postgres.DSN(), p.cfg.Postgres.MigrationPath); err != nil {
		return nil, err
	}
	pool, err := postgres.NewConnectionPool(ctx, p.cfg.Postgres, p.logger)
	if err != nil {
		return nil, err
	}
	p.onClose("postgres", func() error { postgres.Close(pool); return nil })
	p.addCheck("postgres", func(ctx context.Context) error { return postgres.HealthCheck(ctx, pool) })
	p.pool = pool
	return pool, nil
}

func (p *Pipeline) kafkaProducer() (*kafka.Producer, error) {
	if p.producer != nil {
		return p.producer, nil
	}
	prod, err := kafka.NewProducer(kafka.ProducerConfig{Brokers: p.cfg.Kafka.Brokers}, p.logger)
	if err != nil {
		return nil, err
	}
	p.onClose("kafka_producer", prod.Close)
	p.producer = prod
	return prod, nil
}

// ─── Chunks & indexes ──────────────────────────────────────────────────────

// Structurize loads every supported document under the given paths, turns
// them into chunks and writes the chunk store. With sink.upload_artifacts set
// the store is also uploaded to the chunk bucket.
func (p *Pipeline) Structurize(ctx context.Context, paths ...string) ([]types.Chunk, error) {
	var docs []types.Document
	for _, path := range paths {
		loaded, err := structurizer.LoadPath(path, p.logger)
		if err != nil {
			return nil, err
		}
		docs = append(docs, loaded...)
	}
	if len(docs) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "no supported document found").WithDetail(filepath.Join(paths...))
	}

	gen, err := p.Generator(ctx)
	if err != nil {
		return nil, err
	}
	chunks := structurizer.New(gen, p.cfg.Structurizer, p.logger, p.metrics).ProcessBatch(ctx, docs)

	path := p.cfg.ChunkStore.Path
	if err := chunkstore.Save(path, chunks); err != nil {
		return nil, err
	}
	p.logger.Info("chunk store saved", logging.String("path", path), logging.Int("documents", len(docs)), logging.Int("chunks", len(chunks)))

	if p.cfg.Sink.UploadArtifacts {
		repo, client, err := p.artifactRepo(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := repo.UploadFile(ctx, client.GetBucketName(minio.BucketChunks), filepath.Base(path), path); err != nil {
			return nil, err
		}
	}
	p.chunks = chunks
	return chunks, nil
}

// Chunks loads the chunk store. When the file is missing and artifacts are
// kept in object storage, the latest uploaded store is downloaded first.
func (p *Pipeline) Chunks(ctx context.Context) ([]types.Chunk, error) {
	if p.chunks != nil {
		return p.chunks, nil
	}
	path := p.cfg.ChunkStore.Path
	chunks, err := chunkstore.Load(path)
	if errors.IsCode(err, errors.ErrCodeChunkStoreNotFound) && p.cfg.Sink.UploadArtifacts {
		repo, client, rerr := p.artifactRepo(ctx)
		if rerr != nil {
			return nil, rerr
		}
		if derr := repo.DownloadToFile(ctx, client.GetBucketName(minio.BucketChunks), filepath.Base(path), path); derr != nil {
			return nil, derr
		}
		p.logger.Info("chunk store downloaded", logging.String("path", path))
		chunks, err = chunkstore.Load(path)
	}
	if err != nil {
		return nil, err
	}
	p.chunks = chunks
	return chunks, nil
}

// VectorStore returns the configured backend without building or loading it.
func (p *Pipeline) VectorStore() (vectorindex.Store, error) {
	if p.vector != nil {
		return p.vector, nil
	}
	emb, err := p.Embedder()
	if err != nil {
		return nil, err
	}
	switch p.cfg.Vector.Backend {
	case "milvus":
		c, err := p.milvusClient()
		if err != nil {
			return nil, err
		}
		m := p.cfg.Vector.Milvus
		p.vector = milvus.NewChunkIndex(c, emb, m.Collection, m.ShardNum, p.logger)
	default:
		p.vector = vectorindex.NewFlatStore(p.cfg.Vector.PersistDir, emb, p.logger)
	}
	return p.vector, nil
}

// BuildIndex rebuilds or loads the vector index and mirrors the chunks into
// OpenSearch when configured.
func (p *Pipeline) BuildIndex(ctx context.Context, force bool) error {
	chunks, err := p.Chunks(ctx)
	if err != nil {
		return err
	}
	store, err := p.VectorStore()
	if err != nil {
		return err
	}

	open := func(ctx context.Context) error {
		return vectorindex.Open(ctx, store, chunks, force, p.logger)
	}
	if p.cfg.Vector.BuildLock {
		rc, err := p.redisClient()
		if err != nil {
			return err
		}
		lock := redis.NewMutex(rc, IndexLockName, p.logger,
			redis.WithLockTTL(30*time.Second), redis.WithRetryCount(120),
			redis.WithRetryDelay(time.Second), redis.WithWatchdog(10*time.Second))
		if err := withLock(ctx, lock, open); err != nil {
			return err
		}
	} else if err := open(ctx); err != nil {
		return err
	}

	if p.cfg.OpenSearch.MirrorChunks || p.cfg.BM25.Backend == opensearch.BackendName {
		c, err := p.searchClient()
		if err != nil {
			return err
		}
		if err := opensearch.NewIndexer(c, p.cfg.OpenSearch.Index, p.logger).Mirror(ctx, vectorindex.NonEmpty(chunks)); err != nil {
			return err
		}
	}
	p.indexReady = true
	return nil
}

func withLock(ctx context.Context, lock redis.DistributedLock, fn func(context.Context) error) error {
	if err := lock.Lock(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexBuildFailed, "acquire index build lock")
	}
	defer func() { _ = lock.Unlock(context.Background()) }()
	return fn(ctx)
}

// Lexical returns the BM25 channel: an in-memory index over the chunk store
// or an OpenSearch searcher over the mirrored index.
func (p *Pipeline) Lexical(ctx context.Context) (bm25.LexicalRetriever, error) {
	if p.lexical != nil {
		return p.lexical, nil
	}
	if p.cfg.BM25.Backend == opensearch.BackendName {
		c, err := p.searchClient()
		if err != nil {
			return nil, err
		}
		p.lexical = opensearch.NewSearcher(c, p.cfg.OpenSearch.Index, p.logger, p.metrics)
		return p.lexical, nil
	}
	chunks, err := p.Chunks(ctx)
	if err != nil {
		return nil, err
	}
	tok, err := p.Tokenizer()
	if err != nil {
		return nil, err
	}
	r, err := bm25.NewRetriever(chunks, tok, bm25.OptionsFromConfig(p.cfg.BM25), p.logger, p.metrics)
	if err != nil {
		return nil, err
	}
	p.lexical = r
	return r, nil
}

// Normalizer returns the intent normalizer, cached in Redis when
// intent.cache_enabled is set.
func (p *Pipeline) Normalizer(ctx context.Context) (intent.Normalizer, error) {
	if p.normalizer != nil {
		return p.normalizer, nil
	}
	gen, err := p.Generator(ctx)
	if err != nil {
		return nil, err
	}
	inner := intent.NewLLMNormalizer(gen, p.logger, p.metrics)
	if !p.cfg.Intent.CacheEnabled {
		p.normalizer = inner
		return inner, nil
	}
	rc, err := p.redisClient()
	if err != nil {
		return nil, err
	}
	cache := redis.NewRedisCache(rc, p.logger, redis.WithDefaultTTL(p.cfg.Intent.CacheTTL))
	p.normalizer = intent.NewCachedNormalizer(inner, cache, p.cfg.Intent.CacheTTL, p.logger, p.metrics)
	return p.normalizer, nil
}

// Retriever returns the hybrid retriever, opening the vector index with the
// configured rebuild policy when it has not been opened yet.
func (p *Pipeline) Retriever(ctx context.Context) (*hybrid.Retriever, error) {
	if p.retriever != nil {
		return p.retriever, nil
	}
	if !p.indexReady {
		if err := p.BuildIndex(ctx, p.cfg.Vector.ForceRecreate); err != nil {
			return nil, err
		}
	}
	lexical, err := p.Lexical(ctx)
	if err != nil {
		return nil, err
	}
	p.retriever = hybrid.NewRetriever(p.vector, lexical, p.logger, p.metrics)
	return p.retriever, nil
}

// Search normalizes query and runs one hybrid retrieval with the retrieval
// section's options.
func (p *Pipeline) Search(ctx context.Context, query string) (types.IntentResult, []types.ScoredChunk, error) {
	norm, err := p.Normalizer(ctx)
	if err != nil {
		return types.IntentResult{}, nil, err
	}
	r, err := p.Retriever(ctx)
	if err != nil {
		return types.IntentResult{}, nil, err
	}
	res := norm.Normalize(ctx, query)
	hints := intent.HintsFrom(res, p.cfg.Retrieval.ChapterFilterFromHints)
	return res, r.Retrieve(ctx, res.NormalizedQuery, hints, hybrid.OptionsFromConfig(p.cfg.Retrieval)), nil
}

// ─── Analysis & sink ───────────────────────────────────────────────────────

func (p *Pipeline) Analyzer(ctx context.Context) (*review.Analyzer, error) {
	if p.analyzer != nil {
		return p.analyzer, nil
	}
	pred, err := p.Classifier(ctx)
	if err != nil {
		return nil, err
	}
	norm, err := p.Normalizer(ctx)
	if err != nil {
		return nil, err
	}
	r, err := p.Retriever(ctx)
	if err != nil {
		return nil, err
	}
	gen, err := p.Generator(ctx)
	if err != nil {
		return nil, err
	}
	p.analyzer = review.NewAnalyzer(pred, norm, r, gen, review.OptionsFromConfig(p.cfg.Analyzer, p.cfg.Retrieval), p.logger, p.metrics)
	return p.analyzer, nil
}

// Sink returns the result sink with the publishers enabled in the sink
// section.
func (p *Pipeline) Sink(ctx context.Context) (*reporting.Sink, error) {
	if p.sink != nil {
		return p.sink, nil
	}
	opts := reporting.Options{OutputDir: p.cfg.Sink.OutputDir, CompletedTopic: p.cfg.Kafka.CompletedTopic}
	if p.cfg.Sink.UploadArtifacts {
		repo, client, err := p.artifactRepo(ctx)
		if err != nil {
			return nil, err
		}
		opts.Uploader = repo
		opts.Bucket = client.GetBucketName(minio.BucketReports)
	}
	if p.cfg.Sink.PublishEvents {
		prod, err := p.kafkaProducer()
		if err != nil {
			return nil, err
		}
		opts.Events = prod
	}
	if p.cfg.Sink.PersistFindings {
		pool, err := p.postgresPool(ctx)
		if err != nil {
			return nil, err
		}
		opts.Store = repositories.NewReviewRepository(pool, p.logger)
	}
	p.sink = reporting.NewSink(opts, p.logger, p.metrics)
	return p.sink, nil
}

// Build prepares everything a review needs: indexes, classifier and sink.
func (p *Pipeline) Build(ctx context.Context) error {
	start := time.Now()
	if _, err := p.Analyzer(ctx); err != nil {
		p.metrics.SetReady(ComponentAnalyzer, false)
		return err
	}
	p.metrics.SetReady(ComponentAnalyzer, true)
	if _, err := p.Sink(ctx); err != nil {
		p.metrics.SetReady(ComponentSink, false)
		return err
	}
	p.metrics.SetReady(ComponentSink, true)
	p.logger.Info("pipeline ready", logging.Duration("elapsed", time.Since(start)))
	return nil
}

// Review analyzes chunks and saves the report. Only a local sink failure is
// returned as an error.
func (p *Pipeline) Review(ctx context.Context, chunks []types.Chunk, requestID string) (types.ReviewReport, types.ReviewCompleted, error) {
	a, err := p.Analyzer(ctx)
	if err != nil {
		return types.ReviewReport{}, types.ReviewCompleted{}, err
	}
	s, err := p.Sink(ctx)
	if err != nil {
		return types.ReviewReport{}, types.ReviewCompleted{}, err
	}
	report := a.Review(ctx, chunks)
	done, err := s.Save(ctx, report, requestID)
	return report, done, err
}

// ReviewText wraps free text as a user-input chunk and reviews it.
func (p *Pipeline) ReviewText(ctx context.Context, text, requestID string) (types.ReviewReport, types.ReviewCompleted, error) {
	return p.Review(ctx, []types.Chunk{chunkstore.UserInputChunk(text, time.Now())}, requestID)
}

//Personal.AI order the ending
