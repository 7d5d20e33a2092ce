package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix is the prefix of every FAIRREVIEW_* override.
const envPrefix = "FAIRREVIEW"

// boundKeys lists the settings that may be supplied purely from the
// environment. viper only consults the environment for keys it already knows
// about, so each one is bound explicitly.
var boundKeys = []string{
	"log.level", "log.format",
	"llm.provider", "llm.api_key", "llm.base_url", "llm.model", "llm.timeout", "llm.temperature", "llm.probe_on_start",
	"embedding.api_key", "embedding.base_url", "embedding.model",
	"classifier.transport", "classifier.endpoint", "classifier.timeout", "classifier.health_check",
	"structurizer.long_chapter_warn_threshold", "structurizer.input_dir",
	"chunk_store.path",
	"bm25.backend", "bm25.chapter_threshold", "bm25.top_k",
	"vector.backend", "vector.persist_dir", "vector.force_recreate", "vector.build_lock",
	"vector.milvus.address", "vector.milvus.username", "vector.milvus.password", "vector.milvus.collection",
	"retrieval.candidate_size", "retrieval.final_k", "retrieval.vector_weight", "retrieval.bm25_weight",
	"retrieval.chapter_filter_from_hints",
	"intent.cache_enabled", "intent.cache_ttl",
	"analyzer.classifier_threshold", "analyzer.include_no_violation_label",
	"sink.output_dir", "sink.upload_artifacts", "sink.publish_events", "sink.persist_findings",
	"redis.addr", "redis.password", "redis.db",
	"postgres.host", "postgres.port", "postgres.user", "postgres.password", "postgres.db_name", "postgres.migration_path",
	"kafka.brokers", "kafka.group_id", "kafka.request_topic", "kafka.completed_topic",
	"minio.endpoint", "minio.access_key", "minio.secret_key", "minio.use_ssl",
	"opensearch.addresses", "opensearch.username", "opensearch.password", "opensearch.mirror_chunks",
	"server.port", "server.mode",
	"worker.max_retries", "worker.handler_timeout", "worker.dead_letter_topic",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range boundKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none are
// given) into the process environment. Missing files are ignored and existing
// variables are never overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: failed to load %q: %w", p, err)
		}
	}
	return nil
}

// Load reads the YAML file at configPath, merges FAIRREVIEW_* overrides,
// applies defaults and validates. An empty configPath loads from the
// environment only.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return LoadFromEnv()
	}
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from FAIRREVIEW_* variables and defaults.
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}
	// Comma-separated list variables arrive as a single element.
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)
	cfg.OpenSearch.Addresses = splitList(cfg.OpenSearch.Addresses)

	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Watch re-parses configPath on every change and hands the new Config to
// onChange. Invalid revisions are reported to onError and otherwise skipped.
// Only settings that are safe to swap at runtime, such as log.level, should be
// applied by the callback.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	if _, err := os.Stat(configPath); err != nil {
		return fmt.Errorf("config: cannot watch %q: %w", configPath, err)
	}
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

//Personal.AI order the ending
