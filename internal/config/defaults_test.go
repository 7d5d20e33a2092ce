package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_FillsPipelineConstants(t *testing.T) {
	t.Setenv(ArkAPIKeyEnv, "ark-test-key")

	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, ProviderArk, cfg.LLM.Provider)
	assert.Equal(t, "ark-test-key", cfg.LLM.APIKey)
	assert.Equal(t, DefaultArkBaseURL, cfg.LLM.BaseURL)
	assert.Equal(t, "doubao-seed-1.6-250615", cfg.LLM.Model)
	assert.Equal(t, 1800*time.Second, cfg.LLM.Timeout)
	assert.InDelta(t, 0.1, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, "ark-test-key", cfg.Embedding.APIKey)
	assert.Equal(t, 3000, cfg.Structurizer.LongChapterWarnThreshold)
	assert.Equal(t, 1.5, cfg.BM25.K1)
	assert.Equal(t, 0.75, cfg.BM25.B)
	assert.Equal(t, 1.2, cfg.BM25.ChapterK1)
	assert.Equal(t, 0.4, cfg.BM25.ChapterB)
	assert.Equal(t, 0.7, cfg.BM25.ChapterThreshold)
	assert.Equal(t, 20, cfg.Retrieval.CandidateSize)
	assert.Equal(t, 10, cfg.Retrieval.FinalK)
	assert.Equal(t, 0.5, cfg.Retrieval.VectorWeight)
	assert.Equal(t, 0.5, cfg.Retrieval.BM25Weight)
	assert.False(t, cfg.Retrieval.ChapterFilterFromHints)
	assert.Equal(t, 0.05, cfg.Analyzer.ClassifierThreshold)
	assert.False(t, cfg.Analyzer.IncludeNoViolationLabel)
	assert.Equal(t, 20, cfg.Analyzer.JudgeCandidateSize)
	assert.Equal(t, 5, cfg.Analyzer.JudgeFinalK)
}

func TestApplyDefaults_Worker(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, "review.requested", cfg.Kafka.RequestTopic)
	assert.Equal(t, "review.completed", cfg.Kafka.CompletedTopic)
	assert.Equal(t, 3, cfg.Worker.MaxRetries)
	assert.Equal(t, time.Second, cfg.Worker.RetryBackoff)
	assert.Equal(t, 5*time.Minute, cfg.Worker.HandlerTimeout)
	assert.Equal(t, "review.dead_letter", cfg.Worker.DeadLetterTopic)
	assert.Equal(t, 8081, cfg.Server.Port)
}

func TestApplyDefaults_ExplicitValuesWin(t *testing.T) {
	cfg := &Config{}
	cfg.LLM.Provider = ProviderGemini
	cfg.LLM.APIKey = "explicit"
	cfg.Retrieval.VectorWeight = 0.7
	cfg.BM25.ChapterThreshold = 0.9

	ApplyDefaults(cfg)

	assert.Equal(t, "explicit", cfg.LLM.APIKey)
	assert.Empty(t, cfg.LLM.BaseURL, "gemini does not take a base url")
	assert.Equal(t, 0.7, cfg.Retrieval.VectorWeight)
	assert.Equal(t, 0.0, cfg.Retrieval.BM25Weight)
	assert.Equal(t, 0.9, cfg.BM25.ChapterThreshold)
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

//Personal.AI order the ending
