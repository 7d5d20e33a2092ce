package prometheus

import (
	"time"
)

// ReviewMetrics groups every metric emitted by the review pipeline. All
// Record* methods are safe on a nil receiver so components can run without
// metrics wired.
type ReviewMetrics struct {
	// Retrieval
	ChapterFilterFallbacks CounterVec
	RetrievalChannelErrors CounterVec
	RetrievalDuration      HistogramVec
	RetrievalResults       HistogramVec

	// Text generation
	LLMRequestsTotal   CounterVec
	LLMRequestDuration HistogramVec
	LLMTokensUsed      CounterVec
	LLMJSONFallbacks   CounterVec

	// Analysis
	AnalysisFindings        CounterVec
	AnalysisChannelFailures CounterVec
	AnalysisDuration        HistogramVec
	AnalysisSentences       CounterVec

	// Infrastructure
	CacheHitsTotal     CounterVec
	CacheMissesTotal   CounterVec
	SinkPublishErrors  CounterVec
	MessagesProcessed  CounterVec
	ComponentReadiness GaugeVec
}

var (
	DefaultRetrievalDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultLLMDurationBuckets       = []float64{.5, 1, 2, 5, 10, 30, 60, 120, 300, 900, 1800}
	DefaultAnalysisDurationBuckets  = []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600}
	DefaultResultCountBuckets       = []float64{0, 1, 5, 10, 20, 50}
)

// NewReviewMetrics registers the pipeline metrics on collector.
func NewReviewMetrics(collector MetricsCollector) *ReviewMetrics {
	m := &ReviewMetrics{}

	m.ChapterFilterFallbacks = collector.RegisterCounter("retrieval_chapter_filter_fallback_total",
		"Chapter-filtered lexical retrievals that fell back to the unfiltered corpus", "backend")
	m.RetrievalChannelErrors = collector.RegisterCounter("retrieval_channel_errors_total",
		"Hybrid retrieval channel failures", "channel")
	m.RetrievalDuration = collector.RegisterHistogram("retrieval_duration_seconds",
		"Hybrid retrieval duration", DefaultRetrievalDurationBuckets)
	m.RetrievalResults = collector.RegisterHistogram("retrieval_result_count",
		"Chunks returned by hybrid retrieval", DefaultResultCountBuckets)

	m.LLMRequestsTotal = collector.RegisterCounter("llm_requests_total",
		"Text generation requests", "model", "operation", "status")
	m.LLMRequestDuration = collector.RegisterHistogram("llm_request_duration_seconds",
		"Text generation request duration", DefaultLLMDurationBuckets, "model", "operation")
	m.LLMTokensUsed = collector.RegisterCounter("llm_tokens_total",
		"Tokens consumed by text generation", "model", "direction")
	m.LLMJSONFallbacks = collector.RegisterCounter("llm_json_fallback_total",
		"Model responses that could not be decoded and were replaced by defaults", "operation")

	m.AnalysisFindings = collector.RegisterCounter("analysis_findings_total",
		"Findings produced per analysis channel before dedup", "channel")
	m.AnalysisChannelFailures = collector.RegisterCounter("analysis_channel_failures_total",
		"Analysis channels that aborted", "channel")
	m.AnalysisDuration = collector.RegisterHistogram("analysis_duration_seconds",
		"Dual-channel analysis duration", DefaultAnalysisDurationBuckets)
	m.AnalysisSentences = collector.RegisterCounter("analysis_sentences_total",
		"Sentences submitted to the classifier channel")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.SinkPublishErrors = collector.RegisterCounter("sink_publish_errors_total",
		"Result sink publish failures", "target")
	m.MessagesProcessed = collector.RegisterCounter("worker_messages_total",
		"Review requests consumed by the worker", "status")
	m.ComponentReadiness = collector.RegisterGauge("component_ready",
		"Component readiness (1=ready, 0=not ready)", "component")

	return m
}

func (m *ReviewMetrics) RecordChapterFilterFallback(backend string) {
	if m == nil {
		return
	}
	m.ChapterFilterFallbacks.WithLabelValues(backend).Inc()
}

func (m *ReviewMetrics) RecordRetrievalChannelError(channel string) {
	if m == nil {
		return
	}
	m.RetrievalChannelErrors.WithLabelValues(channel).Inc()
}

func (m *ReviewMetrics) RecordRetrieval(duration time.Duration, results int) {
	if m == nil {
		return
	}
	m.RetrievalDuration.WithLabelValues().Observe(duration.Seconds())
	m.RetrievalResults.WithLabelValues().Observe(float64(results))
}

func (m *ReviewMetrics) RecordLLMCall(model, operation string, success bool, duration time.Duration, promptTokens, completionTokens int) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.LLMRequestsTotal.WithLabelValues(model, operation, status).Inc()
	m.LLMRequestDuration.WithLabelValues(model, operation).Observe(duration.Seconds())
	if promptTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(model, "completion").Add(float64(completionTokens))
	}
}

func (m *ReviewMetrics) RecordJSONFallback(operation string) {
	if m == nil {
		return
	}
	m.LLMJSONFallbacks.WithLabelValues(operation).Inc()
}

func (m *ReviewMetrics) RecordFindings(channel string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.AnalysisFindings.WithLabelValues(channel).Add(float64(n))
}

func (m *ReviewMetrics) RecordChannelFailure(channel string) {
	if m == nil {
		return
	}
	m.AnalysisChannelFailures.WithLabelValues(channel).Inc()
}

func (m *ReviewMetrics) RecordAnalysis(duration time.Duration, sentences int) {
	if m == nil {
		return
	}
	m.AnalysisDuration.WithLabelValues().Observe(duration.Seconds())
	m.AnalysisSentences.WithLabelValues().Add(float64(sentences))
}

func (m *ReviewMetrics) RecordCacheAccess(cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func (m *ReviewMetrics) RecordSinkPublishError(target string) {
	if m == nil {
		return
	}
	m.SinkPublishErrors.WithLabelValues(target).Inc()
}

func (m *ReviewMetrics) RecordMessage(status string) {
	if m == nil {
		return
	}
	m.MessagesProcessed.WithLabelValues(status).Inc()
}

func (m *ReviewMetrics) SetReady(component string, ready bool) {
	if m == nil {
		return
	}
	v := 0.0
	if ready {
		v = 1
	}
	m.ComponentReadiness.WithLabelValues(component).Set(v)
}

//Personal.AI order the ending
