package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	FeedsFetched      int64
	FeedErrors        int64
	ArticlesFetched   int64
	LLMCalls          int64
	LLMFailures       int64
	ParseFailures     int64
	Unclassified      int64
	CuratedArticles   int64
	UnmatchedEntries  int64
	PhotosFound       int64
	ReportsPublished  int64
	NotificationsSent int64

	// Timings
	LastProcessingTime    time.Duration
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration
	ProcessingCount       int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

func New() *Metrics {
	return &Metrics{IsHealthy: true}
}

func (m *Metrics) update(fn func(m *Metrics)) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m)
}

func (m *Metrics) IncrementFeedsFetched() {
	m.update(func(m *Metrics) {
		m.FeedsFetched++
	})
}

func (m *Metrics) IncrementFeedErrors() {
	m.update(func(m *Metrics) {
		m.FeedErrors++
	})
}

func (m *Metrics) AddArticlesFetched(n int) {
	m.update(func(m *Metrics) {
		m.ArticlesFetched += int64(n)
	})
}

func (m *Metrics) IncrementLLMCalls() {
	m.update(func(m *Metrics) {
		m.LLMCalls++
	})
}

func (m *Metrics) IncrementLLMFailures() {
	m.update(func(m *Metrics) {
		m.LLMFailures++
	})
}

func (m *Metrics) IncrementParseFailures() {
	m.update(func(m *Metrics) {
		m.ParseFailures++
	})
}

func (m *Metrics) IncrementUnclassified() {
	m.update(func(m *Metrics) {
		m.Unclassified++
	})
}

func (m *Metrics) AddCuratedArticles(n int) {
	m.update(func(m *Metrics) {
		m.CuratedArticles += int64(n)
	})
}

func (m *Metrics) IncrementUnmatchedEntries() {
	m.update(func(m *Metrics) {
		m.UnmatchedEntries++
	})
}

func (m *Metrics) IncrementPhotosFound() {
	m.update(func(m *Metrics) {
		m.PhotosFound++
	})
}

func (m *Metrics) IncrementReportsPublished() {
	m.update(func(m *Metrics) {
		m.ReportsPublished++
	})
}

func (m *Metrics) IncrementNotificationsSent() {
	m.update(func(m *Metrics) {
		m.NotificationsSent++
	})
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++

	if m.ProcessingCount > 0 {
		m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.ProcessingCount)
	}
}

func (m *Metrics) SetLastRun() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

// Healthy reports whether the last run finished without a fatal error.
func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsHealthy
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"feeds_fetched":              m.FeedsFetched,
		"feed_errors":                m.FeedErrors,
		"articles_fetched":           m.ArticlesFetched,
		"llm_calls":                  m.LLMCalls,
		"llm_failures":               m.LLMFailures,
		"parse_failures":             m.ParseFailures,
		"unclassified":               m.Unclassified,
		"curated_articles":           m.CuratedArticles,
		"unmatched_entries":          m.UnmatchedEntries,
		"photos_found":               m.PhotosFound,
		"reports_published":          m.ReportsPublished,
		"notifications_sent":         m.NotificationsSent,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"last_run_time":              m.LastRunTime.Format(time.RFC3339),
		"last_error_time":            m.LastErrorTime.Format(time.RFC3339),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
}
