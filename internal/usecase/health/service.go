package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the service cannot answer queries.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentCorpus    = "corpus"
	ComponentCache     = "cache"
	ComponentEmbedding = "embedding"
	ComponentRerank    = "rerank"
)

// Report aggregates health check results.
type Report struct {
	Status    Status
	Checks    map[string]CheckResult
	Documents int
}

// Service coordinates health checks.
type Service struct {
	corpus           CorpusCounter
	cache            CachePinger
	embedding        EmbeddingChecker
	rerankConfigured bool
}

// New creates a Service. cache and embedding can be nil.
func New(corpus CorpusCounter, cache CachePinger, embedding EmbeddingChecker, rerankConfigured bool) *Service {
	return &Service{corpus: corpus, cache: cache, embedding: embedding, rerankConfigured: rerankConfigured}
}

// Check runs health checks against all components.
// An empty corpus makes the service unhealthy; any other failure degrades it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	docs := s.corpus.Len()
	checks[ComponentCorpus] = result(docs > 0)

	if s.cache != nil {
		checks[ComponentCache] = result(s.cache.Ping(ctx) == nil)
	}
	if s.embedding != nil {
		checks[ComponentEmbedding] = result(s.embedding.HealthCheck(ctx) == nil)
	}
	checks[ComponentRerank] = result(s.rerankConfigured)

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if docs == 0 {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks, Documents: docs}
}

func result(ok bool) CheckResult {
	if ok {
		return CheckOK
	}
	return CheckError
}
