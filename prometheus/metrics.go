// Package prometheus instruments the sync pipeline with Prometheus metrics.
package prometheus

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fwojciec/repodocs"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one registry.
type Metrics struct {
	registry *prom.Registry

	FetchDuration   prom.Histogram
	FetchTotal      *prom.CounterVec // result: ok|clone|branch|canceled|error
	ReplaceTotal    *prom.CounterVec // result: ok|error
	DocumentsStored *prom.GaugeVec   // repo
	SyncReposTotal  *prom.CounterVec // status: success|failed
}

// NewMetrics creates the collectors and registers them on a fresh registry.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		registry: prom.NewRegistry(),
		FetchDuration: prom.NewHistogram(prom.HistogramOpts{
			Name:    "repodocs_fetch_duration_seconds",
			Help:    "Duration of repository clones.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
		FetchTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "repodocs_fetch_total",
			Help: "Repository clone attempts by result.",
		}, []string{"result"}),
		ReplaceTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "repodocs_replace_total",
			Help: "Snapshot replacements by result.",
		}, []string{"result"}),
		DocumentsStored: prom.NewGaugeVec(prom.GaugeOpts{
			Name: "repodocs_documents_stored",
			Help: "Documents in the latest snapshot of each repository.",
		}, []string{"repo"}),
		SyncReposTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "repodocs_sync_repos_total",
			Help: "Repositories processed by sync runs, by status.",
		}, []string{"status"}),
	}

	for _, c := range []prom.Collector{m.FetchDuration, m.FetchTotal, m.ReplaceTotal, m.DocumentsStored, m.SyncReposTotal} {
		if err := m.registry.Register(c); err != nil {
			return nil, repodocs.WrapError(repodocs.EINTERNAL, err, "failed to register metric")
		}
	}
	return m, nil
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prom.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveReport counts the outcome of every repository in report.
func (m *Metrics) ObserveReport(report *repodocs.SyncReport) {
	for _, name := range report.Names() {
		res := report.Repos[name]
		m.SyncReposTotal.WithLabelValues(string(res.Status)).Inc()
		if res.Status == repodocs.StatusSuccess {
			m.DocumentsStored.WithLabelValues(name).Set(float64(res.DocumentCount))
		}
	}
	for _, name := range report.Pruned {
		m.DocumentsStored.DeleteLabelValues(name)
	}
}

// fetchResult labels a clone outcome.
func fetchResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case repodocs.ErrorCode(err) == repodocs.EBRANCH:
		return "branch"
	case repodocs.ErrorCode(err) == repodocs.ECLONE:
		return "clone"
	default:
		return "error"
	}
}

// Ensure Source implements repodocs.RepositorySource.
var _ repodocs.RepositorySource = (*Source)(nil)

// Source wraps a RepositorySource with clone metrics.
type Source struct {
	next    repodocs.RepositorySource
	metrics *Metrics
}

// NewSource creates a new Source.
func NewSource(next repodocs.RepositorySource, metrics *Metrics) *Source {
	return &Source{next: next, metrics: metrics}
}

func (s *Source) Fetch(ctx context.Context, cfg repodocs.RepositoryConfig, workDir string) (tree *repodocs.WorkingTree, err error) {
	defer func(begin time.Time) {
		s.metrics.FetchDuration.Observe(time.Since(begin).Seconds())
		s.metrics.FetchTotal.WithLabelValues(fetchResult(err)).Inc()
	}(time.Now())
	return s.next.Fetch(ctx, cfg, workDir)
}

// Ensure Store implements repodocs.DocumentStore.
var _ repodocs.DocumentStore = (*Store)(nil)

// Store wraps a DocumentStore and counts replacements.
type Store struct {
	repodocs.DocumentStore
	metrics *Metrics
}

// NewStore creates a new Store.
func NewStore(next repodocs.DocumentStore, metrics *Metrics) *Store {
	return &Store{DocumentStore: next, metrics: metrics}
}

func (s *Store) Replace(ctx context.Context, repo string, docs []*repodocs.Document) (*repodocs.ReplaceReport, error) {
	report, err := s.DocumentStore.Replace(ctx, repo, docs)
	if err != nil {
		s.metrics.ReplaceTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	s.metrics.ReplaceTotal.WithLabelValues("ok").Inc()
	s.metrics.DocumentsStored.WithLabelValues(repo).Set(float64(len(docs)))
	return report, nil
}

func (s *Store) DeleteRepo(ctx context.Context, repo string) (int, error) {
	n, err := s.DocumentStore.DeleteRepo(ctx, repo)
	if err == nil {
		s.metrics.DocumentsStored.DeleteLabelValues(repo)
	}
	return n, err
}
