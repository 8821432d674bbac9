package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"aircheck/internal/repository"
	"aircheck/internal/retention"
	"aircheck/internal/storage"
)

// CleanupResult summarizes one cleanup run.
type CleanupResult struct {
	// Reclaimed counts recordings fully removed (blob and metadata).
	Reclaimed int `json:"reclaimed"`
	// Skipped counts candidates another run claimed first or whose policy
	// changed between selection and claim.
	Skipped int `json:"skipped"`
	// Errors lists the IDs of recordings whose blob deletion failed; their
	// claims were released and metadata kept, so a future run retries them.
	Errors []string `json:"errors"`
}

// CleanupRunner is the narrow interface the HTTP layer and scheduler consume.
type CleanupRunner interface {
	RunCleanup(ctx context.Context, now time.Time) (*CleanupResult, error)
}

// CleanupConfig tunes the executor.
type CleanupConfig struct {
	// ClaimTTL bounds how long a claim survives a crashed run before another
	// run may take it over.
	ClaimTTL time.Duration
	// BatchSize caps the number of candidates fetched per run.
	BatchSize int
}

// CleanupMetrics holds the prometheus counters for cleanup runs.
type CleanupMetrics struct {
	reclaimed prometheus.Counter
	skipped   prometheus.Counter
	failed    prometheus.Counter
}

// NewCleanupMetrics registers the cleanup counters on the given registerer.
func NewCleanupMetrics(reg prometheus.Registerer) (*CleanupMetrics, error) {
	m := &CleanupMetrics{
		reclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cleanup_recordings_reclaimed_total",
			Help: "Total number of expired recordings reclaimed (blob and metadata removed).",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cleanup_recordings_skipped_total",
			Help: "Total number of cleanup candidates skipped because their claim was lost.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cleanup_recordings_failed_total",
			Help: "Total number of recordings whose blob deletion failed and will be retried.",
		}),
	}
	for _, c := range []prometheus.Counter{m.reclaimed, m.skipped, m.failed} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// CleanupExecutor finds all currently-expired recordings and reclaims them:
// claim, delete blob, delete metadata. It is safe to invoke repeatedly and
// concurrently; the per-recording claim lease is the sole concurrency
// control, guaranteeing at-most-once deletion.
type CleanupExecutor struct {
	recs    repository.RecordingRepository
	store   storage.Storage
	cfg     CleanupConfig
	metrics *CleanupMetrics
	logger  *slog.Logger
}

// NewCleanupExecutor constructs a CleanupExecutor. Metrics may be nil when
// no registry is wired (tests).
func NewCleanupExecutor(recs repository.RecordingRepository, store storage.Storage, cfg CleanupConfig, metrics *CleanupMetrics) *CleanupExecutor {
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = 5 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &CleanupExecutor{
		recs:    recs,
		store:   store,
		cfg:     cfg,
		metrics: metrics,
		logger:  slog.Default().With("component", "cleanup"),
	}
}

var _ CleanupRunner = (*CleanupExecutor)(nil)

// RunCleanup reclaims every recording expired at now. Failures are scoped to
// the affected recording: a blob-store error adds the id to Errors and
// releases the claim; nothing aborts the batch. Running twice with no new
// expirations yields Reclaimed = 0 the second time.
func (e *CleanupExecutor) RunCleanup(ctx context.Context, now time.Time) (*CleanupResult, error) {
	candidates, err := e.recs.ListExpired(ctx, now, e.cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	claimID := uuid.New().String()
	leaseUntil := now.Add(e.cfg.ClaimTTL)
	result := &CleanupResult{Errors: []string{}}

	for _, rec := range candidates {
		// Selection and claim both re-check expiry, but classify here keeps
		// the executor honest against the classifier contract.
		if retention.Classify(rec.ExpiresAt, now).State != retention.StateExpired {
			result.Skipped++
			continue
		}

		claimed, err := e.recs.Claim(ctx, rec.ID, claimID, now, leaseUntil)
		if err != nil {
			result.Errors = append(result.Errors, rec.ID)
			e.countFailed()
			e.logger.Error("claim failed", "recording_id", rec.ID, "error", err)
			continue
		}
		if !claimed {
			// Another run holds the lease, or the policy changed since
			// selection. Not an error.
			result.Skipped++
			e.countSkipped()
			continue
		}

		if err := e.store.Delete(ctx, rec.StoragePath); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			// Metadata must outlive an unresolved blob deletion; release the
			// claim so a future run retries.
			if relErr := e.recs.ReleaseClaim(ctx, rec.ID, claimID); relErr != nil {
				e.logger.Error("release claim failed", "recording_id", rec.ID, "error", relErr)
			}
			result.Errors = append(result.Errors, rec.ID)
			e.countFailed()
			e.logger.Error("blob delete failed", "recording_id", rec.ID, "error", err)
			continue
		}

		if err := e.recs.DeleteClaimed(ctx, rec.ID, claimID); err != nil {
			if errors.Is(err, repository.ErrNotClaimed) {
				// Lease expired mid-run; the blob is already gone and the
				// next holder's blob delete sees not-found, so this stays
				// idempotent.
				result.Skipped++
				e.countSkipped()
				continue
			}
			result.Errors = append(result.Errors, rec.ID)
			e.countFailed()
			e.logger.Error("metadata delete failed", "recording_id", rec.ID, "error", err)
			continue
		}

		result.Reclaimed++
		e.countReclaimed()
	}

	e.logger.Info("cleanup run finished",
		"reclaimed", result.Reclaimed,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)
	return result, nil
}

func (e *CleanupExecutor) countReclaimed() {
	if e.metrics != nil {
		e.metrics.reclaimed.Inc()
	}
}

func (e *CleanupExecutor) countSkipped() {
	if e.metrics != nil {
		e.metrics.skipped.Inc()
	}
}

func (e *CleanupExecutor) countFailed() {
	if e.metrics != nil {
		e.metrics.failed.Inc()
	}
}
