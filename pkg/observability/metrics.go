package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCommitsScanned        = "exhume.commits.scanned"
	metricDeletionsFound        = "exhume.deletions.found"
	metricFilesRestored         = "exhume.files.restored"
	metricRestoreFailures       = "exhume.restore.failures"
	metricRepositoriesProcessed = "exhume.repositories.processed"
	metricRepositoryDuration    = "exhume.repository.duration.seconds"

	attrMode   = "mode"
	attrStatus = "status"

	// StatusOK marks a repository that was processed to the end.
	StatusOK = "ok"
	// StatusError marks a repository that could not be resolved or scanned.
	StatusError = "error"
)

// durationBucketBoundaries covers 10ms to 600s, from tiny local repos to large clones.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// RepositoryStats is the outcome of processing one repository.
type RepositoryStats struct {
	// Mode is "list" or "restore".
	Mode     string
	Status   string
	Duration time.Duration

	Commits   int
	Deletions int
	Restored  int
	Failed    int
}

// RunMetrics holds the OTel instruments describing an exhume run.
type RunMetrics struct {
	commitsScanned        metric.Int64Counter
	deletionsFound        metric.Int64Counter
	filesRestored         metric.Int64Counter
	restoreFailures       metric.Int64Counter
	repositoriesProcessed metric.Int64Counter
	repositoryDuration    metric.Float64Histogram
}

// NewRunMetrics creates the run instruments from the given meter.
func NewRunMetrics(mt metric.Meter) (*RunMetrics, error) {
	var (
		rm  RunMetrics
		err error
	)

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&rm.commitsScanned, metricCommitsScanned, "Commits examined for deletions", "{commit}"},
		{&rm.deletionsFound, metricDeletionsFound, "Deleted files that passed the filters", "{file}"},
		{&rm.filesRestored, metricFilesRestored, "Deleted files written to disk", "{file}"},
		{&rm.restoreFailures, metricRestoreFailures, "Deleted files that could not be restored", "{file}"},
		{&rm.repositoriesProcessed, metricRepositoriesProcessed, "Repositories processed", "{repository}"},
	}

	for _, c := range counters {
		*c.dst, err = mt.Int64Counter(c.name,
			metric.WithDescription(c.desc),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", c.name, err)
		}
	}

	rm.repositoryDuration, err = mt.Float64Histogram(metricRepositoryDuration,
		metric.WithDescription("Time spent on one repository in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRepositoryDuration, err)
	}

	return &rm, nil
}

// RecordRepository records the outcome of one repository.
func (rm *RunMetrics) RecordRepository(ctx context.Context, stats RepositoryStats) {
	modeAttr := metric.WithAttributes(attribute.String(attrMode, stats.Mode))

	rm.repositoriesProcessed.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrMode, stats.Mode),
		attribute.String(attrStatus, stats.Status),
	))
	rm.repositoryDuration.Record(ctx, stats.Duration.Seconds(), modeAttr)

	if stats.Commits > 0 {
		rm.commitsScanned.Add(ctx, int64(stats.Commits), modeAttr)
	}

	if stats.Deletions > 0 {
		rm.deletionsFound.Add(ctx, int64(stats.Deletions), modeAttr)
	}

	if stats.Restored > 0 {
		rm.filesRestored.Add(ctx, int64(stats.Restored))
	}

	if stats.Failed > 0 {
		rm.restoreFailures.Add(ctx, int64(stats.Failed))
	}
}
