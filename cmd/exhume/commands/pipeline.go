package commands

import (
	"context"
	"fmt"
	"iter"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/exhume/pkg/gitlib"
	"github.com/Sumatoshi-tech/exhume/pkg/history"
	"github.com/Sumatoshi-tech/exhume/pkg/observability"
	"github.com/Sumatoshi-tech/exhume/pkg/resolve"
	"github.com/Sumatoshi-tech/exhume/pkg/sink"
)

// processRepository resolves one repository, scans it and feeds the chosen sink.
// A cloned working copy is removed before returning.
func (r *runner) processRepository(
	ctx context.Context, ref resolve.Reference, account bool,
) (stats observability.RepositoryStats, err error) {
	ctx, span := r.tracer.Start(ctx, "exhume.repository", trace.WithAttributes(
		attribute.String("repository", ref.Value),
		attribute.String("kind", ref.Kind.String()),
		attribute.String("mode", r.mode()),
	))

	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		span.End()
	}()

	if ref.Kind == resolve.KindURL {
		r.reporter.Info("Cloning %s into %s...", ref.Value, filepath.Join(r.cfg.Clone.Root, resolve.ShortName(ref)))
	} else {
		r.reporter.Info("Using local repo at %s...", ref.Value)
	}

	ws, err := r.resolver.Resolve(ctx, ref)
	if err != nil {
		return stats, err
	}

	defer r.cleanup(ctx, ws)

	repo, err := gitlib.OpenRepository(ws.Path)
	if err != nil {
		return stats, err
	}

	defer repo.Free()

	selection, err := history.Select(repo, r.criteria.OldestPercent)
	if err != nil {
		return stats, err
	}

	defer selection.Release()

	r.logger.InfoContext(ctx, "selected commits",
		"repository", ws.Name, "selected", len(selection.Commits), "total", selection.Total)

	scanner := history.NewScanner(repo, r.criteria, r.logger)
	scanner.OnCommit = func(done, total int) {
		r.reporter.Progress("Scanning "+ws.Name, done, total)
	}

	scanCtx, scanSpan := r.tracer.Start(ctx, "exhume.scan")
	deletions := afterLast(scanner.Scan(scanCtx, selection.Commits), r.reporter.Done)

	if r.listOnly {
		err = r.list(deletions)
	} else {
		err = r.restore(scanCtx, repo, ws, account, deletions, &stats)
	}

	scanStats := scanner.Stats()
	scanSpan.SetAttributes(
		attribute.Int("commits", scanStats.Commits),
		attribute.Int("skipped", scanStats.Skipped),
		attribute.Int("deletions", scanStats.Deletions),
	)
	scanSpan.End()

	stats.Commits = scanStats.Commits
	stats.Deletions = scanStats.Deletions

	return stats, err
}

func (r *runner) list(deletions iter.Seq[history.Deletion]) error {
	r.reporter.Info("Listing deleted files with size info...")

	_, err := sink.List(r.stdout, r.format, deletions)

	return err
}

func (r *runner) restore(
	ctx context.Context,
	repo *gitlib.Repository,
	ws *resolve.Workspace,
	account bool,
	deletions iter.Seq[history.Deletion],
	stats *observability.RepositoryStats,
) error {
	dir := r.restoreDir(ws.Name, account)

	ctx, span := r.tracer.Start(ctx, "exhume.restore", trace.WithAttributes(attribute.String("output_dir", dir)))
	defer span.End()

	r.reporter.Info("Restoring to %s...", dir)

	restorer := sink.NewRestorer(repo, dir, r.reporter, r.logger)
	restorer.ManifestName = r.cfg.Output.Manifest
	restorer.RepositoryName = ws.Name

	summary, err := restorer.Restore(ctx, deletions)

	stats.Restored = summary.Restored
	stats.Failed = summary.Failed

	span.SetAttributes(
		attribute.Int("restored", summary.Restored),
		attribute.Int("failed", summary.Failed),
	)

	if err != nil {
		return fmt.Errorf("restore %s: %w", ws.Name, err)
	}

	return nil
}

// restoreDir is --output-dir for a single repository. In account mode every repository
// gets its own <name>_restored directory below it.
func (r *runner) restoreDir(name string, account bool) string {
	switch {
	case r.outputDir == "":
		return filepath.Join(r.cfg.Output.Root, name+restoredSuffix)
	case account:
		return filepath.Join(r.outputDir, name+restoredSuffix)
	default:
		return r.outputDir
	}
}

func (r *runner) cleanup(ctx context.Context, ws *resolve.Workspace) {
	if !ws.Cloned {
		return
	}

	err := ws.Cleanup()
	if err != nil {
		r.reporter.Failure("Could not remove cloned repo %s: %v", ws.Path, err)
		r.logger.WarnContext(ctx, "cleanup failed", "dir", ws.Path, "error", err)

		return
	}

	r.reporter.Info("Removed cloned repo %s", ws.Path)
}

// afterLast runs fn once seq is exhausted or abandoned.
func afterLast[T any](seq iter.Seq[T], fn func()) iter.Seq[T] {
	return func(yield func(T) bool) {
		defer fn()

		for v := range seq {
			if !yield(v) {
				return
			}
		}
	}
}
