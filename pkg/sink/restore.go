package sink

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sumatoshi-tech/exhume/pkg/gitlib"
	"github.com/Sumatoshi-tech/exhume/pkg/history"
	"github.com/Sumatoshi-tech/exhume/pkg/textutil"
)

const artifactSeparator = "___"

// ArtifactName is the file name a deletion is restored to: the full commit hash, a
// separator and the original path with slashes turned into underscores.
// Paths that differ only by '/' versus '_' map to the same name.
func ArtifactName(commit gitlib.Hash, filePath string) string {
	return commit.String() + artifactSeparator + strings.ReplaceAll(filePath, "/", "_")
}

// RestoreSummary counts the outcome of a restore run.
type RestoreSummary struct {
	Restored int
	Failed   int
	// Manifest is the path of the written manifest, empty when none was written.
	Manifest string
}

// Restorer writes the pre-deletion contents of each deletion into an output directory.
type Restorer struct {
	repo     *gitlib.Repository
	dir      string
	reporter Reporter
	logger   *slog.Logger

	// ManifestName is the manifest file created in the output directory. Empty disables it.
	ManifestName string
	// RepositoryName is recorded in the manifest.
	RepositoryName string
	// OnRestore, when set, is called after each file with its outcome.
	OnRestore func(d history.Deletion, err error)
}

// NewRestorer creates a restorer writing into dir. A nil logger discards log records.
func NewRestorer(repo *gitlib.Repository, dir string, reporter Reporter, logger *slog.Logger) *Restorer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Restorer{
		repo:         repo,
		dir:          dir,
		reporter:     reporter,
		logger:       logger,
		ManifestName: DefaultManifestName,
	}
}

// Restore writes every deletion, overwriting existing artifacts. A file that cannot be
// restored is reported and skipped. Only failing to create the output directory is fatal.
func (r *Restorer) Restore(ctx context.Context, deletions iter.Seq[history.Deletion]) (RestoreSummary, error) {
	var summary RestoreSummary

	err := os.MkdirAll(r.dir, 0o755)
	if err != nil {
		return summary, fmt.Errorf("create output directory: %w", err)
	}

	manifest := &Manifest{Repository: r.RepositoryName, Artifacts: []ManifestEntry{}}

	for d := range deletions {
		entry, restoreErr := r.restoreOne(d)

		if r.OnRestore != nil {
			r.OnRestore(d, restoreErr)
		}

		if restoreErr != nil {
			summary.Failed++

			r.reporter.Failure("Failed to restore: %s", d.Path)
			r.logger.WarnContext(ctx, "restore failed",
				"commit", d.Commit.String(), "path", d.Path, "error", restoreErr)

			continue
		}

		summary.Restored++

		manifest.Artifacts = append(manifest.Artifacts, entry)
		r.reporter.Success("%s -> %s", d.Path, filepath.Join(r.dir, entry.Artifact))
	}

	if r.ManifestName == "" {
		return summary, nil
	}

	manifestPath := filepath.Join(r.dir, r.ManifestName)

	err = manifest.Save(manifestPath)
	if err != nil {
		r.reporter.Failure("Failed to write manifest: %s", manifestPath)
		r.logger.ErrorContext(ctx, "manifest write failed", "path", manifestPath, "error", err)

		return summary, nil
	}

	summary.Manifest = manifestPath

	return summary, nil
}

func (r *Restorer) restoreOne(d history.Deletion) (ManifestEntry, error) {
	blob, err := r.repo.LookupBlob(d.Blob)
	if err != nil {
		return ManifestEntry{}, err
	}
	defer blob.Free()

	data := blob.Contents()
	name := ArtifactName(d.Commit, d.Path)

	err = os.WriteFile(filepath.Join(r.dir, name), data, 0o644)
	if err != nil {
		return ManifestEntry{}, fmt.Errorf("write artifact: %w", err)
	}

	sum := sha256.Sum256(data)

	entry := ManifestEntry{
		Commit:   d.Commit.String(),
		Path:     d.Path,
		Size:     int64(len(data)),
		Artifact: name,
		SHA256:   hex.EncodeToString(sum[:]),
		Binary:   textutil.IsBinary(data),
	}

	if !entry.Binary {
		entry.Lines = textutil.CountLines(data)
	}

	return entry, nil
}
