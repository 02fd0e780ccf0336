package sink_test

import (
	"fmt"
	"iter"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/exhume/pkg/gitlib"
	"github.com/Sumatoshi-tech/exhume/pkg/gitlib/gitlibtest"
)

// recorder is a Reporter that keeps every message.
type recorder struct {
	infos     []string
	successes []string
	failures  []string
	progress  int
	done      int
}

func (r *recorder) Info(format string, args ...any) {
	r.infos = append(r.infos, fmt.Sprintf(format, args...))
}

func (r *recorder) Success(format string, args ...any) {
	r.successes = append(r.successes, fmt.Sprintf(format, args...))
}

func (r *recorder) Failure(format string, args ...any) {
	r.failures = append(r.failures, fmt.Sprintf(format, args...))
}

func (r *recorder) Progress(string, int, int) { r.progress++ }

func (r *recorder) Done() { r.done++ }

func openRepo(t *testing.T, fixture *gitlibtest.Repo) *gitlib.Repository {
	t.Helper()

	repo, err := gitlib.OpenRepository(fixture.Path)
	require.NoError(t, err)

	t.Cleanup(repo.Free)

	return repo
}

func seq[T any](items ...T) iter.Seq[T] {
	return slices.Values(items)
}
