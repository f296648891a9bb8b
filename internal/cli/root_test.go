package cli

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobwatch-go/internal/app"
	"jobwatch-go/internal/config"
)

type fixedFetcher []string

func (f fixedFetcher) Source() string { return "fixed" }

func (f fixedFetcher) Fetch(ctx context.Context, target string) ([]string, error) {
	return f, nil
}

func loaderFor(t *testing.T, dir string, listings ...string) AppLoader {
	return func(ctx context.Context, out io.Writer) (*app.App, error) {
		cfg := config.Defaults()
		cfg.TargetURL = "https://example.com/jobs"
		cfg.SnapshotDir = dir
		return app.NewBuilder(&cfg, app.WithFetcher(fixedFetcher(listings)), app.WithStdout(out)).Build(ctx)
	}
}

func run(t *testing.T, load AppLoader, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(load)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestCheckThenLatestAndHistory(t *testing.T) {
	dir := t.TempDir()

	assert.Equal(t, "no snapshot yet\n", run(t, loaderFor(t, dir), "latest"))

	out := run(t, loaderFor(t, dir, "Engineer A", "Engineer B"), "check")
	assert.Contains(t, out, "outcome: BaselineEstablished\n")
	assert.Contains(t, out, "(2 listings)")

	out = run(t, loaderFor(t, dir, "Engineer A", "Engineer B"), "check")
	assert.Equal(t, "outcome: NoChange\n", out)

	out = run(t, loaderFor(t, dir, "Engineer A", "Engineer C"), "check")
	assert.Contains(t, out, "  - Engineer C\n")
	assert.Contains(t, out, "outcome: UpdatedAndNotified\n")

	out = run(t, loaderFor(t, dir), "latest")
	assert.Contains(t, out, "  Engineer A\n  Engineer C\n")

	out = run(t, loaderFor(t, dir), "history")
	assert.Equal(t, 2, bytes.Count([]byte(out), []byte("listings\n")))
}

func TestCheckWithEmptyFetchReportsReason(t *testing.T) {
	out := run(t, loaderFor(t, t.TempDir()), "check")
	assert.Contains(t, out, "outcome: NoListingsFound\n")
	assert.Contains(t, out, "reason: fetch returned no listings\n")
}
