package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lightpivot/internal/logging"
	"github.com/aretw0/lightpivot/pkg/adapters/redis"
	"github.com/aretw0/lightpivot/pkg/config"
	"github.com/aretw0/lightpivot/pkg/domain"
	"github.com/aretw0/lightpivot/pkg/mdx"
)

const base = "SELECT [Measures].[Amount] ON 0, [Date].[Year].Members ON 1 FROM [Sales]"

func pivot(path string) *domain.Result {
	return &domain.Result{
		DataArray:  []any{1.0, 2.0},
		Dimensions: [][]domain.Member{{{Caption: "Amount"}}, {{Caption: "Q1", Path: path}}},
		Info:       &domain.Info{LeftHeaderColumnsNumber: 1, TopHeaderRowsNumber: 1},
		RawData:    [][]any{{"", "Amount"}, {"Q1", 1.0}, {"Q2", 2.0}},
	}
}

func writeFixtures(t *testing.T) string {
	t.Helper()
	results := map[string]*domain.Result{
		base: pivot("root"),
		mdx.New().DrillDown(base, "[Date].&[2020]", ""): pivot("P1"),
	}
	data, err := json.Marshal(results)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "fixtures.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pivot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pagination: 50
locale: de
dataSource:
  server: http://cube:57772/MDX2JSON
  basicMDX: SELECT 1 ON 0 FROM [Old]
`), 0644))

	cfg, err := LoadConfig(Options{ConfigPath: path, MDX: base, Namespace: "SAMPLES"})
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Pagination)
	assert.Equal(t, "de", cfg.Locale)
	assert.Equal(t, "http://cube:57772/MDX2JSON", cfg.DataSource.Server)
	assert.Equal(t, base, cfg.DataSource.BasicMDX)
	assert.Equal(t, "SAMPLES", cfg.DataSource.Namespace)

	cfg, err = LoadConfig(Options{Server: "http://other", Locale: "ru"})
	require.NoError(t, err)
	assert.Equal(t, config.Default().Pagination, cfg.Pagination)
	assert.Equal(t, "http://other", cfg.DataSource.Server)
	assert.Equal(t, "ru", cfg.Locale)

	_, err = LoadConfig(Options{ConfigPath: filepath.Join(dir, "missing.yaml")})
	assert.Error(t, err)
}

func TestNewFetcher(t *testing.T) {
	logger := logging.NewNop()

	_, _, err := newFetcher(config.Default(), Options{}, logger)
	assert.ErrorIs(t, err, domain.ErrNoServer)

	_, _, err = newFetcher(config.Default(), Options{Fixtures: filepath.Join(t.TempDir(), "none.json")}, logger)
	assert.Error(t, err)

	fixtures := writeFixtures(t)
	f, closer, err := newFetcher(config.Default(), Options{Fixtures: fixtures}, logger)
	require.NoError(t, err)
	require.NoError(t, closer())
	result, err := f.Fetch(context.Background(), base)
	require.NoError(t, err)
	assert.Equal(t, "root", result.Dimensions[1][0].Path)

	mr := miniredis.RunT(t)
	f, closer, err = newFetcher(config.Default(), Options{Fixtures: fixtures, RedisURL: mr.Addr()}, logger)
	require.NoError(t, err)
	cache, ok := f.(*redis.Cache)
	require.True(t, ok)
	_, err = cache.Fetch(context.Background(), base)
	require.NoError(t, err)
	keys, err := cache.Keys(context.Background())
	require.NoError(t, err)
	assert.Len(t, keys, 1)
	require.NoError(t, closer())

	_, _, err = newFetcher(config.Default(), Options{Fixtures: fixtures, RedisURL: "redis://localhost:6379/notanumber"}, logger)
	assert.Error(t, err)
}

func TestLoadFixturesRejectsEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))
	_, err := loadFixtures(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`[`), 0644))
	_, err = loadFixtures(path)
	assert.Error(t, err)
}

func TestExecute_Console(t *testing.T) {
	var out bytes.Buffer
	err := Execute(RunOptions{
		Options: Options{Fixtures: writeFixtures(t), MDX: base},
		Input:   strings.NewReader("down [Date].&[2020]\nback\nquit\n"),
		Output:  &out,
		Width:   60,
	})
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "|___/")
	assert.Contains(t, got, "Drilled into P1 (level 1)")
	assert.Contains(t, got, ">>> committed (level 1)")
	assert.Contains(t, got, ">>> committed (level 0)")
	assert.Contains(t, got, "Amount")
}

func TestExecute_ReportsSetupErrors(t *testing.T) {
	err := Execute(RunOptions{
		Options: Options{MDX: base},
		Input:   strings.NewReader(""),
		Output:  io.Discard,
		Quiet:   true,
	})
	assert.ErrorIs(t, err, domain.ErrNoServer)
}

func TestInterruptibleReader(t *testing.T) {
	cancel := make(chan struct{})
	r := NewInterruptibleReader(strings.NewReader("abc"), cancel)

	buf := make([]byte, 3)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	close(cancel)
	_, err = r.Read(buf)
	assert.True(t, isInterrupted(err))
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, handleExecutionError(nil))
	assert.NoError(t, handleExecutionError(context.Canceled))
	assert.NoError(t, handleExecutionError(io.EOF))
	assert.NoError(t, handleExecutionError(errors.Join(errors.New("input error"), errInterrupted)))

	boom := errors.New("boom")
	assert.Equal(t, boom, handleExecutionError(boom))
}

func TestDebugHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := DebugHooks(logging.NewWithWriter(&buf, slog.LevelDebug))
	ev := &domain.StepEvent{Step: domain.StepDrillDown, Level: 2, Outcome: domain.OutcomeRolledBack, Err: domain.ErrInvalidData}

	hooks.OnFetch(context.Background(), ev)
	hooks.OnCommit(context.Background(), ev)
	hooks.OnRollback(context.Background(), ev)

	out := buf.String()
	assert.Contains(t, out, "msg=Fetch")
	assert.Contains(t, out, "msg=Commit")
	assert.Contains(t, out, "msg=Rollback")
	assert.Contains(t, out, "outcome=rolled_back")
}

func TestPrintSystemMessage(t *testing.T) {
	var buf bytes.Buffer
	PrintSystemMessage(&buf, "level %d", 3)
	assert.Equal(t, ">>> level 3\n", buf.String())
}
