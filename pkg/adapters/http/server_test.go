package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lightpivot/internal/runtime"
	lphttp "github.com/aretw0/lightpivot/pkg/adapters/http"
	"github.com/aretw0/lightpivot/pkg/adapters/memory"
	"github.com/aretw0/lightpivot/pkg/config"
	"github.com/aretw0/lightpivot/pkg/datasource"
	"github.com/aretw0/lightpivot/pkg/domain"
	"github.com/aretw0/lightpivot/pkg/mdx"
)

const base = "SELECT [Measures].[Amount] ON 0, [Date].[Year].Members ON 1 FROM [Sales]"

func result(path string) *domain.Result {
	return &domain.Result{
		DataArray:  []any{1, 2},
		Dimensions: [][]domain.Member{{{Caption: "Amount"}}, {{Caption: "Q1", Path: path}}},
		Info:       &domain.Info{LeftHeaderColumnsNumber: 1, TopHeaderRowsNumber: 1},
		RawData:    [][]any{{"", "Amount"}, {"Q1", 1}, {"Q2", 2}},
	}
}

func newServer(t *testing.T) (*lphttp.Server, *memory.View) {
	t.Helper()
	b := mdx.New()
	fetcher := memory.NewFetcher(map[string]*domain.Result{base: result("root")})
	fetcher.Add(b.DrillDown(base, "[Date].&[2020]", ""), result("P1"))
	fetcher.Add(b.DrillThrough(base, nil, ""), result("L1"))

	cfg := config.Default()
	cfg.DataSource.BasicMDX = base
	cfg.PivotProperties = map[string]any{"columnsWidth": map[string]any{"Amount": 120}}

	view := memory.NewView()
	var srv *lphttp.Server
	hooks := domain.LifecycleHooks{
		OnCommit:   func(ctx context.Context, e *domain.StepEvent) { srv.Hooks().OnCommit(ctx, e) },
		OnRollback: func(ctx context.Context, e *domain.StepEvent) { srv.Hooks().OnRollback(ctx, e) },
	}
	nav := runtime.NewNavigator(cfg, b, datasource.NewFactory(b, fetcher), memory.NewStore(), view,
		runtime.WithLifecycleHooks(hooks))
	srv = lphttp.NewServer(nav, lphttp.WithVersion("1.2.3\n"))
	return srv, view
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeStep(t *testing.T, w *httptest.ResponseRecorder) lphttp.StepResponse {
	t.Helper()
	var resp lphttp.StepResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestServer_Navigation(t *testing.T) {
	srv, _ := newServer(t)
	h := srv.Routes()

	w := do(t, h, http.MethodPost, "/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.OutcomeCommitted, decodeStep(t, w).Outcome)

	w = do(t, h, http.MethodPost, "/drill-down", map[string]string{"filter": "[Date].&[2020]"})
	require.Equal(t, http.StatusOK, w.Code)
	step := decodeStep(t, w)
	assert.Equal(t, domain.OutcomeCommitted, step.Outcome)
	assert.Equal(t, 1, step.State.Level)

	w = do(t, h, http.MethodPost, "/drill-down", map[string]string{"filter": "[Date].&[1999]"})
	assert.Equal(t, domain.OutcomeRolledBack, decodeStep(t, w).Outcome)

	w = do(t, h, http.MethodPost, "/back", nil)
	step = decodeStep(t, w)
	assert.Equal(t, domain.OutcomeCommitted, step.Outcome)
	assert.Equal(t, 1, step.State.Depth)

	w = do(t, h, http.MethodPost, "/back", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, domain.OutcomeRejected, decodeStep(t, w).Outcome)
}

func TestServer_DrillThroughRejectsScalarFilters(t *testing.T) {
	srv, _ := newServer(t)

	w := do(t, srv.Routes(), http.MethodPost, "/drill-through", map[string]any{"filters": "[Date].&[2020]"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestServer_DrillThroughWithoutFilters(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"empty body", nil},
		{"absent filters", map[string]any{}},
		{"null filters", map[string]any{"filters": nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, view := newServer(t)

			w := do(t, srv.Routes(), http.MethodPost, "/drill-through", tt.body)

			require.Equal(t, http.StatusOK, w.Code)
			step := decodeStep(t, w)
			assert.Equal(t, domain.OutcomeCommitted, step.Outcome)
			assert.Equal(t, 2, step.State.Depth)
			assert.True(t, view.Top().Options.DisableConditionalFormatting)
		})
	}
}

func TestServer_FiltersAndRowCount(t *testing.T) {
	srv, _ := newServer(t)
	h := srv.Routes()
	b := mdx.New()

	w := do(t, h, http.MethodPost, "/filters", map[string]string{"filter": "F1"})
	require.Equal(t, http.StatusOK, w.Code)
	var snap domain.Snapshot
	require.NoError(t, json.NewDecoder(w.Body).Decode(&snap))
	assert.Equal(t, []string{"F1"}, snap.Filters)

	w = do(t, h, http.MethodPut, "/row-count", map[string]int{"rowCount": 10})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/query", nil)
	var q map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&q))
	assert.Equal(t, b.ApplyRowCount(b.ApplyFilter(base, "F1"), 10), q["query"])

	w = do(t, h, http.MethodDelete, "/filters", nil)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&snap))
	assert.Empty(t, snap.Filters)

	w = do(t, h, http.MethodPost, "/filters", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_Reads(t *testing.T) {
	srv, view := newServer(t)
	h := srv.Routes()

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/model", nil).Code)
	do(t, h, http.MethodPost, "/refresh", nil)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/model", nil).Code)

	w := do(t, h, http.MethodGet, "/rows?rows=1,5", nil)
	var rows [][]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rows))
	require.Len(t, rows, 2)
	assert.Equal(t, []any{"Q1", float64(1)}, rows[0])
	assert.Nil(t, rows[1])
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/rows?rows=x", nil).Code)

	view.Select(2, true)
	w = do(t, h, http.MethodGet, "/selected-rows", nil)
	assert.JSONEq(t, `[2]`, w.Body.String())

	w = do(t, h, http.MethodGet, "/pivot-properties?path=columnsWidth.Amount", nil)
	assert.JSONEq(t, `{"path":"columnsWidth.Amount","value":120}`, w.Body.String())
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/pivot-properties?path=columnsWidth.Other", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/pivot-properties", nil).Code)

	w = do(t, h, http.MethodGet, "/info", nil)
	assert.JSONEq(t, `{"app":"lightpivot-http","version":"1.2.3"}`, w.Body.String())
	w = do(t, h, http.MethodGet, "/health", nil)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodOptions, "/refresh", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_SubscribeEvents(t *testing.T) {
	srv, _ := newServer(t)
	h := srv.Routes()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wSub := httptest.NewRecorder()
	reqSub := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(wSub, reqSub)
	}()

	time.Sleep(100 * time.Millisecond)
	do(t, h, http.MethodPost, "/refresh", nil)
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	output := wSub.Body.String()
	assert.Contains(t, output, "event: ping")
	assert.True(t, strings.Contains(output, `"step":"refresh"`), output)
	assert.Contains(t, output, `"outcome":"committed"`)
}
