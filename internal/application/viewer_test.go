package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pcb-inspector/config"
	"pcb-inspector/internal/domain/entity"
	"pcb-inspector/internal/infrastructure/catalog"
	"pcb-inspector/internal/infrastructure/openrouter"
	"pcb-inspector/internal/infrastructure/storage"
)

type fakeLoader struct {
	calls   int32
	err     error
	panics  bool
	started chan struct{} // closed on first call when set
	release chan struct{} // Load waits on it when set
	once    sync.Once
}

func (f *fakeLoader) Load(ctx context.Context, ref string) (entity.ImagePayload, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.started != nil {
		f.once.Do(func() { close(f.started) })
	}
	if f.release != nil {
		<-f.release
	}
	if f.panics {
		panic("decoder exploded")
	}
	if err := ctx.Err(); err != nil {
		return entity.ImagePayload{}, &entity.LoadError{Ref: ref, Err: err}
	}
	if f.err != nil {
		return entity.ImagePayload{}, f.err
	}
	return entity.ImagePayload{MIMEType: "image/png", Data: []byte(ref)}, nil
}

type fakeInspector struct {
	calls    int32
	readyErr error
	report   string
	err      error
	panics   bool
}

func (f *fakeInspector) Ready() error { return f.readyErr }

func (f *fakeInspector) Inspect(ctx context.Context, payload entity.ImagePayload) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.panics {
		panic("nil map")
	}
	return f.report, f.err
}

func testCatalog(t *testing.T) *catalog.Static {
	t.Helper()
	c, err := catalog.New([]entity.TestCase{
		{ID: 1, Name: "Case #001", PrimaryImage: "p1", ReferenceImage: "r1", DefectImage: "d1"},
		{ID: 2, Name: "Case #002", PrimaryImage: "p2", ReferenceImage: "r2", DefectImage: "d2"},
		{ID: 3, Name: "Case #003", PrimaryImage: "p3", ReferenceImage: "r3", DefectImage: "d3"},
	})
	require.NoError(t, err)
	return c
}

func newTestViewer(t *testing.T, loader *fakeLoader, inspector interface {
	Ready() error
	Inspect(context.Context, entity.ImagePayload) (string, error)
}) *Viewer {
	t.Helper()
	return NewViewer(testCatalog(t), loader, inspector, storage.NewMemorySessionRepository(), time.Minute, zap.NewNop())
}

// openRouter starts a fake endpoint and returns a real client for it plus a call counter.
func openRouter(t *testing.T, key string, status int, body string) (*openrouter.Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client := openrouter.NewClient(config.OpenRouterConfig{
		APIKey:  key,
		BaseURL: srv.URL,
		Model:   "test/model",
		Timeout: 5 * time.Second,
	}, zap.NewNop())
	return client, &calls
}

func TestViewer_NavigationIsCyclic(t *testing.T) {
	v := newTestViewer(t, &fakeLoader{}, &fakeInspector{})
	ctx := context.Background()
	n := v.Catalog().Len()

	for start := 1; start <= n; start++ {
		view, err := v.Select(ctx, 1, start)
		require.NoError(t, err)
		startIndex := view.Session.CaseIndex

		for i := 0; i < n; i++ {
			view, err = v.Next(ctx, 1)
			require.NoError(t, err)
		}
		require.Equal(t, startIndex, view.Session.CaseIndex)

		_, err = v.Next(ctx, 1)
		require.NoError(t, err)
		view, err = v.Previous(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, startIndex, view.Session.CaseIndex)
	}
}

func TestViewer_WrapsAtBothEnds(t *testing.T) {
	v := newTestViewer(t, &fakeLoader{}, &fakeInspector{})
	ctx := context.Background()

	view, err := v.Previous(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 3, view.Case.ID)
	require.Equal(t, 3, view.Total)

	view, err = v.Next(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, view.Case.ID)
}

func TestViewer_NavigationResetsState(t *testing.T) {
	v := newTestViewer(t, &fakeLoader{}, &fakeInspector{report: "ok"})
	ctx := context.Background()

	_, err := v.ToggleDefect(ctx, 1)
	require.NoError(t, err)
	_, err = v.ToggleReference(ctx, 1)
	require.NoError(t, err)
	view, err := v.RunInspection(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, entity.PhaseCompleted, view.Session.Phase)

	for _, move := range []func(context.Context, int64) (*View, error){v.Next, v.Previous} {
		_, err = v.ToggleDefect(ctx, 1)
		require.NoError(t, err)

		view, err = move(ctx, 1)
		require.NoError(t, err)
		assert.False(t, view.Session.ShowDefect)
		assert.False(t, view.Session.ShowReference)
		assert.Equal(t, entity.PhaseIdle, view.Session.Phase)
		assert.Empty(t, view.Session.Report)
		assert.Empty(t, view.Session.ErrorDetail)
	}
}

func TestViewer_TogglesAreIndependent(t *testing.T) {
	v := newTestViewer(t, &fakeLoader{}, &fakeInspector{err: &entity.InspectionError{Message: "down"}})
	ctx := context.Background()

	before, err := v.RunInspection(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, entity.PhaseFailed, before.Session.Phase)

	after, err := v.ToggleReference(ctx, 1)
	require.NoError(t, err)
	want := before.Session
	want.ShowReference = true
	require.Empty(t, cmp.Diff(want, after.Session))

	again, err := v.ToggleDefect(ctx, 1)
	require.NoError(t, err)
	want.ShowDefect = true
	require.Empty(t, cmp.Diff(want, again.Session))

	back, err := v.ToggleReference(ctx, 1)
	require.NoError(t, err)
	want.ShowReference = false
	require.Empty(t, cmp.Diff(want, back.Session))
}

func TestViewer_RunWithoutCredentialMakesNoCalls(t *testing.T) {
	client, calls := openRouter(t, "", http.StatusOK, `{"choices":[{"message":{"content":"x"}}]}`)
	loader := &fakeLoader{}
	v := newTestViewer(t, loader, client)

	view, err := v.RunInspection(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, entity.PhaseFailed, view.Session.Phase)
	assert.Equal(t, openrouter.MissingKeyMessage, view.Session.ErrorDetail)
	assert.Empty(t, view.Session.Report)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
	assert.Equal(t, int32(0), atomic.LoadInt32(&loader.calls))
}

func TestViewer_RunWithFailingLoad(t *testing.T) {
	loadErr := &entity.LoadError{Ref: "p1", Err: errors.New("no such file")}
	loader := &fakeLoader{err: loadErr}
	inspector := &fakeInspector{report: "never"}
	v := newTestViewer(t, loader, inspector)

	view, err := v.RunInspection(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, entity.PhaseFailed, view.Session.Phase)
	assert.Equal(t, loadErr.Error(), view.Session.ErrorDetail)
	assert.Equal(t, int32(0), atomic.LoadInt32(&inspector.calls))
}

func TestViewer_RunOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantPhase  entity.AnalysisPhase
		wantReport string
		wantError  string
	}{
		{
			name:       "report",
			status:     http.StatusOK,
			body:       `{"choices":[{"message":{"content":"检测到短路缺陷。"}}]}`,
			wantPhase:  entity.PhaseCompleted,
			wantReport: "检测到短路缺陷。",
		},
		{
			name:       "empty choices",
			status:     http.StatusOK,
			body:       `{"choices":[]}`,
			wantPhase:  entity.PhaseCompleted,
			wantReport: openrouter.NoAnalysisText,
		},
		{
			name:      "rate limited",
			status:    http.StatusTooManyRequests,
			body:      `{"error":{"message":"rate limited"}}`,
			wantPhase: entity.PhaseFailed,
			wantError: "rate limited",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, calls := openRouter(t, "sk-test", tt.status, tt.body)
			loader := &fakeLoader{}
			v := newTestViewer(t, loader, client)

			view, err := v.RunInspection(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPhase, view.Session.Phase)
			assert.Equal(t, tt.wantReport, view.Session.Report)
			assert.Equal(t, tt.wantError, view.Session.ErrorDetail)
			assert.False(t, view.Session.CompletedAt.IsZero())
			assert.Equal(t, int32(1), atomic.LoadInt32(calls))
			assert.Equal(t, int32(1), atomic.LoadInt32(&loader.calls))
		})
	}
}

func TestViewer_NeverStuckRunning(t *testing.T) {
	tests := []struct {
		name      string
		loader    *fakeLoader
		inspector *fakeInspector
	}{
		{"loader panics", &fakeLoader{panics: true}, &fakeInspector{}},
		{"inspector panics", &fakeLoader{}, &fakeInspector{panics: true}},
		{"unclassified error", &fakeLoader{}, &fakeInspector{err: errors.New("weird")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestViewer(t, tt.loader, tt.inspector)

			view, err := v.RunInspection(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, entity.PhaseFailed, view.Session.Phase)
			assert.Equal(t, UnknownFailureText, view.Session.ErrorDetail)

			current, err := v.Current(context.Background(), 1)
			require.NoError(t, err)
			assert.False(t, current.Session.Running())
		})
	}
}

func TestViewer_CancelledCallerStillSettles(t *testing.T) {
	v := newTestViewer(t, &fakeLoader{}, &fakeInspector{report: "ok"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	view, err := v.RunInspection(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, entity.PhaseFailed, view.Session.Phase)
	assert.Contains(t, view.Session.ErrorDetail, context.Canceled.Error())
}

func TestViewer_RejectsSecondRun(t *testing.T) {
	loader := &fakeLoader{started: make(chan struct{}), release: make(chan struct{})}
	v := newTestViewer(t, loader, &fakeInspector{report: "first"})
	ctx := context.Background()

	done := make(chan *View)
	go func() {
		view, _ := v.RunInspection(ctx, 1)
		done <- view
	}()
	<-loader.started

	view, err := v.RunInspection(ctx, 1)
	require.ErrorIs(t, err, ErrInspectionRunning)
	require.NotNil(t, view)
	assert.Equal(t, entity.PhaseRunning, view.Session.Phase)

	close(loader.release)
	first := <-done
	assert.Equal(t, entity.PhaseCompleted, first.Session.Phase)
	assert.Equal(t, "first", first.Session.Report)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loader.calls))
}

func TestViewer_DiscardsStaleResult(t *testing.T) {
	loader := &fakeLoader{started: make(chan struct{}), release: make(chan struct{})}
	v := newTestViewer(t, loader, &fakeInspector{report: "for case 1"})
	ctx := context.Background()

	done := make(chan *View)
	go func() {
		view, _ := v.RunInspection(ctx, 1)
		done <- view
	}()
	<-loader.started

	moved, err := v.Next(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 2, moved.Case.ID)
	require.Equal(t, entity.PhaseIdle, moved.Session.Phase)

	close(loader.release)
	settled := <-done
	assert.Equal(t, 2, settled.Case.ID)
	assert.Equal(t, entity.PhaseIdle, settled.Session.Phase)
	assert.Empty(t, settled.Session.Report)
}

func TestViewer_SelectUnknownCase(t *testing.T) {
	v := newTestViewer(t, &fakeLoader{}, &fakeInspector{})

	_, err := v.Select(context.Background(), 1, 99)
	require.ErrorIs(t, err, ErrCaseNotFound)
}

func TestViewer_SessionsAreIndependent(t *testing.T) {
	v := newTestViewer(t, &fakeLoader{}, &fakeInspector{report: "ok"})
	ctx := context.Background()

	_, err := v.Next(ctx, 1)
	require.NoError(t, err)
	_, err = v.RunInspection(ctx, 1)
	require.NoError(t, err)

	other, err := v.Current(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, other.Case.ID)
	assert.Equal(t, entity.PhaseIdle, other.Session.Phase)
}

func TestFailureText(t *testing.T) {
	assert.Equal(t, "cfg", failureText(&entity.ConfigurationError{Message: "cfg"}))
	assert.Equal(t, "load image x: gone", failureText(&entity.LoadError{Ref: "x", Err: errors.New("gone")}))
	assert.Equal(t, "rate limited", failureText(fmt.Errorf("inspect: %w", &entity.InspectionError{Message: "rate limited"})))
	assert.Equal(t, UnknownFailureText, failureText(&entity.InspectionError{}))
	assert.Equal(t, UnknownFailureText, failureText(errors.New("other")))
}
