package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobwatch-go/internal/model"
)

type fakeChecker struct {
	ran      chan struct{}
	running  bool
	latest   *model.Snapshot
	history  []model.Snapshot
	storeErr error
}

func (f *fakeChecker) Run(ctx context.Context) bool {
	close(f.ran)
	return true
}

func (f *fakeChecker) Running() bool {
	return f.running
}

func (f *fakeChecker) Latest(ctx context.Context) (*model.Snapshot, error) {
	return f.latest, f.storeErr
}

func (f *fakeChecker) History(ctx context.Context) ([]model.Snapshot, error) {
	return f.history, f.storeErr
}

func serve(t *testing.T, checker *fakeChecker, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(context.Background(), checker)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestTriggerCheck(t *testing.T) {
	checker := &fakeChecker{ran: make(chan struct{})}
	rec := serve(t, checker, http.MethodPost, "/checks")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"message":"Check started"}`, rec.Body.String())
	select {
	case <-checker.ran:
	case <-time.After(time.Second):
		t.Fatal("check was not started")
	}
}

func TestTriggerCheckWhileRunningIsConflict(t *testing.T) {
	checker := &fakeChecker{ran: make(chan struct{}), running: true}
	rec := serve(t, checker, http.MethodPost, "/checks")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"check already running"}`, rec.Body.String())
	select {
	case <-checker.ran:
		t.Fatal("check should not have been started")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLatestSnapshot(t *testing.T) {
	created := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	checker := &fakeChecker{latest: &model.Snapshot{Tag: "20261014-090000", CreatedAt: created, Listings: model.SetOf("Engineer B", "Engineer A")}}
	rec := serve(t, checker, http.MethodGet, "/snapshots/latest")

	require.Equal(t, http.StatusOK, rec.Code)
	var body snapshotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "20261014-090000", body.Tag)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, []string{"Engineer A", "Engineer B"}, body.Listings)
}

func TestLatestSnapshotMissing(t *testing.T) {
	rec := serve(t, &fakeChecker{}, http.MethodGet, "/snapshots/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStoreErrorsAre500(t *testing.T) {
	checker := &fakeChecker{storeErr: errors.New("disk gone")}

	assert.Equal(t, http.StatusInternalServerError, serve(t, checker, http.MethodGet, "/snapshots/latest").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(t, checker, http.MethodGet, "/snapshots").Code)
}

func TestHistory(t *testing.T) {
	checker := &fakeChecker{history: []model.Snapshot{
		{Tag: "20261014-090000", Listings: model.SetOf("Engineer A")},
		{Tag: "20261014-091000", Listings: model.SetOf("Engineer A", "Engineer C")},
	}}
	rec := serve(t, checker, http.MethodGet, "/snapshots")

	require.Equal(t, http.StatusOK, rec.Code)
	var body []snapshotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "20261014-091000", body[1].Tag)
	assert.Equal(t, 2, body[1].Count)
}

func TestHealth(t *testing.T) {
	rec := serve(t, &fakeChecker{}, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}
