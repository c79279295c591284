package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/millkeeper/internal/common"
	"github.com/dmitrijs2005/millkeeper/internal/logging"
	"github.com/dmitrijs2005/millkeeper/internal/models"
	"github.com/dmitrijs2005/millkeeper/internal/remotestore"
	"github.com/dmitrijs2005/millkeeper/internal/repository"
	"github.com/dmitrijs2005/millkeeper/internal/timex"
)

type fakeRepo struct {
	records []models.Record
	source  repository.Source
	err     error

	gotDay    timex.Date
	gotID     string
	gotMethod string
	gotOrigin models.Origin
	syncRes   repository.SyncResult
}

func (f *fakeRepo) FetchDay(_ context.Context, d timex.Date) ([]models.Record, repository.Source, error) {
	f.gotDay = d
	return f.records, f.source, f.err
}

func (f *fakeRepo) UpdatePayment(_ context.Context, id, method string, origin models.Origin) error {
	f.gotID, f.gotMethod, f.gotOrigin = id, method, origin
	return f.err
}

func (f *fakeRepo) DeleteRecord(_ context.Context, id string, origin models.Origin) error {
	f.gotID, f.gotOrigin = id, origin
	return f.err
}

func (f *fakeRepo) MirrorAndCleanup(context.Context) (repository.SyncResult, error) {
	return f.syncRes, f.err
}

func testCalendar(t *testing.T) *timex.Calendar {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)
	return timex.NewCalendar(loc, func() time.Time {
		return time.Date(2024, time.June, 10, 12, 0, 0, 0, loc)
	})
}

func serve(t *testing.T, repo Repository, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(repo, testCalendar(t), 0.30, logging.Discard())
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestGetDay(t *testing.T) {
	cal := testCalendar(t)
	start, _ := cal.Bounds(timex.NewDate(2024, time.June, 5))
	repo := &fakeRepo{
		source: repository.SourceRemote,
		records: []models.Record{
			{ID: "a", Name: "Rossi", WeightKg: 100, EventTimeMs: start + int64(8*time.Hour/time.Millisecond), Origin: models.OriginRemote},
			{ID: "b", Name: "Bianchi", WeightKg: 50, PaymentMethod: "POS", Origin: models.OriginRemote},
		},
	}

	rec := serve(t, repo, http.MethodGet, "/api/v1/days/2024-06-05", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, timex.NewDate(2024, time.June, 5), repo.gotDay)

	var got struct {
		Date    string `json:"date"`
		Source  string `json:"source"`
		Records []struct {
			ID     string  `json:"id"`
			Origin string  `json:"origin"`
			Clock  string  `json:"clock"`
			Amount float64 `json:"amount"`
		} `json:"records"`
		Summary models.DaySummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "2024-06-05", got.Date)
	assert.Equal(t, "remote", got.Source)
	require.Len(t, got.Records, 2)
	assert.Equal(t, "08:00", got.Records[0].Clock)
	assert.Equal(t, "", got.Records[1].Clock)
	assert.Equal(t, "remote", got.Records[0].Origin)
	assert.InDelta(t, 30.0, got.Records[0].Amount, 1e-9)
	assert.Equal(t, 2, got.Summary.Count)
	assert.InDelta(t, 150.0, got.Summary.TotalKg, 1e-9)
	assert.InDelta(t, 45.0, got.Summary.TotalAmount, 1e-9)
}

func TestGetDay_Today(t *testing.T) {
	repo := &fakeRepo{source: repository.SourceRemote}
	rec := serve(t, repo, http.MethodGet, "/api/v1/days/today", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, timex.NewDate(2024, time.June, 10), repo.gotDay)
	assert.Contains(t, rec.Body.String(), `"records":[]`)
}

func TestGetDay_BadDate(t *testing.T) {
	rec := serve(t, &fakeRepo{}, http.MethodGet, "/api/v1/days/10-06-2024", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad date")
}

func TestUpdatePayment(t *testing.T) {
	repo := &fakeRepo{}
	rec := serve(t, repo, http.MethodPatch, "/api/v1/records/-Nx1/payment", `{"payment":"Contanti","origin":"local"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "-Nx1", repo.gotID)
	assert.Equal(t, "Contanti", repo.gotMethod)
	assert.Equal(t, models.OriginLocal, repo.gotOrigin)
}

func TestUpdatePayment_BadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bogus origin", `{"payment":"POS","origin":"bogus"}`},
		{"missing origin", `{"payment":"POS"}`},
		{"not json", `payment=POS`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{}
			rec := serve(t, repo, http.MethodPatch, "/api/v1/records/a/payment", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, repo.gotID, "repository must not be called")
		})
	}
}

func TestDeleteRecord(t *testing.T) {
	repo := &fakeRepo{}
	rec := serve(t, repo, http.MethodDelete, "/api/v1/records/a?origin=remote", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "a", repo.gotID)
	assert.Equal(t, models.OriginRemote, repo.gotOrigin)

	rec = serve(t, &fakeRepo{}, http.MethodDelete, "/api/v1/records/a", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSync(t *testing.T) {
	repo := &fakeRepo{syncRes: repository.SyncResult{Mirrored: 4, Deleted: 1}}
	rec := serve(t, repo, http.MethodPost, "/api/v1/sync", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"mirrored":4,"deleted":1}`, rec.Body.String())
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", common.ErrValidation, http.StatusBadRequest},
		{"busy", repository.ErrSyncInProgress, http.StatusConflict},
		{"transport", &remotestore.TransportError{Op: "fetch all", StatusCode: 503}, http.StatusBadGateway},
		{"unauthorized", common.ErrUnauthorized, http.StatusBadGateway},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &fakeRepo{err: tt.err}, http.MethodPost, "/api/v1/sync", "")
			assert.Equal(t, tt.want, rec.Code)

			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	rec := serve(t, &fakeRepo{}, http.MethodGet, "/health/live", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = serve(t, &fakeRepo{}, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "millkeeper_http_requests_total")
}

func TestServer_ServeAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	h := NewHandler(&fakeRepo{}, testCalendar(t), 0.30, logging.Discard())
	srv := NewServer(ln.Addr().String(), h.Routes(), logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + ln.Addr().String() + "/health/live")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
