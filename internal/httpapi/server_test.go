package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crystaldolphin/cronkeeper/internal/config"
	"github.com/crystaldolphin/cronkeeper/internal/cron"
	"github.com/crystaldolphin/cronkeeper/internal/crontab"
	"github.com/crystaldolphin/cronkeeper/internal/schedule"
)

const abcTab = `0 1 * * * foo # cronkeeper
0 2 * * * bar
0 3 * * * baz # cronkeeper
`

func newTestServer(t *testing.T, initial string, opts Options) (*Server, *crontab.MemoryStore) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := crontab.NewMemoryStore(initial)
	repo := cron.NewRepository(crontab.NewLoader(store), log)
	return New(repo, schedule.DefaultParser(), opts, log), store
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// ─── POST /schedule ────────────────────────────────────────────────────────

func TestCreateSchedule_Cron(t *testing.T) {
	s, store := newTestServer(t, "", Options{ManagedOnly: true})

	rec := do(t, s, http.MethodPost, "/schedule", `{"expression":"*/5 * * * *","command":"date"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[scheduleResponse](t, rec)
	assert.Equal(t, "Scheduled", resp.Message)
	assert.Equal(t, "*/5 * * * * date", resp.Cron)
	assert.Equal(t, "*/5 * * * * date # cronkeeper\n", store.String())
}

func TestCreateSchedule_Phrase(t *testing.T) {
	s, _ := newTestServer(t, "", Options{})

	rec := do(t, s, http.MethodPost, "/schedule", `{"expression":"Every day at 5PM","command":"echo hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0 17 * * * echo hi", decode[scheduleResponse](t, rec).Cron)
}

func TestCreateSchedule_UnsupportedExpression(t *testing.T) {
	s, store := newTestServer(t, "", Options{})

	rec := do(t, s, http.MethodPost, "/schedule", `{"expression":"next tuesday","command":"echo hi"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "unsupported expression")
	assert.Empty(t, store.String())
}

func TestCreateSchedule_MissingFields(t *testing.T) {
	s, _ := newTestServer(t, "", Options{})

	rec := do(t, s, http.MethodPost, "/schedule", `{"expression":"0 17 * * *"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "command")
}

func TestCreateSchedule_BadJSON(t *testing.T) {
	s, _ := newTestServer(t, "", Options{})

	rec := do(t, s, http.MethodPost, "/schedule", `{"expression":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode[errorResponse](t, rec).Error)
}

func TestCreateSchedule_MultiLineCommand(t *testing.T) {
	s, store := newTestServer(t, abcTab, Options{})

	rec := do(t, s, http.MethodPost, "/schedule", `{"expression":"0 17 * * *","command":"echo hi\n* * * * * rm -rf ~"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "single line")
	assert.Equal(t, abcTab, store.String())
}

func TestCreateSchedule_UnbalancedQuoteCommand(t *testing.T) {
	s, store := newTestServer(t, "", Options{})

	rec := do(t, s, http.MethodPost, "/schedule", `{"expression":"0 17 * * *","command":"echo don't"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "invalid command")
	assert.Empty(t, store.String())
}

func TestCreateSchedule_SundayAsSeven(t *testing.T) {
	s, store := newTestServer(t, "", Options{})

	rec := do(t, s, http.MethodPost, "/schedule", `{"expression":"0 0 * * 7","command":"date"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0 0 * * 7 date # cronkeeper\n", store.String())
}

func TestCreateSchedule_PersistFailure(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := cron.NewRepository(crontab.NewLoader(readOnlyStore{crontab.NewMemoryStore("")}), log)
	s := New(repo, schedule.DefaultParser(), Options{}, log)

	rec := do(t, s, http.MethodPost, "/schedule", `{"expression":"0 17 * * *","command":"echo hi"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "read-only")
}

// ─── GET /schedules ────────────────────────────────────────────────────────

func TestListSchedules_Text(t *testing.T) {
	s, _ := newTestServer(t, abcTab, Options{ManagedOnly: true, Transport: config.TransportStdio})

	rec := do(t, s, http.MethodGet, "/schedules", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Equal(t, "0 1 * * * foo\n0 3 * * * baz\n", rec.Body.String())
}

func TestListSchedules_TextAllEntries(t *testing.T) {
	s, _ := newTestServer(t, abcTab, Options{ManagedOnly: false})

	rec := do(t, s, http.MethodGet, "/schedules", "")
	assert.Equal(t, "0 1 * * * foo\n0 2 * * * bar\n0 3 * * * baz\n", rec.Body.String())
}

func TestListSchedules_EventStream(t *testing.T) {
	s, _ := newTestServer(t, abcTab, Options{ManagedOnly: false, Transport: config.TransportEventStream})

	rec := do(t, s, http.MethodGet, "/schedules", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t,
		"event: schedule\ndata: 0 1 * * * foo (managed=true)\n\n"+
			"event: schedule\ndata: 0 2 * * * bar (managed=false)\n\n"+
			"event: schedule\ndata: 0 3 * * * baz (managed=true)\n\n",
		rec.Body.String())
}

func TestListSchedules_WebSocket(t *testing.T) {
	s, _ := newTestServer(t, abcTab, Options{ManagedOnly: true, Transport: config.TransportWebSocket})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/schedules", nil)
	require.NoError(t, err)
	defer conn.Close()

	var got []string
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err.Error())
			break
		}
		got = append(got, string(msg))
	}
	assert.Equal(t, []string{"0 1 * * * foo (managed=true)", "0 3 * * * baz (managed=true)"}, got)
}

func TestListSchedules_LoadError(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := cron.NewRepository(brokenLoader{}, log)
	s := New(repo, schedule.DefaultParser(), Options{}, log)

	rec := do(t, s, http.MethodGet, "/schedules", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "crontab unavailable")
}

// ─── DELETE /schedule ──────────────────────────────────────────────────────

func TestDeleteSchedule_PreviewByDefault(t *testing.T) {
	s, store := newTestServer(t, abcTab, Options{})

	rec := do(t, s, http.MethodDelete, "/schedule?command=bar", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[deleteResponse](t, rec)
	assert.True(t, resp.Preview)
	assert.Zero(t, resp.DeletedCount)
	assert.Equal(t, []crontab.ScheduleEntry{{Schedule: "0 2 * * *", Command: "bar"}}, resp.MatchedJobs)
	assert.Equal(t, abcTab, store.String())
}

func TestDeleteSchedule_ByComment(t *testing.T) {
	s, store := newTestServer(t, abcTab, Options{})

	rec := do(t, s, http.MethodDelete, "/schedule?comment=cronkeeper&preview=false", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[deleteResponse](t, rec)
	assert.False(t, resp.Preview)
	assert.Equal(t, 2, resp.DeletedCount)
	assert.Len(t, resp.MatchedJobs, 2)
	assert.Equal(t, "0 2 * * * bar\n", store.String())
}

func TestDeleteSchedule_NoFilter(t *testing.T) {
	s, _ := newTestServer(t, abcTab, Options{})

	rec := do(t, s, http.MethodDelete, "/schedule", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "command or a comment")
}

func TestDeleteSchedule_BadPreview(t *testing.T) {
	s, _ := newTestServer(t, abcTab, Options{})

	rec := do(t, s, http.MethodDelete, "/schedule?command=foo&preview=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteSchedule_EmptyMatchIsArray(t *testing.T) {
	s, _ := newTestServer(t, abcTab, Options{})

	rec := do(t, s, http.MethodDelete, "/schedule?command=nothing", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"matched_jobs":[]`)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, "", Options{})
	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRun_StopsOnCancel(t *testing.T) {
	s, _ := newTestServer(t, "", Options{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	cancel()

	assert.NoError(t, <-done)
}

// ─── fakes ─────────────────────────────────────────────────────────────────

type readOnlyStore struct {
	*crontab.MemoryStore
}

func (readOnlyStore) Write(context.Context, []byte) error {
	return errors.New("read-only table")
}

type brokenLoader struct{}

func (brokenLoader) Load(context.Context) (crontab.Table, error) {
	return nil, errors.New("crontab unavailable")
}
