package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/charmbracelet/log"
	"github.com/ngenohkevin/racetime_clock/internal/clock"
	"github.com/ngenohkevin/racetime_clock/internal/config"
	"github.com/ngenohkevin/racetime_clock/internal/localize"
	"github.com/ngenohkevin/racetime_clock/internal/models"
	"github.com/ngenohkevin/racetime_clock/internal/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)

type testServer struct {
	handler *Handler
	router  http.Handler
	clock   *clock.Fixed
	frames  *timer.ManualFrames
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg, _ := config.FromEnv(func(string) string { return "" })
	cfg.Location = time.UTC

	clk := clock.NewFixed(now)
	frames := timer.NewManualFrames()
	engine := timer.NewEngine(timer.NewRegistry(),
		timer.WithClock(clk),
		timer.WithFrames(frames),
		timer.WithLocation(time.UTC),
	)

	sessions := scs.New()
	h := New(engine, sessions, cfg, log.New(io.Discard))
	h.Clock = clk

	resolver := localize.NewResolver(ctx, localize.Locales[0], time.Minute)
	return &testServer{
		handler: h,
		router:  NewRouter(h, sessions, resolver),
		clock:   clk,
		frames:  frames,
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createTimer(t *testing.T, body string) models.Timer {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/timers", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := s.do(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Timer
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	return created
}

func TestTimerLifecycle(t *testing.T) {
	s := newTestServer(t)

	created := s.createTimer(t, `{"datetime":"2024-06-01T16:57:54.6Z"}`)
	assert.Equal(t, "1:02:05.4", created.Text)
	assert.True(t, created.Rendered)

	s.clock.Advance(time.Second)
	s.handler.Engine.RefreshAll(s.clock.Now())

	rec := s.do(httptest.NewRequest(http.MethodGet, "/timers/"+created.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Timer
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "1:02:06.4", got.Text)

	rec = s.do(httptest.NewRequest(http.MethodDelete, "/timers/"+created.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/timers/"+created.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodDelete, "/timers/"+created.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTimerWithLatency(t *testing.T) {
	s := newTestServer(t)

	created := s.createTimer(t, `{"datetime":"2024-06-01T18:00:05Z","latency_ms":-250}`)
	assert.Equal(t, "-0:00:05.2", created.Text)
	require.NotNil(t, created.LatencyMS)
	assert.Equal(t, -250.0, *created.LatencyMS)
}

func TestCreateTimerRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{
		`{"datetime":"someday"}`,
		`{`,
		`{"datetime":""}`,
		`{"datetime":"1700-01-01T00:00:00Z","latency_ms":1000}`,
		`{"datetime":"2024-06-01T17:00:00Z","latency_ms":1e20}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/timers", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		assert.Equal(t, http.StatusBadRequest, s.do(req).Code, body)
	}
	assert.Zero(t, s.handler.Engine.Registry().Len())

	rec := s.do(httptest.NewRequest(http.MethodGet, "/timers/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRenderTicksAndLocalizes(t *testing.T) {
	s := newTestServer(t)

	markup := `<div id="race">
<time class="autotick" datetime="2024-06-01T16:57:54.6Z"></time>
<time class="autotick" datetime="later"></time>
<time class="onlydate" datetime="2024-06-01T16:00:00Z"></time>
</div>`
	req := httptest.NewRequest(http.MethodPost, "/render", strings.NewReader(markup))
	req.Header.Set("Content-Type", "text/html")
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9")
	rec := s.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `1:02:05<small>.4</small>`)
	assert.Contains(t, body, `datetime="later"></time>`)
	assert.Contains(t, body, `>1.6.2024</time>`)
	assert.Equal(t, "1", rec.Header().Get("X-Timers-Skipped"))
	assert.Equal(t, "0", rec.Header().Get("X-Instants-Skipped"))
}

func TestRenderUnknownRoot(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/render?root=%23missing", strings.NewReader(`<p></p>`))
	req.Header.Set("Content-Type", "text/html")
	assert.Equal(t, http.StatusBadRequest, s.do(req).Code)
}

func TestSessionLocaleDrivesDashboard(t *testing.T) {
	s := newTestServer(t)
	s.createTimer(t, `{"datetime":"2024-06-01T17:00:00Z"}`)

	form := url.Values{"locale": {"fr"}}
	req := httptest.NewRequest(http.MethodPost, "/locale", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := s.do(req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en-US")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = s.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `>01/06/2024 17:00:00</time>`)
	assert.Contains(t, body, `1:00:00<small>.0</small>`)
	assert.Contains(t, body, `<option value="fr" selected="">`)
}

func TestSetLocaleRejectsUnknown(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{"locale": {"!!"}}
	req := httptest.NewRequest(http.MethodPost, "/locale", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusBadRequest, s.do(req).Code)
}

func TestDashboardDeleteForm(t *testing.T) {
	s := newTestServer(t)
	created := s.createTimer(t, `{"datetime":"2024-06-01T17:00:00Z"}`)

	form := url.Values{"_method": {"DELETE"}}
	req := httptest.NewRequest(http.MethodPost, "/timers/"+created.ID, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := s.do(req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Zero(t, s.handler.Engine.Registry().Len())
}

func TestStreamTimers(t *testing.T) {
	s := newTestServer(t)
	created := s.createTimer(t, `{"datetime":"2024-06-01T17:00:00Z"}`)

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loop := s.handler.Engine.Start(ctx)
	defer loop.Stop()

	// Keep frames coming until the client has read an event
	go func() {
		for {
			select {
			case s.frames.C <- s.clock.Now():
			case <-ctx.Done():
				return
			}
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/timers/stream", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var updates []models.TickUpdate
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &updates))
		require.Len(t, updates, 1)
		assert.Equal(t, created.ID, updates[0].ID)
		assert.Equal(t, "1:00:00.0", updates[0].Text)
		return
	}
}

type failingWriter struct {
	header http.Header
}

func (f *failingWriter) Header() http.Header       { return f.header }
func (f *failingWriter) Write([]byte) (int, error) { return 0, errors.New("client gone") }
func (f *failingWriter) WriteHeader(int)           {}

func TestFailedWritesAreLogged(t *testing.T) {
	s := newTestServer(t)
	var logs bytes.Buffer
	s.handler.Logger = log.New(&logs)

	s.handler.Home(&failingWriter{header: http.Header{}}, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, logs.String(), "writing response")
	assert.Contains(t, logs.String(), "client gone")

	logs.Reset()
	req := httptest.NewRequest(http.MethodPost, "/render", strings.NewReader(`<p></p>`))
	s.handler.Render(&failingWriter{header: http.Header{}}, req)
	assert.Contains(t, logs.String(), "writing response")
}
