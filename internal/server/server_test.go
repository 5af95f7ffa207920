package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/notabene/internal/config"
)

// fixedCounts is a Counter with constant answers.
type fixedCounts struct{ total, set, subset int }

func (f fixedCounts) Counts() (int, int, int) { return f.total, f.set, f.subset }

func postForm(t *testing.T, h http.Handler, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set(config.HeaderContentType, "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Result()
}

// -----------------------------------------------------------------------------
// Front end
// -----------------------------------------------------------------------------

func TestHandler_IndexPage(t *testing.T) {
	srv := New("0", nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	resp := w.Result()
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.MimeTextHTML, resp.Header.Get(config.HeaderContentType))
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "fit_to_fit")
}

func TestHandler_UnknownPath(t *testing.T) {
	srv := New("0", nil)

	req := httptest.NewRequest(http.MethodGet, "/favicon.ico", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_Firstly(t *testing.T) {
	srv := New("0", fixedCounts{total: 10, set: 4, subset: 1})

	resp := postForm(t, srv.Handler(), url.Values{config.FormKeyFirstly: {""}})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.MimeJSON, resp.Header.Get(config.HeaderContentType))
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"all":10,"fit":4,"fit_to_fit":1}`, string(body))
}

func TestHandler_CommandEcho(t *testing.T) {
	srv := New("0", nil)

	resp := postForm(t, srv.Handler(), url.Values{config.FormKeyCommand: {"show Ivan"}})
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "show Ivan", string(body))

	select {
	case <-srv.exit:
		t.Fatal("a command must not stop the server")
	default:
	}
}

func TestHandler_Exit(t *testing.T) {
	srv := New("0", nil)

	resp := postForm(t, srv.Handler(), url.Values{config.FormKeyExit: {""}})
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, config.HTTPMsgBye, string(body))

	select {
	case <-srv.exit:
	default:
		t.Fatal("exit must close the exit channel")
	}

	// A second exit is harmless.
	resp2 := postForm(t, srv.Handler(), url.Values{config.FormKeyExit: {""}})
	_ = resp2.Body.Close()
}

func TestHandler_RootMethodNotAllowed(t *testing.T) {
	srv := New("0", nil)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.NotEmpty(t, w.Header().Get(config.HeaderAllow))
}

// -----------------------------------------------------------------------------
// Calendar feed
// -----------------------------------------------------------------------------

func TestHandler_ServingContent(t *testing.T) {
	srv := New("0", nil)
	expectedICS := []byte("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR")
	srv.Update(expectedICS)

	req := httptest.NewRequest(http.MethodGet, config.RouteCalendar, nil)
	w := httptest.NewRecorder()
	srv.handleCalendarRequest(w, req)

	resp := w.Result()
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.MimeTextCalendar, resp.Header.Get(config.HeaderContentType))
	assert.Equal(t, config.MimeNoSniff, resp.Header.Get(config.HeaderXContentType))
	assert.Contains(t, resp.Header.Get(config.HeaderCacheControl), "no-cache")
	assert.NotEmpty(t, resp.Header.Get(config.HeaderETag))

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, expectedICS, body)
}

func TestHandler_Caching(t *testing.T) {
	srv := New("0", nil)
	srv.Update([]byte("DATA_VERSION_1"))

	req1 := httptest.NewRequest(http.MethodGet, config.RouteCalendar, nil)
	w1 := httptest.NewRecorder()
	srv.handleCalendarRequest(w1, req1)

	etag := w1.Result().Header.Get(config.HeaderETag)
	require.NotEmpty(t, etag, "Server must provide an ETag")

	req2 := httptest.NewRequest(http.MethodGet, config.RouteCalendar, nil)
	req2.Header.Set(config.HeaderIfNoneMatch, etag)
	w2 := httptest.NewRecorder()
	srv.handleCalendarRequest(w2, req2)

	resp2 := w2.Result()
	defer func() { _ = resp2.Body.Close() }()

	assert.Equal(t, http.StatusNotModified, resp2.StatusCode)
	body, _ := io.ReadAll(resp2.Body)
	assert.Empty(t, body, "Body must be empty on 304 Not Modified")
}

func TestHandler_CalendarMethodNotAllowed(t *testing.T) {
	srv := New("0", nil)

	req := httptest.NewRequest(http.MethodPost, config.RouteCalendar, nil)
	w := httptest.NewRecorder()
	srv.handleCalendarRequest(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.NotEmpty(t, w.Header().Get(config.HeaderAllow))
}

func TestHandler_Initializing(t *testing.T) {
	srv := New("0", nil)

	req := httptest.NewRequest(http.MethodGet, config.RouteCalendar, nil)
	w := httptest.NewRecorder()
	srv.handleCalendarRequest(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, config.RetryAfterSeconds, w.Header().Get(config.HeaderRetryAfter))
}

// TestServer_RaceCondition stresses cache updates against serialized reads.
// Run this with `go test -race`.
func TestServer_RaceCondition(t *testing.T) {
	srv := New("0", fixedCounts{})
	h := srv.Handler()
	var wg sync.WaitGroup
	end := time.Now().Add(300 * time.Millisecond)

	for w := 0; w < 3; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; time.Now().Before(end); i++ {
				srv.Update([]byte(fmt.Sprintf("VERSION:%d-%d", id, i)))
				time.Sleep(time.Microsecond)
			}
		}(w)
	}

	for r := 0; r < 10; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) {
				req := httptest.NewRequest(http.MethodGet, config.RouteCalendar, nil)
				w := httptest.NewRecorder()
				h.ServeHTTP(w, req)
				if w.Code != http.StatusOK && w.Code != http.StatusServiceUnavailable {
					t.Errorf("Unexpected status code during race test: %d", w.Code)
				}
			}
		}()
	}

	wg.Wait()
}

// -----------------------------------------------------------------------------
// Integration Tests (Real TCP Lifecycle)
// -----------------------------------------------------------------------------

func startServer(t *testing.T, srv *Server, ctx context.Context) <-chan error {
	t.Helper()
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(ctx)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get(srv.URL())
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return true
	}, 2*time.Second, 50*time.Millisecond, "Server failed to bind/listen in time")
	return errChan
}

func waitStopped(t *testing.T, errChan <-chan error) {
	t.Helper()
	select {
	case err := <-errChan:
		assert.NoError(t, err, "Server should shutdown gracefully without error")
	case <-time.After(2 * config.ShutdownTimeout):
		t.Fatal("Server shutdown timed out")
	}
}

func TestServer_LifecycleContext(t *testing.T) {
	srv := New("18099", fixedCounts{total: 1})
	ctx, cancel := context.WithCancel(context.Background())
	errChan := startServer(t, srv, ctx)

	resp, err := http.Get(srv.URL() + strings.TrimPrefix(config.RouteCalendar, "/"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	_ = resp.Body.Close()

	srv.Update([]byte("BEGIN:VCALENDAR\nEND:VCALENDAR"))
	resp, err = http.Get(srv.URL() + strings.TrimPrefix(config.RouteCalendar, "/"))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "BEGIN:VCALENDAR")

	cancel()
	waitStopped(t, errChan)
}

func TestServer_LifecycleExit(t *testing.T) {
	srv := New("18098", nil)
	errChan := startServer(t, srv, context.Background())

	resp, err := http.PostForm(srv.URL(), url.Values{config.FormKeyExit: {""}})
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, config.HTTPMsgBye, string(body))

	waitStopped(t, errChan)
}

func TestServer_PortRequired(t *testing.T) {
	err := New("", nil).Start(context.Background())
	assert.EqualError(t, err, config.ErrPortRequired)
}
