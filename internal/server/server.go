// Package server runs the local demo HTTP server: the browser front end, its
// form endpoint and the birthday calendar feed.
package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tartampluch/notabene/internal/config"
)

//go:embed web/index.html
var indexPage []byte

// Counter reports the sizes of the book, MATCH-SET and MATCH-SUBSET.
type Counter interface {
	Counts() (total, set, subset int)
}

// counts is the answer to a "firstly" form post.
type counts struct {
	All      int `json:"all"`
	Fit      int `json:"fit"`
	FitToFit int `json:"fit_to_fit"`
}

// cacheItem stores the rendered calendar and its metadata for HTTP caching.
type cacheItem struct {
	data         []byte
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
}

// Server serves the front end and the calendar feed on the loopback interface.
// Requests are handled strictly one at a time.
type Server struct {
	Port  string
	Stats Counter

	cache atomic.Pointer[cacheItem]

	mu       sync.Mutex
	exit     chan struct{}
	exitOnce sync.Once
}

// New creates a server reporting the counts of stats.
func New(port string, stats Counter) *Server {
	return &Server{
		Port:  port,
		Stats: stats,
		exit:  make(chan struct{}),
	}
}

// Handler returns the routed, serialized HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(config.RouteRoot, s.handleRoot)
	mux.HandleFunc(config.RouteCalendar, s.handleCalendarRequest)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

// URL returns the address the server listens on.
func (s *Server) URL() string {
	return fmt.Sprintf(config.URLFormat, config.LocalhostBindAddr, s.Port)
}

// Start serves until the context is cancelled or a client posts "exit".
func (s *Server) Start(ctx context.Context) error {
	if s.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + s.Port,
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
	case <-s.exit:
		slog.Info(config.MsgServerExit, config.LogKeyComponent, config.CompServer)
	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}

	slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
	}
	return nil
}

func (s *Server) requestExit() {
	s.exitOnce.Do(func() { close(s.exit) })
}

// Update atomically replaces the served calendar.
func (s *Server) Update(data []byte) {
	hash := sha256.Sum256(data)
	etag := fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))

	s.cache.Store(&cacheItem{
		data:         data,
		etag:         etag,
		lastModified: time.Now().UTC().Format(http.TimeFormat),
	})

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, etag,
	)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != config.RouteRoot {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		w.Header().Set(config.HeaderContentType, config.MimeTextHTML)
		w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
		if r.Method == http.MethodGet {
			s.write(w, indexPage)
		}
	case http.MethodPost:
		s.handleForm(w, r)
	default:
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
	}
}

// handleForm answers the front end: "firstly" asks for the counts, "exit"
// stops the server, anything else carries a command line.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxFormBodySize)
	if err := r.ParseForm(); err != nil {
		slog.Warn(config.ErrReadForm,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err)
		http.Error(w, config.HTTPMsgBadRequest, http.StatusBadRequest)
		return
	}

	switch {
	case r.PostForm.Has(config.FormKeyExit):
		w.Header().Set(config.HeaderContentType, config.MimeTextPlain)
		s.write(w, []byte(config.HTTPMsgBye))
		s.requestExit()

	case r.PostForm.Has(config.FormKeyFirstly):
		var c counts
		if s.Stats != nil {
			c.All, c.Fit, c.FitToFit = s.Stats.Counts()
		}
		body, err := json.Marshal(c)
		if err != nil {
			http.Error(w, config.HTTPMsgInternalErr, http.StatusInternalServerError)
			return
		}
		w.Header().Set(config.HeaderContentType, config.MimeJSON)
		s.write(w, body)

	default:
		cmd := r.PostForm.Get(config.FormKeyCommand)
		slog.Info(config.MsgCommandEcho,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyCommand, cmd)
		w.Header().Set(config.HeaderContentType, config.MimeTextPlain)
		s.write(w, []byte(cmd))
	}
}

// handleCalendarRequest serves the ICS content with HTTP caching support.
func (s *Server) handleCalendarRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return
	}

	item := s.cache.Load()
	if item == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}

	w.Header().Set(config.HeaderContentType, config.MimeTextCalendar)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	w.Header().Set(config.HeaderETag, item.etag)
	w.Header().Set(config.HeaderLastModified, item.lastModified)

	if match := r.Header.Get(config.HeaderIfNoneMatch); match == item.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
		if clientTime, err := time.Parse(http.TimeFormat, since); err == nil {
			if serverTime, err := time.Parse(http.TimeFormat, item.lastModified); err == nil {
				if !serverTime.After(clientTime) {
					w.WriteHeader(http.StatusNotModified)
					return
				}
			}
		}
	}

	if r.Method == http.MethodGet {
		s.write(w, item.data)
	}
}

func (s *Server) write(w io.Writer, data []byte) {
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		slog.Error(config.ErrWriteResp,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
	}
}
