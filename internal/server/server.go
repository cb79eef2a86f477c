// Package server exposes the calendar over a local HTTP JSON API and serves
// the iCalendar feed of notes and holidays.
package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tartampluch/go-miti/internal/bs"
	"github.com/tartampluch/go-miti/internal/config"
	"github.com/tartampluch/go-miti/internal/engine"
	"github.com/tartampluch/go-miti/internal/feed"
	"github.com/tartampluch/go-miti/internal/holidays"
	"github.com/tartampluch/go-miti/internal/i18n"
	"github.com/tartampluch/go-miti/internal/notes"
	"github.com/tartampluch/go-miti/internal/settings"
	"github.com/tartampluch/go-miti/internal/store"
)

// cacheItem stores the rendered feed and its metadata for HTTP caching.
type cacheItem struct {
	data         []byte
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
}

// Options wires the server to the application services.
type Options struct {
	Listen     string
	Converter  bs.Converter
	Clock      engine.Clock
	Store      *store.Store
	Notes      *notes.Service
	Settings   *settings.Service
	Holidays   *holidays.Service
	Feed       *feed.Generator
	Translator *i18n.Translator

	// RefreshHolidays reloads holidays from the configured sources. Optional.
	RefreshHolidays func(ctx context.Context) error
}

// Server owns the navigation state of the process. Every request that reads
// or moves it runs under mu, so each transition is applied atomically.
type Server struct {
	opts Options

	// cache uses atomic.Pointer for lock-free reads of the feed.
	cache atomic.Pointer[cacheItem]
	// feedMu orders feed builds: each build reads the stores after the
	// previous one published.
	feedMu sync.Mutex

	mu   sync.Mutex
	nav  *engine.Navigator
	grid *engine.GridBuilder
}

// New creates a server whose navigation starts on the clock's today.
func New(opts Options) *Server {
	if opts.Translator == nil {
		opts.Translator = i18n.New(config.DefaultLanguage)
	}
	nav := engine.NewNavigator(opts.Converter, opts.Clock)
	return &Server{
		opts: opts,
		nav:  nav,
		grid: engine.NewGridBuilder(opts.Converter, nav.Today()),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+config.RouteHealth, s.handleHealth)
	mux.HandleFunc(config.RouteFeed, s.handleCalendarRequest)

	mux.HandleFunc("GET "+config.RouteMonth, s.handleMonth)
	mux.HandleFunc("POST "+config.RouteNavigate+"{action}", s.handleNavigate)

	mux.HandleFunc("GET "+config.RouteNotes, s.handleNotesOverview)
	mux.HandleFunc("GET "+config.RouteNotes+"/{date}", s.handleNotesForDate)
	mux.HandleFunc("POST "+config.RouteNotes+"/{date}", s.handleAddNote)
	mux.HandleFunc("DELETE "+config.RouteNotes+"/{date}", s.handleDeleteAllNotes)
	mux.HandleFunc("PUT "+config.RouteNotes+"/{date}/{id}", s.handleUpdateNote)
	mux.HandleFunc("DELETE "+config.RouteNotes+"/{date}/{id}", s.handleDeleteNote)

	mux.HandleFunc("GET "+config.RouteSettings, s.handleGetSettings)
	mux.HandleFunc("PUT "+config.RouteSettings, s.handlePutSettings)
	mux.HandleFunc("DELETE "+config.RouteSettings, s.handleResetSettings)

	mux.HandleFunc("GET "+config.RouteStorage, s.handleStorage)

	mux.HandleFunc("GET "+config.RouteHolidays, s.handleHolidays)
	mux.HandleFunc("POST "+config.RouteHolidays+"/refresh", s.handleRefreshHolidays)
	return mux
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.opts.Listen == "" {
		return errors.New(config.ErrListenRequired)
	}

	srv := &http.Server{
		Addr:         s.opts.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyListen, s.opts.Listen,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// RefreshFeed regenerates the iCalendar feed and swaps it into the cache.
func (s *Server) RefreshFeed(ctx context.Context) error {
	if s.opts.Feed == nil {
		return nil
	}
	s.feedMu.Lock()
	defer s.feedMu.Unlock()

	data, _, err := s.opts.Feed.Build(ctx)
	if err != nil {
		return err
	}
	s.Update(data)
	return nil
}

// refreshFeedAsync rebuilds the feed after a mutation without delaying the
// response.
func (s *Server) refreshFeedAsync() {
	go func() {
		if err := s.RefreshFeed(context.Background()); err != nil {
			slog.Warn(config.ErrFeedBuild,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err,
			)
		}
	}()
}

// Update atomically replaces the served feed.
func (s *Server) Update(data []byte) {
	hash := sha256.Sum256(data)
	etag := fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))

	item := &cacheItem{
		data:         data,
		etag:         etag,
		lastModified: time.Now().UTC().Format(http.TimeFormat),
	}
	s.cache.Store(item)

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, etag,
	)
}

// etagMatches reports whether an If-None-Match list names etag. Weak
// comparison applies, as for GET.
func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

// handleCalendarRequest serves the feed with HTTP caching support.
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

	// If-None-Match takes precedence; If-Modified-Since only applies without it.
	if match := r.Header.Get(config.HeaderIfNoneMatch); match != "" {
		if etagMatches(match, item.etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	} else if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
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
		if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
			slog.Error(config.ErrWriteResp,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err,
			)
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": config.HTTPMsgOK})
}
