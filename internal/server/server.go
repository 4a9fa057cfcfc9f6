// internal/server/server.go
package server

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/zerr"
)

const (
	DefaultHost = "localhost"
	DefaultPort = 8080

	reloadPath       = "/__stencil/reload"
	debounceDuration = 250 * time.Millisecond
	shutdownTimeout  = 5 * time.Second
)

// Options configure the preview server.
type Options struct {
	Host      string
	Port      int
	Directory string
	// LiveReload injects a script into HTML pages that reloads them when a
	// file below Directory changes. Nothing is rebuilt.
	LiveReload bool
	Logger     *slog.Logger
}

// Server serves a built site from a directory.
type Server struct {
	opts    Options
	hub     *Hub
	handler http.Handler
}

// New checks that the directory exists and prepares the handlers.
func New(opts Options) (*Server, error) {
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	info, err := os.Stat(opts.Directory)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "cannot serve directory"), "directory", opts.Directory)
	}
	if !info.IsDir() {
		return nil, zerr.With(zerr.New("not a directory"), "directory", opts.Directory)
	}

	s := &Server{opts: opts, hub: newHub(opts.Logger)}

	mux := http.NewServeMux()
	files := http.FileServer(http.Dir(opts.Directory))
	if opts.LiveReload {
		mux.Handle(reloadPath, s.hub)
		mux.Handle("/", liveReloadWrapper(files))
	} else {
		mux.Handle("/", files)
	}
	s.handler = mux
	return s, nil
}

// Handler returns the HTTP handler serving the site.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the live-reload client hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to listen"), "address", s.Addr())
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.opts.LiveReload {
		watcher, err := newWatcher(s.opts.Directory, s.opts.Logger)
		if err != nil {
			_ = ln.Close()
			return err
		}
		defer watcher.Close()
		go s.watch(ctx, watcher)
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()
	s.opts.Logger.Info("Serving site", "url", "http://"+ln.Addr().String(), "directory", s.opts.Directory)

	select {
	case err := <-errc:
		return zerr.Wrap(err, "server stopped")
	case <-ctx.Done():
	}

	s.hub.closeAll()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return zerr.Wrap(err, "failed to shut down server")
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return zerr.Wrap(err, "server stopped")
	}
	return nil
}

// newWatcher watches dir and every directory below it.
func newWatcher(dir string, logger *slog.Logger) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, "could not create file watcher")
	}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return err
		}
		logger.Debug("Watching directory", "directory", path)
		return nil
	})
	if err != nil {
		_ = watcher.Close()
		return nil, zerr.With(zerr.Wrap(err, "failed to watch directory"), "directory", dir)
	}
	return watcher, nil
}

// watch broadcasts a reload once changes have been quiet for the debounce
// period. New directories are watched as they appear.
func (s *Server) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	log := s.opts.Logger
	timer := time.NewTimer(debounceDuration)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						log.Warn("Could not watch new directory", "directory", event.Name, "error", err)
					}
				}
			}
			log.Debug("Change detected", "path", event.Name, "op", event.Op.String())
			timer.Reset(debounceDuration)
		case <-timer.C:
			log.Info("Reloading connected pages", "clients", s.hub.Len())
			s.hub.Broadcast([]byte(ReloadMessage))
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn("Watcher error", "error", err)
		}
	}
}

func liveReloadWrapper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

		isHTML := strings.HasSuffix(r.URL.Path, ".html") || strings.HasSuffix(r.URL.Path, "/")
		if !isHTML {
			next.ServeHTTP(w, r)
			return
		}

		iw := newInterceptingWriter()
		next.ServeHTTP(iw, r)

		for key, values := range iw.header {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}
		body := iw.body.Bytes()
		if iw.statusCode == http.StatusOK {
			if i := bytes.LastIndex(body, []byte("</body>")); i >= 0 {
				body = append(body[:i:i], append([]byte(liveReloadScript), body[i:]...)...)
			} else {
				body = append(body, liveReloadScript...)
			}
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(iw.statusCode)
		_, _ = w.Write(body)
	})
}

// interceptingWriter buffers a response so the script can be injected.
type interceptingWriter struct {
	header     http.Header
	body       bytes.Buffer
	statusCode int
}

func newInterceptingWriter() *interceptingWriter {
	return &interceptingWriter{header: make(http.Header), statusCode: http.StatusOK}
}

func (iw *interceptingWriter) Header() http.Header {
	return iw.header
}

func (iw *interceptingWriter) Write(b []byte) (int, error) {
	return iw.body.Write(b)
}

func (iw *interceptingWriter) WriteHeader(statusCode int) {
	iw.statusCode = statusCode
}

const liveReloadScript = `<script>
(function() {
  var socket = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "` + reloadPath + `");
  socket.onmessage = function(event) {
    if (event.data === "` + ReloadMessage + `") {
      location.reload();
    }
  };
})();
</script>
`
