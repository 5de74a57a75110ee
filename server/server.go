// Package server exposes image rendering over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ogcard/config"
	"ogcard/fonts"
	"ogcard/response"
	"ogcard/state"
)

const shutdownTimeout = 10 * time.Second

// Engine is what server needs from renderer, implemented by *render.Engine.
type Engine interface {
	response.Renderer
	GoogleFont(ctx context.Context, opts fonts.GoogleFontOptions) ([]byte, error)
	LoadGoogleFont(ctx context.Context, opts fonts.GoogleFontOptions) (fonts.Font, error)
}

type Server struct {
	engine Engine
	image  config.ImageConfig
	cfg    config.ServerConfig
	log    *zap.Logger
	router chi.Router
}

// New creates server, image configuration provides defaults for request
// parameters.
func New(engine Engine, image config.ImageConfig, cfg config.ServerConfig, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{engine: engine, image: image, cfg: cfg, log: log.Named("server")}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if cfg.RenderTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RenderTimeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Route("/image", func(r chi.Router) {
		r.Get("/", s.imageFromQuery)
		r.Post("/", s.imageFromBody)
	})
	r.Get("/fonts/google", s.googleFont)
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// requestID keeps incoming request id or assigns new uuid, id is available
// with middleware.GetReqID and echoed in response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), middleware.RequestIDKey, id)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			fields := []zap.Field{
				zap.String("id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote", r.RemoteAddr),
				zap.Int("status", ww.Status()),
				zap.Int("size", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
			}
			if ww.Status() >= http.StatusInternalServerError {
				s.log.Warn("Request failed", fields...)
				return
			}
			s.log.Debug("Request served", fields...)
		}()
		next.ServeHTTP(ww, r)
	})
}

// Serve accepts connections on listener until context is canceled, then
// shuts server down gracefully.
func Serve(ctx context.Context, ln net.Listener, s *Server) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		ErrorLog:     zap.NewStdLog(s.log),
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("unable to serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.log.Info("Shutting down")
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("unable to shut server down: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// Run is serve command action.
func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("serve")

	cfg := env.Cfg.Server
	if addr := cmd.String("listen"); addr != "" {
		cfg.Listen = addr
	}

	// fail early rather than on first request
	if err := env.Engine.Init(ctx); err != nil {
		return fmt.Errorf("unable to initialize renderer: %w", err)
	}

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("unable to listen on %s: %w", cfg.Listen, err)
	}
	log.Info("Serving images", zap.String("address", ln.Addr().String()),
		zap.Int("width", env.Cfg.Image.Width), zap.Int("height", env.Cfg.Image.Height), zap.Stringer("format", env.Cfg.Image.Format))
	defer func(start time.Time) {
		log.Info("Server stopped", zap.Duration("uptime", time.Since(start)))
	}(time.Now())

	return Serve(ctx, ln, New(env.Engine, env.Cfg.Image, cfg, env.Log))
}
