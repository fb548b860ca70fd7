package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/receiptkit/internal/node"
	"github.com/danmuck/receiptkit/internal/observability"
	"github.com/danmuck/receiptkit/internal/receipt"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const Version = "0.1.0"

type Options struct {
	ID              string
	Addr            string
	CorsOrigins     []string
	MaxReceiptBytes int64
	Metrics         bool
	Parser          receipt.Parser
	Logger          *zerolog.Logger
}

// Server is the receipt decoding HTTP node.
type Server struct {
	ID       string    `json:"id"`
	Addr     string    `json:"addr"`
	Appeared time.Time `json:"appeared"`

	parser   receipt.Parser
	maxBytes int64
	metrics  bool
	logger   zerolog.Logger
	router   *gin.Engine
}

var _ node.Node = (*Server)(nil)

func New(opts Options) *Server {
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	if opts.ID == "" {
		opts.ID = "receiptd"
	}
	if opts.MaxReceiptBytes <= 0 {
		opts.MaxReceiptBytes = receipt.DefaultMaxBytes
	}
	opts.Parser.Metrics = opts.Metrics
	if opts.Parser.Logger == nil {
		opts.Parser.Logger = &logger
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(logger))
	if opts.Metrics {
		observability.RegisterMetrics()
		r.Use(observability.RequestMetricsMiddleware(opts.ID))
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(opts.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		ID:       opts.ID,
		Addr:     opts.Addr,
		Appeared: time.Now(),
		parser:   opts.Parser,
		maxBytes: opts.MaxReceiptBytes,
		metrics:  opts.Metrics,
		logger:   logger,
		router:   r,
	}
	s.RegisterRoutes()
	return s
}

func (s *Server) NodeID() string {
	return s.ID
}

func (s *Server) Kind() string {
	return "receiptd"
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

// Serve listens on Addr until ctx is cancelled, then drains in-flight
// requests for up to five seconds.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("node", s.ID).Str("addr", s.Addr).Msg("receipt server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info().Str("node", s.ID).Msg("receipt server shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
