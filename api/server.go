// Package api exposes the document store and enhancement pipeline over
// HTTP.
package api

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"articleforge/ingest"
	"articleforge/pipeline"
	"articleforge/store"
	"articleforge/types"
)

// Processor runs enhancement attempts. *pipeline.Orchestrator satisfies
// it; tests substitute fakes.
type Processor interface {
	Process(ctx context.Context, id string) (*types.Document, error)
	BulkProcess(ctx context.Context, ids []string) []pipeline.BulkResult
}

// FeedIngester pulls new documents from a feed into the store.
type FeedIngester interface {
	IngestFeed(ctx context.Context, feedInput string, count int) (*ingest.Result, error)
}

// Server holds the handlers' collaborators.
type Server struct {
	store     store.Store
	processor Processor
	ingester  FeedIngester
	logger    *slog.Logger
}

// NewServer creates a Server. The ingester may be nil; the ingest
// endpoint then reports the capability as unavailable.
func NewServer(st store.Store, processor Processor, ingester FeedIngester, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:     st,
		processor: processor,
		ingester:  ingester,
		logger:    logger.With("component", "api"),
	}
}

// NewRouter constructs a Gin engine with registered routes.
func (s *Server) NewRouter() *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	s.RegisterDocumentRoutes(r)
	s.RegisterHealthRoutes(r)
	return r
}
