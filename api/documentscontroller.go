package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"articleforge/pipeline"
	"articleforge/store"
	"articleforge/types"
)

// RegisterDocumentRoutes registers document CRUD, processing, ingest
// and stats endpoints.
func (s *Server) RegisterDocumentRoutes(r *gin.Engine) {
	g := r.Group("/api/documents")
	g.GET("", s.handleListDocuments)
	g.POST("", s.handleCreateDocument)
	g.GET("/:id", s.handleGetDocument)
	g.PUT("/:id", s.handleUpdateDocument)
	g.DELETE("/:id", s.handleDeleteDocument)
	g.POST("/:id/process", s.handleProcessDocument)

	r.POST("/api/bulk/process", s.handleBulkProcess)
	r.GET("/api/stats/summary", s.handleStatsSummary)
	r.POST("/api/ingest", s.handleIngest)
}

type paginationMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// handleListDocuments returns a page of documents.
// GET /api/documents?status=&sort_by=&sort_order=&page=&limit=
func (s *Server) handleListDocuments(c *gin.Context) {
	opts := store.ListOptions{
		Status:    types.Status(c.Query("status")),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if v, err := strconv.Atoi(c.Query("page")); err == nil {
		opts.Page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		opts.Limit = v
	}

	docs, total, err := s.store.List(c.Request.Context(), opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	page, limit := opts.Page, opts.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	pages := (total + limit - 1) / limit

	c.JSON(http.StatusOK, gin.H{
		"data": docs,
		"pagination": paginationMeta{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
	})
}

// handleGetDocument returns one document by id.
// GET /api/documents/:id
func (s *Server) handleGetDocument(c *gin.Context) {
	doc, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// CreateDocumentRequest is the payload for manually adding a document.
type CreateDocumentRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body" binding:"required"`
	URL   string `json:"url"`
}

// handleCreateDocument stores a new original document.
// POST /api/documents
func (s *Server) handleCreateDocument(c *gin.Context) {
	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc := &types.Document{
		OriginalTitle: strings.TrimSpace(req.Title),
		OriginalURL:   req.URL,
		Status:        types.StatusOriginal,
	}
	if req.URL != "" {
		doc.ID = types.GenerateID(req.URL)
	}
	doc.SetOriginalBody(req.Body)

	if err := s.store.Save(c.Request.Context(), doc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// UpdateDocumentRequest carries editable fields; omitted fields keep
// their current value.
type UpdateDocumentRequest struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
}

// handleUpdateDocument edits a document's original title and body.
// PUT /api/documents/:id
func (s *Server) handleUpdateDocument(c *gin.Context) {
	var req UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	doc, err := s.store.Get(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if req.Title != nil {
		doc.OriginalTitle = strings.TrimSpace(*req.Title)
	}
	if req.Body != nil {
		doc.SetOriginalBody(*req.Body)
	}

	if err := s.store.Save(ctx, doc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// handleDeleteDocument removes a document.
// DELETE /api/documents/:id
func (s *Server) handleDeleteDocument(c *gin.Context) {
	if err := s.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "document deleted"})
}

// handleProcessDocument runs one enhancement attempt synchronously and
// returns the final document.
// POST /api/documents/:id/process
func (s *Server) handleProcessDocument(c *gin.Context) {
	id := c.Param("id")
	doc, err := s.processor.Process(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		case errors.Is(err, pipeline.ErrInvalidState):
			c.JSON(http.StatusConflict, gin.H{"error": "document is already being processed"})
		default:
			s.logger.Error("processing failed", "document_id", id, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "document_id": id})
		}
		return
	}
	c.JSON(http.StatusOK, doc)
}

// BulkProcessRequest lists the documents to enhance.
type BulkProcessRequest struct {
	DocumentIDs []string `json:"document_ids" binding:"required"`
}

// handleBulkProcess enhances the listed documents sequentially and
// returns one result per id, in input order.
// POST /api/bulk/process
func (s *Server) handleBulkProcess(c *gin.Context) {
	var req BulkProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.DocumentIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document_ids must not be empty"})
		return
	}

	results := s.processor.BulkProcess(c.Request.Context(), req.DocumentIDs)

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"results":   results,
		"total":     len(results),
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
	})
}

// IngestRequest asks for documents to be pulled from a feed.
type IngestRequest struct {
	Feed  string `json:"feed" binding:"required"`
	Count int    `json:"count"`
}

// handleIngest pulls new documents from an RSS/Atom feed.
// POST /api/ingest
func (s *Server) handleIngest(c *gin.Context) {
	if s.ingester == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ingestion is not configured"})
		return
	}

	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.ingester.IngestFeed(c.Request.Context(), req.Feed, req.Count)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
