package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"talentmatch/internal/extract"
	"talentmatch/internal/lifecycle"
	"talentmatch/internal/matching"
	"talentmatch/internal/orchestrator"
)

// Original upload form accepted at most 20 resumes per submission.
const maxDocuments = 20

// ownerHeader carries the authenticated recruiter identity. Session issuance
// happens upstream; this service only trusts the header it is handed.
const ownerHeader = "X-User-ID"

// Server exposes the matching core over HTTP.
type Server struct {
	store        matching.Store
	orchestrator *orchestrator.Orchestrator
	lifecycle    *lifecycle.Manager
	logger       *zap.Logger
}

func New(store matching.Store, orch *orchestrator.Orchestrator, lc *lifecycle.Manager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:        store,
		orchestrator: orch,
		lifecycle:    lc,
		logger:       logger,
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "API Running")
	})

	api := router.Group("/api", s.requireOwner)
	{
		api.POST("/match", s.submitBatch)
		api.GET("/jobs", s.listBatches)
		api.GET("/jobs/:id", s.getBatch)
		api.PUT("/jobs/:batchId/candidate/:candidateId", s.setStatus)
		api.PUT("/jobs/:batchId/candidate/:candidateId/notes", s.setNotes)
	}

	return router
}

func (s *Server) requireOwner(c *gin.Context) {
	owner := strings.TrimSpace(c.GetHeader(ownerHeader))
	if owner == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}
	c.Set("owner", owner)
	c.Next()
}

func ownerFrom(c *gin.Context) string {
	return c.GetString("owner")
}

// submitBatch runs one full orchestration: extract text from each upload,
// score the batch, persist the ranked result, return it.
func (s *Server) submitBatch(c *gin.Context) {
	owner := ownerFrom(c)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form is required"})
		return
	}

	files := form.File["resumes"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one resume file is required"})
		return
	}
	if len(files) > maxDocuments {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many resume files"})
		return
	}

	jobDescription := strings.TrimSpace(c.PostForm("jobDescription"))
	if jobDescription == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job description is required"})
		return
	}

	jobTitle := strings.TrimSpace(c.PostForm("jobTitle"))
	if jobTitle == "" {
		jobTitle = matching.DefaultJobTitle
	}

	docs := make([]matching.Document, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open uploaded file"})
			return
		}

		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read uploaded file"})
			return
		}

		text, err := extract.Text(data, header.Filename)
		if err != nil {
			// Unreadable upload: treated the same as empty extraction, so
			// the rest of the batch still runs.
			s.logger.Warn("text extraction failed",
				zap.String("file_name", header.Filename),
				zap.Error(err),
			)
			text = ""
		}

		docs = append(docs, matching.Document{FileName: header.Filename, Text: text})
	}

	candidates, err := s.orchestrator.RunBatch(c.Request.Context(), owner, jobDescription, docs)
	if err != nil {
		s.respondError(c, err)
		return
	}

	batch := &matching.JobBatch{
		ID:               uuid.NewString(),
		Owner:            owner,
		JobTitle:         jobTitle,
		JobDescription:   jobDescription,
		RankedCandidates: candidates,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.store.CreateBatch(c.Request.Context(), batch); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, batch)
}

func (s *Server) listBatches(c *gin.Context) {
	batches, err := s.store.ListBatches(c.Request.Context(), ownerFrom(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if batches == nil {
		batches = []*matching.JobBatch{}
	}

	c.JSON(http.StatusOK, batches)
}

func (s *Server) getBatch(c *gin.Context) {
	batch, err := s.lifecycle.GetBatch(c.Request.Context(), ownerFrom(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, batch)
}

func (s *Server) setStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	batch, err := s.lifecycle.SetStatus(c.Request.Context(),
		ownerFrom(c), c.Param("batchId"), c.Param("candidateId"), req.Status)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, batch)
}

func (s *Server) setNotes(c *gin.Context) {
	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	batch, err := s.lifecycle.SetNotes(c.Request.Context(),
		ownerFrom(c), c.Param("batchId"), c.Param("candidateId"), req.Notes)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, batch)
}

func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, matching.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, matching.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authorized"})
	case errors.Is(err, matching.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		s.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}
