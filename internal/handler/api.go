package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/syedismail7230/Authai/internal/models"
	"github.com/syedismail7230/Authai/internal/service"
)

// Handler handles HTTP requests
type Handler struct {
	analyzer *service.Analyzer
	logger   *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(analyzer *service.Analyzer, logger *zap.Logger) *Handler {
	return &Handler{
		analyzer: analyzer,
		logger:   logger,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		// Analysis pipeline
		api.POST("/analyze", h.SubmitJob)
		api.GET("/analyze/jobs/:id", h.GetJobStatus)
		api.GET("/analyze/jobs/:id/events", h.StreamJobEvents)

		// Certificate ledger
		api.POST("/certificates", h.IssueCertificate)
		api.GET("/certificates/stats", h.GetStats)
		api.GET("/certificates/:id", h.ResolveCertificate)

		api.GET("/health", h.APIHealth)
	}

	// Health check
	r.GET("/health", h.HealthCheck)
}

// SubmitJob accepts a content submission and returns the job id immediately;
// analysis runs in the background.
func (h *Handler) SubmitJob(c *gin.Context) {
	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobID, err := h.analyzer.Submit(req.Content, req.Type)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Reason})
			return
		}
		h.logger.Error("Failed to submit job", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit job"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"jobId":  jobID,
		"status": string(models.JobStateQueued),
	})
}

// GetJobStatus is the point-in-time poll alternative to the event stream.
func (h *Handler) GetJobStatus(c *gin.Context) {
	job, err := h.analyzer.GetJob(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// IssueCertificate mints a certificate from a completed job.
func (h *Handler) IssueCertificate(c *gin.Context) {
	var req models.IssueCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cert, err := h.analyzer.IssueCertificate(c.Request.Context(), req.JobID, req.Owner, req.ContentPreview)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusConflict, gin.H{"error": verr.Reason})
			return
		}
		var perr *models.PersistenceError
		if errors.As(err, &perr) {
			h.logger.Error("Certificate persistence failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "certificate could not be persisted"})
			return
		}
		h.logger.Error("Failed to issue certificate", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue certificate"})
		return
	}

	c.JSON(http.StatusCreated, cert)
}

// ResolveCertificate looks up a certificate by id.
func (h *Handler) ResolveCertificate(c *gin.Context) {
	cert, err := h.analyzer.ResolveCertificate(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "certificate not found in ledger"})
			return
		}
		var perr *models.PersistenceError
		if errors.As(err, &perr) {
			h.logger.Error("Certificate ledger unavailable", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ledger unavailable"})
			return
		}
		h.logger.Error("Failed to resolve certificate", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve certificate"})
		return
	}

	c.JSON(http.StatusOK, cert)
}

// GetStats returns ledger statistics
func (h *Handler) GetStats(c *gin.Context) {
	count, err := h.analyzer.CertificateCount(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"certificates": count})
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "verdict-service",
		"version": "1.0.0",
	})
}

// APIHealth is the versioned health probe with a server timestamp.
func (h *Handler) APIHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
