package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/errs"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/service"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/pkg/logger"
)

// Handler holds the HTTP endpoint handlers of the RAG service.
type Handler struct {
	service    *service.RagService
	log        *logger.Logger
	production bool
}

// NewHandler creates a Handler. In production mode, upstream provider
// detail is withheld from response bodies and only logged.
func NewHandler(s *service.RagService, log *logger.Logger, production bool) *Handler {
	return &Handler{service: s, log: log, production: production}
}

// GenerateEmbeddings handles POST /api/v1/rag/embeddings.
func (h *Handler) GenerateEmbeddings(c *gin.Context) {
	var req service.EmbeddingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.GenerateEmbeddings(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Query handles POST /api/v1/rag/query.
func (h *Handler) Query(c *gin.Context) {
	var req service.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.RetrieveFlat(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// TreeQuery handles POST /api/v1/rag/tree-query.
func (h *Handler) TreeQuery(c *gin.Context) {
	var req service.TreeQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.RetrieveHierarchical(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// TreeStatus handles GET /api/v1/rag/tree-status/:documentId.
func (h *Handler) TreeStatus(c *gin.Context) {
	documentID := c.Param("documentId")
	if documentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "documentId is required"})
		return
	}

	resp, err := h.service.TreeStatus(c.Request.Context(), documentID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Health handles GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	ok, detail := h.service.Health(c.Request.Context())
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"healthy": ok, "dependencies": detail})
}

// renderError maps the error taxonomy onto HTTP status codes. The full
// error is always logged; what reaches the response body depends on the
// error class and the environment.
func (h *Handler) renderError(c *gin.Context, err error) {
	h.log.WithError(err).Error("request failed")

	var (
		valErr      *errs.ValidationError
		cfgErr      *errs.ConfigurationError
		provErr     *errs.ProviderError
		parseErr    *errs.ParseError
		notReadyErr *errs.NotReadyError
		notFoundErr *errs.NotFoundError
	)
	switch {
	case errors.As(err, &valErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Error()})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	case errors.As(err, &notReadyErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":      notReadyErr.Error(),
			"documentId": notReadyErr.DocumentID,
			"state":      notReadyErr.State,
		})
	case errors.As(err, &parseErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": parseErr.Error()})
	case errors.As(err, &provErr):
		msg := provErr.Error()
		if h.production {
			msg = "upstream provider request failed"
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": msg})
	case errors.As(err, &cfgErr):
		msg := cfgErr.Error()
		if h.production {
			msg = "service is misconfigured"
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	default:
		msg := err.Error()
		if h.production {
			msg = "internal error"
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
