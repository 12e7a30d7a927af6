package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/journal-editorial-api/internal/dto"
	"github.com/noah-isme/journal-editorial-api/internal/middleware"
	"github.com/noah-isme/journal-editorial-api/internal/models"
	appErrors "github.com/noah-isme/journal-editorial-api/pkg/errors"
	"github.com/noah-isme/journal-editorial-api/pkg/response"
)

type issueService interface {
	Create(ctx context.Context, req dto.CreateIssueRequest, actor *models.JWTClaims) (*models.Issue, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Issue, error)
	List(ctx context.Context, query dto.IssueQuery, actor *models.JWTClaims) ([]models.Issue, *models.Pagination, error)
	AddManuscript(ctx context.Context, issueID string, req dto.AddIssueManuscriptRequest, actor *models.JWTClaims) (*models.Issue, error)
	RemoveManuscript(ctx context.Context, issueID, manuscriptID string, actor *models.JWTClaims) (*models.Issue, error)
	Publish(ctx context.Context, issueID string, actor *models.JWTClaims) (*models.IssuePublication, error)
	TableOfContents(ctx context.Context, issueID string, actor *models.JWTClaims) (*models.TableOfContents, error)
	ExportTableOfContents(ctx context.Context, issueID string, format models.ExportFormat, actor *models.JWTClaims) ([]byte, string, string, error)
}

// IssueHandler exposes issue assembly and publication endpoints.
type IssueHandler struct {
	service issueService
}

// NewIssueHandler builds a new handler.
func NewIssueHandler(service issueService) *IssueHandler {
	return &IssueHandler{service: service}
}

// Create godoc
// @Summary Open an issue
// @Tags Issues
// @Accept json
// @Produce json
// @Param payload body dto.CreateIssueRequest true "Issue"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /issues [post]
func (h *IssueHandler) Create(c *gin.Context) {
	var req dto.CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "invalid issue payload"))
		return
	}
	issue, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, issue)
}

// List godoc
// @Summary List issues
// @Description Anonymous callers and authors only see published issues.
// @Tags Issues
// @Produce json
// @Param year query int false "Year"
// @Param published query bool false "Published filter (staff only)"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /issues [get]
func (h *IssueHandler) List(c *gin.Context) {
	var query dto.IssueQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "invalid issue query"))
		return
	}
	items, page, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, page, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get an issue
// @Tags Issues
// @Produce json
// @Param id path string true "Issue ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /issues/{id} [get]
func (h *IssueHandler) Get(c *gin.Context) {
	issue, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}

// AddManuscript godoc
// @Summary Add an accepted manuscript to an issue
// @Tags Issues
// @Accept json
// @Produce json
// @Param id path string true "Issue ID"
// @Param payload body dto.AddIssueManuscriptRequest true "Entry"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /issues/{id}/manuscripts [post]
func (h *IssueHandler) AddManuscript(c *gin.Context) {
	var req dto.AddIssueManuscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "invalid issue entry"))
		return
	}
	issue, err := h.service.AddManuscript(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}

// RemoveManuscript godoc
// @Summary Remove a manuscript from an issue
// @Tags Issues
// @Produce json
// @Param id path string true "Issue ID"
// @Param manuscriptId path string true "Manuscript ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /issues/{id}/manuscripts/{manuscriptId} [delete]
func (h *IssueHandler) RemoveManuscript(c *gin.Context) {
	issue, err := h.service.RemoveManuscript(c.Request.Context(), c.Param("id"), c.Param("manuscriptId"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}

// Publish godoc
// @Summary Publish an issue
// @Description Publishes every accepted member and reports each DOI outcome.
// @Tags Issues
// @Produce json
// @Param id path string true "Issue ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /issues/{id}/publish [post]
func (h *IssueHandler) Publish(c *gin.Context) {
	pub, err := h.service.Publish(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pub, nil)
}

// TableOfContents godoc
// @Summary Issue table of contents
// @Tags Issues
// @Produce json
// @Param id path string true "Issue ID"
// @Success 200 {object} response.Envelope
// @Router /issues/{id}/toc [get]
func (h *IssueHandler) TableOfContents(c *gin.Context) {
	toc, err := h.service.TableOfContents(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, toc, nil, middleware.ExtractMeta(c))
}

// ExportTableOfContents godoc
// @Summary Download the table of contents
// @Tags Issues
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Issue ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /issues/{id}/toc/export [get]
func (h *IssueHandler) ExportTableOfContents(c *gin.Context) {
	format := models.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(models.ExportFormatCSV))))
	data, contentType, filename, err := h.service.ExportTableOfContents(c.Request.Context(), c.Param("id"), format, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, contentType, data)
}
