package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/journal-editorial-api/internal/dto"
	"github.com/noah-isme/journal-editorial-api/internal/middleware"
	"github.com/noah-isme/journal-editorial-api/internal/models"
	"github.com/noah-isme/journal-editorial-api/internal/service"
	appErrors "github.com/noah-isme/journal-editorial-api/pkg/errors"
	"github.com/noah-isme/journal-editorial-api/pkg/response"
)

type manuscriptService interface {
	Create(ctx context.Context, req dto.CreateManuscriptRequest, uploads []service.FileUpload, actor *models.JWTClaims) (*models.Manuscript, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Manuscript, error)
	List(ctx context.Context, query dto.ManuscriptQuery, actor *models.JWTClaims) ([]models.Manuscript, *models.Pagination, error)
	AssignEditor(ctx context.Context, id string, req dto.AssignEditorRequest, actor *models.JWTClaims) (*models.Manuscript, error)
	RecordDecision(ctx context.Context, id string, req dto.DecisionRequest, actor *models.JWTClaims) (*models.Manuscript, error)
	SubmitRevision(ctx context.Context, id string, req dto.SubmitRevisionRequest, uploads []service.FileUpload, response *service.FileUpload, actor *models.JWTClaims) (*models.Manuscript, error)
	CompareRevisions(ctx context.Context, id string, from, to int, actor *models.JWTClaims) (*models.RevisionComparison, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
	DownloadFile(ctx context.Context, id, fileID string, actor *models.JWTClaims) (io.ReadCloser, *models.ManuscriptFile, error)
	FileDownloadURL(ctx context.Context, id, fileID string, actor *models.JWTClaims) (*dto.FileDownloadURL, error)
	Timeline(ctx context.Context, id string, actor *models.JWTClaims) (models.Timeline, error)
	Stats(ctx context.Context, actor *models.JWTClaims) ([]models.ManuscriptStatusCount, error)
}

// ManuscriptHandler exposes submission, decision and revision endpoints.
type ManuscriptHandler struct {
	service manuscriptService
}

// NewManuscriptHandler builds a new handler.
func NewManuscriptHandler(service manuscriptService) *ManuscriptHandler {
	return &ManuscriptHandler{service: service}
}

// Create godoc
// @Summary Submit a manuscript
// @Description Multipart request: a "metadata" JSON field plus one or more "files" parts.
// @Tags Manuscripts
// @Accept multipart/form-data
// @Produce json
// @Param metadata formData string true "dto.CreateManuscriptRequest as JSON"
// @Param files formData file true "Manuscript files"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /manuscripts [post]
func (h *ManuscriptHandler) Create(c *gin.Context) {
	uploads, opened, err := collectUploads(c, "files")
	defer opened.Close()
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateManuscriptRequest
	if err := json.Unmarshal([]byte(c.Request.FormValue("metadata")), &req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "invalid manuscript metadata"))
		return
	}

	m, err := h.service.Create(c.Request.Context(), req, uploads, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, m)
}

// List godoc
// @Summary List manuscripts
// @Description Authors only see their own submissions and reviewers only those they review.
// @Tags Manuscripts
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param depositStatus query string false "DOI deposit status"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /manuscripts [get]
func (h *ManuscriptHandler) List(c *gin.Context) {
	query := dto.ManuscriptQuery{
		DepositStatus: models.DepositStatus(c.Query("depositStatus")),
		Page:          intQuery(c, "page", 1),
		PageSize:      intQuery(c, "page_size", 20),
	}
	for _, raw := range c.QueryArray("status") {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				query.Status = append(query.Status, models.ManuscriptStatus(part))
			}
		}
	}

	items, page, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, page, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get a manuscript
// @Tags Manuscripts
// @Produce json
// @Param id path string true "Manuscript ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /manuscripts/{id} [get]
func (h *ManuscriptHandler) Get(c *gin.Context) {
	m, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, m, nil)
}

// AssignEditor godoc
// @Summary Assign the handling editor
// @Tags Manuscripts
// @Accept json
// @Produce json
// @Param id path string true "Manuscript ID"
// @Param payload body dto.AssignEditorRequest true "Editor"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /manuscripts/{id}/editor [post]
func (h *ManuscriptHandler) AssignEditor(c *gin.Context) {
	var req dto.AssignEditorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "invalid editor assignment"))
		return
	}
	m, err := h.service.AssignEditor(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, m, nil)
}

// RecordDecision godoc
// @Summary Record an editorial decision
// @Tags Manuscripts
// @Accept json
// @Produce json
// @Param id path string true "Manuscript ID"
// @Param payload body dto.DecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /manuscripts/{id}/decision [post]
func (h *ManuscriptHandler) RecordDecision(c *gin.Context) {
	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "invalid decision payload"))
		return
	}
	m, err := h.service.RecordDecision(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, m, nil)
}

// SubmitRevision godoc
// @Summary Submit a revision
// @Description Multipart request: "files" parts, an optional "responseDocument" part and a "notes" field.
// @Tags Manuscripts
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Manuscript ID"
// @Param files formData file true "Revised files"
// @Param responseDocument formData file false "Response to reviewers"
// @Param notes formData string false "Notes"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /manuscripts/{id}/revisions [post]
func (h *ManuscriptHandler) SubmitRevision(c *gin.Context) {
	uploads, opened, err := collectUploads(c, "files")
	defer opened.Close()
	if err != nil {
		response.Error(c, err)
		return
	}
	responseDoc, err := optionalUpload(c, "responseDocument", opened)
	if err != nil {
		response.Error(c, err)
		return
	}
	req := dto.SubmitRevisionRequest{Notes: c.Request.FormValue("notes")}

	m, err := h.service.SubmitRevision(c.Request.Context(), c.Param("id"), req, uploads, responseDoc, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, m, nil)
}

// CompareRevisions godoc
// @Summary Compare two versions
// @Tags Manuscripts
// @Produce json
// @Param id path string true "Manuscript ID"
// @Param from query int true "Earlier version"
// @Param to query int true "Later version"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /manuscripts/{id}/revisions/compare [get]
func (h *ManuscriptHandler) CompareRevisions(c *gin.Context) {
	var q dto.CompareRevisionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "from and to must be integers"))
		return
	}
	cmp, err := h.service.CompareRevisions(c.Request.Context(), c.Param("id"), q.From, q.To, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cmp, nil)
}

// Delete godoc
// @Summary Delete a manuscript
// @Description Removes the record, its reviews and its stored files.
// @Tags Manuscripts
// @Param id path string true "Manuscript ID"
// @Success 204
// @Failure 412 {object} response.Envelope
// @Router /manuscripts/{id} [delete]
func (h *ManuscriptHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Timeline godoc
// @Summary Manuscript audit timeline
// @Tags Manuscripts
// @Produce json
// @Param id path string true "Manuscript ID"
// @Success 200 {object} response.Envelope
// @Router /manuscripts/{id}/timeline [get]
func (h *ManuscriptHandler) Timeline(c *gin.Context) {
	timeline, err := h.service.Timeline(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timeline, nil)
}

// DownloadFile godoc
// @Summary Stream a manuscript file
// @Tags Manuscripts
// @Produce octet-stream
// @Param id path string true "Manuscript ID"
// @Param fileId path string true "File ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /manuscripts/{id}/files/{fileId} [get]
func (h *ManuscriptHandler) DownloadFile(c *gin.Context) {
	rc, file, err := h.service.DownloadFile(c.Request.Context(), c.Param("id"), c.Param("fileId"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer rc.Close()
	c.Header("Content-Disposition", `attachment; filename="`+file.OriginalName+`"`)
	c.DataFromReader(http.StatusOK, file.SizeBytes, file.MimeType, rc, nil)
}

// FileDownloadURL godoc
// @Summary Issue a signed download link
// @Tags Manuscripts
// @Produce json
// @Param id path string true "Manuscript ID"
// @Param fileId path string true "File ID"
// @Success 200 {object} response.Envelope
// @Router /manuscripts/{id}/files/{fileId}/url [get]
func (h *ManuscriptHandler) FileDownloadURL(c *gin.Context) {
	link, err := h.service.FileDownloadURL(c.Request.Context(), c.Param("id"), c.Param("fileId"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Stats godoc
// @Summary Manuscript counts by status
// @Tags Manuscripts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /manuscripts/stats [get]
func (h *ManuscriptHandler) Stats(c *gin.Context) {
	counts, err := h.service.Stats(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}
