package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/journal-editorial-api/internal/dto"
	"github.com/noah-isme/journal-editorial-api/internal/models"
	appErrors "github.com/noah-isme/journal-editorial-api/pkg/errors"
	"github.com/noah-isme/journal-editorial-api/pkg/response"
)

type doiService interface {
	Deposit(ctx context.Context, id string, actor *models.JWTClaims) (*models.Manuscript, error)
	Retry(ctx context.Context, id string, actor *models.JWTClaims) (*models.Manuscript, error)
	BulkRetry(ctx context.Context, actor *models.JWTClaims) (*models.BulkRetryResult, error)
	AssignManual(ctx context.Context, id string, req dto.AssignDOIRequest, actor *models.JWTClaims) (*models.Manuscript, error)
}

// DOIHandler exposes identifier deposit endpoints.
type DOIHandler struct {
	service doiService
}

// NewDOIHandler builds a new handler.
func NewDOIHandler(service doiService) *DOIHandler {
	return &DOIHandler{service: service}
}

// Deposit godoc
// @Summary Deposit a DOI
// @Description A registrar failure is recorded on the manuscript and returned as 502.
// @Tags DOI
// @Produce json
// @Param id path string true "Manuscript ID"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /manuscripts/{id}/doi/deposit [post]
func (h *DOIHandler) Deposit(c *gin.Context) {
	h.respond(c, h.service.Deposit)
}

// Retry godoc
// @Summary Retry a failed DOI deposit
// @Tags DOI
// @Produce json
// @Param id path string true "Manuscript ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /manuscripts/{id}/doi/retry [post]
func (h *DOIHandler) Retry(c *gin.Context) {
	h.respond(c, h.service.Retry)
}

// AssignManual godoc
// @Summary Bind a DOI manually
// @Tags DOI
// @Accept json
// @Produce json
// @Param id path string true "Manuscript ID"
// @Param payload body dto.AssignDOIRequest true "DOI"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /manuscripts/{id}/doi [put]
func (h *DOIHandler) AssignManual(c *gin.Context) {
	var req dto.AssignDOIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "invalid doi payload"))
		return
	}
	m, err := h.service.AssignManual(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, m, nil)
}

// BulkRetry godoc
// @Summary Retry failed deposits in bulk
// @Tags DOI
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /doi/bulk-retry [post]
func (h *DOIHandler) BulkRetry(c *gin.Context) {
	res, err := h.service.BulkRetry(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// respond writes the failure envelope with the updated record attached, since a failed
// deposit still changed the manuscript.
func (h *DOIHandler) respond(c *gin.Context, call func(context.Context, string, *models.JWTClaims) (*models.Manuscript, error)) {
	m, err := call(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		if m != nil {
			response.ErrorWithData(c, err, m)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, m, nil)
}
