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

type reviewService interface {
	AssignReviewers(ctx context.Context, manuscriptID string, req dto.AssignReviewersRequest, actor *models.JWTClaims) (*dto.AssignReviewersResult, error)
	Respond(ctx context.Context, reviewID string, req dto.RespondInvitationRequest, actor *models.JWTClaims) (*models.Review, error)
	Submit(ctx context.Context, reviewID string, req dto.SubmitReviewRequest, actor *models.JWTClaims) (*models.Review, error)
	SendReminder(ctx context.Context, reviewID string, actor *models.JWTClaims) (*models.Review, error)
	Get(ctx context.Context, reviewID string, actor *models.JWTClaims) (*models.Review, error)
	ListForManuscript(ctx context.Context, manuscriptID string, actor *models.JWTClaims) ([]models.Review, error)
	ListForReviewer(ctx context.Context, actor *models.JWTClaims) ([]models.Review, error)
}

// ReviewHandler exposes reviewer invitation and review endpoints.
type ReviewHandler struct {
	service reviewService
}

// NewReviewHandler builds a new handler.
func NewReviewHandler(service reviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// AssignReviewers godoc
// @Summary Invite reviewers
// @Description Reviewers already assigned to the manuscript are skipped.
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Manuscript ID"
// @Param payload body dto.AssignReviewersRequest true "Reviewers"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /manuscripts/{id}/reviewers [post]
func (h *ReviewHandler) AssignReviewers(c *gin.Context) {
	var req dto.AssignReviewersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "invalid reviewer assignment"))
		return
	}
	res, err := h.service.AssignReviewers(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// ListForManuscript godoc
// @Summary Reviews of a manuscript
// @Description Authors receive completed reviews without confidential comments or reviewer identity.
// @Tags Reviews
// @Produce json
// @Param id path string true "Manuscript ID"
// @Success 200 {object} response.Envelope
// @Router /manuscripts/{id}/reviews [get]
func (h *ReviewHandler) ListForManuscript(c *gin.Context) {
	reviews, err := h.service.ListForManuscript(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, nil)
}

// ListMine godoc
// @Summary Reviews assigned to the caller
// @Tags Reviews
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reviews/mine [get]
func (h *ReviewHandler) ListMine(c *gin.Context) {
	reviews, err := h.service.ListForReviewer(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, nil)
}

// Get godoc
// @Summary Get a review
// @Tags Reviews
// @Produce json
// @Param id path string true "Review ID"
// @Success 200 {object} response.Envelope
// @Router /reviews/{id} [get]
func (h *ReviewHandler) Get(c *gin.Context) {
	review, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, review, nil)
}

// Respond godoc
// @Summary Accept or decline an invitation
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Review ID"
// @Param payload body dto.RespondInvitationRequest true "Response"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /reviews/{id}/respond [post]
func (h *ReviewHandler) Respond(c *gin.Context) {
	var req dto.RespondInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "invalid invitation response"))
		return
	}
	review, err := h.service.Respond(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, review, nil)
}

// Submit godoc
// @Summary Complete a review
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Review ID"
// @Param payload body dto.SubmitReviewRequest true "Review"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /reviews/{id}/submit [post]
func (h *ReviewHandler) Submit(c *gin.Context) {
	var req dto.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "invalid review payload"))
		return
	}
	review, err := h.service.Submit(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, review, nil)
}

// SendReminder godoc
// @Summary Remind a reviewer
// @Description The reminder is recorded even when delivery fails; delivery failures return 502.
// @Tags Reviews
// @Produce json
// @Param id path string true "Review ID"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /reviews/{id}/reminders [post]
func (h *ReviewHandler) SendReminder(c *gin.Context) {
	review, err := h.service.SendReminder(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, review, nil)
}
