package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/journal-editorial-api/internal/middleware"
	"github.com/noah-isme/journal-editorial-api/internal/models"
)

// Handlers bundles every HTTP handler registered under the API prefix.
type Handlers struct {
	Auth          *AuthHandler
	Manuscripts   *ManuscriptHandler
	Reviews       *ReviewHandler
	DOI           *DOIHandler
	Issues        *IssueHandler
	Notifications *NotificationHandler
	Files         *FileHandler
	Metrics       *MetricsHandler
}

// RegisterRoutes mounts the API. Role gates here are coarse; ownership and
// assigned-editor rules are enforced by the services.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, tokens middleware.TokenValidator) {
	staff := middleware.RequireRoles(models.RoleEditor, models.RoleAdmin)
	admin := middleware.RequireRoles(models.RoleAdmin)

	api.POST("/auth/login", h.Auth.Login)
	api.GET("/files/download", h.Files.Download)

	public := api.Group("", middleware.OptionalJWT(tokens))
	public.GET("/issues", h.Issues.List)
	public.GET("/issues/:id", h.Issues.Get)
	public.GET("/issues/:id/toc", h.Issues.TableOfContents)
	public.GET("/issues/:id/toc/export", h.Issues.ExportTableOfContents)

	authed := api.Group("", middleware.JWT(tokens))
	authed.GET("/auth/me", h.Auth.Me)

	manuscripts := authed.Group("/manuscripts")
	manuscripts.POST("", middleware.RequireRoles(models.RoleAuthor, models.RoleAdmin), h.Manuscripts.Create)
	manuscripts.GET("", h.Manuscripts.List)
	manuscripts.GET("/stats", staff, h.Manuscripts.Stats)
	manuscripts.GET("/:id", h.Manuscripts.Get)
	manuscripts.DELETE("/:id", h.Manuscripts.Delete)
	manuscripts.GET("/:id/timeline", h.Manuscripts.Timeline)
	manuscripts.POST("/:id/editor", admin, h.Manuscripts.AssignEditor)
	manuscripts.POST("/:id/decision", staff, h.Manuscripts.RecordDecision)
	manuscripts.POST("/:id/revisions", h.Manuscripts.SubmitRevision)
	manuscripts.GET("/:id/revisions/compare", h.Manuscripts.CompareRevisions)
	manuscripts.GET("/:id/files/:fileId", h.Manuscripts.DownloadFile)
	manuscripts.GET("/:id/files/:fileId/url", h.Manuscripts.FileDownloadURL)
	manuscripts.POST("/:id/reviewers", staff, h.Reviews.AssignReviewers)
	manuscripts.GET("/:id/reviews", h.Reviews.ListForManuscript)
	manuscripts.POST("/:id/doi/deposit", staff, h.DOI.Deposit)
	manuscripts.POST("/:id/doi/retry", staff, h.DOI.Retry)
	manuscripts.PUT("/:id/doi", admin, h.DOI.AssignManual)

	reviews := authed.Group("/reviews")
	reviews.GET("/mine", middleware.RequireRoles(models.RoleReviewer), h.Reviews.ListMine)
	reviews.GET("/:id", h.Reviews.Get)
	reviews.POST("/:id/respond", middleware.RequireRoles(models.RoleReviewer), h.Reviews.Respond)
	reviews.POST("/:id/submit", middleware.RequireRoles(models.RoleReviewer), h.Reviews.Submit)
	reviews.POST("/:id/reminders", staff, h.Reviews.SendReminder)

	authed.POST("/doi/bulk-retry", staff, h.DOI.BulkRetry)

	issues := authed.Group("/issues", staff)
	issues.POST("", h.Issues.Create)
	issues.POST("/:id/manuscripts", h.Issues.AddManuscript)
	issues.DELETE("/:id/manuscripts/:manuscriptId", h.Issues.RemoveManuscript)
	issues.POST("/:id/publish", h.Issues.Publish)

	authed.GET("/notifications", h.Notifications.List)
	authed.POST("/notifications/:id/read", h.Notifications.MarkRead)

	authed.GET("/metrics/summary", staff, h.Metrics.Summary)
}
