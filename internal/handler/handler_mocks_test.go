package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/journal-editorial-api/internal/dto"
	"github.com/noah-isme/journal-editorial-api/internal/middleware"
	"github.com/noah-isme/journal-editorial-api/internal/models"
	"github.com/noah-isme/journal-editorial-api/internal/service"
	appErrors "github.com/noah-isme/journal-editorial-api/pkg/errors"
)

type manuscriptServiceMock struct {
	err         error
	lastCreate  dto.CreateManuscriptRequest
	lastUploads []string
	lastQuery   dto.ManuscriptQuery
	lastNotes   string
	lastResp    string
	lastFrom    int
	lastTo      int
	calls       []string
}

func (m *manuscriptServiceMock) record(call string) { m.calls = append(m.calls, call) }

func (m *manuscriptServiceMock) Create(_ context.Context, req dto.CreateManuscriptRequest, uploads []service.FileUpload, _ *models.JWTClaims) (*models.Manuscript, error) {
	m.record("Create")
	m.lastCreate = req
	for _, u := range uploads {
		body, _ := io.ReadAll(u.Content)
		m.lastUploads = append(m.lastUploads, u.Filename+":"+string(body))
	}
	if m.err != nil {
		return nil, m.err
	}
	return &models.Manuscript{ID: "JNL-2026-00001", Title: req.Title, Status: models.ManuscriptStatusSubmitted}, nil
}

func (m *manuscriptServiceMock) Get(_ context.Context, id string, _ *models.JWTClaims) (*models.Manuscript, error) {
	m.record("Get")
	if m.err != nil {
		return nil, m.err
	}
	return &models.Manuscript{ID: id}, nil
}

func (m *manuscriptServiceMock) List(_ context.Context, query dto.ManuscriptQuery, _ *models.JWTClaims) ([]models.Manuscript, *models.Pagination, error) {
	m.record("List")
	m.lastQuery = query
	return []models.Manuscript{{ID: "JNL-2026-00001"}}, &models.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: 1}, m.err
}

func (m *manuscriptServiceMock) AssignEditor(_ context.Context, id string, _ dto.AssignEditorRequest, _ *models.JWTClaims) (*models.Manuscript, error) {
	m.record("AssignEditor")
	return &models.Manuscript{ID: id}, m.err
}

func (m *manuscriptServiceMock) RecordDecision(_ context.Context, id string, _ dto.DecisionRequest, _ *models.JWTClaims) (*models.Manuscript, error) {
	m.record("RecordDecision")
	if m.err != nil {
		return nil, m.err
	}
	return &models.Manuscript{ID: id}, nil
}

func (m *manuscriptServiceMock) SubmitRevision(_ context.Context, id string, req dto.SubmitRevisionRequest, uploads []service.FileUpload, resp *service.FileUpload, _ *models.JWTClaims) (*models.Manuscript, error) {
	m.record("SubmitRevision")
	m.lastNotes = req.Notes
	for _, u := range uploads {
		m.lastUploads = append(m.lastUploads, u.Filename)
	}
	if resp != nil {
		m.lastResp = resp.Filename
	}
	return &models.Manuscript{ID: id, CurrentVersion: 2}, m.err
}

func (m *manuscriptServiceMock) CompareRevisions(_ context.Context, id string, from, to int, _ *models.JWTClaims) (*models.RevisionComparison, error) {
	m.record("CompareRevisions")
	m.lastFrom, m.lastTo = from, to
	return &models.RevisionComparison{ManuscriptID: id, FromVersion: from, ToVersion: to}, m.err
}

func (m *manuscriptServiceMock) Delete(context.Context, string, *models.JWTClaims) error {
	m.record("Delete")
	return m.err
}

func (m *manuscriptServiceMock) DownloadFile(_ context.Context, _, fileID string, _ *models.JWTClaims) (io.ReadCloser, *models.ManuscriptFile, error) {
	m.record("DownloadFile")
	if m.err != nil {
		return nil, nil, m.err
	}
	return io.NopCloser(strings.NewReader("%PDF-1.4")), &models.ManuscriptFile{ID: fileID, OriginalName: "paper.pdf", MimeType: "application/pdf", SizeBytes: 8}, nil
}

func (m *manuscriptServiceMock) FileDownloadURL(context.Context, string, string, *models.JWTClaims) (*dto.FileDownloadURL, error) {
	m.record("FileDownloadURL")
	return &dto.FileDownloadURL{URL: "/api/v1/files/download?token=t"}, m.err
}

func (m *manuscriptServiceMock) Timeline(context.Context, string, *models.JWTClaims) (models.Timeline, error) {
	m.record("Timeline")
	return models.Timeline{{Event: models.EventSubmitted}}, m.err
}

func (m *manuscriptServiceMock) Stats(context.Context, *models.JWTClaims) ([]models.ManuscriptStatusCount, error) {
	m.record("Stats")
	return nil, m.err
}

type reviewServiceMock struct {
	err   error
	calls []string
}

func (m *reviewServiceMock) AssignReviewers(_ context.Context, _ string, req dto.AssignReviewersRequest, _ *models.JWTClaims) (*dto.AssignReviewersResult, error) {
	m.calls = append(m.calls, "AssignReviewers")
	return &dto.AssignReviewersResult{Skipped: req.ReviewerIDs}, m.err
}

func (m *reviewServiceMock) Respond(_ context.Context, id string, _ dto.RespondInvitationRequest, _ *models.JWTClaims) (*models.Review, error) {
	m.calls = append(m.calls, "Respond")
	return &models.Review{ID: id}, m.err
}

func (m *reviewServiceMock) Submit(_ context.Context, id string, _ dto.SubmitReviewRequest, _ *models.JWTClaims) (*models.Review, error) {
	m.calls = append(m.calls, "Submit")
	return &models.Review{ID: id}, m.err
}

func (m *reviewServiceMock) SendReminder(_ context.Context, id string, _ *models.JWTClaims) (*models.Review, error) {
	m.calls = append(m.calls, "SendReminder")
	return &models.Review{ID: id}, m.err
}

func (m *reviewServiceMock) Get(_ context.Context, id string, _ *models.JWTClaims) (*models.Review, error) {
	m.calls = append(m.calls, "Get")
	return &models.Review{ID: id}, m.err
}

func (m *reviewServiceMock) ListForManuscript(context.Context, string, *models.JWTClaims) ([]models.Review, error) {
	m.calls = append(m.calls, "ListForManuscript")
	return nil, m.err
}

func (m *reviewServiceMock) ListForReviewer(context.Context, *models.JWTClaims) ([]models.Review, error) {
	m.calls = append(m.calls, "ListForReviewer")
	return nil, m.err
}

type doiServiceMock struct {
	manuscript *models.Manuscript
	err        error
	calls      []string
}

func (m *doiServiceMock) Deposit(context.Context, string, *models.JWTClaims) (*models.Manuscript, error) {
	m.calls = append(m.calls, "Deposit")
	return m.manuscript, m.err
}

func (m *doiServiceMock) Retry(context.Context, string, *models.JWTClaims) (*models.Manuscript, error) {
	m.calls = append(m.calls, "Retry")
	return m.manuscript, m.err
}

func (m *doiServiceMock) BulkRetry(context.Context, *models.JWTClaims) (*models.BulkRetryResult, error) {
	m.calls = append(m.calls, "BulkRetry")
	return &models.BulkRetryResult{Processed: 3, Success: 2, Failed: 1}, m.err
}

func (m *doiServiceMock) AssignManual(_ context.Context, _ string, req dto.AssignDOIRequest, _ *models.JWTClaims) (*models.Manuscript, error) {
	m.calls = append(m.calls, "AssignManual:"+req.DOI)
	return m.manuscript, m.err
}

type issueServiceMock struct {
	err        error
	lastFormat models.ExportFormat
	lastQuery  dto.IssueQuery
	calls      []string
}

func (m *issueServiceMock) Create(_ context.Context, req dto.CreateIssueRequest, _ *models.JWTClaims) (*models.Issue, error) {
	m.calls = append(m.calls, "Create")
	return &models.Issue{ID: "issue-1", Volume: req.Volume, Number: req.Number}, m.err
}

func (m *issueServiceMock) Get(_ context.Context, id string, _ *models.JWTClaims) (*models.Issue, error) {
	m.calls = append(m.calls, "Get")
	return &models.Issue{ID: id}, m.err
}

func (m *issueServiceMock) List(_ context.Context, query dto.IssueQuery, _ *models.JWTClaims) ([]models.Issue, *models.Pagination, error) {
	m.calls = append(m.calls, "List")
	m.lastQuery = query
	return nil, &models.Pagination{Page: 1, PageSize: 20}, m.err
}

func (m *issueServiceMock) AddManuscript(_ context.Context, id string, _ dto.AddIssueManuscriptRequest, _ *models.JWTClaims) (*models.Issue, error) {
	m.calls = append(m.calls, "AddManuscript")
	return &models.Issue{ID: id}, m.err
}

func (m *issueServiceMock) RemoveManuscript(_ context.Context, id, _ string, _ *models.JWTClaims) (*models.Issue, error) {
	m.calls = append(m.calls, "RemoveManuscript")
	return &models.Issue{ID: id}, m.err
}

func (m *issueServiceMock) Publish(_ context.Context, id string, _ *models.JWTClaims) (*models.IssuePublication, error) {
	m.calls = append(m.calls, "Publish")
	if m.err != nil {
		return nil, m.err
	}
	return &models.IssuePublication{Issue: &models.Issue{ID: id, IsPublished: true}}, nil
}

func (m *issueServiceMock) TableOfContents(_ context.Context, id string, _ *models.JWTClaims) (*models.TableOfContents, error) {
	m.calls = append(m.calls, "TableOfContents")
	return &models.TableOfContents{IssueID: id}, m.err
}

func (m *issueServiceMock) ExportTableOfContents(_ context.Context, _ string, format models.ExportFormat, _ *models.JWTClaims) ([]byte, string, string, error) {
	m.calls = append(m.calls, "ExportTableOfContents")
	m.lastFormat = format
	if m.err != nil {
		return nil, "", "", m.err
	}
	return []byte("Pages,Title\n"), "text/csv", "toc-vol-1-no-1-2026.csv", nil
}

type notificationServiceMock struct {
	err error
}

func (m *notificationServiceMock) ListForUser(context.Context, dto.NotificationQuery, *models.JWTClaims) ([]models.Notification, *models.Pagination, error) {
	return []models.Notification{}, &models.Pagination{Page: 1, PageSize: 20}, m.err
}

func (m *notificationServiceMock) MarkRead(context.Context, string, *models.JWTClaims) error {
	return m.err
}

type authServiceMock struct {
	err error
}

func (m *authServiceMock) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.LoginResponse{AccessToken: "token-for-" + req.Email}, nil
}

type signedFilesMock struct{}

func (signedFilesMock) OpenSigned(token string) (io.ReadCloser, string, error) {
	if token != "good" {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	return io.NopCloser(strings.NewReader("file-body")), "paper.pdf", nil
}

// tokenTable maps bearer tokens straight to claims.
type tokenTable map[string]*models.JWTClaims

func (t tokenTable) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := t[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func testContext(req *http.Request, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}
