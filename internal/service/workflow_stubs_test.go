package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/journal-editorial-api/internal/models"
	"github.com/noah-isme/journal-editorial-api/pkg/doi"
)

func claims(id string, roles ...models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Roles: roles, FullName: strings.ToUpper(id)}
}

func cloneManuscript(t testing.TB, m *models.Manuscript) *models.Manuscript {
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	var out models.Manuscript
	require.NoError(t, json.Unmarshal(raw, &out))
	return &out
}

type manuscriptStoreStub struct {
	t          testing.TB
	items      map[string]*models.Manuscript
	seq        map[string]int
	lastFilter models.ManuscriptFilter
	saves      int
	saveErr    error
}

func newManuscriptStoreStub(t testing.TB) *manuscriptStoreStub {
	return &manuscriptStoreStub{t: t, items: map[string]*models.Manuscript{}, seq: map[string]int{}}
}

func (s *manuscriptStoreStub) put(m *models.Manuscript) {
	s.items[m.ID] = cloneManuscript(s.t, m)
}

func (s *manuscriptStoreStub) get(id string) *models.Manuscript {
	m, ok := s.items[id]
	require.True(s.t, ok, "manuscript %s missing", id)
	return cloneManuscript(s.t, m)
}

func (s *manuscriptStoreStub) NextSequence(_ context.Context, prefix string) (int, error) {
	s.seq[prefix]++
	return s.seq[prefix], nil
}

func (s *manuscriptStoreStub) Create(_ context.Context, m *models.Manuscript) error {
	if _, ok := s.items[m.ID]; ok {
		return fmt.Errorf("duplicate id %s", m.ID)
	}
	s.put(m)
	return nil
}

func (s *manuscriptStoreStub) GetByID(_ context.Context, id string) (*models.Manuscript, error) {
	m, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cloneManuscript(s.t, m), nil
}

func (s *manuscriptStoreStub) sorted() []*models.Manuscript {
	out := make([]*models.Manuscript, 0, len(s.items))
	for _, m := range s.items {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *manuscriptStoreStub) List(_ context.Context, filter models.ManuscriptFilter) ([]models.Manuscript, int, error) {
	s.lastFilter = filter
	var out []models.Manuscript
	for _, m := range s.sorted() {
		if filter.VisibleTo != "" && m.SubmittedBy != filter.VisibleTo {
			continue
		}
		out = append(out, *cloneManuscript(s.t, m))
	}
	return out, len(out), nil
}

func (s *manuscriptStoreStub) ListByDepositStatus(_ context.Context, status models.DepositStatus, limit int) ([]models.Manuscript, error) {
	var out []models.Manuscript
	for _, m := range s.sorted() {
		if m.Deposit.Status == status && len(out) < limit {
			out = append(out, *cloneManuscript(s.t, m))
		}
	}
	return out, nil
}

func (s *manuscriptStoreStub) ListByIDs(_ context.Context, ids []string) ([]models.Manuscript, error) {
	var out []models.Manuscript
	for _, id := range ids {
		if m, ok := s.items[id]; ok {
			out = append(out, *cloneManuscript(s.t, m))
		}
	}
	return out, nil
}

func (s *manuscriptStoreStub) ExistsDOI(_ context.Context, value, excludeID string) (bool, error) {
	for id, m := range s.items {
		if id != excludeID && m.DOI != nil && strings.EqualFold(*m.DOI, value) {
			return true, nil
		}
	}
	return false, nil
}

func (s *manuscriptStoreStub) Save(ctx context.Context, m *models.Manuscript) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.saveErr != nil {
		return s.saveErr
	}
	if _, ok := s.items[m.ID]; !ok {
		return sql.ErrNoRows
	}
	s.saves++
	s.put(m)
	return nil
}

func (s *manuscriptStoreStub) Delete(_ context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

func (s *manuscriptStoreStub) CountByStatus(context.Context) ([]models.ManuscriptStatusCount, error) {
	counts := map[models.ManuscriptStatus]int{}
	for _, m := range s.items {
		counts[m.Status]++
	}
	var out []models.ManuscriptStatusCount
	for status, n := range counts {
		out = append(out, models.ManuscriptStatusCount{Status: status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

type reviewStoreStub struct {
	items map[string]*models.Review
	order []string
	// failCreate makes Create fail for the given reviewer.
	failCreate map[string]error
}

func newReviewStoreStub() *reviewStoreStub {
	return &reviewStoreStub{items: map[string]*models.Review{}}
}

func (s *reviewStoreStub) Create(_ context.Context, review *models.Review) error {
	if err := s.failCreate[review.ReviewerID]; err != nil {
		return err
	}
	if review.ID == "" {
		review.ID = fmt.Sprintf("rev-%d", len(s.order)+1)
	}
	cp := *review
	s.items[review.ID] = &cp
	s.order = append(s.order, review.ID)
	return nil
}

func (s *reviewStoreStub) GetByID(_ context.Context, id string) (*models.Review, error) {
	r, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *r
	cp.Reminders = append(models.TimeList(nil), r.Reminders...)
	return &cp, nil
}

func (s *reviewStoreStub) filter(keep func(*models.Review) bool) []models.Review {
	var out []models.Review
	for _, id := range s.order {
		if r, ok := s.items[id]; ok && keep(r) {
			out = append(out, *r)
		}
	}
	return out
}

func (s *reviewStoreStub) ListByManuscript(_ context.Context, manuscriptID string) ([]models.Review, error) {
	return s.filter(func(r *models.Review) bool { return r.ManuscriptID == manuscriptID }), nil
}

func (s *reviewStoreStub) ListByReviewer(_ context.Context, reviewerID string) ([]models.Review, error) {
	return s.filter(func(r *models.Review) bool { return r.ReviewerID == reviewerID }), nil
}

func (s *reviewStoreStub) Exists(_ context.Context, manuscriptID, reviewerID string) (bool, error) {
	return len(s.filter(func(r *models.Review) bool {
		return r.ManuscriptID == manuscriptID && r.ReviewerID == reviewerID
	})) > 0, nil
}

func (s *reviewStoreStub) Save(_ context.Context, review *models.Review) error {
	if _, ok := s.items[review.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *review
	s.items[review.ID] = &cp
	return nil
}

func (s *reviewStoreStub) DeleteByManuscript(_ context.Context, manuscriptID string) (int64, error) {
	var n int64
	for id, r := range s.items {
		if r.ManuscriptID == manuscriptID {
			delete(s.items, id)
			n++
		}
	}
	return n, nil
}

type userDirectoryStub struct {
	users map[string]models.User
}

func newUserDirectoryStub(users ...models.User) *userDirectoryStub {
	d := &userDirectoryStub{users: map[string]models.User{}}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *userDirectoryStub) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (d *userDirectoryStub) FindByIDs(_ context.Context, ids []string) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type notifierStub struct {
	mu      sync.Mutex
	notices []Notice
	err     error
}

func (n *notifierStub) Notify(_ context.Context, notice Notice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return n.err
}

func (n *notifierStub) sentTo(recipient string, typ models.NotificationType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, notice := range n.notices {
		if notice.RecipientID == recipient && notice.Type == typ {
			count++
		}
	}
	return count
}

type fileStoreStub struct {
	next      int
	storeErr  error
	deleteErr error
	deleted   []string
	discarded []string
}

func (f *fileStoreStub) Store(_ context.Context, manuscriptID string, version int, uploads []FileUpload) (models.ManuscriptFiles, error) {
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	out := make(models.ManuscriptFiles, 0, len(uploads))
	for _, u := range uploads {
		f.next++
		out = append(out, models.ManuscriptFile{
			ID:           fmt.Sprintf("file-%d", f.next),
			OriginalName: u.Filename,
			StoredPath:   fmt.Sprintf("manuscripts/%s/v%d/file-%d", manuscriptID, version, f.next),
			MimeType:     "application/pdf",
			SizeBytes:    u.Size,
			UploadedAt:   time.Date(2026, 1, 1, 0, 0, f.next, 0, time.UTC),
		})
	}
	return out, nil
}

func (f *fileStoreStub) Open(file models.ManuscriptFile) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("content of " + file.OriginalName)), nil
}

func (f *fileStoreStub) Delete(file models.ManuscriptFile) error {
	f.deleted = append(f.deleted, file.ID)
	return f.deleteErr
}

func (f *fileStoreStub) Discard(files ...models.ManuscriptFile) {
	for _, file := range files {
		f.discarded = append(f.discarded, file.ID)
	}
}

func (f *fileStoreStub) SignedURL(file models.ManuscriptFile) (string, time.Time, error) {
	return "/api/v1/files/download?token=" + file.ID, time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC), nil
}

// registrarStub fails the calls whose 1-based index appears in failOn.
type registrarStub struct {
	mu     sync.Mutex
	calls  int
	failOn map[int]error
	minted map[string]string
	inner  *doi.LocalRegistrar
	// during runs inside every call, before the outcome is decided.
	during      func()
	sawDeadline bool
}

func newRegistrarStub() *registrarStub {
	return &registrarStub{failOn: map[int]error{}, minted: map[string]string{}, inner: doi.NewLocalRegistrar("10.5555")}
}

func (r *registrarStub) Assign(ctx context.Context, meta doi.Metadata) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if _, ok := ctx.Deadline(); ok {
		r.sawDeadline = true
	}
	if r.during != nil {
		r.during()
	}
	if err, ok := r.failOn[r.calls]; ok {
		return "", err
	}
	if value, ok := r.minted[meta.ManuscriptID]; ok {
		return value, nil
	}
	return r.inner.Assign(ctx, meta)
}

type issueStoreStub struct {
	items map[string]*models.Issue
	saves int
}

func newIssueStoreStub() *issueStoreStub {
	return &issueStoreStub{items: map[string]*models.Issue{}}
}

func (s *issueStoreStub) Create(_ context.Context, issue *models.Issue) error {
	if issue.ID == "" {
		issue.ID = fmt.Sprintf("issue-%d", len(s.items)+1)
	}
	cp := *issue
	cp.Manuscripts = append(models.IssueEntries{}, issue.Manuscripts...)
	s.items[issue.ID] = &cp
	return nil
}

func (s *issueStoreStub) GetByID(_ context.Context, id string) (*models.Issue, error) {
	issue, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *issue
	cp.Manuscripts = append(models.IssueEntries{}, issue.Manuscripts...)
	return &cp, nil
}

func (s *issueStoreStub) List(_ context.Context, filter models.IssueFilter) ([]models.Issue, int, error) {
	var out []models.Issue
	for _, issue := range s.items {
		if filter.Published != nil && issue.IsPublished != *filter.Published {
			continue
		}
		out = append(out, *issue)
	}
	return out, len(out), nil
}

func (s *issueStoreStub) ExistsVolumeNumber(_ context.Context, volume, number int) (bool, error) {
	for _, issue := range s.items {
		if issue.Volume == volume && issue.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (s *issueStoreStub) Save(ctx context.Context, issue *models.Issue) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := s.items[issue.ID]; !ok {
		return sql.ErrNoRows
	}
	s.saves++
	cp := *issue
	cp.Manuscripts = append(models.IssueEntries{}, issue.Manuscripts...)
	s.items[issue.ID] = &cp
	return nil
}

type issueCacheStub struct {
	entries     map[string][]byte
	invalidated []string
}

func newIssueCacheStub() *issueCacheStub {
	return &issueCacheStub{entries: map[string][]byte{}}
}

func (c *issueCacheStub) Get(_ context.Context, key string, dest interface{}) bool {
	raw, ok := c.entries[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c *issueCacheStub) Set(_ context.Context, key string, value interface{}, _ time.Duration) {
	raw, err := json.Marshal(value)
	if err == nil {
		c.entries[key] = raw
	}
}

func (c *issueCacheStub) Invalidate(_ context.Context, keys ...string) {
	for _, k := range keys {
		delete(c.entries, k)
		c.invalidated = append(c.invalidated, k)
	}
}

// workflowFixture wires every editorial service against in-memory stubs with a fixed clock.
type workflowFixture struct {
	manuscripts *manuscriptStoreStub
	reviews     *reviewStoreStub
	users       *userDirectoryStub
	files       *fileStoreStub
	notifier    *notifierStub
	registrar   *registrarStub
	issues      *issueStoreStub
	cache       *issueCacheStub

	manuscriptSvc *ManuscriptService
	reviewSvc     *ReviewService
	doiSvc        *DOIService
	issueSvc      *IssueService
	clock         time.Time
}

var (
	adminClaims   = claims("admin-1", models.RoleAdmin)
	editorClaims  = claims("editor-1", models.RoleEditor)
	authorClaims  = claims("author-1", models.RoleAuthor)
	reviewerA     = claims("rev-a", models.RoleReviewer)
	reviewerB     = claims("rev-b", models.RoleReviewer)
	outsiderClaim = claims("author-2", models.RoleAuthor)
)

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()
	f := &workflowFixture{
		manuscripts: newManuscriptStoreStub(t),
		reviews:     newReviewStoreStub(),
		users: newUserDirectoryStub(
			models.User{ID: "admin-1", FullName: "Ada Admin", Roles: []string{"ADMIN"}, Active: true},
			models.User{ID: "editor-1", FullName: "Eve Editor", Roles: []string{"EDITOR", "REVIEWER"}, Active: true},
			models.User{ID: "author-1", FullName: "Alan Author", Roles: []string{"AUTHOR", "REVIEWER"}, Active: true},
			models.User{ID: "rev-a", FullName: "Rita Reviewer", Roles: []string{"REVIEWER"}, Active: true},
			models.User{ID: "rev-b", FullName: "Bob Reviewer", Roles: []string{"REVIEWER"}, Active: true},
			models.User{ID: "rev-c", FullName: "Cleo Reviewer", Roles: []string{"REVIEWER"}, Active: true},
			models.User{ID: "rev-x", FullName: "Inactive Reviewer", Roles: []string{"REVIEWER"}, Active: false},
		),
		files:     &fileStoreStub{},
		notifier:  &notifierStub{},
		registrar: newRegistrarStub(),
		issues:    newIssueStoreStub(),
		cache:     newIssueCacheStub(),
		clock:     time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return f.clock }

	f.manuscriptSvc = NewManuscriptService(f.manuscripts, f.reviews, f.users, f.files, f.notifier, nil, nil,
		ManuscriptServiceConfig{IDPrefix: "JNL", PublicBaseURL: "https://journal.example.org"},
		WithManuscriptClock(now))
	f.reviewSvc = NewReviewService(f.reviews, f.manuscripts, f.users, f.notifier, nil, nil, ReviewServiceConfig{})
	f.reviewSvc.now = now
	f.doiSvc = NewDOIService(f.manuscripts, f.registrar, nil, nil, nil, DOIServiceConfig{PublicBaseURL: "https://journal.example.org"})
	f.doiSvc.now = now
	f.issueSvc = NewIssueService(f.issues, f.manuscripts, f.doiSvc, f.cache, f.notifier, nil, nil, nil,
		IssueServiceConfig{PublicBaseURL: "https://journal.example.org"})
	f.issueSvc.now = now
	return f
}

func (f *workflowFixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func upload(name string, size int64) FileUpload {
	return FileUpload{Filename: name, Size: size, Content: strings.NewReader(strings.Repeat("x", int(size)))}
}

// seedManuscript stores a manuscript directly in the given status.
func (f *workflowFixture) seedManuscript(t *testing.T, id string, status models.ManuscriptStatus) *models.Manuscript {
	t.Helper()
	editor := "editor-1"
	m := &models.Manuscript{
		ID:             id,
		Title:          "Paper " + id,
		Abstract:       "Abstract",
		Authors:        models.Authors{{Name: "Alan Author", Corresponding: true}},
		Status:         status,
		CurrentVersion: 1,
		SubmittedBy:    "author-1",
		EditorID:       &editor,
		Files:          models.ManuscriptFiles{{ID: id + "-f1", OriginalName: "paper.pdf", SizeBytes: 10}},
		Revisions:      models.Revisions{},
		Timeline:       models.Timeline{},
		Deposit:        models.NewDepositState(),
		CreatedAt:      f.clock,
	}
	f.manuscripts.put(m)
	return m
}
