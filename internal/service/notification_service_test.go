package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/journal-editorial-api/internal/dto"
	"github.com/noah-isme/journal-editorial-api/internal/models"
	appErrors "github.com/noah-isme/journal-editorial-api/pkg/errors"
	"github.com/noah-isme/journal-editorial-api/pkg/jobs"
)

type notificationStoreStub struct {
	created   []*models.Notification
	createErr error
	readIDs   []string
}

func (s *notificationStoreStub) Create(_ context.Context, n *models.Notification) error {
	if s.createErr != nil {
		return s.createErr
	}
	n.ID = "n-" + string(rune('a'+len(s.created)))
	s.created = append(s.created, n)
	return nil
}

func (s *notificationStoreStub) ListByRecipient(_ context.Context, recipientID string, unreadOnly bool, _, _ int) ([]models.Notification, int, error) {
	var out []models.Notification
	for _, n := range s.created {
		if n.RecipientID == recipientID && (!unreadOnly || !n.IsRead) {
			out = append(out, *n)
		}
	}
	return out, len(out), nil
}

func (s *notificationStoreStub) MarkRead(_ context.Context, id, recipientID string) error {
	for _, n := range s.created {
		if n.ID == id && n.RecipientID == recipientID {
			n.IsRead = true
			s.readIDs = append(s.readIDs, id)
			return nil
		}
	}
	return sql.ErrNoRows
}

type mailerStub struct {
	sent []string
	err  error
}

func (m *mailerStub) Send(to []string, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to[0]+"|"+subject)
	return nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func newNotificationFixture() (*NotificationService, *notificationStoreStub, *mailerStub, *queueStub) {
	store := &notificationStoreStub{}
	mail := &mailerStub{}
	queue := &queueStub{}
	users := newUserDirectoryStub(
		models.User{ID: "author-1", Email: "alan@example.org", Active: true},
		models.User{ID: "author-9", Email: "gone@example.org", Active: false},
	)
	svc := NewNotificationService(store, users, mail, nil, nil)
	svc.AttachQueue(queue)
	return svc, store, mail, queue
}

func TestNotificationServiceNotifyPersistsAndQueuesEmail(t *testing.T) {
	svc, store, mail, queue := newNotificationFixture()
	notice := Notice{RecipientID: "author-1", Type: models.NotificationDecision, Subject: "Decision on JNL-2026-00001", Message: "Accepted", ManuscriptID: "JNL-2026-00001"}

	require.NoError(t, svc.Notify(context.Background(), notice))
	require.Len(t, store.created, 1)
	assert.Equal(t, "JNL-2026-00001", *store.created[0].RelatedManuscriptID)
	assert.Nil(t, store.created[0].RelatedReviewID)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobKindEmail, queue.jobs[0].Kind)

	require.NoError(t, svc.DeliverEmail(context.Background(), queue.jobs[0]))
	assert.Equal(t, []string{"alan@example.org|Decision on JNL-2026-00001"}, mail.sent)
}

func TestNotificationServiceNotifyStoreFailureIsExternal(t *testing.T) {
	svc, store, _, queue := newNotificationFixture()
	store.createErr = errors.New("insert failed")

	err := svc.Notify(context.Background(), Notice{RecipientID: "author-1", Subject: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrExternalFailure))
	assert.Empty(t, queue.jobs)

	err = svc.Notify(context.Background(), Notice{Subject: "no recipient"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestNotificationServiceQueueFailureDoesNotFailNotify(t *testing.T) {
	svc, store, _, queue := newNotificationFixture()
	queue.err = errors.New("queue notifications is full")

	require.NoError(t, svc.Notify(context.Background(), Notice{RecipientID: "author-1", Subject: "x"}))
	assert.Len(t, store.created, 1)
}

func TestNotificationServiceDeliverEmailSkipsAndFails(t *testing.T) {
	svc, _, mail, _ := newNotificationFixture()
	ctx := context.Background()

	require.NoError(t, svc.DeliverEmail(ctx, jobs.Job{ID: "j1", Payload: Notice{RecipientID: "author-9"}}))
	require.NoError(t, svc.DeliverEmail(ctx, jobs.Job{ID: "j2", Payload: Notice{RecipientID: "nobody"}}))
	require.NoError(t, svc.DeliverEmail(ctx, jobs.Job{ID: "j3", Payload: "garbage"}))
	assert.Empty(t, mail.sent)

	mail.err = errors.New("smtp timeout")
	err := svc.DeliverEmail(ctx, jobs.Job{ID: "j4", Payload: Notice{RecipientID: "author-1", Subject: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp timeout")
}

func TestNotificationServiceListAndMarkRead(t *testing.T) {
	svc, store, _, _ := newNotificationFixture()
	ctx := context.Background()
	require.NoError(t, svc.Notify(ctx, Notice{RecipientID: "author-1", Subject: "one"}))
	require.NoError(t, svc.Notify(ctx, Notice{RecipientID: "author-1", Subject: "two"}))
	require.NoError(t, svc.Notify(ctx, Notice{RecipientID: "editor-1", Subject: "other"}))

	require.NoError(t, svc.MarkRead(ctx, store.created[0].ID, authorClaims))
	err := svc.MarkRead(ctx, store.created[2].ID, authorClaims)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	items, page, err := svc.ListForUser(ctx, dto.NotificationQuery{UnreadOnly: true}, authorClaims)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "two", items[0].Subject)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)

	_, _, err = svc.ListForUser(ctx, dto.NotificationQuery{}, nil)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
