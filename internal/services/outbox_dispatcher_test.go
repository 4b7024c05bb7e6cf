package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/certistudy/deletion-service/internal/config"
	"github.com/certistudy/deletion-service/internal/models"
)

type dispatchOutboxRepo struct {
	pending []*models.OutboxEmail
	sentIDs []uuid.UUID
}

func (f *dispatchOutboxRepo) Enqueue(ctx context.Context, to, subject, html string) error {
	return nil
}

func (f *dispatchOutboxRepo) ListUnsent(ctx context.Context, limit int) ([]*models.OutboxEmail, error) {
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *dispatchOutboxRepo) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	f.sentIDs = append(f.sentIDs, id)
	return nil
}

func pendingEmail(to string) *models.OutboxEmail {
	return &models.OutboxEmail{
		ID:        uuid.New(),
		To:        to,
		Subject:   "Confirm your account deletion",
		HTML:      "<p>click the link</p>",
		CreatedAt: time.Now().UTC(),
	}
}

// newDispatchHarness points the SendGrid client at a local test server.
func newDispatchHarness(t *testing.T, repo *dispatchOutboxRepo, sandbox bool, handler http.HandlerFunc) OutboxDispatcher {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		OrganizationName:           config.OrganizationName,
		SenderEmail:                config.DefaultSenderEmail,
		SendGridAPIKey:             "SG.test-key",
		LDFlag_SendgridSandboxMode: sandbox,
	}
	dispatcher := NewOutboxDispatcher(repo, cfg)
	dispatcher.(*outboxDispatcher).sendgridClient.Request.BaseURL = server.URL
	return dispatcher
}

func TestDispatchPendingSendsAndMarks(t *testing.T) {
	repo := &dispatchOutboxRepo{pending: []*models.OutboxEmail{
		pendingEmail("a@example.com"),
		pendingEmail("b@example.com"),
	}}

	var payloads []map[string]any
	dispatcher := newDispatchHarness(t, repo, false, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		payloads = append(payloads, payload)
		w.WriteHeader(http.StatusAccepted)
	})

	require.NoError(t, dispatcher.DispatchPending(context.Background()))

	require.Len(t, repo.sentIDs, 2)
	require.Equal(t, repo.pending[0].ID, repo.sentIDs[0])
	require.Equal(t, repo.pending[1].ID, repo.sentIDs[1])

	require.Len(t, payloads, 2)
	first, _ := json.Marshal(payloads[0])
	require.Contains(t, string(first), "a@example.com")
	require.Contains(t, string(first), config.DefaultSenderEmail)
}

func TestDispatchPendingSandboxMode(t *testing.T) {
	repo := &dispatchOutboxRepo{pending: []*models.OutboxEmail{pendingEmail("a@example.com")}}

	var payload map[string]any
	dispatcher := newDispatchHarness(t, repo, true, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &payload))
		w.WriteHeader(http.StatusAccepted)
	})

	require.NoError(t, dispatcher.DispatchPending(context.Background()))

	raw, _ := json.Marshal(payload)
	require.Contains(t, string(raw), "sandbox_mode")
}

func TestDispatchPendingNothingToSend(t *testing.T) {
	repo := &dispatchOutboxRepo{}
	dispatcher := newDispatchHarness(t, repo, false, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("No request expected when the outbox is empty")
	})

	require.NoError(t, dispatcher.DispatchPending(context.Background()))
	require.Empty(t, repo.sentIDs)
}

func TestDispatchPendingFailedSendStaysUnsent(t *testing.T) {
	repo := &dispatchOutboxRepo{pending: []*models.OutboxEmail{
		pendingEmail("a@example.com"),
		pendingEmail("b@example.com"),
	}}

	var calls int
	dispatcher := newDispatchHarness(t, repo, false, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"errors": [{"message": "boom"}]}`))
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	err := dispatcher.DispatchPending(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "sendgrid returned status 500")

	// The failed row is left for the next run; the second one still went out.
	require.Equal(t, []uuid.UUID{repo.pending[1].ID}, repo.sentIDs)
}
