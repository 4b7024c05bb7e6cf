package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/certistudy/deletion-service/internal/config"
	"github.com/certistudy/deletion-service/internal/repositories"
	"github.com/certistudy/deletion-service/internal/utils"
)

const dispatchBatchSize = 50

// OutboxDispatcher drains the mail outbox: unsent rows are pushed to
// SendGrid and stamped sent_at. It runs on a schedule from main.
type OutboxDispatcher interface {
	DispatchPending(ctx context.Context) error
}

type outboxDispatcher struct {
	outboxRepo     repositories.OutboxRepository
	sendgridClient *sendgrid.Client
	cfg            *config.Config
}

func NewOutboxDispatcher(outboxRepo repositories.OutboxRepository, cfg *config.Config) OutboxDispatcher {
	return &outboxDispatcher{
		outboxRepo:     outboxRepo,
		sendgridClient: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		cfg:            cfg,
	}
}

// DispatchPending sends one batch of unsent outbox rows. A row that
// fails to send stays unsent and is retried on the next run.
func (d *outboxDispatcher) DispatchPending(ctx context.Context) error {
	pending, err := d.outboxRepo.ListUnsent(ctx, dispatchBatchSize)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to list unsent outbox emails")
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	utils.Logger.Debugf("Dispatching %d pending outbox emails", len(pending))

	var firstErr error
	for _, e := range pending {
		from := mail.NewEmail(d.cfg.OrganizationName, d.cfg.SenderEmail)
		to := mail.NewEmail("", e.To)
		// SendGrid rejects an empty plain part; the subject is enough for
		// text-only clients since the real content is the link.
		msg := mail.NewSingleEmail(from, e.Subject, to, e.Subject, e.HTML)
		if d.cfg.LDFlag_SendgridSandboxMode {
			ms := mail.NewMailSettings()
			ms.SetSandboxMode(mail.NewSetting(true))
			msg.MailSettings = ms
		}

		resp, sendErr := d.sendgridClient.Send(msg)
		if sendErr == nil && resp != nil && resp.StatusCode >= 400 {
			sendErr = fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
		}
		if sendErr != nil {
			utils.Logger.WithError(sendErr).Errorf("Failed to send outbox email %s", e.ID)
			if firstErr == nil {
				firstErr = sendErr
			}
			continue
		}

		if err := d.outboxRepo.MarkSent(ctx, e.ID, time.Now().UTC()); err != nil {
			utils.Logger.WithError(err).Errorf("Failed to mark outbox email %s sent", e.ID)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
