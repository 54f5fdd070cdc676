package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"leadlms/internal/leads"
	"leadlms/internal/metrics"
)

// ErrNoRecipients is returned when the admin roster is empty.
var ErrNoRecipients = errors.New("no admin emails configured")

// AdminDirectory lists notification recipients.
type AdminDirectory interface {
	ListEmails(ctx context.Context) ([]string, error)
}

// NotifierConfig tunes delivery.
type NotifierConfig struct {
	DashboardURL string
	// Timeout bounds one notification including retries.
	Timeout time.Duration
	// MaxAttempts is the number of send attempts per notification.
	MaxAttempts int
	// Backoff is multiplied by the attempt number between attempts.
	Backoff time.Duration
}

// Notifier emails the admin roster about new leads. Sends run in the
// background; Wait drains them on shutdown.
type Notifier struct {
	sender Sender
	admins AdminDirectory
	config NotifierConfig
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewNotifier creates a new lead notifier
func NewNotifier(sender Sender, admins AdminDirectory, cfg NotifierConfig, logger *slog.Logger) *Notifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	return &Notifier{
		sender: sender,
		admins: admins,
		config: cfg,
		logger: logger,
	}
}

// NotifyNewLead sends the notification on a background goroutine with its
// own deadline, detached from the request that created the lead.
// Once Wait has been called new notifications are dropped.
func (n *Notifier) NotifyNewLead(lead leads.Lead) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		n.logger.Warn("Notifier is draining, notification dropped", "lead_id", lead.ID)
		return
	}
	n.wg.Add(1)
	n.mu.Unlock()

	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), n.config.Timeout)
		defer cancel()

		err := n.Send(ctx, lead)
		switch {
		case err == nil:
			metrics.NotificationsSent.Inc()
		case errors.Is(err, ErrNoRecipients):
			n.logger.Warn("No admin emails configured to send notification", "lead_id", lead.ID)
		default:
			metrics.NotificationFailures.Inc()
			n.logger.Error("Failed to send lead notification email", "lead_id", lead.ID, "error", err)
		}
	}()
}

// Send delivers the notification synchronously.
func (n *Notifier) Send(ctx context.Context, lead leads.Lead) error {
	recipients, err := n.admins.ListEmails(ctx)
	if err != nil {
		return fmt.Errorf("failed to load admin emails: %w", err)
	}
	if len(recipients) == 0 {
		return ErrNoRecipients
	}
	return n.SendTo(ctx, lead, recipients)
}

// SendTo delivers the notification for lead to explicit recipients.
func (n *Notifier) SendTo(ctx context.Context, lead leads.Lead, recipients []string) error {
	msg, err := NewLeadMessage(lead, n.config.DashboardURL)
	if err != nil {
		return err
	}
	msg.To = recipients

	var lastErr error
	for attempt := 1; attempt <= n.config.MaxAttempts; attempt++ {
		lastErr = n.sender.Send(ctx, msg)
		if lastErr == nil {
			n.logger.Info("Lead notification sent", "lead_id", lead.ID, "recipients", len(recipients), "attempt", attempt)
			return nil
		}

		n.logger.Warn("Failed to send lead notification, will retry",
			"lead_id", lead.ID,
			"attempt", attempt,
			"max_attempts", n.config.MaxAttempts,
			"error", lastErr,
		)
		if attempt == n.config.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("giving up after %d attempts: %w", attempt, ctx.Err())
		case <-time.After(time.Duration(attempt) * n.config.Backoff):
		}
	}

	return fmt.Errorf("max attempts exceeded: %w", lastErr)
}

// Wait stops accepting notifications and blocks until in-flight ones
// finish or ctx ends.
func (n *Notifier) Wait(ctx context.Context) error {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
