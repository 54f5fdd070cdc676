package email

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"leadlms/internal/config"
	"leadlms/internal/leads"

	"github.com/google/uuid"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleLead() leads.Lead {
	return leads.Lead{
		ID:              uuid.New(),
		FullName:        "Jane <b>Doe</b>",
		Email:           "jane@example.com",
		PhoneNumber:     "+254 700 000000",
		Company:         "Acme",
		CurrentPosition: "CTO",
		SubmissionDate:  time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		Label:           leads.LabelHigh,
		Progress:        leads.ProgressFormSubmitted,
	}
}

type fakeSender struct {
	mu       sync.Mutex
	failures int
	sent     []Message
	calls    int
}

func (f *fakeSender) Send(ctx context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

type staticDirectory struct {
	emails []string
	err    error
}

func (d staticDirectory) ListEmails(ctx context.Context) ([]string, error) {
	return d.emails, d.err
}

func TestNewLeadMessage(t *testing.T) {
	msg, err := NewLeadMessage(sampleLead(), "https://lms.example.com")
	if err != nil {
		t.Fatalf("NewLeadMessage() error = %v", err)
	}

	if msg.Subject != "New Lead: Jane <b>Doe</b> from Acme" {
		t.Errorf("Unexpected subject %q", msg.Subject)
	}
	if strings.Contains(msg.HTML, "<b>Doe</b>") {
		t.Error("Expected lead fields to be HTML-escaped")
	}
	if !strings.Contains(msg.HTML, "mailto:jane@example.com") {
		t.Error("Expected a mailto link")
	}
	if !strings.Contains(msg.HTML, ">High</span>") {
		t.Error("Expected the budget badge to drop the suffix")
	}
	if !strings.Contains(msg.HTML, "https://lms.example.com") {
		t.Error("Expected dashboard link")
	}
	if !strings.Contains(msg.Text, "Label: High Budget Lead") || !strings.Contains(msg.Text, "Company: Acme") {
		t.Errorf("Unexpected text body:\n%s", msg.Text)
	}
}

func TestBadgeFor_NoLabel(t *testing.T) {
	if b := badgeFor(leads.LabelNone); b.Text != "No Label" {
		t.Errorf("Expected No Label badge, got %q", b.Text)
	}
}

func TestBuildMessage(t *testing.T) {
	msg := Message{
		To:      []string{"a@example.com", "b@example.com"},
		Subject: "New Lead: Zoë",
		Text:    "line one\nline two",
		HTML:    "<p>hi</p>",
	}
	raw, err := buildMessage("Lead Dashboard", "noreply@example.com", msg, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("buildMessage() error = %v", err)
	}
	s := string(raw)

	for _, want := range []string{
		"From: Lead Dashboard <noreply@example.com>\r\n",
		"To: a@example.com, b@example.com\r\n",
		"Subject: =?utf-8?q?New_Lead:_Zo=C3=AB?=\r\n",
		"Content-Type: multipart/alternative;",
		"Content-Type: text/plain; charset=UTF-8",
		"Content-Type: text/html; charset=UTF-8",
		"line one\r\nline two",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected message to contain %q\n%s", want, s)
		}
	}
}

func TestNewSender_Modes(t *testing.T) {
	if _, ok := NewSender(config.EmailConfig{Mode: config.EmailModeLog}, discardLogger()).(*logSender); !ok {
		t.Error("Expected log sender")
	}
	if _, ok := NewSender(config.EmailConfig{Mode: config.EmailModeSMTP}, discardLogger()).(*smtpSender); !ok {
		t.Error("Expected smtp sender")
	}

	if err := NewSender(config.EmailConfig{}, discardLogger()).Send(context.Background(), Message{To: []string{"x@example.com"}}); err != nil {
		t.Errorf("log sender should never fail, got %v", err)
	}
}

func TestSMTPSender_NoRecipients(t *testing.T) {
	s := NewSender(config.EmailConfig{Mode: config.EmailModeSMTP, Host: "localhost", Port: 2525}, discardLogger())
	if err := s.Send(context.Background(), Message{}); err == nil {
		t.Error("Expected error for a message without recipients")
	}
}

func TestNotifier_RetriesThenSucceeds(t *testing.T) {
	sender := &fakeSender{failures: 2}
	n := NewNotifier(sender, staticDirectory{emails: []string{"admin@example.com"}},
		NotifierConfig{MaxAttempts: 3, Backoff: time.Millisecond}, discardLogger())

	n.NotifyNewLead(sampleLead())
	if err := n.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	if sender.calls != 3 || len(sender.sent) != 1 {
		t.Fatalf("Expected 3 calls and 1 delivery, got %d/%d", sender.calls, len(sender.sent))
	}
	if got := sender.sent[0].To; len(got) != 1 || got[0] != "admin@example.com" {
		t.Errorf("Unexpected recipients %v", got)
	}
}

func TestNotifier_GivesUp(t *testing.T) {
	sender := &fakeSender{failures: 10}
	n := NewNotifier(sender, staticDirectory{emails: []string{"admin@example.com"}},
		NotifierConfig{MaxAttempts: 2, Backoff: time.Millisecond}, discardLogger())

	err := n.Send(context.Background(), sampleLead())
	if err == nil {
		t.Fatal("Expected failure after max attempts")
	}
	if sender.calls != 2 {
		t.Errorf("Expected 2 attempts, got %d", sender.calls)
	}
}

func TestNotifier_NoRecipients(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, staticDirectory{}, NotifierConfig{}, discardLogger())

	if err := n.Send(context.Background(), sampleLead()); !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("Expected ErrNoRecipients, got %v", err)
	}

	n.NotifyNewLead(sampleLead())
	_ = n.Wait(context.Background())
	if sender.calls != 0 {
		t.Errorf("Expected nothing sent, got %d calls", sender.calls)
	}
}

func TestNotifier_DirectoryError(t *testing.T) {
	n := NewNotifier(&fakeSender{}, staticDirectory{err: errors.New("db down")}, NotifierConfig{}, discardLogger())
	if err := n.Send(context.Background(), sampleLead()); err == nil || errors.Is(err, ErrNoRecipients) {
		t.Errorf("Expected directory error, got %v", err)
	}
}

func TestNotifier_WaitRespectsContext(t *testing.T) {
	block := make(chan struct{})
	n := NewNotifier(blockingSender{block}, staticDirectory{emails: []string{"a@example.com"}},
		NotifierConfig{Timeout: time.Minute}, discardLogger())

	n.NotifyNewLead(sampleLead())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := n.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}

	close(block)
	if err := n.Wait(context.Background()); err != nil {
		t.Errorf("Expected drain after unblock, got %v", err)
	}
}

func TestNotifier_DropsAfterWait(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, staticDirectory{emails: []string{"admin@example.com"}},
		NotifierConfig{Backoff: time.Millisecond}, discardLogger())

	n.NotifyNewLead(sampleLead())
	if err := n.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	n.NotifyNewLead(sampleLead())
	if err := n.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if sender.calls != 1 {
		t.Errorf("Expected only the notification before Wait to be sent, got %d calls", sender.calls)
	}
}

func TestNotifier_NotifyDuringWait(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, staticDirectory{emails: []string{"admin@example.com"}},
		NotifierConfig{Backoff: time.Millisecond}, discardLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.NotifyNewLead(sampleLead())
		}()
	}

	if err := n.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	wg.Wait()

	// Every notification accepted before Wait has finished; the rest were dropped.
	sender.mu.Lock()
	calls := sender.calls
	sender.mu.Unlock()
	if err := n.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	sender.mu.Lock()
	defer sender.mu.Unlock()
	if sender.calls != calls {
		t.Errorf("Expected no sends after draining, got %d then %d", calls, sender.calls)
	}
}

type blockingSender struct{ block chan struct{} }

func (b blockingSender) Send(ctx context.Context, msg Message) error {
	<-b.block
	return nil
}
