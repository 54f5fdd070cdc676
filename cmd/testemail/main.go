// Command testemail sends a sample new-lead notification through the
// configured sender, for checking SMTP settings.
package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"leadlms/internal/config"
	"leadlms/internal/email"
	"leadlms/internal/leads"
	"leadlms/internal/logger"

	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	to := flag.String("to", "", "comma-separated recipient addresses")
	flag.Parse()

	log := logger.New()
	logger.SetDefault(log)

	var recipients []string
	for _, addr := range strings.Split(*to, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			recipients = append(recipients, addr)
		}
	}
	if len(recipients) == 0 {
		log.Error("At least one recipient is required", "flag", "-to")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	now := time.Now().UTC()
	lead := leads.Lead{
		ID:              uuid.New(),
		FullName:        "John Doe",
		Email:           "john.doe@example.com",
		PhoneNumber:     "123-456-7890",
		Company:         "Example Corp",
		CurrentPosition: "Software Engineer",
		SubmissionDate:  now,
		Label:           leads.LabelHigh,
		Progress:        leads.ProgressFormSubmitted,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// Nothing reads the roster here; recipients come from the flag.
	notifier := email.NewNotifier(email.NewSender(cfg.Email, log), nil, email.NotifierConfig{
		DashboardURL: cfg.DashboardURL,
		MaxAttempts:  1,
	}, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := notifier.SendTo(ctx, lead, recipients); err != nil {
		log.Error("Failed to send test email", "error", err)
		os.Exit(1)
	}
	log.Info("Test email sent", "recipients", recipients, "mode", cfg.Email.Mode)
}
