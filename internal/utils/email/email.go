package email

import (
	"fmt"
	"net/smtp"

	"github.com/Dan9191/ledger-service/internal/budget"
	"github.com/Dan9191/ledger-service/internal/config"
	"github.com/Dan9191/ledger-service/internal/models"
	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendPaymentReminder sends a reminder for an upcoming loan payment
func (s *Sender) SendPaymentReminder(to, username string, entry models.ScheduleEntry, currency models.Currency) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Upcoming Loan Payment Reminder"

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"This is a reminder that your loan payment of %s %s is due on %s.\n"+
			"Interest portion: %s %s, principal portion: %s %s.\n"+
			"Please ensure sufficient funds are available.\n"+
			"\nBest regards,\nLedger Service",
		username,
		entry.Payment.StringFixed(2), currency, entry.Date.Format("2006-01-02"),
		entry.Interest.StringFixed(2), currency,
		entry.PrincipalPortion.StringFixed(2), currency,
	)
	e.Text = []byte(body)

	return s.send(e, to)
}

// SendBudgetAlert notifies the user that a budget crossed an alert tier
func (s *Sender) SendBudgetAlert(to, username, budgetName string, tier budget.Tier, current, limit decimal.Decimal) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	switch tier {
	case budget.TierLimit100:
		e.Subject = fmt.Sprintf("Budget limit reached: %s", budgetName)
	default:
		e.Subject = fmt.Sprintf("Budget warning: %s", budgetName)
	}

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your %s budget is at %s of %s (%s alert).\n"+
			"\nBest regards,\nLedger Service",
		username, budgetName,
		current.StringFixed(2), limit.StringFixed(2), tier,
	)
	e.Text = []byte(body)

	return s.send(e, to)
}

func (s *Sender) send(e *email.Email, to string) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
