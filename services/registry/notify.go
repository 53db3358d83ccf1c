package registry

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type NotifierConfig struct {
	Smtp SmtpConfig `json:"smtp"`
	// who receives sync reports
	Recipients []string `json:"recipients"`
}

// Notifier emails sync reports to the configured recipients.
type Notifier struct {
	config NotifierConfig
}

func NewNotifier(config NotifierConfig) *Notifier {
	return &Notifier{config: config}
}

// NotifySync sends a summary of an applied sync.
func (n *Notifier) NotifySync(ctx context.Context, report *SyncReport) error {
	_, span := tracer.Start(ctx, "NotifySync")
	defer span.End()

	if len(n.config.Recipients) == 0 {
		return nil
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("TGPC Registry <%s>", n.config.Smtp.EmailAddress)
	mail.To = n.config.Recipients
	mail.Subject = fmt.Sprintf(
		"Registry sync: %d new, %d changed",
		report.NewCount, report.ChangedCount,
	)

	var body strings.Builder
	fmt.Fprintf(&body, "The pharmacist registry was synced.\n\n")
	fmt.Fprintf(&body, "Total records:   %d\n", report.Total)
	fmt.Fprintf(&body, "New records:     %d\n", report.NewCount)
	fmt.Fprintf(&body, "Changed records: %d\n", report.ChangedCount)
	fmt.Fprintf(&body, "Integrity score: %.3f\n", report.IntegrityScore)
	fmt.Fprintf(&body, "Change percent:  %.2f%%\n", report.ChangePercent)
	if len(report.NewRegistrations) > 0 {
		fmt.Fprintf(
			&body, "\nSample of new registrations:\n%s\n",
			strings.Join(sampleRegNumbers(report.NewRegistrations), "\n"),
		)
	}
	mail.Text = []byte(body.String())

	addr := fmt.Sprintf("%s:%d", n.config.Smtp.Server, n.config.Smtp.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", n.config.Smtp.EmailAddress, n.config.Smtp.Password, n.config.Smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
