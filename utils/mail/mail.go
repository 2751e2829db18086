package mail

import (
	"fmt"
	"os"
	"strconv"
	"time"

	gomail "gopkg.in/gomail.v2"

	"github.com/danatour/booking/logger"
)

// Notification emails are advisory side effects: they are sent from detached
// goroutines and a failure is logged, never surfaced, and never blocks the
// booking transition that triggered them.

func dialer() (*gomail.Dialer, string, error) {
	host := os.Getenv("SMTP_HOST")
	from := os.Getenv("SMTP_FROM")
	user := os.Getenv("SMTP_USERNAME")
	pass := os.Getenv("SMTP_PASSWORD")
	if host == "" || from == "" {
		return nil, "", fmt.Errorf("SMTP not configured")
	}
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}
	return gomail.NewDialer(host, port, user, pass), from, nil
}

func send(to, subject, body string) {
	d, from, err := dialer()
	if err != nil {
		logger.WarnLogger.Warnf("Skipping notification to %s: %v", to, err)
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := d.DialAndSend(m); err != nil {
		logger.WarnLogger.Warnf("Failed to send notification to %s: %v", to, err)
		return
	}
	logger.InfoLogger.Infof("Notification %q sent to %s", subject, to)
}

// SendPaymentConfirmationAsync notifies the customer that a payment leg was
// captured.
func SendPaymentConfirmationAsync(to, contactName, bookingID, stage string, amount int64) {
	go send(to, "Your tour booking payment was received",
		fmt.Sprintf(`Dear %s,

We have received your %s payment of %d VND for booking %s.

You can follow the booking status in the app at any time.

Best regards,
The Danatour Team`, contactName, stage, amount, bookingID))
}

// SendCancellationNoticeAsync notifies the customer of a confirmed
// cancellation and the refund that applies to it.
func SendCancellationNoticeAsync(to, contactName, bookingID string, refundAmount int64, refundPercent int) {
	go send(to, "Your tour booking was cancelled",
		fmt.Sprintf(`Dear %s,

Your booking %s was cancelled on %s.

Refund: %d VND (%d%% of the amount paid), returned through your original
payment method.

Best regards,
The Danatour Team`, contactName, bookingID, time.Now().Format("2006-01-02 15:04:05"), refundAmount, refundPercent))
}
