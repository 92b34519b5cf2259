// Package email delivers generated QR codes to respondents over SMTP.
package email

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(host string, port int, username, password string) *Mailer {
	return &Mailer{dialer: gomail.NewDialer(host, port, username, password), from: username}
}

// SendQRCode emails the QR image for a token as an attachment, with the
// validation link in the body as a fallback for clients that strip images.
func (m *Mailer) SendQRCode(to, qrPath, validationURL string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your QR Code")
	msg.SetBody("text/html", fmt.Sprintf(
		"<p>Here's your QR code. Bring it with you to collect your gift after completing the survey.</p><p><a href=%q>%s</a></p>",
		validationURL, validationURL))
	msg.Attach(qrPath)
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send qr code to %s: %w", to, err)
	}
	return nil
}
