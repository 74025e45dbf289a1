package email

import (
	"errors"
	"fmt"
	"github.com/spf13/viper"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"
)

var ErrNoRecipients = errors.New("email has no recipients")

type EmailOutbound struct {
	Cfg *viper.Viper

	auth     smtp.Auth
	addr     string
	from     string
	envelope string
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (out *EmailOutbound) Init() {
	user := out.Cfg.GetString("email.user")

	out.from = out.Cfg.GetString("email.from")
	if out.from == "" {
		out.from = user
	}

	out.envelope = out.from
	if addr, err := mail.ParseAddress(out.from); err == nil {
		out.envelope = addr.Address
	}

	host := out.Cfg.GetString("email.host")
	out.addr = fmt.Sprintf("%s:%d", host, out.Cfg.GetInt("email.port"))

	switch out.Cfg.GetString("email.auth") {
	case "plain":
		out.auth = smtp.PlainAuth("", user, out.Cfg.GetString("email.password"), host)
	case "none":
		out.auth = nil
	default:
		out.auth = smtp.CRAMMD5Auth(user, out.Cfg.GetString("email.password"))
	}

	if out.sendMail == nil {
		out.sendMail = smtp.SendMail
	}
}

// Send delivers a plain text UTF-8 message.
func (out *EmailOutbound) Send(to []string, subject string, body string) error {
	recipients := make([]string, 0, len(to))
	for _, rcpt := range to {
		if rcpt = strings.TrimSpace(rcpt); rcpt != "" {
			recipients = append(recipients, rcpt)
		}
	}

	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	return out.sendMail(out.addr, out.auth, out.envelope, recipients, out.buildMessage(recipients, subject, body))
}

func (out *EmailOutbound) buildMessage(to []string, subject string, body string) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", out.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ","))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.TrimLeft(body, "\n"), "\n", "\r\n"))

	return []byte(b.String())
}
