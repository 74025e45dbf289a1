package email

import (
	"errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/smtp"
	"strings"
	"testing"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestOutbound(t *testing.T, sent *[]sentMail, sendErr error) *EmailOutbound {
	t.Helper()

	cfg := viper.New()
	cfg.Set("email.host", "smtp.example.com")
	cfg.Set("email.port", 587)
	cfg.Set("email.user", "bot@example.com")
	cfg.Set("email.password", "secret")

	out := &EmailOutbound{
		Cfg: cfg,
		sendMail: func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			*sent = append(*sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
			return sendErr
		},
	}
	out.Init()

	return out
}

func TestSend(t *testing.T) {
	var sent []sentMail
	out := newTestOutbound(t, &sent, nil)

	err := out.Send([]string{" anna@example.com ", ""}, "Заказ #7", "\nHello Anna,\nline two\n")
	require.NoError(t, err)
	require.Len(t, sent, 1)

	mail := sent[0]
	assert.Equal(t, "smtp.example.com:587", mail.addr)
	assert.Equal(t, "bot@example.com", mail.from)
	assert.Equal(t, []string{"anna@example.com"}, mail.to)
	assert.Contains(t, mail.msg, "To: anna@example.com\r\n")
	assert.Contains(t, mail.msg, "Subject: =?utf-8?q?")
	assert.Contains(t, mail.msg, "Content-Type: text/plain; charset=\"utf-8\"\r\n")
	assert.True(t, strings.HasSuffix(mail.msg, "\r\n\r\nHello Anna,\r\nline two\r\n"))
}

func TestSendWithoutRecipients(t *testing.T) {
	var sent []sentMail
	out := newTestOutbound(t, &sent, nil)

	assert.ErrorIs(t, out.Send([]string{" "}, "subject", "body"), ErrNoRecipients)
	assert.Empty(t, sent)
}

func TestSendError(t *testing.T) {
	var sent []sentMail
	out := newTestOutbound(t, &sent, errors.New("550 mailbox unavailable"))

	assert.Error(t, out.Send([]string{"anna@example.com"}, "subject", "body"))
}

func TestInitFrom(t *testing.T) {
	var sent []sentMail
	out := newTestOutbound(t, &sent, nil)
	out.Cfg.Set("email.from", "Cleanny <noreply@example.com>")
	out.Cfg.Set("email.auth", "none")
	out.Init()

	require.NoError(t, out.Send([]string{"anna@example.com"}, "subject", "body"))
	assert.Equal(t, "noreply@example.com", sent[0].from)
	assert.Contains(t, sent[0].msg, "From: Cleanny <noreply@example.com>\r\n")
	assert.Nil(t, out.auth)
}
