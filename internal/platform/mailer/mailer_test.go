package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/esimtrip/cashier/internal/platform/esim"
	"github.com/esimtrip/cashier/pkg/config"
)

func newTestMailer(host string) (*Mailer, *[]*gomail.Message) {
	m := New(&config.Config{Mail: config.MailConfig{Host: host, Port: 587, From: "shop@example.com", Subject: "Your eSIM"}}, zap.NewNop().Sugar())
	var sent []*gomail.Message
	m.send = func(msg *gomail.Message) error {
		sent = append(sent, msg)
		return nil
	}
	return m, &sent
}

func TestMailer_EmbedsDataURIImages(t *testing.T) {
	m, _ := newTestMailer("smtp.example.com")
	msg := m.Build("amy@example.com", "1001", []esim.Code{
		{Name: "eSIM 1", ImageSource: "data:image/png;base64,iVBORw0KGgo="},
		{Name: "eSIM 2", ImageSource: "https://cdn.example.com/qr.png"},
	})

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()
	require.Contains(t, out, "Subject: Your eSIM (#1001)")
	require.Contains(t, out, "cid:esim-1.png")
	require.Contains(t, out, "Content-ID: <esim-1.png>")
	require.Contains(t, out, "https://cdn.example.com/qr.png")
	require.NotContains(t, out, "data:image/png")
}

func TestMailer_Send(t *testing.T) {
	m, sent := newTestMailer("smtp.example.com")
	require.NoError(t, m.Send(context.Background(), "amy@example.com", "1001", []esim.Code{{Name: "a"}}))
	require.Len(t, *sent, 1)
	require.Equal(t, []string{"amy@example.com"}, (*sent)[0].GetHeader("To"))

	require.Error(t, m.Send(context.Background(), "", "1001", nil))

	m.send = func(*gomail.Message) error { return errors.New("dial tcp: refused") }
	require.Error(t, m.Send(context.Background(), "amy@example.com", "1001", nil))
}

func TestMailer_DisabledWithoutHost(t *testing.T) {
	m, sent := newTestMailer("")
	require.NoError(t, m.Send(context.Background(), "amy@example.com", "1001", nil))
	require.Empty(t, *sent)
}
