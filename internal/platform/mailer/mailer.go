// Package mailer sends the eSIM delivery email over SMTP.
package mailer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/esimtrip/cashier/internal/platform/esim"
	"github.com/esimtrip/cashier/pkg/config"
)

type Mailer struct {
	cfg  config.MailConfig
	log  *zap.SugaredLogger
	send func(*gomail.Message) error
}

func New(cfg *config.Config, log *zap.SugaredLogger) *Mailer {
	m := &Mailer{cfg: cfg.Mail, log: log}
	d := gomail.NewDialer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password)
	m.send = func(msg *gomail.Message) error { return d.DialAndSend(msg) }
	return m
}

// decodeDataURI returns the payload of a base64 data URI, ok is false for
// anything else.
func decodeDataURI(src string) ([]byte, bool) {
	if !strings.HasPrefix(src, "data:") {
		return nil, false
	}
	meta, data, found := strings.Cut(src, ",")
	if !found || !strings.HasSuffix(meta, ";base64") {
		return nil, false
	}
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, false
	}
	return b, true
}

// Build renders the delivery message. Data URI images are attached inline and
// referenced by cid.
func (m *Mailer) Build(to, orderNumber string, codes []esim.Code) *gomail.Message {
	msg := gomail.NewMessage(gomail.SetEncoding(gomail.Unencoded))
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("%s (#%s)", m.cfg.Subject, orderNumber))

	var b strings.Builder
	fmt.Fprintf(&b, "<p>Order #%s</p>\n", html.EscapeString(orderNumber))
	for i, c := range codes {
		src := c.ImageSource
		if data, ok := decodeDataURI(src); ok {
			name := fmt.Sprintf("esim-%d.png", i+1)
			msg.Embed(name, gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}))
			src = "cid:" + name
		}
		fmt.Fprintf(&b, "<div><p>%s</p><img src=\"%s\" alt=\"%s\" width=\"240\"/></div>\n",
			html.EscapeString(c.Name), html.EscapeString(src), html.EscapeString(c.Name))
	}
	msg.SetBody("text/html", b.String())
	return msg
}

// Send delivers codes to the buyer. With no SMTP host configured the message
// is dropped and nil is returned.
func (m *Mailer) Send(ctx context.Context, to, orderNumber string, codes []esim.Code) error {
	if to == "" {
		return errors.New("mail recipient is empty")
	}
	if m.cfg.Host == "" {
		m.log.Warnw("mail_disabled", "order_number", orderNumber)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.send(m.Build(to, orderNumber, codes)); err != nil {
		return fmt.Errorf("send esim mail: %w", err)
	}
	m.log.Infow("esim_mail_sent", "order_number", orderNumber, "codes", len(codes))
	return nil
}

var Module = fx.Options(
	fx.Provide(New),
)
