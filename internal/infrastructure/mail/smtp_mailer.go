// Package mail transporte SMTP y plantillas del correo de factura.
package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/jhoicas/timebill-api/internal/application/documents"
	"github.com/jhoicas/timebill-api/pkg/config"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

// dialer abstrae gomail.Dialer para poder sustituirlo en pruebas.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer envía correo HTML vía SMTP.
type SMTPMailer struct {
	dialer dialer
	from   string
	log    *logger.Logger
}

// NewSMTPMailer construye el mailer a partir de la configuración SMTP.
func NewSMTPMailer(cfg config.SMTPConfig, log *logger.Logger) *SMTPMailer {
	if log == nil {
		log = logger.Nop()
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
		log:    log.Component("mail"),
	}
}

// Send arma el mensaje y lo entrega. Si ctx se cancela antes de terminar se devuelve ctx.Err();
// gomail no acepta contexto, así que la entrega en curso puede completarse igualmente.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(msg) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("mail: envío a %s: %w", to, err)
		}
		m.log.Info().Str("to", to).Str("subject", subject).Msg("correo enviado")
		return nil
	}
}

// LogMailer solo registra el correo. Se usa cuando no hay SMTP configurado.
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer {
	if log == nil {
		log = logger.Nop()
	}
	return &LogMailer{log: log.Component("mail")}
}

func (m *LogMailer) Send(_ context.Context, to, subject, html string) error {
	m.log.Info().Str("to", to).Str("subject", subject).Int("bytes", len(html)).Msg("correo (sin SMTP, solo log)")
	return nil
}

var (
	_ documents.Mailer = (*SMTPMailer)(nil)
	_ documents.Mailer = (*LogMailer)(nil)
)
