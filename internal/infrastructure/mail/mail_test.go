package mail

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/jhoicas/timebill-api/internal/application/documents"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

type fakeDialer struct {
	sent  []*gomail.Message
	err   error
	block chan struct{}
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if d.block != nil {
		<-d.block
	}
	d.sent = append(d.sent, m...)
	return d.err
}

func TestSMTPMailer_Send(t *testing.T) {
	d := &fakeDialer{}
	m := &SMTPMailer{dialer: d, from: "billing@test", log: logger.Nop()}

	require.NoError(t, m.Send(context.Background(), "client@test", "Factura", "<p>hola</p>"))
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"client@test"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"billing@test"}, d.sent[0].GetHeader("From"))
}

func TestSMTPMailer_PropagatesErrors(t *testing.T) {
	m := &SMTPMailer{dialer: &fakeDialer{err: errors.New("smtp down")}, from: "billing@test", log: logger.Nop()}
	err := m.Send(context.Background(), "client@test", "Factura", "x")
	assert.ErrorContains(t, err, "smtp down")
}

func TestSMTPMailer_HonorsContext(t *testing.T) {
	d := &fakeDialer{block: make(chan struct{})}
	defer close(d.block)
	m := &SMTPMailer{dialer: d, from: "billing@test", log: logger.Nop()}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.Send(ctx, "client@test", "Factura", "x"), context.DeadlineExceeded)
}

func TestTemplateComposer_InvoiceEmail(t *testing.T) {
	c, err := NewTemplateComposer()
	require.NoError(t, err)

	snap := documents.InvoiceSnapshot{
		Invoice: entity.Invoice{
			InvoiceNumber: "INV-00001",
			Total:         decimal.NewFromInt(150),
			Currency:      "USD",
			IssueDate:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			DueDate:       time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		},
		Client:     entity.Client{Name: "Acme <Corp>"},
		AmountPaid: decimal.Zero,
		Balance:    decimal.NewFromInt(150),
	}
	subject, html, err := c.InvoiceEmail(snap, "https://files.test/x?sig=1&e=2", time.Date(2026, 3, 1, 12, 15, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "Factura INV-00001: 150.00 USD", subject)
	assert.Contains(t, html, "INV-00001")
	assert.Contains(t, html, "150.00 USD")
	assert.Contains(t, html, "Acme &lt;Corp&gt;")
	assert.True(t, strings.Contains(html, "https://files.test/x?sig=1&amp;e=2"))
}
