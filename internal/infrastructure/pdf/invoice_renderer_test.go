package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/timebill-api/internal/application/documents"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
)

func TestMoney(t *testing.T) {
	cases := map[string]string{
		"0":         "0.00 USD",
		"150":       "150.00 USD",
		"1234567.5": "1,234,567.50 USD",
		"-1000":     "-1,000.00 USD",
	}
	for in, want := range cases {
		assert.Equal(t, want, money(decimal.RequireFromString(in), "USD"), in)
	}
	assert.Equal(t, "12.30", money(decimal.RequireFromString("12.3"), ""))
}

func TestInvoiceRenderer_Render(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	snap := documents.InvoiceSnapshot{
		Invoice: entity.Invoice{
			InvoiceNumber: "INV-00001",
			IssueDate:     day,
			DueDate:       day.AddDate(0, 0, 30),
			Subtotal:      decimal.NewFromInt(150),
			Total:         decimal.NewFromInt(150),
			Currency:      "USD",
			Status:        entity.InvoiceStatusSent,
			Notes:         "Gracias",
			CreatedAt:     day,
		},
		Client: entity.Client{Name: "Acme", Email: "billing@acme.test"},
		Items: []entity.InvoiceItem{
			entity.NewInvoiceItem("Desarrollo (1.5 h)", decimal.RequireFromString("1.5"), decimal.NewFromInt(100)),
		},
		AmountPaid: decimal.Zero,
		Balance:    decimal.NewFromInt(150),
	}

	out, err := NewInvoiceRenderer("").Render(snap)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

// La fecha de creación sale de la factura: dos renders del mismo snapshot llevan la misma.
func TestInvoiceRenderer_CreationDateFromInvoice(t *testing.T) {
	created := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	snap := documents.InvoiceSnapshot{
		Invoice: entity.Invoice{
			InvoiceNumber: "INV-00002",
			IssueDate:     created,
			DueDate:       created.AddDate(0, 0, 30),
			Subtotal:      decimal.NewFromInt(10),
			Total:         decimal.NewFromInt(10),
			Currency:      "USD",
			Status:        entity.InvoiceStatusDraft,
			CreatedAt:     created,
		},
		Client:     entity.Client{Name: "Acme"},
		Items:      []entity.InvoiceItem{entity.NewInvoiceItem("Soporte", decimal.NewFromInt(1), decimal.NewFromInt(10))},
		AmountPaid: decimal.Zero,
		Balance:    decimal.NewFromInt(10),
	}
	r := NewInvoiceRenderer("")

	first, err := r.Render(snap)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)
	second, err := r.Render(snap)
	require.NoError(t, err)

	for _, out := range [][]byte{first, second} {
		assert.True(t, bytes.Contains(out, []byte("D:20260301083000")))
	}
}
