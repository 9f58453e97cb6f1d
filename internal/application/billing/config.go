package billing

// Config parámetros de facturación.
type Config struct {
	InvoicePrefix   string // INV -> INV-00001
	DefaultCurrency string
}

func (c Config) withDefaults() Config {
	if c.InvoicePrefix == "" {
		c.InvoicePrefix = "INV"
	}
	if c.DefaultCurrency == "" {
		c.DefaultCurrency = "USD"
	}
	return c
}

// DefaultPaymentMethod método cuando el llamador no indica uno.
const DefaultPaymentMethod = "manual"
