package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// DefaultPage aplica valores por defecto y acota Limit a 100.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP. Status y PdfStatus acompañan a las precondiciones
// para que el cliente sepa en qué estado está la factura.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Status    string `json:"status,omitempty"`
	PdfStatus string `json:"pdf_status,omitempty"`
}
