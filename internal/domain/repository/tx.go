package repository

import "context"

// Repositories repositorios atados a una misma transacción.
type Repositories struct {
	TimeEntries TimeEntryRepository
	Invoices    InvoiceRepository
	Payments    PaymentRepository
	Clients     ClientRepository
	Projects    ProjectRepository
	Jobs        JobRepository
}

// TxRunner ejecuta fn dentro de una transacción SERIALIZABLE y hace Commit o Rollback.
// Ante un conflicto de serialización el callback puede ejecutarse más de una vez,
// por lo que fn no debe tener efectos fuera de los repositorios recibidos.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repositories) error) error
}
