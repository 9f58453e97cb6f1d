package timer

import (
	"context"

	"github.com/jhoicas/timebill-api/internal/domain/entity"
)

// Cache caché no autoritativa del temporizador activo por usuario.
// Get devuelve (nil, nil) cuando no hay entrada.
type Cache interface {
	Get(ctx context.Context, ownerID string) (*entity.ActiveTimer, error)
	Set(ctx context.Context, ownerID string, t entity.ActiveTimer) error
	Delete(ctx context.Context, ownerID string) error
}
