package ports

import (
	"context"

	"github.com/focusplan/bot/internal/domain/entities"
)

// Store is the sole gateway to durable state. Load returns an empty root
// when the backing snapshot is missing or unreadable; Save overwrites the
// full root. Store implementations are not required to serialize
// concurrent writers; callers must do so.
type Store interface {
	Load(ctx context.Context) (entities.StoreRoot, error)
	Save(ctx context.Context, root entities.StoreRoot) error
}
