package repository

import (
	"context"

	"github.com/hexcontexts/user-service/internal/domain/entity"
)

// UserRepository persists and retrieves User aggregates.
//
// Save upserts by id and translates storage-level unique violations on
// email/username into domain.ErrConflict. Lookups return domain.ErrNotFound
// on a miss. List orders by creation time ascending for stable pagination;
// Count reports the full table size so callers can compute the last page.
type UserRepository interface {
	Save(ctx context.Context, u *entity.User) (*entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	List(ctx context.Context, limit, offset int) ([]*entity.User, error)
	Count(ctx context.Context) (int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}
