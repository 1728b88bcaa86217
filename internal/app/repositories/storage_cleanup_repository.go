package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/db"
	"github.com/yigit/internportal/internal/pkg/logger"
)

// StorageCleanupRepository records uploaded objects left without a certificate row
type StorageCleanupRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewStorageCleanupRepository creates a new StorageCleanupRepository
func NewStorageCleanupRepository(conn db.DBTX) *StorageCleanupRepository {
	return &StorageCleanupRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Flag records an orphaned object key
func (r *StorageCleanupRepository) Flag(ctx context.Context, objectKey, reason string) error {
	sql, args, err := r.sb.Insert("storage_cleanup").
		Columns("object_key", "reason").
		Values(objectKey, reason).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build flag object query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("objectKey", objectKey).Msg("Error flagging orphaned object")
		return fmt.Errorf("error flagging orphaned object: %w", err)
	}
	return nil
}

// ListPending returns unprocessed flags, oldest first
func (r *StorageCleanupRepository) ListPending(ctx context.Context, limit uint64) ([]models.StorageCleanup, error) {
	sql, args, err := r.sb.Select("id", "object_key", "reason", "created_at", "processed_at").
		From("storage_cleanup").
		Where(squirrel.Eq{"processed_at": nil}).
		OrderBy("created_at", "id").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build pending cleanup query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing pending cleanup: %w", err)
	}
	defer rows.Close()

	items := make([]models.StorageCleanup, 0)
	for rows.Next() {
		var item models.StorageCleanup
		if err := rows.Scan(&item.ID, &item.ObjectKey, &item.Reason, &item.CreatedAt, &item.ProcessedAt); err != nil {
			return nil, fmt.Errorf("error scanning cleanup row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// MarkProcessed stamps processed_at once the object is gone
func (r *StorageCleanupRepository) MarkProcessed(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, "UPDATE storage_cleanup SET processed_at = NOW() WHERE id = $1", id); err != nil {
		return fmt.Errorf("error marking cleanup processed: %w", err)
	}
	return nil
}
