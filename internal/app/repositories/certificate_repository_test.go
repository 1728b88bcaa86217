package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/pkg/apperrors"
)

// execRecorder records the last statement and reports a fixed row count
type execRecorder struct {
	affected string
	sql      string
	args     []any
}

func (r *execRecorder) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.sql, r.args = sql, args
	return pgconn.NewCommandTag(r.affected), nil
}

func (r *execRecorder) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }

func (r *execRecorder) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func TestReviewUpdatesOnlyTouchPendingCertificates(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	conn := &execRecorder{affected: "UPDATE 1"}
	repo := NewCertificateRepository(conn)

	require.NoError(t, repo.MarkVerified(ctx, id, uuid.New(), time.Now()))
	assert.Regexp(t, `WHERE id = \$\d+ AND status = \$\d+`, conn.sql)
	assert.Contains(t, conn.args, models.CertificatePending)

	require.NoError(t, repo.MarkRejected(ctx, id, "illegible scan"))
	assert.Regexp(t, `WHERE id = \$\d+ AND status = \$\d+`, conn.sql)
	assert.Contains(t, conn.args, models.CertificatePending)

	conn.affected = "UPDATE 0"
	assert.ErrorIs(t, repo.MarkVerified(ctx, id, uuid.New(), time.Now()), apperrors.ErrIllegalTransition)
	assert.ErrorIs(t, repo.MarkRejected(ctx, id, "late"), apperrors.ErrIllegalTransition)
}
