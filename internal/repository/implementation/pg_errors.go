package implementation

import (
	"errors"
	"fmt"
	"strings"

	"ai-docqa-be/pkg/apperror"
	"ai-docqa-be/pkg/embedding"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories react to.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgDataException       = "22000"
	pgSerializationFail   = "40001"
	pgDeadlockDetected    = "40P01"
	pgLockNotAvailable    = "55P03"
	pgQueryCanceled       = "57014"
	pgTooManyConnections  = "53300"
)

// classifyPgError attaches an apperror kind to postgres failures so callers
// can tell a retryable conflict from a bad row. Other errors pass through.
func classifyPgError(op string, err error) error {
	if err == nil {
		return nil
	}
	if pgconn.Timeout(err) {
		return apperror.Transient(op, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch {
	case pgErr.Code == pgSerializationFail,
		pgErr.Code == pgDeadlockDetected,
		pgErr.Code == pgLockNotAvailable,
		pgErr.Code == pgQueryCanceled,
		pgErr.Code == pgTooManyConnections,
		strings.HasPrefix(pgErr.Code, "08"):
		return apperror.Transient(op, err)
	case pgErr.Code == pgUniqueViolation:
		return apperror.Wrap(apperror.KindConflict, op, err)
	case pgErr.Code == pgForeignKeyViolation:
		return apperror.Wrap(apperror.KindNotFound, op, err)
	case pgErr.Code == pgDataException && strings.Contains(pgErr.Message, "dimensions"):
		// pgvector: "expected 768 dimensions, not 1024"
		return apperror.Terminal(op, fmt.Errorf("%w: %s", embedding.ErrDimensionMismatch, pgErr.Message))
	default:
		return err
	}
}
