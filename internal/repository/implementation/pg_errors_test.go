package implementation

import (
	"errors"
	"fmt"
	"testing"

	"ai-docqa-be/pkg/apperror"
	"ai-docqa-be/pkg/embedding"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassifyPgError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperror.Kind
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, apperror.KindTransient},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, apperror.KindTransient},
		{"connection exception", &pgconn.PgError{Code: "08006"}, apperror.KindTransient},
		{"unique violation", &pgconn.PgError{Code: "23505"}, apperror.KindConflict},
		{"document gone", &pgconn.PgError{Code: "23503"}, apperror.KindNotFound},
		{"wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "40001"}), apperror.KindTransient},
		{"syntax error untouched", &pgconn.PgError{Code: "42601"}, apperror.KindTerminal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperror.KindOf(classifyPgError("op", tt.err)))
		})
	}
}

func TestClassifyPgErrorDimensionMismatch(t *testing.T) {
	err := classifyPgError("upsert vectors", &pgconn.PgError{Code: "22000", Message: "expected 768 dimensions, not 1024"})

	assert.ErrorIs(t, err, embedding.ErrDimensionMismatch)
	assert.Equal(t, apperror.KindTerminal, apperror.KindOf(err))
}

func TestClassifyPgErrorPassThrough(t *testing.T) {
	plain := errors.New("record not found")
	assert.Same(t, plain, classifyPgError("op", plain))
	assert.NoError(t, classifyPgError("op", nil))
}
