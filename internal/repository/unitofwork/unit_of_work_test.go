package unitofwork

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingUow struct {
	UnitOfWork
	beginErr                  error
	begins, commits, rollback int
}

func (u *countingUow) Begin(ctx context.Context) error { u.begins++; return u.beginErr }
func (u *countingUow) Commit() error                   { u.commits++; return nil }
func (u *countingUow) Rollback() error                 { u.rollback++; return nil }

type singleFactory struct{ uow *countingUow }

func (f singleFactory) NewUnitOfWork(ctx context.Context) UnitOfWork { return f.uow }

func TestRun(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name         string
		beginErr     error
		fnErr        error
		wantErr      error
		wantCommits  int
		wantRollback int
	}{
		{"commits on success", nil, nil, nil, 1, 0},
		{"rolls back on failure", nil, boom, boom, 0, 1},
		{"begin failure skips fn", boom, nil, boom, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uow := &countingUow{beginErr: tt.beginErr}
			called := false

			err := Run(context.Background(), singleFactory{uow}, func(UnitOfWork) error {
				called = true
				return tt.fnErr
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.beginErr == nil, called)
			assert.Equal(t, tt.wantCommits, uow.commits)
			assert.Equal(t, tt.wantRollback, uow.rollback)
		})
	}
}
