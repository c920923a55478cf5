package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "no rows", err: pgx.ErrNoRows, want: ErrNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: ErrDuplicate},
		{name: "foreign key violation", err: &pgconn.PgError{Code: "23503"}, want: ErrReferenced},
		{name: "malformed uuid", err: &pgconn.PgError{Code: "22P02"}, want: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translateError(tt.err), tt.want)
		})
	}

	other := errors.New("connection reset")
	assert.Same(t, other, translateError(other))
	assert.NoError(t, translateError(nil))
}

func TestTicketFilterUserIDsValid(t *testing.T) {
	valid := "7f9c24e8-3b12-4f6a-9d3e-2a1b5c6d7e8f"
	bogus := "nobody"

	assert.True(t, TicketFilter{}.userIDsValid())
	assert.True(t, TicketFilter{AssignedToID: &valid, SubmitterID: &valid}.userIDsValid())
	assert.False(t, TicketFilter{AssignedToID: &bogus}.userIDsValid())
	assert.False(t, TicketFilter{SubmitterID: &bogus}.userIDsValid())
	assert.True(t, TicketFilter{AssignedToID: &bogus, Unassigned: true}.userIDsValid(), "unassigned ignores the assignee id")
}
