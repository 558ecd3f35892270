package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/quix-it/entity-api/internal/domain"
)

// The column map and the domain allow-list must describe the same field
// set; a field permitted by one but unknown to the other would either
// reject valid requests or fail at query time.
func TestSortColumnsMatchDomainAllowList(t *testing.T) {
	t.Parallel()

	for field := range sortColumns {
		assert.True(t, domain.IsValidSortField(field),
			"column map entry %q is not an allowed sort field", field)
	}

	for _, field := range []string{
		"code",
		"description",
		"createDate",
		"createUser",
		"lastUpdateDate",
		"lastUpdateUser",
		"canceled",
	} {
		_, ok := sortColumns[field]
		assert.True(t, ok, "allowed sort field %q has no column mapping", field)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "unique violation",
			err:  &pgconn.PgError{Code: pgUniqueViolationCode},
			want: true,
		},
		{
			name: "wrapped unique violation",
			err:  fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgUniqueViolationCode}),
			want: true,
		},
		{
			name: "other constraint violation",
			err:  &pgconn.PgError{Code: "23503"},
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("connection reset"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}
