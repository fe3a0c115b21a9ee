package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"carebook/internal/store"
)

func TestMapOverlapError(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{
			"exclusion violation on the overlap constraint",
			&pgconn.PgError{Code: "23P01", ConstraintName: "appointments_no_overlap"},
			store.ErrConflict,
		},
		{
			"exclusion violation on another constraint",
			&pgconn.PgError{Code: "23P01", ConstraintName: "something_else"},
			&pgconn.PgError{Code: "23P01", ConstraintName: "something_else"},
		},
		{
			"unrelated pg error",
			&pgconn.PgError{Code: "23505", ConstraintName: "appointments_pkey"},
			&pgconn.PgError{Code: "23505", ConstraintName: "appointments_pkey"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapOverlapError(tc.in)
			if tc.want == store.ErrConflict {
				if got != store.ErrConflict {
					t.Fatalf("got %v, want %v", got, store.ErrConflict)
				}
				return
			}
			if got != tc.in {
				t.Fatalf("got %v, want the original error", got)
			}
		})
	}

	plain := errors.New("connection reset")
	if got := mapOverlapError(plain); got != plain {
		t.Fatalf("got %v, want the original error", got)
	}
}

type fakeResult struct {
	affected int64
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.affected, nil }

func TestRequireAffected(t *testing.T) {
	if err := requireAffected(fakeResult{affected: 1}); err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if err := requireAffected(fakeResult{affected: 0}); err != store.ErrNotFound {
		t.Fatalf("err = %v, want %v", err, store.ErrNotFound)
	}
}
