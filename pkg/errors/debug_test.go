package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpNilError(t *testing.T) {
	d := Dump(nil)
	if d.TopMessage != "" || len(d.Chain) != 0 {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}

func TestDumpTypedErrorChain(t *testing.T) {
	err := Wrap(CodeDependency, fmt.Errorf("dial tcp: refused"), "loading coupon")

	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %q", d.Code)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected unwrapped chain, got %v", d.Chain)
	}
}

func TestDumpSurfacesPostgresConstraint(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "idx_coupons_code_lower",
		TableName:      "coupons",
		Detail:         "Key (lower(code))=(save10) already exists.",
		Message:        "duplicate key value violates unique constraint",
	}
	err := Wrap(CodeConflict, fmt.Errorf("create coupon: %w", pgErr), "saving coupon")

	d := Dump(err)
	if d.PGCode != "23505" {
		t.Fatalf("expected sqlstate 23505, got %q", d.PGCode)
	}
	if d.PGConstraint != "idx_coupons_code_lower" {
		t.Fatalf("expected constraint name, got %q", d.PGConstraint)
	}
	if d.PGTable != "coupons" {
		t.Fatalf("expected table name, got %q", d.PGTable)
	}
}

func TestDumpSurfacesPqConstraint(t *testing.T) {
	pqErr := &pq.Error{
		Code:       "23514",
		Constraint: "coupons_usage_within_limit",
		Table:      "coupons",
		Message:    "new row violates check constraint",
	}
	err := Wrap(CodeConflict, fmt.Errorf("redeem coupon: %w", pqErr), "redeeming coupon")

	d := Dump(err)
	if d.PGCode != "23514" {
		t.Fatalf("expected sqlstate 23514, got %q", d.PGCode)
	}
	if d.PGConstraint != "coupons_usage_within_limit" {
		t.Fatalf("expected constraint name, got %q", d.PGConstraint)
	}
}
