package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolationPostgres(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_punchout_sessions_buyer_cookie"}
	wrapped := fmt.Errorf("create session: %w", pgErr)

	if !IsUniqueViolation(wrapped, "ux_punchout_sessions_buyer_cookie") {
		t.Fatal("expected match on constraint name")
	}
	if !IsUniqueViolation(wrapped, "") {
		t.Fatal("expected match without constraint name")
	}
	if IsUniqueViolation(wrapped, "ux_other") {
		t.Fatal("expected mismatch for a different constraint")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Fatal("foreign key violation should not match")
	}
}

func TestIsUniqueViolationMessageFallback(t *testing.T) {
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: punchout_sessions.buyer_cookie"), "") {
		t.Fatal("expected sqlite message to match")
	}
	if !IsUniqueViolation(errors.New(`duplicate key value violates unique constraint "ux_punchout_sessions_buyer_cookie"`), "ux_punchout_sessions_buyer_cookie") {
		t.Fatal("expected textual postgres message to match")
	}
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil error should not match")
	}
	if IsUniqueViolation(errors.New("connection refused"), "") {
		t.Fatal("unrelated error should not match")
	}
}
