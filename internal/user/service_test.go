package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var userCols = []string{"user_id", "license_code", "validated_at", "active"}

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestStoreLicense(t *testing.T) {
	db, mock := newMock(t)
	svc := NewService(db, nil, zap.NewNop().Sugar())

	mock.ExpectExec("INSERT INTO users").
		WithArgs("42", "TF-PREMIUM-001", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := svc.StoreLicense(context.Background(), "42", "TF-PREMIUM-001"); err != nil {
		t.Fatalf("StoreLicense error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestIsLicensed(t *testing.T) {
	db, mock := newMock(t)
	svc := NewService(db, nil, zap.NewNop().Sugar())

	validated := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("42").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("42", "TF-PREMIUM-001", validated, true))

	if !svc.IsLicensed(context.Background(), "42") {
		t.Fatal("expected licensed user")
	}
}

func TestIsLicensedFalseForPlaceholder(t *testing.T) {
	db, mock := newMock(t)
	svc := NewService(db, nil, zap.NewNop().Sugar())

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("42").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("42", nil, nil, false))

	if svc.IsLicensed(context.Background(), "42") {
		t.Fatal("placeholder user must not be licensed")
	}
}

func TestIsLicensedFalseForUnknownUser(t *testing.T) {
	db, mock := newMock(t)
	svc := NewService(db, nil, zap.NewNop().Sugar())

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userCols))

	if svc.IsLicensed(context.Background(), "ghost") {
		t.Fatal("unknown user must not be licensed")
	}
}

func TestIsLicensedFalseOnStoreError(t *testing.T) {
	db, mock := newMock(t)
	svc := NewService(db, nil, zap.NewNop().Sugar())

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("42").
		WillReturnError(errors.New("store is down"))

	if svc.IsLicensed(context.Background(), "42") {
		t.Fatal("store failure must degrade to unlicensed")
	}
}
