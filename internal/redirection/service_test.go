package redirection

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var redirCols = []string{"id", "user_id", "name", "phone_number", "channel_name", "source_id",
	"destination_id", "created_at", "updated_at", "replaced_at", "active", "replacement_info"}

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func newService(db *sqlx.DB) *Service {
	return NewService(db, nil, nil, zap.NewNop().Sugar())
}

func expectEnsureUser(mock sqlmock.Sqlmock, userID string) {
	mock.ExpectExec("INSERT INTO users").
		WithArgs(userID).WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestAddFirstCreation(t *testing.T) {
	db, mock := newMock(t)
	svc := newService(db)

	mock.ExpectBegin()
	expectEnsureUser(mock, "42")
	// no active rule for the phone yet
	mock.ExpectQuery("SELECT (.+) FROM redirections").
		WithArgs("42", "+33600000001").
		WillReturnRows(sqlmock.NewRows(redirCols))
	mock.ExpectExec("INSERT INTO redirections").
		WithArgs(sqlmock.AnyArg(), "42", "crypto", "+33600000001", "crypto",
			nil, nil, sqlmock.AnyArg(), nil, sqlmock.AnyArg(), true, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.Store(context.Background(), "42", "crypto", "+33600000001", ActionAdd, Params{})
	if err != nil {
		t.Fatalf("Store add error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestAddReplacesActiveRuleForPhone(t *testing.T) {
	db, mock := newMock(t)
	svc := newService(db)

	created := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	expectEnsureUser(mock, "42")
	mock.ExpectQuery("SELECT (.+) FROM redirections").
		WithArgs("42", "+33600000001").
		WillReturnRows(sqlmock.NewRows(redirCols).
			AddRow("old-id", "42", "ancien", "+33600000001", "ancien", nil, nil, created, nil, "01/07/2026 11:00:00", true, ""))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM redirections WHERE id = $1`)).
		WithArgs("old-id").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO redirections").
		WithArgs(sqlmock.AnyArg(), "42", "nouveau", "+33600000001", "nouveau",
			nil, nil, sqlmock.AnyArg(), nil, sqlmock.AnyArg(), true, " (remplacé: ancien)").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.Store(context.Background(), "42", "nouveau", "+33600000001", ActionAdd, Params{})
	if err != nil {
		t.Fatalf("Store add error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestAddKeepsExplicitChannelAndIDs(t *testing.T) {
	db, mock := newMock(t)
	svc := newService(db)

	src, dst := "-100123", "-100456"
	mock.ExpectBegin()
	expectEnsureUser(mock, "42")
	mock.ExpectQuery("SELECT (.+) FROM redirections").
		WithArgs("42", "+33600000001").
		WillReturnRows(sqlmock.NewRows(redirCols))
	mock.ExpectExec("INSERT INTO redirections").
		WithArgs(sqlmock.AnyArg(), "42", "news", "+33600000001", "Chaîne News",
			src, dst, sqlmock.AnyArg(), nil, sqlmock.AnyArg(), true, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.Store(context.Background(), "42", "news", "+33600000001", ActionAdd,
		Params{ChannelName: "Chaîne News", SourceID: &src, DestinationID: &dst})
	if err != nil {
		t.Fatalf("Store add error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestRemoveTargetsByNameOnly(t *testing.T) {
	db, mock := newMock(t)
	svc := newService(db)

	created := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	expectEnsureUser(mock, "42")
	mock.ExpectQuery("SELECT (.+) FROM redirections").
		WithArgs("42", "A").
		WillReturnRows(sqlmock.NewRows(redirCols).
			AddRow("id-a", "42", "A", "+1", "A", nil, nil, created, nil, "", true, ""))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM redirections WHERE id = $1`)).
		WithArgs("id-a").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.Store(context.Background(), "42", "A", "", ActionRemove, Params{})
	if err != nil {
		t.Fatalf("Store remove error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestRemoveMissingIsNoop(t *testing.T) {
	db, mock := newMock(t)
	svc := newService(db)

	mock.ExpectBegin()
	expectEnsureUser(mock, "42")
	mock.ExpectQuery("SELECT (.+) FROM redirections").
		WithArgs("42", "ghost").
		WillReturnRows(sqlmock.NewRows(redirCols))
	mock.ExpectCommit()

	err := svc.Store(context.Background(), "42", "ghost", "", ActionRemove, Params{})
	if err != nil {
		t.Fatalf("remove on absent name should be a no-op, got: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestChangeUpdatesOnlyMutableFields(t *testing.T) {
	db, mock := newMock(t)
	svc := newService(db)

	created := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	expectEnsureUser(mock, "42")
	mock.ExpectQuery("SELECT (.+) FROM redirections").
		WithArgs("42", "B").
		WillReturnRows(sqlmock.NewRows(redirCols).
			AddRow("id-b", "42", "B", "+2", "B", nil, nil, created, nil, "", true, ""))
	mock.ExpectExec("UPDATE redirections").
		WithArgs("id-b", "+3", "B", nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.Store(context.Background(), "42", "B", "+3", ActionChange, Params{})
	if err != nil {
		t.Fatalf("Store change error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestChangeMissingIsNoop(t *testing.T) {
	db, mock := newMock(t)
	svc := newService(db)

	mock.ExpectBegin()
	expectEnsureUser(mock, "42")
	mock.ExpectQuery("SELECT (.+) FROM redirections").
		WithArgs("42", "ghost").
		WillReturnRows(sqlmock.NewRows(redirCols))
	mock.ExpectCommit()

	err := svc.Store(context.Background(), "42", "ghost", "+9", ActionChange, Params{})
	if err != nil {
		t.Fatalf("change on absent name should be a no-op, got: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestUnknownAction(t *testing.T) {
	db, mock := newMock(t)
	svc := newService(db)

	mock.ExpectBegin()
	expectEnsureUser(mock, "42")
	mock.ExpectRollback()

	err := svc.Store(context.Background(), "42", "x", "+1", Action("drop"), Params{})
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestListActive(t *testing.T) {
	db, mock := newMock(t)
	svc := newService(db)

	created := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM redirections").
		WithArgs("42", "+33600000001").
		WillReturnRows(sqlmock.NewRows(redirCols).
			AddRow("id-1", "42", "crypto", "+33600000001", "Crypto FR", nil, nil, created, nil, "", true, ""))

	got := svc.ListActive(context.Background(), "42", "+33600000001")
	if len(got) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(got))
	}
	if got[0].Name != "crypto" || got[0].ChannelName != "Crypto FR" || got[0].Status != StatusActive {
		t.Errorf("unexpected view: %#v", got[0])
	}
}

func TestListActiveEmptyOnStoreError(t *testing.T) {
	db, mock := newMock(t)
	svc := newService(db)

	mock.ExpectQuery("SELECT (.+) FROM redirections").
		WithArgs("42", "+33600000001").
		WillReturnError(errors.New("store is down"))

	got := svc.ListActive(context.Background(), "42", "+33600000001")
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice on store failure, got %#v", got)
	}
}
