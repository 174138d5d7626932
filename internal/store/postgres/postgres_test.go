package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/groblegark/configstore/internal/model"
	"github.com/groblegark/configstore/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func testModels(t *testing.T) (dev, vpn *model.Model) {
	t.Helper()
	reg, err := model.NewBuiltinRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	dev, _ = reg.Lookup(model.ModelDevelopMrRobot)
	vpn, _ = reg.Lookup(model.ModelTestVPN)
	return dev, vpn
}

// devColumns is the column list returned for develop_mr_robot_configs rows.
var devColumns = []string{"data", "host", "port", "database", "user", "password", "schema"}

func TestColumnList(t *testing.T) {
	_, vpn := testModels(t)
	want := `"data", "host", "port", "virtualhost", "user", "password"`
	if got := columnList(vpn); got != want {
		t.Errorf("columnList = %s, want %s", got, want)
	}
}

func TestQueryGetRecord(t *testing.T) {
	db, mock := newMockDB(t)
	dev, _ := testModels(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "data", "host", "port", "database", "user", "password", "schema" FROM "develop_mr_robot_configs" WHERE "data" = $1`)).
		WithArgs("test_data").
		WillReturnRows(sqlmock.NewRows(devColumns).
			AddRow("test_data", "test_host", int64(1111), "test_database", "test_user", "test_password", "test_schema"))

	r, err := queryGetRecord(context.Background(), db, dev, "test_data")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Data != "test_data" || r.Values["host"] != "test_host" || r.Values["port"] != int64(1111) {
		t.Fatalf("unexpected record: %+v", r)
	}
	if r.Values["schema"] != "test_schema" {
		t.Errorf("schema = %v", r.Values["schema"])
	}
}

func TestQueryGetRecord_NullColumns(t *testing.T) {
	db, mock := newMockDB(t)
	dev, _ := testModels(t)

	mock.ExpectQuery(`SELECT .+ FROM "develop_mr_robot_configs"`).
		WithArgs("k").
		WillReturnRows(sqlmock.NewRows(devColumns).AddRow("k", "h", nil, nil, nil, nil, nil))

	r, err := queryGetRecord(context.Background(), db, dev, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Values["port"] != nil || r.Values["user"] != nil {
		t.Fatalf("expected NULL columns to be nil, got %+v", r.Values)
	}
}

func TestQueryGetRecord_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	_, vpn := testModels(t)

	mock.ExpectQuery(`SELECT .+ FROM "test_vpn_configs" WHERE "data" = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"data", "host", "port", "virtualhost", "user", "password"}))

	_, err := queryGetRecord(context.Background(), db, vpn, "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryListRecords(t *testing.T) {
	db, mock := newMockDB(t)
	dev, _ := testModels(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "develop_mr_robot_configs" ORDER BY "data"`)).
		WillReturnRows(sqlmock.NewRows(devColumns).
			AddRow("a", "h1", int64(1), "d", "u", "p", "s").
			AddRow("b", "h2", int64(2), "d", "u", "p", "s"))

	records, err := queryListRecords(context.Background(), db, dev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 || records[0].Data != "a" || records[1].Values["port"] != int64(2) {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestQueryListRecords_Error(t *testing.T) {
	db, mock := newMockDB(t)
	dev, _ := testModels(t)

	mock.ExpectQuery(`SELECT .+ FROM "develop_mr_robot_configs"`).WillReturnError(errors.New("relation does not exist"))

	if _, err := queryListRecords(context.Background(), db, dev); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestQueryInsertRecordIfAbsent_Inserts(t *testing.T) {
	db, mock := newMockDB(t)
	_, vpn := testModels(t)

	r := model.NewRecord(vpn, "test_data").
		Set("host", "test_host").
		Set("port", int64(2222)).
		Set("virtualhost", "test_virtualhost").
		Set("user", "test_user").
		Set("password", "test_password")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM "test_vpn_configs" WHERE "data" = $1`)).
		WithArgs("test_data").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "test_vpn_configs" ("data", "host", "port", "virtualhost", "user", "password") VALUES ($1, $2, $3, $4, $5, $6)`)).
		WithArgs("test_data", "test_host", int64(2222), "test_virtualhost", "test_user", "test_password").
		WillReturnResult(sqlmock.NewResult(0, 1))

	inserted, err := queryInsertRecordIfAbsent(context.Background(), db, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inserted {
		t.Fatal("expected row to be inserted")
	}
}

func TestQueryInsertRecordIfAbsent_NullValues(t *testing.T) {
	db, mock := newMockDB(t)
	_, vpn := testModels(t)

	r := model.NewRecord(vpn, "sparse").Set("host", "h")

	mock.ExpectQuery(`SELECT 1 FROM "test_vpn_configs"`).
		WithArgs("sparse").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectExec(`INSERT INTO "test_vpn_configs"`).
		WithArgs("sparse", "h", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if _, err := queryInsertRecordIfAbsent(context.Background(), db, r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryInsertRecordIfAbsent_AlreadyPresent(t *testing.T) {
	db, mock := newMockDB(t)
	dev, _ := testModels(t)

	mock.ExpectQuery(`SELECT 1 FROM "develop_mr_robot_configs"`).
		WithArgs("test_data").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	inserted, err := queryInsertRecordIfAbsent(context.Background(), db, model.NewRecord(dev, "test_data").Set("host", "h"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted {
		t.Fatal("expected existing row to be left alone")
	}
}

func TestQueryInsertRecordIfAbsent_Invalid(t *testing.T) {
	db, _ := newMockDB(t)
	dev, _ := testModels(t)

	// No queries expected: validation fails first.
	_, err := queryInsertRecordIfAbsent(context.Background(), db, model.NewRecord(dev, "k").Set("port", "not-a-number"))
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *model.ValidationError, got %v", err)
	}
}

func TestQueryDeleteRecord(t *testing.T) {
	for _, tc := range []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{"Deleted", 1, nil},
		{"Missing", 0, sql.ErrNoRows},
	} {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			dev, _ := testModels(t)
			mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "develop_mr_robot_configs" WHERE "data" = $1`)).
				WithArgs("test_data").
				WillReturnResult(sqlmock.NewResult(0, tc.affected))

			err := queryDeleteRecord(context.Background(), db, dev, "test_data")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestRunInTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	dev, _ := testModels(t)
	s := NewFromDB(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "develop_mr_robot_configs"`).WithArgs("a").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		return tx.DeleteRecord(context.Background(), dev, "a")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunInTransaction_Rollback(t *testing.T) {
	db, mock := newMockDB(t)
	dev, _ := testModels(t)
	s := NewFromDB(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "develop_mr_robot_configs"`).WithArgs("a").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		return tx.DeleteRecord(context.Background(), dev, "a")
	})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectPing()
	if err := NewFromDB(db).Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
