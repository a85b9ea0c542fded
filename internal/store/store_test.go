package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestAppendGeneratesIDAndTimestamp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	s := NewWithDB(db)

	// Generated id and timestamp are unknown; match arg count and values
	// we do control.
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO readings (id, taken_at, temperature, humidity)`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), 23.7, 45.2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = s.Append(testCtx(t), Reading{Temperature: 23.7, Humidity: 45.2})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAppendKeepsExplicitFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	s := NewWithDB(db)
	at := time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO readings`)).
		WithArgs("r-1", "2026-08-01 12:30:00", 19.0, 60.5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = s.Append(testCtx(t), Reading{ID: "r-1", TakenAt: at, Temperature: 19.0, Humidity: 60.5})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAppendDBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	s := NewWithDB(db)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO readings`)).
		WillReturnError(errors.New("disk full"))

	if err := s.Append(testCtx(t), Reading{Temperature: 1, Humidity: 2}); err == nil {
		t.Fatal("expected error from Append")
	}
}

func TestListWithRangeAndLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	s := NewWithDB(db)
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "taken_at", "temperature", "humidity"}).
		AddRow("r-2", "2026-08-01 13:00:00", 24.1, 44.0).
		AddRow("r-1", "2026-08-01 12:00:00", 23.7, 45.2)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, taken_at, temperature, humidity FROM readings WHERE taken_at >= ? AND taken_at <= ? ORDER BY taken_at DESC LIMIT ?`,
	)).
		WithArgs("2026-08-01 00:00:00", "2026-08-02 00:00:00", 100).
		WillReturnRows(rows)

	got, err := s.List(testCtx(t), from, to, 100)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(got))
	}
	if got[0].ID != "r-2" || got[1].ID != "r-1" {
		t.Errorf("order: got %s, %s; want r-2, r-1", got[0].ID, got[1].ID)
	}
	want := time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC)
	if !got[0].TakenAt.Equal(want) {
		t.Errorf("taken_at: got %v, want %v", got[0].TakenAt, want)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestListOpenBounds(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	s := NewWithDB(db)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, taken_at, temperature, humidity FROM readings ORDER BY taken_at DESC`,
	)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "taken_at", "temperature", "humidity"}))

	got, err := s.List(testCtx(t), time.Time{}, time.Time{}, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no readings, got %d", len(got))
	}
}

func TestPrune(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	s := NewWithDB(db)
	cutoff := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM readings WHERE taken_at < ?`)).
		WithArgs("2026-07-01 00:00:00").
		WillReturnResult(sqlmock.NewResult(0, 42))

	n, err := s.Prune(testCtx(t), cutoff)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 42 {
		t.Errorf("pruned rows: got %d, want 42", n)
	}
}
