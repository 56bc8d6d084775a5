package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmockv3 "github.com/pashagolub/pgxmock/v3"

	domainErrors "github.com/polkiloo/pointledger/internal/domain/errors"
)

func TestBalanceStoreGetAndOpen(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	store := &balanceStore{storage: storage}
	user := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT user_id, points, updated_at FROM balances WHERE user_id=").WithArgs(user).WillReturnRows(
		pgxmockv3.NewRows([]string{"user_id", "points", "updated_at"}).AddRow(user, int64(120), now))
	b, err := store.Get(context.Background(), user)
	if err != nil || b.Points != 120 || b.UserID != user {
		t.Fatalf("unexpected balance: %+v err=%v", b, err)
	}

	mock.ExpectQuery("SELECT user_id, points, updated_at FROM balances WHERE user_id=").WithArgs(user).WillReturnError(pgx.ErrNoRows)
	if _, err := store.Get(context.Background(), user); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery("SELECT user_id, points, updated_at FROM balances WHERE user_id=").WithArgs(user).WillReturnError(errors.New("down"))
	if _, err := store.Get(context.Background(), user); !errors.Is(err, domainErrors.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}

	mock.ExpectExec("INSERT INTO balances").WithArgs(user).WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	if err := store.Open(context.Background(), user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec("INSERT INTO balances").WithArgs(user).WillReturnError(errors.New("insert"))
	if err := store.Open(context.Background(), user); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestBalanceStoreTryDebit(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	store := &balanceStore{storage: storage}
	user := uuid.New()

	mock.ExpectExec("UPDATE balances SET points = points - ").WithArgs(user, int64(80)).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	ok, err := store.TryDebit(context.Background(), user, 80)
	if err != nil || !ok {
		t.Fatalf("expected debit, got ok=%v err=%v", ok, err)
	}

	mock.ExpectExec("UPDATE balances SET points = points - ").WithArgs(user, int64(80)).WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs(user).WillReturnRows(pgxmockv3.NewRows([]string{"exists"}).AddRow(true))
	ok, err = store.TryDebit(context.Background(), user, 80)
	if err != nil || ok {
		t.Fatalf("expected guard failure, got ok=%v err=%v", ok, err)
	}

	mock.ExpectExec("UPDATE balances SET points = points - ").WithArgs(user, int64(5)).WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs(user).WillReturnRows(pgxmockv3.NewRows([]string{"exists"}).AddRow(false))
	if _, err := store.TryDebit(context.Background(), user, 5); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectExec("UPDATE balances SET points = points - ").WithArgs(user, int64(5)).WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs(user).WillReturnError(errors.New("lookup"))
	if _, err := store.TryDebit(context.Background(), user, 5); !errors.Is(err, domainErrors.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}

	mock.ExpectExec("UPDATE balances SET points = points - ").WithArgs(user, int64(5)).WillReturnError(errors.New("update"))
	if _, err := store.TryDebit(context.Background(), user, 5); !errors.Is(err, domainErrors.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestBalanceStoreCredit(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	store := &balanceStore{storage: storage}
	user := uuid.New()

	mock.ExpectExec(`UPDATE balances SET points = points \+ `).WithArgs(user, int64(30)).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	if err := store.Credit(context.Background(), user, 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec(`UPDATE balances SET points = points \+ `).WithArgs(user, int64(30)).WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	if err := store.Credit(context.Background(), user, 30); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectExec(`UPDATE balances SET points = points \+ `).WithArgs(user, int64(30)).WillReturnError(errors.New("update"))
	if err := store.Credit(context.Background(), user, 30); !errors.Is(err, domainErrors.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestBalanceStoreListUsers(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	store := &balanceStore{storage: storage}
	a, b := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT user_id FROM balances WHERE user_id >").WithArgs(uuid.Nil, 2).WillReturnRows(
		pgxmockv3.NewRows([]string{"user_id"}).AddRow(a).AddRow(b))
	users, err := store.ListUsers(context.Background(), uuid.Nil, 2)
	if err != nil || len(users) != 2 || users[0] != a {
		t.Fatalf("unexpected users: %v err=%v", users, err)
	}

	mock.ExpectQuery("SELECT user_id FROM balances WHERE user_id >").WithArgs(b, 2).WillReturnError(errors.New("query"))
	if _, err := store.ListUsers(context.Background(), b, 2); err == nil {
		t.Fatal("expected error")
	}

	mock.ExpectQuery("SELECT user_id FROM balances WHERE user_id >").WithArgs(b, 2).WillReturnRows(
		pgxmockv3.NewRows([]string{"user_id"}).AddRow(a).AddRow(b).RowError(1, errors.New("row")))
	if _, err := store.ListUsers(context.Background(), b, 2); !errors.Is(err, domainErrors.ErrPersistence) {
		t.Fatalf("expected row error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestBalanceStoreListUsersRowsError(t *testing.T) {
	storage := &Storage{pool: &rowsErrorPool{rows: &errorRows{err: errors.New("rows err")}}}
	store := &balanceStore{storage: storage}

	if _, err := store.ListUsers(context.Background(), uuid.Nil, 10); err == nil || err.Error() != "list users: rows err" {
		t.Fatalf("expected rows err, got %v", err)
	}
}
