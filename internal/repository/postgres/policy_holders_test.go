package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/blackinsure/rainyday/internal/core/domain"
	"github.com/blackinsure/rainyday/internal/repository"
)

func testHolder() domain.PolicyHolder {
	return domain.PolicyHolder{
		ID:             "id-1",
		PolicyHolderID: "holder-1",
		Email:          "alice@example.com",
		PasswordHash:   "salt:hash",
		ConfirmationID: "confirm-1",
		CreatedAt:      time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPolicyHolderRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewPolicyHolderRepository(mock)
	holder := testHolder()

	mock.ExpectExec(`INSERT INTO policy_holders`).
		WithArgs(
			holder.ID,
			holder.PolicyHolderID,
			holder.Email,
			holder.PasswordHash,
			holder.ConfirmationID,
			holder.BalanceBLCK,
			nil, nil, nil,
			nil, nil, nil,
			holder.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), holder); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPolicyHolderRepository_CreateDuplicateEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewPolicyHolderRepository(mock)

	mock.ExpectExec(`INSERT INTO policy_holders`).
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(),
		).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "policy_holders_email_key"})

	err = repo.Create(context.Background(), testHolder())
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestPolicyHolderRepository_GetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewPolicyHolderRepository(mock)
	want := testHolder()

	rows := pgxmock.NewRows(holderColumns).AddRow(
		want.ID, want.PolicyHolderID, want.Email,
		want.PasswordHash, want.ConfirmationID, want.BalanceBLCK,
		"fb-1", "Alice", "alice@facebook.example",
		nil, nil, nil,
		want.CreatedAt,
	)

	mock.ExpectQuery(`SELECT .*FROM policy_holders`).WithArgs(want.Email).WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), want.Email)
	if err != nil {
		t.Fatalf("GetByEmail returned error: %v", err)
	}
	if got.PolicyHolderID != want.PolicyHolderID {
		t.Fatalf("expected holder id %s, got %s", want.PolicyHolderID, got.PolicyHolderID)
	}
	if got.Facebook.ID != "fb-1" || got.Facebook.Name != "Alice" {
		t.Fatalf("expected facebook identity to be populated, got %+v", got.Facebook)
	}
	if got.Google.ID != "" {
		t.Fatalf("expected empty google identity, got %+v", got.Google)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPolicyHolderRepository_GetByConfirmationIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewPolicyHolderRepository(mock)

	mock.ExpectQuery(`SELECT .*FROM policy_holders`).WithArgs("unknown").WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByConfirmationID(context.Background(), "unknown")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
