package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blackinsure/rainyday/internal/core/domain"
	"github.com/blackinsure/rainyday/internal/core/port"
	"github.com/blackinsure/rainyday/internal/repository"
)

// PolicyHolderRepository implements port.PolicyHolderRepository using PostgreSQL.
type PolicyHolderRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewPolicyHolderRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewPolicyHolderRepository(exec pgExecutor) *PolicyHolderRepository {
	repo := &PolicyHolderRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *PolicyHolderRepository) WithTx(tx pgx.Tx) *PolicyHolderRepository {
	if tx == nil {
		return r
	}
	return &PolicyHolderRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

var holderColumns = []string{
	"id",
	"policy_holder_id",
	"email",
	"password_hash",
	"confirmation_id",
	"balance_blck",
	"facebook_id",
	"facebook_name",
	"facebook_email",
	"google_id",
	"google_name",
	"google_email",
	"created_at",
}

// Create inserts a new policy holder row. A duplicate email or identifier
// surfaces as repository.ErrDuplicate.
func (r *PolicyHolderRepository) Create(ctx context.Context, holder domain.PolicyHolder) error {
	var emailValue any
	if holder.Email != "" {
		emailValue = holder.Email
	}

	query := r.builder.Insert("policy_holders").
		Columns(holderColumns...).
		Values(
			holder.ID,
			holder.PolicyHolderID,
			emailValue,
			holder.PasswordHash,
			holder.ConfirmationID,
			holder.BalanceBLCK,
			nullable(holder.Facebook.ID),
			nullable(holder.Facebook.Name),
			nullable(holder.Facebook.Email),
			nullable(holder.Google.ID),
			nullable(holder.Google.Name),
			nullable(holder.Google.Email),
			holder.CreatedAt,
		)

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert policy holder sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert policy holder: %w", err)
	}

	return nil
}

// GetByID retrieves a policy holder by primary key.
func (r *PolicyHolderRepository) GetByID(ctx context.Context, id string) (*domain.PolicyHolder, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

// GetByPolicyHolderID retrieves a policy holder by public identifier.
func (r *PolicyHolderRepository) GetByPolicyHolderID(ctx context.Context, policyHolderID string) (*domain.PolicyHolder, error) {
	return r.getBy(ctx, squirrel.Eq{"policy_holder_id": policyHolderID})
}

// GetByEmail retrieves a policy holder by account email.
func (r *PolicyHolderRepository) GetByEmail(ctx context.Context, email string) (*domain.PolicyHolder, error) {
	return r.getBy(ctx, squirrel.Eq{"email": email})
}

// GetByConfirmationID retrieves a policy holder by confirmation code.
func (r *PolicyHolderRepository) GetByConfirmationID(ctx context.Context, confirmationID string) (*domain.PolicyHolder, error) {
	return r.getBy(ctx, squirrel.Eq{"confirmation_id": confirmationID})
}

func (r *PolicyHolderRepository) getBy(ctx context.Context, cond squirrel.Eq) (*domain.PolicyHolder, error) {
	stmt, args, err := r.builder.
		Select(holderColumns...).
		From("policy_holders").
		Where(cond).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select policy holder sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var (
		holder        domain.PolicyHolder
		email         sql.NullString
		facebookID    sql.NullString
		facebookName  sql.NullString
		facebookEmail sql.NullString
		googleID      sql.NullString
		googleName    sql.NullString
		googleEmail   sql.NullString
	)

	if err := row.Scan(
		&holder.ID,
		&holder.PolicyHolderID,
		&email,
		&holder.PasswordHash,
		&holder.ConfirmationID,
		&holder.BalanceBLCK,
		&facebookID,
		&facebookName,
		&facebookEmail,
		&googleID,
		&googleName,
		&googleEmail,
		&holder.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan policy holder: %w", err)
	}

	holder.Email = email.String
	holder.Facebook = domain.SocialIdentity{ID: facebookID.String, Name: facebookName.String, Email: facebookEmail.String}
	holder.Google = domain.SocialIdentity{ID: googleID.String, Name: googleName.String, Email: googleEmail.String}

	return &holder, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ port.PolicyHolderRepository = (*PolicyHolderRepository)(nil)
