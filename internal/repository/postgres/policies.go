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

// PolicyRepository implements port.PolicyRepository using PostgreSQL.
type PolicyRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewPolicyRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewPolicyRepository(exec pgExecutor) *PolicyRepository {
	repo := &PolicyRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *PolicyRepository) WithTx(tx pgx.Tx) *PolicyRepository {
	if tx == nil {
		return r
	}
	return &PolicyRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

var policyColumns = []string{
	"id",
	"policy_id",
	"policy_holder_id",
	"covered_city_name",
	"covered_city_latitude",
	"covered_city_longitude",
	"start_date",
	"end_date",
	"status",
	"ethereum_address",
	"created_at",
	"updated_at",
}

// Create inserts a new policy row. The unique index on policy_holder_id makes
// a concurrent second policy for the same holder fail with
// repository.ErrDuplicate rather than silently succeeding.
func (r *PolicyRepository) Create(ctx context.Context, policy domain.Policy) error {
	query := r.builder.Insert("policies").
		Columns(policyColumns...).
		Values(
			policy.ID,
			policy.PolicyID,
			policy.HolderID,
			policy.CoveredCity.Name,
			policy.CoveredCity.Latitude,
			policy.CoveredCity.Longitude,
			policy.StartDate,
			policy.EndDate,
			policy.Status,
			nullable(policy.EthereumAddress),
			policy.CreatedAt,
			policy.UpdatedAt,
		)

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert policy sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert policy: %w", err)
	}

	return nil
}

// GetByPolicyID retrieves a policy by public identifier.
func (r *PolicyRepository) GetByPolicyID(ctx context.Context, policyID string) (*domain.Policy, error) {
	return r.getBy(ctx, squirrel.Eq{"policy_id": policyID})
}

// GetByHolderID retrieves the policy belonging to the given holder.
func (r *PolicyRepository) GetByHolderID(ctx context.Context, holderID string) (*domain.Policy, error) {
	return r.getBy(ctx, squirrel.Eq{"policy_holder_id": holderID})
}

func (r *PolicyRepository) getBy(ctx context.Context, cond squirrel.Eq) (*domain.Policy, error) {
	stmt, args, err := r.builder.
		Select(policyColumns...).
		From("policies").
		Where(cond).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select policy sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var (
		policy     domain.Policy
		ethAddress sql.NullString
	)

	if err := row.Scan(
		&policy.ID,
		&policy.PolicyID,
		&policy.HolderID,
		&policy.CoveredCity.Name,
		&policy.CoveredCity.Latitude,
		&policy.CoveredCity.Longitude,
		&policy.StartDate,
		&policy.EndDate,
		&policy.Status,
		&ethAddress,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan policy: %w", err)
	}

	policy.EthereumAddress = ethAddress.String

	return &policy, nil
}

// UpdateStatus sets the lifecycle status of a policy.
func (r *PolicyRepository) UpdateStatus(ctx context.Context, id string, status domain.PolicyStatus) error {
	stmt, args, err := r.builder.Update("policies").
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update policy status sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update policy status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetEthereumAddress binds a payout address to a policy.
func (r *PolicyRepository) SetEthereumAddress(ctx context.Context, id string, address string) error {
	stmt, args, err := r.builder.Update("policies").
		Set("ethereum_address", address).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update ethereum address sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update ethereum address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.PolicyRepository = (*PolicyRepository)(nil)
