package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/servicedesk/internal/app/models"
	"github.com/yigit/servicedesk/internal/pkg/apperrors"
	"github.com/yigit/servicedesk/internal/pkg/dberrors"
	"github.com/yigit/servicedesk/internal/pkg/logger"
)

var workerColumns = []string{
	"id", "employee_id", "email", "password_hash", "full_name", "department",
	"phone_number", "role", "is_active", "created_at", "updated_at",
}

// WorkerRepository handles worker database operations
type WorkerRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewWorkerRepository creates a new WorkerRepository
func NewWorkerRepository(db *pgxpool.Pool) *WorkerRepository {
	return &WorkerRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a worker and fills in ID and timestamps
func (r *WorkerRepository) Create(ctx context.Context, w *models.Worker) error {
	if w.Role == "" {
		w.Role = models.RoleWorker
	}

	sql, args, err := r.sb.Insert("workers").
		Columns("employee_id", "email", "password_hash", "full_name", "department", "phone_number", "role", "is_active").
		Values(w.EmployeeID, w.Email, w.PasswordHash, w.FullName, w.Department, w.PhoneNumber, string(w.Role), w.IsActive).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create worker SQL")
		return fmt.Errorf("failed to build create worker query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt); err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintWorkerEmployeeID):
			logger.Warn().Str("employeeID", w.EmployeeID).Msg("Attempted to create worker with duplicate employee ID")
			return apperrors.ErrEmployeeIDExists
		case dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintWorkerEmail):
			logger.Warn().Str("email", w.Email).Msg("Attempted to create worker with duplicate email")
			return apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Str("employeeID", w.EmployeeID).Msg("Error executing create worker query")
		return fmt.Errorf("error creating worker: %w", err)
	}

	logger.Info().Int64("workerID", w.ID).Str("employeeID", w.EmployeeID).Str("role", string(w.Role)).Msg("Worker created successfully")
	return nil
}

func (r *WorkerRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.Worker, error) {
	sql, args, err := r.sb.Select(workerColumns...).From("workers").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get worker query: %w", err)
	}

	var (
		w    models.Worker
		role string
	)
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&w.ID, &w.EmployeeID, &w.Email, &w.PasswordHash, &w.FullName, &w.Department,
		&w.PhoneNumber, &role, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrWorkerNotFound
		}
		logger.Error().Err(err).Msg("Error scanning worker row")
		return nil, fmt.Errorf("error retrieving worker: %w", err)
	}
	w.Role = models.WorkerRole(role)
	return &w, nil
}

// GetByID retrieves a worker by primary key
func (r *WorkerRepository) GetByID(ctx context.Context, id int64) (*models.Worker, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// FindByLogin matches either the employee ID or the email
func (r *WorkerRepository) FindByLogin(ctx context.Context, employeeID, email string) (*models.Worker, error) {
	return r.getOne(ctx, squirrel.Or{squirrel.Eq{"employee_id": employeeID}, squirrel.Eq{"email": email}})
}

func (r *WorkerRepository) exists(ctx context.Context, column, value string) (bool, error) {
	var exists bool
	sql, args, err := r.sb.Select("1").
		From("workers").
		Where(squirrel.Eq{column: value}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build worker exists query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		logger.Error().Err(err).Str("column", column).Msg("Error checking worker existence")
		return false, fmt.Errorf("error checking worker existence: %w", err)
	}
	return exists, nil
}

// EmployeeIDExists reports whether an employee ID is registered
func (r *WorkerRepository) EmployeeIDExists(ctx context.Context, employeeID string) (bool, error) {
	return r.exists(ctx, "employee_id", employeeID)
}

// EmailExists reports whether an email is registered
func (r *WorkerRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email", email)
}

// SetActive enables or disables a worker account
func (r *WorkerRepository) SetActive(ctx context.Context, id int64, active bool) error {
	sql, args, err := r.sb.Update("workers").
		Set("is_active", active).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build set worker active query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("workerID", id).Msg("Error updating worker active flag")
		return fmt.Errorf("error updating worker: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrWorkerNotFound
	}

	logger.Info().Int64("workerID", id).Bool("active", active).Msg("Worker active flag updated")
	return nil
}
