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

var studentColumns = []string{
	"id", "roll_number", "email", "password_hash", "full_name", "department",
	"year_of_study", "division", "phone_number", "created_at", "updated_at",
}

// StudentRepository handles student database operations
type StudentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a student and fills in ID and timestamps
func (r *StudentRepository) Create(ctx context.Context, s *models.Student) error {
	sql, args, err := r.sb.Insert("students").
		Columns("roll_number", "email", "password_hash", "full_name", "department", "year_of_study", "division", "phone_number").
		Values(s.RollNumber, s.Email, s.PasswordHash, s.FullName, s.Department, s.YearOfStudy, s.Division, s.PhoneNumber).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create student SQL")
		return fmt.Errorf("failed to build create student query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintStudentRollNumber):
			logger.Warn().Str("rollNumber", s.RollNumber).Msg("Attempted to create student with duplicate roll number")
			return apperrors.ErrRollNumberExists
		case dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintStudentEmail):
			logger.Warn().Str("email", s.Email).Msg("Attempted to create student with duplicate email")
			return apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Str("rollNumber", s.RollNumber).Msg("Error executing create student query")
		return fmt.Errorf("error creating student: %w", err)
	}

	logger.Info().Int64("studentID", s.ID).Str("rollNumber", s.RollNumber).Msg("Student created successfully")
	return nil
}

func (r *StudentRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.Student, error) {
	sql, args, err := r.sb.Select(studentColumns...).From("students").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get student query: %w", err)
	}

	var s models.Student
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&s.ID, &s.RollNumber, &s.Email, &s.PasswordHash, &s.FullName, &s.Department,
		&s.YearOfStudy, &s.Division, &s.PhoneNumber, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		logger.Error().Err(err).Msg("Error scanning student row")
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}
	return &s, nil
}

// GetByID retrieves a student by primary key
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// FindByLogin matches either the roll number or the email; both arguments are already normalised
func (r *StudentRepository) FindByLogin(ctx context.Context, rollNumber, email string) (*models.Student, error) {
	return r.getOne(ctx, squirrel.Or{squirrel.Eq{"roll_number": rollNumber}, squirrel.Eq{"email": email}})
}

func (r *StudentRepository) exists(ctx context.Context, column, value string) (bool, error) {
	var exists bool
	sql, args, err := r.sb.Select("1").
		From("students").
		Where(squirrel.Eq{column: value}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build student exists query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		logger.Error().Err(err).Str("column", column).Msg("Error checking student existence")
		return false, fmt.Errorf("error checking student existence: %w", err)
	}
	return exists, nil
}

// RollNumberExists reports whether a roll number is registered
func (r *StudentRepository) RollNumberExists(ctx context.Context, rollNumber string) (bool, error) {
	return r.exists(ctx, "roll_number", rollNumber)
}

// EmailExists reports whether an email is registered
func (r *StudentRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email", email)
}

// Delete removes a student; their requests go with them through ON DELETE CASCADE
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("students").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete student query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("studentID", id).Msg("Error deleting student")
		return fmt.Errorf("error deleting student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}

	logger.Info().Int64("studentID", id).Msg("Student deleted")
	return nil
}
