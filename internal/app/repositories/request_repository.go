package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/servicedesk/internal/app/models"
	"github.com/yigit/servicedesk/internal/db"
	"github.com/yigit/servicedesk/internal/domain"
	"github.com/yigit/servicedesk/internal/pkg/apperrors"
	"github.com/yigit/servicedesk/internal/pkg/dberrors"
	"github.com/yigit/servicedesk/internal/pkg/helpers"
	"github.com/yigit/servicedesk/internal/pkg/logger"
)

var requestColumns = []string{
	"sr.id", "sr.token_number", "sr.request_type", "sr.student_id", "sr.processed_by", "sr.status",
	"sr.details", "sr.remarks", "sr.id_proof_path", "sr.photo_path", "sr.fee_receipt_path",
	"sr.additional_doc_path", "sr.submitted_at", "sr.processed_at", "sr.ready_at", "sr.collected_at",
	"sr.updated_at",
	"s.roll_number", "s.email", "s.full_name", "s.department", "s.year_of_study", "s.division", "s.phone_number",
	"COALESCE(w.full_name, '') AS processor_name",
}

// Reserving a sequence seeds a new (type, year) counter from the rows already stored, so the first
// number handed out is count+1. The row lock taken here is held until the surrounding transaction ends.
const reserveSequenceSQL = `
INSERT INTO token_sequences (request_type, year, last_value)
SELECT $1::varchar, $2::int, COUNT(*) + 1
FROM service_requests
WHERE request_type = $1::varchar AND submitted_at >= $3 AND submitted_at < $4
ON CONFLICT (request_type, year)
DO UPDATE SET last_value = token_sequences.last_value + 1, updated_at = NOW()
RETURNING last_value`

// CreateOptions controls token allocation for one insert
type CreateOptions struct {
	// TokenAttempts bounds the reserve/insert loop on token collisions
	TokenAttempts int
	// DailyLimit caps railway requests per calendar day; zero disables the check
	DailyLimit int
	// Location decides calendar year and day boundaries
	Location *time.Location
}

// RequestRepository stores service requests and allocates their token numbers
type RequestRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewRequestRepository creates a new RequestRepository
func NewRequestRepository(db *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create allocates a token and inserts req in one transaction. On success req carries its ID,
// token number and stored timestamps.
func (r *RequestRepository) Create(ctx context.Context, req *models.ServiceRequest, opts CreateOptions) error {
	if opts.TokenAttempts < 1 {
		opts.TokenAttempts = 1
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	submittedAt := req.SubmittedAt.In(loc)

	details, err := domain.EncodePayload(req.Details)
	if err != nil {
		return fmt.Errorf("failed to encode request details: %w", err)
	}

	var token string
	err = db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		for attempt := 1; attempt <= opts.TokenAttempts; attempt++ {
			seq, err := r.reserveSequence(ctx, tx, req.RequestType, submittedAt)
			if err != nil {
				return err
			}

			// Same-type inserts are serialised by the counter lock, so the count below is exact
			if attempt == 1 && req.RequestType == domain.RequestTypeRailway && opts.DailyLimit > 0 {
				n, err := r.countSubmittedOn(ctx, tx, req.RequestType, submittedAt)
				if err != nil {
					return err
				}
				if n >= opts.DailyLimit {
					logger.Warn().Int("limit", opts.DailyLimit).Msg("Daily railway concession limit reached")
					return apperrors.ErrDailyLimitReached
				}
			}

			candidate := domain.FormatToken(req.RequestType, submittedAt.Year(), seq)
			err = db.WithTransaction(ctx, tx, func(ctx context.Context, sp pgx.Tx) error {
				return r.insert(ctx, sp, req, candidate, details)
			})
			if err == nil {
				token = candidate
				return nil
			}
			if !dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintRequestToken) {
				return err
			}
			logger.Warn().Str("token", candidate).Int("attempt", attempt).Msg("Token number collision, reserving next")
		}
		return apperrors.ErrTokenCollision
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrDailyLimitReached) && !errors.Is(err, apperrors.ErrTokenCollision) {
			logger.Error().Err(err).Int64("studentID", req.StudentID).Str("type", string(req.RequestType)).Msg("Error creating service request")
		}
		return err
	}

	req.TokenNumber = token
	logger.Info().Int64("requestID", req.ID).Str("token", token).Int64("studentID", req.StudentID).Msg("Service request created")
	return nil
}

func (r *RequestRepository) reserveSequence(ctx context.Context, tx pgx.Tx, t domain.RequestType, at time.Time) (int, error) {
	yearStart := domain.YearStart(at)
	var seq int
	err := tx.QueryRow(ctx, reserveSequenceSQL, string(t), at.Year(), yearStart, yearStart.AddDate(1, 0, 0)).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to reserve token sequence: %w", err)
	}
	return seq, nil
}

func (r *RequestRepository) countSubmittedOn(ctx context.Context, tx pgx.Tx, t domain.RequestType, at time.Time) (int, error) {
	dayStart := domain.DayStart(at)
	sql, args, err := r.sb.Select("COUNT(*)").
		From("service_requests").
		Where(squirrel.Eq{"request_type": string(t)}).
		Where(squirrel.GtOrEq{"submitted_at": dayStart}).
		Where(squirrel.Lt{"submitted_at": dayStart.AddDate(0, 0, 1)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build daily count query: %w", err)
	}

	var n int
	if err := tx.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count today's requests: %w", err)
	}
	return n, nil
}

func (r *RequestRepository) insert(ctx context.Context, tx pgx.Tx, req *models.ServiceRequest, token string, details []byte) error {
	status := req.Status
	if status == "" {
		status = domain.StatusSubmitted
	}

	sql, args, err := r.sb.Insert("service_requests").
		Columns(
			"token_number", "request_type", "student_id", "status", "details", "remarks",
			"id_proof_path", "photo_path", "fee_receipt_path", "additional_doc_path",
			"submitted_at", "updated_at",
		).
		Values(
			token, string(req.RequestType), req.StudentID, string(status), details, req.Remarks,
			req.Documents.IDProof, req.Documents.Photo, req.Documents.FeeReceipt, req.Documents.AdditionalDoc,
			req.SubmittedAt, req.SubmittedAt,
		).
		Suffix("RETURNING id, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert request query: %w", err)
	}

	if err := tx.QueryRow(ctx, sql, args...).Scan(&req.ID, &req.UpdatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrStudentNotFound
		}
		return fmt.Errorf("error inserting service request: %w", err)
	}
	req.Status = status
	return nil
}

func (r *RequestRepository) selectRequests() squirrel.SelectBuilder {
	return r.sb.Select(requestColumns...).
		From("service_requests sr").
		Join("students s ON s.id = sr.student_id").
		LeftJoin("workers w ON w.id = sr.processed_by")
}

func scanRequest(row pgx.Row) (*models.ServiceRequest, error) {
	var (
		req       models.ServiceRequest
		student   models.Student
		reqType   string
		status    string
		details   []byte
		processor string
	)
	err := row.Scan(
		&req.ID, &req.TokenNumber, &reqType, &req.StudentID, &req.ProcessedBy, &status,
		&details, &req.Remarks, &req.Documents.IDProof, &req.Documents.Photo, &req.Documents.FeeReceipt,
		&req.Documents.AdditionalDoc, &req.SubmittedAt, &req.ProcessedAt, &req.ReadyAt, &req.CollectedAt,
		&req.UpdatedAt,
		&student.RollNumber, &student.Email, &student.FullName, &student.Department, &student.YearOfStudy,
		&student.Division, &student.PhoneNumber,
		&processor,
	)
	if err != nil {
		return nil, err
	}

	req.RequestType = domain.RequestType(reqType)
	req.Status = domain.Status(status)
	req.ProcessorName = processor
	student.ID = req.StudentID
	req.Student = &student

	payload, err := domain.DecodePayload(req.RequestType, details)
	if err != nil {
		return nil, err
	}
	req.Details = payload
	return &req, nil
}

func (r *RequestRepository) queryRequests(ctx context.Context, q squirrel.SelectBuilder) ([]*models.ServiceRequest, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build request list query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing request list query")
		return nil, fmt.Errorf("failed to query service requests: %w", err)
	}
	defer rows.Close()

	out := []*models.ServiceRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning service request row")
			return nil, fmt.Errorf("failed to scan service request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating service request rows: %w", err)
	}
	return out, nil
}

// ListForStudent returns a student's requests, newest first
func (r *RequestRepository) ListForStudent(ctx context.Context, studentID int64) ([]*models.ServiceRequest, error) {
	q := r.selectRequests().
		Where(squirrel.Eq{"sr.student_id": studentID}).
		OrderBy("sr.submitted_at DESC", "sr.id DESC")
	return r.queryRequests(ctx, q)
}

// GetByID retrieves one request with its student and processor
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*models.ServiceRequest, error) {
	sql, args, err := r.selectRequests().Where(squirrel.Eq{"sr.id": id}).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get request query: %w", err)
	}

	req, err := scanRequest(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn().Int64("requestID", id).Msg("Service request not found")
			return nil, apperrors.ErrRequestNotFound
		}
		logger.Error().Err(err).Int64("requestID", id).Msg("Error scanning service request")
		return nil, fmt.Errorf("error querying service request ID=%d: %w", id, err)
	}
	return req, nil
}

func queueConditions(f models.QueueFilter) squirrel.And {
	where := squirrel.And{}
	if f.Status != nil {
		where = append(where, squirrel.Eq{"sr.status": string(*f.Status)})
	}
	if f.RequestType != nil {
		where = append(where, squirrel.Eq{"sr.request_type": string(*f.RequestType)})
	}
	if f.From != nil {
		where = append(where, squirrel.GtOrEq{"sr.submitted_at": *f.From})
	}
	if f.To != nil {
		where = append(where, squirrel.Lt{"sr.submitted_at": *f.To})
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := strings.ToUpper(term) + "%"
		where = append(where, squirrel.Or{
			squirrel.Like{"sr.token_number": like},
			squirrel.Like{"s.roll_number": like},
		})
	}
	return where
}

// ListQueue returns one page of requests for staff, oldest first so the queue drains in order
func (r *RequestRepository) ListQueue(ctx context.Context, f models.QueueFilter) ([]*models.ServiceRequest, int64, error) {
	where := queueConditions(f)

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").
		From("service_requests sr").
		Join("students s ON s.id = sr.student_id").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count requests query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count requests query")
		return nil, 0, fmt.Errorf("failed to count service requests: %w", err)
	}
	if total == 0 {
		return []*models.ServiceRequest{}, 0, nil
	}

	offset, limit := helpers.CalculateOffsetLimit(f.Page, f.PageSize)
	q := r.selectRequests().
		Where(where).
		OrderBy("sr.submitted_at ASC", "sr.id ASC").
		Limit(uint64(limit)).
		Offset(offset)

	items, err := r.queryRequests(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	logger.Debug().Int("page", f.Page).Int("pageSize", limit).Int64("totalItems", total).Msg("Fetched request queue")
	return items, total, nil
}

// LifecycleFunc mutates a locked request; returning an error aborts the update
type LifecycleFunc func(req *models.ServiceRequest) error

// UpdateLifecycle locks the request row, checks that actorID is an active worker, lets mutate change
// the lifecycle fields and writes them back, all in one transaction.
func (r *RequestRepository) UpdateLifecycle(ctx context.Context, id, actorID int64, mutate LifecycleFunc) (*models.ServiceRequest, error) {
	var updated *models.ServiceRequest

	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		var active bool
		err := tx.QueryRow(ctx, `SELECT is_active FROM workers WHERE id = $1 FOR SHARE`, actorID).Scan(&active)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrWorkerNotFound
			}
			return fmt.Errorf("failed to load acting worker: %w", err)
		}
		if !active {
			return apperrors.ErrWorkerInactive
		}

		sql, args, err := r.selectRequests().
			Where(squirrel.Eq{"sr.id": id}).
			Suffix("FOR UPDATE OF sr").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build lock request query: %w", err)
		}

		req, err := scanRequest(tx.QueryRow(ctx, sql, args...))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrRequestNotFound
			}
			return fmt.Errorf("failed to lock service request: %w", err)
		}

		if err := mutate(req); err != nil {
			return err
		}

		upd, uargs, err := r.sb.Update("service_requests").
			Set("status", string(req.Status)).
			Set("processed_by", req.ProcessedBy).
			Set("processed_at", req.ProcessedAt).
			Set("ready_at", req.ReadyAt).
			Set("collected_at", req.CollectedAt).
			Set("remarks", req.Remarks).
			Set("updated_at", req.UpdatedAt).
			Where(squirrel.Eq{"id": req.ID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build update request query: %w", err)
		}
		if _, err := tx.Exec(ctx, upd, uargs...); err != nil {
			return fmt.Errorf("failed to update service request: %w", err)
		}

		updated = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Int64("requestID", id).Str("status", string(updated.Status)).Int64("workerID", actorID).Msg("Service request status updated")
	return updated, nil
}

// DocumentHandlesForStudent lists every stored document of a student's requests
func (r *RequestRepository) DocumentHandlesForStudent(ctx context.Context, studentID int64) ([]string, error) {
	reqs, err := r.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	var handles []string
	for _, req := range reqs {
		handles = append(handles, req.Documents.Handles()...)
	}
	return handles, nil
}
