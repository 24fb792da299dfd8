package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/servicedesk/internal/app/models"
)

// IStudentRepository is the student store used by the services
type IStudentRepository interface {
	Create(ctx context.Context, s *models.Student) error
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	FindByLogin(ctx context.Context, rollNumber, email string) (*models.Student, error)
	RollNumberExists(ctx context.Context, rollNumber string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// IWorkerRepository is the worker store used by the services
type IWorkerRepository interface {
	Create(ctx context.Context, w *models.Worker) error
	GetByID(ctx context.Context, id int64) (*models.Worker, error)
	FindByLogin(ctx context.Context, employeeID, email string) (*models.Worker, error)
	EmployeeIDExists(ctx context.Context, employeeID string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// IRequestRepository is the service request ledger used by the services
type IRequestRepository interface {
	Create(ctx context.Context, req *models.ServiceRequest, opts CreateOptions) error
	GetByID(ctx context.Context, id int64) (*models.ServiceRequest, error)
	ListForStudent(ctx context.Context, studentID int64) ([]*models.ServiceRequest, error)
	ListQueue(ctx context.Context, f models.QueueFilter) ([]*models.ServiceRequest, int64, error)
	UpdateLifecycle(ctx context.Context, id, actorID int64, mutate LifecycleFunc) (*models.ServiceRequest, error)
	DocumentHandlesForStudent(ctx context.Context, studentID int64) ([]string, error)
}

var (
	_ IStudentRepository = (*StudentRepository)(nil)
	_ IWorkerRepository  = (*WorkerRepository)(nil)
	_ IRequestRepository = (*RequestRepository)(nil)
)

// Repositories holds all the repository instances
type Repositories struct {
	Students *StudentRepository
	Workers  *WorkerRepository
	Requests *RequestRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		Students: NewStudentRepository(db),
		Workers:  NewWorkerRepository(db),
		Requests: NewRequestRepository(db),
	}
}
