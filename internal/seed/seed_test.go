package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/yigit/servicedesk/internal/app/models"
	"github.com/yigit/servicedesk/internal/pkg/auth"
	"golang.org/x/crypto/bcrypt"
)

type memWorkers struct {
	byEmployee map[string]*models.Worker
	createErr  error
}

func newMemWorkers() *memWorkers {
	return &memWorkers{byEmployee: map[string]*models.Worker{}}
}

func (m *memWorkers) Create(_ context.Context, w *models.Worker) error {
	if m.createErr != nil {
		return m.createErr
	}
	w.ID = int64(len(m.byEmployee) + 1)
	m.byEmployee[w.EmployeeID] = w
	return nil
}

func (m *memWorkers) GetByID(context.Context, int64) (*models.Worker, error) {
	return nil, errors.New("not used")
}

func (m *memWorkers) FindByLogin(context.Context, string, string) (*models.Worker, error) {
	return nil, errors.New("not used")
}

func (m *memWorkers) EmployeeIDExists(_ context.Context, id string) (bool, error) {
	_, ok := m.byEmployee[id]
	return ok, nil
}

func (m *memWorkers) EmailExists(context.Context, string) (bool, error) { return false, nil }

func (m *memWorkers) SetActive(context.Context, int64, bool) error { return nil }

func init() {
	auth.BcryptCost = bcrypt.MinCost
}

func TestEnsureAdminCreatesOnce(t *testing.T) {
	repo := newMemWorkers()
	acct := AdminAccount{EmployeeID: " admin001 ", Email: "Admin@College.edu", Password: "changeme"}

	if err := EnsureAdmin(context.Background(), repo, acct, zerolog.Nop()); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	admin, ok := repo.byEmployee["ADMIN001"]
	if !ok {
		t.Fatalf("admin not created: %v", repo.byEmployee)
	}
	if !admin.IsAdmin() || !admin.IsActive || admin.Email != "admin@college.edu" {
		t.Fatalf("unexpected admin %#v", admin)
	}
	if !auth.CheckPassword(admin.PasswordHash, acct.Password) {
		t.Fatal("stored hash does not match the configured password")
	}

	repo.createErr = errors.New("must not be called")
	if err := EnsureAdmin(context.Background(), repo, acct, zerolog.Nop()); err != nil {
		t.Fatalf("second EnsureAdmin: %v", err)
	}
}

func TestEnsureAdminSkips(t *testing.T) {
	repo := newMemWorkers()

	if err := EnsureAdmin(context.Background(), repo, AdminAccount{}, zerolog.Nop()); err != nil {
		t.Fatal(err)
	}
	if err := EnsureAdmin(context.Background(), repo, AdminAccount{EmployeeID: "ADMIN001"}, zerolog.Nop()); err != nil {
		t.Fatal(err)
	}
	if len(repo.byEmployee) != 0 {
		t.Fatalf("nothing should be created, got %v", repo.byEmployee)
	}

	if err := EnsureAdmin(context.Background(), repo, AdminAccount{EmployeeID: "ADMIN001", Password: "abc"}, zerolog.Nop()); err == nil {
		t.Fatal("short password should be refused")
	}
}
