package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/yigit/servicedesk/internal/app/models"
	"github.com/yigit/servicedesk/internal/app/repositories"
	"github.com/yigit/servicedesk/internal/domain"
	"github.com/yigit/servicedesk/internal/pkg/apperrors"
	"github.com/yigit/servicedesk/internal/pkg/events"
)

type fakeStudentRepo struct {
	mu       sync.Mutex
	nextID   int64
	students map[int64]*models.Student
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{students: map[int64]*models.Student{}}
}

func (r *fakeStudentRepo) Create(_ context.Context, s *models.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.students {
		if o.RollNumber == s.RollNumber {
			return apperrors.ErrRollNumberExists
		}
		if o.Email == s.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	r.nextID++
	s.ID = r.nextID
	s.CreatedAt, s.UpdatedAt = time.Now(), time.Now()
	cp := *s
	r.students[s.ID] = &cp
	return nil
}

func (r *fakeStudentRepo) GetByID(_ context.Context, id int64) (*models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.students[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, apperrors.ErrStudentNotFound
}

func (r *fakeStudentRepo) FindByLogin(_ context.Context, rollNumber, email string) (*models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.students {
		if s.RollNumber == rollNumber || s.Email == email {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apperrors.ErrStudentNotFound
}

func (r *fakeStudentRepo) RollNumberExists(_ context.Context, rollNumber string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.students {
		if s.RollNumber == rollNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeStudentRepo) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.students {
		if s.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeStudentRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.students[id]; !ok {
		return apperrors.ErrStudentNotFound
	}
	delete(r.students, id)
	return nil
}

type fakeWorkerRepo struct {
	mu      sync.Mutex
	nextID  int64
	workers map[int64]*models.Worker
}

func newFakeWorkerRepo() *fakeWorkerRepo {
	return &fakeWorkerRepo{workers: map[int64]*models.Worker{}}
}

func (r *fakeWorkerRepo) add(w models.Worker) *models.Worker {
	_ = r.Create(context.Background(), &w)
	return &w
}

func (r *fakeWorkerRepo) Create(_ context.Context, w *models.Worker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.workers {
		if o.EmployeeID == w.EmployeeID {
			return apperrors.ErrEmployeeIDExists
		}
		if o.Email == w.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	if w.Role == "" {
		w.Role = models.RoleWorker
	}
	r.nextID++
	w.ID = r.nextID
	cp := *w
	r.workers[w.ID] = &cp
	return nil
}

func (r *fakeWorkerRepo) GetByID(_ context.Context, id int64) (*models.Worker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.workers[id]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, apperrors.ErrWorkerNotFound
}

func (r *fakeWorkerRepo) FindByLogin(_ context.Context, employeeID, email string) (*models.Worker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.workers {
		if w.EmployeeID == employeeID || w.Email == email {
			cp := *w
			return &cp, nil
		}
	}
	return nil, apperrors.ErrWorkerNotFound
}

func (r *fakeWorkerRepo) EmployeeIDExists(_ context.Context, employeeID string) (bool, error) {
	_, err := r.FindByLogin(context.Background(), employeeID, "\x00")
	return err == nil, nil
}

func (r *fakeWorkerRepo) EmailExists(_ context.Context, email string) (bool, error) {
	_, err := r.FindByLogin(context.Background(), "\x00", email)
	return err == nil, nil
}

func (r *fakeWorkerRepo) SetActive(_ context.Context, id int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[id]
	if !ok {
		return apperrors.ErrWorkerNotFound
	}
	w.IsActive = active
	return nil
}

// fakeRequestRepo mirrors the ledger rules: per type-and-year numbering, the daily railway cap,
// active-worker checks and atomic lifecycle updates.
type fakeRequestRepo struct {
	mu        sync.Mutex
	nextID    int64
	requests  map[int64]*models.ServiceRequest
	sequences map[string]int
	// railway reservations per calendar day
	reservedOn map[string]int
	students   *fakeStudentRepo
	workers    *fakeWorkerRepo
	createErr  error
}

func newFakeRequestRepo(students *fakeStudentRepo, workers *fakeWorkerRepo) *fakeRequestRepo {
	return &fakeRequestRepo{
		requests:   map[int64]*models.ServiceRequest{},
		sequences:  map[string]int{},
		reservedOn: map[string]int{},
		students:   students,
		workers:    workers,
	}
}

func (r *fakeRequestRepo) Create(_ context.Context, req *models.ServiceRequest, opts repositories.CreateOptions) error {
	seq, err := r.reserve(req, opts)
	if err != nil {
		return err
	}

	// Other creates may run between reserving and inserting, as with the counter row in Postgres
	runtime.Gosched()

	r.mu.Lock()
	defer r.mu.Unlock()
	req.TokenNumber = domain.FormatToken(req.RequestType, req.SubmittedAt.Year(), seq)
	for _, o := range r.requests {
		if o.TokenNumber == req.TokenNumber {
			return apperrors.ErrTokenCollision
		}
	}
	r.nextID++
	req.ID = r.nextID
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

// reserve takes the next number for the request's type and year and applies the daily railway cap,
// both under one lock the way the counter row lock serialises them.
func (r *fakeRequestRepo) reserve(req *models.ServiceRequest, opts repositories.CreateOptions) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return 0, r.createErr
	}
	if _, err := r.students.GetByID(context.Background(), req.StudentID); err != nil {
		return 0, err
	}

	if req.RequestType == domain.RequestTypeRailway && opts.DailyLimit > 0 {
		day := domain.DayStart(req.SubmittedAt).Format(time.DateOnly)
		if r.reservedOn[day] >= opts.DailyLimit {
			return 0, apperrors.ErrDailyLimitReached
		}
		r.reservedOn[day]++
	}

	key := fmt.Sprintf("%s/%d", req.RequestType, req.SubmittedAt.Year())
	r.sequences[key]++
	return r.sequences[key], nil
}

func (r *fakeRequestRepo) withJoins(req *models.ServiceRequest) *models.ServiceRequest {
	cp := *req
	if s, err := r.students.GetByID(context.Background(), req.StudentID); err == nil {
		cp.Student = s
	}
	if req.ProcessedBy != nil {
		if w, err := r.workers.GetByID(context.Background(), *req.ProcessedBy); err == nil {
			cp.ProcessorName = w.FullName
		}
	}
	return &cp
}

func (r *fakeRequestRepo) GetByID(_ context.Context, id int64) (*models.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, apperrors.ErrRequestNotFound
	}
	return r.withJoins(req), nil
}

func (r *fakeRequestRepo) ListForStudent(_ context.Context, studentID int64) ([]*models.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ServiceRequest
	for _, req := range r.requests {
		if req.StudentID == studentID {
			out = append(out, r.withJoins(req))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeRequestRepo) ListQueue(_ context.Context, f models.QueueFilter) ([]*models.ServiceRequest, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ServiceRequest
	for _, req := range r.requests {
		if f.Status != nil && req.Status != *f.Status {
			continue
		}
		if f.RequestType != nil && req.RequestType != *f.RequestType {
			continue
		}
		out = append(out, r.withJoins(req))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeRequestRepo) UpdateLifecycle(_ context.Context, id, actorID int64, mutate repositories.LifecycleFunc) (*models.ServiceRequest, error) {
	w, err := r.workers.GetByID(context.Background(), actorID)
	if err != nil {
		return nil, err
	}
	if !w.IsActive {
		return nil, apperrors.ErrWorkerInactive
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, apperrors.ErrRequestNotFound
	}
	cp := *req
	if err := mutate(&cp); err != nil {
		return nil, err
	}
	r.requests[id] = &cp
	return r.withJoins(&cp), nil
}

func (r *fakeRequestRepo) DocumentHandlesForStudent(ctx context.Context, studentID int64) ([]string, error) {
	reqs, _ := r.ListForStudent(ctx, studentID)
	var out []string
	for _, req := range reqs {
		out = append(out, req.Documents.Handles()...)
	}
	return out, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	n       int
	files   map[string][]byte
	failFor string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{files: map[string][]byte{}}
}

func (s *fakeStorage) Store(r io.Reader, originalName, subPath string) (string, error) {
	if originalName == s.failFor {
		return "", apperrors.NewCustomError(apperrors.ErrUnsupportedDocument, "unsupported")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	handle := fmt.Sprintf("%s/%d-%s", subPath, s.n, originalName)
	s.files[handle] = data
	return handle, nil
}

func (s *fakeStorage) DeleteFile(handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, handle)
	return nil
}

func (s *fakeStorage) GetFullPath(handle string) string { return "/tmp/" + handle }

func (s *fakeStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type sentMail struct {
	kind, to, token, reason string
}

type recordingNotifier struct {
	sent []sentMail
}

func (n *recordingNotifier) SendRequestReady(to, _, token, _ string) error {
	n.sent = append(n.sent, sentMail{kind: "ready", to: to, token: token})
	return nil
}

func (n *recordingNotifier) SendRequestRejected(to, _, token, _, reason string) error {
	n.sent = append(n.sent, sentMail{kind: "rejected", to: to, token: token, reason: reason})
	return nil
}

func upload(kind domain.DocumentKind, name string) Upload {
	return Upload{Kind: kind, Filename: name, Content: bytes.NewReader([]byte("%PDF-1.4 test"))}
}
