package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/servicedesk/internal/app/controllers"
	"github.com/yigit/servicedesk/internal/app/models"
	"github.com/yigit/servicedesk/internal/app/models/dto"
	"github.com/yigit/servicedesk/internal/app/services"
	"github.com/yigit/servicedesk/internal/domain"
	"github.com/yigit/servicedesk/internal/middleware"
	"github.com/yigit/servicedesk/internal/pkg/apperrors"
	"github.com/yigit/servicedesk/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.RegisterValidators()
}

type stubAuth struct{}

func (stubAuth) RegisterStudent(context.Context, *dto.StudentRegisterRequest) (*dto.StudentAuthResponse, error) {
	return &dto.StudentAuthResponse{Student: &models.Student{ID: 1}}, nil
}

func (stubAuth) RegisterWorker(context.Context, *dto.WorkerRegisterRequest) (*dto.WorkerAuthResponse, error) {
	return &dto.WorkerAuthResponse{Worker: &models.Worker{ID: 1}}, nil
}

func (stubAuth) LoginStudent(context.Context, *dto.LoginRequest) (*dto.StudentAuthResponse, error) {
	return nil, apperrors.ErrInvalidCredentials
}

func (stubAuth) LoginWorker(context.Context, *dto.LoginRequest) (*dto.WorkerAuthResponse, error) {
	return nil, apperrors.ErrWorkerInactive
}

func (stubAuth) GetStudentProfile(_ context.Context, id int64) (*models.Student, error) {
	return &models.Student{ID: id, RollNumber: "CS-001"}, nil
}

type stubRequests struct {
	created   services.NewRequestInput
	docNames  []string
	filter    models.QueueFilter
	createErr error
}

func (s *stubRequests) CreateRequest(_ context.Context, studentID int64, in services.NewRequestInput) (*models.ServiceRequest, error) {
	s.created = in
	for _, d := range in.Documents {
		b, _ := io.ReadAll(d.Content)
		s.docNames = append(s.docNames, string(d.Kind)+":"+d.Filename+":"+string(b))
	}
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &models.ServiceRequest{
		ID:          7,
		TokenNumber: "RC-2026-0001",
		RequestType: domain.RequestTypeRailway,
		StudentID:   studentID,
		Status:      domain.StatusSubmitted,
	}, nil
}

func (s *stubRequests) ListForStudent(context.Context, int64) (*dto.StudentRequestList, error) {
	return &dto.StudentRequestList{Requests: []*models.ServiceRequest{}}, nil
}

func (s *stubRequests) GetForStudent(_ context.Context, studentID, requestID int64) (*dto.ServiceRequestDetail, error) {
	if requestID != 7 {
		return nil, apperrors.NewForbiddenError("This request belongs to another student")
	}
	d := dto.NewServiceRequestDetail(&models.ServiceRequest{ID: requestID, StudentID: studentID, RequestType: domain.RequestTypeRailway, Status: domain.StatusSubmitted})
	return &d, nil
}

func (s *stubRequests) ListQueue(_ context.Context, f models.QueueFilter) ([]*models.ServiceRequest, dto.PaginationInfo, error) {
	s.filter = f
	return []*models.ServiceRequest{}, dto.PaginationInfo{CurrentPage: f.Page, PageSize: f.PageSize}, nil
}

func (s *stubRequests) GetForWorker(context.Context, int64) (*dto.ServiceRequestDetail, error) {
	return nil, apperrors.ErrRequestNotFound
}

type transitionCall struct {
	workerID, requestID int64
	action              domain.Action
	remarks             string
}

type stubLifecycle struct {
	calls []transitionCall
	err   error
}

func (s *stubLifecycle) Transition(_ context.Context, workerID, requestID int64, action domain.Action, remarks string) (*dto.ServiceRequestDetail, error) {
	s.calls = append(s.calls, transitionCall{workerID, requestID, action, remarks})
	if s.err != nil {
		return nil, s.err
	}
	target, _ := action.Target()
	d := dto.NewServiceRequestDetail(&models.ServiceRequest{ID: requestID, RequestType: domain.RequestTypeRailway, Status: target})
	return &d, nil
}

type stubAdmin struct {
	active *bool
}

func (s *stubAdmin) SetWorkerActive(_ context.Context, _, workerID int64, active bool) (*models.Worker, error) {
	s.active = &active
	return &models.Worker{ID: workerID, IsActive: active}, nil
}

func (s *stubAdmin) DeleteStudent(context.Context, int64, int64) error { return nil }

type harness struct {
	router    *gin.Engine
	jwt       *auth.JWTService
	requests  *stubRequests
	lifecycle *stubLifecycle
	admin     *stubAdmin
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		jwt:       auth.NewJWTService(auth.JWTConfig{SecretKey: "test-secret", AccessTokenExp: time.Hour, TokenIssuer: "test"}),
		requests:  &stubRequests{},
		lifecycle: &stubLifecycle{},
		admin:     &stubAdmin{},
	}
	loc := time.FixedZone("IST", 5*3600+1800)
	log := zerolog.Nop()

	h.router = gin.New()
	SetupRouter(h.router, Controllers{
		Auth:     controllers.NewAuthController(stubAuth{}, log),
		Catalog:  controllers.NewCatalogController(nil),
		Requests: controllers.NewRequestController(h.requests, log),
		Worker:   controllers.NewWorkerController(h.requests, h.lifecycle, loc, log),
		Admin:    controllers.NewAdminController(h.admin, log),
	}, middleware.NewAuthMiddleware(h.jwt))
	return h
}

func (h *harness) token(t *testing.T, p auth.Principal) string {
	t.Helper()
	tok, _, err := h.jwt.GenerateAccessToken(p)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func (h *harness) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorCode {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return resp.Error.Code
}

var (
	student = auth.Principal{ID: 11, Kind: models.PrincipalStudent}
	worker  = auth.Principal{ID: 21, Kind: models.PrincipalWorker, Role: models.RoleWorker}
	admin   = auth.Principal{ID: 1, Kind: models.PrincipalWorker, Role: models.RoleAdmin}
)

func TestPublicRoutes(t *testing.T) {
	h := newHarness(t)

	w := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/services", nil), "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "railway") {
		t.Fatalf("services: %d %s", w.Code, w.Body.String())
	}

	w = h.do(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), "")
	if w.Code != http.StatusOK {
		t.Fatalf("health: %d", w.Code)
	}

	body := `{"loginId":"CS-001","password":"nope"}`
	w = h.do(httptest.NewRequest(http.MethodPost, "/api/v1/auth/students/login", strings.NewReader(body)), "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}

	w = h.do(httptest.NewRequest(http.MethodPost, "/api/v1/auth/workers/login", strings.NewReader(body)), "")
	if w.Code != http.StatusForbidden || errorCode(t, w) != dto.ErrorCodeAccountDisabled {
		t.Fatalf("inactive worker login: %d %s", w.Code, w.Body.String())
	}
}

func TestPrincipalSeparation(t *testing.T) {
	h := newHarness(t)

	cases := []struct {
		method, path string
		token        string
		status       int
	}{
		{http.MethodGet, "/api/v1/requests", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/requests", h.token(t, worker), http.StatusForbidden},
		{http.MethodGet, "/api/v1/requests", h.token(t, student), http.StatusOK},
		{http.MethodGet, "/api/v1/worker/requests", h.token(t, student), http.StatusForbidden},
		{http.MethodGet, "/api/v1/worker/requests", h.token(t, worker), http.StatusOK},
		{http.MethodDelete, "/api/v1/admin/students/3", h.token(t, worker), http.StatusForbidden},
		{http.MethodDelete, "/api/v1/admin/students/3", h.token(t, admin), http.StatusOK},
		{http.MethodGet, "/api/v1/students/me", h.token(t, student), http.StatusOK},
	}
	for _, tc := range cases {
		w := h.do(httptest.NewRequest(tc.method, tc.path, nil), tc.token)
		if w.Code != tc.status {
			t.Errorf("%s %s = %d, want %d (%s)", tc.method, tc.path, w.Code, tc.status, w.Body.String())
		}
	}
}

func TestCreateRequestMultipart(t *testing.T) {
	h := newHarness(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("fromStation", "Dadar")
	_ = mw.WriteField("toStation", "Thane")
	_ = mw.WriteField("remarks", "urgent")
	fw, err := mw.CreateFormFile("id_proof", "card.pdf")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte("%PDF-1.4"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests/railway", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := h.do(req, h.token(t, student))

	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "RC-2026-0001") {
		t.Fatalf("token missing from %s", w.Body.String())
	}

	in := h.requests.created
	if in.Type != "railway" || in.Remarks != "urgent" {
		t.Fatalf("input %+v", in)
	}
	if _, ok := in.Fields["remarks"]; ok || in.Fields["toStation"] != "Thane" {
		t.Fatalf("fields %v", in.Fields)
	}
	if len(h.requests.docNames) != 1 || h.requests.docNames[0] != "id_proof:card.pdf:%PDF-1.4" {
		t.Fatalf("documents %v", h.requests.docNames)
	}
}

func TestCreateRequestErrors(t *testing.T) {
	h := newHarness(t)

	cases := []struct {
		err    error
		status int
		code   dto.ErrorCode
	}{
		{apperrors.ErrUnknownRequestType, http.StatusBadRequest, dto.ErrorCodeUnknownService},
		{apperrors.ErrDailyLimitReached, http.StatusTooManyRequests, dto.ErrorCodeDailyLimit},
		{apperrors.ErrUnsupportedDocument, http.StatusBadRequest, dto.ErrorCodeUnsupportedFile},
	}
	for _, tc := range cases {
		h.requests.createErr = tc.err
		req := httptest.NewRequest(http.MethodPost, "/api/v1/requests/railway", strings.NewReader("fromStation=A&toStation=B"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := h.do(req, h.token(t, student))
		if w.Code != tc.status || errorCode(t, w) != tc.code {
			t.Errorf("%v: %d %s", tc.err, w.Code, w.Body.String())
		}
	}
	if h.requests.created.Fields["fromStation"] != "A" {
		t.Fatalf("url-encoded fields not read: %v", h.requests.created.Fields)
	}
}

func TestStudentCannotReadOthersRequest(t *testing.T) {
	h := newHarness(t)

	w := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/requests/8", nil), h.token(t, student))
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign request: %d", w.Code)
	}
	w = h.do(httptest.NewRequest(http.MethodGet, "/api/v1/requests/abc", nil), h.token(t, student))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: %d", w.Code)
	}
}

func TestQueueFilterParsing(t *testing.T) {
	h := newHarness(t)
	tok := h.token(t, worker)

	w := h.do(httptest.NewRequest(http.MethodGet,
		"/api/v1/worker/requests?status=in_progress&type=railway&from=2026-03-01&to=2026-03-14&q=+CS-00+&page=2&size=5", nil), tok)
	if w.Code != http.StatusOK {
		t.Fatalf("queue: %d %s", w.Code, w.Body.String())
	}

	f := h.requests.filter
	if f.Status == nil || *f.Status != domain.StatusInProgress {
		t.Fatalf("status %v", f.Status)
	}
	if f.RequestType == nil || *f.RequestType != domain.RequestTypeRailway {
		t.Fatalf("type %v", f.RequestType)
	}
	if f.Search != "CS-00" || f.Page != 2 || f.PageSize != 5 {
		t.Fatalf("filter %+v", f)
	}
	if f.From == nil || f.From.Day() != 1 || f.To == nil || f.To.Day() != 15 {
		t.Fatalf("dates %v %v", f.From, f.To)
	}

	for _, q := range []string{"status=lost", "type=fee", "from=14-03-2026"} {
		w := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/worker/requests?"+q, nil), tok)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: %d", q, w.Code)
		}
	}
}

func TestWorkerTransitions(t *testing.T) {
	h := newHarness(t)
	tok := h.token(t, worker)

	w := h.do(httptest.NewRequest(http.MethodPost, "/api/v1/worker/requests/7/start", nil), tok)
	if w.Code != http.StatusOK {
		t.Fatalf("start: %d %s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/worker/requests/7/reject", strings.NewReader(`{"remarks":"fee unpaid"}`))
	req.Header.Set("Content-Type", "application/json")
	w = h.do(req, tok)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"Rejected"`) {
		t.Fatalf("reject: %d %s", w.Code, w.Body.String())
	}

	want := []transitionCall{
		{21, 7, domain.ActionStart, ""},
		{21, 7, domain.ActionReject, "fee unpaid"},
	}
	if len(h.lifecycle.calls) != 2 || h.lifecycle.calls[0] != want[0] || h.lifecycle.calls[1] != want[1] {
		t.Fatalf("calls %+v", h.lifecycle.calls)
	}

	h.lifecycle.err = apperrors.NewCustomError(apperrors.ErrInvalidTransition, "Cannot move request from Collected to In Progress")
	w = h.do(httptest.NewRequest(http.MethodPost, "/api/v1/worker/requests/7/start", nil), tok)
	if w.Code != http.StatusConflict || errorCode(t, w) != dto.ErrorCodeInvalidTransition {
		t.Fatalf("invalid transition: %d %s", w.Code, w.Body.String())
	}

	w = h.do(httptest.NewRequest(http.MethodGet, "/api/v1/worker/requests/99", nil), tok)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing request: %d", w.Code)
	}
}

func TestAdminSetWorkerActive(t *testing.T) {
	h := newHarness(t)
	tok := h.token(t, admin)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/workers/5/active", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := h.do(req, tok)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing active: %d %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/admin/workers/5/active", strings.NewReader(`{"active":false}`))
	req.Header.Set("Content-Type", "application/json")
	w = h.do(req, tok)
	if w.Code != http.StatusOK || h.admin.active == nil || *h.admin.active {
		t.Fatalf("deactivate: %d %s", w.Code, w.Body.String())
	}
}
