package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"homework-tracker/internal/dto"
	"homework-tracker/internal/service"
	"homework-tracker/pkg/jwt"
	"homework-tracker/pkg/response"
	"homework-tracker/pkg/validate"
)

func init() {
	gin.SetMode(gin.TestMode)
	validate.Setup()
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AssignmentService ──

type mockAssignmentService struct {
	listResult   *dto.Page[dto.AssignmentResponse]
	listErr      error
	lastList     *dto.AssignmentListRequest
	getResult    *dto.AssignmentResponse
	getErr       error
	lastViewer   string
	createResult *dto.AssignmentMutationResponse
	createErr    error
	updateResult *dto.AssignmentMutationResponse
	updateErr    error
	lastUpdateID string
	deleteResult *dto.DeleteAssignmentResponse
	deleteErr    error
}

func (m *mockAssignmentService) List(_ context.Context, req *dto.AssignmentListRequest) (*dto.Page[dto.AssignmentResponse], error) {
	m.lastList = req
	return m.listResult, m.listErr
}
func (m *mockAssignmentService) GetByID(_ context.Context, _, viewerID string) (*dto.AssignmentResponse, error) {
	m.lastViewer = viewerID
	return m.getResult, m.getErr
}
func (m *mockAssignmentService) Create(_ context.Context, _ *dto.CreateAssignmentRequest) (*dto.AssignmentMutationResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockAssignmentService) Update(_ context.Context, id string, _ *dto.UpdateAssignmentRequest) (*dto.AssignmentMutationResponse, error) {
	m.lastUpdateID = id
	return m.updateResult, m.updateErr
}
func (m *mockAssignmentService) Delete(_ context.Context, _ string) (*dto.DeleteAssignmentResponse, error) {
	return m.deleteResult, m.deleteErr
}

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult   *dto.TokenResponse
	loginErr      error
	refreshResult *dto.TokenResponse
	refreshErr    error
	logoutErr     error
	loggedOut     *jwt.Claims
	logoutReq     *dto.LogoutRequest
	meResult      *dto.UserResponse
	meErr         error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Refresh(_ context.Context, _ *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, claims *jwt.Claims, req *dto.LogoutRequest) error {
	m.loggedOut = claims
	m.logoutReq = req
	return m.logoutErr
}
func (m *mockAuthService) Me(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.meResult, m.meErr
}

// ── Mock UserService ──

type mockUserService struct {
	createResult  *dto.UserResponse
	createErr     error
	callerIsAdmin bool
	getResult     *dto.UserResponse
	getErr        error
	listResult    *dto.Page[dto.UserResponse]
	listErr       error
}

func (m *mockUserService) Create(_ context.Context, _ *dto.CreateUserRequest, callerIsAdmin bool) (*dto.UserResponse, error) {
	m.callerIsAdmin = callerIsAdmin
	return m.createResult, m.createErr
}
func (m *mockUserService) GetByID(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockUserService) List(_ context.Context, _ *dto.UserListRequest) (*dto.Page[dto.UserResponse], error) {
	return m.listResult, m.listErr
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportXLSX(_ context.Context, _ *dto.AssignmentFilter) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportICS(_ context.Context, _ *dto.AssignmentFilter) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ── Mock SystemService / SeedService ──

type mockSystemService struct{ connected bool }

func (m *mockSystemService) Status(_ context.Context) *dto.StatusResponse {
	return &dto.StatusResponse{DBConnected: m.connected}
}

type mockSeedService struct {
	counts *dto.SeedCounts
	err    error
}

func (m *mockSeedService) Seed(_ context.Context) (*dto.SeedCounts, error) {
	return m.counts, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(c *gin.Context, role string) {
	c.Set(ctxUserID, "test-user-id")
	c.Set(ctxRole, role)
	c.Set(ctxClaims, &jwt.Claims{UserID: "test-user-id", Role: role})
}

func withAuth(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		setAuth(c, role)
		c.Next()
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func serve(r *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, wantHTTP, wantCode int) response.Response {
	t.Helper()
	if w.Code != wantHTTP {
		t.Errorf("期望 HTTP %d，实际 %d (%s)", wantHTTP, w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	if resp.Code != wantCode {
		t.Errorf("期望 code %d，实际 %d", wantCode, resp.Code)
	}
	return resp
}

func assignmentRouter(m *mockAssignmentService) *gin.Engine {
	h := NewAssignmentHandler(m)
	r := gin.New()
	r.GET("/assignments", h.ListAssignments)
	r.GET("/assignments/:id", h.GetAssignment)
	r.POST("/assignments", h.CreateAssignment)
	r.PUT("/assignments/:id", h.UpdateAssignment)
	r.DELETE("/assignments/:id", h.DeleteAssignment)
	return r
}

var validAssignmentBody = map[string]interface{}{
	"nom":         "Maths",
	"dateDeRendu": "2023-11-20T00:00:00Z",
	"description": "chapitre 3",
}

// ═══════════════════════════════════════════════════════════
// AssignmentHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAssignmentHandler_List_Success(t *testing.T) {
	m := &mockAssignmentService{
		listResult: dto.NewPage([]dto.AssignmentResponse{{ID: "a1", Nom: "Maths"}}, 1, 2, 5),
	}
	r := assignmentRouter(m)

	w := serve(r, http.MethodGet, "/assignments?page=2&limit=5&sort=desc&search=math&hideCompleted=true&userId=u1", nil)
	assertStatus(t, w, http.StatusOK, 0)

	if m.lastList == nil {
		t.Fatal("Service 未被调用")
	}
	got := m.lastList
	if got.Page != 2 || got.Limit != 5 || got.Sort != "desc" || got.Search != "math" || !got.HideCompleted || got.UserID != "u1" {
		t.Errorf("查询参数绑定不符: %+v", got)
	}
	if !strings.Contains(w.Body.String(), `"totalDocs":1`) {
		t.Errorf("响应应包含分页元数据: %s", w.Body.String())
	}
}

func TestAssignmentHandler_List_InvalidQuery(t *testing.T) {
	r := assignmentRouter(&mockAssignmentService{})

	cases := []string{
		"/assignments?sort=" + strings.Repeat("d", 11),
		"/assignments?limit=501",
		"/assignments?limit=abc",
	}
	for _, path := range cases {
		w := serve(r, http.MethodGet, path, nil)
		resp := assertStatus(t, w, http.StatusBadRequest, 10001)
		if resp.Details == "" {
			t.Errorf("%s: 期望 details 非空", path)
		}
	}
}

func TestAssignmentHandler_List_SortIsLenient(t *testing.T) {
	for _, sort := range []string{"DESC", "sideways"} {
		m := &mockAssignmentService{listResult: dto.NewPage[dto.AssignmentResponse](nil, 0, 1, 10)}
		r := assignmentRouter(m)

		w := serve(r, http.MethodGet, "/assignments?sort="+sort, nil)
		assertStatus(t, w, http.StatusOK, 0)
		if m.lastList == nil || m.lastList.Sort != sort {
			t.Errorf("sort=%s 应原样交给 Service，实际 %+v", sort, m.lastList)
		}
	}
}

func TestAssignmentHandler_List_InvalidViewer(t *testing.T) {
	r := assignmentRouter(&mockAssignmentService{listErr: service.ErrInvalidViewer})

	w := serve(r, http.MethodGet, "/assignments?userId=bad", nil)
	assertStatus(t, w, http.StatusBadRequest, 10001)
}

func TestAssignmentHandler_List_StoreFailure(t *testing.T) {
	r := assignmentRouter(&mockAssignmentService{listErr: context.DeadlineExceeded})

	w := serve(r, http.MethodGet, "/assignments", nil)
	assertStatus(t, w, http.StatusInternalServerError, 50000)
}

func TestAssignmentHandler_Get_PassesViewer(t *testing.T) {
	m := &mockAssignmentService{getResult: &dto.AssignmentResponse{ID: "a1"}}
	r := assignmentRouter(m)

	w := serve(r, http.MethodGet, "/assignments/a1?userId=u9", nil)
	assertStatus(t, w, http.StatusOK, 0)
	if m.lastViewer != "u9" {
		t.Errorf("期望 viewer=u9，实际 %q", m.lastViewer)
	}
}

func TestAssignmentHandler_Get_NotFound(t *testing.T) {
	r := assignmentRouter(&mockAssignmentService{getErr: service.ErrAssignmentNotFound})

	w := serve(r, http.MethodGet, "/assignments/missing", nil)
	assertStatus(t, w, http.StatusNotFound, 20101)
}

func TestAssignmentHandler_Create_Success(t *testing.T) {
	m := &mockAssignmentService{createResult: &dto.AssignmentMutationResponse{
		Message:    "Maths saved!",
		Assignment: &dto.AssignmentResponse{ID: "a1", Nom: "Maths"},
	}}
	r := assignmentRouter(m)

	w := serve(r, http.MethodPost, "/assignments", jsonBody(validAssignmentBody))
	assertStatus(t, w, http.StatusCreated, 0)
}

func TestAssignmentHandler_Create_MissingFields(t *testing.T) {
	r := assignmentRouter(&mockAssignmentService{})

	w := serve(r, http.MethodPost, "/assignments", jsonBody(map[string]interface{}{"nom": "   "}))
	resp := assertStatus(t, w, http.StatusBadRequest, 10001)
	if !strings.Contains(resp.Details, "nom") || !strings.Contains(resp.Details, "dateDeRendu") {
		t.Errorf("details 应列出 nom 与 dateDeRendu，实际 %q", resp.Details)
	}
}

func TestAssignmentHandler_Create_UnknownOwner(t *testing.T) {
	r := assignmentRouter(&mockAssignmentService{createErr: service.ErrOwnerNotFound})

	w := serve(r, http.MethodPost, "/assignments", jsonBody(validAssignmentBody))
	assertStatus(t, w, http.StatusBadRequest, 10001)
}

func TestAssignmentHandler_Update_UsesPathID(t *testing.T) {
	m := &mockAssignmentService{updateResult: &dto.AssignmentMutationResponse{Message: "updated"}}
	r := assignmentRouter(m)

	w := serve(r, http.MethodPut, "/assignments/a42", jsonBody(validAssignmentBody))
	assertStatus(t, w, http.StatusOK, 0)
	if m.lastUpdateID != "a42" {
		t.Errorf("期望使用路径 ID a42，实际 %q", m.lastUpdateID)
	}
}

func TestAssignmentHandler_Update_Errors(t *testing.T) {
	cases := []struct {
		err      error
		wantHTTP int
		wantCode int
	}{
		{service.ErrIDMismatch, http.StatusBadRequest, 10001},
		{service.ErrNoTargetUser, http.StatusBadRequest, 10001},
		{service.ErrAssignmentNotFound, http.StatusNotFound, 20101},
	}
	for _, tc := range cases {
		r := assignmentRouter(&mockAssignmentService{updateErr: tc.err})
		w := serve(r, http.MethodPut, "/assignments/a1", jsonBody(validAssignmentBody))
		assertStatus(t, w, tc.wantHTTP, tc.wantCode)
	}
}

func TestAssignmentHandler_Delete(t *testing.T) {
	m := &mockAssignmentService{deleteResult: &dto.DeleteAssignmentResponse{Message: "Maths deleted", DeletedSubmissions: 3}}
	r := assignmentRouter(m)

	w := serve(r, http.MethodDelete, "/assignments/a1", nil)
	assertStatus(t, w, http.StatusOK, 0)
	if !strings.Contains(w.Body.String(), `"deletedSubmissions":3`) {
		t.Errorf("响应应包含 deletedSubmissions: %s", w.Body.String())
	}

	r = assignmentRouter(&mockAssignmentService{deleteErr: service.ErrAssignmentNotFound})
	w = serve(r, http.MethodDelete, "/assignments/a1", nil)
	assertStatus(t, w, http.StatusNotFound, 20101)
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginResult: &dto.TokenResponse{AccessToken: "a", RefreshToken: "r", ExpiresIn: 900}})
	r := gin.New()
	r.POST("/auth/login", h.Login)

	w := serve(r, http.MethodPost, "/auth/login", jsonBody(dto.LoginRequest{Username: "admin", Password: "password"}))
	assertStatus(t, w, http.StatusOK, 0)
	if !strings.Contains(w.Body.String(), `"accessToken":"a"`) {
		t.Errorf("响应应包含 accessToken: %s", w.Body.String())
	}
}

func TestAuthHandler_Login_BadCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})
	r := gin.New()
	r.POST("/auth/login", h.Login)

	w := serve(r, http.MethodPost, "/auth/login", jsonBody(dto.LoginRequest{Username: "admin", Password: "nope"}))
	assertStatus(t, w, http.StatusUnauthorized, 11001)
}

func TestAuthHandler_Login_MissingPassword(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})
	r := gin.New()
	r.POST("/auth/login", h.Login)

	w := serve(r, http.MethodPost, "/auth/login", jsonBody(map[string]string{"username": "admin"}))
	assertStatus(t, w, http.StatusBadRequest, 10001)
}

func TestAuthHandler_Refresh_InvalidToken(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{refreshErr: service.ErrInvalidToken})
	r := gin.New()
	r.POST("/auth/refresh", h.RefreshToken)

	w := serve(r, http.MethodPost, "/auth/refresh", jsonBody(dto.RefreshTokenRequest{RefreshToken: "x"}))
	assertStatus(t, w, http.StatusUnauthorized, 10002)
}

func TestAuthHandler_Logout(t *testing.T) {
	m := &mockAuthService{}
	h := NewAuthHandler(m)
	r := gin.New()
	r.POST("/auth/logout", withAuth("user"), h.Logout)

	w := serve(r, http.MethodPost, "/auth/logout", nil)
	assertStatus(t, w, http.StatusOK, 0)
	if m.loggedOut == nil || m.loggedOut.UserID != "test-user-id" {
		t.Error("应将当前 Token 声明传给 Service")
	}
}

func TestAuthHandler_Logout_WithRefreshToken(t *testing.T) {
	m := &mockAuthService{}
	h := NewAuthHandler(m)
	r := gin.New()
	r.POST("/auth/logout", withAuth("user"), h.Logout)

	w := serve(r, http.MethodPost, "/auth/logout", jsonBody(dto.LogoutRequest{RefreshToken: "rt"}))
	assertStatus(t, w, http.StatusOK, 0)
	if m.logoutReq == nil || m.logoutReq.RefreshToken != "rt" {
		t.Errorf("应将 Refresh Token 传给 Service，实际 %+v", m.logoutReq)
	}
}

func TestAuthHandler_Logout_InvalidRefreshToken(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{logoutErr: service.ErrInvalidToken})
	r := gin.New()
	r.POST("/auth/logout", withAuth("user"), h.Logout)

	w := serve(r, http.MethodPost, "/auth/logout", jsonBody(dto.LogoutRequest{RefreshToken: "bad"}))
	assertStatus(t, w, http.StatusUnauthorized, 10002)
}

func TestAuthHandler_Logout_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})
	r := gin.New()
	r.POST("/auth/logout", h.Logout)

	w := serve(r, http.MethodPost, "/auth/logout", nil)
	assertStatus(t, w, http.StatusUnauthorized, 10002)
}

func TestAuthHandler_Me(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{meResult: &dto.UserResponse{ID: "test-user-id", Username: "admin"}})
	r := gin.New()
	r.GET("/auth/me", withAuth("admin"), h.GetCurrentUser)

	w := serve(r, http.MethodGet, "/auth/me", nil)
	assertStatus(t, w, http.StatusOK, 0)
}

// ═══════════════════════════════════════════════════════════
// UserHandler Tests
// ═══════════════════════════════════════════════════════════

func TestUserHandler_Create_Anonymous(t *testing.T) {
	m := &mockUserService{createResult: &dto.UserResponse{ID: "u1", Username: "bob"}}
	h := NewUserHandler(m)
	r := gin.New()
	r.POST("/users", h.CreateUser)

	w := serve(r, http.MethodPost, "/users", jsonBody(dto.CreateUserRequest{Username: "bob", Password: "pw", IsAdmin: true}))
	assertStatus(t, w, http.StatusCreated, 0)
	if m.callerIsAdmin {
		t.Error("匿名调用不应被视为管理员")
	}
}

func TestUserHandler_Create_ByAdmin(t *testing.T) {
	m := &mockUserService{createResult: &dto.UserResponse{ID: "u1"}}
	h := NewUserHandler(m)
	r := gin.New()
	r.POST("/users", withAuth("admin"), h.CreateUser)

	serve(r, http.MethodPost, "/users", jsonBody(dto.CreateUserRequest{Username: "bob", Password: "pw", IsAdmin: true}))
	if !m.callerIsAdmin {
		t.Error("管理员调用应透传 callerIsAdmin=true")
	}
}

func TestUserHandler_Create_Validation(t *testing.T) {
	h := NewUserHandler(&mockUserService{})
	r := gin.New()
	r.POST("/users", h.CreateUser)

	w := serve(r, http.MethodPost, "/users", jsonBody(map[string]string{"name": "Bob"}))
	resp := assertStatus(t, w, http.StatusBadRequest, 10001)
	if !strings.Contains(resp.Details, "username") || !strings.Contains(resp.Details, "password") {
		t.Errorf("details 应列出 username 与 password，实际 %q", resp.Details)
	}
}

func TestUserHandler_Create_Duplicate(t *testing.T) {
	h := NewUserHandler(&mockUserService{createErr: service.ErrUsernameTaken})
	r := gin.New()
	r.POST("/users", h.CreateUser)

	w := serve(r, http.MethodPost, "/users", jsonBody(dto.CreateUserRequest{Username: "bob", Password: "pw"}))
	assertStatus(t, w, http.StatusConflict, 20002)
}

func TestUserHandler_List(t *testing.T) {
	h := NewUserHandler(&mockUserService{listResult: dto.NewPage([]dto.UserResponse{{ID: "u1"}}, 1, 1, 10)})
	r := gin.New()
	r.GET("/users", h.ListUsers)

	w := serve(r, http.MethodGet, "/users?page=1&limit=10", nil)
	assertStatus(t, w, http.StatusOK, 0)
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportXLSX(t *testing.T) {
	h := NewExportHandler(&mockExportService{buf: bytes.NewBufferString("xlsx"), filename: "devoirs_20261015.xlsx"})
	r := gin.New()
	r.GET("/assignments/export", h.ExportXLSX)

	w := serve(r, http.MethodGet, "/assignments/export?sort=desc", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if got := w.Header().Get("Content-Disposition"); got != "attachment; filename*=UTF-8''devoirs_20261015.xlsx" {
		t.Errorf("Content-Disposition 不符: %s", got)
	}
	if got := w.Header().Get("Content-Type"); got != contentTypeXLSX {
		t.Errorf("Content-Type 不符: %s", got)
	}
	if w.Body.String() != "xlsx" {
		t.Errorf("文件内容不符: %q", w.Body.String())
	}
}

func TestExportHandler_ExportICS_InvalidViewer(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrInvalidViewer})
	r := gin.New()
	r.GET("/assignments/calendar", h.ExportICS)

	w := serve(r, http.MethodGet, "/assignments/calendar?userId=bad", nil)
	assertStatus(t, w, http.StatusBadRequest, 10001)
}

// ═══════════════════════════════════════════════════════════
// SystemHandler Tests
// ═══════════════════════════════════════════════════════════

func TestSystemHandler_Status(t *testing.T) {
	h := NewSystemHandler(&mockSystemService{connected: false}, &mockSeedService{})
	r := gin.New()
	r.GET("/status", h.Status)

	w := serve(r, http.MethodGet, "/status", nil)
	assertStatus(t, w, http.StatusOK, 0)
	if !strings.Contains(w.Body.String(), `"dbConnected":false`) {
		t.Errorf("响应不符: %s", w.Body.String())
	}
}

func TestSystemHandler_InitDB(t *testing.T) {
	h := NewSystemHandler(&mockSystemService{}, &mockSeedService{counts: &dto.SeedCounts{Users: 20, Assignments: 50, Submissions: 24}})
	r := gin.New()
	r.POST("/db/init", h.InitDB)

	w := serve(r, http.MethodPost, "/db/init", nil)
	assertStatus(t, w, http.StatusOK, 0)
	if !strings.Contains(w.Body.String(), `"message":"Database initialized"`) {
		t.Errorf("响应不符: %s", w.Body.String())
	}
}

func TestSystemHandler_InitDB_Failure(t *testing.T) {
	h := NewSystemHandler(&mockSystemService{}, &mockSeedService{err: context.Canceled})
	r := gin.New()
	r.POST("/db/init", h.InitDB)

	w := serve(r, http.MethodPost, "/db/init", nil)
	assertStatus(t, w, http.StatusInternalServerError, 50000)
}

// ── 上下文辅助 ──

func TestBindFailed_BodyTooLarge(t *testing.T) {
	h := NewAssignmentHandler(&mockAssignmentService{})
	r := gin.New()
	r.POST("/assignments", func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 8)
		c.Next()
	}, h.CreateAssignment)

	w := serve(r, http.MethodPost, "/assignments", jsonBody(validAssignmentBody))
	assertStatus(t, w, http.StatusRequestEntityTooLarge, 10005)
}
