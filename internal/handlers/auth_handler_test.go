package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/middleware"
	"expensetracker/internal/models"
	"expensetracker/internal/services"
	"expensetracker/internal/validator"
)

const (
	testUserID        = "01932f6e-8a5c-7b2e-9f3d-4c6a1b2e3d4f"
	testCategoryID    = "01932f6e-9b11-7c40-8d21-5e7f2a3b4c5d"
	testTransactionID = "01932f6f-0c22-7d51-9e32-6f803b4c5d6e"
	testBudgetID      = "01932f6f-1d33-7e62-af43-70914c5d6e7f"
)

// --- mock services ---

type mockUserService struct {
	createUserFn     func(email, password, firstName, lastName string) (*models.User, error)
	getUserByEmailFn func(email string) (*models.User, error)
	getUserByIDFn    func(id string) (*models.User, error)
	verifyPasswordFn func(user *models.User, password string) bool
	recordLoginFn    func(userID string, at time.Time) error
}

func (m *mockUserService) CreateUser(email, password, firstName, lastName string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(email, password, firstName, lastName)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByEmail(email string) (*models.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(email)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{}, nil
}

func (m *mockUserService) VerifyPassword(user *models.User, password string) bool {
	if m.verifyPasswordFn != nil {
		return m.verifyPasswordFn(user, password)
	}
	return true
}

func (m *mockUserService) RecordLogin(userID string, at time.Time) error {
	if m.recordLoginFn != nil {
		return m.recordLoginFn(userID, at)
	}
	return nil
}

var _ services.UserServicer = (*mockUserService)(nil)

type auditEntry struct {
	action       string
	resourceType string
	resourceID   string
}

type mockAuditService struct {
	entries []auditEntry
}

func (m *mockAuditService) Log(_, action, resourceType, resourceID, _ string, _ map[string]interface{}) {
	m.entries = append(m.entries, auditEntry{action: action, resourceType: resourceType, resourceID: resourceID})
}

var _ services.AuditServicer = (*mockAuditService)(nil)

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.GET("/profile", injectUserID(testUserID), handler.GetProfile)
	return r
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

// --- tests ---

func TestAuthHandler_Register(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(email, _, firstName, lastName string) (*models.User, error) {
				return &models.User{
					Base:      models.Base{ID: testUserID},
					Email:     email,
					FirstName: firstName,
					LastName:  lastName,
				}, nil
			},
		}
		handler := NewAuthHandler(userSvc, &mockCategoryService{}, &mockAuditService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"test@example.com","password":"password123","first_name":"John","last_name":"Doe"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		token, _ := result["token"].(string)
		if token == "" {
			t.Fatal("expected non-empty token")
		}
		claims, err := middleware.ParseToken(token)
		if err != nil {
			t.Fatalf("issued token does not parse: %v", err)
		}
		if claims.UserID != testUserID {
			t.Errorf("expected token for %s, got %s", testUserID, claims.UserID)
		}
		user := result["user"].(map[string]interface{})
		if user["email"] != "test@example.com" {
			t.Errorf("expected email test@example.com, got %v", user["email"])
		}
		if user["id"] != testUserID {
			t.Errorf("expected id %s, got %v", testUserID, user["id"])
		}
	})

	t.Run("seeds default categories for the new user", func(t *testing.T) {
		var seededFor string
		userSvc := &mockUserService{
			createUserFn: func(email, _, _, _ string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: testUserID}, Email: email}, nil
			},
		}
		catSvc := &mockCategoryService{
			seedDefaultCategoriesFn: func(userID string) (int, error) {
				seededFor = userID
				return 14, nil
			},
		}
		handler := NewAuthHandler(userSvc, catSvc, &mockAuditService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register", `{"email":"test@example.com","password":"password123"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		if seededFor != testUserID {
			t.Errorf("expected categories seeded for %s, got %q", testUserID, seededFor)
		}
	})

	t.Run("still registers when seeding fails", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(email, _, _, _ string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: testUserID}, Email: email}, nil
			},
		}
		catSvc := &mockCategoryService{
			seedDefaultCategoriesFn: func(_ string) (int, error) {
				return 0, fmt.Errorf("db connection lost")
			},
		}
		handler := NewAuthHandler(userSvc, catSvc, &mockAuditService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register", `{"email":"test@example.com","password":"password123"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on missing email", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{}, &mockCategoryService{}, &mockAuditService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register", `{"password":"password123"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on short password", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{}, &mockCategoryService{}, &mockAuditService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register", `{"email":"test@example.com","password":"short"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on invalid email format", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{}, &mockCategoryService{}, &mockAuditService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register", `{"email":"not-an-email","password":"password123"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on duplicate email", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(_, _, _, _ string) (*models.User, error) {
				return nil, apperrors.ErrDuplicateEmail
			},
		}
		handler := NewAuthHandler(userSvc, &mockCategoryService{}, &mockAuditService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register", `{"email":"dup@example.com","password":"password123"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_EMAIL")
	})

	t.Run("writes an audit entry", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(email, _, _, _ string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: testUserID}, Email: email}, nil
			},
		}
		audit := &mockAuditService{}
		handler := NewAuthHandler(userSvc, &mockCategoryService{}, audit)
		r := setupAuthRouter(handler)

		doRequest(r, "POST", "/auth/register", `{"email":"test@example.com","password":"password123"}`)

		if len(audit.entries) != 1 || audit.entries[0].resourceType != "user" {
			t.Errorf("expected one user audit entry, got %+v", audit.entries)
		}
	})
}

func TestAuthHandler_Login(t *testing.T) {
	activeUser := func(email string) *models.User {
		return &models.User{Base: models.Base{ID: testUserID}, Email: email, FirstName: "Test", IsActive: true}
	}

	t.Run("returns 200 on success", func(t *testing.T) {
		var recorded string
		userSvc := &mockUserService{
			getUserByEmailFn: func(email string) (*models.User, error) {
				return activeUser(email), nil
			},
			recordLoginFn: func(userID string, _ time.Time) error {
				recorded = userID
				return nil
			},
		}
		handler := NewAuthHandler(userSvc, &mockCategoryService{}, &mockAuditService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/login", `{"email":"test@example.com","password":"password123"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["token"] == nil || result["token"] == "" {
			t.Error("expected non-empty token")
		}
		if recorded != testUserID {
			t.Errorf("expected login recorded for %s, got %q", testUserID, recorded)
		}
	})

	t.Run("returns 401 on unknown email", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByEmailFn: func(_ string) (*models.User, error) {
				return nil, apperrors.ErrUserNotFound
			},
		}
		handler := NewAuthHandler(userSvc, &mockCategoryService{}, &mockAuditService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/login", `{"email":"nobody@example.com","password":"password123"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})

	t.Run("returns 401 on wrong password", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByEmailFn: func(email string) (*models.User, error) {
				return activeUser(email), nil
			},
			verifyPasswordFn: func(_ *models.User, _ string) bool { return false },
		}
		handler := NewAuthHandler(userSvc, &mockCategoryService{}, &mockAuditService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/login", `{"email":"test@example.com","password":"wrong"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})

	t.Run("returns 401 on inactive account", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByEmailFn: func(email string) (*models.User, error) {
				u := activeUser(email)
				u.IsActive = false
				return u, nil
			},
		}
		handler := NewAuthHandler(userSvc, &mockCategoryService{}, &mockAuditService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/login", `{"email":"test@example.com","password":"password123"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("succeeds when recording the login fails", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByEmailFn: func(email string) (*models.User, error) {
				return activeUser(email), nil
			},
			recordLoginFn: func(_ string, _ time.Time) error {
				return fmt.Errorf("db connection lost")
			},
		}
		handler := NewAuthHandler(userSvc, &mockCategoryService{}, &mockAuditService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/login", `{"email":"test@example.com","password":"password123"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on missing fields", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{}, &mockCategoryService{}, &mockAuditService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/login", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_GetProfile(t *testing.T) {
	t.Run("returns 200 with user profile", func(t *testing.T) {
		now := time.Now()
		userSvc := &mockUserService{
			getUserByIDFn: func(id string) (*models.User, error) {
				return &models.User{
					Base:        models.Base{ID: id},
					Email:       "test@example.com",
					FirstName:   "John",
					LastName:    "Doe",
					LastLoginAt: &now,
				}, nil
			},
		}
		handler := NewAuthHandler(userSvc, &mockCategoryService{}, &mockAuditService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		user := result["user"].(map[string]interface{})
		if user["email"] != "test@example.com" {
			t.Errorf("expected test@example.com, got %v", user["email"])
		}
		if user["first_name"] != "John" {
			t.Errorf("expected John, got %v", user["first_name"])
		}
	})

	t.Run("returns 401 without auth", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{}, &mockCategoryService{}, &mockAuditService{})
		r := gin.New()
		r.GET("/profile", handler.GetProfile)

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when user not found", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByIDFn: func(_ string) (*models.User, error) {
				return nil, apperrors.ErrUserNotFound
			},
		}
		handler := NewAuthHandler(userSvc, &mockCategoryService{}, &mockAuditService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
