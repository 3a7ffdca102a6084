package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/rentcontroldept/rcd-api/api"
	"github.com/rentcontroldept/rcd-api/api/handlers"
	"github.com/rentcontroldept/rcd-api/databases"
	"github.com/rentcontroldept/rcd-api/databases/mocks"
	"github.com/rentcontroldept/rcd-api/models"
)

const testAdminSecret = "unit-test-secret"

func mockAdminUser(t *testing.T, password string) func(args mock.Arguments) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	return func(args mock.Arguments) {
		arg := args.Get(0).(**models.User)
		(*arg).ID = primitive.NewObjectID()
		(*arg).Details.Email = "admin@rcd.example"
		(*arg).Details.Name = "Registry Admin"
		(*arg).Details.Password = string(hash)
		(*arg).Details.Role = models.RoleAdmin
		(*arg).Details.Active = true
	}
}

func TestAdmin_AdminLoginHandlerBadBody(t *testing.T) {
	h := handlers.Admin{Secret: testAdminSecret}

	req, _ := http.NewRequest("POST", "/admin/login", nil)

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.AdminLoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, models.ErrKindValidationFailed, errorKind(t, rr))
}

func TestAdmin_AdminLoginHandlerMissingCredentials(t *testing.T) {
	h := handlers.Admin{Secret: testAdminSecret}

	req := identifiedRequest("POST", "/admin/login", []byte(`{"email":"admin@rcd.example"}`), api.Identity{})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.AdminLoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, models.ErrKindValidationFailed, errorKind(t, rr))
}

func TestAdmin_AdminLoginHandlerWrongPassword(t *testing.T) {
	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(mockAdminUser(t, "correct-horse"))
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "users").Return(conn)

	h := handlers.Admin{
		UDB:    databases.NewUserDatabase(db),
		Secret: testAdminSecret,
	}

	body := []byte(`{"email":"admin@rcd.example","password":"battery-staple"}`)
	req := identifiedRequest("POST", "/admin/login", body, api.Identity{})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.AdminLoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, models.ErrKindUnauthorized, errorKind(t, rr))
}

func TestAdmin_AdminLoginHandlerIssuesToken(t *testing.T) {
	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(mockAdminUser(t, "correct-horse"))
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "users").Return(conn)

	h := handlers.Admin{
		UDB:    databases.NewUserDatabase(db),
		Secret: testAdminSecret,
	}

	body := []byte(`{"email":"Admin@RCD.example","password":"correct-horse"}`)
	req := identifiedRequest("POST", "/admin/login", body, api.Identity{})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.AdminLoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Token string `json:"token"`
		Admin struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"admin"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "admin@rcd.example", resp.Admin.Email)

	token, err := jwt.Parse(resp.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte(testAdminSecret), nil
	})
	assert.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "admin", claims["scope"])
}

func adminTestToken(t *testing.T, scope string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   primitive.NewObjectID().Hex(),
		"email": "admin@rcd.example",
		"name":  "Registry Admin",
		"scope": scope,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testAdminSecret))
	assert.NoError(t, err)
	return signed
}

func TestAdmin_AdminAuthMiddlewareMissingBearer(t *testing.T) {
	h := handlers.Admin{Secret: testAdminSecret}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})

	req, _ := http.NewRequest("GET", "/admin/officers", nil)

	rr := httptest.NewRecorder()
	h.AdminAuthMiddleware(next).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, models.ErrKindUnauthorized, errorKind(t, rr))
}

func TestAdmin_AdminAuthMiddlewareWrongScope(t *testing.T) {
	h := handlers.Admin{Secret: testAdminSecret}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})

	req, _ := http.NewRequest("GET", "/admin/officers", nil)
	req.Header.Set("Authorization", "Bearer "+adminTestToken(t, "user"))

	rr := httptest.NewRecorder()
	h.AdminAuthMiddleware(next).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, models.ErrKindUnauthorized, errorKind(t, rr))
}

func TestAdmin_AdminAuthMiddlewareAttachesIdentity(t *testing.T) {
	h := handlers.Admin{Secret: testAdminSecret}

	var seen api.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := api.IdentityFromContext(r.Context())
		assert.True(t, ok)
		seen = identity
		w.WriteHeader(http.StatusOK)
	})

	req, _ := http.NewRequest("GET", "/admin/officers", nil)
	req.Header.Set("Authorization", "Bearer "+adminTestToken(t, "admin"))

	rr := httptest.NewRecorder()
	h.AdminAuthMiddleware(next).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, models.RoleAdmin, seen.Role)
	assert.Equal(t, "admin@rcd.example", seen.Email)
	assert.Equal(t, "Registry Admin", seen.Name)
}
