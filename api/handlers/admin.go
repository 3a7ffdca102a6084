package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/rentcontroldept/rcd-api/api"
	"github.com/rentcontroldept/rcd-api/config"
	"github.com/rentcontroldept/rcd-api/databases"
	"github.com/rentcontroldept/rcd-api/models"
)

// Admin is the back-office console entry point: email/password login issuing
// a JWT, and the middleware that verifies it on the registry routes
type Admin struct {
	UDB    databases.UserDatabase
	Secret string
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type adminLoginResponse struct {
	Token string `json:"token"`
	Admin struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"admin"`
}

// AdminLoginHandler handles admin login via email/password and returns a JWT
func (h Admin) AdminLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", models.ErrKindValidationFailed, http.StatusBadRequest, w, err)
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		config.ErrorStatus("email and password required", models.ErrKindValidationFailed, http.StatusBadRequest, w, fmt.Errorf("missing credentials"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := h.UDB.FindOne(ctx, bson.M{"user.email": email, "user.role": models.RoleAdmin, "user.active": true})
	if err != nil {
		config.ErrorStatus("invalid credentials", models.ErrKindUnauthorized, http.StatusUnauthorized, w, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Details.Password), []byte(req.Password)); err != nil {
		config.ErrorStatus("invalid credentials", models.ErrKindUnauthorized, http.StatusUnauthorized, w, err)
		return
	}

	if h.Secret == "" {
		config.ErrorStatus("server misconfigured", models.ErrKindInternal, http.StatusInternalServerError, w, fmt.Errorf("admin JWT secret is not set"))
		return
	}

	claims := jwt.MapClaims{
		"sub":   user.ID.Hex(),
		"email": user.Details.Email,
		"name":  user.Details.Name,
		"scope": "admin",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.Secret))
	if err != nil {
		config.ErrorStatus("token generation failed", models.ErrKindInternal, http.StatusInternalServerError, w, err)
		return
	}

	var resp adminLoginResponse
	resp.Token = signed
	resp.Admin.ID = user.ID.Hex()
	resp.Admin.Email = user.Details.Email
	resp.Admin.Name = user.Details.Name

	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(resp)
	w.Write(b)
}

// AdminAuthMiddleware verifies the admin JWT and attaches the admin identity
// to the request context
func (h Admin) AdminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			config.ErrorStatus("missing bearer token", models.ErrKindUnauthorized, http.StatusUnauthorized, w, fmt.Errorf("Authorization header is not a bearer token"))
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(h.Secret), nil
		})
		if err != nil || !token.Valid {
			config.ErrorStatus("invalid admin token", models.ErrKindUnauthorized, http.StatusUnauthorized, w, err)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			config.ErrorStatus("invalid admin token", models.ErrKindUnauthorized, http.StatusUnauthorized, w, fmt.Errorf("unexpected claims type"))
			return
		}
		if scope, _ := claims["scope"].(string); scope != "admin" {
			config.ErrorStatus("token lacks admin scope", models.ErrKindUnauthorized, http.StatusForbidden, w, fmt.Errorf("scope %q", claims["scope"]))
			return
		}

		identity := api.Identity{Role: models.RoleAdmin}
		if sub, ok := claims["sub"].(string); ok {
			identity.UserID = sub
		}
		if email, ok := claims["email"].(string); ok {
			identity.Email = email
		}
		if name, ok := claims["name"].(string); ok {
			identity.Name = name
		}

		next.ServeHTTP(w, r.WithContext(api.WithIdentity(r.Context(), identity)))
	})
}
