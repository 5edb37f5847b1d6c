package admin

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clearspace-io/tenantry/pkg/accesstoken"
	"github.com/clearspace-io/tenantry/pkg/httpx"
	"github.com/clearspace-io/tenantry/pkg/password"
	"github.com/clearspace-io/tenantry/svc/directory"
)

// Users is the user storage surface the router needs. All methods read
// and write through the tenant database bound to the request context.
type Users interface {
	Create(ctx context.Context, p directory.CreateUserParams) (*directory.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*directory.User, error)
	GetByEmail(ctx context.Context, email string) (*directory.User, error)
	List(ctx context.Context) ([]*directory.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Tokens issues and revokes access tokens for the login endpoints.
type Tokens interface {
	accesstoken.Store
	Issue(ctx context.Context, userID uuid.UUID, label string) (string, *accesstoken.Token, error)
	Revoke(ctx context.Context, id uuid.UUID) error
}

// Config tunes the module.
type Config struct {
	BcryptCost int `env:"ADMIN_BCRYPT_COST" envDefault:"0"` // 0 uses the bcrypt default.
}

// UsersRouter mounts the tenant-scoped user management endpoints. Login is
// open; listing requires authentication; create and delete require the
// admin role.
func UsersRouter(cfg Config, users Users, tokens Tokens) chi.Router {
	h := &userHandlers{cfg: cfg, users: users, tokens: tokens}

	r := chi.NewRouter()
	r.Post("/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(accesstoken.Middleware(tokens))
		r.Post("/logout", h.logout)
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.list)
			r.Get("/{id}", h.get)

			r.Group(func(r chi.Router) {
				r.Use(accesstoken.RequireRole(directory.RoleAdmin))
				r.Post("/", h.create)
				r.Delete("/{id}", h.delete)
			})
		})
	})
	return r
}

type userHandlers struct {
	cfg    Config
	users  Users
	tokens Tokens
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type authResponse struct {
	User  *directory.User `json:"user"`
	Token string          `json:"token"`
}

// login verifies the password against the bound tenant database and issues
// a fresh token. Every failure is the same generic 401 so callers can't
// probe which emails exist in which tenant.
func (h *userHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		httpx.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err := password.Verify(user.PasswordHash, req.Password); err != nil {
		httpx.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	plaintext, _, err := h.tokens.Issue(r.Context(), user.ID, "Admin Panel")
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	httpx.JSON(w, http.StatusOK, authResponse{User: user, Token: plaintext})
}

func (h *userHandlers) logout(w http.ResponseWriter, r *http.Request) {
	identity := accesstoken.MustIdentity(r.Context())
	if err := h.tokens.Revoke(r.Context(), identity.TokenID); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"logged_out": true})
}

func (h *userHandlers) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.List(r.Context())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *userHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "User not found")
		return
	}
	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *userHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.Error(w, http.StatusUnprocessableEntity, "Email and password are required")
		return
	}
	role := req.Role
	if role == "" {
		role = directory.RoleUser
	}
	if role != directory.RoleUser && role != directory.RoleAdmin {
		httpx.Error(w, http.StatusUnprocessableEntity, "Invalid role")
		return
	}

	hash, err := password.Hash(req.Password, h.cfg.BcryptCost)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user, err := h.users.Create(r.Context(), directory.CreateUserParams{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, directory.ErrEmailTaken) {
			httpx.Error(w, http.StatusConflict, "Email already taken")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

// delete removes a user but never the caller themselves, so a tenant
// can't lock out its last admin in one request.
func (h *userHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "User not found")
		return
	}
	identity := accesstoken.MustIdentity(r.Context())
	if identity.UserID == id {
		httpx.Error(w, http.StatusUnprocessableEntity, "Cannot delete your own account")
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *userHandlers) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, directory.ErrUserNotFound) {
		httpx.Error(w, http.StatusNotFound, "User not found")
		return
	}
	httpx.Error(w, http.StatusInternalServerError, "Internal server error")
}
