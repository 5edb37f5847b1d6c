package notes

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

// Users is the user storage surface the auth endpoints need.
type Users interface {
	Create(ctx context.Context, p directory.CreateUserParams) (*directory.User, error)
	GetByEmail(ctx context.Context, email string) (*directory.User, error)
}

// Tokens issues and revokes access tokens in the bound tenant database.
type Tokens interface {
	accesstoken.Store
	Issue(ctx context.Context, userID uuid.UUID, label string) (string, *accesstoken.Token, error)
	Revoke(ctx context.Context, id uuid.UUID) error
}

// Notes is the note storage surface the router needs.
type Notes interface {
	Create(ctx context.Context, userID uuid.UUID, title, content string) (*Note, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*Note, error)
	List(ctx context.Context, userID uuid.UUID) ([]*Note, error)
	Update(ctx context.Context, userID, id uuid.UUID, title, content string) (*Note, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// Config tunes the module.
type Config struct {
	BcryptCost int `env:"NOTES_BCRYPT_COST" envDefault:"0"` // 0 uses the bcrypt default.
}

// Router mounts the notes application endpoints. Register and login are
// open (the tenant must already be resolved and bound); everything else
// sits behind token authentication.
func Router(cfg Config, users Users, tokens Tokens, store Notes) chi.Router {
	h := &handlers{cfg: cfg, users: users, tokens: tokens, store: store}

	r := chi.NewRouter()
	r.Post("/register", h.register)
	r.Post("/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(accesstoken.Middleware(tokens))
		r.Post("/logout", h.logout)
		r.Route("/notes", func(r chi.Router) {
			r.Get("/", h.list)
			r.Post("/", h.create)
			r.Get("/{id}", h.get)
			r.Put("/{id}", h.update)
			r.Delete("/{id}", h.delete)
		})
	})
	return r
}

type handlers struct {
	cfg    Config
	users  Users
	tokens Tokens
	store  Notes
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type authResponse struct {
	User  *directory.User `json:"user"`
	Token string          `json:"token"`
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.Error(w, http.StatusUnprocessableEntity, "Email and password are required")
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
		Role:         directory.RoleUser,
	})
	if err != nil {
		if errors.Is(err, directory.ErrEmailTaken) {
			httpx.Error(w, http.StatusConflict, "Email already taken")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	plaintext, _, err := h.tokens.Issue(r.Context(), user.ID, "API Token")
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	httpx.JSON(w, http.StatusCreated, authResponse{User: user, Token: plaintext})
}

// login verifies the password and issues a fresh token. Every failure is
// the same generic 401 so callers can't probe which emails exist.
func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
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

	plaintext, _, err := h.tokens.Issue(r.Context(), user.ID, "API Token")
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	httpx.JSON(w, http.StatusOK, authResponse{User: user, Token: plaintext})
}

// logout revokes the credential the request authenticated with.
func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	identity := accesstoken.MustIdentity(r.Context())
	if err := h.tokens.Revoke(r.Context(), identity.TokenID); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"logged_out": true})
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	identity := accesstoken.MustIdentity(r.Context())
	list, err := h.store.List(r.Context(), identity.UserID)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" {
		httpx.Error(w, http.StatusUnprocessableEntity, "Title is required")
		return
	}

	identity := accesstoken.MustIdentity(r.Context())
	n, err := h.store.Create(r.Context(), identity.UserID, req.Title, req.Content)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, n)
}

func (h *handlers) get(w http.ResponseWriter, r *http.Request) {
	identity := accesstoken.MustIdentity(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "Note not found")
		return
	}
	n, err := h.store.Get(r.Context(), identity.UserID, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, n)
}

func (h *handlers) update(w http.ResponseWriter, r *http.Request) {
	identity := accesstoken.MustIdentity(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "Note not found")
		return
	}

	var req noteRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	n, err := h.store.Update(r.Context(), identity.UserID, id, req.Title, req.Content)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, n)
}

func (h *handlers) delete(w http.ResponseWriter, r *http.Request) {
	identity := accesstoken.MustIdentity(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "Note not found")
		return
	}
	if err := h.store.Delete(r.Context(), identity.UserID, id); err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *handlers) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Error(w, http.StatusNotFound, "Note not found")
		return
	}
	httpx.Error(w, http.StatusInternalServerError, "Internal server error")
}
