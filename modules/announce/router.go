package announce

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clearspace-io/tenantry/pkg/accesstoken"
	"github.com/clearspace-io/tenantry/pkg/httpx"
)

// Announcements is the storage surface the router needs.
type Announcements interface {
	Create(ctx context.Context, p CreateParams) (*Announcement, error)
	Get(ctx context.Context, id uuid.UUID) (*Announcement, error)
	List(ctx context.Context, status Status, userID uuid.UUID) ([]*Announcement, error)
	Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*Announcement, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Router mounts the announcement endpoints. Callers mount it behind the
// tenant, binding, and authentication middleware.
func Router(store Announcements) chi.Router {
	h := &handlers{store: store}

	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/my", h.listMine)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	return r
}

type handlers struct {
	store Announcements
}

type announcementRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Status  Status `json:"status"`
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	status := Status(r.URL.Query().Get("status"))
	list, err := h.store.List(r.Context(), status, uuid.Nil)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *handlers) listMine(w http.ResponseWriter, r *http.Request) {
	identity := accesstoken.MustIdentity(r.Context())
	list, err := h.store.List(r.Context(), "", identity.UserID)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	var req announcementRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" {
		httpx.Error(w, http.StatusUnprocessableEntity, "Title is required")
		return
	}
	if req.Status == "" {
		req.Status = StatusDraft
	}

	identity := accesstoken.MustIdentity(r.Context())
	a, err := h.store.Create(r.Context(), CreateParams{
		UserID:  identity.UserID,
		Title:   req.Title,
		Content: req.Content,
		Status:  req.Status,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, a)
}

func (h *handlers) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "Announcement not found")
		return
	}
	a, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *handlers) update(w http.ResponseWriter, r *http.Request) {
	a, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req announcementRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" {
		req.Title = a.Title
	}
	if req.Status == "" {
		req.Status = a.Status
	}

	updated, err := h.store.Update(r.Context(), a.ID, UpdateParams{
		Title:   req.Title,
		Content: req.Content,
		Status:  req.Status,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *handlers) delete(w http.ResponseWriter, r *http.Request) {
	a, ok := h.authorize(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), a.ID); err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// authorize loads the announcement and checks that the caller is its author
// or a tenant admin.
func (h *handlers) authorize(w http.ResponseWriter, r *http.Request) (*Announcement, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "Announcement not found")
		return nil, false
	}
	a, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return nil, false
	}

	identity := accesstoken.MustIdentity(r.Context())
	if a.UserID != identity.UserID && identity.Role != "admin" {
		httpx.Error(w, http.StatusForbidden, "Forbidden")
		return nil, false
	}
	return a, true
}

func (h *handlers) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "Announcement not found")
	case errors.Is(err, ErrInvalidStatus):
		httpx.Error(w, http.StatusUnprocessableEntity, "Invalid announcement status")
	default:
		httpx.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
