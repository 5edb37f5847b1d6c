// Package admin implements the admin panel surfaces: the central tenant
// management API (create, list, resume, drop) and the tenant-scoped user
// management and login endpoints.
package admin

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clearspace-io/tenantry/pkg/httpx"
	"github.com/clearspace-io/tenantry/pkg/tenant"
	"github.com/clearspace-io/tenantry/svc/provision"
)

// Provisioner is the tenant lifecycle surface the router needs.
type Provisioner interface {
	CreateTenant(ctx context.Context, d provision.Descriptor) (*tenant.Tenant, error)
	Resume(ctx context.Context, d provision.Descriptor) (*tenant.Tenant, error)
	DropTenant(ctx context.Context, tenantID string) error
}

// Registry is the read surface for listing tenants.
type Registry interface {
	List(ctx context.Context) ([]*tenant.Tenant, error)
	GetByID(ctx context.Context, id string) (*tenant.Tenant, error)
}

// TenantsRouter mounts the central tenant management endpoints. This router
// runs outside any tenant scope and must be protected by the deployment
// (it creates and destroys tenants).
func TenantsRouter(svc Provisioner, reg Registry) chi.Router {
	h := &tenantHandlers{svc: svc, reg: reg}

	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Post("/{id}/resume", h.resume)
	r.Delete("/{id}", h.drop)
	return r
}

type tenantHandlers struct {
	svc Provisioner
	reg Registry
}

type createTenantRequest struct {
	ID            string `json:"id"`
	CompanyName   string `json:"company_name"`
	CompanyEmail  string `json:"company_email"`
	Domain        string `json:"domain"`
	AdminName     string `json:"admin_name"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`
}

func (req createTenantRequest) descriptor() provision.Descriptor {
	return provision.Descriptor{
		TenantID:      req.ID,
		CompanyName:   req.CompanyName,
		CompanyEmail:  req.CompanyEmail,
		Domain:        req.Domain,
		AdminName:     req.AdminName,
		AdminEmail:    req.AdminEmail,
		AdminPassword: req.AdminPassword,
	}
}

func (h *tenantHandlers) list(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.reg.List(r.Context())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	httpx.JSON(w, http.StatusOK, tenants)
}

func (h *tenantHandlers) get(w http.ResponseWriter, r *http.Request) {
	t, err := h.reg.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *tenantHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID == "" || req.Domain == "" || req.AdminEmail == "" || req.AdminPassword == "" {
		httpx.Error(w, http.StatusUnprocessableEntity, "id, domain, admin_email and admin_password are required")
		return
	}

	t, err := h.svc.CreateTenant(r.Context(), req.descriptor())
	if err != nil {
		h.failProvisioning(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *tenantHandlers) resume(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.ID = chi.URLParam(r, "id")

	t, err := h.svc.Resume(r.Context(), req.descriptor())
	if err != nil {
		h.failProvisioning(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *tenantHandlers) drop(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DropTenant(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *tenantHandlers) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, tenant.ErrTenantNotFound) {
		httpx.Error(w, http.StatusNotFound, err.Error())
		return
	}
	httpx.Error(w, http.StatusInternalServerError, "Internal server error")
}

// failProvisioning maps lifecycle errors, reporting the failed step so an
// operator knows where to resume from.
func (h *tenantHandlers) failProvisioning(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, provision.ErrDuplicateTenant):
		status = http.StatusConflict
	case errors.Is(err, tenant.ErrInvalidIdentifier):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, tenant.ErrTenantNotFound):
		status = http.StatusNotFound
	}

	body := map[string]string{"message": err.Error()}
	if step := provision.FailedStep(err); step != "" {
		body["failed_step"] = string(step)
	}
	httpx.JSON(w, status, body)
}
