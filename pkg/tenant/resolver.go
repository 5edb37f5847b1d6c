package tenant

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Resolver extracts a tenant identifier from an HTTP request.
type Resolver interface {
	// Resolve extracts the tenant identifier from the request.
	// Returns empty string if no tenant identifier is found.
	Resolve(r *http.Request) (string, error)
}

// ResolverFunc is an adapter to allow the use of ordinary functions as Resolvers.
type ResolverFunc func(r *http.Request) (string, error)

// Resolve calls the function.
func (f ResolverFunc) Resolve(r *http.Request) (string, error) {
	return f(r)
}

// PathResolver reads the tenant identifier from a named chi route parameter.
// Routes declare the capture group explicitly (e.g. `/{tenant}/api/...`), so
// there is no positional path arithmetic to go stale when routes move.
type PathResolver struct {
	// Param is the chi URL parameter name. Defaults to "tenant".
	Param string
}

// NewPathResolver creates a resolver for the named route parameter.
func NewPathResolver(param string) *PathResolver {
	if param == "" {
		param = "tenant"
	}
	return &PathResolver{Param: param}
}

// Resolve extracts the tenant identifier from the route parameter.
func (p *PathResolver) Resolve(req *http.Request) (string, error) {
	return chi.URLParamFromCtx(req.Context(), p.Param), nil
}

// HeaderResolver extracts the tenant identifier from an HTTP header.
type HeaderResolver struct {
	// HeaderName is the name of the header to read (e.g. "X-Tenant").
	HeaderName string
}

// NewHeaderResolver creates a new header resolver.
func NewHeaderResolver(headerName string) *HeaderResolver {
	if headerName == "" {
		headerName = "X-Tenant"
	}
	return &HeaderResolver{HeaderName: headerName}
}

// Resolve extracts the tenant identifier from the configured header.
func (h *HeaderResolver) Resolve(req *http.Request) (string, error) {
	return req.Header.Get(h.HeaderName), nil
}

// SubdomainResolver extracts the tenant identifier from the leftmost label
// of the request host (e.g. "acme" from "acme.app.example.com").
type SubdomainResolver struct {
	// Suffix to strip from the host (e.g. ".app.example.com"). When set, a
	// host equal to the bare suffix yields no identifier.
	Suffix string
}

// NewSubdomainResolver creates a new subdomain resolver.
func NewSubdomainResolver(suffix string) *SubdomainResolver {
	return &SubdomainResolver{Suffix: suffix}
}

// Resolve extracts the leftmost host label as the tenant identifier.
func (s *SubdomainResolver) Resolve(req *http.Request) (string, error) {
	host := req.Host
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}

	if s.Suffix != "" {
		if !strings.HasSuffix(host, s.Suffix) || host == strings.TrimPrefix(s.Suffix, ".") {
			return "", nil
		}
		host = strings.TrimSuffix(host, s.Suffix)
	}

	parts := strings.Split(host, ".")
	if len(parts) == 0 || parts[0] == "" || parts[0] == "www" {
		return "", nil
	}

	// Without a configured suffix a bare domain like "example.com" has no
	// subdomain label to use.
	if s.Suffix == "" && len(parts) < 3 {
		return "", nil
	}

	return parts[0], nil
}

// CompositeResolver tries multiple resolvers in order until one yields an
// identifier.
type CompositeResolver struct {
	Resolvers []Resolver
}

// NewCompositeResolver creates a new composite resolver.
func NewCompositeResolver(resolvers ...Resolver) *CompositeResolver {
	return &CompositeResolver{Resolvers: resolvers}
}

// Resolve returns the first non-empty identifier produced by the chain.
func (c *CompositeResolver) Resolve(r *http.Request) (string, error) {
	for _, resolver := range c.Resolvers {
		id, err := resolver.Resolve(r)
		if err != nil {
			return "", err
		}
		if id != "" {
			return id, nil
		}
	}
	return "", nil
}
