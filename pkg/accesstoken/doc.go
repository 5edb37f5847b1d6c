// Package accesstoken implements bearer-token authentication scoped to the
// currently bound tenant database.
//
// A credential has the form "<token id>|<secret>". Only the SHA-256 hash of
// the secret is ever stored; issuing a token is the one time the plaintext
// exists. Authentication hashes the presented secret and looks the hash up
// through a Store whose queries run on the tenant database bound into the
// request context — so the middleware must be mounted strictly after
// tenantdb.Middleware. That ordering is what makes cross-tenant token reuse
// structurally impossible: a token issued in tenant A's database simply does
// not exist in the database bound for a tenant-B request, identical secrets
// or not.
//
// The middleware fails closed. A missing header, a malformed credential, a
// hash miss, an orphaned token, or any storage error all normalize to the
// same generic 401 — internal failure detail never leaks through an
// authentication response.
package accesstoken
