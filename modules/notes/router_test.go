package notes_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearspace-io/tenantry/modules/notes"
	"github.com/clearspace-io/tenantry/pkg/accesstoken"
	"github.com/clearspace-io/tenantry/pkg/password"
	"github.com/clearspace-io/tenantry/svc/directory"
)

// bcryptMinCost keeps password hashing fast in tests.
const bcryptMinCost = 4

type fakeUsers struct {
	byEmail map[string]*directory.User
}

func (u *fakeUsers) Create(ctx context.Context, p directory.CreateUserParams) (*directory.User, error) {
	if _, taken := u.byEmail[p.Email]; taken {
		return nil, directory.ErrEmailTaken
	}
	user := &directory.User{
		ID:           uuid.New(),
		Name:         p.Name,
		Email:        p.Email,
		Role:         p.Role,
		PasswordHash: p.PasswordHash,
	}
	u.byEmail[p.Email] = user
	return user, nil
}

func (u *fakeUsers) GetByEmail(ctx context.Context, email string) (*directory.User, error) {
	if user, ok := u.byEmail[email]; ok {
		return user, nil
	}
	return nil, directory.ErrUserNotFound
}

type fakeTokens struct {
	users  *fakeUsers
	byHash map[string]*accesstoken.Token
}

func (t *fakeTokens) Issue(ctx context.Context, userID uuid.UUID, label string) (string, *accesstoken.Token, error) {
	secret, err := accesstoken.NewSecret()
	if err != nil {
		return "", nil, err
	}
	tok := &accesstoken.Token{ID: uuid.New(), UserID: userID, Label: label, Hash: accesstoken.HashSecret(secret)}
	t.byHash[tok.Hash] = tok
	return accesstoken.Plaintext(tok.ID, secret), tok, nil
}

func (t *fakeTokens) Revoke(ctx context.Context, id uuid.UUID) error {
	for hash, tok := range t.byHash {
		if tok.ID == id {
			delete(t.byHash, hash)
			return nil
		}
	}
	return directory.ErrTokenNotFound
}

func (t *fakeTokens) FindTokenByHash(ctx context.Context, hash string) (*accesstoken.Token, error) {
	if tok, ok := t.byHash[hash]; ok {
		return tok, nil
	}
	return nil, directory.ErrTokenNotFound
}

func (t *fakeTokens) FindUserByID(ctx context.Context, id uuid.UUID) (*accesstoken.Identity, error) {
	for _, user := range t.users.byEmail {
		if user.ID == id {
			return &accesstoken.Identity{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
		}
	}
	return nil, directory.ErrUserNotFound
}

type fakeNotes struct {
	items map[uuid.UUID]*notes.Note
}

func (s *fakeNotes) Create(ctx context.Context, userID uuid.UUID, title, content string) (*notes.Note, error) {
	n := &notes.Note{ID: uuid.New(), UserID: userID, Title: title, Content: content}
	s.items[n.ID] = n
	return n, nil
}

func (s *fakeNotes) Get(ctx context.Context, userID, id uuid.UUID) (*notes.Note, error) {
	n, ok := s.items[id]
	if !ok || n.UserID != userID {
		return nil, notes.ErrNotFound
	}
	return n, nil
}

func (s *fakeNotes) List(ctx context.Context, userID uuid.UUID) ([]*notes.Note, error) {
	var out []*notes.Note
	for _, n := range s.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *fakeNotes) Update(ctx context.Context, userID, id uuid.UUID, title, content string) (*notes.Note, error) {
	n, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	n.Title, n.Content = title, content
	return n, nil
}

func (s *fakeNotes) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	delete(s.items, id)
	return nil
}

type app struct {
	users  *fakeUsers
	tokens *fakeTokens
	notes  *fakeNotes
	router http.Handler
}

func newApp() *app {
	users := &fakeUsers{byEmail: make(map[string]*directory.User)}
	tokens := &fakeTokens{users: users, byHash: make(map[string]*accesstoken.Token)}
	store := &fakeNotes{items: make(map[uuid.UUID]*notes.Note)}
	cfg := notes.Config{BcryptCost: bcryptMinCost}
	return &app{
		users:  users,
		tokens: tokens,
		notes:  store,
		router: notes.Router(cfg, users, tokens, store),
	}
}

func (a *app) do(method, target, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// register runs the register endpoint and returns the issued token.
func (a *app) register(t *testing.T, email string) string {
	t.Helper()

	rec := a.do("POST", "/register", "", `{"name":"Ada","email":"`+email+`","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("creates a user and issues a token", func(t *testing.T) {
		t.Parallel()

		a := newApp()
		token := a.register(t, "ada@acme.test")

		user := a.users.byEmail["ada@acme.test"]
		require.NotNil(t, user)
		assert.Equal(t, directory.RoleUser, user.Role)
		assert.NoError(t, password.Verify(user.PasswordHash, "s3cret-pass"))

		// The issued token authenticates immediately.
		rec := a.do("GET", "/notes", token, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		t.Parallel()

		a := newApp()
		a.register(t, "ada@acme.test")

		rec := a.do("POST", "/register", "", `{"email":"ada@acme.test","password":"other"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("password hash never leaves the server", func(t *testing.T) {
		t.Parallel()

		a := newApp()
		rec := a.do("POST", "/register", "", `{"email":"ada@acme.test","password":"s3cret-pass"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.NotContains(t, rec.Body.String(), "password")
		assert.NotContains(t, rec.Body.String(), "$2a$")
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		t.Parallel()

		a := newApp()
		rec := a.do("POST", "/register", "", `{"email":"ada@acme.test"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("valid credentials issue a fresh token", func(t *testing.T) {
		t.Parallel()

		a := newApp()
		a.register(t, "ada@acme.test")

		rec := a.do("POST", "/login", "", `{"email":"ada@acme.test","password":"s3cret-pass"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, http.StatusOK, a.do("GET", "/notes", resp.Token, "").Code)
	})

	t.Run("wrong password and unknown email look identical", func(t *testing.T) {
		t.Parallel()

		a := newApp()
		a.register(t, "ada@acme.test")

		wrongPassword := a.do("POST", "/login", "", `{"email":"ada@acme.test","password":"wrong"}`)
		unknownEmail := a.do("POST", "/login", "", `{"email":"ghost@acme.test","password":"s3cret-pass"}`)

		assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
		assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
		assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()

	a := newApp()
	token := a.register(t, "ada@acme.test")

	require.Equal(t, http.StatusOK, a.do("POST", "/logout", token, "").Code)

	// The revoked token no longer authenticates.
	assert.Equal(t, http.StatusUnauthorized, a.do("GET", "/notes", token, "").Code)
}

func TestNotes(t *testing.T) {
	t.Parallel()

	t.Run("requires authentication", func(t *testing.T) {
		t.Parallel()

		a := newApp()
		assert.Equal(t, http.StatusUnauthorized, a.do("GET", "/notes", "", "").Code)
		assert.Equal(t, http.StatusUnauthorized, a.do("POST", "/notes", "", `{"title":"x"}`).Code)
	})

	t.Run("full crud cycle", func(t *testing.T) {
		t.Parallel()

		a := newApp()
		token := a.register(t, "ada@acme.test")

		rec := a.do("POST", "/notes", token, `{"title":"Groceries","content":"milk"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var created notes.Note
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

		rec = a.do("GET", "/notes/"+created.ID.String(), token, "")
		require.Equal(t, http.StatusOK, rec.Code)

		rec = a.do("PUT", "/notes/"+created.ID.String(), token, `{"title":"Groceries","content":"milk, eggs"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "eggs")

		rec = a.do("DELETE", "/notes/"+created.ID.String(), token, "")
		require.Equal(t, http.StatusOK, rec.Code)

		rec = a.do("GET", "/notes/"+created.ID.String(), token, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("another user's note reads as not found", func(t *testing.T) {
		t.Parallel()

		a := newApp()
		adaToken := a.register(t, "ada@acme.test")
		bobToken := a.register(t, "bob@acme.test")

		rec := a.do("POST", "/notes", adaToken, `{"title":"private","content":"diary"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var created notes.Note
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

		assert.Equal(t, http.StatusNotFound, a.do("GET", "/notes/"+created.ID.String(), bobToken, "").Code)
		assert.Equal(t, http.StatusNotFound, a.do("DELETE", "/notes/"+created.ID.String(), bobToken, "").Code)

		rec = a.do("GET", "/notes", bobToken, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "private")
	})

	t.Run("create requires a title", func(t *testing.T) {
		t.Parallel()

		a := newApp()
		token := a.register(t, "ada@acme.test")
		assert.Equal(t, http.StatusUnprocessableEntity, a.do("POST", "/notes", token, `{"content":"no title"}`).Code)
	})
}
