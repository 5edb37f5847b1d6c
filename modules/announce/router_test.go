package announce_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearspace-io/tenantry/modules/announce"
	"github.com/clearspace-io/tenantry/pkg/accesstoken"
)

type fakeStore struct {
	items map[uuid.UUID]*announce.Announcement
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: make(map[uuid.UUID]*announce.Announcement)}
}

func (s *fakeStore) Create(ctx context.Context, p announce.CreateParams) (*announce.Announcement, error) {
	if !p.Status.Valid() {
		return nil, announce.ErrInvalidStatus
	}
	a := &announce.Announcement{
		ID:      uuid.New(),
		UserID:  p.UserID,
		Title:   p.Title,
		Content: p.Content,
		Status:  p.Status,
	}
	s.items[a.ID] = a
	return a, nil
}

func (s *fakeStore) Get(ctx context.Context, id uuid.UUID) (*announce.Announcement, error) {
	if a, ok := s.items[id]; ok {
		return a, nil
	}
	return nil, announce.ErrNotFound
}

func (s *fakeStore) List(ctx context.Context, status announce.Status, userID uuid.UUID) ([]*announce.Announcement, error) {
	var out []*announce.Announcement
	for _, a := range s.items {
		if status != "" && a.Status != status {
			continue
		}
		if userID != uuid.Nil && a.UserID != userID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *fakeStore) Update(ctx context.Context, id uuid.UUID, p announce.UpdateParams) (*announce.Announcement, error) {
	a, ok := s.items[id]
	if !ok {
		return nil, announce.ErrNotFound
	}
	if !p.Status.Valid() {
		return nil, announce.ErrInvalidStatus
	}
	a.Title, a.Content, a.Status = p.Title, p.Content, p.Status
	return a, nil
}

func (s *fakeStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.items[id]; !ok {
		return announce.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// as sends a request with the given identity already in context, the way
// the authentication middleware would leave it.
func as(identity *accesstoken.Identity, method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if identity != nil {
		req = req.WithContext(accesstoken.WithIdentity(req.Context(), identity))
	}
	return req
}

func TestRouter(t *testing.T) {
	t.Parallel()

	author := &accesstoken.Identity{UserID: uuid.New(), Role: "user"}
	admin := &accesstoken.Identity{UserID: uuid.New(), Role: "admin"}
	stranger := &accesstoken.Identity{UserID: uuid.New(), Role: "user"}

	t.Run("create and get", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		router := announce.Router(store)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, as(author, "POST", "/", `{"title":"Maintenance","content":"Friday","status":"published"}`))
		require.Equal(t, http.StatusCreated, rec.Code)

		require.Len(t, store.items, 1)
		for id, a := range store.items {
			assert.Equal(t, author.UserID, a.UserID)

			rec = httptest.NewRecorder()
			router.ServeHTTP(rec, as(author, "GET", "/"+id.String(), ""))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), "Maintenance")
		}
	})

	t.Run("create without title is rejected", func(t *testing.T) {
		t.Parallel()

		router := announce.Router(newFakeStore())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, as(author, "POST", "/", `{"content":"no title"}`))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("create with unknown status is rejected", func(t *testing.T) {
		t.Parallel()

		router := announce.Router(newFakeStore())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, as(author, "POST", "/", `{"title":"x","status":"bogus"}`))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("list filters by status", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		_, err := store.Create(context.Background(), announce.CreateParams{
			UserID: author.UserID, Title: "live", Status: announce.StatusPublished,
		})
		require.NoError(t, err)
		_, err = store.Create(context.Background(), announce.CreateParams{
			UserID: author.UserID, Title: "hidden", Status: announce.StatusDraft,
		})
		require.NoError(t, err)

		router := announce.Router(store)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, as(author, "GET", "/?status=published", ""))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "live")
		assert.NotContains(t, rec.Body.String(), "hidden")
	})

	t.Run("my lists only the caller's announcements", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		_, err := store.Create(context.Background(), announce.CreateParams{
			UserID: author.UserID, Title: "mine", Status: announce.StatusDraft,
		})
		require.NoError(t, err)
		_, err = store.Create(context.Background(), announce.CreateParams{
			UserID: stranger.UserID, Title: "theirs", Status: announce.StatusDraft,
		})
		require.NoError(t, err)

		router := announce.Router(store)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, as(author, "GET", "/my", ""))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "mine")
		assert.NotContains(t, rec.Body.String(), "theirs")
	})

	t.Run("only author or admin may modify", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		a, err := store.Create(context.Background(), announce.CreateParams{
			UserID: author.UserID, Title: "post", Status: announce.StatusDraft,
		})
		require.NoError(t, err)
		router := announce.Router(store)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, as(stranger, "PUT", "/"+a.ID.String(), `{"title":"hijack"}`))
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, as(author, "PUT", "/"+a.ID.String(), `{"title":"edited"}`))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "edited", store.items[a.ID].Title)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, as(stranger, "DELETE", "/"+a.ID.String(), ""))
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, as(admin, "DELETE", "/"+a.ID.String(), ""))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, store.items)
	})

	t.Run("unknown and malformed ids are not found", func(t *testing.T) {
		t.Parallel()

		router := announce.Router(newFakeStore())

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, as(author, "GET", "/"+uuid.New().String(), ""))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, as(author, "GET", "/not-a-uuid", ""))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
