package studio

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(Config{BaseURL: server.URL + "/", Site: "editorial", Token: "secret"})
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	_, err := New(Config{BaseURL: "http://localhost:8080"})
	assert.ErrorIs(t, err, ErrNoSite)

	_, err = New(Config{BaseURL: "localhost", Site: "s"})
	assert.Error(t, err)

	c, err := New(Config{BaseURL: "http://localhost:8080/", Site: "s"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.baseURL)
	assert.Equal(t, "s", c.Site())
}

func TestClient_ContentTypes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, apiContentTypes, r.URL.Path)
		assert.Equal(t, "editorial", r.URL.Query().Get("site"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"name":"/page/article","label":"Article","extra":1},{"name":"/component/feature","label":"Feature"}]`))
	})

	types, err := c.ContentTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.ContentType{
		{Name: "/page/article", Label: "Article"},
		{Name: "/component/feature", Label: "Feature"},
	}, types)
}

func TestClient_FormDefinition(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "studio", q.Get("module"))
		assert.Equal(t, "/content-types/page/article/form-definition.xml", q.Get("path"))
		assert.Equal(t, "editorial", q.Get("siteId"))
		json.NewEncoder(w).Encode(map[string]string{"content": "<form/>"})
	})

	def, err := c.FormDefinition(context.Background(), "/page/article")
	require.NoError(t, err)
	assert.Equal(t, "<form/>", def)
}

func TestClient_Search(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "editorial", r.URL.Query().Get("siteId"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "news", body["keywords"])
		assert.Equal(t, float64(9), body["offset"])
		assert.Equal(t, float64(9), body["limit"])
		assert.Equal(t, "_score", body["sortBy"])
		filters := body["filters"].(map[string]any)
		assert.Equal(t, "/page/article", filters["content-type"])
		date := filters["last-edit-date"].(map[string]any)
		assert.Equal(t, true, date["date"])
		assert.Equal(t, "week", date["id"])
		assert.Equal(t, "2024-01-01T00:00:00Z", date["min"])
		_, hasMax := date["max"]
		assert.False(t, hasMax)

		w.Write([]byte(`{"result":{"total":12,"items":[
			{"path":"/site/website/a/index.xml","name":"a","lastModified":"2024-01-03T10:00:00Z"},
			{"path":"/site/website/b/index.xml","name":"b","lastModified":"garbage"}]}}`))
	})

	res, err := c.Search(context.Background(), models.SearchRequest{
		ContentType: "/page/article",
		Keyword:     "news",
		DateFilter:  &models.DateRange{ID: "week", Min: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		Offset:      9,
		Limit:       9,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, res.Total)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "/site/website/a/index.xml", res.Items[0].Path)
	assert.Equal(t, 2024, res.Items[0].LastEditDate.Year())
	assert.True(t, res.Items[1].LastEditDate.IsZero())
}

func TestClient_GetAndWriteContent(t *testing.T) {
	var written string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case apiGetContent:
			assert.Equal(t, "false", q.Get("edit"))
			assert.Equal(t, "editorial", q.Get("site_id"))
			assert.Equal(t, "/site/website/a/index.xml", q.Get("path"))
			json.NewEncoder(w).Encode(map[string]string{"content": "<page/>"})
		case apiWriteContent:
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "onSave", q.Get("phase"))
			assert.Equal(t, "index.xml", q.Get("fileName"))
			assert.Equal(t, "/page/article", q.Get("contentType"))
			assert.Equal(t, "true", q.Get("unlock"))
			b, _ := io.ReadAll(r.Body)
			written = string(b)
			w.Write([]byte(`{"result":"ok"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	ctx := context.Background()
	content, err := c.GetContent(ctx, "/site/website/a/index.xml")
	require.NoError(t, err)
	assert.Equal(t, "<page/>", content)

	require.NoError(t, c.WriteContent(ctx, "/site/website/a/index.xml", "<page>new</page>", "/page/article"))
	assert.Equal(t, "<page>new</page>", written)
}

func TestClient_ItemMeta(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		wantErr  error
	}{
		{name: "string owner", response: `{"items":[{"path":"/a","lockOwner":"jane"}]}`, want: "jane"},
		{name: "object owner", response: `{"items":[{"path":"/a","lockOwner":{"username":"sam","id":4}}]}`, want: "sam"},
		{name: "null owner", response: `{"items":[{"path":"/a","lockOwner":null}]}`, want: ""},
		{name: "no items", response: `{"items":[]}`, wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				var body struct {
					SiteID        string   `json:"siteId"`
					Paths         []string `json:"paths"`
					PreferContent bool     `json:"preferContent"`
				}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "editorial", body.SiteID)
				assert.Equal(t, []string{"/a"}, body.Paths)
				assert.True(t, body.PreferContent)
				w.Write([]byte(tt.response))
			})

			meta, err := c.ItemMeta(context.Background(), "/a")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, meta.LockOwner)
		})
	}
}

func TestClient_UnlockAndCurrentUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case apiUnlock:
			assert.Equal(t, "/a", r.URL.Query().Get("path"))
			w.Write([]byte(`{}`))
		case apiMe:
			w.Write([]byte(`{"authenticatedUser":{"username":"admin"}}`))
		}
	})

	ctx := context.Background()
	require.NoError(t, c.Unlock(ctx, "/a"))
	user, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin", user)
}

func TestClient_Errors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case apiGetContent:
			http.Error(w, "no such item", http.StatusNotFound)
		case apiWriteContent:
			http.Error(w, "locked by someone else", http.StatusConflict)
		default:
			w.Write([]byte(`not json`))
		}
	})
	ctx := context.Background()

	_, err := c.GetContent(ctx, "/missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = c.WriteContent(ctx, "/a", "<page/>", "/page/article")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusConflict, statusErr.StatusCode)
	assert.Contains(t, statusErr.Error(), "locked by someone else")
	assert.False(t, errors.Is(err, ErrNotFound))

	_, err = c.FormDefinition(ctx, "/page/article")
	assert.Error(t, err)
}
