// Package studio talks to the Studio REST API of a content repository.
package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
)

var logger = logging.Logger("datasheet/studio")

const (
	apiContentTypes  = "/studio/api/1/services/api/1/content/get-content-types.json"
	apiConfiguration = "/studio/api/2/configuration/get_configuration"
	apiSearch        = "/studio/api/2/search/search.json"
	apiGetContent    = "/studio/api/1/services/api/1/content/get-content.json"
	apiWriteContent  = "/studio/api/1/services/api/1/content/write-content.json"
	apiMe            = "/studio/api/2/users/me.json"
	apiUnlock        = "/studio/api/1/services/api/1/content/unlock-content.json"
	apiSandboxItems  = "/studio/api/2/content/sandbox_items_by_path"
)

var (
	// ErrNotFound is matched by errors for missing items, types and configuration.
	ErrNotFound = errors.New("not found")
	ErrNoSite   = errors.New("no site configured")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// Config points a Client at a Studio instance.
type Config struct {
	BaseURL string
	Site    string
	// Token is sent as a bearer token when set.
	Token   string
	Timeout time.Duration
	// HTTPClient replaces the default client, mostly for tests.
	HTTPClient *http.Client
}

// Client implements sheet.ContentService against one site.
type Client struct {
	baseURL string
	site    string
	token   string
	client  *http.Client
}

// New creates a client for cfg.
func New(cfg Config) (*Client, error) {
	if cfg.Site == "" {
		return nil, ErrNoSite
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid studio url %q", cfg.BaseURL)
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		site:    cfg.Site,
		token:   cfg.Token,
		client:  client,
	}, nil
}

// Site returns the site the client works against.
func (c *Client) Site() string {
	return c.site
}

// ContentTypes lists the content types of the site.
func (c *Client) ContentTypes(ctx context.Context) ([]models.ContentType, error) {
	var out []models.ContentType
	q := url.Values{"site": {c.site}}
	if err := c.do(ctx, http.MethodGet, apiContentTypes, q, nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FormDefinition returns the form-definition.xml of a content type.
func (c *Client) FormDefinition(ctx context.Context, contentType string) (string, error) {
	var out struct {
		Content string `json:"content"`
	}
	q := url.Values{
		"module": {"studio"},
		"path":   {"/content-types" + contentType + "/form-definition.xml"},
		"siteId": {c.site},
	}
	if err := c.do(ctx, http.MethodGet, apiConfiguration, q, nil, "", &out); err != nil {
		return "", err
	}
	return out.Content, nil
}

type searchRequest struct {
	Query     string         `json:"query"`
	Keywords  string         `json:"keywords"`
	Offset    int            `json:"offset"`
	Limit     int            `json:"limit"`
	SortBy    string         `json:"sortBy"`
	SortOrder string         `json:"sortOrder"`
	Filters   map[string]any `json:"filters"`
}

type dateFilter struct {
	Date bool   `json:"date"`
	ID   string `json:"id"`
	Min  string `json:"min,omitempty"`
	Max  string `json:"max,omitempty"`
}

type searchResponse struct {
	Result struct {
		Total int `json:"total"`
		Items []struct {
			Path         string `json:"path"`
			Name         string `json:"name"`
			LastModified string `json:"lastModified"`
		} `json:"items"`
	} `json:"result"`
}

// Search returns one page of items of a content type, best match first.
func (c *Client) Search(ctx context.Context, req models.SearchRequest) (models.SearchResult, error) {
	filters := map[string]any{"content-type": req.ContentType}
	if df := req.DateFilter; df != nil {
		f := dateFilter{Date: true, ID: df.ID}
		if !df.Min.IsZero() {
			f.Min = df.Min.UTC().Format(time.RFC3339)
		}
		if !df.Max.IsZero() {
			f.Max = df.Max.UTC().Format(time.RFC3339)
		}
		filters["last-edit-date"] = f
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	body, err := json.Marshal(searchRequest{
		Keywords:  req.Keyword,
		Offset:    req.Offset,
		Limit:     limit,
		SortBy:    "_score",
		SortOrder: "desc",
		Filters:   filters,
	})
	if err != nil {
		return models.SearchResult{}, err
	}

	var out searchResponse
	q := url.Values{"siteId": {c.site}}
	if err := c.do(ctx, http.MethodPost, apiSearch, q, bytes.NewReader(body), "application/json", &out); err != nil {
		return models.SearchResult{}, err
	}

	result := models.SearchResult{Total: out.Result.Total, Items: make([]models.SearchItem, 0, len(out.Result.Items))}
	for _, item := range out.Result.Items {
		// Unparseable dates are left zero.
		edited, _ := time.Parse(time.RFC3339, item.LastModified)
		result.Items = append(result.Items, models.SearchItem{
			Path:         item.Path,
			Name:         item.Name,
			LastEditDate: edited,
		})
	}
	return result, nil
}

// GetContent returns the document stored at itemPath.
func (c *Client) GetContent(ctx context.Context, itemPath string) (string, error) {
	var out struct {
		Content string `json:"content"`
	}
	q := url.Values{"edit": {"false"}, "site_id": {c.site}, "path": {itemPath}}
	if err := c.do(ctx, http.MethodGet, apiGetContent, q, nil, "", &out); err != nil {
		return "", err
	}
	return out.Content, nil
}

// WriteContent stores a document and releases the edit lock on it.
func (c *Client) WriteContent(ctx context.Context, itemPath, content, contentType string) error {
	q := url.Values{
		"site":        {c.site},
		"phase":       {"onSave"},
		"path":        {itemPath},
		"fileName":    {path.Base(itemPath)},
		"contentType": {contentType},
		"unlock":      {"true"},
	}
	return c.do(ctx, http.MethodPost, apiWriteContent, q, strings.NewReader(content), "text/plain; charset=utf-8", nil)
}

// lockOwner decodes either a bare username or a user object.
type lockOwner string

func (l *lockOwner) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*l = lockOwner(name)
		return nil
	}
	var user struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(data, &user); err != nil {
		return fmt.Errorf("unexpected lockOwner %s", data)
	}
	*l = lockOwner(user.Username)
	return nil
}

// ItemMeta returns the sandbox metadata of itemPath.
func (c *Client) ItemMeta(ctx context.Context, itemPath string) (*models.ItemMeta, error) {
	body, err := json.Marshal(map[string]any{
		"siteId":        c.site,
		"paths":         []string{itemPath},
		"preferContent": true,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Items []struct {
			Path      string    `json:"path"`
			LockOwner lockOwner `json:"lockOwner"`
		} `json:"items"`
	}
	if err := c.do(ctx, http.MethodPost, apiSandboxItems, nil, bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("%s: %w", itemPath, ErrNotFound)
	}
	return &models.ItemMeta{LockOwner: string(out.Items[0].LockOwner)}, nil
}

// Unlock releases the edit lock on itemPath.
func (c *Client) Unlock(ctx context.Context, itemPath string) error {
	q := url.Values{"site": {c.site}, "path": {itemPath}}
	return c.do(ctx, http.MethodGet, apiUnlock, q, nil, "", nil)
}

// CurrentUser returns the username the client is authenticated as.
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	var out struct {
		AuthenticatedUser struct {
			Username string `json:"username"`
		} `json:"authenticatedUser"`
	}
	if err := c.do(ctx, http.MethodGet, apiMe, nil, nil, "", &out); err != nil {
		return "", err
	}
	return out.AuthenticatedUser.Username, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body io.Reader, contentType string, out any) error {
	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()
	logger.Debugw("studio request", "method", method, "endpoint", endpoint, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			Method:     method,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}
