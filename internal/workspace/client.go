// Package workspace is the client for the container and course endpoints
// of the backend.
package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/zulandar/educode/internal/models"
)

var (
	// ErrNotFound is returned when the backend has no such container.
	ErrNotFound = errors.New("workspace: container not found")
	// ErrSingleKey is returned when an update does not carry exactly one
	// field.
	ErrSingleKey = errors.New("workspace: update must carry exactly one field")
	// ErrRejected is returned when the backend answers success=false.
	ErrRejected = errors.New("workspace: request rejected")
)

// cacheCleanupInterval is how often expired cache entries are purged.
const cacheCleanupInterval = 5 * time.Minute

// ClientOpts holds parameters for creating a Client.
type ClientOpts struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration    // zero disables caching
	Now      func() time.Time // for LastRunAgo; defaults to time.Now
}

// Client talks to /api/containers and /api/courses.
type Client struct {
	base  string
	http  *http.Client
	cache *gocache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewClient creates a Client.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("workspace: client: base URL is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		base:  strings.TrimRight(opts.BaseURL, "/"),
		http:  &http.Client{Timeout: opts.Timeout},
		cache: gocache.New(opts.CacheTTL, cacheCleanupInterval),
		ttl:   opts.CacheTTL,
		now:   now,
	}, nil
}

// envelope is the response shape of every backend endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func containerKey(id string) string { return "container:" + id }

// Get returns a container, served from cache when fresh.
func (c *Client) Get(ctx context.Context, id string) (*models.Container, error) {
	if v, ok := c.cache.Get(containerKey(id)); ok {
		if ct, ok := v.(models.Container); ok {
			log.Debug().Str("container", id).Msg("workspace: cache hit")
			return c.withAgo(ct), nil
		}
	}

	var ct models.Container
	if err := c.do(ctx, http.MethodGet, "/api/containers/"+url.PathEscape(id), nil, &ct); err != nil {
		return nil, err
	}
	if c.ttl > 0 {
		c.cache.Set(containerKey(id), ct, c.ttl)
	}
	return c.withAgo(ct), nil
}

// Update sends a single-field change. fields must hold exactly one key.
func (c *Client) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) != 1 {
		return ErrSingleKey
	}
	defer c.Invalidate(id)
	return c.do(ctx, http.MethodPatch, "/api/containers/"+url.PathEscape(id), fields, nil)
}

// List returns every container.
func (c *Client) List(ctx context.Context) ([]models.Container, error) {
	var cs []models.Container
	if err := c.do(ctx, http.MethodGet, "/api/containers", nil, &cs); err != nil {
		return nil, err
	}
	for i := range cs {
		cs[i] = *c.withAgo(cs[i])
	}
	return cs, nil
}

// Create asks the backend for a new container.
func (c *Client) Create(ctx context.Context, name string) (*models.Container, error) {
	var body any
	if name != "" {
		body = map[string]string{"name": name}
	}
	var ct models.Container
	if err := c.do(ctx, http.MethodPost, "/api/containers", body, &ct); err != nil {
		return nil, err
	}
	return c.withAgo(ct), nil
}

// Action runs start, stop or restart on a container.
func (c *Client) Action(ctx context.Context, id, action string) (*models.Container, error) {
	defer c.Invalidate(id)
	var ct models.Container
	path := "/api/containers/" + url.PathEscape(id) + "/" + url.PathEscape(action)
	if err := c.do(ctx, http.MethodPost, path, nil, &ct); err != nil {
		return nil, err
	}
	return c.withAgo(ct), nil
}

// Delete removes a container.
func (c *Client) Delete(ctx context.Context, id string) error {
	defer c.Invalidate(id)
	return c.do(ctx, http.MethodDelete, "/api/containers/"+url.PathEscape(id), nil, nil)
}

// Invalidate drops the cached copy of a container.
func (c *Client) Invalidate(id string) {
	c.cache.Delete(containerKey(id))
}

// Courses returns the course cards.
func (c *Client) Courses(ctx context.Context) ([]models.Course, error) {
	var cs []models.Course
	if err := c.do(ctx, http.MethodGet, "/api/courses", nil, &cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// AddCourse appends a placeholder course card.
func (c *Client) AddCourse(ctx context.Context) (*models.Course, error) {
	var card models.Course
	if err := c.do(ctx, http.MethodPost, "/api/courses", nil, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (c *Client) withAgo(ct models.Container) *models.Container {
	ct.LastRunAgo = TimeAgo(ct.LastRunAt, c.now())
	return &ct
}

// do sends a JSON request and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "workspace: encode %s %s", method, path)
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return errors.Wrapf(err, "workspace: build %s %s", method, path)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "workspace: %s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errors.Wrap(ErrNotFound, path)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return errors.Wrapf(err, "workspace: %s %s: status %d", method, path, resp.StatusCode)
	}
	if !env.Success || resp.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return errors.Wrapf(ErrRejected, "%s %s: %s", method, path, msg)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errors.Wrapf(err, "workspace: decode %s %s", method, path)
		}
	}
	return nil
}
