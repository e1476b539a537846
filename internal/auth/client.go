package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ClientOpts holds parameters for creating a Client.
type ClientOpts struct {
	BaseURL string
	Timeout time.Duration
}

// Client checks credentials against GET {base}/users. Cookies set by the
// backend are kept for later requests.
type Client struct {
	base string
	http *http.Client
}

var _ Verifier = (*Client)(nil)

// NewClient creates a Client with its own cookie jar.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("auth: client: base URL is required")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "auth: client: cookie jar")
	}
	return &Client{
		base: strings.TrimRight(opts.BaseURL, "/"),
		http: &http.Client{Jar: jar, Timeout: opts.Timeout},
	}, nil
}

// RejectedError is a login refused by the backend.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string { return e.Message }

// Is makes a rejection match ErrInvalidCredentials.
func (e *RejectedError) Is(target error) bool { return target == ErrInvalidCredentials }

// Verify returns nil when the backend answers 200.
func (c *Client) Verify(ctx context.Context, username, password string) error {
	q := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/users?"+q.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "auth: build request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "auth: get users")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}
	msg := http.StatusText(resp.StatusCode)
	var body struct {
		Message string `json:"message"`
	}
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
		if json.Unmarshal(data, &body) == nil && body.Message != "" {
			msg = body.Message
		}
	}
	return &RejectedError{Status: resp.StatusCode, Message: msg}
}
