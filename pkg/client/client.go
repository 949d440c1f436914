// Package client is a typed HTTP client for the garden API. It keeps the
// session cookie in a jar, so Login once and every wrapper is authenticated.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/ourgarden/backend/pkg/garden"
)

// APIError is a non-2xx response. It unwraps to the garden error taxonomy,
// so errors.Is(err, garden.ErrNotFound) works on client errors.
type APIError struct {
	Status  int
	Message string
	Field   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("garden api: %d: %s", e.Status, e.Message)
}

// Unwrap classifies by status. Upload rejections share 400 with validation
// failures and are told apart by the server's message.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusBadRequest && strings.Contains(e.Message, garden.ErrUpload.Error()) {
		return garden.ErrUpload
	}
	return garden.SentinelFor(e.Status)
}

// User is the account returned by the auth endpoints.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsActive bool   `json:"isActive"`
}

type Client struct {
	baseURL string
	http    *http.Client

	Memories *MemoryAPI
	News     *Resource[garden.News, garden.NewsDTO, garden.NewsPatch, *garden.ContentFilter]
	Journey  *Resource[garden.JourneyMilestone, garden.JourneyDTO, garden.JourneyPatch, *garden.ContentFilter]
	Profiles *Resource[garden.Profile, garden.ProfileDTO, garden.ProfilePatch, *garden.ContentFilter]
	Travel   *Resource[garden.TravelLog, garden.TravelDTO, garden.TravelPatch, *garden.ContentFilter]
	Gallery  *GalleryAPI
	Contact  *ContactAPI
}

type Option func(*Client)

// WithHTTPClient replaces the default client. Its Jar, if nil, is set so the
// session cookie is kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for the API rooted at baseURL, e.g.
// "https://garden.example/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}

	c.Memories = &MemoryAPI{Resource: newResource[garden.Memory, garden.MemoryDTO, garden.MemoryPatch, *garden.MemoryFilter](c, "/memories")}
	c.News = newResource[garden.News, garden.NewsDTO, garden.NewsPatch, *garden.ContentFilter](c, "/news")
	c.Journey = newResource[garden.JourneyMilestone, garden.JourneyDTO, garden.JourneyPatch, *garden.ContentFilter](c, "/journey")
	c.Profiles = newResource[garden.Profile, garden.ProfileDTO, garden.ProfilePatch, *garden.ContentFilter](c, "/profiles")
	c.Travel = newResource[garden.TravelLog, garden.TravelDTO, garden.TravelPatch, *garden.ContentFilter](c, "/travel")
	c.Gallery = &GalleryAPI{res: newResource[garden.GalleryImage, struct{}, garden.GalleryPatch, *garden.ContentFilter](c, "/gallery")}
	c.Contact = &ContactAPI{Resource: newResource[garden.ContactMessage, garden.ContactDTO, garden.ContactPatch, *garden.ContentFilter](c, "/contact")}
	return c, nil
}

// Login starts a session; the cookie is stored in the client's jar.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout ends the session. Without one it fails with garden.ErrAuthRequired.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

// Me returns the session user, or an error unwrapping to
// garden.ErrAuthRequired without a session.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var r io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		r = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), r)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// upload posts files under field with extra form values applied to the
// whole batch.
func (c *Client) upload(ctx context.Context, path, field string, files []garden.Upload, values map[string]string, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range values {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(field, f.Filename)
		if err != nil {
			return err
		}
		if _, err := part.Write(f.Data); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path, nil), &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("garden api: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Field = body.Field
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
