package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/robtrove/TroveCRM/internal/domain"
	"github.com/robtrove/TroveCRM/internal/usecase"
)

const (
	defaultTimeout = 10 * time.Second
	apiPrefix      = "/api/v1"
)

// Client talks to the table API of a TroveCRM server.
type Client struct {
	client    *http.Client
	server    string
	token     string
	userAgent string
}

func New(server, token string) *Client {
	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	c := &Client{
		client:    &httpClient,
		server:    strings.TrimRight(server, "/"),
		token:     token,
		userAgent: "trovecrm-cli",
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return http.DefaultTransport.RoundTrip(req)
}

func (c *Client) SetToken(token string) {
	c.token = token
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

// HttpRequest sends body as JSON and decodes a JSON response into response
// when it is non-nil. Error statuses map onto the domain error taxonomy.
func (c *Client) HttpRequest(ctx context.Context, method, path string, body any, response any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if response == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return domain.PersistenceError{Op: method + " " + path, Err: errors.Wrap(err, "failed to decode response")}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode request")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.server+path, reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.PersistenceError{Op: method + " " + path, Err: err}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, statusError(method+" "+path, resp)
}

func statusError(op string, resp *http.Response) error {
	var e errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&e)
	if e.Error == "" {
		e.Error = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return domain.ValidationError{Field: e.Field, Message: e.Error}
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusNotFound:
		return notFound(e.Error)
	}
	return domain.PersistenceError{Op: op, Err: fmt.Errorf("unexpected status code: %d: %s", resp.StatusCode, e.Error)}
}

// notFound rebuilds the server's NotFoundError from its "<resource> <id> not found" text.
func notFound(msg string) error {
	subject, ok := strings.CutSuffix(msg, " not found")
	if !ok || subject == "" {
		return domain.NotFoundError{}
	}
	resource, id, _ := strings.Cut(subject, " ")
	return domain.NotFoundError{Resource: resource, ID: id}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login opens a session and uses its token for subsequent requests.
func (c *Client) Login(ctx context.Context, username, password string) (domain.Session, error) {
	var session domain.Session
	err := c.HttpRequest(ctx, http.MethodPost, apiPrefix+"/login", loginRequest{Username: username, Password: password}, &session)
	if err != nil {
		return domain.Session{}, err
	}
	c.token = session.Token
	return session, nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.HttpRequest(ctx, http.MethodPost, apiPrefix+"/logout", nil, nil)
	c.token = ""
	return err
}

func (c *Client) Session(ctx context.Context) (domain.Session, error) {
	var session domain.Session
	err := c.HttpRequest(ctx, http.MethodGet, apiPrefix+"/session", nil, &session)
	return session, err
}

func (c *Client) UpdatePreferences(ctx context.Context, prefs domain.Preferences) (domain.Session, error) {
	var session domain.Session
	err := c.HttpRequest(ctx, http.MethodPut, apiPrefix+"/session/preferences", prefs, &session)
	return session, err
}

func (c *Client) MoveDeal(ctx context.Context, id, stage string) (domain.Deal, error) {
	var deal domain.Deal
	err := c.HttpRequest(ctx, http.MethodPost, apiPrefix+"/deals/"+url.PathEscape(id)+"/move", map[string]string{"stage": stage}, &deal)
	return deal, err
}

func (c *Client) Dashboard(ctx context.Context, currency string) (usecase.Dashboard, error) {
	var d usecase.Dashboard
	path := apiPrefix + "/dashboard"
	if currency != "" {
		path += "?" + url.Values{"currency": {currency}}.Encode()
	}
	err := c.HttpRequest(ctx, http.MethodGet, path, nil, &d)
	return d, err
}

func (c *Client) CreateUser(ctx context.Context, user domain.User, password string) (domain.User, error) {
	body := map[string]any{
		"username": user.Username,
		"name":     user.Name,
		"email":    user.Email,
		"role":     user.Role,
		"password": password,
	}
	var created domain.User
	err := c.HttpRequest(ctx, http.MethodPost, apiPrefix+"/users", body, &created)
	return created, err
}

// Export streams the CSV export of a collection into w.
func (c *Client) Export(ctx context.Context, collection string, query url.Values, w io.Writer) error {
	path := apiPrefix + "/" + collection + "/export.csv"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(w, resp.Body); err != nil {
		return domain.PersistenceError{Op: "export " + collection, Err: err}
	}
	return nil
}
