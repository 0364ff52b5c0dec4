package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goware/urlx"
	log "github.com/sirupsen/logrus"

	"github.com/jointwt/unfollow"
	"github.com/jointwt/unfollow/types"
)

const (
	// errCodeSuspended is returned by `users/show` for suspended accounts
	errCodeSuspended = 63
)

var (
	// DefaultUserAgent ...
	DefaultUserAgent = fmt.Sprintf("unfollow/%s", unfollow.FullVersion())

	// ErrUnauthorized ...
	ErrUnauthorized = errors.New("error: authorization failed")

	// ErrNotFound is matched by 404s and by suspended account errors
	ErrNotFound = errors.New("error: not found")

	// ErrServerError
	ErrServerError = errors.New("error: server error")

	// ErrMissingCredentials ...
	ErrMissingCredentials = errors.New("error: missing API credentials")
)

// APIError is returned for any non-2xx response
type APIError struct {
	StatusCode int
	Errors     []types.ErrorDetail
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound || e.hasCode(errCodeSuspended)
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrServerError:
		return e.StatusCode >= http.StatusInternalServerError
	}
	if t, ok := target.(*APIError); ok {
		return t.StatusCode == e.StatusCode
	}
	return false
}

func (e *APIError) hasCode(code int) bool {
	for _, detail := range e.Errors {
		if detail.Code == code {
			return true
		}
	}
	return false
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf(
			"error: api returned %d: %s (code %d)",
			e.StatusCode, e.Errors[0].Message, e.Errors[0].Code,
		)
	}
	return fmt.Sprintf("error: api returned %d", e.StatusCode)
}

// Client ...
type Client struct {
	BaseURL   *url.URL
	Config    *Config
	UserAgent string

	httpClient *http.Client
}

// NewClient ...
func NewClient(options ...Option) (*Client, error) {
	config := NewConfig()

	for _, opt := range options {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	u, err := urlx.Parse(config.URI)
	if err != nil {
		return nil, fmt.Errorf("error parsing api uri: %w", err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	httpClient, err := newHTTPClient(config)
	if err != nil {
		return nil, err
	}

	cli := &Client{
		BaseURL:    u,
		Config:     config,
		UserAgent:  DefaultUserAgent,
		httpClient: httpClient,
	}

	return cli, nil
}

func (c *Client) newRequest(method, path string, params url.Values) (*http.Request, error) {
	path = strings.TrimPrefix(path, "/")
	rel := &url.URL{Path: path}
	u := c.BaseURL.ResolveReference(rel)

	var body io.Reader
	switch method {
	case http.MethodGet:
		u.RawQuery = params.Encode()
	default:
		body = strings.NewReader(params.Encode())
	}

	req, err := http.NewRequest(method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)
	return req, nil
}

func (c *Client) do(req *http.Request, v interface{}) error {
	log.Debugf("%s %s", req.Method, req.URL.Path)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{StatusCode: res.StatusCode}
		data, err := ioutil.ReadAll(res.Body)
		if err == nil {
			var payload types.ErrorResponse
			if json.Unmarshal(data, &payload) == nil {
				apiErr.Errors = payload.Errors
			}
		}
		return apiErr
	}

	return json.NewDecoder(res.Body).Decode(v)
}

// FollowerIDs returns the ids of the accounts following screenName, as
// returned by a single `followers/ids` page
func (c *Client) FollowerIDs(screenName string) ([]string, error) {
	params := url.Values{}
	params.Set("screen_name", screenName)
	params.Set("stringify_ids", "true")
	params.Set("count", strconv.Itoa(MaxFollowerIDs))

	req, err := c.newRequest(http.MethodGet, "followers/ids.json", params)
	if err != nil {
		return nil, err
	}

	var res types.IDs
	if err := c.do(req, &res); err != nil {
		return nil, err
	}
	if res.IDs == nil {
		res.IDs = []string{}
	}
	return res.IDs, nil
}

// LookupUsers resolves up to MaxLookupSize ids in a single request.
// Suspended, deleted and invalid ids are silently omitted upstream; when
// none of them resolve the API answers 404.
func (c *Client) LookupUsers(ids []string) (types.Users, error) {
	params := url.Values{}
	params.Set("user_id", strings.Join(ids, ","))
	params.Set("include_entities", "false")
	return c.lookup(params)
}

// LookupScreenNames resolves handles in a single request
func (c *Client) LookupScreenNames(handles ...string) (types.Users, error) {
	params := url.Values{}
	params.Set("screen_name", strings.Join(handles, ","))
	params.Set("include_entities", "false")
	return c.lookup(params)
}

func (c *Client) lookup(params url.Values) (types.Users, error) {
	req, err := c.newRequest(http.MethodPost, "users/lookup.json", params)
	if err != nil {
		return nil, err
	}

	var res types.Users
	if err := c.do(req, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// ShowUser resolves a single id
func (c *Client) ShowUser(id string) (types.User, error) {
	params := url.Values{}
	params.Set("user_id", id)
	params.Set("include_entities", "false")

	req, err := c.newRequest(http.MethodGet, "users/show.json", params)
	if err != nil {
		return types.User{}, err
	}

	var res types.User
	if err := c.do(req, &res); err != nil {
		return types.User{}, err
	}
	return res, nil
}
