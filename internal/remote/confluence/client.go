// Package confluence implements the remote.Service contract against the
// Confluence Cloud REST API. Pages go through the v2 API; attachments and
// restrictions use the v1 content API, which still owns those operations.
package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/ardietz/confsync/internal/domain"
	"github.com/ardietz/confsync/internal/logger"
	"github.com/ardietz/confsync/internal/remote"
)

const (
	// pagesPath is the v2 endpoint for page CRUD and title queries
	pagesPath = "wiki/api/v2/pages"

	// spacesPath is the v2 endpoint resolving space keys to numeric IDs
	spacesPath = "wiki/api/v2/spaces"

	// contentPath is the v1 endpoint still used for attachments and restrictions
	contentPath = "wiki/rest/api/content"

	// findLimit bounds title queries; only the first result is used
	findLimit = 10

	defaultTimeout = 60 * time.Second
)

// Config carries the connection settings for a client
type Config struct {
	// BaseURL is the site URL, e.g. https://example.atlassian.net/
	BaseURL string

	// Username and APIToken authenticate via basic auth
	Username string
	APIToken string

	// BearerToken authenticates via OAuth 2.0 access token instead of
	// basic auth when set
	BearerToken string

	// SpaceKey identifies the target space; resolved to a numeric space
	// ID at startup
	SpaceKey string

	// RestrictedGroup is the group granted read access on restricted pages
	RestrictedGroup string

	// HTTPClient overrides the transport, mainly for tests
	HTTPClient *http.Client
}

// Client talks to one Confluence space
type Client struct {
	baseURL         string
	http            *http.Client
	username        string
	apiToken        string
	spaceID         string
	restrictedGroup string
	log             logger.Logger
}

// New creates a client and resolves the configured space key to its
// numeric space ID.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", domain.ErrConfigInvalid)
	}
	if cfg.SpaceKey == "" {
		return nil, fmt.Errorf("%w: space key is required", domain.ErrConfigInvalid)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		if cfg.BearerToken != "" {
			src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.BearerToken})
			httpClient = oauth2.NewClient(ctx, src)
			httpClient.Timeout = defaultTimeout
		} else {
			httpClient = &http.Client{Timeout: defaultTimeout}
		}
	}

	c := &Client{
		baseURL:         normalizeBaseURL(cfg.BaseURL),
		http:            httpClient,
		username:        cfg.Username,
		apiToken:        cfg.APIToken,
		restrictedGroup: cfg.RestrictedGroup,
		log:             logger.With("component", "confluence"),
	}

	spaceID, err := c.resolveSpaceID(ctx, cfg.SpaceKey)
	if err != nil {
		return nil, err
	}
	c.spaceID = spaceID

	c.log.Debug("space resolved", "space_key", cfg.SpaceKey, "space_id", spaceID)
	return c, nil
}

// normalizeBaseURL ensures exactly one trailing slash
func normalizeBaseURL(base string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/") + "/"
}

type pageBody struct {
	Representation string `json:"representation"`
	Value          string `json:"value"`
}

type pageVersion struct {
	Number int `json:"number"`
}

type page struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	ParentID string       `json:"parentId,omitempty"`
	Version  *pageVersion `json:"version,omitempty"`
	Body     *pageBody    `json:"-"`
}

type pageList struct {
	Results []page `json:"results"`
}

type space struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

type spaceList struct {
	Results []space `json:"results"`
}

// resolveSpaceID looks up the numeric space ID for a space key
func (c *Client) resolveSpaceID(ctx context.Context, key string) (string, error) {
	q := url.Values{"keys": {key}}

	var list spaceList
	if err := c.getJSON(ctx, spacesPath, q, &list); err != nil {
		return "", fmt.Errorf("resolving space %q: %w", key, err)
	}
	if len(list.Results) == 0 {
		return "", fmt.Errorf("%w: %s", domain.ErrSpaceNotFound, key)
	}
	return list.Results[0].ID, nil
}

// FindPage implements remote.Service. Matches are scoped to the space
// and, when parentID is set, to that parent. The service does not enforce
// sibling title uniqueness; the first result by creation order wins.
func (c *Client) FindPage(ctx context.Context, title, parentID string) (domain.RemotePage, error) {
	q := url.Values{
		"title":   {title},
		"spaceId": {c.spaceID},
		"status":  {"current"},
		"limit":   {fmt.Sprint(findLimit)},
	}
	if parentID != "" {
		q.Set("parentId", parentID)
	}

	var list pageList
	if err := c.getJSON(ctx, pagesPath, q, &list); err != nil {
		return domain.RemotePage{}, fmt.Errorf("%w: %v", domain.ErrLookup, err)
	}
	if len(list.Results) == 0 {
		return domain.RemotePage{}, domain.ErrNotFound
	}

	if len(list.Results) > 1 {
		c.log.Warn("multiple pages share a title under one parent, using first",
			"title", title, "parent_id", parentID, "matches", len(list.Results))
	}

	found := list.Results[0]
	rp := domain.RemotePage{
		ID:       found.ID,
		Title:    found.Title,
		ParentID: found.ParentID,
	}
	if found.Version != nil {
		rp.Version = found.Version.Number
	}
	return rp, nil
}

// GetPage implements remote.Service
func (c *Client) GetPage(ctx context.Context, pageID string) (domain.RemotePage, error) {
	var p page
	if err := c.getJSON(ctx, pagesPath+"/"+pageID, nil, &p); err != nil {
		return domain.RemotePage{}, err
	}

	rp := domain.RemotePage{ID: p.ID, Title: p.Title, ParentID: p.ParentID}
	if p.Version != nil {
		rp.Version = p.Version.Number
	}
	return rp, nil
}

type createPageRequest struct {
	SpaceID  string   `json:"spaceId"`
	Status   string   `json:"status"`
	Title    string   `json:"title"`
	ParentID string   `json:"parentId,omitempty"`
	Body     pageBody `json:"body"`
}

// CreatePage implements remote.Service
func (c *Client) CreatePage(ctx context.Context, title, parentID, body string) (string, error) {
	req := createPageRequest{
		SpaceID:  c.spaceID,
		Status:   "current",
		Title:    title,
		ParentID: parentID,
		Body:     pageBody{Representation: "storage", Value: body},
	}

	var created page
	if err := c.doJSON(ctx, http.MethodPost, pagesPath, req, &created); err != nil {
		return "", fmt.Errorf("creating page %q: %w", title, err)
	}

	c.log.Debug("page created", "title", title, "page_id", created.ID)
	return created.ID, nil
}

type updatePageRequest struct {
	ID      string      `json:"id"`
	Status  string      `json:"status"`
	Title   string      `json:"title"`
	Body    pageBody    `json:"body"`
	Version pageVersion `json:"version"`
}

// UpdatePage implements remote.Service. The v2 API requires the next
// version number on every write, so the current version is fetched first.
func (c *Client) UpdatePage(ctx context.Context, pageID, title, body string) error {
	var current page
	if err := c.getJSON(ctx, pagesPath+"/"+pageID, nil, &current); err != nil {
		return fmt.Errorf("fetching page %s before update: %w", pageID, err)
	}

	version := 1
	if current.Version != nil {
		version = current.Version.Number
	}

	req := updatePageRequest{
		ID:      pageID,
		Status:  "current",
		Title:   title,
		Body:    pageBody{Representation: "storage", Value: body},
		Version: pageVersion{Number: version + 1},
	}

	if err := c.doJSON(ctx, http.MethodPut, pagesPath+"/"+pageID, req, nil); err != nil {
		return fmt.Errorf("updating page %q: %w", title, err)
	}

	c.log.Debug("page updated", "title", title, "page_id", pageID, "version", version+1)
	return nil
}

// UploadAttachment implements remote.Service. Attachments still go
// through the v1 content API; the nocheck token header is required for
// multipart uploads.
func (c *Client) UploadAttachment(ctx context.Context, pageID, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening attachment %s: %w", path, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("reading attachment %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/%s/child/attachment", contentPath, pageID)
	req, err := c.newRequest(ctx, http.MethodPut, endpoint, nil, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Atlassian-Token", "nocheck")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.statusError(resp)
	}

	c.log.Debug("attachment uploaded", "page_id", pageID, "file", filepath.Base(path))
	return nil
}

type restriction struct {
	Operation    string              `json:"operation"`
	Restrictions restrictionSubjects `json:"restrictions"`
}

type restrictionSubjects struct {
	Group []restrictionGroup `json:"group"`
}

type restrictionGroup struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// ApplyPermission implements remote.Service. Only the restricted level
// results in an API call; it limits read access to the configured group.
func (c *Client) ApplyPermission(ctx context.Context, pageID string, perm domain.Permission) error {
	if !perm.IsRestricted() {
		return nil
	}
	if c.restrictedGroup == "" {
		return fmt.Errorf("page %s requires a restriction but no restricted group is configured", pageID)
	}

	body := []restriction{{
		Operation: "read",
		Restrictions: restrictionSubjects{
			Group: []restrictionGroup{{Type: "group", Name: c.restrictedGroup}},
		},
	}}

	endpoint := fmt.Sprintf("%s/%s/restriction", contentPath, pageID)
	if err := c.doJSON(ctx, http.MethodPut, endpoint, body, nil); err != nil {
		return fmt.Errorf("restricting page %s: %w", pageID, err)
	}

	c.log.Debug("read restriction applied", "page_id", pageID, "group", c.restrictedGroup)
	return nil
}

// Close implements remote.Service
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// newRequest builds a request against the site base URL with auth applied
func (c *Client) newRequest(ctx context.Context, method, endpoint string, q url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + endpoint
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.username != "" || c.apiToken != "" {
		req.SetBasicAuth(c.username, c.apiToken)
	}
	return req, nil
}

// getJSON issues a GET and decodes the response into out
func (c *Client) getJSON(ctx context.Context, endpoint string, q url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, q, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.statusError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// doJSON issues a request with a JSON body and optionally decodes the response
func (c *Client) doJSON(ctx context.Context, method, endpoint string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, method, endpoint, nil, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.statusError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// statusError maps HTTP status codes to domain errors, keeping a snippet
// of the response body for diagnostics
func (c *Client) statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", domain.ErrUnauthorized, resp.StatusCode, snippet)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, snippet)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, snippet)
	default:
		return fmt.Errorf("confluence: status %d: %s", resp.StatusCode, snippet)
	}
}

var _ remote.Service = (*Client)(nil)
