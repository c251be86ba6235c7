package confluence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ardietz/confsync/internal/domain"
	"github.com/ardietz/confsync/internal/testutil"
)

// fakeSite is an in-memory Confluence standing behind httptest
type fakeSite struct {
	mu          sync.Mutex
	spaceID     string
	nextID      int
	pages       map[string]*page
	attachments map[string][]string // pageID -> file names
	restricted  map[string]string   // pageID -> group

	lastAttachmentToken string
	lastAuthHeader      string
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		spaceID:     "111",
		pages:       make(map[string]*page),
		attachments: make(map[string][]string),
		restricted:  make(map[string]string),
	}
}

func (s *fakeSite) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /wiki/api/v2/spaces", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.lastAuthHeader = r.Header.Get("Authorization")
		if r.URL.Query().Get("keys") != "DOCS" {
			json.NewEncoder(w).Encode(spaceList{})
			return
		}
		json.NewEncoder(w).Encode(spaceList{Results: []space{{ID: s.spaceID, Key: "DOCS"}}})
	})

	mux.HandleFunc("GET /wiki/api/v2/pages", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		title := r.URL.Query().Get("title")
		parent := r.URL.Query().Get("parentId")
		var list pageList
		for _, p := range s.pages {
			if p.Title == title && p.ParentID == parent {
				list.Results = append(list.Results, *p)
			}
		}
		json.NewEncoder(w).Encode(list)
	})

	mux.HandleFunc("GET /wiki/api/v2/pages/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		p, ok := s.pages[r.PathValue("id")]
		if !ok {
			http.Error(w, `{"message":"no such page"}`, http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(p)
	})

	mux.HandleFunc("POST /wiki/api/v2/pages", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		var req createPageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.SpaceID != s.spaceID {
			http.Error(w, `{"message":"wrong space"}`, http.StatusBadRequest)
			return
		}
		s.nextID++
		p := &page{
			ID:       fmt.Sprintf("%d", s.nextID),
			Title:    req.Title,
			ParentID: req.ParentID,
			Version:  &pageVersion{Number: 1},
		}
		s.pages[p.ID] = p
		json.NewEncoder(w).Encode(p)
	})

	mux.HandleFunc("PUT /wiki/api/v2/pages/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		p, ok := s.pages[r.PathValue("id")]
		if !ok {
			http.Error(w, `{"message":"no such page"}`, http.StatusNotFound)
			return
		}
		var req updatePageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Version.Number != p.Version.Number+1 {
			http.Error(w, `{"message":"version conflict"}`, http.StatusConflict)
			return
		}
		p.Title = req.Title
		p.Version = &pageVersion{Number: req.Version.Number}
		json.NewEncoder(w).Encode(p)
	})

	mux.HandleFunc("PUT /wiki/rest/api/content/{id}/child/attachment", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.lastAttachmentToken = r.Header.Get("X-Atlassian-Token")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		id := r.PathValue("id")
		for _, fh := range r.MultipartForm.File["file"] {
			s.attachments[id] = append(s.attachments[id], fh.Filename)
		}
		w.Write([]byte(`{}`))
	})

	mux.HandleFunc("PUT /wiki/rest/api/content/{id}/restriction", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		var body []restriction
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(body) != 1 || len(body[0].Restrictions.Group) != 1 {
			http.Error(w, `{"message":"bad restriction"}`, http.StatusBadRequest)
			return
		}
		s.restricted[r.PathValue("id")] = body[0].Restrictions.Group[0].Name
		w.Write([]byte(`{}`))
	})

	return mux
}

func newTestClient(t *testing.T) (*Client, *fakeSite) {
	t.Helper()
	site := newFakeSite()
	server := httptest.NewServer(site.handler())
	t.Cleanup(server.Close)

	client, err := New(context.Background(), Config{
		BaseURL:         server.URL,
		Username:        "bot@example.com",
		APIToken:        "token",
		SpaceKey:        "DOCS",
		RestrictedGroup: "doc-admins",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, site
}

func TestNew_ResolvesSpace(t *testing.T) {
	client, site := newTestClient(t)
	if client.spaceID != site.spaceID {
		t.Errorf("space ID = %q, want %q", client.spaceID, site.spaceID)
	}
	if !strings.HasPrefix(site.lastAuthHeader, "Basic ") {
		t.Errorf("basic auth header missing: %q", site.lastAuthHeader)
	}
}

func TestNew_UnknownSpace(t *testing.T) {
	site := newFakeSite()
	server := httptest.NewServer(site.handler())
	defer server.Close()

	_, err := New(context.Background(), Config{
		BaseURL:  server.URL,
		Username: "u",
		APIToken: "t",
		SpaceKey: "NOPE",
	})
	if !errors.Is(err, domain.ErrSpaceNotFound) {
		t.Errorf("expected ErrSpaceNotFound, got %v", err)
	}
}

func TestCreateFindGetPage(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	id, err := client.CreatePage(ctx, "Runbook", "", "<p>x</p>")
	if err != nil {
		t.Fatalf("CreatePage() error = %v", err)
	}

	found, err := client.FindPage(ctx, "Runbook", "")
	if err != nil {
		t.Fatalf("FindPage() error = %v", err)
	}
	if found.ID != id || found.Title != "Runbook" {
		t.Errorf("found = %+v", found)
	}

	got, err := client.GetPage(ctx, id)
	if err != nil {
		t.Fatalf("GetPage() error = %v", err)
	}
	if got.Version != 1 {
		t.Errorf("fresh page version = %d, want 1", got.Version)
	}
}

func TestFindPage_NotFound(t *testing.T) {
	client, _ := newTestClient(t)
	_, err := client.FindPage(context.Background(), "Missing", "")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindPage_ScopedToParent(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	parentID, err := client.CreatePage(ctx, "Parent", "", "<p></p>")
	if err != nil {
		t.Fatal(err)
	}
	childID, err := client.CreatePage(ctx, "Shared Title", parentID, "<p></p>")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.CreatePage(ctx, "Shared Title", "", "<p></p>"); err != nil {
		t.Fatal(err)
	}

	found, err := client.FindPage(ctx, "Shared Title", parentID)
	if err != nil {
		t.Fatal(err)
	}
	if found.ID != childID {
		t.Errorf("found %s, want child %s", found.ID, childID)
	}
}

func TestUpdatePage_BumpsVersion(t *testing.T) {
	client, site := newTestClient(t)
	ctx := context.Background()

	id, err := client.CreatePage(ctx, "Doc", "", "<p>v1</p>")
	if err != nil {
		t.Fatal(err)
	}

	if err := client.UpdatePage(ctx, id, "Doc", "<p>v2</p>"); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if err := client.UpdatePage(ctx, id, "Doc", "<p>v3</p>"); err != nil {
		t.Fatalf("second update: %v", err)
	}

	site.mu.Lock()
	version := site.pages[id].Version.Number
	site.mu.Unlock()
	if version != 3 {
		t.Errorf("version after two updates = %d, want 3", version)
	}
}

func TestUpdatePage_MissingPage(t *testing.T) {
	client, _ := newTestClient(t)
	err := client.UpdatePage(context.Background(), "999", "Gone", "<p></p>")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUploadAttachment(t *testing.T) {
	client, site := newTestClient(t)
	ctx := context.Background()

	id, err := client.CreatePage(ctx, "Doc", "", "<p></p>")
	if err != nil {
		t.Fatal(err)
	}

	path := testutil.CreateTestFile(t, t.TempDir(), "Report [RES].docx", []byte("binary"))
	if err := client.UploadAttachment(ctx, id, path); err != nil {
		t.Fatalf("UploadAttachment() error = %v", err)
	}

	site.mu.Lock()
	defer site.mu.Unlock()
	if site.lastAttachmentToken != "nocheck" {
		t.Errorf("X-Atlassian-Token = %q, want nocheck", site.lastAttachmentToken)
	}
	if len(site.attachments[id]) != 1 || site.attachments[id][0] != "Report [RES].docx" {
		t.Errorf("attachments = %v", site.attachments[id])
	}
}

func TestApplyPermission(t *testing.T) {
	client, site := newTestClient(t)
	ctx := context.Background()

	id, err := client.CreatePage(ctx, "Doc", "", "<p></p>")
	if err != nil {
		t.Fatal(err)
	}

	// Non-restricted levels never touch the API
	if err := client.ApplyPermission(ctx, id, domain.PermissionInternal); err != nil {
		t.Fatalf("internal permission should be a no-op: %v", err)
	}
	site.mu.Lock()
	if len(site.restricted) != 0 {
		t.Error("no restriction expected for internal permission")
	}
	site.mu.Unlock()

	if err := client.ApplyPermission(ctx, id, domain.PermissionRestricted); err != nil {
		t.Fatalf("ApplyPermission() error = %v", err)
	}
	site.mu.Lock()
	defer site.mu.Unlock()
	if site.restricted[id] != "doc-admins" {
		t.Errorf("restricted group = %q", site.restricted[id])
	}
}

func TestApplyPermission_NoGroupConfigured(t *testing.T) {
	site := newFakeSite()
	server := httptest.NewServer(site.handler())
	defer server.Close()

	client, err := New(context.Background(), Config{
		BaseURL:  server.URL,
		Username: "u",
		APIToken: "t",
		SpaceKey: "DOCS",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := client.ApplyPermission(context.Background(), "1", domain.PermissionRestricted); err == nil {
		t.Error("expected error when no restricted group is configured")
	}
}

func TestStatusErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusForbidden, domain.ErrUnauthorized},
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusTooManyRequests, domain.ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if strings.Contains(r.URL.Path, "spaces") {
					json.NewEncoder(w).Encode(spaceList{Results: []space{{ID: "1", Key: "DOCS"}}})
					return
				}
				http.Error(w, `{"message":"nope"}`, tt.status)
			}))
			defer server.Close()

			client, err := New(context.Background(), Config{
				BaseURL: server.URL, Username: "u", APIToken: "t", SpaceKey: "DOCS",
			})
			if err != nil {
				t.Fatal(err)
			}

			_, err = client.GetPage(context.Background(), "1")
			if !errors.Is(err, tt.want) {
				t.Errorf("status %d mapped to %v, want %v", tt.status, err, tt.want)
			}
		})
	}
}

func TestNew_MissingConfig(t *testing.T) {
	if _, err := New(context.Background(), Config{SpaceKey: "DOCS"}); !errors.Is(err, domain.ErrConfigInvalid) {
		t.Errorf("missing base URL: %v", err)
	}
	if _, err := New(context.Background(), Config{BaseURL: "https://x"}); !errors.Is(err, domain.ErrConfigInvalid) {
		t.Errorf("missing space key: %v", err)
	}
}
