package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/GTDGit/market_admin/internal/models"
)

type recorded struct {
	method string
	path   string
	query  url.Values
	auth   string
	ctype  string
	body   []byte
}

func newTestServer(t *testing.T, status int, response string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.Query(),
			auth:   r.Header.Get("Authorization"),
			ctype:  r.Header.Get("Content-Type"),
			body:   body,
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClient_TokenPrecedence(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `{"success":true,"data":[]}`)

	tests := []struct {
		name    string
		service string
		ctx     context.Context
		want    string
	}{
		{"admin token wins", "svc", WithToken(context.Background(), "admin"), "Bearer admin"},
		{"service token fallback", "svc", context.Background(), "Bearer svc"},
		{"unauthenticated", "", context.Background(), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(Config{BaseURL: srv.URL, ServiceToken: tt.service})
			if _, err := c.ListAddresses(tt.ctx); err != nil {
				t.Fatalf("ListAddresses: %v", err)
			}
			last := (*calls)[len(*calls)-1]
			if last.auth != tt.want {
				t.Errorf("Authorization = %q, want %q", last.auth, tt.want)
			}
		})
	}
}

func TestClient_ErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		response string
		want     string
	}{
		{"server message", http.StatusBadRequest, `{"success":false,"message":"Category already exists"}`, "Category already exists"},
		{"no message", http.StatusInternalServerError, `oops`, "Failed to submit"},
		{"success false with 200", http.StatusOK, `{"success":false,"message":"Name taken"}`, "Name taken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.status, tt.response)
			c := NewClient(Config{BaseURL: srv.URL})

			err := c.CreateCategory(context.Background(), CategoryInput{Name: "x"})
			if err == nil {
				t.Fatal("expected error")
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error type = %T, want *APIError", err)
			}
			if got := MessageOr(err, "Failed to submit"); got != tt.want {
				t.Errorf("MessageOr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClient_ListCategories(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK,
		`{"success":true,"data":[{"_id":"s1","name":"phones","level":1,"parentId":"c1","isDisabled":true}]}`)
	c := NewClient(Config{BaseURL: srv.URL})

	subs, err := c.ListCategories(context.Background(), models.LevelSubcategory, "c1")
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(subs) != 1 || subs[0].ID != "s1" || subs[0].Status() != models.StatusDisabled {
		t.Errorf("unexpected subcategories: %+v", subs)
	}

	call := (*calls)[0]
	if call.path != "/category/all" || call.query.Get("level") != "1" || call.query.Get("parentId") != "c1" {
		t.Errorf("unexpected request: %s %v", call.path, call.query)
	}
}

func TestClient_CreateSubcategoryForm(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `{"success":true}`)
	c := NewClient(Config{BaseURL: srv.URL})
	order, active := 2, true

	err := c.CreateCategory(context.Background(), CategoryInput{
		Name:     "  Smart Phones ",
		Order:    &order,
		IsActive: &active,
		Level:    models.LevelSubcategory,
		ParentID: "c1",
		Icon:     &File{Filename: "icon.png", ContentType: "image/png", Data: []byte("png")},
	})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	call := (*calls)[0]
	if call.method != http.MethodPost || call.path != "/category/create" {
		t.Fatalf("unexpected request %s %s", call.method, call.path)
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(string(call.body)))
	req.Header.Set("Content-Type", call.ctype)
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("parse multipart: %v", err)
	}

	want := map[string]string{
		"name":      "smart phones",
		"order":     "2",
		"isActive":  "true",
		"level":     "1",
		"parentId":  "c1",
		"type":      "both",
		"isDeleted": "false",
	}
	for k, v := range want {
		if got := req.FormValue(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if fh := req.MultipartForm.File["file"]; len(fh) != 1 || fh[0].Filename != "icon.png" {
		t.Errorf("icon part missing: %v", req.MultipartForm.File)
	}
}

func TestClient_UpdateCategorySendsOnlySuppliedFields(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `{"success":true}`)
	c := NewClient(Config{BaseURL: srv.URL})

	err := c.UpdateCategory(context.Background(), "s1", CategoryInput{
		Name:     "Phones",
		Level:    models.LevelSubcategory,
		ParentID: "c1",
	})
	if err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}

	call := (*calls)[0]
	if call.path != "/category/s1" {
		t.Fatalf("path = %s", call.path)
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(string(call.body)))
	req.Header.Set("Content-Type", call.ctype)
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("parse multipart: %v", err)
	}
	want := map[string]string{"name": "phones", "level": "1", "parentId": "c1"}
	for k, v := range want {
		if got := req.FormValue(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	for _, k := range []string{"order", "isActive", "isDisabled", "type", "isDeleted"} {
		if _, ok := req.MultipartForm.Value[k]; ok {
			t.Errorf("rename-only update sent %s", k)
		}
	}
	if len(req.MultipartForm.File) != 0 {
		t.Errorf("unexpected file parts: %v", req.MultipartForm.File)
	}
}

func TestClient_UpdateAttributeKeyWithoutOrder(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `{"success":true}`)
	c := NewClient(Config{BaseURL: srv.URL})

	if err := c.UpdateAttributeKey(context.Background(), "k1", " Color ", nil); err != nil {
		t.Fatalf("UpdateAttributeKey: %v", err)
	}
	var got map[string]any
	json.Unmarshal((*calls)[0].body, &got)
	if got["name"] != "color" {
		t.Errorf("name = %v", got["name"])
	}
	if _, ok := got["order"]; ok {
		t.Errorf("order sent without being supplied: %v", got)
	}
}

func TestClient_StatusFlags(t *testing.T) {
	tests := []struct {
		status models.Status
		want   map[string]bool
	}{
		{models.StatusActive, map[string]bool{"isDisable": false, "isDeleted": false}},
		{models.StatusDisabled, map[string]bool{"isDisable": true, "isDeleted": false}},
		{models.StatusDeleted, map[string]bool{"isDisable": false, "isDeleted": true}},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			srv, calls := newTestServer(t, http.StatusOK, `{"success":true}`)
			c := NewClient(Config{BaseURL: srv.URL})
			if err := c.SetAttributeKeyStatus(context.Background(), "k1", tt.status); err != nil {
				t.Fatalf("SetAttributeKeyStatus: %v", err)
			}

			var got map[string]bool
			if err := json.Unmarshal((*calls)[0].body, &got); err != nil {
				t.Fatalf("body: %v", err)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %v, want %v", k, got[k], v)
				}
			}
			if (*calls)[0].path != "/attributKey/k1" {
				t.Errorf("path = %s", (*calls)[0].path)
			}
		})
	}
}

func TestClient_AttributeValueLowercased(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `{"success":true}`)
	c := NewClient(Config{BaseURL: srv.URL})

	if err := c.CreateAttributeValue(context.Background(), "k1", "  Deep Red ", "s1"); err != nil {
		t.Fatalf("CreateAttributeValue: %v", err)
	}
	var got map[string]string
	json.Unmarshal((*calls)[0].body, &got)
	if got["value"] != "deep red" || got["key"] != "k1" || got["categoryId"] != "s1" {
		t.Errorf("body = %v", got)
	}
}

func TestClient_ListProducts(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK,
		`{"success":true,"data":{"list":[{"_id":"p1","name":"lamp","type":"SELL","price":10}],"total":31}}`)
	c := NewClient(Config{BaseURL: srv.URL})

	params := url.Values{"type": {"SELL"}, "page": {"2"}}
	page, err := c.ListProducts(context.Background(), params)
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if page.Total != 31 || len(page.List) != 1 || *page.List[0].Price != 10 {
		t.Errorf("unexpected page: %+v", page)
	}
	if (*calls)[0].query.Get("page") != "2" {
		t.Errorf("query = %v", (*calls)[0].query)
	}
}
