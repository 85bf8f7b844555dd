package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/market_admin/internal/cache"
	"github.com/GTDGit/market_admin/internal/config"
	"github.com/GTDGit/market_admin/internal/listing"
	"github.com/GTDGit/market_admin/internal/middleware"
	"github.com/GTDGit/market_admin/internal/models"
	"github.com/GTDGit/market_admin/internal/productform"
	"github.com/GTDGit/market_admin/internal/service"
	"github.com/GTDGit/market_admin/pkg/marketplace"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

// upstream is a fake marketplace API that records what it receives.
type upstream struct {
	mu          sync.Mutex
	createForm  map[string]string
	createFiles map[string][]byte
	createCalls int
	listCalls   int
	statusBody  map[string]any
	valueBody   map[string]any
	categories  int
	failCreate  string
}

func (u *upstream) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	ok := func(w http.ResponseWriter, data any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
	}

	mux.HandleFunc("/product/create", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		u.createCalls++
		if u.failCreate != "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{"success": false, "message": u.failCreate})
			return
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("upstream multipart: %v", err)
		}
		u.createForm = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			u.createForm[k] = v[0]
		}
		u.createFiles = map[string][]byte{}
		for _, fh := range r.MultipartForm.File[productform.ImagesPart] {
			f, _ := fh.Open()
			data, _ := io.ReadAll(f)
			f.Close()
			u.createFiles[fh.Filename] = data
		}
		ok(w, models.Product{ID: "p-1", Name: u.createForm["name"]})
	})
	mux.HandleFunc("/product/productList", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.listCalls++
		u.mu.Unlock()
		ok(w, models.ProductPage{List: []models.Product{{ID: "p-1"}}, Total: 1})
	})
	mux.HandleFunc("/category/getAllKeyParamentbySubcategory/", func(w http.ResponseWriter, r *http.Request) {
		ok(w, []models.AttributeKey{})
	})
	mux.HandleFunc("/category/all", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.categories++
		u.mu.Unlock()
		ok(w, []models.Category{{ID: "c-1", Name: "electronics"}})
	})
	mux.HandleFunc("/category/c-1", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		json.NewDecoder(r.Body).Decode(&u.statusBody)
		ok(w, nil)
	})
	mux.HandleFunc("/attributValue/v-1", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		json.NewDecoder(r.Body).Decode(&u.valueBody)
		ok(w, nil)
	})
	mux.HandleFunc("/userAddress", func(w http.ResponseWriter, r *http.Request) {
		ok(w, []models.Address{{
			ID:               "addr-1",
			FormattedAddress: "Jl. Merdeka 1, Jakarta",
			Latitude:         -6.2088,
			Longitude:        106.8456,
		}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type memDrafts struct {
	mu     sync.Mutex
	drafts map[string]cache.Draft
}

func (m *memDrafts) Save(_ context.Context, d *cache.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.drafts == nil {
		m.drafts = map[string]cache.Draft{}
	}
	m.drafts[d.ID] = *d
	return nil
}

func (m *memDrafts) Get(_ context.Context, adminID int, id string) (*cache.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[id]
	if !ok || d.AdminID != adminID {
		return nil, cache.ErrDraftNotFound
	}
	return &d, nil
}

func (m *memDrafts) Delete(_ context.Context, _ int, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, id)
	return nil
}

type memGuard struct {
	mu   sync.Mutex
	held map[int]bool
}

func (g *memGuard) Acquire(_ context.Context, adminID int) (func(), bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held == nil {
		g.held = map[int]bool{}
	}
	if g.held[adminID] {
		return nil, false, nil
	}
	g.held[adminID] = true
	return func() {
		g.mu.Lock()
		delete(g.held, adminID)
		g.mu.Unlock()
	}, true, nil
}

type memViews struct {
	mu    sync.Mutex
	views map[int]listing.Query
}

func (m *memViews) Get(_ context.Context, adminID int) (listing.Query, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.views[adminID]; ok {
		return q, nil
	}
	return listing.New(), nil
}

func (m *memViews) Save(_ context.Context, adminID int, q listing.Query) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.views == nil {
		m.views = map[int]listing.Query{}
	}
	m.views[adminID] = q
	return nil
}

type testEnv struct {
	router *gin.Engine
	up     *upstream
	guard  *memGuard
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	up := &upstream{}
	srv := up.server(t)

	client := marketplace.NewClient(marketplace.Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	audit := service.NewAuditService(nil, nil)
	listingSvc := service.NewListingService(client, &memViews{})
	guard := &memGuard{}
	productSvc, err := service.NewProductService(client, &memDrafts{}, guard, listingSvc, nil, audit, config.ProductConfig{
		FormVariant:   "address_book",
		MaxImages:     10,
		MaxImageBytes: 1 << 20,
	})
	if err != nil {
		t.Fatal(err)
	}
	taxonomy := service.NewTaxonomyService(client, audit)

	products := NewProductHandler(productSvc, listingSvc, 1<<20)
	categories := NewCategoryHandler(taxonomy)
	addresses := NewAddressHandler(service.NewLocationService(client, nil, audit))

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.ContextAdminID, 1) })
	r.POST("/products", products.Create)
	r.GET("/products", products.List)
	r.PATCH("/products/view", products.ApplyView)
	r.POST("/products/drafts", products.CreateDraft)
	r.GET("/products/drafts/:id", products.GetDraft)
	r.PATCH("/products/drafts/:id", products.UpdateDraft)
	r.POST("/categories/:id/status", categories.SetCategoryStatus)
	r.DELETE("/attribute-values/:id", NewAttributeHandler(taxonomy).DeleteValue)
	r.POST("/addresses/current-location", addresses.AddFromCurrentLocation)

	return &testEnv{router: r, up: up, guard: guard}
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func (e *testEnv) do(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return w.Code, env
}

func jsonRequest(method, path string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func submitRequest(t *testing.T, state productform.State, images map[string][]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	stateJSON, err := json.Marshal(state)
	if err != nil {
		t.Fatal(err)
	}
	mw.WriteField("form", string(stateJSON))
	for name, data := range images {
		fw, _ := mw.CreateFormFile(productform.ImagesPart, name)
		fw.Write(data)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/products", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func sellState() productform.State {
	s := productform.NewState()
	s.Name = "Vintage desk lamp"
	s.Description = "Brass desk lamp, works fine, minor scratches"
	s.Type = models.ProductTypeSell
	s.CategoryID = "cat-1"
	s.SubcategoryID = "sub-1"
	s.Condition = models.ConditionUsed
	s.DeliveryMode = models.DeliverySeller
	s.AddressID = "addr-1"
	s.Location = models.NewGeoPoint(106.8456, -6.2088)
	price := 150000.0
	s.Price = &price
	return s
}

func TestProductHandler_CreateSell(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, submitRequest(t, sellState(), map[string][]byte{"lamp.png": pngBytes}))
	if code != http.StatusCreated {
		t.Fatalf("status = %d, body = %+v", code, resp)
	}

	f := env.up.createForm
	if f["price"] != "150000" {
		t.Errorf("price = %q", f["price"])
	}
	if f["rentDetails"] != "null" || f["auctionDetails"] != "null" {
		t.Errorf("rentDetails = %q, auctionDetails = %q", f["rentDetails"], f["auctionDetails"])
	}
	if f["type"] != "SELL" {
		t.Errorf("type = %q", f["type"])
	}
	if !bytes.Equal(env.up.createFiles["lamp.png"], pngBytes) {
		t.Error("image part missing or altered")
	}
	if env.up.listCalls == 0 {
		t.Error("list was not refetched after create")
	}

	var result service.SubmitResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		t.Fatal(err)
	}
	if result.Product == nil || result.Product.ID != "p-1" {
		t.Errorf("product = %+v", result.Product)
	}
	if result.Products == nil || result.Products.Total != 1 {
		t.Errorf("products = %+v", result.Products)
	}
}

func TestProductHandler_AuctionEqualTimesRejected(t *testing.T) {
	env := newTestEnv(t)

	s := sellState()
	s.Type = models.ProductTypeAuction
	s.Price = nil
	start := time.Date(2026, 12, 1, 10, 0, 0, 0, time.UTC)
	sp, rp, bi := 100.0, 200.0, 5.0
	s.Auction = productform.AuctionState{
		StartPrice:   &sp,
		ReservePrice: &rp,
		BidIncrement: &bi,
		StartTime:    &start,
		EndTime:      &start,
	}

	code, resp := env.do(t, submitRequest(t, s, map[string][]byte{"a.png": pngBytes}))
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", code)
	}
	if got := resp.Error.Fields[string(productform.FieldEndTime)]; got != productform.MsgEndTimeInvalid {
		t.Errorf("endTime error = %q", got)
	}
	if env.up.createCalls != 0 {
		t.Error("invalid form must not reach the marketplace")
	}
}

func TestProductHandler_ImageChecks(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, submitRequest(t, sellState(), map[string][]byte{"notes.txt": []byte("plain text, not an image")}))
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", code)
	}
	if !strings.Contains(resp.Error.Fields["images"], "notes.txt") {
		t.Errorf("images error = %q", resp.Error.Fields["images"])
	}

	code, resp = env.do(t, submitRequest(t, sellState(), nil))
	if code != http.StatusUnprocessableEntity || resp.Error.Fields["images"] != productform.MsgImagesRequired {
		t.Errorf("no images: status = %d, fields = %v", code, resp.Error.Fields)
	}
}

func TestProductHandler_UpstreamFailureFillsSubmitSlot(t *testing.T) {
	env := newTestEnv(t)
	env.up.failCreate = "Product name already used"

	code, resp := env.do(t, submitRequest(t, sellState(), map[string][]byte{"lamp.png": pngBytes}))
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d", code)
	}
	if resp.Error.Code != "UPSTREAM_ERROR" || resp.Message != "Product name already used" {
		t.Errorf("error = %+v, message = %q", resp.Error, resp.Message)
	}

	var form productform.Form
	if err := json.Unmarshal(resp.Data, &form); err != nil {
		t.Fatal(err)
	}
	if form.Errors["submit"] != "Product name already used" {
		t.Errorf("submit slot = %q", form.Errors["submit"])
	}
	if form.State.Name != "Vintage desk lamp" {
		t.Error("state should be kept after a failed submit")
	}
}

func TestProductHandler_SubmitInProgress(t *testing.T) {
	env := newTestEnv(t)
	release, _, _ := env.guard.Acquire(context.Background(), 1)
	defer release()

	code, resp := env.do(t, submitRequest(t, sellState(), map[string][]byte{"lamp.png": pngBytes}))
	if code != http.StatusConflict || resp.Error.Code != "SUBMIT_IN_PROGRESS" {
		t.Errorf("status = %d, error = %+v", code, resp.Error)
	}
	if env.up.createCalls != 0 {
		t.Error("second submit must not reach the marketplace")
	}
}

func TestProductHandler_SubmitUnknownAddress(t *testing.T) {
	env := newTestEnv(t)

	s := sellState()
	s.AddressID = "addr-404"
	code, resp := env.do(t, submitRequest(t, s, map[string][]byte{"lamp.png": pngBytes}))
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", code)
	}
	if got := resp.Error.Fields[string(productform.FieldAddressID)]; got != productform.MsgAddressRequired {
		t.Errorf("addressId error = %q", got)
	}
	if env.up.createCalls != 0 {
		t.Error("unknown address must not reach the marketplace")
	}
}

func TestProductHandler_SubmitTakesLocationFromAddress(t *testing.T) {
	env := newTestEnv(t)

	s := sellState()
	s.Location = models.NewGeoPoint(10, 10)
	code, resp := env.do(t, submitRequest(t, s, map[string][]byte{"lamp.png": pngBytes}))
	if code != http.StatusCreated {
		t.Fatalf("status = %d, body = %+v", code, resp)
	}
	want := `{"type":"Point","coordinates":[106.8456,-6.2088]}`
	if got := env.up.createForm["location"]; got != want {
		t.Errorf("location = %s, want %s", got, want)
	}
	if env.up.createForm["addressId"] != "addr-1" {
		t.Errorf("addressId = %q", env.up.createForm["addressId"])
	}
}

func TestProductHandler_DraftFlow(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, jsonRequest(http.MethodPost, "/products/drafts", nil))
	if code != http.StatusCreated {
		t.Fatalf("create draft: %d", code)
	}
	var d cache.Draft
	json.Unmarshal(resp.Data, &d)

	patch := func(field string, value any) cache.Draft {
		t.Helper()
		raw, _ := json.Marshal(value)
		code, resp := env.do(t, jsonRequest(http.MethodPatch, "/products/drafts/"+d.ID, map[string]any{
			"field": field,
			"value": json.RawMessage(raw),
		}))
		if code != http.StatusOK {
			t.Fatalf("patch %s: status %d (%+v)", field, code, resp.Error)
		}
		var out cache.Draft
		json.Unmarshal(resp.Data, &out)
		return out
	}

	out := patch("description", "too short")
	if out.Form.Errors["description"] != productform.MsgDescriptionTooShort {
		t.Errorf("description error = %q", out.Form.Errors["description"])
	}
	if len(out.Form.Errors) != 1 {
		t.Errorf("only the changed field should be validated, got %v", out.Form.Errors)
	}

	out = patch("addressId", "addr-404")
	if out.Form.State.AddressID != "" || out.Form.Errors["addressId"] != productform.MsgAddressRequired {
		t.Errorf("unknown address: id = %q, error = %q", out.Form.State.AddressID, out.Form.Errors["addressId"])
	}
	out = patch("addressId", "addr-1")
	if out.Form.Errors["addressId"] != "" {
		t.Errorf("known address error = %q", out.Form.Errors["addressId"])
	}
	if c := out.Form.State.Location.Coordinates; len(c) != 2 || c[0] != 106.8456 || c[1] != -6.2088 {
		t.Errorf("location did not follow the address: %v", c)
	}

	patch("categoryId", "cat-1")
	patch("subcategoryId", "sub-1")
	out = patch("categoryId", "cat-2")
	if out.Form.State.SubcategoryID != "" {
		t.Errorf("subcategory not cleared: %q", out.Form.State.SubcategoryID)
	}

	code, resp = env.do(t, jsonRequest(http.MethodPatch, "/products/drafts/"+d.ID, map[string]any{"field": "bogus", "value": 1}))
	if code != http.StatusBadRequest {
		t.Errorf("unknown field: status = %d", code)
	}

	req := httptest.NewRequest(http.MethodGet, "/products/drafts/missing", nil)
	if code, _ := env.do(t, req); code != http.StatusNotFound {
		t.Errorf("missing draft: status = %d", code)
	}
}

func TestProductHandler_ListAndView(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/products?tab=RENT&sort=PRICE_ASC&page=2&limit=500", nil)
	code, resp := env.do(t, req)
	if code != http.StatusOK {
		t.Fatalf("list: status = %d", code)
	}
	var list service.ProductList
	json.Unmarshal(resp.Data, &list)
	if list.Query.Tab != models.ProductTypeRent || list.Query.Page != 2 || list.Query.Sort != listing.SortPriceAsc {
		t.Errorf("query = %+v", list.Query)
	}
	if list.Query.Limit != listing.DefaultLimit {
		t.Errorf("limit = %d, want fixed page size %d", list.Query.Limit, listing.DefaultLimit)
	}

	req = httptest.NewRequest(http.MethodGet, "/products?tab=SWAP", nil)
	if code, _ := env.do(t, req); code != http.StatusBadRequest {
		t.Errorf("bad tab: status = %d", code)
	}

	code, resp = env.do(t, jsonRequest(http.MethodPatch, "/products/view", map[string]any{"action": "category", "value": "c-9"}))
	if code != http.StatusOK {
		t.Fatalf("apply view: status = %d", code)
	}
	json.Unmarshal(resp.Data, &list)
	if list.Query.Filter.CategoryID != "c-9" || list.Query.Page != 1 {
		t.Errorf("view query = %+v", list.Query)
	}

	code, _ = env.do(t, jsonRequest(http.MethodPatch, "/products/view", map[string]any{"action": "explode"}))
	if code != http.StatusBadRequest {
		t.Errorf("unknown action: status = %d", code)
	}
}

func TestCategoryHandler_StatusNeedsConfirm(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, jsonRequest(http.MethodPost, "/categories/c-1/status", map[string]any{"status": "DISABLED"}))
	if code != http.StatusConflict || resp.Error.Code != "CONFIRMATION_REQUIRED" {
		t.Fatalf("status = %d, error = %+v", code, resp.Error)
	}
	if env.up.statusBody != nil {
		t.Fatal("unconfirmed change reached the marketplace")
	}

	code, resp = env.do(t, jsonRequest(http.MethodPost, "/categories/c-1/status", map[string]any{"status": "DISABLED", "confirm": true}))
	if code != http.StatusOK {
		t.Fatalf("confirmed: status = %d (%+v)", code, resp.Error)
	}
	if env.up.statusBody["isDisabled"] != true || env.up.statusBody["isDeleted"] != false {
		t.Errorf("status body = %v", env.up.statusBody)
	}
	if env.up.categories == 0 {
		t.Error("categories were not refetched")
	}

	code, _ = env.do(t, jsonRequest(http.MethodPost, "/categories/c-1/status", map[string]any{"status": "ARCHIVED", "confirm": true}))
	if code != http.StatusBadRequest {
		t.Errorf("unknown status: %d", code)
	}
}

func TestAttributeHandler_DeleteValue(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, jsonRequest(http.MethodDelete, "/attribute-values/v-1", map[string]any{"subcategoryId": "sub-1"}))
	if code != http.StatusConflict || resp.Message != "Are you sure you want to delete this value?" {
		t.Fatalf("status = %d, message = %q", code, resp.Message)
	}
	if env.up.valueBody != nil {
		t.Fatal("unconfirmed delete reached the marketplace")
	}

	code, _ = env.do(t, jsonRequest(http.MethodDelete, "/attribute-values/v-1", map[string]any{"subcategoryId": "sub-1", "confirm": true}))
	if code != http.StatusOK {
		t.Fatalf("confirmed: status = %d", code)
	}
	if env.up.valueBody["isDeleted"] != true {
		t.Errorf("value body = %v", env.up.valueBody)
	}

	code, _ = env.do(t, jsonRequest(http.MethodDelete, "/attribute-values/v-1", map[string]any{"confirm": true}))
	if code != http.StatusBadRequest {
		t.Errorf("missing subcategory: status = %d", code)
	}
}

func TestAddressHandler_GeolocationErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		code string
		want string
	}{
		{service.GeoPermissionDenied, "Please allow location access to use this feature"},
		{service.GeoTimeout, "Location request timed out"},
		{"SOMETHING_ELSE", "Failed to get location"},
	}
	for _, tt := range tests {
		code, resp := env.do(t, jsonRequest(http.MethodPost, "/addresses/current-location", map[string]any{"errorCode": tt.code}))
		if code != http.StatusUnprocessableEntity || resp.Message != tt.want {
			t.Errorf("%s: status = %d, message = %q", tt.code, code, resp.Message)
		}
	}
}
