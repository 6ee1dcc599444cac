package web

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/stockkeep/internal/config"
	"github.com/JonMunkholm/stockkeep/internal/core"
	"github.com/JonMunkholm/stockkeep/internal/store/memstore"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{RequestTimeout: 10 * time.Second},
		Sync:     config.SyncConfig{EvaluatorConcurrency: 4, DefaultThreshold: 5},
		Upload:   config.UploadConfig{MaxFileSize: 1 << 20, MaxConcurrent: 2, MaxWaitTime: time.Second, Timeout: time.Minute, TempDir: t.TempDir()},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

type testServer struct {
	t     *testing.T
	srv   *Server
	cfg   *config.Config
	store *memstore.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := testConfig(t)
	store := memstore.New()
	srv := NewServer(core.NewService(store, cfg), cfg)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testServer{t: t, srv: srv, cfg: cfg, store: store}
}

func (ts *testServer) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	ts.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			ts.t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func (ts *testServer) supplier(name string) core.Supplier {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/suppliers", map[string]any{"name": name, "contactInfo": name + "@example.com"})
	if rec.Code != http.StatusCreated {
		ts.t.Fatalf("create supplier: status %d: %s", rec.Code, rec.Body)
	}
	return decode[core.Supplier](ts.t, rec)
}

func (ts *testServer) item(name string, qty int, supplierID string) core.Item {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/items", map[string]any{
		"name": name, "quantity": qty, "supplierId": supplierID, "price": 1.5,
	})
	if rec.Code != http.StatusCreated {
		ts.t.Fatalf("create item: status %d: %s", rec.Code, rec.Body)
	}
	return decode[core.Item](ts.t, rec)
}

func TestCreateItem(t *testing.T) {
	ts := newTestServer(t)
	sup := ts.supplier("Acme")

	rec := ts.do(http.MethodPost, "/items", map[string]any{
		"name": "Bolt", "quantity": 3, "supplierId": sup.ID, "price": 0.25,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	got := decode[core.Item](t, rec)
	if got.ID == "" || got.LowStockThreshold != 5 || !got.IsLowStock {
		t.Errorf("created item = %+v, want id, threshold 5, low stock", got)
	}
}

func TestCreateItem_Validation(t *testing.T) {
	ts := newTestServer(t)
	sup := ts.supplier("Acme")

	tests := []struct {
		name      string
		body      any
		wantField string
	}{
		{"missing name", map[string]any{"quantity": 1, "supplierId": sup.ID, "price": 1}, "name"},
		{"negative quantity", map[string]any{"name": "a", "quantity": -1, "supplierId": sup.ID, "price": 1}, "quantity"},
		{"bad supplier id", map[string]any{"name": "a", "quantity": 1, "supplierId": "nope", "price": 1}, "supplierId"},
		{"negative price", map[string]any{"name": "a", "quantity": 1, "supplierId": sup.ID, "price": -2}, "price"},
		{"quantity wrong type", map[string]any{"name": "a", "quantity": "ten", "supplierId": sup.ID, "price": 1}, "quantity"},
		{"blank name", map[string]any{"name": "  ", "quantity": 1, "supplierId": sup.ID, "price": 1}, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/items", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body)
			}
			resp := decode[ValidationResponse](t, rec)
			found := false
			for _, e := range resp.Errors {
				if e.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("errors = %+v, want one on %q", resp.Errors, tt.wantField)
			}
		})
	}

	items, _ := ts.store.ListItems(context.Background(), core.ItemFilter{})
	if len(items) != 0 {
		t.Errorf("store has %d items after rejected requests, want 0", len(items))
	}
}

func TestGetItem(t *testing.T) {
	ts := newTestServer(t)
	sup := ts.supplier("Acme")
	it := ts.item("Bolt", 10, sup.ID)

	rec := ts.do(http.MethodGet, "/items/"+it.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	view := decode[core.ItemView](t, rec)
	if view.Supplier == nil || view.Supplier.Name != "Acme" {
		t.Errorf("supplier = %+v, want Acme", view.Supplier)
	}

	rec = ts.do(http.MethodGet, "/items/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if resp := decode[ErrorResponse](t, rec); resp.Code != "INV001" || resp.Error == "" {
		t.Errorf("404 body = %+v", resp)
	}
}

func TestListItems_DanglingSupplier(t *testing.T) {
	ts := newTestServer(t)
	sup := ts.supplier("Gone")
	ts.item("Bolt", 10, sup.ID)

	if rec := ts.do(http.MethodDelete, "/suppliers/"+sup.ID, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete supplier status = %d", rec.Code)
	}

	rec := ts.do(http.MethodGet, "/items", nil)
	if !strings.Contains(rec.Body.String(), `"supplier":null`) {
		t.Errorf("body = %s, want supplier null", rec.Body)
	}
}

func TestUpdateItem(t *testing.T) {
	ts := newTestServer(t)
	sup := ts.supplier("Acme")
	it := ts.item("Bolt", 10, sup.ID)

	rec := ts.do(http.MethodPut, "/items/"+it.ID, map[string]any{"quantity": 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	got := decode[core.Item](t, rec)
	if got.Quantity != 2 || !got.IsLowStock || got.Name != "Bolt" {
		t.Errorf("updated = %+v, want quantity 2, low stock, name kept", got)
	}

	if rec := ts.do(http.MethodPut, "/items/missing", map[string]any{"quantity": 2}); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}
	if rec := ts.do(http.MethodPut, "/items/"+it.ID, map[string]any{"price": -1}); rec.Code != http.StatusBadRequest {
		t.Errorf("negative price status = %d, want 400", rec.Code)
	}
}

func TestSetThreshold(t *testing.T) {
	ts := newTestServer(t)
	sup := ts.supplier("Acme")
	it := ts.item("Bolt", 10, sup.ID)

	rec := ts.do(http.MethodPut, "/items/"+it.ID+"/threshold", map[string]any{"lowStockThreshold": 20})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if got := decode[core.Item](t, rec); got.LowStockThreshold != 20 || !got.IsLowStock {
		t.Errorf("item = %+v, want threshold 20 and low stock", got)
	}

	for _, body := range []any{map[string]any{"lowStockThreshold": -1}, map[string]any{}} {
		if rec := ts.do(http.MethodPut, "/items/"+it.ID+"/threshold", body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %v: status = %d, want 400", body, rec.Code)
		}
	}

	stored, _ := ts.store.GetItem(context.Background(), it.ID)
	if stored.LowStockThreshold != 20 {
		t.Errorf("threshold = %d after rejected updates, want 20", stored.LowStockThreshold)
	}
}

func TestBulkItems(t *testing.T) {
	ts := newTestServer(t)
	sup := ts.supplier("Acme")

	rec := ts.do(http.MethodPost, "/items/bulk", map[string]any{"items": []map[string]any{
		{"name": "A", "quantity": 1, "supplierId": sup.ID, "price": 1},
		{"name": "B", "quantity": 50, "supplierId": sup.ID, "price": 2},
	}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("bulk create status = %d: %s", rec.Code, rec.Body)
	}
	created := decode[core.SyncResult](t, rec)
	if created.Created != 2 || len(created.Items) != 2 {
		t.Fatalf("bulk create = %+v", created)
	}

	rec = ts.do(http.MethodPut, "/items/bulk", map[string]any{"items": []map[string]any{
		{"id": created.Items[1].ID, "update": map[string]any{"quantity": 2}},
		{"id": "unknown", "update": map[string]any{"quantity": 2}},
	}})
	if rec.Code != http.StatusOK {
		t.Fatalf("bulk update status = %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "null") {
		t.Errorf("bulk update body = %s, want a null slot", rec.Body)
	}
	updated := decode[core.SyncResult](t, rec)
	if updated.Updated != 1 || updated.Skipped != 1 || !updated.Items[0].IsLowStock {
		t.Errorf("bulk update = %+v", updated)
	}

	rec = ts.do(http.MethodDelete, "/items/bulk", map[string]any{"ids": []string{created.Items[0].ID, created.Items[1].ID}})
	if rec.Code != http.StatusOK {
		t.Fatalf("bulk delete status = %d: %s", rec.Code, rec.Body)
	}
	if msg := decode[messageResponse](t, rec); msg.Message != "2 items deleted" {
		t.Errorf("message = %q, want %q", msg.Message, "2 items deleted")
	}
}

func TestBulkItems_Validation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		body   any
	}{
		{"create empty", http.MethodPost, map[string]any{"items": []any{}}},
		{"create missing", http.MethodPost, map[string]any{}},
		{"create bad item", http.MethodPost, map[string]any{"items": []map[string]any{{"name": "A"}}}},
		{"update empty", http.MethodPut, map[string]any{"items": []any{}}},
		{"update no data", http.MethodPut, map[string]any{"items": []map[string]any{{"id": "x", "update": map[string]any{}}}}},
		{"delete empty", http.MethodDelete, map[string]any{"ids": []string{}}},
		{"delete bad id", http.MethodDelete, map[string]any{"ids": []string{"nope"}}},
		{"malformed json", http.MethodPost, `{"items": [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(tt.method, "/items/bulk", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body)
			}
		})
	}
}

func TestLowStockAlerts(t *testing.T) {
	ts := newTestServer(t)
	sup := ts.supplier("Acme")
	ts.item("Low", 1, sup.ID)
	ts.item("Plenty", 100, sup.ID)

	rec := ts.do(http.MethodGet, "/items/alerts/low-stock", nil)
	views := decode[[]core.ItemView](t, rec)
	if len(views) != 1 || views[0].Name != "Low" {
		t.Errorf("low stock = %+v, want only Low", views)
	}

	rec = ts.do(http.MethodGet, "/items/alerts/low-stock", nil, "HX-Request", "true")
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(rec.Body.String(), "Low") || strings.Contains(rec.Body.String(), "Plenty") {
		t.Errorf("report = %s", rec.Body)
	}
}

func TestSuppliers(t *testing.T) {
	ts := newTestServer(t)
	sup := ts.supplier("Acme")

	rec := ts.do(http.MethodPut, "/suppliers/"+sup.ID, map[string]any{"address": "1 Main St"})
	if got := decode[core.Supplier](t, rec); got.Address != "1 Main St" || got.Name != "Acme" {
		t.Errorf("updated supplier = %+v", got)
	}

	if rec := ts.do(http.MethodPost, "/suppliers", map[string]any{"name": "NoContact"}); rec.Code != http.StatusBadRequest {
		t.Errorf("missing contact status = %d, want 400", rec.Code)
	}

	rec = ts.do(http.MethodGet, "/suppliers", nil)
	if list := decode[[]core.Supplier](t, rec); len(list) != 1 {
		t.Errorf("list = %+v, want 1", list)
	}

	rec = ts.do(http.MethodGet, "/suppliers/missing", nil)
	if rec.Code != http.StatusNotFound || decode[ErrorResponse](t, rec).Code != "SUP001" {
		t.Errorf("missing supplier: status %d body %s", rec.Code, rec.Body)
	}
}

func multipartCSV(t *testing.T, field, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "items.csv")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.WriteString(fw, content)
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func (ts *testServer) upload(field, content string) *httptest.ResponseRecorder {
	ts.t.Helper()
	body, contentType := multipartCSV(ts.t, field, content)
	req := httptest.NewRequest(http.MethodPost, "/items/import/csv", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestImportCSV(t *testing.T) {
	ts := newTestServer(t)
	sup := ts.supplier("Acme")

	content := "Name,Quantity,Supplier ID,Price,Low Stock Threshold\n" +
		"Bolt,3," + sup.ID + ",0.25,5\n" +
		",7,,1,\n" +
		"Nut,100," + sup.ID + ",0.1,\n"

	rec := ts.upload("file", content)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	result := decode[core.SyncResult](t, rec)
	if result.Created != 2 || len(result.RowErrors) != 1 || result.RowErrors[0].Line != 3 {
		t.Errorf("result = %+v, want 2 created and a row error on line 3", result)
	}

	rec = ts.upload("file", "Name,Quantity\nBolt,40\n")
	result = decode[core.SyncResult](t, rec)
	if result.Updated != 1 || result.Created != 0 {
		t.Errorf("second import = %+v, want 1 update", result)
	}
	items, _ := ts.store.ListItems(context.Background(), core.ItemFilter{Names: []string{"Bolt"}})
	if len(items) != 1 || items[0].Quantity != 40 || items[0].IsLowStock || items[0].Price != 0.25 {
		t.Errorf("Bolt = %+v, want quantity 40, not low, price kept", items)
	}

	entries, _ := os.ReadDir(ts.cfg.Upload.TempDir)
	if len(entries) != 0 {
		t.Errorf("temp dir has %d leftover files, want 0", len(entries))
	}
}

func TestImportCSV_Errors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		field    string
		content  string
		wantCode string
	}{
		{"missing file", "upload", "Name\nA\n", "VAL001"},
		{"missing name column", "file", "Quantity\n1\n", "CSV002"},
		{"empty file", "file", "", "CSV003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.upload(tt.field, tt.content)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body)
			}
			if !strings.Contains(rec.Body.String(), tt.wantCode) {
				t.Errorf("body = %s, want code %s", rec.Body, tt.wantCode)
			}
		})
	}

	items, _ := ts.store.ListItems(context.Background(), core.ItemFilter{})
	if len(items) != 0 {
		t.Errorf("store has %d items after failed imports, want 0", len(items))
	}
	entries, _ := os.ReadDir(ts.cfg.Upload.TempDir)
	if len(entries) != 0 {
		t.Errorf("temp dir has %d leftover files, want 0", len(entries))
	}
}

func TestImportCSV_TooLarge(t *testing.T) {
	ts := newTestServer(t)
	ts.cfg.Upload.MaxFileSize = 64

	rec := ts.upload("file", "Name\n"+strings.Repeat("a", 512)+"\n")
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413: %s", rec.Code, rec.Body)
	}
}

func TestExportCSV(t *testing.T) {
	ts := newTestServer(t)
	sup := ts.supplier("Acme")
	ts.item("Bolt", 3, sup.ID)

	rec := ts.do(http.MethodGet, "/items/export/csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "inventory.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	rows, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header + 1", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(core.ExportColumns, ",") {
		t.Errorf("header = %v, want %v", rows[0], core.ExportColumns)
	}
	if rows[1][1] != "Bolt" || rows[1][3] != "Acme" || rows[1][7] != "true" {
		t.Errorf("row = %v", rows[1])
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decode[healthResponse](t, rec)
	if resp.Status != "ok" || resp.Imports.MaxConcurrent != 2 {
		t.Errorf("health = %+v", resp)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("security headers missing")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", core.ValidationErrors{{Field: "x", Message: "bad"}}, http.StatusBadRequest},
		{"invalid csv", core.ErrInvalidCSV, http.StatusBadRequest},
		{"not found", &core.NotFoundError{Entity: "item"}, http.StatusNotFound},
		{"too many imports", core.ErrTooManyImports, http.StatusServiceUnavailable},
		{"rate limited", errRateLimited, http.StatusTooManyRequests},
		{"store failure", &core.StoreError{Op: "x", Err: io.ErrUnexpectedEOF}, http.StatusInternalServerError},
		{"store validation", &core.StoreError{Op: "x", Err: core.ValidationErrors{{Message: "m"}}}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor() = %d, want %d", got, tt.want)
			}
		})
	}
}
