package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

const salesCSV = "Product,Category,Region,Price,Quantity,Month\n" +
	"A,X,E,10,2,Jan\n" +
	"B,X,W,5,4,Feb\n"

// postUpload posts a multipart form with the given file and fields to path.
func postUpload(t *testing.T, h http.Handler, path, filename, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = fw.Write([]byte(content))
	}
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	return rw
}

func TestHealth(t *testing.T) {
	h := NewRouter(DefaultOptions())
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rw.Code != http.StatusOK || !strings.Contains(rw.Body.String(), `"ok"`) {
		t.Fatalf("health = %d %s", rw.Code, rw.Body.String())
	}
}

func TestAnalyzeJSONMatchesCoreTotals(t *testing.T) {
	h := NewRouter(DefaultOptions())
	rw := postUpload(t, h, "/api/analyze", "sales.csv", salesCSV, map[string]string{"mode": "fixed"})
	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rw.Code, rw.Body.String())
	}
	if rw.Header().Get("X-Run-ID") == "" {
		t.Fatal("missing X-Run-ID header")
	}
	var doc struct {
		Overview struct {
			Rows       int      `json:"rows"`
			TotalSales *float64 `json:"total_sales"`
		} `json:"overview"`
		Aggregates []struct {
			Name string `json:"name"`
			Rows []struct {
				Key   string  `json:"key"`
				Value float64 `json:"value"`
			} `json:"rows"`
		} `json:"aggregates"`
	}
	if err := json.Unmarshal(rw.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Overview.Rows != 2 || doc.Overview.TotalSales == nil || *doc.Overview.TotalSales != 40 {
		t.Fatalf("overview = %+v", doc.Overview)
	}
	if len(doc.Aggregates) != 4 {
		t.Fatalf("aggregates = %d", len(doc.Aggregates))
	}
	if a := doc.Aggregates[1]; a.Name != "category_sales" || len(a.Rows) != 1 || a.Rows[0].Value != 40 {
		t.Fatalf("category = %+v", a)
	}
}

func TestAnalyzeDynamicFormMapping(t *testing.T) {
	in := "Item,Unit Price,Qty\nA,2,3\nB,1,1\n"
	h := NewRouter(DefaultOptions())
	rw := postUpload(t, h, "/api/analyze", "s.csv", in, map[string]string{
		"product":  "Item",
		"price":    "Unit Price",
		"quantity": "Qty",
		"format":   "markdown",
	})
	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rw.Code, rw.Body.String())
	}
	body := rw.Body.String()
	if !strings.Contains(body, "Total Sales: 7.00") || !strings.Contains(body, "[TOP PRODUCTS]") {
		t.Fatalf("markdown:\n%s", body)
	}
}

func TestAnalyzeModeSetsDescribeScope(t *testing.T) {
	h := NewRouter(DefaultOptions())
	described := func(fields map[string]string) map[string]bool {
		rw := postUpload(t, h, "/api/analyze", "sales.csv", salesCSV, fields)
		if rw.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rw.Code, rw.Body.String())
		}
		var doc struct {
			Statistics []struct {
				Name string `json:"name"`
			} `json:"statistics"`
		}
		if err := json.Unmarshal(rw.Body.Bytes(), &doc); err != nil {
			t.Fatalf("decode: %v", err)
		}
		names := map[string]bool{}
		for _, s := range doc.Statistics {
			names[s.Name] = true
		}
		return names
	}
	if got := described(map[string]string{"mode": "fixed"}); got["Product"] || !got["Price"] {
		t.Fatalf("fixed mode described %v", got)
	}
	if got := described(nil); !got["Product"] {
		t.Fatalf("dynamic mode described %v", got)
	}
}

func TestAnalyzeXLSX(t *testing.T) {
	h := NewRouter(DefaultOptions())
	rw := postUpload(t, h, "/api/analyze", "sales.csv", salesCSV, map[string]string{"format": "xlsx"})
	if rw.Code != http.StatusOK || rw.Header().Get("Content-Type") != xlsxContentType {
		t.Fatalf("status = %d type = %s", rw.Code, rw.Header().Get("Content-Type"))
	}
	f, err := excelize.OpenReader(bytes.NewReader(rw.Body.Bytes()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if f.GetSheetList()[0] != "Overview" {
		t.Fatalf("sheets = %v", f.GetSheetList())
	}
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	h := NewRouter(DefaultOptions())
	cases := []struct {
		name     string
		filename string
		fields   map[string]string
		want     int
	}{
		{"missing file", "", nil, http.StatusBadRequest},
		{"unsupported", "notes.pdf", nil, http.StatusUnsupportedMediaType},
		{"bad mode", "sales.csv", map[string]string{"mode": "sideways"}, http.StatusBadRequest},
		{"bad top_n", "sales.csv", map[string]string{"top_n": "zero"}, http.StatusBadRequest},
		{"bad format", "sales.csv", map[string]string{"format": "pdf"}, http.StatusBadRequest},
	}
	for _, c := range cases {
		rw := postUpload(t, h, "/api/analyze", c.filename, salesCSV, c.fields)
		if rw.Code != c.want {
			t.Fatalf("%s: status = %d, want %d (%s)", c.name, rw.Code, c.want, rw.Body.String())
		}
		if !strings.Contains(rw.Body.String(), `"error"`) {
			t.Fatalf("%s: body = %s", c.name, rw.Body.String())
		}
	}
}

func TestUploadLimit(t *testing.T) {
	opt := DefaultOptions()
	opt.MaxUploadBytes = 64
	h := NewRouter(opt)
	rw := postUpload(t, h, "/api/analyze", "big.csv", strings.Repeat("a,b\n", 200), nil)
	if rw.Code != http.StatusRequestEntityTooLarge && rw.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rw.Code)
	}
}

func TestColumns(t *testing.T) {
	h := NewRouter(DefaultOptions())
	rw := postUpload(t, h, "/api/columns", "sales.csv", salesCSV, nil)
	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d", rw.Code)
	}
	var resp struct {
		Rows    int `json:"rows"`
		Columns []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"columns"`
		Mapping map[string]string `json:"mapping"`
	}
	if err := json.Unmarshal(rw.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Rows != 2 || len(resp.Columns) != 6 || resp.Columns[3].Type != "number" {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Mapping["price"] != "Price" {
		t.Fatalf("mapping = %v", resp.Mapping)
	}
}

func TestChartEndpoint(t *testing.T) {
	h := NewRouter(DefaultOptions())
	rw := postUpload(t, h, "/api/charts/monthly_sales", "sales.csv", salesCSV, nil)
	if rw.Code != http.StatusOK || rw.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("status = %d type = %s", rw.Code, rw.Header().Get("Content-Type"))
	}

	// no Region column: the aggregate is absent
	rw = postUpload(t, h, "/api/charts/region_sales", "s.csv", "Product,Price,Quantity\nA,1,1\n", nil)
	if rw.Code != http.StatusNotFound {
		t.Fatalf("absent aggregate status = %d", rw.Code)
	}
	rw = postUpload(t, h, "/api/charts/pie", "sales.csv", salesCSV, nil)
	if rw.Code != http.StatusNotFound {
		t.Fatalf("unknown chart status = %d", rw.Code)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, "127.0.0.1:0", NewRouter(DefaultOptions())) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
