package elasticsearch

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mmrzaf/mockgen/internal/domain"
)

func TestElasticsearchTarget_BasicFlow(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping due to restricted socket sandbox: %v", err)
	}
	var mapping, bulk string
	ts := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":{"number":"8.12.0"}}`))
		case r.Method == http.MethodPut && r.URL.Path == "/material_mara":
			body, _ := io.ReadAll(r.Body)
			mapping = string(body)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"acknowledged":true}`))
		case r.Method == http.MethodPost && r.URL.Path == "/material_mara/_delete_by_query":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"deleted":1}`))
		case r.Method == http.MethodPost && r.URL.Path == "/_bulk":
			body, _ := io.ReadAll(r.Body)
			bulk = string(body)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"errors":false}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	ts.Listener = ln
	ts.Start()
	defer ts.Close()

	tgt := NewElasticsearchTarget(ts.URL)
	if err := tgt.Connect(); err != nil {
		t.Fatal(err)
	}
	cols := []domain.ColumnSpec{{Name: "MATNR", Type: "int"}, {Name: "MAKTX", Type: "varchar"}}
	if err := tgt.CreateTableIfNotExists("material_mara", cols); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(mapping, `"MATNR":{"type":"keyword"}`) {
		t.Fatalf("expected keyword mapping, got %s", mapping)
	}
	if err := tgt.InsertBatch("material_mara", []string{"MATNR", "MAKTX"}, [][]interface{}{{"000123", nil}}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(bulk), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected action and document lines, got %q", bulk)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &doc); err != nil {
		t.Fatal(err)
	}
	if doc["MATNR"] != "000123" {
		t.Fatalf("unexpected document %v", doc)
	}
	if _, ok := doc["MAKTX"]; ok {
		t.Fatal("empty cells must be omitted")
	}
	if err := tgt.TruncateTable("material_mara"); err != nil {
		t.Fatal(err)
	}
	if ver, err := tgt.ServerVersion(); err != nil || ver != "8.12.0" {
		t.Fatalf("unexpected version result ver=%q err=%v", ver, err)
	}
}
