package elasticsearch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmrzaf/mockgen/internal/domain"
)

// ElasticsearchTarget mirrors each generated table into an index of the
// same name. Columns are mapped as keyword fields; empty cells are omitted
// from documents.
type ElasticsearchTarget struct {
	baseURL string
	client  *http.Client
}

func NewElasticsearchTarget(dsn string) *ElasticsearchTarget {
	return &ElasticsearchTarget{baseURL: normalizeURL(dsn)}
}

func (t *ElasticsearchTarget) Connect() error {
	t.client = &http.Client{Timeout: 15 * time.Second}
	resp, err := t.client.Get(t.baseURL + "/")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("elasticsearch ping failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (t *ElasticsearchTarget) Close() error { return nil }

func (t *ElasticsearchTarget) do(method, path, contentType string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, t.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, respBody, nil
}

func (t *ElasticsearchTarget) CreateTableIfNotExists(table string, columns []domain.ColumnSpec) error {
	properties := make(map[string]any, len(columns))
	for _, col := range columns {
		properties[col.Name] = map[string]string{"type": "keyword"}
	}
	payload, err := json.Marshal(map[string]any{
		"mappings": map[string]any{"properties": properties},
	})
	if err != nil {
		return err
	}

	status, body, err := t.do(http.MethodPut, "/"+toIndexName(table), "application/json", payload)
	if err != nil {
		return err
	}
	if status == http.StatusOK || status == http.StatusCreated {
		return nil
	}
	if status == http.StatusBadRequest && strings.Contains(string(body), "resource_already_exists_exception") {
		return nil
	}
	return fmt.Errorf("elasticsearch create index failed: status=%d body=%s", status, strings.TrimSpace(string(body)))
}

func (t *ElasticsearchTarget) TruncateTable(table string) error {
	payload := []byte(`{"query":{"match_all":{}}}`)
	status, body, err := t.do(http.MethodPost, "/"+toIndexName(table)+"/_delete_by_query?refresh=true", "application/json", payload)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("elasticsearch truncate failed: status=%d body=%s", status, strings.TrimSpace(string(body)))
	}
	return nil
}

func (t *ElasticsearchTarget) InsertBatch(table string, columns []string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	indexName := toIndexName(table)
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range rows {
		if err := enc.Encode(map[string]any{"index": map[string]string{"_index": indexName}}); err != nil {
			return err
		}
		doc := make(map[string]any, len(columns))
		for i, col := range columns {
			if i < len(row) && row[i] != nil {
				doc[col] = row[i]
			}
		}
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}

	status, body, err := t.do(http.MethodPost, "/_bulk", "application/x-ndjson", buf.Bytes())
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("elasticsearch bulk insert failed: status=%d body=%s", status, strings.TrimSpace(string(body)))
	}
	var bulkResp struct {
		Errors bool `json:"errors"`
	}
	_ = json.Unmarshal(body, &bulkResp)
	if bulkResp.Errors {
		return fmt.Errorf("elasticsearch bulk insert returned errors")
	}
	return nil
}

func (t *ElasticsearchTarget) ServerVersion() (string, error) {
	if t.client == nil {
		t.client = &http.Client{Timeout: 15 * time.Second}
	}
	status, body, err := t.do(http.MethodGet, "/", "", nil)
	if err != nil {
		return "", err
	}
	if status < 200 || status > 299 {
		return "", fmt.Errorf("status=%d body=%s", status, strings.TrimSpace(string(body)))
	}
	var root struct {
		Version struct {
			Number string `json:"number"`
		} `json:"version"`
	}
	if err := json.Unmarshal(body, &root); err != nil {
		return "", err
	}
	return root.Version.Number, nil
}

func normalizeURL(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "http://localhost:9200"
	}
	if strings.HasPrefix(dsn, "http://") || strings.HasPrefix(dsn, "https://") {
		return strings.TrimRight(dsn, "/")
	}
	return "http://" + strings.TrimRight(dsn, "/")
}

func toIndexName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return url.PathEscape(name)
}
