package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const importJSON = `{
  "nodes": [
    {"nodeId": "S1", "name": "Supplier", "type": "supplier"},
    {"nodeId": "W1", "name": "Warehouse", "type": "warehouse"}
  ],
  "routes": [
    {"source": "S1", "target": "W1", "cost": 12},
    {"source": "W1", "target": "R9", "cost": 3}
  ]
}`

const importYAML = `
nodes:
  - nodeId: S1
    name: Supplier
    type: supplier
  - nodeId: W1
    name: Warehouse
    type: warehouse
routes:
  - source: S1
    target: W1
`

func TestImportDataset_JSON(t *testing.T) {
	server, _ := setupTestServer(t)

	rr := do(t, server, http.MethodPost, "/api/upload", importJSON)
	expectStatus(t, rr, http.StatusCreated)

	resp := decodeBody[ImportResponse](t, rr)
	if resp.NodesInserted != 2 || resp.RoutesInserted != 1 || resp.RoutesSkipped != 1 {
		t.Errorf("Unexpected import counts: %+v", resp)
	}
	if len(resp.MissingNodes) != 1 || resp.MissingNodes[0] != "R9" {
		t.Errorf("Expected R9 reported missing, got %v", resp.MissingNodes)
	}
	if resp.Warning == "" {
		t.Error("Expected a warning about skipped routes")
	}
}

func TestImportDataset_YAML(t *testing.T) {
	server, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(importYAML))
	req.Header.Set("Content-Type", "application/yaml")
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	expectStatus(t, rr, http.StatusCreated)

	resp := decodeBody[ImportResponse](t, rr)
	if resp.NodesInserted != 2 || resp.RoutesInserted != 1 || resp.RoutesSkipped != 0 {
		t.Errorf("Unexpected import counts: %+v", resp)
	}
}

func TestImportDataset_Invalid(t *testing.T) {
	server, _ := setupTestServer(t)

	expectStatus(t, do(t, server, http.MethodPost, "/api/upload", "{broken"), http.StatusBadRequest)
	expectStatus(t, do(t, server, http.MethodPost, "/api/upload", `{"nodes": [], "routes": []}`), http.StatusBadRequest)
	expectStatus(t, do(t, server, http.MethodPost, "/api/upload",
		`{"nodes": [{"nodeId": "X", "name": "X", "type": "moon"}]}`), http.StatusBadRequest)
}

func TestClearAll(t *testing.T) {
	server, store := setupTestServer(t)
	seedDiamond(t, store)

	rr := do(t, server, http.MethodDelete, "/api/upload/clear-all", nil)
	expectStatus(t, rr, http.StatusOK)

	resp := decodeBody[ClearResponse](t, rr)
	if resp.NodesDeleted != 4 || resp.RoutesDeleted != 4 {
		t.Errorf("Unexpected delete counts: %+v", resp)
	}
	rr = do(t, server, http.MethodGet, "/api/nodes", nil)
	if list := decodeBody[NodeListResponse](t, rr); list.Count != 0 {
		t.Errorf("Expected empty store, got %d nodes", list.Count)
	}
}
