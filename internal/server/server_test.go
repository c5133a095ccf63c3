package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"

	"emmark/internal/config"
	"emmark/internal/db"
	"emmark/internal/domain"
	"emmark/internal/engine"
	"emmark/internal/migrate"
	"emmark/internal/repo"
	"emmark/internal/server"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	workspace := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, config.Default())
	handler, err := server.New(server.Config{Engine: e, BasePath: "/v0"})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	ts := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	t.Cleanup(ts.close)
	return ts
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, data
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, body := doJSON(t, ts.client, http.MethodGet, ts.URL+"/v0/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health: status %d body %s", resp.StatusCode, body)
	}
}

func TestClientCRUD(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, ts.client, http.MethodPost, ts.URL+"/v0/clients", map[string]any{
		"name":   "Ana",
		"branch": "Centro",
		"phone":  "555-1234",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d body %s", resp.StatusCode, body)
	}
	var created domain.Client
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == "" || created.Name != "Ana" {
		t.Fatalf("created client: %+v", created)
	}

	resp, body = doJSON(t, ts.client, http.MethodPut, ts.URL+"/v0/clients/"+created.ID, map[string]any{
		"name":        "Ana",
		"branch":      "Centro",
		"phone":       "555-0000",
		"isConfirmed": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: status %d body %s", resp.StatusCode, body)
	}

	resp, body = doJSON(t, ts.client, http.MethodGet, ts.URL+"/v0/clients", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}
	var clients []domain.Client
	if err := json.Unmarshal(body, &clients); err != nil {
		t.Fatalf("decode list: %v body %s", err, body)
	}
	if len(clients) != 1 || clients[0].Phone != "555-0000" || !clients[0].IsConfirmed {
		t.Fatalf("list after update: %+v", clients)
	}

	resp, _ = doJSON(t, ts.client, http.MethodDelete, ts.URL+"/v0/clients/"+created.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}
	// idempotent second delete
	resp, _ = doJSON(t, ts.client, http.MethodDelete, ts.URL+"/v0/clients/"+created.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("second delete: status %d", resp.StatusCode)
	}
}

func TestUpdateUnknownClientReturns404(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := doJSON(t, ts.client, http.MethodPut, ts.URL+"/v0/clients/missing", map[string]any{"name": "Nadie"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestActivityAttachmentRoundTripOverAPI(t *testing.T) {
	ts := newTestServer(t)
	original := []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xfe}
	resp, body := doJSON(t, ts.client, http.MethodPost, ts.URL+"/v0/activities", map[string]any{
		"name": "Carpa",
		"cost": 1500,
		"type": "Logística",
		"attachment": map[string]any{
			"name": "plano.pdf",
			"type": "application/pdf",
			"data": repo.EncodeDataURL("application/pdf", original),
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d body %s", resp.StatusCode, body)
	}
	var created domain.Activity
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	resp, data := doJSON(t, ts.client, http.MethodGet, ts.URL+"/v0/activities/"+created.ID+"/attachment", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download: status %d body %s", resp.StatusCode, data)
	}
	if resp.Header.Get("Content-Type") != "application/pdf" {
		t.Fatalf("content type: %s", resp.Header.Get("Content-Type"))
	}
	if !bytes.Equal(data, original) {
		t.Fatalf("attachment bytes changed across API round trip")
	}
}

func TestOversizeAttachmentRejectedOverAPI(t *testing.T) {
	ts := newTestServer(t)
	big := bytes.Repeat([]byte("x"), 6*1024*1024)
	resp, body := doJSON(t, ts.client, http.MethodPost, ts.URL+"/v0/activities", map[string]any{
		"name": "Carpa",
		"attachment": map[string]any{
			"name": "grande.bin",
			"type": "application/octet-stream",
			"data": repo.EncodeDataURL("application/octet-stream", big),
		},
	})
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d body %.200s", resp.StatusCode, body)
	}
}

func TestStatsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	doJSON(t, ts.client, http.MethodPost, ts.URL+"/v0/clients", map[string]any{"name": "Ana", "isConfirmed": true})
	doJSON(t, ts.client, http.MethodPost, ts.URL+"/v0/activities", map[string]any{"name": "Carpa", "cost": 100, "status": "Finalizada"})

	resp, body := doJSON(t, ts.client, http.MethodGet, ts.URL+"/v0/stats", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats: status %d body %s", resp.StatusCode, body)
	}
	var out struct {
		Stats struct {
			TotalClients     int     `json:"total_clients"`
			ConfirmationRate int     `json:"confirmation_rate"`
			TotalCost        float64 `json:"total_cost"`
			Progress         int     `json:"progress"`
		} `json:"stats"`
		StatusBreakdown []struct {
			Status string `json:"status"`
			Count  int    `json:"count"`
		} `json:"status_breakdown"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode stats: %v body %s", err, body)
	}
	if out.Stats.TotalClients != 1 || out.Stats.ConfirmationRate != 100 || out.Stats.TotalCost != 100 || out.Stats.Progress != 100 {
		t.Fatalf("stats payload: %+v", out.Stats)
	}
	if len(out.StatusBreakdown) != 3 {
		t.Fatalf("expected 3 status buckets, got %d", len(out.StatusBreakdown))
	}
}

func TestReportEndpointEmptyData(t *testing.T) {
	ts := newTestServer(t)
	resp, body := doJSON(t, ts.client, http.MethodGet, ts.URL+"/v0/report", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("report: status %d body %s", resp.StatusCode, body)
	}
	if !bytes.Contains(body, []byte("EVENTO EMMARK")) || !bytes.Contains(body, []byte("Lista de Clientes")) {
		t.Fatalf("report document incomplete:\n%s", body)
	}
}

func TestAuthRequiredWhenSecretConfigured(t *testing.T) {
	workspace := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, config.Default())
	handler, err := server.New(server.Config{Engine: e, BasePath: "/v0", Auth: server.AuthConfig{JWTSecret: "s3cret"}})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	defer func() {
		srv.Shutdown(context.Background())
		ln.Close()
	}()
	url := "http://" + ln.Addr().String()

	resp, _ := doJSON(t, &http.Client{}, http.MethodGet, url+"/v0/clients", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	// health stays open
	resp, _ = doJSON(t, &http.Client{}, http.MethodGet, url+"/v0/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health should bypass auth, got %d", resp.StatusCode)
	}
}
