package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestServer(t *testing.T, store *fakeStore) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(NewRouter(NewDispatcher(store)))
	t.Cleanup(srv.Close)
	return srv
}

func postRPC(t *testing.T, srv *httptest.Server, body string, header http.Header) map[string]any {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/rpc", strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("post /rpc: %v", err)
	}
	defer resp.Body.Close()

	// Protocol failures live in the envelope, never in the HTTP status.
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var envelope map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return envelope
}

func TestRouter_RPCRoundTrip(t *testing.T) {
	srv := newTestServer(t, newFakeStore())

	envelope := postRPC(t, srv, `{"jsonrpc":"2.0","id":7,"method":"ping"}`, nil)

	if envelope["jsonrpc"] != "2.0" {
		t.Errorf("jsonrpc = %v, want 2.0", envelope["jsonrpc"])
	}
	if envelope["id"] != float64(7) {
		t.Errorf("id = %v, want 7", envelope["id"])
	}
	if envelope["error"] != nil {
		t.Errorf("unexpected error: %v", envelope["error"])
	}
}

func TestRouter_RPCErrorsStayHTTP200(t *testing.T) {
	srv := newTestServer(t, newFakeStore())

	envelope := postRPC(t, srv, `{broken`, nil)

	errObj, ok := envelope["error"].(map[string]any)
	if !ok {
		t.Fatalf("error member missing from envelope: %v", envelope)
	}
	if errObj["code"] != float64(-32700) {
		t.Errorf("code = %v, want -32700", errObj["code"])
	}
}

func TestRouter_BearerForwardedToStore(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(t, store)

	header := http.Header{}
	header.Set("Authorization", "Bearer s3cret")
	postRPC(t, srv,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"persona_list"}}`,
		header)

	if store.lastToken != "s3cret" {
		t.Errorf("store saw token %q, want s3cret", store.lastToken)
	}
}

func TestRouter_NoBearerMeansNoToken(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(t, store)

	postRPC(t, srv,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"persona_list"}}`,
		nil)

	if store.lastToken != "" {
		t.Errorf("store saw token %q, want empty", store.lastToken)
	}
}

func TestRouter_Healthz(t *testing.T) {
	srv := newTestServer(t, newFakeStore())

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get /healthz: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Name != ServerName {
		t.Errorf("name = %s, want %s", body.Name, ServerName)
	}
}

func TestRouter_DebugTools(t *testing.T) {
	srv := newTestServer(t, newFakeStore())

	resp, err := srv.Client().Get(srv.URL + "/debug/tools")
	if err != nil {
		t.Fatalf("get /debug/tools: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	found := false
	for _, tool := range body.Tools {
		if tool.Name == "persona_writer_spec" {
			found = true
		}
	}
	if !found {
		t.Errorf("debug catalog missing persona_writer_spec")
	}
}
