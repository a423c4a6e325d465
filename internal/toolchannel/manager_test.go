package toolchannel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newFakeToolServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test-token","token_type":"bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/mcp/sse", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		var req JSONRPCRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		switch req.Method {
		case "tools/list":
			result, _ := json.Marshal(listToolsResult{Tools: []Descriptor{
				{Name: "get_quote", Description: "fetch a quote", InputSchema: json.RawMessage(`{"type":"object"}`)},
			}})
			writeRPCResult(w, req.ID, result)
		case "tools/call":
			var params callToolParams
			json.Unmarshal(req.Params, &params)
			result, _ := json.Marshal(CallResult{Content: []ContentBlock{{Type: "text", Text: "AAPL is $190"}}})
			writeRPCResult(w, req.ID, result)
		default:
			http.Error(w, "unknown method", http.StatusBadRequest)
		}
	})
	return httptest.NewServer(mux)
}

func writeRPCResult(w http.ResponseWriter, id string, result json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func testManagerConfig(t *testing.T, srv *httptest.Server, clientType string) *Config {
	t.Helper()
	claims := softwareStatementClaims{
		ClientID:     "client-1",
		ClientSecret: "secret",
		TokenURL:     srv.URL + "/oauth/token",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any-key"))
	if err != nil {
		t.Fatalf("sign statement: %v", err)
	}

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse server port: %v", err)
	}

	return &Config{
		ServerHost:        u.Scheme + "://" + u.Hostname(),
		ServerPort:        port,
		SoftwareStatement: signed,
		ClientContext:     ClientContext{Type: clientType},
	}
}

func TestManager_ConnectRefreshInvokeClose(t *testing.T) {
	srv := newFakeToolServer(t)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgr := New(testManagerConfig(t, srv, "openbb"), nil)
	if err := mgr.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer mgr.Close()

	if !mgr.Connected() {
		t.Error("expected Connected() true after Connect")
	}
	if mgr.SessionID() == "" {
		t.Error("expected a non-empty session id after Connect")
	}

	tools := mgr.Tools()
	if len(tools) != 1 || tools[0].Name != "get_quote" {
		t.Fatalf("Tools() = %#v", tools)
	}
	if !mgr.HasTool("get_quote") {
		t.Error("expected HasTool(get_quote) true")
	}
	if mgr.HasTool("nonexistent") {
		t.Error("expected HasTool(nonexistent) false")
	}

	text, isError, err := mgr.Invoke(ctx, "get_quote", map[string]any{"ticker": "AAPL"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if isError {
		t.Error("expected isError false")
	}
	if text != "AAPL is $190" {
		t.Errorf("text = %q", text)
	}

	if err := mgr.HealthProbe(ctx); err != nil {
		t.Errorf("HealthProbe: %v", err)
	}

	if err := mgr.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if mgr.Connected() {
		t.Error("expected Connected() false after Close")
	}
}

func TestManager_InvokeBeforeConnectFails(t *testing.T) {
	mgr := New(&Config{ServerHost: "https://example.com", ServerPort: 443, SoftwareStatement: "irrelevant"}, nil)
	_, _, err := mgr.Invoke(context.Background(), "get_quote", nil)
	if err == nil {
		t.Error("expected error invoking a tool before Connect")
	}
}

func TestManager_ConnectFailsWithBadStatement(t *testing.T) {
	mgr := New(&Config{ServerHost: "https://example.com", ServerPort: 443, SoftwareStatement: "not-a-jwt"}, nil)
	if err := mgr.Connect(context.Background()); err == nil {
		t.Error("expected Connect to fail with a malformed software statement")
	}
}

func TestManager_ToolCategoriesHeaderReachesServer(t *testing.T) {
	var gotHeader string
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test-token","token_type":"bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/mcp/sse", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Tool-Categories")
		var req JSONRPCRequest
		json.NewDecoder(r.Body).Decode(&req)
		result, _ := json.Marshal(listToolsResult{Tools: []Descriptor{{Name: "get_quote"}}})
		writeRPCResult(w, req.ID, result)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	mgr := New(testManagerConfig(t, srv, "openbb"), nil)
	if err := mgr.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer mgr.Close()

	if gotHeader != "financial,openbb" {
		t.Errorf("X-Tool-Categories = %q, want financial,openbb", gotHeader)
	}
}
