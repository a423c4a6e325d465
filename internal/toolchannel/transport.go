package toolchannel

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// transport is the streaming-HTTP connection to a tool server: JSON-RPC
// calls over POST to "<base>/mcp", with an SSE listener on
// "<base>/mcp/sse" for server-pushed events. It injects the bearer token
// and X-Tool-Categories header the config calls for on every request.
type transport struct {
	cfg    *Config
	auth   *AuthLayer
	logger *slog.Logger
	client *http.Client

	mcpURL string
	sseURL string

	events    chan *JSONRPCNotification
	connected atomic.Bool
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

func newTransport(cfg *Config, auth *AuthLayer, logger *slog.Logger) *transport {
	if logger == nil {
		logger = slog.Default()
	}
	base := cfg.BaseURL()
	return &transport{
		cfg:      cfg,
		auth:     auth,
		logger:   logger.With("component", "toolchannel.transport"),
		client:   &http.Client{Timeout: 30 * time.Second},
		mcpURL:   base + "/mcp",
		sseURL:   base + "/mcp/sse",
		events:   make(chan *JSONRPCNotification, 100),
		stopChan: make(chan struct{}),
	}
}

// connect marks the transport live and starts the SSE listener goroutine.
// It performs no handshake of its own; Manager.Connect issues the
// tools/list probe that confirms the server is actually reachable.
func (t *transport) connect(ctx context.Context) error {
	t.connected.Store(true)
	t.wg.Add(1)
	go t.sseLoop(ctx)
	return nil
}

// close stops the SSE listener and marks the transport dead. It is safe
// to call more than once.
func (t *transport) close() error {
	if !t.connected.CompareAndSwap(true, false) {
		return nil
	}
	close(t.stopChan)
	t.wg.Wait()
	return nil
}

func (t *transport) applyHeaders(ctx context.Context, req *http.Request) error {
	token, err := t.auth.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Tool-Categories", t.cfg.ToolCategoriesHeader())
	return nil
}

// call issues a JSON-RPC request and waits for its response.
func (t *transport) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if !t.connected.Load() {
		return nil, fmt.Errorf("toolchannel: not connected")
	}

	reqBody := JSONRPCRequest{JSONRPC: "2.0", ID: uuid.New().String(), Method: method}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		reqBody.Params = data
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.mcpURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if err := t.applyHeaders(ctx, httpReq); err != nil {
		return nil, err
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tool server request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tool server returned HTTP %d: %s", resp.StatusCode, string(data))
	}

	var rpcResp JSONRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("tool server error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}

// eventsChan returns the notification channel fed by the SSE listener.
func (t *transport) eventsChan() <-chan *JSONRPCNotification {
	return t.events
}

// sseLoop holds an SSE connection open and reconnects with a fixed
// backoff on every drop, for as long as the transport stays connected.
func (t *transport) sseLoop(ctx context.Context) {
	defer t.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stopChan:
			return
		default:
		}

		t.connectSSE(ctx)

		select {
		case <-ctx.Done():
			return
		case <-t.stopChan:
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func (t *transport) connectSSE(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.sseURL, nil)
	if err != nil {
		t.logger.Debug("failed to build SSE request", "error", err)
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if err := t.applyHeaders(ctx, req); err != nil {
		t.logger.Debug("failed to authorize SSE request", "error", err)
		return
	}

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Debug("SSE connection failed", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.logger.Debug("SSE returned non-200", "status", resp.StatusCode)
		return
	}
	t.logger.Debug("SSE connected", "url", t.sseURL)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		case <-t.stopChan:
			return
		default:
		}

		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		var notif JSONRPCNotification
		if err := json.Unmarshal([]byte(data), &notif); err != nil || notif.Method == "" {
			continue
		}
		select {
		case t.events <- &notif:
		default:
			t.logger.Warn("event channel full, dropping notification", "method", notif.Method)
		}
	}
	if err := scanner.Err(); err != nil {
		t.logger.Debug("SSE scanner error", "error", err)
	}
}
