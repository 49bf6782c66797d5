package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fruit-fusion/internal/core/config"
	"fruit-fusion/internal/core/proxy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.StoreConfig{
		URL:            server.URL + "/",
		AuthToken:      "token",
		TimeoutSeconds: 2,
	}, proxy.Settings{})
}

type product struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func TestClient_Get(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/products/p1.json", r.URL.Path)
		assert.Equal(t, "token", r.URL.Query().Get("auth"))
		w.Write([]byte(`{"name":"Mango","price":250}`))
	})

	var p product
	err := client.Get(context.Background(), "/products/p1", &p)

	require.NoError(t, err)
	assert.Equal(t, product{Name: "Mango", Price: 250}, p)
}

func TestClient_Get_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("null"))
	})

	var p product
	err := client.Get(context.Background(), "products/missing", &p)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, IsUnavailable(err))
}

func TestClient_Set(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/categories/c1.json", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"Citrus"}`, string(body))
		w.Write(body)
	})

	err := client.Set(context.Background(), "categories/c1", map[string]string{"name": "Citrus"})
	assert.NoError(t, err)
}

func TestClient_Update(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/orders/o1.json", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"status":"Delivered"}`, string(body))
		w.Write(body)
	})

	err := client.Update(context.Background(), "orders/o1", map[string]string{"status": "Delivered"})
	assert.NoError(t, err)
}

func TestClient_Remove(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/products/p1.json", r.URL.Path)
		w.Write([]byte("null"))
	})

	assert.NoError(t, client.Remove(context.Background(), "products/p1"))
}

func TestClient_Push(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders.json", r.URL.Path)
		w.Write([]byte(`{"name":"-NabcOrder1"}`))
	})

	key, err := client.Push(context.Background(), "orders", map[string]any{"totalAmount": 600})

	require.NoError(t, err)
	assert.Equal(t, "-NabcOrder1", key)
}

func TestClient_Push_MissingKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := client.Push(context.Background(), "orders", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing generated key")
}

func TestClient_Query(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders.json", r.URL.Path)
		assert.Equal(t, `"userId"`, r.URL.Query().Get("orderBy"))
		assert.Equal(t, `"u1"`, r.URL.Query().Get("equalTo"))
		w.Write([]byte(`{"o1":{"name":"A","price":1}}`))
	})

	var out map[string]product
	err := client.Query(context.Background(), "orders", "userId", "u1", &out)

	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, "A", out["o1"].Name)
}

func TestClient_Query_NoMatches(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	})

	var out map[string]product
	err := client.Query(context.Background(), "orders", "userId", "nobody", &out)

	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		unavailable bool
		message     string
	}{
		{name: "ServerError", status: http.StatusServiceUnavailable, body: `{"error":"down"}`, unavailable: true, message: "down"},
		{name: "RateLimited", status: http.StatusTooManyRequests, body: `too many`, unavailable: true, message: "too many"},
		{name: "PermissionDenied", status: http.StatusUnauthorized, body: `{"error":"Permission denied"}`, message: "Permission denied"},
		{name: "BadRequest", status: http.StatusBadRequest, body: `{"error":"Index not defined"}`, message: "Index not defined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			err := client.Set(context.Background(), "orders/o1", map[string]string{})
			require.Error(t, err)

			var storeErr *Error
			require.ErrorAs(t, err, &storeErr)
			assert.Equal(t, tt.status, storeErr.StatusCode)
			assert.Equal(t, "put", storeErr.Op)
			assert.Equal(t, tt.unavailable, IsUnavailable(err))
			assert.Equal(t, !tt.unavailable, errorsIsRejected(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(config.StoreConfig{URL: url, TimeoutSeconds: 1}, proxy.Settings{})

	err := client.Ping(context.Background())
	assert.True(t, IsUnavailable(err))
}

func TestClient_Ping(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/.json", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("shallow"))
		w.Write([]byte(`{"orders":true}`))
	})

	assert.NoError(t, client.Ping(context.Background()))
}

func TestClient_Subscribe(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		fmt.Fprint(w, "event: put\ndata: {\"path\":\"/\",\"data\":{\"o1\":{\"status\":\"Processing\"}}}\n\n")
		fmt.Fprint(w, "event: keep-alive\ndata: null\n\n")
		fmt.Fprint(w, "event: patch\ndata: {\"path\":\"/o1\",\"data\":{\"status\":\"Delivered\"}}\n\n")
		fmt.Fprint(w, "event: cancel\ndata: rules changed\n\n")
		flusher.Flush()
	})

	var events []Event
	err := client.Subscribe(context.Background(), "orders", func(ev Event) {
		events = append(events, ev)
	})

	assert.ErrorIs(t, err, ErrStreamClosed)
	require.Len(t, events, 2)
	assert.Equal(t, EventPut, events[0].Type)
	assert.Equal(t, "/", events[0].Path)
	assert.Equal(t, EventPatch, events[1].Type)
	assert.Equal(t, "/o1", events[1].Path)
}

func TestClient_Subscribe_ContextCancel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: put\ndata: {\"path\":\"/\",\"data\":null}\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	received := make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		done <- client.Subscribe(ctx, "products", func(ev Event) {
			received <- struct{}{}
		})
	}()

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("no initial event")
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not stop")
	}
}

func TestClient_Subscribe_Rejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Permission denied"}`))
	})

	err := client.Subscribe(context.Background(), "orders", func(Event) {})
	assert.True(t, errorsIsRejected(err))
}

func TestSnapshot_Apply(t *testing.T) {
	var snap Snapshot

	require.NoError(t, snap.Apply(Event{Type: EventPut, Path: "/", Data: json.RawMessage(`{"o1":{"status":"Processing","totalAmount":10},"o2":{"status":"Order Taken"}}`)}))
	require.NoError(t, snap.Apply(Event{Type: EventPut, Path: "/o1/status", Data: json.RawMessage(`"Delivered"`)}))
	require.NoError(t, snap.Apply(Event{Type: EventPatch, Path: "/", Data: json.RawMessage(`{"o3":{"status":"Pending"},"o2":null}`)}))

	children := snap.Children()
	require.Len(t, children, 2)
	assert.JSONEq(t, `{"status":"Delivered","totalAmount":10}`, string(children["o1"]))
	assert.JSONEq(t, `{"status":"Pending"}`, string(children["o3"]))

	require.NoError(t, snap.Apply(Event{Type: EventPut, Path: "/", Data: json.RawMessage(`null`)}))
	assert.Empty(t, snap.Children())
}

func TestSnapshot_Apply_BadPatch(t *testing.T) {
	var snap Snapshot
	err := snap.Apply(Event{Type: EventPatch, Path: "/", Data: json.RawMessage(`"scalar"`)})
	assert.Error(t, err)
}
