package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// EventType is the kind of change delivered by a subscription.
type EventType string

const (
	// EventPut replaces the value at Path.
	EventPut EventType = "put"
	// EventPatch merges the children of Data into the value at Path.
	EventPatch EventType = "patch"
)

// Event is a single change notification. Path is relative to the subscribed path.
type Event struct {
	Type EventType
	Path string
	Data json.RawMessage
}

// Subscribe streams changes under path and calls onEvent for every put or patch,
// starting with a put of the current value at "/". It blocks until ctx is done
// (returning nil) or the stream fails.
func (c *Client) Subscribe(ctx context.Context, path string, onEvent func(Event)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, nil), nil)
	if err != nil {
		return &Error{Op: "subscribe", Path: path, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return &Error{Op: "subscribe", Path: path, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return statusError("subscribe", path, resp.StatusCode, body)
	}

	c.logger.Debug("Subscription opened", zap.String("path", path))

	err = readEvents(resp.Body, onEvent)
	if ctx.Err() != nil {
		c.logger.Debug("Subscription closed", zap.String("path", path))
		return nil
	}
	if err != nil {
		return &Error{Op: "subscribe", Path: path, Err: err}
	}
	return &Error{Op: "subscribe", Path: path, Err: fmt.Errorf("%w: stream ended", ErrUnavailable)}
}

// readEvents parses a text/event-stream body until it ends or the server cancels it.
func readEvents(r io.Reader, onEvent func(Event)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var name string
	var data strings.Builder

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			if name != "" {
				if err := dispatch(name, data.String(), onEvent); err != nil {
					return err
				}
			}
			name = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func dispatch(name, data string, onEvent func(Event)) error {
	switch name {
	case string(EventPut), string(EventPatch):
		var payload struct {
			Path string          `json:"path"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return fmt.Errorf("malformed %s event: %w", name, err)
		}
		onEvent(Event{Type: EventType(name), Path: payload.Path, Data: payload.Data})
		return nil
	case "keep-alive":
		return nil
	case "cancel":
		return fmt.Errorf("%w: %s", ErrStreamClosed, data)
	case "auth_revoked":
		return fmt.Errorf("%w: auth revoked", ErrRejected)
	default:
		return nil
	}
}

// Snapshot accumulates subscription events into the current value of the subscribed path.
type Snapshot struct {
	root any
}

// Apply folds an event into the snapshot.
func (s *Snapshot) Apply(ev Event) error {
	var value any
	if len(ev.Data) > 0 {
		if err := json.Unmarshal(ev.Data, &value); err != nil {
			return fmt.Errorf("failed to decode event data: %w", err)
		}
	}

	segments := splitPath(ev.Path)

	if ev.Type == EventPatch {
		fields, ok := value.(map[string]any)
		if !ok {
			return errors.New("patch event data is not an object")
		}
		for k, v := range fields {
			s.root = setAt(s.root, append(append([]string{}, segments...), splitPath(k)...), v)
		}
		return nil
	}

	s.root = setAt(s.root, segments, value)
	return nil
}

// Children returns the direct children of the snapshot, keyed by child key.
func (s *Snapshot) Children() map[string]json.RawMessage {
	out := map[string]json.RawMessage{}
	m, ok := s.root.(map[string]any)
	if !ok {
		return out
	}
	for k, v := range m {
		data, err := json.Marshal(v)
		if err != nil {
			continue
		}
		out[k] = data
	}
	return out
}

func splitPath(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// setAt returns node with value placed at segments. A nil value deletes the entry.
func setAt(node any, segments []string, value any) any {
	if len(segments) == 0 {
		return value
	}

	m, ok := node.(map[string]any)
	if !ok {
		m = map[string]any{}
	}

	child := setAt(m[segments[0]], segments[1:], value)
	if child == nil {
		delete(m, segments[0])
	} else {
		m[segments[0]] = child
	}

	if len(m) == 0 {
		return nil
	}
	return m
}
