package handlers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"krida.io/dealdesk/internal/domain"
)

// sseFrame is one decoded server-sent-events frame.
type sseFrame struct {
	Event string
	Data  string
}

// readFrames consumes frames from an open SSE response until n frames arrived
// or the stream ends.
func readFrames(t *testing.T, scanner *bufio.Scanner, n int) []sseFrame {
	t.Helper()
	var frames []sseFrame
	var current sseFrame
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			frames = append(frames, current)
			if len(frames) == n {
				return frames
			}
			current = sseFrame{}
		case len(line) > 7 && line[:7] == "event: ":
			current.Event = line[7:]
		case len(line) > 6 && line[:6] == "data: ":
			current.Data = line[6:]
		}
	}
	t.Fatalf("stream ended after %d of %d frames", len(frames), n)
	return nil
}

func TestEventsStreamDeliversDealEvents(t *testing.T) {
	e := newTestEnv(t)

	srv := httptest.NewServer(e.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		srv.URL+"/events/stream?dealId=d_1", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testToken)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	// Let the subscription attach before publishing.
	require.Eventually(t, func() bool {
		return e.broker.SubscriberCount() > 0
	}, 5*time.Second, 5*time.Millisecond)

	e.broker.Publish("d_1", domain.Event{
		Type: domain.EventDocumentReceived,
		Data: map[string]any{"documentId": "dc_1"},
	})

	frames := readFrames(t, bufio.NewScanner(resp.Body), 1)
	require.Equal(t, string(domain.EventDocumentReceived), frames[0].Event)
	require.JSONEq(t, `{"documentId":"dc_1"}`, frames[0].Data)

	cancel()
}

func TestEventsStreamKeepalive(t *testing.T) {
	e := newTestEnv(t)
	e.broker.SetKeepaliveInterval(25 * time.Millisecond)

	srv := httptest.NewServer(e.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		srv.URL+"/events/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testToken)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	frames := readFrames(t, bufio.NewScanner(resp.Body), 2)
	for _, frame := range frames {
		require.Equal(t, string(domain.EventKeepalive), frame.Event)
		// Keepalive frames carry no data line.
		require.Empty(t, frame.Data)
	}
}

func TestEventsStreamIsolatesDeals(t *testing.T) {
	e := newTestEnv(t)

	srv := httptest.NewServer(e.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		srv.URL+"/events/stream?dealId=d_2", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testToken)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Eventually(t, func() bool {
		return e.broker.SubscriberCount() > 0
	}, 5*time.Second, 5*time.Millisecond)

	e.broker.Publish("d_1", domain.Event{Type: domain.EventDocumentReceived})
	e.broker.Publish("d_2", domain.Event{Type: domain.EventDocumentRequested})

	frames := readFrames(t, bufio.NewScanner(resp.Body), 1)
	require.Equal(t, string(domain.EventDocumentRequested), frames[0].Event)
}
