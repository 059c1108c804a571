package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/logbook/internal/domain"
	"github.com/MrSnakeDoc/logbook/internal/utils"
)

// maxEventSize bounds one SSE line; entries with large structured
// payloads arrive as a single data line.
const maxEventSize = 4 << 20

// Stream is an open connection to GET /events.
type Stream struct {
	body   *utils.CancelOnClose
	events chan domain.LiveEvent
	once   sync.Once

	mu  sync.Mutex
	err error
}

// Stream opens the live channel. When it returns, the server has
// registered the subscription, so every entry created afterwards is
// delivered.
func (c *Client) Stream(ctx context.Context) (*Stream, error) {
	ctx, cancel := context.WithCancel(ctx)

	reqURL := c.baseURL.ResolveReference(&url.URL{Path: "/events"})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.stream.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := decodeAPIError("/events", resp)
		utils.Close(resp.Body)
		cancel()
		return nil, err
	}

	return newStream(ctx, resp.Body, cancel), nil
}

// newStream starts reading SSE frames from body. cancel must end ctx.
func newStream(ctx context.Context, body io.ReadCloser, cancel context.CancelFunc) *Stream {
	s := &Stream{
		body:   &utils.CancelOnClose{ReadCloser: body, Cancel: cancel},
		events: make(chan domain.LiveEvent),
	}
	go s.read(ctx)
	return s
}

// Events delivers live events in server order. It is closed when the
// connection ends; Err then tells why.
func (s *Stream) Events() <-chan domain.LiveEvent { return s.events }

// Err returns the read error that ended the stream, if any.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close ends the stream. Safe to call more than once.
func (s *Stream) Close() {
	s.once.Do(func() { _ = s.body.Close() })
}

func (s *Stream) read(ctx context.Context) {
	defer close(s.events)
	defer s.Close()

	scanner := bufio.NewScanner(s.body)
	scanner.Buffer(make([]byte, 0, 64<<10), maxEventSize)

	var event string
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if event == domain.EventNewLog && data.Len() > 0 {
				var ev domain.LiveEvent
				if err := json.Unmarshal([]byte(data.String()), &ev); err == nil && ev.Entry != nil {
					select {
					case s.events <- ev:
					case <-ctx.Done():
						return
					}
				}
			}
			event = ""
			data.Reset()
		case strings.HasPrefix(line, ":"):
			// comment or heartbeat
		default:
			field, value, _ := strings.Cut(line, ":")
			value = strings.TrimPrefix(value, " ")
			switch field {
			case "event":
				event = value
			case "data":
				if data.Len() > 0 {
					data.WriteByte('\n')
				}
				data.WriteString(value)
			}
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
	}
}
