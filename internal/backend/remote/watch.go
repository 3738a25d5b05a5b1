package remote

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/stwalsh4118/grownby/internal/backend"
)

const snapshotEvent = "snapshot"

// ErrStreamEnded is reported through onError when the server closes a watch.
var ErrStreamEnded = errors.New("watch stream ended")

// Watch opens the collection's event stream. The first snapshot arrives
// right after the stream opens.
func (c *Client) Watch(ctx context.Context, collection string, onChange func(backend.Snapshot), onError func(error)) (backend.Unsubscribe, error) {
	watchCtx, cancel := context.WithCancel(ctx)

	req, err := c.newRequest(watchCtx, http.MethodGet, collectionPath(collection)+"/watch", nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to watch %s: %w", collection, err)
	}
	if resp.StatusCode != http.StatusOK {
		err := decodeAPIError(resp)
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("failed to watch %s: %w", collection, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer resp.Body.Close()

		err := readEvents(resp.Body, func(event, data string) error {
			if event != snapshotEvent {
				return nil
			}
			var snap snapshotResponse
			if err := json.Unmarshal([]byte(data), &snap); err != nil {
				return fmt.Errorf("malformed snapshot: %w", err)
			}
			if watchCtx.Err() != nil {
				return watchCtx.Err()
			}
			onChange(snap.toSnapshot())
			return nil
		})

		if watchCtx.Err() != nil {
			return
		}
		if err == nil {
			err = ErrStreamEnded
		}
		c.log.Warn("Watch stream broke", map[string]interface{}{
			"collection": collection,
			"error":      err.Error(),
		})
		if onError != nil {
			onError(err)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

// readEvents parses a text/event-stream body and calls dispatch for every
// complete event. Comment lines are skipped. It returns nil on a clean EOF.
func readEvents(r io.Reader, dispatch func(event, data string) error) error {
	reader := bufio.NewReader(r)
	var event string
	var data []string

	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			line = strings.TrimRight(line, "\r\n")
			switch {
			case line == "":
				if len(data) > 0 {
					if err := dispatch(event, strings.Join(data, "\n")); err != nil {
						return err
					}
				}
				event, data = "", nil
			case strings.HasPrefix(line, ":"):
			default:
				field, value, _ := strings.Cut(line, ":")
				value = strings.TrimPrefix(value, " ")
				switch field {
				case "event":
					event = value
				case "data":
					data = append(data, value)
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
