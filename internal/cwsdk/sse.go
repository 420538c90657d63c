package cwsdk

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"resty.dev/v3"
)

const (
	sseReconnectDelay    = 1 * time.Second
	sseMaxReconnectDelay = 8 * time.Second
	sseMaxAttempts       = 10
)

// ErrStreamExhausted is returned when the reconnect attempt cap is reached.
// Callers surface this as a visible "disconnected" state instead of retrying
// forever.
var ErrStreamExhausted = errors.New("cwsdk: stream reconnect attempts exhausted")

// StreamOptions tunes the SSE reconnect loop.
type StreamOptions struct {
	// MaxAttempts caps consecutive failed connection attempts. <= 0 uses
	// the default.
	MaxAttempts int
	// BaseDelay is the initial reconnect delay. <= 0 uses the default.
	BaseDelay time.Duration
	// MaxDelay caps the backoff. <= 0 uses the default.
	MaxDelay time.Duration
	// OnStateChange is invoked with the connection state whenever it flips.
	OnStateChange func(connected bool)
}

func (o *StreamOptions) maxAttempts() int {
	if o == nil || o.MaxAttempts <= 0 {
		return sseMaxAttempts
	}
	return o.MaxAttempts
}

func (o *StreamOptions) baseDelay() time.Duration {
	if o == nil || o.BaseDelay <= 0 {
		return sseReconnectDelay
	}
	return o.BaseDelay
}

func (o *StreamOptions) maxDelay() time.Duration {
	if o == nil || o.MaxDelay <= 0 {
		return sseMaxReconnectDelay
	}
	return o.MaxDelay
}

func (o *StreamOptions) notify(connected bool) {
	if o != nil && o.OnStateChange != nil {
		o.OnStateChange(connected)
	}
}

// streamSSE connects to an SSE endpoint and delivers each event's data to fn.
// Dropped connections reconnect with jittered exponential backoff up to the
// attempt cap; a successful read resets the counter. Returns nil only when
// ctx is cancelled.
func streamSSE(ctx context.Context, client *resty.Client, path string, opts *StreamOptions, fn func(data []byte)) error {
	delay := opts.baseDelay()
	attempt := 0

	for {
		delivered, err := connectSSE(ctx, client, path, opts, fn)
		if ctx.Err() != nil {
			return nil
		}
		if delivered {
			// the connection was live at some point, start the backoff over
			attempt = 0
			delay = opts.baseDelay()
		}

		attempt++
		if attempt > opts.maxAttempts() {
			opts.notify(false)
			return fmt.Errorf("%w: %s", ErrStreamExhausted, path)
		}

		slog.Info("sse reconnecting", "path", path, "attempt", attempt, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		delay = min(delay*2, opts.maxDelay())
		jitterFactor := 0.75 + (rand.Float64() * 0.5)
		delay = time.Duration(float64(delay) * jitterFactor)
	}
}

// connectSSE performs one connection and reads events until the stream ends.
// delivered reports whether at least one event arrived.
func connectSSE(ctx context.Context, client *resty.Client, path string, opts *StreamOptions, fn func(data []byte)) (delivered bool, err error) {
	res, err := client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/event-stream").
		SetHeader("Cache-Control", "no-cache").
		SetDoNotParseResponse(true).
		Get(path)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	if res.StatusCode() != 200 {
		return false, fmt.Errorf("cwsdk: sse %s: http %d", path, res.StatusCode())
	}

	opts.notify(true)
	defer opts.notify(false)

	scanner := bufio.NewScanner(res.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var data bytes.Buffer
	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if data.Len() > 0 {
				fn(append([]byte(nil), data.Bytes()...))
				delivered = true
				data.Reset()
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue // comment / keepalive
		}
		if v, ok := strings.CutPrefix(line, "data:"); ok {
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(v, " "))
		}
	}

	if data.Len() > 0 {
		fn(append([]byte(nil), data.Bytes()...))
		delivered = true
	}
	if serr := scanner.Err(); serr != nil && ctx.Err() == nil {
		return delivered, serr
	}
	return delivered, ErrStreamClosed
}
