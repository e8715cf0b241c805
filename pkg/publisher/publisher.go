// Package publisher implements the destination side of the pipeline:
// one publisher per messaging platform, each exposing Publish and Close.
// Publishers retry transient failures internally with bounded
// exponential backoff; a returned error means the item was not
// delivered and the orchestrator will try again on a later tick.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-pkgz/repeater/v2"
)

// errPermanent marks failures that retrying can't fix (bad payload,
// auth rejection). It stops the internal retry loop immediately.
var errPermanent = errors.New("permanent publish failure")

// StatusError is a non-2xx response from a destination API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

const maxErrBody = 600 // keep error bodies short in logs

// send executes the request produced by build with bounded exponential
// backoff. Transport errors, 5xx and 429 are retried; other 4xx abort.
// build is called per attempt so request bodies can be re-read.
func send(ctx context.Context, client *http.Client, retries int, baseDelay time.Duration, build func() (*http.Request, error)) error {
	if retries <= 0 {
		retries = 3
	}
	if baseDelay <= 0 {
		baseDelay = 5 * time.Second
	}

	retrier := repeater.NewBackoff(retries, baseDelay, repeater.WithMaxDelay(time.Minute))
	return retrier.Do(ctx, func() error {
		req, err := build()
		if err != nil {
			return fmt.Errorf("%w: build request: %v", errPermanent, err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("execute request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		statusErr := &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return fmt.Errorf("%w: %w", errPermanent, statusErr)
		}
		return statusErr
	}, errPermanent)
}

func newClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
