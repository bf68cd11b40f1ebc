package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// pingHealth polls baseURL/health until it returns 200 or attempts run out.
// Free-tier hosts sleep when idle and need a few requests to come back.
func pingHealth(ctx context.Context, w io.Writer, client *http.Client, baseURL string, attempts int, interval time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	url := strings.TrimRight(baseURL, "/") + "/health"

	var lastErr error
	for i := 1; i <= attempts; i++ {
		start := time.Now()
		status, err := getStatus(ctx, client, url)
		switch {
		case err != nil:
			lastErr = err
			printHint(w, fmt.Sprintf("attempt %d/%d: %v", i, attempts, err))
		case status == http.StatusOK:
			printOK(w, fmt.Sprintf("%s is up (%s)", url, time.Since(start).Round(time.Millisecond)))
			return nil
		default:
			lastErr = fmt.Errorf("unexpected status %d", status)
			printHint(w, fmt.Sprintf("attempt %d/%d: status %d", i, attempts, status))
		}

		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}

	printFail(w, url+" did not become healthy")
	return fmt.Errorf("health check failed after %d attempts: %w", attempts, lastErr)
}

func getStatus(ctx context.Context, client *http.Client, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
