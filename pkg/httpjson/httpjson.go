// Package httpjson posts JSON to vendor REST APIs and classifies their failures.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"ai-docqa-be/pkg/apperror"
)

// Post sends in as a JSON body and decodes a 200 response into out.
// Transport failures are transient; non-200 statuses are classified by code.
func Post(ctx context.Context, client *http.Client, op, url string, headers map[string]string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return apperror.Wrap(apperror.KindInput, op, fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return apperror.Wrap(apperror.KindInput, op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return apperror.Transient(op, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperror.Transient(op, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return apperror.FromStatus(op, resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return apperror.Terminal(op, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
