package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

func jsonEncode(value any) (io.ReadCloser, error) {
	buf := &bytes.Buffer{}
	err := json.NewEncoder(buf).Encode(value)
	return io.NopCloser(buf), err
}

func jsonDecode(value io.ReadCloser, output any) error {
	return json.NewDecoder(value).Decode(output)
}

// StatusError is returned by JsonClient for responses with a status >= 400.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %s", e.Status)
	}
	return fmt.Sprintf("status %s: %s", e.Status, e.Body)
}

type JsonClient struct {
	http.Client
	CsrfToken string
}

func (jc *JsonClient) DoJSON(req *http.Request, requestBody any, responseBody any) error {
	// Marshall request body if provided
	if requestBody != nil {
		encodedBody, err := jsonEncode(requestBody)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		req.Body = encodedBody
		req.Header.Set("Content-Type", "application/json")
	}

	req.Header.Set("Accept", "application/json")
	if jc.CsrfToken != "" {
		req.Header.Set("X-CSRF-TOKEN", jc.CsrfToken)
	}

	resp, err := jc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}

	// Unmarshall response body if an output struct is provided
	if responseBody != nil {
		if err := jsonDecode(resp.Body, responseBody); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}
	return nil
}

func (jc *JsonClient) Request(ctx context.Context, method, url string, requestBody any, responseBody any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return jc.DoJSON(req, requestBody, responseBody)
}
