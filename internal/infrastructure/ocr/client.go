// Package ocr is the HTTP client for the external text extraction engine.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/medrecords/records-api/internal/core/domain"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

// Client posts images to <baseURL>/extract as multipart field "image".
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type extractResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// ExtractText sends image to the engine. A 4xx answer becomes an ExtractionError
// carrying the engine's message; 5xx and transport failures wrap
// domain.ErrExtractorUnavailable.
func (c *Client) ExtractText(ctx context.Context, image []byte) (string, error) {
	body, contentType, err := multipartImage(image)
	if err != nil {
		return "", fmt.Errorf("build ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", body)
	if err != nil {
		return "", fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", unavailable("engine unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return "", unavailable(fmt.Sprintf("engine returned status %d", resp.StatusCode), nil)
	case resp.StatusCode >= http.StatusBadRequest:
		return "", &domain.ExtractionError{Reason: engineMessage(resp)}
	}

	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", unavailable("malformed engine response", err)
	}

	c.log.Debug().Float64("confidence", out.Confidence).Int("chars", len(out.Text)).Msg("ocr engine answered")
	return out.Text, nil
}

func multipartImage(image []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	part, err := w.CreateFormFile("image", "image")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}

// engineMessage prefers the JSON error field and falls back to the raw body.
func engineMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var er errorResponse
	if json.Unmarshal(raw, &er) == nil {
		if er.Error != "" {
			return er.Error
		}
		if er.Detail != "" {
			return er.Detail
		}
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return msg
	}
	return fmt.Sprintf("engine rejected image with status %d", resp.StatusCode)
}

func unavailable(reason string, cause error) error {
	err := domain.ErrExtractorUnavailable
	if cause != nil {
		err = errors.Join(domain.ErrExtractorUnavailable, cause)
	}
	return &domain.ExtractionError{Reason: reason, Err: err}
}
