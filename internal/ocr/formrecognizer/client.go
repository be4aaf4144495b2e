package formrecognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"meddoc-backend/internal/ocr"
)

const (
	analyzePath = "/formrecognizer/documentModels/prebuilt-read:analyze?api-version=2023-07-31"

	defaultPollInterval = 2 * time.Second
	defaultMaxPolls     = 30
)

// Client implements ocr.TextExtractor against the Azure Document Intelligence
// prebuilt-read model. Analysis is asynchronous: the submit call returns an
// Operation-Location which is polled until the run succeeds or fails.
type Client struct {
	endpoint     string
	apiKey       string
	httpClient   *http.Client
	pollInterval time.Duration
	maxPolls     int
}

// NewClient constructs a Form Recognizer client for the given resource.
func NewClient(endpoint, apiKey string) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("AZURE_FORM_RECOGNIZER_ENDPOINT is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("AZURE_FORM_RECOGNIZER_KEY is required")
	}
	timeout := 60 * time.Second
	if raw := strings.TrimSpace(os.Getenv("AZURE_FORM_RECOGNIZER_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		pollInterval: defaultPollInterval,
		maxPolls:     defaultMaxPolls,
	}, nil
}

type analyzeResult struct {
	Status string `json:"status"`
	Result *struct {
		Content string `json:"content"`
	} `json:"analyzeResult,omitempty"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Extract submits the payload for analysis and polls until text is available.
func (c *Client) Extract(ctx context.Context, data []byte, mimeType string, fileName string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("analyze %s: empty payload", fileName)
	}

	opURL, err := c.submit(ctx, data, mimeType)
	if err != nil {
		return "", err
	}
	return c.poll(ctx, opURL)
}

func (c *Client) submit(ctx context.Context, data []byte, mimeType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+analyzePath, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	if strings.TrimSpace(mimeType) != "" {
		req.Header.Set("Content-Type", mimeType)
	} else {
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("form recognizer request timeout: %w", err)
		}
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("form recognizer submit: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	opURL := strings.TrimSpace(resp.Header.Get("Operation-Location"))
	if opURL == "" {
		return "", fmt.Errorf("form recognizer submit: missing Operation-Location header")
	}
	return opURL, nil
}

func (c *Client) poll(ctx context.Context, opURL string) (string, error) {
	for attempt := 0; attempt < c.maxPolls; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.pollInterval):
			}
		}

		parsed, err := c.fetchResult(ctx, opURL)
		if err != nil {
			return "", err
		}
		switch strings.ToLower(parsed.Status) {
		case "succeeded":
			if parsed.Result == nil || strings.TrimSpace(parsed.Result.Content) == "" {
				return "", ocr.ErrNoText
			}
			return parsed.Result.Content, nil
		case "failed":
			if parsed.Error != nil {
				return "", fmt.Errorf("form recognizer analyze failed: %s (%s)", parsed.Error.Message, parsed.Error.Code)
			}
			return "", fmt.Errorf("form recognizer analyze failed")
		case "notstarted", "running":
			// keep polling
		default:
			return "", fmt.Errorf("form recognizer analyze: unexpected status %q", parsed.Status)
		}
	}
	return "", fmt.Errorf("form recognizer analyze: gave up after %d polls", c.maxPolls)
}

func (c *Client) fetchResult(ctx context.Context, opURL string) (*analyzeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("form recognizer poll: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var parsed analyzeResult
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("form recognizer response parse: %w", err)
	}
	return &parsed, nil
}

var _ ocr.TextExtractor = (*Client)(nil)
