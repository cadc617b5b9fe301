package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vendalocal/whatsapp-assistant/internal/audit"
	"github.com/vendalocal/whatsapp-assistant/internal/config"
	"github.com/vendalocal/whatsapp-assistant/internal/util"
	"github.com/vendalocal/whatsapp-assistant/internal/whatsapp"
)

// SendResult is the terminal outcome of one send. The engine reacts to a
// failure by logging only; a failed send never rolls back a flow
// transition that already happened.
type SendResult struct {
	Success   bool
	MessageID string
	Error     error
}

// Client delivers built payloads to the Cloud API. Retries transient
// failures a fixed number of times and reports a terminal outcome
// synchronously; timeout policy is the injected http.Client's.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	phoneNumberID string
	token         string
	maxRetries    int
	retryDelay    time.Duration
}

func NewClient(baseURL, phoneNumberID, token string) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: config.SendTimeout},
		baseURL:       baseURL,
		phoneNumberID: phoneNumberID,
		token:         token,
		maxRetries:    config.SendMaxRetries,
		retryDelay:    config.SendRetryDelay,
	}
}

// WithHTTPClient swaps the underlying HTTP client. Intended for tests.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	c.httpClient = httpClient
	return c
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (c *Client) Send(ctx context.Context, payload *whatsapp.Payload) SendResult {
	body, err := payload.ToJSON()
	if err != nil {
		return SendResult{Error: fmt.Errorf("marshal payload: %w", err)}
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	masked := util.MaskPhone(payload.To)
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				return c.fail(ctx, payload, masked, start, lastErr)
			case <-time.After(c.retryDelay):
			}
		}

		messageID, retryable, err := c.attempt(ctx, url, body)
		if err == nil {
			elapsed := time.Since(start)
			log.Info().
				Str("to", masked).
				Str("kind", string(payload.Type)).
				Str("messageId", messageID).
				Dur("elapsed", elapsed).
				Msg("message sent")
			audit.Log(ctx, audit.Event{
				Type:  audit.EventSendSuccess,
				Phone: payload.To,
				Details: map[string]interface{}{
					"kind":       string(payload.Type),
					"message_id": messageID,
					"attempts":   attempt + 1,
				},
			})
			return SendResult{Success: true, MessageID: messageID}
		}

		lastErr = err
		if !retryable {
			break
		}
		log.Warn().
			Err(err).
			Str("to", masked).
			Int("attempt", attempt+1).
			Msg("transient send failure, retrying")
	}

	return c.fail(ctx, payload, masked, start, lastErr)
}

// attempt performs one POST. The second return value reports whether the
// failure is worth retrying: network errors and 5xx responses are, 4xx
// responses are not.
func (c *Client) attempt(ctx context.Context, url string, body []byte) (messageID string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode >= 500 {
		return "", true, fmt.Errorf("send failed with status %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var parsed sendResponse
		if json.Unmarshal(respBody, &parsed) == nil && parsed.Error != nil {
			return "", false, fmt.Errorf("send rejected (status %d, code %d): %s",
				resp.StatusCode, parsed.Error.Code, parsed.Error.Message)
		}
		return "", false, fmt.Errorf("send rejected with status %d", resp.StatusCode)
	}

	var parsed sendResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", false, fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Messages) > 0 {
		messageID = parsed.Messages[0].ID
	}
	return messageID, false, nil
}

func (c *Client) fail(ctx context.Context, payload *whatsapp.Payload, masked string, start time.Time, err error) SendResult {
	elapsed := time.Since(start)
	log.Error().
		Err(err).
		Str("to", masked).
		Str("kind", string(payload.Type)).
		Dur("elapsed", elapsed).
		Msg("message send failed")
	audit.Log(ctx, audit.Event{
		Type:  audit.EventSendFailure,
		Phone: payload.To,
		Details: map[string]interface{}{
			"kind":  string(payload.Type),
			"error": err.Error(),
		},
	})
	return SendResult{Error: err}
}
