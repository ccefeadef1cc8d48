// Package backend calls an OpenAI-compatible chat completions endpoint to
// translate text chunks.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docx-translator/internal/logger"
	"docx-translator/internal/types"
)

const (
	defaultTimeout = 120 * time.Second
	maxRetries     = 3
	retryBaseDelay = 2 * time.Second
)

// Client talks to one chat-completions endpoint with one model.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	targetLang string
	httpClient *http.Client
	retryDelay time.Duration
	log        logger.Logger
}

// NewClient builds a translation client. baseURL may be a bare host, with
// or without the /v1 suffix.
func NewClient(apiKey, baseURL, model, targetLang string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    normalizeAPIURL(baseURL),
		model:      model,
		targetLang: targetLang,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryDelay: retryBaseDelay,
		log:        logger.GetLogger(),
	}
}

// normalizeAPIURL trims the URL down to the scheme and host plus /v1 so
// both "https://api.openai.com" and ".../v1/chat/completions" work.
func normalizeAPIURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	if u == "" {
		return "https://api.openai.com/v1"
	}
	u = strings.TrimSuffix(u, "/chat/completions")
	u = strings.TrimRight(u, "/")
	if !strings.HasSuffix(u, "/v1") {
		u += "/v1"
	}
	return u
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Translate translates one chunk into the client's target language,
// retrying transient failures with a linear backoff.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		result, err := c.translateOnce(ctx, text)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !isRetryableAPIError(err) {
			return "", err
		}
		if attempt < maxRetries {
			delay := c.retryDelay * time.Duration(attempt)
			c.log.Warn("翻译请求失败，准备重试",
				logger.Int("attempt", attempt),
				logger.String("delay", delay.String()),
				logger.Err(err))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", lastErr
}

func (c *Client) translateOnce(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(
		"You are a professional translator. Translate the following text into %s. "+
			"Preserve the meaning, tone and any technical terminology. "+
			"Output only the translation, with no explanations.", c.targetLang)

	reqBody, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt},
			{Role: "user", Content: text},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", types.NewAppError(types.ErrInternal, "无法序列化翻译请求", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", types.NewAppError(types.ErrInternal, "无法构建翻译请求", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", types.NewAppError(types.ErrNetwork, "翻译请求发送失败", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", types.NewAppError(types.ErrNetwork, "无法读取翻译响应", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", handleAPIHTTPError(resp.StatusCode, body)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", types.NewAppError(types.ErrAPICall, "翻译响应格式无效", err)
	}
	if parsed.Error != nil {
		return "", types.NewAppError(types.ErrAPICall,
			fmt.Sprintf("API 返回错误: %s", parsed.Error.Message), nil)
	}
	if len(parsed.Choices) == 0 {
		return "", types.NewAppError(types.ErrAPICall, "API 返回空响应", nil)
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", types.NewAppError(types.ErrAPICall, "API 返回空响应", nil)
	}
	return content, nil
}

// handleAPIHTTPError maps an HTTP status to an application error code.
func handleAPIHTTPError(status int, body []byte) error {
	detail := apiErrorMessage(body)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return types.NewAppErrorWithDetails(types.ErrAPICall,
			"API 密钥无效或无权访问", detail, nil)
	case status == http.StatusTooManyRequests:
		return types.NewAppErrorWithDetails(types.ErrAPIRateLimit,
			"API 请求频率超限", detail, nil)
	case status >= 500:
		return types.NewAppErrorWithDetails(types.ErrAPICall,
			fmt.Sprintf("API 服务端错误 (HTTP %d)", status), detail, nil)
	default:
		return types.NewAppErrorWithDetails(types.ErrAPICall,
			fmt.Sprintf("API 请求失败 (HTTP %d)", status), detail, nil)
	}
}

func apiErrorMessage(body []byte) string {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		return parsed.Error.Message
	}
	const limit = 200
	s := string(body)
	if len(s) > limit {
		s = s[:limit]
	}
	return s
}

// isRetryableAPIError reports whether a failure is worth retrying: network
// errors, rate limits, and server-side errors are; auth and client errors
// are not.
func isRetryableAPIError(err error) bool {
	switch types.CodeOf(err) {
	case types.ErrNetwork, types.ErrAPIRateLimit:
		return true
	case types.ErrAPICall:
		return strings.Contains(err.Error(), "服务端错误")
	default:
		return false
	}
}

// TestConnection performs a minimal request so configuration problems
// surface before a long document run starts.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.translateOnce(ctx, "hello")
	return err
}
