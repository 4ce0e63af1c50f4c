// Package analysis extracts structured receipt data from images with the
// Gemini generateContent REST API.
package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jangbu/internal/core"
	"jangbu/internal/log"
)

// Typed failures so callers can map them to user-facing messages.
var (
	ErrNoAPIKey         = errors.New("no api key configured")
	ErrInvalidAPIKey    = errors.New("invalid api key")
	ErrQuotaExceeded    = errors.New("api quota exceeded")
	ErrModelUnavailable = errors.New("model not available")
	ErrNetwork          = errors.New("network error")
	ErrUnparseable      = errors.New("unparseable model response")
)

const prompt = `이 영수증 이미지를 분석해서 아래 정보를 JSON으로만 답해주세요.
{
  "date": "YYYY-MM-DD 형식의 날짜",
  "time": "HH:MM 형식의 시간 (없으면 null)",
  "store_name": "가게 이름",
  "address": "가게 주소 (없으면 null)",
  "amount": 총 결제 금액 (숫자)
}
읽을 수 없는 항목은 null로 표시하고, JSON 외의 텍스트는 포함하지 마세요.`

// Client calls the generateContent endpoint. The zero value is not usable;
// construct with New.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
	logger     *log.Logger
	today      func() string
}

func New(baseURL, model, apiKey string, timeout time.Duration, logger *log.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		logger:     logger.WithComponent(log.ComponentAnalysis),
		today:      core.Today,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// rawReceipt tolerates the shapes the model actually produces: missing
// fields, nulls, and amounts as either numbers or formatted strings.
type rawReceipt struct {
	Date      *string `json:"date"`
	Time      *string `json:"time"`
	StoreName *string `json:"store_name"`
	Address   *string `json:"address"`
	Amount    any     `json:"amount"`
}

// Analyze sends the image to the model and returns the normalized
// extraction. Every field has a defined fallback so the caller always gets a
// usable record from a successful call. apiKey overrides the configured key
// for this call; user-entered keys from settings arrive this way.
func (c *Client) Analyze(ctx context.Context, image []byte, mimeType, apiKey string) (core.AnalyzedReceipt, error) {
	key := apiKey
	if key == "" {
		key = c.apiKey
	}
	if key == "" {
		return core.AnalyzedReceipt{}, ErrNoAPIKey
	}

	reqBody := generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: prompt},
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return core.AnalyzedReceipt{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return core.AnalyzedReceipt{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.AnalyzedReceipt{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.AnalyzedReceipt{}, fmt.Errorf("%w: read response: %v", ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		return core.AnalyzedReceipt{}, classifyStatus(resp.StatusCode, body)
	}

	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return core.AnalyzedReceipt{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return core.AnalyzedReceipt{}, fmt.Errorf("%w: empty candidates", ErrUnparseable)
	}

	text := gr.Candidates[0].Content.Parts[0].Text
	raw, err := parseReceiptJSON(text)
	if err != nil {
		c.logger.WarnContext(ctx, "model returned unparseable text", "text_len", len(text))
		return core.AnalyzedReceipt{}, err
	}

	result := c.normalize(raw)
	c.logger.InfoContext(ctx, "receipt analyzed",
		log.FieldStoreName, result.StoreName,
		log.FieldAmount, result.Amount,
		log.FieldDuration, time.Since(start).Milliseconds())
	return result, nil
}

func classifyStatus(status int, body []byte) error {
	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:200]
	}
	switch status {
	case http.StatusBadRequest, http.StatusForbidden, http.StatusUnauthorized:
		return fmt.Errorf("%w: status %d: %s", ErrInvalidAPIKey, status, detail)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrQuotaExceeded, status)
	case http.StatusNotFound:
		return fmt.Errorf("%w: status %d", ErrModelUnavailable, status)
	default:
		return fmt.Errorf("unexpected status %d: %s", status, detail)
	}
}

// parseReceiptJSON strips markdown fences and extracts the outermost JSON
// object before unmarshalling.
func parseReceiptJSON(text string) (rawReceipt, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return rawReceipt{}, fmt.Errorf("%w: no json object found", ErrUnparseable)
	}

	var raw rawReceipt
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &raw); err != nil {
		return rawReceipt{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	return raw, nil
}

func (c *Client) normalize(raw rawReceipt) core.AnalyzedReceipt {
	out := core.AnalyzedReceipt{
		Date:      c.today(),
		StoreName: "알 수 없는 가게",
	}
	if raw.Date != nil && core.IsValidDate(*raw.Date) {
		out.Date = *raw.Date
	}
	if raw.Time != nil {
		if t := core.NormalizeClock(*raw.Time); core.IsValidClock(t) {
			out.Time = t
		}
	}
	if raw.StoreName != nil && strings.TrimSpace(*raw.StoreName) != "" {
		out.StoreName = strings.TrimSpace(*raw.StoreName)
	}
	if raw.Address != nil {
		out.Address = strings.TrimSpace(*raw.Address)
	}
	out.Amount = normalizeAmount(raw.Amount)
	return out
}

func normalizeAmount(v any) int64 {
	switch a := v.(type) {
	case float64:
		if a < 0 {
			return 0
		}
		return int64(a)
	case string:
		return core.ParseAmount(a)
	default:
		return 0
	}
}
