package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jangbu/internal/log"
)

func modelResponse(text string) string {
	resp := map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(srv.URL, "gemini-2.0-flash-001", "test-key", 5*time.Second, log.New(log.DefaultConfig()))
	c.today = func() string { return "2024-06-01" }
	return c
}

func TestAnalyzeHappyPath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.0-flash-001:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Error("api key missing from query")
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 2 {
			t.Errorf("request should carry prompt and image parts")
		}
		w.Write([]byte(modelResponse("```json\n{\"date\":\"2024-01-05\",\"time\":\"14:30:00\",\"store_name\":\"김밥천국\",\"address\":\"서울시 강남구\",\"amount\":8000}\n```")))
	})

	got, err := c.Analyze(context.Background(), []byte("img"), "image/jpeg", "")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got.Date != "2024-01-05" || got.Time != "14:30" || got.StoreName != "김밥천국" || got.Amount != 8000 {
		t.Fatalf("normalized = %+v", got)
	}
}

func TestAnalyzeNormalizesMissingFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(modelResponse(`{"date":null,"time":null,"store_name":"","address":null,"amount":"총 12,000원"}`)))
	})

	got, err := c.Analyze(context.Background(), []byte("img"), "image/jpeg", "")
	if err != nil {
		t.Fatal(err)
	}
	if got.Date != "2024-06-01" {
		t.Fatalf("missing date should default to today, got %s", got.Date)
	}
	if got.StoreName != "알 수 없는 가게" {
		t.Fatalf("store fallback missing: %s", got.StoreName)
	}
	if got.Time != "" || got.Address != "" {
		t.Fatalf("nulls should stay empty: %+v", got)
	}
	if got.Amount != 12000 {
		t.Fatalf("string amount should digit-strip to 12000, got %d", got.Amount)
	}
}

func TestAnalyzeErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrInvalidAPIKey},
		{http.StatusForbidden, ErrInvalidAPIKey},
		{http.StatusTooManyRequests, ErrQuotaExceeded},
		{http.StatusNotFound, ErrModelUnavailable},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, err := c.Analyze(context.Background(), []byte("img"), "image/jpeg", "")
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: got %v, want %v", tc.status, err, tc.want)
		}
	}
}

func TestAnalyzeUnparseableText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(modelResponse("죄송합니다, 이 이미지는 영수증이 아닌 것 같습니다.")))
	})
	_, err := c.Analyze(context.Background(), []byte("img"), "image/jpeg", "")
	if !errors.Is(err, ErrUnparseable) {
		t.Fatalf("got %v, want ErrUnparseable", err)
	}
}

func TestAnalyzeNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections
	c := New(srv.URL, "gemini-2.0-flash-001", "test-key", time.Second, log.New(log.DefaultConfig()))

	_, err := c.Analyze(context.Background(), []byte("img"), "image/jpeg", "")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("got %v, want ErrNetwork", err)
	}
}

func TestAnalyzeNoKey(t *testing.T) {
	c := New("http://localhost", "m", "", time.Second, log.New(log.DefaultConfig()))
	if _, err := c.Analyze(context.Background(), nil, "image/jpeg", ""); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("got %v, want ErrNoAPIKey", err)
	}
}

func TestAnalyzeKeyOverride(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "user-key" {
			t.Errorf("per-call key should win, got %q", r.URL.Query().Get("key"))
		}
		w.Write([]byte(modelResponse(`{"store_name":"카페","amount":4500}`)))
	})

	if _, err := c.Analyze(context.Background(), []byte("img"), "image/jpeg", "user-key"); err != nil {
		t.Fatal(err)
	}
}

func TestParseReceiptJSONSurroundingText(t *testing.T) {
	raw, err := parseReceiptJSON("영수증 분석 결과입니다: {\"store_name\":\"카페\",\"amount\":4500} 감사합니다")
	if err != nil {
		t.Fatal(err)
	}
	if raw.StoreName == nil || *raw.StoreName != "카페" {
		t.Fatalf("raw = %+v", raw)
	}
}
