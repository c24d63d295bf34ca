package handlers

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/troikatech/voice-bridge/internal/relay"
	"github.com/troikatech/voice-bridge/pkg/env"
	"github.com/troikatech/voice-bridge/pkg/logger"
)

func newTestHandler(cfg *env.Config) *Handler {
	logger.Log = zap.NewNop()
	registry := relay.NewRegistry()
	return NewHandler(cfg, nil, registry, nil)
}

func postForm(r http.Handler, path string, form url.Values, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signForm(authToken, requestURL string, form url.Values) string {
	var keys []string
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	payload := requestURL
	for _, k := range keys {
		for _, v := range form[k] {
			payload += k + v
		}
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVoiceWebhook_ReturnsStreamTwiML(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := newTestHandler(&env.Config{})
	router := gin.New()
	router.POST("/voice", h.VoiceWebhook)

	form := url.Values{
		"CallSid": []string{"CA123"},
		"From":    []string{"+14155551234"},
	}
	w := postForm(router, "/voice", form, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/xml") {
		t.Errorf("Content-Type = %q, want text/xml", ct)
	}

	body := w.Body.String()
	for _, want := range []string{
		"<Connect>",
		"ws://example.com/twilio?CallSid=CA123",
		`track="inbound_track"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("response missing %q:\n%s", want, body)
		}
	}
}

func TestVoiceWebhook_UsesConfiguredBaseURL(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := newTestHandler(&env.Config{PublicBaseURL: "https://bridge.example.com"})
	router := gin.New()
	router.POST("/voice", h.VoiceWebhook)

	form := url.Values{"CallSid": []string{"CA123"}}
	w := postForm(router, "/voice", form, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "wss://bridge.example.com/twilio") {
		t.Errorf("response does not use configured base URL:\n%s", w.Body.String())
	}
}

func TestVoiceWebhook_SignatureVerification(t *testing.T) {
	gin.SetMode(gin.TestMode)

	const token = "auth-token"
	form := url.Values{
		"CallSid": []string{"CA123"},
		"From":    []string{"+14155551234"},
	}
	// httptest requests arrive without TLS or forwarding headers
	valid := signForm(token, "http://example.com/voice", form)

	tests := []struct {
		name      string
		signature string
		wantCode  int
	}{
		{name: "valid signature accepted", signature: valid, wantCode: http.StatusOK},
		{name: "invalid signature rejected", signature: "bogus", wantCode: http.StatusUnauthorized},
		{name: "missing signature rejected", signature: "", wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&env.Config{TwilioAuthToken: token})
			router := gin.New()
			router.POST("/voice", h.VoiceWebhook)

			headers := map[string]string{}
			if tt.signature != "" {
				headers["X-Twilio-Signature"] = tt.signature
			}
			w := postForm(router, "/voice", form, headers)

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestVoiceWebhook_ForwardedHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	const token = "auth-token"
	form := url.Values{"CallSid": []string{"CA123"}}

	// Behind a proxy, the signed URL and the stream URL must both use the
	// forwarded scheme and host
	sig := signForm(token, "https://edge.example.com/voice", form)

	h := newTestHandler(&env.Config{TwilioAuthToken: token})
	router := gin.New()
	router.POST("/voice", h.VoiceWebhook)

	w := postForm(router, "/voice", form, map[string]string{
		"X-Twilio-Signature": sig,
		"X-Forwarded-Proto":  "https",
		"X-Forwarded-Host":   "edge.example.com",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "wss://edge.example.com/twilio") {
		t.Errorf("stream URL does not use forwarded host:\n%s", w.Body.String())
	}
}

func TestStreamStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := newTestHandler(&env.Config{})
	router := gin.New()
	router.POST("/stream-status", h.StreamStatus)

	form := url.Values{
		"CallSid":     []string{"CA123"},
		"StreamSid":   []string{"MZ123"},
		"StreamEvent": []string{"stream-stopped"},
	}
	w := postForm(router, "/stream-status", form, nil)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
}
