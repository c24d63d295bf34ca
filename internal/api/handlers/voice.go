package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/troikatech/voice-bridge/pkg/errors"
	"github.com/troikatech/voice-bridge/pkg/logger"
	"github.com/troikatech/voice-bridge/pkg/twiml"
	"github.com/troikatech/voice-bridge/pkg/webhook"
)

// VoiceWebhook answers Twilio's incoming-call webhook with TwiML that
// connects the call's media stream to our websocket endpoint.
func (h *Handler) VoiceWebhook(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		errors.BadRequest(c, "invalid form payload")
		return
	}

	if h.cfg.TwilioAuthToken != "" {
		signature := c.GetHeader("X-Twilio-Signature")
		requestURL := h.requestURL(c)
		if err := webhook.VerifyTwilioSignature(h.cfg.TwilioAuthToken, requestURL, c.Request.PostForm, signature); err != nil {
			h.logger.Warn("Rejected webhook with bad signature",
				zap.Error(err),
				zap.String("remote_addr", c.Request.RemoteAddr),
			)
			errors.Unauthorized(c, "invalid webhook signature")
			return
		}
	}

	callSid := c.PostForm("CallSid")
	from := c.PostForm("From")

	h.logger.Info("Incoming call webhook",
		zap.String("call_sid", callSid),
		logger.MaskPhoneIfPresent("from", from),
	)

	params := url.Values{}
	params.Set("CallSid", callSid)
	params.Set("From", from)
	streamURL := fmt.Sprintf("%s/twilio?%s", h.wsBaseURL(c), params.Encode())

	body, err := twiml.ConnectStream(streamURL).Render()
	if err != nil {
		errors.InternalError(c, err, h.logger)
		return
	}

	c.Data(http.StatusOK, "text/xml; charset=utf-8", body)
}

// StreamStatus receives Twilio's stream status callbacks. They are logged
// for operational visibility; nothing is relayed.
func (h *Handler) StreamStatus(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		errors.BadRequest(c, "invalid form payload")
		return
	}

	h.logger.Info("Stream status callback",
		zap.String("call_sid", c.PostForm("CallSid")),
		zap.String("stream_sid", c.PostForm("StreamSid")),
		zap.String("status", c.PostForm("StreamEvent")),
	)

	c.Status(http.StatusNoContent)
}

// httpBaseURL reconstructs the externally visible scheme and host,
// honouring reverse proxy headers. Both the signature-verification URL and
// the stream URL derive from it, so the two can never disagree on the host.
func httpBaseURL(c *gin.Context) string {
	scheme := "https"
	if proto := c.GetHeader("X-Forwarded-Proto"); proto == "http" {
		scheme = "http"
	} else if proto == "" && c.Request.TLS == nil {
		scheme = "http"
	}

	host := c.GetHeader("X-Forwarded-Host")
	if host == "" {
		host = c.Request.Host
	}

	return fmt.Sprintf("%s://%s", scheme, host)
}

// requestURL reconstructs the full URL Twilio signed
func (h *Handler) requestURL(c *gin.Context) string {
	return httpBaseURL(c) + c.Request.URL.RequestURI()
}

// wsBaseURL derives the websocket base URL - prefer configured URL,
// fallback to request-based detection (works behind reverse proxy).
func (h *Handler) wsBaseURL(c *gin.Context) string {
	baseURL := h.cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = httpBaseURL(c)
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	// Production MUST use wss://, development can use ws://
	if strings.HasPrefix(baseURL, "https") {
		baseURL = "wss" + baseURL[5:]
	} else if strings.HasPrefix(baseURL, "http") {
		baseURL = "ws" + baseURL[4:]
	}

	return baseURL
}
