// Package wati sends session messages through the WATI WhatsApp gateway.
package wati

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/whatsapp-bridge/internal/messaging"
	"github.com/wolfman30/whatsapp-bridge/pkg/logging"
)

// Sender posts text messages to WATI's sendSessionMessage endpoint.
type Sender struct {
	baseURL    string
	tenantID   string
	token      string
	httpClient *http.Client
	logger     *logging.Logger
}

// SendResult reports the outcome of one send attempt. StatusCode is zero when
// no HTTP call was made.
type SendResult struct {
	OK         bool
	StatusCode int
}

// NewSender builds a WATI sender. baseURL is overridable for tests and
// self-hosted gateways; production uses https://app.wati.io.
func NewSender(baseURL, tenantID, token string, timeout time.Duration, logger *logging.Logger) *Sender {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sender{
		baseURL:  strings.TrimRight(baseURL, "/"),
		tenantID: tenantID,
		token:    token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// SendText delivers one message to a phone number. The phone is canonicalized
// first; an empty phone or empty trimmed text is a logged no-op because the
// gateway must never receive an empty body. Exactly one HTTP request per
// call, no retry.
func (s *Sender) SendText(ctx context.Context, phone, text string) SendResult {
	phone = messaging.CanonicalPhone(phone)
	text = strings.TrimSpace(text)
	if phone == "" || text == "" {
		s.logger.Warn("skipping send with missing phone or empty text",
			"phone", phone, "text_len", len(text))
		return SendResult{}
	}

	body, err := json.Marshal(map[string]string{"messageText": text})
	if err != nil {
		s.logger.Error("failed to marshal wati payload", "error", err)
		return SendResult{}
	}

	url := fmt.Sprintf("%s/%s/api/v1/sendSessionMessage/%s", s.baseURL, s.tenantID, phone)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		s.logger.Error("failed to build wati request", "error", err)
		return SendResult{}
	}
	req.Header.Set("Content-Type", "application/json")
	// WATI expects the raw token, not a Bearer-prefixed value.
	req.Header.Set("Authorization", s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("wati send failed", "error", err, "phone", phone)
		return SendResult{}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 8192))

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if ok {
		s.logger.Info("wati message sent", "phone", phone, "status", resp.StatusCode)
	} else {
		s.logger.Error("wati rejected message", "phone", phone, "status", resp.StatusCode)
	}
	return SendResult{OK: ok, StatusCode: resp.StatusCode}
}
