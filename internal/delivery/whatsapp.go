// Package delivery answers channel availability questions for the follow-up
// surfaces. It never sends follow-up messages itself; agents send from their
// own devices and record the outcome afterwards.
package delivery

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"followup_backend/platform/config"
	"followup_backend/platform/logger"
)

// WhatsAppClient probes the gowa gateway that the sales team uses for manual
// sends. A nil client means no gateway is configured.
type WhatsAppClient struct {
	baseURL  string
	apiKey   string
	deviceID string
	http     *http.Client
	log      *logger.Logger
}

func NewWhatsAppClient(cfg config.WhatsAppConfig, log *logger.Logger) *WhatsAppClient {
	if cfg.GetWhatsAppURL() == "" {
		return nil
	}

	return &WhatsAppClient{
		baseURL:  strings.TrimRight(cfg.GetWhatsAppURL(), "/"),
		apiKey:   cfg.GetWhatsAppKey(),
		deviceID: cfg.GetWhatsAppDeviceID(),
		http:     &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}
}

type gowaDeviceStatus struct {
	Connected bool   `json:"connected"`
	State     string `json:"state"`
}

// Available reports whether the gateway device is connected and able to send.
func (c *WhatsAppClient) Available(ctx context.Context) bool {
	if c == nil {
		return false
	}

	url := fmt.Sprintf("%s/device/status", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", formatAuthHeader(c.apiKey))
	}
	if c.deviceID != "" {
		req.Header.Set("X-Device-Id", c.deviceID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("whatsapp gateway unreachable", "error", err.Error())
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		c.log.Warn("whatsapp gateway probe failed",
			"status", resp.StatusCode, "body", strings.TrimSpace(string(data)))
		return false
	}

	var status gowaDeviceStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return false
	}
	return status.Connected
}

func formatAuthHeader(apiKey string) string {
	if strings.HasPrefix(strings.ToLower(apiKey), "basic ") {
		return apiKey
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(apiKey))
	return "Basic " + encoded
}
