package delivery

import (
	"context"
	"testing"

	"followup_backend/internal/followup/domain"
	"followup_backend/internal/leads"
)

func strPtr(s string) *string { return &s }

func TestGate_LeadSideChecks(t *testing.T) {
	gate := NewGate(nil, nil, "DE")

	withPhone := leads.Lead{Name: "Muster GmbH", Phone: strPtr("+4915123456789")}
	withBadPhone := leads.Lead{Name: "Bad", Phone: strPtr("12345")}
	withEmail := leads.Lead{Name: "Mail", Email: strPtr("info@example.com")}
	bare := leads.Lead{Name: "Bare"}

	tests := []struct {
		name       string
		channel    domain.Channel
		lead       leads.Lead
		want       bool
		wantReason string
	}{
		{"call with valid phone", domain.ChannelCall, withPhone, true, ""},
		{"sms with valid phone", domain.ChannelSMS, withPhone, true, ""},
		{"sms with garbage phone", domain.ChannelSMS, withBadPhone, false, "lead has no valid phone number"},
		{"call without phone", domain.ChannelCall, bare, false, "lead has no valid phone number"},
		{"whatsapp without gateway", domain.ChannelWhatsApp, withPhone, false, "whatsapp gateway not configured"},
		{"email without smtp", domain.ChannelEmail, withEmail, false, "smtp not configured"},
		{"email without address", domain.ChannelEmail, bare, false, "lead has no email address"},
		{"unknown channel", domain.Channel("fax"), withPhone, false, "unknown channel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := gate.CanSend(context.Background(), tt.channel, tt.lead)
			if ok != tt.want || reason != tt.wantReason {
				t.Errorf("CanSend(%s) = %v %q, want %v %q", tt.channel, ok, reason, tt.want, tt.wantReason)
			}
		})
	}
}

func TestGate_NilProbesReportUnavailable(t *testing.T) {
	gate := NewGate(nil, nil, "DE")
	avail := gate.Availability(context.Background())

	if avail[domain.ChannelWhatsApp] || avail[domain.ChannelEmail] {
		t.Fatalf("unconfigured gateways must report unavailable, got %+v", avail)
	}
	if !avail[domain.ChannelSMS] || !avail[domain.ChannelCall] {
		t.Fatalf("device-local channels are always available, got %+v", avail)
	}
}
