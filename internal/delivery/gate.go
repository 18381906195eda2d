package delivery

import (
	"context"

	"followup_backend/internal/followup/domain"
	"followup_backend/internal/leads"
	"followup_backend/platform/phone"
)

// Gate decides whether a channel is usable for a given lead before the UI
// offers a send deep link. Lead-side checks are pure; gateway health comes
// from the probes.
type Gate struct {
	whatsapp *WhatsAppClient
	mailer   *Mailer
	region   string
}

func NewGate(whatsapp *WhatsAppClient, mailer *Mailer, defaultRegion string) *Gate {
	return &Gate{whatsapp: whatsapp, mailer: mailer, region: defaultRegion}
}

// CanSend reports whether the channel is usable for the lead, with a
// human-readable reason when it is not.
func (g *Gate) CanSend(ctx context.Context, channel domain.Channel, lead leads.Lead) (bool, string) {
	switch channel {
	case domain.ChannelWhatsApp:
		if lead.Phone == nil || !phone.IsValid(*lead.Phone, g.region) {
			return false, "lead has no valid phone number"
		}
		if g.whatsapp == nil {
			return false, "whatsapp gateway not configured"
		}
		if !g.whatsapp.Available(ctx) {
			return false, "whatsapp gateway offline"
		}
		return true, ""

	case domain.ChannelSMS, domain.ChannelCall:
		if lead.Phone == nil || !phone.IsValid(*lead.Phone, g.region) {
			return false, "lead has no valid phone number"
		}
		return true, ""

	case domain.ChannelEmail:
		if lead.Email == nil || *lead.Email == "" {
			return false, "lead has no email address"
		}
		if g.mailer == nil {
			return false, "smtp not configured"
		}
		return true, ""

	default:
		return false, "unknown channel"
	}
}

// Availability runs the live gateway probes for the status endpoint.
func (g *Gate) Availability(ctx context.Context) map[domain.Channel]bool {
	return map[domain.Channel]bool{
		domain.ChannelWhatsApp: g.whatsapp.Available(ctx),
		domain.ChannelEmail:    g.mailer.Available(ctx),
		domain.ChannelSMS:      true,
		domain.ChannelCall:     true,
	}
}
