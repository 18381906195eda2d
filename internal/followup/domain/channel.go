package domain

// Channel is a communication channel a follow-up step can go out on.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelCall     Channel = "call"
)

var knownChannels = map[Channel]struct{}{
	ChannelWhatsApp: {},
	ChannelEmail:    {},
	ChannelSMS:      {},
	ChannelCall:     {},
}

// Known reports whether c is a recognized channel.
func (c Channel) Known() bool {
	_, ok := knownChannels[c]
	return ok
}
