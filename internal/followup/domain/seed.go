package domain

// DefaultSteps is the seeded outreach sequence: five follow-up touches over
// the first three weeks, two reactivation touches, then an endless half-year
// check-in loop.
func DefaultSteps() []Step {
	return []Step{
		{
			Code:              "initial_contact",
			Phase:             PhaseFollowUp,
			Order:             0,
			DaysAfterPrevious: 0,
			DefaultChannel:    ChannelWhatsApp,
			MessageTemplate:   "Hallo {{firstName}}, danke für Ihr Interesse! Wann passt Ihnen ein kurzes Gespräch?",
		},
		{
			Code:              "fu_1_bump",
			Phase:             PhaseFollowUp,
			Order:             1,
			DaysAfterPrevious: 3,
			DefaultChannel:    ChannelWhatsApp,
			MessageTemplate:   "Hallo {{firstName}}, wollte nur kurz nachhaken – haben Sie meine Nachricht gesehen?",
		},
		{
			Code:              "fu_2_value",
			Phase:             PhaseFollowUp,
			Order:             2,
			DaysAfterPrevious: 4,
			DefaultChannel:    ChannelEmail,
			MessageTemplate:   "Hallo {{firstName}}, anbei ein Beispiel, wie wir {{company}} konkret helfen können.",
		},
		{
			Code:              "fu_3_case",
			Phase:             PhaseFollowUp,
			Order:             3,
			DaysAfterPrevious: 5,
			DefaultChannel:    ChannelEmail,
			MessageTemplate:   "Hallo {{firstName}}, ein Kunde aus {{vertical}} hat mit uns {{result}} erreicht – relevant für Sie?",
		},
		{
			Code:              "fu_4_last_touch",
			Phase:             PhaseFollowUp,
			Order:             4,
			DaysAfterPrevious: 7,
			DefaultChannel:    ChannelCall,
			MessageTemplate:   "Hallo {{firstName}}, ich schließe Ihre Anfrage vorerst – melden Sie sich gerne jederzeit.",
		},
		{
			Code:              "rx_1_update",
			Phase:             PhaseReactivation,
			Order:             0,
			DaysAfterPrevious: 21,
			DefaultChannel:    ChannelWhatsApp,
			MessageTemplate:   "Hallo {{firstName}}, es gibt Neuigkeiten bei uns, die für {{company}} spannend sein könnten.",
		},
		{
			Code:              "rx_2_news",
			Phase:             PhaseReactivation,
			Order:             1,
			DaysAfterPrevious: 30,
			DefaultChannel:    ChannelEmail,
			MessageTemplate:   "Hallo {{firstName}}, kurzes Update aus {{vertical}} – hätten Sie diese Woche 15 Minuten?",
		},
		{
			Code:              "rx_loop_checkin",
			Phase:             PhaseLoop,
			Order:             0,
			DaysAfterPrevious: 180,
			DefaultChannel:    ChannelEmail,
			MessageTemplate:   "Hallo {{firstName}}, wir haben uns länger nicht gehört – wie läuft es bei {{company}}?",
		},
	}
}
