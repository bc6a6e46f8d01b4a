package chat

import (
	"fmt"
	"strings"

	"localvibe/internal/domain"
)

// maxHistoryMessages caps how many prior transcript entries accompany a new
// user message in the completion request.
const maxHistoryMessages = 6

func buildSystemPrompt(locations []domain.Location) string {
	var b strings.Builder
	b.WriteString("Ești asistentul aplicației LocalVibe și recomanzi cafenele și restaurante ")
	b.WriteString("exclusiv din lista de mai jos. Răspunde în limba română, prietenos și concis. ")
	b.WriteString("Folosește numele locațiilor exact așa cum apar în listă. ")
	b.WriteString("Dacă nimic din listă nu se potrivește, spune asta sincer.\n\nLocații disponibile:\n")
	for _, loc := range locations {
		b.WriteString(fmt.Sprintf("- %s (%s), %s, rating %.1f. %s\n",
			loc.Name, venueLabel(loc.Type), loc.Address, loc.Rating, loc.Description))
	}
	return strings.TrimRight(b.String(), "\n")
}

func venueLabel(t domain.LocationType) string {
	if t == domain.TypeCafe {
		return "cafenea"
	}
	return "restaurant"
}

// buildTurnMessages assembles the completion request: the system prompt with
// the reference list, the last few prior transcript entries, then the new
// user message.
func buildTurnMessages(locations []domain.Location, history []domain.Message, content string) []domain.ChatMessage {
	messages := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: buildSystemPrompt(locations)},
	}
	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}
	for _, m := range history {
		if m.Content == "" {
			continue
		}
		messages = append(messages, domain.ChatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: content})
	return messages
}
