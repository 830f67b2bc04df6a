package chat

import (
	"fmt"
	"strings"

	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
	domchat "github.com/kailas-cloud/cardex/internal/domain/chat"
)

// Apology is returned to the user when the language model cannot answer.
const Apology = "I apologize, but I'm having trouble processing your request right now. " +
	"Please try asking about specific card features or requirements, " +
	"and I'll do my best to help you find the right credit card."

func buildPrompt(message string, history []domchat.Message, cards []domcard.Card, maxCards int) string {
	if len(history) > domchat.PromptWindow {
		history = history[len(history)-domchat.PromptWindow:]
	}
	if maxCards > 0 && len(cards) > maxCards {
		cards = cards[:maxCards]
	}

	var b strings.Builder
	b.WriteString("You are a helpful credit card advisor for Indian users. ")
	b.WriteString("Provide personalized advice based on the available credit cards.\n\n")

	b.WriteString("Previous conversation context:\n")
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}

	fmt.Fprintf(&b, "\nCurrent user message: %q\n\nAvailable credit cards:\n", message)
	for i := range cards {
		c := &cards[i]
		fmt.Fprintf(&b, "- %s: %s, %s rewards, ₹%d min income\n", c.Name, c.BestFor, c.RewardRate, c.MinMonthlyIncome)
	}

	b.WriteString("\nProvide a helpful, conversational response. ")
	b.WriteString("Be specific about card recommendations when relevant.\n")
	b.WriteString("Keep responses concise but informative (2-4 sentences max).\n")
	return b.String()
}
