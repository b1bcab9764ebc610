package llm

// LatestUserMessage returns the content of the most recent user turn in the
// transcript, scanning from the end. Returns "" when the transcript has no
// user turn.
func LatestUserMessage(transcript []Message) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == "user" {
			return transcript[i].Content
		}
	}
	return ""
}

// BuildConversation rebuilds the message sequence for a completion request
// from the transcript the platform sent with the current event. The
// transcript is authoritative and complete each time, not incremental.
//
// The sequence starts with the fixed system prompt, followed by every user
// and assistant turn in order (other roles are dropped). If userMessage is
// non-empty and the last entry's content differs from it, one trailing user
// entry is appended - Retell sometimes omits the latest turn from the
// transcript array.
func BuildConversation(transcript []Message, userMessage string) []Message {
	messages := make([]Message, 0, len(transcript)+2)
	messages = append(messages, Message{Role: "system", Content: SystemPrompt})

	for _, entry := range transcript {
		switch entry.Role {
		case "user", "assistant":
			messages = append(messages, Message{Role: entry.Role, Content: entry.Content})
		}
	}

	if userMessage != "" && messages[len(messages)-1].Content != userMessage {
		messages = append(messages, Message{Role: "user", Content: userMessage})
	}

	return messages
}
