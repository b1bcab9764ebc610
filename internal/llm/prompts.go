package llm

// SystemPrompt is prepended to every conversation sent to the model.
const SystemPrompt = "You are a helpful AI assistant. Provide clear, concise, and helpful responses."
