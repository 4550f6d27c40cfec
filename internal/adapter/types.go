package adapter

// Vendor-neutral request/response types.
// Adapters translate these to and from SDK types at the call boundary.

// Cohere chat roles.
const (
	ChatRoleSystem  = "SYSTEM"
	ChatRoleUser    = "USER"
	ChatRoleChatbot = "CHATBOT"
)

// ChatMessage is one turn of chat history in the conversational vendor's vocabulary.
type ChatMessage struct {
	// Role is one of SYSTEM, USER or CHATBOT.
	Role string `json:"role"`

	// Message is the turn's text.
	Message string `json:"message"`
}

// ChatRequest is a conversational completion request.
type ChatRequest struct {
	// Model is the vendor model identifier.
	Model string `json:"model"`

	// Message is the current user turn.
	Message string `json:"message"`

	// Temperature controls randomness.
	Temperature float64 `json:"temperature"`

	// MaxTokens limits the response length.
	MaxTokens int `json:"max_tokens"`

	// ChatHistory contains every turn preceding Message, oldest first.
	ChatHistory []ChatMessage `json:"chat_history"`
}

// ChatResponse is the outcome of a conversational completion.
type ChatResponse struct {
	Text         string `json:"text"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// GenerateRequest is a single-prompt generation request.
type GenerateRequest struct {
	// Model is the vendor model identifier.
	Model string `json:"model"`

	// Prompt is the entire input text.
	Prompt string `json:"prompt"`

	// Temperature controls randomness.
	Temperature float64 `json:"temperature"`

	// MaxOutputTokens limits the response length.
	MaxOutputTokens int `json:"max_output_tokens"`
}

// GenerateResponse is the outcome of a generation call.
type GenerateResponse struct {
	Text string `json:"text"`

	// PromptTokens is the vendor's prompt_token_count.
	PromptTokens int `json:"prompt_tokens"`

	// CandidatesTokens is the vendor's candidates_token_count.
	CandidatesTokens int `json:"candidates_tokens"`
}
