package domain

// SamplerConfig holds the generation settings of one sampler.
// A sampler copies it at construction and never mutates it afterwards.
type SamplerConfig struct {
	// Model is the vendor model identifier.
	Model string `json:"model" mapstructure:"model"`

	// SystemMessage is prepended to the conversation when non-empty.
	SystemMessage string `json:"system_message" mapstructure:"system_message"`

	// Temperature controls randomness.
	Temperature float64 `json:"temperature" mapstructure:"temperature"`

	// MaxTokens limits the length of the generated output.
	MaxTokens int `json:"max_tokens" mapstructure:"max_tokens"`
}

// Defaults for the conversational (Cohere) sampler.
const (
	DefaultConversationalModel       = "command-r"
	DefaultConversationalTemperature = 0.5
)

// Defaults for the generative (Gemini) sampler.
const (
	DefaultGenerativeModel       = "gemini-1.0-pro-latest"
	DefaultGenerativeTemperature = 1.0
)

// DefaultMaxTokens is the output limit shared by both samplers.
const DefaultMaxTokens = 1024

// DefaultConversationalConfig returns the settings the Cohere sampler uses
// when nothing else is configured.
func DefaultConversationalConfig() SamplerConfig {
	return SamplerConfig{
		Model:       DefaultConversationalModel,
		Temperature: DefaultConversationalTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// DefaultGenerativeConfig returns the settings the Gemini sampler uses
// when nothing else is configured.
func DefaultGenerativeConfig() SamplerConfig {
	return SamplerConfig{
		Model:       DefaultGenerativeModel,
		Temperature: DefaultGenerativeTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}
