package toolschema

// ConversationConfig is the agent configuration envelope the backend
// generates. Field names follow the conversational-agent platform's
// wire format exactly.
type ConversationConfig struct {
	ASR             ASRConfig              `json:"asr"`
	Turn            TurnConfig             `json:"turn"`
	TTS             TTSConfig              `json:"tts"`
	Conversation    ConversationLimits     `json:"conversation"`
	LanguagePresets map[string]interface{} `json:"language_presets"`
	Agent           AgentConfig            `json:"agent"`
}

// ASRConfig configures speech recognition.
type ASRConfig struct {
	Quality              string `json:"quality"`
	Provider             string `json:"provider"`
	UserInputAudioFormat string `json:"user_input_audio_format"`
}

// TurnConfig configures turn-taking. SilenceEndCallTimeout of -1
// disables the silence hangup.
type TurnConfig struct {
	TurnTimeout           float64 `json:"turn_timeout"`
	SilenceEndCallTimeout float64 `json:"silence_end_call_timeout"`
	Mode                  string  `json:"mode"`
}

// TTSConfig configures speech synthesis.
type TTSConfig struct {
	ModelID                  string  `json:"model_id"`
	VoiceID                  string  `json:"voice_id"`
	AgentOutputAudioFormat   string  `json:"agent_output_audio_format"`
	OptimizeStreamingLatency int     `json:"optimize_streaming_latency"`
	Stability                float64 `json:"stability"`
	Speed                    float64 `json:"speed"`
	SimilarityBoost          float64 `json:"similarity_boost"`
}

// ConversationLimits bounds a conversation session.
type ConversationLimits struct {
	TextOnly           bool     `json:"text_only"`
	MaxDurationSeconds int      `json:"max_duration_seconds"`
	ClientEvents       []string `json:"client_events"`
}

// AgentConfig configures the agent persona and its prompt.
type AgentConfig struct {
	FirstMessage string       `json:"first_message"`
	Language     string       `json:"language"`
	Prompt       PromptConfig `json:"prompt"`
}

// PromptConfig holds the LLM prompt settings and the webhook tools the
// agent may call. The LLM name is opaque configuration for the
// platform; nothing in this module invokes it.
type PromptConfig struct {
	Prompt                   string        `json:"prompt"`
	LLM                      string        `json:"llm"`
	Temperature              float64       `json:"temperature"`
	MaxTokens                int           `json:"max_tokens"`
	IgnoreDefaultPersonality bool          `json:"ignore_default_personality"`
	RAG                      RAGConfig     `json:"rag"`
	Tools                    []WebhookTool `json:"tools"`
}

// RAGConfig configures retrieval augmentation for the prompt.
type RAGConfig struct {
	Enabled                    bool    `json:"enabled"`
	EmbeddingModel             string  `json:"embedding_model"`
	MaxVectorDistance          float64 `json:"max_vector_distance"`
	MaxDocumentsLength         int     `json:"max_documents_length"`
	MaxRetrievedRAGChunksCount int     `json:"max_retrieved_rag_chunks_count"`
}
