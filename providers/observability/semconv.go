package observability

// Semantic conventions for observability attributes. These constants define
// standard attribute names so events stay consistent across components.

// --- LLM Provider Attributes ---

const (
	// AttrLLMProvider is the name of the LLM provider (e.g., "openai", "anthropic")
	AttrLLMProvider = "llm.provider"

	// AttrLLMModel is the model identifier (e.g., "gpt-4.1-mini", "grok-beta")
	AttrLLMModel = "llm.model"

	// AttrLLMEndpoint is the API endpoint URL
	AttrLLMEndpoint = "llm.endpoint"

	// AttrLLMResponseID is the unique response identifier from the provider
	AttrLLMResponseID = "llm.response.id"

	// AttrLLMFinishReason is the reason the generation finished
	AttrLLMFinishReason = "llm.finish_reason"
)

// --- Token Attributes ---

const (
	// AttrTokensEstimated is the heuristic token estimate for an outbound payload
	AttrTokensEstimated = "llm.tokens.estimated" // #nosec G101 -- refers to LLM tokens, not credentials

	// AttrLLMTokensPrompt is the number of prompt tokens reported by the provider
	AttrLLMTokensPrompt = "llm.tokens.prompt" // #nosec G101 -- refers to LLM tokens, not credentials

	// AttrLLMTokensCompletion is the number of completion tokens reported by the provider
	AttrLLMTokensCompletion = "llm.tokens.completion" // #nosec G101 -- refers to LLM tokens, not credentials

	// AttrLLMTokensTotal is the total number of tokens reported by the provider
	AttrLLMTokensTotal = "llm.tokens.total" // #nosec G101 -- refers to LLM tokens, not credentials
)

// --- HTTP Attributes ---

const (
	// AttrHTTPMethod is the HTTP request method
	AttrHTTPMethod = "http.method"

	// AttrHTTPURL is the full request URL
	AttrHTTPURL = "http.url"

	// AttrHTTPStatusCode is the HTTP response status code
	AttrHTTPStatusCode = "http.status_code"

	// AttrHTTPRequestBodySize is the request body size in bytes
	AttrHTTPRequestBodySize = "http.request.body.size"

	// AttrHTTPResponseBodySize is the response body size in bytes
	AttrHTTPResponseBodySize = "http.response.body.size"
)

// --- Request Attributes ---

const (
	// AttrRequestMessagesCount is the number of messages in an outbound request
	AttrRequestMessagesCount = "request.messages.count"

	// AttrRequestAttachmentsCount is the number of attachments on a message
	AttrRequestAttachmentsCount = "request.attachments.count"
)

// --- Conversation Store Attributes ---

const (
	// AttrStoreTier is the retention tier an operation targeted ("temporary" or "permanent")
	AttrStoreTier = "store.tier"

	// AttrStoreConversationID is the conversation identifier involved
	AttrStoreConversationID = "store.conversation.id"

	// AttrStoreTierCount is the entry count of a tier after an operation
	AttrStoreTierCount = "store.tier.count"
)

// --- Session Attributes ---

const (
	// AttrSessionState is the orchestrator state after a transition
	AttrSessionState = "session.state"

	// AttrSessionMessagesCount is the number of messages in the active session
	AttrSessionMessagesCount = "session.messages.count"
)

// --- Common Attributes ---

const (
	// AttrStatus is the outcome of an operation ("success" or "error")
	AttrStatus = "status"

	// AttrDuration is the wall-clock duration of an operation
	AttrDuration = "duration"
)

// --- Span Names ---

const (
	// SpanSessionSubmit is the span around one full conversation turn
	SpanSessionSubmit = "session.submit"
)

// --- Metric Names ---

const (
	// MetricSessionRequestCount is the counter for submitted turns
	MetricSessionRequestCount = "parley.session.request.count"

	// MetricSessionRequestDuration is the histogram for provider call duration
	MetricSessionRequestDuration = "parley.session.request.duration"

	// MetricSessionTokensTotal is the counter for total tokens reported by providers
	MetricSessionTokensTotal = "parley.session.tokens.total" // #nosec G101 -- refers to LLM tokens, not credentials
)

// --- Common Event Names ---

const (
	// EventLLMRequestStart marks the start of an LLM request
	EventLLMRequestStart = "llm.request.start"

	// EventLLMRequestEnd marks the completion of an LLM request
	EventLLMRequestEnd = "llm.request.end"

	// EventTokensReceived marks receipt of token usage information
	EventTokensReceived = "llm.tokens.received" // #nosec G101 -- refers to LLM tokens, not credentials

	// EventPayloadLarge marks a flattened payload exceeding the advisory token threshold
	EventPayloadLarge = "format.payload.large"

	// EventMissingReply marks a 2xx response matching neither known reply shape
	EventMissingReply = "llm.response.missing_reply"

	// EventStoreEvict marks a FIFO eviction from the temporary tier
	EventStoreEvict = "store.evict"
)
