package chat

// EventKind discriminates the two kinds of stream events.
type EventKind int

const (
	// EventData carries a fragment of answer text.
	EventData EventKind = iota + 1
	// EventError reports a failure on the same channel as the answer.
	EventError
)

// ErrorKind classifies stream failures so callers can decide how to present
// them without inspecting text.
type ErrorKind int

const (
	// ErrorKindUnauthorized: the caller does not own the course.
	ErrorKindUnauthorized ErrorKind = iota + 1
	// ErrorKindNoPreviousResponse: continuation with no answer to continue.
	ErrorKindNoPreviousResponse
	// ErrorKindNoRelevantContent: retrieval produced no grounding context.
	ErrorKindNoRelevantContent
	// ErrorKindProvider: an embedding, retrieval, generation or storage
	// call failed.
	ErrorKindProvider
)

// String returns a stable identifier for logging.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindUnauthorized:
		return "unauthorized"
	case ErrorKindNoPreviousResponse:
		return "no_previous_response"
	case ErrorKindNoRelevantContent:
		return "no_relevant_content"
	case ErrorKindProvider:
		return "provider"
	default:
		return "unknown"
	}
}

// Event is one element of the answer stream. Data events concatenated in
// order form the answer; an error event is always the final element.
type Event struct {
	Kind EventKind

	// Text is the answer fragment for data events.
	Text string

	// ErrorKind is set for error events.
	ErrorKind ErrorKind

	// Err carries the underlying cause for provider failures, nil otherwise.
	Err error
}

// Data wraps an answer fragment.
func Data(text string) Event {
	return Event{Kind: EventData, Text: text}
}

// Failure wraps a stream failure.
func Failure(kind ErrorKind, err error) Event {
	return Event{Kind: EventError, ErrorKind: kind, Err: err}
}
