package domain

// OutcomeKind tags the variant carried by an Outcome.
type OutcomeKind int

const (
	// OutcomeLoading signals that a request is in flight.
	OutcomeLoading OutcomeKind = iota
	// OutcomeSuccess carries the decoded images.
	OutcomeSuccess
	// OutcomeError carries a human-readable message.
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeLoading:
		return "loading"
	case OutcomeSuccess:
		return "success"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is one notification of a gateway fetch.
type Outcome struct {
	Kind    OutcomeKind `json:"kind"`
	Images  []CatImage  `json:"images,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Loading returns the in-flight notification.
func Loading() Outcome {
	return Outcome{Kind: OutcomeLoading}
}

// Success returns a terminal outcome carrying images.
func Success(images []CatImage) Outcome {
	return Outcome{Kind: OutcomeSuccess, Images: images}
}

// Failed returns a terminal outcome carrying an error message.
func Failed(message string) Outcome {
	return Outcome{Kind: OutcomeError, Message: message}
}

// IsTerminal reports whether no further outcome follows this one.
func (o Outcome) IsTerminal() bool {
	return o.Kind == OutcomeSuccess || o.Kind == OutcomeError
}
