package entity

// FetchStatus classifies the result of a single fetch attempt.
type FetchStatus int

const (
	FetchSuccess FetchStatus = iota
	FetchNotFound
	FetchClientError
	FetchServerError
	FetchError
)

// String returns the reason code reported to observers for the status.
func (s FetchStatus) String() string {
	switch s {
	case FetchSuccess:
		return "SUCCESS"
	case FetchNotFound:
		return "NOT_FOUND"
	case FetchClientError:
		return "CLIENT_ERROR"
	case FetchServerError:
		return "SERVER_ERROR"
	case FetchError:
		return "FETCH_ERROR"
	default:
		return "UNKNOWN"
	}
}

// ReasonUnexpectedError is reported when page processing fails outside of
// the fetch classification, e.g. a store error or a panic.
const ReasonUnexpectedError = "UNEXPECTED_ERROR"

// FetchOutcome is what a PageFetcher hands back to the core.
// Content is only populated when Status is FetchSuccess.
type FetchOutcome struct {
	Content string
	Status  FetchStatus
}

// Success builds a successful outcome carrying the page body.
func Success(content string) FetchOutcome {
	return FetchOutcome{Content: content, Status: FetchSuccess}
}

// Failure builds an outcome without content.
func Failure(status FetchStatus) FetchOutcome {
	return FetchOutcome{Status: status}
}

// OK reports whether the fetch produced HTML content.
func (o FetchOutcome) OK() bool {
	return o.Status == FetchSuccess
}
