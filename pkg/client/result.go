package client

// ResultKind discriminates the report fetch outcome. A fetch moves
// from Pending to exactly one terminal kind and never back.
type ResultKind int

const (
	// KindPending means the fetch has not settled.
	KindPending ResultKind = iota
	// KindDenied means the caller is not allowed: no session, an
	// expired session, or another user's report.
	KindDenied
	// KindFailure means the fetch ran and broke: transport error,
	// unexpected status, or an unparseable payload.
	KindFailure
	// KindSuccess means the payload was retrieved and parsed.
	KindSuccess
)

func (k ResultKind) String() string {
	switch k {
	case KindPending:
		return "pending"
	case KindDenied:
		return "denied"
	case KindFailure:
		return "failure"
	case KindSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// ReportResult is the outcome of one report fetch. Exactly one of
// Reason (Denied), Message (Failure) or Payload (Success) is set for
// terminal kinds.
type ReportResult struct {
	Kind    ResultKind
	Reason  string
	Message string
	Payload *ReportPayload
}

// Pending returns the initial, unsettled result.
func Pending() ReportResult {
	return ReportResult{Kind: KindPending}
}

// Denied builds an authorization-denied result.
func Denied(reason string) ReportResult {
	return ReportResult{Kind: KindDenied, Reason: reason}
}

// Failure builds an operational-failure result.
func Failure(message string) ReportResult {
	return ReportResult{Kind: KindFailure, Message: message}
}

// Success wraps a parsed payload.
func Success(payload *ReportPayload) ReportResult {
	return ReportResult{Kind: KindSuccess, Payload: payload}
}
