package api

import "encoding/json"

// SubmitOutcome is the three-way result of a form post that the backend
// answers with a redirect.
type SubmitOutcome int

const (
	SubmitFailed SubmitOutcome = iota
	SubmitRedirected
	SubmitSucceeded
)

func (o SubmitOutcome) String() string {
	switch o {
	case SubmitRedirected:
		return "redirected"
	case SubmitSucceeded:
		return "succeeded"
	default:
		return "failed"
	}
}

type SubmitResult struct {
	Outcome  SubmitOutcome
	Location string          // redirect target, when sent
	Message  string          // failure message
	Body     json.RawMessage // success body, may be nil
}

// ClassifySubmission maps a raw response with redirects left unfollowed to
// a SubmitResult. It does no I/O.
func ClassifySubmission(status int, location string, body []byte) SubmitResult {
	switch {
	case status >= 300 && status < 400:
		return SubmitResult{Outcome: SubmitRedirected, Location: location}
	case status >= 200 && status < 300:
		res := SubmitResult{Outcome: SubmitSucceeded}
		if len(body) > 0 && json.Valid(body) {
			res.Body = json.RawMessage(body)
		}
		return res
	}

	msg := msgAddFailed
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		if detail, ok := detailMessage(env.Detail); ok {
			msg = detail
		}
	}
	return SubmitResult{Outcome: SubmitFailed, Message: msg}
}
