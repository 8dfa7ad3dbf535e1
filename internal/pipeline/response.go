package pipeline

// Response is the success-shaped result every stage handler returns to its
// trigger. Under PolicySwallow it is returned even after a failure, so the
// delivery mechanism never sees the event as unprocessed.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// OK builds a 200 response with the given body text.
func OK(body string) Response {
	return Response{StatusCode: 200, Body: body}
}
