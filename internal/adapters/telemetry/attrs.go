package telemetry

// Span attribute keys shared by the transport and the log bridge.
const (
	AttrMethod    = "http.request.method"
	AttrPath      = "url.path"
	AttrStatus    = "http.response.status_code"
	AttrAttempts  = "mirror.attempts"
	AttrRequestID = "mirror.request_id"
)
