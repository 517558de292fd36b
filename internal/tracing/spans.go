package tracing

// Span names.
const (
	SpanTerminate   = "process.terminate"
	SpanFetchStatus = "process.fetch_status"
	SpanPollTick    = "poller.tick"
	SpanWait        = "poller.wait"
	SpanHTTPPrefix  = "http."
)

// Span attribute keys.
const (
	AttrProcessID     = "process.id"
	AttrProcessStatus = "process.status"

	AttrHTTPMethod     = "http.method"
	AttrHTTPURL        = "http.url"
	AttrHTTPStatusCode = "http.status_code"

	AttrPollSeq   = "poller.seq"
	AttrPollStale = "poller.stale"

	AttrErrorMessage = "error.message"
	AttrErrorType    = "error.type"
)

// Event names.
const (
	EventStaleDropped = "poller.stale_dropped"
	EventSettled      = "poller.settled"
)
