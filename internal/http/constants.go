package http

const (
	JSONKeyOK    = "ok"
	JSONKeyData  = "data"
	JSONKeyError = "error"

	HeaderRequestID = "X-Request-ID"
	ContextKeyReqID = "requestID"

	HTTPErrorInvalidJSONText = "invalid JSON"
	HTTPErrorForbiddenText   = "forbidden"
)
