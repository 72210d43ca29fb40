package responses

// Every response body is either {"data": ...} or {"error": {...}}.

type successEnvelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// errorBody carries a stable machine code plus a message safe to show at the
// till. Details only appear for codes that allow them.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
