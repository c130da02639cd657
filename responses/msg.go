package responses

const (
	MessageTypeError = "error"
	MessageTypeInfo  = "info"
)

// Application-level logic codes
const (
	CodeNone            = 0
	CodeValidation      = 1001
	CodeNotFound        = 1002
	CodeRenderFailed    = 1003
	CodeThrottled       = 1004
	CodeBusy            = 1005 // same document number being rendered
	CodeMalformedBody   = 1006
	CodeUnsupportedType = 1007
	CodeInternal        = 1500
)

type Message struct {
	Type    string            `json:"type"` // "error", etc
	Message string            `json:"message"`
	Code    int               `json:"code"`             // application-level logic code
	Fields  map[string]string `json:"fields,omitempty"` // field name → message
}
