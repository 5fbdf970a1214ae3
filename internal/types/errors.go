package types

import "fmt"

// Area prefixes API error codes, e.g. IO_404 or RULE_400.
type Area string

const (
	AreaAuth      Area = "AUTH"
	AreaDocument  Area = "DOCUMENT"
	AreaDocuments Area = "DOC"
	AreaIO        Area = "IO"
	AreaSP        Area = "SUBPROGRAM"
	AreaStep      Area = "STEP"
	AreaCondition Area = "CONDITION"
	AreaRule      Area = "RULE"
	AreaCursor    Area = "CURSOR"
	AreaExport    Area = "EXPORT"
	AreaLanguage  Area = "LANG"
)

// Code joins an area and an HTTP status into an error code.
func (a Area) Code(status int) string {
	return fmt.Sprintf("%s_%d", a, status)
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func NewErrorResponse(code, message string, details any) ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// NewStatusError is NewErrorResponse with the code derived from area and status.
func NewStatusError(area Area, status int, message string, details any) ErrorResponse {
	return NewErrorResponse(area.Code(status), message, details)
}
