// FILE: internal/pkg/serverutils/response.go
package serverutils

type Response struct {
	Status  string      `json:"status"`
	Code    int         `json:"code,omitempty"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func ErrorResponse(code int, message string) Response {
	return Response{Status: "error", Code: code, Message: message}
}

func SuccessResponse(message string, data interface{}) Response {
	return Response{Status: "success", Message: message, Data: data}
}
