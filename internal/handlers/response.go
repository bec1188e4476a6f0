package handlers

// Response is the uniform envelope returned by resource endpoints.
type Response struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func ok(data any, message string) Response {
	return Response{Success: true, Message: message, Data: data}
}

func fail(message string, errs ...string) Response {
	return Response{Success: false, Message: message, Errors: errs}
}
