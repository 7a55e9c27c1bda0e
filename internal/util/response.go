package util

// Response is the uniform envelope returned by every endpoint.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
	OK         bool   `json:"ok"`
}

func Success(statusCode int, message string, data any) Response {
	return Response{StatusCode: statusCode, Message: message, Data: data, OK: true}
}

func Failure(statusCode int, message string) Response {
	return Response{StatusCode: statusCode, Message: message, OK: false}
}
