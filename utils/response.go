// utils/response.go
package utils

// APIResponse is the envelope every endpoint returns.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Response(success bool, message string) APIResponse {
	return APIResponse{Success: success, Message: message}
}

func ResponseWithData(success bool, message string, data interface{}) APIResponse {
	return APIResponse{Success: success, Message: message, Data: data}
}
