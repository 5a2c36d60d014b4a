package common

// GatewayAck is the JSON body the gateway answers a write with
type GatewayAck[T any] struct {
	Success       *bool       `json:"success"`
	Message       string      `json:"message,omitempty"`
	Data          T           `json:"data,omitempty"`
	Error         interface{} `json:"error,omitempty"`
	ActiveSession bool        `json:"activeSession,omitempty"`
}
