// ABOUTME: Detection wire protocol message type definitions
// ABOUTME: Defines request bodies and WebSocket envelopes shared by server and client
package protocol

import "encoding/json"

// ProtocolVersion is advertised in server/hello
const ProtocolVersion = 1

// WebSocket message types
const (
	TypeServerHello   = "server/hello"
	TypeServerError   = "server/error"
	TypeDetectRequest = "detect/request"
	TypeDetectResult  = "detect/result"
)

// Message is the top-level wrapper for all WebSocket messages
type Message struct {
	Type    string      `json:"type"`
	ID      string      `json:"id,omitempty"`
	Payload interface{} `json:"payload"`
}

// Envelope is a received Message with its payload left undecoded
type Envelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// DetectRequest is the body of POST /detect and the payload of detect/request
type DetectRequest struct {
	AudioBase64 string `json:"audioBase64"`
	Language    string `json:"language,omitempty"`
	AudioFormat string `json:"audioFormat,omitempty"`
}

// ServerHello is sent when a WebSocket client connects
type ServerHello struct {
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
	Mode     string `json:"mode"`
}

// ErrorPayload reports a malformed or rejected message
type ErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Detail is the FastAPI-style fault body used for 4xx responses
type Detail struct {
	Detail string `json:"detail"`
}

// VersionInfo is returned by GET /version
type VersionInfo struct {
	Product  string `json:"product"`
	Version  string `json:"version"`
	Protocol int    `json:"protocol"`
	Mode     string `json:"mode"`
}
