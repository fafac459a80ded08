package api_models

import "time"

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	NoTelp   string `json:"no_telp"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message  string `json:"message"`
	Token    string `json:"token"`
	Username string `json:"username"`
}

type AddAlatRequest struct {
	NamaAnak     string `json:"nama_anak"`
	Usia         int    `json:"usia"`
	JenisKelamin string `json:"jeniskelamin"`
	IDAlat       string `json:"idalat"`
}

type SaveHistoryRequest struct {
	IDAlat   string `json:"idalat"`
	Duration int    `json:"duration"`
}

// MessageResponse is the plain acknowledgement body
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ValidateAlatRequest is sent by the ingestor before forwarding readings
type ValidateAlatRequest struct {
	IDAlat string `json:"idalat" binding:"required"`
}

type ValidateAlatResponse struct {
	Exists bool   `json:"exists"`
	Error  string `json:"error,omitempty"`
}

// CreateReadingRequest carries one ingested reading. UpdatedAt defaults to
// the time the API received it. A repeated ReadingID is accepted once.
type CreateReadingRequest struct {
	ReadingID string                 `json:"reading_id,omitempty"`
	IDAlat    string                 `json:"idalat" binding:"required"`
	UpdatedAt *time.Time             `json:"updated_at,omitempty"`
	Topic     string                 `json:"topic,omitempty"`
	Payload   map[string]interface{} `json:"payload" binding:"required"`
}

type CreateReadingResponse struct {
	Success   bool   `json:"success"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Error     string `json:"error,omitempty"`
}
