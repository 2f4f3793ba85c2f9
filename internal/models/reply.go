package models

// ReplyRequest is the inbound payload for reply generation.
type ReplyRequest struct {
	EmailContent string `json:"emailContent"`
	Tone         string `json:"tone,omitempty"` // defaults to "professional"
}

// ReplyResponse is the typed result of the v1 endpoint.
type ReplyResponse struct {
	Reply string `json:"reply"`
	Tone  string `json:"tone"`
	Model string `json:"model"`
}
