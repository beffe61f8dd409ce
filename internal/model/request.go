package model

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// EmailRequest is the body of POST /api/email. Data carries template
// variables such as userName.
type EmailRequest struct {
	To      string         `json:"to"`
	Subject string         `json:"subject"`
	HTML    string         `json:"html"`
	Type    string         `json:"type"`
	Data    map[string]any `json:"data"`
}
