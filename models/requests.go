package models

// CreateSessionRequest opens a new widget session.
type CreateSessionRequest struct {
	// Online is the host's navigator.onLine at mount time; defaults to true.
	Online *bool `json:"online,omitempty"`
}

type VisibilityRequest struct {
	Trigger string `json:"trigger" binding:"required,oneof=open minimize restore close"`
}

type InputRequest struct {
	Text string `json:"text"`
}

// SubmitRequest submits Text, or the current input box when Text is empty.
// With Wait set the call returns once the bot reply is appended.
type SubmitRequest struct {
	Text string `json:"text,omitempty"`
	Wait bool   `json:"wait,omitempty"`
}

type ConnectivityRequest struct {
	Online bool `json:"online"`
}

type ActionRequest struct {
	NarrowViewport bool `json:"narrow_viewport,omitempty"`
}

// ContactRequest mirrors the contact page form.
type ContactRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	Email   string `json:"email" binding:"required,email,max=320"`
	Service string `json:"service,omitempty" binding:"max=200"`
	Message string `json:"message" binding:"required,max=5000"`
}
