package ws

// Event kinds accepted from clients.
const (
	TypeRegister         = "register"         // {userId, interests, isAdmin}
	TypeSendMessage      = "sendMessage"      // {text}
	TypeTyping           = "typing"           // no payload
	TypeStopTyping       = "stopTyping"       // no payload
	TypeManualDisconnect = "manualDisconnect" // no payload
)

// Message is the wire envelope, both directions.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type RegisterPayload struct {
	UserID    string   `json:"userId"`
	Interests []string `json:"interests"`
	IsAdmin   bool     `json:"isAdmin"`
}

type SendMessagePayload struct {
	Text string `json:"text"`
}

// DuplicateIdentityNotice is the error event text for a rejected register.
const DuplicateIdentityNotice = "User ID already exists. Please choose another one."
