package domain

// Event kinds pushed to clients. Kept with the domain types because the
// matching engine, not the transport, decides what gets emitted.
const (
	EventConnected           = "connected"               // registration accepted
	EventError               = "error"                   // registration rejected
	EventMatched             = "matched"                 // pairing formed
	EventReceiveMessage      = "receiveMessage"          // relayed chat message
	EventTyping              = "typing"                  // peer started typing
	EventStopTyping          = "stopTyping"              // peer stopped typing
	EventPartnerDisconnected = "chatPartnerDisconnected" // peer left the session
	EventOnlineUsers         = "onlineUsers"             // presence count
)

type ErrorPayload struct {
	Message string `json:"message"`
}

type MatchedPayload struct {
	UserID    string   `json:"userId"`
	Interests []string `json:"interests"`
	IsAdmin   bool     `json:"isAdmin"`
}

type ReceiveMessagePayload struct {
	Text    string `json:"text"`
	IsAdmin bool   `json:"isAdmin"`
}

type PartnerDisconnectedPayload struct {
	Message string `json:"message"`
}

type OnlineUsersPayload struct {
	OnlineUsers int `json:"online_users"`
}
