package domain

// Participant is one connected, registered client.
//
// ConnID is assigned by the transport on upgrade and is stable for the
// lifetime of the connection; Match holds the matched peer's ConnID while
// paired. The transport handle itself lives in the registry, not here, so
// participant state can be exercised without a live socket.
type Participant struct {
	ConnID    string
	UserID    string
	Interests []string
	IsAdmin   bool
	Match     string // peer's ConnID, "" while searching
}

func (p *Participant) Matched() bool { return p.Match != "" }
