package entities

// InviteUsage is a point-in-time observation of an invite's use count,
// as returned by the platform's invite listing. Order is significant:
// attribution credits the first invite, in platform order, whose count
// increased since the previous snapshot.
type InviteUsage struct {
	Code      string
	Uses      int
	InviterID int64 // 0 when the platform omits the creator
}

// Participant is a user observed reacting to a lottery message.
// Bots are excluded before any entry is computed.
type Participant struct {
	UserID int64
	IsBot  bool
}
