package model

// Player identifies one account on the lobby server.
type Player struct {
	ID     int32
	Name   string
	Source PlayerSource
}

// PlayerSession is owned by the control-plane stream and replaced atomically
// on each ConnectLobbyAccept / PlayerSessionUpdate.
type PlayerSession struct {
	Player Player
	Status PlayerStatus
	GameID *int32 // nil = not currently in a game
}

// InGame reports whether the session currently names a game.
func (s PlayerSession) InGame() bool {
	return s.GameID != nil
}
