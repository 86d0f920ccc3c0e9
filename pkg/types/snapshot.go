package types

// StateMsg (STATE) has the shape:
//
//	currRound: number
//	players: Player[]               // present players, join order
//	scoreBoard: { [playerId]: { points: number } }
//	chatLog: ChatMsg[]
//	stage: 0 lobby | 1 playing | 2 post
//	turn: { currWord, currPlayer: Player|null, canvas: base64 stroke blob }
//
// Sent on join and on authoritative resync. Supersedes all local state.
type StateMsg struct {
	CurrRound  int              `json:"currRound"`
	Players    []Player         `json:"players"`
	ScoreBoard map[string]Score `json:"scoreBoard"`
	ChatLog    []ChatMsg        `json:"chatLog"`
	Stage      int              `json:"stage"`
	Turn       Turn             `json:"turn"`
}

type Turn struct {
	CurrWord   string  `json:"currWord"`
	CurrPlayer *Player `json:"currPlayer"`
	Canvas     string  `json:"canvas"`
}

type Score struct {
	Points int `json:"points"`
}
