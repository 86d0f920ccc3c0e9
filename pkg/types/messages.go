package types

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Code selects the payload schema of an envelope. The values are shared with
// the room server and must not be renumbered.
type Code int

const (
	OptionsCode Code = iota
	StartCode
	TextCode
	DrawCode
	ChatCode
	FinishCode
	BeginCode
	JoinCode
	LeaveCode
	TimeoutCode
	SaveCode
	StateCode
)

var codeNames = [...]string{
	OptionsCode: "OPTIONS",
	StartCode:   "START",
	TextCode:    "TEXT",
	DrawCode:    "DRAW",
	ChatCode:    "CHAT",
	FinishCode:  "FINISH",
	BeginCode:   "BEGIN",
	JoinCode:    "JOIN",
	LeaveCode:   "LEAVE",
	TimeoutCode: "TIMEOUT",
	SaveCode:    "SAVE",
	StateCode:   "STATE",
}

func (c Code) String() string {
	if c >= 0 && int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

const (
	MinChatLen = 5
	MaxChatLen = 50
)

var ErrChatLength = fmt.Errorf("chat text must be between %d and %d characters", MinChatLen, MaxChatLen)

type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (p Player) String() string { return p.Name }

// PlayerMsg is carried by JOIN and LEAVE. PlayerIndex keeps the roster order
// identical on every client.
type PlayerMsg struct {
	PlayerIndex int    `json:"playerIndex"`
	Player      Player `json:"player"`
}

// Stamp is one drawing sample. Color and Radius index the client palettes.
type Stamp struct {
	Color     uint8  `json:"color"`
	Radius    uint8  `json:"radius"`
	X         uint16 `json:"x"`
	Y         uint16 `json:"y"`
	Connected bool   `json:"connected"`
}

// TextMsg is a guess or chat line submitted by the client.
type TextMsg struct {
	Text string `json:"text"`
}

// NewTextMsg normalizes text and applies the server's length limits so a
// message that would be rejected is never sent.
func NewTextMsg(text string) (TextMsg, error) {
	text = strings.TrimSpace(norm.NFC.String(text))
	n := utf8.RuneCountInString(text)
	if n < MinChatLen || n > MaxChatLen {
		return TextMsg{}, ErrChatLength
	}
	return TextMsg{Text: text}, nil
}

// ChatMsg is broadcast by the server. A nonzero GuessPointsInc marks a correct
// guess, in which case Text is withheld.
type ChatMsg struct {
	Player         Player `json:"player"`
	Text           string `json:"text"`
	GuessPointsInc int    `json:"guessPointsInc"`
}

func (c ChatMsg) IsGuess() bool { return c.GuessPointsInc > 0 }

type BeginMsg struct {
	NextWord        string `json:"nextWord"`
	NextPlayerIndex int    `json:"nextPlayerIndex"`
}

// FinishMsg ends a turn. BeginMsg is nil when the game is over.
type FinishMsg struct {
	BeginMsg     *BeginMsg `json:"beginMsg"`
	DrawScoreInc int       `json:"drawScoreInc"`
}

// StartMsg is sent empty by the host to start the game; the server answers
// on the same code with the first turn.
type StartMsg BeginMsg

type OptionsMsg Settings

type SaveMsg struct{}

type TimeoutMsg struct{}
