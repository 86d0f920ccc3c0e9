package types

import (
	"fmt"

	"go.uber.org/multierr"
)

const (
	MinTimeLimit   = 15
	MaxTimeLimit   = 240
	MinPlayerLimit = 2
	MaxPlayerLimit = 12
	MaxTotalRounds = 6
)

// Settings is the body of POST /rooms/create and the OPTIONS payload.
type Settings struct {
	PlayerLimit    int      `json:"playerLimit"`
	TotalRounds    int      `json:"totalRounds"`
	TimeLimitSecs  int      `json:"timeLimitSecs"`
	CustomWordBank []string `json:"customWordBank"`
	IsPublic       bool     `json:"isPublic"`
}

// WithDefaults fills zero fields the same way the server does.
func (s Settings) WithDefaults() Settings {
	if s.PlayerLimit == 0 {
		s.PlayerLimit = 8
	}
	if s.TimeLimitSecs == 0 {
		s.TimeLimitSecs = 45
	}
	if s.TotalRounds == 0 {
		s.TotalRounds = 3
	}
	if s.CustomWordBank == nil {
		s.CustomWordBank = []string{}
	}
	return s
}

// Validate reports every violated limit, not just the first.
func (s Settings) Validate() error {
	var err error
	if s.TimeLimitSecs < MinTimeLimit || s.TimeLimitSecs > MaxTimeLimit {
		err = multierr.Append(err, fmt.Errorf("time limit must be between %d and %d seconds", MinTimeLimit, MaxTimeLimit))
	}
	if s.PlayerLimit < MinPlayerLimit || s.PlayerLimit > MaxPlayerLimit {
		err = multierr.Append(err, fmt.Errorf("games can only contain between %d and %d players", MinPlayerLimit, MaxPlayerLimit))
	}
	if s.TotalRounds < 0 || s.TotalRounds > MaxTotalRounds {
		err = multierr.Append(err, fmt.Errorf("games can only have between 0 and %d rounds", MaxTotalRounds))
	}
	return err
}

type CreateRoomResp struct {
	Code     string   `json:"code"`
	Settings Settings `json:"settings"`
}

type ErrorResp struct {
	Status    int    `json:"status"`
	ErrorDesc string `json:"errorDesc"`
}
