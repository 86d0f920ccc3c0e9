package types

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMissingCode = errors.New("envelope has no code")
var ErrUnknownCode = errors.New("unknown envelope code")

// Envelope is the only unit exchanged over a room connection.
type Envelope struct {
	Code Code            `json:"code"`
	Msg  json.RawMessage `json:"msg"`
}

// Payload is implemented by every message struct; the code it reports is the
// envelope code its schema belongs to.
type Payload interface {
	Code() Code
}

func (OptionsMsg) Code() Code { return OptionsCode }
func (StartMsg) Code() Code   { return StartCode }
func (TextMsg) Code() Code    { return TextCode }
func (Stamp) Code() Code      { return DrawCode }
func (ChatMsg) Code() Code    { return ChatCode }
func (FinishMsg) Code() Code  { return FinishCode }
func (BeginMsg) Code() Code   { return BeginCode }
func (TimeoutMsg) Code() Code { return TimeoutCode }
func (SaveMsg) Code() Code    { return SaveCode }
func (StateMsg) Code() Code   { return StateCode }

// JoinMsg and LeaveMsg share PlayerMsg's shape but not its code.
type JoinMsg PlayerMsg
type LeaveMsg PlayerMsg

func (JoinMsg) Code() Code  { return JoinCode }
func (LeaveMsg) Code() Code { return LeaveCode }

// NewEnvelope wraps p under its own code.
func NewEnvelope(p Payload) (Envelope, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s: %w", p.Code(), err)
	}
	return Envelope{Code: p.Code(), Msg: b}, nil
}

// EncodeEnvelope serializes p as one text frame.
func EncodeEnvelope(p Payload) ([]byte, error) {
	env, err := NewEnvelope(p)
	if err != nil {
		return nil, err
	}
	return env.Marshal()
}

func (e Envelope) Marshal() ([]byte, error) {
	msg := e.Msg
	if len(msg) == 0 {
		msg = json.RawMessage("{}")
	}
	return json.Marshal(Envelope{Code: e.Code, Msg: msg})
}

// DecodeEnvelope parses one text frame. Frames without a code are rejected
// rather than defaulting to OPTIONS.
func DecodeEnvelope(frame []byte) (Envelope, error) {
	var raw struct {
		Code *Code           `json:"code"`
		Msg  json.RawMessage `json:"msg"`
	}
	if err := json.Unmarshal(frame, &raw); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if raw.Code == nil {
		return Envelope{}, ErrMissingCode
	}
	return Envelope{Code: *raw.Code, Msg: raw.Msg}, nil
}

func newPayload(c Code) (Payload, bool) {
	switch c {
	case OptionsCode:
		return &OptionsMsg{}, true
	case StartCode:
		return &StartMsg{}, true
	case TextCode:
		return &TextMsg{}, true
	case DrawCode:
		return &Stamp{}, true
	case ChatCode:
		return &ChatMsg{}, true
	case FinishCode:
		return &FinishMsg{}, true
	case BeginCode:
		return &BeginMsg{}, true
	case JoinCode:
		return &JoinMsg{}, true
	case LeaveCode:
		return &LeaveMsg{}, true
	case TimeoutCode:
		return &TimeoutMsg{}, true
	case SaveCode:
		return &SaveMsg{}, true
	case StateCode:
		return &StateMsg{}, true
	}
	return nil, false
}

// Payload decodes Msg into the struct registered for the envelope's code and
// returns it by value.
func (e Envelope) Payload() (Payload, error) {
	ptr, ok := newPayload(e.Code)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCode, int(e.Code))
	}
	if len(e.Msg) > 0 && string(e.Msg) != "null" {
		if err := json.Unmarshal(e.Msg, ptr); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", e.Code, err)
		}
	}
	return deref(ptr), nil
}

func deref(p Payload) Payload {
	switch v := p.(type) {
	case *OptionsMsg:
		return *v
	case *StartMsg:
		return *v
	case *TextMsg:
		return *v
	case *Stamp:
		return *v
	case *ChatMsg:
		return *v
	case *FinishMsg:
		return *v
	case *BeginMsg:
		return *v
	case *JoinMsg:
		return *v
	case *LeaveMsg:
		return *v
	case *TimeoutMsg:
		return *v
	case *SaveMsg:
		return *v
	case *StateMsg:
		return *v
	}
	return p
}

// DecodeAs decodes the envelope into T, failing when the envelope's code is
// not T's code.
func DecodeAs[T Payload](e Envelope) (T, error) {
	var zero T
	if e.Code != zero.Code() {
		return zero, fmt.Errorf("envelope code %s does not carry %T", e.Code, zero)
	}
	p, err := e.Payload()
	if err != nil {
		return zero, err
	}
	v, ok := p.(T)
	if !ok {
		return zero, fmt.Errorf("envelope code %s does not carry %T", e.Code, zero)
	}
	return v, nil
}
