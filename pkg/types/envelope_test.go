package types

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestDecodeEnvelope(t *testing.T) {
	cases := []struct {
		name     string
		frame    string
		wantCode Code
		wantErr  error
		anyErr   bool
	}{
		{name: "join", frame: `{"code":7,"msg":{"playerIndex":2,"player":{"id":"a","name":"ann"}}}`, wantCode: JoinCode},
		{name: "options is zero not missing", frame: `{"code":0,"msg":{}}`, wantCode: OptionsCode},
		{name: "no msg", frame: `{"code":9}`, wantCode: TimeoutCode},
		{name: "missing code", frame: `{"msg":{}}`, wantErr: ErrMissingCode},
		{name: "not json", frame: `hello`, anyErr: true},
		{name: "code wrong type", frame: `{"code":"7"}`, anyErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, err := DecodeEnvelope([]byte(tc.frame))
			switch {
			case tc.wantErr != nil:
				require.ErrorIs(t, err, tc.wantErr)
			case tc.anyErr:
				require.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tc.wantCode, env.Code)
			}
		})
	}
}

func TestEnvelope_PayloadIsTypedByCode(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"code":7,"msg":{"playerIndex":3,"player":{"id":"p3","name":"zed"}}}`))
	require.NoError(t, err)

	p, err := env.Payload()
	require.NoError(t, err)
	join, ok := p.(JoinMsg)
	require.True(t, ok, "got %T", p)
	assert.Equal(t, 3, join.PlayerIndex)
	assert.Equal(t, Player{ID: "p3", Name: "zed"}, join.Player)

	env.Code = LeaveCode
	p, err = env.Payload()
	require.NoError(t, err)
	_, ok = p.(LeaveMsg)
	assert.True(t, ok, "same body under LEAVE must decode as LeaveMsg, got %T", p)
}

func TestEnvelope_PayloadUnknownCode(t *testing.T) {
	_, err := Envelope{Code: 42, Msg: []byte(`{}`)}.Payload()
	assert.ErrorIs(t, err, ErrUnknownCode)
}

func TestEnvelope_PayloadSchemaMismatch(t *testing.T) {
	_, err := Envelope{Code: DrawCode, Msg: []byte(`{"x":"far"}`)}.Payload()
	assert.Error(t, err)
}

func TestEncodeEnvelope_RoundTrip(t *testing.T) {
	in := Stamp{Color: 3, Radius: 2, X: 1000, Y: 65535, Connected: true}
	frame, err := EncodeEnvelope(in)
	require.NoError(t, err)
	assert.Contains(t, string(frame), `"code":3`)

	env, err := DecodeEnvelope(frame)
	require.NoError(t, err)
	out, err := DecodeAs[Stamp](env)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEnvelope_MarshalEmptyMsg(t *testing.T) {
	b, err := Envelope{Code: StartCode}.Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":1,"msg":{}}`, string(b))
}

func TestDecodeAs_WrongCode(t *testing.T) {
	env, err := NewEnvelope(ChatMsg{Text: "hello"})
	require.NoError(t, err)
	_, err = DecodeAs[Stamp](env)
	assert.Error(t, err)
}

func TestCode_String(t *testing.T) {
	assert.Equal(t, "STATE", StateCode.String())
	assert.Equal(t, "OPTIONS", OptionsCode.String())
	assert.Equal(t, "Code(99)", Code(99).String())
}

func TestNewTextMsg(t *testing.T) {
	m, err := NewTextMsg("  apple pie  ")
	require.NoError(t, err)
	assert.Equal(t, "apple pie", m.Text)

	_, err = NewTextMsg("abc")
	assert.ErrorIs(t, err, ErrChatLength)

	_, err = NewTextMsg(strings.Repeat("x", MaxChatLen+1))
	assert.ErrorIs(t, err, ErrChatLength)

	// "e" + combining acute is one rune after NFC.
	m, err = NewTextMsg("cafe\u0301s")
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9s", m.Text)
}

func TestSettings_DefaultsAndValidate(t *testing.T) {
	s := Settings{}.WithDefaults()
	assert.Equal(t, 8, s.PlayerLimit)
	assert.Equal(t, 3, s.TotalRounds)
	assert.Equal(t, 45, s.TimeLimitSecs)
	assert.NotNil(t, s.CustomWordBank)
	require.NoError(t, s.Validate())

	bad := Settings{PlayerLimit: 1, TotalRounds: 9, TimeLimitSecs: 5}
	err := bad.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3)
	assert.False(t, errors.Is(err, ErrChatLength))
}
