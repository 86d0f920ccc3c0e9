package ws

// Status is the connection's lifecycle position. Exactly one is current.
//
//	unopened -> opened    transport opened
//	unopened -> noexist   closed before ever opening (room refused)
//	opened   -> closed    close frame received after opening
//	any      -> error     transport failure or link dropped without a close frame
type Status int32

const (
	Unopened Status = iota
	Opened
	Closed
	Error
	NoExist
)

func (s Status) String() string {
	switch s {
	case Unopened:
		return "unopened"
	case Opened:
		return "opened"
	case Closed:
		return "closed"
	case Error:
		return "error"
	case NoExist:
		return "noexist"
	}
	return "unknown"
}

// Terminal reports whether no further transitions can follow.
func (s Status) Terminal() bool {
	return s == Closed || s == Error || s == NoExist
}

// next applies one transport event to s.
func next(s Status, ev event) Status {
	switch ev.(type) {
	case opened:
		if s == Unopened {
			return Opened
		}
	case closed:
		switch s {
		case Unopened:
			return NoExist
		case Opened:
			return Closed
		}
	case failed:
		return Error
	}
	return s
}
