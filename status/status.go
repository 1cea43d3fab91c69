// Package status carries the single status channel the supervisor
// drains, replacing three structurally-identical sender wrappers with
// one message type tagged by originator.
package status

import "github.com/theivess/trackerd/trackererr"

// Origin identifies which actor produced a Message.
type Origin int

const (
	OriginIndexer Origin = iota
	OriginServer
	OriginDirectory
)

func (o Origin) String() string {
	switch o {
	case OriginIndexer:
		return "indexer"
	case OriginServer:
		return "server"
	case OriginDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// State is the sum of states a Message can carry.
type State int

const (
	StateDown State = iota
	StateHealthy
)

// Message is the payload every actor sends on the shared status queue.
type Message struct {
	Origin Origin
	State  State
	Err    *trackererr.Error // set when State == StateDown
	Text   string            // set when State == StateHealthy
}

// Down builds a "this actor exited" message.
func Down(origin Origin, err *trackererr.Error) Message {
	return Message{Origin: origin, State: StateDown, Err: err}
}

// Healthy builds an informational message; the supervisor only logs these.
func Healthy(origin Origin, text string) Message {
	return Message{Origin: origin, State: StateHealthy, Text: text}
}

// Sender is the narrow interface actors use to report status without
// depending on the concrete channel type, mirroring peerSet's practice
// of depending on interfaces rather than channels directly at package
// boundaries.
type Sender interface {
	Send(Message)
}

// ChanSender adapts a buffered channel to Sender. If the channel's
// buffer is exhausted, Send blocks the caller; this is the system's
// only backpressure point for crash reporting.
type ChanSender chan Message

func (c ChanSender) Send(m Message) { c <- m }
