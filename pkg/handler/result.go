package handler

import "go.minekube.com/worldtap/pkg/proto/wire"

// ResultKind tells the dispatcher what to send downstream.
type ResultKind uint8

const (
	// ResultForward sends the original packet unchanged.
	ResultForward ResultKind = iota
	// ResultReplace sends the replacement frame instead of the original packet.
	ResultReplace
	// ResultConsumed sends nothing.
	ResultConsumed
)

func (k ResultKind) String() string {
	switch k {
	case ResultForward:
		return "forward"
	case ResultReplace:
		return "replace"
	case ResultConsumed:
		return "consumed"
	}
	return "unknown"
}

// Result is the outcome of an Operator.
type Result struct {
	kind  ResultKind
	frame *wire.Builder
}

// Forward returns a Result that sends the original packet.
func Forward() Result { return Result{kind: ResultForward} }

// Replace returns a Result that sends frame instead of the original packet.
// A nil frame is treated like Consumed.
func Replace(frame *wire.Builder) Result {
	if frame == nil {
		return Consumed()
	}
	return Result{kind: ResultReplace, frame: frame}
}

// Consumed returns a Result that suppresses the original packet.
func Consumed() Result { return Result{kind: ResultConsumed} }

// Kind returns what the result sends.
func (r Result) Kind() ResultKind { return r.kind }

// Frame returns the replacement frame, nil unless Kind is ResultReplace.
func (r Result) Frame() *wire.Builder { return r.frame }
