package logstream

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// EventType is the closed set of structured events the sync engine emits on
// its log stream. Anything outside this set is not rendered.
type EventType uint8

const (
	EventUnknown EventType = iota
	EventRunStart
	EventRunPair
	EventTwoPlan
	EventTwoDone
	EventRunDone
	EventSnapshotProgress
	EventApplyStart
	EventApplyProgress
	EventApplyDone
	EventTwoApplyDone
	EventDebug
)

func (t EventType) String() string {
	switch t {
	case EventRunStart:
		return "run:start"
	case EventRunPair:
		return "run:pair"
	case EventTwoPlan:
		return "two:plan"
	case EventTwoDone:
		return "two:done"
	case EventRunDone:
		return "run:done"
	case EventSnapshotProgress:
		return "snapshot:progress"
	case EventApplyStart:
		return "apply:start"
	case EventApplyProgress:
		return "apply:progress"
	case EventApplyDone:
		return "apply:done"
	case EventTwoApplyDone:
		return "two:apply:done"
	case EventDebug:
		return "debug"
	default:
		return fmt.Sprintf("???(%d)", t)
	}
}

// Op is the apply direction of an add/remove operation.
type Op uint8

const (
	OpNone Op = iota
	OpAdd
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	default:
		return "none"
	}
}

// Event is a decoded log event. Payload holds one of the typed payload
// structs below depending on Type.
type Event struct {
	Type    EventType
	Payload any
}

// RunStart announces a new sync run.
type RunStart struct {
	DryRun bool `json:"dry_run"`
}

// RunPair announces the pair the engine is about to process.
type RunPair struct {
	Src     string `json:"src"`
	Dst     string `json:"dst"`
	Index   int    `json:"i"`
	Total   int    `json:"n"`
	Feature string `json:"feature"`
	Mode    string `json:"mode"`
}

// TwoPlan is the planned delta for a two-way pair.
type TwoPlan struct {
	Feature string `json:"feature"`
	AddToA  int    `json:"add_a"`
	AddToB  int    `json:"add_b"`
	RemFrom int    `json:"rem_a"`
	RemTo   int    `json:"rem_b"`
}

// TwoDone closes out a two-way pair.
type TwoDone struct {
	Feature string `json:"feature"`
}

// RunDone closes out the whole run.
type RunDone struct {
	ExitCode int  `json:"exit_code"`
	DryRun   bool `json:"dry_run"`
}

// SnapshotProgress reports snapshot capture progress for one destination.
type SnapshotProgress struct {
	Dst     string `json:"dst"`
	Feature string `json:"feature"`
	Done    int    `json:"done"`
	Total   int    `json:"total"`
}

// ApplyResult carries the per-operation outcome pills.
type ApplyResult struct {
	Attempted  int `json:"attempted"`
	Confirmed  int `json:"confirmed"`
	Skipped    int `json:"skipped"`
	Unresolved int `json:"unresolved"`
	Errored    int `json:"errored"`
}

// Apply is the payload shared by apply:{add,remove}:{start,progress,done}.
type Apply struct {
	Op      Op
	Phase   string // start, progress, done
	Dst     string `json:"dst"`
	Feature string `json:"feature"`
	Action  string `json:"action"`
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Count   int    `json:"count"`
	Result  ApplyResult
}

// TwoApplyDone is a two-way per-direction tally event
// (two:apply:<op>:<who>:done).
type TwoApplyDone struct {
	Op    Op
	Who   string
	Count int `json:"count"`
}

// Debug is a passthrough diagnostic line from the engine.
type Debug struct {
	Msg string `json:"msg"`
}

// ParseEvent decodes a complete JSON token into a typed Event. Events whose
// name is not part of the closed set decode to Type == EventUnknown with a
// nil payload; callers render nothing for those.
func ParseEvent(data []byte) (*Event, error) {
	var head struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("logstream: decode event: %w", err)
	}
	if head.Event == "" {
		return nil, fmt.Errorf("logstream: missing event discriminant")
	}

	ev := &Event{}
	switch head.Event {
	case "run:start":
		var p RunStart
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		ev.Type, ev.Payload = EventRunStart, p
	case "run:pair":
		var p RunPair
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		ev.Type, ev.Payload = EventRunPair, p
	case "two:plan":
		var p TwoPlan
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		ev.Type, ev.Payload = EventTwoPlan, p
	case "two:done":
		var p TwoDone
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		ev.Type, ev.Payload = EventTwoDone, p
	case "run:done":
		var p RunDone
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		ev.Type, ev.Payload = EventRunDone, p
	case "snapshot:progress":
		var p SnapshotProgress
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		ev.Type, ev.Payload = EventSnapshotProgress, p
	case "debug":
		var p Debug
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		ev.Type, ev.Payload = EventDebug, p
	default:
		return parseStructuredEvent(head.Event, data)
	}
	return ev, nil
}

// parseStructuredEvent handles the event families whose name embeds fields:
// apply:<op>:<phase> and two:apply:<op>:<who>:done.
func parseStructuredEvent(name string, data []byte) (*Event, error) {
	parts := strings.Split(name, ":")

	if len(parts) == 3 && parts[0] == "apply" {
		op := parseOp(parts[1])
		if op == OpNone {
			return &Event{Type: EventUnknown}, nil
		}
		var p Apply
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &p.Result); err != nil {
			return nil, err
		}
		p.Op = op
		p.Phase = parts[2]
		switch parts[2] {
		case "start":
			return &Event{Type: EventApplyStart, Payload: p}, nil
		case "progress":
			return &Event{Type: EventApplyProgress, Payload: p}, nil
		case "done":
			return &Event{Type: EventApplyDone, Payload: p}, nil
		}
		return &Event{Type: EventUnknown}, nil
	}

	if len(parts) == 5 && parts[0] == "two" && parts[1] == "apply" && parts[4] == "done" {
		op := parseOp(parts[2])
		if op == OpNone {
			return &Event{Type: EventUnknown}, nil
		}
		var p TwoApplyDone
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		p.Op = op
		p.Who = parts[3]
		return &Event{Type: EventTwoApplyDone, Payload: p}, nil
	}

	return &Event{Type: EventUnknown}, nil
}

func parseOp(s string) Op {
	switch s {
	case "add":
		return OpAdd
	case "remove":
		return OpRemove
	default:
		return OpNone
	}
}
