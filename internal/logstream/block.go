package logstream

// BlockKind is the fixed vocabulary of rendered blocks.
type BlockKind uint8

const (
	BlockText BlockKind = iota
	BlockStart
	BlockPair
	BlockPlan
	BlockAdd
	BlockRemove
	BlockDone
	BlockComplete
	BlockProgress
	BlockSummary
	BlockDebug
)

func (k BlockKind) String() string {
	switch k {
	case BlockStart:
		return "start"
	case BlockPair:
		return "pair"
	case BlockPlan:
		return "plan"
	case BlockAdd:
		return "add"
	case BlockRemove:
		return "remove"
	case BlockDone:
		return "done"
	case BlockComplete:
		return "complete"
	case BlockProgress:
		return "progress"
	case BlockSummary:
		return "summary"
	case BlockDebug:
		return "debug"
	default:
		return "text"
	}
}

// MarshalJSON emits the kind name so stream consumers key off a stable
// vocabulary instead of iota values.
func (k BlockKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// Pill is one outcome counter chip on a finished progress block.
type Pill struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Block is one rendered visual unit. Progress blocks carry a BarKey; a block
// with InPlace set updates the bar previously created under that key instead
// of appending a new element.
type Block struct {
	Kind    BlockKind `json:"kind"`
	Icon    string    `json:"icon,omitempty"`
	Title   string    `json:"title"`
	Meta    string    `json:"meta,omitempty"`
	BarKey  string    `json:"bar_key,omitempty"`
	Percent int       `json:"percent,omitempty"`
	InPlace bool      `json:"in_place,omitempty"`
	Pills   []Pill    `json:"pills,omitempty"`
}
