package logstream

import (
	"fmt"
	"regexp"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/dustin/go-humanize"
)

const (
	// lines swallowed after a suppressed list header
	squelchLookahead = 8
)

// suppressedHeaders are noisy multi-line list headers; the header and its
// indented continuation lines are swallowed.
var suppressedHeaders = mapset.NewSet(
	"providers:",
	"features:",
)

// suppressedLines are known noisy single lines dropped outright.
var suppressedLines = mapset.NewSet(
	"[i] connecting...",
	"[i] loading config...",
)

var totalsRe = regexp.MustCompile(`^\[i\] Done\. Total added: (\d+), Total removed: (\d+)`)

type bar struct {
	key      string
	done     int
	total    int
	percent  int
	finished bool
	armed    bool
}

// Renderer converts raw stream chunks into Blocks. It owns the scanner
// buffer, the in-place progress bar registry, and the per-pair two-way
// tallies. Feeding the same complete stream in any chunking yields the same
// block sequence.
type Renderer struct {
	scanner Scanner

	bars     map[string]*bar
	barOrder []string // creation order, keeps emitted updates deterministic

	// two-way direction tallies, reset on every run:pair. Accumulated from
	// *:done events only so re-rendered progress ticks never double-count.
	addCounts    map[string]int
	removeCounts map[string]int

	squelchPlain int
}

// NewRenderer creates an empty Renderer.
func NewRenderer() *Renderer {
	return &Renderer{
		bars:         make(map[string]*bar),
		addCounts:    make(map[string]int),
		removeCounts: make(map[string]int),
	}
}

// Pending returns the unconsumed scanner buffer (incomplete trailing data).
func (r *Renderer) Pending() string {
	return r.scanner.Pending()
}

// Counts returns copies of the current two-way direction tallies.
func (r *Renderer) Counts() (add, remove map[string]int) {
	add = make(map[string]int, len(r.addCounts))
	remove = make(map[string]int, len(r.removeCounts))
	for k, v := range r.addCounts {
		add[k] = v
	}
	for k, v := range r.removeCounts {
		remove[k] = v
	}
	return add, remove
}

// Feed consumes one stream chunk and returns the blocks it completes.
func (r *Renderer) Feed(chunk string) []Block {
	var out []Block
	for _, tok := range r.scanner.Feed(chunk) {
		out = append(out, r.finishArmedBars()...)
		out = append(out, r.renderToken(tok)...)
	}
	return out
}

// Flush renders any trailing plain text still buffered. Truncated JSON is
// dropped unrendered.
func (r *Renderer) Flush() []Block {
	var out []Block
	for _, tok := range r.scanner.Flush() {
		out = append(out, r.finishArmedBars()...)
		out = append(out, r.renderToken(tok)...)
	}
	return out
}

func (r *Renderer) renderToken(tok Token) []Block {
	if tok.Kind == TokenJSON {
		ev, err := ParseEvent([]byte(tok.Raw))
		if err != nil {
			// malformed JSON that still looks like JSON: drop the fragment
			return nil
		}
		return r.renderEvent(ev)
	}
	return r.renderLine(tok.Raw)
}

func (r *Renderer) renderEvent(ev *Event) []Block {
	switch ev.Type {
	case EventRunStart:
		p := ev.Payload.(RunStart)
		meta := ""
		if p.DryRun {
			meta = "dry run"
		}
		return []Block{{Kind: BlockStart, Icon: "⚡", Title: "Sync started", Meta: meta}}

	case EventRunPair:
		p := ev.Payload.(RunPair)
		r.resetPairTallies()
		r.armAllBars()
		return []Block{{
			Kind:  BlockPair,
			Icon:  "\U0001f517",
			Title: fmt.Sprintf("Pair %d/%d: %s → %s", p.Index, p.Total, p.Src, p.Dst),
			Meta:  fmt.Sprintf("%s · %s", p.Feature, p.Mode),
		}}

	case EventTwoPlan:
		p := ev.Payload.(TwoPlan)
		return []Block{{
			Kind:  BlockPlan,
			Icon:  "\U0001f4cb",
			Title: fmt.Sprintf("Plan: %s", p.Feature),
			Meta: fmt.Sprintf("add %s/%s · remove %s/%s",
				humanize.Comma(int64(p.AddToA)), humanize.Comma(int64(p.AddToB)),
				humanize.Comma(int64(p.RemFrom)), humanize.Comma(int64(p.RemTo))),
		}}

	case EventTwoApplyDone:
		p := ev.Payload.(TwoApplyDone)
		kind, icon, verb := BlockAdd, "➕", "Add"
		if p.Op == OpRemove {
			kind, icon, verb = BlockRemove, "➖", "Remove"
			r.removeCounts[p.Who] += p.Count
		} else {
			r.addCounts[p.Who] += p.Count
		}
		return []Block{{
			Kind:  kind,
			Icon:  icon,
			Title: fmt.Sprintf("%s %s → %s", verb, humanize.Comma(int64(p.Count)), p.Who),
		}}

	case EventTwoDone:
		p := ev.Payload.(TwoDone)
		r.armAllBars()
		var parts []string
		for who, n := range r.addCounts {
			parts = append(parts, fmt.Sprintf("+%d %s", n, who))
		}
		for who, n := range r.removeCounts {
			parts = append(parts, fmt.Sprintf("-%d %s", n, who))
		}
		return []Block{{
			Kind:  BlockDone,
			Icon:  "✔",
			Title: fmt.Sprintf("Two-way done: %s", p.Feature),
			Meta:  strings.Join(parts, " · "),
		}}

	case EventRunDone:
		p := ev.Payload.(RunDone)
		r.armAllBars()
		meta := ""
		if p.ExitCode != 0 {
			meta = fmt.Sprintf("exit code %d", p.ExitCode)
		}
		return []Block{{Kind: BlockComplete, Icon: "\U0001f3c1", Title: "Sync complete", Meta: meta}}

	case EventSnapshotProgress:
		p := ev.Payload.(SnapshotProgress)
		key := barKey("snapshot", p.Dst, p.Feature, "")
		return r.updateBar(key, fmt.Sprintf("Snapshot %s · %s", p.Dst, p.Feature), p.Done, p.Total, nil)

	case EventApplyStart:
		p := ev.Payload.(Apply)
		key := barKey("apply", p.Dst, p.Feature, p.Op.String())
		return r.updateBar(key, applyTitle(p), 0, p.Total, nil)

	case EventApplyProgress:
		p := ev.Payload.(Apply)
		key := barKey("apply", p.Dst, p.Feature, p.Op.String())
		return r.updateBar(key, applyTitle(p), p.Done, p.Total, nil)

	case EventApplyDone:
		p := ev.Payload.(Apply)
		key := barKey("apply", p.Dst, p.Feature, p.Op.String())
		pills := resultPills(p.Result)
		return r.finishBar(key, applyTitle(p), pills)

	case EventDebug:
		p := ev.Payload.(Debug)
		if p.Msg == "" {
			return nil
		}
		return []Block{{Kind: BlockDebug, Title: p.Msg}}
	}

	// unknown events render nothing
	return nil
}

func (r *Renderer) renderLine(line string) []Block {
	trimmed := strings.TrimSpace(line)

	if r.squelchPlain > 0 && isContinuationLine(line) {
		r.squelchPlain--
		return nil
	}
	r.squelchPlain = 0

	// broken JSON fragment masquerading as text
	if strings.HasPrefix(trimmed, "{") {
		return nil
	}

	if m := totalsRe.FindStringSubmatch(trimmed); m != nil {
		return []Block{{
			Kind:  BlockSummary,
			Icon:  "✔",
			Title: "Totals",
			Meta:  fmt.Sprintf("added %s · removed %s", m[1], m[2]),
		}}
	}

	lower := strings.ToLower(trimmed)
	if suppressedHeaders.Contains(lower) {
		r.squelchPlain = squelchLookahead
		return nil
	}
	if suppressedLines.Contains(lower) || trimmed == "" {
		return nil
	}

	return []Block{{Kind: BlockText, Title: line}}
}

// isContinuationLine recognizes the indented/bulleted continuation lines that
// follow a suppressed list header.
func isContinuationLine(line string) bool {
	if line == "" {
		return false
	}
	if line[0] == ' ' || line[0] == '\t' {
		return true
	}
	return strings.HasPrefix(line, "- ")
}

func (r *Renderer) resetPairTallies() {
	r.addCounts = make(map[string]int)
	r.removeCounts = make(map[string]int)
}

// armAllBars marks unfinished bars so that the next rendered line snaps them
// to 100%. Covers bars whose final progress tick arrived but whose explicit
// completion event never did.
func (r *Renderer) armAllBars() {
	for _, b := range r.bars {
		if !b.finished {
			b.armed = true
		}
	}
}

func (r *Renderer) finishArmedBars() []Block {
	var out []Block
	for _, key := range r.barOrder {
		b := r.bars[key]
		if b.armed && !b.finished {
			b.finished = true
			b.armed = false
			b.percent = 100
			out = append(out, Block{
				Kind:    BlockProgress,
				BarKey:  b.key,
				Percent: 100,
				InPlace: true,
			})
		}
	}
	return out
}

// updateBar creates the bar on first sight and mutates it in place after
// that. done >= total freezes the bar at 100%.
func (r *Renderer) updateBar(key, title string, done, total int, pills []Pill) []Block {
	b, ok := r.bars[key]
	if !ok {
		b = &bar{key: key}
		r.bars[key] = b
		r.barOrder = append(r.barOrder, key)
	}
	if b.finished {
		return nil
	}

	if total > 0 {
		b.total = total
	}
	if done > b.done {
		b.done = done
	}

	p := percent(b.done, b.total)
	if p > b.percent {
		b.percent = p
	}

	blk := Block{
		Kind:    BlockProgress,
		Title:   title,
		BarKey:  key,
		Percent: b.percent,
		InPlace: ok,
		Pills:   pills,
	}

	if b.total > 0 && b.done >= b.total {
		b.finished = true
		b.percent = 100
		blk.Percent = 100
	}
	return []Block{blk}
}

// finishBar freezes the bar at 100% and attaches the outcome pills.
func (r *Renderer) finishBar(key, title string, pills []Pill) []Block {
	b, ok := r.bars[key]
	if !ok {
		b = &bar{key: key}
		r.bars[key] = b
		r.barOrder = append(r.barOrder, key)
	}
	alreadyDone := b.finished
	b.finished = true
	b.armed = false
	b.percent = 100
	if alreadyDone && len(pills) == 0 {
		return nil
	}
	return []Block{{
		Kind:    BlockProgress,
		Title:   title,
		BarKey:  key,
		Percent: 100,
		InPlace: ok,
		Pills:   pills,
	}}
}

func applyTitle(p Apply) string {
	verb := "Adding to"
	if p.Op == OpRemove {
		verb = "Removing from"
	}
	title := fmt.Sprintf("%s %s · %s", verb, p.Dst, p.Feature)
	if p.Action != "" {
		title += " · " + p.Action
	}
	return title
}

func resultPills(res ApplyResult) []Pill {
	all := []Pill{
		{Label: "attempted", Count: res.Attempted},
		{Label: "confirmed", Count: res.Confirmed},
		{Label: "skipped", Count: res.Skipped},
		{Label: "unresolved", Count: res.Unresolved},
		{Label: "errored", Count: res.Errored},
	}
	pills := all[:0]
	for _, p := range all {
		if p.Count > 0 {
			pills = append(pills, p)
		}
	}
	if len(pills) == 0 {
		return nil
	}
	return pills
}

func barKey(mode, dst, feature, action string) string {
	if action == "" {
		return mode + "|" + dst + "|" + feature
	}
	return mode + "|" + dst + "|" + feature + "|" + action
}

func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	p := done * 100 / total
	if p > 100 {
		p = 100
	}
	if p < 0 {
		p = 0
	}
	return p
}
