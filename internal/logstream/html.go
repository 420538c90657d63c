package logstream

import (
	"fmt"
	"html"
	"strings"
)

// HTML renders the block as a dashboard log element. Progress blocks carry a
// data-bar attribute so the page script can patch an existing bar in place
// instead of appending.
func (b Block) HTML() string {
	var sb strings.Builder

	if b.Kind == BlockProgress {
		attr := ""
		if b.InPlace {
			attr = ` data-update="1"`
		}
		fmt.Fprintf(&sb, `<div class="blk blk-progress" data-bar=%q%s>`, b.BarKey, attr)
		if b.Title != "" {
			fmt.Fprintf(&sb, `<span class="title">%s</span>`, html.EscapeString(b.Title))
		}
		// the live page patches bars via `[data-bar] i`; backlog markup
		// must use the same element or updates append duplicates
		fmt.Fprintf(&sb, `<span class="bar"><i style="width:%d%%"></i></span><span class="pct">%d%%</span>`, b.Percent, b.Percent)
		for _, p := range b.Pills {
			fmt.Fprintf(&sb, `<span class="pill pill-%s">%s %d</span>`, p.Label, html.EscapeString(p.Label), p.Count)
		}
		sb.WriteString(`</div>`)
		return sb.String()
	}

	fmt.Fprintf(&sb, `<div class="blk blk-%s">`, b.Kind)
	if b.Icon != "" {
		fmt.Fprintf(&sb, `<span class="icon">%s</span>`, b.Icon)
	}
	fmt.Fprintf(&sb, `<span class="title">%s</span>`, html.EscapeString(b.Title))
	if b.Meta != "" {
		fmt.Fprintf(&sb, `<span class="meta">%s</span>`, html.EscapeString(b.Meta))
	}
	sb.WriteString(`</div>`)
	return sb.String()
}
