package runstate

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/crosswatch/dashd/internal/cwsdk"
)

// FeatureOverall collects counts the fallback scrape cannot attribute to a
// specific feature.
const FeatureOverall cwsdk.FeatureKey = "overall"

// InsightsSource is the slice of the SDK the hydrator needs.
type InsightsSource interface {
	Get(ctx context.Context, since int64) (*cwsdk.InsightsResponse, error)
}

// Hydrator reconstructs approximate per-feature counts for a finished run
// whose summary carried none. It tries the insights event feed filtered by
// the run's start timestamp first, then falls back to scraping the rendered
// log text. Both are best-effort and lossy; the result exists so the panel
// is not blank, not as an accounting source.
type Hydrator struct {
	Insights InsightsSource
	// LogText returns the currently rendered log text, if any.
	LogText func() string
}

var (
	totalsLineRe = regexp.MustCompile(`Total added: (\d+), Total removed: (\d+)`)
	totalsMetaRe = regexp.MustCompile(`added (\d+) \x{00b7} removed (\d+)`)
)

// Hydrate fills run.Features in place when possible and returns true when
// anything was reconstructed.
func (h *Hydrator) Hydrate(ctx context.Context, run *FinishedRun) bool {
	if feats := h.fromInsights(ctx, run.StartedTS); len(feats) > 0 {
		run.Features = feats
		return true
	}
	if feats := h.fromLogText(); len(feats) > 0 {
		run.Features = feats
		return true
	}
	return false
}

func (h *Hydrator) fromInsights(ctx context.Context, since int64) map[cwsdk.FeatureKey]cwsdk.FeatureStats {
	if h.Insights == nil {
		return nil
	}
	resp, err := h.Insights.Get(ctx, since)
	if err != nil {
		slog.Debug("hydrate: insights fetch failed", "error", err)
		return nil
	}

	feats := make(map[cwsdk.FeatureKey]cwsdk.FeatureStats)
	for _, ev := range resp.Events {
		if since > 0 && ev.TS < since {
			continue
		}
		f := feats[ev.Feature]
		switch ev.Action {
		case "add":
			f.Added++
		case "remove":
			f.Removed++
		case "update":
			f.Updated++
		default:
			continue
		}
		feats[ev.Feature] = f
	}
	if len(feats) == 0 {
		return nil
	}
	return feats
}

// fromLogText greps the on-screen log for totals lines. Unattributable by
// feature, so everything lands under FeatureOverall.
func (h *Hydrator) fromLogText() map[cwsdk.FeatureKey]cwsdk.FeatureStats {
	if h.LogText == nil {
		return nil
	}
	text := h.LogText()
	if text == "" {
		return nil
	}

	m := totalsLineRe.FindStringSubmatch(text)
	if m == nil {
		m = totalsMetaRe.FindStringSubmatch(text)
	}
	if m == nil {
		return nil
	}

	added, _ := strconv.Atoi(m[1])
	removed, _ := strconv.Atoi(m[2])
	if added == 0 && removed == 0 {
		return nil
	}
	return map[cwsdk.FeatureKey]cwsdk.FeatureStats{
		FeatureOverall: {Added: added, Removed: removed},
	}
}
