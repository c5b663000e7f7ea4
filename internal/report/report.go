package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/voxmend/voxmend/internal/core/domain"
)

// BackendSummary aggregates per-backend performance over the history.
type BackendSummary struct {
	Name           string
	Recoveries     int
	Successes      int
	AvgElapsedSec  float64
	RealtimeFactor float64
	WordsPerSecond float64
}

// PerformanceReport is the rendered view over the recovery history plus
// the tracker's live stats.
type PerformanceReport struct {
	TotalRecoveries    int
	SuccessfulRecovers int
	OverallSuccessRate float64
	Backends           []BackendSummary
	RecentFailures     []Entry
	Stats              map[string]domain.BackendStat
}

// recentFailureCount caps how many failed recoveries the report lists.
const recentFailureCount = 5

// Build computes the report from log entries and a stats snapshot.
func Build(entries []Entry, stats map[string]domain.BackendStat) *PerformanceReport {
	r := &PerformanceReport{Stats: stats}
	perBackend := map[string]*BackendSummary{}

	for _, e := range entries {
		r.TotalRecoveries++
		if e.Success {
			r.SuccessfulRecovers++
			s, ok := perBackend[e.BackendUsed]
			if !ok {
				s = &BackendSummary{Name: e.BackendUsed}
				perBackend[e.BackendUsed] = s
			}
			s.Recoveries++
			s.Successes++
			s.AvgElapsedSec += e.ElapsedSec
			if e.ElapsedSec > 0 {
				// Realtime factor is transcription time over audio
				// time: below 1.0 means faster than realtime.
				if e.DurationSec > 0 {
					s.RealtimeFactor += e.ElapsedSec / e.DurationSec
				}
				s.WordsPerSecond += float64(len(strings.Fields(e.Transcript))) / e.ElapsedSec
			}
		}
	}

	// Entries are appended chronologically; walking from the tail
	// gives the most recent failures first.
	for i := len(entries) - 1; i >= 0 && len(r.RecentFailures) < recentFailureCount; i-- {
		if !entries[i].Success {
			r.RecentFailures = append(r.RecentFailures, entries[i])
		}
	}

	for _, s := range perBackend {
		n := float64(s.Recoveries)
		s.AvgElapsedSec /= n
		s.RealtimeFactor /= n
		s.WordsPerSecond /= n
		r.Backends = append(r.Backends, *s)
	}
	sort.Slice(r.Backends, func(i, j int) bool {
		return r.Backends[i].Recoveries > r.Backends[j].Recoveries
	})

	if r.TotalRecoveries > 0 {
		r.OverallSuccessRate = float64(r.SuccessfulRecovers) / float64(r.TotalRecoveries)
	}
	return r
}

// Markdown renders the report for terminals and issue trackers.
func (r *PerformanceReport) Markdown() string {
	var b strings.Builder
	b.WriteString("# Recovery Performance Report\n\n")
	fmt.Fprintf(&b, "Total recoveries: %d\n", r.TotalRecoveries)
	fmt.Fprintf(&b, "Successful: %d (%.1f%%)\n\n", r.SuccessfulRecovers, r.OverallSuccessRate*100)

	if len(r.Backends) > 0 {
		b.WriteString("## Backends\n\n")
		b.WriteString("| Backend | Recoveries | Avg Time (s) | Realtime Factor | Words/s |\n")
		b.WriteString("|---------|-----------:|-------------:|----------------:|--------:|\n")
		for _, s := range r.Backends {
			fmt.Fprintf(&b, "| %s | %d | %.2f | %.2fx | %.1f |\n",
				s.Name, s.Recoveries, s.AvgElapsedSec, s.RealtimeFactor, s.WordsPerSecond)
		}
		b.WriteString("\n")
	}

	if len(r.Stats) > 0 {
		b.WriteString("## Success Rates (EMA)\n\n")
		b.WriteString("| Backend | Success Rate | Consecutive Failures |\n")
		b.WriteString("|---------|-------------:|---------------------:|\n")
		names := make([]string, 0, len(r.Stats))
		for name := range r.Stats {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			s := r.Stats[name]
			fmt.Fprintf(&b, "| %s | %.3f | %d |\n", name, s.SuccessRateEMA, s.ConsecutiveFailures)
		}
		b.WriteString("\n")
	}

	if len(r.RecentFailures) > 0 {
		b.WriteString("## Recent Failures\n\n")
		for _, e := range r.RecentFailures {
			fmt.Fprintf(&b, "- %s %s (%d attempts, %.1fs audio)",
				e.Timestamp.Format("2006-01-02 15:04:05"), e.AudioPath, e.TotalAttempts, e.DurationSec)
			if len(e.Attempts) > 0 {
				last := e.Attempts[len(e.Attempts)-1]
				if last.ErrorMessage != "" {
					fmt.Fprintf(&b, ": %s - %s", last.BackendName, last.ErrorMessage)
				}
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
