package txn

import (
	"sort"
	"time"

	"github.com/qserver-tools/qdiag/utils"
)

// BlockingKinds treats the high-wait outliers at the given percentile as
// victims and tallies, per kind, how many times another finished
// transaction's execution window strictly contained a victim's start.
// Results are sorted descending by count with lexicographic tie-break.
func (l *TransactionLog) BlockingKinds(percentile float64) []KindTotal {
	finished := l.Finished()
	victims := l.HighWaiting(percentile)

	counts := make(map[string]int)
	for _, v := range victims {
		if v.StartTime.IsZero() {
			continue
		}
		for _, r := range finished {
			if r.ID == v.ID || !r.HasWindow() {
				continue
			}
			if r.StartTime.Before(v.StartTime) && v.StartTime.Before(r.End()) {
				counts[r.Kind]++
			}
		}
	}

	blocking := make([]KindTotal, 0, len(counts))
	for kind, count := range counts {
		blocking = append(blocking, KindTotal{Kind: kind, Total: float64(count)})
	}
	sort.Slice(blocking, func(i, j int) bool {
		if blocking[i].Total != blocking[j].Total {
			return blocking[i].Total > blocking[j].Total
		}
		return blocking[i].Kind < blocking[j].Kind
	})
	return blocking
}

// MostBlockingKind names the kind most often found running while high-wait
// victims started, or "" when no blocker was observed.
func (l *TransactionLog) MostBlockingKind(percentile float64) string {
	blocking := l.BlockingKinds(percentile)
	if len(blocking) == 0 {
		return ""
	}
	return blocking[0].Kind
}

// CausingWaits scans transactions in descending processing-time order and,
// for each, counts the waiting transactions whose start falls strictly
// inside its execution window. Results are annotations; the scanned
// transactions themselves are left untouched. The scan stops once limit
// qualifying blockers have been collected, keeping first-found order.
func (l *TransactionLog) CausingWaits(limit int) []WaitAnnotation {
	finished := l.Finished()

	ranked := topBy(finished, 0, func(t *Transaction) float64 { return t.ProcTime })

	var annotations []WaitAnnotation
	for _, blocker := range ranked {
		if limit > 0 && len(annotations) >= limit {
			break
		}
		if !blocker.HasWindow() {
			continue
		}
		start, end := blocker.StartTime, blocker.End()

		count := 0
		var totalWait float64
		for _, other := range finished {
			if other == blocker || other.WaitingTime <= 0 {
				continue
			}
			if other.StartTime.After(start) && other.StartTime.Before(end) {
				count++
				totalWait += other.WaitingTime
			}
		}
		if count > 0 {
			annotations = append(annotations, WaitAnnotation{
				Txn:           blocker,
				WaitCount:     count,
				TotalWaitTime: totalWait,
			})
		}
	}
	return annotations
}

// MaxConcurrent sweeps start and end events over finished transactions and
// returns the peak number of simultaneously running transactions. At equal
// timestamps starts count before ends, so touching intervals overlap.
func (l *TransactionLog) MaxConcurrent() int {
	type event struct {
		at    time.Time
		delta int
	}

	var events []event
	for _, t := range l.Finished() {
		if !t.HasWindow() {
			continue
		}
		events = append(events, event{t.StartTime, +1}, event{t.End(), -1})
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].at.Equal(events[j].at) {
			return events[i].at.Before(events[j].at)
		}
		return events[i].delta > events[j].delta
	})

	current, peak := 0, 0
	for _, e := range events {
		current += e.delta
		if current > peak {
			peak = current
		}
	}
	return peak
}

// ActiveThreadCount is the number of distinct thread names across finished
// transactions.
func (l *TransactionLog) ActiveThreadCount() int {
	threads := make(map[string]bool)
	for _, t := range l.Finished() {
		if t.Thread != "" {
			threads[t.Thread] = true
		}
	}
	return len(threads)
}

// WaitToProcessingRatio is total waiting time over total processing time
// across finished transactions, 0 when nothing was processed.
func (l *TransactionLog) WaitToProcessingRatio() float64 {
	var wait, proc float64
	for _, t := range l.Finished() {
		wait += t.WaitingTime
		proc += t.ProcTime
	}
	if proc <= 0 {
		return 0
	}
	return wait / proc
}

// ResourceUtilization sums each time component across finished transactions,
// in fixed component order.
func (l *TransactionLog) ResourceUtilization() []ComponentTotal {
	totals := make([]ComponentTotal, len(timeComponents))
	for i, name := range timeComponents {
		totals[i].Component = name
	}
	for _, t := range l.Finished() {
		for i, name := range timeComponents {
			totals[i].Total += t.componentValue(name)
		}
	}
	return totals
}

// MinuteSeries buckets finished transactions by start minute and returns the
// buckets in chronological order. Transactions without a start time are
// skipped.
func (l *TransactionLog) MinuteSeries() []MinutePoint {
	type bucket struct {
		count     int
		totalWait float64
	}

	buckets := make(map[time.Time]*bucket)
	for _, t := range l.Finished() {
		if t.StartTime.IsZero() {
			continue
		}
		minute := t.StartTime.Truncate(time.Minute)
		b := buckets[minute]
		if b == nil {
			b = &bucket{}
			buckets[minute] = b
		}
		b.count++
		b.totalWait += t.WaitingTime
	}

	points := make([]MinutePoint, 0, len(buckets))
	for minute, b := range buckets {
		points = append(points, MinutePoint{
			Minute:   minute,
			Count:    b.count,
			MeanWait: b.totalWait / float64(b.count),
		})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Minute.Before(points[j].Minute)
	})
	return points
}

// CountWaitCorrelation is the Pearson correlation between per-minute
// transaction counts and per-minute mean waits. A strong positive value
// suggests load-driven contention such as an undersized thread pool.
func (l *TransactionLog) CountWaitCorrelation() float64 {
	points := l.MinuteSeries()
	counts := make([]float64, len(points))
	waits := make([]float64, len(points))
	for i, p := range points {
		counts[i] = float64(p.Count)
		waits[i] = p.MeanWait
	}
	return utils.PearsonCorrelation(counts, waits)
}
