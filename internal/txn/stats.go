package txn

import (
	"math"
	"slices"

	"github.com/qserver-tools/qdiag/utils"
)

// groupBy buckets transactions by an arbitrary key. The key function returns
// false to exclude a transaction from every bucket.
func groupBy[K comparable](txns []*Transaction, key func(*Transaction) (K, bool)) map[K][]*Transaction {
	groups := make(map[K][]*Transaction)
	for _, t := range txns {
		k, ok := key(t)
		if !ok {
			continue
		}
		groups[k] = append(groups[k], t)
	}
	return groups
}

func GroupByKind(txns []*Transaction) map[string][]*Transaction {
	return groupBy(txns, func(t *Transaction) (string, bool) {
		return t.Kind, true
	})
}

func GroupByThread(txns []*Transaction) map[string][]*Transaction {
	return groupBy(txns, func(t *Transaction) (string, bool) {
		return t.Thread, t.Thread != ""
	})
}

func GroupByHour(txns []*Transaction) map[int][]*Transaction {
	return groupBy(txns, func(t *Transaction) (int, bool) {
		return t.StartTime.Hour(), !t.StartTime.IsZero()
	})
}

func GroupByAction(txns []*Transaction) map[string][]*Transaction {
	return groupBy(txns, func(t *Transaction) (string, bool) {
		return t.Action, t.Action != ""
	})
}

// summarize computes mean/min/max/total/stddev for one extracted metric.
// An empty group yields all zeros.
func summarize(txns []*Transaction, metric func(*Transaction) float64) MetricStats {
	if len(txns) == 0 {
		return MetricStats{}
	}
	values := make([]float64, len(txns))
	stats := MetricStats{Min: math.Inf(1), Max: math.Inf(-1)}
	for i, t := range txns {
		v := metric(t)
		values[i] = v
		stats.Total += v
		stats.Min = math.Min(stats.Min, v)
		stats.Max = math.Max(stats.Max, v)
	}
	variance, mean := utils.CalculateVarianceWithMean(values)
	stats.Mean = mean
	stats.StdDev = math.Sqrt(variance)
	return stats
}

// CalculateStats computes the timing statistics for one group.
func CalculateStats(txns []*Transaction) *AggregateStats {
	stats := &AggregateStats{
		Count:              len(txns),
		Length:             summarize(txns, func(t *Transaction) float64 { return t.Length }),
		Waiting:            summarize(txns, func(t *Transaction) float64 { return t.WaitingTime }),
		Proc:               summarize(txns, func(t *Transaction) float64 { return t.ProcTime }),
		Func:               summarize(txns, func(t *Transaction) float64 { return t.FuncTime }),
		Db:                 summarize(txns, func(t *Transaction) float64 { return t.DbTime }),
		Stream:             summarize(txns, func(t *Transaction) float64 { return t.StreamTime }),
		DominantComponents: make(map[string]int),
	}

	if stats.Length.Mean > 0 {
		stats.WaitingTimePercentage = stats.Waiting.Mean / stats.Length.Mean * 100
	}

	for _, t := range txns {
		stats.DominantComponents[t.DominantComponent()]++
	}

	return stats
}

// statsPerGroup maps CalculateStats over grouped transactions.
func statsPerGroup[K comparable](groups map[K][]*Transaction) map[K]*AggregateStats {
	stats := make(map[K]*AggregateStats, len(groups))
	for k, txns := range groups {
		stats[k] = CalculateStats(txns)
	}
	return stats
}

// StatsByKind computes per-kind statistics over finished transactions.
func (l *TransactionLog) StatsByKind() map[string]*AggregateStats {
	return statsPerGroup(GroupByKind(l.Finished()))
}

// StatsByThread computes per-thread statistics over finished transactions
// that carry a thread name.
func (l *TransactionLog) StatsByThread() map[string]*AggregateStats {
	return statsPerGroup(GroupByThread(l.Finished()))
}

// StatsByHour computes per-hour-of-day statistics over finished transactions
// that carry a start time.
func (l *TransactionLog) StatsByHour() map[int]*AggregateStats {
	return statsPerGroup(GroupByHour(l.Finished()))
}

// StatsByAction computes per-action statistics over finished transactions
// that carry an action element name.
func (l *TransactionLog) StatsByAction() map[string]*AggregateStats {
	return statsPerGroup(GroupByAction(l.Finished()))
}

// percentileThreshold picks the value at rank ceil(p/100*n)-1 of the sorted
// inputs, clamped into the valid index range. Returns 0 for empty input.
func percentileThreshold(values []float64, percentile float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	index := int(math.Ceil(percentile/100*float64(len(sorted)))) - 1
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
