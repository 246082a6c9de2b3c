package txn

import (
	"sort"
	"time"
)

// Leak heuristic thresholds. A source must trip at least one to be reported.
const (
	leakEfficiencyThreshold = 1000.0   // bytes per ms
	leakRetentionThreshold  = 0.8      // fraction of VM size not free
	leakGrowthThreshold     = 10000.0  // bytes per transaction
	leakEfficiencyScale     = 10000.0  // normalization cap for scoring
	leakGrowthScale         = 100000.0 // normalization cap for scoring
)

// CalculateMemoryStats computes the memory statistics for one group.
func CalculateMemoryStats(txns []*Transaction) *MemoryStats {
	return &MemoryStats{
		Count:       len(txns),
		TotalMemory: summarize(txns, func(t *Transaction) float64 { return float64(t.TotalMemory()) }),
		ProcMem:     summarize(txns, func(t *Transaction) float64 { return float64(t.ProcMem) }),
		FuncMem:     summarize(txns, func(t *Transaction) float64 { return float64(t.FuncMem) }),
		DbMem:       summarize(txns, func(t *Transaction) float64 { return float64(t.DbMem) }),
		StreamMem:   summarize(txns, func(t *Transaction) float64 { return float64(t.StreamMem) }),
		OsVmSize:    summarize(txns, func(t *Transaction) float64 { return float64(t.OsVmSize) }),
		FreeMemory:  summarize(txns, func(t *Transaction) float64 { return float64(t.FreeMemory) }),
		Length:      summarize(txns, func(t *Transaction) float64 { return t.Length }),
	}
}

func memoryStatsPerGroup[K comparable](groups map[K][]*Transaction) map[K]*MemoryStats {
	stats := make(map[K]*MemoryStats, len(groups))
	for k, txns := range groups {
		stats[k] = CalculateMemoryStats(txns)
	}
	return stats
}

// MemoryStatsByKind computes per-kind memory statistics over finished
// transactions.
func (l *TransactionLog) MemoryStatsByKind() map[string]*MemoryStats {
	return memoryStatsPerGroup(GroupByKind(l.Finished()))
}

// MemoryStatsByAction computes per-action memory statistics over finished
// transactions that carry an action element name.
func (l *TransactionLog) MemoryStatsByAction() map[string]*MemoryStats {
	return memoryStatsPerGroup(GroupByAction(l.Finished()))
}

// MemoryTrends buckets finished transactions by start minute and returns
// per-minute memory statistics in chronological order.
func (l *TransactionLog) MemoryTrends() []MemoryTrendPoint {
	byMinute := groupBy(l.Finished(), func(t *Transaction) (time.Time, bool) {
		return t.StartTime.Truncate(time.Minute), !t.StartTime.IsZero()
	})

	points := make([]MemoryTrendPoint, 0, len(byMinute))
	for minute, txns := range byMinute {
		points = append(points, MemoryTrendPoint{
			Minute: minute,
			Stats:  CalculateMemoryStats(txns),
		})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Minute.Before(points[j].Minute)
	})
	return points
}

// leakRiskScore blends normalized efficiency, retention and growth into a
// single 0..1 figure. Retention carries the most weight.
func leakRiskScore(efficiency, retention, growth float64) float64 {
	effNorm := efficiency / leakEfficiencyScale
	if effNorm > 1 {
		effNorm = 1
	}
	growthNorm := growth / leakGrowthScale
	if growthNorm > 1 {
		growthNorm = 1
	}
	return 0.3*effNorm + 0.4*retention + 0.3*growthNorm
}

// PotentialLeakSources evaluates each action group against the leak
// heuristics and returns flagged sources sorted by risk score descending,
// action name breaking ties. Actions with no measured runtime contribute
// zero efficiency rather than being skipped.
func (l *TransactionLog) PotentialLeakSources() []MemoryLeakSource {
	groups := GroupByAction(l.Finished())

	var sources []MemoryLeakSource
	for action, txns := range groups {
		stats := CalculateMemoryStats(txns)

		var efficiency float64
		if stats.Length.Total > 0 {
			efficiency = stats.TotalMemory.Total / stats.Length.Total
		}

		var retention float64
		if stats.OsVmSize.Mean > 0 {
			retention = (stats.OsVmSize.Mean - stats.FreeMemory.Mean) / stats.OsVmSize.Mean
		}

		// Growth rate is per transaction: the group mean spread over the
		// group's count.
		growth := stats.TotalMemory.Mean / float64(stats.Count)

		if efficiency <= leakEfficiencyThreshold &&
			retention <= leakRetentionThreshold &&
			growth <= leakGrowthThreshold {
			continue
		}

		sources = append(sources, MemoryLeakSource{
			Action:           action,
			TransactionCount: stats.Count,
			MeanTotalMemory:  stats.TotalMemory.Mean,
			MemoryEfficiency: efficiency,
			MemoryRetention:  retention,
			MemoryGrowthRate: growth,
			RiskScore:        leakRiskScore(efficiency, retention, growth),
		})
	}

	sort.Slice(sources, func(i, j int) bool {
		if sources[i].RiskScore != sources[j].RiskScore {
			return sources[i].RiskScore > sources[j].RiskScore
		}
		return sources[i].Action < sources[j].Action
	})
	return sources
}

// AllocationPatternsByKind breaks each kind's total allocation down by
// memory component over finished transactions.
func (l *TransactionLog) AllocationPatternsByKind() map[string]*AllocationStats {
	groups := GroupByKind(l.Finished())

	patterns := make(map[string]*AllocationStats, len(groups))
	for kind, txns := range groups {
		stats := CalculateMemoryStats(txns)

		p := &AllocationStats{
			TransactionCount: stats.Count,
			TotalAllocated:   stats.TotalMemory.Total,
			ProcAllocated:    stats.ProcMem.Total,
			FuncAllocated:    stats.FuncMem.Total,
			DbAllocated:      stats.DbMem.Total,
			StreamAllocated:  stats.StreamMem.Total,
		}
		if p.TotalAllocated > 0 {
			p.ProcPercentage = p.ProcAllocated / p.TotalAllocated * 100
			p.FuncPercentage = p.FuncAllocated / p.TotalAllocated * 100
			p.DbPercentage = p.DbAllocated / p.TotalAllocated * 100
			p.StreamPercentage = p.StreamAllocated / p.TotalAllocated * 100
		}
		if stats.Length.Total > 0 {
			p.AllocationRate = p.TotalAllocated / stats.Length.Total
		}
		if p.TransactionCount > 0 {
			p.PerTransaction = p.TotalAllocated / float64(p.TransactionCount)
		}
		patterns[kind] = p
	}
	return patterns
}
