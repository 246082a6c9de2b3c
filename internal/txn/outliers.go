package txn

import "sort"

// outliersAbove returns the transactions whose metric value is strictly
// greater than the percentile threshold of that metric across the set.
// Values exactly at the threshold are excluded.
func outliersAbove(txns []*Transaction, percentile float64, metric func(*Transaction) float64) []*Transaction {
	if len(txns) == 0 {
		return nil
	}

	values := make([]float64, len(txns))
	for i, t := range txns {
		values[i] = metric(t)
	}
	threshold := percentileThreshold(values, percentile)

	var outliers []*Transaction
	for i, t := range txns {
		if values[i] > threshold {
			outliers = append(outliers, t)
		}
	}
	return outliers
}

// LongRunning returns finished transactions whose length exceeds the
// given percentile threshold.
func (l *TransactionLog) LongRunning(percentile float64) []*Transaction {
	return outliersAbove(l.Finished(), percentile, func(t *Transaction) float64 {
		return t.Length
	})
}

// HighWaiting returns finished transactions whose waiting time exceeds the
// given percentile threshold.
func (l *TransactionLog) HighWaiting(percentile float64) []*Transaction {
	return outliersAbove(l.Finished(), percentile, func(t *Transaction) float64 {
		return t.WaitingTime
	})
}

// HighMemory returns finished transactions whose total memory exceeds the
// given percentile threshold.
func (l *TransactionLog) HighMemory(percentile float64) []*Transaction {
	return outliersAbove(l.Finished(), percentile, func(t *Transaction) float64 {
		return float64(t.TotalMemory())
	})
}

// AbnormalMemoryGrowth returns finished transactions whose memory growth
// rate (bytes/ms) exceeds the given percentile threshold.
func (l *TransactionLog) AbnormalMemoryGrowth(percentile float64) []*Transaction {
	return outliersAbove(l.Finished(), percentile, func(t *Transaction) float64 {
		return t.MemoryGrowthRate()
	})
}

// topBy returns up to limit transactions ranked by the metric, descending.
// The sort is stable so collection order breaks ties.
func topBy(txns []*Transaction, limit int, metric func(*Transaction) float64) []*Transaction {
	ranked := make([]*Transaction, len(txns))
	copy(ranked, txns)
	sort.SliceStable(ranked, func(i, j int) bool {
		return metric(ranked[i]) > metric(ranked[j])
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// TopByProcTime returns the most CPU-intensive finished transactions.
func (l *TransactionLog) TopByProcTime(limit int) []*Transaction {
	return topBy(l.Finished(), limit, func(t *Transaction) float64 { return t.ProcTime })
}

// TopByWaitingTime returns the finished transactions with the highest
// wait times.
func (l *TransactionLog) TopByWaitingTime(limit int) []*Transaction {
	return topBy(l.Finished(), limit, func(t *Transaction) float64 { return t.WaitingTime })
}

// rankedTotals sums a metric per key and returns the top entries,
// descending by total with lexicographic key tie-break.
func rankedTotals(groups map[string][]*Transaction, limit int, metric func(*Transaction) float64) []KindTotal {
	totals := make([]KindTotal, 0, len(groups))
	for key, txns := range groups {
		var sum float64
		for _, t := range txns {
			sum += metric(t)
		}
		totals = append(totals, KindTotal{Kind: key, Total: sum})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Total != totals[j].Total {
			return totals[i].Total > totals[j].Total
		}
		return totals[i].Kind < totals[j].Kind
	})
	if limit > 0 && len(totals) > limit {
		totals = totals[:limit]
	}
	return totals
}

// CPUIntensiveKinds ranks transaction kinds by total processing time.
func (l *TransactionLog) CPUIntensiveKinds(limit int) []KindTotal {
	return rankedTotals(GroupByKind(l.Finished()), limit, func(t *Transaction) float64 {
		return t.ProcTime
	})
}

// HighWaitKinds ranks transaction kinds by total waiting time.
func (l *TransactionLog) HighWaitKinds(limit int) []KindTotal {
	return rankedTotals(GroupByKind(l.Finished()), limit, func(t *Transaction) float64 {
		return t.WaitingTime
	})
}

// CPUIntensiveThreads ranks threads by total processing time.
func (l *TransactionLog) CPUIntensiveThreads(limit int) []KindTotal {
	return rankedTotals(GroupByThread(l.Finished()), limit, func(t *Transaction) float64 {
		return t.ProcTime
	})
}
