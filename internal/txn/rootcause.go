package txn

import (
	"fmt"
	"sort"

	"github.com/qserver-tools/qdiag/utils"
)

// Rule gates. Tunable heuristics, not caller configuration.
const (
	waitPercentageGate = 50.0
	procPercentageGate = 30.0
	dbPercentageGate   = 30.0
	correlationGate    = 0.7
	memoryGrowthWeight = 0.8
)

// IdentifyRootCauses runs the five rule checks over the log and returns the
// findings sorted by descending impact. Rules whose prerequisite sets are
// empty are skipped, so an empty log yields an empty list.
func (l *TransactionLog) IdentifyRootCauses(percentile float64) []RootCause {
	finished := l.Finished()
	if len(finished) == 0 {
		return nil
	}
	total := float64(len(finished))

	var causes []RootCause
	causes = append(causes, l.waitingTimeCauses(percentile, total)...)
	causes = append(causes, l.processingTimeCauses(percentile, total)...)
	causes = append(causes, l.databaseTimeCauses(percentile, total)...)
	causes = append(causes, l.memoryCauses(percentile, total)...)
	causes = append(causes, l.threadPoolCauses(percentile, total)...)

	sort.SliceStable(causes, func(i, j int) bool {
		return causes[i].ImpactScore > causes[j].ImpactScore
	})
	return causes
}

func meanOf(txns []*Transaction, metric func(*Transaction) float64) float64 {
	values := make([]float64, len(txns))
	for i, t := range txns {
		values[i] = metric(t)
	}
	return utils.CalculateMean(values)
}

// sortedKinds returns the group keys in lexicographic order so rule output
// is deterministic across runs.
func sortedKinds(groups map[string][]*Transaction) []string {
	kinds := make([]string, 0, len(groups))
	for kind := range groups {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func (l *TransactionLog) waitingTimeCauses(percentile, total float64) []RootCause {
	highWaiting := l.HighWaiting(percentile)
	if len(highWaiting) == 0 {
		return nil
	}

	meanWaitPct := meanOf(highWaiting, (*Transaction).WaitingPercentage)
	if meanWaitPct <= waitPercentageGate {
		return nil
	}

	mostBlocking := l.MostBlockingKind(percentile)
	if mostBlocking == "" {
		mostBlocking = "Unknown"
	}

	return []RootCause{{
		Category:    CategoryWaitingTime,
		Description: "High waiting times due to transaction blocking",
		Details: fmt.Sprintf(
			"Transactions are spending an average of %.2f%% of their time waiting. "+
				"The most common blocking transaction kind is '%s'.",
			meanWaitPct, mostBlocking),
		ImpactScore: (meanWaitPct / 100) * float64(len(highWaiting)) / total,
		Recommendations: []string{
			"Increase thread pool size to reduce waiting times",
			fmt.Sprintf("Optimize '%s' transactions to reduce their execution time", mostBlocking),
			"Consider implementing transaction prioritization to prevent critical transactions from waiting",
		},
	}}
}

func (l *TransactionLog) processingTimeCauses(percentile, total float64) []RootCause {
	longRunning := l.LongRunning(percentile)
	if len(longRunning) == 0 {
		return nil
	}

	byKind := GroupByKind(longRunning)

	var causes []RootCause
	for _, kind := range sortedKinds(byKind) {
		txns := byKind[kind]

		meanProcPct := meanOf(txns, (*Transaction).ProcPercentage)
		if meanProcPct <= procPercentageGate {
			continue
		}
		meanProc := meanOf(txns, func(t *Transaction) float64 { return t.ProcTime })

		causes = append(causes, RootCause{
			Category:    CategoryProcessingTime,
			Description: fmt.Sprintf("High processing times in '%s' transactions", kind),
			Details: fmt.Sprintf(
				"'%s' transactions are spending an average of %.2f%% of their time "+
					"in processing (average %.2f ms).",
				kind, meanProcPct, meanProc),
			ImpactScore: (meanProcPct / 100) * float64(len(txns)) / total,
			Recommendations: []string{
				fmt.Sprintf("Optimize procedural code in '%s' transactions", kind),
				"Consider implementing caching for frequently accessed data",
				"Review algorithms used in processing to identify inefficiencies",
			},
		})
	}
	return causes
}

func (l *TransactionLog) databaseTimeCauses(percentile, total float64) []RootCause {
	longRunning := l.LongRunning(percentile)
	if len(longRunning) == 0 {
		return nil
	}

	byKind := GroupByKind(longRunning)

	var causes []RootCause
	for _, kind := range sortedKinds(byKind) {
		txns := byKind[kind]

		meanDbPct := meanOf(txns, (*Transaction).DbPercentage)
		if meanDbPct <= dbPercentageGate {
			continue
		}
		meanDb := meanOf(txns, func(t *Transaction) float64 { return t.DbTime })

		causes = append(causes, RootCause{
			Category:    CategoryDatabaseTime,
			Description: fmt.Sprintf("High database times in '%s' transactions", kind),
			Details: fmt.Sprintf(
				"'%s' transactions are spending an average of %.2f%% of their time "+
					"in database operations (average %.2f ms).",
				kind, meanDbPct, meanDb),
			ImpactScore: (meanDbPct / 100) * float64(len(txns)) / total,
			Recommendations: []string{
				fmt.Sprintf("Optimize database queries in '%s' transactions", kind),
				"Consider adding appropriate indexes to improve query performance",
				"Implement database connection pooling if not already in use",
				"Review database schema design for potential optimizations",
			},
		})
	}
	return causes
}

func (l *TransactionLog) memoryCauses(percentile, total float64) []RootCause {
	var causes []RootCause

	if leaks := l.PotentialLeakSources(); len(leaks) > 0 {
		top := leaks[0]
		causes = append(causes, RootCause{
			Category:    CategoryMemoryLeak,
			Description: fmt.Sprintf("Potential memory leak in '%s'", top.Action),
			Details: fmt.Sprintf(
				"Action '%s' shows signs of memory leakage with a risk score of %.2f "+
					"(Risk Level: %s). Memory retention rate: %.2f%%, "+
					"Memory growth rate: %.2f bytes/transaction.",
				top.Action, top.RiskScore, top.RiskLevel(),
				top.MemoryRetention*100, top.MemoryGrowthRate),
			ImpactScore: top.RiskScore * float64(top.TransactionCount) / total,
			Recommendations: []string{
				fmt.Sprintf("Review memory management in '%s' for potential leaks", top.Action),
				"Implement proper resource cleanup on every exit path",
				"Consider using a memory profiler to identify specific memory leak locations",
				"Increase server memory limits as a temporary measure while addressing the leak",
			},
		})
	}

	if growth := l.AbnormalMemoryGrowth(percentile); len(growth) > 0 {
		byKind := GroupByKind(growth)

		mostCommon, mostCount := "", 0
		for _, kind := range sortedKinds(byKind) {
			if n := len(byKind[kind]); n > mostCount {
				mostCommon, mostCount = kind, n
			}
		}

		txns := byKind[mostCommon]
		meanUsage := meanOf(txns, func(t *Transaction) float64 { return float64(t.TotalMemory()) })

		causes = append(causes, RootCause{
			Category:    CategoryMemoryGrowth,
			Description: fmt.Sprintf("Abnormal memory growth in '%s' transactions", mostCommon),
			Details: fmt.Sprintf(
				"'%s' transactions show abnormal memory growth with an average memory "+
					"usage of %.2f bytes. This could lead to memory exhaustion and "+
					"out-of-memory errors.",
				mostCommon, meanUsage),
			ImpactScore: memoryGrowthWeight * float64(len(txns)) / total,
			Recommendations: []string{
				fmt.Sprintf("Optimize memory usage in '%s' transactions", mostCommon),
				"Review data structures used and consider more memory-efficient alternatives",
				"Implement memory usage limits or circuit breakers to prevent runaway memory consumption",
				"Consider implementing incremental processing for large data sets",
			},
		})
	}

	return causes
}

func (l *TransactionLog) threadPoolCauses(percentile, total float64) []RootCause {
	highWaiting := l.HighWaiting(percentile)
	if len(highWaiting) == 0 {
		return nil
	}

	correlation := l.CountWaitCorrelation()
	if correlation <= correlationGate {
		return nil
	}

	return []RootCause{{
		Category:    CategoryThreadPool,
		Description: "Insufficient thread pool size",
		Details: fmt.Sprintf(
			"There is a strong correlation (%.2f) between the number of concurrent "+
				"transactions and waiting times, indicating that the thread pool size "+
				"may be insufficient to handle the load.",
			correlation),
		ImpactScore: correlation * float64(len(highWaiting)) / total,
		Recommendations: []string{
			"Increase thread pool size to handle concurrent transactions",
			"Implement a dynamic thread pool that can adjust based on load",
			"Consider implementing a thread pool monitoring system",
			"Review thread pool configuration parameters (e.g., queue size, keep-alive time)",
		},
	}}
}
