package txn

import "time"

// Options carries the caller-supplied analysis parameters.
type Options struct {
	Percentile float64 // outlier percentile threshold
	TopLimit   int     // size of top-N listings
}

func DefaultOptions() Options {
	return Options{Percentile: 95, TopLimit: 10}
}

// Analysis is one immutable snapshot of every derived result. Renderers
// read from it; nothing writes back into the log.
type Analysis struct {
	Options Options

	TotalCount    int
	FinishedCount int
	StartTime     time.Time
	EndTime       time.Time

	StatsByKind   map[string]*AggregateStats
	StatsByThread map[string]*AggregateStats
	StatsByHour   map[int]*AggregateStats
	StatsByAction map[string]*AggregateStats

	LongRunning          []*Transaction
	HighWaiting          []*Transaction
	HighMemory           []*Transaction
	AbnormalMemoryGrowth []*Transaction

	TopByProcTime    []*Transaction
	TopByWaitingTime []*Transaction

	CPUIntensiveKinds   []KindTotal
	HighWaitKinds       []KindTotal
	CPUIntensiveThreads []KindTotal

	BlockingKinds       []KindTotal
	CausingWaits        []WaitAnnotation
	MaxConcurrent       int
	ActiveThreads       int
	WaitProcessRatio    float64
	CountWaitCorr       float64
	ResourceUtilization []ComponentTotal
	MinuteSeries        []MinutePoint

	MemoryByKind       map[string]*MemoryStats
	MemoryByAction     map[string]*MemoryStats
	MemoryTrends       []MemoryTrendPoint
	LeakSources        []MemoryLeakSource
	AllocationPatterns map[string]*AllocationStats

	RootCauses []RootCause

	Status string
}

// Analyze runs every analysis pass over the log and bundles the results.
func (l *TransactionLog) Analyze(opts Options) *Analysis {
	if opts.Percentile <= 0 {
		opts.Percentile = DefaultOptions().Percentile
	}
	if opts.TopLimit <= 0 {
		opts.TopLimit = DefaultOptions().TopLimit
	}

	start, end := l.TimeRange()

	a := &Analysis{
		Options: opts,

		TotalCount:    l.Len(),
		FinishedCount: len(l.Finished()),
		StartTime:     start,
		EndTime:       end,

		StatsByKind:   l.StatsByKind(),
		StatsByThread: l.StatsByThread(),
		StatsByHour:   l.StatsByHour(),
		StatsByAction: l.StatsByAction(),

		LongRunning:          l.LongRunning(opts.Percentile),
		HighWaiting:          l.HighWaiting(opts.Percentile),
		HighMemory:           l.HighMemory(opts.Percentile),
		AbnormalMemoryGrowth: l.AbnormalMemoryGrowth(opts.Percentile),

		TopByProcTime:    l.TopByProcTime(opts.TopLimit),
		TopByWaitingTime: l.TopByWaitingTime(opts.TopLimit),

		CPUIntensiveKinds:   l.CPUIntensiveKinds(opts.TopLimit),
		HighWaitKinds:       l.HighWaitKinds(opts.TopLimit),
		CPUIntensiveThreads: l.CPUIntensiveThreads(opts.TopLimit),

		BlockingKinds:       l.BlockingKinds(opts.Percentile),
		CausingWaits:        l.CausingWaits(opts.TopLimit),
		MaxConcurrent:       l.MaxConcurrent(),
		ActiveThreads:       l.ActiveThreadCount(),
		WaitProcessRatio:    l.WaitToProcessingRatio(),
		CountWaitCorr:       l.CountWaitCorrelation(),
		ResourceUtilization: l.ResourceUtilization(),
		MinuteSeries:        l.MinuteSeries(),

		MemoryByKind:       l.MemoryStatsByKind(),
		MemoryByAction:     l.MemoryStatsByAction(),
		MemoryTrends:       l.MemoryTrends(),
		LeakSources:        l.PotentialLeakSources(),
		AllocationPatterns: l.AllocationPatternsByKind(),

		RootCauses: l.IdentifyRootCauses(opts.Percentile),
	}
	a.Status = a.assessHealth()

	return a
}

// assessHealth rolls the findings up into one status line.
func (a *Analysis) assessHealth() string {
	if a.FinishedCount == 0 {
		return "❓ No finished transactions"
	}

	criticalCount := 0
	highCount := 0
	for _, rc := range a.RootCauses {
		switch rc.ImpactLevel() {
		case "Critical":
			criticalCount++
		case "High":
			highCount++
		}
	}

	if criticalCount > 0 {
		return "🔴 Critical"
	}
	if highCount > 0 {
		return "⚠️  Poor"
	}
	if len(a.RootCauses) > 2 {
		return "⚠️  Fair"
	}
	if len(a.RootCauses) > 0 {
		return "⚠️  Good"
	}
	if len(a.LeakSources) > 0 || a.WaitProcessRatio > 1 {
		return "✅ Good"
	}
	return "✅ Excellent"
}
