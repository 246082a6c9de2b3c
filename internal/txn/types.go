package txn

import (
	"fmt"
	"time"

	"github.com/qserver-tools/qdiag/utils"
)

// StatusFinished is the lifecycle tag of a completed transaction. Only
// finished transactions participate in statistical analysis.
const StatusFinished = "Finished"

// Time component names, in dominance priority order.
const (
	CompWaiting    = "waiting"
	CompProcessing = "processing"
	CompFunction   = "function"
	CompDatabase   = "database"
	CompStream     = "stream"
)

// timeComponents fixes the tie-break priority for dominant-component
// classification: the first component reaching the maximum wins.
var timeComponents = []string{CompWaiting, CompProcessing, CompFunction, CompDatabase, CompStream}

// Transaction is one unit of work from a QServer transaction log. It is the
// canonical union of the two legacy log schemas: all durations are
// milliseconds, all memory figures bytes. Absent fields stay zero.
type Transaction struct {
	ID     string
	Kind   string
	Thread string
	Action string // action element name, empty when the log variant lacks it
	Status string

	StartTime time.Time
	EndTime   time.Time

	// Phase durations (ms)
	Length         float64
	WaitingTime    float64
	ProcTime       float64
	BeginTime      float64
	FuncTime       float64
	DbTime         float64
	MemCommitTime  float64
	StreamTime     float64
	KernelTime     float64
	CleanupTime    float64
	EndProcessTime float64

	// Memory components (bytes)
	ProcMem    utils.MemorySize
	FuncMem    utils.MemorySize
	DbMem      utils.MemorySize
	StreamMem  utils.MemorySize
	OsVmSize   utils.MemorySize
	FreeMemory utils.MemorySize

	Initiator  string
	Details    string
	SourceFile string
}

func (t *Transaction) IsFinished() bool {
	return t.Status == StatusFinished
}

// TotalMemory is the sum of the per-component memory figures.
func (t *Transaction) TotalMemory() utils.MemorySize {
	return t.ProcMem + t.FuncMem + t.DbMem + t.StreamMem
}

// End returns the recorded end time, deriving it from start time plus
// length when the log did not carry an explicit end column.
func (t *Transaction) End() time.Time {
	if !t.EndTime.IsZero() {
		return t.EndTime
	}
	if t.StartTime.IsZero() {
		return time.Time{}
	}
	return t.StartTime.Add(time.Duration(t.Length * float64(time.Millisecond)))
}

// HasWindow reports whether the transaction has a usable execution interval.
func (t *Transaction) HasWindow() bool {
	return !t.StartTime.IsZero() && !t.End().IsZero()
}

func (t *Transaction) percentOfLength(v float64) float64 {
	if t.Length <= 0 {
		return 0
	}
	return v / t.Length * 100
}

func (t *Transaction) WaitingPercentage() float64 { return t.percentOfLength(t.WaitingTime) }
func (t *Transaction) ProcPercentage() float64    { return t.percentOfLength(t.ProcTime) }
func (t *Transaction) FuncPercentage() float64    { return t.percentOfLength(t.FuncTime) }
func (t *Transaction) DbPercentage() float64      { return t.percentOfLength(t.DbTime) }
func (t *Transaction) StreamPercentage() float64  { return t.percentOfLength(t.StreamTime) }

// componentValue maps a component name to the transaction's value for it.
func (t *Transaction) componentValue(name string) float64 {
	switch name {
	case CompWaiting:
		return t.WaitingTime
	case CompProcessing:
		return t.ProcTime
	case CompFunction:
		return t.FuncTime
	case CompDatabase:
		return t.DbTime
	case CompStream:
		return t.StreamTime
	}
	return 0
}

// DominantComponent returns the time component with the largest value.
// Ties resolve to the earlier entry of timeComponents.
func (t *Transaction) DominantComponent() string {
	dominant := timeComponents[0]
	maxVal := t.componentValue(dominant)
	for _, name := range timeComponents[1:] {
		if v := t.componentValue(name); v > maxVal {
			dominant, maxVal = name, v
		}
	}
	return dominant
}

// MemoryGrowthRate is total memory per millisecond of runtime, 0 when the
// transaction has no measured length.
func (t *Transaction) MemoryGrowthRate() float64 {
	if t.Length <= 0 {
		return 0
	}
	return float64(t.TotalMemory()) / t.Length
}

// MetricStats summarizes one numeric metric over a group of transactions.
type MetricStats struct {
	Mean   float64
	Min    float64
	Max    float64
	Total  float64
	StdDev float64 // population standard deviation
}

// AggregateStats holds per-group timing statistics.
type AggregateStats struct {
	Count int

	Length  MetricStats
	Waiting MetricStats
	Proc    MetricStats
	Func    MetricStats
	Db      MetricStats
	Stream  MetricStats

	// Mean waiting time as a percentage of mean length (0 when length is 0).
	WaitingTimePercentage float64

	// Count of transactions per dominant time component.
	DominantComponents map[string]int
}

// MostCommonDominantComponent picks the histogram maximum, breaking ties by
// the fixed component priority order so results are deterministic.
func (s *AggregateStats) MostCommonDominantComponent() string {
	if len(s.DominantComponents) == 0 {
		return "unknown"
	}
	best, bestCount := "unknown", 0
	for _, name := range timeComponents {
		if c := s.DominantComponents[name]; c > bestCount {
			best, bestCount = name, c
		}
	}
	return best
}

// MemoryStats holds per-group memory statistics.
type MemoryStats struct {
	Count int

	TotalMemory MetricStats
	ProcMem     MetricStats
	FuncMem     MetricStats
	DbMem       MetricStats
	StreamMem   MetricStats
	OsVmSize    MetricStats
	FreeMemory  MetricStats
	Length      MetricStats
}

// AllocationStats describes how a group of transactions allocated memory.
type AllocationStats struct {
	TransactionCount int

	TotalAllocated  float64
	ProcAllocated   float64
	FuncAllocated   float64
	DbAllocated     float64
	StreamAllocated float64

	ProcPercentage   float64
	FuncPercentage   float64
	DbPercentage     float64
	StreamPercentage float64

	AllocationRate float64 // bytes per ms of transaction time
	PerTransaction float64 // bytes per transaction
}

// MemoryLeakSource is an action flagged by the leak heuristics.
type MemoryLeakSource struct {
	Action           string
	TransactionCount int
	MeanTotalMemory  float64
	MemoryEfficiency float64 // bytes per ms
	MemoryRetention  float64 // fraction of VM size not free
	MemoryGrowthRate float64 // bytes per transaction
	RiskScore        float64
}

// RiskLevel buckets the risk score.
func (m MemoryLeakSource) RiskLevel() string {
	switch {
	case m.RiskScore >= 0.7:
		return "High"
	case m.RiskScore >= 0.4:
		return "Medium"
	default:
		return "Low"
	}
}

// Root cause categories.
const (
	CategoryWaitingTime    = "Waiting Time"
	CategoryProcessingTime = "Processing Time"
	CategoryDatabaseTime   = "Database Time"
	CategoryMemoryLeak     = "Memory Leak"
	CategoryMemoryGrowth   = "Memory Growth"
	CategoryThreadPool     = "Thread Pool"
)

// RootCause is one synthesized causal finding, immutable once built.
type RootCause struct {
	Category        string
	Description     string
	Details         string
	ImpactScore     float64
	Recommendations []string
}

// ImpactLevel buckets the impact score.
func (r RootCause) ImpactLevel() string {
	switch {
	case r.ImpactScore >= 0.8:
		return "Critical"
	case r.ImpactScore >= 0.6:
		return "High"
	case r.ImpactScore >= 0.3:
		return "Medium"
	default:
		return "Low"
	}
}

// WaitAnnotation records that a CPU-heavy transaction overlapped the start
// of waiting transactions. It is a side table entry: the source transaction
// is never mutated by analysis.
type WaitAnnotation struct {
	Txn           *Transaction
	WaitCount     int
	TotalWaitTime float64
}

// Details renders the annotation the way reports display it.
func (w WaitAnnotation) Details() string {
	return fmt.Sprintf("Caused %d waits, total wait time: %.1f", w.WaitCount, w.TotalWaitTime)
}

// KindTotal is a ranked (kind, total) pair for top-N listings.
type KindTotal struct {
	Kind  string
	Total float64
}

// ComponentTotal is one slice of the resource utilization breakdown.
type ComponentTotal struct {
	Component string
	Total     float64
}

// MinutePoint is one per-minute bucket of transaction volume and wait time.
type MinutePoint struct {
	Minute   time.Time
	Count    int
	MeanWait float64
}

// MemoryTrendPoint is one per-minute bucket of memory statistics.
type MemoryTrendPoint struct {
	Minute time.Time
	Stats  *MemoryStats
}
