package txn

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2025, 4, 12, 9, 30, 0, 0, time.UTC)

// finishedTxn builds a minimal finished transaction for tests.
func finishedTxn(id, kind string, length, waiting, proc float64) *Transaction {
	return &Transaction{
		ID:          id,
		Kind:        kind,
		Status:      StatusFinished,
		Length:      length,
		WaitingTime: waiting,
		ProcTime:    proc,
	}
}

func TestCalculateStats(t *testing.T) {
	t.Run("empty group yields zeros", func(t *testing.T) {
		stats := CalculateStats(nil)
		assert.Equal(t, 0, stats.Count)
		assert.Zero(t, stats.Length.Mean)
		assert.Zero(t, stats.Length.Min)
		assert.Zero(t, stats.Length.Max)
		assert.Zero(t, stats.WaitingTimePercentage)
	})

	t.Run("waiting percentage per kind", func(t *testing.T) {
		// Two kinds with identical lengths but different wait shares.
		x := finishedTxn("1", "X", 100, 10, 90)
		y := finishedTxn("2", "Y", 100, 50, 50)

		xStats := CalculateStats([]*Transaction{x})
		yStats := CalculateStats([]*Transaction{y})

		assert.InDelta(t, 10.0, xStats.WaitingTimePercentage, 1e-9)
		assert.InDelta(t, 50.0, yStats.WaitingTimePercentage, 1e-9)
	})

	t.Run("zero mean length guards percentage", func(t *testing.T) {
		stats := CalculateStats([]*Transaction{finishedTxn("1", "X", 0, 10, 0)})
		assert.Zero(t, stats.WaitingTimePercentage)
	})

	t.Run("min max total", func(t *testing.T) {
		stats := CalculateStats([]*Transaction{
			finishedTxn("1", "X", 100, 0, 0),
			finishedTxn("2", "X", 300, 0, 0),
			finishedTxn("3", "X", 200, 0, 0),
		})
		assert.Equal(t, 3, stats.Count)
		assert.InDelta(t, 200.0, stats.Length.Mean, 1e-9)
		assert.InDelta(t, 100.0, stats.Length.Min, 1e-9)
		assert.InDelta(t, 300.0, stats.Length.Max, 1e-9)
		assert.InDelta(t, 600.0, stats.Length.Total, 1e-9)
		assert.InDelta(t, math.Sqrt(20000.0/3.0), stats.Length.StdDev, 1e-9)
	})

	t.Run("single value has zero spread", func(t *testing.T) {
		stats := CalculateStats([]*Transaction{finishedTxn("1", "X", 150, 0, 0)})
		assert.Zero(t, stats.Length.StdDev)
	})
}

func TestDominantComponent(t *testing.T) {
	tests := []struct {
		name string
		txn  *Transaction
		want string
	}{
		{
			name: "waiting dominates",
			txn:  &Transaction{WaitingTime: 80, ProcTime: 10},
			want: CompWaiting,
		},
		{
			name: "db dominates",
			txn:  &Transaction{WaitingTime: 5, ProcTime: 10, DbTime: 50},
			want: CompDatabase,
		},
		{
			name: "tie resolves by priority order",
			txn:  &Transaction{WaitingTime: 50, ProcTime: 50, DbTime: 50},
			want: CompWaiting,
		},
		{
			name: "all zero falls back to first component",
			txn:  &Transaction{},
			want: CompWaiting,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.txn.DominantComponent())
		})
	}
}

func TestMostCommonDominantComponent(t *testing.T) {
	t.Run("empty histogram", func(t *testing.T) {
		stats := &AggregateStats{DominantComponents: map[string]int{}}
		assert.Equal(t, "unknown", stats.MostCommonDominantComponent())
	})

	t.Run("tie resolves by priority order", func(t *testing.T) {
		stats := &AggregateStats{DominantComponents: map[string]int{
			CompDatabase:   3,
			CompProcessing: 3,
		}}
		assert.Equal(t, CompProcessing, stats.MostCommonDominantComponent())
	})
}

func TestGroupingCountConservation(t *testing.T) {
	log := NewTransactionLog()
	log.Add(finishedTxn("1", "A", 100, 0, 0))
	log.Add(finishedTxn("2", "A", 100, 0, 0))
	log.Add(finishedTxn("3", "B", 100, 0, 0))
	log.Add(&Transaction{ID: "4", Kind: "B", Status: "Running"})

	t.Run("by kind", func(t *testing.T) {
		total := 0
		for _, stats := range log.StatsByKind() {
			total += stats.Count
		}
		assert.Equal(t, 3, total, "group counts must sum to finished count")
	})

	t.Run("by thread excludes empty keys", func(t *testing.T) {
		withThread := finishedTxn("5", "A", 100, 0, 0)
		withThread.Thread = "worker-1"
		log.Add(withThread)

		total := 0
		for _, stats := range log.StatsByThread() {
			total += stats.Count
		}
		assert.Equal(t, 1, total)
	})

	t.Run("by hour excludes zero start times", func(t *testing.T) {
		timed := finishedTxn("6", "A", 100, 0, 0)
		timed.StartTime = testEpoch
		log.Add(timed)

		byHour := log.StatsByHour()
		require.Len(t, byHour, 1)
		assert.Equal(t, 1, byHour[9].Count)
	})
}

func TestPercentileThreshold(t *testing.T) {
	tests := []struct {
		name       string
		values     []float64
		percentile float64
		want       float64
	}{
		{"empty", nil, 95, 0},
		{"median of three", []float64{100, 200, 300}, 50, 200},
		{"p95 of three clamps to last", []float64{100, 200, 300}, 95, 300},
		{"unsorted input", []float64{300, 100, 200}, 50, 200},
		{"zero percentile clamps to first", []float64{100, 200}, 0, 100},
		{"single value", []float64{42}, 95, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, percentileThreshold(tt.values, tt.percentile))
		})
	}
}
