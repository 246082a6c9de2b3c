package txn

import (
	"testing"
	"time"

	"github.com/qserver-tools/qdiag/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// actionTxn builds a finished transaction attributed to an action element.
func actionTxn(id, action string, length float64, totalMem, vmSize, freeMem utils.MemorySize) *Transaction {
	return &Transaction{
		ID:         id,
		Kind:       "K",
		Action:     action,
		Status:     StatusFinished,
		Length:     length,
		ProcMem:    totalMem,
		OsVmSize:   vmSize,
		FreeMemory: freeMem,
	}
}

func TestCalculateMemoryStats(t *testing.T) {
	txn := finishedTxn("1", "A", 100, 0, 0)
	txn.ProcMem = 1000
	txn.FuncMem = 2000
	txn.DbMem = 3000
	txn.StreamMem = 4000

	stats := CalculateMemoryStats([]*Transaction{txn})
	assert.Equal(t, 1, stats.Count)
	assert.InDelta(t, 10000.0, stats.TotalMemory.Mean, 1e-9)
	assert.InDelta(t, 1000.0, stats.ProcMem.Total, 1e-9)
	assert.InDelta(t, 4000.0, stats.StreamMem.Max, 1e-9)
}

func TestPotentialLeakSources(t *testing.T) {
	t.Run("flags high efficiency and retention", func(t *testing.T) {
		log := NewTransactionLog()
		// efficiency 20000/10 = 2000 B/ms, retention 1-100/1000 = 0.9
		log.Add(actionTxn("1", "ImportAction", 10, 20000, 1000, 100))

		sources := log.PotentialLeakSources()
		require.Len(t, sources, 1)

		leak := sources[0]
		assert.Equal(t, "ImportAction", leak.Action)
		assert.InDelta(t, 2000.0, leak.MemoryEfficiency, 1e-9)
		assert.InDelta(t, 0.9, leak.MemoryRetention, 1e-9)
		assert.InDelta(t, 20000.0, leak.MemoryGrowthRate, 1e-9)

		// 0.3*min(2000/10000,1) + 0.4*0.9 + 0.3*min(20000/100000,1)
		assert.InDelta(t, 0.3*0.2+0.4*0.9+0.3*0.2, leak.RiskScore, 1e-9)
		assert.Equal(t, "Medium", leak.RiskLevel())
	})

	t.Run("growth rate is per transaction", func(t *testing.T) {
		log := NewTransactionLog()
		// Two identical 20000-byte transactions: the group mean stays
		// 20000 but the per-transaction growth rate halves to 10000.
		log.Add(actionTxn("1", "BatchAction", 10, 20000, 1000, 100))
		log.Add(actionTxn("2", "BatchAction", 10, 20000, 1000, 100))

		sources := log.PotentialLeakSources()
		require.Len(t, sources, 1)

		leak := sources[0]
		assert.Equal(t, 2, leak.TransactionCount)
		assert.InDelta(t, 20000.0, leak.MeanTotalMemory, 1e-9)
		assert.InDelta(t, 10000.0, leak.MemoryGrowthRate, 1e-9)

		// 0.3*min(2000/10000,1) + 0.4*0.9 + 0.3*min(10000/100000,1)
		assert.InDelta(t, 0.3*0.2+0.4*0.9+0.3*0.1, leak.RiskScore, 1e-9)
	})

	t.Run("quiet actions are not flagged", func(t *testing.T) {
		log := NewTransactionLog()
		// efficiency 500 B/ms, retention 0.5, growth 5000 B/txn
		log.Add(actionTxn("1", "QuietAction", 10, 5000, 1000, 500))
		assert.Empty(t, log.PotentialLeakSources())
	})

	t.Run("zero denominators guard to zero", func(t *testing.T) {
		log := NewTransactionLog()
		// zero length and zero vm size must not produce NaN or Inf;
		// growth alone trips the threshold here.
		log.Add(actionTxn("1", "OddAction", 0, 20000, 0, 0))

		sources := log.PotentialLeakSources()
		require.Len(t, sources, 1)
		assert.Zero(t, sources[0].MemoryEfficiency)
		assert.Zero(t, sources[0].MemoryRetention)
	})

	t.Run("sorted by risk score descending", func(t *testing.T) {
		log := NewTransactionLog()
		log.Add(actionTxn("1", "Mild", 10, 15000, 0, 0))
		log.Add(actionTxn("2", "Severe", 1, 90000, 1000, 10))

		sources := log.PotentialLeakSources()
		require.Len(t, sources, 2)
		assert.Equal(t, "Severe", sources[0].Action)
		assert.Equal(t, "Mild", sources[1].Action)
	})

	t.Run("risk score bounded for extreme inputs", func(t *testing.T) {
		log := NewTransactionLog()
		log.Add(actionTxn("1", "Extreme", 1, 1<<40, 1000, 0))

		sources := log.PotentialLeakSources()
		require.Len(t, sources, 1)
		assert.GreaterOrEqual(t, sources[0].RiskScore, 0.0)
		assert.LessOrEqual(t, sources[0].RiskScore, 1.0)
	})
}

func TestRiskLevels(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.9, "High"},
		{0.7, "High"},
		{0.5, "Medium"},
		{0.4, "Medium"},
		{0.1, "Low"},
	}

	for _, tt := range tests {
		leak := MemoryLeakSource{RiskScore: tt.score}
		assert.Equal(t, tt.want, leak.RiskLevel(), "score %.2f", tt.score)
	}
}

func TestAllocationPatternsByKind(t *testing.T) {
	log := NewTransactionLog()

	txn := finishedTxn("1", "Import", 100, 0, 0)
	txn.ProcMem = 6000
	txn.FuncMem = 2000
	txn.DbMem = 1000
	txn.StreamMem = 1000
	log.Add(txn)

	patterns := log.AllocationPatternsByKind()
	require.Contains(t, patterns, "Import")

	p := patterns["Import"]
	assert.Equal(t, 1, p.TransactionCount)
	assert.InDelta(t, 10000.0, p.TotalAllocated, 1e-9)
	assert.InDelta(t, 60.0, p.ProcPercentage, 1e-9)
	assert.InDelta(t, 20.0, p.FuncPercentage, 1e-9)
	assert.InDelta(t, 100.0, p.AllocationRate, 1e-9)
	assert.InDelta(t, 10000.0, p.PerTransaction, 1e-9)
}

func TestMemoryTrends(t *testing.T) {
	log := NewTransactionLog()

	early := timedTxn("1", "A", testEpoch, 1)
	early.ProcMem = 1000
	late := timedTxn("2", "A", testEpoch.Add(2*time.Minute), 1)
	late.ProcMem = 3000

	log.Add(late)
	log.Add(early)

	trends := log.MemoryTrends()
	require.Len(t, trends, 2)
	assert.True(t, trends[0].Minute.Before(trends[1].Minute))
	assert.InDelta(t, 1000.0, trends[0].Stats.TotalMemory.Mean, 1e-9)
	assert.InDelta(t, 3000.0, trends[1].Stats.TotalMemory.Mean, 1e-9)
}
