package txn

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifyRootCausesEmpty(t *testing.T) {
	assert.Empty(t, NewTransactionLog().IdentifyRootCauses(95))

	unfinished := NewTransactionLog()
	unfinished.Add(&Transaction{ID: "1", Status: "Running", Length: 100})
	assert.Empty(t, unfinished.IdentifyRootCauses(95))
}

func TestWaitingTimeRule(t *testing.T) {
	t.Run("gated on outlier wait percentage", func(t *testing.T) {
		log := NewTransactionLog()

		// Nine quiet transactions and one spending 80% of its time waiting.
		for i := 0; i < 9; i++ {
			log.Add(finishedTxn(fmt.Sprintf("q%d", i), "Quiet", 100, 1, 99))
		}
		log.Add(finishedTxn("w", "Waity", 100, 80, 20))

		causes := log.IdentifyRootCauses(50)

		var waiting *RootCause
		for i := range causes {
			if causes[i].Category == CategoryWaitingTime {
				waiting = &causes[i]
			}
		}
		require.NotNil(t, waiting)
		assert.Contains(t, waiting.Details, "80.00%")
		// One outlier of ten finished, 80% waiting.
		assert.InDelta(t, 0.8*1.0/10.0, waiting.ImpactScore, 1e-9)
		assert.NotEmpty(t, waiting.Recommendations)
	})

	t.Run("below gate emits nothing", func(t *testing.T) {
		log := NewTransactionLog()
		for i := 0; i < 9; i++ {
			log.Add(finishedTxn(fmt.Sprintf("q%d", i), "Quiet", 100, 1, 99))
		}
		// Outlier waits more than the rest but under half its runtime.
		log.Add(finishedTxn("w", "Waity", 100, 40, 60))

		for _, rc := range log.IdentifyRootCauses(50) {
			assert.NotEqual(t, CategoryWaitingTime, rc.Category)
		}
	})
}

func TestProcessingAndDatabaseRules(t *testing.T) {
	log := NewTransactionLog()

	// Short baseline so the long transactions become duration outliers.
	for i := 0; i < 8; i++ {
		log.Add(finishedTxn(fmt.Sprintf("base%d", i), "Base", 10, 1, 2))
	}

	cpuBound := finishedTxn("cpu", "Cruncher", 1000, 0, 900)
	log.Add(cpuBound)

	dbBound := finishedTxn("db", "Reporter", 1000, 0, 100)
	dbBound.DbTime = 800
	log.Add(dbBound)

	causes := log.IdentifyRootCauses(50)

	categories := make(map[string]RootCause)
	for _, rc := range causes {
		categories[rc.Category] = rc
	}

	proc, ok := categories[CategoryProcessingTime]
	require.True(t, ok, "processing rule should fire for Cruncher")
	assert.Contains(t, proc.Details, "'Cruncher'")
	assert.Contains(t, proc.Details, "90.00%")
	assert.InDelta(t, 0.9*1.0/10.0, proc.ImpactScore, 1e-9)

	db, ok := categories[CategoryDatabaseTime]
	require.True(t, ok, "database rule should fire for Reporter")
	assert.Contains(t, db.Details, "'Reporter'")
	assert.InDelta(t, 0.8*1.0/10.0, db.ImpactScore, 1e-9)
}

func TestMemoryRules(t *testing.T) {
	t.Run("leak cause from top source", func(t *testing.T) {
		log := NewTransactionLog()
		log.Add(actionTxn("1", "LeakyAction", 10, 20000, 1000, 100))
		log.Add(finishedTxn("2", "Other", 100, 0, 0))

		causes := log.IdentifyRootCauses(95)

		var leak *RootCause
		for i := range causes {
			if causes[i].Category == CategoryMemoryLeak {
				leak = &causes[i]
			}
		}
		require.NotNil(t, leak)
		assert.Contains(t, leak.Description, "LeakyAction")
		assert.Contains(t, leak.Details, "Risk Level:")
	})

	t.Run("growth cause names most frequent kind", func(t *testing.T) {
		log := NewTransactionLog()

		// Low-growth baseline.
		for i := 0; i < 8; i++ {
			slow := finishedTxn(fmt.Sprintf("s%d", i), "Slow", 1000, 0, 0)
			slow.ProcMem = 100
			log.Add(slow)
		}
		// Two fast allocators of the same kind push that kind to the top.
		for i := 0; i < 2; i++ {
			fast := finishedTxn(fmt.Sprintf("f%d", i), "Grower", 10, 0, 0)
			fast.ProcMem = 100000
			log.Add(fast)
		}

		causes := log.IdentifyRootCauses(50)

		var growth *RootCause
		for i := range causes {
			if causes[i].Category == CategoryMemoryGrowth {
				growth = &causes[i]
			}
		}
		require.NotNil(t, growth)
		assert.Contains(t, growth.Description, "'Grower'")
		assert.InDelta(t, 0.8*2.0/10.0, growth.ImpactScore, 1e-9)
	})
}

func TestThreadPoolRule(t *testing.T) {
	log := NewTransactionLog()

	// Per-minute load and wait rise together, so correlation is 1.
	for minute := 0; minute < 4; minute++ {
		for j := 0; j <= minute; j++ {
			txn := timedTxn(fmt.Sprintf("%d-%d", minute, j), "A",
				testEpoch.Add(time.Duration(minute)*time.Minute), 100)
			txn.WaitingTime = float64(10 * (minute + 1))
			txn.ProcTime = 100 - txn.WaitingTime
			log.Add(txn)
		}
	}

	causes := log.IdentifyRootCauses(50)

	var pool *RootCause
	for i := range causes {
		if causes[i].Category == CategoryThreadPool {
			pool = &causes[i]
		}
	}
	require.NotNil(t, pool)
	assert.Equal(t, "Insufficient thread pool size", pool.Description)
	assert.Contains(t, pool.Details, "1.00")
}

func TestRootCausesSortedByImpact(t *testing.T) {
	log := NewTransactionLog()

	for i := 0; i < 8; i++ {
		log.Add(finishedTxn(fmt.Sprintf("base%d", i), "Base", 10, 1, 2))
	}
	cpuBound := finishedTxn("cpu", "Cruncher", 1000, 0, 900)
	log.Add(cpuBound)
	dbBound := finishedTxn("db", "Reporter", 1000, 0, 100)
	dbBound.DbTime = 800
	log.Add(dbBound)

	causes := log.IdentifyRootCauses(50)
	require.NotEmpty(t, causes)

	sorted := sort.SliceIsSorted(causes, func(i, j int) bool {
		return causes[i].ImpactScore > causes[j].ImpactScore
	})
	assert.True(t, sorted, "causes must be ordered by descending impact")
}

func TestImpactLevels(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.9, "Critical"},
		{0.8, "Critical"},
		{0.7, "High"},
		{0.5, "Medium"},
		{0.3, "Medium"},
		{0.1, "Low"},
	}

	for _, tt := range tests {
		rc := RootCause{ImpactScore: tt.score}
		assert.Equal(t, tt.want, rc.ImpactLevel(), "score %.2f", tt.score)
	}
}
