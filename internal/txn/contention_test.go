package txn

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// timedTxn builds a finished transaction with an explicit execution window.
func timedTxn(id, kind string, start time.Time, lengthMs float64) *Transaction {
	return &Transaction{
		ID:        id,
		Kind:      kind,
		Status:    StatusFinished,
		StartTime: start,
		Length:    lengthMs,
	}
}

func TestCausingWaits(t *testing.T) {
	t.Run("annotates blocker with wait count and total", func(t *testing.T) {
		log := NewTransactionLog()

		blocker := timedTxn("A", "Heavy", testEpoch, 10)
		blocker.ProcTime = 10

		victim := timedTxn("B", "Light", testEpoch.Add(5*time.Millisecond), 5)
		victim.WaitingTime = 5

		log.Add(blocker)
		log.Add(victim)

		annotations := log.CausingWaits(10)
		require.Len(t, annotations, 1)
		assert.Equal(t, "A", annotations[0].Txn.ID)
		assert.Equal(t, 1, annotations[0].WaitCount)
		assert.Equal(t, "Caused 1 waits, total wait time: 5.0", annotations[0].Details())
	})

	t.Run("boundary starts are excluded", func(t *testing.T) {
		log := NewTransactionLog()

		blocker := timedTxn("A", "Heavy", testEpoch, 10)
		blocker.ProcTime = 10

		// Starts exactly when the blocker starts and exactly when it ends.
		atStart := timedTxn("B", "Light", testEpoch, 5)
		atStart.WaitingTime = 5
		atEnd := timedTxn("C", "Light", testEpoch.Add(10*time.Millisecond), 5)
		atEnd.WaitingTime = 5

		log.Add(blocker)
		log.Add(atStart)
		log.Add(atEnd)

		assert.Empty(t, log.CausingWaits(10))
	})

	t.Run("stops after limit qualifying blockers", func(t *testing.T) {
		log := NewTransactionLog()
		for i := 0; i < 5; i++ {
			blocker := timedTxn(fmt.Sprintf("blocker-%d", i), "Heavy",
				testEpoch.Add(time.Duration(i)*time.Minute), 1000)
			blocker.ProcTime = float64(1000 - i)
			log.Add(blocker)

			victim := timedTxn(fmt.Sprintf("victim-%d", i), "Light",
				testEpoch.Add(time.Duration(i)*time.Minute+time.Millisecond), 10)
			victim.WaitingTime = 1
			log.Add(victim)
		}

		annotations := log.CausingWaits(2)
		require.Len(t, annotations, 2)
		// Descending proc time, first found first kept.
		assert.Equal(t, "blocker-0", annotations[0].Txn.ID)
		assert.Equal(t, "blocker-1", annotations[1].Txn.ID)
	})

	t.Run("source records never mutated", func(t *testing.T) {
		log := NewTransactionLog()
		blocker := timedTxn("A", "Heavy", testEpoch, 10)
		blocker.ProcTime = 10
		victim := timedTxn("B", "Light", testEpoch.Add(5*time.Millisecond), 5)
		victim.WaitingTime = 5
		log.Add(blocker)
		log.Add(victim)

		log.CausingWaits(10)
		assert.Empty(t, blocker.Details)
	})
}

func TestMaxConcurrent(t *testing.T) {
	tests := []struct {
		name string
		txns []*Transaction
		want int
	}{
		{
			name: "disjoint intervals",
			txns: []*Transaction{
				timedTxn("1", "A", testEpoch, 10),
				timedTxn("2", "A", testEpoch.Add(20*time.Millisecond), 10),
			},
			want: 1,
		},
		{
			name: "nested intervals",
			txns: []*Transaction{
				timedTxn("1", "A", testEpoch, 100),
				timedTxn("2", "A", testEpoch.Add(10*time.Millisecond), 10),
				timedTxn("3", "A", testEpoch.Add(15*time.Millisecond), 2),
			},
			want: 3,
		},
		{
			name: "touching intervals count as overlapping",
			txns: []*Transaction{
				timedTxn("1", "A", testEpoch, 10),
				timedTxn("2", "A", testEpoch.Add(10*time.Millisecond), 10),
			},
			want: 2,
		},
		{
			name: "empty",
			txns: nil,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := NewTransactionLog()
			for _, txn := range tt.txns {
				log.Add(txn)
			}
			assert.Equal(t, tt.want, log.MaxConcurrent())
		})
	}
}

func TestBlockingKinds(t *testing.T) {
	log := NewTransactionLog()

	victim := timedTxn("V", "Victim", testEpoch.Add(5*time.Millisecond), 5)
	victim.WaitingTime = 100

	blocker := timedTxn("B1", "Bulk", testEpoch, 10)
	idle := timedTxn("B2", "Idle", testEpoch.Add(time.Hour), 10)

	log.Add(victim)
	log.Add(blocker)
	log.Add(idle)

	blocking := log.BlockingKinds(50)
	require.Len(t, blocking, 1)
	assert.Equal(t, "Bulk", blocking[0].Kind)
	assert.Equal(t, 1.0, blocking[0].Total)

	assert.Equal(t, "Bulk", log.MostBlockingKind(50))
}

func TestCountWaitCorrelation(t *testing.T) {
	t.Run("perfect positive correlation", func(t *testing.T) {
		log := NewTransactionLog()

		add := func(id string, minute int, wait float64) {
			txn := timedTxn(id, "A", testEpoch.Add(time.Duration(minute)*time.Minute), 1)
			txn.WaitingTime = wait
			log.Add(txn)
		}

		add("1", 0, 10)
		add("2", 1, 15)
		add("3", 1, 25)
		add("4", 2, 30)
		add("5", 2, 30)
		add("6", 2, 30)

		assert.InDelta(t, 1.0, log.CountWaitCorrelation(), 1e-9)
	})

	t.Run("zero variance yields zero", func(t *testing.T) {
		log := NewTransactionLog()
		for i := 0; i < 3; i++ {
			txn := timedTxn(fmt.Sprintf("%d", i), "A", testEpoch.Add(time.Duration(i)*time.Minute), 1)
			txn.WaitingTime = 5
			log.Add(txn)
		}
		assert.Zero(t, log.CountWaitCorrelation())
	})

	t.Run("empty yields zero", func(t *testing.T) {
		assert.Zero(t, NewTransactionLog().CountWaitCorrelation())
	})

	t.Run("always bounded", func(t *testing.T) {
		log := NewTransactionLog()
		waits := []float64{3, 99, 0, 42, 7, 18}
		for i, w := range waits {
			for j := 0; j <= i; j++ {
				txn := timedTxn(fmt.Sprintf("%d-%d", i, j), "A",
					testEpoch.Add(time.Duration(i)*time.Minute), 1)
				txn.WaitingTime = w
				log.Add(txn)
			}
		}
		corr := log.CountWaitCorrelation()
		assert.GreaterOrEqual(t, corr, -1.0)
		assert.LessOrEqual(t, corr, 1.0)
	})
}

func TestActiveThreadCount(t *testing.T) {
	log := NewTransactionLog()

	a := finishedTxn("1", "A", 100, 0, 0)
	a.Thread = "worker-1"
	b := finishedTxn("2", "A", 100, 0, 0)
	b.Thread = "worker-2"
	c := finishedTxn("3", "A", 100, 0, 0)
	c.Thread = "worker-1"
	anon := finishedTxn("4", "A", 100, 0, 0)

	log.Add(a)
	log.Add(b)
	log.Add(c)
	log.Add(anon)

	assert.Equal(t, 2, log.ActiveThreadCount())
}

func TestWaitToProcessingRatio(t *testing.T) {
	t.Run("ratio over finished set", func(t *testing.T) {
		log := NewTransactionLog()
		log.Add(finishedTxn("1", "A", 100, 30, 60))
		log.Add(finishedTxn("2", "A", 100, 10, 20))
		assert.InDelta(t, 0.5, log.WaitToProcessingRatio(), 1e-9)
	})

	t.Run("zero processing guards to zero", func(t *testing.T) {
		log := NewTransactionLog()
		log.Add(finishedTxn("1", "A", 100, 30, 0))
		assert.Zero(t, log.WaitToProcessingRatio())
	})
}

func TestResourceUtilization(t *testing.T) {
	log := NewTransactionLog()
	txn := finishedTxn("1", "A", 100, 10, 20)
	txn.FuncTime = 30
	txn.DbTime = 25
	txn.StreamTime = 15
	log.Add(txn)

	totals := log.ResourceUtilization()
	require.Len(t, totals, 5)

	assert.Equal(t, ComponentTotal{CompWaiting, 10}, totals[0])
	assert.Equal(t, ComponentTotal{CompProcessing, 20}, totals[1])
	assert.Equal(t, ComponentTotal{CompFunction, 30}, totals[2])
	assert.Equal(t, ComponentTotal{CompDatabase, 25}, totals[3])
	assert.Equal(t, ComponentTotal{CompStream, 15}, totals[4])
}

func TestMinuteSeries(t *testing.T) {
	log := NewTransactionLog()

	first := timedTxn("1", "A", testEpoch.Add(30*time.Second), 1)
	first.WaitingTime = 10
	second := timedTxn("2", "A", testEpoch.Add(45*time.Second), 1)
	second.WaitingTime = 20
	later := timedTxn("3", "A", testEpoch.Add(5*time.Minute), 1)
	later.WaitingTime = 30
	untimed := finishedTxn("4", "A", 100, 40, 0)

	log.Add(later)
	log.Add(first)
	log.Add(second)
	log.Add(untimed)

	points := log.MinuteSeries()
	require.Len(t, points, 2)

	assert.Equal(t, testEpoch.Truncate(time.Minute), points[0].Minute)
	assert.Equal(t, 2, points[0].Count)
	assert.InDelta(t, 15.0, points[0].MeanWait, 1e-9)

	assert.Equal(t, 1, points[1].Count)
	assert.InDelta(t, 30.0, points[1].MeanWait, 1e-9)
}
