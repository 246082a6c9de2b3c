package txn

import (
	"sort"
	"time"
)

// TransactionLog is an ordered, ID-deduplicated collection of transactions.
// It performs no computation of its own; the analysis functions in this
// package treat it as an immutable snapshot.
type TransactionLog struct {
	Transactions []*Transaction
	SourceFiles  []string

	ids map[string]bool
}

func NewTransactionLog() *TransactionLog {
	return &TransactionLog{ids: make(map[string]bool)}
}

// Add appends a transaction unless one with the same ID is already present.
// Identity is keyed solely on ID.
func (l *TransactionLog) Add(t *Transaction) bool {
	if t.ID != "" {
		if l.ids == nil {
			l.ids = make(map[string]bool)
		}
		if l.ids[t.ID] {
			return false
		}
		l.ids[t.ID] = true
	}
	l.Transactions = append(l.Transactions, t)
	return true
}

func (l *TransactionLog) Len() int {
	return len(l.Transactions)
}

// SortByStartTime orders transactions chronologically; records without a
// start time sort first. The sort is stable so input order breaks ties.
func (l *TransactionLog) SortByStartTime() {
	sort.SliceStable(l.Transactions, func(i, j int) bool {
		return l.Transactions[i].StartTime.Before(l.Transactions[j].StartTime)
	})
}

// Finished returns the transactions eligible for statistical analysis,
// preserving collection order.
func (l *TransactionLog) Finished() []*Transaction {
	var finished []*Transaction
	for _, t := range l.Transactions {
		if t.IsFinished() {
			finished = append(finished, t)
		}
	}
	return finished
}

// TimeRange returns the earliest start and latest end across transactions
// that carry timestamps. Both are zero when no transaction has one.
func (l *TransactionLog) TimeRange() (start, end time.Time) {
	for _, t := range l.Transactions {
		if t.StartTime.IsZero() {
			continue
		}
		if start.IsZero() || t.StartTime.Before(start) {
			start = t.StartTime
		}
		if e := t.End(); !e.IsZero() && e.After(end) {
			end = e
		}
	}
	return start, end
}
