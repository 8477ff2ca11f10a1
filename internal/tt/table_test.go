package tt

import "testing"

type fakeNode struct {
	visits   int64
	valueSum float64
}

func (n *fakeNode) VisitsAndValueSum() (int64, float64) { return n.visits, n.valueSum }
func (n *fakeNode) AdoptStats(visits int64, valueSum float64) {
	n.visits, n.valueSum = visits, valueSum
}

func TestSyncAdoptsLargerVisitCount(t *testing.T) {
	table := New(1024)
	richer := &fakeNode{visits: 50, valueSum: 30}
	table.Update(0xABCD, 7.5, richer)

	poorer := &fakeNode{visits: 3, valueSum: 1}
	table.Sync(0xABCD, 7.5, poorer)
	if poorer.visits != 50 || poorer.valueSum != 30 {
		t.Fatalf("expected poorer node to adopt richer stats, got visits=%d valueSum=%v", poorer.visits, poorer.valueSum)
	}
}

func TestSyncDoesNotRegressRicherNode(t *testing.T) {
	table := New(1024)
	poorer := &fakeNode{visits: 2, valueSum: 1}
	table.Update(0x1, 0, poorer)

	richer := &fakeNode{visits: 99, valueSum: 50}
	table.Sync(0x1, 0, richer)
	if richer.visits != 99 {
		t.Fatalf("expected richer node to keep its own stats, got visits=%d", richer.visits)
	}
}

func TestDifferentKomiAreDistinctKeys(t *testing.T) {
	table := New(1024)
	table.Update(0x42, 7.5, &fakeNode{visits: 10, valueSum: 5})

	other := &fakeNode{visits: 0, valueSum: 0}
	table.Sync(0x42, 6.5, other)
	if other.visits != 0 {
		t.Fatalf("expected no adoption across different komi, got visits=%d", other.visits)
	}
}

func TestSyncOnMissingKeyIsANoop(t *testing.T) {
	table := New(1024)
	node := &fakeNode{visits: 7, valueSum: 3}
	table.Sync(0xDEAD, 0, node)
	if node.visits != 7 || node.valueSum != 3 {
		t.Fatalf("expected no-op on a missing key, got visits=%d valueSum=%v", node.visits, node.valueSum)
	}
}

func TestLenReflectsUpdates(t *testing.T) {
	table := New(1024)
	if table.Len() != 0 {
		t.Fatalf("expected an empty table, got %d entries", table.Len())
	}
	table.Update(1, 0, &fakeNode{visits: 1})
	table.Update(2, 0, &fakeNode{visits: 1})
	if table.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", table.Len())
	}
}
