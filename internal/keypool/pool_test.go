package keypool

import "testing"

func TestParse(t *testing.T) {
	pool := Parse(" keyA, keyB ,,keyA,keyC ")
	if pool.Len() != 3 {
		t.Errorf("Expected 3 unique credentials, got %d", pool.Len())
	}
	order := pool.NextOrder()
	if order[0] != "keyA" || order[1] != "keyB" || order[2] != "keyC" {
		t.Errorf("Unexpected initial order: %v", order)
	}
}

func TestEmptyPool(t *testing.T) {
	pool := Parse("  ,, ")
	if pool.Len() != 0 {
		t.Errorf("Expected empty pool, got %d", pool.Len())
	}
	if order := pool.NextOrder(); len(order) != 0 {
		t.Errorf("Expected empty order, got %v", order)
	}
	// Marks on an empty pool must not panic
	pool.MarkSuccess("keyA")
	pool.MarkFailure("keyA")
}

func TestNextOrderWrapsAround(t *testing.T) {
	pool := New([]Credential{"a", "b", "c"})
	pool.MarkSuccess("b") // cursor now at c

	order := pool.NextOrder()
	if len(order) != 3 {
		t.Fatalf("Expected full order, got %v", order)
	}
	if order[0] != "c" || order[1] != "a" || order[2] != "b" {
		t.Errorf("Expected order starting past b, got %v", order)
	}
}

func TestFullCycleReturnsToStart(t *testing.T) {
	pool := New([]Credential{"a", "b", "c", "d"})
	start := pool.NextOrder()

	// N consecutive marks walk the cursor through a full cycle
	for _, c := range start {
		pool.MarkFailure(c)
	}

	after := pool.NextOrder()
	for i := range start {
		if start[i] != after[i] {
			t.Fatalf("Expected cursor back at start, got %v vs %v", start, after)
		}
	}
}

func TestSingleCredentialRotation(t *testing.T) {
	pool := New([]Credential{"only"})
	pool.MarkSuccess("only")
	order := pool.NextOrder()
	if len(order) != 1 || order[0] != "only" {
		t.Errorf("Expected single-credential pool to stay on it, got %v", order)
	}
}

func TestMarkUnknownCredentialKeepsCursor(t *testing.T) {
	pool := New([]Credential{"a", "b"})
	pool.MarkSuccess("a")
	pool.MarkFailure("not-in-pool")

	order := pool.NextOrder()
	if order[0] != "b" {
		t.Errorf("Cursor should be unchanged by unknown credential, got %v", order)
	}
}

func TestNextOrderIsSnapshot(t *testing.T) {
	pool := New([]Credential{"a", "b"})
	order := pool.NextOrder()
	pool.MarkSuccess("a")
	if order[0] != "a" {
		t.Error("Snapshot must not reflect later cursor movement")
	}
}
