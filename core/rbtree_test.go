package core

import "testing"

func TestRBTreeInsertFindDelete(t *testing.T) {
	tree := newRBTree()
	l1 := tree.GetOrCreate(100)
	if l1 == nil {
		t.Fatal("GetOrCreate failed")
	}
	if l2 := tree.Find(100); l2 != l1 {
		t.Error("Find did not return the same PriceLevel")
	}

	tree.GetOrCreate(200)
	if tree.BestMin().Price != 100 {
		t.Error("expected min=100")
	}
	if tree.BestMax().Price != 200 {
		t.Error("expected max=200")
	}

	tree.Delete(100)
	if tree.Find(100) != nil {
		t.Error("expected level 100 to be gone")
	}
}

func TestRBTreeDeleteNonexistent(t *testing.T) {
	tree := newRBTree()
	tree.Delete(123) // must not panic
	if tree.Find(123) != nil {
		t.Error("expected nil for a level never created")
	}
}

func TestRBTreeEmptyMinMax(t *testing.T) {
	tree := newRBTree()
	if tree.BestMin() != nil || tree.BestMax() != nil {
		t.Error("expected nil min/max on empty tree")
	}
}

func TestRBTreeGetOrCreateIdempotent(t *testing.T) {
	tree := newRBTree()
	l1 := tree.GetOrCreate(150)
	l2 := tree.GetOrCreate(150)
	if l1 != l2 {
		t.Error("GetOrCreate should return the same level for a repeated price")
	}
}

func TestRBTreeOrderedWalk(t *testing.T) {
	tree := newRBTree()
	prices := []int64{50, 10, 70, 30, 90, 20, 60}
	for _, p := range prices {
		tree.GetOrCreate(p)
	}

	var asc []int64
	tree.walkAsc(func(lvl *PriceLevel) bool {
		asc = append(asc, lvl.Price)
		return true
	})
	for i := 1; i < len(asc); i++ {
		if asc[i] <= asc[i-1] {
			t.Fatalf("walkAsc not ordered: %v", asc)
		}
	}

	var desc []int64
	tree.walkDesc(func(lvl *PriceLevel) bool {
		desc = append(desc, lvl.Price)
		return true
	})
	for i := 1; i < len(desc); i++ {
		if desc[i] >= desc[i-1] {
			t.Fatalf("walkDesc not ordered: %v", desc)
		}
	}
}

// TestRBTreeManyInsertsDeletes exercises fixup code paths that only trigger
// at non-trivial size, under both ascending and random-ish insert/delete
// orders.
func TestRBTreeManyInsertsDeletes(t *testing.T) {
	tree := newRBTree()
	n := 500
	for i := 0; i < n; i++ {
		p := int64((i*37 + 11) % 997)
		tree.GetOrCreate(p)
	}
	for i := 0; i < n; i += 2 {
		p := int64((i*37 + 11) % 997)
		tree.Delete(p)
	}
	var count int
	tree.walkAsc(func(*PriceLevel) bool { count++; return true })
	if count == 0 {
		t.Fatal("expected surviving levels after partial delete")
	}
}
