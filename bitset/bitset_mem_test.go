package bitset

import (
	"testing"
)

func TestBitSetMemHas(t *testing.T) {
	bitset := NewBitSetMem(16)
	bitset.Insert(2)
	bitset.Insert(3)
	bitset.Insert(7)
	if ok, _ := bitset.Has(3); !ok {
		t.Fatalf("should be true at index 3, got %v", ok)
	}
	if ok, _ := bitset.Has(4); ok {
		t.Fatalf("should be false at index 4, got %v", ok)
	}
}

func TestBitSetMemFromData(t *testing.T) {
	bitset := FromDataMem([]uint64{3, 10})
	if ok, _ := bitset.Has(0); !ok {
		t.Fatalf("should be true at index 0, got %v", ok)
	}
	if ok, _ := bitset.Has(1); !ok {
		t.Fatalf("should be true at index 1, got %v", ok)
	}
	if ok, _ := bitset.Has(2); ok {
		t.Fatalf("should be false at index 2, got %v", ok)
	}
	if ok, _ := bitset.Has(65); !ok {
		t.Fatalf("should be true at index 65, got %v", ok)
	}
	if ok, _ := bitset.Has(66); ok {
		t.Fatalf("should be false at index 66, got %v", ok)
	}
}

func TestBitSetMemBitCount(t *testing.T) {
	bitset := FromDataMem([]uint64{3, 10})
	setBits, _ := bitset.BitCount()
	if setBits != 4 {
		t.Fatalf("count of set bits should be 4, got %v", setBits)
	}
}

func TestBitSetMemClear(t *testing.T) {
	bitset := NewBitSetMem(16)
	bitset.Insert(2)
	bitset.Insert(9)
	if err := bitset.Clear(); err != nil {
		t.Fatalf("clear should not error, got %v", err)
	}
	setBits, _ := bitset.BitCount()
	if setBits != 0 {
		t.Fatalf("count of set bits should be 0 after clear, got %v", setBits)
	}
	if bitset.Size() != 16 {
		t.Fatalf("size should survive clear, got %v", bitset.Size())
	}
}

func TestBitSetMemImportExport(t *testing.T) {
	first := NewBitSetMem(128)
	first.Insert(1)
	first.Insert(5)
	first.Insert(100)
	_, data, err := first.Export()
	if err != nil {
		t.Fatalf("export should not error, got %v", err)
	}
	second := NewBitSetMem(128)
	if ok, err := second.Import(data); !ok {
		t.Fatalf("import should not error, got %v", err)
	}
	if ok, _ := first.Equals(second); !ok {
		t.Fatal("imported bitset should equal the exported one")
	}
}

func TestBitSetMemEqualsTypeMismatch(t *testing.T) {
	memSet := NewBitSetMem(8)
	var other IBitSet = &BitSetRedis{}
	if _, err := memSet.Equals(other); err == nil {
		t.Fatal("comparing against a redis bitset should error")
	}
}
