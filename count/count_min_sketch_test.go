package count

import (
	"errors"
	"reflect"
	"testing"

	"github.com/newsketch/newsketch"
)

func TestCountMinSketchBasic(t *testing.T) {
	cms, _ := NewCountMinSketch(4, 2048)
	e1 := []byte("tech")
	e2 := []byte("sports")
	e3 := []byte("weather")
	cms.UpdateOnce(e1)
	cms.UpdateOnce(e1)
	cms.UpdateOnce(e2)
	c1 := cms.Count(e1)
	c2 := cms.Count(e2)
	c3 := cms.Count(e3)
	if c1 != 2 {
		t.Errorf("count of e1 should be 2, found %d", c1)
	}
	if c2 != 1 {
		t.Errorf("count of e2 should be 1, found %d", c2)
	}
	if c3 != 0 {
		t.Errorf("count of e3 should be 0, found %d", c3)
	}
}

func TestCountMinSketchNeverUndercounts(t *testing.T) {
	cms, _ := NewCountMinSketch(4, 32)
	truth := map[string]uint64{"tech": 5, "sports": 2, "world": 9, "health": 1}
	for category, n := range truth {
		for i := uint64(0); i < n; i++ {
			cms.UpdateString(category, 1)
		}
	}
	for category, n := range truth {
		if got := cms.CountString(category); got < n {
			t.Errorf("estimate of %q is %d, should never be below the true count %d", category, got, n)
		}
	}
	if cms.TotalCount() != 17 {
		t.Errorf("total count should be 17, got %d", cms.TotalCount())
	}
}

func TestCountMinSketchInvalidParameters(t *testing.T) {
	if _, err := NewCountMinSketch(0, 10); !errors.Is(err, newsketch.ErrInvalidParameter) {
		t.Errorf("zero rows should be an invalid parameter, got %v", err)
	}
	if _, err := NewCountMinSketch(10, 0); !errors.Is(err, newsketch.ErrInvalidParameter) {
		t.Errorf("zero columns should be an invalid parameter, got %v", err)
	}
	if _, err := NewCountMinSketchWithSeeds(3, 10, []uint64{1}); !errors.Is(err, newsketch.ErrInvalidParameter) {
		t.Errorf("seed count mismatch should be an invalid parameter, got %v", err)
	}
}

func TestCountMinSketchDeterministicWithSeeds(t *testing.T) {
	seeds := []uint64{11, 23, 47}
	cms1, _ := NewCountMinSketchWithSeeds(3, 64, seeds)
	cms2, _ := NewCountMinSketchWithSeeds(3, 64, seeds)

	for _, category := range []string{"tech", "tech", "world", "sports", "tech"} {
		cms1.UpdateString(category, 1)
		cms2.UpdateString(category, 1)
	}

	state1, _ := cms1.Export()
	state2, _ := cms2.Export()
	if !reflect.DeepEqual(state1, state2) {
		t.Error("same seeds and same adds should produce bit-identical state")
	}
}

func TestCountMinSketchClear(t *testing.T) {
	seeds := []uint64{3, 5}
	cms, _ := NewCountMinSketchWithSeeds(2, 32, seeds)
	cms.UpdateString("tech", 4)
	cms.Clear()
	if got := cms.CountString("tech"); got != 0 {
		t.Errorf("count should be 0 after clear, got %d", got)
	}
	if cms.TotalCount() != 0 {
		t.Errorf("total count should be 0 after clear, got %d", cms.TotalCount())
	}
	// Seeds survive Clear: re-adding reproduces the old positions.
	cms.UpdateString("tech", 4)
	fresh, _ := NewCountMinSketchWithSeeds(2, 32, seeds)
	fresh.UpdateString("tech", 4)
	if !cms.Equals(fresh) {
		t.Error("cleared sketch should behave like a fresh one with the same seeds")
	}
}

func TestCountMinSketchMerge(t *testing.T) {
	seeds := []uint64{7, 13, 29}
	cms1, _ := NewCountMinSketchWithSeeds(3, 128, seeds)
	cms2, _ := NewCountMinSketchWithSeeds(3, 128, seeds)

	cms1.UpdateString("tech", 3)
	cms1.UpdateString("world", 1)
	cms2.UpdateString("tech", 1)
	cms2.UpdateString("sports", 2)

	if err := cms1.Merge(cms2); err != nil {
		t.Fatalf("merge should not error, got %v", err)
	}
	if got := cms1.CountString("tech"); got < 4 {
		t.Errorf("count of \"tech\" should be at least 4 after merge, found %d", got)
	}
	if got := cms1.CountString("sports"); got < 2 {
		t.Errorf("count of \"sports\" should be at least 2 after merge, found %d", got)
	}
	if cms1.TotalCount() != 7 {
		t.Errorf("total count should be 7 after merge, got %d", cms1.TotalCount())
	}
}

func TestCountMinSketchMergeError(t *testing.T) {
	cms1, _ := NewCountMinSketch(2, 64)
	cms2, _ := NewCountMinSketch(4, 64)
	if err := cms1.Merge(cms2); err == nil {
		t.Error("it should error out as cms1 and cms2 have different row counts")
	}
	cms3, _ := NewCountMinSketch(2, 64)
	if err := cms1.Merge(cms3); err == nil {
		t.Error("it should error out as cms1 and cms3 drew different seeds")
	}
}

func TestCountMinSketchImportExport(t *testing.T) {
	cms1, _ := NewCountMinSketchWithSeeds(3, 64, []uint64{101, 103, 107})
	cms1.UpdateString("tech", 3)
	cms1.UpdateString("world", 1)

	state, _ := cms1.Export()

	cms2, _ := NewCountMinSketch(1, 1)
	if err := cms2.Import(state); err != nil {
		t.Fatalf("import should not error, got %v", err)
	}
	if !cms1.Equals(cms2) {
		t.Error("cms1 and cms2 should be equal")
	}
	if got := cms2.CountString("tech"); got != 3 {
		t.Errorf("imported sketch should estimate 3 for \"tech\", got %d", got)
	}
}

func TestCountMinSketchFromEstimates(t *testing.T) {
	cms, err := NewCountMinSketchFromEstimates(0.01, 0.001)
	if err != nil {
		t.Fatalf("valid estimates should not error, got %v", err)
	}
	if cms.GetColumns() != 272 {
		t.Errorf("columns should be ceil(e/0.01) = 272, got %d", cms.GetColumns())
	}
	if cms.GetRows() != 7 {
		t.Errorf("rows should be ceil(ln(1000)) = 7, got %d", cms.GetRows())
	}
	if _, err := NewCountMinSketchFromEstimates(0, 0.5); !errors.Is(err, newsketch.ErrInvalidParameter) {
		t.Errorf("zero error rate should be an invalid parameter, got %v", err)
	}
}
