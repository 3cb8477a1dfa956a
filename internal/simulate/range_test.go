package simulate

import (
	"math"
	"reflect"
	"testing"
)

func TestSplitRange(t *testing.T) {
	got, err := SplitRange(1, 7, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []LineRange{
		{From: 1, To: 3},
		{From: 4, To: 6},
		{From: 7, To: 7},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ranges mismatch: %+v != %+v", got, want)
	}
}

func TestSplitRangeSingle(t *testing.T) {
	got, err := SplitRange(5, 5, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []LineRange{{From: 5, To: 5}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ranges mismatch: %+v != %+v", got, want)
	}
}

func TestSplitRangeEndsAtMax(t *testing.T) {
	got, err := SplitRange(math.MaxUint64-2, math.MaxUint64, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []LineRange{
		{From: math.MaxUint64 - 2, To: math.MaxUint64 - 1},
		{From: math.MaxUint64, To: math.MaxUint64},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ranges mismatch: %+v != %+v", got, want)
	}
}

func TestSplitRangeInvalid(t *testing.T) {
	if _, err := SplitRange(10, 9, 1); err == nil {
		t.Fatalf("expected error for invalid range")
	}
	if _, err := SplitRange(1, 10, 0); err == nil {
		t.Fatalf("expected error for zero batch size")
	}
}
