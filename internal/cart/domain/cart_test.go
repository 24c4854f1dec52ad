package domain

import (
	"reflect"
	"testing"
)

func TestAddMergesLines(t *testing.T) {
	c := Empty()
	c.Add(7, 2)
	c.Add(7, 3)

	if len(c.Items) != 1 {
		t.Fatalf("expected single line, got %d", len(c.Items))
	}
	if got := c.Quantity(7); got != 5 {
		t.Fatalf("expected quantity 5, got %d", got)
	}
}

func TestSetQuantity(t *testing.T) {
	t.Run("overwrites existing line", func(t *testing.T) {
		c := Empty()
		c.Add(7, 2)
		c.Set(7, 9)
		if got := c.Quantity(7); got != 9 {
			t.Fatalf("expected quantity 9, got %d", got)
		}
	})

	t.Run("zero or less removes the line", func(t *testing.T) {
		c := Empty()
		c.Add(7, 2)
		c.Set(7, 0)
		if !c.IsEmpty() {
			t.Fatalf("expected empty cart, got %+v", c)
		}

		c.Add(7, 2)
		c.Set(7, -4)
		if !c.IsEmpty() {
			t.Fatalf("expected empty cart after negative set, got %+v", c)
		}
	})

	t.Run("inserts when absent", func(t *testing.T) {
		c := Empty()
		c.Set(3, 4)
		if got := c.Quantity(3); got != 4 {
			t.Fatalf("expected quantity 4, got %d", got)
		}
	})
}

func TestNetEffectOfSequence(t *testing.T) {
	c := Empty()
	c.Add(1, 2)
	c.Add(2, 1)
	c.Add(1, 3)
	c.Set(2, 5)
	c.Remove(1)
	c.Add(3, 1)
	c.Set(3, 0)

	want := Cart{Items: []Line{{ProductID: 2, Quantity: 5}}}
	if !reflect.DeepEqual(c, want) {
		t.Fatalf("expected %+v, got %+v", want, c)
	}
}

func TestRemoveMissingIsNoop(t *testing.T) {
	c := Empty()
	c.Add(1, 1)
	c.Remove(99)
	if got := c.Quantity(1); got != 1 {
		t.Fatalf("expected untouched line, got quantity %d", got)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := Empty()
	c.Add(7, 2)
	c.Add(12, 1)

	got := Decode(c.Encode())
	if !reflect.DeepEqual(got, c) {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, c)
	}
}

func TestDecodeBadRecords(t *testing.T) {
	cases := map[string][]byte{
		"nil":        nil,
		"empty":      {},
		"not json":   []byte("{{{"),
		"wrong type": []byte(`{"items": 42}`),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			c := Decode(raw)
			if !c.IsEmpty() {
				t.Fatalf("expected empty cart, got %+v", c)
			}
			if c.Items == nil {
				t.Fatal("expected non-nil items slice")
			}
		})
	}
}

func TestItemCount(t *testing.T) {
	c := Empty()
	if got := c.ItemCount(); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	c.Add(1, 2)
	c.Add(2, 3)
	if got := c.ItemCount(); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	c := Empty()
	c.Add(1, 1)

	clone := c.Clone()
	clone.Add(1, 5)

	if got := c.Quantity(1); got != 1 {
		t.Fatalf("clone mutation leaked into original: quantity %d", got)
	}
}
