package data

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrors_Collects(t *testing.T) {
	collected := Errors{}

	collected.Add(nil)
	if err := collected.Errors(); err != nil {
		t.Fatalf("empty collector returned %v", err)
	}

	first := fmt.Errorf("%w: /mnt", ErrMountBusy)
	second := fmt.Errorf("%w: /data", ErrNotMounted)
	collected.Add(first)
	collected.Add(nil)
	collected.Add(second)

	err := collected.Errors()
	if err == nil {
		t.Fatal("expected joined error")
	}
	if !errors.Is(err, ErrMountBusy) || !errors.Is(err, ErrNotMounted) {
		t.Errorf("joined error %v lost its parts", err)
	}
}
