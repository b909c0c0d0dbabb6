package housekeeping

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestRunOnceContinuesAfterFailure(t *testing.T) {
	var ran []string
	s := New(zerolog.Nop(), "",
		Task{Name: "a", Run: func(context.Context) (int64, error) { ran = append(ran, "a"); return 0, errors.New("boom") }},
		Task{Name: "b", Run: func(context.Context) (int64, error) { ran = append(ran, "b"); return 3, nil }},
	)
	s.RunOnce(context.Background())
	if len(ran) != 2 || ran[1] != "b" {
		t.Fatalf("ran %v", ran)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := New(zerolog.Nop(), "not a schedule")
	if err := s.Start(); err == nil {
		t.Fatal("expected invalid schedule error")
	}
}

func TestStartStop(t *testing.T) {
	s := New(zerolog.Nop(), "@every 1h")
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	s.Stop()
}
