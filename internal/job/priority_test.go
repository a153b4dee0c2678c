package job_test

import (
	"testing"

	"github.com/queuectl/queuectl/internal/job"
)

func TestParsePriorityAcceptsNumeralsAndLabels(t *testing.T) {
	cases := map[string]job.Priority{
		"1":      job.PriorityHigh,
		"2":      job.PriorityMedium,
		"3":      job.PriorityLow,
		"high":   job.PriorityHigh,
		"medium": job.PriorityMedium,
		"low":    job.PriorityLow,
	}
	for in, want := range cases {
		got, err := job.ParsePriority(in)
		if err != nil {
			t.Fatalf("ParsePriority(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParsePriority(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParsePriorityRejectsOutOfRange(t *testing.T) {
	for _, in := range []string{"0", "4", "urgent", ""} {
		if _, err := job.ParsePriority(in); err == nil {
			t.Fatalf("ParsePriority(%q): expected error", in)
		}
	}
}

func TestPriorityString(t *testing.T) {
	if job.PriorityHigh.String() != "high" {
		t.Fatalf("unexpected label: %s", job.PriorityHigh.String())
	}
}
