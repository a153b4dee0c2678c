package job_test

import (
	"testing"
	"time"

	"github.com/queuectl/queuectl/internal/job"
)

func TestEligiblePending(t *testing.T) {
	j := job.Job{Status: job.Pending}
	if !j.Eligible(time.Now()) {
		t.Fatal("expected pending job to be eligible")
	}
}

func TestEligibleFailedRespectsNextRetryAt(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	j := job.Job{Status: job.Failed, NextRetryAt: &future}
	if j.Eligible(now) {
		t.Fatal("expected job with future next_retry_at to be ineligible")
	}

	past := now.Add(-time.Hour)
	j.NextRetryAt = &past
	if !j.Eligible(now) {
		t.Fatal("expected job with elapsed next_retry_at to be eligible")
	}

	j.NextRetryAt = nil
	if !j.Eligible(now) {
		t.Fatal("expected failed job with no next_retry_at to be eligible")
	}
}

func TestEligibleProcessingAndTerminalStatesAreIneligible(t *testing.T) {
	for _, st := range []job.Status{job.Processing, job.Completed, job.Dead} {
		j := job.Job{Status: st}
		if j.Eligible(time.Now()) {
			t.Fatalf("expected %v to be ineligible", st)
		}
	}
}

func TestStatusRoundTripsThroughText(t *testing.T) {
	for _, st := range job.AllStates() {
		text, err := st.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var got job.Status
		if err := got.UnmarshalText(text); err != nil {
			t.Fatal(err)
		}
		if got != st {
			t.Fatalf("round trip mismatch: got %v, want %v", got, st)
		}
	}
}

func TestParseStatusRejectsUnknown(t *testing.T) {
	if _, err := job.ParseStatus("bogus"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
