package queuecfg_test

import (
	"testing"

	"github.com/queuectl/queuectl/internal/queuecfg"
)

func TestSetCoercesTypesPerKey(t *testing.T) {
	cfg := queuecfg.Default()

	if err := cfg.Set(queuecfg.KeyMaxRetries, "5"); err != nil {
		t.Fatal(err)
	}
	if cfg.MaxRetries != 5 {
		t.Fatalf("expected MaxRetries=5, got %d", cfg.MaxRetries)
	}

	if err := cfg.Set(queuecfg.KeyWorkerPollInterval, "0.25"); err != nil {
		t.Fatal(err)
	}
	if cfg.WorkerPollInterval != 0.25 {
		t.Fatalf("expected WorkerPollInterval=0.25, got %v", cfg.WorkerPollInterval)
	}
}

func TestSetRejectsUnknownKey(t *testing.T) {
	cfg := queuecfg.Default()
	if err := cfg.Set("not-a-key", "1"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestSetRejectsNegativePollInterval(t *testing.T) {
	cfg := queuecfg.Default()
	if err := cfg.Set(queuecfg.KeyWorkerPollInterval, "-1"); err == nil {
		t.Fatal("expected error for negative poll interval")
	}
}

func TestSetRejectsSubOneBackoffBase(t *testing.T) {
	cfg := queuecfg.Default()
	if err := cfg.Set(queuecfg.KeyBackoffBase, "0"); err == nil {
		t.Fatal("expected error for backoff_base < 1")
	}
}
