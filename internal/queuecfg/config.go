// Package queuecfg defines the runtime-tunable configuration singleton
// read by workers on every poll iteration and written by the "config
// set" control-surface command.
package queuecfg

import (
	"fmt"
	"strconv"
)

// Config is the configuration singleton described in the data model.
// Workers re-read it once per loop iteration so operators can retune
// backoff, timeouts, and poll interval without restarting workers.
type Config struct {
	MaxRetries         int
	BackoffBase        int
	WorkerPollInterval float64
	JobTimeout         int
}

// Default returns the documented defaults.
func Default() Config {
	return Config{
		MaxRetries:         3,
		BackoffBase:        2,
		WorkerPollInterval: 1.0,
		JobTimeout:         300,
	}
}

// Keys recognized by "config set", mapped to their CLI spelling.
const (
	KeyMaxRetries         = "max-retries"
	KeyBackoffBase        = "backoff-base"
	KeyWorkerPollInterval = "worker-poll-interval"
	KeyJobTimeout         = "job-timeout"
)

// Set applies a textual KEY VALUE pair from "config set", coercing the
// value to the key's native type and rejecting unknown keys or
// out-of-range values (a negative poll interval, for instance).
func (c *Config) Set(key, value string) error {
	switch key {
	case KeyMaxRetries:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid value for %s: %q must be a non-negative integer", key, value)
		}
		c.MaxRetries = n
	case KeyBackoffBase:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid value for %s: %q must be an integer >= 1", key, value)
		}
		c.BackoffBase = n
	case KeyWorkerPollInterval:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid value for %s: %q must be a non-negative number", key, value)
		}
		c.WorkerPollInterval = f
	case KeyJobTimeout:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid value for %s: %q must be an integer >= 1", key, value)
		}
		c.JobTimeout = n
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}
