package sqlite

import (
	"context"
	"encoding/json"

	"github.com/uptrace/bun"

	"github.com/queuectl/queuectl/internal/queuecfg"
)

// configKeys maps each Config field to its persisted key/value row.
var configKeys = []string{
	"max_retries",
	"backoff_base",
	"worker_poll_interval",
	"job_timeout",
}

func encodeConfig(cfg queuecfg.Config) (map[string]string, error) {
	values := map[string]any{
		"max_retries":          cfg.MaxRetries,
		"backoff_base":         cfg.BackoffBase,
		"worker_poll_interval": cfg.WorkerPollInterval,
		"job_timeout":          cfg.JobTimeout,
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[k] = string(b)
	}
	return out, nil
}

// GetConfig returns the configuration singleton, seeding and persisting
// defaults the first time it is read from a fresh store.
func (s *Store) GetConfig(ctx context.Context) (queuecfg.Config, error) {
	var rows []configModel
	if err := s.db.NewSelect().Model(&rows).Where("key IN (?)", bun.In(configKeys)).Scan(ctx); err != nil {
		return queuecfg.Config{}, err
	}
	if len(rows) == 0 {
		cfg := queuecfg.Default()
		if err := s.PutConfig(ctx, cfg); err != nil {
			return queuecfg.Config{}, err
		}
		return cfg, nil
	}
	raw := make(map[string]string, len(rows))
	for _, r := range rows {
		raw[r.Key] = r.Value
	}
	cfg := queuecfg.Default()
	if v, ok := raw["max_retries"]; ok {
		_ = json.Unmarshal([]byte(v), &cfg.MaxRetries)
	}
	if v, ok := raw["backoff_base"]; ok {
		_ = json.Unmarshal([]byte(v), &cfg.BackoffBase)
	}
	if v, ok := raw["worker_poll_interval"]; ok {
		_ = json.Unmarshal([]byte(v), &cfg.WorkerPollInterval)
	}
	if v, ok := raw["job_timeout"]; ok {
		_ = json.Unmarshal([]byte(v), &cfg.JobTimeout)
	}
	return cfg, nil
}

// PutConfig overwrites the configuration singleton, one row per key.
func (s *Store) PutConfig(ctx context.Context, cfg queuecfg.Config) error {
	encoded, err := encodeConfig(cfg)
	if err != nil {
		return err
	}
	rows := make([]*configModel, 0, len(encoded))
	for k, v := range encoded {
		rows = append(rows, &configModel{Key: k, Value: v})
	}
	_, err = s.db.NewInsert().
		Model(&rows).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Exec(ctx)
	return err
}
