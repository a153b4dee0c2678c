package sqlite

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/queuectl/queuectl/internal/job"
)

// timeLayout is used for every timestamp persisted to or read from the
// jobs table: ISO-8601 UTC with a trailing Z and microsecond precision. SQLite has no native
// timestamp type, so storing a fixed-width, lexicographically ordered
// string keeps ORDER BY created_at correct.
const timeLayout = "2006-01-02T15:04:05.000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// jobModel is the bun row shape for the jobs table. One column per
// Job field.
type jobModel struct {
	bun.BaseModel `bun:"table:jobs"`

	Id      string `bun:"id,pk"`
	Command string `bun:"command,notnull"`

	Status       string  `bun:"state,notnull"`
	Attempts     int     `bun:"attempts,notnull,default:0"`
	MaxRetries   int     `bun:"max_retries,notnull,default:0"`
	TimeoutSecs  *int    `bun:"timeout,nullzero"`
	Priority     int     `bun:"priority,notnull,default:2"`
	ErrorMessage *string `bun:"error_message,nullzero"`

	LockedBy *string `bun:"locked_by,nullzero"`
	LockedAt *string `bun:"locked_at,nullzero"`

	CreatedAt   string  `bun:"created_at,notnull"`
	UpdatedAt   string  `bun:"updated_at,notnull"`
	NextRetryAt *string `bun:"next_retry_at,nullzero"`
}

func toModel(j *job.Job) (*jobModel, error) {
	m := &jobModel{
		Id:           j.Id,
		Command:      j.Command,
		Status:       string(j.Status),
		Attempts:     j.Attempts,
		MaxRetries:   j.MaxRetries,
		Priority:     int(j.Priority),
		ErrorMessage: j.ErrorMessage,
		LockedBy:     j.LockedBy,
		CreatedAt:    formatTime(j.CreatedAt),
		UpdatedAt:    formatTime(j.UpdatedAt),
	}
	if j.Timeout != nil {
		secs := int(j.Timeout.Seconds())
		m.TimeoutSecs = &secs
	}
	if j.LockedAt != nil {
		s := formatTime(*j.LockedAt)
		m.LockedAt = &s
	}
	if j.NextRetryAt != nil {
		s := formatTime(*j.NextRetryAt)
		m.NextRetryAt = &s
	}
	return m, nil
}

func (m *jobModel) toJob() (*job.Job, error) {
	status, err := job.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}
	createdAt, err := parseTime(m.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseTime(m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j := &job.Job{
		Id:           m.Id,
		Command:      m.Command,
		Status:       status,
		Attempts:     m.Attempts,
		MaxRetries:   m.MaxRetries,
		Priority:     job.Priority(m.Priority),
		ErrorMessage: m.ErrorMessage,
		LockedBy:     m.LockedBy,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
	if m.TimeoutSecs != nil {
		d := time.Duration(*m.TimeoutSecs) * time.Second
		j.Timeout = &d
	}
	if m.LockedAt != nil {
		t, err := parseTime(*m.LockedAt)
		if err != nil {
			return nil, err
		}
		j.LockedAt = &t
	}
	if m.NextRetryAt != nil {
		t, err := parseTime(*m.NextRetryAt)
		if err != nil {
			return nil, err
		}
		j.NextRetryAt = &t
	}
	return j, nil
}

// configModel is one row of the key/value configuration table; Value
// is a JSON-encoded scalar per the persisted-state contract.
type configModel struct {
	bun.BaseModel `bun:"table:config"`

	Key   string `bun:"key,pk"`
	Value string `bun:"value,notnull"`
}
