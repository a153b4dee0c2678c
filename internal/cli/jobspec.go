package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/queuectl/queuectl/internal/job"
	"github.com/queuectl/queuectl/internal/queuecfg"
)

// priorityText accepts a priority as either a JSON number (1-3) or a
// JSON string ("high"/"medium"/"low" or a numeral), normalizing both
// to the textual form job.ParsePriority understands.
type priorityText string

func (p *priorityText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = priorityText(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("priority must be a number 1-3 or a label")
	}
	*p = priorityText(strconv.Itoa(n))
	return nil
}

// jobSpec is the JSON shape accepted by "enqueue": a literal object or
// the contents of a file referenced by "@path".
type jobSpec struct {
	ID         string        `json:"id"`
	Command    string        `json:"command"`
	Priority   *priorityText `json:"priority"`
	Timeout    *int          `json:"timeout"`
	MaxRetries *int          `json:"max_retries"`
}

// parseJobSpec reads a literal JSON object or, when raw begins with "@",
// the JSON file it names.
func parseJobSpec(raw string) (jobSpec, error) {
	var spec jobSpec
	data := []byte(raw)
	if strings.HasPrefix(raw, "@") {
		path := strings.TrimPrefix(raw, "@")
		b, err := os.ReadFile(path)
		if err != nil {
			return spec, fmt.Errorf("read job spec file %s: %w", path, err)
		}
		data = b
	}
	if err := json.Unmarshal(data, &spec); err != nil {
		return spec, fmt.Errorf("invalid job spec JSON: %w", err)
	}
	if spec.ID == "" {
		return spec, fmt.Errorf("job spec is missing required field %q", "id")
	}
	if spec.Command == "" {
		return spec, fmt.Errorf("job spec is missing required field %q", "command")
	}
	if spec.Timeout != nil && *spec.Timeout <= 0 {
		return spec, fmt.Errorf("invalid timeout %d: must be a positive number of seconds", *spec.Timeout)
	}
	if spec.MaxRetries != nil && *spec.MaxRetries < 0 {
		return spec, fmt.Errorf("invalid max_retries %d: must be non-negative", *spec.MaxRetries)
	}
	return spec, nil
}

// toJob fills in defaults (priority=medium, max_retries=config.MaxRetries,
// timeout=nil) for any field the spec and the --priority/--timeout flags
// left unset.
func (s jobSpec) toJob(cfg queuecfg.Config, flagPriority string, flagTimeout *int) (*job.Job, error) {
	now := time.Now().UTC()
	j := &job.Job{
		Id:         s.ID,
		Command:    s.Command,
		Status:     job.Pending,
		Priority:   job.PriorityMedium,
		MaxRetries: cfg.MaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	prio := flagPriority
	if prio == "" && s.Priority != nil {
		prio = string(*s.Priority)
	}
	if prio != "" {
		p, err := job.ParsePriority(prio)
		if err != nil {
			return nil, err
		}
		j.Priority = p
	}

	if flagTimeout != nil {
		d := time.Duration(*flagTimeout) * time.Second
		j.Timeout = &d
	} else if s.Timeout != nil {
		d := time.Duration(*s.Timeout) * time.Second
		j.Timeout = &d
	}

	if s.MaxRetries != nil {
		j.MaxRetries = *s.MaxRetries
	}

	return j, nil
}
