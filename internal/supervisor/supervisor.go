// Package supervisor owns the OS process lifecycle of worker-loop child
// processes: spawning them, tracking their PIDs across CLI invocations in
// a sidecar file, and stopping them gracefully or forcibly. It never
// reads or writes jobs.
package supervisor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

const (
	// DefaultSidecarPath is where Start persists tracked worker PIDs
	// when the caller does not override it.
	DefaultSidecarPath = ".queuectl_workers.pid"

	startGrace       = 500 * time.Millisecond
	stopPollInterval = time.Second
	stopTimeout      = 10 * time.Second
)

// ErrAlreadyRunning is returned by Start when at least one tracked
// worker is still alive; Start refuses to spawn a second generation.
var ErrAlreadyRunning = errors.New("supervisor: workers already running")

// Supervisor spawns, tracks, and signals worker processes. Each child is
// a re-exec of the same binary running the hidden "worker run" subcommand
// against dbPath.
type Supervisor struct {
	sidecarPath string
	binary      string
	dbPath      string
}

// New constructs a Supervisor. binary is normally the running
// executable's path, as returned by os.Executable; dbPath is
// the store path every spawned worker will open.
func New(sidecarPath, binary, dbPath string) *Supervisor {
	return &Supervisor{sidecarPath: sidecarPath, binary: binary, dbPath: dbPath}
}

// Worker describes one child process Start successfully spawned.
type Worker struct {
	ID  string
	PID int
}

// Status reports OS-level metrics for one tracked, still-alive child.
type Status struct {
	ID         string
	PID        int32
	State      string
	CPUPercent float64
	MemoryMiB  float64
	StartedAt  time.Time
}

func (s *Supervisor) readPIDs() ([]int, error) {
	data, err := os.ReadFile(s.sidecarPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var pids []int
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pid, err := strconv.Atoi(line)
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

func (s *Supervisor) writePIDs(pids []int) error {
	if len(pids) == 0 {
		return removeIfExists(s.sidecarPath)
	}
	var b strings.Builder
	for _, pid := range pids {
		fmt.Fprintf(&b, "%d\n", pid)
	}
	return os.WriteFile(s.sidecarPath, []byte(b.String()), 0o644)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// Start refuses with ErrAlreadyRunning if any tracked worker is still
// alive. Otherwise it spawns n detached children named worker-1..worker-n,
// waits a short grace period per child, drops any that exited immediately,
// and persists the survivors' PIDs to the sidecar file.
func (s *Supervisor) Start(n int) ([]Worker, error) {
	existing, err := s.readPIDs()
	if err != nil {
		return nil, err
	}
	for _, pid := range existing {
		if alive(pid) {
			return nil, ErrAlreadyRunning
		}
	}

	workers := make([]Worker, 0, n)
	pids := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("worker-%d", i)
		cmd := exec.Command(s.binary, "worker", "run", "--id", id, "--db", s.dbPath)
		cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
		if err := cmd.Start(); err != nil {
			continue
		}
		go func() { _ = cmd.Wait() }()

		time.Sleep(startGrace)
		if !alive(cmd.Process.Pid) {
			continue
		}
		workers = append(workers, Worker{ID: id, PID: cmd.Process.Pid})
		pids = append(pids, cmd.Process.Pid)
	}

	if err := s.writePIDs(pids); err != nil {
		return workers, err
	}
	return workers, nil
}

// Stop signals every tracked, still-alive child to terminate. A graceful
// stop sends SIGTERM and polls once a second for up to 10s, escalating to
// SIGKILL for anything still alive; a non-graceful stop sends SIGKILL
// immediately. The sidecar file is deleted either way. Stop returns the
// number of children actually stopped.
func (s *Supervisor) Stop(graceful bool) (int, error) {
	pids, err := s.readPIDs()
	if err != nil {
		return 0, err
	}

	stopped := 0
	for _, pid := range pids {
		if !alive(pid) {
			continue
		}
		proc, err := os.FindProcess(pid)
		if err != nil {
			continue
		}
		if !graceful {
			_ = proc.Kill()
			stopped++
			continue
		}
		_ = proc.Signal(syscall.SIGTERM)
		deadline := time.Now().Add(stopTimeout)
		for alive(pid) && time.Now().Before(deadline) {
			time.Sleep(stopPollInterval)
		}
		if alive(pid) {
			_ = proc.Kill()
		}
		stopped++
	}

	if err := removeIfExists(s.sidecarPath); err != nil {
		return stopped, err
	}
	return stopped, nil
}

// Status reports pid, OS status, CPU%, resident memory, and start time
// for each tracked, still-alive child, pruning dead entries from the
// sidecar file as a side effect. If none remain alive, the sidecar file
// is deleted.
func (s *Supervisor) Status() ([]Status, error) {
	pids, err := s.readPIDs()
	if err != nil {
		return nil, err
	}

	live := make([]int, 0, len(pids))
	out := make([]Status, 0, len(pids))
	for i, pid := range pids {
		proc, err := process.NewProcess(int32(pid))
		if err != nil {
			continue
		}
		running, err := proc.IsRunning()
		if err != nil || !running {
			continue
		}
		live = append(live, pid)

		cpu, _ := proc.CPUPercent()
		var memMiB float64
		if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
			memMiB = float64(mem.RSS) / (1024 * 1024)
		}
		var started time.Time
		if createdMs, err := proc.CreateTime(); err == nil {
			started = time.UnixMilli(createdMs).UTC()
		}
		state := "running"
		if states, err := proc.Status(); err == nil && len(states) > 0 {
			state = strings.Join(states, ",")
		}

		out = append(out, Status{
			ID:         fmt.Sprintf("worker-%d", i+1),
			PID:        int32(pid),
			State:      state,
			CPUPercent: cpu,
			MemoryMiB:  memMiB,
			StartedAt:  started,
		})
	}

	if len(live) == 0 {
		return out, removeIfExists(s.sidecarPath)
	}
	if len(live) != len(pids) {
		if err := s.writePIDs(live); err != nil {
			return out, err
		}
	}
	return out, nil
}
