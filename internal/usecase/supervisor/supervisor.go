// Package supervisor owns the lifecycle of one named agent: spawning its
// worker process, observing termination, applying the restart policy, and
// serving the operator-facing stop/resume/relay operations.
package supervisor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"fleetd/internal/domain"
	"fleetd/internal/infra/tracer"
)

// DefaultRestartGuard is the minimum elapsed time between successive
// automatic restarts of the same agent. A crash inside the guard window
// disables supervision until an operator resumes the agent.
const DefaultRestartGuard = 10 * time.Second

// DefaultRestartAnnounce is the message handed to a worker relaunched by
// the restart policy or an operator resume.
const DefaultRestartAnnounce = "process restarted"

// sigInterrupt is the termination signal name that marks a deliberate,
// operator-driven exit.
var sigInterrupt = syscall.SIGINT.String()

// Clock abstracts time.Now so the cool-down guard is testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Config holds the launch parameters shared by every supervisor.
type Config struct {
	Worker          string        // worker executable path
	RestartGuard    time.Duration // default DefaultRestartGuard
	RestartAnnounce string        // default DefaultRestartAnnounce
}

// Options carries the supervisor's collaborators. Zero fields get safe
// defaults: NopNotifier, discarded logs, system clock, os.Exit, parent stdio.
type Options struct {
	Notifier domain.Notifier
	Bus      domain.EventBus // may be nil
	Logger   *slog.Logger
	Clock    Clock
	Fatal    func(code int) // whole-program termination on worker exit > 1
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
}

// StartOptions selects between a fresh launch and a resume/restart.
type StartOptions struct {
	Resume   bool
	Announce string // overrides the descriptor's initial message when set
}

// Supervisor drives the Idle <-> Running state machine for one agent. All
// state is owned here; at most one live worker exists per supervisor.
type Supervisor struct {
	desc     domain.AgentDescriptor
	cfg      Config
	notifier domain.Notifier
	bus      domain.EventBus
	logger   *slog.Logger
	clock    Clock
	fatal    func(int)
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer

	mu          sync.Mutex
	running     bool
	stopRequest bool
	lastRestart time.Time
	cmd         *exec.Cmd
	spawnID     string
}

// New creates a supervisor for one agent descriptor.
func New(desc domain.AgentDescriptor, cfg Config, opts Options) *Supervisor {
	if cfg.RestartGuard <= 0 {
		cfg.RestartGuard = DefaultRestartGuard
	}
	if cfg.RestartAnnounce == "" {
		cfg.RestartAnnounce = DefaultRestartAnnounce
	}
	if opts.Notifier == nil {
		opts.Notifier = domain.NopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.Fatal == nil {
		opts.Fatal = os.Exit
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &Supervisor{
		desc:     desc,
		cfg:      cfg,
		notifier: opts.Notifier,
		bus:      opts.Bus,
		logger:   opts.Logger,
		clock:    opts.Clock,
		fatal:    opts.Fatal,
		stdin:    opts.Stdin,
		stdout:   opts.Stdout,
		stderr:   opts.Stderr,
	}
}

// Descriptor returns the immutable launch parameters.
func (s *Supervisor) Descriptor() domain.AgentDescriptor { return s.desc }

// Running reports whether a live worker is currently under supervision.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Status returns a snapshot for the console's status command.
func (s *Supervisor) Status() domain.SpawnStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := domain.SpawnStatus{
		Name:        s.desc.Name,
		State:       domain.AgentIdle,
		SpawnID:     s.spawnID,
		LastRestart: s.lastRestart,
	}
	if s.running {
		st.State = domain.AgentRunning
		if s.cmd != nil && s.cmd.Process != nil {
			st.PID = s.cmd.Process.Pid
		}
	}
	return st
}

// Start spawns the worker process and begins observing it. Returns
// ErrAlreadyRunning when a worker is already live; the spawn failure path
// reports the error without any restart attempt.
func (s *Supervisor) Start(ctx context.Context, opts StartOptions) error {
	ctx, span := tracer.StartSpan(ctx, "supervisor.start")
	defer span.End()

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return domain.NewError("Supervisor.Start", domain.ErrAlreadyRunning, s.desc.Name)
	}

	cmd := exec.Command(s.cfg.Worker, launchArgs(s.desc, opts)...)
	cmd.Stdin = s.stdin
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr

	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		err = domain.WrapOp("spawn worker "+s.desc.Name, err)
		tracer.RecordError(span, err)
		return err
	}

	spawnID := newSpawnID()
	s.cmd = cmd
	s.spawnID = spawnID
	s.running = true
	s.stopRequest = false
	s.lastRestart = s.clock.Now()
	pid := cmd.Process.Pid
	s.mu.Unlock()

	evt := domain.EventAgentStarted
	if opts.Resume {
		evt = domain.EventAgentRestarted
	}
	s.publish(ctx, evt, domain.LifecyclePayload{SpawnID: spawnID, PID: pid, Resumed: opts.Resume})
	s.logger.Info("worker started",
		"agent", s.desc.Name,
		"spawn_id", spawnID,
		"pid", pid,
		"resume", opts.Resume,
	)

	go s.watch(cmd, spawnID)
	return nil
}

// Stop delivers the interrupt signal to the worker and flips to idle
// immediately. Signal delivery failures are reported, never propagated,
// and never retried; there is no forced-kill escalation.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cmd := s.cmd
	spawnID := s.spawnID
	s.running = false
	s.stopRequest = true
	s.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		if err := cmd.Process.Signal(os.Interrupt); err != nil {
			s.logger.Warn("interrupt delivery failed", "agent", s.desc.Name, "error", err)
		}
	}
	s.publish(context.Background(), domain.EventAgentStopped, domain.LifecyclePayload{SpawnID: spawnID})
	s.logger.Info("stop requested", "agent", s.desc.Name, "spawn_id", spawnID)
}

// Resume relaunches a stopped agent with the restart announcement. It is
// the manual counterpart of the automatic restart path and is never subject
// to the cool-down guard. No-op when the agent is already running.
func (s *Supervisor) Resume(ctx context.Context) error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if running {
		return nil
	}
	return s.Start(ctx, StartOptions{Resume: true, Announce: s.cfg.RestartAnnounce})
}

// RelayMessage acknowledges an outbound message from the agent's domain.
// The real transport belongs to an external collaborator; here the message
// is published for observers and reported as sent.
func (s *Supervisor) RelayMessage(ctx context.Context, text string) error {
	s.publish(ctx, domain.EventMessageRelayed, domain.LifecyclePayload{Detail: text})
	s.logger.Info("message relayed", "agent", s.desc.Name, "text", text)
	return nil
}

// watch is the exit observer: it runs once per spawn and strictly after the
// child has terminated.
func (s *Supervisor) watch(cmd *exec.Cmd, spawnID string) {
	err := cmd.Wait()
	code, signal := exitStatus(err)
	s.onExit(spawnID, code, signal)
}

// onExit applies the termination taxonomy: logout notification always;
// exit code > 1 escalates to whole-program termination; exit 0, interrupt
// signal, or an operator stop is deliberate; everything else is a restart
// candidate gated by the cool-down guard.
func (s *Supervisor) onExit(spawnID string, code int, signal string) {
	s.mu.Lock()
	stopped := s.stopRequest
	s.running = false
	s.cmd = nil
	last := s.lastRestart
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info("worker exited",
		"agent", s.desc.Name,
		"spawn_id", spawnID,
		"exit_code", code,
		"signal", signal,
	)

	if err := s.notifier.LogoutAgent(ctx, s.desc.Name); err != nil {
		s.logger.Warn("logout notification failed", "agent", s.desc.Name, "error", err)
	}

	payload := domain.LifecyclePayload{SpawnID: spawnID, Signal: signal}
	if signal == "" {
		payload.ExitCode = &code
	}
	s.publish(ctx, domain.EventAgentExited, payload)

	if code > 1 {
		// Fatal, non-recoverable worker failure: must not be masked by a
		// restart. The whole supervising program terminates with this code.
		s.logger.Error("worker failed fatally", "agent", s.desc.Name, "exit_code", code)
		s.publish(ctx, domain.EventAgentFatal, payload)
		s.fatal(code)
		return
	}

	if code == 0 || signal == sigInterrupt || stopped {
		return
	}

	elapsed := s.clock.Now().Sub(last)
	if elapsed < s.cfg.RestartGuard {
		s.logger.Warn("restart suppressed",
			"agent", s.desc.Name,
			"elapsed", elapsed,
			"guard", s.cfg.RestartGuard,
		)
		s.publish(ctx, domain.EventAgentRateLimited, domain.LifecyclePayload{
			SpawnID: spawnID,
			Detail:  domain.ErrRestartSuppressed.Error(),
		})
		return
	}

	if err := s.Start(ctx, StartOptions{Resume: true, Announce: s.cfg.RestartAnnounce}); err != nil {
		s.logger.Error("restart failed", "agent", s.desc.Name, "error", err)
	}
}

func (s *Supervisor) publish(ctx context.Context, evt domain.EventType, payload domain.LifecyclePayload) {
	if s.bus == nil {
		return
	}
	data, _ := json.Marshal(payload)
	s.bus.Publish(ctx, domain.Event{
		Type:      evt,
		Timestamp: s.clock.Now(),
		Agent:     s.desc.Name,
		Payload:   data,
	})
}

// launchArgs encodes the descriptor and start options into the worker's
// argument convention: name, -p profile, -c ordinal, plus the optional
// load-memory, message, and task flags.
func launchArgs(desc domain.AgentDescriptor, opts StartOptions) []string {
	args := []string{desc.Name, "-p", desc.Profile, "-c", strconv.Itoa(desc.Ordinal)}
	if desc.LoadMemory || opts.Resume {
		args = append(args, "-l")
	}
	msg := desc.InitialMessage
	if opts.Announce != "" {
		msg = opts.Announce
	}
	if msg != "" {
		args = append(args, "-m", msg)
	}
	if desc.TaskPath != "" {
		args = append(args, "-t", desc.TaskPath)
	}
	if desc.TaskID != "" {
		args = append(args, "-i", desc.TaskID)
	}
	return args
}

// exitStatus derives (exit code, signal name) from a finished Wait call.
// Signal-terminated workers report code -1 and the signal's name.
func exitStatus(err error) (int, string) {
	if err == nil {
		return 0, ""
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return -1, ws.Signal().String()
		}
		return ee.ExitCode(), ""
	}
	// Wait itself failed; treat as a signal-less abnormal exit.
	return -1, ""
}
