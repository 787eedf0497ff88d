package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/jingkaihe/skillrunner/pkg/logger"
	"github.com/jingkaihe/skillrunner/pkg/osutil"
	"github.com/pkg/errors"
)

const (
	// DefaultTimeout bounds every command.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxOutputSize caps each captured stream, in bytes.
	DefaultMaxOutputSize = 64 * 1024
	// DefaultPython runs .py files.
	DefaultPython = "python3"
	// DefaultShell runs system commands and .sh files.
	DefaultShell = "bash"

	// waitDelay bounds how long Wait keeps reading pipes held open by
	// background children after the main process is gone.
	waitDelay = time.Second
)

// denyPatterns block obviously destructive system commands.
var denyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\brm\s+-[rf]{1,2}\s+/(\s|$)`),   // rm -rf /
	regexp.MustCompile(`(?i)\b(mkfs(\.\w+)?|diskpart)\b`),   // disk ops
	regexp.MustCompile(`(?i)\bdd\s+if=`),                    // dd
	regexp.MustCompile(`(?i)>\s*/dev/sd`),                   // write to disk
	regexp.MustCompile(`(?i)\b(shutdown|reboot|poweroff)\b`), // power control
	regexp.MustCompile(`:\(\)\s*\{.*\};\s*:`),               // fork bomb
}

// Options configures a Dispatcher. Zero values fall back to the defaults.
type Options struct {
	Timeout         time.Duration
	ProjectRoot     string
	Python          string
	Shell           string
	MaxOutputSize   int
	AllowedCommands []string
}

// Dispatcher classifies and runs command requests. It holds no mutable state
// and is safe for concurrent use.
type Dispatcher struct {
	opts  Options
	globs []glob.Glob
}

// New creates a dispatcher. Allowed command patterns use glob syntax and are
// matched against the full system command line.
func New(opts Options) (*Dispatcher, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxOutputSize <= 0 {
		opts.MaxOutputSize = DefaultMaxOutputSize
	}
	if opts.Python == "" {
		opts.Python = DefaultPython
	}
	if opts.Shell == "" {
		opts.Shell = DefaultShell
	}
	if opts.ProjectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "failed to determine project root")
		}
		opts.ProjectRoot = wd
	}
	root, err := filepath.Abs(opts.ProjectRoot)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve project root %s", opts.ProjectRoot)
	}
	opts.ProjectRoot = root

	globs := make([]glob.Glob, 0, len(opts.AllowedCommands))
	for _, pattern := range opts.AllowedCommands {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid allowed command pattern %q", pattern)
		}
		globs = append(globs, g)
	}

	return &Dispatcher{opts: opts, globs: globs}, nil
}

// ProjectRoot is the directory relative file paths resolve against and the
// working directory of every command.
func (d *Dispatcher) ProjectRoot() string {
	return d.opts.ProjectRoot
}

// Timeout is the wall-clock bound applied to each command.
func (d *Dispatcher) Timeout() time.Duration {
	return d.opts.Timeout
}

// Execute runs req and always returns an observation string, never an error.
func (d *Dispatcher) Execute(ctx context.Context, req Request) string {
	result, err := d.Run(ctx, req)
	if err != nil {
		return Message(req, err)
	}
	return Format(result)
}

// Run classifies, validates and runs req. Errors are returned only when no
// result could be produced: validation failures before spawning, spawn
// failures and cancellation by the caller. A timeout is a Result with
// TimedOut set.
func (d *Dispatcher) Run(ctx context.Context, req Request) (*Result, error) {
	kind := Classify(req.Path)
	log := logger.G(ctx).WithField("command", req.String()).WithField("kind", kind.String())

	var (
		name string
		args []string
		err  error
	)
	switch kind {
	case KindRejected:
		if strings.TrimSpace(req.Path) == "" {
			return nil, ErrEmptyCommand
		}
		log.Warn("rejected shell interpreter as command path")
		return nil, errors.Wrapf(ErrShellRejected, "got %q", req.Path)
	case KindSystem:
		name, args, err = d.systemCommand(req)
	case KindFile:
		name, args, err = d.fileCommand(req)
	}
	if err != nil {
		log.WithError(err).Debug("command not started")
		return nil, err
	}

	result, err := d.run(ctx, name, args)
	if err != nil {
		return nil, err
	}
	result.Kind = kind

	log.WithField("exit_code", result.ExitCode).
		WithField("timed_out", result.TimedOut).
		WithField("duration", result.Duration).
		Debug("command finished")
	return result, nil
}

func (d *Dispatcher) systemCommand(req Request) (string, []string, error) {
	line := req.String()

	for _, p := range denyPatterns {
		if p.MatchString(line) {
			return "", nil, errors.Wrapf(ErrCommandBlocked, "%q", line)
		}
	}
	if len(d.globs) > 0 && !d.matchesAllowlist(line) {
		return "", nil, errors.Wrapf(ErrCommandNotAllowed, "%q", line)
	}

	return d.opts.Shell, []string{"-c", line}, nil
}

func (d *Dispatcher) matchesAllowlist(line string) bool {
	for _, g := range d.globs {
		if g.Match(line) {
			return true
		}
	}
	return false
}

func (d *Dispatcher) fileCommand(req Request) (string, []string, error) {
	path := strings.TrimSpace(req.Path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(d.opts.ProjectRoot, path)
	}
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, &PathError{Path: path, Err: ErrFileNotFound}
		}
		return "", nil, errors.Wrapf(err, "failed to stat %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	executable := info.Mode().Perm()&0o111 != 0
	if !executable && ext != ".py" && ext != ".sh" {
		return "", nil, &PathError{Path: path, Err: ErrNotExecutable}
	}

	switch ext {
	case ".py":
		return d.opts.Python, append([]string{path}, req.Args...), nil
	case ".sh":
		return d.opts.Shell, append([]string{path}, req.Args...), nil
	default:
		return path, append([]string(nil), req.Args...), nil
	}
}

func (d *Dispatcher) run(ctx context.Context, name string, args []string) (*Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Dir = d.opts.ProjectRoot
	cmd.WaitDelay = waitDelay
	osutil.SetProcessGroup(cmd)
	osutil.SetProcessGroupKill(cmd)

	stdout := newCappedBuffer(d.opts.MaxOutputSize)
	stderr := newCappedBuffer(d.opts.MaxOutputSize)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to start %s", name)
	}
	waitErr := cmd.Wait()

	// Reap anything the command left behind in its group, e.g. `sleep 100 &`.
	if err := osutil.KillProcessGroup(cmd.Process.Pid); err != nil {
		logger.G(ctx).WithError(err).Warn("failed to clean up process group")
	}

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Timeout:  d.opts.Timeout,
		Duration: time.Since(start),
	}

	if ctx.Err() != nil {
		return nil, errors.Wrap(ctx.Err(), "command cancelled")
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
		result.ExitCode = -1
		return result, nil
	}

	if waitErr != nil && !errors.Is(waitErr, exec.ErrWaitDelay) {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, errors.Wrapf(waitErr, "failed to run %s", name)
		}
	}
	result.ExitCode = cmd.ProcessState.ExitCode()

	return result, nil
}

// cappedBuffer keeps the first limit bytes written to it and counts the rest.
// Writes never fail, so a chatty child is not killed by EPIPE.
type cappedBuffer struct {
	buf     bytes.Buffer
	limit   int
	dropped int
}

func newCappedBuffer(limit int) *cappedBuffer {
	return &cappedBuffer{limit: limit}
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	room := c.limit - c.buf.Len()
	if room <= 0 {
		c.dropped += len(p)
		return len(p), nil
	}
	if len(p) > room {
		c.buf.Write(p[:room])
		c.dropped += len(p) - room
		return len(p), nil
	}
	c.buf.Write(p)
	return len(p), nil
}

func (c *cappedBuffer) String() string {
	if c.dropped == 0 {
		return c.buf.String()
	}
	return c.buf.String() + fmt.Sprintf("\n... (truncated, %d more bytes)", c.dropped)
}
