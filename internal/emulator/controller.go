package emulator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/cen64-launcher/internal/archive"
	"github.com/xxxsen/cen64-launcher/internal/rom"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

var (
	ErrMissingExecutable   = errors.New("emulator executable not found")
	ErrMissingFirmware     = errors.New("pif firmware file not found")
	ErrMissingRomFile      = errors.New("rom file not found")
	ErrInvalidRomSignature = errors.New("not a valid z64 file")
	ErrAlreadyRunning      = errors.New("emulator already running")
)

const tempRomName = "temp.z64"

var statusLineRe = regexp.MustCompile(`^.*VI/s.*MHz$`)

// State is the lifecycle phase of the emulator process.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopped
	StateCrashed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateCrashed:
		return "crashed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// ExitError reports an abnormal emulator exit.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Code < 0 {
		return fmt.Sprintf("emulator terminated abnormally: %v", e.Err)
	}
	return fmt.Sprintf("emulator exited with code %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Settings locate the emulator and its companions.
type Settings struct {
	Executable    string
	Firmware      string
	Input         string
	Saves         SaveSettings
	ConsoleOutput bool
	TempDir       string
	Console       io.Writer
}

// LaunchRequest selects the ROM to run. With ContainerPath set, RomPath is
// the member name inside that archive.
type LaunchRequest struct {
	RomPath       string
	ContainerPath string
	Input         string
}

// Controller runs one emulator process at a time.
type Controller struct {
	settings Settings

	mu       sync.Mutex
	state    State
	last     State
	status   string
	log      strings.Builder
	cmd      *exec.Cmd
	done     chan struct{}
	exitErr  error
	stopping bool
	onStatus func(line string)
	onExit   func(err error)
	lastArgs []string
}

// NewController builds a controller for settings.
func NewController(settings Settings) *Controller {
	if settings.TempDir == "" {
		settings.TempDir = filepath.Join(os.TempDir(), "cen64-launcher")
	}
	if settings.Console == nil {
		settings.Console = os.Stdout
	}
	return &Controller{settings: settings}
}

// OnStatus registers a callback for performance status lines.
func (c *Controller) OnStatus(fn func(line string)) {
	c.mu.Lock()
	c.onStatus = fn
	c.mu.Unlock()
}

// OnExit registers a callback run once the process has exited; err is nil
// on a clean exit and an *ExitError otherwise.
func (c *Controller) OnExit(fn func(err error)) {
	c.mu.Lock()
	c.onExit = fn
	c.mu.Unlock()
}

// TempRomPath is where archive members are extracted before launch.
func (c *Controller) TempRomPath() string {
	return filepath.Join(c.settings.TempDir, tempRomName)
}

// Launch validates the request and starts the emulator. Validation runs in
// order executable, firmware, ROM presence, ROM signature; the first failure
// is returned and nothing is started.
func (c *Controller) Launch(ctx context.Context, req LaunchRequest) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.state = StateStarting
	c.mu.Unlock()

	logger := logutil.GetLogger(ctx)
	romPath, temp := c.resolveRom(ctx, req)
	abort := func(err error) error {
		if temp != "" {
			_ = os.Remove(temp)
		}
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
		return err
	}

	if err := c.validate(romPath); err != nil {
		return abort(err)
	}

	saveBase := baseName(romPath)
	if req.ContainerPath != "" {
		saveBase = baseName(req.RomPath)
	}
	var hash string
	if c.settings.Saves.usesDirectory() {
		h, err := rom.HashFile(romPath)
		if err != nil {
			return abort(fmt.Errorf("hash rom %s: %w", romPath, err))
		}
		hash = h
	}
	input := req.Input
	if input == "" {
		input = c.settings.Input
	}
	args := BuildArgs(c.settings, input, romPath, saveBase, hash)

	cmd := exec.Command(c.settings.Executable, args...)
	cmd.WaitDelay = 2 * time.Second
	var (
		pr *io.PipeReader
		pw *io.PipeWriter
	)
	if c.settings.ConsoleOutput {
		cmd.Stdout = c.settings.Console
		cmd.Stderr = c.settings.Console
	} else {
		pr, pw = io.Pipe()
		cmd.Stdout = pw
		cmd.Stderr = pw
	}
	if err := cmd.Start(); err != nil {
		if pw != nil {
			_ = pw.Close()
		}
		return abort(fmt.Errorf("start emulator: %w", err))
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.state = StateRunning
	c.cmd = cmd
	c.done = done
	c.exitErr = nil
	c.stopping = false
	c.status = ""
	c.log.Reset()
	c.lastArgs = args
	c.mu.Unlock()
	logger.Info("emulation started", zap.String("rom", romPath), zap.Strings("args", args))

	readerDone := make(chan struct{})
	if pr != nil {
		go c.readOutput(pr, readerDone)
	} else {
		close(readerDone)
	}
	go c.waitExit(ctx, cmd, pw, readerDone, temp, done)
	return nil
}

// resolveRom returns the file to run and the temp file created for it. A
// member that cannot be extracted leaves no temp file behind, which the
// ROM presence check reports.
func (c *Controller) resolveRom(ctx context.Context, req LaunchRequest) (string, string) {
	if req.ContainerPath == "" {
		return req.RomPath, ""
	}
	temp := c.TempRomPath()
	_ = os.Remove(temp)
	r, err := archive.Open(req.ContainerPath)
	if err != nil {
		logutil.GetLogger(ctx).Debug("open rom container failed", zap.String("container", req.ContainerPath), zap.Error(err))
		return temp, temp
	}
	defer r.Close()
	if err := r.ExtractEntry(req.RomPath, temp); err != nil {
		logutil.GetLogger(ctx).Debug("extract rom member failed", zap.String("member", req.RomPath), zap.Error(err))
		_ = os.Remove(temp)
	}
	return temp, temp
}

func (c *Controller) validate(romPath string) error {
	exe := c.settings.Executable
	st, err := os.Stat(exe)
	if exe == "" || err != nil || st.IsDir() || !isExecutable(st) {
		return fmt.Errorf("%w: %s", ErrMissingExecutable, exe)
	}
	fw := c.settings.Firmware
	st, err = os.Stat(fw)
	if fw == "" || err != nil || st.IsDir() {
		return fmt.Errorf("%w: %s", ErrMissingFirmware, fw)
	}
	st, err = os.Stat(romPath)
	if romPath == "" || err != nil || st.IsDir() {
		return fmt.Errorf("%w: %s", ErrMissingRomFile, romPath)
	}
	format, err := rom.ReadFormat(romPath)
	if err != nil || format != rom.FormatZ64 {
		return fmt.Errorf("%w: %s", ErrInvalidRomSignature, romPath)
	}
	return nil
}

func isExecutable(st os.FileInfo) bool {
	if runtime.GOOS == "windows" {
		return true
	}
	return st.Mode().Perm()&0o111 != 0
}

func (c *Controller) readOutput(r *io.PipeReader, done chan<- struct{}) {
	defer close(done)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		c.mu.Lock()
		c.log.WriteString(line)
		c.log.WriteByte('\n')
		var notify func(string)
		if statusLineRe.MatchString(line) {
			c.status = line
			notify = c.onStatus
		}
		c.mu.Unlock()
		if notify != nil {
			notify(line)
		}
	}
	if scanner.Err() != nil {
		_, _ = io.Copy(io.Discard, r)
	}
}

func (c *Controller) waitExit(ctx context.Context, cmd *exec.Cmd, pw *io.PipeWriter, readerDone <-chan struct{}, temp string, done chan struct{}) {
	werr := cmd.Wait()
	if pw != nil {
		_ = pw.Close()
	}
	<-readerDone
	if temp != "" {
		_ = os.Remove(temp)
	}

	code := -1
	if cmd.ProcessState != nil {
		code = cmd.ProcessState.ExitCode()
	}

	c.mu.Lock()
	var exitErr error
	switch {
	case werr == nil && code == 0:
		c.last = StateStopped
	case c.stopping && code == -1:
		c.last = StateStopped
	default:
		c.last = StateCrashed
		exitErr = &ExitError{Code: code, Err: werr}
	}
	c.exitErr = exitErr
	c.state = StateIdle
	c.cmd = nil
	onExit := c.onExit
	last := c.last
	c.mu.Unlock()

	logger := logutil.GetLogger(ctx)
	if exitErr != nil {
		logger.Warn("emulator quit unexpectedly", zap.Int("code", code), zap.Error(werr))
	} else {
		logger.Info("emulation stopped", zap.String("state", last.String()))
	}
	if onExit != nil {
		onExit(exitErr)
	}
	close(done)
}

// Wait blocks until the current process exits and returns its exit error.
// It returns immediately when nothing was launched.
func (c *Controller) Wait() error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exitErr
}

// Stop asks the running process to terminate. The process may take a while
// to exit; use Wait to observe it.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if c.state != StateRunning || c.cmd == nil || c.cmd.Process == nil {
		c.mu.Unlock()
		return nil
	}
	c.stopping = true
	proc := c.cmd.Process
	c.mu.Unlock()
	return terminate(proc)
}

// State returns the current lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastState returns how the previous process ended (Stopped or Crashed).
func (c *Controller) LastState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Status returns the latest performance status line.
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Log returns the captured output of the current or last process.
func (c *Controller) Log() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log.String()
}

// Args returns the arguments of the last launch.
func (c *Controller) Args() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lastArgs...)
}
