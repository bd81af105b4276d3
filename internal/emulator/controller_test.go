package emulator

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xxxsen/cen64-launcher/internal/rom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	dir      string
	exe      string
	firmware string
	rom      string
	argsFile string
}

func newFixture(t *testing.T, body string) fixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell based fake emulator")
	}
	dir := t.TempDir()
	f := fixture{
		dir:      dir,
		exe:      filepath.Join(dir, "cen64"),
		firmware: filepath.Join(dir, "pifdata.bin"),
		rom:      filepath.Join(dir, "Game.z64"),
		argsFile: filepath.Join(dir, "args.txt"),
	}
	script := "#!/bin/sh\nfor a in \"$@\"; do echo \"$a\" >> '" + f.argsFile + "'; done\n" + body + "\n"
	require.NoError(t, os.WriteFile(f.exe, []byte(script), 0o755))
	require.NoError(t, os.WriteFile(f.firmware, []byte("pif"), 0o644))
	require.NoError(t, os.WriteFile(f.rom, rom.Synthesize("GAME", 1024, 0x10), 0o644))
	return f
}

func (f fixture) settings() Settings {
	return Settings{
		Executable: f.exe,
		Firmware:   f.firmware,
		TempDir:    filepath.Join(f.dir, "tmp"),
	}
}

func (f fixture) recordedArgs(t *testing.T) []string {
	t.Helper()
	raw, err := os.ReadFile(f.argsFile)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
}

func (f fixture) launched() bool {
	_, err := os.Stat(f.argsFile)
	return err == nil
}

func TestLaunchValidationOrder(t *testing.T) {
	f := newFixture(t, "exit 0")
	ctx := context.Background()

	s := f.settings()
	s.Firmware = filepath.Join(f.dir, "missing.bin")
	s.Executable = filepath.Join(f.dir, "missing-exe")
	err := NewController(s).Launch(ctx, LaunchRequest{RomPath: f.rom})
	assert.ErrorIs(t, err, ErrMissingExecutable)

	s = f.settings()
	s.Firmware = filepath.Join(f.dir, "missing.bin")
	err = NewController(s).Launch(ctx, LaunchRequest{RomPath: filepath.Join(f.dir, "none.z64")})
	assert.ErrorIs(t, err, ErrMissingFirmware)

	err = NewController(f.settings()).Launch(ctx, LaunchRequest{RomPath: filepath.Join(f.dir, "none.z64")})
	assert.ErrorIs(t, err, ErrMissingRomFile)

	v64 := filepath.Join(f.dir, "Game.v64")
	data, err := os.ReadFile(f.rom)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(v64, rom.ToV64(data), 0o644))
	err = NewController(f.settings()).Launch(ctx, LaunchRequest{RomPath: v64})
	assert.ErrorIs(t, err, ErrInvalidRomSignature)

	assert.False(t, f.launched())
}

func TestLaunchRejectsNonExecutable(t *testing.T) {
	f := newFixture(t, "exit 0")
	require.NoError(t, os.Chmod(f.exe, 0o644))
	c := NewController(f.settings())
	err := c.Launch(context.Background(), LaunchRequest{RomPath: f.rom})
	assert.ErrorIs(t, err, ErrMissingExecutable)
	assert.Equal(t, StateIdle, c.State())
}

func TestLaunchCleanExit(t *testing.T) {
	f := newFixture(t, "echo booting\necho '60 VI/s 93.75 MHz'\nexit 0")
	c := NewController(f.settings())

	var mu sync.Mutex
	var statuses []string
	exited := make(chan error, 1)
	c.OnStatus(func(line string) {
		mu.Lock()
		statuses = append(statuses, line)
		mu.Unlock()
	})
	c.OnExit(func(err error) { exited <- err })

	require.NoError(t, c.Launch(context.Background(), LaunchRequest{RomPath: f.rom, Input: "x360"}))
	require.NoError(t, c.Wait())
	require.NoError(t, <-exited)

	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, StateStopped, c.LastState())
	assert.Equal(t, "60 VI/s 93.75 MHz", c.Status())
	assert.Contains(t, c.Log(), "booting")
	mu.Lock()
	assert.Equal(t, []string{"60 VI/s 93.75 MHz"}, statuses)
	mu.Unlock()
	assert.Equal(t, []string{"-controller", "x360", f.firmware, f.rom}, f.recordedArgs(t))
}

func TestLaunchCrash(t *testing.T) {
	f := newFixture(t, "echo boom\nexit 3")
	c := NewController(f.settings())
	var exitErr error
	called := false
	c.OnExit(func(err error) {
		called = true
		exitErr = err
	})

	require.NoError(t, c.Launch(context.Background(), LaunchRequest{RomPath: f.rom}))
	err := c.Wait()
	var ee *ExitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 3, ee.Code)
	assert.True(t, called)
	assert.Equal(t, err, exitErr)
	assert.Equal(t, StateCrashed, c.LastState())
	assert.Equal(t, StateIdle, c.State())
}

func TestLaunchFromContainer(t *testing.T) {
	f := newFixture(t, "exit 0")
	saves := filepath.Join(f.dir, "saves")
	require.NoError(t, os.Mkdir(saves, 0o755))

	data := rom.Synthesize("ZIPPED", 2048, 0x22)
	zipPath := filepath.Join(f.dir, "pack.zip")
	zf, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(zf)
	w, err := zw.Create("Zipped Game.z64")
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, zf.Close())

	s := f.settings()
	s.Saves = SaveSettings{Directory: saves}
	c := NewController(s)
	require.NoError(t, c.Launch(context.Background(), LaunchRequest{RomPath: "Zipped Game.z64", ContainerPath: zipPath}))
	require.NoError(t, c.Wait())

	id, err := rom.Identify(data)
	require.NoError(t, err)
	args := f.recordedArgs(t)
	temp := c.TempRomPath()
	assert.Equal(t, []string{
		"-controller", DefaultInput,
		"-eeprom", filepath.Join(saves, "Zipped Game."+id.Hash+".eeprom"),
		"-sram", filepath.Join(saves, "Zipped Game."+id.Hash+".sram"),
		f.firmware, temp,
	}, args)
	_, err = os.Stat(temp)
	assert.True(t, os.IsNotExist(err))
}

func TestLaunchMissingContainerMember(t *testing.T) {
	f := newFixture(t, "exit 0")
	zipPath := filepath.Join(f.dir, "empty.zip")
	zf, err := os.Create(zipPath)
	require.NoError(t, err)
	require.NoError(t, zip.NewWriter(zf).Close())
	require.NoError(t, zf.Close())

	c := NewController(f.settings())
	err = c.Launch(context.Background(), LaunchRequest{RomPath: "nothing.z64", ContainerPath: zipPath})
	assert.ErrorIs(t, err, ErrMissingRomFile)
	assert.False(t, f.launched())
}

func TestStopRunningEmulator(t *testing.T) {
	f := newFixture(t, "exec sleep 30")
	c := NewController(f.settings())
	ctx := context.Background()
	require.NoError(t, c.Launch(ctx, LaunchRequest{RomPath: f.rom}))
	assert.Equal(t, StateRunning, c.State())
	assert.ErrorIs(t, c.Launch(ctx, LaunchRequest{RomPath: f.rom}), ErrAlreadyRunning)

	require.NoError(t, c.Stop())
	done := make(chan error, 1)
	go func() { done <- c.Wait() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("emulator did not stop")
	}
	assert.Equal(t, StateStopped, c.LastState())
	assert.Equal(t, StateIdle, c.State())
}

func TestWaitWithoutLaunch(t *testing.T) {
	t.Parallel()

	c := NewController(Settings{})
	assert.NoError(t, c.Wait())
	assert.NoError(t, c.Stop())
}
