package main

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func runWithConfig(t *testing.T, conf string) int {
	file := filepath.Join(t.TempDir(), "faceblur.toml")
	err := os.WriteFile(file, []byte(conf), 0644)
	if err != nil {
		t.Fatal(err)
	}

	args := os.Args
	os.Args = []string{"faceblur", file}
	defer func() {
		os.Args = args
	}()

	return run()
}

func TestRunOutputOpenFailure(t *testing.T) {
	code := runWithConfig(t, `
[input]
type = "dummy"

[output]
type = "v4l2"
dst = "/dev/faceblur-missing-loopback"

[detector]
type = "none"
`)
	if code != 1 {
		t.Fatalf("Expected exit status 1, got %d", code)
	}
}

func TestRunInputOpenFailure(t *testing.T) {
	code := runWithConfig(t, `
[input]
type = "shell"
src = ["cat", "/dev/null"]
setup_commands = [["false"]]

[output]
type = "none"

[detector]
type = "none"
`)
	if code != 1 {
		t.Fatalf("Expected exit status 1, got %d", code)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	code := runWithConfig(t, "[blur]\nkernel = 98\n")
	if code != 1 {
		t.Fatalf("Expected exit status 1, got %d", code)
	}
}

func TestRunMissingConfig(t *testing.T) {
	args := os.Args
	os.Args = []string{"faceblur", filepath.Join(t.TempDir(), "missing.toml")}
	defer func() {
		os.Args = args
	}()

	if code := run(); code != 1 {
		t.Fatalf("Expected exit status 1, got %d", code)
	}
}

func TestSecondSignalKills(t *testing.T) {
	if os.Getenv("FACEBLUR_SIGNAL_CHILD") == "1" {
		ctx, stop := notifyContext()
		defer stop()

		_ = syscall.Kill(os.Getpid(), syscall.SIGTERM)
		<-ctx.Done()
		time.Sleep(200 * time.Millisecond)

		_ = syscall.Kill(os.Getpid(), syscall.SIGTERM)
		time.Sleep(5 * time.Second)
		os.Exit(0)
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestSecondSignalKills$")
	cmd.Env = append(os.Environ(), "FACEBLUR_SIGNAL_CHILD=1")
	err := cmd.Run()

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Expected the child to be killed, got %v", err)
	}
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok || !status.Signaled() || status.Signal() != syscall.SIGTERM {
		t.Fatalf("Expected the child to die of SIGTERM, got %v", exitErr)
	}
}
