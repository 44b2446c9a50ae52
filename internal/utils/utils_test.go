package utils

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSplitAbs(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		expDir  string
		expBase string
	}{
		{name: "1", in: "", expDir: "", expBase: ""},
		{name: "2", in: "/", expDir: "/", expBase: ""},
		{name: "3", in: "//", expDir: "/", expBase: ""},
		{name: "4", in: "/one", expDir: "/", expBase: "one"},
		{name: "5", in: "/one/two", expDir: "/one", expBase: "two"},
		{name: "6", in: "/one/two/", expDir: "/one", expBase: "two"},
		{name: "7", in: "/one//two", expDir: "/one", expBase: "two"},
		{name: "8", in: "one/two", expDir: "one", expBase: "two"},
		{name: "9", in: "one", expDir: "/", expBase: "one"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, got1 := SplitAbs(tt.in)
			if got != tt.expDir {
				t.Errorf("splitAbs() got = %v, want %v", got, tt.expDir)
			}
			if got1 != tt.expBase {
				t.Errorf("splitAbs() got1 = %v, want %v", got1, tt.expBase)
			}
		})
	}
}

func TestIsDir(t *testing.T) {
	tempRoot := t.TempDir()

	if !IsDir(tempRoot) {
		t.Errorf("expected %q to be a dir", tempRoot)
	}

	file := filepath.Join(tempRoot, "file")
	if err := os.WriteFile(file, []byte{}, 0644); err != nil {
		t.Fatalf("failed to write a file: %v", err)
	}
	if IsDir(file) {
		t.Errorf("expected %q to not be a dir", file)
	}

	if IsDir(filepath.Join(tempRoot, "missing")) {
		t.Errorf("expected missing path to not be a dir")
	}
}

func TestRunCommand(t *testing.T) {
	log := slog.Default()
	ctx := context.Background()

	t.Run("stdout", func(t *testing.T) {
		out, err := RunCommand(ctx, log, nil, "", "sh", "-c", "echo hello; echo ignored >&2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "hello" {
			t.Errorf("RunCommand() got = %q, want %q", out, "hello")
		}
	})

	t.Run("cwd_and_envs", func(t *testing.T) {
		dir := t.TempDir()
		out, err := RunCommand(ctx, log, []string{"LOHR_TEST_VALUE=42"}, dir, "sh", "-c", `echo "$LOHR_TEST_VALUE $(pwd -P)"`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		realDir, _ := filepath.EvalSymlinks(dir)
		if want := "42 " + realDir; out != want {
			t.Errorf("RunCommand() got = %q, want %q", out, want)
		}
	})

	t.Run("exit_code", func(t *testing.T) {
		_, err := RunCommand(ctx, log, nil, "", "sh", "-c", "echo oops >&2; exit 3")
		var cmdErr *CommandError
		if !errors.As(err, &cmdErr) {
			t.Fatalf("expected CommandError got: %v", err)
		}
		if cmdErr.ExitCode != 3 {
			t.Errorf("ExitCode got = %d, want 3", cmdErr.ExitCode)
		}
		if cmdErr.Stderr != "oops" {
			t.Errorf("Stderr got = %q, want %q", cmdErr.Stderr, "oops")
		}
		if got := cmdErr.ExitStatus(); got != "exit code 3" {
			t.Errorf("ExitStatus() got = %q", got)
		}
	})

	t.Run("signal", func(t *testing.T) {
		_, err := RunCommand(ctx, log, nil, "", "sh", "-c", "kill -9 $$")
		var cmdErr *CommandError
		if !errors.As(err, &cmdErr) {
			t.Fatalf("expected CommandError got: %v", err)
		}
		if cmdErr.Signal == "" {
			t.Errorf("expected signal to be set, exit code: %d", cmdErr.ExitCode)
		}
		if cmdErr.ExitCode != -1 {
			t.Errorf("ExitCode got = %d, want -1", cmdErr.ExitCode)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		_, err := RunCommand(ctx, log, nil, "", "lohr-command-which-does-not-exist")
		var cmdErr *CommandError
		if !errors.As(err, &cmdErr) {
			t.Fatalf("expected CommandError got: %v", err)
		}
		if cmdErr.ExitCode != -1 {
			t.Errorf("ExitCode got = %d, want -1", cmdErr.ExitCode)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		tCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		_, err := RunCommand(tCtx, log, nil, "", "sleep", "5")
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded got: %v", err)
		}
	})
}
