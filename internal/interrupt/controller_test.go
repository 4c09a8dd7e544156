package interrupt

import (
	"os/exec"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"scrivener/internal/logging"
)

func TestControllerStartsUnset(t *testing.T) {
	c := New(logging.NewNop())
	if c.Interrupted() {
		t.Fatal("new controller should not be interrupted")
	}
	c.Trigger()
	if !c.Interrupted() {
		t.Fatal("Trigger should set the flag")
	}
	c.Trigger()
	if !c.Interrupted() {
		t.Fatal("flag must stay set")
	}
}

func TestControllerSignalSetsFlag(t *testing.T) {
	c := New(logging.NewNop())
	c.Install()
	c.Install()
	defer c.Stop()

	if err := unix.Kill(unix.Getpid(), unix.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for !c.Interrupted() {
		if time.Now().After(deadline) {
			t.Fatal("signal did not set the flag")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStopKeepsFlagAndIsIdempotent(t *testing.T) {
	c := New(logging.NewNop())
	c.Install()
	c.Trigger()
	c.Stop()
	c.Stop()
	if !c.Interrupted() {
		t.Fatal("Stop must not clear the flag")
	}
}

func TestControllersAreIndependent(t *testing.T) {
	a := New(nil)
	b := New(nil)
	a.Trigger()
	if b.Interrupted() {
		t.Fatal("controllers must not share state")
	}
}

func TestShieldRunsCommandInOwnProcessGroup(t *testing.T) {
	cmd := Shield(exec.Command("sleep", "5"))
	if err := cmd.Start(); err != nil {
		t.Skipf("sleep unavailable: %v", err)
	}
	defer func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}()
	childGroup, err := unix.Getpgid(cmd.Process.Pid)
	if err != nil {
		t.Fatalf("Getpgid: %v", err)
	}
	if childGroup == unix.Getpgrp() {
		t.Fatal("shielded command shares the caller's process group")
	}
	if childGroup != cmd.Process.Pid {
		t.Fatalf("expected child to lead its group, pgid=%d pid=%d", childGroup, cmd.Process.Pid)
	}
}
