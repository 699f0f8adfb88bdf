package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStartReportsChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yml")
	if err := os.WriteFile(path, []byte("a: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan struct{}, 8)
	stop := Start(path, 20*time.Millisecond, func() { changed <- struct{}{} })
	defer stop()

	// Give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("a: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("change was not reported")
	}
}

func TestStartCoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yml")
	if err := os.WriteFile(path, []byte("a: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan struct{}, 8)
	stop := Start(path, 300*time.Millisecond, func() { changed <- struct{}{} })
	defer stop()

	time.Sleep(100 * time.Millisecond)

	for i := 1; i <= 5; i++ {
		if err := os.WriteFile(path, []byte(fmt.Sprintf("a: %d\n", i)), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("change was not reported")
	}
	select {
	case <-changed:
		t.Error("a burst of writes should be reported once")
	case <-time.After(time.Second):
	}
}

func TestStartIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yml")
	if err := os.WriteFile(path, []byte("a: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan struct{}, 8)
	stop := Start(path, 20*time.Millisecond, func() { changed <- struct{}{} })
	defer stop()
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "other.yml"), []byte("b: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
		t.Fatal("sibling change should not be reported")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestStopReturns(t *testing.T) {
	stop := Start(filepath.Join(t.TempDir(), "missing.yml"), DefaultDebounce, func() {})
	done := make(chan struct{})
	go func() {
		stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stop did not return")
	}
}
