package script

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestController_DecidesFromObservation(t *testing.T) {
	c, err := NewControllerFromSource("test", []byte(`
action := 0
if obs.target_visible && obs.ammo > 0 {
	action = 7
} else {
	action = 1
}
`), nil)
	if err != nil {
		t.Fatal(err)
	}

	if got := c.Decide(Observation{TargetVisible: true, Ammo: 5}); got != 7 {
		t.Errorf("visible+ammo should fire, got %d", got)
	}
	if got := c.Decide(Observation{TargetVisible: false, Ammo: 5}); got != 1 {
		t.Errorf("blind should advance, got %d", got)
	}
}

func TestController_DefaultScriptCompiles(t *testing.T) {
	c, err := NewControllerFromSource("rusher", DefaultSource(), nil)
	if err != nil {
		t.Fatal(err)
	}
	got := c.Decide(Observation{
		TargetVisible: true,
		Ammo:          10,
		Distance:      10,
		MaxHealth:     100,
		Health:        100,
		TargetX:       10,
	})
	if got != 7 {
		t.Errorf("rusher facing a visible close target should fire, got %d", got)
	}
}

func TestController_MissingActionReadsIdle(t *testing.T) {
	logged := false
	c, err := NewControllerFromSource("noop", []byte(`x := obs.ammo`), func(string, ...any) {
		logged = true
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Decide(Observation{Ammo: 3}); got != 0 {
		t.Errorf("script without action should read idle, got %d", got)
	}
	if !logged {
		t.Error("missing action should be logged")
	}
}

func TestController_RuntimeErrorReadsIdle(t *testing.T) {
	c, err := NewControllerFromSource("boom", []byte(`action := obs.ammo / 0`), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Decide(Observation{Ammo: 3}); got != 0 {
		t.Errorf("failing script should read idle, got %d", got)
	}
}

func TestController_ReloadPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ctrl.tengo")
	if err := os.WriteFile(path, []byte(`action := 1`), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := NewController(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Decide(Observation{}); got != 1 {
		t.Fatalf("initial script action = %d", got)
	}

	if err := os.WriteFile(path, []byte(`action := 4`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := c.Reload(); err != nil {
		t.Fatal(err)
	}
	if got := c.Decide(Observation{}); got != 4 {
		t.Errorf("reloaded script action = %d", got)
	}
}

func TestWatcher_ReportsScriptWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	path := filepath.Join(dir, "ctrl.tengo")
	if err := os.WriteFile(path, []byte(`action := 1`), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-w.Events:
		if got != path {
			t.Errorf("event for %s, want %s", got, path)
		}
	case err := <-w.Errors:
		t.Fatal(err)
	case <-time.After(2 * time.Second):
		t.Fatal("no watch event within timeout")
	}
}
