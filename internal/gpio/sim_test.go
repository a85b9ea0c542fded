package gpio

import (
	"errors"
	"testing"
)

func TestSimPinIdleBeforeRelease(t *testing.T) {
	p := NewSimPin([]Segment{{High: false, Micros: 100}})

	lvl, err := p.Level()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !lvl {
		t.Error("expected idle-high before release")
	}

	// Advancing time without a release must not start the script.
	p.Delay(500)
	lvl, _ = p.Level()
	if !lvl {
		t.Error("expected idle-high, script should not have started")
	}
}

func TestSimPinScriptStartsOnRelease(t *testing.T) {
	p := NewSimPin([]Segment{
		{High: false, Micros: 80},
		{High: true, Micros: 80},
	})

	// Drive a start signal, then release.
	p.SetDirection(Output)
	p.SetLevel(false)
	p.Delay(18000)
	p.SetLevel(true)
	p.Delay(40)
	p.SetDirection(Input)

	lvl, _ := p.Level()
	if lvl {
		t.Error("expected low at script start")
	}

	p.Delay(79)
	if lvl, _ = p.Level(); lvl {
		t.Error("expected low at 79us")
	}

	p.Delay(1)
	if lvl, _ = p.Level(); !lvl {
		t.Error("expected high at 80us")
	}

	// Past the script the line idles high again.
	p.Delay(200)
	if lvl, _ = p.Level(); !lvl {
		t.Error("expected idle-high past script end")
	}
}

func TestSimPinRecordsWrites(t *testing.T) {
	p := NewSimPin(nil)
	p.SetDirection(Output)
	p.SetLevel(false)
	p.SetLevel(true)

	if len(p.Writes) != 2 || p.Writes[0] != false || p.Writes[1] != true {
		t.Errorf("Writes: got %v, want [false true]", p.Writes)
	}
	if len(p.DirChanges) != 1 || p.DirChanges[0] != Output {
		t.Errorf("DirChanges: got %v, want [output]", p.DirChanges)
	}
}

func TestSimPinFault(t *testing.T) {
	p := NewSimPin(nil)
	p.FaultErr = errors.New("line fault")

	if _, err := p.Level(); err == nil {
		t.Fatal("expected fault error")
	}
}

func TestSimPinOutputLevelReadsBack(t *testing.T) {
	p := NewSimPin(nil)
	p.SetDirection(Output)
	p.SetLevel(false)

	lvl, err := p.Level()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lvl {
		t.Error("expected driven-low readback while output")
	}
}

func TestSimOutputRecordsLevels(t *testing.T) {
	o := &SimOutput{}
	o.SetLevel(true)
	o.SetLevel(false)

	last, ok := o.Last()
	if !ok {
		t.Fatal("expected recorded levels")
	}
	if last {
		t.Error("expected last level low")
	}
	if len(o.Levels) != 2 {
		t.Errorf("expected 2 recorded levels, got %d", len(o.Levels))
	}
}

func TestSimOutputError(t *testing.T) {
	o := &SimOutput{Err: errors.New("gpio gone")}
	if err := o.SetLevel(true); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := o.Last(); ok {
		t.Error("failed write should not be recorded")
	}
}
