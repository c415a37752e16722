package ui

import "testing"

func TestRenderStateMarkAndHas(t *testing.T) {
	r := NewRenderState()

	if r.Has("list", "m1") {
		t.Error("empty state should not contain m1")
	}

	r.Mark("list", "m1")
	if !r.Has("list", "m1") {
		t.Error("marked message should be present")
	}
	if r.Has("other", "m1") {
		t.Error("containers must be independent")
	}

	r.BeginFrame("list")
	if r.Has("list", "m1") {
		t.Error("BeginFrame should clear the container")
	}
}

func TestRenderStateScrollTarget(t *testing.T) {
	r := NewRenderState()

	if _, _, ok := r.TakeScrollTarget(); ok {
		t.Error("no target should be pending initially")
	}

	r.ScrollTo("list", "m7", 4)
	id, offset, ok := r.TakeScrollTarget()
	if !ok || id != "m7" || offset != 4 {
		t.Errorf("TakeScrollTarget = (%q, %d, %v)", id, offset, ok)
	}
	if _, _, ok := r.TakeScrollTarget(); ok {
		t.Error("target should be consumed")
	}
}

func TestRenderStateHighlightAndAutoScroll(t *testing.T) {
	r := NewRenderState()

	if !r.AutoScroll() {
		t.Error("auto-scroll should default on")
	}
	r.SetAutoScroll(false)
	if r.AutoScroll() {
		t.Error("auto-scroll should be off")
	}

	r.SetHighlight("m1", true)
	if !r.Highlighted("m1") {
		t.Error("m1 should be highlighted")
	}
	r.SetHighlight("m1", false)
	if r.Highlighted("m1") {
		t.Error("highlight should clear")
	}
}
