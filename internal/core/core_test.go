package core

import "testing"

func TestLevelsPriorityOrder(t *testing.T) {
	levels := Levels()
	want := []SummaryLevel{LevelMicro, LevelStandard, LevelDetailed}

	if len(levels) != len(want) {
		t.Fatalf("expected %d levels, got %d", len(want), len(levels))
	}
	for i, level := range want {
		if levels[i] != level {
			t.Errorf("position %d: got %s, want %s", i, levels[i], level)
		}
	}
}

func TestPrimaryTag(t *testing.T) {
	tagged := Article{Tags: []string{"go", "databases"}}
	if got := tagged.PrimaryTag(); got != "go" {
		t.Errorf("expected first tag, got %q", got)
	}

	untagged := Article{}
	if got := untagged.PrimaryTag(); got != "" {
		t.Errorf("untagged article should have empty primary tag, got %q", got)
	}
}
