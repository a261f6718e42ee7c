package common

import "testing"

func TestDefaultKeyMap_HasCriticalBindings(t *testing.T) {
	km := DefaultKeyMap()
	if len(km.Help.Keys()) == 0 || km.Help.Keys()[0] != "?" {
		t.Fatalf("expected ? key binding for help")
	}
	if len(km.ForceQuit.Keys()) == 0 || km.ForceQuit.Keys()[0] != "ctrl+c" {
		t.Fatalf("expected ctrl+c force quit binding")
	}
	tabs := []string{km.Tab1.Keys()[0], km.Tab2.Keys()[0], km.Tab3.Keys()[0], km.Tab4.Keys()[0], km.Tab5.Keys()[0]}
	for i, k := range tabs {
		if k != string(rune('1'+i)) {
			t.Fatalf("tab %d bound to %q", i+1, k)
		}
	}
}
