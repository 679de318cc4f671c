package addons

import (
	"strings"
	"testing"

	"github.com/craftpanel/tui/internal/client"
)

func TestSetSnapshotSortsByName(t *testing.T) {
	m := New()
	m.SetSnapshot(client.Snapshot{Mods: []client.Addon{
		{Name: "WorldEdit", Size: "3.5 MB"},
		{Name: "essentials", Size: "1 MB"},
		{Name: "LuckPerms", Size: "800 KB"},
	}})

	var names []string
	for _, a := range m.mods {
		names = append(names, a.Name)
	}
	if got := strings.Join(names, ","); got != "essentials,LuckPerms,WorldEdit" {
		t.Errorf("order = %s", got)
	}
}

func TestViewEmpty(t *testing.T) {
	m := New()
	m.Width = 80
	if v := m.View(10); !strings.Contains(v, "No addons installed") {
		t.Errorf("empty view:\n%s", v)
	}
}

func TestViewPaging(t *testing.T) {
	m := New()
	m.Width = 80
	m.SetSnapshot(client.Snapshot{Players: 2, MaxPlayers: 20, Mods: []client.Addon{
		{Name: "a", Size: "1 KB"},
		{Name: "b", Size: "2 KB"},
		{Name: "c", Size: "3 KB"},
	}})

	v := m.View(2)
	if !strings.Contains(v, "Players 2/20") || !strings.Contains(v, "1 more") {
		t.Errorf("view:\n%s", v)
	}

	m.Scroll(10)
	if m.Offset != 2 {
		t.Errorf("Offset after scroll = %d, want 2", m.Offset)
	}
	m.Scroll(-10)
	if m.Offset != 0 {
		t.Errorf("Offset after scroll back = %d, want 0", m.Offset)
	}
}
