package status

import "time"

// DefaultTPS is reported whenever the server does not give a tick rate.
const DefaultTPS = 20.0

// DefaultMaxPlayers is used when neither server.properties nor the list
// command yields a slot count.
const DefaultMaxPlayers = 20

// Snapshot is one published status record. A published Snapshot is never
// modified; each refresh builds a new one.
type Snapshot struct {
	Players    int       `json:"players"`
	MaxPlayers int       `json:"maxPlayers"`
	TPS        float64   `json:"tps"`
	Uptime     int64     `json:"uptime"`
	Mods       []Addon   `json:"mods"`
	UpdatedAt  time.Time `json:"-"`
}

// Addon describes one installed addon file.
type Addon struct {
	Name string `json:"name"`
	Size string `json:"size"`
}

func initialSnapshot() Snapshot {
	return Snapshot{
		TPS:  DefaultTPS,
		Mods: []Addon{},
	}
}
