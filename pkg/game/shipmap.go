package game

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Room is one node of the ship map.
type Room struct {
	Name     string   `yaml:"name"`
	Adjacent []RoomID `yaml:"adjacent"`
	Vents    []RoomID `yaml:"vents,omitempty"`
	Visual   bool     `yaml:"visual,omitempty"` // hosts a visually confirmable task
}

// ShipMap is the room/vent topology. The core uses it for vocabulary
// (which strings name rooms) and vent reachability; movement legality
// stays with the game engine.
type ShipMap struct {
	Rooms map[RoomID]Room `yaml:"rooms"`
}

// LoadShipMap reads a ship map definition from a YAML file.
func LoadShipMap(path string) (*ShipMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ship map: %w", err)
	}
	var m ShipMap
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse ship map: %w", err)
	}
	if len(m.Rooms) == 0 {
		return nil, fmt.Errorf("ship map %q defines no rooms", path)
	}
	return &m, nil
}

// Has reports whether the room exists on this map.
func (m *ShipMap) Has(id RoomID) bool {
	_, ok := m.Rooms[id]
	return ok
}

// HasVent reports whether a vent can be entered from the room.
func (m *ShipMap) HasVent(id RoomID) bool {
	r, ok := m.Rooms[id]
	return ok && len(r.Vents) > 0
}

// Adjacent reports whether two rooms share a doorway.
func (m *ShipMap) Adjacent(a, b RoomID) bool {
	r, ok := m.Rooms[a]
	if !ok {
		return false
	}
	for _, n := range r.Adjacent {
		if n == b {
			return true
		}
	}
	return false
}

// RoomIDs returns all room identifiers, unordered.
func (m *ShipMap) RoomIDs() []RoomID {
	out := make([]RoomID, 0, len(m.Rooms))
	for id := range m.Rooms {
		out = append(out, id)
	}
	return out
}

// DefaultShipMap returns the built-in Skeld layout, used when no map
// file is configured.
func DefaultShipMap() *ShipMap {
	return &ShipMap{Rooms: map[RoomID]Room{
		"cafeteria":     {Name: "Cafeteria", Adjacent: []RoomID{"weapons", "admin", "upper engine", "medbay"}, Vents: []RoomID{"admin"}},
		"weapons":       {Name: "Weapons", Adjacent: []RoomID{"cafeteria", "navigation", "o2"}, Vents: []RoomID{"navigation"}, Visual: true},
		"navigation":    {Name: "Navigation", Adjacent: []RoomID{"weapons", "shields"}, Vents: []RoomID{"shields", "weapons"}},
		"o2":            {Name: "O2", Adjacent: []RoomID{"weapons", "shields", "admin"}},
		"shields":       {Name: "Shields", Adjacent: []RoomID{"navigation", "o2", "communications", "storage"}, Vents: []RoomID{"navigation"}, Visual: true},
		"communications": {Name: "Communications", Adjacent: []RoomID{"shields", "storage"}},
		"storage":       {Name: "Storage", Adjacent: []RoomID{"shields", "communications", "admin", "electrical", "lower engine"}},
		"admin":         {Name: "Admin", Adjacent: []RoomID{"cafeteria", "o2", "storage", "electrical"}, Vents: []RoomID{"cafeteria"}},
		"electrical":    {Name: "Electrical", Adjacent: []RoomID{"admin", "storage", "lower engine"}, Vents: []RoomID{"security", "medbay"}},
		"lower engine":  {Name: "Lower Engine", Adjacent: []RoomID{"storage", "electrical", "security", "reactor", "upper engine"}, Vents: []RoomID{"reactor", "upper engine"}},
		"security":      {Name: "Security", Adjacent: []RoomID{"lower engine", "reactor", "upper engine"}, Vents: []RoomID{"electrical", "medbay"}},
		"reactor":       {Name: "Reactor", Adjacent: []RoomID{"lower engine", "security", "upper engine"}, Vents: []RoomID{"lower engine", "upper engine"}},
		"upper engine":  {Name: "Upper Engine", Adjacent: []RoomID{"cafeteria", "lower engine", "security", "reactor", "medbay"}, Vents: []RoomID{"reactor", "lower engine"}},
		"medbay":        {Name: "Medbay", Adjacent: []RoomID{"cafeteria", "upper engine"}, Vents: []RoomID{"electrical", "security"}, Visual: true},
	}}
}
