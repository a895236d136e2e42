package domain

// Player represents a participant in a session. The host is created with the
// session; player entries are appended while the game is in the lobby. TV
// screens connect with a token but have no player record of their own.
type Player struct {
	ID               string `json:"playerId"`
	Name             string `json:"name"`
	Role             Role   `json:"role"`
	IsConnected      bool   `json:"isConnected"`
	JoinedAtMs       int64  `json:"joinedAtMs"`
	Score            int    `json:"score"`
	DisconnectedAtMs int64  `json:"disconnectedAtMs,omitempty"` // host-only, never projected to other roles
}

// NewPlayer creates a new player with the given id, name and role
func NewPlayer(id, name string, role Role, nowMs int64) *Player {
	return &Player{
		ID:          id,
		Name:        name,
		Role:        role,
		IsConnected: false,
		JoinedAtMs:  nowMs,
		Score:       0,
	}
}

// Disconnect marks the player as disconnected and records when
func (p *Player) Disconnect(nowMs int64) {
	p.IsConnected = false
	p.DisconnectedAtMs = nowMs
}

// Reconnect marks the player as connected again
func (p *Player) Reconnect() {
	p.IsConnected = true
	p.DisconnectedAtMs = 0
}

// PlayerView is the projected form of a player. DisconnectedAtMs is only
// carried for the host viewer.
type PlayerView struct {
	ID               string `json:"playerId"`
	Name             string `json:"name"`
	Role             Role   `json:"role"`
	IsConnected      bool   `json:"isConnected"`
	JoinedAtMs       int64  `json:"joinedAtMs"`
	Score            int    `json:"score"`
	DisconnectedAtMs int64  `json:"disconnectedAtMs,omitempty"`
}

// View converts a Player to its projected form. Connection-status timestamps
// are stripped unless the viewer is the host.
func (p *Player) View(viewer Role) PlayerView {
	v := PlayerView{
		ID:          p.ID,
		Name:        p.Name,
		Role:        p.Role,
		IsConnected: p.IsConnected,
		JoinedAtMs:  p.JoinedAtMs,
		Score:       p.Score,
	}
	if viewer == RoleHost {
		v.DisconnectedAtMs = p.DisconnectedAtMs
	}
	return v
}
