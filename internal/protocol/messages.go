package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	Sheet           SheetParams `json:"sheet"`
	FamilyCount     int         `json:"family_count"`
	NumPhases       int         `json:"num_phases"`
	CatalogDigest   string      `json:"catalog_digest"`
	CurrentPhase    int         `json:"current_phase"`
}

type SheetParams struct {
	Cols  int `json:"cols"`
	Rows  int `json:"rows"`
	TileW int `json:"tile_w"`
	TileH int `json:"tile_h"`
}

// SET_PHASE (client -> server): request a global phase swap.
type SetPhaseMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Phase           int    `json:"phase"`
}

// ZONE_PHASE (client -> server): phase override inside a grid region.
type ZonePhaseMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Phase           int    `json:"phase"`
	MinX            int    `json:"min_x"`
	MinY            int    `json:"min_y"`
	MaxX            int    `json:"max_x"`
	MaxY            int    `json:"max_y"`
}

// PHASE (server -> client): broadcast after a sweep was applied.
type PhaseMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Phase           int    `json:"phase"`
	Writes          int    `json:"writes"`
	Zoned           bool   `json:"zoned,omitempty"`
}

// FAMILIES (server -> client): per-tile family assignment.
type FamiliesMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Families        []int  `json:"families"`
	FamilyCount     int    `json:"family_count"`
}

// NEIGHBORS (server -> client): one tile's report-threshold neighbors.
type NeighborsMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	Tile            int             `json:"tile"`
	Family          int             `json:"family"`
	Entries         []NeighborEntry `json:"entries"`
}

type NeighborEntry struct {
	Neighbor int     `json:"neighbor"`
	Score    float64 `json:"score"`
}

// SCORES (server -> client): every scored candidate pair.
type ScoresMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Pairs           []PairScore `json:"pairs"`
}

type PairScore struct {
	A      int     `json:"a"`
	B      int     `json:"b"`
	Dir    string  `json:"dir"`
	Alpha  float64 `json:"alpha"`
	Chroma float64 `json:"chroma"`
	Total  float64 `json:"total"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}
