package protocol

// OBS (server -> client)
type ObsMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	AgentID         string `json:"agent_id"`

	Self      SelfObs     `json:"self"`
	Inventory []ItemStack `json:"inventory"`

	// Tiles carries full columns that became visible; Unloaded lists columns
	// the client must forget; Ops patches columns it already holds.
	Tiles    []TileObs `json:"tiles,omitempty"`
	Unloaded [][2]int  `json:"unloaded,omitempty"`
	Ops      []VoxelOp `json:"voxel_ops,omitempty"`

	Entities []EntityObs `json:"entities"`
}

type SelfObs struct {
	Pos       [3]float64 `json:"pos"`
	Health    float64    `json:"health"`
	MaxHealth float64    `json:"max_health"`
	Food      int        `json:"food"`
	Biome     string     `json:"biome,omitempty"`
}

type ItemStack struct {
	Slot  int    `json:"slot"`
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// TileObs is one column in RLE form. Ids are laid out y-major, then z, then x:
// index = ((y-MinY)*TileSize + z)*TileSize + x, with x and z local to the tile.
type TileObs struct {
	X    int    `json:"x"`
	Z    int    `json:"z"`
	Data string `json:"data"`
}

type VoxelOp struct {
	Pos [3]int `json:"pos"`
	B   uint16 `json:"b"` // block palette id
}

type EntityObs struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Type   string     `json:"type"`
	Pos    [3]float64 `json:"pos"`
	Player bool       `json:"player,omitempty"`
	Living bool       `json:"living,omitempty"`
}

// Command kinds.
const (
	CmdCommand   = "COMMAND"
	CmdTeleport  = "TELEPORT"
	CmdAttack    = "ATTACK"
	CmdUse       = "USE"
	CmdStopUsing = "STOP_USING"
)

// CMD (client -> server). Exactly one of the kind-specific fields is set.
type CmdMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Kind            string `json:"kind"`

	Command  string      `json:"command,omitempty"`
	Target   *[3]float64 `json:"target,omitempty"`
	EntityID string      `json:"entity_id,omitempty"`
	Item     string      `json:"item,omitempty"`
}

// CMD_RESULT (server -> client)
type CmdResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	OK              bool   `json:"ok"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
}
