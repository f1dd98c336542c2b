package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	AgentName       string            `json:"agent_name"`
	Capabilities    HelloCapabilities `json:"capabilities"`
	Auth            *HelloAuth        `json:"auth,omitempty"`
}

type HelloCapabilities struct {
	DeltaVoxels bool `json:"delta_voxels,omitempty"`
	MaxPending  int  `json:"max_pending,omitempty"`
}

type HelloAuth struct {
	Token string `json:"token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id,omitempty"`
	AgentID         string         `json:"agent_id"`
	ResumeToken     string         `json:"resume_token"`
	WorldParams     WorldParams    `json:"world_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

// WorldParams fixes the tile layout for the session. Tile columns span
// [MinY, MaxY) and are TileSize blocks wide on x and z.
type WorldParams struct {
	TileSize  int `json:"tile_size"`
	MinY      int `json:"min_y"`
	MaxY      int `json:"max_y"`
	ObsRadius int `json:"obs_radius"`
}

type CatalogDigests struct {
	BlockPalette DigestRef `json:"block_palette"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// CATALOG (server -> client): a chunk of catalog data.
// Each catalog is sent as a single part for now.
type CatalogMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Name            string `json:"name"`   // e.g. "block_palette"
	Digest          string `json:"digest"` // sha256 hex
	Part            int    `json:"part"`
	TotalParts      int    `json:"total_parts"`
	Data            any    `json:"data"`
}

const CatalogBlockPalette = "block_palette"

// BlockDef is one block_palette entry. Its index in the palette is the id used
// by tile data and voxel ops; id 0 is air.
type BlockDef struct {
	Name   string `json:"name"`
	Tool   string `json:"tool,omitempty"`
	Tier   string `json:"tier,omitempty"`
	Crop   bool   `json:"crop,omitempty"`
	Mature bool   `json:"mature,omitempty"`
}
