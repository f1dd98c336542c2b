// Package protocol holds the JSON messages exchanged with a host world over
// the agent websocket.
package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello     = "HELLO"
	TypeWelcome   = "WELCOME"
	TypeCatalog   = "CATALOG"
	TypeObs       = "OBS"
	TypeCmd       = "CMD"
	TypeCmdResult = "CMD_RESULT"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

var supportedVersions = map[string]struct{}{
	"1.0": {},
}

// IsSupportedVersion accepts an empty version as the current one.
func IsSupportedVersion(v string) bool {
	if v == "" {
		return true
	}
	_, ok := supportedVersions[v]
	return ok
}
