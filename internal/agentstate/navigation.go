package agentstate

import (
	"sync"
	"time"

	"voxelagent.ai/internal/world"
)

type NavStatus int

const (
	NavIdle NavStatus = iota
	NavTraveling
	NavArrived
)

func (s NavStatus) String() string {
	switch s {
	case NavTraveling:
		return "TRAVELING"
	case NavArrived:
		return "ARRIVED"
	default:
		return "IDLE"
	}
}

func (s NavStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

const DefaultArrivalThreshold = 3.0

type NavigationState struct {
	Status      NavStatus   `json:"state"`
	Destination *world.Vec3 `json:"destination,omitempty"`
	Threshold   float64     `json:"arrival_threshold"`
	ChangedAt   time.Time   `json:"changed_at"`
}

func (s NavigationState) Describe() string {
	switch s.Status {
	case NavTraveling:
		if s.Destination != nil {
			return "traveling to " + s.Destination.String()
		}
		return "traveling"
	case NavArrived:
		return "arrived at destination"
	default:
		return "idle"
	}
}

// Navigation is the travel state machine. Arrival is never set directly: it
// is computed by Update from the current position.
type Navigation struct {
	mu        sync.RWMutex
	status    NavStatus
	dest      world.Vec3
	threshold float64
	changedAt time.Time
	now       func() time.Time
}

func NewNavigation(threshold float64) *Navigation {
	if threshold <= 0 {
		threshold = DefaultArrivalThreshold
	}
	n := &Navigation{threshold: threshold, now: time.Now}
	n.changedAt = n.now()
	return n
}

// SetTravelingTo starts travel, overriding any destination in flight.
func (n *Navigation) SetTravelingTo(dest world.Vec3) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.status = NavTraveling
	n.dest = dest
	n.changedAt = n.now()
}

// Update compares pos against the destination and moves Traveling to Arrived
// once within the threshold. It reports whether that transition happened.
func (n *Navigation) Update(pos world.Vec3) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.status != NavTraveling {
		return false
	}
	if pos.Dist(n.dest) > n.threshold {
		return false
	}
	n.status = NavArrived
	n.changedAt = n.now()
	return true
}

func (n *Navigation) SetIdle() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.status = NavIdle
	n.dest = world.Vec3{}
	n.changedAt = n.now()
}

// SetThreshold changes the arrival threshold; it applies from the next Update.
func (n *Navigation) SetThreshold(t float64) {
	if t <= 0 {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.threshold = t
}

func (n *Navigation) Current() NavigationState {
	n.mu.RLock()
	defer n.mu.RUnlock()
	s := NavigationState{Status: n.status, Threshold: n.threshold, ChangedAt: n.changedAt}
	if n.status != NavIdle {
		d := n.dest
		s.Destination = &d
	}
	return s
}

func (n *Navigation) Describe() string { return n.Current().Describe() }
