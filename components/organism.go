package components

// Ungrouped is the group id of an agent that belongs to no group.
// It is distinct from group 0.
const Ungrouped int32 = -1

// AgentState is the behavior an agent chose on its most recent tick.
// It is recomputed every tick and only persisted for display.
type AgentState uint8

const (
	StateIdle AgentState = iota
	StateSeekingFood
	StateSeekingMate
	StateFlee
	StateWander
)

var stateNames = [...]string{"Idle", "SeekingFood", "SeekingMate", "Flee", "Wander"}

func (s AgentState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// Agent is one member of the population. Agents live by value in the
// world's dense agent slice and are addressed by index during a tick.
type Agent struct {
	ID         uint64
	Generation uint32
	GroupID    int32
	Position   Vec2 // wrapped into [0, world)
	Velocity   Vec2 // |v| <= base speed
	Energy     float32
	Age        float32 // seconds
	Stress     float32 // >= 0
	State      AgentState
	Alive      bool
}

// Grouped reports whether the agent belongs to a group.
func (a *Agent) Grouped() bool { return a.GroupID != Ungrouped }

// Size is the display scale of the agent, growing with age up to 2.5.
func (a *Agent) Size() float32 { return 1 + min(1.5, a.Age*0.05) }
