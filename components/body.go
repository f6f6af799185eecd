package components

// Components below are used by the render mirror, one entity per live agent.

// Transform is an agent's render-space placement.
type Transform struct {
	X, Y    float32
	Heading float32 // radians
	Scale   float32
}

// Appearance holds color inputs derived from group membership.
type Appearance struct {
	Hue     float32 // 0..1
	Grouped bool
}

// AgentRef links a render entity back to its simulation agent.
type AgentRef struct {
	ID     uint64
	State  AgentState
	Energy float32
}
