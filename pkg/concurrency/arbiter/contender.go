package arbiter

import "kcoord/pkg/primitives"

// Request describes a requester joining the contention for a resource.
type Request struct {
	Requester primitives.RequesterID
	Priority  uint32
	Weight    uint32
	// Deadline of zero means none.
	Deadline primitives.Tick
}

// Contender is the arbitration record kept for one requester.
type Contender struct {
	Requester   primitives.RequesterID
	Priority    uint32
	Weight      uint32
	Tickets     uint32
	Deadline    primitives.Tick
	RequestTime primitives.Tick
	Granted     uint64
	Denied      uint64
	WaitTicks   uint64
}

func newContender(req Request, now primitives.Tick) *Contender {
	return &Contender{
		Requester:   req.Requester,
		Priority:    req.Priority,
		Weight:      req.Weight,
		Tickets:     req.Weight,
		Deadline:    req.Deadline,
		RequestTime: now,
	}
}

// AvgWaitTicks is the mean wait per arbitration the contender took part in.
func (c Contender) AvgWaitTicks() float64 {
	rounds := c.Granted + c.Denied
	if rounds == 0 {
		return 0
	}
	return float64(c.WaitTicks) / float64(rounds)
}
