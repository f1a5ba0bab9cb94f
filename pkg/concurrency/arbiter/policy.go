package arbiter

import "fmt"

// Policy selects how a winner is chosen among contenders.
type Policy int

const (
	// HighestPriority picks the largest priority; ties go to the
	// earliest-registered contender.
	HighestPriority Policy = iota
	// RoundRobin cycles through contenders in registration order.
	RoundRobin
	// FairShare picks the contender with the fewest grants so far.
	FairShare
	// WeightedFair draws a contender with probability proportional to its weight.
	WeightedFair
	// Lottery draws a contender with probability proportional to its tickets.
	Lottery
	// EarliestDeadline picks the smallest nonzero deadline.
	EarliestDeadline
)

var policyNames = map[Policy]string{
	HighestPriority:  "highest_priority",
	RoundRobin:       "round_robin",
	FairShare:        "fair_share",
	WeightedFair:     "weighted_fair",
	Lottery:          "lottery",
	EarliestDeadline: "earliest_deadline",
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// Policies lists every policy in declaration order.
func Policies() []Policy {
	return []Policy{HighestPriority, RoundRobin, FairShare, WeightedFair, Lottery, EarliestDeadline}
}

// ParsePolicy maps a policy name back to its value.
func ParsePolicy(name string) (Policy, error) {
	for _, p := range Policies() {
		if policyNames[p] == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown arbitration policy %q", name)
}
