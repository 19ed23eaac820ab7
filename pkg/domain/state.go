package domain

import "fmt"

// State is the token lifecycle state shared by the product and garment
// registries. The numeric codes are part of the external contract: clients
// map them to display strings with the fixed table below, so codes must
// never be renumbered.
type State int

const (
	StateCreated  State = 0
	StatePending  State = 1
	StateAccepted State = 2
	StateRejected State = 3
	StateDeleted  State = 4
	StateForSale  State = 5
	StateBought   State = 6
)

var stateNames = map[State]string{
	StateCreated:  "Created",
	StatePending:  "Pending",
	StateAccepted: "Accepted",
	StateRejected: "Rejected",
	StateDeleted:  "Deleted",
	StateForSale:  "ForSale",
	StateBought:   "Bought",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// IsValid reports whether s is one of the defined lifecycle states.
func (s State) IsValid() bool {
	_, ok := stateNames[s]
	return ok
}

// Terminal reports whether no transition may ever leave s.
func (s State) Terminal() bool {
	switch s {
	case StateRejected, StateDeleted, StateBought:
		return true
	}
	return false
}
