package runtime

import "fmt"

// OwnershipState describes how a heap slot is currently held.
type OwnershipState int

const (
	StateOwned OwnershipState = iota
	StateImmutablyBorrowed
	StateMutablyBorrowed
	StateMoved
)

func (s OwnershipState) String() string {
	switch s {
	case StateOwned:
		return "Owned"
	case StateImmutablyBorrowed:
		return "ImmutablyBorrowed"
	case StateMutablyBorrowed:
		return "MutablyBorrowed"
	case StateMoved:
		return "Moved"
	default:
		return fmt.Sprintf("unknown_state_%d", int(s))
	}
}

type slot struct {
	value   Value
	state   OwnershipState
	borrows int
}

// Store is the heap arena for boxed values. Borrow bookkeeping is informational: the analyzer
// has already proved exclusivity, so nothing here rejects a borrow.
type Store struct {
	slots []slot
}

// NewStore returns an empty arena.
func NewStore() *Store {
	return &Store{}
}

// Len reports how many addresses have been allocated.
func (s *Store) Len() int {
	return len(s.slots)
}

// Alloc places value in a fresh Owned slot.
func (s *Store) Alloc(value Value) Address {
	s.slots = append(s.slots, slot{value: value, state: StateOwned})
	return Address(len(s.slots) - 1)
}

func (s *Store) lookup(addr Address) (*slot, error) {
	if addr < 0 || int(addr) >= len(s.slots) {
		return nil, fmt.Errorf("address %d was never allocated", addr)
	}
	return &s.slots[addr], nil
}

// Read returns the value at addr without consuming it.
func (s *Store) Read(addr Address) (Value, error) {
	sl, err := s.lookup(addr)
	if err != nil {
		return nil, err
	}
	if sl.state == StateMoved {
		return nil, fmt.Errorf("address %d was moved out", addr)
	}
	return sl.value, nil
}

// Take moves the value out of addr, leaving the slot Moved.
func (s *Store) Take(addr Address) (Value, error) {
	sl, err := s.lookup(addr)
	if err != nil {
		return nil, err
	}
	if sl.state == StateMoved {
		return nil, fmt.Errorf("address %d was moved out", addr)
	}
	value := sl.value
	sl.value = MovedValue{}
	sl.state = StateMoved
	sl.borrows = 0
	return value, nil
}

// Replace overwrites the value at addr in place and returns the previous value.
func (s *Store) Replace(addr Address, value Value) (Value, error) {
	sl, err := s.lookup(addr)
	if err != nil {
		return nil, err
	}
	if sl.state == StateMoved {
		return nil, fmt.Errorf("address %d was moved out", addr)
	}
	previous := sl.value
	sl.value = value
	return previous, nil
}

// Borrow records a new reference to addr.
func (s *Store) Borrow(addr Address, mutable bool) error {
	sl, err := s.lookup(addr)
	if err != nil {
		return err
	}
	if sl.state == StateMoved {
		return fmt.Errorf("address %d was moved out", addr)
	}
	if mutable {
		sl.state = StateMutablyBorrowed
		sl.borrows = 1
		return nil
	}
	if sl.state != StateImmutablyBorrowed {
		sl.borrows = 0
	}
	sl.state = StateImmutablyBorrowed
	sl.borrows++
	return nil
}

// Release drops one reference to addr, returning the slot to Owned when none remain.
func (s *Store) Release(addr Address) {
	sl, err := s.lookup(addr)
	if err != nil || sl.state == StateMoved || sl.state == StateOwned {
		return
	}
	sl.borrows--
	if sl.borrows <= 0 {
		sl.borrows = 0
		sl.state = StateOwned
	}
}

// State reports the ownership state of addr and, for immutable borrows, the live count.
func (s *Store) State(addr Address) (OwnershipState, int, error) {
	sl, err := s.lookup(addr)
	if err != nil {
		return StateMoved, 0, err
	}
	return sl.state, sl.borrows, nil
}
