package model

import (
	"maps"
	"slices"
	"sync"
)

// SlotManager hands out slots with ids unique to one inference run.
//
// Constant slots are deduplicated by value, so asking twice for the same
// qualifier returns the same ConstantSlot. SlotManager is safe for concurrent use.
type SlotManager struct {
	mu        sync.Mutex
	slots     map[int]Slot
	constants map[string]ConstantSlot
	// next is greater than every id in slots
	next int
}

func NewSlotManager() *SlotManager {
	return &SlotManager{
		slots:     make(map[int]Slot),
		constants: make(map[string]ConstantSlot),
	}
}

// add must be called with mu held
func (m *SlotManager) add(s Slot) {
	m.slots[s.ID()] = s
	if s.ID() >= m.next {
		m.next = s.ID() + 1
	}
	if value, ok := ConstantValue(s); ok && value != nil {
		if _, exists := m.constants[value.Hash()]; !exists {
			m.constants[value.Hash()] = s.(ConstantSlot)
		}
	}
}

func (m *SlotManager) NewVariable() VariableSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := NewVariableSlot(m.next)
	m.add(s)
	return s
}

func (m *SlotManager) NewSourceVariable(loc Location) SourceVariableSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := NewSourceVariableSlot(m.next, loc)
	m.add(s)
	return s
}

// Constant returns the ConstantSlot bound to value, creating it if needed
func (m *SlotManager) Constant(value Qualifier) ConstantSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.constants[value.Hash()]; ok {
		return s
	}
	s := NewConstantSlot(m.next, value)
	m.add(s)
	return s
}

// Declare adds a slot whose id was chosen elsewhere, such as in a problem file.
// It returns false, and changes nothing, if the id is already taken.
// Slots created afterward get ids above every declared one.
func (m *SlotManager) Declare(s Slot) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.slots[s.ID()]; taken || s.ID() < 0 {
		return false
	}
	m.add(s)
	return true
}

// Slot returns the slot with the given id, if m knows it
func (m *SlotManager) Slot(id int) (Slot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	return s, ok
}

// Slots returns a snapshot of every slot known so far, ordered by id
func (m *SlotManager) Slots() []Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := slices.Sorted(maps.Keys(m.slots))
	slots := make([]Slot, 0, len(ids))
	for _, id := range ids {
		slots = append(slots, m.slots[id])
	}
	return slots
}

func (m *SlotManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}
