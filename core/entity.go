package core

import "strconv"

// Capacity is the fixed number of entity slots, tables are never resized
const Capacity = 1000

// Entity is an index into the fixed-capacity component tables
// Valid handles satisfy 0 <= id < Capacity; obtain them from Store.Create or Store.Handle
type Entity uint32

// Boundary is the reserved id meaning "world edge" in collision pairs
// Never a valid table index
const Boundary Entity = Capacity

// Index returns the table slot for the entity
func (e Entity) Index() int {
	return int(e)
}

// IsBoundary reports whether e is the world-edge sentinel
func (e Entity) IsBoundary() bool {
	return e == Boundary
}

func (e Entity) String() string {
	if e == Boundary {
		return "boundary"
	}
	return strconv.FormatUint(uint64(e), 10)
}
