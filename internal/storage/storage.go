// Package storage represents byte counts exactly in binary units.
package storage

import (
	"fmt"
	"math"
)

// Unit is a power-of-1024 byte unit.
type Unit uint8

const (
	B Unit = iota
	KB
	MB
	GB
	TB
	PB
)

// unitTable holds the bit shift and label of each unit, indexed by Unit.
var unitTable = [...]struct {
	shift uint
	label string
}{
	B:  {0, "B"},
	KB: {10, "KB"},
	MB: {20, "MB"},
	GB: {30, "GB"},
	TB: {40, "TB"},
	PB: {50, "PB"},
}

// Units lists all units in ascending order.
func Units() []Unit {
	return []Unit{B, KB, MB, GB, TB, PB}
}

// Valid reports whether u is one of B through PB.
func (u Unit) Valid() bool {
	return int(u) < len(unitTable)
}

// String returns the unit label.
func (u Unit) String() string {
	if !u.Valid() {
		return fmt.Sprintf("Unit(%d)", uint8(u))
	}
	return unitTable[u].label
}

// Shift returns log2 of the unit size in bytes. u must be valid.
func (u Unit) Shift() uint {
	return unitTable[u].shift
}

// Size returns the unit size in bytes. u must be valid.
func (u Unit) Size() uint64 {
	return 1 << unitTable[u].shift
}

// Storage is an exact byte count split into a quotient and remainder of its
// largest fitting unit. The zero value is 0 B.
type Storage struct {
	quotient  uint64
	remainder uint64
	unit      Unit
}

// New builds a Storage from its parts without normalising them.
// It panics if unit is not valid.
func New(quotient, remainder uint64, unit Unit) Storage {
	if !unit.Valid() {
		panic(fmt.Sprintf("storage: invalid unit %s", unit))
	}
	return Storage{quotient: quotient, remainder: remainder, unit: unit}
}

// FromBytes picks the largest unit whose size does not exceed bytes.
func FromBytes(bytes uint64) Storage {
	for u := PB; u > B; u-- {
		shift := unitTable[u].shift
		if bytes >= 1<<shift {
			return Storage{
				quotient:  bytes >> shift,
				remainder: bytes & (1<<shift - 1),
				unit:      u,
			}
		}
	}
	return Storage{quotient: bytes, unit: B}
}

// Bytes returns the exact byte count.
func (s Storage) Bytes() uint64 {
	return s.quotient<<unitTable[s.unit].shift | s.remainder
}

// Float returns the value in its own unit. It is for display only.
func (s Storage) Float() float64 {
	if s.unit == B {
		return float64(s.quotient)
	}
	return float64(s.quotient) + float64(s.remainder)/float64(s.unit.Size())
}

func (s Storage) Quotient() uint64  { return s.quotient }
func (s Storage) Remainder() uint64 { return s.remainder }
func (s Storage) Unit() Unit        { return s.unit }

// String renders the quotient and two truncated fractional digits, e.g. "1.50 KB".
func (s Storage) String() string {
	frac := (s.remainder * 100) >> unitTable[s.unit].shift
	return fmt.Sprintf("%d.%02d %s", s.quotient, frac, s.unit)
}

// Add sums the byte counts of a and b. The sum saturates at math.MaxUint64.
func Add(a, b Storage) Storage {
	sum, ok := CheckedAdd(a, b)
	if !ok {
		return FromBytes(math.MaxUint64)
	}
	return sum
}

// CheckedAdd sums the byte counts of a and b, reporting false on overflow.
func CheckedAdd(a, b Storage) (Storage, bool) {
	x, y := a.Bytes(), b.Bytes()
	if x > math.MaxUint64-y {
		return Storage{}, false
	}
	return FromBytes(x + y), true
}

// Sum adds all values with Add.
func Sum(values ...Storage) Storage {
	var total Storage
	for _, v := range values {
		total = Add(total, v)
	}
	return total
}
