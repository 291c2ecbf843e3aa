// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package stats implements the per-array StatsSet: a lazily populated,
// concurrency-safe map from Stat to a Precision-tagged scalar value.
package stats

import (
	"sync"

	"github.com/vortexdb/vortex/scalar"
)

// Stat enumerates the statistics an array may carry.
type Stat uint8

const (
	Min Stat = iota
	Max
	Sum
	NullCount
	NaNCount
	IsConstant
	IsSorted
	IsStrictSorted
	UncompressedSizeInBytes
)

func (s Stat) String() string {
	switch s {
	case Min:
		return "min"
	case Max:
		return "max"
	case Sum:
		return "sum"
	case NullCount:
		return "null_count"
	case NaNCount:
		return "nan_count"
	case IsConstant:
		return "is_constant"
	case IsSorted:
		return "is_sorted"
	case IsStrictSorted:
		return "is_strict_sorted"
	case UncompressedSizeInBytes:
		return "uncompressed_size_in_bytes"
	default:
		return "unknown_stat"
	}
}

// ParseStat is the inverse of Stat.String, used when decoding a
// persisted statistics set.
func ParseStat(s string) (Stat, bool) {
	switch s {
	case "min":
		return Min, true
	case "max":
		return Max, true
	case "sum":
		return Sum, true
	case "null_count":
		return NullCount, true
	case "nan_count":
		return NaNCount, true
	case "is_constant":
		return IsConstant, true
	case "is_sorted":
		return IsSorted, true
	case "is_strict_sorted":
		return IsStrictSorted, true
	case "uncompressed_size_in_bytes":
		return UncompressedSizeInBytes, true
	default:
		return 0, false
	}
}

// Precision distinguishes a value proven from the array's actual
// contents (Exact) from a conservative bound still usable for pruning
// (Inexact, e.g. a Min/Max survived through a slice without
// recomputation).
type Precision struct {
	Exact bool
	Value scalar.Scalar
}

// ExactValue wraps v as an Exact precision entry.
func ExactValue(v scalar.Scalar) Precision { return Precision{Exact: true, Value: v} }

// InexactValue wraps v as an Inexact precision entry.
func InexactValue(v scalar.Scalar) Precision { return Precision{Exact: false, Value: v} }

// Set is a concurrent map of Stat to Precision. The zero value is
// ready to use. A single RWMutex suffices per the concurrency model:
// insertion is idempotent and commutative (spec §5).
type Set struct {
	mu      sync.RWMutex
	entries map[Stat]Precision
}

// Get returns the entry for stat, if any has been computed.
func (s *Set) Get(stat Stat) (Precision, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.entries[stat]
	return p, ok
}

// GetExact returns the entry for stat only if it is Exact.
func (s *Set) GetExact(stat Stat) (scalar.Scalar, bool) {
	p, ok := s.Get(stat)
	if !ok || !p.Exact {
		return scalar.Scalar{}, false
	}
	return p.Value, true
}

// Set records a precision for stat. An existing Exact entry is never
// downgraded by an Inexact write.
func (s *Set) Set(stat Stat, p Precision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = make(map[Stat]Precision)
	}
	if existing, ok := s.entries[stat]; ok && existing.Exact && !p.Exact {
		return
	}
	s.entries[stat] = p
}

// SetExact is shorthand for Set(stat, ExactValue(v)).
func (s *Set) SetExact(stat Stat, v scalar.Scalar) { s.Set(stat, ExactValue(v)) }

// SetInexact is shorthand for Set(stat, InexactValue(v)).
func (s *Set) SetInexact(stat Stat, v scalar.Scalar) { s.Set(stat, InexactValue(v)) }

// Clone returns an independent copy of the set's current entries.
func (s *Set) Clone() *Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := &Set{entries: make(map[Stat]Precision, len(s.entries))}
	for k, v := range s.entries {
		out.entries[k] = v
	}
	return out
}

// Retain keeps only the stats for which keep returns true, discarding
// the rest. Used by generic ops to implement the propagation table in
// spec §4.4.
func (s *Set) Retain(keep func(Stat, Precision) (Precision, bool)) *Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := &Set{entries: make(map[Stat]Precision)}
	for k, v := range s.entries {
		if nv, ok := keep(k, v); ok {
			out.entries[k] = nv
		}
	}
	return out
}

// Range calls fn once per recorded (Stat, Precision) entry, in no
// particular order. Used by the file format to persist a root-level
// statistics set into the footer (spec §4.7 "optional statistics
// sets").
func (s *Set) Range(fn func(Stat, Precision)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.entries {
		fn(k, v)
	}
}
