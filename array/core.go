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

// Package array implements the recursive array model: a polymorphic
// Array value backed by one of many physical encodings, all
// satisfying the same capability VTable (this file), plus the
// encoding catalog (the other files in this package) and the
// canonicalization/validity machinery each encoding relies on.
//
// Arrays are a tagged-union value, not a class hierarchy: an encoding
// is a Go type that implements Array and, optionally, any of the
// compute-kernel interfaces below. A missing kernel is not an error —
// the generic entry points in ops.go (re-exported by package compute)
// fall back to canonicalizing the input and retrying on the canonical
// encoding.
package array

import (
	"github.com/vortexdb/vortex/buffer"
	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/scalar"
	"github.com/vortexdb/vortex/stats"
)

// Array is the structural contract every encoding must satisfy.
// Implementations are expected to be small, cheaply-copied values
// (structs holding buffers/children by reference) — "mutation" is
// limited to Stats(), which is a shared, lock-guarded side table.
type Array interface {
	// Len returns the number of logical rows.
	Len() int
	// DType returns the array's logical type. This is always the
	// *logical* type — children may carry different dtypes (e.g. a
	// dict array's codes child is an unsigned integer regardless of
	// the dict's own dtype).
	DType() dtype.DType
	// EncodingID returns the globally unique encoding identifier, e.g.
	// "vortex.primitive" or "fastlanes.bitpacked".
	EncodingID() string

	// NChildren returns the number of child arrays.
	NChildren() int
	// Child returns the i'th child array.
	Child(i int) Array

	// NBuffers returns the number of owned byte buffers.
	NBuffers() int
	// Buffer returns the i'th owned byte buffer.
	Buffer(i int) buffer.ByteBuffer

	// Metadata returns the encoding's opaque serialized metadata,
	// stored adjacent to (not mixed with) buffers and children.
	Metadata() []byte

	// Stats returns the array's (shared, mutable) statistics set.
	Stats() *stats.Set

	// Validity returns the array's logical validity mask.
	Validity() Validity

	// ToCanonical lowers the array to the canonical encoding for its
	// dtype, preserving length, dtype and logical value at every
	// position. Must be idempotent when called on an already-canonical
	// array.
	ToCanonical() (Array, error)
}

// Slicer is an optional kernel: O(1) or near-O(1) slicing without
// full decode. See compute.Slice.
type Slicer interface {
	SliceKernel(start, stop int) (Array, error)
}

// Taker is an optional kernel for take-by-indices.
type Taker interface {
	TakeKernel(indices Array) (Array, error)
}

// Filterer is an optional kernel for boolean-mask filtering.
type Filterer interface {
	FilterKernel(mask Array) (Array, error)
}

// ScalarAtter is an optional kernel for single-position access
// without materializing the whole array.
type ScalarAtter interface {
	ScalarAtKernel(i int) (scalar.Scalar, error)
}

// CompareOp enumerates comparison operators for Comparer/between.
type CompareOp uint8

const (
	CompareEq CompareOp = iota
	CompareNotEq
	CompareLt
	CompareLte
	CompareGt
	CompareGte
)

// Comparer is an optional kernel for elementwise comparison against
// another array (usually a ConstantArray).
type Comparer interface {
	CompareKernel(op CompareOp, rhs Array) (Array, error)
}

// BinaryNumericOp enumerates the elementwise numeric operators
// BinaryNumericer supports.
type BinaryNumericOp uint8

const (
	NumericAdd BinaryNumericOp = iota
	NumericSub
	NumericMul
	NumericDiv
)

// BinaryNumericer is an optional kernel for elementwise arithmetic.
type BinaryNumericer interface {
	BinaryNumericKernel(op BinaryNumericOp, rhs Array) (Array, error)
}

// SearchSortedSide selects which edge of a run of equal values
// SearchSorted returns.
type SearchSortedSide uint8

const (
	SearchLeft SearchSortedSide = iota
	SearchRight
)

// SearchSortedResult is the outcome of a SearchSorted query.
type SearchSortedResult struct {
	Found bool
	Index int
}

// SearchSorteder is an optional kernel for binary search over a
// presumed-sorted array.
type SearchSorteder interface {
	SearchSortedKernel(value scalar.Scalar, side SearchSortedSide) (SearchSortedResult, error)
}

// IsSorteder is an optional kernel for sortedness checks.
type IsSorteder interface {
	IsSortedKernel(strict bool) (bool, error)
}

// Summer is an optional kernel for Stat.Sum computation.
type Summer interface {
	SumKernel() (scalar.Scalar, error)
}

// StrictComparison selects whether a Between bound is inclusive or
// exclusive.
type StrictComparison uint8

const (
	BoundInclusive StrictComparison = iota
	BoundExclusive
)

// BetweenOptions configures a Between evaluation.
type BetweenOptions struct {
	LowerStrict StrictComparison
	UpperStrict StrictComparison
}

// Betweener is an optional kernel for fused range comparisons.
type Betweener interface {
	BetweenKernel(lower, upper scalar.Scalar, opts BetweenOptions) (Array, error)
}

// Caster is an optional kernel for dtype casts that avoid a full
// canonicalize-then-cast round trip.
type Caster interface {
	CastKernel(target dtype.DType) (Array, error)
}

// FillForwarder is an optional kernel implementing last-observation-
// carried-forward null filling.
type FillForwarder interface {
	FillForwardKernel() (Array, error)
}

// FillNuller is an optional kernel replacing nulls with a fixed
// scalar.
type FillNuller interface {
	FillNullKernel(with scalar.Scalar) (Array, error)
}

// MinMaxResult holds the pair of extrema MinMaxer computes together.
type MinMaxResult struct {
	Min, Max scalar.Scalar
}

// MinMaxer is an optional kernel computing Min and Max in one pass.
type MinMaxer interface {
	MinMaxKernel() (MinMaxResult, error)
}

// IsConstanter is an optional kernel for the IsConstant stat.
type IsConstanter interface {
	IsConstantKernel() (bool, error)
}

// Encoder is the optional encode kernel: given a canonical array and
// optionally a previous "like" array of the same encoding (to reuse
// parameters such as a dictionary or bit width), produce an encoded
// array, or (nil, nil) to decline.
type Encoder interface {
	EncodeKernel(canonical Array, like Array) (Array, error)
}

// ChildVisitor is implemented by callers of VisitBuffers/VisitChildren.
type ChildVisitor func(name string, child Array) error

// BufferVisitor is implemented by callers of VisitBuffers.
type BufferVisitor func(name string, buf buffer.ByteBuffer) error

// Visitable is an optional interface encodings may implement to name
// their children/buffers for serialization, size accounting and
// debugging. Encodings that don't implement it are still traversable
// positionally via NChildren/Child and NBuffers/Buffer.
type Visitable interface {
	VisitChildren(visit ChildVisitor) error
	VisitBuffers(visit BufferVisitor) error
}

// WithChildrenReplacer is an optional kernel allowing a new array to
// be built from an existing one with its children pointer-swapped,
// without reserializing metadata. Used by layout readers splicing in
// lazily-decoded children.
type WithChildrenReplacer interface {
	WithChildren(children []Array) (Array, error)
}
