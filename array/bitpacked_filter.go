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

package array

import "github.com/vortexdb/vortex/buffer"

// bitpackedFilterSelectivityThreshold returns the fraction of set bits
// in mask below which it is cheaper to gather matching rows directly
// out of the packed buffer (skipping unpacked positions) rather than
// unpack-then-filter, per byte width. SUPPLEMENTED from
// original_source's fastlanes bitpacking filter compute kernel, which
// picks a selection strategy based on measured width-dependent
// crossover points rather than one constant for every width.
func bitpackedFilterSelectivityThreshold(byteWidth int) float64 {
	switch {
	case byteWidth <= 1:
		return 0.03
	case byteWidth <= 2:
		return 0.03
	case byteWidth <= 4:
		return 0.075
	default:
		return 0.09
	}
}

// FilterKernel chooses between a gather-style filter (walk only the
// set mask positions and decode each directly) and canonicalize-then-
// filter, based on the mask's selectivity against this array's byte
// width threshold.
func (b *BitPackedArray) FilterKernel(mask Array) (Array, error) {
	selected := 0
	for i := 0; i < mask.Len(); i++ {
		sc, err := ScalarAt(mask, i)
		if err != nil {
			return nil, err
		}
		if !sc.IsNull() && sc.Value.Bool {
			selected++
		}
	}
	if mask.Len() == 0 {
		return NewPrimitive(b.pt, b.buf, 0, b.dt.Null, AllValid(0)), nil
	}
	selectivity := float64(selected) / float64(mask.Len())
	w := int((b.bits + 7) / 8)
	if w < 1 {
		w = 1
	}
	if selectivity <= bitpackedFilterSelectivityThreshold(w) {
		return b.gatherFilter(mask)
	}
	canon, err := b.ToCanonical()
	if err != nil {
		return nil, err
	}
	return Filter(canon, mask)
}

// gatherFilter decodes only the rows selected by mask directly out of
// the packed representation, avoiding a full unpack pass. Used when
// mask selectivity is below the width-dependent crossover.
func (b *BitPackedArray) gatherFilter(mask Array) (Array, error) {
	w := b.pt.ByteWidth()
	out := make([]byte, 0, w*mask.Len()/4)
	validOut := make([]bool, 0, mask.Len()/4)
	count := 0
	for i := 0; i < mask.Len(); i++ {
		sc, err := ScalarAt(mask, i)
		if err != nil {
			return nil, err
		}
		if sc.IsNull() || !sc.Value.Bool {
			continue
		}
		vsc, err := ScalarAt(b, i)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, w)
		if !vsc.IsNull() {
			bits := vsc.Value.Primitive.Bits
			for k := 0; k < w; k++ {
				buf[k] = byte(bits >> (8 * k))
			}
			validOut = append(validOut, true)
		} else {
			validOut = append(validOut, false)
		}
		out = append(out, buf...)
		count++
	}
	return NewPrimitive(b.pt, buffer.New(out, w), count, b.dt.Null, validityFromBools(validOut)), nil
}
