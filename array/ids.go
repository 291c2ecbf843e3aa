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

// Encoding identifiers. Globally unique strings persisted in the file
// format's encoding registries (spec §4.1, §6).
const (
	EncodingNull        = "vortex.null"
	EncodingBool        = "vortex.bool"
	EncodingPrimitive   = "vortex.primitive"
	EncodingVarBinView  = "vortex.varbinview"
	EncodingStruct      = "vortex.struct"
	EncodingList        = "vortex.list"
	EncodingConstant    = "vortex.constant"
	EncodingChunked     = "vortex.chunked"
	EncodingDict        = "vortex.dict"
	EncodingRunEnd      = "vortex.runend"
	EncodingRunEndBool  = "vortex.runendbool"
	EncodingBitPacked   = "fastlanes.bitpacked"
	EncodingFoR         = "fastlanes.for"
	EncodingDelta       = "fastlanes.delta"
	EncodingSparse      = "vortex.sparse"
	EncodingALP         = "vortex.alp"
	EncodingALPRD       = "vortex.alprd"
	EncodingFSST        = "vortex.fsst"
	EncodingZigZag      = "vortex.zigzag"
	EncodingRoaringBool = "vortex.roaring_bool"
	EncodingRoaringInt  = "vortex.roaring_int"
	EncodingDateTime    = "vortex.datetimeparts"
	EncodingDecimal     = "vortex.decimal"
	EncodingByteBool    = "vortex.bytebool"
	EncodingExtension   = "vortex.ext"
)
