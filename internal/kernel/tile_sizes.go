// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package kernel

import "github.com/janpfeifer/gemm/hwy"

// Tile is the micro-kernel's tile shape: Mr rows by Nr columns of C per
// Micro call. Micro does not hold all Mr rows in accumulators across the Kc
// loop; it runs the full Kc loop for one row and one lane-width column chunk
// at a time, with a single vector accumulator.
type Tile struct {
	Mr int
	Nr int
}

// TileFor returns the register-tile shape for the given ISA level and
// element type, matching original_source/kernel.c's concrete __m512/__m256
// tile shapes exactly. i16 and i8 only
// grow beyond the scalar fallback tile on AVX-512BW, because the original
// never implements an AVX2 kernel for those two dtypes (kernel.c's AVX2
// branches for hq_kernel/q_kernel are empty) — this module follows the same
// scope per SPEC_FULL.md §9's resolution of that Open Question.
func TileFor[T hwy.Lanes](level hwy.DispatchLevel) Tile {
	var zero T
	switch any(zero).(type) {
	case float32:
		switch level {
		case hwy.DispatchAVX512:
			return Tile{Mr: 14, Nr: 32}
		case hwy.DispatchAVX2, hwy.DispatchSSE2:
			return Tile{Mr: 6, Nr: 16}
		}
	case float64:
		switch level {
		case hwy.DispatchAVX512:
			return Tile{Mr: 6, Nr: 16}
		case hwy.DispatchAVX2, hwy.DispatchSSE2:
			return Tile{Mr: 6, Nr: 8}
		}
	case int32:
		switch level {
		case hwy.DispatchAVX512:
			return Tile{Mr: 14, Nr: 32}
		case hwy.DispatchAVX2, hwy.DispatchSSE2:
			return Tile{Mr: 6, Nr: 16}
		}
	case int16:
		if level == hwy.DispatchAVX512 && hwy.HasAVX512BW() {
			return Tile{Mr: 30, Nr: 32}
		}
	case int8:
		if level == hwy.DispatchAVX512 && hwy.HasAVX512BW() {
			return Tile{Mr: 30, Nr: 64}
		}
	}
	return Tile{Mr: 4, Nr: 8}
}
