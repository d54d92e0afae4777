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

package gemm

import (
	"github.com/janpfeifer/gemm/hwy"
	"github.com/janpfeifer/gemm/internal/blocking"
	"github.com/janpfeifer/gemm/internal/kernel"
	"github.com/janpfeifer/gemm/internal/pack"
	"github.com/janpfeifer/gemm/internal/parallel"
)

// run is the five-loop GotoBLAS blocking nest (spec.md §4.4):
//
//	for jc in 0..N step NC:          // B column slab
//	  for pc in 0..K step KC:        // shared K slice
//	    pack_blockB(B[pc:pc+kc, jc:jc+nc])
//	    for ic in 0..M step MC:      // A row strip (parallel)
//	      pack_blockA(A[ic:ic+mc, pc:pc+kc])
//	      for jr in 0..nc step NR:
//	        for ir in 0..mc step MR:
//	          kernel(...)
//
// The jc and pc loops are sequential — they govern what is resident in L3
// and L1 respectively, and reordering them breaks the cache model. The ic
// loop is distributed across pool's workers with static block assignment;
// each worker packs into its own private packed-A buffer, and pool.ParallelFor
// blocking until all workers finish is the barrier spec.md §5 requires
// around packed_B before the next pc iteration overwrites it.
func run[T Elem](pool *parallel.Pool, a, b, c Matrix[T], tile kernel.Tile) {
	m, n, k := a.Rows, b.Cols, a.Cols
	if m == 0 || n == 0 || k == 0 {
		return
	}

	var zero T
	elemSize := elemSizeOf(zero)

	bs := blocking.Sizes(blocking.Resolve(), pool.NumWorkers(), tile.Mr, tile.Nr, elemSize)
	mr, nr := tile.Mr, tile.Nr

	var packedBBuf []T

	for jc := 0; jc < n; jc += bs.NC {
		nc := min(bs.NC, n-jc)

		for pc := 0; pc < k; pc += bs.KC {
			kc := min(bs.KC, k-pc)

			numBPanels := (nc + nr - 1) / nr
			packedBSize := numBPanels * kc * nr
			if cap(packedBBuf) < packedBSize {
				packedBBuf = make([]T, packedBSize)
			}
			packedB := packedBBuf[:packedBSize]
			pack.BlockB(pool, b.Data, packedB, k, n, pc, jc, kc, nc, nr)

			numICStrips := (m + bs.MC - 1) / bs.MC
			pool.ParallelFor(numICStrips, func(start, end int) {
				var packedA []T
				for strip := start; strip < end; strip++ {
					ic := strip * bs.MC
					mc := min(bs.MC, m-ic)

					numAPanels := (mc + mr - 1) / mr
					packedASize := numAPanels * kc * mr
					if len(packedA) < packedASize {
						packedA = make([]T, packedASize)
					}
					pack.BlockA(nil, a.Data, packedA, m, k, ic, pc, mc, kc, mr)

					for jr := 0; jr < nc; jr += nr {
						nrActive := min(nr, nc-jr)
						bPanel := (jr / nr) * kc * nr

						for ir := 0; ir < mc; ir += mr {
							mrActive := min(mr, mc-ir)
							aPanel := (ir / mr) * kc * mr

							kernel.Micro(packedA[aPanel:], packedB[bPanel:], c.Data,
								c.Cols, ic+ir, jc+jr, kc, mr, nr, mrActive, nrActive)
						}
					}
				}
			})
		}
	}
}

func elemSizeOf[T Elem](zero T) int {
	switch any(zero).(type) {
	case float32, int32:
		return 4
	case float64:
		return 8
	case int16:
		return 2
	case int8:
		return 1
	default:
		return 4
	}
}

// currentLevel is the SIMD dispatch level used to pick register-tile
// shapes; the packing/kernel code itself is dtype-generic and does not
// depend on the level beyond this.
func currentLevel() hwy.DispatchLevel {
	return hwy.CurrentLevel()
}
