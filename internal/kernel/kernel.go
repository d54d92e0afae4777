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

// Package kernel implements the register-resident micro-kernel: the
// innermost step of the GotoBLAS 5-loop GEMM algorithm. It consumes the
// packed A/B micro-panels produced by package pack and accumulates
// C[ir:ir+m, jr:jr+n] += packedA * packedB for a single Mr x Nr tile,
// where m <= Mr and n <= Nr.
package kernel

import "github.com/janpfeifer/gemm/hwy"

// Micro computes C[ir:ir+m, jr:jr+n] += packedA * packedB for one register
// tile, where packedA is [kc, mr] (K-first, Mr contiguous per k) and
// packedB is [kc, nr] (K-first, Nr contiguous per k) — the exact layouts
// BlockA/BlockB in package pack produce. m and n may be less than mr/nr for
// a tile at the edge of the matrix; rows beyond m are skipped by the row
// loop, and columns beyond n are computed in the last, partial vector (the
// masked-off lanes of packedB load as zero) but never written back, via the
// lane mask built from n.
//
// On float element types the inner rank-1 update is a true fused
// multiply-add via hwy.MulAdd when the running CPU has hardware FMA
// (hwy.HasFMA, set by AVX2+FMA3 and AVX-512F dispatch levels) — it rounds
// once instead of twice and so is not bit-identical to a separate multiply
// and add. On the plain-AVX tier, where hwy.HasFMA is false, the rank-1
// update instead does a separate hwy.Mul followed by hwy.Add, matching
// spec.md §4.3's "On ISAs without FMA, use multiply-then-add." On integer
// element types this choice makes no observable difference: hwy.MulAdd
// computes the product at full precision before truncating back to T, and
// a separate hwy.Mul followed by hwy.Add wraps at each step instead — but
// two's-complement wraparound is associative, so both routes land on the
// same bit pattern, including i8, where Go's native multiply already wraps
// mod 256 the same way the original's widen/blend trick does; that trick
// exists in C only to work around the absence of a native epi8 multiply
// instruction, not because the arithmetic differs.
func Micro[T hwy.Lanes](packedA, packedB, c []T, ldc, ir, jr, kc, mr, nr, m, n int) {
	lanes := hwy.MaxLanes[T]()
	fused := hwy.HasFMA()

	rankOneUpdate := func(acc, va, vb hwy.Vec[T]) hwy.Vec[T] {
		if fused {
			return hwy.MulAdd(va, vb, acc)
		}
		return hwy.Add(acc, hwy.Mul(va, vb))
	}

	for r := 0; r < m; r++ {
		cRow := (ir + r) * ldc

		col := 0
		for ; col+lanes <= n; col += lanes {
			acc := hwy.Zero[T]()
			aIdx := r
			bIdx := col
			for p := 0; p < kc; p++ {
				va := hwy.Set(packedA[aIdx])
				vb := hwy.Load(packedB[bIdx:])
				acc = rankOneUpdate(acc, va, vb)
				aIdx += mr
				bIdx += nr
			}
			vc := hwy.Load(c[cRow+jr+col:])
			vc = hwy.Add(vc, acc)
			hwy.Store(vc, c[cRow+jr+col:])
		}

		if col < n {
			mask := hwy.TailMask[T](n - col)
			acc := hwy.Zero[T]()
			aIdx := r
			bIdx := col
			for p := 0; p < kc; p++ {
				va := hwy.Set(packedA[aIdx])
				vb := hwy.MaskLoad(mask, packedB[bIdx:])
				acc = rankOneUpdate(acc, va, vb)
				aIdx += mr
				bIdx += nr
			}
			vc := hwy.MaskLoad(mask, c[cRow+jr+col:])
			vc = hwy.Add(vc, acc)
			hwy.MaskStore(mask, vc, c[cRow+jr+col:])
		}
	}
}
