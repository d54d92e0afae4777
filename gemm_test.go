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
	"math"
	"math/rand"
	"testing"
)

// refGemm is a scalar reference used only by this test file to check the
// blocked/packed/SIMD pipeline against the textbook definition. It is not
// exported: the reference implementation itself is out of scope, per
// SPEC_FULL.md's Non-goals.
func refGemm[T Elem](a, b, c Matrix[T]) {
	for i := 0; i < a.Rows; i++ {
		for j := 0; j < b.Cols; j++ {
			var sum T
			for k := 0; k < a.Cols; k++ {
				sum += a.At(i, k) * b.At(k, j)
			}
			c.Set(i, j, c.At(i, j)+sum)
		}
	}
}

func randMatrix[T Elem](rng *rand.Rand, rows, cols int, scale float64) Matrix[T] {
	data := make([]T, rows*cols)
	for i := range data {
		data[i] = T(scale * (rng.Float64()*2 - 1))
	}
	return NewMatrix(data, rows, cols)
}

func zeroMatrix[T Elem](rows, cols int) Matrix[T] {
	return NewMatrix(make([]T, rows*cols), rows, cols)
}

func identityMatrix[T Elem](n int) Matrix[T] {
	m := zeroMatrix[T](n, n)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func cloneMatrix[T Elem](m Matrix[T]) Matrix[T] {
	out := make([]T, len(m.Data))
	copy(out, m.Data)
	return NewMatrix(out, m.Rows, m.Cols)
}

func TestSGemmConcreteScenario(t *testing.T) {
	// A[i,j] = i+j, B = I_4, C = 0 -> C[i,j] = i+j.
	a := zeroMatrix[float32](4, 4)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			a.Set(i, j, float32(i+j))
		}
	}
	b := identityMatrix[float32](4)
	c := zeroMatrix[float32](4, 4)

	SGemm(a, b, c)

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if want, got := float32(i+j), c.At(i, j); got != want {
				t.Errorf("C[%d,%d] = %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestDGemmConcreteScenario(t *testing.T) {
	a := NewMatrix([]float64{1.0, 2.0, 3.0}, 1, 3)
	b := NewMatrix([]float64{4.0, 5.0, 6.0}, 3, 1)
	c := NewMatrix([]float64{0.0}, 1, 1)

	DGemm(a, b, c)

	if got, want := c.At(0, 0), 32.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("C[0,0] = %v, want %v", got, want)
	}
}

func TestIGemmConcreteScenario(t *testing.T) {
	a := NewMatrix([]int32{1, 2, 3, 4}, 2, 2)
	b := NewMatrix([]int32{5, 6, 7, 8}, 2, 2)
	c := NewMatrix([]int32{10, 20, 30, 40}, 2, 2)

	IGemm(a, b, c)

	want := []int32{29, 42, 73, 90}
	for i := range want {
		if c.Data[i] != want[i] {
			t.Errorf("C.Data = %v, want %v", c.Data, want)
			break
		}
	}
}

func TestQGemmTailMaskAtNR(t *testing.T) {
	// M=1, N=64, K=1, A=[2], B=[3]*64, C=0 -> C=[6]*64.
	a := NewMatrix([]int8{2}, 1, 1)
	bData := make([]int8, 64)
	for i := range bData {
		bData[i] = 3
	}
	b := NewMatrix(bData, 1, 64)
	c := zeroMatrix[int8](1, 64)

	QGemm(a, b, c)

	for j := 0; j < 64; j++ {
		if got, want := c.At(0, j), int8(6); got != want {
			t.Errorf("C[0,%d] = %d, want %d", j, got, want)
		}
	}
}

func TestHQGemmFullTileAccumulation(t *testing.T) {
	// M=30, N=32, K=256, A[i,k]=1, B[k,j]=1, C=0 -> every C[i,j]=256.
	const m, n, k = 30, 32, 256
	a := zeroMatrix[int16](m, k)
	for i := range a.Data {
		a.Data[i] = 1
	}
	b := zeroMatrix[int16](k, n)
	for i := range b.Data {
		b.Data[i] = 1
	}
	c := zeroMatrix[int16](m, n)

	HQGemm(a, b, c)

	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			if got, want := c.At(i, j), int16(256); got != want {
				t.Errorf("C[%d,%d] = %d, want %d", i, j, got, want)
			}
		}
	}
}

func TestSGemmAgainstReferenceRandomShapes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	shapes := [][3]int{{1, 1, 1}, {5, 7, 3}, {17, 13, 29}, {64, 64, 64}, {100, 37, 50}}

	for _, s := range shapes {
		m, n, k := s[0], s[1], s[2]
		a := randMatrix[float32](rng, m, k, 1)
		b := randMatrix[float32](rng, k, n, 1)
		c := zeroMatrix[float32](m, n)
		want := cloneMatrix(c)

		SGemm(a, b, c)
		refGemm(a, b, want)

		tol := float64(k) * 1e-4
		for i := range c.Data {
			if diff := math.Abs(float64(want.Data[i]) - float64(c.Data[i])); diff > tol {
				t.Errorf("shape %v index %d: got %v, want %v (diff %v, tol %v)",
					s, i, c.Data[i], want.Data[i], diff, tol)
			}
		}
	}
}

func TestIGemmAgainstReferenceExact(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	shapes := [][3]int{{1, 1, 1}, {5, 7, 3}, {17, 13, 29}, {64, 64, 64}}

	for _, s := range shapes {
		m, n, k := s[0], s[1], s[2]
		a := randMatrix[int32](rng, m, k, 100)
		b := randMatrix[int32](rng, k, n, 100)
		c := zeroMatrix[int32](m, n)
		want := cloneMatrix(c)

		IGemm(a, b, c)
		refGemm(a, b, want)

		for i := range want.Data {
			if c.Data[i] != want.Data[i] {
				t.Errorf("shape %v index %d: got %v, want %v", s, i, c.Data[i], want.Data[i])
			}
		}
	}
}

func TestZeroInputLeavesCUnchanged(t *testing.T) {
	a := zeroMatrix[float32](8, 6)
	b := randMatrix[float32](rand.New(rand.NewSource(3)), 6, 5, 1)
	c := randMatrix[float32](rand.New(rand.NewSource(4)), 8, 5, 1)
	want := cloneMatrix(c)

	SGemm(a, b, c)

	for i := range want.Data {
		if c.Data[i] != want.Data[i] {
			t.Errorf("C changed at index %d: got %v, want unchanged %v", i, c.Data[i], want.Data[i])
		}
	}
}

func TestAdditivityInteger(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	m, n, k := 9, 11, 13
	a := randMatrix[int32](rng, m, k, 50)
	b1 := randMatrix[int32](rng, k, n, 50)
	b2 := randMatrix[int32](rng, k, n, 50)

	bSum := zeroMatrix[int32](k, n)
	for i := range bSum.Data {
		bSum.Data[i] = b1.Data[i] + b2.Data[i]
	}

	cCombined := zeroMatrix[int32](m, n)
	IGemm(a, bSum, cCombined)

	cSequential := zeroMatrix[int32](m, n)
	IGemm(a, b1, cSequential)
	IGemm(a, b2, cSequential)

	for i := range cCombined.Data {
		if cCombined.Data[i] != cSequential.Data[i] {
			t.Errorf("index %d: gemm(A,B1+B2,C) = %v, want %v", i, cCombined.Data[i], cSequential.Data[i])
		}
	}
}

func TestTailCoverageAroundTileBoundary(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	// 6x16 is the AVX2 f32 register tile; probe one below/at/above it.
	for _, m := range []int{5, 6, 7} {
		for _, n := range []int{15, 16, 17} {
			for _, k := range []int{1, 9, 16, 17} {
				a := randMatrix[float32](rng, m, k, 1)
				b := randMatrix[float32](rng, k, n, 1)
				c := zeroMatrix[float32](m, n)
				want := cloneMatrix(c)

				SGemm(a, b, c)
				refGemm(a, b, want)

				tol := float64(k) * 1e-3
				for i := range c.Data {
					if diff := math.Abs(float64(want.Data[i]) - float64(c.Data[i])); diff > tol {
						t.Errorf("m=%d n=%d k=%d index %d: got %v, want %v (diff %v, tol %v)",
							m, n, k, i, c.Data[i], want.Data[i], diff, tol)
					}
				}
			}
		}
	}
}

func TestThreadInvarianceInteger(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	m, n, k := 40, 48, 37
	a := randMatrix[int32](rng, m, k, 20)
	b := randMatrix[int32](rng, k, n, 20)

	defer SetThreads(0)

	var results [][]int32
	for _, threads := range []int{1, 2, 4, 8} {
		SetThreads(threads)
		c := zeroMatrix[int32](m, n)
		IGemm(a, b, c)
		results = append(results, c.Data)
	}

	for i := 1; i < len(results); i++ {
		for j := range results[0] {
			if results[i][j] != results[0][j] {
				t.Errorf("thread count changed result at index %d: %v vs %v", j, results[i][j], results[0][j])
				break
			}
		}
	}
}

func TestBlockSizeSanity(t *testing.T) {
	l1d, l2, l3 := GetCacheSize()
	mc, kc, nc := SetBlockSize(l1d, l2, l3, 4, 6, 16, Float32)

	if mc%6 != 0 {
		t.Errorf("MC = %d, not a multiple of Mr = 6", mc)
	}
	if nc%16 != 0 {
		t.Errorf("NC = %d, not a multiple of Nr = 16", nc)
	}
	if mc*kc*4 > l2 {
		t.Errorf("packed A footprint = %d bytes, want <= L2 = %d", mc*kc*4, l2)
	}
	if kc*nc*4 > l3 {
		t.Errorf("packed B footprint = %d bytes, want <= L3 = %d", kc*nc*4, l3)
	}
}

func TestGetCoreNumReflectsSetThreads(t *testing.T) {
	defer SetThreads(0)

	SetThreads(3)
	if got := GetCoreNum(); got != 3 {
		t.Errorf("GetCoreNum() = %d, want 3", got)
	}
}

func TestFormatCacheSizesIsNonEmpty(t *testing.T) {
	if s := FormatCacheSizes(); s == "" {
		t.Error("FormatCacheSizes() = \"\", want non-empty")
	}
}

func TestSGemmLargeRandomWithinTolerance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large GEMM check in -short mode")
	}

	rng := rand.New(rand.NewSource(8))
	const n = 256
	a := randMatrix[float32](rng, n, n, 1)
	b := randMatrix[float32](rng, n, n, 1)
	c := zeroMatrix[float32](n, n)
	want := cloneMatrix(c)

	SGemm(a, b, c)
	refGemm(a, b, want)

	maxDiff := 0.0
	for i := range c.Data {
		diff := math.Abs(float64(want.Data[i]) - float64(c.Data[i]))
		if diff > maxDiff {
			maxDiff = diff
		}
	}
	if tol := float64(n) * 1e-3; maxDiff > tol {
		t.Errorf("max diff = %v, want <= %v", maxDiff, tol)
	}
}
