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

// Package gemm computes C += A*B for row-major dense matrices of float32,
// float64, int32, int16 and int8 elements, using a GotoBLAS-style
// five-level cache-blocked, packed, SIMD micro-kernel pipeline.
//
// The caller owns all matrix storage; gemm allocates only the scratch
// packed panels it needs for the duration of a single call. There is no
// error return: shapes and buffer lengths are trusted, exactly as in the
// five C entry points this module mirrors (sgemm/dgemm/igemm/hqgemm/qgemm).
package gemm

// Elem is the set of element types the GEMM core supports.
type Elem interface {
	~float32 | ~float64 | ~int32 | ~int16 | ~int8
}

// Matrix is a row-major, caller-owned M x N matrix: Data has length
// Rows*Cols, and element (i, j) lives at Data[i*Cols+j].
type Matrix[T Elem] struct {
	Data []T
	Rows int
	Cols int
}

// NewMatrix wraps data as a Rows x Cols row-major matrix. It does not copy
// data; the caller must ensure len(data) >= rows*cols.
func NewMatrix[T Elem](data []T, rows, cols int) Matrix[T] {
	return Matrix[T]{Data: data, Rows: rows, Cols: cols}
}

// At returns element (i, j).
func (m Matrix[T]) At(i, j int) T {
	return m.Data[i*m.Cols+j]
}

// Set assigns element (i, j).
func (m Matrix[T]) Set(i, j int, v T) {
	m.Data[i*m.Cols+j] = v
}

// DType identifies the element type a block-size query is tuned for, used
// by SetBlockSize to pick the element size in bytes independent of any
// particular Matrix instantiation (the register-tile shape is passed to
// SetBlockSize explicitly).
type DType int

const (
	Float32 DType = iota
	Float64
	Int32
	Int16
	Int8
)

func (d DType) elemSize() int {
	switch d {
	case Float32, Int32:
		return 4
	case Float64:
		return 8
	case Int16:
		return 2
	case Int8:
		return 1
	default:
		return 4
	}
}
