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

// Package pack implements the gather step of the GotoBLAS-style packed GEMM
// pipeline: copying a rectangular sub-block of A or B, in its caller's
// row-major layout, into the contiguous micro-panel layout the kernel
// package expects (K-first strips of Mr rows / Nr columns, zero-padded on
// short tail strips).
package pack

import (
	"github.com/janpfeifer/gemm/hwy"
	"github.com/janpfeifer/gemm/internal/parallel"
)

// BlockA packs a panel of A (M x K, row-major) spanning rows
// [rowStart, rowStart+panelRows) and columns [colStart, colStart+panelK)
// into packed, organized as ceil(panelRows/mr) micro-panels of shape
// [panelK, mr] each (K-first within a micro-panel: the mr values of one k
// are contiguous, so the kernel's broadcast of A[r,k] advances by a stride
// of mr from one k to the next).
//
// packed must have capacity >= ceil(panelRows/mr) * panelK * mr.
// Work is split across pool one micro-panel at a time; each worker writes
// a disjoint region of packed, so no synchronization is needed beyond the
// pool's own barrier.
//
// Returns the number of active (non-padding) rows in the last micro-panel.
func BlockA[T hwy.Lanes](pool *parallel.Pool, a, packed []T, m, k, rowStart, colStart, panelRows, panelK, mr int) int {
	numMicroPanels := (panelRows + mr - 1) / mr
	activeRowsLast := panelRows - (numMicroPanels-1)*mr
	if activeRowsLast == 0 {
		activeRowsLast = mr
	}

	stride := panelK * mr
	pool.ParallelForAtomic(numMicroPanels, func(panel int) {
		baseRow := rowStart + panel*mr
		out := packed[panel*stride:]
		activeRows := mr
		if panel == numMicroPanels-1 {
			activeRows = activeRowsLast
		}

		idx := 0
		for kk := range panelK {
			col := colStart + kk
			for r := range activeRows {
				out[idx] = a[(baseRow+r)*k+col]
				idx++
			}
			for r := activeRows; r < mr; r++ {
				out[idx] = 0
				idx++
			}
		}
	})

	return activeRowsLast
}

// BlockB packs a panel of B (K x N, row-major) spanning rows
// [rowStart, rowStart+panelK) and columns [colStart, colStart+panelCols)
// into packed, organized as ceil(panelCols/nr) micro-panels of shape
// [panelK, nr] each (K-first, so the kernel's vector load of B[k,:] is a
// unit-stride, aligned read).
//
// packed must have capacity >= ceil(panelCols/nr) * panelK * nr.
//
// Returns the number of active (non-padding) columns in the last micro-panel.
func BlockB[T hwy.Lanes](pool *parallel.Pool, b, packed []T, k, n, rowStart, colStart, panelK, panelCols, nr int) int {
	numMicroPanels := (panelCols + nr - 1) / nr
	activeColsLast := panelCols - (numMicroPanels-1)*nr
	if activeColsLast == 0 {
		activeColsLast = nr
	}

	stride := panelK * nr
	pool.ParallelForAtomic(numMicroPanels, func(panel int) {
		baseCol := colStart + panel*nr
		out := packed[panel*stride:]
		activeCols := nr
		if panel == numMicroPanels-1 {
			activeCols = activeColsLast
		}

		idx := 0
		for kk := range panelK {
			bRowStart := (rowStart + kk) * n
			for c := range activeCols {
				out[idx] = b[bRowStart+baseCol+c]
				idx++
			}
			for c := activeCols; c < nr; c++ {
				out[idx] = 0
				idx++
			}
		}
	})

	return activeColsLast
}
