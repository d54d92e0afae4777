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

// Package blocking is the cache oracle: it turns measured (or
// conservatively assumed) L1D/L2/L3 data-cache sizes into the MC/KC/NC
// macro-block dimensions the driver tiles its loop nest to, given a
// register-tile shape, thread count, and element size.
package blocking

// CacheSizes holds the three data-cache capacities in bytes.
type CacheSizes struct {
	L1D int
	L2  int
	L3  int
}

// DefaultCacheSizes are used whenever sysfs detection fails (container
// without cache topology exposed, non-Linux GOOS, restrictive sandboxing).
// They describe a conservative mid-2010s x86-64 desktop part and are
// deliberately modest: undersizing MC/KC/NC costs some throughput, but
// oversizing them risks spilling out of the cache the model assumes,
// which is the failure mode that actually corrupts performance.
var DefaultCacheSizes = CacheSizes{
	L1D: 32 * 1024,
	L2:  256 * 1024,
	L3:  8 * 1024 * 1024,
}

// BlockSizes is the {MC, KC, NC} record produced by Sizes, all multiples
// of {Mr, -, Nr} respectively (spec.md §3's Block-size record).
type BlockSizes struct {
	MC int
	KC int
	NC int
}

// l1Fraction is the fraction of L1D budgeted to each of the one resident
// A strip and one resident B strip (spec.md §4.1: "KC*NR*s <= L1D/2").
const l1Fraction = 0.5

// l2Fraction (alpha) is the fraction of L2 budgeted to the packed A panel,
// which is private per worker thread.
const l2Fraction = 0.5

// l3Fraction (beta) is the fraction of L3 budgeted to the packed B panel,
// shared read-only across all worker threads during an ic loop.
const l3Fraction = 0.75

// Sizes implements the spec's §4.1 sizing rule: derive MC, KC, NC from the
// cache capacities, the register tile (mr, nr), the thread count, and the
// element size in bytes. Always returns positive, MR/NR-aligned sizes —
// this function cannot fail; the caller is expected to have already
// substituted DefaultCacheSizes if detection failed.
func Sizes(c CacheSizes, nthreads, mr, nr, elemSize int) BlockSizes {
	if nthreads < 1 {
		nthreads = 1
	}
	if elemSize < 1 {
		elemSize = 1
	}

	// KC: one Mr-wide A strip and one Nr-wide B strip must both fit in
	// half of L1D each.
	kcFromA := int(float64(c.L1D) * l1Fraction / float64(mr*elemSize))
	kcFromB := int(float64(c.L1D) * l1Fraction / float64(nr*elemSize))
	kc := min(kcFromA, kcFromB)
	if kc < 1 {
		kc = 1
	}

	// MC: the packed A panel (private per thread) must fit in alpha*L2.
	mc := int(float64(c.L2) * l2Fraction / float64(kc*elemSize))
	mc = roundDownToMultiple(mc, mr)
	if mc < mr {
		mc = mr
	}

	// NC: the packed B panel (shared across nthreads) must fit in
	// beta*L3/nthreads.
	nc := int(float64(c.L3) * l3Fraction / float64(nthreads) / float64(kc*elemSize))
	nc = roundDownToMultiple(nc, nr)
	if nc < nr {
		nc = nr
	}

	return BlockSizes{MC: mc, KC: kc, NC: nc}
}

func roundDownToMultiple(n, multiple int) int {
	if multiple <= 0 {
		return n
	}
	return (n / multiple) * multiple
}
