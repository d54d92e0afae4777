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

//go:build linux

package blocking

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// cacheIndexForLevel maps a data-cache level to the cpu0 cache "index"
// sysfs exposes it under. Index 0/1 are L1 instruction/data on most x86
// parts; index 2 and 3 are L2 and L3. This ordering is what the kernel
// publishes for every mainline x86-64 and arm64 topology and is not
// guaranteed by POSIX, hence the fallback path in Detect.
var cacheIndexForLevel = map[int]int{1: 1, 2: 2, 3: 3}

// Detect reads L1D/L2/L3 sizes from Linux's cpu0 cache topology in
// /sys/devices/system/cpu/cpu0/cache/index{1,2,3}/size. The three reads are
// independent and are issued concurrently via errgroup; the first error
// (a level is absent, unreadable, or malformed) aborts detection and the
// caller falls back to DefaultCacheSizes.
func Detect() (CacheSizes, error) {
	var out CacheSizes
	var g errgroup.Group

	g.Go(func() error {
		n, err := readCacheSizeBytes(cacheIndexForLevel[1])
		if err != nil {
			return fmt.Errorf("L1D: %w", err)
		}
		out.L1D = n
		return nil
	})
	g.Go(func() error {
		n, err := readCacheSizeBytes(cacheIndexForLevel[2])
		if err != nil {
			return fmt.Errorf("L2: %w", err)
		}
		out.L2 = n
		return nil
	})
	g.Go(func() error {
		n, err := readCacheSizeBytes(cacheIndexForLevel[3])
		if err != nil {
			return fmt.Errorf("L3: %w", err)
		}
		out.L3 = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return CacheSizes{}, err
	}
	return out, nil
}

func readCacheSizeBytes(index int) (int, error) {
	path := fmt.Sprintf("/sys/devices/system/cpu/cpu0/cache/index%d/size", index)
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	s := strings.TrimSpace(string(data))
	multiplier := 1
	switch {
	case strings.HasSuffix(s, "K"):
		multiplier = 1024
		s = strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "M")
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parsing cache size %q: %w", s, err)
	}
	return n * multiplier, nil
}
