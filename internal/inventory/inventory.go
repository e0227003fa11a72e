// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package inventory answers hardware questions through the operating
// system's inventory services rather than the identification instruction.
// It backs the last stage of the frequency-resolution chain and the logical
// processor enumeration for the affinity walk.
package inventory

import (
	"math"
	"runtime"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/cpu"
)

// Reader is the OS inventory surface consumed by the probe. Substitutable
// for tests.
type Reader interface {
	// MaxClockMHz reports the CPU's maximum clock speed, or 0 if the OS
	// does not know it.
	MaxClockMHz() (int, error)
	// LogicalCount reports the number of logical processors.
	LogicalCount() (int, error)
}

// OSReader reads from the running system via gopsutil.
type OSReader struct{}

func (OSReader) MaxClockMHz() (int, error) {
	infos, err := cpu.Info()
	if err != nil {
		return 0, errors.Wrap(err, "querying processor inventory")
	}
	if len(infos) == 0 {
		return 0, nil
	}
	return int(math.Round(infos[0].Mhz)), nil
}

func (OSReader) LogicalCount() (int, error) {
	count, err := cpu.Counts(true)
	if err != nil || count <= 0 {
		// the runtime's view is always available
		return runtime.NumCPU(), errors.Wrap(err, "counting logical processors")
	}
	return count, nil
}
