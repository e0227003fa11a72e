// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package affinity controls the scheduling affinity of the calling OS
// thread. Affinity is a property of exactly one thread, so callers must
// hold runtime.LockOSThread for the duration of a pin/restore sequence.
package affinity

// Pinner pins the calling thread to a single logical processor and restores
// the original mask afterwards.
type Pinner interface {
	// Supported reports whether per-thread affinity control exists on this
	// platform.
	Supported() bool
	// Pin restricts the calling thread to the given logical processor. The
	// original mask is captured on the first call.
	Pin(cpu int) error
	// Restore reinstates the mask captured by the first Pin. A no-op if
	// nothing was pinned.
	Restore() error
}
