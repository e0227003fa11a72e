// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

//go:build !linux

package affinity

import "github.com/pkg/errors"

type unsupportedPinner struct{}

// NewOSPinner returns a Pinner that reports no affinity support. The walker
// degrades to a single current-processor record on such platforms.
func NewOSPinner() Pinner {
	return unsupportedPinner{}
}

func (unsupportedPinner) Supported() bool {
	return false
}

func (unsupportedPinner) Pin(cpu int) error {
	return errors.Errorf("per-thread affinity control not available on this platform (cpu %d)", cpu)
}

func (unsupportedPinner) Restore() error {
	return nil
}
