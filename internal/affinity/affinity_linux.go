// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

//go:build linux

package affinity

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

type linuxPinner struct {
	saved    unix.CPUSet
	captured bool
}

// NewOSPinner returns a Pinner backed by sched_setaffinity on the calling
// thread.
func NewOSPinner() Pinner {
	return &linuxPinner{}
}

func (p *linuxPinner) Supported() bool {
	return true
}

func (p *linuxPinner) Pin(cpu int) error {
	if !p.captured {
		if err := unix.SchedGetaffinity(0, &p.saved); err != nil {
			return errors.Wrap(err, "reading current affinity mask")
		}
		p.captured = true
	}
	var set unix.CPUSet
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return errors.Wrapf(err, "pinning thread to cpu %d", cpu)
	}
	return nil
}

func (p *linuxPinner) Restore() error {
	if !p.captured {
		return nil
	}
	return errors.Wrap(unix.SchedSetaffinity(0, &p.saved), "restoring affinity mask")
}
