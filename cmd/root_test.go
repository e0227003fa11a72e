// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpuprobe/internal/cpuid"
)

// fakeSystem plays the identification source, the thread pinner, and the OS
// inventory for a four-thread Alder Lake-like part.
type fakeSystem struct {
	script   *cpuid.ScriptedSource
	apics    map[int]int
	pinned   int
	restores int
}

func (f *fakeSystem) Identify(leaf, subleaf uint32) cpuid.Registers {
	r := f.script.Identify(leaf, subleaf)
	if leaf == cpuid.LeafTopologyV2 && subleaf == 0 {
		r.EDX = uint32(f.apics[f.pinned])
	}
	return r
}

func (f *fakeSystem) Supported() bool { return true }

func (f *fakeSystem) Pin(cpu int) error {
	f.pinned = cpu
	return nil
}

func (f *fakeSystem) Restore() error {
	f.restores++
	return nil
}

func (f *fakeSystem) MaxClockMHz() (int, error) { return 0, nil }
func (f *fakeSystem) LogicalCount() (int, error) {
	return len(f.apics), nil
}

func newFakeSystem() *fakeSystem {
	le := func(s string) uint32 {
		return uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24
	}
	script := cpuid.NewScriptedSource()
	// GenuineIntel, max standard leaf 0x20
	script.Script(cpuid.LeafVendor, 0, cpuid.Registers{
		EAX: 0x20, EBX: le("Genu"), EDX: le("ineI"), ECX: le("ntel"),
	})
	// family 6, model 0x9A (extended model 0x9)
	script.Script(cpuid.LeafFeatures, 0, cpuid.Registers{EAX: 0x9<<16 | 0x6<<8 | 0xA<<4})
	// direct frequency leaf
	script.Script(cpuid.LeafFrequency, 0, cpuid.Registers{EAX: 2500, EBX: 4200, ECX: 100})
	// turbo supported
	script.Script(cpuid.LeafThermalPower, 0, cpuid.Registers{EAX: 0x2})
	// L1D 32 KB: 8 ways, 1 partition, 64 B lines, 64 sets, shared by 2
	script.Script(cpuid.LeafCacheParams, 0, cpuid.Registers{
		EAX: 1 | 1<<5 | 0x1<<14,
		EBX: 63 | 0<<12 | 7<<22,
		ECX: 63,
	})
	// L2 256 KB unified: 8 ways, 64 B lines, 512 sets, shared by 2
	script.Script(cpuid.LeafCacheParams, 1, cpuid.Registers{
		EAX: 3 | 2<<5 | 0x1<<14,
		EBX: 63 | 0<<12 | 7<<22,
		ECX: 511,
	})
	// L3 8 MB unified: 16 ways, 64 B lines, 8192 sets, shared by 8
	script.Script(cpuid.LeafCacheParams, 2, cpuid.Registers{
		EAX: 3 | 3<<5 | 0x7<<14,
		EBX: 63 | 0<<12 | 15<<22,
		ECX: 8191,
	})
	// topology: SMT shift 1, core shift 3
	script.Script(cpuid.LeafTopologyV2, 0, cpuid.Registers{EAX: 1, ECX: 1 << 8})
	script.Script(cpuid.LeafTopologyV2, 1, cpuid.Registers{EAX: 3, ECX: 2 << 8})
	return &fakeSystem{
		script: script,
		apics:  map[int]int{0: 0, 1: 1, 2: 2, 3: 3},
	}
}

func TestProbePipeline(t *testing.T) {
	sys := newFakeSystem()
	snap := probe(sys, sys, sys)

	assert.Equal(t, cpuid.VendorIntel, snap.Vendor)
	assert.Equal(t, "GenuineIntel", snap.VendorString)
	assert.Equal(t, 6, snap.Family)
	assert.Equal(t, 0x9A, snap.Model)
	assert.Equal(t, uint32(0x20), snap.MaxLeaf)

	require.Len(t, snap.Cores, 4)
	assert.Equal(t, 1, sys.restores)

	assert.Equal(t, 32, snap.Caches.L1D.SizeKB)
	assert.Equal(t, 256, snap.Caches.L2.SizeKB)
	assert.Equal(t, 8192, snap.Caches.L3.SizeKB)
	assert.Equal(t, 2, snap.Caches.L1D.CoresSharing)
	assert.Equal(t, 8, snap.Caches.L3.CoresSharing)

	assert.True(t, snap.Frequency.Success)
	assert.Equal(t, 2500, snap.Frequency.BaseMHz)
	assert.True(t, snap.Frequency.TurboSupported)

	// APIC 0,1 share an L1D group at shift 1; all four share one L3
	assert.Equal(t, snap.Groups.L1D[0], snap.Groups.L1D[1])
	assert.NotEqual(t, snap.Groups.L1D[0], snap.Groups.L1D[2])
	assert.Equal(t, 2, snap.Groups.Instances.L1D)
	assert.Equal(t, 1, snap.Groups.Instances.L3)
}
