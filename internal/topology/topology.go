// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package topology enumerates per-core identifiers by pinning the calling
// thread to each logical processor in turn and issuing the topology
// enumeration leaf there. The walk is inherently sequential: affinity is a
// property of exactly one thread, and each probe must complete before the
// next reassignment.
package topology

import (
	"log/slog"
	"runtime"
	"time"

	"cpuprobe/internal/affinity"
	"cpuprobe/internal/cpuid"
)

// CoreType classifies a logical processor on hybrid parts.
type CoreType int

const (
	CoreTypeUnknown CoreType = iota
	CoreTypePerformance
	CoreTypeEfficiency
)

func (t CoreType) String() string {
	switch t {
	case CoreTypePerformance:
		return "performance"
	case CoreTypeEfficiency:
		return "efficiency"
	}
	return "unknown"
}

// Core is one successfully enumerated logical processor. Ordering follows
// enumeration order, which is not guaranteed to match physical layout.
type Core struct {
	Index     int // logical processor index used for pinning
	APICID    int // full extended APIC identifier
	PackageID int
	CoreIndex int // core index within the package
	TileID    int // nonzero only when the V2 topology leaf reports a die/tile level
	Type      CoreType
}

// Topology enumeration leaf bit fields and level types.
const (
	shiftWidthMask = 0x1F // EAX[4:0]: bits to shift APIC id right for next level
	levelTypeShift = 8    // ECX[15:8]
	levelTypeMask  = 0xFF
	levelTypeEnd   = 0 // terminates subleaf iteration
	levelTypeSMT   = 1
	levelTypeCore  = 2
	levelTypeDie   = 5 // V2 leaf only

	maxTopologySubleaves = 8
)

// Hybrid leaf (0x1A) core-type byte, EAX[31:24].
const (
	coreTypeShift       = 24
	coreTypeMask        = 0xFF
	coreTypeEfficiency  = 0x20 // Atom microarchitecture
	coreTypePerformance = 0x40 // Core microarchitecture
)

// settleDelay gives the scheduler time to complete the thread migration
// before the next instruction issue. A bounded sleep, not a spin-wait.
const settleDelay = time.Millisecond

// Walk pins the calling thread to each of count logical processors and
// records per-core identifiers. Pin failures skip that index without retry;
// partial results are valid. The thread's original affinity mask is restored
// on every exit path. On platforms without affinity control a single
// current-processor record is returned.
func Walk(src cpuid.Source, pinner affinity.Pinner, count int) []Core {
	maxLeaf := cpuid.MaxLeaf(src)
	if maxLeaf < cpuid.LeafTopology {
		slog.Debug("topology enumeration leaf unsupported", slog.Uint64("maxLeaf", uint64(maxLeaf)))
		return nil
	}
	leaf := cpuid.LeafTopology
	if maxLeaf >= cpuid.LeafTopologyV2 {
		leaf = cpuid.LeafTopologyV2
	}
	if !pinner.Supported() {
		slog.Info("no per-thread affinity control, recording current processor only")
		return []Core{readCore(src, leaf, maxLeaf, 0)}
	}

	// Affinity applies to the OS thread the goroutine happens to run on.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer func() {
		if err := pinner.Restore(); err != nil {
			slog.Error("restoring thread affinity", slog.String("error", err.Error()))
		}
	}()

	var cores []Core
	for cpu := 0; cpu < count; cpu++ {
		if err := pinner.Pin(cpu); err != nil {
			slog.Warn("skipping logical processor", slog.Int("cpu", cpu), slog.String("error", err.Error()))
			continue
		}
		time.Sleep(settleDelay)
		cores = append(cores, readCore(src, leaf, maxLeaf, cpu))
	}
	return cores
}

// readCore issues the topology leaf on the processor the thread currently
// runs on and decomposes the APIC id using the discovered level shifts.
func readCore(src cpuid.Source, leaf, maxLeaf uint32, index int) Core {
	apic := int(src.Identify(leaf, 0).EDX)
	smtShift, coreShift, tileShift := levelShifts(src, leaf)

	smtMask := 1<<smtShift - 1
	coreMask := (1<<coreShift - 1) &^ smtMask

	core := Core{
		Index:     index,
		APICID:    apic,
		PackageID: apic >> coreShift,
		CoreIndex: (apic & coreMask) >> smtShift,
	}
	if tileShift > 0 {
		core.TileID = apic >> tileShift
	}
	if maxLeaf >= cpuid.LeafHybrid {
		core.Type = coreTypeOf(src)
	}
	return core
}

// levelShifts walks the topology subleaves collecting (level type, shift
// width) pairs until the terminator level.
func levelShifts(src cpuid.Source, leaf uint32) (smt, core, tile int) {
	for subleaf := uint32(0); subleaf < maxTopologySubleaves; subleaf++ {
		r := src.Identify(leaf, subleaf)
		levelType := int(r.ECX>>levelTypeShift) & levelTypeMask
		if levelType == levelTypeEnd {
			break
		}
		shift := int(r.EAX) & shiftWidthMask
		switch levelType {
		case levelTypeSMT:
			smt = shift
		case levelTypeCore:
			core = shift
		case levelTypeDie:
			tile = shift
		}
	}
	return smt, core, tile
}

// coreTypeOf reads the hybrid leaf's core-type byte for the processor the
// thread currently runs on.
func coreTypeOf(src cpuid.Source) CoreType {
	switch int(src.Identify(cpuid.LeafHybrid, 0).EAX>>coreTypeShift) & coreTypeMask {
	case coreTypePerformance:
		return CoreTypePerformance
	case coreTypeEfficiency:
		return CoreTypeEfficiency
	}
	return CoreTypeUnknown
}

// APICIDs extracts the APIC id sequence from a core list, in enumeration
// order, for the cache-sharing group deriver.
func APICIDs(cores []Core) []int {
	ids := make([]int, len(cores))
	for i, c := range cores {
		ids[i] = c.APICID
	}
	return ids
}
