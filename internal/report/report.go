// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package report assembles the probe's results into the snapshot document
// consumed by the orchestration layer. Required fields are always present;
// optional fields are omitted entirely when their source stage produced no
// data rather than emitted as a misleading zero.
package report

import (
	"encoding/json"

	"cpuprobe/internal/cache"
	"cpuprobe/internal/cpuid"
	"cpuprobe/internal/frequency"
	"cpuprobe/internal/topology"
)

// MSRAccessAdvisory is the fixed advisory emitted with every document: the
// probe runs unprivileged and never touches model-specific registers.
const MSRAccessAdvisory = "Not available (user-mode execution)"

// Snapshot is everything the probe learned in one invocation. Constructed
// fresh per run; nothing persists.
type Snapshot struct {
	Vendor       cpuid.Vendor
	VendorString string
	Brand        string
	MaxLeaf      uint32
	Family       int
	Model        int
	Stepping     int
	Caches       cache.Topology
	Cores        []topology.Core
	Groups       cache.Groups
	Frequency    frequency.Report
}

// document mirrors the output field contract. Field order is the wire
// order; pointer fields are omitted when their stage produced no data.
type document struct {
	BaseMHz        int `json:"base_mhz"`
	MaxMHz         int `json:"max_mhz"`
	BusMHz         int `json:"bus_mhz"`
	TurboSupported int `json:"turbo_supported"`

	CPUIDBaseFreqMHz   *int `json:"cpuid_base_freq_mhz,omitempty"`
	CPUIDMaxTurbo1CMHz *int `json:"cpuid_max_turbo_1c_mhz,omitempty"`
	CPUIDMaxTurboACMHz *int `json:"cpuid_max_turbo_ac_mhz,omitempty"`

	MSRAccess string `json:"msr_access"`
	Brand     string `json:"brand"`

	L1DKB         int  `json:"l1d_kb"`
	L1DAssoc      *int `json:"l1d_assoc,omitempty"`
	L1DLine       *int `json:"l1d_line,omitempty"`
	L1DPartitions *int `json:"l1d_partitions,omitempty"`
	L1DSets       *int `json:"l1d_sets,omitempty"`
	L1DSharing    *int `json:"l1d_cores_sharing,omitempty"`
	L1DInclusive  *int `json:"l1d_inclusive,omitempty"`

	L1IKB         int  `json:"l1i_kb"`
	L1IAssoc      *int `json:"l1i_assoc,omitempty"`
	L1ILine       *int `json:"l1i_line,omitempty"`
	L1IPartitions *int `json:"l1i_partitions,omitempty"`
	L1ISets       *int `json:"l1i_sets,omitempty"`
	L1ISharing    *int `json:"l1i_cores_sharing,omitempty"`
	L1IInclusive  *int `json:"l1i_inclusive,omitempty"`

	L2KB         int  `json:"l2_kb"`
	L2Assoc      *int `json:"l2_assoc,omitempty"`
	L2Line       *int `json:"l2_line,omitempty"`
	L2Partitions *int `json:"l2_partitions,omitempty"`
	L2Sets       *int `json:"l2_sets,omitempty"`
	L2Sharing    *int `json:"l2_cores_sharing,omitempty"`
	L2Inclusive  *int `json:"l2_inclusive,omitempty"`

	L3KB         int  `json:"l3_kb"`
	L3Assoc      *int `json:"l3_assoc,omitempty"`
	L3Line       *int `json:"l3_line,omitempty"`
	L3Partitions *int `json:"l3_partitions,omitempty"`
	L3Sets       *int `json:"l3_sets,omitempty"`
	L3Sharing    *int `json:"l3_cores_sharing,omitempty"`
	L3Inclusive  *int `json:"l3_inclusive,omitempty"`

	MaxCPUIDLeaf    int            `json:"max_cpuid_leaf"`
	NumLogicalCores int            `json:"num_logical_cores"`
	APICIDs         []coreRecord   `json:"apic_ids"`
	CacheSharing    sharingSummary `json:"cache_sharing"`
	Success         int            `json:"success"`
}

type coreRecord struct {
	Index    int `json:"index"`
	APIC     int `json:"apic"`
	CoreType int `json:"core_type"`
	L1DGroup int `json:"l1d_group"`
	L2Group  int `json:"l2_group"`
	L3Group  int `json:"l3_group"`
}

type sharingSummary struct {
	L1DInstances int `json:"l1d_instances"`
	L2Instances  int `json:"l2_instances"`
	L3Instances  int `json:"l3_instances"`
}

// Render serializes the snapshot into the output document. With pretty set,
// the document is indented for terminals.
func Render(snap Snapshot, pretty bool) ([]byte, error) {
	doc := buildDocument(snap)
	if pretty {
		return json.MarshalIndent(doc, "", " ")
	}
	return json.Marshal(doc)
}

func buildDocument(snap Snapshot) document {
	doc := document{
		BaseMHz:         snap.Frequency.BaseMHz,
		MaxMHz:          snap.Frequency.MaxMHz,
		BusMHz:          snap.Frequency.BusMHz,
		TurboSupported:  boolToInt(snap.Frequency.TurboSupported),
		MSRAccess:       MSRAccessAdvisory,
		Brand:           snap.Brand,
		L1DKB:           snap.Caches.L1D.SizeKB,
		L1IKB:           snap.Caches.L1I.SizeKB,
		L2KB:            snap.Caches.L2.SizeKB,
		L3KB:            snap.Caches.L3.SizeKB,
		MaxCPUIDLeaf:    int(snap.MaxLeaf),
		NumLogicalCores: len(snap.Cores),
		APICIDs:         coreRecords(snap),
		CacheSharing: sharingSummary{
			L1DInstances: snap.Groups.Instances.L1D,
			L2Instances:  snap.Groups.Instances.L2,
			L3Instances:  snap.Groups.Instances.L3,
		},
		Success: boolToInt(snap.Frequency.Success),
	}
	if ratios := snap.Frequency.TurboRatios; ratios != nil {
		doc.CPUIDBaseFreqMHz = intPtr(ratios.BaseMHz)
		doc.CPUIDMaxTurbo1CMHz = intPtr(ratios.SingleCoreMHz)
		doc.CPUIDMaxTurboACMHz = intPtr(ratios.AllCoreMHz)
	}
	fillDetails(snap.Caches.L1D, &doc.L1DAssoc, &doc.L1DLine, &doc.L1DPartitions, &doc.L1DSets, &doc.L1DSharing, &doc.L1DInclusive)
	fillDetails(snap.Caches.L1I, &doc.L1IAssoc, &doc.L1ILine, &doc.L1IPartitions, &doc.L1ISets, &doc.L1ISharing, &doc.L1IInclusive)
	fillDetails(snap.Caches.L2, &doc.L2Assoc, &doc.L2Line, &doc.L2Partitions, &doc.L2Sets, &doc.L2Sharing, &doc.L2Inclusive)
	fillDetails(snap.Caches.L3, &doc.L3Assoc, &doc.L3Line, &doc.L3Partitions, &doc.L3Sets, &doc.L3Sharing, &doc.L3Inclusive)
	return doc
}

// fillDetails populates the per-level detail fields, present only when the
// level exists. A sharing count of exactly 1 is meaningful ("not shared")
// and is emitted; cache.Unknown passes through as the -1 sentinel.
func fillDetails(d cache.Descriptor, assoc, line, partitions, sets, sharing, inclusive **int) {
	if d.SizeKB == 0 {
		return
	}
	*assoc = intPtr(d.Ways)
	*line = intPtr(d.LineSize)
	*partitions = intPtr(d.Partitions)
	*sets = intPtr(d.Sets)
	*sharing = intPtr(d.CoresSharing)
	*inclusive = intPtr(d.Inclusive)
}

func coreRecords(snap Snapshot) []coreRecord {
	records := make([]coreRecord, 0, len(snap.Cores))
	for i, c := range snap.Cores {
		rec := coreRecord{
			Index:    c.Index,
			APIC:     c.APICID,
			CoreType: int(c.Type),
		}
		if i < len(snap.Groups.L1D) {
			rec.L1DGroup = snap.Groups.L1D[i]
			rec.L2Group = snap.Groups.L2[i]
			rec.L3Group = snap.Groups.L3[i]
		}
		records = append(records, rec)
	}
	return records
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intPtr(v int) *int {
	return &v
}
