// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package cache

import (
	"math/bits"

	mapset "github.com/deckarep/golang-set/v2"
)

// Groups assigns each enumerated core a sharing-group id per cache level.
// Cores with equal group ids share one physical cache instance. The slices
// are indexed like the APIC id slice passed to DeriveGroups.
type Groups struct {
	L1D       []int
	L2        []int
	L3        []int
	Instances InstanceCounts
}

// InstanceCounts is the number of distinct sharing groups observed per
// level, an approximate count of physical cache instances. Zero when the
// level is absent.
type InstanceCounts struct {
	L1D int
	L2  int
	L3  int
}

// DeriveGroups computes cache-sharing groups from per-core APIC ids and the
// detected sharing counts. The group id for a core is its APIC id shifted
// right by log2 of the level's sharing count. An Unknown sharing count
// degrades to shift 0, i.e. every core its own group; the deriver never
// guesses.
func DeriveGroups(apicIDs []int, topo Topology) Groups {
	g := Groups{
		L1D: shiftedGroups(apicIDs, topo.L1D),
		L2:  shiftedGroups(apicIDs, topo.L2),
		L3:  shiftedGroups(apicIDs, topo.L3),
	}
	g.Instances = InstanceCounts{
		L1D: countInstances(g.L1D, topo.L1D),
		L2:  countInstances(g.L2, topo.L2),
		L3:  countInstances(g.L3, topo.L3),
	}
	return g
}

func shiftedGroups(apicIDs []int, d Descriptor) []int {
	shift := sharingShiftBits(d.CoresSharing)
	groups := make([]int, len(apicIDs))
	for i, apic := range apicIDs {
		groups[i] = apic >> shift
	}
	return groups
}

// sharingShiftBits is log2 of the sharing count for sharing > 1, else 0.
// Counts that are not powers of two round up so that a group spans at least
// the reported sharing count.
func sharingShiftBits(sharing int) int {
	if sharing <= 1 {
		return 0
	}
	return bits.Len(uint(sharing - 1))
}

// countInstances counts distinct group ids for a present cache level.
func countInstances(groups []int, d Descriptor) int {
	if d.SizeKB == 0 {
		return 0
	}
	seen := mapset.NewThreadUnsafeSet[int]()
	for _, g := range groups {
		seen.Add(g)
	}
	return seen.Cardinality()
}
