// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package report

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"cpuprobe/internal/cache"
	"cpuprobe/internal/cpudb"
	"cpuprobe/internal/topology"
)

// RenderSummary renders a human-readable digest of the snapshot. This is an
// operator convenience; the JSON document is the output contract.
func RenderSummary(snap Snapshot) []byte {
	p := message.NewPrinter(language.English)
	var sb strings.Builder

	sb.WriteString(p.Sprintf("Vendor:           %s (%s)\n", snap.Vendor, snap.VendorString))
	if snap.Brand != "" {
		sb.WriteString(p.Sprintf("Brand:            %s\n", snap.Brand))
	}
	if uarch := cpudb.Lookup(snap.Vendor, snap.Family, snap.Model); uarch != "" {
		sb.WriteString(p.Sprintf("Microarchitecture: %s\n", uarch))
	}
	sb.WriteString(p.Sprintf("Signature:        family %#x, model %#x, stepping %d\n", snap.Family, snap.Model, snap.Stepping))
	sb.WriteString(p.Sprintf("Max CPUID leaf:   %#x\n", snap.MaxLeaf))

	freq := snap.Frequency
	if freq.Success {
		sb.WriteString(p.Sprintf("Frequency:        base %d MHz, max %d MHz", freq.BaseMHz, freq.MaxMHz))
		if freq.BusMHz > 0 {
			sb.WriteString(p.Sprintf(", bus %d MHz", freq.BusMHz))
		}
		sb.WriteByte('\n')
	} else {
		sb.WriteString("Frequency:        unresolved\n")
	}
	sb.WriteString(p.Sprintf("Turbo:            %s\n", supportedString(freq.TurboSupported)))
	if ratios := freq.TurboRatios; ratios != nil {
		sb.WriteString(p.Sprintf("Turbo ratios:     base %d MHz, 1-core %d MHz, all-core %d MHz\n",
			ratios.BaseMHz, ratios.SingleCoreMHz, ratios.AllCoreMHz))
	}

	writeCacheLine(&sb, p, "L1D", snap.Caches.L1D, snap.Groups.Instances.L1D)
	writeCacheLine(&sb, p, "L1I", snap.Caches.L1I, 0)
	writeCacheLine(&sb, p, "L2", snap.Caches.L2, snap.Groups.Instances.L2)
	writeCacheLine(&sb, p, "L3", snap.Caches.L3, snap.Groups.Instances.L3)

	sb.WriteString(p.Sprintf("Logical cores:    %d", len(snap.Cores)))
	perf, eff := countCoreTypes(snap.Cores)
	if perf > 0 || eff > 0 {
		sb.WriteString(p.Sprintf(" (%d performance, %d efficiency threads)", perf, eff))
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}

func writeCacheLine(sb *strings.Builder, p *message.Printer, name string, d cache.Descriptor, instances int) {
	if d.SizeKB == 0 {
		return
	}
	sb.WriteString(p.Sprintf("%-17s %d KB", name+" cache:", d.SizeKB))
	if d.Ways > 0 {
		sb.WriteString(p.Sprintf(", %d-way, %d B lines", d.Ways, d.LineSize))
	}
	switch {
	case d.CoresSharing == cache.Unknown:
		sb.WriteString(", sharing unknown")
	case d.CoresSharing > 1:
		sb.WriteString(p.Sprintf(", shared by %d", d.CoresSharing))
	}
	if instances > 0 {
		sb.WriteString(p.Sprintf(", %d instance(s)", instances))
	}
	sb.WriteByte('\n')
}

func supportedString(b bool) string {
	if b {
		return "supported"
	}
	return "not supported"
}

func countCoreTypes(cores []topology.Core) (perf, eff int) {
	for _, c := range cores {
		switch c.Type {
		case topology.CoreTypePerformance:
			perf++
		case topology.CoreTypeEfficiency:
			eff++
		}
	}
	return perf, eff
}
