// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package frequency resolves base, max, and bus clock speeds through an
// ordered fallback chain: the direct frequency leaf, the crystal-clock
// ratio leaf, the brand-string heuristic, and finally the OS hardware
// inventory. Each stage fills only fields the earlier stages left unset.
package frequency

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"cpuprobe/internal/cpuid"
	"cpuprobe/internal/inventory"
)

// Report is the resolved frequency picture. A zero in BaseMHz/MaxMHz/BusMHz
// is the "unset" sentinel, never a literal zero-MHz reading; Success is
// false only when every stage left base or max unset.
type Report struct {
	BaseMHz        int
	MaxMHz         int
	BusMHz         int
	TurboSupported bool
	TurboRatios    *TurboRatios // nil when the turbo-ratio leaf is unavailable
	Success        bool
}

// TurboRatios carries the auxiliary frequency trio from the turbo-ratio
// leaf: nominal base, single-core turbo, and all-core turbo.
type TurboRatios struct {
	BaseMHz       int
	SingleCoreMHz int
	AllCoreMHz    int
}

// Frequency leaf (0x16): each frequency occupies the low 16 bits of its
// register. Thermal/power leaf (0x6): turbo support is EAX bit 1.
const (
	freqFieldMask = 0xFFFF
	turboBit      = 1
)

// Resolve runs the fallback chain. It never fails; inv may be nil when no
// OS inventory is available.
func Resolve(src cpuid.Source, inv inventory.Reader) Report {
	var rpt Report
	maxLeaf := cpuid.MaxLeaf(src)

	resolveDirectLeaf(src, maxLeaf, &rpt)
	resolveCrystalClock(src, maxLeaf, &rpt)
	resolveFromBrand(cpuid.BrandString(src), &rpt)
	resolveFromInventory(inv, &rpt)

	if maxLeaf >= cpuid.LeafThermalPower {
		rpt.TurboSupported = src.Identify(cpuid.LeafThermalPower, 0).EAX&(1<<turboBit) != 0
	}
	rpt.TurboRatios = turboRatios(src, maxLeaf)
	rpt.Success = rpt.BaseMHz > 0 && rpt.MaxMHz > 0
	return rpt
}

// resolveDirectLeaf reads the processor frequency information leaf.
// Accepted only when both base and max are nonzero.
func resolveDirectLeaf(src cpuid.Source, maxLeaf uint32, rpt *Report) {
	if maxLeaf < cpuid.LeafFrequency {
		return
	}
	r := src.Identify(cpuid.LeafFrequency, 0)
	base := int(r.EAX & freqFieldMask)
	max := int(r.EBX & freqFieldMask)
	bus := int(r.ECX & freqFieldMask)
	if base > 0 && max > 0 {
		rpt.BaseMHz = base
		rpt.MaxMHz = max
		rpt.BusMHz = bus
		slog.Debug("frequency resolved from direct leaf",
			slog.Int("base", base), slog.Int("max", max), slog.Int("bus", bus))
	}
}

// resolveCrystalClock derives the base clock from the core crystal clock
// and the TSC ratio. Fills only still-missing fields; a derived base with
// no known max conservatively sets max := base.
func resolveCrystalClock(src cpuid.Source, maxLeaf uint32, rpt *Report) {
	if maxLeaf < cpuid.LeafCrystalClock {
		return
	}
	r := src.Identify(cpuid.LeafCrystalClock, 0)
	if r.EAX == 0 || r.EBX == 0 || r.ECX == 0 {
		return
	}
	crystalMHz := float64(r.ECX) / 1e6 // ECX is the crystal clock in Hz
	ratio := float64(r.EBX) / float64(r.EAX)
	if rpt.BusMHz == 0 {
		rpt.BusMHz = int(math.Round(crystalMHz))
	}
	if rpt.BaseMHz == 0 {
		derived := int(math.Round(crystalMHz * ratio))
		if derived > 0 {
			rpt.BaseMHz = derived
			if rpt.MaxMHz == 0 {
				rpt.MaxMHz = derived
			}
			slog.Debug("frequency derived from crystal clock", slog.Int("base", derived))
		}
	}
}

// resolveFromBrand fills base (and, if unset, max) from the brand string.
func resolveFromBrand(brand string, rpt *Report) {
	if rpt.BaseMHz > 0 && rpt.MaxMHz > 0 {
		return
	}
	mhz, ok := ParseBrandMHz(brand)
	if !ok {
		return
	}
	if rpt.BaseMHz == 0 {
		rpt.BaseMHz = mhz
	}
	if rpt.MaxMHz == 0 {
		rpt.MaxMHz = mhz
	}
	slog.Debug("frequency parsed from brand string", slog.Int("mhz", mhz))
}

// resolveFromInventory asks the OS inventory for the max clock; used only
// when max is still unset after the instruction-based stages.
func resolveFromInventory(inv inventory.Reader, rpt *Report) {
	if rpt.MaxMHz > 0 || inv == nil {
		return
	}
	mhz, err := inv.MaxClockMHz()
	if err != nil {
		slog.Debug("inventory frequency lookup failed", slog.String("error", err.Error()))
		return
	}
	if mhz <= 0 {
		return
	}
	rpt.MaxMHz = mhz
	if rpt.BaseMHz == 0 {
		rpt.BaseMHz = mhz
	}
	slog.Debug("frequency from OS inventory", slog.Int("max", mhz))
}

// turboRatios reads the auxiliary turbo trio when the leaf is available.
func turboRatios(src cpuid.Source, maxLeaf uint32) *TurboRatios {
	if maxLeaf < cpuid.LeafFrequency {
		return nil
	}
	r := src.Identify(cpuid.LeafFrequency, 0)
	return &TurboRatios{
		BaseMHz:       int(r.EAX & freqFieldMask),
		SingleCoreMHz: int(r.EBX & freqFieldMask),
		AllCoreMHz:    int(r.ECX & freqFieldMask),
	}
}

// ParseBrandMHz extracts a frequency from a processor brand string, e.g.
// "... 3.60GHz" -> 3600 or "... 2400MHz" -> 2400. The number is collected
// by scanning backward from the first GHZ/MHZ token.
func ParseBrandMHz(brand string) (int, bool) {
	upper := strings.ToUpper(brand)
	idx := strings.Index(upper, "GHZ")
	ghz := idx >= 0
	if !ghz {
		idx = strings.Index(upper, "MHZ")
	}
	if idx < 0 {
		return 0, false
	}
	// walk backward over digits, dots, and spaces to the number start
	start := idx
	for start > 0 {
		c := upper[start-1]
		if (c < '0' || c > '9') && c != '.' && c != ' ' {
			break
		}
		start--
	}
	var number strings.Builder
	for _, c := range upper[start:idx] {
		if (c >= '0' && c <= '9') || c == '.' {
			number.WriteRune(c)
		}
	}
	if number.Len() == 0 {
		return 0, false
	}
	val, err := strconv.ParseFloat(number.String(), 64)
	if err != nil || val <= 0 {
		return 0, false
	}
	if ghz {
		val *= 1000
	}
	return int(math.Round(val)), true
}
