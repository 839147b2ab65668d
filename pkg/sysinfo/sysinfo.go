// Package sysinfo collects the host context block recorded alongside each
// run, so reports stay interpretable after the fact.
package sysinfo

import (
	"context"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// Info describes the host a run executed on.
type Info struct {
	Hostname        string  `json:"hostname,omitempty"`
	OS              string  `json:"os,omitempty"`
	Platform        string  `json:"platform,omitempty"`
	PlatformVersion string  `json:"platform_version,omitempty"`
	KernelVersion   string  `json:"kernel_version,omitempty"`
	Arch            string  `json:"arch,omitempty"`
	CPUModel        string  `json:"cpu_model,omitempty"`
	CPUCores        int     `json:"cpu_cores,omitempty"`
	MemoryTotalGB   float64 `json:"memory_total_gb,omitempty"`
}

// Collect gathers host information. Best-effort: fields that cannot be
// read are left empty, and Collect never fails.
func Collect(ctx context.Context) *Info {
	info := &Info{}

	if h, err := host.InfoWithContext(ctx); err == nil {
		info.Hostname = h.Hostname
		info.OS = h.OS
		info.Platform = h.Platform
		info.PlatformVersion = h.PlatformVersion
		info.KernelVersion = h.KernelVersion
		info.Arch = h.KernelArch
	}

	if cpus, err := cpu.InfoWithContext(ctx); err == nil && len(cpus) > 0 {
		info.CPUModel = cpus[0].ModelName
	}

	if count, err := cpu.CountsWithContext(ctx, true); err == nil {
		info.CPUCores = count
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.MemoryTotalGB = float64(vm.Total) / (1024 * 1024 * 1024)
	}

	return info
}
