package util

import (
	"bufio"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// AvailableMemoryBytes returns the available memory in bytes.
// On Linux, this reads MemAvailable from /proc/meminfo.
// Returns 0 if memory cannot be determined.
func AvailableMemoryBytes() uint64 {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "MemAvailable:") {
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				kb, err := strconv.ParseUint(fields[1], 10, 64)
				if err == nil {
					return kb * 1024 // Convert KB to bytes
				}
			}
		}
	}
	return 0
}

// MaxPermitsForMemory calculates the maximum safe number of in-flight chunks
// based on available memory and estimated chunk size.
// chunkMemBytes is the estimated memory per in-flight chunk (YUV data).
// memFraction is the fraction of available memory to use (e.g., 0.7 for 70%).
// Returns at least 1.
func MaxPermitsForMemory(chunkMemBytes uint64, memFraction float64) int {
	available := AvailableMemoryBytes()
	if available == 0 {
		return 1 // Can't determine memory, be conservative
	}

	usable := uint64(float64(available) * memFraction)
	if usable < chunkMemBytes {
		return 1
	}

	permits := int(usable / chunkMemBytes)
	return max(permits, 1)
}

// LogicalCores returns the number of logical CPU cores (includes hyperthreads).
// This is equivalent to runtime.NumCPU().
func LogicalCores() int {
	return runtime.NumCPU()
}

// PhysicalCores returns the number of physical CPU cores.
// On systems with SMT/hyperthreading, this will be less than LogicalCores().
// Falls back to LogicalCores()/2 if detection fails.
func PhysicalCores() int {
	switch runtime.GOOS {
	case "linux":
		if cores := physicalCoresLinux(); cores > 0 {
			return cores
		}
	case "darwin":
		if cores := physicalCoresDarwin(); cores > 0 {
			return cores
		}
	}
	// Fallback: assume hyperthreading (2 threads per core)
	logical := LogicalCores()
	if logical > 1 {
		return logical / 2
	}
	return 1
}

// physicalCoresLinux reads physical core count from sysfs topology.
// Returns 0 if detection fails.
func physicalCoresLinux() int {
	// Count unique physical core IDs across all CPUs
	cpuDir := "/sys/devices/system/cpu"
	entries, err := os.ReadDir(cpuDir)
	if err != nil {
		return 0
	}

	coreIDs := make(map[string]struct{})
	for _, entry := range entries {
		name := entry.Name()
		// Match cpu0, cpu1, cpu2, etc.
		if !strings.HasPrefix(name, "cpu") {
			continue
		}
		suffix := name[3:]
		if len(suffix) == 0 {
			continue
		}
		// Check if suffix is a number
		if _, err := strconv.Atoi(suffix); err != nil {
			continue
		}

		// Read core_id for this CPU
		coreIDPath := filepath.Join(cpuDir, name, "topology", "core_id")
		data, err := os.ReadFile(coreIDPath)
		if err != nil {
			continue
		}

		// Also read physical_package_id to handle multi-socket systems
		pkgIDPath := filepath.Join(cpuDir, name, "topology", "physical_package_id")
		pkgData, err := os.ReadFile(pkgIDPath)
		if err != nil {
			// Single socket system, just use core_id
			coreIDs[strings.TrimSpace(string(data))] = struct{}{}
		} else {
			// Multi-socket: combine package and core ID
			key := strings.TrimSpace(string(pkgData)) + ":" + strings.TrimSpace(string(data))
			coreIDs[key] = struct{}{}
		}
	}

	if len(coreIDs) > 0 {
		return len(coreIDs)
	}
	return 0
}

// physicalCoresDarwin uses sysctl to get physical core count on macOS.
// Returns 0 if detection fails.
func physicalCoresDarwin() int {
	out, err := exec.Command("sysctl", "-n", "hw.physicalcpu").Output()
	if err != nil {
		return 0
	}
	cores, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil || cores <= 0 {
		return 0
	}
	return cores
}
