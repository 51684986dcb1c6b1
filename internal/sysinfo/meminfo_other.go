//go:build !linux

package sysinfo

// AvailableMemoryMB is only implemented for Linux. Other platforms report 0,
// which callers treat as "unknown" and skip memory gating.
func AvailableMemoryMB() int64 {
	return 0
}
