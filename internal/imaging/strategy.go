package imaging

import (
	"fmt"

	"github.com/sanjayjain8513/vdo-image-app/internal/config"
	"github.com/sanjayjain8513/vdo-image-app/internal/sysinfo"
)

type Strategy string

const (
	StrategyDirect           Strategy = "direct"
	StrategySmartResize      Strategy = "smart_resize"
	StrategyAggressiveResize Strategy = "aggressive_resize"
	StrategyReject           Strategy = "reject"
)

// Decoded pixels cost roughly 10 bytes each across the decode, resize
// and PPM stages combined.
const bytesPerPixel = 10

type Plan struct {
	Strategy     Strategy
	TargetPixels int64
	Reason       string
}

// SelectPlan decides how to process an image of the given dimensions
// under the current memory headroom. availMB <= 0 means unknown and
// disables memory gating.
func SelectPlan(width, height int, availMB int64) Plan {
	pixels := int64(width) * int64(height)

	if pixels > config.MaxPixels {
		return Plan{
			Strategy: StrategyReject,
			Reason:   fmt.Sprintf("image is %d megapixels, limit is %d", pixels/1_000_000, config.MaxPixels/1_000_000),
		}
	}

	needMB := pixels * bytesPerPixel / (1024 * 1024)
	memOK := availMB <= 0 || availMB-needMB >= config.MinFreeMemoryMB

	if pixels <= config.SafePixels && memOK {
		return Plan{Strategy: StrategyDirect, TargetPixels: pixels}
	}

	if pixels > config.SafePixels {
		if !config.AutoResize {
			return Plan{Strategy: StrategyReject, Reason: "image too large and auto-resize is disabled"}
		}
		target := config.SafePixels
		if !memOK {
			target = config.SafePixels / 2
			return Plan{Strategy: StrategyAggressiveResize, TargetPixels: target}
		}
		return Plan{Strategy: StrategySmartResize, TargetPixels: target}
	}

	// Within safe pixels but memory is tight.
	if availMB < config.MinFreeMemoryMB {
		return Plan{Strategy: StrategyReject, Reason: "low memory on server, try again later"}
	}
	return Plan{Strategy: StrategyAggressiveResize, TargetPixels: config.SafePixels / 2}
}

// CurrentPlan is SelectPlan against live system memory.
func CurrentPlan(width, height int) Plan {
	return SelectPlan(width, height, sysinfo.AvailableMemoryMB())
}
