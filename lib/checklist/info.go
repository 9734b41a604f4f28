package checklist

import (
	"context"
)

// nearLimitThreshold is the fraction of the total byte quota above which
// callers should start warning their users.
const nearLimitThreshold = 0.8

// StorageInfo describes how much of the backend's byte quota is in use.
type StorageInfo struct {
	BytesUsed      int     `json:"bytesUsed"`
	BytesAvailable int     `json:"bytesAvailable"`
	PercentUsed    float64 `json:"percentUsed"`
}

// StorageInfo reports current quota usage. When the backend cannot report
// usage the safe default (nothing used, full quota available) is returned
// so callers never fail on a diagnostics path.
func (s *Store) StorageInfo(ctx context.Context) StorageInfo {
	quota := s.backend.Limits().QuotaBytes

	used, err := s.backend.BytesInUse(ctx)
	if err != nil {
		s.logger.Warn("bytes-in-use query failed, assuming empty", "error", err)
		return StorageInfo{BytesUsed: 0, BytesAvailable: quota, PercentUsed: 0}
	}

	info := StorageInfo{
		BytesUsed:      used,
		BytesAvailable: max(0, quota-used),
	}
	if quota > 0 {
		info.PercentUsed = float64(used) / float64(quota) * 100
	}
	return info
}

// NearLimit reports whether quota usage crossed the warning threshold.
// Callers use it to warn users proactively; the store itself never blocks
// writes on it.
func (s *Store) NearLimit(ctx context.Context) bool {
	return s.StorageInfo(ctx).PercentUsed > nearLimitThreshold*100
}
