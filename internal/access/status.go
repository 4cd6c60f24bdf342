package access

import (
	"fmt"
	"strings"

	"github.com/Baaaki/role-admin/internal/apperr"
	"github.com/Baaaki/role-admin/internal/models"
)

// ParseUserStatus accepts ACTIVE or BANNED in any letter case.
func ParseUserStatus(s string) (models.UserStatus, error) {
	switch models.UserStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case models.StatusActive:
		return models.StatusActive, nil
	case models.StatusBanned:
		return models.StatusBanned, nil
	default:
		return "", fmt.Errorf("%w: user status %q", apperr.ErrInvalidInput, s)
	}
}

// MayAuthenticate reports whether a user in status may log in.
// Checked at login time only; live sessions are not revoked by a ban.
func MayAuthenticate(status models.UserStatus) bool {
	return status != models.StatusBanned
}

// MergeProfileMetadata applies a profile edit by the owner. Submitted keys
// replace the stored ones, except the vip flag, which keeps its stored value.
func MergeProfileMetadata(stored, submitted map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(submitted)+1)
	for k, v := range submitted {
		if k == models.MetadataVIP {
			continue
		}
		out[k] = v
	}
	if v, ok := stored[models.MetadataVIP]; ok {
		out[models.MetadataVIP] = v
	}
	return out
}

// WithVIP returns a copy of meta with the vip flag set or removed.
func WithVIP(meta map[string]interface{}, vip bool) map[string]interface{} {
	out := make(map[string]interface{}, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	if vip {
		out[models.MetadataVIP] = true
	} else {
		delete(out, models.MetadataVIP)
	}
	return out
}
