// SPDX-License-Identifier: MPL-2.0

package gitclone

import "strings"

// NormalizeURL turns an npm repository URL into one git understands. The
// "git+" transport prefix npm allows in front of https and ssh URLs is
// removed; everything else is returned unchanged.
func NormalizeURL(raw string) string {
	switch {
	case strings.HasPrefix(raw, "git+https://"):
		return strings.TrimPrefix(raw, "git+")
	case strings.HasPrefix(raw, "git+ssh://"):
		return strings.TrimPrefix(raw, "git+")
	default:
		return raw
	}
}

// CandidateTags returns the tag names tried for version, in order.
func CandidateTags(version string) []string {
	return []string{"v" + version, version}
}

// isSSHURL reports URLs served over SSH, including the scp-like
// "git@host:path" form.
func isSSHURL(u string) bool {
	if strings.HasPrefix(u, "ssh://") {
		return true
	}
	if strings.Contains(u, "://") {
		return false
	}
	at := strings.Index(u, "@")
	colon := strings.Index(u, ":")
	return at > 0 && colon > at
}

func isHTTPURL(u string) bool {
	return strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "http://")
}
