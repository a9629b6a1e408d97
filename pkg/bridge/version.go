package bridge

import "fmt"

// Version information for the wire protocol.
const (
	// ProtocolVersion is stamped on every outgoing envelope.
	ProtocolVersion = "1.0.0"

	// MinCompatibleVersion is the oldest peer version accepted.
	MinCompatibleVersion = "1.0.0"
)

// isVersionCompatible checks that version shares the major version of
// minVersion and is not older than it. Versions are "major.minor.patch".
func isVersionCompatible(version, minVersion string) bool {
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	if n, _ := fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch); n != 3 {
		return false
	}
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return false
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
