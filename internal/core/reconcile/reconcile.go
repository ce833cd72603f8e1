// Package reconcile converts device-local monotonic clock readings into
// absolute calendar timestamps.
//
// The device exposes one monotonic counter whose epoch the server never
// learns. Each upload carries a single calibration pair: the device wall
// clock instant the upload was generated and the simultaneous reading of the
// monotonic counter, both in nanoseconds. Every event inside the upload
// carries its own reading of the same counter, taken when the event occurred.
package reconcile

import "time"

// Absolute anchors an event's monotonic reading to the request calibration
// pair: requestAbs + (eventRel - requestRel), all nanoseconds.
//
// The delta is signed and unclamped. Device clock resets between boots can
// make it negative or implausibly large; that is a data quality concern for
// downstream consumers, not a decoding failure.
func Absolute(requestAbs, requestRel, eventRel int64) time.Time {
	bootEpoch := requestAbs - requestRel
	return time.Unix(0, bootEpoch+eventRel).UTC()
}
