//go:build linux

// Package v4l2 provides pure Go bindings to the Video4Linux2 (V4L2)
// capability interface, used to probe the system for a video device
// that satisfies a caller-supplied acceptance test.
//
// This package does not use cgo, enabling simple cross-compilation for
// different Linux architectures.
//
// # Probing
//
// Probe scans /dev for video nodes, queries each one's capabilities and
// hands the candidate to an acceptance function. The first accepted
// candidate wins, in directory-listing order:
//
//	prober := v4l2.NewProber()
//	dev, err := prober.Probe(v4l2.RequireCaps(v4l2.CapVideoM2MMplane))
//	if err != nil {
//	    // no usable device
//	}
//	defer dev.Close()
//
// The returned Device owns its open descriptor; every rejected
// candidate is closed before the scan moves on.
package v4l2
