// Package daemon coordinates the long-running Nudge process and system
// integration points.
//
// It wires configuration, the attention store, and the pipeline coordinator
// into a single lifecycle with flock-based locking to prevent multiple
// instances. On Linux the daemon also watches udev netlink events so camera
// hotplug flips frame processing on and off without a restart.
package daemon
