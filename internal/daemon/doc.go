// Package daemon ties the long-running pieces together: it enforces
// single-instance execution with a file lock, runs the coordination manager,
// disables CUPS auto-discovery at startup, and watches udev for USB printer
// hot-plug events.
package daemon
