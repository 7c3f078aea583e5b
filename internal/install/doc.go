// Package install turns a detected printer model into a configured CUPS
// queue. Driver selection prefers the predefined mapping, then a pluggable
// decider, then the generic fallback driver; applying a driver creates or
// updates the queue via lpadmin and records the outcome in history.
package install
