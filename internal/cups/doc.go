// Package cups drives the local CUPS installation through its command-line
// surface. The Client owns health probing, queue enumeration and
// manipulation, driver catalog searches, and the fixed recovery pipeline.
// Every external call is bounded by a per-call timeout from configuration so
// a hung scheduler can never stall a caller indefinitely.
package cups
