// Package cmdexec is the single subprocess primitive the rest of printwatch
// is built on. Every external tool invocation goes through a Runner, which
// bounds the call with a timeout and reports the outcome as plain data
// instead of errors, so callers decide policy without handling process
// details.
package cmdexec
