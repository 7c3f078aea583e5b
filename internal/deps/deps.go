// Package deps reports availability of the external CUPS and systemd
// binaries printwatch drives.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external dependency printwatch relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// Requirements lists every external binary the daemon shells out to.
func Requirements() []Requirement {
	return []Requirement{
		{Name: "systemctl", Command: "systemctl", Description: "service control and activation checks"},
		{Name: "lpstat", Command: "lpstat", Description: "scheduler probe, queue and job listings"},
		{Name: "lpadmin", Command: "lpadmin", Description: "queue creation, driver changes, deletion"},
		{Name: "lpinfo", Command: "lpinfo", Description: "driver database listing"},
		{Name: "lp", Command: "lp", Description: "test page submission"},
		{Name: "lpr", Command: "lpr", Description: "test page submission fallback", Optional: true},
		{Name: "cancel", Command: "cancel", Description: "print job cancellation"},
		{Name: "cupsenable", Command: "cupsenable", Description: "queue re-enable before printing", Optional: true},
		{Name: "cupsaccept", Command: "cupsaccept", Description: "queue accept before printing", Optional: true},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the names of required dependencies that are
// unavailable.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
