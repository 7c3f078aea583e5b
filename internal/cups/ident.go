package cups

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// usbmiscBase is where the usblp driver exposes attached printer devices.
const usbmiscBase = "/sys/class/usbmisc"

var queueNameUnsafe = regexp.MustCompile(`[^A-Za-z0-9_]`)

// DeriveQueueName maps a model string to a valid CUPS queue name by
// replacing every character outside [A-Za-z0-9_] with an underscore. The
// mapping is idempotent.
func DeriveQueueName(model string) string {
	return queueNameUnsafe.ReplaceAllString(model, "_")
}

// ExtractModel pulls the MODEL field out of a raw IEEE-1284 device ID blob.
// The blob is semicolon-delimited, e.g. "MFG:Acme;MODEL:X100;CLASS:PRINTER;".
// Returns ok=false when no MODEL field is present.
func ExtractModel(blob string) (string, bool) {
	for _, part := range strings.Split(blob, ";") {
		part = strings.TrimSpace(part)
		if !strings.HasPrefix(part, "MODEL:") {
			continue
		}
		model := strings.TrimSpace(strings.TrimPrefix(part, "MODEL:"))
		if model == "" {
			return "", false
		}
		return model, true
	}
	return "", false
}

// ReadDeviceID scans the usblp device tree for the first non-empty
// IEEE-1284 identity blob. Not every USB add event belongs to a printer, so
// an absent blob is a normal outcome, not an error.
func ReadDeviceID() (string, bool) {
	return ReadDeviceIDFrom(usbmiscBase)
}

// ReadDeviceIDFrom is ReadDeviceID with an explicit sysfs base, for tests.
func ReadDeviceIDFrom(base string) (string, bool) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		blobPath := filepath.Join(base, entry.Name(), "device", "ieee1284_id")
		data, err := os.ReadFile(blobPath)
		if err != nil {
			continue
		}
		blob := strings.TrimSpace(string(data))
		if blob != "" {
			return blob, true
		}
	}
	return "", false
}
