package cups

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"printwatch/internal/logging"
)

// discoveryConfig is the fixed configuration written when auto-discovery is
// disabled: no browsing, no remote protocols, no automatic queue creation.
const discoveryConfig = `# Disabled by printwatch
Browsing Off
BrowseRemoteProtocols none
CreateIPPPrinterQueues No
`

// Fix runs the fixed recovery pipeline against a misbehaving print service.
// Steps are best-effort and strictly ordered; only the final restart gates
// the verification step. The transcript always holds five entries, each
// prefixed with ✓ (done), ⚠ (skipped or partial), or ✗ (failed), ending
// with the verification line.
func (c *Client) Fix(ctx context.Context) (bool, []string) {
	opTimeout := c.cfg.OperationTimeout()
	transcript := make([]string, 0, 5)

	result := c.runPrivileged(ctx, opTimeout, "systemctl", "stop", c.cfg.Service.DiscoveryService)
	if result.ExitedZero {
		transcript = append(transcript, fmt.Sprintf("✓ stopped %s", c.cfg.Service.DiscoveryService))
	} else {
		transcript = append(transcript, fmt.Sprintf("⚠ could not stop %s: %s", c.cfg.Service.DiscoveryService, result.Output()))
	}

	result = c.runPrivileged(ctx, opTimeout, "cancel", "-a")
	if result.ExitedZero {
		transcript = append(transcript, "✓ cancelled all print jobs")
	} else {
		transcript = append(transcript, fmt.Sprintf("⚠ could not cancel jobs: %s", result.Output()))
	}

	transcript = append(transcript, c.cleanSpool())

	result = c.runPrivileged(ctx, opTimeout, "systemctl", "restart", c.cfg.Service.Name)
	if !result.ExitedZero {
		transcript = append(transcript,
			fmt.Sprintf("✗ failed to restart %s: %s", c.cfg.Service.Name, result.Output()),
			"✗ service not verified",
		)
		return false, transcript
	}
	transcript = append(transcript, fmt.Sprintf("✓ restarted %s", c.cfg.Service.Name))

	c.sleep(ctx, c.cfg.RestartSettle())

	result = c.run(ctx, c.cfg.CheckTimeout(), "systemctl", "is-active", c.cfg.Service.Name)
	if !result.ExitedZero {
		transcript = append(transcript, "✗ service failed to start")
		return false, transcript
	}
	transcript = append(transcript, "✓ service active and verified")
	return true, transcript
}

// cleanSpool removes regular files from the spool directory, leaving
// subdirectories intact.
func (c *Client) cleanSpool() string {
	spool := c.cfg.Service.SpoolDir
	entries, err := os.ReadDir(spool)
	if err != nil {
		return fmt.Sprintf("⚠ could not clean spool: %v", err)
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(spool, entry.Name())); err != nil {
			return fmt.Sprintf("⚠ could not clean spool: %v", err)
		}
		removed++
	}
	return fmt.Sprintf("✓ cleaned spool directory (%d files)", removed)
}

// DisableDiscovery stops and disables the auto-discovery helper, then
// installs a configuration that keeps it from recreating queues. The config
// is written to a staging path and copied into place with elevated
// privilege. Safe to call at every startup; the operation is idempotent.
func (c *Client) DisableDiscovery(ctx context.Context) (bool, string) {
	checkTimeout := c.cfg.CheckTimeout()
	helper := c.cfg.Service.DiscoveryService

	c.runPrivileged(ctx, checkTimeout, "systemctl", "stop", helper)
	c.runPrivileged(ctx, checkTimeout, "systemctl", "disable", helper)

	staging := c.cfg.Service.DiscoveryStagingPath
	if err := os.WriteFile(staging, []byte(discoveryConfig), 0o644); err != nil {
		return false, fmt.Sprintf("write discovery config: %v", err)
	}

	result := c.runPrivileged(ctx, checkTimeout, "cp", staging, c.cfg.Service.DiscoveryConfigPath)
	if !result.ExitedZero {
		return false, fmt.Sprintf("install discovery config: %s", result.Output())
	}

	c.logger.Info("auto-discovery disabled",
		logging.String("helper", helper),
		logging.String("config", c.cfg.Service.DiscoveryConfigPath),
	)
	return true, "auto-discovery disabled"
}
