package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/econicmedia/bot-sub001/pkg/errors"
)

// CheckVersionCompatibility checks that a settings file written for
// configVersion can be run by a binary at engineVersion.
// Returns nil if compatible, error with details if not.
//
// Compatibility Rules:
//   - If either version is "main" (development build), compatibility check is skipped
//   - Major versions must match exactly
//   - The engine minor version must be at least the config minor version
//   - Patch versions can differ (e.g., 1.2.0 is compatible with 1.2.5)
//
// Examples:
//   - Engine 1.2.0, Config 1.2.0 -> OK (exact match)
//   - Engine 1.2.1, Config 1.2.0 -> OK (patch differs)
//   - Engine 1.3.0, Config 1.2.0 -> OK (newer engine reads older settings)
//   - Engine 1.1.0, Config 1.2.0 -> ERROR (settings use newer options)
//   - Engine 2.0.0, Config 1.2.0 -> ERROR (major differs)
//   - Engine main, Config 1.2.0 -> OK (dev build, skip check)
func CheckVersionCompatibility(engineVersion, configVersion string) error {
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	if engineVersion == "main" || configVersion == "main" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid engine version '%s'", engineVersion)
	}

	configSemver, err := semver.NewVersion(configVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid config version '%s'", configVersion)
	}

	if engineSemver.Major() != configSemver.Major() {
		return errors.Newf(errors.ErrCodeVersionMismatch,
			"major version mismatch: engine is %d.x.x but config requires %d.x.x",
			engineSemver.Major(), configSemver.Major())
	}

	if engineSemver.Minor() < configSemver.Minor() {
		return errors.Newf(errors.ErrCodeVersionMismatch,
			"minor version mismatch: engine is %d.%d.x but config requires %d.%d.x",
			engineSemver.Major(), engineSemver.Minor(),
			configSemver.Major(), configSemver.Minor())
	}

	return nil
}
