package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckVersionCompatibility checks whether the generator can compile a template that
// pins a required generator version. Returns nil if compatible.
//
// The requirement may be a plain version or a semver constraint:
//   - If either side is "main" (development build), the check is skipped
//   - An empty requirement is always compatible
//   - A plain version requires the same major and minor version; patches may differ
//   - A constraint (e.g. ">= 0.5, < 0.7" or "^0.6") must be satisfied by the generator
//
// Examples:
//   - Generator 0.6.0, template 0.6.0 -> OK (exact match)
//   - Generator 0.6.3, template 0.6.0 -> OK (patch differs)
//   - Generator 0.7.0, template 0.6.0 -> ERROR (minor differs)
//   - Generator 0.6.1, template "~0.6" -> OK (constraint satisfied)
func CheckVersionCompatibility(generatorVersion, required string) error {
	generatorVersion = strings.TrimPrefix(strings.TrimSpace(generatorVersion), "v")
	required = strings.TrimSpace(required)

	if required == "" {
		return nil
	}

	if generatorVersion == "main" || strings.TrimPrefix(required, "v") == "main" {
		return nil
	}

	generatorSemver, err := semver.NewVersion(generatorVersion)
	if err != nil {
		return fmt.Errorf("invalid generator version '%s': %w", generatorVersion, err)
	}

	if requiredSemver, err := semver.StrictNewVersion(strings.TrimPrefix(required, "v")); err == nil {
		return compareExact(generatorSemver, requiredSemver)
	}

	constraint, err := semver.NewConstraint(required)
	if err != nil {
		return fmt.Errorf("invalid required version '%s': %w", required, err)
	}

	if ok, reasons := constraint.Validate(generatorSemver); !ok {
		msgs := make([]string, 0, len(reasons))
		for _, reason := range reasons {
			msgs = append(msgs, reason.Error())
		}

		return fmt.Errorf("generator %s does not satisfy '%s': %s",
			generatorSemver.String(), required, strings.Join(msgs, "; "))
	}

	return nil
}

func compareExact(generator, required *semver.Version) error {
	if generator.Major() != required.Major() {
		return fmt.Errorf("major version mismatch: generator is %d.x.x but template requires %d.x.x",
			generator.Major(), required.Major())
	}

	if generator.Minor() != required.Minor() {
		return fmt.Errorf("minor version mismatch: generator is %d.%d.x but template requires %d.%d.x",
			generator.Major(), generator.Minor(),
			required.Major(), required.Minor())
	}

	// Patch versions can differ, so we're compatible
	return nil
}
