// Package release bumps manifest versions, stages release files and
// publishes the built demo to its git remotes.
package release

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/gantry/pkg/workdir"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/mod/semver"
)

// Bump kinds accepted by Bump.
const (
	Patch      = "patch"
	Minor      = "minor"
	Major      = "major"
	Prerelease = "prerelease"
)

// NextVersion increments version (without the leading "v") by kind.
// An empty kind means patch.
//
// Bumping a prerelease to its release drops the prerelease instead of
// incrementing: 1.3.0-beta.1 bumped minor is 1.3.0.
func NextVersion(version, kind string) (string, error) {
	v := "v" + strings.TrimPrefix(version, "v")
	if !semver.IsValid(v) {
		return "", fmt.Errorf("invalid version %q", version)
	}
	pre := semver.Prerelease(v)
	core := strings.TrimSuffix(strings.TrimPrefix(semver.Canonical(v), "v"), pre)
	parts := strings.Split(core, ".")
	nums := make([]int, 3)
	for i := range nums {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return "", fmt.Errorf("invalid version %q", version)
		}
		nums[i] = n
	}
	major, minor, patch := nums[0], nums[1], nums[2]

	switch kind {
	case "", Patch:
		if pre == "" {
			patch++
		}
	case Minor:
		if pre == "" || patch != 0 {
			minor++
		}
		patch = 0
	case Major:
		if pre == "" || minor != 0 || patch != 0 {
			major++
		}
		minor, patch = 0, 0
	case Prerelease:
		if pre == "" {
			return fmt.Sprintf("%d.%d.%d-0", major, minor, patch+1), nil
		}
		return fmt.Sprintf("%d.%d.%d%s", major, minor, patch, nextPrerelease(pre)), nil
	default:
		return "", fmt.Errorf("unknown bump type %q", kind)
	}
	return fmt.Sprintf("%d.%d.%d", major, minor, patch), nil
}

// nextPrerelease increments the last numeric identifier of pre ("-beta.1"),
// appending ".0" when there is none.
func nextPrerelease(pre string) string {
	ids := strings.Split(strings.TrimPrefix(pre, "-"), ".")
	last := ids[len(ids)-1]
	if n, err := strconv.Atoi(last); err == nil {
		ids[len(ids)-1] = strconv.Itoa(n + 1)
	} else {
		ids = append(ids, "0")
	}
	return "-" + strings.Join(ids, ".")
}

// Bump rewrites the "version" field of the JSON manifest at path in place,
// keeping the rest of the file byte for byte, and returns the new version.
func Bump(path, kind string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read manifest: %w", err)
	}
	current := gjson.GetBytes(data, "version")
	if !current.Exists() {
		return "", fmt.Errorf("manifest %s has no version", path)
	}
	next, err := NextVersion(current.String(), kind)
	if err != nil {
		return "", err
	}
	out, err := sjson.SetBytes(data, "version", next)
	if err != nil {
		return "", fmt.Errorf("update manifest: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if err := workdir.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return "", err
	}
	return next, nil
}

// ManifestVersion reads the "version" field of the JSON manifest at path.
func ManifestVersion(path string) (string, error) {
	return ManifestField(path, "version")
}

// ManifestField reads a top level string field of the JSON manifest at path.
func ManifestField(path, field string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read manifest: %w", err)
	}
	v := gjson.GetBytes(data, field)
	if !v.Exists() {
		return "", fmt.Errorf("manifest %s has no %s", path, field)
	}
	return v.String(), nil
}
