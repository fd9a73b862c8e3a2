package clickhouse

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// VersionInfo is a parsed ClickHouse server version.
type VersionInfo struct {
	Major int
	Minor int
	Patch int
	Raw   string
}

var versionRegex = regexp.MustCompile(`^(\d+)\.(\d+)(?:\.(\d+))?(?:\.(\d+))?`)

func (v VersionInfo) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// IsAtLeast reports whether v is major.minor or newer.
func (v VersionInfo) IsAtLeast(major, minor int) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

// Version returns the server version.
func (c *Client) Version(ctx context.Context) (*VersionInfo, error) {
	var raw string
	if err := c.conn.QueryRow(ctx, "SELECT version()").Scan(&raw); err != nil {
		return nil, errors.Wrap(err, "failed to query ClickHouse version")
	}

	return ParseVersion(raw)
}

// ParseVersion parses version strings such as "24.8.4.13",
// "22.8.2.11-testing" or "21.10.3.9 (official build)".
func ParseVersion(raw string) (*VersionInfo, error) {
	cleaned := strings.TrimSpace(raw)
	if i := strings.IndexAny(cleaned, " -"); i != -1 {
		cleaned = cleaned[:i]
	}

	matches := versionRegex.FindStringSubmatch(cleaned)
	if matches == nil {
		return nil, errors.Errorf("invalid ClickHouse version %q", raw)
	}

	// The regex only captures digits, so Atoi can only fail on overflow.
	parts := make([]int, 3)
	for i := range parts {
		if matches[i+1] == "" {
			continue
		}

		n, err := strconv.Atoi(matches[i+1])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid ClickHouse version %q", raw)
		}
		parts[i] = n
	}

	return &VersionInfo{Major: parts[0], Minor: parts[1], Patch: parts[2], Raw: raw}, nil
}
