package terraform

import (
	"bufio"
	"bytes"
	"strings"
	"time"
)

// LockInfo is the metadata parsed best-effort from a provisioner's
// lock-contention output. ID may be empty when the backend did not
// print one; CreatedOK is false when no timestamp could be parsed,
// which disables the age-based remediation trigger for that attempt.
type LockInfo struct {
	ID        string
	Created   time.Time
	CreatedOK bool
}

// createdLayouts are tried in order against the free-form Created
// field. Terraform's S3 and azurerm backends print the first form;
// the rest cover older releases and RFC3339 style backends.
var createdLayouts = []string{
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05 -0700 MST",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ParseLockInfo extracts the lock id and creation timestamp from a
// "Lock Info:" block in the combined output. Both fields are optional.
func ParseLockInfo(output []byte) LockInfo {
	var info LockInfo
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "ID:"):
			if info.ID == "" {
				info.ID = strings.TrimSpace(strings.TrimPrefix(line, "ID:"))
			}
		case strings.HasPrefix(line, "Created:"):
			if !info.CreatedOK {
				info.Created, info.CreatedOK = parseCreated(
					strings.TrimSpace(strings.TrimPrefix(line, "Created:")))
			}
		}
	}
	return info
}

// parseCreated tries each known timestamp layout in turn.
func parseCreated(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range createdLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
