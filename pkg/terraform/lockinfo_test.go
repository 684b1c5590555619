package terraform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const azureLockOutput = `
Error: Error acquiring the state lock

Error message: state blob is already locked
Lock Info:
  ID:        8f844596-3a32-1c0e-6ad2-e1ba88dbecab
  Path:      tfstate/terraform.tfstate
  Operation: OperationTypeApply
  Who:       ci@runner-7
  Version:   1.7.5
  Created:   2024-05-01 12:13:14.123456789 +0000 UTC
  Info:
`

func TestParseLockInfo(t *testing.T) {
	info := ParseLockInfo([]byte(azureLockOutput))

	assert.Equal(t, "8f844596-3a32-1c0e-6ad2-e1ba88dbecab", info.ID)
	assert.True(t, info.CreatedOK)
	want := time.Date(2024, 5, 1, 12, 13, 14, 123456789, time.UTC)
	assert.True(t, info.Created.Equal(want), "Created = %v, want %v", info.Created, want)
}

// TestParseLockInfoFormats tests the timestamp fallback formats
func TestParseLockInfoFormats(t *testing.T) {
	tests := []struct {
		name    string
		created string
		ok      bool
	}{
		{"terraform UTC", "2024-05-01 12:13:14.123456789 +0000 UTC", true},
		{"no fraction", "2024-05-01 12:13:14 +0000 UTC", true},
		{"rfc3339", "2024-05-01T12:13:14Z", true},
		{"rfc3339 nano", "2024-05-01T12:13:14.5Z", true},
		{"bare", "2024-05-01 12:13:14", true},
		{"garbage", "yesterday-ish", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := "Lock Info:\n  ID: abc\n  Created: " + tt.created + "\n"
			info := ParseLockInfo([]byte(output))
			assert.Equal(t, "abc", info.ID)
			assert.Equal(t, tt.ok, info.CreatedOK)
		})
	}
}

// TestParseLockInfoAbsent tests that missing fields stay empty rather
// than failing
func TestParseLockInfoAbsent(t *testing.T) {
	info := ParseLockInfo([]byte("Error: something else entirely\n"))
	assert.Empty(t, info.ID)
	assert.False(t, info.CreatedOK)
}
