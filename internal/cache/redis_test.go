package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportKey(t *testing.T) {
	a := ReportKey([]byte("feed one"))
	b := ReportKey([]byte("feed two"))

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, ReportKey([]byte("feed one")))

	// validation: prefix plus 16 hash bytes in hex
	assert.Regexp(t, `^validation:[0-9a-f]{32}$`, a)
}

func TestImportLockKey(t *testing.T) {
	assert.Equal(t, "import-lock:owner-1:proj-1", importLockKey("owner-1", "proj-1"))
	assert.NotEqual(t,
		importLockKey("owner-1", "proj-2"),
		importLockKey("owner-2", "proj-1"),
	)
}
