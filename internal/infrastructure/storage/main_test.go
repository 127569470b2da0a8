package storage

import (
	"os"
	"testing"

	"github.com/AltimetrikAI/propelus-taxonomy/testutil"
)

func TestMain(m *testing.M) {
	os.Exit(testutil.RunWithEmbeddedDB(m))
}
