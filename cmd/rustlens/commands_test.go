package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

const globFixture = "enum Color { Red, Green }\n\nuse Color::*;\n"

func TestRunCheck_DenyLevelDiagnosticsFail(t *testing.T) {
	writeConfig(t, "lints:\n  enum-glob-use: deny\n")
	require.NoError(t, os.WriteFile("colors.rs", []byte(globFixture), 0o644))

	// The failure surfaces as an error so deferred cleanup (parser
	// pools, caches) still runs before the process exits.
	err := runCheck([]string{"colors.rs"})
	require.ErrorIs(t, err, errCheckFailed)
}

func TestRunCheck_WarnLevelDiagnosticsPass(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("colors.rs", []byte(globFixture), 0o644))

	require.NoError(t, runCheck([]string{"colors.rs"}))
}

func TestRunCheck_NoFiles(t *testing.T) {
	err := runCheck(nil)
	require.Error(t, err)
}
