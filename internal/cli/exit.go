package cli

// Exit code contract (documented in the root command help):
// 0 = success, 1 = matrix failure, 2 = hard lint failure,
// 3 = version sync failure, 4 = fatal error (workflow did not run).
const (
	ExitOK          = 0
	ExitMatrixFail  = 1
	ExitLintFail    = 2
	ExitVersionFail = 3
	ExitFatal       = 4
)

// exitCodeForRun folds the gate outcomes of a full check run into the final
// exit code. The worst gate wins in severity order: a broken version sync
// outranks broken lint, which outranks test failures. Advisory findings
// never change the code.
func exitCodeForRun(versionOK, lintOK, matrixOK bool) int {
	if !versionOK {
		return ExitVersionFail
	}
	if !lintOK {
		return ExitLintFail
	}
	if !matrixOK {
		return ExitMatrixFail
	}
	return ExitOK
}
