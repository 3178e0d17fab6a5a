// SPDX-License-Identifier: MPL-2.0

package pipeline

import "fmt"

// Stage is a pipeline state. A run reports the last stage it reached.
type Stage string

const (
	StageInit             Stage = "init"
	StageDownloaded       Stage = "downloaded"
	StageRepoResolved     Stage = "repo-resolved"
	StageRepoCloned       Stage = "repo-cloned"
	StagePackageRootFound Stage = "package-root-found"
	StageRebuilt          Stage = "rebuilt"
	StageUnpacked         Stage = "unpacked"
	StageCompared         Stage = "compared"
	StageReported         Stage = "reported"
)

// Stages lists every stage in execution order.
func Stages() []Stage {
	return []Stage{
		StageInit,
		StageDownloaded,
		StageRepoResolved,
		StageRepoCloned,
		StagePackageRootFound,
		StageRebuilt,
		StageUnpacked,
		StageCompared,
		StageReported,
	}
}

// StageError wraps the error that stopped a run before Stage was reached.
type StageError struct {
	Stage Stage
	Err   error
}

// Error implements the error interface. The stage name is left out so the
// collaborator's message surfaces verbatim.
func (e *StageError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error { return e.Err }

// Describe renders the error prefixed with the stage that failed.
func (e *StageError) Describe() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}
