// SPDX-License-Identifier: MPL-2.0

package pipeline

// Observer receives a progress notification before each user-visible stage.
type Observer interface {
	Downloading(ref string)
	Cloning(url, repoType, version string)
	FoundPackageRoot(name, relRoot string)
	Preparing(relRoot string)
	Comparing()
}

// NopObserver ignores progress.
type NopObserver struct{}

func (NopObserver) Downloading(string)              {}
func (NopObserver) Cloning(string, string, string)  {}
func (NopObserver) FoundPackageRoot(string, string) {}
func (NopObserver) Preparing(string)                {}
func (NopObserver) Comparing()                      {}
