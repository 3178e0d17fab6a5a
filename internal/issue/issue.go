// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	xslices "golang.org/x/exp/slices"
)

type Id int

const (
	NotRegistryPackageId Id = iota + 1
	InvalidPackageNameId
	PackageNotPublishedId
	VersionNotPublishedId
	IntegrityMismatchId
	RepositoryMissingId
	RepositoryInvalidId
	RepositoryUnsupportedId
	TagsExhaustedId
	PackageRootNotFoundId
	PackageRootAmbiguousId
	BuildFailedId
	ConfigLoadFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return xslices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return xslices.Clone(i.extLinks)
}

// Render renders the issue markdown, with its links appended, using the
// glamour style at stylePath ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range append(i.DocLinks(), i.extLinks...) {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	notRegistryPackageIssue = &Issue{
		id: NotRegistryPackageId,
		mdMsg: `
# Not a registry package!

The argument must name a package hosted on an npm registry. Local paths,
tarballs, URLs, git references and aliases cannot be verified because there is
no published artifact to compare against.

## Things you can try:
- Pass the package name, optionally with a version, range or dist-tag:
~~~
$ npm-verified left-pad
$ npm-verified left-pad@1.3.0
$ npm-verified @scope/pkg@^2
~~~`,
	}

	invalidPackageNameIssue = &Issue{
		id: InvalidPackageNameId,
		mdMsg: `
# Invalid package name!

The package name does not follow npm naming rules.

## Naming rules:
- At most 214 characters, including the scope
- Must not start with a dot or an underscore
- Only URL-safe characters
- Scoped names look like ` + "`@scope/name`",
		extLinks: []HttpLink{"https://docs.npmjs.com/cli/configuring-npm/package-json#name"},
	}

	packageNotPublishedIssue = &Issue{
		id: PackageNotPublishedId,
		mdMsg: `
# Package not found in the registry!

The registry answered 404 for this package name.

## Things you can try:
- Check the spelling, including the scope
- For private packages, set a token:
~~~
$ export NPM_TOKEN=...
~~~
- Point at the right registry with ` + "`--registry`" + ` or the ` + "`registry`" + ` config key`,
	}

	versionNotPublishedIssue = &Issue{
		id: VersionNotPublishedId,
		mdMsg: `
# No matching version!

The package exists but no published version matches the requested version,
range or dist-tag.

## Things you can try:
- List the published versions:
~~~
$ npm view <package> versions
~~~
- List the dist-tags:
~~~
$ npm view <package> dist-tags
~~~`,
		extLinks: []HttpLink{"https://docs.npmjs.com/cli/using-npm/semver"},
	}

	integrityMismatchIssue = &Issue{
		id: IntegrityMismatchId,
		mdMsg: `
# Tarball integrity mismatch!

The downloaded tarball does not match the digest published in the registry
metadata. The download was corrupted in transit or something between you and
the registry altered it.

## Things you can try:
- Retry the verification
- Check any proxy or mirror configured as the registry`,
	}

	repositoryMissingIssue = &Issue{
		id: RepositoryMissingId,
		mdMsg: `
# No repository declared!

The published package.json has no ` + "`repository`" + ` field, so there is no
source to rebuild the package from.

## Things you can try:
- Ask the maintainers to declare the source repository`,
		extLinks: []HttpLink{"https://docs.npmjs.com/cli/configuring-npm/package-json#repository"},
	}

	repositoryInvalidIssue = &Issue{
		id: RepositoryInvalidId,
		mdMsg: `
# Invalid repository descriptor!

The published package.json declares a ` + "`repository`" + ` that is not an object
with both ` + "`type`" + ` and ` + "`url`" + ` set. Shorthand strings such as
` + "`github:user/repo`" + ` are not resolved.

## Expected shape:
~~~json
"repository": {
  "type": "git",
  "url": "git+https://github.com/user/repo.git"
}
~~~`,
		extLinks: []HttpLink{"https://docs.npmjs.com/cli/configuring-npm/package-json#repository"},
	}

	repositoryUnsupportedIssue = &Issue{
		id: RepositoryUnsupportedId,
		mdMsg: `
# Unsupported repository type!

Only git repositories can be cloned.`,
	}

	tagsExhaustedIssue = &Issue{
		id: TagsExhaustedId,
		mdMsg: `
# Version tag not found!

The repository could not be cloned at ` + "`v<version>`" + ` nor at ` + "`<version>`" + `.

## Common causes:
- The maintainers did not tag the release
- The release was tagged with a different naming scheme
- The repository is private or moved

## Things you can try:
- Check the tags of the repository:
~~~
$ git ls-remote --tags <url>
~~~
- For private repositories set ` + "`GITHUB_TOKEN`, `GITLAB_TOKEN` or `GIT_TOKEN`" + `,
  or load an SSH key in ` + "`~/.ssh`",
	}

	packageRootNotFoundIssue = &Issue{
		id: PackageRootNotFoundId,
		mdMsg: `
# Package not found in the repository!

No package.json in the cloned repository declares the published package name.

## Common causes:
- The package was renamed before publishing
- The source lives in another repository`,
	}

	packageRootAmbiguousIssue = &Issue{
		id: PackageRootAmbiguousId,
		mdMsg: `
# Several package roots found!

More than one package.json in the cloned repository declares the published
package name, for example a vendored copy or a fixture. The verifier cannot
pick one safely.

## Things you can try:
- Exclude the extra directories in the config file:
~~~cue
locate: exclude: [".git", "**/node_modules", "**/fixtures/**"]
~~~`,
	}

	buildFailedIssue = &Issue{
		id: BuildFailedId,
		mdMsg: `
# Preparing the package failed!

Installing dependencies or packing the cloned package failed.

## Things you can try:
- Check that ` + "`npm`" + ` (and ` + "`yarn`" + ` for yarn.lock projects) are on your PATH
- Use the Node.js version the project expects
- Override the commands in the config file:
~~~cue
build: {
	install_command: "npm ci"
	pack_command:    "npm pack"
}
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the schema.

## Configuration locations:
1. The file given with ` + "`--config`" + `
2. ` + "`$XDG_CONFIG_HOME/npm-verified/config.cue`" + ` (or the platform equivalent)
3. ` + "`./npm-verified.cue`" + `

## Things you can try:
- Check the CUE syntax:
~~~
$ cue vet config.cue
~~~
- Remove the file to fall back to defaults`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

The verifier could not read or write a file it needs.

## Things you can try:
- Check the permissions of the scratch directory (` + "`scratch_dir`" + ` in the config)
- Run from a directory you own`,
	}

	issues = map[Id]*Issue{
		notRegistryPackageIssue.Id():    notRegistryPackageIssue,
		invalidPackageNameIssue.Id():    invalidPackageNameIssue,
		packageNotPublishedIssue.Id():   packageNotPublishedIssue,
		versionNotPublishedIssue.Id():   versionNotPublishedIssue,
		integrityMismatchIssue.Id():     integrityMismatchIssue,
		repositoryMissingIssue.Id():     repositoryMissingIssue,
		repositoryInvalidIssue.Id():     repositoryInvalidIssue,
		repositoryUnsupportedIssue.Id(): repositoryUnsupportedIssue,
		tagsExhaustedIssue.Id():         tagsExhaustedIssue,
		packageRootNotFoundIssue.Id():   packageRootNotFoundIssue,
		packageRootAmbiguousIssue.Id():  packageRootAmbiguousIssue,
		buildFailedIssue.Id():           buildFailedIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		permissionDeniedIssue.Id():      permissionDeniedIssue,
	}
)

// Values returns every issue ordered by Id.
func Values() []*Issue {
	values := slices.Collect(maps.Values(issues))
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
