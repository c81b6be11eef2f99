// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"errors"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

const (
	EngineHomeNotFoundId Id = iota + 1
	RuntimeUnsupportedId
	ArgumentParseFailedId
	SettingsFileNotFoundId
	InvalidRequestId
	RealmSetupFailedId
	TransportConnectFailedId
	ConfigLoadFailedId
)

type (
	// Id identifies an entry of the issue catalog.
	Id int

	// MarkdownMsg is the Markdown body rendered for an issue.
	MarkdownMsg string

	// HttpLink is a documentation link attached to an issue.
	HttpLink string

	// Issue is a catalog entry with remediation guidance.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

// Id returns the catalog id.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw Markdown body.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns a copy of the documentation links.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the issue body with the given glamour style ("dark",
// "light", "notty" or a path to a JSON style).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	engineHomeNotFoundIssue = &Issue{
		id: EngineHomeNotFoundId,
		mdMsg: `
# Build engine home not found!

The first argument must point at an installed build engine distribution.

## Things you can try:
- Check the directory exists and contains ` + "`bin/`" + ` and ` + "`lib/`" + `
- Pass an absolute path:
~~~
$ m3bridge /opt/maven transport.jar interceptor.jar interceptor-common.jar 4711
~~~`,
		docLinks: []HttpLink{"https://maven.apache.org/install.html"},
	}

	runtimeUnsupportedIssue = &Issue{
		id: RuntimeUnsupportedId,
		mdMsg: `
# Hosting runtime too old!

The runtime reported by the ` + "`go.version`" + ` property is older than
` + "`runtime.min_version`" + ` from your configuration.

## Things you can try:
- Upgrade the toolchain used to build m3bridge
- Lower ` + "`runtime.min_version`" + ` in your config file`,
	}

	argumentParseFailedIssue = &Issue{
		id: ArgumentParseFailedId,
		mdMsg: `
# Unable to parse command line options!

The build engine arguments could not be parsed.

## Things you can try:
- Preview the normalized request without running anything:
~~~
$ m3bridge request -B -T 4 clean install
~~~
- Check ` + "`.mvn/maven.config`" + ` and the ` + "`MAVEN_ARGS`" + ` environment variable,
  both are prepended to the command line`,
	}

	settingsFileNotFoundIssue = &Issue{
		id: SettingsFileNotFoundId,
		mdMsg: `
# Settings file not found!

A settings file named with ` + "`-s`" + ` or ` + "`-gs`" + ` does not exist.
Explicitly named files are required, only the default locations are optional.

## Things you can try:
- Fix the path (relative paths resolve against the working directory)
- Drop the flag to fall back to ` + "`~/.m2/settings.xml`" + ``,
		docLinks: []HttpLink{"https://maven.apache.org/settings.html"},
	}

	invalidRequestIssue = &Issue{
		id: InvalidRequestId,
		mdMsg: `
# Invalid execution request!

The merged command line, properties and settings produced an inconsistent
request.

## Things you can try:
- Check ` + "`-T`" + ` is a positive thread count such as ` + "`4`" + ` or ` + "`1C`" + `
- Run with ` + "`-X`" + ` to see every applied option`,
	}

	realmSetupFailedIssue = &Issue{
		id: RealmSetupFailedId,
		mdMsg: `
# Realm setup failed!

The realm configuration could not be loaded or a component was not found in
its realm.

## Things you can try:
- Check the ` + "`classworlds.conf`" + ` property or the ` + "`CLASSWORLDS_CONF`" + `
  environment variable point at a valid realm configuration
- Check ` + "`realms.conf`" + ` in your config file`,
	}

	transportConnectFailedIssue = &Issue{
		id: TransportConnectFailedId,
		mdMsg: `
# Could not reach the orchestrator!

The bridge failed to open its socket to the orchestrator.

## Things you can try:
- Check the ` + "`port`" + ` or ` + "`host:port`" + ` argument
- Raise ` + "`transport.dial_timeout`" + ` for slow networks`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Your ` + "`config.cue`" + ` contains syntax errors or invalid values.

## Things you can try:
- Show the effective configuration:
~~~
$ m3bridge config show
~~~
- Recreate a default file:
~~~
$ m3bridge config init
~~~`,
	}

	issues = map[Id]*Issue{
		engineHomeNotFoundIssue.Id():     engineHomeNotFoundIssue,
		runtimeUnsupportedIssue.Id():     runtimeUnsupportedIssue,
		argumentParseFailedIssue.Id():    argumentParseFailedIssue,
		settingsFileNotFoundIssue.Id():   settingsFileNotFoundIssue,
		invalidRequestIssue.Id():         invalidRequestIssue,
		realmSetupFailedIssue.Id():       realmSetupFailedIssue,
		transportConnectFailedIssue.Id(): transportConnectFailedIssue,
		configLoadFailedIssue.Id():       configLoadFailedIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	values := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		values = append(values, i)
	}
	slices.SortFunc(values, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return values
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}

// For maps an error from the taxonomy onto its catalog entry, or nil when
// the error has no dedicated guidance.
func For(err error) *Issue {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrArgumentParse):
		return argumentParseFailedIssue
	case errors.Is(err, ErrFileNotFound):
		return settingsFileNotFoundIssue
	case errors.Is(err, ErrValidation):
		return invalidRequestIssue
	case errors.Is(err, ErrRealmSetup):
		return realmSetupFailedIssue
	case errors.Is(err, ErrEngineHomeNotFound):
		return engineHomeNotFoundIssue
	case errors.Is(err, ErrRuntimeUnsupported):
		return runtimeUnsupportedIssue
	case errors.Is(err, ErrTransportConnect):
		return transportConnectFailedIssue
	case errors.Is(err, ErrConfigLoad):
		return configLoadFailedIssue
	default:
		return nil
	}
}
