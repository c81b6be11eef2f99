// SPDX-License-Identifier: MPL-2.0

package cli

// Long option names.
const (
	Help                  = "help"
	Version               = "version"
	ShowVersion           = "show-version"
	Quiet                 = "quiet"
	Debug                 = "debug"
	Errors                = "errors"
	Define                = "define"
	Offline               = "offline"
	BatchMode             = "batch-mode"
	NonRecursive          = "non-recursive"
	UpdateSnapshots       = "update-snapshots"
	NoSnapshotUpdates     = "no-snapshot-updates"
	ActivateProfiles      = "activate-profiles"
	File                  = "file"
	Settings              = "settings"
	GlobalSettings        = "global-settings"
	Toolchains            = "toolchains"
	GlobalToolchains      = "global-toolchains"
	FailFast              = "fail-fast"
	FailAtEnd             = "fail-at-end"
	FailNever             = "fail-never"
	StrictChecksums       = "strict-checksums"
	LaxChecksums          = "lax-checksums"
	UpdatePlugins         = "update-plugins"
	CheckPluginUpdates    = "check-plugin-updates"
	NoPluginUpdates       = "no-plugin-updates"
	NoPluginRegistry      = "no-plugin-registry"
	ResumeFrom            = "resume-from"
	Projects              = "projects"
	AlsoMake              = "also-make"
	AlsoMakeDependents    = "also-make-dependents"
	LogFile               = "log-file"
	Threads               = "threads"
	Builder               = "builder"
	EncryptMasterPassword = "encrypt-master-password"
	EncryptPassword       = "encrypt-password"
	LegacyLocalRepository = "legacy-local-repository"
	NoTransferProgress    = "no-transfer-progress"
)

type (
	// argKind describes how an option consumes a value.
	argKind int

	// Option is one entry of the grammar.
	Option struct {
		Long  string
		Short string
		Usage string
		kind  argKind
		// Deprecated options are accepted and only produce a warning.
		Deprecated bool
	}
)

const (
	noArg argKind = iota
	requiredArg
	optionalArg
)

// options is the grammar in usage order.
var options = []Option{
	{Long: AlsoMake, Short: "am", Usage: "If project list is specified, also build projects required by the list"},
	{Long: AlsoMakeDependents, Short: "amd", Usage: "If project list is specified, also build projects that depend on projects on the list"},
	{Long: BatchMode, Short: "B", Usage: "Run in non-interactive (batch) mode (disables output color)"},
	{Long: Builder, Short: "b", kind: requiredArg, Usage: "The id of the build strategy to use"},
	{Long: StrictChecksums, Short: "C", Usage: "Fail the build if checksums don't match"},
	{Long: LaxChecksums, Short: "c", Usage: "Warn if checksums don't match"},
	{Long: CheckPluginUpdates, Short: "cpu", Usage: "Ineffective, only kept for backward compatibility", Deprecated: true},
	{Long: Define, Short: "D", kind: requiredArg, Usage: "Define a system property"},
	{Long: Errors, Short: "e", Usage: "Produce execution error messages"},
	{Long: EncryptMasterPassword, Short: "emp", kind: optionalArg, Usage: "Encrypt master security password"},
	{Long: EncryptPassword, Short: "ep", kind: optionalArg, Usage: "Encrypt server password"},
	{Long: File, Short: "f", kind: requiredArg, Usage: "Force the use of an alternate POM file (or directory with pom.xml)"},
	{Long: FailAtEnd, Short: "fae", Usage: "Only fail the build afterwards; allow all non-impacted builds to continue"},
	{Long: FailFast, Short: "ff", Usage: "Stop at first failure in reactorized builds"},
	{Long: FailNever, Short: "fn", Usage: "NEVER fail the build, regardless of project result"},
	{Long: GlobalSettings, Short: "gs", kind: requiredArg, Usage: "Alternate path for the global settings file"},
	{Long: GlobalToolchains, Short: "gt", kind: requiredArg, Usage: "Alternate path for the global toolchains file"},
	{Long: Help, Short: "h", Usage: "Display help information"},
	{Long: LogFile, Short: "l", kind: requiredArg, Usage: "Log file where all build output will go (disables output color)"},
	{Long: LegacyLocalRepository, Short: "llr", Usage: "Use the legacy local repository layout"},
	{Long: NonRecursive, Short: "N", Usage: "Do not recurse into sub-projects"},
	{Long: NoPluginRegistry, Short: "npr", Usage: "Ineffective, only kept for backward compatibility", Deprecated: true},
	{Long: NoPluginUpdates, Short: "npu", Usage: "Ineffective, only kept for backward compatibility", Deprecated: true},
	{Long: NoSnapshotUpdates, Short: "nsu", Usage: "Suppress SNAPSHOT updates"},
	{Long: NoTransferProgress, Short: "ntp", Usage: "Do not display transfer progress when downloading or uploading"},
	{Long: Offline, Short: "o", Usage: "Work offline"},
	{Long: ActivateProfiles, Short: "P", kind: requiredArg, Usage: "Comma-delimited list of profiles to activate"},
	{Long: Projects, Short: "pl", kind: requiredArg, Usage: "Comma-delimited list of specified reactor projects to build instead of all projects"},
	{Long: Quiet, Short: "q", Usage: "Quiet output - only show errors"},
	{Long: ResumeFrom, Short: "rf", kind: requiredArg, Usage: "Resume reactor from specified project"},
	{Long: Settings, Short: "s", kind: requiredArg, Usage: "Alternate path for the user settings file"},
	{Long: Threads, Short: "T", kind: requiredArg, Usage: "Thread count, for instance 4 or 1C where C is core multiplied"},
	{Long: Toolchains, Short: "t", kind: requiredArg, Usage: "Alternate path for the user toolchains file"},
	{Long: UpdateSnapshots, Short: "U", Usage: "Forces a check for missing releases and updated snapshots on remote repositories"},
	{Long: UpdatePlugins, Short: "up", Usage: "Ineffective, only kept for backward compatibility", Deprecated: true},
	{Long: ShowVersion, Short: "V", Usage: "Display version information WITHOUT stopping build"},
	{Long: Version, Short: "v", Usage: "Display version information"},
	{Long: Debug, Short: "X", Usage: "Produce execution debug output"},
}

// Options returns the grammar in usage order.
func Options() []Option {
	out := make([]Option, len(options))
	copy(out, options)
	return out
}

// Lookup returns the option with the given long name.
func Lookup(long string) (Option, bool) {
	for _, o := range options {
		if o.Long == long {
			return o, true
		}
	}
	return Option{}, false
}
