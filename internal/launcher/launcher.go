// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/invowk/m3bridge/internal/issue"
	"github.com/invowk/m3bridge/internal/props"
	"github.com/invowk/m3bridge/internal/realm"
	"github.com/invowk/m3bridge/pkg/types"
)

const (
	// ExtRealmID is the realm holding maven.ext.class.path archives.
	ExtRealmID = "engine.ext"
	// PropExtClassPath lists extension archives, separated by the OS path
	// list separator.
	PropExtClassPath = "maven.ext.class.path"
)

// ErrNotInitialized is returned by Launch and AppendLocations before
// Initialize succeeded.
var ErrNotInitialized = errors.New("launcher is not initialized")

type (
	// Entry is the component the launcher runs from the main realm.
	Entry interface {
		Main(ctx context.Context, args []string) (types.ExitCode, error)
	}

	// Launcher owns the realm tree of one process.
	Launcher struct {
		// Properties are the runtime properties. The realm configuration's
		// set entries are written here.
		Properties *props.Properties
		// Context is swapped to the main realm while the entry runs.
		Context *realm.ContextHolder
		// TransportArchive is loaded into the transport realm.
		TransportArchive string
		// MinRuntime is the lowest accepted hosting runtime version.
		MinRuntime string
		Logger     *slog.Logger

		mu        sync.Mutex
		world     *realm.World
		main      *realm.Realm
		entryRole string
		baseline  int
	}
)

func (l *Launcher) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

// Initialize checks the hosting runtime, then builds the realms declared by
// src plus the transport realm and, when maven.ext.class.path is set, the
// extension realm.
func (l *Launcher) Initialize(ctx context.Context, src Source) (*realm.World, error) {
	if l.Properties == nil {
		l.Properties = props.New()
	}
	if l.Context == nil {
		l.Context = &realm.ContextHolder{}
	}
	if err := CheckRuntime(l.Properties.Value(PropRuntimeVersion), l.MinRuntime); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, err := realm.ParseConfig(src.Data, src.Name)
	if err != nil {
		return nil, err
	}
	w := realm.NewWorld()
	mainRealm, err := cfg.Apply(w, l.Properties)
	if err != nil {
		return nil, err
	}

	transport, err := w.NewRealm(realm.TransportID, w.Root())
	if err != nil {
		return nil, err
	}
	if l.TransportArchive != "" {
		if _, err := transport.AddLocation(l.TransportArchive); err != nil {
			return nil, &issue.RealmSetupError{Realm: realm.TransportID, Op: "load transport archive", Cause: err}
		}
	}

	if ext := l.Properties.Value(PropExtClassPath); ext != "" {
		if err := l.extensionRealm(w, mainRealm, ext); err != nil {
			return nil, err
		}
	}

	l.mu.Lock()
	l.world = w
	l.main = mainRealm
	l.entryRole = cfg.Main.Entry
	l.baseline = len(mainRealm.Locations())
	l.mu.Unlock()

	l.logger().Debug("realms initialized", "source", src.Name, "main", mainRealm.ID(), "realms", len(w.Realms()))
	return w, nil
}

func (l *Launcher) extensionRealm(w *realm.World, parent *realm.Realm, classPath string) error {
	ext, err := w.NewRealm(ExtRealmID, parent)
	if err != nil {
		return err
	}
	base := l.Properties.Value("user.dir")
	for entry := range strings.SplitSeq(classPath, string(os.PathListSeparator)) {
		if entry = strings.TrimSpace(entry); entry == "" {
			continue
		}
		path := types.FilesystemPath(entry).Resolve(base)
		if _, err := ext.AddLocation(path); err != nil {
			return &issue.RealmSetupError{Realm: ExtRealmID, Op: "load " + entry, Cause: err}
		}
		l.logger().Debug("included extension", "path", path)
	}
	return nil
}

// World returns the realm tree, or nil before Initialize.
func (l *Launcher) World() *realm.World {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.world
}

// MainRealm returns the realm the entry runs in, or nil before Initialize.
func (l *Launcher) MainRealm() *realm.Realm {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.main
}

// EntryRole returns the role Launch looks up in the main realm.
func (l *Launcher) EntryRole() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entryRole
}

// Launch looks up the entry in the main realm and runs it with the main
// realm as the current realm. The previous realm is restored on return.
func (l *Launcher) Launch(ctx context.Context, args []string) (types.ExitCode, error) {
	l.mu.Lock()
	mainRealm, role := l.main, l.entryRole
	l.mu.Unlock()
	if mainRealm == nil {
		return types.ExitRealmSetup, &issue.RealmSetupError{Op: "launch", Cause: ErrNotInitialized}
	}

	entry, err := realm.LookupAs[Entry](mainRealm, role)
	if err != nil {
		return types.ExitRealmSetup, err
	}

	restore := l.Context.Enter(mainRealm)
	defer restore()
	return entry.Main(ctx, args)
}

// AppendLocations adds locations to the realm named realmID. Locations
// already present are skipped; the number of new ones is returned.
func (l *Launcher) AppendLocations(realmID string, locations ...string) (int, error) {
	w := l.World()
	if w == nil {
		return 0, &issue.RealmSetupError{Realm: realmID, Op: "append locations", Cause: ErrNotInitialized}
	}
	r, err := w.Realm(realmID)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, loc := range locations {
		ok, err := r.AddLocation(loc)
		if err != nil {
			return added, &issue.RealmSetupError{Realm: realmID, Op: "append " + loc, Cause: err}
		}
		if ok {
			added++
		}
	}
	l.logger().Debug("appended realm locations", "realm", realmID, "requested", len(locations), "added", added)
	return added, nil
}

// Extensions returns the filesystem paths of the extension realm followed
// by the locations appended to the main realm after Initialize.
func (l *Launcher) Extensions() []string {
	l.mu.Lock()
	w, mainRealm, baseline := l.world, l.main, l.baseline
	l.mu.Unlock()
	if w == nil {
		return nil
	}

	var locs []string
	if ext, err := w.Realm(ExtRealmID); err == nil {
		locs = append(locs, ext.Locations()...)
	}
	if appended := mainRealm.Locations(); len(appended) > baseline {
		locs = append(locs, appended[baseline:]...)
	}

	out := make([]string, 0, len(locs))
	for _, loc := range locs {
		p := realm.LocationPath(loc)
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}
