package hrtf

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/tphakala/go-hrtf/internal/mhr"
)

// Config supplies per-device option values. Keys used by this package
// are "hrtf-paths", "default-hrtf" and "hrtf-size".
type Config interface {
	// Str returns a string option for the device, and whether it is set.
	Str(device, key string) (string, bool)

	// Uint returns an unsigned option for the device, and whether it
	// is set.
	Uint(device, key string) (uint, bool)
}

// Resources supplies embedded data blobs by identifier. A nil return
// means the resource does not exist.
type Resources interface {
	Get(id int) []byte
}

// SearchFunc locates data files with the given extension under a search
// path. Relative paths name a subdirectory of the system data
// directories; absolute paths are searched directly.
type SearchFunc func(ext, path string) []string

// BuiltInResourceID identifies the embedded default data set offered to
// the Resources provider.
const BuiltInResourceID = 1

// builtInName is the display name the embedded data set enumerates
// under.
const builtInName = "Built-In HRTF"

// defaultSubDir is the data-directory subpath searched when no paths
// are configured.
const defaultSubDir = "openal/hrtf"

// ManagerConfig carries the collaborators of a Manager. Every field is
// optional: a nil Config means no options are set, a nil Search falls
// back to searching the system data directories, a nil Resources means
// no embedded data set and a nil Logger means slog.Default.
type ManagerConfig struct {
	Config    Config
	Search    SearchFunc
	Resources Resources
	Logger    *slog.Logger
}

// Manager enumerates available HRTF data sets and caches loaded stores
// per filename and sample rate.
type Manager struct {
	cfg       Config
	search    SearchFunc
	resources Resources
	log       *slog.Logger

	enumMu  sync.Mutex
	entries []enumEntry

	loadMu sync.Mutex
	loaded []loadedEntry
}

type enumEntry struct {
	dispName string
	fileName string
}

// loadedEntry is one cache slot; the slice is kept sorted by filename
// so lookups can scan a lower-bound run.
type loadedEntry struct {
	fileName string
	store    *Store
}

// NewManager builds a manager around the given collaborators.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Search == nil {
		cfg.Search = SearchDataFiles
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		cfg:       cfg.Config,
		search:    cfg.Search,
		resources: cfg.Resources,
		log:       cfg.Logger,
	}
}

func (m *Manager) cfgStr(device, key string) (string, bool) {
	if m.cfg == nil {
		return "", false
	}
	return m.cfg.Str(device, key)
}

func (m *Manager) cfgUint(device, key string) (uint, bool) {
	if m.cfg == nil {
		return 0, false
	}
	return m.cfg.Uint(device, key)
}

// Enumerate rebuilds the list of available data sets for a device and
// returns their display names in presentation order. When the
// "hrtf-paths" option is unset, is empty or ends with a separator, the
// default locations are searched as well: the data-directory subpath
// and the embedded resource. A "default-hrtf" option rotates the named
// entry to the front.
func (m *Manager) Enumerate(device string) []string {
	m.enumMu.Lock()
	defer m.enumMu.Unlock()

	m.entries = m.entries[:0]

	usedefaults := true
	if pathlist, ok := m.cfgStr(device, "hrtf-paths"); ok {
		for pathlist != "" {
			pathlist = strings.TrimLeft(pathlist, ", \t\r\n\v\f")
			if pathlist == "" {
				break
			}
			var entry string
			if i := strings.IndexByte(pathlist, ','); i >= 0 {
				entry, pathlist = pathlist[:i], pathlist[i+1:]
			} else {
				entry, pathlist = pathlist, ""
				usedefaults = false
			}
			entry = strings.TrimRight(entry, " \t\r\n\v\f")
			if entry == "" {
				continue
			}
			for _, fname := range m.search(".mhr", entry) {
				m.addFileEntry(fname)
			}
		}
	}

	if usedefaults {
		for _, fname := range m.search(".mhr", defaultSubDir) {
			m.addFileEntry(fname)
		}
		if m.resources != nil && len(m.resources.Get(BuiltInResourceID)) > 0 {
			m.addBuiltInEntry(builtInName, BuiltInResourceID)
		}
	}

	list := make([]string, len(m.entries))
	for i, e := range m.entries {
		list[i] = e.dispName
	}

	if defhrtf, ok := m.cfgStr(device, "default-hrtf"); ok {
		i := 0
		for i < len(list) && list[i] != defhrtf {
			i++
		}
		if i == len(list) {
			m.log.Warn("Failed to find default HRTF", "name", defhrtf)
		} else if i > 0 {
			name := list[i]
			copy(list[1:i+1], list[:i])
			list[0] = name
		}
	}
	return list
}

// addFileEntry records a discovered file, skipping filenames already
// enumerated and deduplicating display names with a " #N" suffix.
func (m *Manager) addFileEntry(fileName string) {
	for _, e := range m.entries {
		if e.fileName == fileName {
			m.log.Debug("Skipping duplicate file entry", "file", fileName)
			return
		}
	}

	namepos := strings.LastIndexAny(fileName, `/\`) + 1
	extpos := strings.LastIndexByte(fileName, '.')
	basename := fileName[namepos:]
	if extpos > namepos {
		basename = fileName[namepos:extpos]
	}
	m.addEntry(basename, fileName)
}

// addBuiltInEntry records an embedded resource under a synthetic
// filename encoding its identifier.
func (m *Manager) addBuiltInEntry(dispName string, resID int) {
	fileName := "!" + strconv.Itoa(resID) + "_" + dispName
	for _, e := range m.entries {
		if e.fileName == fileName {
			m.log.Debug("Skipping duplicate file entry", "file", fileName)
			return
		}
	}
	m.addEntry(dispName, fileName)
}

func (m *Manager) addEntry(basename, fileName string) {
	newname := basename
	count := 1
	for m.hasDispName(newname) {
		count++
		newname = basename + " #" + strconv.Itoa(count)
	}
	m.entries = append(m.entries, enumEntry{dispName: newname, fileName: fileName})
	m.log.Debug("Adding file entry", "name", newname, "file", fileName)
}

func (m *Manager) hasDispName(name string) bool {
	for _, e := range m.entries {
		if e.dispName == name {
			return true
		}
	}
	return false
}

// parseResourceName extracts the resource identifier from a synthetic
// "!<id>_<name>" filename.
func parseResourceName(fileName string) (int, bool) {
	if !strings.HasPrefix(fileName, "!") {
		return 0, false
	}
	rest := fileName[1:]
	sep := strings.IndexByte(rest, '_')
	if sep <= 0 {
		return 0, false
	}
	id, err := strconv.Atoi(rest[:sep])
	if err != nil {
		return 0, false
	}
	return id, true
}

// GetLoaded returns a referenced store for an enumerated display name,
// tuned to devrate. A cached store matching the name's file and the
// rate is shared; otherwise the file (or embedded resource) is loaded,
// retuned and published. Callers own one reference and release it with
// DecRef.
func (m *Manager) GetLoaded(name, device string, devrate uint32) (*Store, error) {
	m.enumMu.Lock()
	defer m.enumMu.Unlock()

	fileName := ""
	for _, e := range m.entries {
		if e.dispName == name {
			fileName = e.fileName
			break
		}
	}
	if fileName == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownName, name)
	}

	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	pos := sort.Search(len(m.loaded), func(i int) bool {
		return m.loaded[i].fileName >= fileName
	})
	for i := pos; i < len(m.loaded) && m.loaded[i].fileName == fileName; i++ {
		if st := m.loaded[i].store; st.sampleRate == devrate {
			st.IncRef()
			return st, nil
		}
	}

	store, err := m.loadStore(fileName, device, devrate)
	if err != nil {
		m.log.Error("Failed to load HRTF", "file", fileName, "error", err)
		return nil, err
	}

	m.loaded = append(m.loaded, loadedEntry{})
	copy(m.loaded[pos+1:], m.loaded[pos:])
	m.loaded[pos] = loadedEntry{fileName: fileName, store: store}
	return store, nil
}

// loadStore reads, parses and conditions one data set. The returned
// store carries the caller's reference.
func (m *Manager) loadStore(fileName, device string, devrate uint32) (*Store, error) {
	m.log.Debug("Loading HRTF", "file", fileName)

	var data *mhr.Data
	if resID, ok := parseResourceName(fileName); ok {
		var res []byte
		if m.resources != nil {
			res = m.resources.Get(resID)
		}
		if len(res) == 0 {
			return nil, fmt.Errorf("%w: %d", ErrResourceMissing, resID)
		}
		d, err := mhr.Load(bytes.NewReader(res))
		if err != nil {
			return nil, err
		}
		data = d
	} else {
		f, err := os.Open(fileName)
		if err != nil {
			return nil, err
		}
		d, err := mhr.Load(bufio.NewReader(f))
		f.Close()
		if err != nil {
			return nil, err
		}
		data = d
	}

	store := newStore(data, m.log)
	store.mgr = m

	if store.sampleRate != devrate {
		m.log.Debug("Resampling HRTF",
			"file", fileName, "from", store.sampleRate, "to", devrate)
		if err := store.normalize(devrate); err != nil {
			return nil, err
		}
	}
	if size, ok := m.cfgUint(device, "hrtf-size"); ok {
		if size > 0 && uint32(size) < store.irSize {
			store.irSize = max(uint32(size), MinIRSize)
			store.irSize -= store.irSize % ModIRSize
		}
	}

	m.log.Info("Loaded HRTF",
		"file", fileName, "rate", store.sampleRate, "samples", store.irSize)
	return store, nil
}

// sweepLoaded drops every cached entry whose store is unreferenced.
func (m *Manager) sweepLoaded() {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	kept := m.loaded[:0]
	for _, e := range m.loaded {
		if e.store.ref.Load() == 0 {
			m.log.Debug("Unloading unused HRTF", "file", e.fileName)
			continue
		}
		kept = append(kept, e)
	}
	clear(m.loaded[len(kept):])
	m.loaded = kept
}

// SearchDataFiles is the default data-file locator. An absolute path is
// globbed directly; a relative path names a subdirectory searched under
// the user config directory and the shared system data directories.
func SearchDataFiles(ext, path string) []string {
	var dirs []string
	if filepath.IsAbs(path) {
		dirs = []string{path}
	} else {
		if confdir, err := os.UserConfigDir(); err == nil {
			dirs = append(dirs, filepath.Join(confdir, path))
		}
		dirs = append(dirs,
			filepath.Join("/usr/local/share", path),
			filepath.Join("/usr/share", path),
		)
	}

	var found []string
	for _, dir := range dirs {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			continue
		}
		sort.Strings(matches)
		found = append(found, matches...)
	}
	return found
}
