package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/vkframe/engine/assets/loaders"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

// AssetManager indexes the asset directory, loads files through the loader
// registered for their type and, when watching, reports modified files.
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	// Absolute paths of files written since the last PollChanges.
	changed chan string
}

func NewAssetManager() *AssetManager {
	am := &AssetManager{
		assets:  make(map[string]AssetInfo),
		loaders: make(map[metadata.ResourceType]Loader),
		changed: make(chan string, 64),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	// Register loaders
	am.registerLoader(metadata.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(metadata.ResourceTypeBinary, &loaders.BinaryLoader{})
	return am
}

// Initialize indexes every known file under assetsDir and, with watch set,
// starts following changes to it.
func (am *AssetManager) Initialize(assetsDir string, watch bool) error {
	root, err := filepath.Abs(assetsDir)
	if err != nil {
		return err
	}
	am.root = root

	if err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			am.handleFileEvent(path)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("index assets in %s: %w", root, err)
	}
	core.LogDebug("Indexed %d assets under %s.", am.Count(), root)

	if !watch {
		close(am.stopped)
		return nil
	}

	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		close(am.stopped)
		return err
	}
	am.fsnotify = fsWatch
	if err := am.watchRecursive(root); err != nil {
		fsWatch.Close()
		close(am.stopped)
		return err
	}
	go am.start()
	core.LogInfo("Watching %s for asset changes.", root)
	return nil
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadAsset reads path with the loader matching its extension. Relative
// paths are resolved against the asset root.
func (am *AssetManager) LoadAsset(path string) (*metadata.Resource, error) {
	path = am.Resolve(path)
	assetType := metadata.ResourceTypeOf(path)
	loader, ok := am.loaders[assetType]
	if !ok {
		return nil, fmt.Errorf("no loader registered for %s (%s)", path, assetType)
	}

	res, err := loader.Load(path)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	am.assets[path] = AssetInfo{Path: path, Type: assetType, LastLoaded: time.Now()}
	am.mutex.Unlock()
	return res, nil
}

// LoadShaders loads a vertex and a fragment SPIR-V blob.
func (am *AssetManager) LoadShaders(vertexPath, fragmentPath string) (vertex, fragment []byte, err error) {
	vert, err := am.LoadAsset(vertexPath)
	if err != nil {
		return nil, nil, err
	}
	frag, err := am.LoadAsset(fragmentPath)
	if err != nil {
		return nil, nil, err
	}
	if vert.Type != metadata.ResourceTypeShader || frag.Type != metadata.ResourceTypeShader {
		return nil, nil, fmt.Errorf("%w: shaders must be .spv files", core.ErrInvalidShader)
	}
	return vert.Data, frag.Data, nil
}

func (am *AssetManager) Get(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[am.Resolve(path)]
	return info, ok
}

func (am *AssetManager) Count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// PollChanges returns the files modified since the last call, each once.
// It never blocks.
func (am *AssetManager) PollChanges() []string {
	var out []string
	seen := map[string]bool{}
	for {
		select {
		case path := <-am.changed:
			if !seen[path] {
				seen[path] = true
				out = append(out, path)
			}
		default:
			return out
		}
	}
}

// Shutdown stops the watcher. It is safe to call more than once.
func (am *AssetManager) Shutdown() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	if am.fsnotify == nil {
		return nil
	}
	close(am.done)
	<-am.stopped
	return nil
}

// Resolve turns path into the absolute form the index and PollChanges use.
func (am *AssetManager) Resolve(path string) string {
	if filepath.IsAbs(path) || am.root == "" {
		return filepath.Clean(path)
	}
	if _, err := os.Stat(path); err == nil {
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
	}
	return filepath.Join(am.root, path)
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			if e.Op&fsnotify.Create != 0 {
				if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
					if err := am.watchRecursive(e.Name); err != nil {
						core.LogWarn("failed to watch %s: %s", e.Name, err)
					}
					continue
				}
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 && am.handleFileEvent(e.Name) {
				select {
				case am.changed <- e.Name:
				default:
					core.LogWarn("asset change queue full, dropping %s", e.Name)
				}
			}
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			if err := am.fsnotify.Close(); err != nil {
				core.LogWarn("closing asset watcher: %s", err)
			}
			return
		}
	}
}

// watchRecursive adds path and every directory below it to the watch list.
func (am *AssetManager) watchRecursive(path string) error {
	if am.fsnotify == nil {
		return errors.New("asset watcher not running")
	}
	return filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		return nil
	})
}

// handleFileEvent indexes path and reports whether it is a known asset.
func (am *AssetManager) handleFileEvent(path string) bool {
	assetType := metadata.ResourceTypeOf(path)
	if assetType == metadata.ResourceTypeNone {
		return false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	info := am.assets[path]
	info.Path = path
	info.Type = assetType
	am.assets[path] = info
	return true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, path)
}
