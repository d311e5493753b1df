package decisions

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches the local decisions snapshot and invokes a callback
// when it changes, debounced so editors that write in several passes trigger
// one refetch.
type FileWatcher struct {
	path         string
	watcher      *fsnotify.Watcher
	onChange     func()
	debounceTime time.Duration

	mu      sync.Mutex
	pending bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFileWatcher creates a watcher for the given snapshot path.
func NewFileWatcher(path string, onChange func()) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &FileWatcher{
		path:         filepath.Clean(path),
		watcher:      watcher,
		onChange:     onChange,
		debounceTime: 500 * time.Millisecond,
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// Start begins watching. The parent directory is watched rather than the file
// itself so atomic replace-by-rename (how the backend writes decisions.json)
// is still observed.
func (fw *FileWatcher) Start() error {
	dir := filepath.Dir(fw.path)
	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	fw.wg.Add(1)
	go fw.loop()
	return nil
}

// Stop stops watching and waits for the event loop to exit.
func (fw *FileWatcher) Stop() {
	fw.cancel()
	fw.watcher.Close()
	fw.wg.Wait()
}

func (fw *FileWatcher) loop() {
	defer fw.wg.Done()

	timer := time.NewTimer(fw.debounceTime)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-fw.ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			fw.mu.Lock()
			if !fw.pending {
				fw.pending = true
				timer.Reset(fw.debounceTime)
			}
			fw.mu.Unlock()
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("decisions watcher error: %v", err)
		case <-timer.C:
			fw.mu.Lock()
			fw.pending = false
			fw.mu.Unlock()
			if fw.onChange != nil {
				fw.onChange()
			}
		}
	}
}
