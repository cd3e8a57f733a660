package shader

import (
	"context"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates a Provider's programs when their files change on disk,
// so a corrected shader is picked up without restarting.
type Watcher struct {
	watcher  *fsnotify.Watcher
	provider Provider
	done     chan struct{}
	once     *sync.Once
	onChange func(name string)
}

// Watch starts watching the provider's directory until ctx is done or Close is called.
//
// Parameters:
//   - ctx: bounds the lifetime of the watch goroutine
//   - p: the provider to invalidate; must have a directory
//   - onChange: optional callback invoked after a program is invalidated
//
// Returns:
//   - *Watcher: the running watcher
//   - error: an error if the directory cannot be watched
func Watch(ctx context.Context, p Provider, onChange func(name string)) (*Watcher, error) {
	if p.Dir() == "" {
		return nil, fmt.Errorf("shader: provider has no directory to watch")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create shader watcher: %w", err)
	}
	if err := fw.Add(p.Dir()); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", p.Dir(), err)
	}

	w := &Watcher{
		watcher:  fw,
		provider: p,
		done:     make(chan struct{}),
		once:     &sync.Once{},
		onChange: onChange,
	}
	go w.run(ctx)
	return w, nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			name, ok := w.provider.NameForFile(event.Name)
			if !ok {
				continue
			}
			w.provider.Invalidate(name)
			common.Logger().Info("shader changed", "program", name, "op", event.Op.String())
			if w.onChange != nil {
				w.onChange(name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			common.Logger().Warn("shader watcher error", "err", err)
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
//
// Returns:
//   - error: the error from closing the underlying watcher
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		err = w.watcher.Close()
	})
	<-w.done
	return err
}
