// Package watcher re-runs the review pipeline when new recordings or
// email logs appear in the data directory.
package watcher

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay absorbs the burst of events spreadsheet software emits
// while saving one file, and gives the writer time to release its lock.
const debounceDelay = time.Second

// Watcher triggers an onChange callback for relevant filesystem events
// in one directory.
type Watcher struct {
	dir      string
	onChange func(ctx context.Context)
	log      *slog.Logger
}

func New(dir string, onChange func(ctx context.Context), log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{dir: dir, onChange: onChange, log: log}
}

// Run watches until ctx is cancelled. Create and write events on .mp3
// and .xlsx files schedule one (debounced) callback; everything else is
// ignored.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return err
	}
	w.log.Info("watching data directory", slog.String("dir", w.dir))

	var timer *time.Timer
	trigger := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.log.Info("data change detected",
				slog.String("file", event.Name), slog.String("op", event.Op.String()))
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceDelay, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", slog.Any("error", err))
		case <-trigger:
			w.onChange(ctx)
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	name := event.Name
	return strings.HasSuffix(name, ".mp3") || strings.HasSuffix(name, ".xlsx")
}
