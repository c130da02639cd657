package conf

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/svc"
)

const watchDebounce = 300 * time.Millisecond

// CompanyWatcher calls reload after the watched file settles.
// The parent directory is watched so editors that replace the file are seen too
type CompanyWatcher struct {
	Ctx     context.Context    // Service Context
	cancel  context.CancelFunc // Service Context CancelFunc
	mu      sync.Mutex         // guards state
	state   int                // internal service state
	done    chan error         // Shutdown Error Channel
	path    string
	watcher *fsnotify.Watcher
	reload  func() error
	logger  *zap.Logger
}

// Ensure CompanyWatcher implements svc.Service
var _ svc.Service = (*CompanyWatcher)(nil)

func NewCompanyWatcher(parentCtx context.Context, path string, reload func() error, logger *zap.Logger) (*CompanyWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	w := &CompanyWatcher{
		Ctx:     svcCtx,
		cancel:  svcCancel,
		state:   svc.StateREADY,
		done:    make(chan error, 1),
		path:    filepath.Clean(path),
		watcher: fw,
		reload:  reload,
		logger:  logger.Named("company-watcher"),
	}
	// a watcher that never starts is released with its context
	context.AfterFunc(svcCtx, w.releaseUnstarted)
	return w, nil
}

func (w *CompanyWatcher) releaseUnstarted() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == svc.StateREADY {
		w.closeWatcher()
		w.state = svc.StateSTOPPED
	}
}

// closeWatcher is called with mu held, or from run after the state left READY
func (w *CompanyWatcher) closeWatcher() {
	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("failed to close watcher", zap.Error(err))
	}
}

func (w *CompanyWatcher) Name() string {
	return "CompanyWatcher"
}

func (w *CompanyWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == svc.StateRUNNING {
		return fmt.Errorf("already started")
	}
	if w.state != svc.StateREADY {
		return fmt.Errorf("cannot start. not ready")
	}
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.closeWatcher()
		w.state = svc.StateSTOPPED
		w.cancel()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.state = svc.StateRUNNING
	w.logger.Info("watching", zap.String("path", w.path))
	go w.run()
	return nil
}

func (w *CompanyWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != svc.StateRUNNING {
		w.logger.Error("cannot stop. not running")
		return
	}
	w.cancel()
	w.state = svc.StateSTOPPED
	w.logger.Info("service stopped")
}

func (w *CompanyWatcher) Done() <-chan error {
	return w.done
}

func (w *CompanyWatcher) run() {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
		w.closeWatcher()
		w.done <- nil
	}()

	for {
		select {
		case <-w.Ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("change detected", zap.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				fire = timer.C
			} else {
				timer.Reset(watchDebounce)
			}
		case <-fire:
			if err := w.reload(); err != nil {
				w.logger.Error("reload failed. keeping current profile", zap.Error(err))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}
