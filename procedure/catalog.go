package procedure

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ha1tch/procdb/internal/xerrors"
	"github.com/ha1tch/procdb/internal/xlog"
	"github.com/ha1tch/procdb/wire"
)

// Signature declares the expected name and ordered parameter type list
// for a stored procedure, as published by a catalog file. This is
// signature validation, not SQL parsing or database schema management:
// it lets a client reject a malformed call before it ever reaches the
// wire, against a catalog the operator can update without restarting
// the client process.
type Signature struct {
	Name       string          `json:"name"`
	ParamTypes []wire.ParamType `json:"paramTypes"`
}

type catalogFile struct {
	Procedures []Signature `json:"procedures"`
}

// Catalog is a hot-reloading registry of procedure signatures loaded
// from a JSON file and kept current via fsnotify.
type Catalog struct {
	mu         sync.RWMutex
	signatures map[string]Signature

	path      string
	logger    *xlog.Logger
	fsWatcher *fsnotify.Watcher

	debounceDelay time.Duration
	onReload      func(count int)
	onError       func(err error)

	stopCh chan struct{}
	doneCh chan struct{}
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithOnReload sets a callback invoked after each successful reload with
// the number of signatures loaded.
func WithOnReload(fn func(count int)) CatalogOption {
	return func(c *Catalog) { c.onReload = fn }
}

// WithOnError sets a callback invoked when a reload fails; the stale
// catalog contents are kept.
func WithOnError(fn func(err error)) CatalogOption {
	return func(c *Catalog) { c.onError = fn }
}

// NewCatalog loads path once and starts watching its parent directory for
// changes, debounced by 100ms. The returned Catalog must be closed with
// Close when no longer needed.
func NewCatalog(path string, logger *xlog.Logger, opts ...CatalogOption) (*Catalog, error) {
	if logger == nil {
		logger = xlog.Discard()
	}
	c := &Catalog{
		signatures:    make(map[string]Signature),
		path:          path,
		logger:        logger,
		debounceDelay: 100 * time.Millisecond,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.reload(); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.ErrCodeInternal, "creating catalog watcher").Build()
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, xerrors.Wrap(err, xerrors.ErrCodeInternal, "watching catalog directory").Build()
	}
	c.fsWatcher = fsw

	go c.run()
	return c, nil
}

func (c *Catalog) reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return xerrors.Wrap(err, xerrors.ErrCodeInternal, "reading procedure catalog").Build()
	}
	var parsed catalogFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return xerrors.Wrap(err, xerrors.ErrCodeInternal, "parsing procedure catalog").Build()
	}
	next := make(map[string]Signature, len(parsed.Procedures))
	for _, sig := range parsed.Procedures {
		next[sig.Name] = sig
	}
	c.mu.Lock()
	c.signatures = next
	c.mu.Unlock()
	if c.onReload != nil {
		c.onReload(len(next))
	}
	return nil
}

func (c *Catalog) run() {
	defer close(c.doneCh)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-c.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-c.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(c.path) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(c.debounceDelay)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(c.debounceDelay)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			if err := c.reload(); err != nil {
				c.logger.Application().Error("catalog reload failed", err, "path", c.path)
				if c.onError != nil {
					c.onError(err)
				}
			}
		case err, ok := <-c.fsWatcher.Errors:
			if !ok {
				return
			}
			c.logger.Application().Error("catalog watcher error", err)
		}
	}
}

// Lookup returns the signature registered under name, if any.
func (c *Catalog) Lookup(name string) (Signature, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sig, ok := c.signatures[name]
	return sig, ok
}

// Validate checks a fully-bound Procedure's shape against the catalog's
// declared signature for its name. A procedure whose name is absent from
// the catalog is allowed through unchecked (the catalog is advisory).
func (c *Catalog) Validate(p *Procedure) error {
	sig, ok := c.Lookup(p.Name())
	if !ok {
		return nil
	}
	if len(sig.ParamTypes) != p.Arity() {
		return xerrors.Newf(xerrors.ErrCodeMisuse,
			"procedure %q expects %d parameters, got %d", p.Name(), len(sig.ParamTypes), p.Arity()).Build()
	}
	values := p.Params()
	for i, want := range sig.ParamTypes {
		if values[i].Type != want {
			return xerrors.Newf(xerrors.ErrCodeMisuse,
				"procedure %q parameter %d: expected %s, got %s", p.Name(), i, want, values[i].Type).Build()
		}
	}
	return nil
}

// Close stops the watcher goroutine and releases the underlying fsnotify
// watcher.
func (c *Catalog) Close() error {
	close(c.stopCh)
	<-c.doneCh
	return c.fsWatcher.Close()
}
