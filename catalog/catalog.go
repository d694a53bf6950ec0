// Package catalog holds the static master data of the plant: operators,
// chemical articles, raw materials, customers and info labels.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fewr/model"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

type User struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
	PIN  string `yaml:"pin"`
}

type Catalog struct {
	Users          []User                  `yaml:"users"`
	StatsOperators []string                `yaml:"statsOperators"`
	WorkOperators  []string                `yaml:"workOperators"`
	Chemicals      []model.ChemicalArticle `yaml:"chemicals"`
	RawMaterials   []string                `yaml:"rawMaterials"`
	RawOrigins     []string                `yaml:"rawOrigins"`
	BulkCustomers  []string                `yaml:"bulkCustomers"`
	InfoLabels     []string                `yaml:"infoLabels"`
}

// Load reads the catalog at path, or the built-in one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(embedded)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and checks a catalog document. Unknown keys are rejected.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	for i := range c.Users {
		c.Users[i].Code = strings.ToUpper(strings.TrimSpace(c.Users[i].Code))
	}
	return &c, nil
}

func (c *Catalog) check() error {
	if len(c.Users) == 0 {
		return fmt.Errorf("catalog has no users")
	}
	seen := make(map[string]bool, len(c.Users))
	for _, u := range c.Users {
		code := strings.ToUpper(strings.TrimSpace(u.Code))
		if code == "" || u.PIN == "" {
			return fmt.Errorf("catalog user %q needs a code and a pin", u.Name)
		}
		if seen[code] {
			return fmt.Errorf("catalog user %s is listed twice", code)
		}
		seen[code] = true
	}
	ids := make(map[string]bool, len(c.Chemicals))
	for _, a := range c.Chemicals {
		if a.ID == "" || ids[a.ID] {
			return fmt.Errorf("catalog chemical %q has an empty or duplicate id", a.Name)
		}
		ids[a.ID] = true
	}
	return nil
}

// Store holds the catalog in use. Readers always see a complete catalog.
type Store struct {
	mu  sync.RWMutex
	cur *Catalog
}

func NewStore(c *Catalog) *Store { return &Store{cur: c} }

func (s *Store) Get() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

func (s *Store) Set(c *Catalog) {
	s.mu.Lock()
	s.cur = c
	s.mu.Unlock()
}

// Watch reloads the catalog at path whenever it changes on disk and calls
// onReload with the new catalog. A file that fails to parse is logged and
// the previous catalog stays in use. Watch blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, path string, logger *zap.Logger, onReload func(*Catalog) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start catalog watcher: %w", err)
	}
	defer w.Close()

	// Editors replace files on save, so the directory is watched.
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Info("watching catalog", zap.String("path", abs))

	const debounce = 300 * time.Millisecond
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("catalog watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			c, err := Load(abs)
			if err != nil {
				logger.Error("catalog reload failed, keeping previous catalog", zap.Error(err))
				continue
			}
			if onReload != nil {
				if err := onReload(c); err != nil {
					logger.Error("catalog reload hook failed", zap.Error(err))
					continue
				}
			}
			s.Set(c)
			logger.Info("catalog reloaded", zap.Int("users", len(c.Users)), zap.Int("chemicals", len(c.Chemicals)))
		}
	}
}
