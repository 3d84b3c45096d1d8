// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package traffic

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// built-in detector token lists; a TokenDefsPath file overrides them
var (
	dfltScannerTokens = []string{
		"wp-login", "xmlrpc", ".env", "phpmyadmin", "admin.php",
		"upload", "fileupload", "multipart", "blob", "/s3", "storage",
		"import", "batch", "drive", "v1/upload", "v2/upload",
	}

	dfltBotUATokens = []string{
		"bot", "spider", "crawler", "curl", "wget", "python",
		"go-http", "java/", "okhttp", "axios", "scrapy",
	}

	dfltBrowserUATokens = []string{"safari", "chrome", "firefox"}
)

// TokenSets holds the substring token lists the path/UA detectors match
// against. The zero value is unusable; use DefaultTokenSets or LoadTokenSets.
// All accessors are safe for concurrent use so the lists can be swapped by
// the file watcher while classification runs are in flight.
type TokenSets struct {
	lock      sync.RWMutex
	scanner   []string
	botUA     []string
	browserUA []string
}

type tokenDefsFile struct {
	ScannerPaths  []string `json:"scannerPaths"`
	BotAgents     []string `json:"botAgents"`
	BrowserAgents []string `json:"browserAgents"`
}

func (ts *TokenSets) ScannerTokens() []string {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	return ts.scanner
}

func (ts *TokenSets) BotUATokens() []string {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	return ts.botUA
}

func (ts *TokenSets) BrowserUATokens() []string {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	return ts.browserUA
}

// LoadFile replaces the current lists with ones read from a JSON file.
// Empty sections keep their built-in defaults.
func (ts *TokenSets) LoadFile(path string) error {
	rawData, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load token defs: %w", err)
	}
	var defs tokenDefsFile
	if err := json.Unmarshal(rawData, &defs); err != nil {
		return fmt.Errorf("failed to parse token defs %s: %w", path, err)
	}
	ts.lock.Lock()
	defer ts.lock.Unlock()
	if len(defs.ScannerPaths) > 0 {
		ts.scanner = defs.ScannerPaths
	}
	if len(defs.BotAgents) > 0 {
		ts.botUA = defs.BotAgents
	}
	if len(defs.BrowserAgents) > 0 {
		ts.browserUA = defs.BrowserAgents
	}
	log.Info().
		Str("path", path).
		Int("scannerPaths", len(ts.scanner)).
		Int("botAgents", len(ts.botUA)).
		Int("browserAgents", len(ts.browserUA)).
		Msg("loaded detector token definitions")
	return nil
}

// GoWatch reloads the token file whenever it changes. Errors during reload
// keep the previous lists and are only logged - a broken edit must not take
// the analytics API down.
func (ts *TokenSets) GoWatch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to watch token defs: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch token defs: %w", err)
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("about to close token defs watcher")
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
					if err := ts.LoadFile(path); err != nil {
						log.Error().Err(err).Msg("failed to reload token defs, keeping previous lists")
					}
				}
			case err, ok := <-watcher.Errors:
				if ok {
					log.Error().Err(err).Msg("token defs watcher error")
				}
			}
		}
	}()
	return nil
}

func DefaultTokenSets() *TokenSets {
	return &TokenSets{
		scanner:   dfltScannerTokens,
		botUA:     dfltBotUATokens,
		browserUA: dfltBrowserUATokens,
	}
}

// LoadTokenSets creates token sets from a defs file, falling back to
// built-ins for missing sections.
func LoadTokenSets(path string) (*TokenSets, error) {
	ans := DefaultTokenSets()
	if err := ans.LoadFile(path); err != nil {
		return nil, err
	}
	return ans, nil
}
