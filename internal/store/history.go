// Package store persists analysis results as a JSON scan history on disk.
package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/khanhnv2901/techradar-cli/internal/detect"
	sharedErrors "github.com/khanhnv2901/techradar-cli/internal/shared/errors"
	"github.com/khanhnv2901/techradar-cli/internal/shared/security"
)

// Scan is one saved analysis run.
type Scan struct {
	ID         string         `json:"id"`
	AnalyzedAt time.Time      `json:"analyzedAt"`
	Report     *detect.Report `json:"report"`
}

// History is a JSON-file-backed scan archive. All methods are safe for
// concurrent use within one process; the file itself is rewritten whole on
// every mutation.
type History struct {
	filePath string
	mu       sync.RWMutex
}

// NewHistory opens (or creates) the scan archive under dataDir.
func NewHistory(dataDir string) (*History, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	filePath, err := security.ResolveWithin(dataDir, "scans.json")
	if err != nil {
		return nil, err
	}

	return &History{filePath: filePath}, nil
}

// Append stores a report and returns the saved scan with its assigned ID.
func (h *History) Append(ctx context.Context, report *detect.Report) (Scan, error) {
	if report == nil {
		return Scan{}, fmt.Errorf("report cannot be nil")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	scans, err := h.loadFromFile()
	if err != nil {
		return Scan{}, fmt.Errorf("failed to load scan history: %w", err)
	}

	scan := Scan{
		ID:         newScanID(),
		AnalyzedAt: time.Now().UTC(),
		Report:     report,
	}
	scans = append(scans, scan)

	if err := h.saveToFile(scans); err != nil {
		return Scan{}, fmt.Errorf("failed to save scan history: %w", err)
	}
	return scan, nil
}

// List returns every saved scan in append order, oldest first.
func (h *History) List(ctx context.Context) ([]Scan, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	scans, err := h.loadFromFile()
	if err != nil {
		return nil, fmt.Errorf("failed to load scan history: %w", err)
	}
	return scans, nil
}

// FindByID returns the saved scan with the given ID.
func (h *History) FindByID(ctx context.Context, id string) (Scan, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	scans, err := h.loadFromFile()
	if err != nil {
		return Scan{}, fmt.Errorf("failed to load scan history: %w", err)
	}
	for _, scan := range scans {
		if scan.ID == id {
			return scan, nil
		}
	}
	return Scan{}, sharedErrors.ErrScanNotFound
}

// Clear removes every saved scan.
func (h *History) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.saveToFile([]Scan{})
}

func (h *History) loadFromFile() ([]Scan, error) {
	data, err := os.ReadFile(h.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Scan{}, nil
		}
		return nil, err
	}

	var scans []Scan
	if err := json.Unmarshal(data, &scans); err != nil {
		return nil, err
	}
	return scans, nil
}

func (h *History) saveToFile(scans []Scan) error {
	data, err := json.MarshalIndent(scans, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(h.filePath, data, 0644)
}

func newScanID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
