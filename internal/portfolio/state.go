package portfolio

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"PortfolioSentinel/internal/model"
)

// State is the on-disk shape of the book.
type State struct {
	Securities []model.Security `json:"securities"`
	Positions  []model.Position `json:"positions"`
	Cash       float64          `json:"cash"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// LoadState reads the book from a JSON file. Returns an empty state if the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState writes the book to a JSON file through a temp file and rename.
func SaveState(filePath string, state *State) error {
	state.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}
