package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/mmynk/splitledger/internal/models"
)

type envelope struct {
	Version int             `json:"version"`
	Payload models.Snapshot `json:"payload"`
}

// Export writes s in the current envelope.
func Export(s models.Snapshot) ([]byte, error) {
	if s.Friends == nil {
		s.Friends = []models.Friend{}
	}
	if s.Transactions == nil {
		s.Transactions = []models.Transaction{}
	}
	data, err := json.Marshal(envelope{Version: CurrentVersion, Payload: s})
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}
