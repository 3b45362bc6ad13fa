package snapshot

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/learner-analytics/backend/internal/storage/models"
)

// WriteSyncStatus persists the sync-status sidecar.
func WriteSyncStatus(path string, status *models.SyncStatus) error {
	return writeJSON(path, status)
}

// ReadSyncStatus loads the sync-status sidecar. A missing file returns
// (nil, nil): consumers report "unavailable" rather than failing.
func ReadSyncStatus(path string) (*models.SyncStatus, error) {
	var status models.SyncStatus
	ok, err := readJSON(path, &status)
	if err != nil || !ok {
		return nil, err
	}
	return &status, nil
}

// WriteQualityReport persists the data-quality report sidecar.
func WriteQualityReport(path string, report *models.QualityReport) error {
	return writeJSON(path, report)
}

// ReadQualityReport loads the data-quality sidecar; missing file yields
// (nil, nil).
func ReadQualityReport(path string) (*models.QualityReport, error) {
	var report models.QualityReport
	ok, err := readJSON(path, &report)
	if err != nil || !ok {
		return nil, err
	}
	return &report, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sidecar: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write sidecar: %w", err)
	}
	return nil
}

func readJSON(path string, v interface{}) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read sidecar: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to parse sidecar: %w", err)
	}
	return true, nil
}
