package domain

import "strings"

// Site is a target location in the remote service to which devices are
// assigned.
type Site struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// InventoryRecord is a single device known to the remote inventory.
type InventoryRecord struct {
	Serial string `json:"serial"`
	MAC    string `json:"mac"`
	Model  string `json:"model,omitempty"`
	Name   string `json:"name,omitempty"`
}

// InventorySnapshot maps serial number to inventory record. Serial matching
// is exact and case sensitive; that is the contract with the remote
// service. The snapshot is built once per run and never mutated.
type InventorySnapshot map[string]InventoryRecord

// NewInventorySnapshot builds the serial lookup map, discarding entries
// whose serial is blank.
func NewInventorySnapshot(records []InventoryRecord) InventorySnapshot {
	snapshot := make(InventorySnapshot, len(records))
	for _, record := range records {
		serial := strings.TrimSpace(record.Serial)
		if serial == "" {
			continue
		}
		snapshot[serial] = record
	}
	return snapshot
}
