package model

import "time"

// CollectionState describes one collection as observed on the server
type CollectionState struct {
	Name      string `json:"name"`
	Exists    bool   `json:"exists"`
	Documents int64  `json:"documents"`
}

// Verification compares a plan against the live state of the target database
type Verification struct {
	Database      string            `json:"database"`
	Username      string            `json:"user"`
	UserExists    bool              `json:"userExists"`
	RoleGranted   bool              `json:"roleGranted"`
	Collections   []CollectionState `json:"collections"`
	Unexpected    []string          `json:"unexpectedCollections,omitempty"`
	DatabaseFound bool              `json:"databaseFound"`
	CheckedAt     time.Time         `json:"checkedAt"`
}

// Satisfied reports whether the principal holds its binding and every planned
// collection exists. Document counts are informational only.
func (v *Verification) Satisfied() bool {
	if v == nil || !v.UserExists || !v.RoleGranted {
		return false
	}
	for _, c := range v.Collections {
		if !c.Exists {
			return false
		}
	}
	return true
}

// Missing returns the planned collections that do not exist
func (v *Verification) Missing() []string {
	var missing []string
	for _, c := range v.Collections {
		if !c.Exists {
			missing = append(missing, c.Name)
		}
	}
	return missing
}

// Populated returns the planned collections that already hold documents
func (v *Verification) Populated() []string {
	var populated []string
	for _, c := range v.Collections {
		if c.Exists && c.Documents > 0 {
			populated = append(populated, c.Name)
		}
	}
	return populated
}

// Connectivity is the result of a connectivity check against the server
type Connectivity struct {
	URI       string        `json:"uri"`
	Databases []string      `json:"databases"`
	Latency   time.Duration `json:"latency"`
}
