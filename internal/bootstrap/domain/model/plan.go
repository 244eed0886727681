package model

import (
	"fmt"

	apperrors "setdb-init/internal/shared/errors"
)

// Mode controls how already-existing entities are treated
type Mode string

const (
	// ModeEnsure creates missing entities and accepts existing ones
	ModeEnsure Mode = "ensure"
	// ModeStrict raises a duplicate fault for existing entities
	ModeStrict Mode = "strict"
)

// RoleBinding grants a named privilege level scoped to a database
type RoleBinding struct {
	Role     string `json:"role" bson:"role"`
	Database string `json:"db" bson:"db"`
}

// Principal is the application user provisioned on the target database
type Principal struct {
	Username string        `json:"user" bson:"user"`
	Password string        `json:"-" bson:"-"`
	Roles    []RoleBinding `json:"roles" bson:"roles"`
}

// HasRole reports whether the principal holds the given binding
func (p *Principal) HasRole(binding RoleBinding) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == binding {
			return true
		}
	}
	return false
}

// Plan is the full set of entities a single bootstrap run provisions.
// Every entity references the same target database.
type Plan struct {
	Database    string    `json:"database"`
	Principal   Principal `json:"principal"`
	Collections []string  `json:"collections"`
	Mode        Mode      `json:"mode"`
}

// NewPlan builds a plan with a single role binding on database
func NewPlan(database, username, password, role string, collections []string, mode Mode) *Plan {
	return &Plan{
		Database: database,
		Principal: Principal{
			Username: username,
			Password: password,
			Roles:    []RoleBinding{{Role: role, Database: database}},
		},
		Collections: append([]string(nil), collections...),
		Mode:        mode,
	}
}

// Validate enforces the single-database invariant and basic completeness
func (p *Plan) Validate() error {
	ve := apperrors.NewValidationErrors()

	if p.Database == "" {
		ve.Add("database", "target database is required", p.Database)
	}
	if p.Principal.Username == "" {
		ve.Add("principal.user", "username is required", nil)
	}
	if p.Principal.Password == "" {
		ve.Add("principal.pwd", "password is required", nil)
	}
	if len(p.Principal.Roles) == 0 {
		ve.Add("principal.roles", "at least one role binding is required", nil)
	}
	for i, r := range p.Principal.Roles {
		if r.Role == "" {
			ve.Add(fmt.Sprintf("principal.roles[%d].role", i), "role is required", nil)
		}
		if r.Database != p.Database {
			ve.Add(fmt.Sprintf("principal.roles[%d].db", i),
				fmt.Sprintf("role binding must target %q", p.Database), r.Database)
		}
	}
	if len(p.Collections) == 0 {
		ve.Add("collections", "at least one collection is required", nil)
	}
	seen := make(map[string]struct{}, len(p.Collections))
	for i, name := range p.Collections {
		if name == "" {
			ve.Add(fmt.Sprintf("collections[%d]", i), "collection name is required", name)
			continue
		}
		if _, dup := seen[name]; dup {
			ve.Add(fmt.Sprintf("collections[%d]", i), fmt.Sprintf("collection %q listed twice", name), name)
		}
		seen[name] = struct{}{}
	}
	if p.Mode != ModeEnsure && p.Mode != ModeStrict {
		ve.Add("mode", fmt.Sprintf("unknown mode %q", p.Mode), p.Mode)
	}

	if ve.HasErrors() {
		return ve.ToAppError().WithComponent("plan")
	}
	return nil
}

// IncludesCollection reports whether name is part of the plan
func (p *Plan) IncludesCollection(name string) bool {
	for _, c := range p.Collections {
		if c == name {
			return true
		}
	}
	return false
}
