package model

import (
	"encoding/json"
	"testing"

	apperrors "setdb-init/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultPlan() *Plan {
	return NewPlan("rust_app_db", "app_user", "DevPassword123", "readWrite",
		[]string{"setplayers", "setgames", "setstats"}, ModeEnsure)
}

func TestNewPlan(t *testing.T) {
	plan := defaultPlan()

	require.NoError(t, plan.Validate())
	assert.Equal(t, []RoleBinding{{Role: "readWrite", Database: "rust_app_db"}}, plan.Principal.Roles)
	assert.True(t, plan.IncludesCollection("setgames"))
	assert.False(t, plan.IncludesCollection("users"))
}

func TestNewPlan_CopiesCollections(t *testing.T) {
	collections := []string{"setplayers"}
	plan := NewPlan("rust_app_db", "app_user", "pw", "readWrite", collections, ModeEnsure)
	collections[0] = "mutated"

	assert.Equal(t, []string{"setplayers"}, plan.Collections)
}

func TestPlan_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Plan)
		wantMsg string
	}{
		{name: "role on another database", mutate: func(p *Plan) { p.Principal.Roles[0].Database = "admin" }, wantMsg: `role binding must target "rust_app_db"`},
		{name: "missing password", mutate: func(p *Plan) { p.Principal.Password = "" }, wantMsg: "password is required"},
		{name: "no roles", mutate: func(p *Plan) { p.Principal.Roles = nil }, wantMsg: "at least one role binding"},
		{name: "no collections", mutate: func(p *Plan) { p.Collections = nil }, wantMsg: "at least one collection"},
		{name: "duplicate collection", mutate: func(p *Plan) { p.Collections = append(p.Collections, "setgames") }, wantMsg: `collection "setgames" listed twice`},
		{name: "unknown mode", mutate: func(p *Plan) { p.Mode = "force" }, wantMsg: `unknown mode "force"`},
		{name: "missing database", mutate: func(p *Plan) { p.Database = ""; p.Principal.Roles[0].Database = "" }, wantMsg: "target database is required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			plan := defaultPlan()
			tc.mutate(plan)

			err := plan.Validate()
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestPrincipal_HasRole(t *testing.T) {
	p := &Principal{Username: "app_user", Roles: []RoleBinding{{Role: "readWrite", Database: "rust_app_db"}}}

	assert.True(t, p.HasRole(RoleBinding{Role: "readWrite", Database: "rust_app_db"}))
	assert.False(t, p.HasRole(RoleBinding{Role: "readWrite", Database: "admin"}))

	var nilPrincipal *Principal
	assert.False(t, nilPrincipal.HasRole(RoleBinding{Role: "readWrite", Database: "rust_app_db"}))
}

func TestPrincipal_PasswordNeverSerialized(t *testing.T) {
	raw, err := json.Marshal(defaultPlan())
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "DevPassword123")
	assert.Contains(t, string(raw), `"user":"app_user"`)
}
