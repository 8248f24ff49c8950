package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oszuidwest/zwfm-crudread/internal/listread"
)

const validResources = `
defaults:
  limit: 20
  max_limit: 50
resources:
  contacts:
    table: contacts c
    select: [c.id, c.name AS title, c.email]
    where: ["c.deleted_at IS NULL"]
    default_order: c.name ASC
    search_columns: [c.name, c.email]
    sort_map: {name: c.name, email: c.email}
    sort_policy: strict
    kind: group
  cities:
    table: cities
    limit: 5
policies:
  - [editor, contacts, read]
  - [admin, "*", read]
clients:
  - name: ui
    key_hash: "$2a$10$abcdefghijklmnopqrstuu5Bx3Un3GZ6mHqfzVZl1mUvj0ybKuTqe"
    role: editor
`

func TestParseResources(t *testing.T) {
	r, err := ParseResources([]byte(validResources))
	require.NoError(t, err)

	require.Contains(t, r.Resources, "contacts")
	contacts := r.Resources["contacts"]
	assert.Equal(t, "contacts c", contacts.Table)
	assert.Equal(t, []string{"c.id", "c.name AS title", "c.email"}, contacts.Select)
	assert.Equal(t, []string{"c.deleted_at IS NULL"}, contacts.Where)
	assert.Equal(t, listread.SortStrict, contacts.SortPolicy)
	assert.Equal(t, listread.KindGroup, contacts.Kind)
	assert.Equal(t, map[string]string{"name": "c.name", "email": "c.email"}, contacts.SortMap)

	assert.Equal(t, []Policy{
		{Role: "editor", Resource: "contacts", Action: "read"},
		{Role: "admin", Resource: "*", Action: "read"},
	}, r.Policies)
	require.Len(t, r.Clients, 1)
	assert.Equal(t, "ui", r.Clients[0].Name)
}

func TestResourcesSettingsApplyDefaults(t *testing.T) {
	r, err := ParseResources([]byte(validResources))
	require.NoError(t, err)

	s, ok := r.Settings("contacts")
	require.True(t, ok)
	assert.Equal(t, 20, s.DefaultLimit)
	assert.Equal(t, 50, s.MaxLimit)

	s, ok = r.Settings("cities")
	require.True(t, ok)
	assert.Equal(t, 5, s.DefaultLimit, "resource value wins over the file default")

	_, ok = r.Settings("missing")
	assert.False(t, ok)
}

func TestParseResourcesRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "no resources",
			yaml: "defaults: {limit: 10}\n",
			want: "Resources",
		},
		{
			name: "unknown key",
			yaml: "resources:\n  a:\n    table: a\n    serach_columns: [name]\n",
			want: "serach_columns",
		},
		{
			name: "missing table",
			yaml: "resources:\n  a:\n    kind: table\n",
			want: "Table",
		},
		{
			name: "expression as search column",
			yaml: "resources:\n  a:\n    table: a\n    search_columns: [\"CONCAT(a, b)\"]\n",
			want: "column",
		},
		{
			name: "expression as sort column",
			yaml: "resources:\n  a:\n    table: a\n    sort_map: {name: \"name; DROP TABLE a\"}\n",
			want: "column",
		},
		{
			name: "bad kind",
			yaml: "resources:\n  a:\n    table: a\n    kind: tree\n",
			want: "oneof",
		},
		{
			name: "bad resource name",
			yaml: "resources:\n  A b:\n    table: a\n",
			want: "resourcename",
		},
		{
			name: "policy shape",
			yaml: "resources:\n  a:\n    table: a\npolicies:\n  - [editor, a]\n",
			want: "policy must be",
		},
		{
			name: "policy for unknown resource",
			yaml: "resources:\n  a:\n    table: a\npolicies:\n  - [editor, b, read]\n",
			want: "unknown resource",
		},
		{
			name: "plaintext client key",
			yaml: "resources:\n  a:\n    table: a\nclients:\n  - {name: ui, key_hash: secret, role: editor}\n",
			want: "startswith",
		},
		{
			name: "duplicate client",
			yaml: "resources:\n  a:\n    table: a\nclients:\n" +
				"  - {name: ui, key_hash: $2a$10$x, role: editor}\n" +
				"  - {name: ui, key_hash: $2a$10$y, role: admin}\n",
			want: "unique",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResources([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadResources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validResources), 0o600))

	r, err := LoadResources(path)
	require.NoError(t, err)
	assert.Len(t, r.Resources, 2)

	_, err = LoadResources(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
