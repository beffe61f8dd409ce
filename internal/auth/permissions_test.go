package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPermissions(t *testing.T) {
	t.Parallel()

	perms, err := DefaultPermissions()
	require.NoError(t, err)

	assert.True(t, perms.Allows("admin", PermissionDiagnostics))
	assert.True(t, perms.Allows("Teacher", "courses:write"))
	assert.False(t, perms.Allows("student", "courses:write"))
	assert.False(t, perms.Allows("student", PermissionDiagnostics))
	assert.False(t, perms.Allows("ghost", "courses:read"))
	assert.Equal(t, "student", perms.DefaultRole())
}

func TestParsePermissionsWildcards(t *testing.T) {
	t.Parallel()

	perms, err := ParsePermissions([]byte(`
roles:
  mentor:
    permissions: ["tasks:*", " Courses:Read "]
`))
	require.NoError(t, err)

	assert.True(t, perms.Allows("mentor", "tasks:write"))
	assert.True(t, perms.Allows("mentor", "courses:read"))
	assert.False(t, perms.Allows("mentor", "courses:write"))
	assert.True(t, perms.HasRole("MENTOR"))
}

func TestParsePermissionsRejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := ParsePermissions([]byte(`roles: {}`))
	assert.Error(t, err)

	_, err = ParsePermissions([]byte("roles: [unclosed"))
	assert.Error(t, err)

	_, err = ParsePermissions([]byte(`
roles:
  admin:
    permissions: ["*"]
default_role: guest
`))
	assert.Error(t, err)
}

func TestLoadPermissionsFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "perms.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roles:\n  ops:\n    permissions: [system:diagnostics]\n"), 0o600))

	perms, err := LoadPermissions(path)
	require.NoError(t, err)
	assert.True(t, perms.Allows("ops", PermissionDiagnostics))

	_, err = LoadPermissions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
