package auth

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	PermissionAll         = "*"
	PermissionDiagnostics = "system:diagnostics"
)

//go:embed permissions.yaml
var defaultPermissionsYAML []byte

type roleConfig struct {
	Permissions []string `yaml:"permissions"`
}

type permissionsFile struct {
	Roles       map[string]roleConfig `yaml:"roles"`
	DefaultRole string                `yaml:"default_role"`
}

// Permissions is the read-only role table. It is built once at startup.
type Permissions struct {
	roles       map[string]map[string]struct{}
	defaultRole string
}

func DefaultPermissions() (*Permissions, error) {
	return ParsePermissions(defaultPermissionsYAML)
}

// LoadPermissions reads path, or the embedded defaults when path is empty.
func LoadPermissions(path string) (*Permissions, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultPermissions()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read permissions file: %w", err)
	}

	return ParsePermissions(raw)
}

func ParsePermissions(raw []byte) (*Permissions, error) {
	var file permissionsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse permissions: %w", err)
	}

	if len(file.Roles) == 0 {
		return nil, fmt.Errorf("parse permissions: no roles defined")
	}

	p := &Permissions{
		roles:       make(map[string]map[string]struct{}, len(file.Roles)),
		defaultRole: normalize(file.DefaultRole),
	}

	for role, cfg := range file.Roles {
		set := make(map[string]struct{}, len(cfg.Permissions))
		for _, perm := range cfg.Permissions {
			perm = normalize(perm)
			if perm == "" {
				continue
			}
			set[perm] = struct{}{}
		}
		p.roles[normalize(role)] = set
	}

	if p.defaultRole != "" {
		if _, ok := p.roles[p.defaultRole]; !ok {
			return nil, fmt.Errorf("parse permissions: default role %q is not defined", p.defaultRole)
		}
	}

	return p, nil
}

func (p *Permissions) HasRole(role string) bool {
	_, ok := p.roles[normalize(role)]
	return ok
}

func (p *Permissions) DefaultRole() string {
	return p.defaultRole
}

// Allows reports whether role grants perm, either directly, through "*" or
// through a "<resource>:*" wildcard.
func (p *Permissions) Allows(role string, perm string) bool {
	set, ok := p.roles[normalize(role)]
	if !ok {
		return false
	}

	perm = normalize(perm)
	if _, ok := set[PermissionAll]; ok {
		return true
	}
	if _, ok := set[perm]; ok {
		return true
	}

	if resource, _, found := strings.Cut(perm, ":"); found {
		if _, ok := set[resource+":*"]; ok {
			return true
		}
	}

	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
