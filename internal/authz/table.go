package authz

import (
	"fmt"

	"pos-backend/internal/models"
)

// Key identifies one controller action in the permission table.
type Key struct {
	Controller string
	Action     string
}

// Rule is the closed outcome set for an action: public, or a role allow-list.
type Rule struct {
	Public bool
	Roles  []models.UserRole
}

// Table resolves (controller, action) to allow or deny. Anything absent from
// the table is denied for every role, including admin. Lookups are pure and
// safe to call speculatively.
type Table struct {
	rules map[Key]Rule
}

// IsPermitted applies the resolution order: public entries pass without a
// session, everything else requires an authenticated role that appears in
// the entry's allow-list. Missing entries deny.
func (t *Table) IsPermitted(role *models.UserRole, controller, action string) bool {
	rule, ok := t.rules[Key{Controller: controller, Action: action}]
	if !ok {
		return false
	}
	if rule.Public {
		return true
	}
	if role == nil {
		return false
	}
	for _, r := range rule.Roles {
		if r == *role {
			return true
		}
	}
	return false
}

// IsPublic reports whether the action needs no session at all.
func (t *Table) IsPublic(controller, action string) bool {
	rule, ok := t.rules[Key{Controller: controller, Action: action}]
	return ok && rule.Public
}

// Builder collects declarative entries and validates them as a whole, so a
// malformed table stops the process at startup instead of denying at
// request time.
type Builder struct {
	rules map[Key]Rule
	errs  []error
}

func NewBuilder() *Builder {
	return &Builder{rules: map[Key]Rule{}}
}

func (b *Builder) Public(controller string, actions ...string) *Builder {
	if len(actions) == 0 {
		b.errs = append(b.errs, fmt.Errorf("authz: public entry %q lists no actions", controller))
		return b
	}
	for _, action := range actions {
		b.add(Key{Controller: controller, Action: action}, Rule{Public: true})
	}
	return b
}

// Allow grants every listed action of the controller to the given roles.
func (b *Builder) Allow(controller string, actions []string, roles ...models.UserRole) *Builder {
	if len(actions) == 0 {
		b.errs = append(b.errs, fmt.Errorf("authz: entry %q lists no actions", controller))
		return b
	}
	if len(roles) == 0 {
		b.errs = append(b.errs, fmt.Errorf("authz: entry %q lists no roles", controller))
		return b
	}
	for _, role := range roles {
		if !models.ValidRole(role) {
			b.errs = append(b.errs, fmt.Errorf("authz: entry %q names unknown role %q", controller, role))
		}
	}
	for _, action := range actions {
		b.add(Key{Controller: controller, Action: action}, Rule{Roles: roles})
	}
	return b
}

func (b *Builder) add(key Key, rule Rule) {
	if key.Controller == "" || key.Action == "" {
		b.errs = append(b.errs, fmt.Errorf("authz: entry with empty controller or action"))
		return
	}
	if _, exists := b.rules[key]; exists {
		b.errs = append(b.errs, fmt.Errorf("authz: duplicate entry %s.%s", key.Controller, key.Action))
		return
	}
	b.rules[key] = rule
}

func (b *Builder) Build() (*Table, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("authz: table rejected: %v", b.errs)
	}
	return &Table{rules: b.rules}, nil
}
