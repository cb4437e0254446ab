package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/casaflow/casaflow-backend/pkg/roles"
)

// RoleList is a role set stored as a JSONB array
type RoleList []roles.Role

// Value implements driver.Valuer
func (l RoleList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner
func (l *RoleList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// Contains reports whether the list includes the given role
func (l RoleList) Contains(role roles.Role) bool {
	return roles.Contains(l, role)
}

// Strings returns the string form of the role list
func (l RoleList) Strings() []string {
	return roles.Strings(l)
}

// StringList is a string slice stored as a JSONB array
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner
func (l *StringList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// StringMap is a sparse string map stored as JSONB.
// A nil map is stored as SQL NULL, never as an empty object.
type StringMap map[string]string

// Value implements driver.Valuer
func (m StringMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner
func (m *StringMap) Scan(src interface{}) error {
	return scanJSON(src, m)
}

func scanJSON(src, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("cannot scan %T into JSON column", src)
	}
}
