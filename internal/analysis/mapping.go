package analysis

import (
	"fmt"
	"strings"
)

// Role is a semantic slot a raw column can be mapped to.
type Role string

const (
	RoleProduct  Role = "product"
	RoleCategory Role = "category"
	RoleRegion   Role = "region"
	RolePrice    Role = "price"
	RoleQuantity Role = "quantity"
	RoleMonth    Role = "month"
)

// TotalSalesColumn is the name of the derived price*quantity column.
const TotalSalesColumn = "Total_Sales"

// Roles returns the six roles in display order.
func Roles() []Role {
	return []Role{RoleProduct, RoleCategory, RoleRegion, RolePrice, RoleQuantity, RoleMonth}
}

// ParseRole resolves a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for _, r := range Roles() {
		if string(r) == want {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q (use product, category, region, price, quantity or month)", s)
}

// ColumnMapping assigns roles to column names. A missing key or an empty
// name means the role is unset.
type ColumnMapping map[Role]string

// FixedMapping maps every role to its literal header name (Product, Category, ...).
func FixedMapping() ColumnMapping {
	m := ColumnMapping{}
	for _, r := range Roles() {
		s := string(r)
		m[r] = strings.ToUpper(s[:1]) + s[1:]
	}
	return m
}

// Column returns the column mapped to role and whether the role is set.
func (m ColumnMapping) Column(role Role) (string, bool) {
	c, ok := m[role]
	if !ok || c == "" {
		return "", false
	}
	return c, true
}

// Clone returns a copy holding only the set roles.
func (m ColumnMapping) Clone() ColumnMapping {
	out := ColumnMapping{}
	for r, c := range m {
		if c != "" {
			out[r] = c
		}
	}
	return out
}

// Validate checks that every set role names a column of t. It returns one
// error per offending role, in role order.
func (m ColumnMapping) Validate(t *Table) []error {
	var errs []error
	for _, r := range Roles() {
		c, ok := m.Column(r)
		if !ok {
			continue
		}
		if !t.HasColumn(c) {
			errs = append(errs, missingColumn(r, c))
		}
	}
	return errs
}

// String renders the mapping as role=column pairs, unset roles as role=-.
func (m ColumnMapping) String() string {
	parts := make([]string, 0, 6)
	for _, r := range Roles() {
		c, ok := m.Column(r)
		if !ok {
			c = "-"
		}
		parts = append(parts, fmt.Sprintf("%s=%s", r, c))
	}
	return strings.Join(parts, " ")
}

// ParseMapping builds a mapping from "role=column" entries. A column of "",
// "-" or "none" records the role as explicitly unset (an empty name), so a
// later overlay can clear it.
func ParseMapping(entries []string) (ColumnMapping, error) {
	m := ColumnMapping{}
	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		if !ok {
			return nil, fmt.Errorf("invalid mapping %q: expected role=column", e)
		}
		r, err := ParseRole(k)
		if err != nil {
			return nil, err
		}
		v = strings.TrimSpace(v)
		switch strings.ToLower(v) {
		case "", "-", "none":
			m[r] = ""
		default:
			m[r] = v
		}
	}
	return m, nil
}

// GuessMapping pre-fills a mapping by matching headers to role names,
// ignoring case, spaces, dashes and underscores. The first matching header wins.
func GuessMapping(columns []string) ColumnMapping {
	m := ColumnMapping{}
	for _, r := range Roles() {
		for _, c := range columns {
			if headerKey(c) == string(r) {
				m[r] = c
				break
			}
		}
	}
	return m
}

func headerKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}
