package session

import "encoding/json"

// Keys names the storage entries that make up a session.
type Keys struct {
	Token      string `yaml:"token"`
	Profile    string `yaml:"profile"`
	RememberMe string `yaml:"remember_me"`
}

// DefaultKeys returns the key layout written by the admin login page.
func DefaultKeys() Keys {
	return Keys{
		Token:      "adminToken",
		Profile:    "adminData",
		RememberMe: "rememberMe",
	}
}

// Session is a successfully read token and profile pair.
type Session struct {
	Token   string
	Profile *Profile
}

// Profile is the decoded admin profile. Any JSON value is accepted; field
// accessors only see members of a top-level object.
type Profile struct {
	raw    json.RawMessage
	value  any
	fields map[string]any
}

// Raw returns the profile JSON as stored.
func (p *Profile) Raw() string {
	if p == nil {
		return ""
	}
	return string(p.raw)
}

// Value returns the decoded JSON value.
func (p *Profile) Value() any {
	if p == nil {
		return nil
	}
	return p.value
}

// IsObject reports whether the profile decoded to a JSON object.
func (p *Profile) IsObject() bool {
	return p != nil && p.fields != nil
}

// Field returns a top-level member and whether it was present.
func (p *Profile) Field(name string) (any, bool) {
	if p == nil || p.fields == nil {
		return nil, false
	}
	v, ok := p.fields[name]
	return v, ok
}

// FullName returns the fullName member, nil when absent.
func (p *Profile) FullName() any {
	v, _ := p.Field("fullName")
	return v
}

// Username returns the username member, nil when absent.
func (p *Profile) Username() any {
	v, _ := p.Field("username")
	return v
}

// LoginTime returns the loginTime member, nil when absent.
func (p *Profile) LoginTime() any {
	v, _ := p.Field("loginTime")
	return v
}
