package domain

import "unicode/utf8"

// MinUserNameLength is the shortest name accepted at registration.
const MinUserNameLength = 3

// Profile is the user currently using the app.
type Profile struct {
	Name string `json:"name"`
}

// NewProfile returns a profile with an empty name.
func NewProfile() Profile {
	return Profile{}
}

// NamedProfile returns a profile carrying the given name.
func NamedProfile(name string) Profile {
	return Profile{Name: name}
}

// IsUserNameValid reports whether the name is long enough to register with.
func (p Profile) IsUserNameValid() bool {
	return utf8.RuneCountInString(p.Name) >= MinUserNameLength
}

// IsRegistered reports whether a name has been entered.
func (p Profile) IsRegistered() bool {
	return p.Name != ""
}

// Settings holds the user's preferences.
type Settings struct {
	RememberUser bool `json:"rememberUser"`
}

func DefaultSettings() Settings {
	return Settings{RememberUser: false}
}
