package localentries

import (
	"fmt"
	"slices"
	"strings"
)

// UserEntry is an entry of the local passwd file.
type UserEntry struct {
	Name   string
	Passwd string
	UID    uint32
	GID    uint32
	Gecos  string
	Dir    string
	Shell  string
}

// String formats the entry the way it is stored in the passwd file.
func (u UserEntry) String() string {
	return fmt.Sprintf("%s:%s:%d:%d:%s:%s:%s", u.Name, u.Passwd, u.UID, u.GID, u.Gecos, u.Dir, u.Shell)
}

// Validate validates the user entry values.
func (u UserEntry) Validate() error {
	if u.Name == "" {
		return fmt.Errorf("user %q cannot have empty name", u)
	}

	if u.UID == 0 && u.Name != "root" {
		return fmt.Errorf("only root can have UID 0, not %q", u.Name)
	}

	if strings.ContainsRune(u.Name, ':') {
		return fmt.Errorf("user %q cannot contain ':' character", u.Name)
	}

	return nil
}

// ValidateUserEntries validates a list of user entries, ensuring they respect
// the [UserEntry.Validate] constraints and that the names are unique.
func ValidateUserEntries(users []UserEntry) error {
	userNames := make(map[string]struct{}, len(users))

	for _, u := range users {
		if err := u.Validate(); err != nil {
			return fmt.Errorf("user %q is not valid: %w", u, err)
		}

		if _, ok := userNames[u.Name]; ok {
			return fmt.Errorf("user %q is duplicate", u.Name)
		}
		userNames[u.Name] = struct{}{}
	}

	return nil
}

// GroupEntry is an entry of the local group file.
type GroupEntry struct {
	Name   string
	Passwd string
	GID    uint32
	Users  []string
}

// String formats the entry the way it is stored in the group file.
func (g GroupEntry) String() string {
	return fmt.Sprintf("%s:%s:%d:%s", g.Name, g.Passwd, g.GID, strings.Join(g.Users, ","))
}

// Validate validates the group entry values.
func (g GroupEntry) Validate() error {
	if g.Name == "" {
		return fmt.Errorf("group %q cannot have empty name", g)
	}

	if g.GID == 0 && g.Name != "root" {
		return fmt.Errorf("only root group can have GID 0, not %q", g.Name)
	}

	if strings.ContainsRune(g.Name, ',') {
		return fmt.Errorf("group %q cannot contain ',' character", g.Name)
	}

	if slices.ContainsFunc(g.Users, func(u string) bool { return strings.ContainsRune(u, ',') }) {
		return fmt.Errorf("group %q cannot contain users with ',' character (%v)", g, g.Users)
	}

	return nil
}

// ValidateGroupEntries validates a list of group entries, ensuring they respect
// the [GroupEntry.Validate] constraints and that the names are unique.
func ValidateGroupEntries(groups []GroupEntry) error {
	groupNames := make(map[string]struct{}, len(groups))

	for _, g := range groups {
		if err := g.Validate(); err != nil {
			return fmt.Errorf("group %q is not valid: %w", g, err)
		}

		if _, ok := groupNames[g.Name]; ok {
			return fmt.Errorf("group %q is duplicate", g.Name)
		}
		groupNames[g.Name] = struct{}{}
	}

	return nil
}
