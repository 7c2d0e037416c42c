package localentries

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/ubuntu/decorate"
	"github.com/zjuthesis/entrypoint/internal/fileutils"
	"github.com/zjuthesis/entrypoint/internal/sliceutils"
	"github.com/zjuthesis/entrypoint/log"
)

// GetGroupEntry returns the group entry for the given group name. A missing
// group is not an error: the second return value reports whether the group was
// found.
func GetGroupEntry(name string, args ...Option) (GroupEntry, bool, error) {
	opts := defaultOptions
	for _, arg := range args {
		arg(&opts)
	}

	groups, err := parseLocalGroups(opts.groupInputPath)
	if err != nil {
		return GroupEntry{}, false, err
	}

	idx := slices.IndexFunc(groups, func(g GroupEntry) bool { return g.Name == name })
	if idx == -1 {
		return GroupEntry{}, false, nil
	}
	return groups[idx], true, nil
}

// RenumberGroup rewrites the group entry of the given group with the new GID.
// The file is rewritten in place under the shadow-style lock, with a backup of
// the previous content next to it.
func RenumberGroup(name string, gid uint32, args ...Option) (err error) {
	defer decorate.OnError(&err, "could not renumber group %q to %d", name, gid)

	opts := defaultOptions
	for _, arg := range args {
		arg(&opts)
	}

	if err := opts.lockFunc(opts.groupOutputPath); err != nil {
		return err
	}
	defer func() {
		if unlockErr := opts.unlockFunc(opts.groupOutputPath); unlockErr != nil {
			err = errors.Join(err, unlockErr)
		}
	}()

	groups, err := parseLocalGroups(opts.groupInputPath)
	if err != nil {
		return err
	}

	idx := slices.IndexFunc(groups, func(g GroupEntry) bool { return g.Name == name })
	if idx == -1 {
		return fmt.Errorf("group does not exist in %s", opts.groupInputPath)
	}

	groups[idx].GID = gid

	return saveLocalGroups(opts.groupInputPath, opts.groupOutputPath, groups)
}

func parseLocalGroups(groupPath string) (groups []GroupEntry, err error) {
	defer decorate.OnError(&err, "could not fetch existing local group")

	log.Debugf(context.Background(), "Reading groups from %q", groupPath)

	f, err := os.Open(groupPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Format of a line composing the group file is:
	// group_name:password:group_id:user1,…,usern
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		t := strings.TrimSpace(scanner.Text())
		if t == "" {
			continue
		}
		elems := strings.Split(t, ":")
		if len(elems) != 4 {
			return nil, fmt.Errorf("malformed entry in group file (should have 4 separators, got %d): %q", len(elems), t)
		}

		name, passwd, gidValue, usersValue := elems[0], elems[1], elems[2], elems[3]

		gid, err := strconv.ParseUint(gidValue, 10, 0)
		if err != nil || gid > math.MaxUint32 {
			return nil, fmt.Errorf("failed parsing entry %q, unexpected GID value", t)
		}

		var users []string
		if usersValue != "" {
			users = strings.Split(usersValue, ",")
		}

		groups = append(groups, GroupEntry{
			Name:   name,
			Passwd: passwd,
			GID:    uint32(gid),
			Users:  users,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if err := ValidateGroupEntries(groups); err != nil {
		return nil, err
	}

	return groups, nil
}

func formatGroupEntries(groups []GroupEntry) string {
	groupLines := sliceutils.Map(groups, func(group GroupEntry) string {
		return group.String()
	})

	// Add final new line to the group file.
	groupLines = append(groupLines, "")

	return strings.Join(groupLines, "\n")
}

func saveLocalGroups(inputPath, groupPath string, groups []GroupEntry) (err error) {
	defer decorate.OnError(&err, "could not write local groups to %q", groupPath)

	if err := ValidateGroupEntries(groups); err != nil {
		return err
	}

	backupPath := fileBackupPath(groupPath)
	groupsContent := formatGroupEntries(groups)

	log.Debugf(context.Background(), "Saving group entries %#v to %q", groups, groupPath)

	if err := os.Remove(backupPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warningf(context.Background(), "Failed to remove group file backup: %v", err)
	}

	log.Debugf(context.Background(), "Backing up %q to %q", inputPath, backupPath)
	if err := fileutils.CopyFile(inputPath, backupPath); err != nil {
		log.Warningf(context.Background(), "Failed to make a backup for the group file: %v", err)
	}

	tempPath := fileTemporaryPath(groupPath)
	//nolint:gosec // G306 /etc/group should indeed have 0644 permissions
	if err := os.WriteFile(tempPath, []byte(groupsContent), 0644); err != nil {
		return fmt.Errorf("error writing %s: %w", tempPath, err)
	}

	if err := fileutils.Lrename(tempPath, groupPath); err != nil {
		return fmt.Errorf("error renaming %s to %s: %w", tempPath, groupPath, err)
	}

	return nil
}
