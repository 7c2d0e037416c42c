package localentries

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/ubuntu/decorate"
	"github.com/zjuthesis/entrypoint/internal/fileutils"
	"github.com/zjuthesis/entrypoint/internal/sliceutils"
	"github.com/zjuthesis/entrypoint/log"
)

// GetUserEntry returns the passwd entry for the given username. A missing user
// is not an error: the second return value reports whether the user was found.
func GetUserEntry(name string, args ...Option) (UserEntry, bool, error) {
	opts := defaultOptions
	for _, arg := range args {
		arg(&opts)
	}

	users, err := parseLocalPasswdFile(opts.passwdInputPath)
	if err != nil {
		return UserEntry{}, false, err
	}

	idx := slices.IndexFunc(users, func(u UserEntry) bool { return u.Name == name })
	if idx == -1 {
		return UserEntry{}, false, nil
	}
	return users[idx], true, nil
}

// RenumberUser rewrites the passwd entry of the given user with the new UID and
// primary GID. The file is rewritten in place under the shadow-style lock, with
// a backup of the previous content next to it.
func RenumberUser(name string, uid, gid uint32, args ...Option) (err error) {
	defer decorate.OnError(&err, "could not renumber user %q to %d:%d", name, uid, gid)

	opts := defaultOptions
	for _, arg := range args {
		arg(&opts)
	}

	if err := opts.lockFunc(opts.passwdOutputPath); err != nil {
		return err
	}
	defer func() {
		if unlockErr := opts.unlockFunc(opts.passwdOutputPath); unlockErr != nil {
			err = errors.Join(err, unlockErr)
		}
	}()

	users, err := parseLocalPasswdFile(opts.passwdInputPath)
	if err != nil {
		return err
	}

	idx := slices.IndexFunc(users, func(u UserEntry) bool { return u.Name == name })
	if idx == -1 {
		return fmt.Errorf("user does not exist in %s", opts.passwdInputPath)
	}

	users[idx].UID = uid
	users[idx].GID = gid

	return saveLocalUsers(opts.passwdInputPath, opts.passwdOutputPath, users)
}

func parseLocalPasswdFile(passwdFile string) (entries []UserEntry, err error) {
	defer decorate.OnError(&err, "could not parse local passwd file %s", passwdFile)

	log.Debugf(context.Background(), "Parsing local passwd file: %s", passwdFile)

	f, err := os.Open(passwdFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// The format of the local passwd file is:
	// username:password:uid:gid:gecos:home:shell
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue // Skip empty lines and comments
		}

		fields := strings.SplitN(line, ":", 7)
		if len(fields) < 7 {
			log.Warningf(context.Background(), "Skipping invalid entry in %s (invalid format): %s", passwdFile, line)
			continue
		}

		username, passwd, uidValue, gidValue, gecos, home, shell :=
			fields[0], fields[1], fields[2], fields[3], fields[4], fields[5], fields[6]

		uid, err := strconv.ParseUint(uidValue, 10, 32)
		if err != nil {
			log.Warningf(context.Background(), "Skipping invalid entry in %s (invalid UID): %s", passwdFile, line)
			continue
		}

		gid, err := strconv.ParseUint(gidValue, 10, 32)
		if err != nil {
			log.Warningf(context.Background(), "Skipping invalid entry in %s (invalid GID): %s", passwdFile, line)
			continue
		}

		entries = append(entries, UserEntry{
			Name:   username,
			Passwd: passwd,
			UID:    uint32(uid),
			GID:    uint32(gid),
			Gecos:  gecos,
			Dir:    home,
			Shell:  shell,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func formatUserEntries(users []UserEntry) string {
	userLines := sliceutils.Map(users, func(user UserEntry) string {
		return user.String()
	})

	// Add final new line to the passwd file.
	userLines = append(userLines, "")

	return strings.Join(userLines, "\n")
}

func saveLocalUsers(inputPath, passwdPath string, users []UserEntry) (err error) {
	defer decorate.OnError(&err, "could not write local users to %q", passwdPath)

	if err := ValidateUserEntries(users); err != nil {
		return err
	}

	backupPath := fileBackupPath(passwdPath)
	usersContent := formatUserEntries(users)

	log.Debugf(context.Background(), "Saving passwd entries %#v to %q", users, passwdPath)

	if err := os.Remove(backupPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warningf(context.Background(), "Failed to remove passwd file backup: %v", err)
	}

	log.Debugf(context.Background(), "Backing up %q to %q", inputPath, backupPath)
	if err := fileutils.CopyFile(inputPath, backupPath); err != nil {
		log.Warningf(context.Background(), "Failed to make a backup for the passwd file: %v", err)
	}

	tempPath := fileTemporaryPath(passwdPath)
	//nolint:gosec // G306 /etc/passwd should indeed have 0644 permissions
	if err := os.WriteFile(tempPath, []byte(usersContent), 0644); err != nil {
		return fmt.Errorf("error writing %s: %w", tempPath, err)
	}

	if err := fileutils.Lrename(tempPath, passwdPath); err != nil {
		return fmt.Errorf("error renaming %s to %s: %w", tempPath, passwdPath, err)
	}

	return nil
}

// fileTemporaryPath mirrors the temporary path the shadow tools use when
// rewriting the passwd or group file.
func fileTemporaryPath(path string) string {
	return fmt.Sprintf("%s+", path)
}

// fileBackupPath mirrors the backup path the shadow tools leave behind when
// rewriting the passwd or group file.
func fileBackupPath(path string) string {
	return fmt.Sprintf("%s-", path)
}
