package fileutils_test

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zjuthesis/entrypoint/internal/fileutils"
)

func TestFileExists(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		fileExists      bool
		parentDirIsFile bool

		wantExists bool
		wantError  bool
	}{
		"Returns_true_when_file_exists":                      {fileExists: true, wantExists: true},
		"Returns_false_when_file_does_not_exist":             {fileExists: false, wantExists: false},
		"Returns_false_when_parent_directory_does_not_exist": {fileExists: false, wantExists: false},

		"Error_when_parent_directory_is_a_file": {parentDirIsFile: true, wantError: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			tempDir := t.TempDir()
			path := filepath.Join(tempDir, "file")
			if tc.fileExists {
				err := os.WriteFile(path, nil, 0600)
				require.NoError(t, err, "Setup: could not create file")
			}
			if tc.parentDirIsFile {
				err := os.WriteFile(path, nil, 0600)
				require.NoError(t, err, "Setup: could not create file")
				path = filepath.Join(tempDir, "file", "file")
			}

			exists, err := fileutils.FileExists(path)
			if tc.wantError {
				require.Error(t, err, "FileExists should return an error")
			} else {
				require.NoError(t, err, "FileExists should not return an error")
			}
			require.Equal(t, tc.wantExists, exists, "FileExists should return the expected result")
		})
	}
}

func TestCopyFile(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		srcMissing  bool
		destIsDir   bool
		mode        os.FileMode
		wantContent string

		wantError bool
	}{
		"Copies_content_and_mode":             {mode: 0644, wantContent: "some content"},
		"Copies_content_with_tight_mode":      {mode: 0600, wantContent: "some content"},
		"Error_when_source_does_not_exist":    {srcMissing: true, wantError: true},
		"Error_when_destination_not_writable": {destIsDir: true, mode: 0644, wantError: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			tempDir := t.TempDir()
			src := filepath.Join(tempDir, "src")
			dest := filepath.Join(tempDir, "dest")
			if !tc.srcMissing {
				err := os.WriteFile(src, []byte(tc.wantContent), tc.mode)
				require.NoError(t, err, "Setup: could not create source file")
			}
			if tc.destIsDir {
				err := os.Mkdir(dest, 0700)
				require.NoError(t, err, "Setup: could not create destination dir")
			}

			err := fileutils.CopyFile(src, dest)
			if tc.wantError {
				require.Error(t, err, "CopyFile should return an error")
				return
			}
			require.NoError(t, err, "CopyFile should not return an error")

			content, err := os.ReadFile(dest)
			require.NoError(t, err, "Copied file should be readable")
			require.Equal(t, tc.wantContent, string(content), "Copied content should match")

			info, err := os.Stat(dest)
			require.NoError(t, err, "Copied file should stat")
			require.Equal(t, tc.mode, info.Mode(), "Copied mode should match")
		})
	}
}

func TestLrename(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		destIsSymlink       bool
		destIsBrokenSymlink bool

		wantError      bool
		wantSymlinkErr bool
	}{
		"Renames_to_plain_destination":             {},
		"Renames_through_symlinked_destination":    {destIsSymlink: true},
		"Error_when_destination_symlink_is_broken": {destIsBrokenSymlink: true, wantError: true, wantSymlinkErr: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			tempDir := t.TempDir()
			oldPath := filepath.Join(tempDir, "old")
			err := os.WriteFile(oldPath, []byte("content"), 0600)
			require.NoError(t, err, "Setup: could not create source file")

			newPath := filepath.Join(tempDir, "new")
			target := filepath.Join(tempDir, "target")
			if tc.destIsSymlink {
				err := os.WriteFile(target, nil, 0600)
				require.NoError(t, err, "Setup: could not create symlink target")
				err = os.Symlink(target, newPath)
				require.NoError(t, err, "Setup: could not create symlink")
			}
			if tc.destIsBrokenSymlink {
				err := os.Symlink(filepath.Join(tempDir, "does-not-exist"), newPath)
				require.NoError(t, err, "Setup: could not create broken symlink")
			}

			err = fileutils.Lrename(oldPath, newPath)
			if tc.wantError {
				require.Error(t, err, "Lrename should return an error")
				if tc.wantSymlinkErr {
					require.ErrorIs(t, err, fileutils.SymlinkResolutionError{}, "Lrename should return a SymlinkResolutionError")
				}
				return
			}
			require.NoError(t, err, "Lrename should not return an error")

			renamedPath := newPath
			if tc.destIsSymlink {
				renamedPath = target
			}
			content, err := os.ReadFile(renamedPath)
			require.NoError(t, err, "Renamed file should be readable")
			require.Equal(t, "content", string(content), "Renamed content should match")
		})
	}
}

func TestChownRecursive(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("Skipping: running as root would actually change ownership")
	}

	root := t.TempDir()
	err := os.MkdirAll(filepath.Join(root, "sub", "subsub"), 0700)
	require.NoError(t, err, "Setup: could not create tree")
	err = os.WriteFile(filepath.Join(root, "sub", "file"), []byte("data"), 0600)
	require.NoError(t, err, "Setup: could not create file")

	// Chowning to our own IDs is a no-op the kernel accepts without privileges.
	err = fileutils.ChownRecursive(root, os.Getuid(), os.Getgid())
	require.NoError(t, err, "ChownRecursive should not return an error")

	for _, path := range []string{root, filepath.Join(root, "sub"), filepath.Join(root, "sub", "subsub"), filepath.Join(root, "sub", "file")} {
		info, err := os.Stat(path)
		require.NoError(t, err, "Entry should stat after chown")
		stat, ok := info.Sys().(*syscall.Stat_t)
		require.True(t, ok, "Stat_t should be available")
		require.Equal(t, uint32(os.Getuid()), stat.Uid, "Every entry should be owned by the target UID")
		require.Equal(t, uint32(os.Getgid()), stat.Gid, "Every entry should be owned by the target GID")
	}

	err = fileutils.ChownRecursive(filepath.Join(root, "does-not-exist"), os.Getuid(), os.Getgid())
	require.Error(t, err, "ChownRecursive should fail on a missing root")
}

func TestChownRecursiveReownsForeignEntries(t *testing.T) {
	t.Parallel()

	if os.Geteuid() != 0 {
		t.Skip("Skipping: changing ownership to foreign IDs requires UID 0")
	}

	root := t.TempDir()
	foreign := filepath.Join(root, "foreign")
	err := os.WriteFile(foreign, []byte("data"), 0600)
	require.NoError(t, err, "Setup: could not create file")
	err = os.Lchown(foreign, 5555, 5555)
	require.NoError(t, err, "Setup: could not assign foreign owner")

	err = fileutils.ChownRecursive(root, 1000, 1000)
	require.NoError(t, err, "ChownRecursive should not return an error")

	info, err := os.Stat(foreign)
	require.NoError(t, err, "File should stat after chown")
	stat, ok := info.Sys().(*syscall.Stat_t)
	require.True(t, ok, "Stat_t should be available")
	require.Equal(t, uint32(1000), stat.Uid, "Foreign-owned file should be re-owned")
	require.Equal(t, uint32(1000), stat.Gid, "Foreign-owned file group should be re-owned")
}
