package mountpoints_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zjuthesis/entrypoint/internal/mountpoints"
	"github.com/zjuthesis/entrypoint/internal/testutils/golden"
)

func TestPoints(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mountInfoFile string

		wantErr bool
	}{
		"Parses_container_mount_table": {mountInfoFile: "container.mountinfo"},

		"Error_on_malformed_entry": {mountInfoFile: "malformed.mountinfo", wantErr: true},
		"Error_on_missing_file":    {mountInfoFile: "does_not_exist.mountinfo", wantErr: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			points, err := mountpoints.Points(
				mountpoints.WithMountInfoPath(filepath.Join("testdata", tc.mountInfoFile)))
			if tc.wantErr {
				require.Error(t, err, "Points should have failed")
				return
			}
			require.NoError(t, err, "Points should not have failed")

			golden.CheckOrUpdateYAML(t, points)
		})
	}
}

func TestNearestMount(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		path          string
		mountInfoFile string

		wantPoint   string
		wantMounted bool
		wantErr     bool
	}{
		"Path_is_itself_a_mount_point":        {path: "/workspace", wantPoint: "/workspace", wantMounted: true},
		"Deep_path_below_a_mount_point":       {path: "/workspace/a/b/c", wantPoint: "/workspace", wantMounted: true},
		"Mount_point_with_escaped_space":      {path: "/mnt/with space/sub", wantPoint: "/mnt/with space", wantMounted: true},
		"Unclean_path_is_normalized":          {path: "/workspace/./a/../b/", wantPoint: "/workspace", wantMounted: true},
		"Path_under_no_mount_is_not_mounted":  {path: "/home/zjuer/data", mountInfoFile: "unmounted.mountinfo"},
		"Root_itself_never_counts_as_mounted": {path: "/unrelated"},
		"Nonexistent_path_is_still_walkable":  {path: "/workspace/never/created", wantPoint: "/workspace", wantMounted: true},

		"Error_on_relative_path":        {path: "relative/path", wantErr: true},
		"Error_on_malformed_mount_file": {path: "/workspace", mountInfoFile: "malformed.mountinfo", wantErr: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if tc.mountInfoFile == "" {
				tc.mountInfoFile = "container.mountinfo"
			}

			point, mounted, err := mountpoints.NearestMount(tc.path,
				mountpoints.WithMountInfoPath(filepath.Join("testdata", tc.mountInfoFile)))
			if tc.wantErr {
				require.Error(t, err, "NearestMount should have failed")
				return
			}
			require.NoError(t, err, "NearestMount should not have failed")
			require.Equal(t, tc.wantMounted, mounted, "NearestMount should report the expected mount status")
			require.Equal(t, tc.wantPoint, point, "NearestMount should return the expected mount point")
		})
	}
}
