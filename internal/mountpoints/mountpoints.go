// Package mountpoints detects which directory, if any, a path is mount-backed by.
package mountpoints

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/ubuntu/decorate"
	"github.com/zjuthesis/entrypoint/log"
)

// MountInfoFile is the default mountinfo file of the current process.
const MountInfoFile = "/proc/self/mountinfo"

type options struct {
	// mountInfoPath is the path used to read the mount table. Defaults to
	// [MountInfoFile], but can be overwritten in tests.
	mountInfoPath string
}

var defaultOptions = options{
	mountInfoPath: MountInfoFile,
}

// Option represents an optional function to override mountpoints default values.
type Option func(*options)

// WithMountInfoPath overrides the default path of the mountinfo file.
func WithMountInfoPath(path string) Option {
	return func(o *options) {
		o.mountInfoPath = path
	}
}

// Points returns the mount points visible to the current process, in mount
// table order.
func Points(args ...Option) ([]string, error) {
	opts := defaultOptions
	for _, arg := range args {
		arg(&opts)
	}

	return parseMountInfo(opts.mountInfoPath)
}

// NearestMount walks from path through its parent directories, inclusive of
// path itself, and returns the first mount point found. Reaching the
// filesystem root without a match means the path is not mount-backed: the root
// itself is never matched. The walk is a pure string comparison against the
// mount table, so path does not need to exist.
func NearestMount(path string, args ...Option) (string, bool, error) {
	points, err := Points(args...)
	if err != nil {
		return "", false, err
	}

	if !filepath.IsAbs(path) {
		return "", false, fmt.Errorf("path %q is not absolute", path)
	}

	for p := filepath.Clean(path); p != "/"; p = filepath.Dir(p) {
		if slices.Contains(points, p) {
			log.Debugf(context.Background(), "Found mount point %q for path %q", p, path)
			return p, true, nil
		}
	}

	return "", false, nil
}

func parseMountInfo(mountInfoPath string) (points []string, err error) {
	defer decorate.OnError(&err, "could not parse mountinfo file %s", mountInfoPath)

	log.Debugf(context.Background(), "Parsing mountinfo file: %s", mountInfoPath)

	f, err := os.Open(mountInfoPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// The format of a mountinfo line is:
	// 36 35 98:0 /mnt1 /mnt2 rw,noatime master:1 - ext3 /dev/root rw
	// The mount point is the fifth field, with spaces, tabs, newlines and
	// backslashes octal-escaped.
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Split(line, " ")
		if len(fields) < 5 {
			return nil, fmt.Errorf("malformed mountinfo entry (should have at least 5 fields, got %d): %q", len(fields), line)
		}

		point, err := unescapeOctal(fields[4])
		if err != nil {
			return nil, fmt.Errorf("malformed mount point in entry %q: %w", line, err)
		}

		points = append(points, point)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return points, nil
}

// unescapeOctal reverses the \ooo escaping the kernel applies to whitespace
// and backslashes in mountinfo path fields.
func unescapeOctal(s string) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			sb.WriteByte(s[i])
			continue
		}
		if i+3 >= len(s) {
			return "", fmt.Errorf("truncated octal escape in %q", s)
		}
		code, err := strconv.ParseUint(s[i+1:i+4], 8, 8)
		if err != nil {
			return "", fmt.Errorf("invalid octal escape in %q: %w", s, err)
		}
		sb.WriteByte(byte(code))
		i += 3
	}
	return sb.String(), nil
}
