package destination

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"audioextract/internal/fileutil"
	"audioextract/internal/logging"
	"audioextract/internal/services"
)

const (
	lockFileName  = ".audioextract.lock"
	pendingSuffix = ".pending"
	lockRetry     = 50 * time.Millisecond
	maxCollisions = 10000
)

// Ref is a durable reference to a committed artifact.
type Ref struct {
	URI       string
	MediaType string
}

// Path returns the local filesystem path behind the reference.
func (r Ref) Path() string {
	u, err := url.Parse(r.URI)
	if err != nil || u.Scheme != "file" {
		return ""
	}
	return filepath.FromSlash(u.Path)
}

// IsZero reports whether the reference is unset.
func (r Ref) IsZero() bool { return r.URI == "" }

func refFor(path, mediaType string) Ref {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return Ref{URI: u.String(), MediaType: mediaType}
}

// Writer commits artifacts into one resolved directory.
type Writer struct {
	resolve func() (string, error)
	logger  *slog.Logger
}

// New returns a Writer for policy. The target directory is resolved and
// checked on every write, so a destination that disappears mid-batch fails
// only the affected inputs.
func New(policy Policy, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = logging.NewNop()
	}
	w := &Writer{logger: logger}
	switch policy.Kind {
	case UserChosenTree:
		w.resolve = func() (string, error) { return resolveTree(policy.Root, policy.Subfolder) }
	default:
		w.resolve = func() (string, error) { return resolveDefault(policy.DownloadsDir) }
	}
	return w
}

// Dir resolves and returns the target directory.
func (w *Writer) Dir() (string, error) {
	return w.resolve()
}

// Area returns a Writer rooted at the named subdirectory of this writer's
// directory, created on demand.
func (w *Writer) Area(sub string) *Writer {
	parent := w.resolve
	return &Writer{
		logger: w.logger,
		resolve: func() (string, error) {
			dir, err := parent()
			if err != nil {
				return "", err
			}
			return ensureSubdir(dir, sub)
		},
	}
}

// Write copies src into the target directory as name. The final entry only
// appears once every byte has been written.
func (w *Writer) Write(ctx context.Context, src, name, mediaType string) (Ref, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return Ref{}, services.Wrap(services.ErrDestinationUnavailable, "resolve", "validate name", fmt.Sprintf("invalid file name %q", name), nil)
	}

	dir, err := w.resolve()
	if err != nil {
		return Ref{}, err
	}

	in, err := os.Open(src)
	if err != nil {
		return Ref{}, services.Wrap(services.ErrDestinationUnavailable, "resolve", "open artifact", src, err)
	}
	defer in.Close()

	lock := flock.New(filepath.Join(dir, lockFileName))
	locked, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil || !locked {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Ref{}, ctxErr
		}
		return Ref{}, services.Wrap(services.ErrDestinationUnavailable, "resolve", "lock directory", dir, err)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	final, err := uniqueName(dir, name)
	if err != nil {
		return Ref{}, services.Wrap(services.ErrDestinationUnavailable, "resolve", "choose name", name, err)
	}
	finalPath := filepath.Join(dir, final)
	pendingPath := filepath.Join(dir, "."+final+pendingSuffix)

	pending, err := os.OpenFile(pendingPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Ref{}, services.Wrap(services.ErrDestinationUnavailable, "resolve", "create pending entry", pendingPath, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(pendingPath)
		}
	}()

	written, copyErr := fileutil.Copy(ctx, pending, in)
	if copyErr == nil {
		copyErr = pending.Sync()
	}
	closeErr := pending.Close()
	if copyErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Ref{}, ctxErr
		}
		return Ref{}, services.Wrap(services.ErrDestinationUnavailable, "resolve", "write artifact", finalPath, copyErr)
	}
	if closeErr != nil {
		return Ref{}, services.Wrap(services.ErrDestinationUnavailable, "resolve", "close artifact", finalPath, closeErr)
	}
	if err := os.Rename(pendingPath, finalPath); err != nil {
		return Ref{}, services.Wrap(services.ErrDestinationUnavailable, "resolve", "commit artifact", finalPath, err)
	}
	committed = true

	logging.WithContext(ctx, w.logger).Debug("artifact committed",
		logging.String("path", finalPath),
		logging.Int64("bytes", written),
		logging.String("media_type", mediaType),
		logging.String(logging.FieldEventType, "artifact_committed"),
	)
	return refFor(finalPath, mediaType), nil
}

func resolveTree(root, subfolder string) (string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return "", services.Wrap(services.ErrDestinationUnavailable, "resolve", "", "no destination folder selected", nil)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", services.Wrap(services.ErrDestinationUnavailable, "resolve", "open folder", root, err)
	}
	if !info.IsDir() {
		return "", services.Wrap(services.ErrDestinationUnavailable, "resolve", "open folder", root+" is not a directory", nil)
	}
	if err := unix.Access(root, unix.W_OK|unix.X_OK); err != nil {
		return "", services.Wrap(services.ErrDestinationUnavailable, "resolve", "open folder", root+" is not writable", err)
	}
	if strings.TrimSpace(subfolder) == "" {
		return root, nil
	}
	return ensureSubdir(root, subfolder)
}

func resolveDefault(override string) (string, error) {
	dir := filepath.Join(downloadsDir(override), DefaultSubfolder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrDestinationUnavailable, "resolve", "create folder", dir, err)
	}
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		return "", services.Wrap(services.ErrDestinationUnavailable, "resolve", "open folder", dir+" is not writable", err)
	}
	return dir, nil
}

func ensureSubdir(parent, sub string) (string, error) {
	sub = strings.TrimSpace(sub)
	if sub == "" {
		return parent, nil
	}
	if sub == "." || sub == ".." || strings.ContainsAny(sub, `/\`) {
		return "", services.Wrap(services.ErrDestinationUnavailable, "resolve", "create folder", fmt.Sprintf("invalid folder name %q", sub), nil)
	}
	dir := filepath.Join(parent, sub)
	if err := os.Mkdir(dir, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return "", services.Wrap(services.ErrDestinationUnavailable, "resolve", "create folder", dir, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", services.Wrap(services.ErrDestinationUnavailable, "resolve", "open folder", dir, err)
	}
	if !info.IsDir() {
		return "", services.Wrap(services.ErrDestinationUnavailable, "resolve", "open folder", dir+" is not a directory", nil)
	}
	return dir, nil
}

// uniqueName returns name, or "stem (n).ext" for the first n not yet taken.
// Pending entries count as taken. Callers hold the directory lock.
func uniqueName(dir, name string) (string, error) {
	stem, ext := splitName(name)
	for n := 0; n <= maxCollisions; n++ {
		candidate := name
		if n > 0 {
			candidate = stem + " (" + strconv.Itoa(n) + ")" + ext
		}
		taken, err := exists(filepath.Join(dir, candidate))
		if err != nil {
			return "", err
		}
		if taken {
			continue
		}
		if taken, err = exists(filepath.Join(dir, "."+candidate+pendingSuffix)); err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("too many files named %q", name)
}

func splitName(name string) (string, string) {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 {
		return name, ""
	}
	return name[:idx], name[idx:]
}

func exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
