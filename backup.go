package lexigo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/lexigo/blobstore"
	"github.com/hupe1980/lexigo/codec"
	"github.com/hupe1980/lexigo/internal/kv"
	"github.com/hupe1980/lexigo/internal/resource"
)

const (
	backupFormatVersion = 1
	manifestName        = "manifest.json"
	blobSuffix          = ".zst"
)

// BackupOptions tunes Backup and Restore.
type BackupOptions struct {
	// Prefix is the blob name prefix backups live under. Default "backups/".
	Prefix string

	// Concurrency is the number of files transferred in parallel. Default 4.
	Concurrency int

	// BytesPerSecond throttles reads from and writes to the local disk.
	// Zero means unlimited.
	BytesPerSecond int64

	// MemoryLimitBytes caps the file data buffered at once. Default 64 MiB.
	MemoryLimitBytes int64

	// Logger is used by Restore and ListBackups, which run without a
	// database. Backup logs through the database's logger.
	Logger *Logger
}

// BackupFile describes one file of a backup.
type BackupFile struct {
	Name           string `json:"name"`
	Size           int64  `json:"size"`
	CompressedSize int64  `json:"compressedSize"`
	// Checksum is the xxhash64 of the uncompressed file.
	Checksum uint64 `json:"checksum"`
}

// BackupInfo is the manifest of a completed backup.
type BackupInfo struct {
	ID        string       `json:"id"`
	Version   int          `json:"version"`
	CreatedAt time.Time    `json:"createdAt"`
	Stats     Stats        `json:"stats"`
	Files     []BackupFile `json:"files"`
}

// Size returns the total uncompressed size of the backup.
func (b BackupInfo) Size() int64 {
	var n int64
	for _, f := range b.Files {
		n += f.Size
	}
	return n
}

func defaultBackupOptions(optFns []func(*BackupOptions)) BackupOptions {
	o := BackupOptions{
		Prefix:           "backups/",
		Concurrency:      4,
		MemoryLimitBytes: 64 << 20,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.Prefix != "" && !strings.HasSuffix(o.Prefix, "/") {
		o.Prefix += "/"
	}
	if o.Logger == nil {
		o.Logger = NoopLogger()
	}
	return o
}

func (o BackupOptions) controller() *resource.Controller {
	return resource.NewController(resource.Config{
		MemoryLimitBytes: o.MemoryLimitBytes,
		MaxWorkers:       int64(o.Concurrency),
		BytesPerSecond:   o.BytesPerSecond,
	})
}

func (o BackupOptions) blobName(id, file string) string {
	return o.Prefix + id + "/" + file
}

// Backup copies a point-in-time checkpoint of the database to store.
// Writers are paused only while the checkpoint is taken; the upload runs
// concurrently with further writes.
//
// Example:
//
//	info, err := db.Backup(ctx, blobstore.NewLocalStore("/backups"), func(o *lexigo.BackupOptions) {
//	    o.Concurrency = 8
//	    o.BytesPerSecond = 50 << 20
//	})
func (db *Lexigo[T]) Backup(ctx context.Context, store blobstore.Store, optFns ...func(*BackupOptions)) (info BackupInfo, err error) {
	o := defaultBackupOptions(optFns)
	info = BackupInfo{
		ID:      uuid.NewString(),
		Version: backupFormatVersion,
	}
	defer func() {
		db.logger.LogBackup(ctx, info.ID, len(info.Files), info.Size(), err)
	}()

	fs, dir, cleanup, err := db.checkpoint(ctx, &info)
	if err != nil {
		return info, err
	}
	defer cleanup()

	names, err := fs.List(dir)
	if err != nil {
		return info, fmt.Errorf("%w: list checkpoint: %w", ErrStorage, err)
	}
	slices.Sort(names)

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return info, err
	}
	defer enc.Close()

	type localFile struct {
		name string
		size int64
	}
	var todo []localFile
	for _, name := range names {
		st, err := fs.Stat(fs.PathJoin(dir, name))
		if err != nil {
			return info, fmt.Errorf("%w: stat %s: %w", ErrStorage, name, err)
		}
		if !st.IsDir() {
			todo = append(todo, localFile{name: name, size: st.Size()})
		}
	}

	rc := o.controller()
	files := make([]BackupFile, 0, len(todo))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, lf := range todo {
		if err := rc.AcquireWorker(gctx); err != nil {
			break
		}
		if err := rc.AcquireMemory(gctx, lf.size); err != nil {
			rc.ReleaseWorker()
			break
		}
		g.Go(func() error {
			defer rc.ReleaseWorker()
			defer rc.ReleaseMemory(lf.size)

			f, err := uploadFile(gctx, fs, fs.PathJoin(dir, lf.name), lf.name, store, o.blobName(info.ID, lf.name+blobSuffix), enc, rc)
			if err != nil {
				return err
			}
			mu.Lock()
			files = append(files, f)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return info, err
	}
	if err := ctx.Err(); err != nil {
		return info, err
	}

	slices.SortFunc(files, func(a, b BackupFile) int { return strings.Compare(a.Name, b.Name) })
	info.Files = files

	manifest, err := codec.Default.Marshal(info)
	if err != nil {
		return info, err
	}
	if err := store.Put(ctx, o.blobName(info.ID, manifestName), manifest); err != nil {
		return info, fmt.Errorf("backup %s: write manifest: %w", info.ID, err)
	}
	return info, nil
}

// checkpoint takes a pebble checkpoint while holding the writer slot so that
// the recorded stats match the files exactly.
func (db *Lexigo[T]) checkpoint(ctx context.Context, info *BackupInfo) (vfs.FS, string, func(), error) {
	fs := db.kv.FS()

	var (
		dest    string
		cleanup func()
	)
	if fs == vfs.Default {
		parent, err := os.MkdirTemp("", "lexigo-backup-")
		if err != nil {
			return nil, "", nil, err
		}
		dest = filepath.Join(parent, "checkpoint")
		cleanup = func() { _ = os.RemoveAll(parent) }
	} else {
		dest = fs.PathJoin("checkpoints", info.ID)
		cleanup = func() { _ = fs.RemoveAll(dest) }
	}

	err := db.kv.Update(ctx, func(tx *kv.WriteTx) error {
		st, err := db.stats(tx)
		if err != nil {
			return err
		}
		info.Stats = st
		info.CreatedAt = time.Now().UTC()
		return db.kv.Checkpoint(dest)
	})
	if err != nil {
		cleanup()
		return nil, "", nil, translateError(err)
	}
	return fs, dest, cleanup, nil
}

func uploadFile(ctx context.Context, fs vfs.FS, p, name string, store blobstore.Store, blob string, enc *zstd.Encoder, rc *resource.Controller) (BackupFile, error) {
	f, err := fs.Open(p)
	if err != nil {
		return BackupFile{}, fmt.Errorf("%w: open %s: %w", ErrStorage, name, err)
	}
	defer f.Close()

	raw, err := io.ReadAll(resource.NewRateLimitedReader(ctx, f, rc))
	if err != nil {
		return BackupFile{}, fmt.Errorf("%w: read %s: %w", ErrStorage, name, err)
	}
	compressed := enc.EncodeAll(raw, nil)

	if err := store.Put(ctx, blob, compressed); err != nil {
		return BackupFile{}, fmt.Errorf("upload %s: %w", name, err)
	}
	return BackupFile{
		Name:           name,
		Size:           int64(len(raw)),
		CompressedSize: int64(len(compressed)),
		Checksum:       xxhash.Sum64(raw),
	}, nil
}

// Restore downloads backup backupID from store into dir, which must be
// empty or not exist. The restored directory can be opened with Local(dir).
// It returns ErrNotFound if the backup has no manifest.
func Restore(ctx context.Context, store blobstore.Store, backupID, dir string, optFns ...func(*BackupOptions)) (info BackupInfo, err error) {
	o := defaultBackupOptions(optFns)
	defer func() {
		o.Logger.LogRestore(ctx, backupID, dir, err)
	}()

	info, err = readManifest(ctx, store, o.blobName(backupID, manifestName))
	if err != nil {
		return info, err
	}
	for _, f := range info.Files {
		if err := checkFileName(f.Name); err != nil {
			return info, fmt.Errorf("%w: backup %s: %w", ErrDecode, backupID, err)
		}
	}
	if err := ensureEmptyDir(dir); err != nil {
		return info, err
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return info, err
	}
	defer dec.Close()

	rc := o.controller()
	g, gctx := errgroup.WithContext(ctx)
	for _, f := range info.Files {
		if err := rc.AcquireWorker(gctx); err != nil {
			break
		}
		if err := rc.AcquireMemory(gctx, f.Size); err != nil {
			rc.ReleaseWorker()
			break
		}
		g.Go(func() error {
			defer rc.ReleaseWorker()
			defer rc.ReleaseMemory(f.Size)
			return restoreFile(gctx, store, o.blobName(backupID, f.Name+blobSuffix), filepath.Join(dir, f.Name), f, dec, rc)
		})
	}
	if err := g.Wait(); err != nil {
		return info, err
	}
	return info, ctx.Err()
}

func restoreFile(ctx context.Context, store blobstore.Store, blob, dest string, f BackupFile, dec *zstd.Decoder, rc *resource.Controller) error {
	compressed, err := store.Get(ctx, blob)
	if err != nil {
		return fmt.Errorf("download %s: %w", f.Name, err)
	}
	raw, err := dec.DecodeAll(compressed, make([]byte, 0, f.Size))
	if err != nil {
		return fmt.Errorf("%w: decompress %s: %w", ErrStorage, f.Name, err)
	}
	if int64(len(raw)) != f.Size || xxhash.Sum64(raw) != f.Checksum {
		return fmt.Errorf("%w: checksum mismatch for %s", ErrStorage, f.Name)
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(resource.NewRateLimitedWriter(ctx, out, rc), bytes.NewReader(raw)); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// checkFileName accepts only plain names. Checkpoints are flat, so anything
// with a path component did not come from Backup.
func checkFileName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name || filepath.IsAbs(name) {
		return fmt.Errorf("invalid file name %q", name)
	}
	return nil
}

func ensureEmptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return os.MkdirAll(dir, 0o755)
	case err != nil:
		return err
	case len(entries) > 0:
		return fmt.Errorf("restore target %s is not empty", dir)
	}
	return nil
}

func readManifest(ctx context.Context, store blobstore.Store, name string) (BackupInfo, error) {
	data, err := store.Get(ctx, name)
	if errors.Is(err, blobstore.ErrNotFound) {
		return BackupInfo{}, fmt.Errorf("%w: backup manifest %s", ErrNotFound, name)
	}
	if err != nil {
		return BackupInfo{}, err
	}
	var info BackupInfo
	if err := codec.Default.Unmarshal(data, &info); err != nil {
		return BackupInfo{}, fmt.Errorf("%w: manifest %s: %w", ErrDecode, name, err)
	}
	if info.Version != backupFormatVersion {
		return BackupInfo{}, fmt.Errorf("manifest %s: unsupported version %d", name, info.Version)
	}
	return info, nil
}

// ListBackups returns every completed backup in store, oldest first.
// Backups whose upload did not finish have no manifest and are not listed.
func ListBackups(ctx context.Context, store blobstore.Store, optFns ...func(*BackupOptions)) ([]BackupInfo, error) {
	o := defaultBackupOptions(optFns)

	names, err := store.List(ctx, o.Prefix)
	if err != nil {
		return nil, err
	}

	var out []BackupInfo
	for _, name := range names {
		if path.Base(name) != manifestName {
			continue
		}
		info, err := readManifest(ctx, store, name)
		if err != nil {
			o.Logger.WarnContext(ctx, "skipping unreadable backup manifest", "name", name, "error", err)
			continue
		}
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b BackupInfo) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// DeleteBackup removes backup backupID from store. The manifest goes first so
// that a partially deleted backup is never listed.
func DeleteBackup(ctx context.Context, store blobstore.Store, backupID string, optFns ...func(*BackupOptions)) error {
	o := defaultBackupOptions(optFns)

	info, err := readManifest(ctx, store, o.blobName(backupID, manifestName))
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, o.blobName(backupID, manifestName)); err != nil {
		return err
	}
	for _, f := range info.Files {
		if err := store.Delete(ctx, o.blobName(backupID, f.Name+blobSuffix)); err != nil {
			return err
		}
	}
	return nil
}
