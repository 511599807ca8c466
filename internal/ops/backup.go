package ops

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"goaltrack/internal/model"
	"goaltrack/internal/store"
)

const maxEntrySize = 64 << 20

// entries maps archive names to store keys, in archive order.
var entries = []struct {
	name string
	key  string
}{
	{"goals.json", store.GoalsKey},
	{"tasks.json", store.TasksKey},
}

// Export writes the raw goal and task blobs to w as a tar.gz archive.
// Collections that were never written are stored as an empty array.
func Export(ctx context.Context, blobs store.BlobStore, w io.Writer) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	now := time.Now().UTC()
	for _, e := range entries {
		b, ok, err := blobs.Get(ctx, e.key)
		if err != nil {
			return fmt.Errorf("read %s: %w", e.key, err)
		}
		if !ok {
			b = []byte("[]")
		}
		hdr := &tar.Header{
			Name:     e.name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(b)),
			ModTime:  now,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if _, err := tw.Write(b); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

// Import reads an archive produced by Export and writes its collections to
// blobs. Every entry is checked before anything is written; a collection that
// is not a JSON array aborts the import.
func Import(ctx context.Context, r io.Reader, blobs store.BlobStore) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	defer gz.Close()

	found := map[string][]byte{}
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		name, err := sanitizeArchiveRelPath(hdr.Name)
		if err != nil {
			return err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		key, ok := keyFor(name)
		if !ok {
			// Ignore unknown entries.
			continue
		}
		b, err := io.ReadAll(io.LimitReader(tr, maxEntrySize+1))
		if err != nil {
			return err
		}
		if len(b) > maxEntrySize {
			return fmt.Errorf("archive entry too large: %s", name)
		}
		found[key] = b
	}

	if b, ok := found[store.GoalsKey]; ok {
		if _, _, err := model.DecodeGoals(b); err != nil {
			return fmt.Errorf("goals.json: %w", err)
		}
	}
	if b, ok := found[store.TasksKey]; ok {
		if _, _, err := model.DecodeTasks(b); err != nil {
			return fmt.Errorf("tasks.json: %w", err)
		}
	}
	if len(found) == 0 {
		return fmt.Errorf("archive holds no goals.json or tasks.json")
	}

	for _, e := range entries {
		b, ok := found[e.key]
		if !ok {
			continue
		}
		if err := blobs.Put(ctx, e.key, b); err != nil {
			return fmt.Errorf("write %s: %w", e.key, err)
		}
	}
	return nil
}

// Digest hashes both collections so two stores can be compared.
func Digest(ctx context.Context, blobs store.BlobStore) (string, error) {
	h := sha256.New()
	for _, e := range entries {
		b, ok, err := blobs.Get(ctx, e.key)
		if err != nil {
			return "", err
		}
		if !ok {
			b = []byte("[]")
		}
		_, _ = io.WriteString(h, e.name)
		_, _ = io.WriteString(h, "\n")
		_, _ = h.Write(b)
		_, _ = io.WriteString(h, "\n")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Drill exports blobs, imports the archive into a fresh memory store and
// checks both digests agree. It returns the digest and archive size.
func Drill(ctx context.Context, blobs store.BlobStore) (string, int, error) {
	var buf strings.Builder
	if err := Export(ctx, blobs, &buf); err != nil {
		return "", 0, err
	}
	restored := store.NewMemoryBlobs()
	if err := Import(ctx, strings.NewReader(buf.String()), restored); err != nil {
		return "", 0, err
	}

	src, err := Digest(ctx, blobs)
	if err != nil {
		return "", 0, err
	}
	dst, err := Digest(ctx, restored)
	if err != nil {
		return "", 0, err
	}
	if src != dst {
		return "", 0, fmt.Errorf("digest mismatch after restore: src=%s restored=%s", src, dst)
	}
	return src, buf.Len(), nil
}

func keyFor(name string) (string, bool) {
	for _, e := range entries {
		if e.name == name {
			return e.key, true
		}
	}
	return "", false
}

func sanitizeArchiveRelPath(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("invalid archive entry path")
	}
	if strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("invalid absolute archive entry path: %s", name)
	}
	name = path.Clean(name)
	if name == "." {
		return "", fmt.Errorf("invalid archive entry path")
	}
	if name == ".." || strings.HasPrefix(name, "../") {
		return "", fmt.Errorf("invalid archive entry path traversal: %s", name)
	}
	return name, nil
}
