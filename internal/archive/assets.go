// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"context"
	"crypto/md5" //nolint:gosec // payload names are md5 content hashes
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultDigestCacheSize bounds the number of payload digests kept in memory.
const DefaultDigestCacheSize = 512

// AssetStore copies payload files into a workspace and deletes them from it.
// Payload names are "<md5>.<ext>"; digests are checked on copy and cached by
// path, size and modification time.
type AssetStore struct {
	dir     string
	digests *lru.Cache[string, string]
}

// NewAssetStore returns a store writing into the workspace directory.
func NewAssetStore(ws *Workspace, cacheSize int) (*AssetStore, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultDigestCacheSize
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create digest cache: %w", err)
	}
	return &AssetStore{dir: ws.Dir, digests: cache}, nil
}

// Copy brings srcDir/filename into the workspace. A destination that already
// holds identical content is left alone.
func (s *AssetStore) Copy(ctx context.Context, srcDir, filename string) error {
	if err := validPayloadName(filename); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := log.FromContext(ctx)
	src := filepath.Join(srcDir, filename)
	dst := filepath.Join(s.dir, filename)

	srcDigest, err := s.Digest(src)
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}
	if want := expectedDigest(filename); want != "" && want != srcDigest {
		logger.Warn("payload content does not match its name", "file", filename, "md5", srcDigest)
	}
	if dstDigest, err := s.Digest(dst); err == nil && dstDigest == srcDigest {
		logger.Debug("payload already present", "file", filename)
		return nil
	}

	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("failed to copy payload %s: %w", filename, err)
	}
	logger.Debug("payload copied", "file", filename)
	return nil
}

// Remove deletes filename from the workspace. A missing file is not an error.
func (s *AssetStore) Remove(ctx context.Context, filename string) error {
	if err := validPayloadName(filename); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, filename)); err != nil && !isNotExist(err) {
		return fmt.Errorf("failed to remove payload %s: %w", filename, err)
	}
	log.FromContext(ctx).Debug("payload removed", "file", filename)
	return nil
}

// Digest returns the hex md5 of the file at path.
func (s *AssetStore) Digest(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	key := path + "\x00" + strconv.FormatInt(info.Size(), 10) + "\x00" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
	if sum, ok := s.digests.Get(key); ok {
		return sum, nil
	}
	sum, err := fileDigest(path)
	if err != nil {
		return "", err
	}
	s.digests.Add(key, sum)
	return sum, nil
}

func fileDigest(path string) (sum string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	h := md5.New() //nolint:gosec // content addressing, not security
	if _, err = io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := in.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	_, err = io.Copy(out, in)
	return err
}

// expectedDigest returns the md5 encoded in a payload name, or "" when the
// name is not content addressed.
func expectedDigest(filename string) string {
	stem, _, _ := strings.Cut(filename, ".")
	if len(stem) != hex.EncodedLen(md5.Size) {
		return ""
	}
	if _, err := hex.DecodeString(stem); err != nil {
		return ""
	}
	return strings.ToLower(stem)
}

func validPayloadName(filename string) error {
	if filename == "" || filename != filepath.Base(filename) || filename == "." || filename == ".." {
		return fmt.Errorf("invalid payload name %q", filename)
	}
	return nil
}
