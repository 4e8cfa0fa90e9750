package repository

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/oops"
)

var alternateSuffix = regexp.MustCompile(`-(\d+)$`)

// FileStorage implements DuplicateResolver against the local filesystem.
type FileStorage struct{}

// NewFileStorage creates a new filesystem-backed duplicate resolver.
func NewFileStorage() DuplicateResolver {
	return &FileStorage{}
}

func (s *FileStorage) Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// NextName inserts an incrementing "-<n>" before the extension and returns
// the first candidate not occupied by a file: "a.zip" -> "a-1.zip" -> "a-2.zip".
func (s *FileStorage) NextName(path string) string {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	for counter := 1; ; counter++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, counter, ext))
		if !s.Exists(candidate) {
			return candidate
		}
	}
}

// Reconcile checks the downloaded alternate against its predecessor name.
// Byte-identical copies are collapsed by removing the new file; the returned
// path is where the content lives afterwards.
func (s *FileStorage) Reconcile(downloadedPath string) (string, error) {
	prev, ok := predecessorName(downloadedPath)
	if !ok || !s.Exists(prev) {
		return downloadedPath, nil
	}

	same, err := sameContent(prev, downloadedPath)
	if err != nil {
		return downloadedPath, oops.With("path", downloadedPath).Wrap(err)
	}
	if !same {
		return downloadedPath, nil
	}

	if err := os.Remove(downloadedPath); err != nil {
		return downloadedPath, oops.With("path", downloadedPath, "context", "failed to remove duplicate file").Wrap(err)
	}
	return prev, nil
}

// predecessorName undoes one NextName step: "a-2.zip" -> "a-1.zip",
// "a-1.zip" -> "a.zip". Returns false when the name carries no counter.
func predecessorName(path string) (string, bool) {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	m := alternateSuffix.FindStringSubmatch(stem)
	if m == nil {
		return "", false
	}
	counter, err := strconv.Atoi(m[1])
	if err != nil || counter < 1 {
		return "", false
	}

	base := strings.TrimSuffix(stem, m[0])
	if counter == 1 {
		return filepath.Join(dir, base+ext), true
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, counter-1, ext)), true
}

func sameContent(a, b string) (bool, error) {
	hashA, err := fileMD5(a)
	if err != nil {
		return false, err
	}
	hashB, err := fileMD5(b)
	if err != nil {
		return false, err
	}
	return hashA == hashB, nil
}

func fileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := md5.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
