// Package extract unpacks game archives into a directory.
package extract

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dsnet/compress/bzip2"
)

// Format is a detected archive container.
type Format int

const (
	Unknown Format = iota
	Zip
	Tar
	TarGzip
	TarBzip2
)

func (f Format) String() string {
	switch f {
	case Zip:
		return "zip"
	case Tar:
		return "tar"
	case TarGzip:
		return "tar.gz"
	case TarBzip2:
		return "tar.bz2"
	default:
		return "unknown"
	}
}

var (
	// ErrUnknownFormat is returned when no supported signature matches.
	ErrUnknownFormat = errors.New("unsupported archive format")
	// ErrUnsafePath is returned for entries that would escape the destination.
	ErrUnsafePath = errors.New("unsafe path in archive")
)

// Options controls extraction.
type Options struct {
	// StripTopLevel removes the single root directory shared by every entry.
	// Archives without such a root are extracted unchanged.
	StripTopLevel bool
}

// Detect identifies the archive format from its leading bytes.
func Detect(src io.ReaderAt, size int64) Format {
	head := make([]byte, 262)
	n, _ := src.ReadAt(head, 0)
	head = head[:n]
	switch {
	case bytes.HasPrefix(head, []byte("PK\x03\x04")), bytes.HasPrefix(head, []byte("PK\x05\x06")):
		return Zip
	case bytes.HasPrefix(head, []byte{0x1f, 0x8b}):
		return TarGzip
	case bytes.HasPrefix(head, []byte("BZh")):
		return TarBzip2
	case len(head) >= 262 && string(head[257:262]) == "ustar":
		return Tar
	}
	return Unknown
}

// Extract unpacks src into dest and returns the number of files written.
func Extract(src io.ReaderAt, size int64, dest string, opts Options) (int, error) {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return 0, fmt.Errorf("create destination: %w", err)
	}
	switch f := Detect(src, size); f {
	case Zip:
		return extractZip(src, size, dest, opts)
	case Tar, TarGzip, TarBzip2:
		return extractTar(src, size, f, dest, opts)
	default:
		return 0, ErrUnknownFormat
	}
}

// ExtractFile is Extract for an archive on disk.
func ExtractFile(archivePath, dest string, opts Options) (int, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return Extract(f, fi.Size(), dest, opts)
}

// SanitizePath normalizes an entry name to a relative slash path. Absolute
// names and ".." segments are rejected. An empty result means the entry
// names the archive root and should be skipped.
func SanitizePath(name string) (string, error) {
	s := strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(s, "/") || (len(s) > 1 && s[1] == ':') {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	parts := strings.Split(s, "/")
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, "/"), nil
}

// commonRoot returns the first segment shared by every name when it is a
// directory, or "" when the archive has no single root directory.
func commonRoot(names []string) string {
	root := ""
	nested := false
	for _, n := range names {
		first, rest, found := strings.Cut(n, "/")
		if root == "" {
			root = first
		} else if first != root {
			return ""
		}
		if found && rest != "" {
			nested = true
		}
	}
	if !nested {
		return ""
	}
	return root
}

func stripRoot(name, root string) string {
	if root == "" {
		return name
	}
	if name == root {
		return ""
	}
	return strings.TrimPrefix(name, root+"/")
}

// target resolves a sanitized entry name inside dest.
func target(dest, name string) string {
	return filepath.Join(dest, filepath.FromSlash(name))
}

func writeFile(dst string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	perm := mode.Perm()
	if perm == 0 {
		perm = 0644
	}
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm|0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// OpenFile honours the umask; apply the archive's bits explicitly.
	return os.Chmod(dst, perm|0600)
}

// writeSymlink creates a link whose target stays within dest.
func writeSymlink(dest, name, linkTarget string) error {
	resolved := path.Join(path.Dir(name), filepath.ToSlash(linkTarget))
	if path.IsAbs(linkTarget) || resolved == ".." || strings.HasPrefix(resolved, "../") {
		return fmt.Errorf("%w: link %q -> %q", ErrUnsafePath, name, linkTarget)
	}
	dst := target(dest, name)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	_ = os.Remove(dst)
	return os.Symlink(linkTarget, dst)
}

func extractZip(src io.ReaderAt, size int64, dest string, opts Options) (int, error) {
	zr, err := zip.NewReader(src, size)
	if err != nil {
		return 0, fmt.Errorf("open zip: %w", err)
	}

	names := make([]string, len(zr.File))
	for i, f := range zr.File {
		if names[i], err = SanitizePath(f.Name); err != nil {
			return 0, err
		}
	}
	root := ""
	if opts.StripTopLevel {
		root = commonRoot(names)
	}

	written := 0
	for i, f := range zr.File {
		name := stripRoot(names[i], root)
		if name == "" {
			continue
		}
		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target(dest, name), 0755); err != nil {
				return written, err
			}
		case mode&os.ModeSymlink != 0:
			link, err := readZipEntry(f)
			if err != nil {
				return written, err
			}
			if err := writeSymlink(dest, name, string(link)); err != nil {
				return written, err
			}
		default:
			rc, err := f.Open()
			if err != nil {
				return written, fmt.Errorf("open %s: %w", f.Name, err)
			}
			err = writeFile(target(dest, name), rc, mode)
			_ = rc.Close()
			if err != nil {
				return written, fmt.Errorf("write %s: %w", name, err)
			}
			written++
		}
	}
	return written, nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, 4096))
}

// openTar returns a tar reader over a fresh decompressor. Stripping needs two
// passes, so each pass opens its own.
func openTar(src io.ReaderAt, size int64, f Format) (*tar.Reader, io.Closer, error) {
	sr := io.NewSectionReader(src, 0, size)
	switch f {
	case TarGzip:
		gz, err := gzip.NewReader(sr)
		if err != nil {
			return nil, nil, fmt.Errorf("open gzip: %w", err)
		}
		return tar.NewReader(gz), gz, nil
	case TarBzip2:
		bz, err := bzip2.NewReader(sr, &bzip2.ReaderConfig{})
		if err != nil {
			return nil, nil, fmt.Errorf("open bzip2: %w", err)
		}
		return tar.NewReader(bz), bz, nil
	default:
		return tar.NewReader(sr), io.NopCloser(nil), nil
	}
}

func tarNames(src io.ReaderAt, size int64, f Format) ([]string, error) {
	tr, closer, err := openTar(src, size, f)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var names []string
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return names, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read tar: %w", err)
		}
		if hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}
		name, err := SanitizePath(hdr.Name)
		if err != nil {
			return nil, err
		}
		if name != "" {
			names = append(names, name)
		}
	}
}

func extractTar(src io.ReaderAt, size int64, f Format, dest string, opts Options) (int, error) {
	root := ""
	if opts.StripTopLevel {
		names, err := tarNames(src, size, f)
		if err != nil {
			return 0, err
		}
		root = commonRoot(names)
	}

	tr, closer, err := openTar(src, size, f)
	if err != nil {
		return 0, err
	}
	defer closer.Close()

	written := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return written, fmt.Errorf("read tar: %w", err)
		}
		clean, err := SanitizePath(hdr.Name)
		if err != nil {
			return written, err
		}
		name := stripRoot(clean, root)
		if name == "" {
			continue
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target(dest, name), 0755); err != nil {
				return written, err
			}
		case tar.TypeReg:
			if err := writeFile(target(dest, name), tr, hdr.FileInfo().Mode()); err != nil {
				return written, fmt.Errorf("write %s: %w", name, err)
			}
			written++
		case tar.TypeSymlink:
			if err := writeSymlink(dest, name, hdr.Linkname); err != nil {
				return written, err
			}
		default:
			// Hard links, devices and FIFOs are not part of game payloads.
		}
	}
}
