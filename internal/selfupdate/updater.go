package selfupdate

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

var (
	ErrDevBuild      = errors.New("cannot update a development build")
	ErrAlreadyLatest = errors.New("already running the latest version")
	ErrChecksum      = errors.New("checksum verification failed")
)

type UpdateInput struct {
	CurrentVersion string
	TargetVersion  string
}

type UpdateProgress struct {
	Stage   string
	Message string
}

// Update replaces the running binary with the release at TargetVersion, or
// with the latest release when no target is given.
func (c *Checker) Update(ctx context.Context, input *UpdateInput, progress func(UpdateProgress)) error {
	if input.CurrentVersion == "(devel)" {
		return ErrDevBuild
	}

	tag := input.TargetVersion
	if tag == "" {
		progress(UpdateProgress{Stage: "check", Message: "Checking for latest version..."})
		result, err := c.Check(ctx, &CheckInput{Version: input.CurrentVersion})
		if err != nil {
			return fmt.Errorf("check for updates: %w", err)
		}
		if !result.UpdateAvailable {
			return ErrAlreadyLatest
		}
		tag = result.LatestVersion
	}

	asset, err := releaseAsset(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return err
	}

	progress(UpdateProgress{Stage: "download", Message: fmt.Sprintf("Downloading %s...", tag)})
	archive, err := c.fetchRelease(ctx, tag, asset)
	if err != nil {
		return err
	}

	progress(UpdateProgress{Stage: "extract", Message: "Extracting binary..."})
	binary, err := untarBinary(archive)
	if err != nil {
		return fmt.Errorf("extract %s: %w", asset, err)
	}

	progress(UpdateProgress{Stage: "apply", Message: "Applying update..."})
	target, err := c.execPath()
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}
	if err := replaceExecutable(target, binary); err != nil {
		return fmt.Errorf("apply update: %w", err)
	}

	progress(UpdateProgress{Stage: "done", Message: fmt.Sprintf("Updated to %s", tag)})
	return nil
}

// releaseAsset maps the running platform to its goreleaser artifact.
// Releases ship a universal macOS binary and linux amd64/arm64 tarballs
// only; there is no Windows build, since the speaker backend does not
// support it.
func releaseAsset(goos, goarch string) (string, error) {
	if goos == "darwin" {
		return "kikitori_Darwin_all.tar.gz", nil
	}
	if goos == "linux" {
		switch goarch {
		case "amd64":
			return "kikitori_Linux_x86_64.tar.gz", nil
		case "arm64":
			return "kikitori_Linux_arm64.tar.gz", nil
		}
	}
	return "", fmt.Errorf("no release build for %s/%s", goos, goarch)
}

// fetchRelease downloads the asset and its checksums.txt from the release
// and returns the archive only if its sha256 matches.
func (c *Checker) fetchRelease(ctx context.Context, tag, asset string) ([]byte, error) {
	base := strings.TrimRight(c.downloadBaseURL, "/")
	releaseURL := func(name string) string {
		return fmt.Sprintf("%s/%s/%s/releases/download/%s/%s", base, c.owner, c.repo, tag, name)
	}

	archive, err := c.download(ctx, releaseURL(asset))
	if err != nil {
		return nil, fmt.Errorf("download archive: %w", err)
	}
	sums, err := c.download(ctx, releaseURL("checksums.txt"))
	if err != nil {
		return nil, fmt.Errorf("download checksums: %w", err)
	}

	want, ok := checksumFor(sums, asset)
	if !ok {
		return nil, fmt.Errorf("checksums.txt has no entry for %s", asset)
	}
	got := sha256.Sum256(archive)
	if hex.EncodeToString(got[:]) != want {
		return nil, fmt.Errorf("%w for %s", ErrChecksum, asset)
	}
	return archive, nil
}

func (c *Checker) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// checksumFor finds the sha256 hex for asset in a goreleaser checksums.txt
// ("<hex>  <filename>" per line).
func checksumFor(data []byte, asset string) (string, bool) {
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[1] == asset {
			return fields[0], true
		}
	}
	return "", false
}

// untarBinary pulls the kikitori executable out of a release tarball.
func untarBinary(archive []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, errors.New("no kikitori binary in archive")
		}
		if err != nil {
			return nil, fmt.Errorf("read tar: %w", err)
		}
		if hdr.Typeflag == tar.TypeReg && filepath.Base(hdr.Name) == "kikitori" {
			return io.ReadAll(tr)
		}
	}
}

// replaceExecutable swaps the binary at target atomically: write to a temp
// file in the same directory, re-read and hash-compare it, then rename over
// the original and restore its mode.
func replaceExecutable(target string, binary []byte) error {
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat target: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".kikitori-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(binary); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Re-read before the rename: the bytes on disk, not the bytes in
	// memory, are what ends up executing.
	written, err := os.ReadFile(tmpPath)
	if err != nil {
		return fmt.Errorf("re-read temp file: %w", err)
	}
	wantSum := sha256.Sum256(binary)
	gotSum := sha256.Sum256(written)
	if !bytes.Equal(wantSum[:], gotSum[:]) {
		return fmt.Errorf("%w: temp file changed between write and swap", ErrChecksum)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	if err := os.Chmod(target, info.Mode()); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	return nil
}
