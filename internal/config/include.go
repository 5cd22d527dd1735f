package config

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-getter"
	"github.com/hashicorp/go-safetemp"
)

// FetchIncludes resolves each include source to a local file path, in
// order. Relative paths are taken from baseDir. Remote sources (http, https,
// git, s3 and anything else go-getter understands) are downloaded once into
// cacheDir and reused from there on later loads.
func FetchIncludes(ctx context.Context, baseDir string, sources []string, cacheDir string) ([]string, error) {
	out := make([]string, 0, len(sources))
	for _, src := range sources {
		p, err := resolveInclude(ctx, baseDir, src, cacheDir)
		if err != nil {
			return nil, fmt.Errorf("include %q: %w", src, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func resolveInclude(ctx context.Context, baseDir, source, cacheDir string) (string, error) {
	s := strings.TrimSpace(source)
	if s == "" {
		return "", fmt.Errorf("empty include source")
	}
	if isLocalInclude(s) {
		p := strings.TrimPrefix(s, "file://")
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		if fi, err := os.Stat(p); err != nil || fi.IsDir() {
			return "", fmt.Errorf("no command pack at %s", p)
		}
		return p, nil
	}

	if cacheDir == "" {
		return "", fmt.Errorf("remote command packs need an include cache directory")
	}
	if err := os.MkdirAll(cacheDir, 0o700); err != nil {
		return "", fmt.Errorf("include cache: %w", err)
	}
	cached := filepath.Join(cacheDir, packKey(s)+".hcl")
	if fi, err := os.Stat(cached); err == nil && !fi.IsDir() {
		return cached, nil
	}
	stage, cleanup, err := safetemp.Dir(cacheDir, "include-")
	if err != nil {
		return "", fmt.Errorf("stage command pack: %w", err)
	}
	defer func() { _ = cleanup.Close() }()

	staged := filepath.Join(stage, "pack.hcl")
	client := &getter.Client{
		Ctx:     ctx,
		Src:     s,
		Dst:     staged,
		Mode:    getter.ClientModeFile,
		Getters: packGetters(),
	}
	if err := client.Get(); err != nil {
		return "", fmt.Errorf("download command pack: %w", err)
	}
	if err := os.Rename(staged, cached); err != nil {
		return "", fmt.Errorf("store command pack: %w", err)
	}
	return cached, nil
}

// packGetters lists the transports a command pack may come from. Both HTTP
// schemes share one non-pooled cleanhttp client.
func packGetters() map[string]getter.Getter {
	web := &getter.HttpGetter{Netrc: true, Client: cleanhttp.DefaultClient()}
	return map[string]getter.Getter{
		"http":  web,
		"https": web,
		"git":   &getter.GitGetter{},
		"s3":    &getter.S3Getter{},
		"file":  &getter.FileGetter{Copy: true},
	}
}

// packKey names the cache entry of a remote source.
func packKey(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:12])
}

// isLocalInclude treats anything without a scheme or forced getter as a
// path relative to the configuration file.
func isLocalInclude(s string) bool {
	if strings.HasPrefix(s, "file://") {
		return true
	}
	return !strings.Contains(s, "://") && !strings.Contains(s, "::")
}
