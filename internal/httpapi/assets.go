package httpapi

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/lox/gammond/internal/fileutil"
)

// assetKinds are the art categories clients preload.
var assetKinds = []string{"banners", "avatars"}

var errNoAsset = errors.New("no such asset")

// Assets serves static art from a directory tree with one subdirectory per
// kind. Scan fingerprints every file so clients can skip downloads they
// already hold.
type Assets struct {
	root      string
	logger    *log.Logger
	manifests map[string]map[string]string
}

// NewAssets points the asset service at root. Call Scan before serving.
func NewAssets(root string, logger *log.Logger) *Assets {
	return &Assets{
		root:      root,
		logger:    logger.WithPrefix("assets"),
		manifests: make(map[string]map[string]string),
	}
}

// Scan walks every kind directory, hashes each file and caches the
// name-to-MD5 manifest. The manifest is also written next to the kind
// directory so operators can inspect what clients will see. A missing kind
// directory yields an empty manifest.
func (a *Assets) Scan() error {
	for _, kind := range assetKinds {
		manifest, err := a.scanKind(kind)
		if err != nil {
			return fmt.Errorf("scanning %s: %w", kind, err)
		}
		a.manifests[kind] = manifest

		data, err := json.MarshalIndent(manifest, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding %s manifest: %w", kind, err)
		}
		path := filepath.Join(a.root, kind+".manifest.json")
		if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s manifest: %w", kind, err)
		}
		a.logger.Info("asset manifest built", "kind", kind, "files", len(manifest))
	}
	return nil
}

func (a *Assets) scanKind(kind string) (map[string]string, error) {
	manifest := make(map[string]string)
	entries, err := os.ReadDir(filepath.Join(a.root, kind))
	if errors.Is(err, os.ErrNotExist) {
		return manifest, nil
	}
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(a.root, kind, entry.Name()))
		if err != nil {
			return nil, err
		}
		sum := md5.Sum(data)
		manifest[entry.Name()] = hex.EncodeToString(sum[:])
	}
	return manifest, nil
}

// Manifest returns the cached fingerprint map for kind.
func (a *Assets) Manifest(kind string) (map[string]string, bool) {
	manifest, ok := a.manifests[kind]
	return manifest, ok
}

// FilePath resolves kind/name to a path under the asset root. Names that
// are not plain file names are rejected so requests cannot escape the tree.
func (a *Assets) FilePath(kind, name string) (string, error) {
	if _, ok := a.manifests[kind]; !ok {
		return "", errNoAsset
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", errNoAsset
	}
	path := filepath.Join(a.root, kind, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", errNoAsset
	}
	return path, nil
}
