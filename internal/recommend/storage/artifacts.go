// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/foryou/internal/models"
	"github.com/tomtom215/foryou/internal/recommend/vector"
)

var (
	// ErrIncompleteArtifacts means a set is missing a part or its parts
	// disagree. Consumers must treat it as fatal.
	ErrIncompleteArtifacts = errors.New("incomplete artifact set")

	// ErrNoArtifacts means nothing has been published yet.
	ErrNoArtifacts = errors.New("no artifact set published")
)

const (
	titlesFile   = "titles.gob.gz"
	modelFile    = "model.gob.gz"
	vectorsFile  = "vectors.gob.gz"
	manifestFile = "version.json"
	currentFile  = "CURRENT"
)

// ArtifactSet is one complete build output. Titles carry their vectors.
type ArtifactSet struct {
	Version int64
	BuildID string
	BuiltAt time.Time
	Titles  []models.Title
	Model   *vector.Model
}

// KeyedVector ties a vector to its title ID on disk.
type KeyedVector struct {
	ID     string
	Vector vector.SparseVector
}

// ArtifactMetadata describes one stored file.
type ArtifactMetadata struct {
	Name      string    `json:"name"`
	Version   int64     `json:"version"`
	Count     int       `json:"count"`
	Checksum  string    `json:"checksum"`
	SizeBytes int64     `json:"size_bytes"`
	SavedAt   time.Time `json:"saved_at"`
}

// Manifest is the version stamp of a set.
type Manifest struct {
	Version     int64                       `json:"version"`
	BuildID     string                      `json:"build_id"`
	BuiltAt     time.Time                   `json:"built_at"`
	PublishedAt time.Time                   `json:"published_at"`
	Titles      int                         `json:"titles"`
	Vocabulary  int                         `json:"vocabulary"`
	Files       map[string]ArtifactMetadata `json:"files"`
}

// storedFile is the on-disk format for each gob artifact.
type storedFile struct {
	Metadata       ArtifactMetadata
	CompressedData []byte
}

// Store manages artifact sets under one directory. Publishing is
// serialised; loading takes no lock because published sets are immutable.
type Store struct {
	baseDir string
	mu      sync.Mutex
	now     func() time.Time
}

// NewStore opens the artifact directory, creating it if needed.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for artifact storage
		return nil, fmt.Errorf("create artifacts directory: %w", err)
	}
	return &Store{baseDir: baseDir, now: time.Now}, nil
}

// Dir returns the artifact directory.
func (s *Store) Dir() string {
	return s.baseDir
}

// Publish writes set as the next version and makes it current. The
// assigned version is stored in set.Version and returned.
func (s *Store) Publish(ctx context.Context, set *ArtifactSet) (int64, error) {
	if set == nil || set.Model == nil || len(set.Titles) == 0 {
		return 0, fmt.Errorf("%w: refusing to publish an empty set", ErrIncompleteArtifacts)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	versions, err := s.Versions()
	if err != nil {
		return 0, err
	}
	next := int64(1)
	if len(versions) > 0 {
		next = versions[len(versions)-1] + 1
	}

	tmp, err := os.MkdirTemp(s.baseDir, ".publish-")
	if err != nil {
		return 0, fmt.Errorf("create staging directory: %w", err)
	}
	published := false
	defer func() {
		if !published {
			_ = os.RemoveAll(tmp) //nolint:errcheck // best-effort cleanup of a failed publish
		}
	}()

	titles := make([]models.Title, len(set.Titles))
	vectors := make([]KeyedVector, len(set.Titles))
	for i := range set.Titles {
		titles[i] = set.Titles[i]
		titles[i].Vector = vector.SparseVector{}
		vectors[i] = KeyedVector{ID: set.Titles[i].ID, Vector: set.Titles[i].Vector}
	}

	manifest := Manifest{
		Version:    next,
		BuildID:    set.BuildID,
		BuiltAt:    set.BuiltAt,
		Titles:     len(titles),
		Vocabulary: set.Model.VocabularySize(),
		Files:      make(map[string]ArtifactMetadata, 3),
	}

	parts := []struct {
		name  string
		count int
		data  interface{}
	}{
		{titlesFile, len(titles), titles},
		{modelFile, set.Model.VocabularySize(), set.Model},
		{vectorsFile, len(vectors), vectors},
	}
	for _, p := range parts {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		meta, err := s.writeArtifact(filepath.Join(tmp, p.name), ArtifactMetadata{
			Name:    p.name,
			Version: next,
			Count:   p.count,
		}, p.data)
		if err != nil {
			return 0, fmt.Errorf("write %s: %w", p.name, err)
		}
		manifest.Files[p.name] = meta
	}

	manifest.PublishedAt = s.now()
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode manifest: %w", err)
	}
	if err := writeFileSync(filepath.Join(tmp, manifestFile), data); err != nil {
		return 0, fmt.Errorf("write manifest: %w", err)
	}

	final := s.versionDir(next)
	if err := os.Rename(tmp, final); err != nil {
		return 0, fmt.Errorf("move staged set into place: %w", err)
	}
	published = true
	syncDir(s.baseDir)

	if err := s.setCurrent(next); err != nil {
		return 0, err
	}
	set.Version = next
	return next, nil
}

// LoadCurrent loads the set CURRENT points at.
func (s *Store) LoadCurrent(ctx context.Context) (*ArtifactSet, error) {
	v, err := s.CurrentVersion()
	if err != nil {
		return nil, err
	}
	return s.Load(ctx, v)
}

// Load reads and cross-checks one version.
func (s *Store) Load(ctx context.Context, version int64) (*ArtifactSet, error) {
	dir := s.versionDir(version)

	raw, err := os.ReadFile(filepath.Join(dir, manifestFile)) //nolint:gosec // path built from the artifact root
	if err != nil {
		return nil, fmt.Errorf("%w: version %d: read manifest: %v", ErrIncompleteArtifacts, version, err)
	}
	var manifest Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("%w: version %d: decode manifest: %v", ErrIncompleteArtifacts, version, err)
	}
	if manifest.Version != version {
		return nil, fmt.Errorf("%w: manifest of v%d claims version %d", ErrIncompleteArtifacts, version, manifest.Version)
	}

	var (
		titles  []models.Title
		model   vector.Model
		vectors []KeyedVector
	)
	targets := []struct {
		name   string
		target interface{}
	}{
		{titlesFile, &titles},
		{modelFile, &model},
		{vectorsFile, &vectors},
	}
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		want, ok := manifest.Files[t.name]
		if !ok {
			return nil, fmt.Errorf("%w: version %d: manifest lists no %s", ErrIncompleteArtifacts, version, t.name)
		}
		meta, err := s.readArtifact(filepath.Join(dir, t.name), t.target)
		if err != nil {
			return nil, fmt.Errorf("%w: version %d: %s: %v", ErrIncompleteArtifacts, version, t.name, err)
		}
		if meta.Checksum != want.Checksum {
			return nil, fmt.Errorf("%w: version %d: %s checksum does not match manifest", ErrIncompleteArtifacts, version, t.name)
		}
	}

	if len(titles) != manifest.Titles || len(vectors) != len(titles) {
		return nil, fmt.Errorf("%w: version %d: %d titles, %d vectors, manifest says %d",
			ErrIncompleteArtifacts, version, len(titles), len(vectors), manifest.Titles)
	}
	if model.VocabularySize() != manifest.Vocabulary {
		return nil, fmt.Errorf("%w: version %d: model vocabulary %d, manifest says %d",
			ErrIncompleteArtifacts, version, model.VocabularySize(), manifest.Vocabulary)
	}
	for i := range titles {
		if vectors[i].ID != titles[i].ID {
			return nil, fmt.Errorf("%w: version %d: vector %d keyed %q, title is %q",
				ErrIncompleteArtifacts, version, i, vectors[i].ID, titles[i].ID)
		}
		titles[i].Vector = vectors[i].Vector
	}

	return &ArtifactSet{
		Version: version,
		BuildID: manifest.BuildID,
		BuiltAt: manifest.BuiltAt,
		Titles:  titles,
		Model:   &model,
	}, nil
}

// Manifest reads the version stamp of one version without loading it.
func (s *Store) Manifest(version int64) (*Manifest, error) {
	raw, err := os.ReadFile(filepath.Join(s.versionDir(version), manifestFile)) //nolint:gosec // path built from the artifact root
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

// CurrentVersion returns the version CURRENT points at.
func (s *Store) CurrentVersion() (int64, error) {
	raw, err := os.ReadFile(filepath.Join(s.baseDir, currentFile))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, ErrNoArtifacts
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", currentFile, err)
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%w: malformed %s", ErrIncompleteArtifacts, currentFile)
	}
	return v, nil
}

// Versions lists published versions in ascending order.
func (s *Store) Versions() ([]int64, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read artifacts directory: %w", err)
	}
	var versions []int64
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "v") {
			continue
		}
		v, err := strconv.ParseInt(e.Name()[1:], 10, 64)
		if err != nil || v < 1 {
			continue
		}
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, nil
}

// Prune removes all but the newest keep versions. The current version is
// never removed. It returns the removed versions.
func (s *Store) Prune(ctx context.Context, keep int) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 1 {
		keep = 1
	}
	versions, err := s.Versions()
	if err != nil {
		return nil, err
	}
	current, err := s.CurrentVersion()
	if err != nil && !errors.Is(err, ErrNoArtifacts) {
		return nil, err
	}

	var removed []int64
	for i := 0; i < len(versions)-keep; i++ {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if versions[i] == current {
			continue
		}
		if err := os.RemoveAll(s.versionDir(versions[i])); err != nil {
			return removed, fmt.Errorf("remove version %d: %w", versions[i], err)
		}
		removed = append(removed, versions[i])
	}
	return removed, nil
}

func (s *Store) versionDir(version int64) string {
	return filepath.Join(s.baseDir, "v"+strconv.FormatInt(version, 10))
}

func (s *Store) setCurrent(version int64) error {
	tmp := filepath.Join(s.baseDir, "."+currentFile+".tmp")
	if err := writeFileSync(tmp, []byte(strconv.FormatInt(version, 10)+"\n")); err != nil {
		return fmt.Errorf("write %s: %w", currentFile, err)
	}
	if err := os.Rename(tmp, filepath.Join(s.baseDir, currentFile)); err != nil {
		return fmt.Errorf("swap %s: %w", currentFile, err)
	}
	syncDir(s.baseDir)
	return nil
}

//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *Store) writeArtifact(path string, meta ArtifactMetadata, data interface{}) (ArtifactMetadata, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return meta, fmt.Errorf("encode: %w", err)
	}
	rawData := buf.Bytes()

	hash := sha256.Sum256(rawData)
	meta.Checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(rawData); err != nil {
		return meta, fmt.Errorf("compress: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return meta, fmt.Errorf("finalize compression: %w", err)
	}
	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = s.now()

	var out bytes.Buffer
	if err := gob.NewEncoder(&out).Encode(storedFile{Metadata: meta, CompressedData: compressed.Bytes()}); err != nil {
		return meta, fmt.Errorf("encode file: %w", err)
	}
	if err := writeFileSync(path, out.Bytes()); err != nil {
		return meta, err
	}
	return meta, nil
}

func (s *Store) readArtifact(path string, target interface{}) (*ArtifactMetadata, error) {
	f, err := os.Open(path) //nolint:gosec // path built from the artifact root
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after read is not actionable

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	rawData, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(rawData)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		return nil, fmt.Errorf("checksum mismatch: expected %s, got %s", sf.Metadata.Checksum, checksum)
	}

	if err := gob.NewDecoder(bytes.NewReader(rawData)).Decode(target); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &sf.Metadata, nil
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640) //nolint:gosec // path built from the artifact root
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close() //nolint:errcheck // write error takes precedence
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close() //nolint:errcheck // sync error takes precedence
		return err
	}
	return f.Close()
}

// syncDir flushes directory entries after a rename. Not every platform
// supports it, so failures are ignored.
func syncDir(dir string) {
	if d, err := os.Open(dir); err == nil { //nolint:gosec // artifact root
		_ = d.Sync()  //nolint:errcheck // best effort
		_ = d.Close() //nolint:errcheck // best effort
	}
}
