/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package sqlitestore adapts the original Python SqliteBackend's single
// content_io_node table (key, content, plugin, version, is_published,
// meta) into a cio.StorageBackend over modernc.org/sqlite, a pure-Go
// driver with no cgo dependency. The table layout and publish/version
// bookkeeping follow backend.py's _get/_create/_update/publish methods;
// the version-assignment and fingerprint-key format instead follow
// cio's own StoredNode/VersionDraft/VersionPublished contract.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strings"

	cio "github.com/5monkeys/cio-go"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS content_io_node (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	key TEXT NOT NULL,
	version INTEGER NOT NULL,
	content TEXT NOT NULL,
	plugin TEXT NOT NULL,
	is_published INTEGER NOT NULL,
	meta TEXT,
	UNIQUE(key, version)
);
CREATE INDEX IF NOT EXISTS content_io_node_key ON content_io_node (key);
`

// Store is a cio.StorageBackend backed by a single SQLite database file,
// one row per (fingerprint key, version) pair.
type Store struct {
	db *sql.DB
}

var _ cio.StorageBackend = &Store{}

// Open creates or opens the SQLite database at path and ensures its
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func encodeMeta(meta map[string]string) (string, error) {
	if len(meta) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeMeta(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}
	var meta map[string]string
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func scanStoredNode(row *sql.Row) (*cio.StoredNode, error) {
	var (
		key, content, plugin, metaRaw sql.NullString
		version                       int
		published                     bool
	)
	if err := row.Scan(&key, &version, &content, &plugin, &published, &metaRaw); err != nil {
		return nil, err
	}
	meta, err := decodeMeta(metaRaw.String)
	if err != nil {
		return nil, err
	}
	text := content.String
	return &cio.StoredNode{
		Key:         key.String,
		Content:     &text,
		PluginExt:   plugin.String,
		Version:     version,
		IsPublished: published,
		Meta:        meta,
	}, nil
}

func (s *Store) Get(ctx context.Context, key string, version int) (*cio.StoredNode, bool, error) {
	var row *sql.Row
	if version == cio.VersionPublished {
		row = s.db.QueryRowContext(ctx, `
			SELECT key, version, content, plugin, is_published, meta
			FROM content_io_node WHERE key = ? AND is_published = 1`, key)
	} else {
		row = s.db.QueryRowContext(ctx, `
			SELECT key, version, content, plugin, is_published, meta
			FROM content_io_node WHERE key = ? AND version = ?`, key, version)
	}
	node, err := scanStoredNode(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return node, true, nil
}

func (s *Store) GetMany(ctx context.Context, keys []cio.StorageKey) (map[string]*cio.StoredNode, error) {
	out := make(map[string]*cio.StoredNode, len(keys))
	for _, k := range keys {
		node, ok, err := s.Get(ctx, k.Key, k.Version)
		if err != nil {
			return nil, err
		}
		if ok {
			out[k.Key] = node
		}
	}
	return out, nil
}

func (s *Store) Set(ctx context.Context, node *cio.StoredNode) (bool, error) {
	var content string
	if node.Content != nil {
		content = *node.Content
	}
	meta, err := encodeMeta(node.Meta)
	if err != nil {
		return false, err
	}

	_, existed, err := s.Get(ctx, node.Key, node.Version)
	if err != nil {
		return false, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO content_io_node (key, version, content, plugin, is_published, meta)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key, version) DO UPDATE SET
			content = excluded.content,
			plugin = excluded.plugin,
			meta = excluded.meta`,
		node.Key, node.Version, content, node.PluginExt, node.IsPublished, meta)
	if err != nil {
		return false, cio.PersistenceError(err.Error())
	}
	return !existed, nil
}

func (s *Store) latestLocked(ctx context.Context, key string) (*cio.StoredNode, error) {
	published, ok, err := s.Get(ctx, key, cio.VersionPublished)
	if err != nil {
		return nil, err
	}
	if ok {
		return published, nil
	}
	draft, ok, err := s.Get(ctx, key, cio.VersionDraft)
	if err != nil {
		return nil, err
	}
	if ok {
		return draft, nil
	}
	return nil, nil
}

func (s *Store) Delete(ctx context.Context, key string) (*cio.StoredNode, error) {
	latest, err := s.latestLocked(ctx, key)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM content_io_node WHERE key = ?`, key); err != nil {
		return nil, err
	}
	return latest, nil
}

func (s *Store) DeleteMany(ctx context.Context, keys []string) (map[string]*cio.StoredNode, error) {
	out := make(map[string]*cio.StoredNode, len(keys))
	for _, key := range keys {
		row, err := s.Delete(ctx, key)
		if err != nil {
			return nil, err
		}
		if row != nil {
			out[key] = row
		}
	}
	return out, nil
}

func (s *Store) Publish(ctx context.Context, key string, version int) (*cio.StoredNode, error) {
	row, ok, err := s.Get(ctx, key, version)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, cio.NodeDoesNotExist(key)
	}
	if row.IsPublished {
		return row, nil
	}

	newVersion := version
	if version == cio.VersionDraft {
		var maxVersion sql.NullInt64
		if err := s.db.QueryRowContext(ctx,
			`SELECT MAX(version) FROM content_io_node WHERE key = ?`, key,
		).Scan(&maxVersion); err != nil {
			return nil, err
		}
		newVersion = int(maxVersion.Int64) + 1
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE content_io_node SET is_published = 0 WHERE key = ?`, key); err != nil {
		return nil, err
	}

	meta, err := encodeMeta(row.Meta)
	if err != nil {
		return nil, err
	}
	content := ""
	if row.Content != nil {
		content = *row.Content
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO content_io_node (key, version, content, plugin, is_published, meta)
		VALUES (?, ?, ?, ?, 1, ?)
		ON CONFLICT(key, version) DO UPDATE SET
			content = excluded.content, plugin = excluded.plugin, meta = excluded.meta, is_published = 1`,
		key, newVersion, content, row.PluginExt, meta); err != nil {
		return nil, cio.PersistenceError(err.Error())
	}

	row.Version = newVersion
	row.IsPublished = true
	return row, nil
}

func (s *Store) GetRevisions(ctx context.Context, key string) ([]*cio.StoredNode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, version, content, plugin, is_published, meta
		FROM content_io_node WHERE key = ? ORDER BY version ASC`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*cio.StoredNode
	for rows.Next() {
		var (
			k, content, plugin, metaRaw string
			version                     int
			published                   bool
		)
		if err := rows.Scan(&k, &version, &content, &plugin, &published, &metaRaw); err != nil {
			return nil, err
		}
		meta, err := decodeMeta(metaRaw)
		if err != nil {
			return nil, err
		}
		text := content
		out = append(out, &cio.StoredNode{
			Key: k, Content: &text, PluginExt: plugin,
			Version: version, IsPublished: published, Meta: meta,
		})
	}
	return out, rows.Err()
}

// Search lists the distinct fingerprint keys stored, filtered by
// namespace and path prefix the way backend.py's search() filters with
// LIKE on its flat key column, but parses each candidate key back into a
// URI the way MemStore.Search does, rather than pattern-matching the
// rendered string directly.
func (s *Store) Search(ctx context.Context, namespace, pathPrefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT key FROM content_io_node`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		u, err := cio.Parse(key)
		if err != nil {
			continue
		}
		if namespace != "" && u.Namespace != namespace {
			continue
		}
		if pathPrefix != "" && !strings.HasPrefix(u.Path, pathPrefix) {
			continue
		}
		out = append(out, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// Register makes this package's Store constructor available under the
// "sqlite" scheme for the STORAGE_BACKEND setting to name, e.g.
// "sqlite:///var/lib/cio/content.db" opens that database file.
func Register() {
	cio.RegisterStorageBackend("sqlite", func(config string) (cio.StorageBackend, error) {
		return Open(strings.TrimPrefix(config, "sqlite://"))
	})
}
