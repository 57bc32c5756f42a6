package mounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/btree"

	vfs "github.com/mwantia/initfs"
	"github.com/mwantia/initfs/data"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLite is a filesystem backend over a SQLite database, one row per
// node. A B-tree of path -> row id is loaded when the backend mounts,
// so lookups stay in memory and only content reads touch the database.
// Content is written through Populate before mounting; the node
// contract itself is read-only.
type SQLite struct {
	mu sync.RWMutex
	db *sql.DB

	// In-memory B-tree for fast path lookups
	keys *btree.Map[string, string]
}

// NewSQLite opens (or creates) the database at dbPath; ":memory:"
// works for tests.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &SQLite{
		db:   db,
		keys: btree.NewMap[string, string](0),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLite) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS fs_nodes (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		is_dir INTEGER NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		modify_time INTEGER NOT NULL,
		content BLOB
	);
	CREATE INDEX IF NOT EXISTS idx_fs_nodes_path ON fs_nodes(path);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Populate stores a file (or directory when content is nil and isDir
// is set), creating missing parent directories. It bypasses the node
// contract on purpose: images are assembled before they are mounted.
func (s *SQLite) Populate(ctx context.Context, path string, content []byte, isDir bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	segments := data.Segments(path)

	// Parents first, leaf last.
	for i := 1; i < len(segments); i++ {
		if err := s.insert(ctx, strings.Join(segments[:i], "/"), nil, true); err != nil {
			return err
		}
	}

	return s.insert(ctx, strings.Join(segments, "/"), content, isDir)
}

func (s *SQLite) insert(ctx context.Context, path string, content []byte, isDir bool) error {
	if _, exists := s.keys.Get(path); exists {
		return nil
	}

	id := uuid.Must(uuid.NewV7()).String()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO fs_nodes (id, path, is_dir, size, modify_time, content) VALUES (?, ?, ?, ?, ?, ?)`,
		id, path, isDir, len(content), time.Now().Unix(), content)
	if err != nil {
		return fmt.Errorf("%w: %w", data.ErrIo, err)
	}

	s.keys.Set(path, id)
	return nil
}

// Mount verifies the connection and loads the path index.
func (s *SQLite) Mount(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", data.ErrIo, err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT path, id FROM fs_nodes")
	if err != nil {
		return fmt.Errorf("%w: %w", data.ErrIo, err)
	}
	defer rows.Close()

	for rows.Next() {
		var nodePath, id string
		if err := rows.Scan(&nodePath, &id); err != nil {
			return fmt.Errorf("%w: %w", data.ErrIo, err)
		}
		s.keys.Set(nodePath, id)
	}

	return rows.Err()
}

func (s *SQLite) Unmount(ctx context.Context) error {
	return s.db.Close()
}

func (s *SQLite) Root(ctx context.Context) (*vfs.Node, error) {
	return s.newNode("", true, 0, time.Time{}), nil
}

func (s *SQLite) StatFs(ctx context.Context) (*data.StatFs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &data.StatFs{
		BlockSize: 1,
		Files:     uint32(s.keys.Len()),
	}, nil
}

func (s *SQLite) Sync(ctx context.Context) error {
	return nil
}

func (s *SQLite) Fid(ctx context.Context, path string) (*data.FileID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.keys.Get(strings.Join(data.Segments(path), "/"))
	if !exists {
		return nil, fmt.Errorf("%w: %s", data.ErrNotExist, path)
	}

	return &data.FileID{Data: []byte(id)}, nil
}

func (s *SQLite) Vget(ctx context.Context, fid data.FileID) (*vfs.Node, error) {
	var path string
	var isDir bool
	var size int64
	var modTime int64

	err := s.db.QueryRowContext(ctx,
		`SELECT path, is_dir, size, modify_time FROM fs_nodes WHERE id = ?`, string(fid.Data)).
		Scan(&path, &isDir, &size, &modTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, data.ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", data.ErrIo, err)
	}

	return s.newNode(path, isDir, size, time.Unix(modTime, 0)), nil
}

func (s *SQLite) newNode(path string, isDir bool, size int64, modTime time.Time) *vfs.Node {
	typ := data.NodeTypeFile
	if isDir {
		typ = data.NodeTypeDirectory
	}

	return vfs.NewNode(&sqliteNodeOps{
		fs:      s,
		path:    path,
		dir:     isDir,
		size:    size,
		modTime: modTime,
	}, typ)
}

type sqliteNodeOps struct {
	vfs.UnsupportedNodeOps

	fs      *SQLite
	path    string
	dir     bool
	size    int64
	modTime time.Time
}

func (ops *sqliteNodeOps) childPath(name string) string {
	if ops.path == "" {
		return name
	}
	return ops.path + "/" + name
}

func (ops *sqliteNodeOps) Open(ctx context.Context, flags uint32, cred data.UserCred) error {
	return nil
}

func (ops *sqliteNodeOps) Close(ctx context.Context, flags uint32, cred data.UserCred) error {
	return nil
}

func (ops *sqliteNodeOps) Len() int64 {
	return ops.size
}

func (ops *sqliteNodeOps) Read(ctx context.Context, count, offset int64, cred data.UserCred) ([]byte, error) {
	if ops.dir {
		return nil, data.ErrIsDirectory
	}

	var content []byte
	err := ops.fs.db.QueryRowContext(ctx,
		`SELECT content FROM fs_nodes WHERE path = ?`, ops.path).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", data.ErrNotExist, ops.path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", data.ErrIo, err)
	}

	if offset >= int64(len(content)) {
		return []byte{}, nil
	}
	if offset+count > int64(len(content)) {
		count = int64(len(content)) - offset
	}

	return content[offset : offset+count], nil
}

func (ops *sqliteNodeOps) Lookup(ctx context.Context, name string, cred data.UserCred) (*vfs.Node, error) {
	if !ops.dir {
		return nil, data.ErrNotDirectory
	}

	path := ops.childPath(name)

	ops.fs.mu.RLock()
	_, exists := ops.fs.keys.Get(path)
	ops.fs.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", data.ErrNotExist, path)
	}

	var isDir bool
	var size int64
	var modTime int64
	err := ops.fs.db.QueryRowContext(ctx,
		`SELECT is_dir, size, modify_time FROM fs_nodes WHERE path = ?`, path).
		Scan(&isDir, &size, &modTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", data.ErrNotExist, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", data.ErrIo, err)
	}

	return ops.fs.newNode(path, isDir, size, time.Unix(modTime, 0)), nil
}

func (ops *sqliteNodeOps) ReadDir(ctx context.Context, cred data.UserCred) ([]*data.DirEntry, error) {
	if !ops.dir {
		return nil, data.ErrNotDirectory
	}

	prefix := ""
	if ops.path != "" {
		prefix = ops.path + "/"
	}

	rows, err := ops.fs.db.QueryContext(ctx,
		`SELECT path, is_dir FROM fs_nodes WHERE path LIKE ? || '%' ORDER BY path`, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", data.ErrIo, err)
	}
	defer rows.Close()

	var entries []*data.DirEntry

	for rows.Next() {
		var path string
		var isDir bool
		if err := rows.Scan(&path, &isDir); err != nil {
			return nil, fmt.Errorf("%w: %w", data.ErrIo, err)
		}

		rest := path[len(prefix):]
		if rest == "" || strings.Contains(rest, "/") {
			continue
		}

		typ := data.NodeTypeFile
		if isDir {
			typ = data.NodeTypeDirectory
		}
		entries = append(entries, &data.DirEntry{Name: rest, Type: typ})
	}

	return entries, rows.Err()
}

func (ops *sqliteNodeOps) GetAttr(ctx context.Context, cred data.UserCred) (*data.Attributes, error) {
	typ := data.NodeTypeFile
	if ops.dir {
		typ = data.NodeTypeDirectory
	}

	return &data.Attributes{
		Type:       typ,
		Size:       ops.size,
		LinkCount:  1,
		ModifyTime: ops.modTime,
	}, nil
}

func (ops *sqliteNodeOps) Access(ctx context.Context, mode uint32, cred data.UserCred) error {
	return nil
}
