package contentstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const publishTimeout = 5 * time.Second

// SQLiteStore keeps one row per leaf in the nodes table and fans changes
// out to subscribers through a Notifier.
type SQLiteStore struct {
	database *sql.DB
	notifier Notifier

	mu            sync.Mutex
	subscriptions map[*subscription]struct{}
}

func NewSQLiteStore(database *sql.DB, notifier Notifier) *SQLiteStore {
	return &SQLiteStore{
		database:      database,
		notifier:      notifier,
		subscriptions: make(map[*subscription]struct{}),
	}
}

// Start listens for committed changes until ctx is done.
func (store *SQLiteStore) Start(ctx context.Context) error {
	changes, err := store.notifier.Listen(ctx)
	if err != nil {
		return fmt.Errorf("listening for changes: %w", err)
	}
	go func() {
		for path := range changes {
			store.dispatch(path)
		}
	}()
	return nil
}

func (store *SQLiteStore) Get(ctx context.Context, path string) (Snapshot, error) {
	normalized, err := NormalizePath(path)
	if err != nil {
		return Snapshot{}, err
	}

	var rows *sql.Rows
	if normalized == "" {
		rows, err = store.database.QueryContext(ctx, "SELECT path, value FROM nodes ORDER BY path")
	} else {
		rows, err = store.database.QueryContext(ctx,
			`SELECT path, value FROM nodes
			WHERE path = ? OR (path >= ? AND path < ?)
			ORDER BY path`,
			normalized, normalized+"/", normalized+"0",
		)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading %s: %w", normalized, err)
	}
	defer rows.Close()

	var value any
	for rows.Next() {
		var leafPath, encoded string
		if err := rows.Scan(&leafPath, &encoded); err != nil {
			return Snapshot{}, fmt.Errorf("scanning node: %w", err)
		}
		leaf, err := decodeJSON([]byte(encoded))
		if err != nil {
			return Snapshot{}, fmt.Errorf("node %s: %w", leafPath, err)
		}
		if leafPath == normalized {
			value = leaf
			continue
		}
		value = insertLeaf(value, relativePath(normalized, leafPath), leaf)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("reading %s: %w", normalized, err)
	}
	return Snapshot{Path: normalized, Value: value}, nil
}

func (store *SQLiteStore) Set(ctx context.Context, path string, value any) error {
	normalized, err := NormalizePath(path)
	if err != nil {
		return err
	}
	leaves, err := leavesFor(normalized, value)
	if err != nil {
		return err
	}
	if err := store.write(ctx, map[string]map[string]string{normalized: leaves}); err != nil {
		return fmt.Errorf("setting %s: %w", normalized, err)
	}
	store.publish(ctx, normalized)
	return nil
}

// Update writes every field relative to path in one transaction. Field keys
// may be nested paths; a nil value removes that location.
func (store *SQLiteStore) Update(ctx context.Context, path string, fields map[string]any) error {
	base, err := NormalizePath(path)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	writes := make(map[string]map[string]string, len(fields))
	targets := make([]string, 0, len(fields))
	for key, value := range fields {
		relative, err := NormalizePath(key)
		if err != nil {
			return err
		}
		if relative == "" {
			return fmt.Errorf("%w: empty update key under %q", ErrInvalidPath, base)
		}
		target := Join(base, relative)
		leaves, err := leavesFor(target, value)
		if err != nil {
			return err
		}
		writes[target] = leaves
		targets = append(targets, target)
	}

	sort.Strings(targets)
	for i := 1; i < len(targets); i++ {
		if isAncestor(targets[i-1], targets[i]) {
			return fmt.Errorf("%w: update paths %q and %q overlap", ErrInvalidPath, targets[i-1], targets[i])
		}
	}

	if err := store.write(ctx, writes); err != nil {
		return fmt.Errorf("updating %s: %w", base, err)
	}
	for _, target := range targets {
		store.publish(ctx, target)
	}
	return nil
}

func (store *SQLiteStore) Remove(ctx context.Context, path string) error {
	return store.Set(ctx, path, nil)
}

func (store *SQLiteStore) Push(ctx context.Context, path string, value any) (string, error) {
	normalized, err := NormalizePath(path)
	if err != nil {
		return "", err
	}
	key := NewPushKey()
	if err := store.Set(ctx, Join(normalized, key), value); err != nil {
		return "", err
	}
	return key, nil
}

func (store *SQLiteStore) write(ctx context.Context, writes map[string]map[string]string) error {
	transaction, err := store.database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer transaction.Rollback()

	for target, leaves := range writes {
		if err := clearNode(ctx, transaction, target); err != nil {
			return err
		}
		for leafPath, encoded := range leaves {
			if _, err := transaction.ExecContext(ctx,
				"INSERT INTO nodes (path, value) VALUES (?, ?)", leafPath, encoded,
			); err != nil {
				return fmt.Errorf("inserting %s: %w", leafPath, err)
			}
		}
	}
	return transaction.Commit()
}

// clearNode deletes the subtree at path and any leaf stored at one of its
// ancestors, which a write beneath it would otherwise shadow.
func clearNode(ctx context.Context, transaction *sql.Tx, path string) error {
	if path == "" {
		if _, err := transaction.ExecContext(ctx, "DELETE FROM nodes"); err != nil {
			return fmt.Errorf("clearing root: %w", err)
		}
		return nil
	}
	if _, err := transaction.ExecContext(ctx,
		"DELETE FROM nodes WHERE path = ? OR (path >= ? AND path < ?)",
		path, path+"/", path+"0",
	); err != nil {
		return fmt.Errorf("clearing %s: %w", path, err)
	}
	for _, ancestor := range ancestors(path) {
		if _, err := transaction.ExecContext(ctx, "DELETE FROM nodes WHERE path = ?", ancestor); err != nil {
			return fmt.Errorf("clearing %s: %w", ancestor, err)
		}
	}
	return nil
}

// publish runs after commit, so the caller's cancellation must not drop
// the notice.
func (store *SQLiteStore) publish(ctx context.Context, path string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := store.notifier.Publish(ctx, path); err != nil {
		slog.Error("publishing change", "path", path, "error", err)
	}
}

func leavesFor(path string, value any) (map[string]string, error) {
	normalized, err := normalize(value)
	if err != nil {
		return nil, err
	}
	leaves := make(map[string]string)
	if err := flatten(path, normalized, leaves); err != nil {
		return nil, err
	}
	if _, scalarRoot := leaves[""]; scalarRoot {
		return nil, fmt.Errorf("%w: the root can only hold an object", ErrInvalidPath)
	}
	return leaves, nil
}

func flatten(path string, value any, leaves map[string]string) error {
	switch typed := value.(type) {
	case nil:
		return nil
	case map[string]any:
		for key, child := range typed {
			if err := validateSegment(key); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidPath, err)
			}
			if err := flatten(Join(path, key), child, leaves); err != nil {
				return err
			}
		}
	case []any:
		for index, child := range typed {
			if err := flatten(Join(path, strconv.Itoa(index)), child, leaves); err != nil {
				return err
			}
		}
	default:
		encoded, err := jsonLeaf(typed)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
		}
		leaves[path] = encoded
	}
	return nil
}

func relativePath(base, path string) string {
	if base == "" {
		return path
	}
	return strings.TrimPrefix(path, base+"/")
}

func insertLeaf(root any, relative string, leaf any) any {
	object, ok := root.(map[string]any)
	if !ok {
		object = make(map[string]any)
	}
	parts := strings.Split(relative, "/")
	node := object
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[part] = child
		}
		node = child
	}
	node[parts[len(parts)-1]] = leaf
	return object
}
