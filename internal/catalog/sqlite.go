package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"photokeep/internal/backup"
	"photokeep/internal/catalog/migrations"
	"photokeep/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Settings keys. The settings table is a flat key/value store holding both
// the snapshot-visible preferences and the engine-owned scalars.
const (
	keyThemeMode    = "theme_mode"
	keyDefaultSort  = "default_sort"
	keyLastSearch   = "last_search"
	keyWifiOnly     = "wifi_only"
	keyLastSyncedAt = "last_synced_at"
)

const albumColumns = "id, name, cover_photo_id, photo_count, favorite, emoji, updated_at"
const photoColumns = "id, album_id, filename, path, thumb_path, width, height, size_bytes, caption, tags, favorite, taken_at, created_at, updated_at"

// SQLiteCatalog implements the backup.Catalog interface using SQLite.
type SQLiteCatalog struct {
	db   *sql.DB
	path string
}

// NewSQLiteCatalog opens (creating if necessary) a catalog database and
// migrates its schema to the latest version.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteCatalog(path string) (*SQLiteCatalog, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating catalog schema: %w", err)
	}

	return &SQLiteCatalog{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection with the PRAGMAs
// the catalog relies on. Exported for tools and tests.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}

	// SQLite defaults foreign keys to OFF for backward compatibility.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	// The engine reads concurrently with serialized writes.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return db, nil
}

// Album operations

func (c *SQLiteCatalog) GetAlbum(ctx context.Context, id int64) (*model.Album, error) {
	row := c.db.QueryRowContext(ctx, "SELECT "+albumColumns+" FROM albums WHERE id = ?", id)
	album, err := scanAlbum(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding album %d: %w", id, err)
	}
	return album, nil
}

func (c *SQLiteCatalog) GetAllAlbums(ctx context.Context) ([]*model.Album, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT "+albumColumns+" FROM albums ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}
	defer rows.Close()

	var albums []*model.Album
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning album: %w", err)
		}
		albums = append(albums, album)
	}
	return albums, rows.Err()
}

func (c *SQLiteCatalog) UpsertAlbum(ctx context.Context, album *model.Album) error {
	if album.ID == 0 {
		res, err := c.db.ExecContext(ctx,
			"INSERT INTO albums (name, cover_photo_id, photo_count, favorite, emoji, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			album.Name, nullInt64(album.CoverPhotoID), album.PhotoCount, album.Favorite, nullString(album.Emoji), album.UpdatedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("inserting album: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading album id: %w", err)
		}
		album.ID = id
		return nil
	}

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO albums (`+albumColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name, cover_photo_id = excluded.cover_photo_id,
		   photo_count = excluded.photo_count, favorite = excluded.favorite,
		   emoji = excluded.emoji, updated_at = excluded.updated_at`,
		album.ID, album.Name, nullInt64(album.CoverPhotoID), album.PhotoCount, album.Favorite, nullString(album.Emoji), album.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("upserting album %d: %w", album.ID, err)
	}
	return nil
}

func (c *SQLiteCatalog) UpdateAlbum(ctx context.Context, album *model.Album) error {
	_, err := c.db.ExecContext(ctx,
		"UPDATE albums SET name = ?, cover_photo_id = ?, photo_count = ?, favorite = ?, emoji = ?, updated_at = ? WHERE id = ?",
		album.Name, nullInt64(album.CoverPhotoID), album.PhotoCount, album.Favorite, nullString(album.Emoji), album.UpdatedAt.UnixMilli(), album.ID)
	if err != nil {
		return fmt.Errorf("updating album %d: %w", album.ID, err)
	}
	return nil
}

func (c *SQLiteCatalog) CountPhotosInAlbum(ctx context.Context, albumID int64) (int, error) {
	var count int
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM photos WHERE album_id = ?", albumID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting photos in album %d: %w", albumID, err)
	}
	return count, nil
}

func (c *SQLiteCatalog) UpdateAlbumPhotoCount(ctx context.Context, albumID int64, count int) error {
	_, err := c.db.ExecContext(ctx, "UPDATE albums SET photo_count = ? WHERE id = ?", count, albumID)
	if err != nil {
		return fmt.Errorf("updating photo count of album %d: %w", albumID, err)
	}
	return nil
}

// Photo operations

func (c *SQLiteCatalog) GetPhoto(ctx context.Context, id int64) (*model.Photo, error) {
	row := c.db.QueryRowContext(ctx, "SELECT "+photoColumns+" FROM photos WHERE id = ?", id)
	photo, err := scanPhoto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding photo %d: %w", id, err)
	}
	return photo, nil
}

func (c *SQLiteCatalog) GetAllPhotos(ctx context.Context) ([]*model.Photo, error) {
	return c.queryPhotos(ctx, "SELECT "+photoColumns+" FROM photos ORDER BY id")
}

func (c *SQLiteCatalog) GetPhotosInAlbum(ctx context.Context, albumID int64) ([]*model.Photo, error) {
	return c.queryPhotos(ctx, "SELECT "+photoColumns+" FROM photos WHERE album_id = ? ORDER BY id", albumID)
}

func (c *SQLiteCatalog) GetPhotosChangedSince(ctx context.Context, since time.Time) ([]*model.Photo, error) {
	return c.queryPhotos(ctx, "SELECT "+photoColumns+" FROM photos WHERE updated_at > ? ORDER BY id", since.UnixMilli())
}

func (c *SQLiteCatalog) queryPhotos(ctx context.Context, query string, args ...any) ([]*model.Photo, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing photos: %w", err)
	}
	defer rows.Close()

	var photos []*model.Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning photo: %w", err)
		}
		photos = append(photos, photo)
	}
	return photos, rows.Err()
}

func (c *SQLiteCatalog) UpsertPhoto(ctx context.Context, photo *model.Photo) error {
	tags, err := encodeTags(photo.Tags)
	if err != nil {
		return err
	}

	if photo.ID == 0 {
		res, err := c.db.ExecContext(ctx,
			`INSERT INTO photos (album_id, filename, path, thumb_path, width, height, size_bytes, caption, tags, favorite, taken_at, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			photo.AlbumID, photo.Filename, photo.Path, photo.ThumbPath, photo.Width, photo.Height, photo.SizeBytes,
			photo.Caption, tags, photo.Favorite, photo.TakenAt.UnixMilli(), photo.CreatedAt.UnixMilli(), photo.UpdatedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("inserting photo: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading photo id: %w", err)
		}
		photo.ID = id
		return nil
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO photos (`+photoColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   album_id = excluded.album_id, filename = excluded.filename, path = excluded.path,
		   thumb_path = excluded.thumb_path, width = excluded.width, height = excluded.height,
		   size_bytes = excluded.size_bytes, caption = excluded.caption, tags = excluded.tags,
		   favorite = excluded.favorite, taken_at = excluded.taken_at,
		   created_at = excluded.created_at, updated_at = excluded.updated_at`,
		photo.ID, photo.AlbumID, photo.Filename, photo.Path, photo.ThumbPath, photo.Width, photo.Height, photo.SizeBytes,
		photo.Caption, tags, photo.Favorite, photo.TakenAt.UnixMilli(), photo.CreatedAt.UnixMilli(), photo.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("upserting photo %d: %w", photo.ID, err)
	}
	return nil
}

func (c *SQLiteCatalog) UpdatePhoto(ctx context.Context, photo *model.Photo) error {
	tags, err := encodeTags(photo.Tags)
	if err != nil {
		return err
	}

	_, err = c.db.ExecContext(ctx,
		`UPDATE photos SET album_id = ?, filename = ?, path = ?, thumb_path = ?, width = ?, height = ?,
		   size_bytes = ?, caption = ?, tags = ?, favorite = ?, taken_at = ?, created_at = ?, updated_at = ?
		 WHERE id = ?`,
		photo.AlbumID, photo.Filename, photo.Path, photo.ThumbPath, photo.Width, photo.Height, photo.SizeBytes,
		photo.Caption, tags, photo.Favorite, photo.TakenAt.UnixMilli(), photo.CreatedAt.UnixMilli(), photo.UpdatedAt.UnixMilli(),
		photo.ID)
	if err != nil {
		return fmt.Errorf("updating photo %d: %w", photo.ID, err)
	}
	return nil
}

func (c *SQLiteCatalog) ClearAll(ctx context.Context) error {
	// Photos first: they reference albums.
	if _, err := c.db.ExecContext(ctx, "DELETE FROM photos"); err != nil {
		return fmt.Errorf("clearing photos: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, "DELETE FROM albums"); err != nil {
		return fmt.Errorf("clearing albums: %w", err)
	}
	return nil
}

// Settings and engine-owned scalars

func (c *SQLiteCatalog) Settings(ctx context.Context) (*model.Settings, error) {
	theme, err := c.getSetting(ctx, keyThemeMode, "system")
	if err != nil {
		return nil, err
	}
	sort, err := c.getSetting(ctx, keyDefaultSort, "date_new")
	if err != nil {
		return nil, err
	}
	search, err := c.getSetting(ctx, keyLastSearch, "")
	if err != nil {
		return nil, err
	}
	return &model.Settings{ThemeMode: theme, DefaultSort: sort, LastSearch: search}, nil
}

func (c *SQLiteCatalog) SetSettings(ctx context.Context, s *model.Settings) error {
	if err := c.setSetting(ctx, keyThemeMode, s.ThemeMode); err != nil {
		return err
	}
	if err := c.setSetting(ctx, keyDefaultSort, s.DefaultSort); err != nil {
		return err
	}
	return c.setSetting(ctx, keyLastSearch, s.LastSearch)
}

func (c *SQLiteCatalog) WifiOnly(ctx context.Context) (bool, error) {
	v, err := c.getSetting(ctx, keyWifiOnly, "true")
	if err != nil {
		return true, err
	}
	return v == "true", nil
}

func (c *SQLiteCatalog) SetWifiOnly(ctx context.Context, wifiOnly bool) error {
	return c.setSetting(ctx, keyWifiOnly, strconv.FormatBool(wifiOnly))
}

func (c *SQLiteCatalog) LastSyncedAt(ctx context.Context) (time.Time, error) {
	v, err := c.getSetting(ctx, keyLastSyncedAt, "0")
	if err != nil {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing last-synced time: %w", err)
	}
	if ms == 0 {
		return time.Time{}, nil
	}
	return time.UnixMilli(ms), nil
}

func (c *SQLiteCatalog) SetLastSyncedAt(ctx context.Context, t time.Time) error {
	return c.setSetting(ctx, keyLastSyncedAt, strconv.FormatInt(t.UnixMilli(), 10))
}

func (c *SQLiteCatalog) getSetting(ctx context.Context, key, fallback string) (string, error) {
	var value string
	err := c.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %q: %w", key, err)
	}
	return value, nil
}

func (c *SQLiteCatalog) setSetting(ctx context.Context, key, value string) error {
	_, err := c.db.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("writing setting %q: %w", key, err)
	}
	return nil
}

// Close closes the database connection.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

// scanning helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlbum(row rowScanner) (*model.Album, error) {
	var (
		album     model.Album
		cover     sql.NullInt64
		emoji     sql.NullString
		updatedAt int64
	)
	if err := row.Scan(&album.ID, &album.Name, &cover, &album.PhotoCount, &album.Favorite, &emoji, &updatedAt); err != nil {
		return nil, err
	}
	if cover.Valid {
		album.CoverPhotoID = &cover.Int64
	}
	if emoji.Valid {
		album.Emoji = &emoji.String
	}
	album.UpdatedAt = time.UnixMilli(updatedAt)
	return &album, nil
}

func scanPhoto(row rowScanner) (*model.Photo, error) {
	var (
		photo                         model.Photo
		tags                          string
		takenAt, createdAt, updatedAt int64
	)
	if err := row.Scan(&photo.ID, &photo.AlbumID, &photo.Filename, &photo.Path, &photo.ThumbPath,
		&photo.Width, &photo.Height, &photo.SizeBytes, &photo.Caption, &tags, &photo.Favorite,
		&takenAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &photo.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags of photo %d: %w", photo.ID, err)
	}
	photo.TakenAt = time.UnixMilli(takenAt)
	photo.CreatedAt = time.UnixMilli(createdAt)
	photo.UpdatedAt = time.UnixMilli(updatedAt)
	return &photo, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encoding tags: %w", err)
	}
	return string(data), nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

// Compile-time check that SQLiteCatalog implements the backup.Catalog interface
var _ backup.Catalog = (*SQLiteCatalog)(nil)
