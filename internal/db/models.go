package db

import "time"

// SongMetadata maps song_metadata. The deduplication engine never updates
// or deletes rows in this table.
type SongMetadata struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Song            *string   `gorm:"column:song;type:text"`
	Artist0         *string   `gorm:"column:artist_0;type:text"`
	ArtistN         *string   `gorm:"column:artist_n;type:text"`
	Album           *string   `gorm:"column:album;type:text"`
	ReleaseYear     *int      `gorm:"column:release_year;type:integer"`
	Genre0          *string   `gorm:"column:genre_0;type:text"`
	CanonicalSongID *int64    `gorm:"column:canonical_song_id;type:bigint"`
	CreatedAt       time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (SongMetadata) TableName() string { return "song_metadata" }

// Artist maps artist.
type Artist struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Artist) TableName() string { return "artist" }

// SongArtist maps song_artist, the relationship table linking songs to
// their primary and featured artists.
type SongArtist struct {
	SongID      int64 `gorm:"column:song_id;type:bigint;primaryKey"`
	ArtistID    int64 `gorm:"column:artist_id;type:bigint;primaryKey"`
	ArtistOrder int   `gorm:"column:artist_order;type:integer;primaryKey;default:0"`
	IsPrimary   bool  `gorm:"column:is_primary;type:boolean;not null;default:false"`
}

func (SongArtist) TableName() string { return "song_artist" }

// SongAlias maps song_alias. Rows are append-only; the unique
// (song_id, alias) pair makes inserts idempotent.
type SongAlias struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SongID    int64     `gorm:"column:song_id;type:bigint;not null;uniqueIndex:song_alias_song_id_alias_key"`
	Alias     string    `gorm:"column:alias;type:text;not null;uniqueIndex:song_alias_song_id_alias_key"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (SongAlias) TableName() string { return "song_alias" }

// ArtistAlias maps artist_alias. Same append-only discipline as SongAlias.
type ArtistAlias struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ArtistID  int64     `gorm:"column:artist_id;type:bigint;not null;uniqueIndex:artist_alias_artist_id_alias_key"`
	Alias     string    `gorm:"column:alias;type:text;not null;uniqueIndex:artist_alias_artist_id_alias_key"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (ArtistAlias) TableName() string { return "artist_alias" }

func autoMigrateModels() []any {
	return []any{
		&SongMetadata{},
		&Artist{},
		&SongArtist{},
		&SongAlias{},
		&ArtistAlias{},
	}
}
