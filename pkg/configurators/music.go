package configurators

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/droidseed/droidseed/pkg/device"
	"github.com/droidseed/droidseed/pkg/engine"
	"github.com/droidseed/droidseed/pkg/spec"
)

const defaultSongDurationMs = 180000

// Music configures the RetroMusic app: music files on shared storage plus
// playlist and playback-queue databases.
type Music struct{}

func (c *Music) Domain() spec.Domain { return spec.DomainMusic }

func (c *Music) EnsureReady(ctx context.Context, dev device.Controller) error {
	if err := ensureApp(ctx, dev, pkgRetroMusic); err != nil {
		return err
	}
	return warmApp(ctx, dev, pkgRetroMusic)
}

func (c *Music) Run(ctx context.Context, dev device.Controller, ds spec.DomainSpec) *engine.DomainOutcome {
	s := ds.(*spec.MusicSpec)
	o := engine.NewOutcome(spec.DomainMusic)

	if s.ClearMusic {
		if err := c.clearMusic(ctx, dev); err != nil {
			o.RecordError("clear", -1, err)
		} else {
			o.Cleared = true
		}
	}

	for i, f := range s.AddMusicFiles {
		o.ItemsTotal++
		if err := c.addMusicFile(ctx, dev, f); err != nil {
			o.RecordError("add_music_file", i, err)
			continue
		}
		o.ItemsWritten++
	}
	if len(s.AddMusicFiles) > 0 {
		if err := mediaScan(ctx, dev, musicDir); err != nil {
			o.RecordError("media_scan", -1, err)
		}
	}

	var library map[string]map[string]string
	if len(s.AddPlaylists) > 0 || len(s.SetQueue) > 0 {
		library = c.songLibrary(ctx, dev)
	}

	songKey := int64(10000)
	for i, pl := range s.AddPlaylists {
		o.ItemsTotal++
		if err := c.addPlaylist(ctx, dev, pl, library, songKey); err != nil {
			o.RecordError("add_playlist", i, err)
			continue
		}
		songKey += int64(len(pl.Songs)) + 1000
		o.ItemsWritten++
	}

	if len(s.SetQueue) > 0 {
		o.ItemsTotal++
		if err := c.setQueue(ctx, dev, s.SetQueue, library); err != nil {
			o.RecordError("set_queue", -1, err)
		} else {
			o.ItemsWritten++
		}
	}

	// Restart so the app picks up the new library state.
	if o.ItemsWritten > 0 {
		_ = dev.LaunchApp(ctx, pkgRetroMusic)
	}

	o.Finalize()
	return o
}

func (c *Music) clearMusic(ctx context.Context, dev device.Controller) error {
	if err := clearDir(ctx, dev, musicDir); err != nil {
		return err
	}
	for _, table := range []string{"PlaylistEntity", "SongEntity"} {
		if err := clearTable(ctx, dev, musicPlaylistDBPath, table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// addMusicFile synthesizes a tagged MP3 and pushes it into the music
// directory.
func (c *Music) addMusicFile(ctx context.Context, dev device.Controller, f spec.MusicFileRecord) error {
	title := f.Title
	if title == "" {
		title = f.Name
	}
	artist := f.Artist
	if artist == "" {
		artist = "Unknown Artist"
	}
	if err := mkdirAll(ctx, dev, musicDir); err != nil {
		return err
	}
	data := synthesizeMP3(title, artist, f.AlbumName)
	return writeDeviceFile(ctx, dev, fmt.Sprintf("%s/%s.mp3", musicDir, f.Name), data)
}

// songLibrary queries the media store and maps song titles to their rows.
// An unreachable media store yields an empty map: playlist rows then fall
// back to synthetic metadata.
func (c *Music) songLibrary(ctx context.Context, dev device.Controller) map[string]map[string]string {
	rows, err := dev.QueryContent(ctx, audioMediaContent, nil, "")
	if err != nil {
		return map[string]map[string]string{}
	}
	library := make(map[string]map[string]string, len(rows))
	for _, row := range rows {
		if title, ok := row["title"]; ok && title != "" {
			library[title] = row
		}
	}
	return library
}

// songRow is the metadata written for one playlist or queue entry.
type songRow struct {
	id           int64
	track        int64
	year         int64
	duration     int64
	data         string
	dateModified int64
	albumID      int64
	albumName    string
	artistID     int64
	artistName   string
	composer     string
	albumArtist  string
}

// resolveSong builds the row from the media library entry when the song is
// known, or from defaults when it is not.
func resolveSong(name string, index int, fallbackID int64, library map[string]map[string]string) songRow {
	row := songRow{
		id:           fallbackID,
		track:        int64(index + 1),
		year:         2023,
		duration:     defaultSongDurationMs,
		data:         fmt.Sprintf("%s/%s.mp3", musicDir, name),
		dateModified: time.Now().Unix(),
		albumName:    "Unknown Album",
		artistName:   "Unknown Artist",
	}
	row.albumID = row.id
	row.artistID = row.id

	info, ok := library[name]
	if !ok {
		return row
	}
	getInt := func(key string, def int64) int64 {
		if v, err := strconv.ParseInt(info[key], 10, 64); err == nil {
			return v
		}
		return def
	}
	getStr := func(key, def string) string {
		if v := info[key]; v != "" {
			return v
		}
		return def
	}
	row.id = getInt("_id", row.id)
	row.track = getInt("track", row.track)
	row.year = getInt("year", row.year)
	row.duration = getInt("duration", row.duration)
	row.data = getStr("_data", row.data)
	row.dateModified = getInt("date_modified", row.dateModified)
	row.albumID = getInt("album_id", 1)
	row.albumName = getStr("album", row.albumName)
	row.artistID = getInt("artist_id", 1)
	row.artistName = getStr("artist", row.artistName)
	row.composer = info["composer"]
	row.albumArtist = info["album_artist"]
	return row
}

func (c *Music) addPlaylist(ctx context.Context, dev device.Controller, pl spec.PlaylistRecord, library map[string]map[string]string, songKeyBase int64) error {
	playlistID := time.Now().UnixMilli()
	err := insertRow(ctx, dev, musicPlaylistDBPath, "PlaylistEntity",
		[]string{"playlist_id", "playlist_name"},
		[]string{sqlInt(playlistID), sqlString(pl.Name)})
	if err != nil {
		return fmt.Errorf("insert playlist: %w", err)
	}

	for i, song := range pl.Songs {
		key := songKeyBase + int64(i)
		row := resolveSong(song, i, key, library)
		err := insertRow(ctx, dev, musicPlaylistDBPath, "SongEntity",
			[]string{
				"playlist_creator_id", "song_key", "id", "title", "track_number", "year",
				"duration", "data", "date_modified", "album_id", "album_name",
				"artist_id", "artist_name", "composer", "album_artist",
			},
			[]string{
				sqlInt(playlistID), sqlInt(key), sqlInt(row.id), sqlString(song), sqlInt(row.track), sqlInt(row.year),
				sqlInt(row.duration), sqlString(row.data), sqlInt(row.dateModified), sqlInt(row.albumID), sqlString(row.albumName),
				sqlInt(row.artistID), sqlString(row.artistName), sqlString(row.composer), sqlString(row.albumArtist),
			})
		if err != nil {
			return fmt.Errorf("insert song %q: %w", song, err)
		}
	}
	return nil
}

func (c *Music) setQueue(ctx context.Context, dev device.Controller, songs []string, library map[string]map[string]string) error {
	if err := clearTable(ctx, dev, musicPlaybackDBPath, "playing_queue"); err != nil {
		return fmt.Errorf("clear queue: %w", err)
	}
	for i, song := range songs {
		row := resolveSong(song, i, int64(i+1000), library)
		err := insertRow(ctx, dev, musicPlaybackDBPath, "playing_queue",
			[]string{
				"_id", "title", "track", "year", "duration",
				"_data", "date_modified", "album_id", "album",
				"artist_id", "artist", "composer", "album_artist",
			},
			[]string{
				sqlInt(row.id), sqlString(song), sqlInt(row.track), sqlInt(row.year), sqlInt(row.duration),
				sqlString(row.data), sqlInt(row.dateModified), sqlInt(row.albumID), sqlString(row.albumName),
				sqlInt(row.artistID), sqlString(row.artistName), sqlString(row.composer), sqlString(row.albumArtist),
			})
		if err != nil {
			return fmt.Errorf("queue song %q: %w", song, err)
		}
	}
	return nil
}

// synthesizeMP3 builds a minimal but scannable MP3: an ID3v2.3 tag carrying
// the title, artist, and album, followed by a run of silent MPEG frames.
func synthesizeMP3(title, artist, album string) []byte {
	frames := id3TextFrame("TIT2", title)
	frames = append(frames, id3TextFrame("TPE1", artist)...)
	if album != "" {
		frames = append(frames, id3TextFrame("TALB", album)...)
	}

	header := []byte{'I', 'D', '3', 0x03, 0x00, 0x00}
	header = append(header, syncsafe(len(frames))...)

	out := append(header, frames...)

	// MPEG-1 Layer III, 128kbps, 44.1kHz silent frames.
	frame := make([]byte, 417)
	frame[0], frame[1], frame[2], frame[3] = 0xFF, 0xFB, 0x90, 0x00
	for i := 0; i < 38; i++ {
		out = append(out, frame...)
	}
	return out
}

// id3TextFrame renders one ID3v2.3 text frame with Latin-1 encoding.
func id3TextFrame(id, text string) []byte {
	payload := append([]byte{0x00}, []byte(text)...)
	frame := []byte(id)
	size := len(payload)
	frame = append(frame,
		byte(size>>24), byte(size>>16), byte(size>>8), byte(size),
		0x00, 0x00)
	return append(frame, payload...)
}

// syncsafe encodes a length as the 4-byte 7-bit-per-byte ID3 size field.
func syncsafe(n int) []byte {
	return []byte{
		byte(n >> 21 & 0x7F),
		byte(n >> 14 & 0x7F),
		byte(n >> 7 & 0x7F),
		byte(n & 0x7F),
	}
}
