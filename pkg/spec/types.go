// Package spec defines the declarative run specification: the typed,
// validated representation of the document that describes the exact state a
// device should be driven to. Parsing is strict: unknown domains and unknown
// fields are rejected, enumerated values are checked against their option
// sets, and per-item required fields are enforced before anything touches
// the device.
package spec

import (
	"fmt"
)

// Domain identifies one configurable subsystem or app on the device.
type Domain string

const (
	DomainDatetime      Domain = "datetime"
	DomainSystem        Domain = "system"
	DomainContacts      Domain = "contacts"
	DomainSms           Domain = "sms"
	DomainCalendar      Domain = "calendar"
	DomainRecipe        Domain = "recipe"
	DomainTasks         Domain = "tasks"
	DomainExpense       Domain = "expense"
	DomainMusic         Domain = "music"
	DomainJoplin        Domain = "joplin"
	DomainOsmand        Domain = "osmand"
	DomainAudioRecorder Domain = "audio_recorder"
	DomainMarkor        Domain = "markor"
	DomainFiles         Domain = "files"
	DomainOpenTracks    Domain = "opentracks"
	DomainGallery       Domain = "gallery"
)

// CanonicalOrder is the fixed order in which domains are applied. Settings
// domains that need no warm app state run first; app-content domains follow.
// Execution order never depends on the key order of the input document.
var CanonicalOrder = []Domain{
	DomainDatetime,
	DomainSystem,
	DomainContacts,
	DomainSms,
	DomainCalendar,
	DomainRecipe,
	DomainTasks,
	DomainExpense,
	DomainMusic,
	DomainJoplin,
	DomainOsmand,
	DomainAudioRecorder,
	DomainMarkor,
	DomainFiles,
	DomainOpenTracks,
	DomainGallery,
}

// Validate checks that the domain is one of the supported set.
func (d Domain) Validate() error {
	for _, known := range CanonicalOrder {
		if d == known {
			return nil
		}
	}
	return fmt.Errorf("unknown domain: %s", d)
}

// DomainSpec is the parsed, validated configuration for one domain.
type DomainSpec interface {
	// Domain returns the domain this spec configures.
	Domain() Domain

	// ClearRequested reports whether any clear directive is set.
	ClearRequested() bool
}

// Options are the run-wide settings that come from the caller rather than
// the declarative document.
type Options struct {
	// ConsolePort is the console port of the emulator.
	ConsolePort int `json:"console_port"`

	// GRPCPort is the gRPC port of the emulator.
	GRPCPort int `json:"grpc_port"`

	// DeviceSerial selects the target device. A serial that does not start
	// with "emulator-" is treated as a physical device.
	DeviceSerial string `json:"device_serial,omitempty"`

	// ADBPath is the path to the adb binary.
	ADBPath string `json:"adb_path,omitempty"`

	// EmulatorSetup requests idempotent first-run app setup before the
	// per-domain passes.
	EmulatorSetup bool `json:"emulator_setup"`

	// AllowDestructive permits clear directives on physical devices.
	AllowDestructive bool `json:"allow_destructive"`
}

// RunSpec is the complete declarative description for one run. It is built
// once from the input document and read-only thereafter.
type RunSpec struct {
	// Options are the run-wide settings.
	Options Options

	// Domains maps each successfully parsed domain to its spec.
	Domains map[Domain]DomainSpec

	// Rejected maps domains whose payload failed validation to the parse
	// error. A rejected domain is reported as failed but does not abort
	// the run.
	Rejected map[Domain]error
}

// Present reports whether the domain appears in the input at all, parsed or
// rejected.
func (rs *RunSpec) Present(d Domain) bool {
	if _, ok := rs.Domains[d]; ok {
		return true
	}
	_, ok := rs.Rejected[d]
	return ok
}

// DatetimeSpec configures the device clock and timezone.
type DatetimeSpec struct {
	// Datetime is an absolute timestamp in "2006-01-02 15:04:05" form.
	Datetime string `json:"datetime,omitempty"`

	Year   int `json:"year,omitempty" validate:"omitempty,gte=1970,lte=2100"`
	Month  int `json:"month,omitempty" validate:"omitempty,gte=1,lte=12"`
	Day    int `json:"day,omitempty" validate:"omitempty,gte=1,lte=31"`
	Hour   int `json:"hour,omitempty" validate:"omitempty,gte=0,lte=23"`
	Minute int `json:"minute,omitempty" validate:"omitempty,gte=0,lte=59"`
	Second int `json:"second,omitempty" validate:"omitempty,gte=0,lte=59"`

	// Timezone is an Olson timezone name, e.g. "America/New_York".
	Timezone string `json:"timezone,omitempty"`

	// UseRandomDatetime picks a timestamp inside a window instead of an
	// absolute one.
	UseRandomDatetime bool `json:"use_random_datetime,omitempty"`

	// RandomWindowCenter is the center of the random window, same format
	// as Datetime. Required when UseRandomDatetime is set.
	RandomWindowCenter string `json:"random_window_center,omitempty"`

	// RandomWindowSizeDays is the window width. Defaults to 14.
	RandomWindowSizeDays int `json:"random_window_size_days,omitempty" validate:"omitempty,gt=0"`

	// DisableAutoSettings turns off automatic time and timezone sync so
	// the configured values stick. Defaults to true.
	DisableAutoSettings *bool `json:"disable_auto_settings,omitempty"`
}

func (s *DatetimeSpec) Domain() Domain       { return DomainDatetime }
func (s *DatetimeSpec) ClearRequested() bool { return false }

// AutoSettingsDisabled resolves the DisableAutoSettings default.
func (s *DatetimeSpec) AutoSettingsDisabled() bool {
	return s.DisableAutoSettings == nil || *s.DisableAutoSettings
}

// SystemSpec configures system-level settings.
type SystemSpec struct {
	// Brightness is "min", "max", or an integer percentage 0-100.
	Brightness string `json:"brightness,omitempty"`

	Wifi         string `json:"wifi,omitempty" validate:"omitempty,oneof=on off"`
	Bluetooth    string `json:"bluetooth,omitempty" validate:"omitempty,oneof=on off"`
	AirplaneMode string `json:"airplane_mode,omitempty" validate:"omitempty,oneof=on off"`

	// Clipboard sets the clipboard text.
	Clipboard string `json:"clipboard,omitempty"`

	// CloseAllApps dismisses every recent app.
	CloseAllApps bool `json:"close_all_apps,omitempty"`

	// OpenApp launches the named app after the other settings are applied.
	OpenApp string `json:"open_app,omitempty"`
}

func (s *SystemSpec) Domain() Domain       { return DomainSystem }
func (s *SystemSpec) ClearRequested() bool { return s.CloseAllApps }

// ContactRecord is one contact to create.
type ContactRecord struct {
	Name   string `json:"name" validate:"required"`
	Number string `json:"number" validate:"required"`
}

// ContactsSpec configures the contacts provider.
type ContactsSpec struct {
	ClearContacts bool            `json:"clear_contacts,omitempty"`
	AddContacts   []ContactRecord `json:"add_contacts,omitempty" validate:"dive"`
}

func (s *ContactsSpec) Domain() Domain       { return DomainContacts }
func (s *ContactsSpec) ClearRequested() bool { return s.ClearContacts }

// MessageRecord is one SMS message to insert.
type MessageRecord struct {
	Number string `json:"number" validate:"required"`
	Text   string `json:"text" validate:"required"`

	// IsReceived marks the message as incoming. Defaults to true.
	IsReceived *bool `json:"is_received,omitempty"`
}

// Received resolves the IsReceived default.
func (m *MessageRecord) Received() bool {
	return m.IsReceived == nil || *m.IsReceived
}

// SmsSpec configures the SMS store.
type SmsSpec struct {
	ClearMessages          bool            `json:"clear_messages,omitempty"`
	AddMessages            []MessageRecord `json:"add_messages,omitempty" validate:"dive"`
	AddRandomConversations bool            `json:"add_random_conversations,omitempty"`

	// RandomConversationCount defaults to 3.
	RandomConversationCount int `json:"random_conversation_count,omitempty" validate:"omitempty,gt=0"`

	// DisableAutoReply requests that seeding avoid UI-level sending so no
	// auto replies fire. Defaults to true. The configurator always writes
	// messages straight into the telephony database, which satisfies this
	// for free: the messaging app never sees a send, so the flag only
	// matters to alternative appliers that drive the UI.
	DisableAutoReply *bool `json:"disable_auto_reply,omitempty"`

	// DisableNotificationsDuringSetup mutes message notifications while
	// seeding. Defaults to true.
	DisableNotificationsDuringSetup *bool `json:"disable_notifications_during_setup,omitempty"`
}

func (s *SmsSpec) Domain() Domain       { return DomainSms }
func (s *SmsSpec) ClearRequested() bool { return s.ClearMessages }

// EventRecord is one calendar event to insert.
type EventRecord struct {
	Title        string `json:"title" validate:"required"`
	StartTime    string `json:"start_time,omitempty"`
	DurationMins int    `json:"duration_mins,omitempty" validate:"omitempty,gt=0"`
	Description  string `json:"description,omitempty"`
	Location     string `json:"location,omitempty"`

	// RepeatInterval is a repeat period in seconds (0 means no repeat).
	RepeatInterval int `json:"repeat_interval,omitempty" validate:"omitempty,gte=0"`

	// DayOfWeek schedules the event on the next such weekday when no
	// absolute start time is given.
	DayOfWeek string `json:"day_of_week,omitempty" validate:"omitempty,oneof=monday tuesday wednesday thursday friday saturday sunday"`
}

// CalendarSpec configures the calendar provider.
type CalendarSpec struct {
	ClearEvents     bool          `json:"clear_events,omitempty"`
	AddEvents       []EventRecord `json:"add_events,omitempty" validate:"dive"`
	AddRandomEvents bool          `json:"add_random_events,omitempty"`

	// RandomEventCount defaults to 10.
	RandomEventCount int `json:"random_event_count,omitempty" validate:"omitempty,gt=0"`
}

func (s *CalendarSpec) Domain() Domain       { return DomainCalendar }
func (s *CalendarSpec) ClearRequested() bool { return s.ClearEvents }

// RecipeRecord is one recipe row for the recipe app database.
type RecipeRecord struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
	Servings    string `json:"servings,omitempty"`
	Ingredients string `json:"ingredients,omitempty"`
	Directions  string `json:"directions,omitempty"`
	Favorite    bool   `json:"favorite,omitempty"`
	Source      string `json:"source,omitempty"`
}

// RecipeSpec configures the recipe app.
type RecipeSpec struct {
	ClearRecipes     bool           `json:"clear_recipes,omitempty"`
	AddRecipes       []RecipeRecord `json:"add_recipes,omitempty" validate:"dive"`
	AddRandomRecipes bool           `json:"add_random_recipes,omitempty"`

	// RandomRecipeCount defaults to 5.
	RandomRecipeCount int `json:"random_recipe_count,omitempty" validate:"omitempty,gt=0"`
}

func (s *RecipeSpec) Domain() Domain       { return DomainRecipe }
func (s *RecipeSpec) ClearRequested() bool { return s.ClearRecipes }

// TaskRecord is one task row for the tasks app database.
type TaskRecord struct {
	Title         string `json:"title" validate:"required"`
	Importance    int    `json:"importance,omitempty" validate:"omitempty,gte=0,lte=3"`
	DueTime       string `json:"due_time,omitempty"`
	HideUntilTime string `json:"hide_until_time,omitempty"`
	Completed     bool   `json:"completed,omitempty"`
	CompletedTime string `json:"completed_time,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// TasksSpec configures the tasks app.
type TasksSpec struct {
	ClearTasks     bool         `json:"clear_tasks,omitempty"`
	AddTasks       []TaskRecord `json:"add_tasks,omitempty" validate:"dive"`
	AddRandomTasks bool         `json:"add_random_tasks,omitempty"`

	// AddRandomTasksCount defaults to 0; random tasks are only generated
	// when AddRandomTasks is set.
	AddRandomTasksCount int `json:"add_random_tasks_count,omitempty" validate:"omitempty,gte=0"`
}

func (s *TasksSpec) Domain() Domain       { return DomainTasks }
func (s *TasksSpec) ClearRequested() bool { return s.ClearTasks }

// ExpenseRecord is one expense row for the expense app database.
type ExpenseRecord struct {
	Name         string  `json:"name" validate:"required"`
	Amount       float64 `json:"amount" validate:"gte=0"`
	Category     string  `json:"category,omitempty"`
	Note         string  `json:"note,omitempty"`
	CreatedDate  string  `json:"created_date,omitempty"`
	ModifiedDate string  `json:"modified_date,omitempty"`
}

// ExpenseSpec configures the expense app.
type ExpenseSpec struct {
	ClearExpenses     bool            `json:"clear_expenses,omitempty"`
	AddExpenses       []ExpenseRecord `json:"add_expenses,omitempty" validate:"dive"`
	AddRandomExpenses bool            `json:"add_random_expenses,omitempty"`

	// RandomExpenseCount defaults to 5.
	RandomExpenseCount int `json:"random_expense_count,omitempty" validate:"omitempty,gt=0"`
}

func (s *ExpenseSpec) Domain() Domain       { return DomainExpense }
func (s *ExpenseSpec) ClearRequested() bool { return s.ClearExpenses }

// MusicFileRecord is one audio file to synthesize and register.
type MusicFileRecord struct {
	Name        string `json:"name" validate:"required"`
	Title       string `json:"title,omitempty"`
	Artist      string `json:"artist,omitempty"`
	DurationMs  int    `json:"duration_ms,omitempty" validate:"omitempty,gt=0"`
	AlbumName   string `json:"album_name,omitempty"`
	AlbumArtist string `json:"album_artist,omitempty"`
	Composer    string `json:"composer,omitempty"`
	Year        int    `json:"year,omitempty" validate:"omitempty,gte=0"`
	TrackNumber int    `json:"track_number,omitempty" validate:"omitempty,gte=0"`
}

// PlaylistRecord is one playlist for the music app database.
type PlaylistRecord struct {
	Name  string   `json:"name" validate:"required"`
	Songs []string `json:"songs,omitempty"`
}

// MusicSpec configures the music app.
type MusicSpec struct {
	ClearMusic    bool              `json:"clear_music,omitempty"`
	AddMusicFiles []MusicFileRecord `json:"add_music_files,omitempty" validate:"dive"`
	AddPlaylists  []PlaylistRecord  `json:"add_playlists,omitempty" validate:"dive"`

	// SetQueue replaces the playback queue with the named songs.
	SetQueue []string `json:"set_queue,omitempty"`
}

func (s *MusicSpec) Domain() Domain       { return DomainMusic }
func (s *MusicSpec) ClearRequested() bool { return s.ClearMusic }

// NoteRecord is one note for a note-taking app. Markor consumes Content;
// Joplin consumes Body and the todo fields.
type NoteRecord struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content,omitempty"`
	Body    string `json:"body,omitempty"`
	Folder  string `json:"folder,omitempty"`

	IsTodo        bool `json:"is_todo,omitempty"`
	TodoCompleted bool `json:"todo_completed,omitempty"`
}

// FolderRecord is one folder to create.
type FolderRecord struct {
	Title string `json:"title" validate:"required"`
}

// MarkorSpec configures the Markor note app (flat markdown files).
type MarkorSpec struct {
	ClearNotes     bool           `json:"clear_notes,omitempty"`
	AddFolders     []FolderRecord `json:"add_folders,omitempty" validate:"dive"`
	AddNotes       []NoteRecord   `json:"add_notes,omitempty" validate:"dive"`
	AddRandomNotes bool           `json:"add_random_notes,omitempty"`

	// RandomNoteCount defaults to 10.
	RandomNoteCount int `json:"random_note_count,omitempty" validate:"omitempty,gt=0"`
}

func (s *MarkorSpec) Domain() Domain       { return DomainMarkor }
func (s *MarkorSpec) ClearRequested() bool { return s.ClearNotes }

// JoplinSpec configures the Joplin note app (sqlite database).
type JoplinSpec struct {
	ClearNotes     bool           `json:"clear_notes,omitempty"`
	AddFolders     []FolderRecord `json:"add_folders,omitempty" validate:"dive"`
	AddNotes       []NoteRecord   `json:"add_notes,omitempty" validate:"dive"`
	AddRandomNotes bool           `json:"add_random_notes,omitempty"`

	// RandomNoteCount defaults to 10.
	RandomNoteCount int `json:"random_note_count,omitempty" validate:"omitempty,gt=0"`

	// RandomCategories, when set, names the notebooks random notes are
	// spread across.
	RandomCategories []string `json:"random_categories,omitempty"`
}

func (s *JoplinSpec) Domain() Domain       { return DomainJoplin }
func (s *JoplinSpec) ClearRequested() bool { return s.ClearNotes }

// FavoriteRecord is one OsmAnd favorite place.
type FavoriteRecord struct {
	Name string  `json:"name" validate:"required"`
	Lat  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon  float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// OsmandSpec configures the OsmAnd maps app (favourites GPX file).
type OsmandSpec struct {
	ClearFavorites bool             `json:"clear_favorites,omitempty"`
	AddFavorites   []FavoriteRecord `json:"add_favorites,omitempty" validate:"dive"`
}

func (s *OsmandSpec) Domain() Domain       { return DomainOsmand }
func (s *OsmandSpec) ClearRequested() bool { return s.ClearFavorites }

// AudioRecorderSpec configures the audio recorder app.
type AudioRecorderSpec struct {
	ClearRecordings bool `json:"clear_recordings,omitempty"`
}

func (s *AudioRecorderSpec) Domain() Domain       { return DomainAudioRecorder }
func (s *AudioRecorderSpec) ClearRequested() bool { return s.ClearRecordings }

// FileRecord is one file to create on shared storage.
type FileRecord struct {
	Name    string `json:"name" validate:"required"`
	Folder  string `json:"folder,omitempty"`
	Content string `json:"content,omitempty"`
}

// FolderPathRecord is one folder to create on shared storage.
type FolderPathRecord struct {
	Name   string `json:"name" validate:"required"`
	Folder string `json:"folder,omitempty"`
}

// CopyRecord copies an on-device file to another on-device path.
type CopyRecord struct {
	Source      string `json:"source" validate:"required"`
	Destination string `json:"destination" validate:"required"`
}

// FilesSpec configures shared storage content.
type FilesSpec struct {
	// ClearFolders lists folders (relative to shared storage) to empty.
	ClearFolders []string `json:"clear_folders,omitempty"`

	CreateFolders []FolderPathRecord `json:"create_folders,omitempty" validate:"dive"`
	AddFiles      []FileRecord       `json:"add_files,omitempty" validate:"dive"`
	CopyFiles     []CopyRecord       `json:"copy_files,omitempty" validate:"dive"`

	AddRandomFiles bool `json:"add_random_files,omitempty"`

	// RandomFileCount defaults to 5.
	RandomFileCount int `json:"random_file_count,omitempty" validate:"omitempty,gt=0"`

	// RandomFileFolders defaults to Download, Documents, Pictures.
	RandomFileFolders []string `json:"random_file_folders,omitempty"`
}

func (s *FilesSpec) Domain() Domain       { return DomainFiles }
func (s *FilesSpec) ClearRequested() bool { return len(s.ClearFolders) > 0 }

// ActivityRecord is one track row for the activity tracker database.
type ActivityRecord struct {
	Name          string  `json:"name" validate:"required"`
	Category      string  `json:"category,omitempty"`
	Description   string  `json:"description,omitempty"`
	StartDate     string  `json:"start_date,omitempty"`
	StartTime     string  `json:"start_time,omitempty"`
	DurationMins  int     `json:"duration_mins,omitempty" validate:"omitempty,gt=0"`
	Distance      float64 `json:"distance,omitempty" validate:"omitempty,gte=0"`
	ElevationGain float64 `json:"elevation_gain,omitempty" validate:"omitempty,gte=0"`
	ElevationLoss float64 `json:"elevation_loss,omitempty" validate:"omitempty,gte=0"`
}

// OpenTracksSpec configures the activity tracker app.
type OpenTracksSpec struct {
	ClearActivities     bool             `json:"clear_activities,omitempty"`
	AddActivities       []ActivityRecord `json:"add_activities,omitempty" validate:"dive"`
	AddRandomActivities bool             `json:"add_random_activities,omitempty"`

	// RandomActivityCount defaults to 5.
	RandomActivityCount int `json:"random_activity_count,omitempty" validate:"omitempty,gt=0"`
}

func (s *OpenTracksSpec) Domain() Domain       { return DomainOpenTracks }
func (s *OpenTracksSpec) ClearRequested() bool { return s.ClearActivities }

// ImageRecord is one gallery image. Exactly one of Text (an image rendered
// from the text) or Src (a local file pushed to the device) must be set;
// this is enforced at parse time.
type ImageRecord struct {
	Filename string `json:"filename" validate:"required"`
	Path     string `json:"path,omitempty"`
	Text     string `json:"text,omitempty"`
	Src      string `json:"src,omitempty"`
}

// GallerySpec configures the device photo gallery.
type GallerySpec struct {
	ClearImages bool          `json:"clear_images,omitempty"`
	AddImages   []ImageRecord `json:"add_images,omitempty" validate:"dive"`
}

func (s *GallerySpec) Domain() Domain       { return DomainGallery }
func (s *GallerySpec) ClearRequested() bool { return s.ClearImages }
