// Package configurators implements the per-domain device configurators: one
// per app or subsystem, each translating its parsed domain spec into device
// control calls. Configurators isolate failures at the item level and report
// a finished outcome to the engine.
package configurators

// Target app packages.
const (
	pkgSettings      = "com.android.settings"
	pkgContacts      = "com.android.contacts"
	pkgMessaging     = "com.android.messaging"
	pkgCalendar      = "com.simplemobiletools.calendar.pro"
	pkgBroccoli      = "com.flauschcode.broccoli"
	pkgTasks         = "org.tasks"
	pkgExpense       = "com.arduia.expense"
	pkgRetroMusic    = "code.name.monkey.retromusic"
	pkgJoplin        = "net.cozic.joplin"
	pkgOsmand        = "net.osmand"
	pkgAudioRecorder = "com.dimowner.audiorecorder"
	pkgMarkor        = "net.gsantner.markor"
)

// App database paths and tables.
const (
	smsDBPath  = "/data/data/com.android.providers.telephony/databases/mmssms.db"
	smsTable   = "sms"
	smsContent = "content://sms"

	calendarDBPath = "/data/data/com.simplemobiletools.calendar.pro/databases/events.db"
	calendarTable  = "events"

	recipeDBPath = "/data/data/com.flauschcode.broccoli/databases/broccoli"
	recipeTable  = "recipes"

	tasksDBPath = "/data/data/org.tasks/databases/database"
	tasksTable  = "tasks"

	expenseDBPath = "/data/data/com.arduia.expense/databases/accounting.db"
	expenseTable  = "expense"

	musicPlaylistDBPath = "/data/data/code.name.monkey.retromusic/databases/playlist.db"
	musicPlaybackDBPath = "/data/data/code.name.monkey.retromusic/databases/music_playback_state.db"

	joplinDBPath           = "/data/data/net.cozic.joplin/databases/joplin.sqlite"
	joplinFoldersTable     = "folders"
	joplinNotesTable       = "notes"
	joplinNormalizedTable  = "notes_normalized"
	opentracksDBPath       = "/data/data/de.dennisguse.opentracks/databases/database.db"
	opentracksTracksTable  = "tracks"
	pkgOpenTracksActivity  = "de.dennisguse.opentracks"
	audioMediaContent      = "content://media/external/audio/media"
	contactsRawContent     = "content://com.android.contacts/raw_contacts"
	contactsDataContent    = "content://com.android.contacts/data"
	mimeStructuredName     = "vnd.android.cursor.item/name"
	mimePhone              = "vnd.android.cursor.item/phone_v2"
	phoneTypeMobile        = 2
	smsReceivedBroadcast   = "android.provider.Telephony.SMS_RECEIVED"
	mediaScanAction        = "android.intent.action.MEDIA_SCANNER_SCAN_FILE"
	osmandFavoritesPath    = "/data/media/0/Android/data/net.osmand/files/favorites/favorites.gpx"
	osmandLegacyFavorites  = "/data/data/net.osmand/files/favourites_bak.gpx"
	osmandBackupDir        = "/data/data/net.osmand/files/backup"
	audioRecordingsDir     = "/storage/emulated/0/Android/data/com.dimowner.audiorecorder/files/Music/records"
	markorRoot             = "/storage/emulated/0/Documents/Markor"
	musicDir               = "/storage/emulated/0/Music"
	galleryDir             = "/storage/emulated/0/DCIM"
	picturesDir            = "/storage/emulated/0/Pictures"
	sharedStorageRoot      = "/storage/emulated/0"
	smsConversationContent = "content://mms-sms/conversations"
	mmsContent             = "content://mms"
)
