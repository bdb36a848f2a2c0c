package configurators

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/droidseed/droidseed/pkg/device"
	"github.com/droidseed/droidseed/pkg/engine"
	"github.com/droidseed/droidseed/pkg/sample"
	"github.com/droidseed/droidseed/pkg/spec"
)

func TestDefaultRegistryCoversAllDomains(t *testing.T) {
	r := Default(sample.New(1))
	for _, d := range spec.CanonicalOrder {
		c, err := r.Resolve(d)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", d, err)
		}
		if c.Domain() != d {
			t.Errorf("configurator for %s reports domain %s", d, c.Domain())
		}
	}
}

func TestRegistryUnknownDomain(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Resolve(spec.DomainSms); err == nil {
		t.Fatal("expected an error for an empty registry")
	}
}

func TestContactsEndToEnd(t *testing.T) {
	fake := device.NewFake(pkgContacts)
	c := &Contacts{}

	if err := c.EnsureReady(context.Background(), fake); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}

	o := c.Run(context.Background(), fake, &spec.ContactsSpec{
		ClearContacts: true,
		AddContacts: []spec.ContactRecord{
			{Name: "Alice Johnson", Number: "+1 (234) 567-890"},
			{Name: "Bob Smith", Number: "+1234567891"},
		},
	})

	if o.Status != engine.StatusApplied {
		t.Fatalf("status = %s, errors = %v", o.Status, o.Errors)
	}
	if !o.Cleared {
		t.Error("clear should be recorded")
	}
	if o.ItemsWritten != 2 {
		t.Errorf("items written = %d, want 2", o.ItemsWritten)
	}
	if got := len(fake.Content[contactsDataContent]); got != 4 {
		t.Errorf("data rows = %d, want 4 (name and phone per contact)", got)
	}
	// The formatted number must be reduced to digits and plus.
	found := false
	for _, row := range fake.Content[contactsDataContent] {
		if row["data1"] == "+1234567890" {
			found = true
		}
	}
	if !found {
		t.Error("cleaned phone number +1234567890 not inserted")
	}
}

func TestContactsItemIsolation(t *testing.T) {
	fake := device.NewFake(pkgContacts)
	fake.FailOn["insert content://com.android.contacts/raw_contacts"] = errors.New("provider busy")

	c := &Contacts{}
	o := c.Run(context.Background(), fake, &spec.ContactsSpec{
		AddContacts: []spec.ContactRecord{
			{Name: "Alice", Number: "+1234567890"},
			{Name: "Bob", Number: "+1234567891"},
		},
	})

	if o.Status != engine.StatusFailed {
		t.Fatalf("status = %s, want failed", o.Status)
	}
	if len(o.Errors) != 2 {
		t.Errorf("errors = %d, want one per contact", len(o.Errors))
	}
	for i, e := range o.Errors {
		if e.Index != i || e.Op != "add_contact" {
			t.Errorf("error %d = %+v, want add_contact with matching index", i, e)
		}
	}
}

func TestSystemDomainIsolation(t *testing.T) {
	fake := device.NewFake()
	// Brightness readback disagrees with the written value; wifi works.
	fake.ShellResponses["settings get system screen_brightness"] = "42"
	fake.ShellResponses["settings get global wifi_on"] = "1"

	c := &System{}
	o := c.Run(context.Background(), fake, &spec.SystemSpec{
		Brightness: "max",
		Wifi:       "on",
	})

	if o.Status != engine.StatusPartiallyApplied {
		t.Fatalf("status = %s, want partially_applied", o.Status)
	}
	if o.ItemsWritten != 1 || o.ItemsTotal != 2 {
		t.Errorf("items = %d/%d, want 1/2", o.ItemsWritten, o.ItemsTotal)
	}
	if len(o.Errors) != 1 || o.Errors[0].Op != "set_brightness" {
		t.Errorf("errors = %v, want a single set_brightness failure", o.Errors)
	}
}

func TestSystemCloseAndOpen(t *testing.T) {
	fake := device.NewFake()
	c := &System{}

	o := c.Run(context.Background(), fake, &spec.SystemSpec{
		CloseAllApps: true,
		OpenApp:      "net.gsantner.markor",
	})

	if o.Status != engine.StatusApplied {
		t.Fatalf("status = %s, errors = %v", o.Status, o.Errors)
	}
	if len(fake.CallsMatching("close_all")) != 1 {
		t.Error("close_all_apps not invoked")
	}
	if len(fake.CallsMatching("launch net.gsantner.markor")) != 1 {
		t.Error("open_app not invoked")
	}
}

func TestSMSExplicitAndRandomAreAdditive(t *testing.T) {
	fake := device.NewFake(pkgMessaging)
	c := &SMS{rng: sample.New(11)}

	o := c.Run(context.Background(), fake, &spec.SmsSpec{
		AddMessages: []spec.MessageRecord{
			{Number: "+1234567890", Text: "hello"},
		},
		AddRandomConversations:  true,
		RandomConversationCount: 2,
	})

	if o.Status != engine.StatusApplied {
		t.Fatalf("status = %s, errors = %v", o.Status, o.Errors)
	}
	// 1 explicit message plus at least 1 per random conversation.
	if o.ItemsWritten < 3 {
		t.Errorf("items written = %d, want >= 3", o.ItemsWritten)
	}
	inserts := fake.CallsMatching("INSERT INTO sms")
	if len(inserts) != o.ItemsWritten {
		t.Errorf("insert calls = %d, items written = %d", len(inserts), o.ItemsWritten)
	}
}

func TestSMSClearFailureIsRecorded(t *testing.T) {
	fake := device.NewFake(pkgMessaging)
	fake.FailOn["DELETE FROM sms"] = errors.New("database locked")

	c := &SMS{rng: sample.New(1)}
	o := c.Run(context.Background(), fake, &spec.SmsSpec{
		ClearMessages: true,
		AddMessages: []spec.MessageRecord{
			{Number: "+1234567890", Text: "hi"},
		},
	})

	if o.Status != engine.StatusPartiallyApplied {
		t.Fatalf("status = %s, want partially_applied", o.Status)
	}
	if o.Cleared {
		t.Error("clear should not be marked done after a failure")
	}
	if len(o.Errors) != 1 || o.Errors[0].Op != "clear" || o.Errors[0].Index != -1 {
		t.Errorf("errors = %v, want one clear error at index -1", o.Errors)
	}
}

func TestEnsureAppMissingMapsToSkip(t *testing.T) {
	fake := device.NewFake() // nothing installed
	for _, c := range []engine.Configurator{
		&Recipe{rng: sample.New(1)},
		&Tasks{rng: sample.New(1)},
		&Joplin{rng: sample.New(1)},
		&OpenTracks{rng: sample.New(1)},
	} {
		err := c.EnsureReady(context.Background(), fake)
		if !errors.Is(err, engine.ErrAppNotInstalled) {
			t.Errorf("%s: EnsureReady = %v, want ErrAppNotInstalled", c.Domain(), err)
		}
	}
}

func TestMarkorNotesAndFolders(t *testing.T) {
	fake := device.NewFake(pkgMarkor)
	c := &Markor{rng: sample.New(5)}

	if err := c.EnsureReady(context.Background(), fake); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	o := c.Run(context.Background(), fake, &spec.MarkorSpec{
		AddFolders: []spec.FolderRecord{{Title: "Work"}},
		AddNotes: []spec.NoteRecord{
			{Title: "Standup", Content: "notes", Folder: "Work"},
			{Title: "readme.txt", Content: "plain"},
		},
	})

	if o.Status != engine.StatusApplied {
		t.Fatalf("status = %s, errors = %v", o.Status, o.Errors)
	}
	if !fake.Dirs[markorRoot+"/Work"] {
		t.Error("folder Work not created")
	}
	if _, ok := fake.Files[markorRoot+"/Work/Standup.md"]; !ok {
		t.Error("note without extension should get .md")
	}
	if _, ok := fake.Files[markorRoot+"/readme.txt"]; !ok {
		t.Error("note with .txt extension should keep its name")
	}
}

func TestMarkorReapplyConverges(t *testing.T) {
	fake := device.NewFake(pkgMarkor)
	c := &Markor{rng: sample.New(7)}

	if err := c.EnsureReady(context.Background(), fake); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}

	apply := func() *engine.DomainOutcome {
		return c.Run(context.Background(), fake, &spec.MarkorSpec{
			ClearNotes: true,
			AddFolders: []spec.FolderRecord{{Title: "Work"}},
			AddNotes: []spec.NoteRecord{
				{Title: "Standup", Content: "notes", Folder: "Work"},
				{Title: "todo", Content: "- buy milk"},
			},
		})
	}

	first := apply()
	if first.Status != engine.StatusApplied {
		t.Fatalf("first apply: status = %s, errors = %v", first.Status, first.Errors)
	}
	wantFiles := make(map[string]string, len(fake.Files))
	for p, data := range fake.Files {
		wantFiles[p] = string(data)
	}
	wantDirs := make(map[string]bool, len(fake.Dirs))
	for d := range fake.Dirs {
		wantDirs[d] = true
	}

	second := apply()
	if second.Status != engine.StatusApplied {
		t.Fatalf("second apply: status = %s, errors = %v", second.Status, second.Errors)
	}

	gotFiles := make(map[string]string, len(fake.Files))
	for p, data := range fake.Files {
		gotFiles[p] = string(data)
	}
	if !reflect.DeepEqual(gotFiles, wantFiles) {
		t.Errorf("files diverged after reapply:\nfirst:  %v\nsecond: %v", wantFiles, gotFiles)
	}
	if !reflect.DeepEqual(fake.Dirs, wantDirs) {
		t.Errorf("dirs diverged after reapply:\nfirst:  %v\nsecond: %v", wantDirs, fake.Dirs)
	}
	if second.ItemsWritten != first.ItemsWritten {
		t.Errorf("items written: first %d, second %d", first.ItemsWritten, second.ItemsWritten)
	}
}

func TestFilesClearCreateAddCopy(t *testing.T) {
	fake := device.NewFake()
	fake.Files["/storage/emulated/0/Download/old.txt"] = []byte("old")

	c := &Files{rng: sample.New(9)}
	o := c.Run(context.Background(), fake, &spec.FilesSpec{
		ClearFolders:  []string{"Download"},
		CreateFolders: []spec.FolderPathRecord{{Name: "Reports", Folder: "Documents"}},
		AddFiles: []spec.FileRecord{
			{Name: "notes.txt", Folder: "Documents", Content: "hello"},
		},
		CopyFiles: []spec.CopyRecord{
			{Source: "Documents/notes.txt", Destination: "Download/notes.txt"},
		},
	})

	if o.Status != engine.StatusApplied {
		t.Fatalf("status = %s, errors = %v", o.Status, o.Errors)
	}
	if _, ok := fake.Files["/storage/emulated/0/Download/old.txt"]; ok {
		t.Error("cleared folder still holds the old file")
	}
	if !fake.Dirs["/storage/emulated/0/Documents/Reports"] {
		t.Error("folder Documents/Reports not created")
	}
	if string(fake.Files["/storage/emulated/0/Documents/notes.txt"]) != "hello" {
		t.Error("added file content wrong")
	}
	if len(fake.CallsMatching("cp /storage/emulated/0/Documents/notes.txt")) != 1 {
		t.Error("copy not issued")
	}
}

func TestFilesRandomCountAndFolders(t *testing.T) {
	fake := device.NewFake()
	c := &Files{rng: sample.New(3)}

	o := c.Run(context.Background(), fake, &spec.FilesSpec{
		AddRandomFiles:    true,
		RandomFileCount:   4,
		RandomFileFolders: []string{"Download"},
	})

	if o.Status != engine.StatusApplied {
		t.Fatalf("status = %s, errors = %v", o.Status, o.Errors)
	}
	if o.ItemsWritten != 4 {
		t.Errorf("items written = %d, want 4", o.ItemsWritten)
	}
	for p := range fake.Files {
		if !strings.HasPrefix(p, "/storage/emulated/0/Download/random_file_") {
			t.Errorf("unexpected file path %s", p)
		}
	}
}

func TestGalleryTextImage(t *testing.T) {
	fake := device.NewFake()
	c := &Gallery{}

	o := c.Run(context.Background(), fake, &spec.GallerySpec{
		ClearImages: true,
		AddImages: []spec.ImageRecord{
			{Filename: "note.png", Text: "hello\nworld"},
		},
	})

	if o.Status != engine.StatusApplied {
		t.Fatalf("status = %s, errors = %v", o.Status, o.Errors)
	}
	data, ok := fake.Files[galleryDir+"/note.png"]
	if !ok {
		t.Fatal("image not pushed")
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Error("pushed file is not a PNG")
	}
	if len(fake.CallsMatching(mediaScanAction)) < 2 {
		t.Error("media scan should cover DCIM and Pictures")
	}
}

func TestGalleryMissingSource(t *testing.T) {
	fake := device.NewFake()
	c := &Gallery{}

	o := c.Run(context.Background(), fake, &spec.GallerySpec{
		AddImages: []spec.ImageRecord{
			{Filename: "a.png", Src: "/no/such/file.png"},
		},
	})

	if o.Status != engine.StatusFailed {
		t.Fatalf("status = %s, want failed", o.Status)
	}
	if len(o.Errors) != 1 || o.Errors[0].Op != "add_image" {
		t.Errorf("errors = %v", o.Errors)
	}
}

func TestMusicSynthesizedFileAndPlaylist(t *testing.T) {
	fake := device.NewFake(pkgRetroMusic)
	c := &Music{}

	o := c.Run(context.Background(), fake, &spec.MusicSpec{
		AddMusicFiles: []spec.MusicFileRecord{
			{Name: "Song A", Title: "Song A", Artist: "Artist"},
		},
		AddPlaylists: []spec.PlaylistRecord{
			{Name: "Favorites", Songs: []string{"Song A"}},
		},
	})

	if o.Status != engine.StatusApplied {
		t.Fatalf("status = %s, errors = %v", o.Status, o.Errors)
	}
	data, ok := fake.Files[musicDir+"/Song A.mp3"]
	if !ok {
		t.Fatal("music file not pushed")
	}
	if string(data[:3]) != "ID3" {
		t.Error("music file lacks an ID3 tag")
	}
	if len(fake.CallsMatching("INSERT INTO PlaylistEntity")) != 1 {
		t.Error("playlist row not inserted")
	}
	if len(fake.CallsMatching("INSERT INTO SongEntity")) != 1 {
		t.Error("song row not inserted")
	}
}

func TestOsmandFavoritesWriteGPX(t *testing.T) {
	fake := device.NewFake(pkgOsmand)
	c := &Osmand{}

	o := c.Run(context.Background(), fake, &spec.OsmandSpec{
		ClearFavorites: true,
		AddFavorites: []spec.FavoriteRecord{
			{Name: "Schaan, Liechtenstein"},
			{Name: "Office", Lat: 52.52, Lon: 13.405},
		},
	})

	if o.Status != engine.StatusApplied {
		t.Fatalf("status = %s, errors = %v", o.Status, o.Errors)
	}
	data, ok := fake.Files[osmandFavoritesPath]
	if !ok {
		t.Fatal("favourites file not written")
	}
	gpx := string(data)
	for _, want := range []string{"Schaan, Liechtenstein", "Office", "52.52"} {
		if !strings.Contains(gpx, want) {
			t.Errorf("gpx missing %q", want)
		}
	}
}

func TestOsmandUnknownFavoriteWithoutCoordinates(t *testing.T) {
	fake := device.NewFake(pkgOsmand)
	c := &Osmand{}

	o := c.Run(context.Background(), fake, &spec.OsmandSpec{
		AddFavorites: []spec.FavoriteRecord{{Name: "Nowhere"}},
	})

	if o.Status != engine.StatusFailed {
		t.Fatalf("status = %s, want failed", o.Status)
	}
}

func TestAudioRecorderCreatesMissingDir(t *testing.T) {
	fake := device.NewFake(pkgAudioRecorder)
	fake.ShellResponses["ls "+audioRecordingsDir] = "not_found"

	c := &AudioRecorder{}
	o := c.Run(context.Background(), fake, &spec.AudioRecorderSpec{ClearRecordings: true})

	if o.Status != engine.StatusApplied {
		t.Fatalf("status = %s, errors = %v", o.Status, o.Errors)
	}
	if !fake.Dirs[audioRecordingsDir] {
		t.Error("recordings directory not created")
	}
}

func TestCalendarWeeklyRepeatRule(t *testing.T) {
	fake := device.NewFake(pkgCalendar)
	c := &Calendar{rng: sample.New(2)}

	o := c.Run(context.Background(), fake, &spec.CalendarSpec{
		AddEvents: []spec.EventRecord{
			{Title: "Standup", StartTime: "2026-09-07 09:00", RepeatInterval: repeatWeekly},
		},
	})

	if o.Status != engine.StatusApplied {
		t.Fatalf("status = %s, errors = %v", o.Status, o.Errors)
	}
	inserts := fake.CallsMatching("INSERT INTO events")
	if len(inserts) != 1 {
		t.Fatalf("insert calls = %d, want 1", len(inserts))
	}
	// 2026-09-07 is a Monday: rule bit 0.
	if !strings.Contains(inserts[0], "604800, 1") {
		t.Errorf("weekly rule not encoded: %s", inserts[0])
	}
}

func TestTasksDateParsing(t *testing.T) {
	fake := device.NewFake(pkgTasks)
	c := &Tasks{rng: sample.New(4)}

	o := c.Run(context.Background(), fake, &spec.TasksSpec{
		AddTasks: []spec.TaskRecord{
			{Title: "Renew passport", DueTime: "January 2 2027 10:00"},
			{Title: "Bad date", DueTime: "someday"},
		},
	})

	if o.Status != engine.StatusPartiallyApplied {
		t.Fatalf("status = %s, want partially_applied", o.Status)
	}
	if o.ItemsWritten != 1 {
		t.Errorf("items written = %d, want 1", o.ItemsWritten)
	}
	if len(o.Errors) != 1 || o.Errors[0].Index != 1 {
		t.Errorf("errors = %v, want one at index 1", o.Errors)
	}
}

func TestExpenseAmountConversion(t *testing.T) {
	if amountCents(12.34) != 1234 {
		t.Errorf("amountCents(12.34) = %d", amountCents(12.34))
	}
	if amountCents(0.1) != 10 {
		t.Errorf("amountCents(0.1) = %d", amountCents(0.1))
	}
}

func TestExpenseInsert(t *testing.T) {
	fake := device.NewFake(pkgExpense)
	c := &Expense{rng: sample.New(6)}

	o := c.Run(context.Background(), fake, &spec.ExpenseSpec{
		AddExpenses: []spec.ExpenseRecord{
			{Name: "Groceries", Amount: 54.20},
		},
	})

	if o.Status != engine.StatusApplied {
		t.Fatalf("status = %s, errors = %v", o.Status, o.Errors)
	}
	inserts := fake.CallsMatching("INSERT INTO expense")
	if len(inserts) != 1 {
		t.Fatalf("insert calls = %d", len(inserts))
	}
	if !strings.Contains(inserts[0], "5420") {
		t.Errorf("amount not stored as cents: %s", inserts[0])
	}
}

func TestJoplinAutoCreatesFolder(t *testing.T) {
	fake := device.NewFake(pkgJoplin)
	c := &Joplin{rng: sample.New(8)}

	o := c.Run(context.Background(), fake, &spec.JoplinSpec{
		AddNotes: []spec.NoteRecord{
			{Title: "Plan", Body: "details", Folder: "Projects"},
		},
	})

	if o.Status != engine.StatusApplied {
		t.Fatalf("status = %s, errors = %v", o.Status, o.Errors)
	}
	if len(fake.CallsMatching("INSERT INTO folders")) != 1 {
		t.Error("folder should be created on demand")
	}
	if len(fake.CallsMatching("INSERT INTO notes ")) != 1 {
		t.Error("note row not inserted")
	}
	if len(fake.CallsMatching("INSERT INTO notes_normalized")) != 1 {
		t.Error("normalized row not inserted")
	}
}

func TestDatetimeAbsoluteTime(t *testing.T) {
	fake := device.NewFake(pkgSettings)
	c := &Datetime{rng: sample.New(1)}

	o := c.Run(context.Background(), fake, &spec.DatetimeSpec{
		Datetime: "2026-03-15 10:30:00",
		Timezone: "America/New_York",
	})

	if o.Status != engine.StatusApplied {
		t.Fatalf("status = %s, errors = %v", o.Status, o.Errors)
	}
	if len(fake.CallsMatching("date 0315103026.00")) != 1 {
		t.Error("date command not issued in MMDDhhmmYY.SS form")
	}
	if len(fake.CallsMatching("service call alarm 3 s16 America/New_York")) != 1 {
		t.Error("timezone not set through the alarm service")
	}
	if len(fake.CallsMatching("auto_time 0")) != 1 {
		t.Error("auto time sync not disabled")
	}
}

func TestDatetimeRandomWindow(t *testing.T) {
	fake := device.NewFake(pkgSettings)
	c := &Datetime{rng: sample.New(99)}

	o := c.Run(context.Background(), fake, &spec.DatetimeSpec{
		UseRandomDatetime:    true,
		RandomWindowCenter:   "2026-06-01 12:00:00",
		RandomWindowSizeDays: 2,
	})

	if o.Status != engine.StatusApplied {
		t.Fatalf("status = %s, errors = %v", o.Status, o.Errors)
	}
	dates := fake.CallsMatching("shell date ")
	if len(dates) != 1 {
		t.Fatalf("date calls = %d, want 1", len(dates))
	}
	// Within one day of the window center: May 31 through June 2.
	ok := false
	for _, day := range []string{"0531", "0601", "0602"} {
		if strings.Contains(dates[0], "shell date "+day) {
			ok = true
		}
	}
	if !ok {
		t.Errorf("random time outside the window: %s", dates[0])
	}
}

func TestOpenTracksInsertsTrack(t *testing.T) {
	fake := device.NewFake(pkgOpenTracksActivity)
	fake.ShellResponses["getprop persist.sys.timezone"] = "UTC"

	c := &OpenTracks{rng: sample.New(12)}
	o := c.Run(context.Background(), fake, &spec.OpenTracksSpec{
		AddActivities: []spec.ActivityRecord{
			{Name: "Morning Run", Category: "running", StartDate: "2026-08-01", StartTime: "07:30", DurationMins: 45, Distance: 8000},
		},
	})

	if o.Status != engine.StatusApplied {
		t.Fatalf("status = %s, errors = %v", o.Status, o.Errors)
	}
	inserts := fake.CallsMatching("INSERT INTO tracks")
	if len(inserts) != 1 {
		t.Fatalf("insert calls = %d", len(inserts))
	}
	if !strings.Contains(inserts[0], "'Morning Run'") {
		t.Errorf("track name missing: %s", inserts[0])
	}
}

func TestSQLStringEscaping(t *testing.T) {
	got := sqlString("O'Brien's note")
	want := "'O''Brien''s note'"
	if got != want {
		t.Errorf("sqlString = %s, want %s", got, want)
	}
}

func TestCleanPhoneNumber(t *testing.T) {
	cases := map[string]string{
		"+1 (234) 567-890": "+1234567890",
		"123 456":          "123456",
		"abc":              "",
	}
	for in, want := range cases {
		if got := cleanPhoneNumber(in); got != want {
			t.Errorf("cleanPhoneNumber(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNoteFileName(t *testing.T) {
	cases := map[string]string{
		"Meeting Notes": "Meeting Notes.md",
		"todo.txt":      "todo.txt",
		"draft.MD":      "draft.MD",
	}
	for in, want := range cases {
		if got := noteFileName(in); got != want {
			t.Errorf("noteFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSynthesizedMP3Structure(t *testing.T) {
	data := synthesizeMP3("My Song", "My Artist", "My Album")
	if string(data[:3]) != "ID3" {
		t.Fatal("missing ID3 header")
	}
	body := string(data)
	for _, want := range []string{"My Song", "My Artist", "My Album"} {
		if !strings.Contains(body, want) {
			t.Errorf("tag %q not embedded", want)
		}
	}
	if !strings.Contains(body, "\xFF\xFB") {
		t.Error("no MPEG frame sync found")
	}
}

func TestStoragePath(t *testing.T) {
	if got := storagePath("Download"); got != "/storage/emulated/0/Download" {
		t.Errorf("storagePath(Download) = %s", got)
	}
	if got := storagePath("/sdcard/x"); got != "/sdcard/x" {
		t.Errorf("absolute path rewritten: %s", got)
	}
	if got := storagePath(""); got != sharedStorageRoot {
		t.Errorf("empty path = %s", got)
	}
}

func TestEnsureAppErrorMessage(t *testing.T) {
	fake := device.NewFake("com.other.app")
	err := ensureApp(context.Background(), fake, pkgJoplin)
	if err == nil || !strings.Contains(err.Error(), pkgJoplin) {
		t.Errorf("error should name the package: %v", err)
	}
	if !errors.Is(err, engine.ErrAppNotInstalled) {
		t.Error("error should wrap ErrAppNotInstalled")
	}
}

func TestBrightnessMapping(t *testing.T) {
	fake := device.NewFake()
	fake.ShellResponses["settings get system screen_brightness"] = "128"

	c := &System{}
	err := c.setBrightness(context.Background(), fake, "50%")
	if err != nil {
		t.Fatalf("setBrightness: %v", err)
	}
	if len(fake.CallsMatching("screen_brightness 128")) != 1 {
		t.Error("50%% should map to 128")
	}
	if err := c.setBrightness(context.Background(), fake, "200"); err == nil {
		t.Error("out-of-range percentage should fail")
	}
}

func TestSampleConversationBounds(t *testing.T) {
	fake := device.NewFake(pkgMessaging)
	c := &SMS{rng: sample.New(42)}

	written, total, errs := c.addRandomConversations(context.Background(), fake, 3)
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	if written != total {
		t.Errorf("written %d != total %d", written, total)
	}
	if total < 3 || total > 15 {
		t.Errorf("total %d outside 3..15 for 3 conversations", total)
	}
}
