package spec

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseDocumentJSON(t *testing.T) {
	p := NewParser()

	doc, err := p.ParseDocument([]byte(`{
		"contacts": {"clear_contacts": true, "add_contacts": [{"name": "Alice", "number": "+15551234567"}]},
		"gallery": {"clear_images": true}
	}`), FormatJSON)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if len(doc.Raw) != 2 {
		t.Fatalf("got %d domains, want 2", len(doc.Raw))
	}
	if _, ok := doc.Raw[DomainContacts]; !ok {
		t.Error("contacts payload missing")
	}
}

func TestParseDocumentUnknownDomainRejectsWholeDocument(t *testing.T) {
	p := NewParser()
	_, err := p.ParseDocument([]byte(`{"contacts": {}, "bluetooth_headset": {}}`), FormatJSON)
	if err == nil {
		t.Fatal("expected error for unknown domain")
	}
}

func TestParseDocumentYAML(t *testing.T) {
	p := NewParser()
	src := `
sms:
  clear_messages: true
  add_messages:
    - number: "+15551234567"
      text: running late
contacts:
  add_contacts:
    - name: Bob
      number: "+15559876543"
`
	doc, err := p.ParseDocument([]byte(src), FormatYAML)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}

	rs := p.ParseRunSpec(doc, Options{})
	if len(rs.Rejected) != 0 {
		t.Fatalf("rejected: %v", rs.Rejected)
	}
	sms, ok := rs.Domains[DomainSms].(*SmsSpec)
	if !ok {
		t.Fatalf("sms spec type %T", rs.Domains[DomainSms])
	}
	if !sms.ClearMessages || len(sms.AddMessages) != 1 {
		t.Errorf("sms spec = %+v", sms)
	}
	if sms.AddMessages[0].Text != "running late" {
		t.Errorf("message text = %q", sms.AddMessages[0].Text)
	}
}

func TestLoadFileStarlark(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.star")
	script := `
contacts = [{"name": "Contact %d" % i, "number": "+1555000" + str(1000 + i)} for i in range(12)]

spec = {
    "contacts": {"clear_contacts": True, "add_contacts": contacts},
    "system": {"brightness": "max"},
}
`
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p := NewParser()
	doc, err := p.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if doc.Source != path {
		t.Errorf("source = %q", doc.Source)
	}

	rs := p.ParseRunSpec(doc, Options{})
	if len(rs.Rejected) != 0 {
		t.Fatalf("rejected: %v", rs.Rejected)
	}
	contacts := rs.Domains[DomainContacts].(*ContactsSpec)
	if len(contacts.AddContacts) != 12 {
		t.Errorf("got %d contacts, want 12", len(contacts.AddContacts))
	}
	if contacts.AddContacts[3].Name != "Contact 3" {
		t.Errorf("contact 3 = %+v", contacts.AddContacts[3])
	}
}

func TestLoadFileUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.toml")
	if err := os.WriteFile(path, []byte("x = 1"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := NewParser().LoadFile(path); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestParseRunSpecIsolatesBadDomain(t *testing.T) {
	p := NewParser()
	doc, err := p.ParseDocument([]byte(`{
		"system": {"brightness": "banana"},
		"contacts": {"clear_contacts": true}
	}`), FormatJSON)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}

	rs := p.ParseRunSpec(doc, Options{})
	if _, rejected := rs.Rejected[DomainSystem]; !rejected {
		t.Error("system payload should be rejected")
	}
	if _, ok := rs.Domains[DomainContacts]; !ok {
		t.Error("contacts should survive the system rejection")
	}
	if !rs.Present(DomainSystem) {
		t.Error("rejected domains still count as present")
	}
}

func TestParseRunSpecRejectsUnknownFields(t *testing.T) {
	p := NewParser()
	doc, err := p.ParseDocument([]byte(`{"contacts": {"clear_contact": true}}`), FormatJSON)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	rs := p.ParseRunSpec(doc, Options{})
	err = rs.Rejected[DomainContacts]
	if err == nil {
		t.Fatal("misspelled field should reject the domain")
	}
	if !strings.Contains(err.Error(), "clear_contact") {
		t.Errorf("error = %v", err)
	}
}

func TestGalleryImagesNeedTextOrSource(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		ok      bool
	}{
		{"text only", `{"add_images": [{"filename": "a.png", "text": "hello"}]}`, true},
		{"src only", `{"add_images": [{"filename": "a.jpg", "src": "/tmp/a.jpg"}]}`, true},
		{"both", `{"add_images": [{"filename": "a.png", "text": "x", "src": "/tmp/a.jpg"}]}`, false},
		{"neither", `{"add_images": [{"filename": "a.png"}]}`, false},
	}
	p := NewParser()
	for _, tc := range cases {
		doc, err := p.ParseDocument([]byte(`{"gallery": `+tc.payload+`}`), FormatJSON)
		if err != nil {
			t.Fatalf("%s: ParseDocument: %v", tc.name, err)
		}
		rs := p.ParseRunSpec(doc, Options{})
		_, rejected := rs.Rejected[DomainGallery]
		if rejected == tc.ok {
			t.Errorf("%s: rejected=%v, want ok=%v", tc.name, rejected, tc.ok)
		}
	}
}

func TestMusicPlaylistsRequireKnownSongs(t *testing.T) {
	p := NewParser()
	doc, err := p.ParseDocument([]byte(`{"music": {
		"add_music_files": [{"name": "one.mp3"}],
		"add_playlists": [{"name": "mix", "songs": ["one.mp3", "two.mp3"]}]
	}}`), FormatJSON)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	rs := p.ParseRunSpec(doc, Options{})
	err = rs.Rejected[DomainMusic]
	if err == nil {
		t.Fatal("playlist referencing an unknown song should be rejected")
	}
	if !strings.Contains(err.Error(), "two.mp3") {
		t.Errorf("error = %v", err)
	}
}

func TestValidateBrightness(t *testing.T) {
	for _, v := range []string{"min", "max", "0", "50", "100", "75%"} {
		if err := validateBrightness(v); err != nil {
			t.Errorf("validateBrightness(%q) = %v", v, err)
		}
	}
	for _, v := range []string{"banana", "-1", "101", "150%"} {
		if err := validateBrightness(v); err == nil {
			t.Errorf("validateBrightness(%q) should fail", v)
		}
	}
}

func TestDatetimeRandomWindowRules(t *testing.T) {
	p := NewParser()

	doc, err := p.ParseDocument([]byte(`{"datetime": {"use_random_datetime": true}}`), FormatJSON)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	rs := p.ParseRunSpec(doc, Options{})
	if rs.Rejected[DomainDatetime] == nil {
		t.Error("random datetime without a window center should be rejected")
	}

	doc, err = p.ParseDocument([]byte(`{"datetime": {
		"datetime": "2023-10-01 09:00:00",
		"use_random_datetime": true,
		"random_window_center": "2023-10-01 09:00:00"
	}}`), FormatJSON)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	rs = p.ParseRunSpec(doc, Options{})
	if rs.Rejected[DomainDatetime] == nil {
		t.Error("explicit datetime plus random window should be rejected")
	}
}

func TestRandomCountDefaults(t *testing.T) {
	if got := (&SmsSpec{}).ConversationCount(); got != DefaultRandomConversationCount {
		t.Errorf("conversation count = %d", got)
	}
	if got := (&SmsSpec{RandomConversationCount: 7}).ConversationCount(); got != 7 {
		t.Errorf("conversation count override = %d", got)
	}
	if got := (&TasksSpec{}).TaskCount(); got != 0 {
		t.Errorf("task count = %d, want 0 (no default)", got)
	}
	if got := (&FilesSpec{}).FileFolders(); len(got) != len(DefaultRandomFileFolders) {
		t.Errorf("file folders = %v", got)
	}
	if !(&SmsSpec{}).AutoReplyDisabled() {
		t.Error("auto reply should default to disabled")
	}
}
