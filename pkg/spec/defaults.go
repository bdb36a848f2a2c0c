package spec

// Default counts for the add_random_* directives. Resolver methods keep the
// parsed records immutable: the zero value means "not set" and resolves to
// the documented default at the point of use.
const (
	DefaultRandomConversationCount = 3
	DefaultRandomEventCount        = 10
	DefaultRandomRecipeCount       = 5
	DefaultRandomExpenseCount      = 5
	DefaultRandomNoteCount         = 10
	DefaultRandomActivityCount     = 5
	DefaultRandomFileCount         = 5
	DefaultRandomWindowDays        = 14
)

// DefaultRandomFileFolders are the shared-storage folders random files land
// in when the spec names none.
var DefaultRandomFileFolders = []string{"Download", "Documents", "Pictures"}

// WindowDays resolves the random datetime window width.
func (s *DatetimeSpec) WindowDays() int {
	if s.RandomWindowSizeDays > 0 {
		return s.RandomWindowSizeDays
	}
	return DefaultRandomWindowDays
}

// ConversationCount resolves the random conversation count.
func (s *SmsSpec) ConversationCount() int {
	if s.RandomConversationCount > 0 {
		return s.RandomConversationCount
	}
	return DefaultRandomConversationCount
}

// AutoReplyDisabled resolves the DisableAutoReply default. Direct database
// insertion already sidesteps the messaging UI, so the SMS configurator
// satisfies this without consulting it; see SmsSpec.DisableAutoReply.
func (s *SmsSpec) AutoReplyDisabled() bool {
	return s.DisableAutoReply == nil || *s.DisableAutoReply
}

// NotificationsMuted resolves the DisableNotificationsDuringSetup default.
func (s *SmsSpec) NotificationsMuted() bool {
	return s.DisableNotificationsDuringSetup == nil || *s.DisableNotificationsDuringSetup
}

// EventCount resolves the random event count.
func (s *CalendarSpec) EventCount() int {
	if s.RandomEventCount > 0 {
		return s.RandomEventCount
	}
	return DefaultRandomEventCount
}

// RecipeCount resolves the random recipe count.
func (s *RecipeSpec) RecipeCount() int {
	if s.RandomRecipeCount > 0 {
		return s.RandomRecipeCount
	}
	return DefaultRandomRecipeCount
}

// TaskCount resolves the random task count. Unlike the other domains the
// default is zero: random tasks must be sized explicitly.
func (s *TasksSpec) TaskCount() int {
	return s.AddRandomTasksCount
}

// ExpenseCount resolves the random expense count.
func (s *ExpenseSpec) ExpenseCount() int {
	if s.RandomExpenseCount > 0 {
		return s.RandomExpenseCount
	}
	return DefaultRandomExpenseCount
}

// NoteCount resolves the random note count.
func (s *MarkorSpec) NoteCount() int {
	if s.RandomNoteCount > 0 {
		return s.RandomNoteCount
	}
	return DefaultRandomNoteCount
}

// NoteCount resolves the random note count.
func (s *JoplinSpec) NoteCount() int {
	if s.RandomNoteCount > 0 {
		return s.RandomNoteCount
	}
	return DefaultRandomNoteCount
}

// ActivityCount resolves the random activity count.
func (s *OpenTracksSpec) ActivityCount() int {
	if s.RandomActivityCount > 0 {
		return s.RandomActivityCount
	}
	return DefaultRandomActivityCount
}

// FileCount resolves the random file count.
func (s *FilesSpec) FileCount() int {
	if s.RandomFileCount > 0 {
		return s.RandomFileCount
	}
	return DefaultRandomFileCount
}

// FileFolders resolves the random file folder list.
func (s *FilesSpec) FileFolders() []string {
	if len(s.RandomFileFolders) > 0 {
		return s.RandomFileFolders
	}
	return DefaultRandomFileFolders
}
