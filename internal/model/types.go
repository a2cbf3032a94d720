package model

import (
	"fmt"
	"time"
)

// User represents an account in the system. TimeZone is the IANA zone used
// to expand the user's weekly availability into concrete instants.
type User struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	DisplayName  *string   `json:"displayName,omitempty"`
	TimeZone     string    `json:"timeZone"`
	CreationTime time.Time `json:"creationTime"`
}

// ActivityType is the closed set of schedulable activity kinds.
type ActivityType string

const (
	ActivityDeepWork   ActivityType = "deep_work"
	ActivityWorkout    ActivityType = "workout"
	ActivityMeditation ActivityType = "meditation"
	ActivityLearning   ActivityType = "learning"
	ActivityReading    ActivityType = "reading"
	ActivitySocial     ActivityType = "social"
	ActivityChores     ActivityType = "chores"
	ActivityRest       ActivityType = "rest"
)

// ActivityTypes lists every valid activity type in a fixed order.
func ActivityTypes() []ActivityType {
	return []ActivityType{
		ActivityDeepWork, ActivityWorkout, ActivityMeditation, ActivityLearning,
		ActivityReading, ActivitySocial, ActivityChores, ActivityRest,
	}
}

// Valid reports whether t is one of the eight known activity types.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityDeepWork, ActivityWorkout, ActivityMeditation, ActivityLearning,
		ActivityReading, ActivitySocial, ActivityChores, ActivityRest:
		return true
	}
	return false
}

// Title returns the human label used when presenting a suggestion of this type.
func (t ActivityType) Title() string {
	switch t {
	case ActivityDeepWork:
		return "Deep work session"
	case ActivityWorkout:
		return "Workout"
	case ActivityMeditation:
		return "Meditation"
	case ActivityLearning:
		return "Learning block"
	case ActivityReading:
		return "Reading time"
	case ActivitySocial:
		return "Social time"
	case ActivityChores:
		return "Chores"
	case ActivityRest:
		return "Rest"
	}
	return string(t)
}

// ParseActivityType validates a wire value against the closed enum.
func ParseActivityType(s string) (ActivityType, error) {
	t := ActivityType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown activity type %q", ErrValidation, s)
	}
	return t, nil
}

// Weekday names a day of the week for recurring availability windows.
type Weekday string

const (
	Monday    Weekday = "MON"
	Tuesday   Weekday = "TUE"
	Wednesday Weekday = "WED"
	Thursday  Weekday = "THU"
	Friday    Weekday = "FRI"
	Saturday  Weekday = "SAT"
	Sunday    Weekday = "SUN"
)

// Valid reports whether d is one of the seven weekday codes.
func (d Weekday) Valid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

// Ordinal returns the Monday-first index of the weekday, used when listing
// windows in calendar order.
func (d Weekday) Ordinal() int {
	switch d {
	case Monday:
		return 0
	case Tuesday:
		return 1
	case Wednesday:
		return 2
	case Thursday:
		return 3
	case Friday:
		return 4
	case Saturday:
		return 5
	}
	return 6
}

// Time maps d onto the standard library's weekday numbering.
func (d Weekday) Time() time.Weekday {
	switch d {
	case Monday:
		return time.Monday
	case Tuesday:
		return time.Tuesday
	case Wednesday:
		return time.Wednesday
	case Thursday:
		return time.Thursday
	case Friday:
		return time.Friday
	case Saturday:
		return time.Saturday
	}
	return time.Sunday
}

// WeekdayOf converts a standard library weekday into the wire code.
func WeekdayOf(d time.Weekday) Weekday {
	switch d {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	}
	return Sunday
}

// ParseWeekday validates a wire value against the weekday codes.
func ParseWeekday(s string) (Weekday, error) {
	d := Weekday(s)
	if !d.Valid() {
		return "", fmt.Errorf("%w: unknown weekday %q", ErrValidation, s)
	}
	return d, nil
}

// LocalTime is a clock time within a day, stored as minutes from midnight.
// It marshals as "HH:MM".
type LocalTime int

// MinutesPerDay bounds a LocalTime; 24:00 is a valid window end.
const MinutesPerDay = 24 * 60

func (t LocalTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MarshalJSON encodes the time as a quoted "HH:MM" string.
func (t LocalTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON decodes a quoted "HH:MM" string.
func (t *LocalTime) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("%w: local time must be a %q string", ErrValidation, "HH:MM")
	}
	parsed, err := ParseLocalTime(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseLocalTime parses "HH:MM" within [00:00, 24:00].
func ParseLocalTime(s string) (LocalTime, error) {
	if len(s) != 5 || s[2] != ':' || !twoDigits(s[:2]) || !twoDigits(s[3:]) {
		return 0, fmt.Errorf("%w: local time %q must be formatted HH:MM", ErrValidation, s)
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: local time %q out of range", ErrValidation, s)
	}
	return LocalTime(h*60 + m), nil
}

func twoDigits(s string) bool {
	return s[0] >= '0' && s[0] <= '9' && s[1] >= '0' && s[1] <= '9'
}

// AvailabilityWindow is a recurring weekly interval during which the owning
// user is willing to be scheduled. Start and End are local to the user's
// timezone; End must be after Start.
type AvailabilityWindow struct {
	WindowID     string    `json:"windowId"`
	UserID       string    `json:"userId"`
	DayOfWeek    Weekday   `json:"dayOfWeek"`
	StartTime    LocalTime `json:"startTime"`
	EndTime      LocalTime `json:"endTime"`
	CreationTime time.Time `json:"creationTime"`
}

// Session is a concrete scheduled commitment. A non-nil DeletedAt marks a
// soft delete; such rows never participate in conflict or availability
// computation.
type Session struct {
	SessionID        string       `json:"sessionId"`
	UserID           string       `json:"userId"`
	Title            string       `json:"title"`
	Type             ActivityType `json:"type"`
	StartTime        time.Time    `json:"startTime"`
	EndTime          time.Time    `json:"endTime"`
	Priority         int          `json:"priority"`
	Completed        bool         `json:"completed"`
	CompletedAt      *time.Time   `json:"completedAt,omitempty"`
	Description      *string      `json:"description,omitempty"`
	FromSuggestionID *string      `json:"fromSuggestionId,omitempty"`
	DeletedAt        *time.Time   `json:"deletedAt,omitempty"`
	CreationTime     time.Time    `json:"creationTime"`
	UpdateTime       time.Time    `json:"updateTime"`
}

// Deleted reports whether the session has been soft deleted.
func (s Session) Deleted() bool { return s.DeletedAt != nil }

// SuggestionRequest is the ephemeral input of a suggestion computation.
type SuggestionRequest struct {
	Type            ActivityType `json:"type"`
	DurationMinutes int          `json:"durationMinutes"`
	Priority        int          `json:"priority"`
	LookAheadDays   int          `json:"lookAheadDays"`
	Limit           int          `json:"limit"`
	Offset          int          `json:"offset"`
}

// Suggestion is one ranked candidate slot. The ID is a deterministic
// function of (type, start, end) so identical inputs reproduce it.
type Suggestion struct {
	SuggestionID string       `json:"id"`
	Title        string       `json:"title"`
	Type         ActivityType `json:"type"`
	StartTime    time.Time    `json:"startTime"`
	EndTime      time.Time    `json:"endTime"`
	Priority     int          `json:"priority"`
	Description  *string      `json:"description,omitempty"`
	Score        int          `json:"score"`
	Reasons      []string     `json:"reasons"`
}

// SuggestionPage is one page of the ranked candidate list.
type SuggestionPage struct {
	Suggestions []Suggestion `json:"suggestions"`
	Total       int          `json:"total"`
	HasMore     bool         `json:"hasMore"`
}

// ListSessionsRequest captures filters used when listing sessions.
type ListSessionsRequest struct {
	UserID         string
	From           time.Time
	To             time.Time
	IncludeDeleted bool
}
