package entities

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrEmptyTaskText      = errors.New("task text is empty")
	ErrMainTaskLimit      = errors.New("main task limit reached")
	ErrTaskNotFound       = errors.New("task not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUnknownTaskList    = errors.New("unknown task list")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// MaxMainTasks is the per-day cap on main tasks, enforced at insertion only.
// Rollover bypasses it on purpose.
const MaxMainTasks = 3

// DateLayout is the calendar-day key format used throughout the store.
const DateLayout = "2006-01-02"

// TaskList selects one of the two per-day task lists.
type TaskList string

const (
	ListMain  TaskList = "main"
	ListExtra TaskList = "extra"
)

// ParseTaskList validates a list selector coming from the transport layer.
func ParseTaskList(s string) (TaskList, error) {
	switch TaskList(s) {
	case ListMain, ListExtra:
		return TaskList(s), nil
	default:
		return "", ErrUnknownTaskList
	}
}

// Task is a single task entry. Tasks have no identifier beyond their
// position in their list for a given day; deleting an entry shifts the
// indices of everything after it. That is deliberate legacy behavior.
type Task struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// DayRecord holds the two ordered task lists for one calendar date.
// Both slices are always non-nil once the record exists.
type DayRecord struct {
	Main  []Task `json:"main"`
	Extra []Task `json:"extra"`
}

// NewDayRecord returns a record with both lists present and empty.
func NewDayRecord() *DayRecord {
	return &DayRecord{Main: []Task{}, Extra: []Task{}}
}

// Normalize ensures both lists are non-nil, repairing records loaded
// from a snapshot that is missing one of the keys.
func (d *DayRecord) Normalize() {
	if d.Main == nil {
		d.Main = []Task{}
	}
	if d.Extra == nil {
		d.Extra = []Task{}
	}
}

// Pick returns a pointer to the slice addressed by list.
func (d *DayRecord) Pick(list TaskList) *[]Task {
	if list == ListMain {
		return &d.Main
	}
	return &d.Extra
}

// UserRecord holds one user's full task history, keyed by calendar date.
type UserRecord struct {
	Tasks map[string]*DayRecord `json:"tasks"`
}

// NewUserRecord returns a record with an empty task history.
func NewUserRecord() *UserRecord {
	return &UserRecord{Tasks: map[string]*DayRecord{}}
}

// Day returns the record for the given date key, or nil if none exists.
func (u *UserRecord) Day(key string) *DayRecord {
	if u == nil || u.Tasks == nil {
		return nil
	}
	return u.Tasks[key]
}

// EnsureDay returns the record for the given date key, creating it lazily.
func (u *UserRecord) EnsureDay(key string) *DayRecord {
	if u.Tasks == nil {
		u.Tasks = map[string]*DayRecord{}
	}
	rec, ok := u.Tasks[key]
	if !ok {
		rec = NewDayRecord()
		u.Tasks[key] = rec
	}
	return rec
}

// StoreRoot is the full persisted state: every known user keyed by ID.
type StoreRoot map[string]*UserRecord

// EnsureUser returns the record for the given user, creating it lazily.
func (r StoreRoot) EnsureUser(userID string) *UserRecord {
	rec, ok := r[userID]
	if !ok {
		rec = NewUserRecord()
		r[userID] = rec
	}
	return rec
}

// Normalize repairs nil maps and lists after a snapshot load.
func (r StoreRoot) Normalize() {
	for _, user := range r {
		if user.Tasks == nil {
			user.Tasks = map[string]*DayRecord{}
		}
		for _, day := range user.Tasks {
			day.Normalize()
		}
	}
}

// Stats is a lifetime completion count. Totals count raw task entries:
// a task carried forward by rollover and later completed counts twice.
type Stats struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// StatsFor folds a user's full history into completion counts.
// A user with no history yields the zero value.
func (u *UserRecord) StatsFor() Stats {
	var s Stats
	if u == nil {
		return s
	}
	for _, day := range u.Tasks {
		for _, t := range day.Main {
			s.Total++
			if t.Done {
				s.Done++
			}
		}
		for _, t := range day.Extra {
			s.Total++
			if t.Done {
				s.Done++
			}
		}
	}
	return s
}

// DateKey formats t as a calendar-day store key in local time.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}
