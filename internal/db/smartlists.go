package db

import (
	"fmt"
	"time"

	"github.com/tgienger/dida/internal/models"
)

// Window is an inclusive range of Unix seconds
type Window struct {
	Start int64
	End   int64
}

// TodayWindow spans 00:00:00 to 23:59:59 of now's calendar day in loc
func TodayWindow(now time.Time, loc *time.Location) Window {
	n := now.In(loc)
	return Window{
		Start: startOfDay(n).Unix(),
		End:   endOfDay(n).Unix(),
	}
}

// WeekWindow starts at 00:00:00 today and ends at 23:59:59 of the
// calendar day seven days after now, in loc
func WeekWindow(now time.Time, loc *time.Location) Window {
	n := now.In(loc)
	return Window{
		Start: startOfDay(n).Unix(),
		End:   endOfDay(n.AddDate(0, 0, 7)).Unix(),
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

// ListTasksByList returns the tasks belonging to a list. Smart list ids
// compute their membership; any other id matches tasks.list_id.
func (db *DB) ListTasksByList(listID string) ([]models.Task, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	ref := models.ResolveList(listID)
	switch ref.Kind {
	case models.KindTrash:
		return queryTasks(db.sql, "list trash",
			"SELECT "+taskColumns+" FROM tasks WHERE is_deleted = 1 ORDER BY updated_at DESC, id ASC")

	case models.KindCompleted:
		return queryTasks(db.sql, "list completed", `
			SELECT `+taskColumns+` FROM tasks
			WHERE completed = 1 AND is_deleted = 0
			ORDER BY completed_at DESC, updated_at DESC, id ASC
		`)

	case models.KindAll:
		return db.listAll()

	case models.KindToday:
		return db.listWindow("list today", TodayWindow(db.now(), db.loc))

	case models.KindWeek:
		return db.listWindow("list week", WeekWindow(db.now(), db.loc))

	case models.KindInbox, models.KindUser:
		return queryTasks(db.sql, "list tasks by list",
			"SELECT "+taskColumns+" FROM tasks WHERE list_id = ? AND is_deleted = 0 ORDER BY "+taskOrder,
			ref.ID)
	}
	return nil, fmt.Errorf("unhandled list kind %v", ref.Kind)
}

// listWindow selects open tasks due on or before w.End, overdue included,
// plus tasks completed within w. Open tasks sort first, then by due date
// and descending priority.
func (db *DB) listWindow(op string, w Window) ([]models.Task, error) {
	return queryTasks(db.sql, op, `
		SELECT `+taskColumns+` FROM tasks
		WHERE is_deleted = 0 AND (
			(completed = 0 AND due_date <= ?)
			OR (completed = 1 AND completed_at >= ? AND completed_at <= ?)
		)
		ORDER BY completed ASC, due_date ASC, priority DESC, id ASC
	`, w.End, w.Start, w.End)
}
