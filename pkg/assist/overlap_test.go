package assist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/organizer/pkg/clock"
	"github.com/harrisonrobin/organizer/pkg/model"
	"github.com/harrisonrobin/organizer/pkg/suggest"
)

func timed(id int64, title string, hour, minute int) model.Task {
	return model.Task{ID: id, Title: title, Due: ptr(at(hour, minute)), HasTime: true}
}

func TestDetectOverlapsMovesShorterTask(t *testing.T) {
	tasks := []model.Task{timed(1, "A", 10, 0), timed(2, "B", 10, 30)}
	out := DetectOverlaps(monday, tasks, map[int64]int{1: 60, 2: 30}, nil)

	require.Len(t, out, 1)
	assert.Equal(t, suggest.TypeOverlap, out[0].Type)
	assert.Equal(t, suggest.TaskTarget(2), out[0].Target)
	assert.Equal(t, at(11, 15), scheduledDue(t, out[0]), "A's end plus the buffer")
	assert.Contains(t, out[0].Description, "Today at 11:15 AM")
}

func TestDetectOverlapsTouchingIsNotOverlap(t *testing.T) {
	tasks := []model.Task{timed(1, "A", 10, 0), timed(2, "B", 11, 0)}
	assert.Empty(t, DetectOverlaps(monday, tasks, map[int64]int{1: 60, 2: 30}, nil))
}

func TestDetectOverlapsEqualDurationsMovesEarlier(t *testing.T) {
	tasks := []model.Task{timed(2, "Later", 10, 15), timed(1, "Earlier", 10, 0)}
	out := DetectOverlaps(monday, tasks, map[int64]int{1: 30, 2: 30}, nil)

	require.Len(t, out, 1)
	assert.Equal(t, suggest.TaskTarget(1), out[0].Target)
	assert.Equal(t, at(11, 0), scheduledDue(t, out[0]))
}

func TestDetectOverlapsOneProposalPerTask(t *testing.T) {
	tasks := []model.Task{
		timed(1, "A", 10, 0),
		timed(2, "B", 10, 30),
		timed(3, "C", 10, 15),
	}
	out := DetectOverlaps(monday, tasks, map[int64]int{1: 60, 2: 30, 3: 20}, nil)

	require.Len(t, out, 2)
	// C starts before B, so its pairing with A is found first; both move after A.
	assert.Equal(t, suggest.TaskTarget(3), out[0].Target)
	assert.Equal(t, at(11, 15), scheduledDue(t, out[0]))
	assert.Equal(t, suggest.TaskTarget(2), out[1].Target)
	assert.Equal(t, at(11, 15), scheduledDue(t, out[1]))
}

func TestDetectOverlapsSkipsUntimedCompletedAndDismissed(t *testing.T) {
	dateOnly := model.Task{ID: 4, Title: "Date only", Due: ptr(at(10, 0))}
	done := timed(5, "Done", 10, 0)
	done.Completed = true

	tasks := []model.Task{timed(1, "A", 10, 0), timed(2, "B", 10, 30), dateOnly, done}
	ledger := suggest.NewLedger(clock.NewManual(monday))
	s := suggest.MustNew(suggest.TypeOverlap, "t", "d", suggest.SchedulePayload{TaskID: 2}, monday)
	ledger.Upsert(s)
	require.NoError(t, ledger.Dismiss(s.ID, ""))

	assert.Empty(t, DetectOverlaps(monday, tasks, map[int64]int{1: 60, 2: 30}, ledger))
}

func TestDetectOverlapsUsesDefaultDuration(t *testing.T) {
	tasks := []model.Task{timed(1, "A", 10, 0), timed(2, "B", 10, 20)}
	out := DetectOverlaps(monday, tasks, nil, nil)
	require.Len(t, out, 1)
	assert.Equal(t, suggest.TaskTarget(1), out[0].Target)
	assert.Equal(t, at(11, 5), scheduledDue(t, out[0]))
}
