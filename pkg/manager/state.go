package manager

import (
	"time"

	"github.com/kasuboski/umaru/pkg/machine"
	"github.com/oapi-codegen/nullable"
)

// Activity is what the daemon is doing right now
type Activity string

const (
	ActivityIdle       Activity = "idle"
	ActivityRefreshing Activity = "refreshing"
)

// State is the process wide service state. It is not safe for concurrent use
// on its own; the Manager guards it with its lock.
type State struct {
	activity    *machine.StateMachine[Activity]
	lastRefresh nullable.Nullable[time.Time]
}

func NewState() *State {
	return &State{
		activity: machine.New(ActivityIdle,
			machine.From(ActivityIdle).To(ActivityRefreshing),
			machine.From(ActivityRefreshing).To(ActivityIdle),
		),
		lastRefresh: nullable.NewNullNullable[time.Time](),
	}
}

// Active reports whether a refresh cycle is in flight
func (s *State) Active() bool {
	return s.activity.Current() == ActivityRefreshing
}

// LastRefresh returns the time of the last successful refresh, if any
func (s *State) LastRefresh() (time.Time, bool) {
	t, err := s.lastRefresh.Get()
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (s *State) begin() error {
	return s.activity.Transition(ActivityRefreshing)
}

// finish clears the activity flag. A nil at means the cycle failed and the
// last refresh time is left alone.
func (s *State) finish(at *time.Time) error {
	if at != nil {
		s.lastRefresh.Set(*at)
	}
	return s.activity.Transition(ActivityIdle)
}
