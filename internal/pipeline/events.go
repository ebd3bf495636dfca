package pipeline

import (
	"fmt"
	"time"

	"github.com/joseph-ayodele/rex-zones-humides/constants"
)

// Event is one progress notification of a run.
type Event struct {
	RunID    string          `json:"run_id"`
	Stage    constants.Stage `json:"stage"`
	Progress float64         `json:"progress"`
	Status   string          `json:"status"`
	Err      error           `json:"-"`
	Time     time.Time       `json:"time"`
}

// Terminal reports whether e ends the run.
func (e Event) Terminal() bool {
	return e.Stage.Terminal()
}

func (e Event) String() string {
	return fmt.Sprintf("[%3.0f%%] %s", e.Progress*100, e.Status)
}

// loopProgress is the progress shown when project i of n starts.
func loopProgress(i, n int) float64 {
	if n <= 0 {
		return constants.ProgressLoopStart
	}
	return constants.ProgressLoopStart + float64(i)*(constants.ProgressLoopSpan/float64(n))
}

// shortTitle keeps the first StatusTitleRunes runes of title.
func shortTitle(title string) string {
	r := []rune(title)
	if len(r) > constants.StatusTitleRunes {
		r = r[:constants.StatusTitleRunes]
	}
	return string(r)
}
