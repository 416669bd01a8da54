package workflow

import (
	"fmt"
	"sync"
	"time"

	"github.com/moyoez/edi-client/tool"
	"github.com/moyoez/edi-client/types"
)

// DateRange is the start/end date pair. For Inventory both dates are pinned
// to today and direct edits are ignored until the document type changes.
// No ordering between start and end is enforced.
type DateRange struct {
	mu     sync.Mutex
	clock  tool.Clock
	start  string
	end    string
	locked bool
}

func NewDateRange(clock tool.Clock) *DateRange {
	if clock == nil {
		clock = tool.SystemClock
	}
	return &DateRange{clock: clock}
}

// SetDocType pins or releases the range. Releasing keeps the current values.
func (d *DateRange) SetDocType(t types.DocType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t == types.DocTypeInventory {
		today := tool.Today(d.clock)
		d.start, d.end = today, today
		d.locked = true
		return
	}
	d.locked = false
}

// SetStartDate returns false without touching the field while locked.
func (d *DateRange) SetStartDate(v string) (bool, error) {
	return d.set(&d.start, v)
}

// SetEndDate returns false without touching the field while locked.
func (d *DateRange) SetEndDate(v string) (bool, error) {
	return d.set(&d.end, v)
}

func (d *DateRange) set(field *string, v string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.locked {
		return false, nil
	}
	if v != "" {
		if _, err := time.Parse(types.DateLayout, v); err != nil {
			return false, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", v)
		}
	}
	*field = v
	return true, nil
}

// Values returns start and end. A locked range always reads as today.
func (d *DateRange) Values() (string, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.locked {
		today := tool.Today(d.clock)
		d.start, d.end = today, today
	}
	return d.start, d.end
}

func (d *DateRange) Locked() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.locked
}

// Reset clears both dates and unlocks.
func (d *DateRange) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.start, d.end = "", ""
	d.locked = false
}
