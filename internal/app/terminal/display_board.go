package terminal

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/YelzhanWeb/stall-orders/internal/domain"
)

// FormatDisplayNumber pads to two digits; a missing number shows as "??".
func FormatDisplayNumber(n int) string {
	if n <= 0 {
		return "??"
	}
	return fmt.Sprintf("%02d", n)
}

type Panel struct {
	Numbers []int
	New     map[int]bool
}

type DisplayView struct {
	Pending   Panel
	Completed Panel
}

// DisplayBoard is the customer-facing number board. Each Snapshot marks
// numbers that were not on the same panel in the previous snapshot.
type DisplayBoard struct {
	mirror        *Mirror
	lastPending   map[int]bool
	lastCompleted map[int]bool
}

func NewDisplayBoard(mirror *Mirror) *DisplayBoard {
	return &DisplayBoard{
		mirror:        mirror,
		lastPending:   map[int]bool{},
		lastCompleted: map[int]bool{},
	}
}

func (b *DisplayBoard) Snapshot() DisplayView {
	var pending, completed []int
	for _, o := range b.mirror.Orders() {
		if o.Cancelled || o.DisplayNumber <= 0 {
			continue
		}
		if o.Status == domain.StatusServed {
			completed = append(completed, o.DisplayNumber)
		} else {
			pending = append(pending, o.DisplayNumber)
		}
	}

	var view DisplayView
	view.Pending, b.lastPending = panel(pending, b.lastPending)
	view.Completed, b.lastCompleted = panel(completed, b.lastCompleted)
	return view
}

func panel(numbers []int, previous map[int]bool) (Panel, map[int]bool) {
	sort.Ints(numbers)
	p := Panel{Numbers: numbers, New: map[int]bool{}}
	current := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		current[n] = true
		if !previous[n] {
			p.New[n] = true
		}
	}
	return p, current
}

func (b *DisplayBoard) Render(w io.Writer) error {
	view := b.Snapshot()
	if _, err := fmt.Fprintf(w, "Preparing: %s\n", renderPanel(view.Pending, "none")); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Ready:     %s\n", renderPanel(view.Completed, "none"))
	return err
}

func renderPanel(p Panel, empty string) string {
	if len(p.Numbers) == 0 {
		return empty
	}
	parts := make([]string, 0, len(p.Numbers))
	for _, n := range p.Numbers {
		s := FormatDisplayNumber(n)
		if p.New[n] {
			s += "*"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}
