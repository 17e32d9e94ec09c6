package editor

import (
	"context"
	"fmt"
	"time"
)

// AutosaveState is the state of the debounced export machine.
//
//	Idle -> PendingExport        on change
//	PendingExport -> PendingExport on change (debounce restarts)
//	PendingExport -> Exporting   when the debounce elapses
//	Exporting -> Idle            when the write finishes or fails
//	any -> SuppressedManualSave  after a successful manual save
//	SuppressedManualSave -> Idle, or PendingExport if changes arrived
type AutosaveState int32

const (
	Idle AutosaveState = iota
	PendingExport
	Exporting
	SuppressedManualSave
)

func (s AutosaveState) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingExport:
		return "pending_export"
	case Exporting:
		return "exporting"
	case SuppressedManualSave:
		return "suppressed_manual_save"
	}
	return fmt.Sprintf("AutosaveState(%d)", int32(s))
}

func (s *Session) setAutosave(st AutosaveState) {
	s.autosave.Store(int32(st))
}

// run is the autosave loop. It is the only goroutine that writes documents,
// so writes are strictly ordered.
func (s *Session) run(ctx context.Context) {
	defer close(s.stopped)

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	suppress := time.NewTimer(time.Hour)
	suppress.Stop()
	defer debounce.Stop()
	defer suppress.Stop()

	state := Idle
	deferred := false
	set := func(st AutosaveState) {
		state = st
		s.setAutosave(st)
	}

	for {
		select {
		case <-s.done:
			return

		case <-ctx.Done():
			return

		case <-s.changes:
			if state == SuppressedManualSave {
				deferred = true
				continue
			}
			debounce.Reset(s.opts.Debounce)
			set(PendingExport)

		case <-debounce.C:
			if state != PendingExport {
				continue
			}
			set(Exporting)
			_ = s.export(ctx, false)
			set(Idle)

		case reply := <-s.saves:
			if state == PendingExport {
				debounce.Stop()
			}
			set(Exporting)
			err := s.export(ctx, true)
			if err != nil {
				set(Idle)
			} else {
				deferred = false
				suppress.Reset(s.opts.SuppressWindow)
				set(SuppressedManualSave)
			}
			reply <- err

		case <-suppress.C:
			if state != SuppressedManualSave {
				continue
			}
			if deferred {
				deferred = false
				debounce.Reset(s.opts.Debounce)
				set(PendingExport)
				continue
			}
			set(Idle)
		}
	}
}
