// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tritium Tools

package tritium

import (
	"strings"
	"testing"
	"time"
)

func TestStatistics_Update(t *testing.T) {
	s := NewStatistics()
	now := time.Now()

	feed := func(f RawFrame) {
		d, ok, err := Dispatch(&f, now)
		s.Update(&f, d, ok, err)
	}

	// Two good heartbeats and one good status.
	hb, _ := EncodeFrame(0x05, Heartbeat{Sequence: 1})
	st, _ := EncodeFrame(0x05, Status{})
	feed(hb)
	feed(hb)
	feed(st)

	// One of each failure and skip class.
	feed(RawFrame{ID: 0x18FF50E5, Extended: true, Len: 8})                         // foreign
	feed(RawFrame{ID: ComposeID(0x05, SelHeartbeat), Extended: true, Remote: true}) // remote
	feed(RawFrame{ID: ComposeID(0x05, SelStatus) | 1<<14, Extended: true, Len: 6})  // reserved bits
	feed(RawFrame{ID: ComposeID(0x05, SelStatus), Extended: true, Len: 4})          // short
	bad := RawFrame{ID: ComposeID(0x05, SelBusMeas), Extended: true, Len: 8}
	copy(bad.Data[:], f32le(2000, 0))
	feed(bad) // out of range
	feed(RawFrame{ID: IdentifierBase<<21 | 0x1E, Extended: true, Len: 8}) // unknown selector

	if s.TotalFrames != 9 {
		t.Errorf("TotalFrames = %d, want 9", s.TotalFrames)
	}
	if s.DecodedFrames != 3 {
		t.Errorf("DecodedFrames = %d, want 3", s.DecodedFrames)
	}
	if s.ForeignFrames != 1 || s.RemoteRequests != 1 || s.UnknownSelectors != 1 {
		t.Errorf("skip counters = foreign %d, remote %d, unknown %d, want 1 each",
			s.ForeignFrames, s.RemoteRequests, s.UnknownSelectors)
	}
	if s.ReservedBitsSet != 1 || s.ShortPayloads != 1 || s.OutOfRange != 1 {
		t.Errorf("error counters = reserved %d, short %d, range %d, want 1 each",
			s.ReservedBitsSet, s.ShortPayloads, s.OutOfRange)
	}
	if s.BySelector[SelHeartbeat] != 2 || s.BySelector[SelStatus] != 1 {
		t.Errorf("per-selector counts = heartbeat %d, status %d, want 2 and 1",
			s.BySelector[SelHeartbeat], s.BySelector[SelStatus])
	}

	out := s.String()
	for _, want := range []string{"Total Frames", "HEARTBEAT", "STATUS", "Frame Rate"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestStatistics_Reset(t *testing.T) {
	s := NewStatistics()
	f, _ := EncodeFrame(0x01, ResetCommand{})
	d, ok, err := Dispatch(&f, time.Now())
	s.Update(&f, d, ok, err)

	s.Reset()
	if s.TotalFrames != 0 || s.DecodedFrames != 0 {
		t.Errorf("counters survived Reset: %+v", s)
	}
}
