// Package replay records match snapshots to disk and reads them back.
//
// A bundle is a directory holding:
//
//	manifest.json    bundle metadata and counts
//	events.jsonl.sz  snappy-framed JSON lines, one per snapshot where the
//	                 score, injuries or interchanges changed, plus the final one
//	frames.bin.zst   zstd stream of every snapshot, each prefixed by a
//	                 20-byte little-endian header (tick u64, quarter u32,
//	                 time remaining u32, payload length u32)
package replay

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"github.com/okian/matchsim/internal/domain/model"
)

// Bundle layout.
const (
	ManifestVersion = 1
	ManifestFile    = "manifest.json"
	EventsFile      = "events.jsonl.sz"
	FramesFile      = "frames.bin.zst"

	frameHeaderSize = 8 + 4 + 4 + 4
	flushEvery      = 64
)

var matchCleaner = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Event kinds.
const (
	KindScore       = "score"
	KindInjury      = "injury"
	KindInterchange = "interchange"
	KindFinal       = "final"
)

// Manifest describes the bundle so tooling can locate artefacts.
type Manifest struct {
	Version    int    `json:"version"`
	MatchID    string `json:"match_id"`
	CreatedAt  string `json:"created_at"`
	EventsPath string `json:"events_path"`
	FramesPath string `json:"frames_path"`
	Events     int    `json:"events"`
	Frames     int    `json:"frames"`
	Complete   bool   `json:"complete"`
}

// Event is one line of the event log.
type Event struct {
	Tick     int            `json:"tick"`
	Kinds    []string       `json:"kinds"`
	Snapshot model.Snapshot `json:"snapshot"`
}

type frame struct {
	tick          uint64
	quarter       uint32
	timeRemaining uint32
	payload       []byte
}

// Dir returns the bundle directory for matchID under root. The name keeps
// the filesystem-safe characters of matchID followed by a hash of the raw id,
// so ids that clean to the same text still get their own directories.
func Dir(root, matchID string) string {
	cleaned := matchCleaner.ReplaceAllString(matchID, "")
	if cleaned == "" {
		cleaned = "match"
	}
	return filepath.Join(root, fmt.Sprintf("%s-%016x", cleaned, xxhash.Sum64String(matchID)))
}

// Writer streams snapshots of one match to a bundle. It implements
// match.Sink; Close must be called once the match is over.
type Writer struct {
	mu          sync.Mutex
	dir         string
	manifest    Manifest
	eventFile   *os.File
	eventStream *snappy.Writer
	frameFile   *os.File
	frameStream *zstd.Encoder
	pending     []frame
	prev        *model.Snapshot
	closed      bool
}

// NewWriter prepares the bundle directory and opens compressed sinks. An
// existing bundle for the same match is overwritten.
func NewWriter(root, matchID string, clock func() time.Time) (*Writer, Manifest, error) {
	if root == "" {
		return nil, Manifest{}, ErrRootRequired
	}
	if clock == nil {
		clock = time.Now
	}

	dir := Dir(root, matchID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, Manifest{}, fmt.Errorf("create replay dir: %w", err)
	}

	eventFile, err := os.Create(filepath.Join(dir, EventsFile))
	if err != nil {
		return nil, Manifest{}, fmt.Errorf("create events: %w", err)
	}
	eventStream := snappy.NewBufferedWriter(eventFile)

	frameFile, err := os.Create(filepath.Join(dir, FramesFile))
	if err != nil {
		eventFile.Close()
		return nil, Manifest{}, fmt.Errorf("create frames: %w", err)
	}
	frameStream, err := zstd.NewWriter(frameFile)
	if err != nil {
		eventStream.Close()
		eventFile.Close()
		frameFile.Close()
		return nil, Manifest{}, fmt.Errorf("create zstd encoder: %w", err)
	}

	w := &Writer{
		dir: dir,
		manifest: Manifest{
			Version:    ManifestVersion,
			MatchID:    matchID,
			CreatedAt:  clock().UTC().Format(time.RFC3339Nano),
			EventsPath: EventsFile,
			FramesPath: FramesFile,
		},
		eventFile:   eventFile,
		eventStream: eventStream,
		frameFile:   frameFile,
		frameStream: frameStream,
	}
	if err := w.writeManifest(); err != nil {
		frameStream.Close()
		frameFile.Close()
		eventStream.Close()
		eventFile.Close()
		return nil, Manifest{}, err
	}
	return w, w.manifest, nil
}

// Directory exposes the directory backing the bundle.
func (w *Writer) Directory() string {
	if w == nil {
		return ""
	}
	return w.dir
}

// Publish records s as a frame, and as an event when something notable changed.
func (w *Writer) Publish(_ context.Context, s model.Snapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}

	w.pending = append(w.pending, frame{
		tick:          uint64(s.Tick),
		quarter:       uint32(s.Quarter),
		timeRemaining: uint32(s.TimeRemaining),
		payload:       payload,
	})
	w.manifest.Frames++
	if len(w.pending) >= flushEvery {
		if err := w.flushLocked(); err != nil {
			return err
		}
	}

	kinds := changes(w.prev, s)
	w.prev = &s
	if len(kinds) == 0 {
		return nil
	}
	return w.appendEventLocked(Event{Tick: s.Tick, Kinds: kinds, Snapshot: s})
}

// changes lists what is notable about s relative to the previous snapshot.
func changes(prev *model.Snapshot, s model.Snapshot) []string {
	var kinds []string
	var before model.Snapshot
	if prev != nil {
		before = *prev
	}
	if s.HomeScore != before.HomeScore || s.AwayScore != before.AwayScore {
		kinds = append(kinds, KindScore)
	}
	if s.HomeInjuries != before.HomeInjuries || s.AwayInjuries != before.AwayInjuries {
		kinds = append(kinds, KindInjury)
	}
	if s.HomeInterchanges != before.HomeInterchanges || s.AwayInterchanges != before.AwayInterchanges {
		kinds = append(kinds, KindInterchange)
	}
	if s.Final {
		kinds = append(kinds, KindFinal)
	}
	return kinds
}

// appendEventLocked writes one JSON line; callers must hold the mutex.
func (w *Writer) appendEventLocked(e Event) error {
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := w.eventStream.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	w.manifest.Events++
	return nil
}

// flushLocked writes buffered frames to the zstd stream; callers must hold the mutex.
func (w *Writer) flushLocked() error {
	var header [frameHeaderSize]byte
	for _, f := range w.pending {
		binary.LittleEndian.PutUint64(header[0:8], f.tick)
		binary.LittleEndian.PutUint32(header[8:12], f.quarter)
		binary.LittleEndian.PutUint32(header[12:16], f.timeRemaining)
		binary.LittleEndian.PutUint32(header[16:20], uint32(len(f.payload)))
		if _, err := w.frameStream.Write(header[:]); err != nil {
			return fmt.Errorf("write frame header: %w", err)
		}
		if _, err := w.frameStream.Write(f.payload); err != nil {
			return fmt.Errorf("write frame: %w", err)
		}
	}
	w.pending = w.pending[:0]
	return nil
}

func (w *Writer) writeManifest() error {
	data, err := json.MarshalIndent(w.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, ManifestFile), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Close flushes every buffer, marks the manifest complete when a final
// snapshot was seen and releases file handles. Calling Close twice is a no-op.
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	// Attempt every flush and close, surfacing the first failure.
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	keep(w.flushLocked())
	keep(w.eventStream.Close())
	keep(w.eventFile.Close())
	keep(w.frameStream.Close())
	keep(w.frameFile.Close())

	w.manifest.Complete = firstErr == nil && w.prev != nil && w.prev.Final
	keep(w.writeManifest())
	return firstErr
}

// Manifest returns the manifest as currently known.
func (w *Writer) Manifest() Manifest {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.manifest
}
