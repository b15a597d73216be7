package replay

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"github.com/okian/matchsim/internal/domain/model"
)

// Bundle is a decoded replay.
type Bundle struct {
	Manifest Manifest         `json:"manifest"`
	Events   []Event          `json:"events"`
	Frames   []model.Snapshot `json:"frames,omitempty"`
}

// Load reads the bundle at path, which may be the bundle directory or its
// manifest. Frames are decoded only when withFrames is set.
func Load(path string, withFrames bool) (Bundle, error) {
	manifestPath := path
	info, err := os.Stat(path)
	if err != nil {
		return Bundle{}, err
	}
	if info.IsDir() {
		manifestPath = filepath.Join(path, ManifestFile)
	}
	dir := filepath.Dir(manifestPath)

	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return Bundle{}, err
	}
	var b Bundle
	if err := json.Unmarshal(raw, &b.Manifest); err != nil {
		return Bundle{}, fmt.Errorf("decode manifest: %w", err)
	}
	if b.Manifest.Version != ManifestVersion {
		return Bundle{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, b.Manifest.Version)
	}

	if b.Events, err = loadEvents(filepath.Join(dir, b.Manifest.EventsPath)); err != nil {
		return Bundle{}, err
	}
	if withFrames {
		if b.Frames, err = loadFrames(filepath.Join(dir, b.Manifest.FramesPath)); err != nil {
			return Bundle{}, err
		}
	}
	return b, nil
}

func loadEvents(path string) ([]Event, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(snappy.NewReader(file))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var events []Event
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

func loadFrames(path string) ([]model.Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader, err := zstd.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	payload, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read frames: %w", err)
	}

	var frames []model.Snapshot
	offset := 0
	for offset+frameHeaderSize <= len(payload) {
		size := int(binary.LittleEndian.Uint32(payload[offset+16 : offset+20]))
		offset += frameHeaderSize
		if offset+size > len(payload) {
			return nil, ErrTruncatedFrame
		}
		var s model.Snapshot
		if err := json.Unmarshal(payload[offset:offset+size], &s); err != nil {
			return nil, fmt.Errorf("decode frame: %w", err)
		}
		offset += size
		frames = append(frames, s)
	}
	if offset != len(payload) {
		return nil, ErrTruncatedFrame
	}
	return frames, nil
}
