package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"imperialism.ai/internal/sim/economy/transport"
	"imperialism.ai/internal/sim/goods"
	"imperialism.ai/internal/sim/nation"
)

const Version = 1

type Header struct {
	Version  int    `json:"version"`
	EngineID string `json:"engine_id"`
	Turn     uint64 `json:"turn"`
}

// SnapshotV1 is everything needed to resume a game at a turn boundary.
// Reservation ledgers are not included; they rebuild empty on load.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Phase string `json:"phase"`

	BuildingsDigest string `json:"buildings_digest,omitempty"`
	TuningDigest    string `json:"tuning_digest,omitempty"`

	Nations    []nation.State        `json:"nations"`
	Structures []transport.Structure `json:"structures,omitempty"`
	Rails      []transport.Rail      `json:"rails,omitempty"`
	Transport  []TransportV1         `json:"transport,omitempty"`

	Prices      map[goods.Good]uint32            `json:"prices,omitempty"`
	LastVolumes map[goods.Good]VolumeV1          `json:"last_volumes,omitempty"`
	Supply      map[string]map[goods.Good]uint32 `json:"supply,omitempty"`
}

// TransportV1 is one nation's persistent transport settings.
type TransportV1 struct {
	Nation   string                         `json:"nation"`
	Bonus    uint32                         `json:"bonus,omitempty"`
	Requests map[transport.Commodity]uint32 `json:"requests,omitempty"`
}

type VolumeV1 struct {
	Supply uint32 `json:"supply"`
	Demand uint32 `json:"demand"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The header line is for tools that only need the turn; gob repeats it.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}

// ReadHeader reads only the JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()
	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, err
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("snapshot header: %w", err)
	}
	return h, nil
}

// PathFor is the file name used for the snapshot taken at turn.
func PathFor(dir string, turn uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%d.snap.zst", turn))
}

// Latest returns the highest-turn snapshot in dir, or "" if none.
func Latest(dir string) string {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTurn uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		turn, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64)
		if err != nil {
			continue
		}
		if best == "" || turn > bestTurn {
			bestTurn = turn
			best = filepath.Join(dir, name)
		}
	}
	return best
}
