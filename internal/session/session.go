package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/uuid"

	"tilephase/internal/adjacency"
	"tilephase/internal/catalog"
	"tilephase/internal/persistence/indexdb"
	persistlog "tilephase/internal/persistence/log"
	"tilephase/internal/phase"
	"tilephase/internal/profile"
	"tilephase/internal/protocol"
	"tilephase/internal/tuning"
)

// Session owns the live state of one imported sheet: the profile store, the
// latest resolution result, the phase library, the control value and the
// placed instances. Calls are serialized by a mutex; each resolve or sweep
// runs to completion inside it, so readers never see a half-applied swap.
type Session struct {
	mu sync.Mutex

	cfg   adjacency.Config
	store *profile.Store
	res   *adjacency.Result

	holder *phase.Holder
	coord  *phase.Coordinator
	ctl    phase.Control

	instances []*phase.TileInstance

	runID         string
	catalogDigest string

	index    *indexdb.SQLiteIndex
	sweepLog *persistlog.SweepLogger
	runLog   *persistlog.RunLogger

	// payloads caches serialized query responses keyed by (runID, kind).
	// Invalidated implicitly: a new run gets a new runID.
	payloads *ristretto.Cache[string, []byte]
}

// Options carries the optional persistence hooks.
type Options struct {
	Index    *indexdb.SQLiteIndex
	SweepLog *persistlog.SweepLogger
	RunLog   *persistlog.RunLogger
}

func New(tune tuning.Tuning, opts Options) (*Session, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1 << 12,
		MaxCost:     32 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("payload cache: %w", err)
	}

	holder := &phase.Holder{}
	return &Session{
		cfg:      tune.ResolverConfig(),
		holder:   holder,
		coord:    phase.NewCoordinator(holder),
		index:    opts.Index,
		sweepLog: opts.SweepLog,
		runLog:   opts.RunLog,
		payloads: cache,
	}, nil
}

// LoadCatalog builds and publishes a fresh phase library from authored
// variants. Old tables stay valid for in-flight readers.
func (s *Session) LoadCatalog(c *catalog.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holder.Publish(phase.BuildLibrary(c))
	s.catalogDigest = c.Digest
}

// Import installs a freshly sampled store and resolves it. Placed instances
// are rebuilt one per sheet tile at its grid position, typed by tile index.
func (s *Session) Import(store *profile.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store = store
	s.res = adjacency.Resolve(store, s.cfg)
	s.coord.SetFamilies(s.res.Families)
	s.runID = uuid.NewString()

	s.instances = s.instances[:0]
	cols := store.Cols
	if cols <= 0 {
		cols = 1
	}
	for i := 0; i < store.Len(); i++ {
		inst := phase.NewTileInstance(i%cols, i/cols, i)
		if p := store.At(i); p != nil {
			inst.Binding.Tint = p.Avg
		}
		s.instances = append(s.instances, inst)
	}

	if s.runLog != nil {
		_ = s.runLog.WriteRun(persistlog.RunEntry{
			RunID:       s.runID,
			At:          time.Now().UTC().Format(time.RFC3339Nano),
			Tiles:       store.Len(),
			Families:    s.res.FamilyCount,
			Pairs:       len(s.res.Pairs),
			ChromaFirst: s.cfg.ChromaFirst,
			Threshold:   s.cfg.MatchThreshold,
		})
	}
	if s.index != nil {
		return s.index.RecordRun(indexdb.RunRow{
			RunID:         s.runID,
			Tiles:         store.Len(),
			Families:      s.res.FamilyCount,
			Pairs:         len(s.res.Pairs),
			ChromaFirst:   s.cfg.ChromaFirst,
			Threshold:     s.cfg.MatchThreshold,
			CatalogDigest: s.catalogDigest,
		}, s.res.Families)
	}
	return nil
}

// RunID identifies the latest resolution run, empty before the first import.
func (s *Session) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// SetPhase requests and applies a global phase swap. Returns the number of
// bindings written.
func (s *Session) SetPhase(p int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctl.Set(p)
	writes := s.coord.Apply(&s.ctl, s.instances)
	s.recordSweep(p, writes, false)
	return writes
}

// ZonePhase applies a phase override inside a grid region.
func (s *Session) ZonePhase(region phase.Rect, p int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	writes := s.coord.ApplyZone(region, p, s.instances)
	s.recordSweep(p, writes, true)
	return writes
}

func (s *Session) recordSweep(p, writes int, zoned bool) {
	if s.runID == "" {
		return
	}
	at := time.Now().UTC().Format(time.RFC3339Nano)
	if s.sweepLog != nil {
		_ = s.sweepLog.WriteSweep(persistlog.SweepEntry{
			RunID: s.runID, At: at, Phase: p, Writes: writes, Zoned: zoned,
		})
	}
	if s.index != nil {
		s.index.RecordSweep(indexdb.SweepRow{
			RunID: s.runID, At: at, Phase: p, Writes: writes, Zoned: zoned,
		})
	}
}

// Phase returns the current control value.
func (s *Session) Phase() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctl.Phase()
}

// Welcome summarizes the session for the handshake.
func (s *Session) Welcome(sessionID string) protocol.WelcomeMsg {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		CatalogDigest:   s.catalogDigest,
		CurrentPhase:    s.ctl.Phase(),
	}
	if s.store != nil {
		msg.Sheet = protocol.SheetParams{
			Cols: s.store.Cols, Rows: s.store.Rows,
			TileW: s.store.TileW, TileH: s.store.TileH,
		}
	}
	if s.res != nil {
		msg.FamilyCount = s.res.FamilyCount
	}
	if lib := s.holder.Current(); lib != nil {
		msg.NumPhases = lib.NumPhases()
	}
	return msg
}

// FamiliesPayload returns the serialized FAMILIES message for the current
// run, cached until the next import.
func (s *Session) FamiliesPayload() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.res == nil {
		return nil, fmt.Errorf("no resolution run")
	}
	return s.cachedPayload("families", func() any {
		return protocol.FamiliesMsg{
			Type:            protocol.TypeFamilies,
			ProtocolVersion: protocol.Version,
			Families:        s.res.Families,
			FamilyCount:     s.res.FamilyCount,
		}
	})
}

// ScoresPayload returns the serialized SCORES message, cached per run.
func (s *Session) ScoresPayload() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.res == nil {
		return nil, fmt.Errorf("no resolution run")
	}
	return s.cachedPayload("scores", func() any {
		pairs := make([]protocol.PairScore, len(s.res.Pairs))
		for i, p := range s.res.Pairs {
			pairs[i] = protocol.PairScore{
				A: p.A, B: p.B, Dir: p.Dir.String(),
				Alpha: p.Alpha, Chroma: p.Chroma, Total: p.Total,
			}
		}
		return protocol.ScoresMsg{
			Type:            protocol.TypeScores,
			ProtocolVersion: protocol.Version,
			Pairs:           pairs,
		}
	})
}

// Neighbors returns one tile's neighbor report.
func (s *Session) Neighbors(tile int) (protocol.NeighborsMsg, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.res == nil {
		return protocol.NeighborsMsg{}, fmt.Errorf("no resolution run")
	}
	if tile < 0 || tile >= len(s.res.Neighbors) {
		return protocol.NeighborsMsg{}, fmt.Errorf("tile %d out of range", tile)
	}
	msg := protocol.NeighborsMsg{
		Type:            protocol.TypeNeighbors,
		ProtocolVersion: protocol.Version,
		Tile:            tile,
		Family:          s.coord.FamilyOf(tile),
	}
	for _, n := range s.res.Neighbors[tile] {
		msg.Entries = append(msg.Entries, protocol.NeighborEntry{
			Neighbor: n.Neighbor, Score: n.Score,
		})
	}
	return msg, nil
}

// Instances exposes the live instances for rendering-side consumers.
func (s *Session) Instances() []*phase.TileInstance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*phase.TileInstance, len(s.instances))
	copy(out, s.instances)
	return out
}

func (s *Session) cachedPayload(kind string, build func() any) ([]byte, error) {
	key := s.runID + "/" + kind
	if b, ok := s.payloads.Get(key); ok {
		return b, nil
	}
	b, err := json.Marshal(build())
	if err != nil {
		return nil, err
	}
	s.payloads.Set(key, b, int64(len(b)))
	return b, nil
}
