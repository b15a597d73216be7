package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/okian/matchsim/internal/domain/model"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "injuries.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open("  "); !errors.Is(err, ErrPathRequired) {
		t.Fatalf("expected ErrPathRequired, got %v", err)
	}
}

func TestRecordLoadRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	input := []model.InjuryRecord{
		{
			PlayerID: 7, TeamID: 1, MatchID: "r3-m2", Round: 3,
			Kind: model.InjuryKind(model.Moderate, model.Hamstring), Severity: model.Moderate, BodyPart: model.Hamstring,
			Multiplier: 0.6, InjuredOut: true, Quarter: 2, Second: 415,
		},
		{
			PlayerID: 7, TeamID: 1, MatchID: "r4-m1", Round: 4,
			Kind: model.InjuryKind(model.Niggle, model.Ankle), Severity: model.Niggle, BodyPart: model.Ankle,
			Multiplier: 0.95, Quarter: 4, Second: 1190,
		},
		{
			PlayerID: 9, TeamID: 2, MatchID: "r4-m1", Round: 4,
			Kind: model.InjuryKind(model.Minor, model.Head), Severity: model.Minor, BodyPart: model.Head,
			Multiplier: 0.85, InjuredOut: true, Quarter: 1, Second: 30,
		},
	}
	if err := store.Record(ctx, input); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := store.Load(ctx, []model.PlayerID{7, 8})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("players = %d, want 1", len(got))
	}
	if len(got[7]) != 2 {
		t.Fatalf("records for player 7 = %d, want 2", len(got[7]))
	}
	for i, want := range input[:2] {
		if got[7][i] != want {
			t.Fatalf("record %d = %+v, want %+v", i, got[7][i], want)
		}
	}

	all, err := store.Load(ctx, []model.PlayerID{7, 9})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if all[9][0] != input[2] {
		t.Fatalf("player 9 = %+v, want %+v", all[9][0], input[2])
	}
	if m := all.Active(5).StartingMultiplier(7); m != 0 {
		t.Fatalf("starting multiplier = %v, want 0 while the hamstring heals", m)
	}
}

func TestRecordEmptyIsNoop(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.Record(context.Background(), nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := store.Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("players = %d, want 0", len(got))
	}
}

func TestRecordReplacesMatch(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	earlier := model.InjuryRecord{
		PlayerID: 4, TeamID: 1, MatchID: "r1-m1", Round: 1,
		Kind: "niggle ankle", Severity: model.Niggle, BodyPart: model.Ankle, Multiplier: 0.95,
	}
	match := []model.InjuryRecord{
		{
			PlayerID: 4, TeamID: 1, MatchID: "r2-m1", Round: 2,
			Kind: "minor knee", Severity: model.Minor, BodyPart: model.Knee, Multiplier: 0.85,
		},
		{
			PlayerID: 5, TeamID: 2, MatchID: "r2-m1", Round: 2,
			Kind: "minor head", Severity: model.Minor, BodyPart: model.Head, Multiplier: 0.85,
		},
	}
	if err := store.Record(ctx, []model.InjuryRecord{earlier}); err != nil {
		t.Fatalf("record: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := store.Record(ctx, match); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	got, err := store.Load(ctx, []model.PlayerID{4, 5})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got[4]) != 2 || len(got[5]) != 1 {
		t.Fatalf("history = %+v, want one record per player per match", got)
	}

	if err := store.Record(ctx, match[:1]); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err = store.Load(ctx, []model.PlayerID{4, 5})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := got[5]; ok {
		t.Fatalf("player 5 = %+v, want the replaced record gone", got[5])
	}
	if got[4][0] != earlier || got[4][1] != match[0] {
		t.Fatalf("player 4 = %+v, want earlier round kept", got[4])
	}
}

func TestLoadManyPlayers(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	const players = loadChunk*2 + 17
	records := make([]model.InjuryRecord, players)
	ids := make([]model.PlayerID, players)
	for i := range records {
		ids[i] = model.PlayerID(i + 1)
		records[i] = model.InjuryRecord{
			PlayerID: ids[i], TeamID: 1, MatchID: "m", Round: 1,
			Kind: "niggle hamstring", Severity: model.Niggle, BodyPart: model.Hamstring, Multiplier: 0.95,
		}
	}
	if err := store.Record(ctx, records); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := store.Load(ctx, ids)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != players {
		t.Fatalf("players = %d, want %d", len(got), players)
	}
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Record(ctx, []model.InjuryRecord{{PlayerID: 1}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("record err = %v, want context.Canceled", err)
	}
	if _, err := store.Load(ctx, []model.PlayerID{1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("load err = %v, want context.Canceled", err)
	}
}
