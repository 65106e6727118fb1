package storage

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/OCharnyshevich/voxelsrv/pkg/world/gen"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestChunkRoundTrip(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	c := gen.NewChunk(gen.ChunkPos{X: -3, Z: 8})
	c.Set(4, 70, 9, 12)
	data := c.Bytes()

	if err := s.SaveChunk(ctx, c.Pos, data); err != nil {
		t.Fatalf("SaveChunk: %v", err)
	}
	got, ok, err := s.LoadChunk(ctx, c.Pos)
	if err != nil || !ok {
		t.Fatalf("LoadChunk = ok %v, err %v", ok, err)
	}
	if !bytes.Equal(got, data) {
		t.Error("loaded payload differs from saved payload")
	}
}

func TestLoadChunkMissing(t *testing.T) {
	s := openTest(t)
	_, ok, err := s.LoadChunk(context.Background(), gen.ChunkPos{X: 1})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("LoadChunk reported a chunk that was never saved")
	}
}

func TestSaveChunkReplaces(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	pos := gen.ChunkPos{X: 2, Z: 2}

	s.SaveChunk(ctx, pos, []byte{1, 2, 3, 4})
	s.SaveChunk(ctx, pos, []byte{5, 6})

	got, _, err := s.LoadChunk(ctx, pos)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{5, 6}) {
		t.Errorf("payload = %v, want [5 6]", got)
	}
	if n, _ := s.ChunkCount(ctx); n != 1 {
		t.Errorf("ChunkCount = %d, want 1", n)
	}
}

func TestLevelRoundTrip(t *testing.T) {
	s := openTest(t)

	lvl, err := s.LoadLevel()
	if err != nil {
		t.Fatal(err)
	}
	if lvl != nil {
		t.Fatal("new storage returned a level")
	}

	want := &Level{Name: "world", Seed: 42, Generator: "normal", Created: time.Unix(100, 0).UTC(), Spawn: [3]int{0, 100, 0}}
	if err := s.SaveLevel(want); err != nil {
		t.Fatalf("SaveLevel: %v", err)
	}
	got, err := s.LoadLevel()
	if err != nil {
		t.Fatal(err)
	}
	if got.Seed != 42 || got.Generator != "normal" || !got.Created.Equal(want.Created) || got.Spawn != want.Spawn {
		t.Errorf("level = %+v, want %+v", got, want)
	}
}
