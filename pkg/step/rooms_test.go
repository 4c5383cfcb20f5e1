package step

import (
	"image"
	"strings"
	"testing"
)

func TestJogLength(t *testing.T) {
	tests := []struct {
		delta    int
		straight float64
		want     int
	}{
		{0, 0.5, 0},
		{10, 1, 10},
		{-10, 1, -10},
		{10, 0, 1},
		{-10, 0, -1},
		{10, 0.25, 3},
		{1, 0.2, 1},
	}
	for _, tt := range tests {
		if got := jogLength(tt.delta, tt.straight); got != tt.want {
			t.Errorf("jogLength(%d, %v) = %d, want %d", tt.delta, tt.straight, got, tt.want)
		}
	}
}

func TestCenter(t *testing.T) {
	if got := Center(image.Rect(2, 4, 7, 9)); got != image.Pt(4, 6) {
		t.Errorf("Center() = %v, want (4,6)", got)
	}
}

func TestPlaceRoomsOverlapBudget(t *testing.T) {
	env, _ := testEnv(t)
	for _, budget := range []string{"0", "2"} {
		for seed := uint64(1); seed <= 10; seed++ {
			m := newMap(t, env, 30, 20, "Wall", seed)
			s := mustStep(t, KindRoomsAndPaths, Source{
				AttrNumRooms:    "8",
				AttrNumOverlaps: budget,
			}, env).(*RoomsAndPaths)

			rooms := s.PlaceRooms(m)
			overlaps := 0
			for i := range rooms {
				for j := 0; j < i; j++ {
					if rooms[i].Overlaps(rooms[j]) {
						overlaps++
					}
				}
			}
			limit := int(budget[0] - '0')
			if overlaps > limit {
				t.Errorf("budget %s seed %d: %d overlapping pairs", budget, seed, overlaps)
			}
		}
	}
}

func TestPlaceRoomsEligibleFootprints(t *testing.T) {
	env, _ := testEnv(t)
	m := newMap(t, env, 30, 20, "Wall", 5)
	// The left half is water; rooms may only sit over walls.
	for y := 0; y < 20; y++ {
		for x := 0; x < 15; x++ {
			paint(t, m, "Water", [2]int{x, y})
		}
	}
	s := mustStep(t, KindRoomsAndPaths, Source{
		AttrNumRooms:   "4",
		AttrRoomWidth:  "3",
		AttrRoomHeight: "3",
		AttrIfIsType:   "Wall",
	}, env).(*RoomsAndPaths)

	for _, r := range s.PlaceRooms(m) {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				if tl := m.At(x, y); tl != nil && tl.TypeName() != "Wall" {
					t.Fatalf("room %v covers %s at (%d,%d)", r, tl.TypeName(), x, y)
				}
			}
		}
	}
}

func TestRoomsAndPathsConnected(t *testing.T) {
	env, _ := testEnv(t)
	m := newMap(t, env, 40, 30, "Wall", 11)
	s := mustStep(t, KindRoomsAndPaths, Source{
		AttrNumRooms:           "5",
		AttrWallType:           "Wall",
		AttrFloorType:          "Floor",
		AttrPathStraightChance: "0~1",
	}, env).(*RoomsAndPaths)

	rooms := s.PlaceRooms(m)
	if len(rooms) < 2 {
		t.Fatalf("placed %d rooms, want at least 2", len(rooms))
	}
	for _, r := range rooms {
		s.stampRoom(m, r)
	}
	s.GeneratePaths(m, rooms)

	// Every room center is reachable on foot from the first one.
	c0 := Center(rooms[0])
	paint(t, m, "Door", [2]int{c0.X, c0.Y})
	df := mustStep(t, KindDistanceField, Source{AttrIfIsType: "Door"}, env).(*DistanceField)
	dist := df.Distances(m)
	for i, r := range rooms {
		c := Center(r)
		if dist[m.Index(c.X, c.Y)] == Unreached {
			t.Errorf("room %d center %v unreachable", i, c)
		}
	}
}

func TestRoomsStampWallsAndFloors(t *testing.T) {
	env, _ := testEnv(t)
	m := newMap(t, env, 12, 12, "Grass", 1)
	s := mustStep(t, KindRoomsAndPaths, Source{
		AttrWallType:  "Wall",
		AttrFloorType: "Floor",
	}, env).(*RoomsAndPaths)

	r := image.Rect(2, 2, 7, 6)
	s.stampRoom(m, r)

	if got := m.Count("Floor"); got != 3*2 {
		t.Errorf("Floor count = %d, want 6", got)
	}
	if got := m.Count("Wall"); got != 5*4-6 {
		t.Errorf("Wall count = %d, want 14", got)
	}
}

func TestRoomPlacementExhaustedWarns(t *testing.T) {
	env, logs := testEnv(t)
	m := newMap(t, env, 20, 20, "Wall", 1)
	s := mustStep(t, KindRoomsAndPaths, Source{
		AttrNumRooms:  "2",
		AttrIfIsType:  "Water",
		AttrFloorType: "Floor",
	}, env)
	Run(s, m)

	if got := m.Count("Floor"); got != 0 {
		t.Errorf("Floor count = %d, want 0", got)
	}
	if n := strings.Count(logs.String(), "room placement retries exhausted"); n != 2 {
		t.Errorf("warnings = %d, want 2\n%s", n, logs.String())
	}
}

func TestPathTypeDefaultsToFloor(t *testing.T) {
	env, _ := testEnv(t)
	s := mustStep(t, KindRoomsAndPaths, Source{AttrFloorType: "Floor"}, env).(*RoomsAndPaths)
	if got := s.pathType(); got == nil || got.Name != "Floor" {
		t.Errorf("pathType() = %v, want Floor", got)
	}
	s2 := mustStep(t, KindRoomsAndPaths, Source{AttrFloorType: "Floor", AttrPathType: "Door"}, env).(*RoomsAndPaths)
	if got := s2.pathType(); got.Name != "Door" {
		t.Errorf("pathType() = %v, want Door", got.Name)
	}
}
