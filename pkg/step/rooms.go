package step

import (
	"image"
	"math"

	"github.com/ddurio/ProMage2-sub001/pkg/ranges"
	"github.com/ddurio/ProMage2-sub001/pkg/tile"
	"github.com/ddurio/ProMage2-sub001/pkg/tilemap"
)

// KindRoomsAndPaths carves rectangular rooms joined by corridors.
const KindRoomsAndPaths = "RoomsAndPaths"

// RoomsAndPaths attribute names.
const (
	AttrNumRooms           = "numRooms"
	AttrRoomWidth          = "roomWidth"
	AttrRoomHeight         = "roomHeight"
	AttrNumOverlaps        = "numOverlaps"
	AttrWallType           = "wallType"
	AttrFloorType          = "floorType"
	AttrPathType           = "pathType"
	AttrLoop               = "loop"
	AttrPathStraightChance = "pathStraightChance"
)

// MaxRoomAttempts bounds the placement retries for a single room.
const MaxRoomAttempts = 1000

func init() {
	Register(KindRoomsAndPaths, func(b *Base) Step {
		s := &RoomsAndPaths{Base: b}
		b.IntRange(AttrNumRooms, "5", &s.NumRooms)
		b.IntRange(AttrRoomWidth, "3~8", &s.RoomWidth)
		b.IntRange(AttrRoomHeight, "3~8", &s.RoomHeight)
		b.IntRange(AttrNumOverlaps, "0", &s.NumOverlaps)
		b.TileType(AttrWallType, "", &s.WallType)
		b.TileType(AttrFloorType, "", &s.FloorType)
		b.TileType(AttrPathType, "", &s.PathType)
		b.Bool(AttrLoop, "false", &s.Loop)
		b.FloatRange(AttrPathStraightChance, "0.5", &s.PathStraightChance)
		return s
	})
}

// RoomsAndPaths places up to NumRooms rectangular rooms and connects their
// centers in placement order with corridors.
//
// Room sizes exclude the wall ring, which adds one tile on every side. A room
// is accepted only when every in-grid cell of its footprint is eligible and
// the overlaps it introduces fit in the remaining overlap budget, which is
// shared by all rooms of one run. A nil WallType, FloorType or PathType
// falls back to setType (PathType falls back to FloorType first).
type RoomsAndPaths struct {
	*Base
	NumRooms           ranges.Int
	RoomWidth          ranges.Int
	RoomHeight         ranges.Int
	NumOverlaps        ranges.Int
	WallType           *tile.Definition
	FloorType          *tile.Definition
	PathType           *tile.Definition
	Loop               bool
	PathStraightChance ranges.Float
}

// RunOnce places rooms, stamps them and carves the paths between them.
func (s *RoomsAndPaths) RunOnce(m *tilemap.Map) {
	rooms := s.PlaceRooms(m)
	for _, r := range rooms {
		s.stampRoom(m, r)
	}
	s.GeneratePaths(m, rooms)
}

// PlaceRooms picks room footprints (walls included) without mutating m.
func (s *RoomsAndPaths) PlaceRooms(m *tilemap.Map) []image.Rectangle {
	src := m.RNG()
	numRooms := s.NumRooms.Draw(src)
	budget := s.NumOverlaps.Draw(src)

	rooms := make([]image.Rectangle, 0, numRooms)
	for i := 0; i < numRooms; i++ {
		placed := false
		for attempt := 0; attempt < MaxRoomAttempts; attempt++ {
			w := s.RoomWidth.Draw(src) + 2
			h := s.RoomHeight.Draw(src) + 2
			ax, ay := src.Float(), src.Float()
			x0 := int(ax * float64(m.Width()-w))
			y0 := int(ay * float64(m.Height()-h))
			r := image.Rect(x0, y0, x0+w, y0+h)

			overlaps := 0
			for _, other := range rooms {
				if r.Overlaps(other) {
					overlaps++
				}
			}
			if overlaps > budget || !s.footprintValid(m, r) {
				continue
			}
			budget -= overlaps
			rooms = append(rooms, r)
			placed = true
			break
		}
		if !placed {
			s.Warn("room placement retries exhausted", "room", i, "attempts", MaxRoomAttempts)
		}
	}
	return rooms
}

// footprintValid checks every in-grid cell of r; cells off the grid are skipped.
func (s *RoomsAndPaths) footprintValid(m *tilemap.Map, r image.Rectangle) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			t := m.At(x, y)
			if t == nil {
				continue
			}
			if !s.IsTileValid(m, t) {
				return false
			}
		}
	}
	return true
}

func (s *RoomsAndPaths) stampRoom(m *tilemap.Map, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			t := m.At(x, y)
			if t == nil {
				continue
			}
			border := x == r.Min.X || y == r.Min.Y || x == r.Max.X-1 || y == r.Max.Y-1
			if border {
				s.ChangeTileAs(m, t, s.WallType)
			} else {
				s.ChangeTileAs(m, t, s.FloorType)
			}
		}
	}
}

func (s *RoomsAndPaths) pathType() *tile.Definition {
	if s.PathType != nil {
		return s.PathType
	}
	return s.FloorType
}

// Center returns the integer center of a room footprint.
func Center(r image.Rectangle) image.Point {
	return image.Pt((r.Min.X+r.Max.X-1)/2, (r.Min.Y+r.Max.Y-1)/2)
}

// GeneratePaths connects consecutive room centers (and the last back to the
// first when Loop is set). One straightness factor is drawn per call and
// shared by every segment: each jog covers that fraction of the remaining
// distance on an axis, at least one tile.
func (s *RoomsAndPaths) GeneratePaths(m *tilemap.Map, rooms []image.Rectangle) {
	if len(rooms) < 2 {
		return
	}
	src := m.RNG()
	straight := ranges.Float{Min: 0, Max: 1}.Clamp(s.PathStraightChance.Draw(src))

	centers := make([]image.Point, 0, len(rooms)+1)
	for _, r := range rooms {
		centers = append(centers, Center(r))
	}
	if s.Loop {
		centers = append(centers, centers[0])
	}

	typ := s.pathType()
	for i := 1; i < len(centers); i++ {
		s.carve(m, centers[i-1], centers[i], straight, typ)
	}
}

func (s *RoomsAndPaths) carve(m *tilemap.Map, from, to image.Point, straight float64, typ *tile.Definition) {
	src := m.RNG()
	cur := from
	s.stampPath(m, cur, typ)
	for cur != to {
		jx := jogLength(to.X-cur.X, straight)
		jy := jogLength(to.Y-cur.Y, straight)
		if src.CoinFlip() {
			cur = s.walk(m, cur, jx, 0, typ)
			cur = s.walk(m, cur, 0, jy, typ)
		} else {
			cur = s.walk(m, cur, 0, jy, typ)
			cur = s.walk(m, cur, jx, 0, typ)
		}
	}
}

// jogLength scales delta by straight, keeping at least one tile of movement
// toward the target when delta is nonzero.
func jogLength(delta int, straight float64) int {
	if delta == 0 {
		return 0
	}
	n := int(math.Round(float64(delta) * straight))
	if n == 0 {
		if delta > 0 {
			return 1
		}
		return -1
	}
	return n
}

func (s *RoomsAndPaths) walk(m *tilemap.Map, p image.Point, dx, dy int, typ *tile.Definition) image.Point {
	sx, sy := sign(dx), sign(dy)
	for dx != 0 || dy != 0 {
		p.X += sx
		p.Y += sy
		dx -= sx
		dy -= sy
		s.stampPath(m, p, typ)
	}
	return p
}

func (s *RoomsAndPaths) stampPath(m *tilemap.Map, p image.Point, typ *tile.Definition) {
	if t := m.At(p.X, p.Y); t != nil {
		s.ChangeTileAs(m, t, typ)
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
