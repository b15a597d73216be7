package repository

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/matchsim/internal/domain/model"
	"github.com/okian/matchsim/pkg/metrics"
)

// Treap-based, in-memory premiership ladder.
//
// Ordering: premiership points DESC, then percentage DESC, then team id ASC
// (deterministic). "less" means "sits higher on the ladder", so an in-order
// traversal yields the ladder from top to bottom.

// Default premiership points.
const (
	defaultWinPoints  = 4
	defaultDrawPoints = 2
)

// percentageScale keeps six decimal places of percentage in fixed point.
const percentageScale = 1_000_000

type percentFP int64

// percentage returns points for over points against, times 100. Points
// against is floored at one so an unscored-upon team still sorts sensibly.
func percentage(pointsFor, pointsAgainst int) percentFP {
	against := int64(pointsAgainst)
	if against < 1 {
		against = 1
	}
	return percentFP(int64(pointsFor) * 100 * percentageScale / against)
}

func (p percentFP) float() float64 {
	return math.Round(float64(p)/percentageScale*100) / 100
}

type key struct {
	points  int
	percent percentFP
	team    model.TeamID
}

// less returns true if a should appear above b on the ladder.
func less(a, b key) bool {
	if a.points != b.points {
		return a.points > b.points
	}
	if a.percent != b.percent {
		return a.percent > b.percent
	}
	return a.team < b.team
}

// record is the running tally for one team.
type record struct {
	played, wins, losses, draws int
	pointsFor, pointsAgainst    int
	premiershipPoints           int
}

func (r record) key(team model.TeamID) key {
	return key{points: r.premiershipPoints, percent: percentage(r.pointsFor, r.pointsAgainst), team: team}
}

func (r record) standing(team model.TeamID, position int) Standing {
	return Standing{
		Position:          position,
		TeamID:            team,
		Played:            r.played,
		Wins:              r.wins,
		Losses:            r.losses,
		Draws:             r.draws,
		PointsFor:         r.pointsFor,
		PointsAgainst:     r.pointsAgainst,
		Percentage:        percentage(r.pointsFor, r.pointsAgainst).float(),
		PremiershipPoints: r.premiershipPoints,
	}
}

// treap node
type node struct {
	k     key
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// teamPriority hashes the team id so the heap shape does not depend on
// insertion order.
func teamPriority(team model.TeamID) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(team))
	return xxhash.Sum64(b[:])
}

func insert(n *node, k key) *node {
	if n == nil {
		return &node{k: k, prio: teamPriority(k.team), size: 1}
	}
	if less(k, n.k) {
		n.left = insert(n.left, k)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, k)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, k key) *node {
	if n == nil {
		return nil
	}
	if k == n.k {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, k)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, k)
		}
	} else if less(k, n.k) {
		n.left = deleteNode(n.left, k)
	} else {
		n.right = deleteNode(n.right, k)
	}
	fix(n)
	return n
}

// position returns the 1-based ladder position of k in O(log n).
func position(n *node, k key) int {
	pos := 0
	for n != nil {
		switch {
		case k == n.k:
			return pos + nsize(n.left) + 1
		case less(k, n.k):
			n = n.left
		default:
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

// collectTop appends up to limit keys in ladder order.
func collectTop(n *node, limit int, out *[]key) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTop(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.k)
	}
	if len(*out) < limit {
		collectTop(n.right, limit, out)
	}
}

// TreapLadder is an in-memory Ladder.
type TreapLadder struct {
	mu      sync.RWMutex
	root    *node
	byTeam  map[model.TeamID]record
	applied map[string]struct{}

	winPoints  int
	drawPoints int
}

// NewTreapLadder constructs an empty ladder with configuration options.
func NewTreapLadder(opts ...LadderOption) *TreapLadder {
	l := &TreapLadder{
		byTeam:     make(map[model.TeamID]record),
		applied:    make(map[string]struct{}),
		winPoints:  defaultWinPoints,
		drawPoints: defaultDrawPoints,
	}
	for _, opt := range opts {
		opt(l)
	}
	metrics.UpdateLadderTeams(0)
	return l
}

// Record applies a final result to both teams in O(log n) expected time.
func (l *TreapLadder) Record(_ context.Context, res model.MatchResult) (bool, error) { //nolint:gocritic // hugeParam: results are values throughout the service
	start := time.Now()
	defer func() {
		metrics.RecordLadderUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if res.MatchID == "" || res.HomeTeamID == res.AwayTeamID {
		metrics.RecordErrorByComponent("ladder", "invalid_result")
		return false, fmt.Errorf("match %q: %w", res.MatchID, ErrInvalidResult)
	}

	l.mu.Lock()
	if _, ok := l.applied[res.MatchID]; ok {
		l.mu.Unlock()
		return false, nil
	}
	l.applied[res.MatchID] = struct{}{}

	home, away := res.Home.Points(), res.Away.Points()
	l.apply(res.HomeTeamID, home, away)
	l.apply(res.AwayTeamID, away, home)
	teams := len(l.byTeam)
	l.mu.Unlock()

	metrics.UpdateLadderTeams(teams)
	return true, nil
}

// apply updates one team's tally and re-keys it. Callers hold the write lock.
func (l *TreapLadder) apply(team model.TeamID, scored, conceded int) {
	old, ok := l.byTeam[team]
	if ok {
		l.root = deleteNode(l.root, old.key(team))
	}

	r := old
	r.played++
	r.pointsFor += scored
	r.pointsAgainst += conceded
	switch {
	case scored > conceded:
		r.wins++
		r.premiershipPoints += l.winPoints
	case scored < conceded:
		r.losses++
	default:
		r.draws++
		r.premiershipPoints += l.drawPoints
	}

	l.byTeam[team] = r
	l.root = insert(l.root, r.key(team))
}

// Standing returns a team's current ladder position and tally.
func (l *TreapLadder) Standing(_ context.Context, team model.TeamID) (Standing, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	r, ok := l.byTeam[team]
	if !ok {
		metrics.RecordErrorByComponent("ladder", "not_found")
		return Standing{}, fmt.Errorf("team %d: %w", team, ErrNotFound)
	}
	return r.standing(team, position(l.root, r.key(team))), nil
}

// Top returns the first n ladder positions.
func (l *TreapLadder) Top(_ context.Context, n int) ([]Standing, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("ladder", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]key, 0, min(n, len(l.byTeam)))
	collectTop(l.root, n, &keys)

	out := make([]Standing, len(keys))
	for i, k := range keys {
		out[i] = l.byTeam[k.team].standing(k.team, i+1)
	}
	return out, nil
}

// Count returns the number of teams on the ladder.
func (l *TreapLadder) Count(_ context.Context) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byTeam)
}
