// Package match drives a full match: four quarters of fixed ticks, each
// resolving the phase, then fatigue and rotation, then injury risk.
//
// Determinism:
// A match is a sequential fold over ticks. Given the same request and seed,
// every player trajectory, snapshot and result is identical. The engine reads
// no clock and no global randomness, and never modifies its inputs.
package match

import (
	"context"
	"fmt"

	"github.com/okian/matchsim/internal/domain/arena"
	"github.com/okian/matchsim/internal/domain/fatigue"
	"github.com/okian/matchsim/internal/domain/injury"
	"github.com/okian/matchsim/internal/domain/model"
	"github.com/okian/matchsim/internal/domain/phase"
	"github.com/okian/matchsim/internal/domain/rng"
	"github.com/okian/matchsim/internal/domain/state"
	"github.com/okian/matchsim/pkg/logger"
	"github.com/okian/matchsim/pkg/metrics"
)

// Quarters is the number of quarters in a match.
const Quarters = 4

// Request is everything needed to simulate one match.
type Request struct {
	MatchID    string
	Round      int
	HomeTeamID model.TeamID
	AwayTeamID model.TeamID

	Teams   *arena.Arena[model.TeamID, model.Team]
	Rosters *arena.Arena[model.TeamID, model.Roster]
	// Tactics by team. Missing or nil entries use neutral tactics.
	Tactics map[model.TeamID]*model.Tactics

	Weather model.Weather
	Ground  model.Ground

	// QuarterLengthSeconds is the length of every quarter.
	QuarterLengthSeconds int
	// QuarterLengths optionally overrides each quarter's length. When set it
	// must have four entries, each between zero and Tuning.MaxQuarterSeconds.
	QuarterLengths []int

	Seed int64
	// Tuning defaults to model.DefaultTuning when nil.
	Tuning *model.Tuning

	Sinks         []Sink
	InjuryHistory model.InjuryHistory
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// Engine simulates matches. It holds no per-match state and is safe for
// concurrent use; each Simulate call owns its own runtime.
type Engine struct {
	log logger.Logger
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{log: logger.GetOrNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Simulate validates req and plays the match to completion. Validation
// failures return before any tick. ctx carries logging values only; a
// started match always runs to the final siren.
func (e *Engine) Simulate(ctx context.Context, req Request) (model.MatchResult, error) {
	tuning := model.DefaultTuning()
	if req.Tuning != nil {
		tuning = *req.Tuning
	}
	setup, err := prepare(req, tuning)
	if err != nil {
		return model.MatchResult{}, err
	}

	log := e.log.With(logger.String("match_id", req.MatchID))
	log.Debug(ctx, "match started",
		logger.Int("round", req.Round),
		logger.Int("home", int(req.HomeTeamID)),
		logger.Int("away", int(req.AwayTeamID)),
		logger.Int64("seed", req.Seed),
	)

	r := newRun(req, tuning, setup, log)
	r.play(ctx)
	res := r.result()

	log.Debug(ctx, "match finished",
		logger.String("home", res.Home.String()),
		logger.String("away", res.Away.String()),
		logger.Int("ticks", res.Ticks),
		logger.Int("injuries", len(res.Injuries)),
	)
	return res, nil
}

// Validate reports whether req can be simulated, returning the error
// Simulate would fail with. It plays no ticks.
func Validate(req Request) error {
	tuning := model.DefaultTuning()
	if req.Tuning != nil {
		tuning = *req.Tuning
	}
	_, err := prepare(req, tuning)
	return err
}

type setup struct {
	home, away             model.Team
	homeRoster, awayRoster model.Roster
	lengths                [Quarters]int
}

func prepare(req Request, tuning model.Tuning) (setup, error) {
	var s setup
	if err := tuning.Validate(); err != nil {
		return s, err
	}
	if req.HomeTeamID == req.AwayTeamID {
		return s, fmt.Errorf("team %d: %w", req.HomeTeamID, ErrSelfPlay)
	}
	if req.QuarterLengthSeconds <= 0 || req.QuarterLengthSeconds > tuning.MaxQuarterSeconds {
		return s, fmt.Errorf("%d seconds, limit %d: %w", req.QuarterLengthSeconds, tuning.MaxQuarterSeconds, ErrInvalidQuarterLength)
	}
	for i := range s.lengths {
		s.lengths[i] = req.QuarterLengthSeconds
	}
	if len(req.QuarterLengths) > 0 {
		if len(req.QuarterLengths) != Quarters {
			return s, fmt.Errorf("%d quarter lengths given: %w", len(req.QuarterLengths), ErrInvalidQuarterLength)
		}
		for i, l := range req.QuarterLengths {
			if l < 0 || l > tuning.MaxQuarterSeconds {
				return s, fmt.Errorf("quarter %d is %d seconds, limit %d: %w", i+1, l, tuning.MaxQuarterSeconds, ErrInvalidQuarterLength)
			}
			s.lengths[i] = l
		}
	}

	var err error
	if s.home, err = req.Teams.Get(req.HomeTeamID); err != nil {
		return s, fmt.Errorf("home team: %w", err)
	}
	if s.away, err = req.Teams.Get(req.AwayTeamID); err != nil {
		return s, fmt.Errorf("away team: %w", err)
	}
	if s.homeRoster, err = req.Rosters.Get(req.HomeTeamID); err != nil {
		return s, fmt.Errorf("home roster: %w", err)
	}
	if s.awayRoster, err = req.Rosters.Get(req.AwayTeamID); err != nil {
		return s, fmt.Errorf("away roster: %w", err)
	}

	for _, tr := range []struct {
		id     model.TeamID
		roster model.Roster
	}{{req.HomeTeamID, s.homeRoster}, {req.AwayTeamID, s.awayRoster}} {
		if n := state.Available(tr.roster, req.InjuryHistory); n < tuning.OnFieldSize {
			return s, &InsufficientRosterError{TeamID: tr.id, Available: n, Required: tuning.OnFieldSize}
		}
	}
	return s, nil
}

// run is the mutable state of one match.
type run struct {
	req      Request
	tuning   model.Tuning
	log      logger.Logger
	src      *rng.Source
	machine  *phase.Machine
	rotation *fatigue.Rotation
	injuries *injury.Model
	lengths  [Quarters]int

	teams   [2]*state.Team
	score   [2]model.Score
	records []model.InjuryRecord
	ticks   int
}

func newRun(req Request, tuning model.Tuning, s setup, log logger.Logger) *run { //nolint:gocritic // hugeParam
	r := &run{
		req:      req,
		tuning:   tuning,
		log:      log,
		src:      rng.New(req.Seed),
		machine:  phase.New(req.Weather, tuning.MinStrength),
		rotation: fatigue.New(tuning, req.Ground),
		injuries: injury.New(tuning, req.MatchID, req.Round),
		lengths:  s.lengths,
	}
	r.teams[model.Home] = state.NewTeam(s.home, model.Home, s.homeRoster,
		model.ResolveTactics(req.Tactics[req.HomeTeamID], tuning.DefaultInterchanges), req.InjuryHistory, tuning.OnFieldSize)
	r.teams[model.Away] = state.NewTeam(s.away, model.Away, s.awayRoster,
		model.ResolveTactics(req.Tactics[req.AwayTeamID], tuning.DefaultInterchanges), req.InjuryHistory, tuning.OnFieldSize)
	return r
}

func (r *run) play(ctx context.Context) {
	for q := 1; q <= Quarters; q++ {
		length := r.lengths[q-1]
		r.startQuarter(q)

		for elapsed := 0; elapsed < length; {
			dt := min(r.tuning.TickSeconds, length-elapsed)
			r.tick(q, elapsed, dt, length)
			elapsed += dt
			if every := r.tuning.SnapshotEveryTicks; every > 0 && r.ticks%every == 0 {
				r.publish(ctx, r.snapshot(q, length-elapsed, false))
			}
		}
	}
	r.publish(ctx, r.snapshot(Quarters, 0, true))
}

// startQuarter applies the break recovery before every played quarter but
// the first, then restarts with a center bounce.
func (r *run) startQuarter(q int) {
	if q > 1 && r.lengths[q-1] > 0 {
		for _, t := range r.teams {
			t.RecoverBreak(r.tuning.QuarterBreakRecovery)
		}
	}
	r.machine.Reset()
	for _, t := range r.teams {
		t.StartQuarter()
	}
}

// tick resolves the phase on start-of-tick state, then fatigue and rotation
// for home and away, then injuries for home and away.
func (r *run) tick(quarter, elapsed, dt, length int) phase.Outcome {
	out := r.machine.Resolve(r.teams[model.Home], r.teams[model.Away], r.src, dt)
	switch out.Score {
	case phase.Goal:
		r.score[out.Scorer].Goals++
	case phase.Behind:
		r.score[out.Scorer].Behinds++
	case phase.NoScore:
	}

	for _, t := range r.teams {
		r.rotation.Step(t, out.Phase, dt, elapsed+dt, quarter, length)
	}
	clock := injury.Clock{Quarter: quarter, Second: elapsed + dt}
	for _, t := range r.teams {
		recs := r.injuries.Step(t, out.Phase, dt, r.src, len(r.records), r.tuning.MaxInjuries, clock)
		r.records = append(r.records, recs...)
	}
	r.ticks++
	return out
}

func (r *run) snapshot(quarter, remaining int, final bool) model.Snapshot {
	home, away := r.teams[model.Home], r.teams[model.Away]
	return model.Snapshot{
		MatchID:          r.req.MatchID,
		Tick:             r.ticks,
		Quarter:          quarter,
		TimeRemaining:    remaining,
		Phase:            r.machine.Phase(),
		HomeScore:        r.score[model.Home],
		AwayScore:        r.score[model.Away],
		HomeInterchanges: home.Interchanges,
		AwayInterchanges: away.Interchanges,
		HomeInjuries:     home.NewInjuries,
		AwayInjuries:     away.NewInjuries,
		HomeCondition:    home.AverageCondition(),
		AwayCondition:    away.AverageCondition(),
		Final:            final,
	}
}

func (r *run) publish(ctx context.Context, s model.Snapshot) {
	for i, sink := range r.req.Sinks {
		if sink == nil {
			continue
		}
		if err := safePublish(ctx, sink, s); err != nil {
			metrics.RecordSnapshotPublishError()
			r.log.Warn(ctx, "snapshot sink failed",
				logger.Int("sink", i),
				logger.Int("tick", s.Tick),
				logger.Error(err),
			)
			continue
		}
		metrics.RecordSnapshotPublished()
	}
}

func safePublish(ctx context.Context, sink Sink, s model.Snapshot) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("sink panic: %v", rec)
		}
	}()
	return sink.Publish(ctx, s)
}

func (r *run) result() model.MatchResult {
	home, away := r.teams[model.Home], r.teams[model.Away]
	winner, draw := model.Winner(home.Info.ID, away.Info.ID, r.score[model.Home], r.score[model.Away])

	players := append(home.PlayerSummaries(), away.PlayerSummaries()...)
	injuries := make([]model.InjuryRecord, len(r.records))
	copy(injuries, r.records)

	return model.MatchResult{
		MatchID:     r.req.MatchID,
		Round:       r.req.Round,
		HomeTeamID:  home.Info.ID,
		AwayTeamID:  away.Info.ID,
		Home:        r.score[model.Home],
		Away:        r.score[model.Away],
		Winner:      winner,
		IsDraw:      draw,
		Seed:        r.req.Seed,
		HomeSummary: home.Summary(),
		AwaySummary: away.Summary(),
		Players:     players,
		Injuries:    injuries,
		Ticks:       r.ticks,
	}
}
