// Package engine exposes the weather-safety and reschedule operations used by the
// HTTP API and the sweeper.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"flightwx/internal/errs"
	"flightwx/internal/logger"
	"flightwx/internal/notify"
	"flightwx/internal/observability"
	"flightwx/internal/reschedule"
	"flightwx/internal/safety"
	"flightwx/internal/store"
	"flightwx/internal/weather"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Repository is the persistence the engine needs.
type Repository interface {
	reschedule.Repository
	GetFlightDetails(ctx context.Context, id uuid.UUID) (*store.FlightDetails, error)
	CreateWeatherCheck(ctx context.Context, tx store.Tx, check *store.WeatherCheck) error
	GetLatestWeatherCheck(ctx context.Context, flightID uuid.UUID) (*store.WeatherCheck, error)
	ListWeatherChecks(ctx context.Context, flightID uuid.UUID, limit int) ([]store.WeatherCheck, error)
}

// WeatherFetcher fetches a reading using a named primary source, or the configured
// default when primary is empty. *weather.Adapter implements it.
type WeatherFetcher interface {
	FetchWith(ctx context.Context, primary, airport string) (*weather.Reading, error)
}

// Deps are the collaborators of an Engine. Metrics may be nil.
type Deps struct {
	Repo      Repository
	Weather   WeatherFetcher
	Generator reschedule.Generator
	Notifier  notify.Notifier
	Composer  *notify.Composer
	Metrics   *observability.Instruments
	Logger    *slog.Logger
	TTL       time.Duration
}

type Engine struct {
	repo      Repository
	weather   WeatherFetcher
	generator reschedule.Generator
	workflow  *reschedule.Workflow
	notifier  notify.Notifier
	composer  *notify.Composer
	metrics   *observability.Instruments
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

func New(d Deps) (*Engine, error) {
	switch {
	case d.Repo == nil:
		return nil, errors.New("engine: repository is required")
	case d.Weather == nil:
		return nil, errors.New("engine: weather fetcher is required")
	case d.Generator == nil:
		return nil, errors.New("engine: suggestion generator is required")
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Notifier == nil {
		d.Notifier = notify.NewLogNotifier(d.Logger)
	}
	if d.Composer == nil {
		d.Composer = notify.NewComposer("")
	}

	return &Engine{
		repo:      d.Repo,
		weather:   d.Weather,
		generator: d.Generator,
		workflow:  reschedule.NewWorkflow(d.Repo, d.TTL),
		notifier:  d.Notifier,
		composer:  d.Composer,
		metrics:   d.Metrics,
		logger:    d.Logger,
		tracer:    observability.Tracer(),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// CheckResult is the outcome of one weather check.
type CheckResult struct {
	CheckID      uuid.UUID
	Reading      weather.Reading
	Verdict      safety.Verdict
	FlightStatus store.FlightStatus
	// Cancelled is true when this check moved the flight to WEATHER_CANCELLED.
	Cancelled bool
}

func (e *Engine) details(ctx context.Context, op string, flightID uuid.UUID) (*store.FlightDetails, error) {
	d, err := e.repo.GetFlightDetails(ctx, flightID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errs.NotFound(op, "flight %s not found", flightID)
		}
		return nil, fmt.Errorf("%s: failed to load flight %s: %w", op, flightID, err)
	}
	return d, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// CheckWeatherForFlight fetches and evaluates current weather at the flight's departure
// airport and appends a WeatherCheck. An unsafe verdict cancels a SCHEDULED flight in
// the same transaction; flights in any other state keep their status.
func (e *Engine) CheckWeatherForFlight(ctx context.Context, flightID uuid.UUID) (res *CheckResult, err error) {
	const op = "check weather"

	ctx, span := e.tracer.Start(ctx, "engine.check_weather",
		trace.WithAttributes(attribute.String("flight.id", flightID.String())))
	defer func() { endSpan(span, err) }()

	d, err := e.details(ctx, op, flightID)
	if err != nil {
		return nil, err
	}
	return e.CheckFlight(ctx, d)
}

// CheckFlight is CheckWeatherForFlight for a flight whose details are already loaded.
func (e *Engine) CheckFlight(ctx context.Context, d *store.FlightDetails) (*CheckResult, error) {
	const op = "check weather"

	reading, err := e.weather.FetchWith(ctx, d.School.WeatherProvider, d.Flight.DepartureAirport)
	if err != nil {
		return nil, err
	}

	verdict, err := safety.Evaluate(*reading, d.Student.TrainingLevel)
	if err != nil {
		return nil, err
	}

	check := &store.WeatherCheck{
		ID:                 uuid.New(),
		FlightID:           d.Flight.ID,
		CheckTime:          e.now(),
		Location:           d.Flight.DepartureAirport,
		Visibility:         reading.Visibility,
		Ceiling:            reading.Ceiling,
		WindSpeed:          reading.WindSpeed,
		Conditions:         reading.Conditions,
		Result:             verdict.Result(),
		Reasons:            verdict.Reasons,
		Provider:           reading.Provider,
		RawData:            reading.Raw,
		TrainingLevel:      d.Student.TrainingLevel,
		RequiredVisibility: verdict.Minimums.Visibility,
		RequiredCeiling:    verdict.Minimums.Ceiling,
		MaxWindSpeed:       verdict.Minimums.MaxWind,
	}

	tx, err := e.repo.BeginTx(ctx)
	if err != nil {
		return nil, errs.Transaction(op, err)
	}
	defer tx.Rollback()

	if err := e.repo.CreateWeatherCheck(ctx, tx, check); err != nil {
		return nil, errs.Transaction(op, err)
	}

	status := d.Flight.Status
	cancelled := false
	if !verdict.Safe {
		cancelled, err = e.repo.TransitionFlight(ctx, tx, d.Flight.ID, store.FlightStatusScheduled, store.FlightStatusWeatherCancelled)
		if err != nil {
			return nil, errs.Transaction(op, err)
		}
		if cancelled {
			status = store.FlightStatusWeatherCancelled
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errs.Transaction(op, err)
	}

	e.metrics.WeatherCheck(ctx, reading.Provider, string(check.Result))
	if cancelled {
		e.metrics.FlightCancelled(ctx)
	}

	logger.FromContext(ctx, e.logger).Info("weather check recorded",
		"flight_id", d.Flight.ID,
		"airport", d.Flight.DepartureAirport,
		"provider", reading.Provider,
		"result", check.Result,
		"cancelled", cancelled,
	)

	return &CheckResult{
		CheckID:      check.ID,
		Reading:      *reading,
		Verdict:      verdict,
		FlightStatus: status,
		Cancelled:    cancelled,
	}, nil
}

// BriefingHistory is how many past checks a briefing carries.
const BriefingHistory = 5

// Briefing is a current-conditions report for a flight. It is never persisted.
type Briefing struct {
	Flight  store.FlightDetails
	Reading weather.Reading
	Verdict safety.Verdict
	// History holds the most recent recorded checks, newest first.
	History []store.WeatherCheck
}

// WeatherBriefing fetches and evaluates current weather for a flight without
// recording a check or touching the flight's status.
func (e *Engine) WeatherBriefing(ctx context.Context, flightID uuid.UUID) (b *Briefing, err error) {
	const op = "weather briefing"

	ctx, span := e.tracer.Start(ctx, "engine.weather_briefing",
		trace.WithAttributes(attribute.String("flight.id", flightID.String())))
	defer func() { endSpan(span, err) }()

	d, err := e.details(ctx, op, flightID)
	if err != nil {
		return nil, err
	}

	reading, err := e.weather.FetchWith(ctx, d.School.WeatherProvider, d.Flight.DepartureAirport)
	if err != nil {
		return nil, err
	}
	verdict, err := safety.Evaluate(*reading, d.Student.TrainingLevel)
	if err != nil {
		return nil, err
	}

	history, err := e.repo.ListWeatherChecks(ctx, flightID, BriefingHistory)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list checks for flight %s: %w", op, flightID, err)
	}

	return &Briefing{
		Flight:  *d,
		Reading: *reading,
		Verdict: verdict,
		History: history,
	}, nil
}

// GenerateRescheduleOptions asks the generator for three candidates for a flight and
// opens a request with them. The weather cause comes from the flight's latest check.
func (e *Engine) GenerateRescheduleOptions(ctx context.Context, flightID uuid.UUID) (req *store.RescheduleRequest, err error) {
	const op = "generate reschedule options"

	ctx, span := e.tracer.Start(ctx, "engine.generate_options",
		trace.WithAttributes(attribute.String("flight.id", flightID.String())))
	defer func() { endSpan(span, err) }()

	d, err := e.details(ctx, op, flightID)
	if err != nil {
		return nil, err
	}

	var reasons []string
	latest, err := e.repo.GetLatestWeatherCheck(ctx, flightID)
	switch {
	case err == nil:
		reasons = latest.Reasons
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("%s: failed to load latest weather check: %w", op, err)
	}

	return e.generate(ctx, d, reasons)
}

func (e *Engine) generate(ctx context.Context, d *store.FlightDetails, reasons []string) (*store.RescheduleRequest, error) {
	raw, err := e.generator.Generate(ctx, reschedule.BuildContext(*d, reasons))
	if err != nil {
		e.metrics.RescheduleRequest(ctx, "generation_failed")
		return nil, err
	}

	candidates, err := reschedule.Validate(raw)
	if err != nil {
		e.metrics.RescheduleRequest(ctx, "generation_failed")
		return nil, err
	}

	req, err := e.workflow.Create(ctx, d.Flight, candidates)
	if err != nil {
		return nil, err
	}
	e.metrics.RescheduleRequest(ctx, "created")
	e.metrics.Transition(ctx, string(store.RescheduleStatusPendingStudent), 1)

	msg, err := e.composer.Options(*d, req)
	e.send(ctx, "options", msg, err)

	return req, nil
}

// HandleUnsafe runs the follow-up for a flight a check just cancelled: the cancellation
// notice, then option generation and the options notice.
func (e *Engine) HandleUnsafe(ctx context.Context, d *store.FlightDetails, reasons []string) (*store.RescheduleRequest, error) {
	msg, err := e.composer.Cancellation(*d, reasons)
	e.send(ctx, "cancellation", msg, err)

	return e.generate(ctx, d, reasons)
}

// SelectRescheduleOption records the student's choice and notifies the instructor.
func (e *Engine) SelectRescheduleOption(ctx context.Context, requestID uuid.UUID, index int) (req *store.RescheduleRequest, err error) {
	ctx, span := e.tracer.Start(ctx, "engine.select_option",
		trace.WithAttributes(attribute.String("request.id", requestID.String()), attribute.Int("option", index)))
	defer func() { endSpan(span, err) }()

	req, err = e.workflow.Select(ctx, requestID, index)
	if err != nil {
		if errs.Is(err, errs.KindExpired) {
			e.metrics.Transition(ctx, string(store.RescheduleStatusExpired), 1)
		}
		return nil, err
	}
	e.metrics.Transition(ctx, string(req.Status), 1)

	if d, derr := e.repo.GetFlightDetails(ctx, req.FlightID); derr == nil {
		msg, merr := e.composer.ApprovalRequest(*d, req)
		e.send(ctx, "approval request", msg, merr)
	} else {
		logger.FromContext(ctx, e.logger).Error("failed to load flight for notification", "flight_id", req.FlightID, "error", derr)
	}

	return req, nil
}

// ApproveReschedule applies the instructor's decision and notifies the parties.
func (e *Engine) ApproveReschedule(ctx context.Context, requestID uuid.UUID, approved bool) (res *reschedule.Approval, err error) {
	ctx, span := e.tracer.Start(ctx, "engine.approve",
		trace.WithAttributes(attribute.String("request.id", requestID.String()), attribute.Bool("approved", approved)))
	defer func() { endSpan(span, err) }()

	res, err = e.workflow.Approve(ctx, requestID, approved)
	if err != nil {
		if errs.Is(err, errs.KindExpired) {
			e.metrics.Transition(ctx, string(store.RescheduleStatusExpired), 1)
		}
		return nil, err
	}
	e.metrics.Transition(ctx, string(res.Request.Status), 1)

	d, derr := e.repo.GetFlightDetails(ctx, res.Request.FlightID)
	if derr != nil {
		logger.FromContext(ctx, e.logger).Error("failed to load flight for notification", "flight_id", res.Request.FlightID, "error", derr)
		return res, nil
	}

	if res.NewFlight == nil {
		msg, merr := e.composer.Rejection(*d)
		e.send(ctx, "rejection", msg, merr)
		return res, nil
	}

	msgs, merr := e.composer.Confirmations(*d, *res.NewFlight)
	if merr != nil {
		e.send(ctx, "confirmation", notify.Message{}, merr)
	}
	for _, msg := range msgs {
		e.send(ctx, "confirmation", msg, nil)
	}
	return res, nil
}

// ReapExpired moves every lapsed pending request to EXPIRED.
func (e *Engine) ReapExpired(ctx context.Context) (int64, error) {
	n, err := e.repo.ExpireRescheduleRequests(ctx, nil, nil, e.now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire reschedule requests: %w", err)
	}
	e.metrics.Transition(ctx, string(store.RescheduleStatusExpired), n)
	return n, nil
}

// send delivers a composed notice. Failures are logged and dropped.
func (e *Engine) send(ctx context.Context, kind string, msg notify.Message, composeErr error) {
	log := logger.FromContext(ctx, e.logger)
	if composeErr != nil {
		log.Error("failed to compose notification", "kind", kind, "error", composeErr)
		return
	}
	if len(msg.To) == 0 {
		log.Warn("notification has no recipients", "kind", kind, "subject", msg.Subject)
		return
	}
	if err := e.notifier.Send(ctx, msg); err != nil {
		log.Error("failed to send notification", "kind", kind, "to", msg.To, "error", err)
	}
}
