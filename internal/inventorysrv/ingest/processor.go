// Package ingest merges uploaded BOMs into the persisted inventory of a
// project.
package ingest

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/tansive/tansive-inventory/internal/common/apperrors"
	"github.com/tansive/tansive-inventory/internal/common/logtrace"
	"github.com/tansive/tansive-inventory/internal/common/uuid"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/bom"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Import outcomes reported to the Recorder.
const (
	OutcomeProcessed = "processed"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// Recorder receives import measurements.
type Recorder interface {
	ImportFinished(outcome string, elapsed time.Duration)
	Reconciled(stats Stats)
}

type nopRecorder struct{}

func (nopRecorder) ImportFinished(string, time.Duration) {}
func (nopRecorder) Reconciled(Stats)                     {}

// Upload is one BOM submitted for a project.
type Upload struct {
	Token       uuid.UUID
	ProjectUUID uuid.UUID
	Data        []byte
}

// Result describes a committed import.
type Result struct {
	Format      bom.Format
	SpecVersion string
	Stats       Stats
	Events      int
}

type Processor struct {
	store      db.Store
	parser     *bom.Parser
	internal   *InternalMatcher
	dispatcher Dispatcher
	notifier   Notifier
	recorder   Recorder
	clock      func() time.Time
}

type Option func(*Processor)

func WithRecorder(r Recorder) Option {
	return func(p *Processor) {
		if r != nil {
			p.recorder = r
		}
	}
}

func WithInternalMatcher(m *InternalMatcher) Option {
	return func(p *Processor) {
		p.internal = m
	}
}

func WithClock(clock func() time.Time) Option {
	return func(p *Processor) {
		p.clock = clock
	}
}

func NewProcessor(store db.Store, parser *bom.Parser, d Dispatcher, n Notifier, opts ...Option) *Processor {
	p := &Processor{
		store:      store,
		parser:     parser,
		dispatcher: d,
		notifier:   n,
		recorder:   nopRecorder{},
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Accept reports whether the document would be processed. Rejected
// documents return an error wrapping bom.ErrRejected.
func (p *Processor) Accept(data []byte) apperrors.Error {
	_, err := p.parser.Accept(data)
	return err
}

// Process parses the upload and merges it into the project in a single
// transaction. Work items are dispatched only after the commit.
func (p *Processor) Process(ctx context.Context, u Upload) (*Result, error) {
	start := p.clock()
	ctx = logtrace.WithImportFields(ctx, logtrace.ImportFields{
		ProjectUUID: u.ProjectUUID.String(),
		UploadToken: u.Token.String(),
	})

	if _, err := p.parser.Accept(u.Data); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("bom rejected")
		p.recorder.ImportFinished(OutcomeRejected, p.clock().Sub(start))
		return nil, err
	}

	doc, perr := p.parser.Parse(ctx, u.Data)
	if perr != nil {
		log.Ctx(ctx).Error().Err(perr).Msg("unable to parse bom")
		p.fail(ctx, u, nil, perr, start)
		return nil, perr
	}
	ctx = logtrace.WithImportFields(ctx, logtrace.ImportFields{
		Format:       string(doc.Format),
		SpecVersion:  doc.SpecVersion,
		SerialNumber: doc.SerialNumber,
		BomVersion:   doc.Version,
	})

	pl := newPlan(u.Token, u.ProjectUUID, doc)
	log.Ctx(ctx).Info().
		Int("components", len(pl.components)).
		Int("services", len(pl.services)).
		Int("bom_refs", pl.index.Len()).
		Msg("bom consumed")
	p.notify(ctx, u, doc, NotificationBomConsumed, LevelInformational,
		"Bill of Materials Consumed", "A "+string(doc.Format)+" BOM was consumed and will be processed", "")

	var eng *engine
	err := p.store.RunInTransaction(ctx, func(ctx context.Context, tx db.Tx) error {
		if err := tx.LockProject(ctx, u.ProjectUUID); err != nil {
			return err
		}
		eng = newEngine(pl, tx, p.internal, p.clock().UTC())
		return eng.run(ctx)
	})
	if err != nil {
		if !errors.Is(err, ErrIngest) {
			err = ErrReconcile.Err(err)
		}
		log.Ctx(ctx).Error().Err(err).Msg("bom import failed")
		p.fail(ctx, u, doc, err, start)
		return nil, err
	}

	res := &Result{
		Format:      doc.Format,
		SpecVersion: doc.SpecVersion,
		Stats:       eng.stats,
		Events:      eng.outbox.Len(),
	}
	eng.outbox.Fire(ctx, p.dispatcher)
	p.notify(ctx, u, doc, NotificationBomProcessed, LevelInformational,
		"Bill of Materials Processed", "A "+string(doc.Format)+" BOM was processed", "")

	p.recorder.Reconciled(eng.stats)
	p.recorder.ImportFinished(OutcomeProcessed, p.clock().Sub(start))
	log.Ctx(ctx).Info().
		Int("created", eng.stats.ComponentsCreated).
		Int("updated", eng.stats.ComponentsUpdated).
		Int("deleted", eng.stats.ComponentsDeleted).
		Dur("elapsed", p.clock().Sub(start)).
		Msg("bom processed")
	return res, nil
}

func (p *Processor) fail(ctx context.Context, u Upload, doc *bom.Document, err error, start time.Time) {
	cause := err.Error()
	if ae, ok := err.(apperrors.Error); ok {
		cause = ae.ErrorAll()
	}
	p.notify(ctx, u, doc, NotificationBomProcessingFailed, LevelError,
		"Bill of Materials Processing Failed", "An error occurred while processing a BOM", cause)
	p.recorder.ImportFinished(OutcomeFailed, p.clock().Sub(start))
}

func (p *Processor) notify(ctx context.Context, u Upload, doc *bom.Document, group NotificationGroup, level, title, content, cause string) {
	n := Notification{
		Group:       group,
		Scope:       ScopePortfolio,
		Level:       level,
		Title:       title,
		Content:     content,
		Timestamp:   p.clock().UTC(),
		ProjectUUID: u.ProjectUUID,
		Token:       u.Token,
		Cause:       cause,
	}
	if doc != nil {
		n.Format = string(doc.Format)
		n.SpecVersion = doc.SpecVersion
	}
	p.notifier.Notify(ctx, n)
}
