package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tansive/tansive-inventory/internal/common/uuid"
)

type EventKind string

const (
	EventIndex                           EventKind = "INDEX"
	EventVulnerabilityAnalysis           EventKind = "VULNERABILITY_ANALYSIS"
	EventNewVulnerableDependencyAnalysis EventKind = "NEW_VULNERABLE_DEPENDENCY_ANALYSIS"
	EventPolicyEvaluation                EventKind = "POLICY_EVALUATION"
	EventRepositoryMetaAnalysis          EventKind = "REPOSITORY_META_ANALYSIS"
)

type IndexAction string

const (
	IndexCreate IndexAction = "CREATE"
	IndexUpdate IndexAction = "UPDATE"
	IndexDelete IndexAction = "DELETE"
)

type EntityType string

const (
	EntityProject   EntityType = "project"
	EntityComponent EntityType = "component"
	EntityService   EntityType = "service"
)

// Event is a work item for a downstream subsystem. OnSuccess lists the
// work items the consumer should run once this one succeeds.
type Event struct {
	Kind        EventKind   `json:"kind"`
	ChainID     uuid.UUID   `json:"chainId"`
	ProjectUUID uuid.UUID   `json:"projectUuid"`
	Action      IndexAction `json:"action,omitempty"`
	EntityType  EntityType  `json:"entityType,omitempty"`
	EntityUUID  *uuid.UUID  `json:"entityUuid,omitempty"`
	Components  []uuid.UUID `json:"components,omitempty"`
	OnSuccess   []Event     `json:"onSuccess,omitempty"`
}

// Topic is the event bus topic the event is published on.
func (e Event) Topic() string {
	return "event." + strings.ToLower(string(e.Kind))
}

func indexEvent(chain, project uuid.UUID, action IndexAction, entity EntityType, entityUUID uuid.UUID) Event {
	return Event{
		Kind:        EventIndex,
		ChainID:     chain,
		ProjectUUID: project,
		Action:      action,
		EntityType:  entity,
		EntityUUID:  &entityUUID,
	}
}

type NotificationGroup string

const (
	NotificationBomConsumed         NotificationGroup = "BOM_CONSUMED"
	NotificationBomProcessed        NotificationGroup = "BOM_PROCESSED"
	NotificationBomProcessingFailed NotificationGroup = "BOM_PROCESSING_FAILED"
)

const (
	ScopePortfolio     = "PORTFOLIO"
	LevelInformational = "INFORMATIONAL"
	LevelError         = "ERROR"
)

type Notification struct {
	Group       NotificationGroup `json:"group"`
	Scope       string            `json:"scope"`
	Level       string            `json:"level"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	Timestamp   time.Time         `json:"timestamp"`
	ProjectUUID uuid.UUID         `json:"projectUuid"`
	Token       uuid.UUID         `json:"token"`
	Format      string            `json:"format,omitempty"`
	SpecVersion string            `json:"specVersion,omitempty"`
	Cause       string            `json:"cause,omitempty"`
}

func (n Notification) Topic() string {
	return "notification." + strings.ToLower(string(n.Group))
}

// Dispatcher hands work items to downstream subsystems. Dispatch must not block.
type Dispatcher interface {
	Dispatch(ctx context.Context, e Event)
}

// Notifier delivers user facing notifications. Notify must not block.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Outbox holds the work items of an import until its transaction commits.
type Outbox struct {
	events []Event
}

func (o *Outbox) Add(e Event) {
	o.events = append(o.events, e)
}

func (o *Outbox) Events() []Event {
	return o.events
}

func (o *Outbox) Len() int {
	return len(o.events)
}

// Fire dispatches the queued work items in order and empties the outbox.
func (o *Outbox) Fire(ctx context.Context, d Dispatcher) {
	events := o.events
	o.events = nil
	for _, e := range events {
		d.Dispatch(ctx, e)
	}
	log.Ctx(ctx).Debug().Int("events", len(events)).Msg("dispatched work items")
}

// Publisher is the publish side of the event bus.
type Publisher interface {
	Publish(topic string, data any, timeout time.Duration)
}

// BusSink dispatches events and notifications on an event bus.
type BusSink struct {
	bus     Publisher
	timeout time.Duration
}

var (
	_ Dispatcher = (*BusSink)(nil)
	_ Notifier   = (*BusSink)(nil)
)

// NewBusSink publishes on bus, waiting at most timeout for each slow
// subscriber before dropping the message for it.
func NewBusSink(bus Publisher, timeout time.Duration) *BusSink {
	return &BusSink{bus: bus, timeout: timeout}
}

func (s *BusSink) Dispatch(ctx context.Context, e Event) {
	s.bus.Publish(e.Topic(), e, s.timeout)
}

func (s *BusSink) Notify(ctx context.Context, n Notification) {
	s.bus.Publish(n.Topic(), n, s.timeout)
}
