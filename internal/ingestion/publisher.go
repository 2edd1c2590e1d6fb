package ingestion

import (
	"LandLedger/internal/core"
	"LandLedger/internal/event"
	"LandLedger/internal/observability"
	"LandLedger/internal/store"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

// ChangeSubjectPrefix is followed by the record kind, e.g. land.changes.Land.
const ChangeSubjectPrefix = "land.changes."

// changeNamespace scopes the deterministic message ids.
var changeNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("landledger/changes"))

// MsgPublisher is the subset of jetstream.JetStream the publisher needs.
type MsgPublisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// ChangeMessage is the outbound notification for one committed record write.
type ChangeMessage struct {
	Kind      string          `json:"kind"`
	ID        string          `json:"id"`
	Op        string          `json:"op"`
	Doc       json.RawMessage `json:"doc,omitempty"`
	Position  event.Position  `json:"position"`
	EventType string          `json:"event_type"`
	EventKey  string          `json:"event_key"`
	ChainHash string          `json:"chain_hash"`
}

// ChangePublisher fans committed changesets out to NATS, one message per
// record. Outputs arrive only after the commit, so a message never
// describes uncommitted state. Message ids are derived from the chain hash,
// letting JetStream drop duplicates after a restart.
type ChangePublisher struct {
	js      MsgPublisher
	input   <-chan core.Output
	logger  zerolog.Logger
	metrics *observability.Metrics
}

func NewChangePublisher(js MsgPublisher, input <-chan core.Output, logger zerolog.Logger, metrics *observability.Metrics) *ChangePublisher {
	return &ChangePublisher{
		js:      js,
		input:   input,
		logger:  logger.With().Str("component", "change_publisher").Logger(),
		metrics: metrics,
	}
}

// Run publishes until ctx is canceled or the input is closed.
func (p *ChangePublisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out, ok := <-p.input:
			if !ok {
				return nil
			}
			for _, msg := range ChangeMessages(out) {
				if err := p.publish(ctx, msg); err != nil {
					// Non-fatal: consumers can rebuild from the store.
					p.logger.Warn().Err(err).Str("subject", msg.Subject).Msg("publish failed")
					if p.metrics != nil {
						p.metrics.PublishErrors.Inc()
					}
				}
			}
		}
	}
}

func (p *ChangePublisher) publish(ctx context.Context, msg *nats.Msg) error {
	_, err := p.js.PublishMsg(ctx, msg)
	return err
}

// ChangeMessages builds the NATS messages for one committed event.
func ChangeMessages(out core.Output) []*nats.Msg {
	cp := out.Checkpoint
	msgs := make([]*nats.Msg, 0, len(out.Changes))
	for _, c := range out.Changes {
		body := ChangeMessage{
			Kind:      string(c.Kind),
			ID:        c.ID,
			Op:        c.Op.String(),
			Doc:       c.Doc,
			Position:  cp.Position,
			EventType: cp.EventType,
			EventKey:  cp.IdempotencyKey,
			ChainHash: cp.ChainHash,
		}
		data, err := json.Marshal(body)
		if err != nil {
			// Doc is already valid JSON; this cannot fail.
			panic(fmt.Sprintf("marshal change message: %v", err))
		}

		msg := nats.NewMsg(ChangeSubjectPrefix + string(c.Kind))
		msg.Data = data
		msg.Header.Set(nats.MsgIdHdr, ChangeMessageID(cp.ChainHash, c))
		msgs = append(msgs, msg)
	}
	return msgs
}

// ChangeMessageID is stable for a given change at a given chain position.
func ChangeMessageID(chainHash string, c store.Change) string {
	name := chainHash + "/" + string(c.Kind) + "/" + c.ID
	return uuid.NewSHA1(changeNamespace, []byte(name)).String()
}

// EnsureChangeStream creates the outbound changes stream.
func EnsureChangeStream(ctx context.Context, js jetstream.JetStream, logger zerolog.Logger) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       "LAND_CHANGES",
		Subjects:   []string{ChangeSubjectPrefix + ">"},
		Storage:    jetstream.FileStorage,
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     72 * time.Hour,
		Duplicates: 10 * time.Minute,
		Replicas:   1,
	})
	if err != nil {
		return fmt.Errorf("create change stream: %w", err)
	}
	logger.Info().Str("stream", "LAND_CHANGES").Msg("ensured change stream")
	return nil
}
