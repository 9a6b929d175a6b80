package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/outage-insights-service/internal/domain"
)

// Output headers set on every enriched record.
const (
	HeaderZipCode     = "zip_code"
	HeaderArea        = "area"
	HeaderProcessedAt = "processed_at"
)

// ZipTransformer implements Transformer by resolving each outage's zip code.
type ZipTransformer struct {
	resolver *domain.ZipResolver
	registry *domain.ZipRegistry
	validate *validator.Validate
	logger   *slog.Logger
}

// NewTransformer creates a ZipTransformer.
func NewTransformer(resolver *domain.ZipResolver, registry *domain.ZipRegistry, logger *slog.Logger) *ZipTransformer {
	return &ZipTransformer{
		resolver: resolver,
		registry: registry,
		validate: validator.New(),
		logger:   logger,
	}
}

// Transform parses a feed record, fills in its zip code when it can be
// resolved, and serializes it keyed by event id. Records without a
// resolvable zip are still emitted with an empty zip_code header.
func (t *ZipTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	event, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	if err := t.validate.Struct(event); err != nil {
		return domain.OutputEvent{}, fmt.Errorf("invalid outage event %d: %w", event.ID, err)
	}

	if event.ZipCode == nil {
		if zip, ok := t.resolver.ResolveZip(ctx, event); ok {
			event.ZipCode = &zip
		} else {
			t.logger.Debug("no zip code for outage", "event_id", event.ID)
		}
	}

	return serialize(event, t.registry.LookupName(event.Zip()))
}

func serialize(event domain.OutageEvent, area string) (domain.OutputEvent, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("serialize outage event %d: %w", event.ID, err)
	}
	return domain.OutputEvent{
		Key:   []byte(strconv.Itoa(event.ID)),
		Value: value,
		Headers: map[string]string{
			HeaderZipCode:     event.Zip(),
			HeaderArea:        area,
			HeaderProcessedAt: domain.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}
