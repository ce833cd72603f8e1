package schema

import (
	"context"

	"eventsink/internal/core/variant"
	perr "eventsink/internal/platform/errors"
	"eventsink/internal/platform/logger"
	"eventsink/internal/services/events/domain"
)

// Decode failure sentinels. Callers branch on these to phrase the
// invalid-event record; the wrapped message carries the detail.
var (
	ErrMissingPayload      = perr.New(perr.ErrorCodeInvalidArgument, "schema: payload required but absent")
	ErrPayloadTypeMismatch = perr.New(perr.ErrorCodeInvalidArgument, "schema: payload type mismatch")
	ErrExtraction          = perr.New(perr.ErrorCodeInvalidArgument, "schema: field extraction failed")
)

// Decode resolves one delivered payload against a schema and returns the
// extracted fields.
//
// maybePayload is the optional payload exactly as delivered. Four rules:
//
//   - schema takes no payload, payload present: the payload is dropped,
//     an error is logged, and decoding succeeds with an empty field set;
//   - schema takes a payload, none delivered: ErrMissingPayload;
//   - payload present but its unboxed signature differs from the
//     schema's: ErrPayloadTypeMismatch, with both signatures and the
//     rendered payload in the message;
//   - signatures agree but the extractor fails: ErrExtraction wrapping
//     the extractor's message.
func Decode(ctx context.Context, id domain.EventTypeID, sch Schema, maybePayload variant.Value) (domain.FieldSet, error) {
	payload, present := maybePayload.Maybe()

	if sch.PayloadType == "" {
		if present {
			logger.C(ctx).Error().
				Str("event", sch.Name).
				Str("type_id", id.String()).
				Msgf("event takes no payload, but got %s", payload)
		}
		return domain.FieldSet{}, nil
	}

	if !present {
		return nil, perr.Wrapf(ErrMissingPayload, perr.ErrorCodeInvalidArgument,
			"event %s (%s) needs a %s payload, but got none", sch.Name, id, sch.PayloadType)
	}

	payload = payload.Unbox()
	if got := payload.TypeString(); got != sch.PayloadType {
		return nil, perr.Wrapf(ErrPayloadTypeMismatch, perr.ErrorCodeInvalidArgument,
			"event %s (%s) needs a %s payload, but got %s (%s)", sch.Name, id, sch.PayloadType, payload, got)
	}

	if sch.Extract == nil {
		return domain.FieldSet{}, nil
	}
	fields, err := sch.Extract(payload)
	if err != nil {
		return nil, perr.Wrapf(ErrExtraction, perr.ErrorCodeInvalidArgument,
			"event %s (%s): %s", sch.Name, id, err)
	}
	return fields, nil
}
