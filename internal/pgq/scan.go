package pgq

import (
	"database/sql"
	"time"

	"github.com/erum21/skytools/internal/model"
	"github.com/erum21/skytools/internal/quoting"
)

// scanEvents decodes batch-listing rows into ordered events. The identifier,
// timestamp and type are required; a NULL in any of them makes the whole
// batch malformed. A NULL payload is an empty field map, not an error.
func scanEvents(rows *sql.Rows, batchID int64) ([]model.Event, error) {
	var events []model.Event
	for rows.Next() {
		var (
			id     sql.NullInt64
			evTime sql.NullTime
			evType sql.NullString
			evData sql.NullString
		)
		if err := rows.Scan(&id, &evTime, &evType, &evData); err != nil {
			return nil, &model.MalformedEventError{BatchID: batchID, Reason: "scan event row", Err: err}
		}
		ev, err := decodeEvent(batchID, id, evTime, evType, evData)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueueUnavailableError{Op: "get_batch_events", Err: err}
	}
	return events, nil
}

func decodeEvent(batchID int64, id sql.NullInt64, evTime sql.NullTime, evType, evData sql.NullString) (model.Event, error) {
	var zero model.Event
	if !id.Valid {
		return zero, &model.MalformedEventError{BatchID: batchID, Reason: "missing ev_id"}
	}
	if !evType.Valid || evType.String == "" {
		return zero, &model.MalformedEventError{BatchID: batchID, Reason: "missing ev_type"}
	}
	if !evTime.Valid {
		return zero, &model.MalformedEventError{BatchID: batchID, Reason: "missing ev_time"}
	}

	payload := map[string]string{}
	if evData.Valid {
		var err error
		payload, err = quoting.URLDecode(evData.String)
		if err != nil {
			return zero, &model.MalformedEventError{BatchID: batchID, Reason: "decode ev_data", Err: err}
		}
	}

	return model.Event{
		ID:      id.Int64,
		Type:    evType.String,
		Time:    evTime.Time.In(time.UTC),
		Payload: payload,
	}, nil
}
