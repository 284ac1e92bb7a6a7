package tastinglog

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// timeFormat is RFC 3339 truncated to milliseconds. Tries survive a
// save/load round trip at exactly this precision; anything finer is
// shed on encode.
const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// itemJSON is the persisted form of an Item. The decoder ignores
// fields it does not know, so newer writers can extend this layout
// without breaking older readers.
type itemJSON struct {
	Status    Status   `json:"status"`
	Tries     []string `json:"tries,omitempty"`
	Notes     string   `json:"notes,omitempty"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

func encodeItem(it Item) itemJSON {
	out := itemJSON{
		Status:    it.Status,
		Notes:     it.Notes,
		CreatedAt: encodeTime(it.CreatedAt),
		UpdatedAt: encodeTime(it.UpdatedAt),
	}
	for _, try := range it.Tries {
		out.Tries = append(out.Tries, encodeTime(try))
	}
	return out
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// encodeLog serializes a partition to the blob stored under the
// festival's key.
func encodeLog(l Log) ([]byte, error) {
	items := make(map[string]itemJSON, len(l))
	for id, it := range l {
		items[id] = encodeItem(it)
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode tasting log: %w", err)
	}
	return data, nil
}

// decodeItem parses and validates one entry. Validation is strict on
// the pieces the state machine relies on: a recognised status, parsable
// try timestamps, and the status/tries coupling. An entry that fails
// here is corrupt, not merely old, because every writer of this layout
// maintains those properties.
func decodeItem(drinkID string, raw json.RawMessage) (Item, error) {
	var enc itemJSON
	if err := json.Unmarshal(raw, &enc); err != nil {
		return Item{}, fmt.Errorf("entry %q: %w", drinkID, err)
	}

	switch enc.Status {
	case StatusWantToTry, StatusTasted:
	default:
		return Item{}, fmt.Errorf("entry %q: unknown status %q", drinkID, enc.Status)
	}

	it := Item{
		DrinkID: drinkID,
		Status:  enc.Status,
		Notes:   enc.Notes,
	}
	for _, s := range enc.Tries {
		try, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return Item{}, fmt.Errorf("entry %q: bad try timestamp %q: %w", drinkID, s, err)
		}
		it.Tries = append(it.Tries, try)
	}
	slices.SortFunc(it.Tries, time.Time.Compare)

	if (enc.Status == StatusTasted) != (len(it.Tries) > 0) {
		return Item{}, fmt.Errorf("entry %q: status %q with %d tries", drinkID, enc.Status, len(it.Tries))
	}

	it.CreatedAt = decodeTime(enc.CreatedAt)
	it.UpdatedAt = decodeTime(enc.UpdatedAt)
	return it, nil
}

// decodeTime is lenient: bookkeeping timestamps are not worth losing an
// entry over, so anything unparsable becomes the zero time.
func decodeTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// decodeLog parses a stored blob. An unparsable blob fails as a whole;
// a parsable blob with some bad entries yields the good entries plus
// one error per entry dropped.
func decodeLog(data []byte) (Log, []error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, []error{fmt.Errorf("decode tasting log: %w", err)}
	}

	l := make(Log, len(raw))
	var errs []error
	for id, rawItem := range raw {
		it, err := decodeItem(id, rawItem)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		l[id] = it
	}
	return l, errs
}
