package mongo

import (
	"strconv"

	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ToRawRecord turns a decoded document into a RawRecord whose fields hold
// only plain Go values: strings, float64/int32/int64, bool, time.Time,
// map[string]any and []any.
func ToRawRecord(collection string, doc bson.M) domain.RawRecord {
	fields := normalizeDocument(doc)
	id, _ := fields["_id"].(string)
	return domain.RawRecord{Collection: collection, ID: id, Fields: fields}
}

func normalizeDocument(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for key, value := range doc {
		out[key] = normalize(value)
	}
	return out
}

func normalize(value any) any {
	switch v := value.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case primitive.DateTime:
		return v.Time().UTC()
	case primitive.Timestamp:
		return int64(v.T) * 1000
	case primitive.Decimal128:
		parsed, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return v.String()
		}
		return parsed
	case primitive.M:
		return normalizeDocument(v)
	case map[string]any:
		return normalizeDocument(v)
	case primitive.D:
		out := make(map[string]any, len(v))
		for _, elem := range v {
			out[elem.Key] = normalize(elem.Value)
		}
		return out
	case primitive.A:
		return normalizeArray(v)
	case []any:
		return normalizeArray(v)
	case primitive.Null, primitive.Undefined:
		return nil
	default:
		return v
	}
}

func normalizeArray(values []any) []any {
	out := make([]any, len(values))
	for i, value := range values {
		out[i] = normalize(value)
	}
	return out
}
