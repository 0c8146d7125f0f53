package internal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/meridian-gis/formkit"
)

// Temporal display formats. Date-only values ignore time-of-day; time-only
// values carry milliseconds within one day.
const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04:05"
	dateTimeLayout = "2006-01-02 15:04:05"
)

const millisPerDay = 24 * 60 * 60 * 1000

// Coerce normalizes a raw value into the canonical representation for a
// field type: string, int64, float64, epoch milliseconds (int64) for
// temporal types, []byte for binary, typed slices for list types.
func Coerce(fieldType formkit.FieldType, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch fieldType {
	case formkit.FieldTypeString:
		return toString(value)
	case formkit.FieldTypeInteger:
		f, err := toFloat64(value)
		if err != nil {
			return nil, err
		}
		return int64(f), nil
	case formkit.FieldTypeReal:
		return toFloat64(value)
	case formkit.FieldTypeDate, formkit.FieldTypeTime, formkit.FieldTypeDateTime:
		epoch, err := toEpochMillis(fieldType, value)
		if err != nil {
			return nil, err
		}
		return TruncateEpoch(fieldType, epoch), nil
	case formkit.FieldTypeBinary:
		switch v := value.(type) {
		case []byte:
			return v, nil
		case string:
			return []byte(v), nil
		}
		return nil, fmt.Errorf("cannot convert %T to binary", value)
	case formkit.FieldTypeStringList:
		return toStringSlice(value)
	case formkit.FieldTypeIntegerList:
		return toInt64Slice(value)
	case formkit.FieldTypeRealList:
		return toFloat64Slice(value)
	default:
		return nil, fmt.Errorf("unsupported field type '%s'", fieldType)
	}
}

// FromCursor reads the column at idx as the canonical value for fieldType.
// Null columns yield nil.
func FromCursor(cursor formkit.FeatureCursor, idx int, fieldType formkit.FieldType) any {
	if cursor == nil || idx < 0 || cursor.IsNull(idx) {
		return nil
	}
	switch fieldType {
	case formkit.FieldTypeString:
		return cursor.GetString(idx)
	case formkit.FieldTypeInteger:
		return cursor.GetLong(idx)
	case formkit.FieldTypeReal:
		return cursor.GetDouble(idx)
	case formkit.FieldTypeDate, formkit.FieldTypeTime, formkit.FieldTypeDateTime:
		return TruncateEpoch(fieldType, cursor.GetLong(idx))
	default:
		return cursor.GetString(idx)
	}
}

// Stringify renders a canonical value for display and for the stringified
// equality comparison used by edit detection. Nil yields the empty string.
func Stringify(fieldType formkit.FieldType, value any) string {
	if value == nil {
		return ""
	}
	switch fieldType {
	case formkit.FieldTypeDate, formkit.FieldTypeTime, formkit.FieldTypeDateTime:
		epoch, err := toEpochMillis(fieldType, value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return FormatEpoch(fieldType, epoch)
	case formkit.FieldTypeReal:
		if f, err := toFloat64(value); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	case formkit.FieldTypeInteger:
		if f, err := toFloat64(value); err == nil {
			return strconv.FormatInt(int64(f), 10)
		}
	case formkit.FieldTypeStringList, formkit.FieldTypeIntegerList, formkit.FieldTypeRealList:
		if data, err := json.Marshal(value); err == nil {
			return string(data)
		}
	}
	s, err := toString(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return s
}

// ParseString parses user-entered text into the canonical value for a field
// type. Empty text yields nil.
func ParseString(fieldType formkit.FieldType, text string) (any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	switch fieldType {
	case formkit.FieldTypeString:
		return text, nil
	case formkit.FieldTypeInteger:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer '%s'", text)
		}
		return n, nil
	case formkit.FieldTypeReal:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real '%s'", text)
		}
		return f, nil
	case formkit.FieldTypeDate, formkit.FieldTypeTime, formkit.FieldTypeDateTime:
		return ParseTemporal(fieldType, text)
	default:
		return text, nil
	}
}

// FormatEpoch renders an epoch-milliseconds value using the layout of the
// field type. Time-only values are offsets within one day.
func FormatEpoch(fieldType formkit.FieldType, epochMillis int64) string {
	switch fieldType {
	case formkit.FieldTypeDate:
		return time.UnixMilli(epochMillis).UTC().Format(dateLayout)
	case formkit.FieldTypeTime:
		day := epochMillis % millisPerDay
		if day < 0 {
			day += millisPerDay
		}
		return time.UnixMilli(day).UTC().Format(timeLayout)
	default:
		return time.UnixMilli(epochMillis).UTC().Format(dateTimeLayout)
	}
}

// ParseTemporal parses display text into truncated epoch milliseconds.
func ParseTemporal(fieldType formkit.FieldType, text string) (int64, error) {
	var layout string
	switch fieldType {
	case formkit.FieldTypeDate:
		layout = dateLayout
	case formkit.FieldTypeTime:
		layout = timeLayout
	default:
		layout = dateTimeLayout
	}
	parsed, err := time.ParseInLocation(layout, text, time.UTC)
	if err != nil {
		// Raw epoch input is accepted as a fallback.
		if epoch, perr := strconv.ParseInt(text, 10, 64); perr == nil {
			return TruncateEpoch(fieldType, epoch), nil
		}
		return 0, fmt.Errorf("unsupported %s format: %s", fieldType, text)
	}
	return TruncateEpoch(fieldType, parsed.UnixMilli()), nil
}

// TruncateEpoch normalizes an epoch value to the precision of the field
// type: date drops time-of-day, time keeps seconds within one day,
// datetime keeps whole seconds.
func TruncateEpoch(fieldType formkit.FieldType, epochMillis int64) int64 {
	switch fieldType {
	case formkit.FieldTypeDate:
		t := time.UnixMilli(epochMillis).UTC()
		midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return midnight.UnixMilli()
	case formkit.FieldTypeTime:
		day := epochMillis % millisPerDay
		if day < 0 {
			day += millisPerDay
		}
		return day - day%1000
	default:
		return epochMillis - epochMillis%1000
	}
}

// Helper conversions between raw and canonical representations.

func toString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int:
		return strconv.Itoa(v), nil
	default:
		return fmt.Sprintf("%v", value), nil
	}
}

func toFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(v, 64)
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", value)
	}
}

func toEpochMillis(fieldType formkit.FieldType, value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case time.Time:
		return v.UnixMilli(), nil
	case string:
		return ParseTemporal(fieldType, v)
	default:
		return 0, fmt.Errorf("cannot convert %T to epoch milliseconds", value)
	}
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	default:
		return false, fmt.Errorf("cannot convert %T to bool", value)
	}
}

func toStringSlice(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, err := toString(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to string list", value)
	}
}

func toInt64Slice(value any) ([]int64, error) {
	switch v := value.(type) {
	case []int64:
		return v, nil
	case []any:
		out := make([]int64, 0, len(v))
		for _, item := range v {
			f, err := toFloat64(item)
			if err != nil {
				return nil, err
			}
			out = append(out, int64(f))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to integer list", value)
	}
}

func toFloat64Slice(value any) ([]float64, error) {
	switch v := value.(type) {
	case []float64:
		return v, nil
	case []any:
		out := make([]float64, 0, len(v))
		for _, item := range v {
			f, err := toFloat64(item)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to real list", value)
	}
}
