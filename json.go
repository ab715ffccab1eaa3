package avro

import "encoding/json"

// jsonEncode renders an opaque default value (retained verbatim from the
// parsed schema JSON, per §4.2 "Defaults are retained as opaque JSON values")
// back into JSON text for Schema.String(). Defaults are always values that
// came from encoding/json.Unmarshal in the first place, so re-marshaling them
// is lossless and never fails for well-formed input.
func jsonEncode(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
