package utils

import (
	"bytes"
	stdjson "encoding/json"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PrettyJson renders a value as indented JSON for debug logging. Marshal
// failures come back as the error text so a bad payload never hides a log
// line.
func PrettyJson(in any) string {
	raw, isRaw := in.([]byte)
	if !isRaw {
		var err error
		raw, err = json.Marshal(in)
		if err != nil {
			return err.Error()
		}
	}

	var out bytes.Buffer
	if err := stdjson.Indent(&out, raw, "", "\t"); err != nil {
		return string(raw)
	}

	return out.String()
}
