// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package redact

import (
	"encoding/json"
)

// RedactedString defers redaction of a string until it is formatted or marshalled, which makes it a safe value to
// hand to a structured logger.
type RedactedString struct {
	inputString string
	redactions  []*Redact
}

func NewRedactedString(input string, redactions []*Redact) RedactedString {
	return RedactedString{
		inputString: input,
		redactions:  redactions,
	}
}

func NewRedactedStringSlice(inSlice []string, r []*Redact) []RedactedString {
	var outSlice []RedactedString
	for _, in := range inSlice {
		outSlice = append(outSlice, NewRedactedString(in, r))
	}
	return outSlice
}

// String returns the redacted input. If a redaction fails, nothing is returned rather than the unredacted input.
func (r RedactedString) String() string {
	red, err := String(r.inputString, r.redactions)
	if err != nil {
		return ""
	}
	return red
}

func (r RedactedString) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}
