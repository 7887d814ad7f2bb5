// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package redact

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tcs := []struct {
		name string
		cfg  Config
	}{
		{
			name: "empty optional fields",
			cfg:  Config{Matcher: "/some regex/"},
		},
		{
			name: "set optional fields",
			cfg: Config{
				Matcher: "/some other regex/",
				ID:      "COOLCOOL",
				Replace: "WOWOW",
			},
		},
		{
			name: "literal matcher with pattern characters",
			cfg:  Config{Matcher: "a.b(c)", Literal: true},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			reg, err := New(tc.cfg)
			require.NoError(t, err)
			assert.NotEqual(t, "", reg.ID)
			assert.NotEqual(t, "", reg.Replace)
			if tc.cfg.ID != "" {
				assert.Equal(t, tc.cfg.ID, reg.ID)
			}
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Config{})
	assert.EqualError(t, err, "redact: matcher must not be empty")

	_, err = New(Config{Matcher: "(unclosed"})
	assert.Error(t, err, "invalid pattern")

	assert.Panics(t, func() { MustNew(Config{Matcher: "(unclosed"}) })
}

func TestNew_GeneratedIDIsStable(t *testing.T) {
	one := MustNew(Config{Matcher: "secret"})
	two := MustNew(Config{Matcher: "secret"})
	other := MustNew(Config{Matcher: "other"})

	assert.Equal(t, one.ID, two.ID)
	assert.NotEqual(t, one.ID, other.ID)
	assert.Len(t, one.ID, 32)
}

func TestRedact_Apply(t *testing.T) {
	tcs := []struct {
		name   string
		cfg    Config
		input  string
		expect string
	}{
		{
			name:   "empty input",
			cfg:    Config{Matcher: "/myRegex/"},
			input:  "",
			expect: "",
		},
		{
			name:   "redacts once",
			cfg:    Config{Matcher: "myRegex"},
			input:  "myRegex",
			expect: "<REDACTED>",
		},
		{
			name:   "redacts many",
			cfg:    Config{Matcher: "test"},
			input:  "test test_test+test-test\n!test ??test",
			expect: "<REDACTED> <REDACTED>_<REDACTED>+<REDACTED>-<REDACTED>\n!<REDACTED> ??<REDACTED>",
		},
		{
			name:   "numbered group reference",
			cfg:    Config{Matcher: `(SECRET=)[^ ]+`, Replace: "${1}REDACTED"},
			input:  "Other text SECRET=my-secret-password Other text",
			expect: "Other text SECRET=REDACTED Other text",
		},
		{
			name:   "lookahead",
			cfg:    Config{Matcher: `token(?!_id)`, Replace: "xxx"},
			input:  "token token_id",
			expect: "xxx token_id",
		},
		{
			name:   "literal matcher",
			cfg:    Config{Matcher: "a.b", Literal: true, Replace: "x"},
			input:  "a.b aXb",
			expect: "x aXb",
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			redactor, err := New(tc.cfg)
			require.NoError(t, err)

			r := strings.NewReader(tc.input)
			buf := new(bytes.Buffer)
			err = redactor.Apply(buf, r)
			assert.NoError(t, err)
			assert.Equal(t, tc.expect, buf.String())
		})
	}
}

func TestApplyMany(t *testing.T) {
	var redactions []*Redact
	matchers := []string{"myRegex", "test", "does not apply"}
	for _, matcher := range matchers {
		redactions = append(redactions, newTestRedact(t, matcher, ""))
	}
	tcs := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "empty input",
			input:  "",
			expect: "",
		},
		{
			name:   "redacts once",
			input:  "myRegex",
			expect: "<REDACTED>",
		},
		{
			name:   "redacts many",
			input:  "test test_test+test-test\n!test ??test",
			expect: "<REDACTED> <REDACTED>_<REDACTED>+<REDACTED>-<REDACTED>\n!<REDACTED> ??<REDACTED>",
		},
	}
	for _, tc := range tcs {
		r := strings.NewReader(tc.input)
		buf := new(bytes.Buffer)
		err := ApplyMany(redactions, buf, r)
		assert.NoError(t, err, tc.name)
		assert.Equal(t, tc.expect, buf.String(), tc.name)
	}
}

func TestApplyMany_Order(t *testing.T) {
	first := newTestRedact(t, "foobar", "baz")
	second := newTestRedact(t, "baz", "qux")

	res, err := String("foobar", []*Redact{first, second})
	require.NoError(t, err)
	assert.Equal(t, "qux", res, "later redactions see the output of earlier ones")

	res, err = String("foobar", []*Redact{second, first})
	require.NoError(t, err)
	assert.Equal(t, "baz", res)
}

func TestApplyMany_ReadError(t *testing.T) {
	buf := new(bytes.Buffer)
	err := ApplyMany(nil, buf, errReader{})
	assert.Error(t, err)
}

func TestRedact_ReplacementTimeout(t *testing.T) {
	r, err := New(Config{ID: "slow", Matcher: `(a+)+$`, Timeout: time.Millisecond})
	require.NoError(t, err)

	input := "token=" + strings.Repeat("a", 64) + "!"
	out, err := r.Replacement(input)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMatchFailed)
	assert.Equal(t, input, out, "the input is returned untouched")
	assert.NotContains(t, err.Error(), "token=", "the error must not quote the input")
	assert.Contains(t, err.Error(), "slow")

	rs := NewRedactedString(input, []*Redact{r})
	assert.Empty(t, rs.String(), "a failed redaction must not fall back to the raw value")
}

func TestRedactedString(t *testing.T) {
	redactions := []*Redact{newTestRedact(t, "hunter2", "")}
	rs := NewRedactedString("password=hunter2", redactions)

	assert.Equal(t, "password=<REDACTED>", rs.String())

	bts, err := json.Marshal(map[string]any{"line": rs})
	require.NoError(t, err)
	assert.JSONEq(t, `{"line": "password=<REDACTED>"}`, string(bts))

	slice := NewRedactedStringSlice([]string{"hunter2", "plain"}, redactions)
	require.Len(t, slice, 2)
	assert.Equal(t, "<REDACTED>", slice[0].String())
	assert.Equal(t, "plain", slice[1].String())
}

// test redact.Flatten()
func TestFlatten(t *testing.T) {
	var nilSlice []*Redact
	var emptySlice = []*Redact{}
	singleRedact := []*Redact{newTestRedact(t, "matchredact", "foobar")}
	multiRedact := []*Redact{
		newTestRedact(t, "foobar", "baz"),
		newTestRedact(t, "baz", "<REDACTED>"),
	}

	tcs := []struct {
		name   string
		input  [][]*Redact
		expect []*Redact
	}{
		{
			name:   "Flatten should return empty redact slice for nil slice input",
			input:  [][]*Redact{nilSlice},
			expect: make([]*Redact, 0),
		},
		{
			name:   "Flatten should treat a nil slice (first arg) correctly",
			input:  [][]*Redact{nilSlice, singleRedact},
			expect: singleRedact,
		},
		{
			name:   "Flatten should treat mixed args (multiRedact, nil slice, singleRedact) correctly",
			input:  [][]*Redact{multiRedact, nilSlice, singleRedact},
			expect: []*Redact{multiRedact[0], multiRedact[1], singleRedact[0]},
		},
		{
			name:   "Flatten should treat mixed-length inputs correctly",
			input:  [][]*Redact{singleRedact, multiRedact},
			expect: []*Redact{singleRedact[0], multiRedact[0], multiRedact[1]},
		},
		{
			name:   "Flatten should return empty redact slice for empty redact slice input",
			input:  [][]*Redact{emptySlice},
			expect: make([]*Redact, 0),
		},
		{
			name:   "Flatten should treat mixed args (nil slice, multiRedact, empty slice, singleRedact) correctly",
			input:  [][]*Redact{nilSlice, multiRedact, emptySlice, singleRedact},
			expect: []*Redact{multiRedact[0], multiRedact[1], singleRedact[0]},
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			result := Flatten(tc.input...)
			assert.Equal(t, tc.expect, result, tc.name)
		})
	}
}

// newTestRedact wraps redaction creation and fails the test if there's an error
func newTestRedact(t *testing.T, matcher string, replace string) *Redact {
	t.Helper()
	r, err := New(Config{Matcher: matcher, Replace: replace})
	require.NoError(t, err, "error creating test redaction")
	return r
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) {
	return 0, errors.New("read failed")
}
