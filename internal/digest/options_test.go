package digest

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestNormalize_Defaults(t *testing.T) {
	o := Options{}.Normalize()
	if o.MaxBytes != DefaultMaxBytes {
		t.Errorf("max bytes = %d", o.MaxBytes)
	}
	if o.HeadingLevel != 1 {
		t.Errorf("heading level = %d, want clamp to 1", o.HeadingLevel)
	}
	if o.Sort != SortByPath || o.OnReadError != OnReadErrorAbort {
		t.Errorf("sort = %q, policy = %q", o.Sort, o.OnReadError)
	}
	if o.Destination != DefaultDestination || o.Title != DefaultTitle {
		t.Errorf("destination = %q, title = %q", o.Destination, o.Title)
	}
	if o.Workers != DefaultWorkers {
		t.Errorf("workers = %d", o.Workers)
	}
}

func TestNormalize_ClampsHeading(t *testing.T) {
	for in, want := range map[int]int{-3: 1, 0: 1, 1: 1, 4: 4, 6: 6, 7: 6, 100: 6} {
		if got := (Options{HeadingLevel: in}).Normalize().HeadingLevel; got != want {
			t.Errorf("HeadingLevel %d -> %d, want %d", in, got, want)
		}
	}
}

func TestByteLimit_YAMLFallback(t *testing.T) {
	cases := map[string]ByteLimit{
		"max_bytes: 500":      500,
		"max_bytes: lots":     DefaultMaxBytes,
		"max_bytes: -1":       DefaultMaxBytes,
		"max_bytes: \"1200\"": 1200,
	}
	for in, want := range cases {
		var o Options
		if err := yaml.Unmarshal([]byte(in), &o); err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if o.MaxBytes != want {
			t.Errorf("%q: max bytes = %d, want %d", in, o.MaxBytes, want)
		}
	}
}

func TestByteLimit_JSONFallback(t *testing.T) {
	cases := map[string]ByteLimit{
		`{"max_bytes": 42}`:     42,
		`{"max_bytes": "42"}`:   42,
		`{"max_bytes": "many"}`: DefaultMaxBytes,
		`{"max_bytes": 1.5}`:    DefaultMaxBytes,
		`{"max_bytes": true}`:   DefaultMaxBytes,
	}
	for in, want := range cases {
		var o Options
		if err := json.Unmarshal([]byte(in), &o); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if o.MaxBytes != want {
			t.Errorf("%s: max bytes = %d, want %d", in, o.MaxBytes, want)
		}
	}
}

func TestValidate(t *testing.T) {
	o := DefaultOptions()
	if err := o.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	o.Sort = "size"
	if err := o.Validate(); err == nil {
		t.Error("unknown sort mode should fail validation")
	}
	o = DefaultOptions()
	o.OnReadError = "retry"
	if err := o.Validate(); err == nil {
		t.Error("unknown read error policy should fail validation")
	}
}

func TestOverrides_Apply(t *testing.T) {
	var ov Overrides
	if err := json.Unmarshal([]byte(`{"sort":"name","include_content":false,"exclude":"MOC","skip_destination":true}`), &ov); err != nil {
		t.Fatal(err)
	}
	got := ov.Apply(DefaultOptions())
	if got.Sort != SortByName || got.IncludeContent || got.Exclude != "MOC" || !got.SkipDestination {
		t.Errorf("applied = %+v", got)
	}
	if got.Destination != DefaultDestination || got.MaxBytes != DefaultMaxBytes {
		t.Error("unset overrides must keep base values")
	}
}
