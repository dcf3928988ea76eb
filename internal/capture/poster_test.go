package capture

import (
	"context"
	"testing"
	"time"
)

func TestCardURL(t *testing.T) {
	cases := map[string]string{
		"127.0.0.1:8080":        "http://127.0.0.1:8080/card/173",
		":8080":                 "http://127.0.0.1:8080/card/173",
		"https://example.org/":  "https://example.org/card/173",
		"http://localhost:9000": "http://localhost:9000/card/173",
	}
	for listen, want := range cases {
		if got := CardURL(listen, 173); got != want {
			t.Errorf("CardURL(%q) = %q, want %q", listen, got, want)
		}
	}
}

func TestOptionsNormalize(t *testing.T) {
	o, err := Options{URL: "http://x/card/1", OutputPath: "out.png"}.normalize()
	if err != nil {
		t.Fatal(err)
	}
	if o.Width != DefaultWidth || o.Height != DefaultHeight || o.Timeout != DefaultTimeout {
		t.Fatalf("defaults not applied: %+v", o)
	}

	o, err = Options{URL: "u", OutputPath: "p", Width: 800, Height: 600, Timeout: time.Second}.normalize()
	if err != nil || o.Width != 800 || o.Height != 600 || o.Timeout != time.Second {
		t.Fatalf("explicit values changed: %+v %v", o, err)
	}
}

func TestPosterRejectsBadOptions(t *testing.T) {
	for _, o := range []Options{
		{OutputPath: "out.png"},
		{URL: "http://x/card/1"},
		{URL: "http://x/card/1", OutputPath: "out.png", Width: -1},
	} {
		if err := Poster(context.Background(), o); err == nil {
			t.Errorf("Poster(%+v) succeeded", o)
		}
	}
}
