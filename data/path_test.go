package data

import (
	"reflect"
	"testing"
)

func TestNormalizeMountPath(t *testing.T) {
	cases := map[string]string{
		"/":          "",
		"":           "",
		"/mnt":       "/mnt",
		"/mnt/":      "/mnt",
		"/mnt///":    "/mnt",
		"/a/b/c":     "/a/b/c",
		"relative/p": "relative/p",
	}

	for input, want := range cases {
		if got := NormalizeMountPath(input); got != want {
			t.Errorf("NormalizeMountPath(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSegments(t *testing.T) {
	cases := map[string][]string{
		"/":        {},
		"":         {},
		"/a":       {"a"},
		"/a/b":     {"a", "b"},
		"//a///b/": {"a", "b"},
		"a/b":      {"a", "b"},
	}

	for input, want := range cases {
		if got := Segments(input); !reflect.DeepEqual(got, want) {
			t.Errorf("Segments(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestHasSegmentPrefix(t *testing.T) {
	cases := []struct {
		path, prefix string
		want         bool
	}{
		{"/mnt/sub", "/mnt", true},
		{"/mnt", "/mnt", true},
		{"/mnt2", "/mnt", false},
		{"/mnt", "/mnt/sub", false},
		{"/anything", "/", true},
		{"/anything", "", true},
		{"/a/b/c", "/a/b", true},
		{"/a/bb/c", "/a/b", false},
	}

	for _, tc := range cases {
		if got := HasSegmentPrefix(tc.path, tc.prefix); got != tc.want {
			t.Errorf("HasSegmentPrefix(%q, %q) = %v, want %v", tc.path, tc.prefix, got, tc.want)
		}
	}
}
