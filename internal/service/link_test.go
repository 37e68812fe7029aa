package service

import (
	"testing"

	"github.com/pkg/errors"
)

func TestResolveLink_ValidShapes(t *testing.T) {
	cases := []struct {
		link string
		want string
	}{
		{"https://chzzk.naver.com/video/123456", "123456"},
		{"http://chzzk.naver.com/video/123456", "123456"},
		{"https://chzzk.naver.com/video/123456?t=120", "123456"},
		{"https://m.chzzk.naver.com/video/98765", "98765"},
		{"https://m.chzzk.naver.com/video/98765?utm_source=share", "98765"},
		{"  https://chzzk.naver.com/video/42  ", "42"},
	}

	for _, tc := range cases {
		got, err := ResolveLink(tc.link)
		if err != nil {
			t.Fatalf("ResolveLink(%q) returned error: %v", tc.link, err)
		}
		if got != tc.want {
			t.Fatalf("ResolveLink(%q) = %q, want %q", tc.link, got, tc.want)
		}
	}
}

func TestResolveLink_InvalidShapes(t *testing.T) {
	cases := []string{
		"",
		"not a link",
		"https://chzzk.naver.com/live/somechannel",
		"https://chzzk.naver.com/video/",
		"https://chzzk.naver.com/video/abc",
		"https://chzzk.naver.com/video/123/comments",
		"https://youtube.com/watch?v=123456",
		"https://chzzk.naver.com/clip/123456",
	}

	for _, link := range cases {
		_, err := ResolveLink(link)
		if err == nil {
			t.Fatalf("ResolveLink(%q) expected error, got nil", link)
		}
		if !errors.Is(err, ErrInvalidLink) {
			t.Fatalf("ResolveLink(%q) error = %v, want ErrInvalidLink", link, err)
		}
	}
}

func TestResolveLink_SameIdentifierAcrossVariants(t *testing.T) {
	links := []string{
		"https://chzzk.naver.com/video/555",
		"https://m.chzzk.naver.com/video/555",
		"https://chzzk.naver.com/video/555?sharing=true",
	}

	for _, link := range links {
		got, err := ResolveLink(link)
		if err != nil {
			t.Fatalf("ResolveLink(%q) returned error: %v", link, err)
		}
		if got != "555" {
			t.Fatalf("ResolveLink(%q) = %q, want 555", link, got)
		}
	}
}
