package domain

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{name: "ok", in: "neko_chan.42", want: nil},
		{name: "empty", in: "", want: ErrEmptyUsername},
		{name: "too short", in: "ab", want: ErrInvalidUsername},
		{name: "too long", in: strings.Repeat("a", 31), want: ErrInvalidUsername},
		{name: "upper case", in: "Neko", want: ErrInvalidUsername},
		{name: "space", in: "ne ko", want: ErrInvalidUsername},
		{name: "leading dot", in: ".neko", want: ErrInvalidUsername},
		{name: "trailing dot", in: "neko.", want: ErrInvalidUsername},
		{name: "double dot", in: "ne..ko", want: ErrInvalidUsername},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateUsername(tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("ValidateUsername(%q) = %v want %v", tc.in, err, tc.want)
			}
		})
	}
}

func TestNormalizeUsername(t *testing.T) {
	if got := NormalizeUsername("  @Neko_Chan "); got != "neko_chan" {
		t.Fatalf("unexpected normalized username: %q", got)
	}
}

func TestValidateCommentAndMessage(t *testing.T) {
	if _, err := ValidateComment("  \n\t"); !errors.Is(err, ErrEmptyComment) {
		t.Fatalf("expected empty comment error, got %v", err)
	}
	if got, err := ValidateComment("  nice shot "); err != nil || got != "nice shot" {
		t.Fatalf("unexpected comment result %q %v", got, err)
	}
	if _, err := ValidateMessage(""); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected empty message error, got %v", err)
	}
}

func TestValidateCaption_Length(t *testing.T) {
	if _, err := ValidateCaption(strings.Repeat("あ", MaxCaptionLength)); err != nil {
		t.Fatalf("caption at the limit must pass: %v", err)
	}
	if _, err := ValidateCaption(strings.Repeat("あ", MaxCaptionLength+1)); !errors.Is(err, ErrCaptionTooLong) {
		t.Fatalf("expected too long error, got %v", err)
	}
}

func TestHashtags(t *testing.T) {
	got := Hashtags("Sunset #Osaka #food #osaka and #夕焼け!")
	want := []string{"osaka", "food", "夕焼け"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Hashtags got %v want %v", got, want)
	}
	if len(Hashtags("no tags here")) != 0 {
		t.Fatalf("expected no tags")
	}
}

func TestRemoteError_ConflictAndUnauthorized(t *testing.T) {
	conflict := &RemoteError{Status: 409, Code: CodeUniqueViolation, Message: "duplicate key"}
	if !IsConflict(conflict) {
		t.Fatalf("expected conflict")
	}
	if IsConflict(errors.New("plain")) {
		t.Fatalf("plain error is not a conflict")
	}
	wrapped := errors.Join(errors.New("liking post"), &RemoteError{Status: 401, Message: "JWT expired"})
	if !errors.Is(wrapped, ErrUnauthorized) {
		t.Fatalf("401 must unwrap to ErrUnauthorized")
	}
	if !strings.Contains(conflict.Error(), "23505") {
		t.Fatalf("error string should include code: %q", conflict.Error())
	}
}
