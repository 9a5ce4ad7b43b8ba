package version

import "testing"

func TestString(t *testing.T) {
	if got := String(); got != "dev (commit unknown, built unknown)" {
		t.Errorf("String() = %q", got)
	}
}

func TestUserAgent(t *testing.T) {
	if got := UserAgent(); got != "mastplan/dev" {
		t.Errorf("UserAgent() = %q", got)
	}
}
