package util

import (
	"testing"
)

func TestStringInSlice(t *testing.T) {
	schemes := []string{"http", "https"}
	if !StringInSlice(schemes, "https") {
		t.Error("expected https to be found")
	}
	if StringInSlice(schemes, "ftp") {
		t.Error("did not expect ftp to be found")
	}
	if StringInSlice(nil, "http") {
		t.Error("did not expect a match in a nil slice")
	}
}
