/*
MIT License

Copyright (c) 2025 Yuval Adar <adary@adary.org>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package clipboard

import (
	"errors"
	"io"
	"testing"
)

type call struct {
	name  string
	args  []string
	stdin string
}

func stub(t *testing.T, wayland bool, cmdErr error, output string) *[]call {
	t.Helper()
	var calls []call

	origWayland, origRun := isWayland, runCommand
	origWriteText, origReadText, origWriteImage := writeText, readText, writeImage
	t.Cleanup(func() {
		isWayland, runCommand = origWayland, origRun
		writeText, readText, writeImage = origWriteText, origReadText, origWriteImage
	})

	isWayland = func() bool { return wayland }
	runCommand = func(stdin io.Reader, name string, args ...string) ([]byte, error) {
		c := call{name: name, args: args}
		if stdin != nil {
			b, _ := io.ReadAll(stdin)
			c.stdin = string(b)
		}
		calls = append(calls, c)
		return []byte(output), cmdErr
	}
	return &calls
}

func TestCopyWayland(t *testing.T) {
	calls := stub(t, true, nil, "")

	if err := Copy("background = #000000\n"); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if len(*calls) != 1 || (*calls)[0].name != "wl-copy" {
		t.Fatalf("Expected one wl-copy call, got %+v", *calls)
	}
	if (*calls)[0].stdin != "background = #000000\n" {
		t.Errorf("Unexpected stdin %q", (*calls)[0].stdin)
	}
}

func TestCopyWaylandError(t *testing.T) {
	stub(t, true, errors.New("not found"), "")
	if err := Copy("x"); err == nil {
		t.Error("Expected error when wl-copy fails")
	}
}

func TestCopyX11(t *testing.T) {
	calls := stub(t, false, errors.New("no xclip"), "")
	var written string
	writeText = func(s string) error { written = s; return nil }

	// A missing xclip does not fail the copy.
	if err := Copy("hello"); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if written != "hello" {
		t.Errorf("Expected clipboard text %q, got %q", "hello", written)
	}
	if len(*calls) != 1 || (*calls)[0].name != "xclip" {
		t.Errorf("Expected xclip primary call, got %+v", *calls)
	}
}

func TestCopyImage(t *testing.T) {
	calls := stub(t, true, nil, "")
	if err := CopyImage([]byte("\x89PNG")); err != nil {
		t.Fatalf("CopyImage failed: %v", err)
	}
	if got := (*calls)[0].args; len(got) != 2 || got[1] != "image/png" {
		t.Errorf("Unexpected wl-copy args %v", got)
	}

	stub(t, false, nil, "")
	var image []byte
	writeImage = func(b []byte) error { image = b; return nil }
	if err := CopyImage([]byte("\x89PNG")); err != nil {
		t.Fatalf("CopyImage failed: %v", err)
	}
	if string(image) != "\x89PNG" {
		t.Errorf("Image data not written")
	}

	if err := CopyImage(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("Expected ErrEmpty, got %v", err)
	}
}

func TestPaste(t *testing.T) {
	stub(t, true, nil, "foreground = #ffffff")
	got, err := Paste()
	if err != nil || got != "foreground = #ffffff" {
		t.Errorf("Paste() = %q, %v", got, err)
	}

	stub(t, false, nil, "")
	readText = func() (string, error) { return "  \n", nil }
	if _, err := Paste(); !errors.Is(err, ErrEmpty) {
		t.Errorf("Expected ErrEmpty, got %v", err)
	}
}
