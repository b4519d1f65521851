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

// Package clipboard copies theme text and preview cards to the system
// clipboard and reads config text back from it.
package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	atotto "github.com/atotto/clipboard"
	"golang.design/x/clipboard"

	"github.com/adaryorg/ghostyle/internal/logging"
)

var (
	initOnce sync.Once
	initErr  error
)

var ErrEmpty = errors.New("clipboard is empty")

// Hooks for tests.
var (
	isWayland = isWaylandSession

	runCommand = func(stdin io.Reader, name string, args ...string) ([]byte, error) {
		cmd := exec.Command(name, args...)
		cmd.Stdin = stdin
		return cmd.Output()
	}

	writeText  = atotto.WriteAll
	readText   = atotto.ReadAll
	writeImage = func(data []byte) error {
		if err := ensureInit(); err != nil {
			return err
		}
		clipboard.Write(clipboard.FmtImage, data)
		return nil
	}
)

func ensureInit() error {
	initOnce.Do(func() {
		initErr = clipboard.Init()
	})
	return initErr
}

func isWaylandSession() bool {
	return os.Getenv("WAYLAND_DISPLAY") != "" || os.Getenv("XDG_SESSION_TYPE") == "wayland"
}

// Copy puts text on the clipboard. On X11 the PRIMARY selection is set too
// so middle-click paste into a terminal works.
func Copy(content string) error {
	if isWayland() {
		if _, err := runCommand(strings.NewReader(content), "wl-copy"); err != nil {
			return fmt.Errorf("wl-copy failed: %w", err)
		}
		return nil
	}

	if err := writeText(content); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	// PRIMARY is optional
	if _, err := runCommand(strings.NewReader(content), "xclip", "-selection", "primary"); err != nil {
		logging.Debug("xclip primary selection failed: %v", err)
	}
	return nil
}

// CopyImage puts PNG data on the clipboard.
func CopyImage(png []byte) error {
	if len(png) == 0 {
		return ErrEmpty
	}
	if isWayland() {
		if _, err := runCommand(bytes.NewReader(png), "wl-copy", "--type", "image/png"); err != nil {
			return fmt.Errorf("wl-copy image failed: %w", err)
		}
		return nil
	}
	return writeImage(png)
}

// Paste returns the clipboard text.
func Paste() (string, error) {
	var content string
	if isWayland() {
		out, err := runCommand(nil, "wl-paste", "--no-newline")
		if err != nil {
			return "", fmt.Errorf("wl-paste failed: %w", err)
		}
		content = string(out)
	} else {
		text, err := readText()
		if err != nil {
			return "", fmt.Errorf("failed to read clipboard: %w", err)
		}
		content = text
	}
	if strings.TrimSpace(content) == "" {
		return "", ErrEmpty
	}
	return content, nil
}
