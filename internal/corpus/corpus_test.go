package corpus

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rubricon/internal/rubric"
)

type countingSource struct {
	mu    sync.Mutex
	loads int
}

func (s *countingSource) Load() ([]rubric.Pattern, []rubric.TemplateDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return []rubric.Pattern{{Kind: rubric.PatternItem, TextSample: "checks pulse"}}, nil, nil
}

func TestLibraryLoadsOnce(t *testing.T) {
	src := &countingSource{}
	lib := NewLibrary(src, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lib.Patterns()
			lib.Templates()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, src.loads)
	assert.Len(t, lib.Patterns(), 1)
}

func TestLibraryStaticSource(t *testing.T) {
	lib := NewLibrary(&StaticSource{
		PatternList:  []rubric.Pattern{{Kind: rubric.PatternSectionHeader, TextSample: "vital signs"}},
		TemplateList: []rubric.TemplateDoc{{Name: "t.txt", Text: "hello"}},
	}, nil)

	require.Len(t, lib.Patterns(), 1)
	require.Len(t, lib.Templates(), 1)
}

func TestFSSourceLoadsSheetsAndTemplates(t *testing.T) {
	dir := t.TempDir()

	sheet := "HISTORY TAKING,10\n- Asks about onset,2\nplain prose row that matches nothing,\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rubric_a.csv"), []byte(sheet), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cardiac.txt"), []byte("CARDIAC\nExamples:\n- check pulse\n"), 0o644))

	src := NewFSSource([]string{dir}, nil)
	patterns, templates, err := src.Load()
	require.NoError(t, err)

	require.Len(t, patterns, 2)
	assert.Equal(t, rubric.PatternSectionHeader, patterns[0].Kind)
	assert.Equal(t, "HISTORY TAKING 10", patterns[0].TextSample)
	assert.Equal(t, "rubric_a.csv", patterns[0].SourceSheet)
	assert.Equal(t, rubric.PatternItem, patterns[1].Kind)

	require.Len(t, templates, 1)
	assert.Equal(t, "cardiac.txt", templates[0].Name)
}

func TestFSSourceMissingDirIsNotAnError(t *testing.T) {
	src := NewFSSource([]string{filepath.Join(t.TempDir(), "absent")}, nil)
	patterns, templates, err := src.Load()
	require.NoError(t, err)
	assert.Empty(t, patterns)
	assert.Empty(t, templates)
}

func TestFSSourceSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.csv"), []byte("\"unterminated\n- Checks pulse,2\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.csv"), []byte("- Checks pulse,2\n"), 0o644))

	src := NewFSSource([]string{dir}, nil)
	patterns, _, err := src.Load()
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, "good.csv", patterns[0].SourceSheet)
}
