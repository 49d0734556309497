package dom

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heathj/html5bridge/bridge"
)

type scriptingMode uint

const (
	scriptBoth scriptingMode = iota
	scriptOff
	scriptOn
)

type treeTest struct {
	file       string
	in         string
	fragment   bool
	scriptMode scriptingMode
	expected   string
}

// parseDat reads a file in the html5lib tree-construction format.
func parseDat(t *testing.T, path string) []treeTest {
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var tests []treeTest
	for i, chunk := range strings.Split(string(data), "#data\n") {
		if i == 0 {
			continue
		}
		tt := treeTest{file: filepath.Base(path)}
		lines := strings.Split(chunk, "\n")

		var in []string
		section := "#data"
		var doc []string
		for _, line := range lines {
			if strings.HasPrefix(line, "#") {
				switch line {
				case "#errors", "#new-errors", "#document", "#document-fragment":
					section = line
					continue
				case "#script-on":
					tt.scriptMode = scriptOn
					continue
				case "#script-off":
					tt.scriptMode = scriptOff
					continue
				}
			}
			switch section {
			case "#data":
				in = append(in, line)
			case "#document-fragment":
				tt.fragment = true
			case "#document":
				if line != "" {
					doc = append(doc, line)
				}
			}
		}
		tt.in = strings.Join(in, "\n")
		tt.expected = "#document\n" + strings.Join(doc, "\n")
		tests = append(tests, tt)
	}
	return tests
}

func runTreeConstructorTest(t *testing.T, tt treeTest, scripting bool, chunkSize int) {
	h := NewHost()
	err := h.Parse(strings.NewReader(tt.in), chunkSize, bridge.WithScripting(scripting))
	require.NoError(t, err)
	require.Equal(t, tt.expected, h.Document.String(), "input %q", tt.in)
	require.Zero(t, h.Leaks(), "references not given back")
}

func TestTreeConstructor(t *testing.T) {
	files, err := filepath.Glob("testdata/tree_construction/*.dat")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		for _, tt := range parseDat(t, file) {
			if tt.fragment {
				continue
			}
			tt := tt
			var modes []bool
			switch tt.scriptMode {
			case scriptOn:
				modes = []bool{true}
			case scriptOff:
				modes = []bool{false}
			default:
				modes = []bool{false, true}
			}
			for _, scripting := range modes {
				scripting := scripting
				t.Run(tt.file+"/"+tt.in, func(t *testing.T) {
					t.Parallel()
					runTreeConstructorTest(t, tt, scripting, 0)
					// one byte at a time splits every token and every
					// multi-byte character
					runTreeConstructorTest(t, tt, scripting, 1)
				})
			}
		}
	}
}
