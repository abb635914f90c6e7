// Package workspace keeps the client-side view of a generated application: the working
// file set, the active file and the chat transcript. A Workspace is not safe for
// concurrent use.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/capitalize-ai/appbuilder/internal/model"
)

// DefaultActiveFile is selected when a result carries no files.
const DefaultActiveFile = "app/page.js"

// Bubble is one chat transcript entry.
type Bubble struct {
	Role    model.Role `json:"role"`
	Content string     `json:"content"`
}

// Workspace is the working state of one conversation.
type Workspace struct {
	Files      model.FileSet `json:"files"`
	ActiveFile string        `json:"activeFile"`
	Bubbles    []Bubble      `json:"messages"`
}

// New returns an empty workspace.
func New() *Workspace {
	return &Workspace{
		Files:      model.FileSet{},
		ActiveFile: DefaultActiveFile,
	}
}

// Apply records a successful generation round. A fresh result replaces the file set;
// an update is merged key by key with returned contents winning.
func (w *Workspace) Apply(prompt string, result *model.GenerationPayload) {
	if result.IsUpdate {
		w.Files = w.Files.Merge(result.Files)
	} else {
		w.Files = result.Files.Clone()
	}

	if _, ok := w.Files[w.ActiveFile]; !ok {
		w.ActiveFile = firstPath(result.Files)
	}

	w.Bubbles = append(w.Bubbles,
		Bubble{Role: model.RoleUser, Content: prompt},
		Bubble{Role: model.RoleAssistant, Content: result.Description},
	)
}

// Fail records a failed round. Files are left untouched.
func (w *Workspace) Fail(prompt string, err error) {
	w.Bubbles = append(w.Bubbles,
		Bubble{Role: model.RoleUser, Content: prompt},
		Bubble{Role: model.RoleAssistant, Content: "Error: " + err.Error()},
	)
}

// FileChange stores a local edit.
func (w *Workspace) FileChange(path, content string) {
	if w.Files == nil {
		w.Files = model.FileSet{}
	}
	w.Files[path] = content
}

// FileSelect makes path the active file. It reports false when no such file exists.
func (w *Workspace) FileSelect(path string) bool {
	if _, ok := w.Files[path]; !ok {
		return false
	}
	w.ActiveFile = path
	return true
}

// Restore replaces the workspace with a stored transcript.
func (w *Workspace) Restore(t model.Transcript) {
	w.Files = t.Files.Clone()
	w.Bubbles = make([]Bubble, 0, len(t.Turns))
	for _, turn := range t.Turns {
		w.Bubbles = append(w.Bubbles, Bubble{Role: turn.Role, Content: turn.Content})
	}
	if _, ok := w.Files[w.ActiveFile]; !ok {
		w.ActiveFile = firstPath(w.Files)
	}
}

// firstPath returns the lexically first path, or DefaultActiveFile for an empty set.
func firstPath(files model.FileSet) string {
	if len(files) == 0 {
		return DefaultActiveFile
	}
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths[0]
}

// ErrUnsafePath is returned by Export for paths that would escape the target directory.
var ErrUnsafePath = errors.New("unsafe file path")

// Export writes every file under dir, creating parent directories as needed.
func (w *Workspace) Export(dir string) error {
	root, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	for path, content := range w.Files {
		target := filepath.Join(root, filepath.FromSlash(path))
		if !strings.HasPrefix(target, root+string(filepath.Separator)) {
			return fmt.Errorf("%w: %s", ErrUnsafePath, path)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}
