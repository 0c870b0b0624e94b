// Package namespace maps a (company, team, part, chatbot name) tuple to the
// on-disk layout of one logical chatbot. Every other component goes through
// these derivations instead of knowing the directory convention.
package namespace

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Namespace identifies one logical knowledge base.
type Namespace struct {
	Company string
	Team    string
	Part    string
	Name    string
}

// New validates the four components and returns the namespace. Components must
// be non-empty after trimming and must not contain path separators or
// traversal, since they become directory names.
func New(company, team, part, name string) (Namespace, error) {
	ns := Namespace{
		Company: strings.TrimSpace(company),
		Team:    strings.TrimSpace(team),
		Part:    strings.TrimSpace(part),
		Name:    strings.TrimSpace(name),
	}
	for _, c := range []string{ns.Company, ns.Team, ns.Part, ns.Name} {
		if c == "" {
			return Namespace{}, fmt.Errorf("namespace requires company, team, part and chatbot name")
		}
		if strings.ContainsAny(c, `/\`) || c == "." || c == ".." {
			return Namespace{}, fmt.Errorf("invalid namespace component %q", c)
		}
	}
	return ns, nil
}

func (n Namespace) String() string {
	return n.Company + "/" + n.Team + "/" + n.Part + "/" + n.Name
}

// Dir is the namespace's root under the data directory.
func (n Namespace) Dir(dataDir string) string {
	return filepath.Join(dataDir, n.Company, n.Team, n.Part, n.Name)
}

// IndexDir holds the persisted vector index.
func (n Namespace) IndexDir(dataDir string) string {
	return filepath.Join(n.Dir(dataDir), "index")
}

// PDFDir holds the uploaded source documents.
func (n Namespace) PDFDir(dataDir string) string {
	return filepath.Join(n.Dir(dataDir), "pdf")
}

// QuizFile holds the namespace's quiz collection.
func (n Namespace) QuizFile(dataDir string) string {
	return filepath.Join(n.Dir(dataDir), "qna.json")
}

// LockFile is the advisory lock guarding index and quiz mutation.
func (n Namespace) LockFile(dataDir string) string {
	return filepath.Join(n.Dir(dataDir), ".lock")
}
