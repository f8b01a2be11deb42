// Package index maintains the process-wide symbol table over an IOP
// workspace: four mutually consistent lookup views plus the derived
// package-to-file mapping, updated with atomic per-file replacement.
package index

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"iopls/internal/extract"
	"iopls/internal/symbols"
)

// ConflictError records two files declaring the same qualified name.
// Lookups follow "last reindexed wins"; the conflict is queryable as a
// diagnostic and the losing symbol keeps its per-file bookkeeping.
type ConflictError struct {
	Qualified string
	File      string
	PrevFile  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s declared in both %s and %s", e.Qualified, e.PrevFile, e.File)
}

// Diagnostic is a recorded, non-fatal indexing problem scoped to a file.
type Diagnostic struct {
	File string
	Err  error
}

// EnumMember pairs an enum symbol with one of its values, for global
// enum-value searches.
type EnumMember struct {
	Symbol *symbols.Symbol
	Member *symbols.Member
}

// Table is the symbol store. A single logical writer mutates it through
// ReindexFile and RemoveFile; concurrent readers never observe a
// half-applied per-file update because the whole replacement happens
// under the write lock, with extraction done by the caller beforehand.
type Table struct {
	mu  sync.RWMutex
	log *zap.Logger

	bySimple    map[string][]*symbols.Symbol
	byQualified map[string]*symbols.Symbol
	byPackage   map[string][]*symbols.Symbol
	byFile      map[string][]*symbols.Symbol
	byCName     map[string]*symbols.Symbol

	packageOfFile  map[string]string
	filesOfPackage map[string][]string

	diags map[string][]Diagnostic
}

// NewTable returns an empty table.
func NewTable(log *zap.Logger) *Table {
	if log == nil {
		log = zap.NewNop()
	}
	return &Table{
		log:            log,
		bySimple:       make(map[string][]*symbols.Symbol),
		byQualified:    make(map[string]*symbols.Symbol),
		byPackage:      make(map[string][]*symbols.Symbol),
		byFile:         make(map[string][]*symbols.Symbol),
		byCName:        make(map[string]*symbols.Symbol),
		packageOfFile:  make(map[string]string),
		filesOfPackage: make(map[string][]string),
		diags:          make(map[string][]Diagnostic),
	}
}

// ReindexFile atomically replaces every entry previously attributed to
// the file with the freshly extracted set. Readers see either the old
// state or the new one, never a mixture.
func (t *Table) ReindexFile(fs *extract.FileSymbols) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.removeFileLocked(fs.Path)
	delete(t.diags, fs.Path)

	if fs.Err != nil {
		t.diags[fs.Path] = append(t.diags[fs.Path], Diagnostic{File: fs.Path, Err: fs.Err})
	}

	t.packageOfFile[fs.Path] = fs.Package
	t.filesOfPackage[fs.Package] = insertSorted(t.filesOfPackage[fs.Package], fs.Path)

	for _, sym := range fs.Symbols {
		t.bySimple[sym.Name] = append(t.bySimple[sym.Name], sym)
		t.byPackage[sym.Package] = append(t.byPackage[sym.Package], sym)
		t.byFile[fs.Path] = append(t.byFile[fs.Path], sym)

		if prev, ok := t.byQualified[sym.Qualified]; ok && prev.File != fs.Path {
			conflict := &ConflictError{Qualified: sym.Qualified, File: fs.Path, PrevFile: prev.File}
			t.diags[fs.Path] = append(t.diags[fs.Path], Diagnostic{File: fs.Path, Err: conflict})
			t.log.Warn("qualified name conflict",
				zap.String("qualified", sym.Qualified),
				zap.String("file", fs.Path),
				zap.String("previous", prev.File))
		}
		t.byQualified[sym.Qualified] = sym

		t.byCName[symbols.TypeToC(sym.Qualified)] = sym
		if sym.CType != "" {
			t.byCName[symbols.TrimCSuffix(sym.CType)] = sym
		}
	}
}

// RemoveFile deletes every entry attributed to the file from all views.
func (t *Table) RemoveFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeFileLocked(path)
	delete(t.diags, path)
}

func (t *Table) removeFileLocked(path string) {
	syms := t.byFile[path]
	delete(t.byFile, path)

	for _, sym := range syms {
		t.bySimple[sym.Name] = dropFromFile(t.bySimple[sym.Name], path)
		if len(t.bySimple[sym.Name]) == 0 {
			delete(t.bySimple, sym.Name)
		}
		t.byPackage[sym.Package] = dropFromFile(t.byPackage[sym.Package], path)
		if len(t.byPackage[sym.Package]) == 0 {
			delete(t.byPackage, sym.Package)
		}

		if cur, ok := t.byQualified[sym.Qualified]; ok && cur.File == path {
			delete(t.byQualified, sym.Qualified)
			// A symbol shadowed by a conflict becomes visible again.
			if again := t.findQualifiedLocked(sym.Qualified); again != nil {
				t.byQualified[sym.Qualified] = again
			}
		}

		cname := symbols.TypeToC(sym.Qualified)
		if cur, ok := t.byCName[cname]; ok && cur.File == path {
			delete(t.byCName, cname)
			if again := t.findQualifiedLocked(sym.Qualified); again != nil {
				t.byCName[cname] = again
			}
		}
		if sym.CType != "" {
			base := symbols.TrimCSuffix(sym.CType)
			if cur, ok := t.byCName[base]; ok && cur.File == path {
				delete(t.byCName, base)
			}
		}
	}

	if pkg, ok := t.packageOfFile[path]; ok {
		delete(t.packageOfFile, path)
		t.filesOfPackage[pkg] = dropString(t.filesOfPackage[pkg], path)
		if len(t.filesOfPackage[pkg]) == 0 {
			delete(t.filesOfPackage, pkg)
		}
	}
}

func (t *Table) findQualifiedLocked(qualified string) *symbols.Symbol {
	var found *symbols.Symbol
	for _, list := range t.byFile {
		for _, s := range list {
			if s.Qualified != qualified {
				continue
			}
			if found == nil || s.File < found.File {
				found = s
			}
		}
	}
	return found
}

// LookupBySimpleName returns all symbols with the given simple name,
// ordered by package name then declaration order. The ordering is an
// explicit key, never the incidental iteration order of the store, so
// ambiguity tie-breaks reproduce across runs.
func (t *Table) LookupBySimpleName(name string) []*symbols.Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return sortedCopy(t.bySimple[name])
}

// LookupByQualified returns the symbol for pkg.Name, or nil. Under a
// naming conflict the last reindexed declaration wins.
func (t *Table) LookupByQualified(pkg, name string) *symbols.Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byQualified[pkg+"."+name]
}

// LookupByPackage returns all symbols declared in the package, across
// every file that declares it, in deterministic order.
func (t *Table) LookupByPackage(pkg string) []*symbols.Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return sortedCopy(t.byPackage[pkg])
}

// SymbolsInFile returns the symbols attributed to a file, in
// declaration order.
func (t *Table) SymbolsInFile(path string) []*symbols.Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*symbols.Symbol, len(t.byFile[path]))
	copy(out, t.byFile[path])
	return out
}

// Files returns the paths of every indexed file, sorted.
func (t *Table) Files() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.byFile))
	for f := range t.byFile {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// PackageKnown reports whether any indexed file declares the package.
func (t *Table) PackageKnown(pkg string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.filesOfPackage[pkg]) > 0
}

// PackageToFile returns the file declaring the package. When several
// files declare it, the lexicographically first is returned so the
// answer is stable.
func (t *Table) PackageToFile(pkg string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	files := t.filesOfPackage[pkg]
	if len(files) == 0 {
		return "", false
	}
	return files[0], true
}

// PackageOfFile returns the package an indexed file declared.
func (t *Table) PackageOfFile(path string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	pkg, ok := t.packageOfFile[path]
	return pkg, ok
}

// LookupByCName resolves a generated C identifier such as
// tstiop__my_struct_a__t back to its IOP symbol.
func (t *Table) LookupByCName(ident string) *symbols.Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byCName[symbols.TrimCSuffix(ident)]
}

// EnumMembers returns every enum value with the given name across all
// indexed enums, in deterministic order.
func (t *Table) EnumMembers(name string) []EnumMember {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var owners []*symbols.Symbol
	for _, list := range t.byFile {
		for _, sym := range list {
			if sym.Kind == symbols.Enum && sym.Member(name) != nil {
				owners = append(owners, sym)
			}
		}
	}
	sortSymbols(owners)

	out := make([]EnumMember, 0, len(owners))
	for _, sym := range owners {
		out = append(out, EnumMember{Symbol: sym, Member: sym.Member(name)})
	}
	return out
}

// Diagnostics returns all recorded file diagnostics, ordered by file.
func (t *Table) Diagnostics() []Diagnostic {
	t.mu.RLock()
	defer t.mu.RUnlock()

	files := make([]string, 0, len(t.diags))
	for f := range t.diags {
		files = append(files, f)
	}
	sort.Strings(files)

	var out []Diagnostic
	for _, f := range files {
		out = append(out, t.diags[f]...)
	}
	return out
}

// Stats summarizes table contents.
type Stats struct {
	Files    int
	Packages int
	Symbols  int
}

// Stats returns current table counts.
func (t *Table) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, list := range t.byFile {
		n += len(list)
	}
	return Stats{
		Files:    len(t.byFile),
		Packages: len(t.filesOfPackage),
		Symbols:  n,
	}
}

func sortedCopy(in []*symbols.Symbol) []*symbols.Symbol {
	out := make([]*symbols.Symbol, len(in))
	copy(out, in)
	sortSymbols(out)
	return out
}

// sortSymbols orders by package name, then declaring file, then
// declaration order within the file.
func sortSymbols(syms []*symbols.Symbol) {
	sort.SliceStable(syms, func(i, j int) bool {
		a, b := syms[i], syms[j]
		if a.Package != b.Package {
			return a.Package < b.Package
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Order < b.Order
	})
}

func dropFromFile(in []*symbols.Symbol, path string) []*symbols.Symbol {
	out := in[:0]
	for _, s := range in {
		if s.File != path {
			out = append(out, s)
		}
	}
	return out
}

func dropString(in []string, s string) []string {
	out := in[:0]
	for _, v := range in {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

func insertSorted(in []string, s string) []string {
	for _, v := range in {
		if v == s {
			return in
		}
	}
	in = append(in, s)
	sort.Strings(in)
	return in
}
