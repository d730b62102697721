// Package catalog builds the in-memory index of podcast records found in a
// directory of JSON documents.
//
// A catalog is built once per load and never updated in place; reloading
// produces a fresh Catalog. Problems with individual files are reported as
// diagnostics and never abort the scan.
package catalog

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/samber/lo"

	"podboard/internal/domain"
	"podboard/internal/fuzzy"
)

const extension = ".json"

// Catalog maps podcast titles to records.
type Catalog struct {
	records map[string]domain.PodcastRecord
	sources map[string]string
}

func newCatalog() *Catalog {
	return &Catalog{
		records: make(map[string]domain.PodcastRecord),
		sources: make(map[string]string),
	}
}

// Len returns the number of indexed titles.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

// Get returns the record indexed under title.
func (c *Catalog) Get(title string) (domain.PodcastRecord, bool) {
	if c == nil {
		return domain.PodcastRecord{}, false
	}
	rec, ok := c.records[title]
	return rec, ok
}

// Source returns the file name the record for title was read from.
func (c *Catalog) Source(title string) string {
	if c == nil {
		return ""
	}
	return c.sources[title]
}

// Titles returns every indexed title in sorted order.
func (c *Catalog) Titles() []string {
	if c == nil {
		return nil
	}
	titles := lo.Keys(c.records)
	sort.Strings(titles)
	return titles
}

// Filter returns the titles matching query, best match first.
func (c *Catalog) Filter(query string) []string {
	if c == nil {
		return nil
	}
	return fuzzy.Rank(lo.Keys(c.records), query)
}

// put indexes rec and returns the file it replaced, if any.
func (c *Catalog) put(file string, rec domain.PodcastRecord) (string, bool) {
	title := rec.Title()
	previous, replaced := c.sources[title]
	c.records[title] = rec
	c.sources[title] = file
	return previous, replaced
}

// Result is the outcome of one load.
type Result struct {
	Dir         string
	Catalog     *Catalog
	Diagnostics []Diagnostic
}

// Excluded returns the diagnostics of files left out of the catalog.
func (r Result) Excluded() []Diagnostic {
	return lo.Filter(r.Diagnostics, func(d Diagnostic, _ int) bool {
		return d.Excluded()
	})
}

// Load scans dir for JSON podcast records. See LoadFS.
func Load(dir string) Result {
	result := LoadFS(os.DirFS(dir))
	result.Dir = dir
	return result
}

// LoadFS scans the root of fsys, non-recursively, for files ending in .json.
// Files are processed in lexical order; when two files declare the same
// title the later one wins and a KindDuplicate diagnostic is recorded.
func LoadFS(fsys fs.FS) Result {
	result := Result{Catalog: newCatalog()}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		result.report(Diagnostic{File: ".", Kind: KindRead, Err: err})
		return result
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, extension) {
			continue
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			result.report(Diagnostic{File: name, Kind: KindRead, Err: err})
			continue
		}

		rec, err := Validate(data)
		if err != nil {
			result.report(Diagnostic{File: name, Kind: kindOf(err), Err: err})
			continue
		}

		if previous, replaced := result.Catalog.put(name, rec); replaced {
			result.report(Diagnostic{
				File: name,
				Kind: KindDuplicate,
				Err:  fmt.Errorf("title %q already declared by %s; keeping %s", rec.Title(), previous, name),
			})
		}
	}

	return result
}

func (r *Result) report(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
	log.Printf("catalog: %s", d)
}
