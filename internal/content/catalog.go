package content

import (
	"fmt"
	"strings"
)

// Catalog is the immutable content registry: modules keyed by every alias
// they answer to, plus the book/chapter hierarchy. It is built once at
// startup and never mutated afterwards.
type Catalog struct {
	modules  map[string]*Module // canonical id -> module
	order    []string           // canonical ids in registration order
	aliases  map[string]string  // alias -> canonical id
	books    []Book
	byBook   map[string]*Book
	problems []string
}

// NewCatalog indexes the loaded modules and books. Books whose chapters
// reference unresolvable modules are deactivated rather than failing the
// whole catalog; the reasons are available via Problems.
func NewCatalog(modules []*Module, books []Book) *Catalog {
	c := &Catalog{
		modules: make(map[string]*Module),
		aliases: make(map[string]string),
		byBook:  make(map[string]*Book),
	}

	for _, m := range modules {
		ref, err := ParseModuleID(m.ModuleID)
		if err != nil {
			c.problems = append(c.problems, fmt.Sprintf("module %q: %v", m.ModuleID, err))
			continue
		}
		canonical := ref.CanonicalID()
		if _, dup := c.modules[canonical]; dup {
			c.problems = append(c.problems, fmt.Sprintf("duplicate module %s", canonical))
			continue
		}
		c.modules[canonical] = m
		c.order = append(c.order, canonical)
		c.registerAliases(ref, canonical)
	}

	c.books = make([]Book, len(books))
	copy(c.books, books)
	for i := range c.books {
		b := &c.books[i]
		for _, ch := range b.Chapters {
			for _, id := range ch.ModuleIDs {
				if _, ok := c.CanonicalID(id); !ok {
					if b.IsActive {
						b.IsActive = false
					}
					c.problems = append(c.problems, fmt.Sprintf("book %s chapter %s references missing module %s", b.ID, ch.ID, id))
				}
			}
		}
		c.byBook[b.ID] = b
	}

	return c
}

// registerAliases adds every alias shape for a module. First registration
// wins: the grade-unqualified shapes (mod-NN, NN, module-NN) are only bound
// for grade 6 upper, the grade the legacy naming scheme belonged to.
func (c *Catalog) registerAliases(ref ModuleRef, canonical string) {
	short := fmt.Sprintf("%d%s", ref.Grade, ref.Semester[:1]) // e.g. 6u
	nn := fmt.Sprintf("%02d", ref.Number)

	c.addAlias(canonical, canonical)
	c.addAlias(fmt.Sprintf("%s-%s", short, nn), canonical)     // 6u-03
	c.addAlias(fmt.Sprintf("%s-mod-%s", short, nn), canonical) // 6u-mod-03

	if ref.Grade == 6 && ref.Semester == "upper" {
		c.addAlias("mod-"+nn, canonical)
		c.addAlias(nn, canonical)
		c.addAlias("module-"+nn, canonical) // legacy
	}
}

func (c *Catalog) addAlias(alias, canonical string) {
	if _, exists := c.aliases[alias]; exists {
		return
	}
	c.aliases[alias] = canonical
}

// Resolve looks a module up by any of its aliases. The boolean is false when
// the alias is unknown; callers redirect to a module list view in that case.
func (c *Catalog) Resolve(alias string) (*Module, bool) {
	canonical, ok := c.CanonicalID(alias)
	if !ok {
		return nil, false
	}
	return c.modules[canonical], true
}

// CanonicalID maps any alias to the canonical module id. All progress and
// book membership records are keyed by canonical ids.
func (c *Catalog) CanonicalID(alias string) (string, bool) {
	canonical, ok := c.aliases[strings.TrimSpace(alias)]
	return canonical, ok
}

// Modules returns the registered modules in registration order
func (c *Catalog) Modules() []*Module {
	out := make([]*Module, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.modules[id])
	}
	return out
}

// ListBooks returns every active book
func (c *Catalog) ListBooks() []Book {
	out := make([]Book, 0, len(c.books))
	for _, b := range c.books {
		if b.IsActive {
			out = append(out, b)
		}
	}
	return out
}

// Book returns the book with the given id, active or not
func (c *Catalog) Book(bookID string) (*Book, bool) {
	b, ok := c.byBook[bookID]
	return b, ok
}

// BookChapters returns the ordered chapters of a book
func (c *Catalog) BookChapters(bookID string) ([]Chapter, bool) {
	b, ok := c.byBook[bookID]
	if !ok {
		return nil, false
	}
	return b.Chapters, true
}

// BookContainsModule reports whether any chapter of the book references the
// module (by any alias)
func (c *Catalog) BookContainsModule(bookID, moduleAlias string) bool {
	canonical, ok := c.CanonicalID(moduleAlias)
	if !ok {
		return false
	}
	b, ok := c.byBook[bookID]
	if !ok {
		return false
	}
	for i := range b.Chapters {
		if b.Chapters[i].ContainsModule(canonical) {
			return true
		}
	}
	return false
}

// Problems lists the validation issues found while building the catalog
func (c *Catalog) Problems() []string {
	return c.problems
}
