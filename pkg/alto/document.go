package alto

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Document is a parsed ALTO file. The underlying element tree stays fully
// intact so the document can be rewritten in place after mutation.
type Document struct {
	tree *etree.Document

	// Namespace is the resolved default namespace URI, set by ResolveNamespace.
	Namespace string
	// Path is the file the document was read from, if any.
	Path string
}

// ParseOptions control how ALTO XML input is decoded.
type ParseOptions struct {
	// Encoding overrides the encoding declared in the XML prolog.
	// An empty value trusts the declaration.
	Encoding string
}

// Parse reads ALTO XML from r. Non-UTF-8 input is decoded using the encoding
// declared in the XML prolog, or the override from opts when provided.
func Parse(r io.Reader, opts *ParseOptions) (*Document, error) {
	tree := etree.NewDocument()
	tree.ReadSettings.CharsetReader = charset.NewReaderLabel

	if opts != nil && opts.Encoding != "" && !strings.EqualFold(opts.Encoding, "utf-8") {
		enc, err := htmlindex.Get(opts.Encoding)
		if err != nil {
			return nil, fmt.Errorf("unknown encoding %q: %w", opts.Encoding, err)
		}
		r = transform.NewReader(r, enc.NewDecoder())
		// The stream is already UTF-8 at this point; ignore the declared label.
		tree.ReadSettings.CharsetReader = passthroughCharsetReader
	}

	if _, err := tree.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("parsing ALTO XML: %w", err)
	}
	if tree.Root() == nil {
		return nil, fmt.Errorf("parsing ALTO XML: no root element")
	}
	return &Document{tree: tree}, nil
}

func passthroughCharsetReader(_ string, input io.Reader) (io.Reader, error) {
	return input, nil
}

// ParseFile reads and parses the ALTO file at path.
func ParseFile(path string, opts *ParseOptions) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// Root returns the document's root element, or nil for an empty document.
func (d *Document) Root() *etree.Element {
	return d.tree.Root()
}

// FindAll walks the tree in document order and collects every element whose
// local tag matches name. Matching by local tag makes lookups work for both
// default-namespace and prefixed ALTO dialects once the namespace has been
// resolved for the document.
func (d *Document) FindAll(name string) []*etree.Element {
	var found []*etree.Element
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		if el.Tag == name {
			found = append(found, el)
		}
		for _, child := range el.ChildElements() {
			walk(child)
		}
	}
	if root := d.tree.Root(); root != nil {
		walk(root)
	}
	return found
}

// TextLines returns typed views over every TextLine element in document
// order. A TextLine with malformed geometry attributes fails the whole
// call; geometry correctness is load-bearing for re-OCR.
func (d *Document) TextLines() ([]*TextLine, error) {
	els := d.FindAll("TextLine")
	lines := make([]*TextLine, 0, len(els))
	for i, el := range els {
		line, err := NewTextLine(el)
		if err != nil {
			return nil, fmt.Errorf("TextLine %d: %w", i, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// WriteTo serializes the document as UTF-8 XML.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	d.ensureDeclaration()
	return d.tree.WriteTo(w)
}

// WriteFile serializes the document in place at path, with an XML
// declaration and the original default namespace left as declared on the
// root, so rewritten elements serialize without prefixes.
func (d *Document) WriteFile(path string) error {
	d.ensureDeclaration()
	if err := d.tree.WriteToFile(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ensureDeclaration guarantees an XML declaration is present at the head of
// the serialized output. Documents parsed from files normally keep theirs.
func (d *Document) ensureDeclaration() {
	for _, tok := range d.tree.Child {
		if _, ok := tok.(*etree.ProcInst); ok {
			return
		}
	}
	decl := d.tree.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	d.tree.RemoveChild(decl)
	d.tree.InsertChildAt(0, decl)
}
