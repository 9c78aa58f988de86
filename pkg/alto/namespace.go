package alto

import (
	"errors"
	"fmt"
)

// Namespace URIs of the ALTO dialects this package recognizes.
// https://www.loc.gov/standards/alto/ | https://github.com/altoxml
// alto-bnf is the unofficial BnF production dialect, see
// http://bibnum.bnf.fr/alto_prod/documentation/alto_prod.html
const (
	NamespaceCCS   = "http://schema.ccs-gmbh.com/ALTO"
	NamespaceLOCv2 = "http://www.loc.gov/standards/alto/ns-v2#"
	NamespaceLOCv3 = "http://www.loc.gov/standards/alto/ns-v3#"
	NamespaceLOCv4 = "http://www.loc.gov/standards/alto/ns-v4#"
	NamespaceBnF   = "http://bibnum.bnf.fr/ns/alto_prod"
)

var registeredNamespaces = map[string]string{
	"alto-1":   NamespaceCCS,
	"alto-2":   NamespaceLOCv2,
	"alto-3":   NamespaceLOCv3,
	"alto-4":   NamespaceLOCv4,
	"alto-bnf": NamespaceBnF,
}

var (
	// ErrNoNamespace indicates a document without any namespace declaration.
	ErrNoNamespace = errors.New("no namespace declaration found")
	// ErrUnknownNamespace indicates a namespace that is not a registered ALTO dialect.
	ErrUnknownNamespace = errors.New("namespace is not registered")
)

// RegisteredNamespaces returns the URIs of all known ALTO dialects.
func RegisteredNamespaces() []string {
	uris := make([]string, 0, len(registeredNamespaces))
	for _, uri := range registeredNamespaces {
		uris = append(uris, uri)
	}
	return uris
}

// ResolveNamespace extracts the default namespace from the document root and
// checks it against the registered ALTO dialects. Qualified element lookups
// require a resolved namespace, so callers should fail a document early when
// this returns an error.
func ResolveNamespace(doc *Document) (string, error) {
	root := doc.Root()
	if root == nil {
		return "", ErrNoNamespace
	}

	uri := ""
	if root.Space != "" {
		// Prefixed root element: resolve the prefix declaration.
		uri = root.SelectAttrValue("xmlns:"+root.Space, "")
	} else {
		uri = root.SelectAttrValue("xmlns", "")
	}
	if uri == "" {
		return "", ErrNoNamespace
	}

	for _, registered := range registeredNamespaces {
		if uri == registered {
			return uri, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownNamespace, uri)
}
