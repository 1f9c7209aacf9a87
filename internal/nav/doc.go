// Package nav rewrites the nav: section of the MkDocs configuration so the
// generated pages appear in the site navigation. Other keys and comments in
// the file are preserved.
package nav
