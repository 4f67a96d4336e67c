// Package cleaner provides interfaces and implementations for cleaning HTML content.
// Cleaners turn imported post bodies into markup that is safe to store and render.
package cleaner

// Cleaner transforms HTML content into a cleaner format.
// The default implementation is the scrub pipeline in pkg/cleaner/scrub.
type Cleaner interface {
	// Clean transforms the input HTML into a cleaned format.
	// The output format depends on the implementation (HTML, markdown, etc.).
	Clean(html string) (string, error)

	// Name returns the cleaner type for logging/debugging.
	Name() string
}
