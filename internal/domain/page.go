package domain

// RemotePage represents a page on the remote content service
type RemotePage struct {
	// ID is the service-assigned page identifier
	ID string

	// Title is the page title, unique among siblings by convention
	// (the service does not enforce this)
	Title string

	// ParentID is the identifier of the parent page, empty for
	// space top-level pages
	ParentID string

	// Version is the current version number, required for updates
	Version int

	// Body is the page body in storage format
	Body string
}
