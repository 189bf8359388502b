package scraper

import "fmt"

// RemoteRequestError reports a non-success HTTP status that survived
// the retry budget.
type RemoteRequestError struct {
	URL    string
	Status int
}

func (e *RemoteRequestError) Error() string {
	return fmt.Sprintf("error while accessing %s - status code: [%d]", e.URL, e.Status)
}

// DirectoryAccessError indicates the target or attachments directory
// could not be created or accessed.
type DirectoryAccessError struct {
	Path string
	Err  error
}

func (e *DirectoryAccessError) Error() string {
	return fmt.Sprintf("failed to access or create directory %q: %v", e.Path, e.Err)
}

func (e *DirectoryAccessError) Unwrap() error {
	return e.Err
}
