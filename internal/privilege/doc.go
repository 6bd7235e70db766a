// Package privilege reports whether the current process already holds the
// rights an installer needs.
package privilege
