// Package idgen generates short, URL-safe, prefixed entity IDs backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Entity prefixes. The prefix makes an ID self-describing in logs and URLs.
const (
	ProjectPrefix    = "pj-"
	InitiativePrefix = "in-"
	DependencyPrefix = "dp-"
	TaskPrefix       = "tk-"
)

// Alphabet defines the character set used for the random portion of the ID.
// Lowercase only, so IDs survive case-insensitive terminals and URLs.
var Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 10

// Project returns a new project ID.
func Project() (string, error) { return GenerateWithPrefix(ProjectPrefix) }

// Initiative returns a new initiative ID.
func Initiative() (string, error) { return GenerateWithPrefix(InitiativePrefix) }

// Dependency returns a new dependency ID.
func Dependency() (string, error) { return GenerateWithPrefix(DependencyPrefix) }

// Task returns a new task ID.
func Task() (string, error) { return GenerateWithPrefix(TaskPrefix) }

// GenerateWithPrefix returns a new unique ID with the given prefix.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
