package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// <@U024BE7LH> or <@U024BE7LH|alice>
	mentionRegex = regexp.MustCompile(`^<@([A-Za-z0-9_-]+)(?:\|([^>]*))?>$`)
	bareIDRegex  = regexp.MustCompile(`^@?([A-Za-z0-9_-]+)$`)
)

// TargetRef is a parsed user reference.
type TargetRef struct {
	ID   string
	Name string // only set when the reference carried a display label
}

// ParseTarget resolves a user reference token into an id.
func ParseTarget(ref string) (TargetRef, error) {
	ref = strings.TrimSpace(ref)
	if m := mentionRegex.FindStringSubmatch(ref); m != nil {
		return TargetRef{ID: m[1], Name: strings.TrimSpace(m[2])}, nil
	}
	if m := bareIDRegex.FindStringSubmatch(ref); m != nil {
		return TargetRef{ID: m[1]}, nil
	}
	return TargetRef{}, ErrInvalidTarget(ref)
}

// ValidateID checks that id is usable as a record key.
func ValidateID(id string) error {
	if id == "" {
		return ErrInvalidTarget(id)
	}
	if !bareIDRegex.MatchString(id) || strings.HasPrefix(id, "@") {
		return ErrInvalidTarget(id)
	}
	return nil
}

// ValidateRosterSize checks a requested roster size against the configured ceiling.
func ValidateRosterSize(size, max int) error {
	if size <= 0 {
		return ErrValidation(fmt.Sprintf("roster size must be positive, got %d", size))
	}
	if max > 0 && size > max {
		return ErrValidation(fmt.Sprintf("roster size %d exceeds the maximum of %d", size, max))
	}
	return nil
}
