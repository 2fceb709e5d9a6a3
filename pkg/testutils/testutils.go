// Package testutils provides helpers for the ginkgo based tests.
package testutils

import (
	. "github.com/onsi/gomega"
)

// MustBeSuccessful fails the current test if err is not nil.
func MustBeSuccessful(err error) {
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
}

// Must returns the value if err is nil, otherwise the test fails.
func Must[T any](v T, err error) T {
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return v
}

// MustFailWith fails the current test if err does not wrap target.
func MustFailWith(err error, target error) {
	ExpectWithOffset(1, err).To(MatchError(target))
}
