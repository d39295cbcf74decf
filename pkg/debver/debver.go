// SPDX-License-Identifier: MPL-2.0

// Package debver implements parsing and ordering of Debian-style version
// strings of the form [epoch:]upstream[-revision]. Every resolution decision
// in graft (which version satisfies a request, which installed version is
// superseded) goes through this package.
package debver

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrMalformedVersion indicates a version string that cannot be parsed.
	// The only rejected input is the empty string.
	ErrMalformedVersion = errors.New("malformed version string")

	// ErrUnknownOperator indicates an unsupported comparison operator.
	ErrUnknownOperator = errors.New("unknown version operator")
)

// Version is a parsed Debian-style version triple.
type Version struct {
	// Epoch is the numeric epoch prefix; 0 when absent.
	Epoch int
	// Upstream is the upstream version. It may itself contain hyphens;
	// the revision is only the text after the last one.
	Upstream string
	// Revision is the package revision; "0" when absent.
	Revision string
}

// String returns the version in [epoch:]upstream-revision form.
func (v Version) String() string {
	if v.Epoch == 0 {
		return v.Upstream + "-" + v.Revision
	}
	return fmt.Sprintf("%d:%s-%s", v.Epoch, v.Upstream, v.Revision)
}

// Parse splits a version string into its epoch, upstream, and revision
// components. The epoch defaults to 0 and the revision to "0" when absent.
// A leading "digits:" prefix is only treated as an epoch when it is purely
// numeric; otherwise the colon belongs to the upstream component.
func Parse(s string) (Version, error) {
	if s == "" {
		return Version{}, ErrMalformedVersion
	}

	v := Version{Revision: "0"}

	rest := s
	if idx := strings.Index(rest, ":"); idx > 0 {
		if epoch, err := strconv.Atoi(rest[:idx]); err == nil && epoch >= 0 {
			v.Epoch = epoch
			rest = rest[idx+1:]
		}
	}

	if idx := strings.LastIndex(rest, "-"); idx >= 0 {
		v.Upstream = rest[:idx]
		v.Revision = rest[idx+1:]
	} else {
		v.Upstream = rest
	}

	return v, nil
}

// charOrder ranks a byte within a non-digit run: letters sort by byte value,
// and every non-letter byte sorts strictly higher than any letter.
func charOrder(c byte) int {
	if isLetter(c) {
		return int(c)
	}
	return int(c) + 256
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// CompareSegment compares two version fragments by alternating between
// maximal non-digit runs (byte-by-byte, non-letters above letters, end of
// string below everything) and maximal digit runs (as unsigned integers,
// leading zeros insignificant). Returns -1, 0, or 1.
func CompareSegment(a, b string) int {
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		// Non-digit run. End of string and the start of a digit run both
		// rank below every byte, so the longer run wins on equal content.
		for (i < len(a) && !isDigit(a[i])) || (j < len(b) && !isDigit(b[j])) {
			var ac, bc int
			if i < len(a) && !isDigit(a[i]) {
				ac = charOrder(a[i])
			}
			if j < len(b) && !isDigit(b[j]) {
				bc = charOrder(b[j])
			}
			if ac != bc {
				return sign(ac - bc)
			}
			i++
			j++
		}

		// Digit run, compared as unsigned integers.
		for i < len(a) && a[i] == '0' {
			i++
		}
		for j < len(b) && b[j] == '0' {
			j++
		}
		firstDiff := 0
		for i < len(a) && isDigit(a[i]) && j < len(b) && isDigit(b[j]) {
			if firstDiff == 0 {
				firstDiff = int(a[i]) - int(b[j])
			}
			i++
			j++
		}
		// The longer digit run is the larger number.
		if i < len(a) && isDigit(a[i]) {
			return 1
		}
		if j < len(b) && isDigit(b[j]) {
			return -1
		}
		if firstDiff != 0 {
			return sign(firstDiff)
		}
	}
	return 0
}

// cmpPair keys the memoization cache by the literal operand strings.
type cmpPair struct {
	a, b string
}

// Comparator compares full version strings, memoizing raw comparison
// results for the duration of one resolution run. Construct one per run
// with New and pass it to whatever needs version decisions; it is not
// safe for concurrent use.
type Comparator struct {
	cache map[cmpPair]int
}

// New creates a Comparator with an empty cache.
func New() *Comparator {
	return &Comparator{cache: make(map[cmpPair]int)}
}

// cmp returns the three-way ordering of v1 and v2 as full version strings,
// comparing epoch, upstream, and revision in turn and short-circuiting at
// the first non-zero component. Results are cached pairwise: storing the
// result for (a,b) also stores the negated result for (b,a).
func (c *Comparator) cmp(v1, v2 string) (int, error) {
	if r, ok := c.cache[cmpPair{v1, v2}]; ok {
		return r, nil
	}

	p1, err := Parse(v1)
	if err != nil {
		return 0, fmt.Errorf("compare %q: %w", v1, err)
	}
	p2, err := Parse(v2)
	if err != nil {
		return 0, fmt.Errorf("compare %q: %w", v2, err)
	}

	r := CompareSegment(strconv.Itoa(p1.Epoch), strconv.Itoa(p2.Epoch))
	if r == 0 {
		r = CompareSegment(p1.Upstream, p2.Upstream)
	}
	if r == 0 {
		r = CompareSegment(p1.Revision, p2.Revision)
	}

	c.cache[cmpPair{v1, v2}] = r
	c.cache[cmpPair{v2, v1}] = -r
	return r, nil
}

// Compare evaluates "v1 op v2" where op is one of <<, <=, =, >=, >>.
// The three-way operator <=> is accepted by Cmp, not here.
func (c *Comparator) Compare(v1, op, v2 string) (bool, error) {
	r, err := c.cmp(v1, v2)
	if err != nil {
		return false, err
	}

	switch op {
	case "<<":
		return r < 0, nil
	case "<=":
		return r <= 0, nil
	case "=":
		return r == 0, nil
	case ">=":
		return r >= 0, nil
	case ">>":
		return r > 0, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownOperator, op)
	}
}

// Cmp is the three-way form ("<=>"): -1 if v1 sorts before v2, 0 if they
// are equal, 1 if v1 sorts after v2.
func (c *Comparator) Cmp(v1, v2 string) (int, error) {
	return c.cmp(v1, v2)
}

// Latest returns the greatest version in the sequence, folding left with
// the first element as the initial candidate. Empty input is an error.
func (c *Comparator) Latest(versions []string) (string, error) {
	if len(versions) == 0 {
		return "", fmt.Errorf("latest: %w", ErrMalformedVersion)
	}

	latest := versions[0]
	for _, v := range versions[1:] {
		newer, err := c.Compare(v, ">>", latest)
		if err != nil {
			return "", err
		}
		if newer {
			latest = v
		}
	}
	return latest, nil
}

// SortAscending returns a copy of versions stably sorted from oldest to
// newest. All elements are validated up front so the sort itself cannot
// fail mid-way.
func (c *Comparator) SortAscending(versions []string) ([]string, error) {
	for _, v := range versions {
		if _, err := Parse(v); err != nil {
			return nil, fmt.Errorf("sort %q: %w", v, err)
		}
	}

	sorted := make([]string, len(versions))
	copy(sorted, versions)
	sort.SliceStable(sorted, func(i, j int) bool {
		// Elements were validated above, so cmp cannot error here.
		r, _ := c.cmp(sorted[i], sorted[j])
		return r < 0
	})
	return sorted, nil
}
