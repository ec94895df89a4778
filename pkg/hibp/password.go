package hibp

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// hashPrefixLen is the number of leading hash characters sent to the server
// in a k-Anonymity range query. The remaining suffix never leaves the client.
const hashPrefixLen = 5

// PwnedPassword is one row of a k-Anonymity range response: a 35-character
// hash suffix and the number of times the matching password was seen in
// breaches. Padded responses include decoy rows, usually with a count of 0.
type PwnedPassword struct {
	HashSuffix string
	Count      int64
}

// HashPassword computes the SHA-1 digest of a password as 40 uppercase hex
// characters, the exact encoding the pwned-passwords API expects.
func HashPassword(password string) string {
	sum := sha1.Sum([]byte(password))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// SearchPasswordRange returns all known hash suffixes sharing the given
// 5-character prefix. Malformed rows are skipped.
func (c *Client) SearchPasswordRange(ctx context.Context, hashPrefix string) ([]PwnedPassword, error) {
	return c.searchPasswordRange(ctx, hashPrefix, false)
}

// SearchPasswordRangePadded is SearchPasswordRange with server-side padding:
// the response is inflated with decoy rows so its size reveals nothing about
// the real result set.
func (c *Client) SearchPasswordRangePadded(ctx context.Context, hashPrefix string) ([]PwnedPassword, error) {
	return c.searchPasswordRange(ctx, hashPrefix, true)
}

func (c *Client) searchPasswordRange(ctx context.Context, hashPrefix string, padded bool) ([]PwnedPassword, error) {
	body, err := c.fetchRange(ctx, hashPrefix, padded)
	if err != nil {
		return nil, err
	}

	var passwords []PwnedPassword
	for _, line := range strings.Split(body, "\n") {
		suffix, count, ok := parseRangeLine(line)
		if !ok {
			continue
		}
		passwords = append(passwords, PwnedPassword{HashSuffix: suffix, Count: count})
	}
	return passwords, nil
}

// CheckPassword reports how many times a password appears in known breaches,
// or 0 when it was never seen. Only the first 5 characters of the password's
// SHA-1 hash are sent to the server.
func (c *Client) CheckPassword(ctx context.Context, password string) (int64, error) {
	return c.checkPassword(ctx, password, false)
}

// CheckPasswordPadded is CheckPassword with server-side padding enabled.
// Decoy rows never affect the result: only the row matching the full local
// suffix is authoritative.
func (c *Client) CheckPasswordPadded(ctx context.Context, password string) (int64, error) {
	return c.checkPassword(ctx, password, true)
}

func (c *Client) checkPassword(ctx context.Context, password string, padded bool) (int64, error) {
	hash := HashPassword(password)
	prefix := hash[:hashPrefixLen]
	suffix := hash[hashPrefixLen:]

	body, err := c.fetchRange(ctx, prefix, padded)
	if err != nil {
		return 0, err
	}

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lineSuffix, count, ok := parseRangeLine(line)
		if ok {
			if strings.EqualFold(lineSuffix, suffix) {
				return count, nil
			}
			continue
		}

		// A malformed decoy is skipped, but a malformed row for the suffix
		// we are actually looking up means the answer is unusable.
		if strings.EqualFold(malformedLineSuffix(line), suffix) {
			return 0, &ProtocolError{Line: line}
		}
	}
	return 0, nil
}

// fetchRange performs the range GET shared by the search and check paths.
func (c *Client) fetchRange(ctx context.Context, hashPrefix string, padded bool) (string, error) {
	if len(hashPrefix) != hashPrefixLen {
		return "", fmt.Errorf("hash prefix must be exactly %d characters", hashPrefixLen)
	}

	url := fmt.Sprintf("%s/range/%s", c.passwordBaseURL, hashPrefix)
	var headers map[string]string
	if padded {
		headers = map[string]string{"Add-Padding": "true"}
	}
	return c.getText(ctx, url, headers)
}

// parseRangeLine parses one "SUFFIX:COUNT" row. ok is false when the row has
// no separator or a non-numeric count.
func parseRangeLine(line string) (suffix string, count int64, ok bool) {
	line = strings.TrimSpace(line)
	suffix, countStr, found := strings.Cut(line, ":")
	if !found || suffix == "" {
		return "", 0, false
	}
	count, err := strconv.ParseInt(strings.TrimSpace(countStr), 10, 64)
	if err != nil {
		return "", 0, false
	}
	return suffix, count, true
}

// malformedLineSuffix extracts whatever stands before the separator of a row
// that failed to parse, so it can still be compared against the local suffix.
func malformedLineSuffix(line string) string {
	suffix, _, _ := strings.Cut(line, ":")
	return strings.TrimSpace(suffix)
}
