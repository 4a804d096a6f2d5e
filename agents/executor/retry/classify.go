/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package retry

import "strings"

// throttlingIndicators are lower-case fragments providers put in rate limit
// and quota errors.
var throttlingIndicators = []string{
	"rate_limit_error",
	"rate limit",
	"too many requests",
	"429",
	"quota exceeded",
	"concurrent connections",
	"requests per minute",
}

// IsThrottling reports whether err looks like a provider throttling failure.
// Matching is a case-insensitive substring search over the error text, so it
// works across SDKs that do not share an error type.
func IsThrottling(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, indicator := range throttlingIndicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}
