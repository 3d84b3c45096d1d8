// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package common

import "fmt"

// Classification is a three-way verdict attached to a session
// (and derived for a whole visitor) by the traffic engine.
type Classification string

const (
	ClassificationHuman     Classification = "human"
	ClassificationAutomated Classification = "automated"
	ClassificationUnknown   Classification = "unknown"
)

func (c Classification) Validate() error {
	if c != ClassificationHuman && c != ClassificationAutomated && c != ClassificationUnknown {
		return fmt.Errorf("invalid classification: `%s`", c)
	}
	return nil
}

// precedence returns ordering for Best(); a higher value wins.
// The order is human > unknown > automated, i.e. a visitor with
// at least one human-looking session is considered human.
func (c Classification) precedence() int {
	switch c {
	case ClassificationHuman:
		return 2
	case ClassificationUnknown:
		return 1
	default:
		return 0
	}
}

// Best returns the more human-leaning of the two classifications.
func (c Classification) Best(other Classification) Classification {
	if other.precedence() > c.precedence() {
		return other
	}
	return c
}

// ---------------------

// VisitorKey is an identity proxy grouping requests into one visitor's
// activity. It is derived from a salted hash of the client IP plus the raw
// user agent string. The key is not unique in a cryptographic sense - NATed
// users sharing a browser coalesce and a user agent change splits a visitor
// in two. That is an accepted property, not a defect.
type VisitorKey struct {
	IPHash    string
	UserAgent string
}

func (vk VisitorKey) String() string {
	return vk.IPHash + "|" + vk.UserAgent
}

func (vk VisitorKey) IsZero() bool {
	return vk.IPHash == "" && vk.UserAgent == ""
}
