// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassificationValidate(t *testing.T) {
	assert.NoError(t, ClassificationHuman.Validate())
	assert.NoError(t, ClassificationAutomated.Validate())
	assert.NoError(t, ClassificationUnknown.Validate())
	assert.Error(t, Classification("robot").Validate())
	assert.Error(t, Classification("").Validate())
}

func TestClassificationBestPrecedence(t *testing.T) {
	assert.Equal(t, ClassificationHuman, ClassificationAutomated.Best(ClassificationHuman))
	assert.Equal(t, ClassificationHuman, ClassificationHuman.Best(ClassificationAutomated))
	assert.Equal(t, ClassificationUnknown, ClassificationAutomated.Best(ClassificationUnknown))
	assert.Equal(t, ClassificationHuman, ClassificationUnknown.Best(ClassificationHuman))
	assert.Equal(t, ClassificationAutomated, ClassificationAutomated.Best(ClassificationAutomated))
}

func TestVisitorKeyString(t *testing.T) {
	vk := VisitorKey{IPHash: "abc123", UserAgent: "Mozilla/5.0"}
	assert.Equal(t, "abc123|Mozilla/5.0", vk.String())
}

func TestVisitorKeyIsZero(t *testing.T) {
	assert.True(t, VisitorKey{}.IsZero())
	assert.False(t, VisitorKey{IPHash: "x"}.IsZero())
	assert.False(t, VisitorKey{UserAgent: "curl/8.0"}.IsZero())
}

func TestVisitorKeyEquality(t *testing.T) {
	a := VisitorKey{IPHash: "h1", UserAgent: "ua1"}
	b := VisitorKey{IPHash: "h1", UserAgent: "ua1"}
	c := VisitorKey{IPHash: "h1", UserAgent: "ua2"}
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	m := map[VisitorKey]int{a: 1}
	m[b]++
	assert.Equal(t, 2, m[a])
}
