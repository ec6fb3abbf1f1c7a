// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityFilter(t *testing.T) {
	all := MatchAllFilter()
	assert.True(t, all.MatchAll())
	assert.False(t, all.MatchesNothing())
	assert.Nil(t, all.Keys())
	assert.Equal(t, "<all>", all.String())

	var zero EntityFilter
	assert.Equal(t, all, zero)

	none := NewEntityFilter()
	assert.False(t, none.MatchAll())
	assert.True(t, none.MatchesNothing())
	assert.Empty(t, none.Keys())
	assert.NotNil(t, none.Keys())
	assert.Equal(t, "[]", none.String())

	some := NewEntityFilter("DOC", "ENG")
	assert.True(t, some.Allows("ENG"))
	assert.False(t, some.Allows("HR"))
	assert.Equal(t, "[DOC,ENG]", some.String())

	assert.Equal(t, some, ParseEntityFilter("ENG, DOC"))
}
