// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ranker

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RejectsShortIDs(t *testing.T) {
	reg := NewRegistry(nil, nil)

	for _, id := range []string{"", "short", "1234567"} {
		_, err := reg.Get(id)
		assert.Equal(t, KindInvalidArgument, KindOf(err), "id %q", id)
	}
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_CreatesOnFirstReference(t *testing.T) {
	reg := NewRegistry(nil, nil)

	l1, err := reg.Get("abcdefgh")
	require.NoError(t, err)
	l2, err := reg.Get("abcdefgh")
	require.NoError(t, err)

	assert.Same(t, l1, l2, "same id must resolve to the same list")
	assert.Equal(t, 1, reg.Len())

	_, err = reg.Get("ijklmnop")
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_EphemeralMode(t *testing.T) {
	reg := NewRegistry(nil, nil)
	assert.False(t, reg.Persistent())
	assert.NoError(t, reg.Load(context.Background()))
	assert.NoError(t, reg.Close())
}

func TestRegistry_ConcurrentGet(t *testing.T) {
	reg := NewRegistry(nil, nil)

	var wg sync.WaitGroup
	lists := make([]*List, 32)
	for i := range lists {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l, err := reg.Get("abcdefgh")
			assert.NoError(t, err)
			lists[i] = l
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(lists); i++ {
		assert.Same(t, lists[0], lists[i])
	}
}

func TestRegistry_ParallelListsDoNotInterfere(t *testing.T) {
	reg := NewRegistry(nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("list-%04d", i)
			l, err := reg.Get(id)
			if !assert.NoError(t, err) {
				return
			}
			assert.NoError(t, l.AddComparison(ctx, "A", "B", "A"))
			assert.NoError(t, l.AddComparison(ctx, "B", "C", "B"))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		l, err := reg.Get(fmt.Sprintf("list-%04d", i))
		require.NoError(t, err)
		rankings, _ := l.Rankings()
		assert.Len(t, rankings, 3)
	}
}
